// Package events fans run and registry changes out to SSE subscribers.
package events

import (
	"encoding/json"
	"time"
)

type Type string

const (
	RunStarted   Type = "run_started"
	RunCompleted Type = "run_completed"
	RunFailed    Type = "run_failed"
	SiteAdded    Type = "site_added"
	SiteUpdated  Type = "site_updated"
	SiteDeleted  Type = "site_deleted"
)

// Version is bumped when an event payload changes shape.
const Version = 1

type Event struct {
	Type      Type            `json:"type"`
	Version   int             `json:"v"`
	At        time.Time       `json:"at"`
	RequestID string          `json:"request_id,omitempty"`
	Data      json.RawMessage `json:"data,omitempty"`
}

// Encode renders one event as the JSON line sent to subscribers.
func Encode(reqID string, typ Type, data any) string {
	var raw json.RawMessage
	if data != nil {
		if b, err := json.Marshal(data); err == nil {
			raw = b
		}
	}
	b, _ := json.Marshal(Event{
		Type:      typ,
		Version:   Version,
		At:        time.Now().UTC(),
		RequestID: reqID,
		Data:      raw,
	})
	return string(b)
}
