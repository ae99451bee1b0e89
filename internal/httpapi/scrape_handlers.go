package httpapi

import (
	"context"
	"net/http"
	"strconv"
)

type ScrapeHandler struct {
	Svc Service
}

func (h ScrapeHandler) Status(w http.ResponseWriter, r *http.Request) {
	WriteJSON(w, http.StatusOK, h.Svc.Status())
}

// Run performs a run and replies with its summary. A busy engine answers 409
// unless ?wait=true, which queues behind the current run.
func (h ScrapeHandler) Run(w http.ResponseWriter, r *http.Request) {
	wait, _ := strconv.ParseBool(r.URL.Query().Get("wait"))

	// A client hanging up must not abort a run halfway through its save.
	ctx := context.WithoutCancel(r.Context())

	sum, err := h.Svc.TriggerRun(ctx, RequestIDFrom(r.Context()), wait)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	WriteJSON(w, http.StatusOK, sum)
}
