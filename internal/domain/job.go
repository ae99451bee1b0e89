package domain

import (
	"sort"
	"strings"
	"time"
)

// Job is one posting in the corpus. ID is derived from Source, Title and
// Company only; the remaining fields are first-seen values.
type Job struct {
	ID           string    `json:"id"`
	Title        string    `json:"title"`
	Company      string    `json:"company"`
	Location     string    `json:"location"`
	Link         string    `json:"link"`
	Source       string    `json:"source"`
	Keyword      string    `json:"keyword"`
	DiscoveredAt time.Time `json:"discoveredAt"`
}

// JobID builds the dedup key for a posting: "source-title-company" with every
// whitespace run collapsed into a single dash.
func JobID(source, title, company string) string {
	return strings.Join(strings.Fields(source+"-"+title+"-"+company), "-")
}

// SortNewestFirst orders jobs by DiscoveredAt descending. Ties keep their
// current relative order.
func SortNewestFirst(jobs []Job) {
	sort.SliceStable(jobs, func(i, j int) bool {
		return jobs[i].DiscoveredAt.After(jobs[j].DiscoveredAt)
	})
}
