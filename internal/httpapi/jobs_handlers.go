package httpapi

import (
	"net/http"
	"strconv"

	"jobscrape-engine/internal/service"
)

type JobsHandler struct {
	Svc Service
}

// List serves the corpus newest first. Optional query: source, keyword, limit.
func (h JobsHandler) List(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	f := service.JobFilter{Source: q.Get("source"), Keyword: q.Get("keyword")}
	if s := q.Get("limit"); s != "" {
		n, err := strconv.Atoi(s)
		if err != nil || n < 0 {
			WriteError(w, r, http.StatusBadRequest, "validation_error", "limit must be a non-negative integer")
			return
		}
		f.Limit = n
	}

	jobs, err := h.Svc.Jobs(r.Context(), f)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	WriteJSON(w, http.StatusOK, jobs)
}
