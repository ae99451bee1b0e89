package httpapi

import (
	"encoding/json"
	"net/http"

	"github.com/rotisserie/eris"

	"jobscrape-engine/internal/domain"
)

type APIError struct {
	Error struct {
		Code      string `json:"code"`
		Message   string `json:"message"`
		RequestID string `json:"request_id,omitempty"`
	} `json:"error"`
}

func WriteJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func WriteError(w http.ResponseWriter, r *http.Request, status int, code, message string) {
	var e APIError
	e.Error.Code = code
	e.Error.Message = message
	e.Error.RequestID = RequestIDFrom(r.Context())
	WriteJSON(w, status, e)
}

// writeServiceError maps an error kind to its status and code.
func writeServiceError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case eris.Is(err, domain.ErrValidation):
		WriteError(w, r, http.StatusBadRequest, "validation_error", err.Error())
	case eris.Is(err, domain.ErrIndexOutOfRange):
		WriteError(w, r, http.StatusNotFound, "index_out_of_range", err.Error())
	case eris.Is(err, domain.ErrDuplicateSite):
		WriteError(w, r, http.StatusConflict, "duplicate_site", err.Error())
	case eris.Is(err, domain.ErrRunInProgress):
		WriteError(w, r, http.StatusConflict, "run_in_progress", "a run is already in progress")
	case eris.Is(err, domain.ErrPersistence):
		WriteError(w, r, http.StatusInternalServerError, "persistence_error", err.Error())
	default:
		WriteError(w, r, http.StatusInternalServerError, "internal_error", "internal server error")
	}
}
