package httpapi

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"jobscrape-engine/internal/domain"
)

type SitesHandler struct {
	Svc Service
}

func (h SitesHandler) List(w http.ResponseWriter, r *http.Request) {
	WriteJSON(w, http.StatusOK, h.Svc.Sites())
}

func (h SitesHandler) Create(w http.ResponseWriter, r *http.Request) {
	site, ok := decodeSite(w, r)
	if !ok {
		return
	}
	added, err := h.Svc.AddSite(RequestIDFrom(r.Context()), site)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	WriteJSON(w, http.StatusCreated, added)
}

func (h SitesHandler) Update(w http.ResponseWriter, r *http.Request) {
	i, ok := pathIndex(w, r)
	if !ok {
		return
	}
	site, ok := decodeSite(w, r)
	if !ok {
		return
	}
	updated, err := h.Svc.UpdateSite(RequestIDFrom(r.Context()), i, site)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	WriteJSON(w, http.StatusOK, updated)
}

func (h SitesHandler) Delete(w http.ResponseWriter, r *http.Request) {
	i, ok := pathIndex(w, r)
	if !ok {
		return
	}
	removed, err := h.Svc.DeleteSite(RequestIDFrom(r.Context()), i)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	WriteJSON(w, http.StatusOK, removed)
}

const maxSiteBody = 64 << 10

func decodeSite(w http.ResponseWriter, r *http.Request) (domain.Site, bool) {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxSiteBody))
	dec.DisallowUnknownFields()

	var s domain.Site
	if err := dec.Decode(&s); err != nil {
		WriteError(w, r, http.StatusBadRequest, "validation_error", "invalid JSON: "+err.Error())
		return domain.Site{}, false
	}
	if dec.More() {
		WriteError(w, r, http.StatusBadRequest, "validation_error", "invalid JSON: trailing data")
		return domain.Site{}, false
	}
	return s, true
}

// pathIndex parses {index}. A non-numeric index is a validation error; a
// numeric one outside the registry is left to the service.
func pathIndex(w http.ResponseWriter, r *http.Request) (int, bool) {
	i, err := strconv.Atoi(chi.URLParam(r, "index"))
	if err != nil {
		WriteError(w, r, http.StatusBadRequest, "validation_error", "index must be an integer")
		return 0, false
	}
	return i, true
}
