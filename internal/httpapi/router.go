package httpapi

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"
	"go.uber.org/zap"
)

// NewRouter wires every route behind request-id, recover, access-log and
// CORS middleware.
func NewRouter(d Deps) http.Handler {
	log := d.Log
	if log == nil {
		log = zap.L()
	}

	r := chi.NewRouter()
	r.Use(RequestID)
	r.Use(Recover(log))
	r.Use(AccessLog(log))
	r.Use(corsHandler(d.AllowedOrigins))

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		WriteError(w, r, http.StatusNotFound, "not_found", "no such route")
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		WriteError(w, r, http.StatusMethodNotAllowed, "method_not_allowed", "method not allowed")
	})

	hh := HealthHandler{}
	r.Get("/health", hh.Health)

	jh := JobsHandler{Svc: d.Service}
	r.Get("/jobs", jh.List)

	sh := SitesHandler{Svc: d.Service}
	r.Route("/sites", func(r chi.Router) {
		r.Get("/", sh.List)
		r.Post("/", sh.Create)
		r.Put("/{index}", sh.Update)
		r.Delete("/{index}", sh.Delete)
	})

	sch := ScrapeHandler{Svc: d.Service}
	r.Get("/scrape/status", sch.Status)
	r.Post("/scrape/run", sch.Run)

	eh := EventsHandler{Hub: d.Hub}
	r.Get("/events", eh.ServeSSE)

	return r
}

func corsHandler(origins []string) func(http.Handler) http.Handler {
	opts := cors.Options{
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Content-Type", "X-Request-ID"},
		ExposedHeaders:   []string{"X-Request-ID"},
		AllowCredentials: false,
		MaxAge:           300,
	}
	if len(origins) > 0 {
		opts.AllowedOrigins = origins
	} else {
		opts.AllowOriginFunc = func(_ *http.Request, origin string) bool { return origin != "" }
	}
	return cors.Handler(opts)
}
