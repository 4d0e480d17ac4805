package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

func NewRouter(h *Handlers) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(allowExtensionOrigin)

	r.Get("/ping", PingHandler)

	r.Route("/api", func(r chi.Router) {
		r.Get("/toggle", h.GetToggleHandler)
		r.Put("/toggle", h.SetToggleHandler)

		r.Post("/sessions", h.CreateSessionHandler)
		r.Route("/sessions/{id}", func(r chi.Router) {
			r.Get("/", h.SessionStatsHandler)
			r.Delete("/", h.DeleteSessionHandler)
			r.Post("/triggers", h.TriggerHandler)
			r.Post("/classify", h.ClassifyHandler)
			r.Get("/overlays", h.ListOverlaysHandler)
			r.Get("/overlays/{target}", h.GetOverlayHandler)
			r.Delete("/overlays/{target}", h.ClearOverlayHandler)
			r.Post("/feedback", h.FeedbackHandler)
		})
	})

	return r
}

// allowExtensionOrigin lets content scripts on any page reach the daemon.
func allowExtensionOrigin(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type")

		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		next.ServeHTTP(w, r)
	})
}
