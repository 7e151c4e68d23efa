/**
 * @description
 * This file sets up the HTTP router for the foundation backend using the go-chi/chi router.
 * It applies middleware for request ids, logging, panics, timeouts, body limits and CORS,
 * and maps the public website routes to their handler functions.
 */
package api

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
)

// MaxBodyBytes caps request bodies.
const MaxBodyBytes = 10 << 20

// NewRouter creates a new Chi router and registers the public routes.
func NewRouter(h *Handler, allowedOrigins []string) *chi.Mux {
	if len(allowedOrigins) == 0 {
		allowedOrigins = []string{"https://*", "http://*"}
	}

	r := chi.NewRouter()

	// Setup middleware
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(60 * time.Second))
	r.Use(middleware.RequestSize(MaxBodyBytes))
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   allowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Content-Type", "X-Request-Id"},
		ExposedHeaders:   []string{"Link"},
		AllowCredentials: true,
		MaxAge:           300, // Maximum value not ignored by any major browsers
	}))

	r.Get("/", h.handleRoot)
	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("Mindron Foundation backend is healthy"))
	})

	r.Post("/subscribe", h.handleSubscribe)
	r.Post("/contact", h.handleContact)
	r.Post("/helpdesk", h.handleHelpdesk)

	r.Route("/donate", func(r chi.Router) {
		r.Post("/order", h.handleCreateOrder)
		r.Post("/verify", h.handleVerifyDonation)
	})

	return r
}
