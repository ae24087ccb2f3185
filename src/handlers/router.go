package handlers

import (
	"time"

	"github.com/go-chi/chi/v5"
	"golang.org/x/time/rate"
)

// NewRouter wires the order endpoints behind the shared middleware stack.
func NewRouter(orderHandler *OrderHandler) chi.Router {
	r := chi.NewRouter()

	r.Use(RequestLogger)
	r.Use(RateLimit(rate.NewLimiter(rate.Every(100*time.Millisecond), 30)))

	r.Get("/health", orderHandler.HandleHealth)
	r.Route("/api", func(r chi.Router) {
		r.Get("/orders", orderHandler.HandleGetOrders)
		r.Get("/titles", orderHandler.HandleGetTitles)
		r.Get("/report", orderHandler.HandleGetReport)
	})

	return r
}
