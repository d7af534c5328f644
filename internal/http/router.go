package http

import (
	"net/http"

	"github.com/gorilla/mux"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/kjstillabower/watchface-status/internal/observability"
)

// NewRouter wires the platform binding routes. limiter applies to /messages
// and /events only; nil disables rate limiting.
func NewRouter(h *Handler, limiter *rate.Limiter, logger *zap.Logger) *mux.Router {
	router := mux.NewRouter()
	router.Use(CorrelationIDMiddleware(logger))
	router.Use(MetricsMiddleware)

	router.HandleFunc("/health", h.GetHealth).Methods(http.MethodGet)
	router.Handle("/metrics", observability.MetricsHandler()).Methods(http.MethodGet)
	router.HandleFunc("/display", h.GetDisplay).Methods(http.MethodGet)

	inbound := router.NewRoute().Subrouter()
	inbound.Use(RateLimitMiddleware(limiter))
	inbound.HandleFunc("/messages", h.PostMessage).Methods(http.MethodPost)
	inbound.HandleFunc("/events/battery", h.PostBattery).Methods(http.MethodPost)
	inbound.HandleFunc("/events/link", h.PostLink).Methods(http.MethodPost)
	inbound.HandleFunc("/events/health", h.PostHealth).Methods(http.MethodPost)
	return router
}
