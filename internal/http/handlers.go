package http

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/kjstillabower/watchface-status/internal/delivery"
	"github.com/kjstillabower/watchface-status/internal/engine"
	"github.com/kjstillabower/watchface-status/internal/lifecycle"
	"github.com/kjstillabower/watchface-status/internal/models"
)

// maxBodyBytes bounds event and message bodies.
const maxBodyBytes = 4 << 10

// Engine is the part of *engine.Engine the handlers use.
type Engine interface {
	Post(ev engine.Event) bool
	Snapshot() (models.Display, bool)
	WeatherAge() float64
}

// HealthConfig holds the thresholds for GET /health.
type HealthConfig struct {
	DeliveryWindow     time.Duration
	DeliveryFailurePct int
	// CompanionEnabled reports "internal" or "external" companion mode in checks.
	CompanionEnabled bool
	// CachePing, when set, is called to check cache reachability. Used when backend is memcached.
	CachePing func() error
}

type Handler struct {
	engine       Engine
	feed         *HealthFeed
	healthConfig *HealthConfig
	logger       *zap.Logger

	healthStatusMu   sync.Mutex
	healthStatusPrev string
}

// NewHandler returns a Handler. feed may be nil when health figures are not pushed over HTTP.
func NewHandler(e Engine, feed *HealthFeed, healthConfig *HealthConfig, logger *zap.Logger) *Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Handler{engine: e, feed: feed, healthConfig: healthConfig, logger: logger}
}

// GetDisplay handles GET /display.
func (h *Handler) GetDisplay(w http.ResponseWriter, r *http.Request) {
	d, ok := h.engine.Snapshot()
	if !ok {
		writeError(w, r, http.StatusServiceUnavailable, "NOT_READY", "display not composed yet")
		return
	}
	writeJSON(w, http.StatusOK, d)
}

// PostMessage handles POST /messages: an inbound weather message from an
// external companion. Partial messages are queued and rejected by the engine.
func (h *Handler) PostMessage(w http.ResponseWriter, r *http.Request) {
	var msg models.WeatherMessage
	if !decodeBody(w, r, &msg) {
		return
	}
	h.post(w, r, engine.WeatherReceived{Message: msg})
}

type batteryBody struct {
	Percent *int `json:"percent"`
}

// PostBattery handles POST /events/battery.
func (h *Handler) PostBattery(w http.ResponseWriter, r *http.Request) {
	var body batteryBody
	if !decodeBody(w, r, &body) {
		return
	}
	if body.Percent == nil {
		writeError(w, r, http.StatusBadRequest, "INVALID_BODY", "percent is required")
		return
	}
	h.post(w, r, engine.BatteryChanged{Percent: *body.Percent})
}

type linkBody struct {
	Connected *bool `json:"connected"`
}

// PostLink handles POST /events/link.
func (h *Handler) PostLink(w http.ResponseWriter, r *http.Request) {
	var body linkBody
	if !decodeBody(w, r, &body) {
		return
	}
	if body.Connected == nil {
		writeError(w, r, http.StatusBadRequest, "INVALID_BODY", "connected is required")
		return
	}
	h.post(w, r, engine.LinkChanged{Connected: *body.Connected})
}

type healthBody struct {
	Kind         string `json:"kind"`
	Today        *int   `json:"today"`
	DailyAverage *int   `json:"dailyAverage"`
	AverageSoFar *int   `json:"averageSoFar"`
}

// PostHealth handles POST /events/health. When all three figures are present
// the feed is updated before the event is queued.
func (h *Handler) PostHealth(w http.ResponseWriter, r *http.Request) {
	var body healthBody
	if !decodeBody(w, r, &body) {
		return
	}
	kind, ok := models.ParseHealthEventKind(body.Kind)
	if !ok {
		writeError(w, r, http.StatusBadRequest, "INVALID_KIND", "kind must be significant, sleep or other")
		return
	}
	if body.Today != nil && body.DailyAverage != nil && body.AverageSoFar != nil && h.feed != nil {
		h.feed.Update(*body.Today, *body.DailyAverage, *body.AverageSoFar)
	}
	h.post(w, r, engine.HealthChanged{Kind: kind})
}

func (h *Handler) post(w http.ResponseWriter, r *http.Request, ev engine.Event) {
	if !h.engine.Post(ev) {
		writeError(w, r, http.StatusServiceUnavailable, "INBOX_FULL", "event dropped, inbox full")
		return
	}
	writeJSON(w, http.StatusAccepted, map[string]any{"accepted": true})
}

// decodeBody decodes a JSON body into v, writing 400 on failure.
func decodeBody(w http.ResponseWriter, r *http.Request, v any) bool {
	dec := json.NewDecoder(io.LimitReader(r.Body, maxBodyBytes))
	if err := dec.Decode(v); err != nil {
		msg := "invalid JSON body"
		if errors.Is(err, io.EOF) {
			msg = "body is required"
		}
		requestLogger(r).Debug("bad request body", zap.Error(err))
		writeError(w, r, http.StatusBadRequest, "INVALID_BODY", msg)
		return false
	}
	return true
}

type healthResult struct {
	status     string
	statusCode int
	reason     string
}

// GetHealth handles GET /health.
func (h *Handler) GetHealth(w http.ResponseWriter, r *http.Request) {
	result := h.computeHealthStatus()

	h.healthStatusMu.Lock()
	prev := h.healthStatusPrev
	if prev != "" && prev != result.status {
		h.logger.Info("health status transition",
			zap.String("previous_status", prev),
			zap.String("current_status", result.status),
			zap.String("reason", result.reason))
	}
	h.healthStatusPrev = result.status
	h.healthStatusMu.Unlock()

	checks := map[string]string{"companion": "external"}
	if h.healthConfig != nil {
		if h.healthConfig.CompanionEnabled {
			checks["companion"] = "internal"
		}
		if h.healthConfig.CachePing != nil {
			if h.healthConfig.CachePing() == nil {
				checks["cache"] = "healthy"
			} else {
				checks["cache"] = "unhealthy"
			}
		}
	}
	resp := map[string]any{
		"status":            result.status,
		"service":           "watchface-status",
		"version":           "dev",
		"checks":            checks,
		"weatherAgeSeconds": h.engine.WeatherAge(),
		"timestamp":         time.Now().UTC().Format(time.RFC3339),
	}
	writeJSON(w, result.statusCode, resp)
}

// computeHealthStatus evaluates, in order: shutting-down, starting, degraded, healthy.
func (h *Handler) computeHealthStatus() healthResult {
	switch lifecycle.Current() {
	case lifecycle.PhaseShuttingDown:
		return healthResult{"shutting-down", http.StatusServiceUnavailable, "signal"}
	case lifecycle.PhaseStarting:
		return healthResult{"starting", http.StatusServiceUnavailable, "boot"}
	}
	if h.healthConfig != nil && h.healthConfig.DeliveryWindow > 0 && h.healthConfig.DeliveryFailurePct > 0 {
		failures, attempts := delivery.FailureRate(h.healthConfig.DeliveryWindow)
		if attempts > 0 && failures*100 >= h.healthConfig.DeliveryFailurePct*attempts {
			return healthResult{"degraded", http.StatusServiceUnavailable, "delivery_failure_rate"}
		}
	}
	return healthResult{"healthy", http.StatusOK, ""}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// writeError writes {"error":{"code","message","requestId"}}.
func writeError(w http.ResponseWriter, r *http.Request, status int, code, message string) {
	writeJSON(w, status, map[string]any{
		"error": map[string]string{
			"code":      code,
			"message":   message,
			"requestId": correlationID(r),
		},
	})
}
