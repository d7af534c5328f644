package engine

import (
	"time"

	"github.com/kjstillabower/watchface-status/internal/models"
)

// Event is one platform callback. Events are handled one at a time, each to completion.
type Event interface {
	eventType() string
}

// Tick is the once-per-minute clock callback with the current local time.
type Tick struct {
	Time time.Time
}

// BatteryChanged carries a new charge percent.
type BatteryChanged struct {
	Percent int
}

// LinkChanged carries the companion link state.
type LinkChanged struct {
	Connected bool
}

// HealthChanged is a health-service callback.
type HealthChanged struct {
	Kind models.HealthEventKind
}

// WeatherReceived is an inbound companion message.
type WeatherReceived struct {
	Message models.WeatherMessage
}

// OutboxFailed reports an asynchronous refresh send failure.
type OutboxFailed struct {
	Err error
}

func (Tick) eventType() string { return "tick" }
func (BatteryChanged) eventType() string { return "battery" }
func (LinkChanged) eventType() string { return "link" }
func (HealthChanged) eventType() string { return "health" }
func (WeatherReceived) eventType() string { return "weather" }
func (OutboxFailed) eventType() string { return "outbox_failed" }
