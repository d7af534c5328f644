package engine

import (
	"context"
	"time"

	"github.com/kjstillabower/watchface-status/internal/models"
)

// Transport sends refresh requests to the companion. SendRefresh must not
// block: the reply, if any, arrives later as a WeatherReceived event.
type Transport interface {
	SendRefresh(ctx context.Context, req models.RefreshRequest) error
}

// Alerter raises the one-shot local alert on link loss.
type Alerter interface {
	DisconnectAlert()
}

// HealthService is the platform step-count service.
type HealthService interface {
	// Available reports whether step data can be read at all.
	Available() bool
	// SumToday returns today's step count.
	SumToday() int
	// DailyAverage returns the historical average step count for the whole
	// local day starting at day.
	DailyAverage(day time.Time) int
	// AverageSoFar returns the historical average step count from the start
	// of the local day up to now.
	AverageSoFar(dayStart, now time.Time) int
}

// Renderer receives every composed display.
type Renderer interface {
	Render(d models.Display)
}

// RendererFunc adapts a function to Renderer.
type RendererFunc func(d models.Display)

func (f RendererFunc) Render(d models.Display) { f(d) }

type noopAlerter struct{}

func (noopAlerter) DisconnectAlert() {}

type noHealth struct{}

func (noHealth) Available() bool { return false }
func (noHealth) SumToday() int { return 0 }
func (noHealth) DailyAverage(time.Time) int { return 0 }
func (noHealth) AverageSoFar(_, _ time.Time) int { return 0 }
