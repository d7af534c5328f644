// Package engine runs the single-threaded event loop that owns telemetry
// state, applies the update schedule and publishes the composed display.
package engine

import (
	"context"
	"errors"
	"sync/atomic"
	"time"

	"go.uber.org/zap"

	"github.com/kjstillabower/watchface-status/internal/delivery"
	"github.com/kjstillabower/watchface-status/internal/display"
	"github.com/kjstillabower/watchface-status/internal/models"
	"github.com/kjstillabower/watchface-status/internal/observability"
	"github.com/kjstillabower/watchface-status/internal/scheduler"
	"github.com/kjstillabower/watchface-status/internal/telemetry"
)

// DefaultInboxSize is used when Config.InboxSize is not positive.
const DefaultInboxSize = 128

// Config holds engine settings.
type Config struct {
	RefreshIntervalMinutes int
	InboxSize              int
	Display                display.Options
}

// Deps are the platform services the engine talks to. Transport is required;
// the rest may be nil.
type Deps struct {
	Transport Transport
	Alerter   Alerter
	Health    HealthService
	Renderer  Renderer
	// Now is the wall clock. Defaults to time.Now.
	Now func() time.Time
}

// Boot is the platform state peeked at startup before any callback fires.
// Nil fields were not peeked and leave their source unset.
type Boot struct {
	Time      time.Time
	Connected *bool
	Battery   *int
}

// Engine handles one event at a time. Only the loop goroutine touches state.
type Engine struct {
	state     *telemetry.State
	sched     *scheduler.Scheduler
	opts      display.Options
	transport Transport
	alerter   Alerter
	health    HealthService
	renderer  Renderer
	now       func() time.Time
	logger    *zap.Logger

	inbox    chan Event
	snapshot atomic.Pointer[models.Display]
	// weatherAt is the ReceivedAt of the current weather sample in unix nanos, 0 if none.
	weatherAt atomic.Int64
}

// New creates an Engine. It fails only on invalid configuration.
func New(cfg Config, deps Deps, logger *zap.Logger) (*Engine, error) {
	if deps.Transport == nil {
		return nil, errors.New("engine: transport is required")
	}
	interval := cfg.RefreshIntervalMinutes
	if interval == 0 {
		interval = scheduler.DefaultRefreshInterval
	}
	sched, err := scheduler.New(interval)
	if err != nil {
		return nil, err
	}
	size := cfg.InboxSize
	if size <= 0 {
		size = DefaultInboxSize
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	e := &Engine{
		state:     telemetry.New(),
		sched:     sched,
		opts:      cfg.Display,
		transport: deps.Transport,
		alerter:   deps.Alerter,
		health:    deps.Health,
		renderer:  deps.Renderer,
		now:       deps.Now,
		logger:    logger,
		inbox:     make(chan Event, size),
	}
	if e.alerter == nil {
		e.alerter = noopAlerter{}
	}
	if e.health == nil {
		e.health = noHealth{}
	}
	if e.now == nil {
		e.now = time.Now
	}
	e.opts.StepsEnabled = e.health.Available()
	return e, nil
}

// Start applies the boot peek: link state first (which may alert), then the
// clock, then battery. No weather request is sent; the first one goes out on
// the next matching tick. Must be called before Run, from the same goroutine.
func (e *Engine) Start(ctx context.Context, b Boot) {
	if b.Connected != nil {
		e.Dispatch(ctx, LinkChanged{Connected: *b.Connected})
	}
	t := b.Time
	if t.IsZero() {
		t = e.now()
	}
	e.state.SetClock(t)
	if b.Battery != nil {
		e.Dispatch(ctx, BatteryChanged{Percent: *b.Battery})
	} else {
		e.publish()
	}
	fields := []zap.Field{
		zap.Int("refreshIntervalMinutes", e.sched.Interval()),
		zap.Bool("stepsEnabled", e.opts.StepsEnabled),
	}
	if b.Connected != nil {
		fields = append(fields, zap.Bool("connected", *b.Connected))
	}
	if b.Battery != nil {
		fields = append(fields, zap.Int("battery", *b.Battery))
	}
	e.logger.Info("engine started", fields...)
}

// Post queues an event without blocking. It returns false and drops the
// event if the inbox is full.
func (e *Engine) Post(ev Event) bool {
	select {
	case e.inbox <- ev:
		return true
	default:
	}
	observability.EventsDroppedTotal.Inc()
	if _, ok := ev.(WeatherReceived); ok {
		observability.TransportFailuresTotal.WithLabelValues("inbox").Inc()
		delivery.RecordDropped()
	}
	e.logger.Error("inbox dropped", zap.String("event", ev.eventType()))
	return false
}

// Run handles queued events until ctx is done.
func (e *Engine) Run(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case ev := <-e.inbox:
			e.Dispatch(ctx, ev)
		}
	}
}

// Dispatch handles one event to completion and republishes the display.
func (e *Engine) Dispatch(ctx context.Context, ev Event) {
	observability.EventsTotal.WithLabelValues(ev.eventType()).Inc()
	switch ev := ev.(type) {
	case Tick:
		e.onTick(ctx, ev)
	case BatteryChanged:
		e.onBattery(ev)
	case LinkChanged:
		e.onLink(ev)
	case HealthChanged:
		e.onHealth(ev)
	case WeatherReceived:
		e.onWeather(ev)
	case OutboxFailed:
		e.onOutboxFailed(ev)
	}
	e.publish()
}

// Snapshot returns the last composed display. ok is false before the first event.
func (e *Engine) Snapshot() (models.Display, bool) {
	d := e.snapshot.Load()
	if d == nil {
		return models.Display{}, false
	}
	return *d, true
}

// WeatherAge returns the age of the displayed weather sample, or -1 when none
// has been accepted. Safe to call from any goroutine.
func (e *Engine) WeatherAge() float64 {
	at := e.weatherAt.Load()
	if at == 0 {
		return -1
	}
	return e.now().Sub(time.Unix(0, at)).Seconds()
}

// Interval returns the weather refresh interval in minutes.
func (e *Engine) Interval() int {
	return e.sched.Interval()
}

func (e *Engine) publish() {
	d := display.Compose(e.state, e.now(), e.opts)
	e.snapshot.Store(&d)
	if e.renderer != nil {
		e.renderer.Render(d)
	}
}
