// Package companion is the phone side of the link. It answers refresh
// requests by fetching current conditions and posting them back to the
// engine as an inbound weather message.
package companion

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/kjstillabower/watchface-status/internal/cache"
	"github.com/kjstillabower/watchface-status/internal/circuitbreaker"
	"github.com/kjstillabower/watchface-status/internal/client"
	"github.com/kjstillabower/watchface-status/internal/engine"
	"github.com/kjstillabower/watchface-status/internal/models"
	"github.com/kjstillabower/watchface-status/internal/observability"
)

var (
	// ErrDisabled is returned by Fetch and Ready when no upstream client is configured.
	ErrDisabled = errors.New("companion disabled")
	// ErrClosed is returned by SendRefresh after Close.
	ErrClosed = errors.New("companion closed")
)

// Sink receives inbound events. *engine.Engine satisfies it.
type Sink interface {
	Post(ev engine.Event) bool
}

// Config holds bridge settings.
type Config struct {
	Location string
	// RoundTrip bounds one refresh from request to posted reply. Zero means no bound.
	RoundTrip time.Duration
	CacheTTL  time.Duration
}

// Bridge implements engine.Transport. A Bridge with a nil client is in
// external mode: refreshes are accepted and ignored, and weather is expected
// to arrive over the HTTP binding instead.
type Bridge struct {
	cfg     Config
	client  client.ConditionsClient
	cache   cache.Cache
	breaker *circuitbreaker.CircuitBreaker
	logger  *zap.Logger

	// mu guards sink and closed, and orders wg.Add before Close's Wait.
	mu     sync.RWMutex
	sink   Sink
	closed bool
	wg     sync.WaitGroup
}

// New creates a Bridge. cache and breaker may be nil.
func New(cfg Config, c client.ConditionsClient, wc cache.Cache, breaker *circuitbreaker.CircuitBreaker, logger *zap.Logger) *Bridge {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Bridge{cfg: cfg, client: c, cache: wc, breaker: breaker, logger: logger}
}

// Attach sets where replies are posted. Call once the engine exists.
func (b *Bridge) Attach(s Sink) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.sink = s
}

// Enabled reports whether the bridge fetches weather itself.
func (b *Bridge) Enabled() bool {
	return b.client != nil
}

// SendRefresh starts an asynchronous fetch and returns immediately. The reply
// is posted as engine.WeatherReceived; failures are posted as engine.OutboxFailed.
func (b *Bridge) SendRefresh(ctx context.Context, req models.RefreshRequest) error {
	if !b.Enabled() {
		b.logger.Debug("refresh ignored, companion in external mode")
		return nil
	}
	b.mu.Lock()
	if b.closed {
		b.mu.Unlock()
		return ErrClosed
	}
	sink := b.sink
	if sink == nil {
		b.mu.Unlock()
		return errors.New("companion: no sink attached")
	}
	b.wg.Add(1)
	b.mu.Unlock()
	go func() {
		defer b.wg.Done()
		_ = b.roundTrip(ctx, sink)
	}()
	return nil
}

// Ready pushes one reply without waiting for a request, as a phone app does
// when it starts. It blocks until the reply is posted.
func (b *Bridge) Ready(ctx context.Context) error {
	if !b.Enabled() {
		return ErrDisabled
	}
	sink := b.currentSink()
	if sink == nil {
		return errors.New("companion: no sink attached")
	}
	return b.roundTrip(ctx, sink)
}

// Wait blocks until in-flight round trips finish. Callers must ensure no
// SendRefresh runs concurrently; use Close for shutdown.
func (b *Bridge) Wait() {
	b.wg.Wait()
}

// Close rejects further refreshes and waits for in-flight round trips.
func (b *Bridge) Close() {
	b.mu.Lock()
	b.closed = true
	b.mu.Unlock()
	b.wg.Wait()
}

func (b *Bridge) roundTrip(ctx context.Context, sink Sink) error {
	if b.cfg.RoundTrip > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, b.cfg.RoundTrip)
		defer cancel()
	}
	corrID := uuid.New().String()
	ctx = context.WithValue(ctx, client.CorrelationIDKey, corrID)
	msg, err := b.Fetch(ctx)
	if err != nil {
		b.logger.Warn("companion fetch failed",
			zap.String("correlation_id", corrID),
			zap.String("location", b.cfg.Location),
			zap.String("category", string(client.CategorizeError(err))),
			zap.Error(err),
		)
		sink.Post(engine.OutboxFailed{Err: err})
		return err
	}
	if !sink.Post(engine.WeatherReceived{Message: msg}) {
		return errors.New("companion: reply dropped")
	}
	b.logger.Debug("companion reply posted", zap.String("correlation_id", corrID))
	return nil
}

// Fetch returns current conditions for the configured location, from cache
// when fresh. Partial upstream results are returned as-is; the engine decides
// whether to accept them.
func (b *Bridge) Fetch(ctx context.Context) (models.WeatherMessage, error) {
	if !b.Enabled() {
		return models.WeatherMessage{}, ErrDisabled
	}
	key := cache.Key(b.cfg.Location)

	if b.cache != nil {
		msg, ok, err := b.cache.Get(ctx, key)
		switch {
		case err != nil:
			observability.CacheErrorsTotal.WithLabelValues("get").Inc()
			b.logger.Warn("cache get failed", zap.String("location", key), zap.Error(err))
		case ok:
			observability.CacheHitsTotal.WithLabelValues("weather").Inc()
			b.logger.Debug("cache hit", zap.String("location", key))
			return msg, nil
		}
	}

	var msg models.WeatherMessage
	fetch := func() error {
		var err error
		msg, err = b.client.FetchConditions(ctx, key)
		return err
	}
	var err error
	if b.breaker != nil {
		err = b.breaker.Call(ctx, fetch)
	} else {
		err = fetch()
	}
	if err != nil {
		return models.WeatherMessage{}, fmt.Errorf("fetch conditions for %s: %w", key, err)
	}

	if b.cache != nil && b.cfg.CacheTTL > 0 && msg.Complete() {
		if err := b.cache.Set(ctx, key, msg, b.cfg.CacheTTL); err != nil {
			observability.CacheErrorsTotal.WithLabelValues("set").Inc()
			b.logger.Warn("cache set failed", zap.String("location", key), zap.Error(err))
		}
	}
	return msg, nil
}

func (b *Bridge) currentSink() Sink {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.sink
}
