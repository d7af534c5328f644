package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/kjstillabower/watchface-status/internal/cache"
	"github.com/kjstillabower/watchface-status/internal/circuitbreaker"
	"github.com/kjstillabower/watchface-status/internal/client"
	"github.com/kjstillabower/watchface-status/internal/companion"
	"github.com/kjstillabower/watchface-status/internal/config"
	"github.com/kjstillabower/watchface-status/internal/display"
	"github.com/kjstillabower/watchface-status/internal/engine"
	"github.com/kjstillabower/watchface-status/internal/geometry"
	httphandler "github.com/kjstillabower/watchface-status/internal/http"
	"github.com/kjstillabower/watchface-status/internal/lifecycle"
	"github.com/kjstillabower/watchface-status/internal/models"
	"github.com/kjstillabower/watchface-status/internal/observability"
)

// inFlightCheckInterval is how often shutdown polls for in-flight requests.
const inFlightCheckInterval = 100 * time.Millisecond

// logAlerter stands in for the vibration motor.
type logAlerter struct {
	logger *zap.Logger
}

func (a logAlerter) DisconnectAlert() {
	a.logger.Warn("phone disconnected, vibrating")
}

func main() {
	logger, err := observability.NewLogger("watchface")
	if err != nil {
		fmt.Fprintf(os.Stderr, "logger: %v\n", err)
		os.Exit(1)
	}
	defer func() { _ = observability.Flush(logger) }()

	cfg, err := config.Load()
	if err != nil {
		logger.Fatal("config", zap.Error(err))
	}

	var upstream client.ConditionsClient
	var breaker *circuitbreaker.CircuitBreaker
	if cfg.CompanionEnabled {
		owc, err := client.NewOpenWeatherClient(client.Options{
			APIKey:    cfg.WeatherAPIKey,
			URL:       cfg.WeatherAPIURL,
			Timeout:   cfg.WeatherAPITimeout,
			Attempts:  cfg.RetryAttempts,
			BaseDelay: cfg.RetryBaseDelay,
			MaxDelay:  cfg.RetryMaxDelay,
		})
		if err != nil {
			logger.Fatal("weather client", zap.Error(err))
		}
		upstream = owc

		breaker = circuitbreaker.New(circuitbreaker.Config{
			FailureThreshold: cfg.BreakerFailureThreshold,
			SuccessThreshold: cfg.BreakerSuccessThreshold,
			Timeout:          cfg.BreakerTimeout,
			Component:        "weather_api",
			OnStateChange: func(from, to circuitbreaker.State) {
				observability.RecordCircuitBreakerTransition("weather_api", from.String(), to.String())
				observability.SetCircuitBreakerStateGauge("weather_api", observability.CircuitBreakerStateValue(int(to)))
			},
		})
		observability.SetCircuitBreakerStateGauge("weather_api", 0)
		logger.Info("companion enabled",
			zap.String("location", cfg.CompanionLocation),
			zap.Int("failure_threshold", cfg.BreakerFailureThreshold),
			zap.Duration("breaker_timeout", cfg.BreakerTimeout))
	} else {
		logger.Info("companion in external mode; weather expected on POST /messages")
	}

	var weatherCache cache.Cache
	var memcacheCloser *cache.MemcachedCache
	switch cfg.CacheBackend {
	case "memcached":
		mc := cache.NewMemcachedCache(cfg.MemcachedAddrs, cfg.MemcachedTimeout, cfg.MemcachedMaxIdleConns)
		memcacheCloser = mc
		weatherCache = mc
		logger.Info("cache backend: memcached", zap.String("addrs", cfg.MemcachedAddrs))
	default:
		weatherCache = cache.NewInMemoryCache()
		logger.Info("cache backend: in_memory")
	}

	bridge := companion.New(companion.Config{
		Location:  cfg.CompanionLocation,
		RoundTrip: cfg.OutboxTimeout,
		CacheTTL:  cfg.CacheTTL,
	}, upstream, weatherCache, breaker, logger)

	feed := httphandler.NewHealthFeed(cfg.HealthEnabled)
	eng, err := engine.New(engine.Config{
		RefreshIntervalMinutes: cfg.RefreshIntervalMinutes,
		InboxSize:              cfg.InboxSize,
		Display: display.Options{
			Use24h:   cfg.Use24h,
			Location: cfg.Location,
			Battery: geometry.BatteryGauge{
				Segments: cfg.BatterySegments,
				Width:    cfg.BatteryWidth,
				Height:   cfg.BatteryHeight,
			},
			Face: geometry.Face{
				Bounds:        cfg.ScreenBounds(),
				RingInset:     cfg.RingInset,
				RingThickness: cfg.RingThickness,
				Dots:          cfg.RingDots,
				DotInset:      cfg.DotInset,
			},
			WeatherMaxAge: cfg.WeatherMaxAge,
		},
	}, engine.Deps{
		Transport: bridge,
		Alerter:   logAlerter{logger: logger},
		Health:    feed,
		Renderer: engine.RendererFunc(func(d models.Display) {
			logger.Debug("display composed", zap.String("time", d.Time), zap.String("battery", d.BatteryText), zap.String("temperature", d.Temperature))
		}),
	}, logger)
	if err != nil {
		logger.Fatal("engine", zap.Error(err))
	}
	bridge.Attach(eng)

	observability.RegisterDeliveryGauges(cfg.DeliveryWindow)
	observability.RegisterWeatherAgeGauge(eng.WeatherAge)

	runCtx, cancelRun := context.WithCancel(context.Background())
	defer cancelRun()

	// Link and battery stay unset until the platform binding reports them.
	eng.Start(runCtx, engine.Boot{Time: time.Now().In(cfg.Location)})
	lifecycle.SetPhase(lifecycle.PhaseRunning)

	engineDone := make(chan struct{})
	go func() {
		defer close(engineDone)
		if err := eng.Run(runCtx); err != nil && !errors.Is(err, context.Canceled) {
			logger.Error("engine stopped", zap.Error(err))
		}
	}()

	go func() {
		if err := bridge.Ready(runCtx); err != nil && !errors.Is(err, companion.ErrDisabled) {
			logger.Warn("companion ready push failed", zap.Error(err))
		}
	}()

	ticker := cron.New(cron.WithLocation(cfg.Location))
	if _, err := ticker.AddFunc(cfg.TickSchedule, func() {
		eng.Post(engine.Tick{Time: time.Now().In(cfg.Location)})
	}); err != nil {
		logger.Fatal("tick schedule", zap.Error(err))
	}
	ticker.Start()

	healthConfig := &httphandler.HealthConfig{
		DeliveryWindow:     cfg.DeliveryWindow,
		DeliveryFailurePct: cfg.DeliveryFailurePct,
		CompanionEnabled:   bridge.Enabled(),
	}
	if memcacheCloser != nil {
		healthConfig.CachePing = memcacheCloser.Ping
	}

	var limiter *rate.Limiter
	if cfg.RateLimitRPS > 0 {
		limiter = rate.NewLimiter(rate.Limit(cfg.RateLimitRPS), cfg.RateLimitBurst)
	}
	handler := httphandler.NewHandler(eng, feed, healthConfig, logger)
	router := httphandler.NewRouter(handler, limiter, logger)

	srv := &http.Server{
		Addr:         ":" + cfg.ServerPort,
		Handler:      router,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
	}

	go func() {
		logger.Info("server starting", zap.String("addr", ":"+cfg.ServerPort))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("server", zap.Error(err))
		}
	}()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	<-ctx.Done()
	stop()

	logger.Info("graceful shutdown triggered")
	lifecycle.SetPhase(lifecycle.PhaseShuttingDown)
	<-ticker.Stop().Done()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("server shutdown", zap.Error(err))
	}

	logger.Info("waiting for in-flight requests", zap.Int64("count", httphandler.InFlightCount()))
	if err := httphandler.WaitForInFlight(shutdownCtx, inFlightCheckInterval); err != nil {
		logger.Warn("in-flight requests not completed", zap.Error(err), zap.Int64("remaining", httphandler.InFlightCount()))
	}

	cancelRun()
	<-engineDone
	bridge.Close()

	if memcacheCloser != nil {
		if err := memcacheCloser.Close(); err != nil {
			logger.Error("memcached close", zap.Error(err))
		}
	}
	logger.Info("shutdown complete")
}
