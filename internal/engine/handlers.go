package engine

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/kjstillabower/watchface-status/internal/delivery"
	"github.com/kjstillabower/watchface-status/internal/models"
	"github.com/kjstillabower/watchface-status/internal/observability"
)

func (e *Engine) onTick(ctx context.Context, ev Tick) {
	plan := e.sched.OnTick(ev.Time)
	if plan.UpdateClock {
		e.state.SetClock(ev.Time)
	}
	if !plan.RequestWeather {
		return
	}
	observability.WeatherRefreshRequestsTotal.Inc()
	delivery.RecordSent()
	if err := e.transport.SendRefresh(ctx, models.RefreshRequest{}); err != nil {
		observability.TransportFailuresTotal.WithLabelValues("outbox").Inc()
		delivery.RecordFailed()
		e.logger.Error("outbox send failed", zap.Time("tick", ev.Time), zap.Error(err))
		return
	}
	e.logger.Debug("outbox send success", zap.Time("tick", ev.Time))
}

func (e *Engine) onBattery(ev BatteryChanged) {
	b := e.state.SetBattery(ev.Percent)
	observability.BatteryPercent.Set(float64(b.Percent))
}

func (e *Engine) onLink(ev LinkChanged) {
	alert := e.state.SetLink(ev.Connected)
	if ev.Connected {
		observability.LinkConnected.Set(1)
	} else {
		observability.LinkConnected.Set(0)
	}
	if alert {
		e.logger.Info("link lost, alerting")
		e.alerter.DisconnectAlert()
	}
}

// onHealth recomputes step figures over the local day containing now.
func (e *Engine) onHealth(ev HealthChanged) {
	if !e.opts.StepsEnabled {
		return
	}
	plan := e.sched.OnHealth(ev.Kind)
	if !plan.RecomputeGoal && !plan.RecomputeProgress {
		return
	}
	now := e.now()
	if e.opts.Location != nil {
		now = now.In(e.opts.Location)
	}
	start := startOfDay(now)
	if plan.RecomputeGoal {
		goal := e.health.DailyAverage(start)
		e.state.SetStepsGoal(goal, now)
		observability.StepsGoal.Set(float64(goal))
	}
	if plan.RecomputeProgress {
		count := e.health.SumToday()
		avg := e.health.AverageSoFar(start, now)
		e.state.SetStepsProgress(count, avg, now)
		observability.StepsCount.Set(float64(count))
	}
}

func (e *Engine) onWeather(ev WeatherReceived) {
	sample, err := e.state.AcceptWeather(ev.Message, e.now())
	if err != nil {
		observability.WeatherMessagesTotal.WithLabelValues("partial").Inc()
		e.logger.Warn("weather message rejected", zap.Error(err))
		return
	}
	observability.WeatherMessagesTotal.WithLabelValues("accepted").Inc()
	delivery.RecordReceived()
	e.weatherAt.Store(sample.ReceivedAt.UnixNano())
	e.logger.Info("weather accepted",
		zap.Int32("temperature", sample.TemperatureC),
		zap.Int32("conditions", sample.ConditionCode),
	)
}

func (e *Engine) onOutboxFailed(ev OutboxFailed) {
	observability.TransportFailuresTotal.WithLabelValues("outbox").Inc()
	delivery.RecordFailed()
	e.logger.Error("outbox send failed", zap.Error(ev.Err))
}

func startOfDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}
