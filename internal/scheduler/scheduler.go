package scheduler

import (
	"fmt"
	"time"

	"github.com/kjstillabower/watchface-status/internal/models"
)

// DefaultRefreshInterval is the weather refresh period in minutes.
const DefaultRefreshInterval = 30

// Scheduler decides what each platform event should recompute. It holds no
// state between ticks: a refresh is requested on every matching minute even
// if the previous request is still unanswered.
type Scheduler struct {
	interval int
}

// New returns a Scheduler that requests weather whenever the minute is a
// multiple of intervalMinutes. The interval must divide 60.
func New(intervalMinutes int) (*Scheduler, error) {
	if intervalMinutes <= 0 || 60%intervalMinutes != 0 {
		return nil, fmt.Errorf("refresh interval must divide 60, got %d", intervalMinutes)
	}
	return &Scheduler{interval: intervalMinutes}, nil
}

// Interval returns the refresh interval in minutes.
func (s *Scheduler) Interval() int {
	return s.interval
}

// TickPlan is the work for one minute tick.
type TickPlan struct {
	UpdateClock    bool
	RequestWeather bool
}

// OnTick plans a minute tick. Time text is always recomputed.
func (s *Scheduler) OnTick(t time.Time) TickPlan {
	return TickPlan{
		UpdateClock:    true,
		RequestWeather: t.Minute()%s.interval == 0,
	}
}

// HealthPlan is the work for one health event.
type HealthPlan struct {
	RecomputeGoal     bool
	RecomputeProgress bool
}

// OnHealth plans a health event. Significant updates refresh the goal; every
// event except sleep-only refreshes count and average.
func (s *Scheduler) OnHealth(kind models.HealthEventKind) HealthPlan {
	return HealthPlan{
		RecomputeGoal:     kind == models.HealthSignificant,
		RecomputeProgress: kind != models.HealthSleep,
	}
}
