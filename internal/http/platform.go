package http

import (
	"sync"
	"time"
)

// HealthFeed is an engine.HealthService whose figures are pushed in over
// POST /events/health. Before the first push every sum reads zero.
type HealthFeed struct {
	available bool

	mu           sync.RWMutex
	today        int
	dailyAverage int
	averageSoFar int
}

// NewHealthFeed creates a feed. An unavailable feed hides the step widget entirely.
func NewHealthFeed(available bool) *HealthFeed {
	return &HealthFeed{available: available}
}

// Update replaces the figures. Negative values are stored as zero.
func (f *HealthFeed) Update(today, dailyAverage, averageSoFar int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.today = max(today, 0)
	f.dailyAverage = max(dailyAverage, 0)
	f.averageSoFar = max(averageSoFar, 0)
}

func (f *HealthFeed) Available() bool { return f.available }

func (f *HealthFeed) SumToday() int {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return f.today
}

// DailyAverage returns the pushed whole-day average. The feed holds figures
// for the current day only, so day is not consulted.
func (f *HealthFeed) DailyAverage(_ time.Time) int {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return f.dailyAverage
}

// AverageSoFar returns the pushed average up to the time of the last update.
func (f *HealthFeed) AverageSoFar(_, _ time.Time) int {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return f.averageSoFar
}
