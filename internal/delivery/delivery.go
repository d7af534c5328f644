// Package delivery counts companion transport outcomes in sliding windows.
// It is diagnostic only: nothing here schedules a retry.
package delivery

import (
	"sync"
	"time"
)

// maxAge bounds how long outcomes are retained. Windows longer than this see only maxAge.
const maxAge = 3 * time.Hour

var defaultTracker Tracker

// RecordSent records a refresh request handed to the transport.
func RecordSent() {
	defaultTracker.RecordSent()
}

// RecordFailed records an outbox send failure.
func RecordFailed() {
	defaultTracker.RecordFailed()
}

// RecordDropped records an inbound message that was dropped before dispatch.
func RecordDropped() {
	defaultTracker.RecordDropped()
}

// RecordReceived records an accepted weather message.
func RecordReceived() {
	defaultTracker.RecordReceived()
}

// SentCount returns refresh requests sent within the window.
func SentCount(window time.Duration) int {
	return defaultTracker.SentCount(window)
}

// ReceivedCount returns weather messages accepted within the window.
func ReceivedCount(window time.Duration) int {
	return defaultTracker.ReceivedCount(window)
}

// FailureRate returns (failures, attempts) within the window.
// failures = outbox failures + inbox drops; attempts = sent + inbox drops.
func FailureRate(window time.Duration) (failures, attempts int) {
	return defaultTracker.FailureRate(window)
}

// Reset clears all recorded outcomes. For tests only.
func Reset() {
	defaultTracker.Reset()
}

// Tracker maintains sliding windows of outcome timestamps.
type Tracker struct {
	mu            sync.Mutex
	sentTimes     []time.Time
	failedTimes   []time.Time
	droppedTimes  []time.Time
	receivedTimes []time.Time

	// now is overridable in tests.
	now func() time.Time
}

func (t *Tracker) RecordSent() {
	t.recordOutcome(&t.sentTimes)
}

func (t *Tracker) RecordFailed() {
	t.recordOutcome(&t.failedTimes)
}

func (t *Tracker) RecordDropped() {
	t.recordOutcome(&t.droppedTimes)
}

func (t *Tracker) RecordReceived() {
	t.recordOutcome(&t.receivedTimes)
}

func (t *Tracker) recordOutcome(slice *[]time.Time) {
	t.mu.Lock()
	defer t.mu.Unlock()
	now := t.clock()
	*slice = append(*slice, now)
	t.pruneLocked(now)
}

func (t *Tracker) SentCount(window time.Duration) int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return countInWindow(t.sentTimes, t.clock().Add(-window))
}

func (t *Tracker) ReceivedCount(window time.Duration) int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return countInWindow(t.receivedTimes, t.clock().Add(-window))
}

// FailureRate returns (failures, attempts) within the window.
func (t *Tracker) FailureRate(window time.Duration) (failures, attempts int) {
	t.mu.Lock()
	defer t.mu.Unlock()
	cutoff := t.clock().Add(-window)
	failed := countInWindow(t.failedTimes, cutoff)
	dropped := countInWindow(t.droppedTimes, cutoff)
	sent := countInWindow(t.sentTimes, cutoff)
	return failed + dropped, sent + dropped
}

func (t *Tracker) Reset() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.sentTimes = nil
	t.failedTimes = nil
	t.droppedTimes = nil
	t.receivedTimes = nil
}

func (t *Tracker) clock() time.Time {
	if t.now != nil {
		return t.now()
	}
	return time.Now()
}

func countInWindow(times []time.Time, cutoff time.Time) int {
	n := 0
	for _, ts := range times {
		if !ts.Before(cutoff) {
			n++
		}
	}
	return n
}

// pruneLocked drops timestamps older than maxAge. Must be called with mutex held.
func (t *Tracker) pruneLocked(now time.Time) {
	cutoff := now.Add(-maxAge)
	prune := func(slice *[]time.Time) {
		times := *slice
		i := 0
		for ; i < len(times) && times[i].Before(cutoff); i++ {
		}
		if i > 0 {
			*slice = append(times[:0], times[i:]...)
		}
	}
	prune(&t.sentTimes)
	prune(&t.failedTimes)
	prune(&t.droppedTimes)
	prune(&t.receivedTimes)
}
