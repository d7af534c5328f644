package delivery

import (
	"testing"
	"time"
)

func TestFailureRate_Empty(t *testing.T) {
	Reset()
	if f, a := FailureRate(time.Hour); f != 0 || a != 0 {
		t.Errorf("FailureRate() = (%d, %d), want (0, 0)", f, a)
	}
}

func TestRecordSent_AndFailed(t *testing.T) {
	Reset()
	RecordSent()
	RecordSent()
	RecordFailed()
	if n := SentCount(time.Hour); n != 2 {
		t.Errorf("SentCount() = %d, want 2", n)
	}
	if f, a := FailureRate(time.Hour); f != 1 || a != 2 {
		t.Errorf("FailureRate() = (%d, %d), want (1, 2)", f, a)
	}
}

// TestRecordDropped_CountsAsAttempt verifies that an inbox drop is both a
// failure and an attempt.
func TestRecordDropped_CountsAsAttempt(t *testing.T) {
	Reset()
	RecordSent()
	RecordDropped()
	if f, a := FailureRate(time.Hour); f != 1 || a != 2 {
		t.Errorf("FailureRate() = (%d, %d), want (1, 2)", f, a)
	}
}

func TestRecordReceived(t *testing.T) {
	Reset()
	RecordReceived()
	if n := ReceivedCount(time.Hour); n != 1 {
		t.Errorf("ReceivedCount() = %d, want 1", n)
	}
}

// TestTracker_Window verifies that outcomes outside the window are not counted
// and that entries older than the retention bound are pruned.
func TestTracker_Window(t *testing.T) {
	now := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	tr := &Tracker{now: func() time.Time { return now }}
	tr.RecordSent()
	tr.RecordFailed()

	now = now.Add(45 * time.Minute)
	tr.RecordSent()
	if n := tr.SentCount(30 * time.Minute); n != 1 {
		t.Errorf("SentCount(30m) = %d, want 1", n)
	}
	if f, a := tr.FailureRate(time.Hour); f != 1 || a != 2 {
		t.Errorf("FailureRate(1h) = (%d, %d), want (1, 2)", f, a)
	}

	now = now.Add(4 * time.Hour)
	tr.RecordReceived()
	if len(tr.sentTimes) != 0 || len(tr.failedTimes) != 0 {
		t.Errorf("old entries not pruned: sent %d failed %d", len(tr.sentTimes), len(tr.failedTimes))
	}
}

func TestReset(t *testing.T) {
	Reset()
	RecordSent()
	RecordFailed()
	RecordDropped()
	RecordReceived()
	Reset()
	if f, a := FailureRate(time.Hour); f != 0 || a != 0 {
		t.Errorf("FailureRate() = (%d, %d), want (0, 0)", f, a)
	}
	if n := ReceivedCount(time.Hour); n != 0 {
		t.Errorf("ReceivedCount() = %d, want 0", n)
	}
}
