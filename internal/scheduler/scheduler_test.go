package scheduler

import (
	"testing"
	"time"

	"github.com/kjstillabower/watchface-status/internal/models"
)

// TestOnTick_NinetyMinutes verifies that 90 one-minute ticks starting on a
// half-hour boundary request weather exactly at minutes 0, 30 and 60.
func TestOnTick_NinetyMinutes(t *testing.T) {
	s, err := New(DefaultRefreshInterval)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	start := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
	var at []int
	for i := 0; i < 90; i++ {
		plan := s.OnTick(start.Add(time.Duration(i) * time.Minute))
		if !plan.UpdateClock {
			t.Fatalf("tick %d: UpdateClock = false, want true", i)
		}
		if plan.RequestWeather {
			at = append(at, i)
		}
	}
	want := []int{0, 30, 60}
	if len(at) != len(want) {
		t.Fatalf("refresh requests at %v, want %v", at, want)
	}
	for i := range want {
		if at[i] != want[i] {
			t.Errorf("refresh requests at %v, want %v", at, want)
			break
		}
	}
}

func TestOnTick_RepeatedMinuteNotDeduplicated(t *testing.T) {
	s, _ := New(30)
	tm := time.Date(2026, 3, 1, 9, 30, 0, 0, time.UTC)
	for i := 0; i < 2; i++ {
		if !s.OnTick(tm).RequestWeather {
			t.Errorf("call %d: RequestWeather = false, want true", i)
		}
	}
}

func TestNew_Interval(t *testing.T) {
	tests := []struct {
		minutes int
		wantErr bool
	}{
		{30, false},
		{15, false},
		{1, false},
		{60, false},
		{0, true},
		{-5, true},
		{7, true},
		{45, true},
	}
	for _, tt := range tests {
		_, err := New(tt.minutes)
		if (err != nil) != tt.wantErr {
			t.Errorf("New(%d) error = %v, wantErr %v", tt.minutes, err, tt.wantErr)
		}
	}
}

func TestOnHealth(t *testing.T) {
	s, _ := New(30)
	tests := []struct {
		kind models.HealthEventKind
		want HealthPlan
	}{
		{models.HealthSignificant, HealthPlan{RecomputeGoal: true, RecomputeProgress: true}},
		{models.HealthOther, HealthPlan{RecomputeProgress: true}},
		{models.HealthSleep, HealthPlan{}},
	}
	for _, tt := range tests {
		if got := s.OnHealth(tt.kind); got != tt.want {
			t.Errorf("OnHealth(%v) = %+v, want %+v", tt.kind, got, tt.want)
		}
	}
}
