package models

import "time"

// StepsSample holds today's step figures. Goal is 0 until the health service
// has reported a daily average.
type StepsSample struct {
	Count      int       `json:"count"`
	Goal       int       `json:"goal"`
	Average    int       `json:"average"`
	ComputedAt time.Time `json:"computedAt"`
}

type BatteryState struct {
	Percent int `json:"percent"`
}

type LinkState struct {
	Connected bool `json:"connected"`
}

// HealthEventKind is the platform classification of a health callback.
type HealthEventKind int

const (
	HealthOther HealthEventKind = iota
	HealthSignificant
	HealthSleep
)

func (k HealthEventKind) String() string {
	switch k {
	case HealthSignificant:
		return "significant"
	case HealthSleep:
		return "sleep"
	default:
		return "other"
	}
}

// ParseHealthEventKind parses "significant", "sleep" or "other".
func ParseHealthEventKind(s string) (HealthEventKind, bool) {
	switch s {
	case "significant":
		return HealthSignificant, true
	case "sleep":
		return HealthSleep, true
	case "other", "":
		return HealthOther, true
	}
	return HealthOther, false
}
