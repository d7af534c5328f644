package models

import (
	"time"

	"github.com/kjstillabower/watchface-status/internal/geometry"
	"github.com/kjstillabower/watchface-status/internal/icon"
	"github.com/kjstillabower/watchface-status/internal/progress"
)

// Display is everything handed to the renderer for one frame.
type Display struct {
	Date string `json:"date"`
	Time string `json:"time"`

	WeatherAvailable bool    `json:"weatherAvailable"`
	WeatherIcon      icon.ID `json:"weatherIcon"`
	Temperature      string  `json:"temperature"`
	// WeatherStale is set when the sample is older than the configured max age.
	WeatherStale bool `json:"weatherStale,omitempty"`

	BatteryText string               `json:"batteryText"`
	Battery     geometry.BatteryFill `json:"battery"`

	LinkConnected bool `json:"linkConnected"`

	Steps *StepsDisplay       `json:"steps,omitempty"`
	Face  geometry.FaceLayout `json:"face"`

	ComposedAt time.Time `json:"composedAt"`
}

// StepsDisplay is the step widget. Nil on Display when health data is unavailable.
type StepsDisplay struct {
	Text    string           `json:"text"`
	Color   string           `json:"color"`
	Verdict progress.Verdict `json:"verdict"`

	RingVisible bool          `json:"ringVisible"`
	Ring        geometry.Arc  `json:"ring"`
	AverageMark *geometry.Arc `json:"averageMark,omitempty"`
	MarkColor   string        `json:"markColor,omitempty"`
}
