// Package display turns telemetry state into the plain values handed to the
// renderer: text strings, icon ids and widget geometry.
package display

import (
	"fmt"
	"time"

	"github.com/kjstillabower/watchface-status/internal/geometry"
	"github.com/kjstillabower/watchface-status/internal/icon"
	"github.com/kjstillabower/watchface-status/internal/models"
	"github.com/kjstillabower/watchface-status/internal/progress"
	"github.com/kjstillabower/watchface-status/internal/telemetry"
)

const (
	dateLayout   = "Mon Jan 02"
	time24Layout = "15:04"
	time12Layout = "03:04"
)

// Options are the layout and locale settings for Compose.
type Options struct {
	Use24h bool
	// Location is the local time zone for date and time text. Nil means time.Local.
	Location *time.Location
	Battery  geometry.BatteryGauge
	Face     geometry.Face
	// WeatherMaxAge marks weather as stale once exceeded. Zero disables.
	WeatherMaxAge time.Duration
	// StepsEnabled is false when the platform has no step data at all.
	StepsEnabled bool
}

// Compose builds the display for now. Sources that have never reported are
// suppressed rather than shown with a default value.
func Compose(s *telemetry.State, now time.Time, opts Options) models.Display {
	loc := opts.Location
	if loc == nil {
		loc = time.Local
	}
	clock, ok := s.Clock()
	if !ok {
		clock = now
	}
	clock = clock.In(loc)

	d := models.Display{
		Date:        DateText(clock),
		Time:        TimeText(clock, opts.Use24h),
		WeatherIcon: icon.NotAvailable,
		Face:        opts.Face.Layout(),
		ComposedAt:  now,
	}

	if w, ok := s.Weather(); ok {
		d.WeatherAvailable = true
		d.WeatherIcon = icon.Classify(w.ConditionCode, icon.IsNight(now.Unix(), w.Sunrise, w.Sunset))
		d.Temperature = TemperatureText(w.TemperatureC)
		if opts.WeatherMaxAge > 0 && now.Sub(w.ReceivedAt) > opts.WeatherMaxAge {
			d.WeatherStale = true
		}
	}

	if b, ok := s.Battery(); ok {
		d.BatteryText = BatteryText(b.Percent)
		d.Battery = geometry.Battery(b.Percent, opts.Battery)
	}

	if l, ok := s.Link(); ok {
		d.LinkConnected = l.Connected
	}

	if opts.StepsEnabled {
		if st, ok := s.Steps(); ok {
			d.Steps = Steps(st)
		}
	}
	return d
}

// Steps builds the step widget from a sample.
func Steps(st models.StepsSample) *models.StepsDisplay {
	r := progress.Evaluate(st.Count, st.Goal, st.Average)
	out := &models.StepsDisplay{
		Text:        progress.StepsText(st.Count, r.Verdict),
		Color:       r.Verdict.Color(),
		Verdict:     r.Verdict,
		RingVisible: r.RingVisible,
	}
	if r.RingVisible {
		out.Ring = geometry.Ring(r.RingFraction)
	}
	if r.HasAverageMark {
		mark := geometry.AverageMark(r.AverageMarkFraction)
		out.AverageMark = &mark
		out.MarkColor = progress.ColorMark
	}
	return out
}

// DateText formats t as "Mon Jan 02".
func DateText(t time.Time) string {
	return t.Format(dateLayout)
}

// TimeText formats t as "15:04" or, for 12-hour locales, "03:04".
func TimeText(t time.Time, use24h bool) string {
	if use24h {
		return t.Format(time24Layout)
	}
	return t.Format(time12Layout)
}

// TemperatureText formats a Celsius reading, e.g. "12C".
func TemperatureText(c int32) string {
	return fmt.Sprintf("%dC", c)
}

// BatteryText formats a charge percent, e.g. "80%".
func BatteryText(percent int) string {
	return fmt.Sprintf("%d%%", percent)
}
