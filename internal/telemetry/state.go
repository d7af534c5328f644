package telemetry

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/kjstillabower/watchface-status/internal/models"
)

// ErrPartialWeather is returned when an inbound weather message lacks one of
// its required fields. The previous sample is left untouched.
var ErrPartialWeather = errors.New("partial weather message")

// Status is the availability of one telemetry source.
type Status int

const (
	Unset Status = iota
	Available
)

func (s Status) String() string {
	if s == Available {
		return "available"
	}
	return "unset"
}

// Source names a telemetry source.
type Source string

const (
	SourceClock     Source = "clock"
	SourceWeather   Source = "weather"
	SourceStepsGoal Source = "steps_goal"
	SourceSteps     Source = "steps"
	SourceBattery   Source = "battery"
	SourceLink      Source = "link"
)

// State holds the latest known value of every source. It is owned by a single
// event loop and is not safe for concurrent use.
type State struct {
	clock    time.Time
	hasClock bool

	weather    models.WeatherSample
	hasWeather bool

	steps      models.StepsSample
	goalKnown  bool
	stepsKnown bool

	battery    models.BatteryState
	hasBattery bool

	link    models.LinkState
	hasLink bool
}

// New returns a State with every source unset.
func New() *State {
	return &State{}
}

// Status reports whether src has ever been set.
func (s *State) Status(src Source) Status {
	var ok bool
	switch src {
	case SourceClock:
		ok = s.hasClock
	case SourceWeather:
		ok = s.hasWeather
	case SourceStepsGoal:
		ok = s.goalKnown
	case SourceSteps:
		ok = s.stepsKnown
	case SourceBattery:
		ok = s.hasBattery
	case SourceLink:
		ok = s.hasLink
	}
	if ok {
		return Available
	}
	return Unset
}

// AcceptWeather replaces the weather sample with msg if all four fields are
// present. Partial messages are rejected whole with ErrPartialWeather.
// ReceivedAt never moves backwards.
func (s *State) AcceptWeather(msg models.WeatherMessage, at time.Time) (models.WeatherSample, error) {
	var missing []string
	if msg.Temperature == nil {
		missing = append(missing, "temperature")
	}
	if msg.Conditions == nil {
		missing = append(missing, "conditions")
	}
	if msg.Sunrise == nil {
		missing = append(missing, "sunrise")
	}
	if msg.Sunset == nil {
		missing = append(missing, "sunset")
	}
	if len(missing) > 0 {
		return models.WeatherSample{}, fmt.Errorf("%w: missing %s", ErrPartialWeather, strings.Join(missing, ", "))
	}

	if s.hasWeather && at.Before(s.weather.ReceivedAt) {
		at = s.weather.ReceivedAt
	}
	s.weather = models.WeatherSample{
		TemperatureC:  *msg.Temperature,
		ConditionCode: *msg.Conditions,
		Sunrise:       *msg.Sunrise,
		Sunset:        *msg.Sunset,
		ReceivedAt:    at,
	}
	s.hasWeather = true
	return s.weather, nil
}

// Weather returns the latest accepted sample, or false if none has arrived.
func (s *State) Weather() (models.WeatherSample, bool) {
	return s.weather, s.hasWeather
}

// SetClock records the latest tick time.
func (s *State) SetClock(t time.Time) {
	s.clock = t
	s.hasClock = true
}

// Clock returns the latest tick time.
func (s *State) Clock() (time.Time, bool) {
	return s.clock, s.hasClock
}

// SetBattery records the charge percent, clamped to [0,100].
func (s *State) SetBattery(percent int) models.BatteryState {
	if percent < 0 {
		percent = 0
	}
	if percent > 100 {
		percent = 100
	}
	s.battery = models.BatteryState{Percent: percent}
	s.hasBattery = true
	return s.battery
}

func (s *State) Battery() (models.BatteryState, bool) {
	return s.battery, s.hasBattery
}

// SetLink records the link state and reports whether this is a transition to
// disconnected (from connected or from unset), which should raise an alert.
func (s *State) SetLink(connected bool) (alert bool) {
	alert = !connected && (!s.hasLink || s.link.Connected)
	s.link = models.LinkState{Connected: connected}
	s.hasLink = true
	return alert
}

func (s *State) Link() (models.LinkState, bool) {
	return s.link, s.hasLink
}

// SetStepsGoal records a recomputed daily goal. A goal of 0 still means no data.
func (s *State) SetStepsGoal(goal int, at time.Time) {
	if goal < 0 {
		goal = 0
	}
	s.steps.Goal = goal
	s.steps.ComputedAt = at
	if goal > 0 {
		s.goalKnown = true
	}
}

// SetStepsProgress records a recomputed count and running average.
func (s *State) SetStepsProgress(count, average int, at time.Time) {
	if count < 0 {
		count = 0
	}
	if average < 0 {
		average = 0
	}
	s.steps.Count = count
	s.steps.Average = average
	s.steps.ComputedAt = at
	s.stepsKnown = true
}

// Steps returns the step figures and whether count/average have been computed.
func (s *State) Steps() (models.StepsSample, bool) {
	return s.steps, s.stepsKnown
}
