package progress

import "fmt"

// Verdict compares today's step count with the running average.
type Verdict int

const (
	Ahead Verdict = iota
	Behind
)

func (v Verdict) String() string {
	switch v {
	case Ahead:
		return "ahead"
	case Behind:
		return "behind"
	default:
		return "unknown"
	}
}

// MarshalText lets Verdict serialise as its name in JSON.
func (v Verdict) MarshalText() ([]byte, error) {
	return []byte(v.String()), nil
}

// Fixed styling for each verdict. Colors are 24-bit RGB.
const (
	ColorWinner = "#00AA55" // jaeger green
	ColorLoser  = "#FFAAAA" // melon
	ColorMark   = "#FFFF00"

	EmojiWinner = "\U0001F60C"
	EmojiLoser  = "\U0001F4A9"
)

// Color returns the text and ring color for the verdict.
func (v Verdict) Color() string {
	if v == Ahead {
		return ColorWinner
	}
	return ColorLoser
}

// Emoji returns the glyph prefixed to the step count.
func (v Verdict) Emoji() string {
	if v == Ahead {
		return EmojiWinner
	}
	return EmojiLoser
}

// Result is the output of Evaluate.
type Result struct {
	Verdict Verdict
	// RingVisible is false when the goal is unknown; RingFraction is then 0
	// and the ring must not be drawn.
	RingVisible  bool
	RingFraction float64
	// HasAverageMark is false until there is an average and a goal to compare against.
	HasAverageMark      bool
	AverageMarkFraction float64
}

// Evaluate derives ring fill, average marker and verdict from the step count,
// the daily goal and the running average. goal == 0 means no data yet and is
// never divided by.
func Evaluate(count, goal, average int) Result {
	r := Result{Verdict: Behind}
	if count >= average {
		r.Verdict = Ahead
	}
	if goal <= 0 {
		return r
	}
	r.RingVisible = true
	r.RingFraction = clamp01(float64(count) / float64(goal))
	if average >= 1 {
		r.HasAverageMark = true
		r.AverageMarkFraction = clamp01(float64(average) / float64(goal))
	}
	return r
}

// StepsText formats the step widget text as emoji followed by the count.
func StepsText(count int, v Verdict) string {
	return fmt.Sprintf("%s%d", v.Emoji(), count)
}

func clamp01(f float64) float64 {
	if f < 0 {
		return 0
	}
	if f > 1 {
		return 1
	}
	return f
}
