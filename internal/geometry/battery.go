package geometry

import "image"

// BatteryGauge describes the battery icon box and how many discrete segments
// the fill is quantised to. Layouts use 5, 6, 10 or 13 segments.
type BatteryGauge struct {
	Segments int
	Width    int
	Height   int
}

// DefaultBatteryGauge is the 6x12 five-segment icon.
var DefaultBatteryGauge = BatteryGauge{Segments: 5, Width: 6, Height: 12}

// fillTop is the y offset of a full fill inside the icon box: one row for the
// nub, one for the body outline and two rows of padding.
const fillTop = 4

// BatteryFill is the geometry of one battery icon.
type BatteryFill struct {
	Empty  int `json:"emptySegments"`
	Filled int `json:"filledSegments"`
	// Nub is the terminal on top of the body.
	Nub  image.Rectangle `json:"nub"`
	Body image.Rectangle `json:"body"`
	// Fill is only meaningful when FillVisible is true.
	Fill        image.Rectangle `json:"fill"`
	FillVisible bool            `json:"fillVisible"`
}

// Battery computes the battery icon for percent. percent is clamped to [0,100].
// Filled segments are round(percent*N/100); the fill height is N+1 minus the
// empty segments and is suppressed below MinVisibleFill.
func Battery(percent int, g BatteryGauge) BatteryFill {
	if percent < 0 {
		percent = 0
	}
	if percent > 100 {
		percent = 100
	}
	n := g.Segments
	if n <= 0 {
		n = DefaultBatteryGauge.Segments
	}
	filled := (percent*n + 50) / 100
	empty := n - filled
	height := n + 1 - empty

	out := BatteryFill{
		Empty:  empty,
		Filled: filled,
		Nub:    image.Rect(2, 1, 4, 2),
		Body:   image.Rect(0, 2, g.Width, g.Height),
	}
	if height >= MinVisibleFill {
		out.FillVisible = true
		out.Fill = image.Rect(2, fillTop+empty, g.Width-2, fillTop+empty+height)
	}
	return out
}
