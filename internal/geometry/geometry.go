// Package geometry maps percentages and fractions to pixel-space shapes for the
// battery and step-ring widgets. Everything here is a pure function of its
// inputs; drawing is left to the renderer.
package geometry

import (
	"image"
	"math"
)

// TrigMaxAngle is one full turn in the display platform's angle units.
const TrigMaxAngle = 0x10000

// MinVisibleFill is the smallest battery fill height that is drawn.
// Shorter fills would render as a one-pixel sliver.
const MinVisibleFill = 2

// AverageMarkWidth is the angular width of the average marker, in degrees.
// It is 1000 trig units on the platform.
const AverageMarkWidth = 1000 * 360.0 / TrigMaxAngle

// DegToTrig converts degrees to platform trig units, truncating toward zero.
func DegToTrig(deg float64) int32 {
	return int32(deg * TrigMaxAngle / 360)
}

// Arc is a radial sweep measured clockwise from 12 o'clock.
type Arc struct {
	StartDeg float64 `json:"startDeg"`
	EndDeg   float64 `json:"endDeg"`
}

// Trig returns the arc bounds in platform trig units.
func (a Arc) Trig() (start, end int32) {
	return DegToTrig(a.StartDeg), DegToTrig(a.EndDeg)
}

// Ring returns the progress sweep for fraction f, clamped to [0,1].
func Ring(f float64) Arc {
	return Arc{StartDeg: 0, EndDeg: 360 * clamp01(f)}
}

// AverageMark returns a thin sweep of AverageMarkWidth ending exactly at 360*f.
func AverageMark(f float64) Arc {
	end := 360 * clamp01(f)
	return Arc{StartDeg: end - AverageMarkWidth, EndDeg: end}
}

// Inset shrinks r by n on every edge. A rectangle that would invert collapses
// to an empty one at its centre.
func Inset(r image.Rectangle, n int) image.Rectangle {
	out := image.Rect(r.Min.X+n, r.Min.Y+n, r.Max.X-n, r.Max.Y-n)
	if out.Dx() < 0 || out.Dy() < 0 {
		c := image.Pt(r.Min.X+r.Dx()/2, r.Min.Y+r.Dy()/2)
		return image.Rectangle{Min: c, Max: c}
	}
	return out
}

// PolarPoint returns the point at angle deg on the circle inscribed in box.
// 0 degrees is 12 o'clock and angles grow clockwise.
func PolarPoint(box image.Rectangle, deg float64) image.Point {
	cx := float64(box.Min.X) + float64(box.Dx())/2
	cy := float64(box.Min.Y) + float64(box.Dy())/2
	r := math.Min(float64(box.Dx()), float64(box.Dy())) / 2
	rad := deg * math.Pi / 180
	return image.Pt(
		int(math.Round(cx+r*math.Sin(rad))),
		int(math.Round(cy-r*math.Cos(rad))),
	)
}

// Dots returns the centres of n evenly spaced dots on the circle inscribed in
// box after insetting it by inset.
func Dots(box image.Rectangle, n, inset int) []image.Point {
	if n <= 0 {
		return nil
	}
	in := Inset(box, inset)
	pts := make([]image.Point, n)
	for i := 0; i < n; i++ {
		pts[i] = PolarPoint(in, float64(i*360/n))
	}
	return pts
}

func clamp01(f float64) float64 {
	if f < 0 || math.IsNaN(f) {
		return 0
	}
	if f > 1 {
		return 1
	}
	return f
}
