package geometry

import (
	"image"
	"math"
	"testing"
)

func TestBattery_Extremes(t *testing.T) {
	empty := Battery(0, DefaultBatteryGauge)
	if empty.FillVisible {
		t.Errorf("Battery(0).FillVisible = true, want false (below minimum height)")
	}
	if empty.Empty != 5 {
		t.Errorf("Battery(0).Empty = %d, want 5", empty.Empty)
	}

	full := Battery(100, DefaultBatteryGauge)
	if !full.FillVisible {
		t.Fatal("Battery(100).FillVisible = false, want true")
	}
	if full.Empty != 0 {
		t.Errorf("Battery(100).Empty = %d, want 0", full.Empty)
	}
	if got, want := full.Fill, image.Rect(2, 4, 4, 10); got != want {
		t.Errorf("Battery(100).Fill = %v, want %v", got, want)
	}
	if got := full.Fill.Dy(); got != 6 {
		t.Errorf("Battery(100) fill height = %d, want 6", got)
	}
}

func TestBattery_Segments(t *testing.T) {
	tests := []struct {
		percent    int
		segments   int
		wantEmpty  int
		wantHeight int
		wantVis    bool
	}{
		{10, 5, 4, 2, true},
		{9, 5, 5, 1, false},
		{50, 5, 2, 4, true},
		{99, 5, 0, 6, true},
		{50, 6, 3, 4, true},
		{50, 10, 5, 6, true},
		{100, 13, 0, 14, true},
		{4, 13, 12, 2, true},
		{3, 13, 13, 1, false},
		{-20, 5, 5, 1, false},
		{150, 5, 0, 6, true},
	}
	for _, tt := range tests {
		g := BatteryGauge{Segments: tt.segments, Width: 6, Height: tt.segments + 7}
		got := Battery(tt.percent, g)
		if got.Empty != tt.wantEmpty {
			t.Errorf("Battery(%d, N=%d).Empty = %d, want %d", tt.percent, tt.segments, got.Empty, tt.wantEmpty)
		}
		if got.FillVisible != tt.wantVis {
			t.Errorf("Battery(%d, N=%d).FillVisible = %v, want %v", tt.percent, tt.segments, got.FillVisible, tt.wantVis)
		}
		if got.FillVisible && got.Fill.Dy() != tt.wantHeight {
			t.Errorf("Battery(%d, N=%d) fill height = %d, want %d", tt.percent, tt.segments, got.Fill.Dy(), tt.wantHeight)
		}
		if got.Filled+got.Empty != tt.segments {
			t.Errorf("Battery(%d, N=%d) filled+empty = %d, want %d", tt.percent, tt.segments, got.Filled+got.Empty, tt.segments)
		}
	}
}

func TestBattery_Outline(t *testing.T) {
	b := Battery(60, DefaultBatteryGauge)
	if got, want := b.Body, image.Rect(0, 2, 6, 12); got != want {
		t.Errorf("Body = %v, want %v", got, want)
	}
	if got, want := b.Nub, image.Rect(2, 1, 4, 2); got != want {
		t.Errorf("Nub = %v, want %v", got, want)
	}
}

func TestRing(t *testing.T) {
	tests := []struct {
		f    float64
		want float64
	}{
		{0, 0},
		{0.25, 90},
		{1, 360},
		{1.7, 360},
		{-0.2, 0},
		{math.NaN(), 0},
	}
	for _, tt := range tests {
		got := Ring(tt.f)
		if got.StartDeg != 0 || got.EndDeg != tt.want {
			t.Errorf("Ring(%v) = %+v, want 0..%v", tt.f, got, tt.want)
		}
	}
}

func TestAverageMark_EndsAtFraction(t *testing.T) {
	a := AverageMark(0.8)
	if a.EndDeg != 288 {
		t.Errorf("AverageMark(0.8).EndDeg = %v, want 288", a.EndDeg)
	}
	if w := a.EndDeg - a.StartDeg; math.Abs(w-AverageMarkWidth) > 1e-9 {
		t.Errorf("AverageMark width = %v, want %v", w, AverageMarkWidth)
	}
	start, end := a.Trig()
	if end != DegToTrig(288) {
		t.Errorf("Trig end = %d, want %d", end, DegToTrig(288))
	}
	if d := end - start; d < 999 || d > 1001 {
		t.Errorf("Trig width = %d, want about 1000", d)
	}
}

func TestDegToTrig(t *testing.T) {
	if got := DegToTrig(360); got != TrigMaxAngle {
		t.Errorf("DegToTrig(360) = %d, want %d", got, TrigMaxAngle)
	}
	if got := DegToTrig(90); got != TrigMaxAngle/4 {
		t.Errorf("DegToTrig(90) = %d, want %d", got, TrigMaxAngle/4)
	}
}

func TestDots(t *testing.T) {
	box := image.Rect(0, 0, 100, 100)
	pts := Dots(box, 12, 6)
	if len(pts) != 12 {
		t.Fatalf("len(Dots) = %d, want 12", len(pts))
	}
	want := map[int]image.Point{
		0: image.Pt(50, 6),
		3: image.Pt(94, 50),
		6: image.Pt(50, 94),
		9: image.Pt(6, 50),
	}
	for i, p := range want {
		if pts[i] != p {
			t.Errorf("Dots[%d] = %v, want %v", i, pts[i], p)
		}
	}
	if Dots(box, 0, 6) != nil {
		t.Error("Dots(n=0) should be nil")
	}
}

func TestInset_Collapses(t *testing.T) {
	r := Inset(image.Rect(0, 0, 4, 4), 10)
	if !r.Empty() {
		t.Errorf("Inset() = %v, want empty", r)
	}
}

func TestGeometry_Idempotent(t *testing.T) {
	if Battery(37, DefaultBatteryGauge) != Battery(37, DefaultBatteryGauge) {
		t.Error("Battery() not deterministic")
	}
	if Ring(0.42) != Ring(0.42) || AverageMark(0.42) != AverageMark(0.42) {
		t.Error("Ring()/AverageMark() not deterministic")
	}
}

func TestFace_Layout(t *testing.T) {
	l := DefaultFace.Layout()
	if want := image.Rect(2, 2, 142, 166); l.RingBox != want {
		t.Errorf("RingBox = %v, want %v", l.RingBox, want)
	}
	if l.RingThickness != 12 {
		t.Errorf("RingThickness = %d, want 12", l.RingThickness)
	}
	if len(l.Dots) != 12 {
		t.Fatalf("len(Dots) = %d, want 12", len(l.Dots))
	}
	// 12 o'clock on the circle inscribed in (6,6)-(138,162): radius 66, centre (72,84).
	if want := image.Pt(72, 18); l.Dots[0] != want {
		t.Errorf("Dots[0] = %v, want %v", l.Dots[0], want)
	}
	if want := image.Pt(138, 84); l.Dots[3] != want {
		t.Errorf("Dots[3] = %v, want %v", l.Dots[3], want)
	}
}

func TestFace_ZeroUsesDefault(t *testing.T) {
	if got := (Face{}).Layout(); got.RingBox != DefaultFace.Layout().RingBox {
		t.Errorf("zero Face RingBox = %v, want default", got.RingBox)
	}
}
