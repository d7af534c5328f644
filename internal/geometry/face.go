package geometry

import "image"

// Face describes the static layout of the watch face around the step ring.
type Face struct {
	Bounds        image.Rectangle
	RingInset     int
	RingThickness int
	Dots          int
	DotInset      int
}

// DefaultFace is a 144x168 screen with a 12-dot ring.
var DefaultFace = Face{
	Bounds:        image.Rect(0, 0, 144, 168),
	RingInset:     2,
	RingThickness: 12,
	Dots:          12,
	DotInset:      6,
}

// FaceLayout is the resolved geometry for a Face.
type FaceLayout struct {
	RingBox       image.Rectangle `json:"ringBox"`
	RingThickness int             `json:"ringThickness"`
	Dots          []image.Point   `json:"dots"`
}

// Layout resolves the ring box and dot centres. A zero Face uses DefaultFace.
func (f Face) Layout() FaceLayout {
	if f.Bounds.Empty() {
		f = DefaultFace
	}
	thickness := f.RingThickness
	if thickness < 0 {
		thickness = 0
	}
	return FaceLayout{
		RingBox:       Inset(f.Bounds, f.RingInset),
		RingThickness: thickness,
		Dots:          Dots(f.Bounds, f.Dots, f.DotInset),
	}
}
