package geometry

import (
	"fmt"
	"math"
)

// Frame is the local reference system of an element in the (x2,x3)
// plane-strain section: x1 is the out-of-plane (strike) axis, x2 is
// horizontal and x3 positive down. Computed once at startup, immutable
// afterward.
type Frame struct {
	Strike [3]float64
	DipVec [3]float64
	Normal [3]float64
	X2, X3 float64 // Centroid
}

// NewFrame builds the strike/dip/normal unit vectors for an element whose
// plane dips dipDeg degrees from horizontal. The normal completes the
// right-handed system strike x dip = normal.
func NewFrame(x2, x3, dipDeg float64) (f Frame) {
	sd, cd := math.Sincos(dipDeg * math.Pi / 180.)
	f = Frame{
		Strike: [3]float64{1, 0, 0},
		DipVec: [3]float64{0, cd, sd},
		Normal: [3]float64{0, -sd, cd},
		X2:     x2,
		X3:     x3,
	}
	return
}

// DownDip returns the point reached from the frame origin after distance w
// along the dip vector.
func (f Frame) DownDip(w float64) (x2, x3 float64) {
	return f.X2 + w*f.DipVec[1], f.X3 + w*f.DipVec[2]
}

// ComputeReferenceSystem builds the frames for a set of elements given by
// position, width and dip. fromTopEdge shifts each frame origin half a
// width down-dip, for elements whose position denotes the up-dip edge
// (fault patches); strain volumes pass their centers directly.
func ComputeReferenceSystem(x2, x3, width, dip []float64, fromTopEdge bool) ([]Frame, error) {
	n := len(x2)
	if len(x3) != n || len(width) != n || len(dip) != n {
		return nil, fmt.Errorf("reference system input length mismatch: x2 %d, x3 %d, width %d, dip %d",
			len(x2), len(x3), len(width), len(dip))
	}
	frames := make([]Frame, n)
	for i := 0; i < n; i++ {
		f := NewFrame(x2[i], x3[i], dip[i])
		if fromTopEdge {
			f.X2, f.X3 = f.DownDip(width[i] / 2)
		}
		frames[i] = f
	}
	return frames, nil
}
