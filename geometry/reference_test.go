package geometry

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNewFrame(t *testing.T) {
	// Vertical fault: dip vector points straight down
	f := NewFrame(0, 0, 90)
	assert.InDelta(t, 0., f.DipVec[1], 1.e-15)
	assert.InDelta(t, 1., f.DipVec[2], 1.e-15)
	assert.InDelta(t, -1., f.Normal[1], 1.e-15)
	assert.InDelta(t, 0., f.Normal[2], 1.e-15)

	// Orthogonality and unit length for arbitrary dips
	for dip := 0.; dip <= 180.; dip += 7.5 {
		f := NewFrame(1, 2, dip)
		dot := f.DipVec[1]*f.Normal[1] + f.DipVec[2]*f.Normal[2]
		assert.InDelta(t, 0., dot, 1.e-14)
		assert.InDelta(t, 1., math.Hypot(f.DipVec[1], f.DipVec[2]), 1.e-14)
		assert.InDelta(t, 1., math.Hypot(f.Normal[1], f.Normal[2]), 1.e-14)
	}
}

func TestComputeReferenceSystem(t *testing.T) {
	frames, err := ComputeReferenceSystem(
		[]float64{0, 10}, []float64{0, 0}, []float64{2, 2}, []float64{90, 30}, true)
	assert.NoError(t, err)
	// Vertical patch: centroid one half-width below the top edge
	assert.InDelta(t, 0., frames[0].X2, 1.e-15)
	assert.InDelta(t, 1., frames[0].X3, 1.e-15)
	// 30 degree dip: centroid offset along (cos30, sin30)
	assert.InDelta(t, 10.+math.Cos(math.Pi/6), frames[1].X2, 1.e-14)
	assert.InDelta(t, math.Sin(math.Pi/6), frames[1].X3, 1.e-14)

	_, err = ComputeReferenceSystem([]float64{0}, []float64{0, 1}, []float64{1}, []float64{0}, false)
	assert.Error(t, err)
}
