package cycle

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/Soengmou/unicycle/InputParameters"
)

func TestObservationOperator(t *testing.T) {
	sp := testParams(2, 1, 1)
	assert.NoError(t, sp.Validate())
	elements, err := BuildElements(sp)
	assert.NoError(t, err)
	lay := NewLayout(2, 1, 1)

	points := []InputParameters.ObservationPoint{{X2: 1.e4}, {X2: 2.e4}}
	// Inverse-distance kernel, decaying with the point offset
	kern := func(el Element, dof int, x2, x3 float64) (u2, u3 float64) {
		f := el.Reference()
		r := math.Hypot(x2-f.X2, x3-f.X3)
		return float64(dof+1) / r, -float64(dof+1) / (2 * r)
	}
	op := BuildObservationOperator(points, elements, lay, kern, 0)
	assert.Equal(t, 2, op.NumPoints)
	r, c := op.Op.Dims()
	assert.Equal(t, 4, r)
	assert.Equal(t, lay.GlobalVelocityDOF, c)

	vel := make([]float64, lay.GlobalVelocityDOF)
	for i := range vel {
		vel[i] = 1
	}
	out := make([]float64, 4)
	op.Apply(vel, out)
	// Row sums of the dense equivalent
	for i := 0; i < 4; i++ {
		var want float64
		for j := 0; j < c; j++ {
			want += op.Op.At(i, j)
		}
		assert.InDelta(t, want, out[i], 1.e-12)
	}
	// v3 rows carry half the v2 amplitude with opposite sign
	assert.InDelta(t, -out[0]/2, out[1], 1.e-12)

	// Thresholding drops far pairs entirely
	opThin := BuildObservationOperator(points, elements, lay, kern, 1.e12)
	opThin.Apply(vel, out)
	assert.Equal(t, []float64{0, 0, 0, 0}, out)
}
