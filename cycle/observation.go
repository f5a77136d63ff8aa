package cycle

import (
	"math"

	"github.com/james-bowman/sparse"

	"github.com/Soengmou/unicycle/InputParameters"
)

// DisplacementKernel gives the surface velocity (v2, v3) induced at an
// observation point per unit value of one velocity DOF of an element.
type DisplacementKernel func(el Element, dof int, x2, x3 float64) (u2, u3 float64)

// ObservationOperator maps the gathered global velocity vector to surface
// velocities at the observation points: two rows (v2, v3) per point.
// Assembled once; entries below the threshold are dropped, which keeps
// distant element/point pairs out of the stored operator.
type ObservationOperator struct {
	Op        *sparse.CSR
	NumPoints int
}

func BuildObservationOperator(points []InputParameters.ObservationPoint,
	elements []Element, lay *Layout, kern DisplacementKernel, threshold float64) *ObservationOperator {
	dok := sparse.NewDOK(2*len(points), lay.GlobalVelocityDOF)
	for i, pt := range points {
		for k, el := range elements {
			base := lay.ElemVelocityOffset[k]
			for j := 0; j < el.VelocityDOF(); j++ {
				u2, u3 := kern(el, j, pt.X2, pt.X3)
				if math.Abs(u2) > threshold {
					dok.Set(2*i, base+j, u2)
				}
				if math.Abs(u3) > threshold {
					dok.Set(2*i+1, base+j, u3)
				}
			}
		}
	}
	return &ObservationOperator{
		Op:        dok.ToCSR(),
		NumPoints: len(points),
	}
}

// Apply computes out = Op * velocity. out must hold 2*NumPoints entries.
func (o *ObservationOperator) Apply(velocity, out []float64) {
	for i := range out {
		out[i] = 0
	}
	o.Op.DoNonZero(func(i, j int, v float64) {
		out[i] += v * velocity[j]
	})
}
