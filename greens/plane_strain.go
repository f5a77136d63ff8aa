package greens

import (
	"fmt"
	"math"

	"github.com/Soengmou/unicycle/cycle"
	"github.com/Soengmou/unicycle/utils"
)

// Config carries the elastic constants of the plane-strain medium and the
// quadrature density for strain-volume boundary integration.
type Config struct {
	Mu         float64 // Shear modulus
	Nu         float64 // Poisson ratio
	Quadrature int     // Samples per strain-volume side, default 8
}

// dislocation is a point (line, in 3-D) edge dislocation in the (x2,x3)
// section with Burgers vector (b2,b3).
type dislocation struct {
	x2, x3 float64
	b2, b3 float64
}

// edgeStress evaluates the full-space plane-strain stress of one edge
// dislocation at a receiver point. The canonical field for a Burgers
// vector along x is rotated into the global frame.
func (c Config) edgeStress(d dislocation, x2, x3 float64) (s22, s23, s33 float64) {
	var (
		dx, dy = x2 - d.x2, x3 - d.x3
		bmag   = math.Hypot(d.b2, d.b3)
	)
	if bmag == 0 {
		return
	}
	ct, st := d.b2/bmag, d.b3/bmag
	// Receiver coordinates in the dislocation-aligned frame
	x := ct*dx + st*dy
	y := -st*dx + ct*dy
	r2 := x*x + y*y
	if r2 == 0 {
		// Receiver on the dislocation line; the field is singular there
		// and the contribution is skipped
		return
	}
	D := c.Mu * bmag / (2 * math.Pi * (1 - c.Nu))
	var (
		sxx = -D * y * (3*x*x + y*y) / (r2 * r2)
		syy = D * y * (x*x - y*y) / (r2 * r2)
		sxy = D * x * (x*x - y*y) / (r2 * r2)
	)
	// Tensor rotation back to global axes
	s22 = ct*ct*sxx - 2*ct*st*sxy + st*st*syy
	s33 = st*st*sxx + 2*ct*st*sxy + ct*ct*syy
	s23 = ct*st*(sxx-syy) + (ct*ct-st*st)*sxy
	return
}

// edgeDisplacement evaluates the full-space displacement of one edge
// dislocation at a receiver point, rotated into the global frame.
func (c Config) edgeDisplacement(d dislocation, x2, x3 float64) (u2, u3 float64) {
	var (
		dx, dy = x2 - d.x2, x3 - d.x3
		bmag   = math.Hypot(d.b2, d.b3)
	)
	if bmag == 0 {
		return
	}
	ct, st := d.b2/bmag, d.b3/bmag
	x := ct*dx + st*dy
	y := -st*dx + ct*dy
	r2 := x*x + y*y
	if r2 == 0 {
		return
	}
	var (
		q  = 1 / (4 * (1 - c.Nu))
		ux = bmag / (2 * math.Pi) * (math.Atan2(y, x) + 2*q*x*y/r2)
		uy = -bmag / (2 * math.Pi) * ((1-2*c.Nu)*q*math.Log(r2) + 2*q*(x*x-y*y)/r2)
	)
	u2 = ct*ux - st*uy
	u3 = st*ux + ct*uy
	return
}

// unitSources represents a unit rate of one velocity DOF of an element as
// a set of point dislocations: a dipole at the patch ends for unit slip,
// or the boundary distribution equivalent to a unit uniform eigenstrain
// rate for strain volumes.
func unitSources(el cycle.Element, dof, nq int) []dislocation {
	switch e := el.(type) {
	case *cycle.Patch:
		var (
			f        = e.Frame
			d2, d3   = f.DipVec[1], f.DipVec[2]
			tx2, tx3 = f.DownDip(-e.Width / 2)
			bx2, bx3 = f.DownDip(e.Width / 2)
		)
		// Uniform slip terminates at the patch ends; the sense is such
		// that positive slip unloads the patch itself
		return []dislocation{
			{tx2, tx3, -d2, -d3},
			{bx2, bx3, d2, d3},
		}
	case *cycle.Volume:
		return volumeSources(e, dof, nq)
	}
	panic(fmt.Sprintf("element kind out of range: %v", el.Kind()))
}

// volumeSources distributes the boundary dislocations equivalent to a
// uniform unit eigenstrain rate over the rectangle's four sides: the
// displacement jump across the boundary is E*x, so each side of tangent t
// carries the uniform Burgers density E*t.
func volumeSources(v *cycle.Volume, dof, nq int) []dislocation {
	var (
		f      = v.Frame
		u2, u3 = f.DipVec[1], f.DipVec[2] // Along-width axis
		n2, n3 = f.Normal[1], f.Normal[2] // Along-thickness axis
		W, T   = v.Width, v.Thickness
		E      [2][2]float64
	)
	switch dof {
	case 0:
		E[0][0] = 1 // e22
	case 1:
		E[0][1], E[1][0] = 1, 1 // e23
	case 2:
		E[1][1] = 1 // e33
	default:
		panic(fmt.Sprintf("volume velocity DOF out of range: %d", dof))
	}
	apply := func(t2, t3 float64) (b2, b3 float64) {
		b2 = E[0][0]*t2 + E[0][1]*t3
		b3 = E[1][0]*t2 + E[1][1]*t3
		return
	}
	srcs := make([]dislocation, 0, 4*nq)
	// Sides at +-T/2 along the normal run along the width axis, sides at
	// +-W/2 along the width axis run along the normal. Tangents are taken
	// circulating the boundary so opposite sides cancel at long range.
	side := func(cx2, cx3, t2, t3, length float64) {
		h := length / float64(nq)
		b2, b3 := apply(t2, t3)
		for q := 0; q < nq; q++ {
			s := -length/2 + (float64(q)+0.5)*h
			srcs = append(srcs, dislocation{
				x2: cx2 + s*t2,
				x3: cx3 + s*t3,
				b2: b2 * h,
				b3: b3 * h,
			})
		}
	}
	side(f.X2-T/2*n2, f.X3-T/2*n3, u2, u3, W)   // Side at -T/2
	side(f.X2+T/2*n2, f.X3+T/2*n3, -u2, -u3, W) // Side at +T/2
	side(f.X2+W/2*u2, f.X3+W/2*u3, n2, n3, T)   // Side at +W/2
	side(f.X2-W/2*u2, f.X3-W/2*u3, -n2, -n3, T) // Side at -W/2
	return srcs
}

func (c Config) stressAt(srcs []dislocation, x2, x3 float64) (s22, s23, s33 float64) {
	for _, d := range srcs {
		a, b, cc := c.edgeStress(d, x2, x3)
		s22 += a
		s23 += b
		s33 += cc
	}
	return
}

// BuildOperator assembles the dense interaction matrix mapping the global
// velocity vector (slip rates and conditioned strain rates) to the global
// force vector (traction rates on patches, stress rates in volumes).
// Built once; the solver freezes it afterward.
func BuildOperator(cfg Config, elements []cycle.Element, lay *cycle.Layout) utils.Matrix {
	if cfg.Quadrature <= 0 {
		cfg.Quadrature = 8
	}
	m := utils.NewMatrix(lay.GlobalForceDOF, lay.GlobalVelocityDOF)
	for ks, src := range elements {
		// Volume strain rates arrive premultiplied by the conditioning
		// scale; the columns absorb the inverse so the product is physical
		colScale := 1.0
		if v, ok := src.(*cycle.Volume); ok {
			colScale = 1 / v.Scale
		}
		for j := 0; j < src.VelocityDOF(); j++ {
			col := lay.ElemVelocityOffset[ks] + j
			srcs := unitSources(src, j, cfg.Quadrature)
			for kr, recv := range elements {
				rf := recv.Reference()
				s22, s23, s33 := cfg.stressAt(srcs, rf.X2, rf.X3)
				row := lay.ElemForceOffset[kr]
				switch recv.(type) {
				case *cycle.Patch:
					var (
						d2, d3 = rf.DipVec[1], rf.DipVec[2]
						n2, n3 = rf.Normal[1], rf.Normal[2]
						t2     = s22*n2 + s23*n3
						t3     = s23*n2 + s33*n3
					)
					m.Set(row, col, colScale*(d2*t2+d3*t3))
					m.Set(row+1, col, colScale*(n2*t2+n3*t3))
				case *cycle.Volume:
					m.Set(row, col, colScale*s22)
					m.Set(row+1, col, colScale*s23)
					m.Set(row+2, col, colScale*s33)
				default:
					panic(fmt.Sprintf("element kind out of range: %v", recv.Kind()))
				}
			}
		}
	}
	return m
}

// Displacement returns the observation kernel: the surface velocity
// induced at a point per unit entry of the coupled velocity vector.
func (c Config) Displacement() cycle.DisplacementKernel {
	nq := c.Quadrature
	if nq <= 0 {
		nq = 8
	}
	return func(el cycle.Element, dof int, x2, x3 float64) (u2, u3 float64) {
		for _, d := range unitSources(el, dof, nq) {
			a, b := c.edgeDisplacement(d, x2, x3)
			u2 += a
			u3 += b
		}
		if v, ok := el.(*cycle.Volume); ok {
			u2 /= v.Scale
			u3 /= v.Scale
		}
		return
	}
}
