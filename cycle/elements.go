package cycle

import (
	"fmt"
	"math"

	"github.com/Soengmou/unicycle/InputParameters"
	"github.com/Soengmou/unicycle/geometry"
)

type ElementKind uint8

const (
	PatchKind ElementKind = iota
	VolumeKind
)

func (k ElementKind) String() string {
	switch k {
	case PatchKind:
		return "patch"
	case VolumeKind:
		return "volume"
	}
	return fmt.Sprintf("unknown(%d)", uint8(k))
}

// Degrees of freedom per element kind in the three parallel vector spaces.
const (
	PatchVelocityDOF = 1
	PatchStateDOF    = 5
	PatchForceDOF    = 2

	VolumeVelocityDOF = 3
	VolumeStateDOF    = 6
	VolumeForceDOF    = 3
)

// State slice layout of a fault patch.
const (
	pSlip = iota
	pTauDip
	pTauNormal
	pLogTheta // log10 of the state variable
	pLogV     // log10 of the slip velocity
)

// State slice layout of a strain volume.
const (
	vS22 = iota
	vS23
	vS33
	vE22
	vE23
	vE33
)

const (
	ln10 = math.Ln10
	// Patches start 2% below the plate loading rate
	startVelocityFraction = 0.98
)

// Element is one simulated degree-of-freedom carrier, either a fault patch
// or a strain volume. Slices handed to the methods are the element's own
// windows into the distributed vectors.
type Element interface {
	Kind() ElementKind
	VelocityDOF() int
	StateDOF() int
	ForceDOF() int
	Reference() geometry.Frame
	InitializeState(y []float64)
	// LocalRate fills the element's slice of the coupled velocity vector
	// and the transported part of dydt from the current state. The return
	// value is the diagnostic peak rate (slip velocity or strain rate).
	LocalRate(y, v, dydt []float64) (peak float64)
	// FinalizeRate consumes the element's slice of the force vector after
	// the global coupling product and completes dydt.
	FinalizeRate(y, force, dydt []float64)
}

// KindDOF returns the per-kind DOF counts. An unrecognized kind is a
// programming defect, not a runtime condition.
func KindDOF(kind ElementKind) (velocity, state, force int) {
	switch kind {
	case PatchKind:
		return PatchVelocityDOF, PatchStateDOF, PatchForceDOF
	case VolumeKind:
		return VolumeVelocityDOF, VolumeStateDOF, VolumeForceDOF
	}
	panic(fmt.Sprintf("element kind out of range: %d", kind))
}

// Patch is a planar fault element governed by rate-and-state friction with
// the aging law, under the radiation-damping approximation. Velocity and
// state variable are carried as base-10 logarithms to stay conditioned
// over many decades of slip rate.
type Patch struct {
	Vpl     float64
	Tau0    float64
	Mu0     float64
	Sig     float64
	A, B    float64
	L       float64
	Vo      float64
	Damping float64
	Width   float64
	Frame   geometry.Frame
}

func NewPatch(def InputParameters.PatchDefinition, f geometry.Frame) *Patch {
	return &Patch{
		Vpl:     def.Vpl,
		Tau0:    def.Tau0,
		Mu0:     def.Mu0,
		Sig:     def.Sig,
		A:       def.A,
		B:       def.B,
		L:       def.L,
		Vo:      def.Vo,
		Damping: def.Damping,
		Width:   def.Width,
		Frame:   f,
	}
}

func (p *Patch) Kind() ElementKind         { return PatchKind }
func (p *Patch) VelocityDOF() int          { return PatchVelocityDOF }
func (p *Patch) StateDOF() int             { return PatchStateDOF }
func (p *Patch) ForceDOF() int             { return PatchForceDOF }
func (p *Patch) Reference() geometry.Frame { return p.Frame }

func (p *Patch) InitializeState(y []float64) {
	y[pSlip] = 0
	if p.Tau0 > 0 {
		y[pTauDip] = p.Tau0
	} else {
		// Steady-state friction at the loading velocity
		y[pTauDip] = p.Sig*(p.Mu0+(p.A-p.B)*math.Log(p.Vpl/p.Vo)) - p.Damping*p.Vpl
	}
	y[pTauNormal] = 0
	y[pLogTheta] = math.Log10(p.L / p.Vpl)
	y[pLogV] = math.Log10(startVelocityFraction * p.Vpl)
}

func (p *Patch) LocalRate(y, v, dydt []float64) (peak float64) {
	velocity := math.Pow(10, y[pLogV])
	v[0] = velocity - p.Vpl
	dydt[pSlip] = velocity
	return velocity
}

func (p *Patch) FinalizeRate(y, force, dydt []float64) {
	var (
		velocity = math.Pow(10, y[pLogV])
		// Aging law, d log10(theta)/dt
		dTheta = (math.Pow(10, -y[pLogTheta]) - velocity/p.L) / ln10
		dTau   = force[0]
	)
	dLogV := (dTau - p.B*p.Sig*dTheta*ln10) / ((p.A*p.Sig + p.Damping*velocity) * ln10)
	dydt[pTauDip] = dTau - p.Damping*velocity*dLogV*ln10
	// Quasi-dynamic approximation: the normal traction rate feeds directly
	// from the coupling product, no normal-stress feedback on friction.
	dydt[pTauNormal] = force[1]
	dydt[pLogTheta] = dTheta
	dydt[pLogV] = dLogV
}

// Volume is a finite region accumulating anelastic strain under a
// power-law Maxwell rheology. The long-term strain rates E22/E23/E33 play
// the role the plate velocity does for patches; Scale conditions the
// strain-rate contribution so fault-slip and volume-strain entries are
// comparable in the coupled product.
type Volume struct {
	E22, E23, E33    float64 // Long-term loading strain rates
	HasStress        bool
	S22, S23, S33    float64 // Prescribed initial stress when HasStress
	Gammadot0        float64 // Power-law prefactor
	Npower           float64 // Stress exponent
	Q, R             float64 // Activation energy, gas constant
	Rhoc             float64 // Reserved for thermomechanical coupling
	To               float64 // Temperature
	Width, Thickness float64
	Scale            float64
	Frame            geometry.Frame
}

func NewVolume(def InputParameters.VolumeDefinition, f geometry.Frame, scale float64) *Volume {
	v := &Volume{
		E22:       def.E22,
		E23:       def.E23,
		E33:       def.E33,
		Gammadot0: def.Ngammadot0m,
		Npower:    def.Npowerm,
		Q:         def.NQm,
		R:         def.NRm,
		Rhoc:      def.Rhoc,
		To:        def.To,
		Width:     def.Width,
		Thickness: def.Thickness,
		Scale:     scale,
		Frame:     f,
	}
	if def.Stress != nil {
		v.HasStress = true
		v.S22, v.S23, v.S33 = def.Stress.S22, def.Stress.S23, def.Stress.S33
	}
	return v
}

func (v *Volume) Kind() ElementKind         { return VolumeKind }
func (v *Volume) VelocityDOF() int          { return VolumeVelocityDOF }
func (v *Volume) StateDOF() int             { return VolumeStateDOF }
func (v *Volume) ForceDOF() int             { return VolumeForceDOF }
func (v *Volume) Reference() geometry.Frame { return v.Frame }

func (v *Volume) InitializeState(y []float64) {
	if v.HasStress {
		y[vS22], y[vS23], y[vS33] = v.S22, v.S23, v.S33
		return
	}
	// Deviatoric stress consistent with the long-term strain rate under
	// the volume's own power law.
	em := (v.E22 + v.E33) / 2
	d22, d23, d33 := v.E22-em, v.E23, v.E33-em
	eII := math.Sqrt((d22*d22 + 2*d23*d23 + d33*d33) / 2)
	if eII > 0 {
		tau := math.Pow(eII/v.Gammadot0*math.Exp(v.Q/(v.R*v.To)), 1/v.Npower)
		y[vS22] = tau * d22 / eII
		y[vS23] = tau * d23 / eII
		y[vS33] = tau * d33 / eII
	}
	// Strain components always start at zero
}

func (v *Volume) LocalRate(y, vel, dydt []float64) (peak float64) {
	var (
		s22, s23, s33 = y[vS22], y[vS23], y[vS33]
		p             = (s22 + s33) / 2
		d22, d33      = s22 - p, s33 - p
	)
	sII := math.Sqrt((d22*d22 + 2*s23*s23 + d33*d33) / 2)
	// In the Newtonian limit n=1 the power term is 1 for any sII,
	// including zero, which Pow delivers.
	gamma := v.Gammadot0 * math.Pow(sII, v.Npower-1) * math.Exp(-v.Q/(v.R*v.To))
	e22d, e23d, e33d := gamma*d22, gamma*s23, gamma*d33
	dydt[vE22], dydt[vE23], dydt[vE33] = e22d, e23d, e33d
	vel[0] = (e22d - v.E22) * v.Scale
	vel[1] = (e23d - v.E23) * v.Scale
	vel[2] = (e33d - v.E33) * v.Scale
	return gamma * sII
}

func (v *Volume) FinalizeRate(y, force, dydt []float64) {
	dydt[vS22], dydt[vS23], dydt[vS33] = force[0], force[1], force[2]
}
