package cycle

import (
	"fmt"
	"math"
	"time"

	"github.com/Soengmou/unicycle/InputParameters"
	"github.com/Soengmou/unicycle/geometry"
	"github.com/Soengmou/unicycle/utils"
)

// yscal floor, keeps the relative error defined through zero crossings
const tiny = 1.e-30

// Exporter persists a snapshot of the current state once per accepted
// step. velocity is the gathered global velocity vector matching y.
type Exporter interface {
	Snapshot(t float64, y, dydt, velocity []float64) error
}

// Simulation owns the complete coupled system: the domain decomposition,
// the element set, the interaction operator and the distributed state.
// All collective scratch storage is allocated once up front; any sizing
// failure surfaces at construction, never mid-run.
type Simulation struct {
	Params   *InputParameters.SimulationParameters
	Layout   *Layout
	Elements []Element // Global ordering: patches first, then volumes
	Operator utils.Matrix

	Y    []float64 // Distributed state vector, the integration variable
	Dydt []float64

	// Diagnostics updated by every derivative evaluation
	MaxSlipVelocity float64
	MaxStrainRate   float64
	Time            float64
	Steps           int

	velocity, force      []float64
	peakSlip, peakStrain []float64
	haveOperator         bool
	rk                   *RK45
}

// NewSimulation validates nothing itself: params must have passed
// Validate. It builds the reference frames, the element set, the layout
// and the initial state. The interaction operator is attached separately
// with SetOperator.
func NewSimulation(sp *InputParameters.SimulationParameters) (*Simulation, error) {
	elements, err := BuildElements(sp)
	if err != nil {
		return nil, err
	}
	lay := NewLayout(len(sp.Patches), len(sp.Volumes), sp.Workers)
	y, err := NewStateVector(lay, elements)
	if err != nil {
		return nil, err
	}
	s := &Simulation{
		Params:     sp,
		Layout:     lay,
		Elements:   elements,
		Y:          y,
		Dydt:       make([]float64, lay.GlobalStateDOF),
		velocity:   make([]float64, lay.GlobalVelocityDOF),
		force:      make([]float64, lay.GlobalForceDOF),
		peakSlip:   make([]float64, lay.NWorkers),
		peakStrain: make([]float64, lay.NWorkers),
		rk:         NewRK45(lay.GlobalStateDOF, sp.MaximumTimeStep),
	}
	return s, nil
}

// BuildElements constructs the global element sequence from the input
// definitions: patches first by ascending index, then volumes. Patch
// positions denote the up-dip edge, volume positions the center.
func BuildElements(sp *InputParameters.SimulationParameters) ([]Element, error) {
	var (
		np = len(sp.Patches)
		nv = len(sp.Volumes)
	)
	x2 := make([]float64, np)
	x3 := make([]float64, np)
	width := make([]float64, np)
	dip := make([]float64, np)
	for i, p := range sp.Patches {
		x2[i], x3[i], width[i], dip[i] = p.X2, p.X3, p.Width, p.Dip
	}
	patchFrames, err := geometry.ComputeReferenceSystem(x2, x3, width, dip, true)
	if err != nil {
		return nil, fmt.Errorf("patch reference system: %w", err)
	}
	x2 = make([]float64, nv)
	x3 = make([]float64, nv)
	width = make([]float64, nv)
	dip = make([]float64, nv)
	for i, v := range sp.Volumes {
		x2[i], x3[i], width[i], dip[i] = v.X2, v.X3, v.Width, v.Dip
	}
	volumeFrames, err := geometry.ComputeReferenceSystem(x2, x3, width, dip, false)
	if err != nil {
		return nil, fmt.Errorf("volume reference system: %w", err)
	}
	elements := make([]Element, 0, np+nv)
	for i, p := range sp.Patches {
		elements = append(elements, NewPatch(p, patchFrames[i]))
	}
	for i, v := range sp.Volumes {
		elements = append(elements, NewVolume(v, volumeFrames[i], sp.StrainRateScale))
	}
	return elements, nil
}

// SetOperator attaches the dense interaction matrix, sized
// [GlobalForceDOF x GlobalVelocityDOF], and freezes it.
func (s *Simulation) SetOperator(m utils.Matrix) error {
	nr, nc := m.Dims()
	if nr != s.Layout.GlobalForceDOF || nc != s.Layout.GlobalVelocityDOF {
		return fmt.Errorf("interaction matrix is %dx%d, layout requires %dx%d",
			nr, nc, s.Layout.GlobalForceDOF, s.Layout.GlobalVelocityDOF)
	}
	s.Operator = m.SetReadOnly("interaction matrix")
	s.haveOperator = true
	return nil
}

// Solve advances the coupled system until the configured simulated-time
// interval is covered or the iteration cap is reached. exp may be nil.
func (s *Simulation) Solve(exp Exporter) error {
	if !s.haveOperator {
		return fmt.Errorf("no interaction operator attached")
	}
	var (
		sp    = s.Params
		y     = s.Y
		dydt  = s.Dydt
		yscal = make([]float64, len(y))
		t     float64
		dt    = s.initialStep()
	)
	s.PrintInitialization()
	start := time.Now()
	for iter := 1; iter <= sp.MaximumIterations; iter++ {
		// One evaluation per accepted step seeds the error scale and the
		// exported kinematics
		s.ODEFun(t, y, dydt)
		if exp != nil {
			if err := exp.Snapshot(t, y, dydt, s.velocity); err != nil {
				return fmt.Errorf("export at t=%g: %w", t, err)
			}
		}
		for i := range yscal {
			yscal[i] = math.Abs(y[i]) + math.Abs(dt*dydt[i]) + tiny
		}
		dtDone, dtNext, err := s.rk.StepAdaptive(s.ODEFun, t, y, dydt, yscal, dt, sp.Epsilon)
		if err != nil {
			return err
		}
		t += dtDone
		s.Time, s.Steps = t, iter
		if iter%sp.ReportEvery == 0 || iter == 1 {
			s.PrintUpdate(dtDone)
		}
		if t >= sp.Interval {
			break
		}
		dt = dtNext
		if remaining := sp.Interval - t; dt > remaining {
			dt = remaining
		}
	}
	s.PrintFinal(time.Since(start))
	return nil
}

// initialStep picks a conservative first trial step; the controller grows
// it within a few iterations.
func (s *Simulation) initialStep() float64 {
	dt := 1.e-6 * s.Params.Interval
	if s.Params.MaximumTimeStep > 0 && dt > s.Params.MaximumTimeStep {
		dt = s.Params.MaximumTimeStep
	}
	return dt
}

func (s *Simulation) PrintInitialization() {
	fmt.Printf("Quasi-dynamic earthquake cycle, plane strain\n")
	fmt.Printf("Using %d workers over %d patches and %d strain volumes\n",
		s.Layout.NWorkers, s.Layout.NPatch, s.Layout.NVolume)
	fmt.Printf("State DOF = %d, Velocity DOF = %d, Force DOF = %d\n",
		s.Layout.GlobalStateDOF, s.Layout.GlobalVelocityDOF, s.Layout.GlobalForceDOF)
	fmt.Printf("Interval = %8.5g, Epsilon = %8.1e, MaximumTimeStep = %8.5g\n\n",
		s.Params.Interval, s.Params.Epsilon, s.Params.MaximumTimeStep)
}

func (s *Simulation) PrintUpdate(dt float64) {
	fmt.Printf("step %8d, time %12.6g, dt %12.6g, maxV %10.4g, maxE %10.4g\n",
		s.Steps, s.Time, dt, s.MaxSlipVelocity, s.MaxStrainRate)
}

func (s *Simulation) PrintFinal(elapsed time.Duration) {
	fmt.Printf("\nDone: %d steps to time %g in %s\n", s.Steps, s.Time, elapsed.String())
}
