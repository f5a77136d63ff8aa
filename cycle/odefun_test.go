package cycle

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/Soengmou/unicycle/InputParameters"
	"github.com/Soengmou/unicycle/utils"
)

func testParams(nPatch, nVolume, workers int) *InputParameters.SimulationParameters {
	sp := &InputParameters.SimulationParameters{
		Title:             "test",
		ShearModulus:      30.e3,
		PoissonRatio:      0.25,
		Interval:          1.0,
		Epsilon:           1.e-6,
		MaximumTimeStep:   0.25,
		MaximumIterations: 100000,
		Workers:           workers,
		ReportEvery:       1 << 30,
	}
	for i := 0; i < nPatch; i++ {
		def := testPatchDef()
		def.X3 = float64(i) * def.Width
		sp.Patches = append(sp.Patches, def)
	}
	for i := 0; i < nVolume; i++ {
		def := testVolumeDef()
		def.X2 = float64(i) * def.Width
		def.X3 = float64(nPatch)*1.e3 + 2.e3
		sp.Volumes = append(sp.Volumes, def)
	}
	return sp
}

// syntheticOperator fills the interaction matrix with a deterministic,
// decaying off-diagonal pattern and a negative self-stiffness.
func syntheticOperator(lay *Layout) utils.Matrix {
	m := utils.NewMatrix(lay.GlobalForceDOF, lay.GlobalVelocityDOF)
	for i := 0; i < lay.GlobalForceDOF; i++ {
		for j := 0; j < lay.GlobalVelocityDOF; j++ {
			if i == j {
				m.Set(i, j, -10.)
			} else {
				m.Set(i, j, math.Sin(float64(3*i+7*j))/(10.+float64(i+j)))
			}
		}
	}
	return m
}

func newTestSimulation(t *testing.T, sp *InputParameters.SimulationParameters) *Simulation {
	t.Helper()
	assert.NoError(t, sp.Validate())
	s, err := NewSimulation(sp)
	assert.NoError(t, err)
	assert.NoError(t, s.SetOperator(syntheticOperator(s.Layout)))
	return s
}

func TestDerivativeDeterminism(t *testing.T) {
	// Identical (t, y) must give bit-for-bit identical dydt, twice in a
	// row and for any worker count
	s1 := newTestSimulation(t, testParams(3, 2, 1))
	s3 := newTestSimulation(t, testParams(3, 2, 3))
	assert.Equal(t, s1.Y, s3.Y)

	d1 := make([]float64, len(s1.Dydt))
	s1.ODEFun(0, s1.Y, s1.Dydt)
	copy(d1, s1.Dydt)
	s1.ODEFun(0, s1.Y, s1.Dydt)
	assert.Equal(t, d1, s1.Dydt)

	s3.ODEFun(0, s3.Y, s3.Dydt)
	assert.Equal(t, d1, s3.Dydt)
}

func TestDiagnosticMaxima(t *testing.T) {
	s := newTestSimulation(t, testParams(2, 1, 2))
	s.ODEFun(0, s.Y, s.Dydt)
	// Patches start 2% below the plate rate
	assert.InDelta(t, 0.98e-9, s.MaxSlipVelocity, 1.e-12)
	// The volume starts in equilibrium with its loading rate
	assert.InDelta(t, 1.e-3, s.MaxStrainRate, 1.e-6)
}

func TestOperatorShapeMismatch(t *testing.T) {
	sp := testParams(2, 0, 1)
	assert.NoError(t, sp.Validate())
	s, err := NewSimulation(sp)
	assert.NoError(t, err)
	assert.Error(t, s.SetOperator(utils.NewMatrix(3, 3)))
	assert.Error(t, s.Solve(nil))
}
