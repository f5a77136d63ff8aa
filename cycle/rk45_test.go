package cycle

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRK45ExponentialDecay(t *testing.T) {
	// dy/dt = -y integrated over [0,1] must match exp(-1) to the
	// requested accuracy
	f := func(_ float64, y, dydt []float64) {
		for i := range y {
			dydt[i] = -y[i]
		}
	}
	var (
		rk    = NewRK45(1, 0)
		y     = []float64{1}
		dydt  = make([]float64, 1)
		yscal = make([]float64, 1)
		eps   = 1.e-8
		tm    float64
		dt    = 1.e-3
	)
	for tm < 1 {
		f(tm, y, dydt)
		yscal[0] = math.Abs(y[0]) + math.Abs(dt*dydt[0]) + tiny
		dtDone, dtNext, err := rk.StepAdaptive(f, tm, y, dydt, yscal, dt, eps)
		assert.NoError(t, err)
		tm += dtDone
		dt = dtNext
		if remaining := 1 - tm; dt > remaining {
			dt = remaining
		}
	}
	assert.InDelta(t, math.Exp(-1), y[0], 1.e-6)
}

func TestRK45MaxStep(t *testing.T) {
	f := func(_ float64, y, dydt []float64) {
		dydt[0] = 1 // Trivially smooth: the controller wants to grow
	}
	rk := NewRK45(1, 0.5)
	y := []float64{0}
	dydt := []float64{1}
	yscal := []float64{1}
	dtDone, dtNext, err := rk.StepAdaptive(f, 0, y, dydt, yscal, 10., 1.e-6)
	assert.NoError(t, err)
	assert.LessOrEqual(t, dtDone, 0.5)
	assert.LessOrEqual(t, dtNext, 0.5)
	assert.InDelta(t, dtDone, y[0], 1.e-14)
}

func TestRK45RejectsOverflow(t *testing.T) {
	// An explosive right-hand side overflows the trial stages at a large
	// step: the embedded error estimate degenerates to NaN, which must be
	// treated as a rejection, never as a zero-error acceptance
	f := func(_ float64, y, dydt []float64) {
		for i := range y {
			dydt[i] = math.Pow(10, y[i])
		}
	}
	rk := NewRK45(1, 0)
	y := []float64{1}
	dydt := make([]float64, 1)
	f(0, y, dydt)
	dtTry := 1000.
	yscal := []float64{math.Abs(y[0]) + math.Abs(dtTry*dydt[0]) + tiny}
	dtDone, dtNext, err := rk.StepAdaptive(f, 0, y, dydt, yscal, dtTry, 1.e-6)
	assert.NoError(t, err)
	assert.False(t, math.IsNaN(y[0]))
	assert.False(t, math.IsInf(y[0], 0))
	assert.Less(t, dtDone, dtTry)
	assert.Greater(t, dtNext, 0.)
	assert.False(t, math.IsNaN(dtNext))
}

func TestRK45RejectsAndRetries(t *testing.T) {
	// A stiff right-hand side forces internal rejections; the accepted
	// step must still satisfy the error bound without surfacing failures
	f := func(_ float64, y, dydt []float64) {
		dydt[0] = -1000 * y[0]
	}
	rk := NewRK45(1, 0)
	y := []float64{1}
	dydt := make([]float64, 1)
	f(0, y, dydt)
	yscal := []float64{math.Abs(y[0]) + math.Abs(1.*dydt[0]) + tiny}
	dtDone, dtNext, err := rk.StepAdaptive(f, 0, y, dydt, yscal, 1., 1.e-6)
	assert.NoError(t, err)
	assert.Less(t, dtDone, 1.)
	assert.Greater(t, dtNext, 0.)
	assert.Less(t, y[0], 1.)
	assert.Greater(t, y[0], 0.)
}
