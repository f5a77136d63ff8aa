package cycle

import (
	"fmt"
	"math"
)

// DerivFunc evaluates dydt = f(t, y) into the caller's slice.
type DerivFunc func(t float64, y, dydt []float64)

// Dormand-Prince 5(4) coefficients
var (
	a2 = 1.0 / 5.0
	a3 = 3.0 / 10.0
	a4 = 4.0 / 5.0
	a5 = 8.0 / 9.0

	b21 = 1.0 / 5.0
	b31 = 3.0 / 40.0
	b32 = 9.0 / 40.0
	b41 = 44.0 / 45.0
	b42 = -56.0 / 15.0
	b43 = 32.0 / 9.0
	b51 = 19372.0 / 6561.0
	b52 = -25360.0 / 2187.0
	b53 = 64448.0 / 6561.0
	b54 = -212.0 / 729.0
	b61 = 9017.0 / 3168.0
	b62 = -355.0 / 33.0
	b63 = 46732.0 / 5247.0
	b64 = 49.0 / 176.0
	b65 = -5103.0 / 18656.0

	c1 = 35.0 / 384.0
	c3 = 500.0 / 1113.0
	c4 = 125.0 / 192.0
	c5 = -2187.0 / 6784.0
	c6 = 11.0 / 84.0

	dc1 = c1 - 5179.0/57600.0
	dc3 = c3 - 7571.0/16695.0
	dc4 = c4 - 393.0/640.0
	dc5 = c5 - -92097.0/339200.0
	dc6 = c6 - 187.0/2100.0
	dc7 = -1.0 / 40.0
)

// RK45 is an embedded adaptive Runge-Kutta stepper with preallocated work
// arrays sized once for the local state-vector length.
type RK45 struct {
	safety   float64
	minScale float64
	maxScale float64
	maxStep  float64 // Upper bound on any step, 0 = unbounded

	k2, k3, k4, k5, k6, k7 []float64
	ystage, ynew           []float64
}

func NewRK45(n int, maxStep float64) *RK45 {
	return &RK45{
		safety:   0.9,
		minScale: 0.2,
		maxScale: 10.0,
		maxStep:  maxStep,
		k2:       make([]float64, n),
		k3:       make([]float64, n),
		k4:       make([]float64, n),
		k5:       make([]float64, n),
		k6:       make([]float64, n),
		k7:       make([]float64, n),
		ystage:   make([]float64, n),
		ynew:     make([]float64, n),
	}
}

// StepAdaptive advances y in place by one accepted step. dydt must hold
// f(t, y) on entry and is left untouched. Rejected trials are retried
// internally with a reduced step and never surface to the caller; the
// returned dtDone is the accepted step and dtNext the suggestion for the
// next one, clamped to the configured maximum. The accepted step satisfies
// max_i |err_i / yscal_i| <= eps.
func (r *RK45) StepAdaptive(f DerivFunc, t float64, y, dydt, yscal []float64,
	dtTry, eps float64) (dtDone, dtNext float64, err error) {
	dt := dtTry
	if r.maxStep > 0 && dt > r.maxStep {
		dt = r.maxStep
	}
	for {
		errMax := r.attempt(f, t, y, dydt, yscal, dt) / eps
		if errMax <= 1 {
			dtDone = dt
			if errMax > 0 {
				dtNext = dt * math.Min(r.maxScale, r.safety*math.Pow(errMax, -0.2))
			} else {
				dtNext = dt * r.maxScale
			}
			if r.maxStep > 0 && dtNext > r.maxStep {
				dtNext = r.maxStep
			}
			copy(y, r.ynew)
			return dtDone, dtNext, nil
		}
		dt *= math.Max(r.minScale, r.safety*math.Pow(errMax, -0.25))
		if t+dt == t {
			return 0, 0, fmt.Errorf("step size underflow at t=%g, dt=%g", t, dt)
		}
	}
}

// attempt takes one trial step of size dt, leaving the candidate state in
// ynew, and returns the worst component of the embedded-pair error
// estimate relative to yscal.
func (r *RK45) attempt(f DerivFunc, t float64, y, k1, yscal []float64, dt float64) float64 {
	var (
		n                      = len(y)
		k2, k3, k4, k5, k6, k7 = r.k2, r.k3, r.k4, r.k5, r.k6, r.k7
		ys                     = r.ystage
	)
	for i := 0; i < n; i++ {
		ys[i] = y[i] + dt*b21*k1[i]
	}
	f(t+a2*dt, ys, k2)

	for i := 0; i < n; i++ {
		ys[i] = y[i] + dt*(b31*k1[i]+b32*k2[i])
	}
	f(t+a3*dt, ys, k3)

	for i := 0; i < n; i++ {
		ys[i] = y[i] + dt*(b41*k1[i]+b42*k2[i]+b43*k3[i])
	}
	f(t+a4*dt, ys, k4)

	for i := 0; i < n; i++ {
		ys[i] = y[i] + dt*(b51*k1[i]+b52*k2[i]+b53*k3[i]+b54*k4[i])
	}
	f(t+a5*dt, ys, k5)

	for i := 0; i < n; i++ {
		ys[i] = y[i] + dt*(b61*k1[i]+b62*k2[i]+b63*k3[i]+b64*k4[i]+b65*k5[i])
	}
	f(t+dt, ys, k6)

	for i := 0; i < n; i++ {
		r.ynew[i] = y[i] + dt*(c1*k1[i]+c3*k3[i]+c4*k4[i]+c5*k5[i]+c6*k6[i])
	}
	f(t+dt, r.ynew, k7)

	var errMax float64
	for i := 0; i < n; i++ {
		errEst := dt * (dc1*k1[i] + dc3*k3[i] + dc4*k4[i] + dc5*k5[i] + dc6*k6[i] + dc7*k7[i])
		e := math.Abs(errEst) / yscal[i]
		// Overflowing stages must reject the trial outright: NaN never
		// compares greater than errMax and would slip through as zero error
		if math.IsNaN(e) || math.IsInf(e, 0) || math.IsNaN(r.ynew[i]) || math.IsInf(r.ynew[i], 0) {
			return math.Inf(1)
		}
		if e > errMax {
			errMax = e
		}
	}
	return errMax
}
