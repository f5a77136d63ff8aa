package utils

import (
	"fmt"

	"gonum.org/v1/gonum/mat"
)

// Matrix wraps a gonum dense matrix with a read-only guard and a name for
// error reporting. The interaction operator is marked read-only once built
// and shared by every worker afterward.
type Matrix struct {
	M        *mat.Dense
	readOnly bool
	name     string
}

func NewMatrix(nr, nc int, dataO ...[]float64) (R Matrix) {
	var m *mat.Dense
	if len(dataO) != 0 {
		if len(dataO[0]) != nr*nc {
			err := fmt.Errorf("mismatch in allocation: NewMatrix nr,nc = %v,%v, len(data[0]) = %v",
				nr, nc, len(dataO[0]))
			panic(err)
		}
		m = mat.NewDense(nr, nc, dataO[0])
	} else {
		m = mat.NewDense(nr, nc, make([]float64, nr*nc))
	}
	R = Matrix{
		m,
		false,
		"unnamed - hint: pass a variable name to SetReadOnly()",
	}
	return
}

// Dims, At and T minimally satisfy the mat.Matrix interface.
func (m Matrix) Dims() (r, c int)    { return m.M.Dims() }
func (m Matrix) At(i, j int) float64 { return m.M.At(i, j) }
func (m Matrix) T() mat.Matrix       { return m.M.T() }

func (m Matrix) Data() []float64 { return m.M.RawMatrix().Data }

func (m *Matrix) SetReadOnly(name ...string) Matrix {
	if len(name) != 0 {
		m.name = name[0]
	}
	m.readOnly = true
	return *m
}

func (m Matrix) Set(i, j int, val float64) Matrix { // Changes receiver
	m.checkWritable()
	m.M.Set(i, j, val)
	return m
}

// RowsView returns a view of rows [i,k) sharing storage with the receiver.
// Views of a read-only matrix stay read-only.
func (m Matrix) RowsView(i, k int) (R Matrix) {
	var (
		_, nc = m.Dims()
	)
	R = Matrix{
		M:        m.M.Slice(i, k, 0, nc).(*mat.Dense),
		readOnly: m.readOnly,
		name:     m.name,
	}
	return
}

// MulVecTo computes dst = M*x without allocating, dst and x being plain
// slices owned by the caller.
func (m Matrix) MulVecTo(dst, x []float64) {
	var (
		nr, nc = m.Dims()
	)
	if len(dst) != nr || len(x) != nc {
		err := fmt.Errorf("dimension mismatch in MulVecTo: M is %dx%d, dst %d, x %d",
			nr, nc, len(dst), len(x))
		panic(err)
	}
	dv := mat.NewVecDense(nr, dst)
	xv := mat.NewVecDense(nc, x)
	dv.MulVec(m.M, xv)
}

func (m Matrix) checkWritable() {
	if m.readOnly {
		err := fmt.Errorf("attempt to write to a read only matrix named: \"%v\"", m.name)
		panic(err)
	}
}
