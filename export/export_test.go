package export

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/james-bowman/sparse"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Soengmou/unicycle/InputParameters"
	"github.com/Soengmou/unicycle/cycle"
)

func TestWriterSnapshots(t *testing.T) {
	var (
		dir = t.TempDir()
		lay = cycle.NewLayout(2, 1, 1)
		sp  = &InputParameters.SimulationParameters{
			ObservationPatches: []int{1},
			ObservationVolumes: []int{0},
		}
	)
	dok := sparse.NewDOK(2, lay.GlobalVelocityDOF)
	dok.Set(0, 0, 1)
	dok.Set(1, 1, 0.5)
	obs := &cycle.ObservationOperator{Op: dok.ToCSR(), NumPoints: 1}

	w, err := NewWriter(dir, sp, lay, obs)
	require.NoError(t, err)

	var (
		y        = make([]float64, lay.GlobalStateDOF)
		dydt     = make([]float64, lay.GlobalStateDOF)
		velocity = make([]float64, lay.GlobalVelocityDOF)
	)
	for i := range y {
		y[i] = float64(i)
	}
	velocity[1] = 2
	require.NoError(t, w.Snapshot(0, y, dydt, velocity))
	require.NoError(t, w.Snapshot(1.5, y, dydt, velocity))
	require.NoError(t, w.Close())

	for _, tc := range []struct {
		name string
		cols int
	}{
		// t + state + rates + velocity entries per element
		{"patch-000001.dat", 1 + 5 + 5 + 1},
		{"volume-000000.dat", 1 + 6 + 6 + 3},
		{"obs.dat", 1 + 2},
	} {
		b, err := os.ReadFile(filepath.Join(dir, tc.name))
		require.NoError(t, err, tc.name)
		lines := strings.Split(strings.TrimSpace(string(b)), "\n")
		require.Len(t, lines, 3, tc.name)
		assert.True(t, strings.HasPrefix(lines[0], "# t"), tc.name)
		assert.Len(t, strings.Fields(lines[1]), tc.cols, tc.name)
		assert.True(t, strings.HasPrefix(lines[2], "1.500000000e+00"), tc.name)
	}

	// The second patch file tracks element 1, whose state starts after
	// the five entries of patch 0
	b, err := os.ReadFile(filepath.Join(dir, "patch-000001.dat"))
	require.NoError(t, err)
	fields := strings.Fields(strings.Split(strings.TrimSpace(string(b)), "\n")[1])
	assert.Equal(t, "5.000000000e+00", fields[1])

	// obs row 1 picks up half of velocity[1]
	b, err = os.ReadFile(filepath.Join(dir, "obs.dat"))
	require.NoError(t, err)
	fields = strings.Fields(strings.Split(strings.TrimSpace(string(b)), "\n")[1])
	assert.Equal(t, "1.000000000e+00", fields[2])
}

func TestWriterNoObservations(t *testing.T) {
	var (
		dir = t.TempDir()
		lay = cycle.NewLayout(1, 0, 1)
	)
	w, err := NewWriter(dir, &InputParameters.SimulationParameters{}, lay, nil)
	require.NoError(t, err)
	require.NoError(t, w.Snapshot(0, make([]float64, lay.GlobalStateDOF),
		make([]float64, lay.GlobalStateDOF), make([]float64, lay.GlobalVelocityDOF)))
	require.NoError(t, w.Close())
	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Empty(t, entries)
}
