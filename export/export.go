package export

import (
	"bufio"
	"fmt"
	"os"
	"path/filepath"

	"github.com/Soengmou/unicycle/InputParameters"
	"github.com/Soengmou/unicycle/cycle"
)

// stream is one open output file with its buffered writer and the element
// it tracks (elem < 0 marks the observation point stream).
type stream struct {
	f    *os.File
	w    *bufio.Writer
	elem int
}

// Writer persists per-step records for the tracked elements and the
// observation points. One plain-text file per tracked element, columns
// are time, the element state, its rates and its velocity entries.
type Writer struct {
	lay     *cycle.Layout
	obs     *cycle.ObservationOperator
	streams []stream
	obsOut  []float64
}

// NewWriter creates the output directory and opens one file per tracked
// patch and volume, plus obs.dat when observation points are configured.
func NewWriter(dir string, sp *InputParameters.SimulationParameters,
	lay *cycle.Layout, obs *cycle.ObservationOperator) (*Writer, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("unable to create output directory: %w", err)
	}
	w := &Writer{lay: lay, obs: obs}
	open := func(name string, elem int, header string) error {
		f, err := os.Create(filepath.Join(dir, name))
		if err != nil {
			w.Close()
			return fmt.Errorf("unable to create %s: %w", name, err)
		}
		bw := bufio.NewWriter(f)
		fmt.Fprintln(bw, header)
		w.streams = append(w.streams, stream{f: f, w: bw, elem: elem})
		return nil
	}
	for _, p := range sp.ObservationPatches {
		name := fmt.Sprintf("patch-%06d.dat", p)
		header := "# t slip tauDip tauNormal log10Theta log10V" +
			" dSlip dTauDip dTauNormal dLog10Theta dLog10V v"
		if err := open(name, p, header); err != nil {
			return nil, err
		}
	}
	for _, v := range sp.ObservationVolumes {
		name := fmt.Sprintf("volume-%06d.dat", v)
		header := "# t s22 s23 s33 e22 e23 e33" +
			" ds22 ds23 ds33 de22 de23 de33 v22 v23 v33"
		if err := open(name, lay.NPatch+v, header); err != nil {
			return nil, err
		}
	}
	if obs != nil && obs.NumPoints > 0 {
		if err := open("obs.dat", -1, "# t (u2 u3) per point"); err != nil {
			return nil, err
		}
		w.obsOut = make([]float64, 2*obs.NumPoints)
	}
	return w, nil
}

// Snapshot appends one record per stream for the accepted step at time t.
func (w *Writer) Snapshot(t float64, y, dydt, velocity []float64) error {
	for _, s := range w.streams {
		if s.elem < 0 {
			w.obs.Apply(velocity, w.obsOut)
			writeRecord(s.w, t, w.obsOut)
			continue
		}
		var (
			k         = s.elem
			nv, ns, _ = cycle.KindDOF(w.lay.KindOf(k))
			so        = w.lay.ElemStateOffset[k]
			vo        = w.lay.ElemVelocityOffset[k]
		)
		writeRecord(s.w, t, y[so:so+ns], dydt[so:so+ns], velocity[vo:vo+nv])
	}
	for _, s := range w.streams {
		if err := s.w.Flush(); err != nil {
			return fmt.Errorf("unable to write snapshot: %w", err)
		}
	}
	return nil
}

func writeRecord(w *bufio.Writer, t float64, cols ...[]float64) {
	fmt.Fprintf(w, "%.9e", t)
	for _, c := range cols {
		for _, v := range c {
			fmt.Fprintf(w, " %.9e", v)
		}
	}
	fmt.Fprintln(w)
}

// Close flushes and closes every stream. The first error wins.
func (w *Writer) Close() error {
	var first error
	for _, s := range w.streams {
		if err := s.w.Flush(); err != nil && first == nil {
			first = err
		}
		if err := s.f.Close(); err != nil && first == nil {
			first = err
		}
	}
	w.streams = nil
	return first
}
