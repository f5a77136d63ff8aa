package cycle

import "fmt"

// NewStateVector allocates the global state vector, one contiguous slice
// per rank, and initializes every element's window from its physical
// parameters. The vector is mutated only by the integrator between
// accepted steps.
func NewStateVector(lay *Layout, elements []Element) ([]float64, error) {
	if len(elements) != lay.NPatch+lay.NVolume {
		return nil, fmt.Errorf("element count %d does not match layout (%d patches + %d volumes)",
			len(elements), lay.NPatch, lay.NVolume)
	}
	for k, el := range elements {
		if el.Kind() != lay.KindOf(k) {
			return nil, fmt.Errorf("element %d is a %s where the layout expects a %s",
				k, el.Kind(), lay.KindOf(k))
		}
	}
	y := make([]float64, lay.GlobalStateDOF)
	for w := 0; w < lay.NWorkers; w++ {
		yLoc := lay.StateSlice(w, y)
		for _, oe := range lay.Owned[w] {
			el := elements[oe.Index]
			el.InitializeState(yLoc[oe.StateOffset : oe.StateOffset+el.StateDOF()])
		}
	}
	return y, nil
}
