package cycle

import (
	"runtime"

	"github.com/Soengmou/unicycle/utils"
)

// OwnedElement records one element assigned to a worker: its kind, its
// stable global index, and its offsets into the worker's local slices of
// the three parallel vectors.
type OwnedElement struct {
	Kind           ElementKind
	Index          int // Global element index
	VelocityOffset int // Local, within the rank's velocity slice
	StateOffset    int // Local, within the rank's state slice
	ForceOffset    int // Local, within the rank's force slice
}

// Layout is the static domain decomposition: element ownership per worker
// plus the per-rank DOF counts and prefix-sum offsets every collective
// operation addresses the global vectors through. Built once; read-only
// afterward.
type Layout struct {
	NPatch, NVolume int
	NWorkers        int

	ListElements []int // Elements owned per rank
	ListOffset   []int // First global element index per rank

	ListVelocityN, ListVelocityOffset []int
	ListStateN, ListStateOffset       []int
	ListForceN, ListForceOffset       []int

	Owned [][]OwnedElement // Per rank, in ascending global index order

	// Global per-element offsets, independent of the decomposition. These
	// fix the ordering of the gathered vectors, so the assembled velocity
	// vector is identical for any worker count.
	ElemVelocityOffset []int
	ElemStateOffset    []int
	ElemForceOffset    []int

	GlobalVelocityDOF, GlobalStateDOF, GlobalForceDOF int
}

// NewLayout partitions nPatch+nVolume elements over the requested number
// of workers (0 = NumCPU, capped at the element count). The global element
// ordering is patches first by ascending index, then volumes.
func NewLayout(nPatch, nVolume, workers int) *Layout {
	N := nPatch + nVolume
	if workers <= 0 {
		workers = runtime.NumCPU()
	}
	if workers > N {
		workers = N
	}
	lay := &Layout{
		NPatch:             nPatch,
		NVolume:            nVolume,
		NWorkers:           workers,
		ListElements:       make([]int, workers),
		ListOffset:         make([]int, workers),
		ListVelocityN:      make([]int, workers),
		ListVelocityOffset: make([]int, workers),
		ListStateN:         make([]int, workers),
		ListStateOffset:    make([]int, workers),
		ListForceN:         make([]int, workers),
		ListForceOffset:    make([]int, workers),
		Owned:              make([][]OwnedElement, workers),
		ElemVelocityOffset: make([]int, N),
		ElemStateOffset:    make([]int, N),
		ElemForceOffset:    make([]int, N),
	}

	// Global DOF offsets per element, fixed by the element ordering alone
	for k := 0; k < N; k++ {
		nv, ns, nf := KindDOF(lay.KindOf(k))
		lay.ElemVelocityOffset[k] = lay.GlobalVelocityDOF
		lay.ElemStateOffset[k] = lay.GlobalStateDOF
		lay.ElemForceOffset[k] = lay.GlobalForceDOF
		lay.GlobalVelocityDOF += nv
		lay.GlobalStateDOF += ns
		lay.GlobalForceDOF += nf
	}

	pm := utils.NewPartitionMap(workers, N)
	for w := 0; w < workers; w++ {
		kMin, kMax := pm.GetBucketRange(w)
		lay.ListElements[w] = pm.GetBucketDimension(w)
		lay.ListOffset[w] = kMin
		// Rank-level DOF offsets are the global offsets of the first
		// owned element; contiguity of the ownership range makes the
		// rank slices contiguous too.
		lay.ListVelocityOffset[w] = lay.globalOffsetOrEnd(lay.ElemVelocityOffset, kMin, lay.GlobalVelocityDOF)
		lay.ListStateOffset[w] = lay.globalOffsetOrEnd(lay.ElemStateOffset, kMin, lay.GlobalStateDOF)
		lay.ListForceOffset[w] = lay.globalOffsetOrEnd(lay.ElemForceOffset, kMin, lay.GlobalForceDOF)

		owned := make([]OwnedElement, 0, kMax-kMin)
		for k := kMin; k < kMax; k++ {
			kind := lay.KindOf(k)
			nv, ns, nf := KindDOF(kind)
			owned = append(owned, OwnedElement{
				Kind:           kind,
				Index:          k,
				VelocityOffset: lay.ElemVelocityOffset[k] - lay.ListVelocityOffset[w],
				StateOffset:    lay.ElemStateOffset[k] - lay.ListStateOffset[w],
				ForceOffset:    lay.ElemForceOffset[k] - lay.ListForceOffset[w],
			})
			lay.ListVelocityN[w] += nv
			lay.ListStateN[w] += ns
			lay.ListForceN[w] += nf
		}
		lay.Owned[w] = owned
	}
	return lay
}

// KindOf maps a global element index to its kind: patches occupy
// [0,NPatch), volumes the rest.
func (lay *Layout) KindOf(k int) ElementKind {
	if k < lay.NPatch {
		return PatchKind
	}
	return VolumeKind
}

func (lay *Layout) globalOffsetOrEnd(offsets []int, k, end int) int {
	if k == len(offsets) {
		return end
	}
	return offsets[k]
}

// StateSlice returns rank w's contiguous window of the global state-shaped
// vector y.
func (lay *Layout) StateSlice(w int, y []float64) []float64 {
	off := lay.ListStateOffset[w]
	return y[off : off+lay.ListStateN[w]]
}

// VelocitySlice returns rank w's window of a velocity-shaped vector.
func (lay *Layout) VelocitySlice(w int, v []float64) []float64 {
	off := lay.ListVelocityOffset[w]
	return v[off : off+lay.ListVelocityN[w]]
}

// ForceSlice returns rank w's window of a force-shaped vector.
func (lay *Layout) ForceSlice(w int, f []float64) []float64 {
	off := lay.ListForceOffset[w]
	return f[off : off+lay.ListForceN[w]]
}
