package cycle

import "sync"

// ODEFun is the physics kernel: it maps the current state to its rate of
// change through three phases run in lock-step by one goroutine per rank:
//
//  1. every rank extracts slip velocities and viscous strain rates from
//     its owned elements into its slice of the shared velocity vector;
//  2. after the gather barrier, every rank multiplies its force-row block
//     of the interaction matrix by the complete velocity vector;
//  3. every rank finishes its elements' state derivatives from the
//     resulting traction/stress rates.
//
// The assembled velocity vector is ordered by global element index, so the
// result is bit-for-bit identical for any worker count. As a side effect
// the process-wide diagnostic maxima (peak slip velocity, peak strain
// rate) are reduced across ranks.
func (s *Simulation) ODEFun(t float64, y, dydt []float64) {
	var (
		lay = s.Layout
		NP  = lay.NWorkers
		wg  sync.WaitGroup
	)
	_ = t // The coupled system is autonomous; t is part of the integrator contract

	// Phase 1: extract rates into the shared velocity vector
	for np := 0; np < NP; np++ {
		wg.Add(1)
		go func(np int) {
			defer wg.Done()
			var (
				yLoc    = lay.StateSlice(np, y)
				dLoc    = lay.StateSlice(np, dydt)
				vLoc    = lay.VelocitySlice(np, s.velocity)
				maxSlip float64
				maxRate float64
			)
			for _, oe := range lay.Owned[np] {
				el := s.Elements[oe.Index]
				peak := el.LocalRate(
					yLoc[oe.StateOffset:oe.StateOffset+el.StateDOF()],
					vLoc[oe.VelocityOffset:oe.VelocityOffset+el.VelocityDOF()],
					dLoc[oe.StateOffset:oe.StateOffset+el.StateDOF()],
				)
				switch oe.Kind {
				case PatchKind:
					if peak > maxSlip {
						maxSlip = peak
					}
				case VolumeKind:
					if peak > maxRate {
						maxRate = peak
					}
				}
			}
			s.peakSlip[np], s.peakStrain[np] = maxSlip, maxRate
		}(np)
	}
	wg.Wait()

	// Phase 2: global coupling, partitioned by force rows
	for np := 0; np < NP; np++ {
		if lay.ListForceN[np] == 0 {
			continue
		}
		wg.Add(1)
		go func(np int) {
			defer wg.Done()
			off := lay.ListForceOffset[np]
			rows := s.Operator.RowsView(off, off+lay.ListForceN[np])
			rows.MulVecTo(lay.ForceSlice(np, s.force), s.velocity)
		}(np)
	}
	wg.Wait()

	// Phase 3: finalize state derivatives from traction/stress rates
	for np := 0; np < NP; np++ {
		wg.Add(1)
		go func(np int) {
			defer wg.Done()
			var (
				yLoc = lay.StateSlice(np, y)
				dLoc = lay.StateSlice(np, dydt)
				fLoc = lay.ForceSlice(np, s.force)
			)
			for _, oe := range lay.Owned[np] {
				el := s.Elements[oe.Index]
				el.FinalizeRate(
					yLoc[oe.StateOffset:oe.StateOffset+el.StateDOF()],
					fLoc[oe.ForceOffset:oe.ForceOffset+el.ForceDOF()],
					dLoc[oe.StateOffset:oe.StateOffset+el.StateDOF()],
				)
			}
		}(np)
	}
	wg.Wait()

	// Reduce the diagnostic maxima
	s.MaxSlipVelocity, s.MaxStrainRate = 0, 0
	for np := 0; np < NP; np++ {
		if s.peakSlip[np] > s.MaxSlipVelocity {
			s.MaxSlipVelocity = s.peakSlip[np]
		}
		if s.peakStrain[np] > s.MaxStrainRate {
			s.MaxStrainRate = s.peakStrain[np]
		}
	}
}
