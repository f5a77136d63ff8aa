package InputParameters

import (
	"fmt"

	"github.com/ghodss/yaml"
)

// Parameters obtained from the YAML input file. Validation happens once,
// centrally, before the solver is constructed, so every worker sees the
// same configuration or none at all.
type SimulationParameters struct {
	Title             string  `yaml:"Title"`
	ShearModulus      float64 `yaml:"ShearModulus"`      // G, in the stress units of the run
	PoissonRatio      float64 `yaml:"PoissonRatio"`      // nu, plane strain
	Interval          float64 `yaml:"Interval"`          // Simulated time to cover
	Epsilon           float64 `yaml:"Epsilon"`           // Relative accuracy of the adaptive step
	MaximumTimeStep   float64 `yaml:"MaximumTimeStep"`   // Upper bound on dt, 0 = unbounded
	MaximumIterations int     `yaml:"MaximumIterations"` // Iteration cap for the driver loop
	StrainRateScale   float64 `yaml:"StrainRateScale"`   // Conditioning scale for volume strain rates, default 1000
	Workers           int     `yaml:"Workers"`           // Parallel degree, 0 = NumCPU
	ReportEvery       int     `yaml:"ReportEvery"`       // Steps between progress printouts
	OutputDir         string  `yaml:"OutputDir"`

	Patches []PatchDefinition  `yaml:"Patches"`
	Volumes []VolumeDefinition `yaml:"Volumes"`

	ObservationPatches []int              `yaml:"ObservationPatches"` // Patch indices to snapshot
	ObservationVolumes []int              `yaml:"ObservationVolumes"` // Volume indices to snapshot
	ObservationPoints  []ObservationPoint `yaml:"ObservationPoints"`
}

// PatchDefinition is a planar fault element with rate-and-state friction.
type PatchDefinition struct {
	Vpl     float64 `yaml:"Vpl"`  // Long-term plate loading velocity
	Tau0    float64 `yaml:"Tau0"` // Initial dip traction; <=0 derives steady state
	Mu0     float64 `yaml:"Mu0"`
	Sig     float64 `yaml:"Sig"`
	A       float64 `yaml:"A"`
	B       float64 `yaml:"B"`
	L       float64 `yaml:"L"`
	Vo      float64 `yaml:"Vo"`
	Damping float64 `yaml:"Damping"`
	Width   float64 `yaml:"Width"`
	Dip     float64 `yaml:"Dip"` // Degrees
	X2      float64 `yaml:"X2"`
	X3      float64 `yaml:"X3"`
}

// VolumeDefinition is a finite region accumulating anelastic strain under
// a power-law rheology. E22/E23/E33 are the long-term strain rates the
// volume is loaded at; Stress, when present, overrides the initial stress
// otherwise derived from them.
type VolumeDefinition struct {
	E22         float64       `yaml:"E22"`
	E23         float64       `yaml:"E23"`
	E33         float64       `yaml:"E33"`
	Stress      *StressTensor `yaml:"Stress,omitempty"`
	Ngammadot0m float64       `yaml:"Ngammadot0m"` // Power-law prefactor
	Npowerm     float64       `yaml:"Npowerm"`     // Stress exponent n
	NQm         float64       `yaml:"NQm"`         // Activation energy Q
	NRm         float64       `yaml:"NRm"`         // Gas constant R
	Rhoc        float64       `yaml:"Rhoc"`        // Reserved for thermomechanical coupling
	To          float64       `yaml:"To"`          // Temperature
	Width       float64       `yaml:"Width"`
	Thickness   float64       `yaml:"Thickness"`
	Dip         float64       `yaml:"Dip"` // Degrees
	X2          float64       `yaml:"X2"`
	X3          float64       `yaml:"X3"`
}

type StressTensor struct {
	S22 float64 `yaml:"S22"`
	S23 float64 `yaml:"S23"`
	S33 float64 `yaml:"S33"`
}

type ObservationPoint struct {
	X2 float64 `yaml:"X2"`
	X3 float64 `yaml:"X3"`
}

func (sp *SimulationParameters) Parse(data []byte) error {
	return yaml.Unmarshal(data, sp)
}

// Validate reports the first logically inconsistent field. Defaults for
// optional fields are applied first so callers always see a complete
// parameter set after a nil return.
func (sp *SimulationParameters) Validate() error {
	if sp.StrainRateScale == 0 {
		sp.StrainRateScale = 1000.
	}
	if sp.ReportEvery <= 0 {
		sp.ReportEvery = 100
	}
	if sp.ShearModulus <= 0 {
		return fmt.Errorf("non-positive shear modulus: %g", sp.ShearModulus)
	}
	if sp.PoissonRatio <= 0 || sp.PoissonRatio >= 0.5 {
		return fmt.Errorf("poisson ratio out of range (0,0.5): %g", sp.PoissonRatio)
	}
	if sp.Interval <= 0 {
		return fmt.Errorf("non-positive time interval: %g", sp.Interval)
	}
	if sp.Epsilon <= 0 {
		return fmt.Errorf("non-positive integration accuracy Epsilon: %g", sp.Epsilon)
	}
	if sp.MaximumTimeStep < 0 {
		return fmt.Errorf("negative MaximumTimeStep: %g", sp.MaximumTimeStep)
	}
	if sp.MaximumIterations <= 0 {
		return fmt.Errorf("non-positive MaximumIterations: %d", sp.MaximumIterations)
	}
	if len(sp.Patches)+len(sp.Volumes) == 0 {
		return fmt.Errorf("no elements: need at least one patch or strain volume")
	}
	for i, p := range sp.Patches {
		if err := validatePatch(p); err != nil {
			return fmt.Errorf("patch %d: %w", i, err)
		}
	}
	for i, v := range sp.Volumes {
		if err := validateVolume(v); err != nil {
			return fmt.Errorf("volume %d: %w", i, err)
		}
	}
	for _, idx := range sp.ObservationPatches {
		if idx < 0 || idx >= len(sp.Patches) {
			return fmt.Errorf("observation patch index %d out of range [0,%d)", idx, len(sp.Patches))
		}
	}
	for _, idx := range sp.ObservationVolumes {
		if idx < 0 || idx >= len(sp.Volumes) {
			return fmt.Errorf("observation volume index %d out of range [0,%d)", idx, len(sp.Volumes))
		}
	}
	return nil
}

func validatePatch(p PatchDefinition) error {
	switch {
	case p.Width <= 0:
		return fmt.Errorf("non-positive width: %g", p.Width)
	case p.Sig <= 0:
		return fmt.Errorf("non-positive effective normal stress Sig: %g", p.Sig)
	case p.L <= 0:
		return fmt.Errorf("non-positive characteristic slip distance L: %g", p.L)
	case p.Vo <= 0:
		return fmt.Errorf("non-positive reference velocity Vo: %g", p.Vo)
	case p.Vpl <= 0:
		return fmt.Errorf("non-positive plate velocity Vpl: %g", p.Vpl)
	case p.A <= 0:
		return fmt.Errorf("non-positive direct-effect parameter A: %g", p.A)
	case p.Damping < 0:
		return fmt.Errorf("negative radiation damping: %g", p.Damping)
	}
	return nil
}

func validateVolume(v VolumeDefinition) error {
	switch {
	case v.Width <= 0:
		return fmt.Errorf("non-positive width: %g", v.Width)
	case v.Thickness <= 0:
		return fmt.Errorf("non-positive thickness: %g", v.Thickness)
	case v.To <= 0:
		return fmt.Errorf("non-positive temperature To: %g", v.To)
	case v.NRm <= 0:
		return fmt.Errorf("non-positive gas constant NRm: %g", v.NRm)
	case v.Npowerm < 1:
		return fmt.Errorf("stress exponent Npowerm below 1: %g", v.Npowerm)
	case v.Ngammadot0m <= 0:
		return fmt.Errorf("non-positive power-law prefactor Ngammadot0m: %g", v.Ngammadot0m)
	}
	return nil
}

func (sp *SimulationParameters) Print() {
	fmt.Printf("\"%s\"\t\t= Title\n", sp.Title)
	fmt.Printf("%8.5g\t\t= ShearModulus\n", sp.ShearModulus)
	fmt.Printf("%8.5f\t\t= PoissonRatio\n", sp.PoissonRatio)
	fmt.Printf("%8.5g\t\t= Interval\n", sp.Interval)
	fmt.Printf("%8.1e\t\t= Epsilon\n", sp.Epsilon)
	fmt.Printf("%8.5g\t\t= MaximumTimeStep\n", sp.MaximumTimeStep)
	fmt.Printf("[%d]\t\t\t= MaximumIterations\n", sp.MaximumIterations)
	fmt.Printf("[%d]\t\t\t= Patches\n", len(sp.Patches))
	fmt.Printf("[%d]\t\t\t= Strain Volumes\n", len(sp.Volumes))
	fmt.Printf("[%d]\t\t\t= Observation Points\n", len(sp.ObservationPoints))
}
