package InputParameters

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

var fileInput = []byte(`
Title: Test Case
ShearModulus: 30e3
PoissonRatio: 0.25
Interval: 3.15e9
Epsilon: 1.e-6
MaximumTimeStep: 3.15e7
MaximumIterations: 100000
Patches:
  - {Vpl: 1.e-9, Tau0: -1, Mu0: 0.6, Sig: 100., A: 1.e-2, B: 6.e-3, L: 1.e-3, Vo: 1.e-6, Damping: 5., Width: 1.e3, Dip: 90., X2: 0., X3: 0.}
Volumes:
  - {E22: 1.e-15, E23: 0., E33: -1.e-15, Ngammadot0m: 1.e-10, Npowerm: 3., NQm: 0., NRm: 8.314, To: 600., Width: 1.e3, Thickness: 1.e3, Dip: 0., X2: 0., X3: 2.e3}
ObservationPatches: [0]
ObservationPoints:
  - {X2: 1.e4, X3: 0.}
`)

func TestParse(t *testing.T) {
	var sp SimulationParameters
	assert.NoError(t, sp.Parse(fileInput))
	assert.Equal(t, "Test Case", sp.Title)
	assert.Equal(t, 30.e3, sp.ShearModulus)
	assert.Len(t, sp.Patches, 1)
	assert.Len(t, sp.Volumes, 1)
	assert.Equal(t, 1.e-9, sp.Patches[0].Vpl)
	assert.Nil(t, sp.Volumes[0].Stress)
	assert.NoError(t, sp.Validate())
	// Defaults applied by Validate
	assert.Equal(t, 1000., sp.StrainRateScale)
	sp.Print()
}

func TestParsePrescribedStress(t *testing.T) {
	var sp SimulationParameters
	assert.NoError(t, sp.Parse(fileInput))
	extra := []byte(`
Volumes:
  - {E22: 0., E23: 0., E33: 0., Stress: {S22: -1., S23: 0.5, S33: 1.}, Ngammadot0m: 1.e-10, Npowerm: 1., NQm: 0., NRm: 8.314, To: 600., Width: 1.e3, Thickness: 1.e3, Dip: 0., X2: 0., X3: 2.e3}
`)
	assert.NoError(t, sp.Parse(extra))
	if assert.NotNil(t, sp.Volumes[0].Stress) {
		assert.Equal(t, 0.5, sp.Volumes[0].Stress.S23)
	}
}

func TestValidate(t *testing.T) {
	cases := []struct {
		name   string
		mutate func(*SimulationParameters)
	}{
		{"shear modulus", func(sp *SimulationParameters) { sp.ShearModulus = 0 }},
		{"epsilon", func(sp *SimulationParameters) { sp.Epsilon = -1 }},
		{"iteration cap", func(sp *SimulationParameters) { sp.MaximumIterations = 0 }},
		{"patch width", func(sp *SimulationParameters) { sp.Patches[0].Width = -1 }},
		{"patch normal stress", func(sp *SimulationParameters) { sp.Patches[0].Sig = 0 }},
		{"volume temperature", func(sp *SimulationParameters) { sp.Volumes[0].To = 0 }},
		{"volume thickness", func(sp *SimulationParameters) { sp.Volumes[0].Thickness = 0 }},
		{"observation index", func(sp *SimulationParameters) { sp.ObservationPatches[0] = 5 }},
	}
	for _, tc := range cases {
		var sp SimulationParameters
		assert.NoError(t, sp.Parse(fileInput))
		tc.mutate(&sp)
		assert.Error(t, sp.Validate(), tc.name)
	}
}
