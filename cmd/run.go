/*
Copyright © 2020 NAME HERE <EMAIL ADDRESS>

Licensed under the Apache License, Version 2.0 (the "License");
you may not use this file except in compliance with the License.
You may obtain a copy of the License at

    http://www.apache.org/licenses/LICENSE-2.0

Unless required by applicable law or agreed to in writing, software
distributed under the License is distributed on an "AS IS" BASIS,
WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
See the License for the specific language governing permissions and
limitations under the License.
*/
package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/Soengmou/unicycle/InputParameters"
	"github.com/Soengmou/unicycle/cycle"
	"github.com/Soengmou/unicycle/export"
	"github.com/Soengmou/unicycle/greens"
)

// Observation operator entries below this magnitude are dropped
const obsThreshold = 1.e-16

// runCmd represents the run command
var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Integrate an earthquake cycle model read from a YAML input file",
	Long:  `Integrate an earthquake cycle model read from a YAML input file`,
	Run: func(cmd *cobra.Command, args []string) {
		inputFile, err := cmd.Flags().GetString("inputFile")
		if err != nil {
			panic(err)
		}
		sp := processInput(inputFile)
		if w, _ := cmd.Flags().GetInt("workers"); w != 0 {
			sp.Workers = w
		}
		if dir, _ := cmd.Flags().GetString("outputDir"); len(dir) != 0 {
			sp.OutputDir = dir
		}
		if err := RunCycle(sp); err != nil {
			fmt.Printf("error: %s\n", err.Error())
			os.Exit(1)
		}
	},
}

func processInput(name string) (sp *InputParameters.SimulationParameters) {
	if len(name) == 0 {
		err := fmt.Errorf("must supply an input parameters file (-I, --inputFile) in YAML format")
		fmt.Printf("error: %s\n", err.Error())
		exampleFile := `
########################################
Title: "Single Patch"
ShearModulus: 30.e9
PoissonRatio: 0.25
Interval: 3.15e9 # 100 years in seconds
Epsilon: 1.e-6
MaximumIterations: 1000000
Patches:
  - {Vpl: 1.e-9, Mu0: 0.6, Sig: 100.e6, A: 0.01, B: 0.014, L: 0.01,
     Vo: 1.e-6, Damping: 5.e6, Width: 1000, Dip: 90, X2: 0, X3: 5000}
ObservationPatches: [0]
########################################
`
		fmt.Printf("Example File:%s\n", exampleFile)
		os.Exit(1)
	}
	data, err := os.ReadFile(name)
	if err != nil {
		panic(err)
	}
	sp = &InputParameters.SimulationParameters{}
	if err = sp.Parse(data); err != nil {
		panic(err)
	}
	if err = sp.Validate(); err != nil {
		fmt.Printf("error: %s\n", err.Error())
		os.Exit(1)
	}
	sp.Print()
	return
}

func init() {
	rootCmd.AddCommand(runCmd)
	runCmd.Flags().StringP("inputFile", "I", "", "YAML file defining the fault patches, strain volumes and solver parameters")
	runCmd.Flags().IntP("workers", "w", 0, "number of parallel workers, 0 = all CPUs")
	runCmd.Flags().StringP("outputDir", "o", "", "directory for per-element and observation point output")
}

// RunCycle assembles the interaction operators for the configured geometry
// and integrates the coupled system over the simulated interval.
func RunCycle(sp *InputParameters.SimulationParameters) error {
	sim, err := cycle.NewSimulation(sp)
	if err != nil {
		return err
	}
	cfg := greens.Config{Mu: sp.ShearModulus, Nu: sp.PoissonRatio}
	if err = sim.SetOperator(greens.BuildOperator(cfg, sim.Elements, sim.Layout)); err != nil {
		return err
	}
	var obs *cycle.ObservationOperator
	if len(sp.ObservationPoints) != 0 {
		obs = cycle.BuildObservationOperator(sp.ObservationPoints,
			sim.Elements, sim.Layout, cfg.Displacement(), obsThreshold)
	}
	dir := sp.OutputDir
	if len(dir) == 0 {
		dir = "output"
	}
	w, err := export.NewWriter(dir, sp, sim.Layout, obs)
	if err != nil {
		return err
	}
	defer w.Close()

	if err = sim.Solve(w); err != nil {
		return err
	}
	return w.Close()
}
