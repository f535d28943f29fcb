package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/LouisonF/miom"
)

// runSpec is the YAML description of a complete pipeline: model source,
// bound overrides, an FBA objective or subset-selection weights, and an
// optional extraction step.
type runSpec struct {
	Model  string  `yaml:"model"`
	Solver string  `yaml:"solver"`
	Eps    float64 `yaml:"eps"`

	Objective *struct {
		Reaction  string `yaml:"reaction"`
		Direction string `yaml:"direction"`
	} `yaml:"objective"`

	Bounds []struct {
		Reaction string  `yaml:"reaction"`
		LB       float64 `yaml:"lb"`
		UB       float64 `yaml:"ub"`
	} `yaml:"bounds"`

	Weights *struct {
		Default   float64            `yaml:"default"`
		Reactions map[string]float64 `yaml:"reactions"`
	} `yaml:"weights"`

	Keep []string `yaml:"keep"`

	Extract *struct {
		Mode      string  `yaml:"mode"`
		Cmp       string  `yaml:"cmp"`
		Threshold float64 `yaml:"threshold"`
		Out       string  `yaml:"out"`
	} `yaml:"extract"`
}

func newRunCmd() *cobra.Command {
	var specPath string
	cmd := &cobra.Command{
		Use:   "run",
		Short: "Execute a pipeline described by a YAML run spec",
		RunE: func(cmd *cobra.Command, args []string) error {
			data, err := os.ReadFile(specPath)
			if err != nil {
				return err
			}
			var spec runSpec
			if err := yaml.Unmarshal(data, &spec); err != nil {
				return fmt.Errorf("bad run spec %s: %w", specPath, err)
			}
			return executeSpec(&spec)
		},
	}
	cmd.Flags().StringVar(&specPath, "spec", "", "path of the YAML run spec")
	_ = cmd.MarkFlagRequired("spec")
	return cmd
}

func executeSpec(spec *runSpec) error {
	if spec.Model == "" {
		spec.Model = flagModel
	}
	if spec.Model == "" {
		return fmt.Errorf("run spec names no model and --model not given")
	}
	if spec.Solver == "" {
		spec.Solver = flagSolver
	}

	net, err := miom.LoadNetwork(spec.Model)
	if err != nil {
		return err
	}

	opts := []miom.Option{miom.WithSolver(spec.Solver)}
	if spec.Eps > 0 {
		opts = append(opts, miom.WithEpsilon(spec.Eps))
	}
	m := miom.New(net, opts...).SteadyState()

	for _, b := range spec.Bounds {
		m.SetFluxBounds(b.Reaction, b.LB, b.UB)
	}

	switch {
	case spec.Weights != nil:
		w := make([]float64, net.NumReactions())
		for i := range w {
			w[i] = spec.Weights.Default
		}
		for id, weight := range spec.Weights.Reactions {
			i, err := net.ReactionIndex(id)
			if err != nil {
				return err
			}
			w[i] = weight
		}
		m.SubsetSelectionWeights(w)
		if len(spec.Keep) > 0 {
			m.Keep(spec.Keep...)
		}
	case spec.Objective != nil:
		dir, err := parseDirection(spec.Objective.Direction)
		if err != nil {
			return err
		}
		m.SetReactionObjective(spec.Objective.Reaction, dir)
	default:
		return fmt.Errorf("run spec needs an objective or weights section")
	}

	m.Solve(miom.WithVerbosity(flagVerbosity))
	if err := m.Err(); err != nil {
		return err
	}

	st := m.Status()
	fmt.Printf("status    : %s\n", st.State)
	fmt.Printf("objective : %g\n", st.Objective)
	fmt.Printf("elapsed   : %s\n", st.Elapsed)

	if spec.Objective != nil && spec.Weights == nil {
		flux, err := m.Fluxes(spec.Objective.Reaction)
		if err != nil {
			return err
		}
		fmt.Printf("flux %s : %g\n", spec.Objective.Reaction, flux)
	}

	if spec.Extract != nil {
		cmp, err := parseComparator(spec.Extract.Cmp)
		if err != nil {
			return err
		}
		var mode miom.ExtractionMode
		switch spec.Extract.Mode {
		case "indicator":
			mode = miom.ByIndicator
		case "flux":
			mode = miom.ByAbsFlux
		default:
			return fmt.Errorf("unknown extraction mode %q", spec.Extract.Mode)
		}
		sub, err := m.Subnetwork(mode, cmp, spec.Extract.Threshold)
		if err != nil {
			return err
		}
		fmt.Printf("extracted : %d of %d reactions\n", sub.NumReactions(), net.NumReactions())
		if spec.Extract.Out != "" {
			if err := miom.SaveNetwork(sub, spec.Extract.Out); err != nil {
				return err
			}
			fmt.Printf("subnetwork written to %s\n", spec.Extract.Out)
		}
	}
	return nil
}
