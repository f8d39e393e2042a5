// Package main is bpsolve, a command-line front end for the belief
// propagation constraint solver. It loads a YAML problem model, runs
// belief sweeps and either enumerates solutions or reports per-variable
// marginal estimates.
package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/gitrdm/beliefprop/pkg/cpbp"
)

type options struct {
	logDomain  bool
	damping    float64
	weighing   string
	actOnExact bool
	iterations int
	limit      int
	timeout    time.Duration
	verbose    bool
}

func main() {
	opts := &options{}

	root := &cobra.Command{
		Use:           "bpsolve",
		Short:         "finite-domain constraint solving with belief propagation",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	pf := root.PersistentFlags()
	pf.BoolVar(&opts.logDomain, "log-domain", false, "use log-domain belief arithmetic")
	pf.Float64Var(&opts.damping, "damping", 0, "damping factor in (0,1]; 0 disables damping")
	pf.StringVar(&opts.weighing, "weighing", "same", "constraint weighing scheme: same or arity")
	pf.BoolVar(&opts.actOnExact, "act-on-exact", false, "filter domains on exact zero/one beliefs")
	pf.IntVar(&opts.iterations, "iterations", 5, "belief sweeps per search node")
	pf.DurationVar(&opts.timeout, "timeout", 0, "abort after this duration (0 = none)")
	pf.BoolVarP(&opts.verbose, "verbose", "v", false, "enable debug logging")

	solveCmd := &cobra.Command{
		Use:   "solve MODEL",
		Short: "enumerate solutions of a YAML model",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSolve(opts, args[0])
		},
	}
	solveCmd.Flags().IntVar(&opts.limit, "limit", 0, "stop after this many solutions (0 = all)")

	marginalsCmd := &cobra.Command{
		Use:   "marginals MODEL",
		Short: "estimate per-variable value marginals of a YAML model",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runMarginals(opts, args[0])
		},
	}

	root.AddCommand(solveCmd, marginalsCmd)
	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "bpsolve:", err)
		os.Exit(1)
	}
}

func (o *options) solver() (*cpbp.Solver, error) {
	solverOpts := []cpbp.Option{cpbp.WithMaxIterations(o.iterations)}
	if o.logDomain {
		solverOpts = append(solverOpts, cpbp.WithBeliefRep(cpbp.LogRep{}))
	}
	if o.damping > 0 {
		solverOpts = append(solverOpts, cpbp.WithDamping(o.damping))
	}
	switch o.weighing {
	case "same":
	case "arity":
		solverOpts = append(solverOpts, cpbp.WithWeighing(cpbp.WeighArity))
	default:
		return nil, fmt.Errorf("unknown weighing scheme %q", o.weighing)
	}
	if o.actOnExact {
		solverOpts = append(solverOpts, cpbp.WithActOnZeroOneBelief())
	}
	if o.verbose {
		log, err := zap.NewDevelopment()
		if err != nil {
			return nil, err
		}
		solverOpts = append(solverOpts, cpbp.WithLogger(log), cpbp.WithTracing())
	}
	return cpbp.NewSolver(solverOpts...), nil
}

func (o *options) load(path string) (*cpbp.Solver, *cpbp.Model, map[string]*cpbp.IntVar, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, nil, nil, err
	}
	defer f.Close()

	model, err := cpbp.LoadModel(f)
	if err != nil {
		return nil, nil, nil, err
	}
	cp, err := o.solver()
	if err != nil {
		return nil, nil, nil, err
	}
	vars, err := model.Build(cp)
	if err != nil {
		return nil, nil, nil, err
	}
	return cp, model, vars, nil
}

func (o *options) context() (context.Context, context.CancelFunc) {
	if o.timeout > 0 {
		return context.WithTimeout(context.Background(), o.timeout)
	}
	return context.WithCancel(context.Background())
}

func runSolve(o *options, path string) error {
	cp, model, _, err := o.load(path)
	if err != nil {
		return err
	}
	ctx, cancel := o.context()
	defer cancel()

	start := time.Now()
	solutions, err := cp.Solve(ctx, o.limit)
	if err != nil {
		return err
	}
	for _, sol := range solutions {
		for i, mv := range model.Variables {
			if i > 0 {
				fmt.Print("  ")
			}
			fmt.Printf("%s=%d", mv.Name, sol[i])
		}
		fmt.Println()
	}
	fmt.Printf("%d solution(s) in %v\n", len(solutions), time.Since(start).Round(time.Millisecond))
	return nil
}

func runMarginals(o *options, path string) error {
	cp, model, vars, err := o.load(path)
	if err != nil {
		return err
	}
	if err := cp.BeliefPropagation(); err != nil {
		return fmt.Errorf("model is infeasible: %w", err)
	}

	rep := cp.BeliefRep()
	buf := make([]int, 0, 64)
	for _, mv := range model.Variables {
		v := vars[mv.Name]
		buf = buf[:0]
		for val := v.Min(); val <= v.Max(); val++ {
			if v.Contains(val) {
				buf = append(buf, val)
			}
		}
		fmt.Printf("%s:", mv.Name)
		for _, val := range buf {
			fmt.Printf("  %d=%.4f", val, rep.Rep2Std(v.Marginal(val)))
		}
		fmt.Println()
	}
	return nil
}
