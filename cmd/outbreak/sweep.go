package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/outbreaklab/go-outbreak/sir"
)

func sweep(args []string) error {
	fs := flag.NewFlagSet("sweep", flag.ExitOnError)
	population := fs.Int("n", 1000, "Total population")
	initialInfected := fs.Int("i0", 10, "Initial infected count")
	days := fs.Int("days", 90, "Simulation horizon in days")
	betaMin := fs.Float64("beta-min", 0.1, "Sweep lower bound for beta")
	betaMax := fs.Float64("beta-max", 0.6, "Sweep upper bound for beta")
	gammaMin := fs.Float64("gamma-min", 0.05, "Sweep lower bound for gamma")
	gammaMax := fs.Float64("gamma-max", 0.3, "Sweep upper bound for gamma")
	steps := fs.Int("steps", 6, "Grid points per parameter")

	fs.Usage = func() {
		fmt.Fprintf(os.Stderr, `Usage: outbreak sweep [options]

Evaluate the deterministic mean-field model over a beta/gamma grid and
print the expected attack rate for every combination.

Options:
`)
		fs.PrintDefaults()
	}

	if err := fs.Parse(args); err != nil {
		return err
	}
	if *steps < 2 {
		return fmt.Errorf("steps must be at least 2")
	}

	cfg := sir.Config{Population: *population, InitialInfected: *initialInfected, Days: *days}

	fmt.Printf("attack rate by (beta, gamma)\n%8s", "")
	for j := 0; j < *steps; j++ {
		gamma := *gammaMin + (*gammaMax-*gammaMin)*float64(j)/float64(*steps-1)
		fmt.Printf(" g=%.3f", gamma)
	}
	fmt.Println()

	for i := 0; i < *steps; i++ {
		beta := *betaMin + (*betaMax-*betaMin)*float64(i)/float64(*steps-1)
		fmt.Printf("b=%.3f ", beta)
		for j := 0; j < *steps; j++ {
			gamma := *gammaMin + (*gammaMax-*gammaMin)*float64(j)/float64(*steps-1)
			mt, err := sir.Expected(cfg, sir.Params{Beta: beta, Gamma: gamma})
			if err != nil {
				return err
			}
			fmt.Printf("  %.3f", mt.AttackRate())
		}
		fmt.Println()
	}
	return nil
}
