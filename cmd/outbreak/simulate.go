package main

import (
	"flag"
	"fmt"
	"os"

	"golang.org/x/exp/rand"

	"github.com/outbreaklab/go-outbreak/sir"
)

func simulate(args []string) error {
	fs := flag.NewFlagSet("simulate", flag.ExitOnError)
	population := fs.Int("n", 1000, "Total population")
	initialInfected := fs.Int("i0", 10, "Initial infected count")
	days := fs.Int("days", 60, "Simulation horizon in days")
	beta := fs.Float64("beta", 0.3, "Transmission rate in [0,1]")
	gamma := fs.Float64("gamma", 0.1, "Recovery rate in [0,1]")
	seed := fs.Uint64("seed", 42, "Random seed")
	expected := fs.Bool("expected", false, "Run the deterministic mean-field recurrence instead")

	fs.Usage = func() {
		fmt.Fprintf(os.Stderr, `Usage: outbreak simulate [options]

Run the discrete-time SIR forward simulator and print the daily
compartment counts.

Options:
`)
		fs.PrintDefaults()
	}

	if err := fs.Parse(args); err != nil {
		return err
	}

	cfg := sir.Config{Population: *population, InitialInfected: *initialInfected, Days: *days}
	p := sir.Params{Beta: *beta, Gamma: *gamma}

	if *expected {
		mt, err := sir.Expected(cfg, p)
		if err != nil {
			return err
		}
		fmt.Printf("%-5s %12s %12s %12s\n", "day", "susceptible", "infected", "recovered")
		for t := 0; t < mt.Days(); t++ {
			fmt.Printf("%-5d %12.2f %12.2f %12.2f\n", t, mt.S[t], mt.I[t], mt.R[t])
		}
		day, peak := mt.PeakInfected()
		fmt.Fprintf(os.Stderr, "peak %.1f infected on day %d, attack rate %.3f\n", peak, day, mt.AttackRate())
		return nil
	}

	tr, err := sir.Simulate(cfg, p, rand.NewSource(*seed))
	if err != nil {
		return err
	}
	fmt.Printf("%-5s %12s %12s %12s\n", "day", "susceptible", "infected", "recovered")
	for t := 0; t < tr.Days(); t++ {
		fmt.Printf("%-5d %12d %12d %12d\n", t, tr.S[t], tr.I[t], tr.R[t])
	}
	day, peak := tr.PeakInfected()
	fmt.Fprintf(os.Stderr, "peak %d infected on day %d, attack rate %.3f\n", peak, day, tr.AttackRate())
	return nil
}
