package main

import (
	"fmt"
	"os"
)

func main() {
	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	command := os.Args[1]
	args := os.Args[2:]

	switch command {
	case "simulate":
		if err := simulate(args); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
	case "infer":
		if err := infer(args); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
	case "network":
		if err := networkRun(args); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
	case "sweep":
		if err := sweep(args); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
	case "help", "-h", "--help":
		printUsage()
	case "version", "-v", "--version":
		fmt.Println("outbreak version 1.0.0")
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n\n", command)
		printUsage()
		os.Exit(1)
	}
}

func printUsage() {
	fmt.Println(`outbreak - epidemic simulation and Bayesian inference tool

Usage:
  outbreak <command> [options]

Commands:
  simulate   Run the stochastic (or mean-field) SIR forward simulator
  infer      Fit transmission/recovery rates to observed counts via MCMC
  network    Run the 5-state agent model over a scale-free contact graph
  sweep      Evaluate expected outcomes over a beta/gamma grid
  help       Show this help message
  version    Show version information

Run 'outbreak <command> -h' for command-specific options.`)
}
