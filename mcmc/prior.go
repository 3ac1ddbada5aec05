package mcmc

import (
	"fmt"

	"golang.org/x/exp/rand"
	"gonum.org/v1/gonum/stat/distuv"
)

// BetaPrior is a Beta(α, β) prior over a rate parameter. Its support is
// the open interval (0, 1), matching the constraint on both model rates.
type BetaPrior struct {
	Alpha, Beta float64
}

// DefaultBetaPrior returns Beta(2, 5), a weakly-informative prior for
// the transmission rate favoring moderate values.
func DefaultBetaPrior() BetaPrior {
	return BetaPrior{Alpha: 2, Beta: 5}
}

// DefaultGammaPrior returns Beta(3, 7), a weakly-informative prior for
// the recovery rate.
func DefaultGammaPrior() BetaPrior {
	return BetaPrior{Alpha: 3, Beta: 7}
}

// Validate checks that both shape parameters are positive.
func (p BetaPrior) Validate() error {
	if p.Alpha <= 0 || p.Beta <= 0 {
		return fmt.Errorf("%w: beta prior shapes (%v, %v)", ErrConfiguration, p.Alpha, p.Beta)
	}
	return nil
}

// LogDensity evaluates the log prior density at x. Values outside (0, 1)
// yield -Inf.
func (p BetaPrior) LogDensity(x float64) float64 {
	return distuv.Beta{Alpha: p.Alpha, Beta: p.Beta}.LogProb(x)
}

// Sample draws one value from the prior using the given stream.
func (p BetaPrior) Sample(src rand.Source) float64 {
	return distuv.Beta{Alpha: p.Alpha, Beta: p.Beta, Src: src}.Rand()
}
