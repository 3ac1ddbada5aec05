// Package posterior computes summary statistics and convergence
// diagnostics for MCMC parameter chains: moments, quantile-based
// credible intervals, effective sample size, and the Gelman-Rubin R̂
// across parallel chains. All functions are pure.
package posterior

import (
	"errors"
	"fmt"
	"math"
	"sort"

	"gonum.org/v1/gonum/stat"
)

// ErrValidation indicates empty or mismatched chain input.
var ErrValidation = errors.New("posterior: invalid chain input")

// Summary describes one parameter's posterior sample set.
type Summary struct {
	N       int
	Mean    float64
	StdDev  float64
	Median  float64
	Min     float64
	Max     float64
	Lower95 float64 // 2.5% quantile
	Upper95 float64 // 97.5% quantile
}

// Summarize computes posterior statistics for one chain.
func Summarize(chain []float64) (Summary, error) {
	if len(chain) == 0 {
		return Summary{}, fmt.Errorf("%w: empty chain", ErrValidation)
	}

	sorted := append([]float64(nil), chain...)
	sort.Float64s(sorted)

	s := Summary{
		N:       len(chain),
		Mean:    stat.Mean(chain, nil),
		Median:  stat.Quantile(0.5, stat.Empirical, sorted, nil),
		Min:     sorted[0],
		Max:     sorted[len(sorted)-1],
		Lower95: stat.Quantile(0.025, stat.Empirical, sorted, nil),
		Upper95: stat.Quantile(0.975, stat.Empirical, sorted, nil),
	}
	if len(chain) > 1 {
		s.StdDev = stat.StdDev(chain, nil)
	}
	return s, nil
}

// CredibleInterval returns the central credible interval containing the
// given posterior mass (e.g. 0.95), via empirical quantiles.
func CredibleInterval(chain []float64, mass float64) (lo, hi float64, err error) {
	if len(chain) == 0 {
		return 0, 0, fmt.Errorf("%w: empty chain", ErrValidation)
	}
	if mass <= 0 || mass >= 1 {
		return 0, 0, fmt.Errorf("%w: interval mass %v", ErrValidation, mass)
	}

	sorted := append([]float64(nil), chain...)
	sort.Float64s(sorted)
	tail := (1 - mass) / 2
	lo = stat.Quantile(tail, stat.Empirical, sorted, nil)
	hi = stat.Quantile(1-tail, stat.Empirical, sorted, nil)
	return lo, hi, nil
}

// EffectiveSampleSize estimates the number of independent samples the
// chain is worth: n / (1 + 2·Σρ_k), summing lag autocorrelations until
// the first non-positive one. A zero-variance chain is reported as fully
// independent (ESS = n) since autocorrelation is undefined there.
func EffectiveSampleSize(chain []float64) (float64, error) {
	n := len(chain)
	if n == 0 {
		return 0, fmt.Errorf("%w: empty chain", ErrValidation)
	}
	if n == 1 {
		return 1, nil
	}

	mean := stat.Mean(chain, nil)
	var0 := 0.0
	for _, x := range chain {
		d := x - mean
		var0 += d * d
	}
	var0 /= float64(n)
	if var0 == 0 {
		return float64(n), nil
	}

	sum := 0.0
	for lag := 1; lag < n; lag++ {
		acf := 0.0
		for i := 0; i < n-lag; i++ {
			acf += (chain[i] - mean) * (chain[i+lag] - mean)
		}
		acf /= float64(n) * var0
		if acf <= 0 {
			break
		}
		sum += acf
	}
	return float64(n) / (1 + 2*sum), nil
}

// GelmanRubin computes the potential scale reduction factor R̂ across
// parallel chains of equal length. Values near 1 indicate convergence.
// Requires at least two chains of at least two samples each; identical
// zero-variance chains report exactly 1.
func GelmanRubin(chains [][]float64) (float64, error) {
	m := len(chains)
	if m < 2 {
		return 0, fmt.Errorf("%w: need at least 2 chains, got %d", ErrValidation, m)
	}
	n := len(chains[0])
	if n < 2 {
		return 0, fmt.Errorf("%w: chains need at least 2 samples", ErrValidation)
	}
	for _, c := range chains {
		if len(c) != n {
			return 0, fmt.Errorf("%w: unequal chain lengths", ErrValidation)
		}
	}

	means := make([]float64, m)
	within := 0.0
	for i, c := range chains {
		means[i] = stat.Mean(c, nil)
		v := stat.Variance(c, nil)
		within += v
	}
	within /= float64(m)

	grand := stat.Mean(means, nil)
	between := 0.0
	for _, mu := range means {
		d := mu - grand
		between += d * d
	}
	between *= float64(n) / float64(m-1)

	if within == 0 {
		return 1, nil
	}
	varPlus := float64(n-1)/float64(n)*within + between/float64(n)
	return math.Sqrt(varPlus / within), nil
}
