// Package scenario evaluates what-if interventions against the
// deterministic mean-field model. An intervention rescales the fitted
// rates (a lockdown scales β down, improved treatment scales γ up) and
// is scored on the resulting trajectory. Every evaluation is
// deterministic, so candidates can be fanned out in parallel freely.
package scenario

import (
	"errors"
	"fmt"
	"sort"
	"sync"

	"github.com/outbreaklab/go-outbreak/cache"
	"github.com/outbreaklab/go-outbreak/sir"
)

// ErrValidation indicates empty or mismatched evaluator input.
var ErrValidation = errors.New("scenario: invalid input")

// Intervention is a multiplicative adjustment to the baseline rates.
type Intervention struct {
	Name       string
	BetaScale  float64 // multiplier on β
	GammaScale float64 // multiplier on γ
}

// Baseline is the identity intervention.
func Baseline() Intervention {
	return Intervention{Name: "baseline", BetaScale: 1, GammaScale: 1}
}

// Apply returns the adjusted parameters, clamped to [0, 1] so a strong
// adjustment cannot push a rate outside the simulator's domain.
func (iv Intervention) Apply(p sir.Params) sir.Params {
	out := sir.Params{Beta: p.Beta * iv.BetaScale, Gamma: p.Gamma * iv.GammaScale}
	out.Beta = clamp01(out.Beta)
	out.Gamma = clamp01(out.Gamma)
	return out
}

func clamp01(x float64) float64 {
	if x < 0 {
		return 0
	}
	if x > 1 {
		return 1
	}
	return x
}

// Scorer evaluates a trajectory; higher scores are considered better.
type Scorer func(mt *sir.MeanTrajectory) float64

// MaxFinalSusceptible scores by the expected number of people never
// infected.
func MaxFinalSusceptible() Scorer {
	return func(mt *sir.MeanTrajectory) float64 {
		s, _, _ := mt.Final()
		return s
	}
}

// MinPeakInfected scores by the negated epidemic peak, so flatter curves
// score higher.
func MinPeakInfected() Scorer {
	return func(mt *sir.MeanTrajectory) float64 {
		_, peak := mt.PeakInfected()
		return -peak
	}
}

// MinAttackRate scores by the negated attack rate.
func MinAttackRate() Scorer {
	return func(mt *sir.MeanTrajectory) float64 {
		return -mt.AttackRate()
	}
}

// Evaluator scores interventions against a fitted baseline.
type Evaluator struct {
	cfg    sir.Config
	base   sir.Params
	scorer Scorer
}

// NewEvaluator creates an evaluator around baseline parameters, usually
// the posterior means of an inference run.
func NewEvaluator(cfg sir.Config, base sir.Params, scorer Scorer) *Evaluator {
	return &Evaluator{cfg: cfg, base: base, scorer: scorer}
}

// WithScorer replaces the scorer and returns the evaluator.
func (e *Evaluator) WithScorer(s Scorer) *Evaluator {
	e.scorer = s
	return e
}

// Evaluate scores one intervention.
func (e *Evaluator) Evaluate(iv Intervention) (float64, error) {
	mt, err := sir.Expected(e.cfg, iv.Apply(e.base))
	if err != nil {
		return 0, err
	}
	return e.scorer(mt), nil
}

// Result holds one candidate's score.
type Result struct {
	Index        int
	Intervention Intervention
	Score        float64
	Err          error
}

// EvaluateMany scores all candidates in parallel. Results are indexed by
// candidate position.
func (e *Evaluator) EvaluateMany(ivs []Intervention) []Result {
	results := make([]Result, len(ivs))

	var wg sync.WaitGroup
	for i, iv := range ivs {
		wg.Add(1)
		go func(i int, iv Intervention) {
			defer wg.Done()
			score, err := e.Evaluate(iv)
			results[i] = Result{Index: i, Intervention: iv, Score: score, Err: err}
		}(i, iv)
	}
	wg.Wait()

	return results
}

// FindBest returns the highest-scoring candidate.
func (e *Evaluator) FindBest(ivs []Intervention) (Result, error) {
	if len(ivs) == 0 {
		return Result{}, fmt.Errorf("%w: no candidates", ErrValidation)
	}
	results := e.EvaluateMany(ivs)
	best := results[0]
	for _, r := range results[1:] {
		if r.Err != nil {
			continue
		}
		if best.Err != nil || r.Score > best.Score {
			best = r
		}
	}
	if best.Err != nil {
		return best, best.Err
	}
	return best, nil
}

// Predictive is a posterior-predictive infection band: per-day mean and
// central 95% quantiles of the expected infection series across
// posterior samples.
type Predictive struct {
	Mean  []float64
	Lower []float64 // 2.5% quantile
	Upper []float64 // 97.5% quantile
}

// PosteriorPredictive maps index-aligned posterior chains through the
// mean-field model and aggregates the per-day expected infection counts.
// Trajectories are memoized through tc (which may be nil): rejected MCMC
// steps repeat parameter pairs, so the cache absorbs most of the work.
func PosteriorPredictive(cfg sir.Config, beta, gamma []float64, tc *cache.TrajectoryCache) (*Predictive, error) {
	if len(beta) == 0 {
		return nil, fmt.Errorf("%w: empty chains", ErrValidation)
	}
	if len(beta) != len(gamma) {
		return nil, fmt.Errorf("%w: beta length %d, gamma length %d", ErrValidation, len(beta), len(gamma))
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if tc == nil {
		tc = cache.New(0)
	}

	perDay := make([][]float64, cfg.Days)
	for t := range perDay {
		perDay[t] = make([]float64, 0, len(beta))
	}

	for i := range beta {
		p := sir.Params{Beta: beta[i], Gamma: gamma[i]}
		if err := p.Validate(); err != nil {
			return nil, err
		}
		mt := tc.GetOrCompute(p, func() *sir.MeanTrajectory {
			out, err := sir.Expected(cfg, p)
			if err != nil {
				return nil
			}
			return out
		})
		if mt == nil {
			return nil, fmt.Errorf("%w: trajectory for sample %d", ErrValidation, i)
		}
		for t, v := range mt.I {
			perDay[t] = append(perDay[t], v)
		}
	}

	pred := &Predictive{
		Mean:  make([]float64, cfg.Days),
		Lower: make([]float64, cfg.Days),
		Upper: make([]float64, cfg.Days),
	}
	for t, vals := range perDay {
		sort.Float64s(vals)
		sum := 0.0
		for _, v := range vals {
			sum += v
		}
		pred.Mean[t] = sum / float64(len(vals))
		pred.Lower[t] = quantileSorted(vals, 0.025)
		pred.Upper[t] = quantileSorted(vals, 0.975)
	}
	return pred, nil
}

func quantileSorted(sorted []float64, q float64) float64 {
	if len(sorted) == 1 {
		return sorted[0]
	}
	idx := int(q * float64(len(sorted)))
	if idx >= len(sorted) {
		idx = len(sorted) - 1
	}
	return sorted[idx]
}
