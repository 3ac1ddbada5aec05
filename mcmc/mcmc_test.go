package mcmc

import (
	"bytes"
	"context"
	"math"
	"strings"
	"testing"

	"github.com/rs/zerolog"
	"golang.org/x/exp/rand"

	"github.com/outbreaklab/go-outbreak/sir"
)

func flatObserved(n, v int) ObservedSeries {
	obs := make(ObservedSeries, n)
	for i := range obs {
		obs[i] = v
	}
	return obs
}

func smallOptions() *Options {
	opts := DefaultOptions()
	opts.Iterations = 400
	opts.BurnIn = 100
	return opts
}

func TestChainLengthInvariant(t *testing.T) {
	cfg := sir.Config{Population: 500, InitialInfected: 5, Days: 20}
	obs := flatObserved(20, 10)
	opts := smallOptions()

	res, err := Sample(context.Background(), cfg, obs, opts, rand.NewSource(1))
	if err != nil {
		t.Fatalf("Sample failed: %v", err)
	}

	if res.Chain.Len() != opts.Iterations {
		t.Errorf("Expected full chain length %d, got %d", opts.Iterations, res.Chain.Len())
	}
	want := opts.Iterations - opts.BurnIn
	if len(res.Beta) != want || len(res.Gamma) != want {
		t.Errorf("Expected trimmed length %d, got beta=%d gamma=%d", want, len(res.Beta), len(res.Gamma))
	}
	if res.AcceptanceRate < 0 || res.AcceptanceRate > 1 {
		t.Errorf("Acceptance rate %f outside [0,1]", res.AcceptanceRate)
	}
	if res.RunID == "" {
		t.Error("Expected a run id")
	}
}

func TestDeterminism(t *testing.T) {
	cfg := sir.Config{Population: 500, InitialInfected: 5, Days: 15}
	obs := flatObserved(15, 8)
	opts := smallOptions()

	a, err := Sample(context.Background(), cfg, obs, opts, rand.NewSource(42))
	if err != nil {
		t.Fatal(err)
	}
	b, err := Sample(context.Background(), cfg, obs, opts, rand.NewSource(42))
	if err != nil {
		t.Fatal(err)
	}

	for i := range a.Chain.Samples {
		if a.Chain.Samples[i] != b.Chain.Samples[i] {
			t.Fatalf("Iteration %d differs between identically seeded runs", i)
		}
	}
	if a.AcceptanceRate != b.AcceptanceRate {
		t.Errorf("Acceptance rates differ: %f vs %f", a.AcceptanceRate, b.AcceptanceRate)
	}
}

func TestPseudoMarginalDeterminism(t *testing.T) {
	cfg := sir.Config{Population: 300, InitialInfected: 5, Days: 10}
	obs := flatObserved(10, 6)
	opts := smallOptions()
	opts.Iterations = 100
	opts.BurnIn = 20
	opts.Likelihood = LikelihoodPseudoMarginal
	opts.Replicates = 3

	a, err := Sample(context.Background(), cfg, obs, opts, rand.NewSource(7))
	if err != nil {
		t.Fatal(err)
	}
	b, err := Sample(context.Background(), cfg, obs, opts, rand.NewSource(7))
	if err != nil {
		t.Fatal(err)
	}
	for i := range a.Chain.Samples {
		if a.Chain.Samples[i] != b.Chain.Samples[i] {
			t.Fatalf("Iteration %d differs between identically seeded replicate runs", i)
		}
	}
}

func TestZeroStepSizeAcceptsEverything(t *testing.T) {
	cfg := sir.Config{Population: 500, InitialInfected: 5, Days: 10}
	obs := flatObserved(10, 10)
	opts := smallOptions()
	opts.StepBeta = 0
	opts.StepGamma = 0

	// Every proposal equals the current point; under the deterministic
	// likelihood the log-ratio is exactly zero, so log(U) < 0 always wins.
	res, err := Sample(context.Background(), cfg, obs, opts, rand.NewSource(1))
	if err != nil {
		t.Fatal(err)
	}
	if res.AcceptanceRate != 1.0 {
		t.Errorf("Expected acceptance rate 1 with zero step size, got %f", res.AcceptanceRate)
	}
	for _, s := range res.Beta {
		if s != opts.Init.Beta {
			t.Fatalf("Expected chain pinned at %f, got %f", opts.Init.Beta, s)
		}
	}
}

func TestProgressLoggedEveryIteration(t *testing.T) {
	cfg := sir.Config{Population: 300, InitialInfected: 5, Days: 10}
	obs := flatObserved(10, 6)

	// A huge step size makes nearly every proposal fall outside (0,1),
	// so auto-rejected iterations must still emit their progress line.
	opts := smallOptions()
	opts.Iterations = 20
	opts.BurnIn = 0
	opts.StepBeta = 50
	opts.StepGamma = 50
	opts.ProgressEvery = 1

	var buf bytes.Buffer
	opts.Logger = zerolog.New(&buf)

	if _, err := Sample(context.Background(), cfg, obs, opts, rand.NewSource(3)); err != nil {
		t.Fatal(err)
	}

	got := strings.Count(buf.String(), "sampler progress")
	if got != opts.Iterations {
		t.Errorf("Expected %d progress lines, got %d", opts.Iterations, got)
	}
}

func TestValidation(t *testing.T) {
	cfg := sir.Config{Population: 500, InitialInfected: 5, Days: 20}
	obs := flatObserved(20, 10)
	ctx := context.Background()
	src := rand.NewSource(1)

	opts := smallOptions()
	opts.Iterations = 0
	if _, err := Sample(ctx, cfg, obs, opts, src); err == nil {
		t.Error("Expected error for zero iterations")
	}

	opts = smallOptions()
	opts.BurnIn = opts.Iterations
	if _, err := Sample(ctx, cfg, obs, opts, src); err == nil {
		t.Error("Expected error for burn-in >= iterations")
	}

	if _, err := Sample(ctx, cfg, flatObserved(19, 10), smallOptions(), src); err == nil {
		t.Error("Expected error for observed length != horizon")
	}

	opts = smallOptions()
	opts.Init = sir.Params{Beta: 1.2, Gamma: 0.1}
	if _, err := Sample(ctx, cfg, obs, opts, src); err == nil {
		t.Error("Expected error for starting point outside (0,1)")
	}

	opts = smallOptions()
	opts.BetaPrior = BetaPrior{Alpha: -1, Beta: 2}
	if _, err := Sample(ctx, cfg, obs, opts, src); err == nil {
		t.Error("Expected error for invalid prior shapes")
	}
}

func TestCancellationReturnsPartialChain(t *testing.T) {
	cfg := sir.Config{Population: 500, InitialInfected: 5, Days: 20}
	obs := flatObserved(20, 10)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	res, err := Sample(ctx, cfg, obs, smallOptions(), rand.NewSource(1))
	if err == nil {
		t.Fatal("Expected context error")
	}
	if res == nil {
		t.Fatal("Expected partial result alongside the error")
	}
	if res.Chain.Len() != 0 {
		t.Errorf("Expected empty chain for immediate cancellation, got %d", res.Chain.Len())
	}
}

func TestPosteriorWithinPriorSupport(t *testing.T) {
	// Constant reports, Beta(2,5)/Beta(3,7) priors, 10000 iterations,
	// burn-in 1000: posterior means must lie strictly inside (0,1) and
	// the chains must stay there sample by sample.
	cfg := sir.Config{Population: 1000, InitialInfected: 10, Days: 30}
	obs := flatObserved(30, 10)
	opts := DefaultOptions()

	res, err := Sample(context.Background(), cfg, obs, opts, rand.NewSource(99))
	if err != nil {
		t.Fatal(err)
	}

	meanBeta, meanGamma := 0.0, 0.0
	for i := range res.Beta {
		if res.Beta[i] <= 0 || res.Beta[i] >= 1 || res.Gamma[i] <= 0 || res.Gamma[i] >= 1 {
			t.Fatalf("Sample %d outside (0,1): beta=%f gamma=%f", i, res.Beta[i], res.Gamma[i])
		}
		meanBeta += res.Beta[i]
		meanGamma += res.Gamma[i]
	}
	meanBeta /= float64(len(res.Beta))
	meanGamma /= float64(len(res.Gamma))

	if meanBeta <= 0 || meanBeta >= 1 || meanGamma <= 0 || meanGamma >= 1 {
		t.Errorf("Posterior means outside (0,1): beta=%f gamma=%f", meanBeta, meanGamma)
	}
}

func TestSampleChains(t *testing.T) {
	cfg := sir.Config{Population: 500, InitialInfected: 5, Days: 15}
	obs := flatObserved(15, 8)
	opts := smallOptions()

	results, err := SampleChains(context.Background(), cfg, obs, opts, 100, 3)
	if err != nil {
		t.Fatalf("SampleChains failed: %v", err)
	}
	if len(results) != 3 {
		t.Fatalf("Expected 3 results, got %d", len(results))
	}

	// Chain c must equal a solo run seeded with seed+c.
	solo, err := Sample(context.Background(), cfg, obs, opts, rand.NewSource(101))
	if err != nil {
		t.Fatal(err)
	}
	for i := range solo.Chain.Samples {
		if results[1].Chain.Samples[i] != solo.Chain.Samples[i] {
			t.Fatalf("Parallel chain 1 diverges from solo run at iteration %d", i)
		}
	}

	if _, err := SampleChains(context.Background(), cfg, obs, opts, 1, 0); err == nil {
		t.Error("Expected error for zero chains")
	}
}

func TestSyntheticObserved(t *testing.T) {
	cfg := sir.Config{Population: 1000, InitialInfected: 10, Days: 30}
	p := sir.Params{Beta: 0.3, Gamma: 0.1}

	a, atr, err := SyntheticObserved(cfg, p, rand.NewSource(5))
	if err != nil {
		t.Fatal(err)
	}
	b, _, err := SyntheticObserved(cfg, p, rand.NewSource(5))
	if err != nil {
		t.Fatal(err)
	}

	if len(a) != cfg.Days {
		t.Fatalf("Expected %d observations, got %d", cfg.Days, len(a))
	}
	for t2 := range a {
		if a[t2] != b[t2] {
			t.Fatalf("Day %d differs between identically seeded syntheses", t2)
		}
		if a[t2] < 0 {
			t.Fatalf("Negative observed count on day %d", t2)
		}
	}
	if atr.Days() != cfg.Days {
		t.Errorf("Expected underlying trajectory of %d days, got %d", cfg.Days, atr.Days())
	}
	if err := a.Validate(cfg.Days); err != nil {
		t.Errorf("Synthetic series failed validation: %v", err)
	}
}

func TestBetaPrior(t *testing.T) {
	p := DefaultBetaPrior()

	if math.IsInf(p.LogDensity(0.3), 0) {
		t.Error("Expected finite log density inside support")
	}
	if !math.IsInf(p.LogDensity(1.5), -1) {
		t.Error("Expected -Inf log density outside support")
	}

	x := p.Sample(rand.NewSource(1))
	if x <= 0 || x >= 1 {
		t.Errorf("Prior sample %f outside (0,1)", x)
	}
}

func TestLogMeanExp(t *testing.T) {
	// Equal inputs: log-mean-exp is the common value.
	got := logMeanExp([]float64{-3, -3, -3})
	if math.Abs(got-(-3)) > 1e-12 {
		t.Errorf("Expected -3, got %f", got)
	}
	// Dominant term wins as the spread grows.
	got = logMeanExp([]float64{0, -1000})
	if math.Abs(got-(0-math.Log(2))) > 1e-9 {
		t.Errorf("Expected log(1/2), got %f", got)
	}
}
