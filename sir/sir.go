// Package sir implements a discrete-time SIR (Susceptible/Infected/Recovered)
// compartmental simulator in two forms: a stochastic simulator driven by
// daily binomial draws, and its deterministic mean-field counterpart.
//
// Each day the stochastic update draws
//
//	new_infections ~ Binomial(S[t-1], 1 - exp(-β·I[t-1]/N))
//	new_recoveries ~ Binomial(I[t-1], 1 - exp(-γ))
//
// and moves the drawn counts between compartments. Compartments can never
// go negative because each binomial is bounded by its trial count, and
// S+I+R is conserved at every step.
//
// All randomness flows through an explicit rand.Source supplied by the
// caller; the package holds no generator state of its own. Two calls with
// the same configuration, parameters, and source state produce bit-identical
// trajectories.
package sir

import (
	"fmt"
	"math"

	"golang.org/x/exp/rand"
	"gonum.org/v1/gonum/stat/distuv"
)

// Params holds the two rate parameters of the SIR model.
type Params struct {
	Beta  float64 // transmission rate
	Gamma float64 // recovery rate
}

// Validate checks that both rates lie in the closed interval [0, 1].
// The closed interval admits the β=0 (no transmission) and γ=0
// (no recovery) boundary cases; inference keeps proposals in the open
// interval separately.
func (p Params) Validate() error {
	if p.Beta < 0 || p.Beta > 1 {
		return fmt.Errorf("%w: beta=%v", ErrParameterRange, p.Beta)
	}
	if p.Gamma < 0 || p.Gamma > 1 {
		return fmt.Errorf("%w: gamma=%v", ErrParameterRange, p.Gamma)
	}
	return nil
}

// R0 returns the basic reproduction number β/γ.
// Returns +Inf when γ is zero and β is positive.
func (p Params) R0() float64 {
	return p.Beta / p.Gamma
}

// Config describes a simulation run.
type Config struct {
	Population      int // total population N
	InitialInfected int // I[0]
	Days            int // horizon; length of every output series
}

// DefaultConfig returns a medium-sized outbreak scenario.
func DefaultConfig() Config {
	return Config{
		Population:      1000,
		InitialInfected: 10,
		Days:            60,
	}
}

// Validate checks the configuration before any simulation work begins.
func (c Config) Validate() error {
	if c.Population < 1 {
		return fmt.Errorf("%w: population %d", ErrConfiguration, c.Population)
	}
	if c.InitialInfected < 0 || c.InitialInfected > c.Population {
		return fmt.Errorf("%w: initial infected %d with population %d", ErrConfiguration, c.InitialInfected, c.Population)
	}
	if c.Days < 1 {
		return fmt.Errorf("%w: days %d", ErrConfiguration, c.Days)
	}
	return nil
}

// Trajectory holds one stochastic run: three parallel integer series,
// one entry per day.
type Trajectory struct {
	S, I, R    []int
	Population int
}

// Days returns the horizon length.
func (tr *Trajectory) Days() int { return len(tr.I) }

// Infected returns a copy of the infected series.
func (tr *Trajectory) Infected() []int {
	return append([]int(nil), tr.I...)
}

// Final returns the last-day compartment counts.
func (tr *Trajectory) Final() (s, i, r int) {
	n := len(tr.S) - 1
	return tr.S[n], tr.I[n], tr.R[n]
}

// PeakInfected returns the day and size of the largest infected count.
func (tr *Trajectory) PeakInfected() (day, count int) {
	for t, v := range tr.I {
		if v > count {
			day, count = t, v
		}
	}
	return day, count
}

// AttackRate returns the fraction of the population ever infected,
// 1 - S[final]/N.
func (tr *Trajectory) AttackRate() float64 {
	s, _, _ := tr.Final()
	return 1 - float64(s)/float64(tr.Population)
}

// Simulate runs the stochastic simulator for cfg.Days days, consuming
// binomial draws from src in day order (infection draw before recovery
// draw within each day).
func Simulate(cfg Config, p Params, src rand.Source) (*Trajectory, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if err := p.Validate(); err != nil {
		return nil, err
	}

	n := cfg.Days
	tr := &Trajectory{
		S:          make([]int, n),
		I:          make([]int, n),
		R:          make([]int, n),
		Population: cfg.Population,
	}
	tr.S[0] = cfg.Population - cfg.InitialInfected
	tr.I[0] = cfg.InitialInfected

	popSize := float64(cfg.Population)
	pRecover := 1 - math.Exp(-p.Gamma)

	for t := 1; t < n; t++ {
		s, i, r := tr.S[t-1], tr.I[t-1], tr.R[t-1]

		pInfect := 1 - math.Exp(-p.Beta*float64(i)/popSize)
		newInfections := binomial(s, pInfect, src)
		newRecoveries := binomial(i, pRecover, src)

		tr.S[t] = s - newInfections
		tr.I[t] = i + newInfections - newRecoveries
		tr.R[t] = r + newRecoveries
	}
	return tr, nil
}

// binomial draws from Binomial(n, p). Degenerate inputs short-circuit
// without consuming from the stream.
func binomial(n int, p float64, src rand.Source) int {
	if n <= 0 || p <= 0 {
		return 0
	}
	if p >= 1 {
		return n
	}
	b := distuv.Binomial{N: float64(n), P: p, Src: src}
	return int(b.Rand())
}

// MeanTrajectory holds the deterministic mean-field series: the same
// recurrence as Simulate with each binomial replaced by its expectation,
// so compartments are real-valued.
type MeanTrajectory struct {
	S, I, R    []float64
	Population int
}

// Days returns the horizon length.
func (mt *MeanTrajectory) Days() int { return len(mt.I) }

// Infected returns a copy of the expected infected series.
func (mt *MeanTrajectory) Infected() []float64 {
	return append([]float64(nil), mt.I...)
}

// Final returns the last-day expected compartment values.
func (mt *MeanTrajectory) Final() (s, i, r float64) {
	n := len(mt.S) - 1
	return mt.S[n], mt.I[n], mt.R[n]
}

// PeakInfected returns the day and size of the largest expected infected value.
func (mt *MeanTrajectory) PeakInfected() (day int, count float64) {
	for t, v := range mt.I {
		if v > count {
			day, count = t, v
		}
	}
	return day, count
}

// AttackRate returns the expected fraction of the population ever infected.
func (mt *MeanTrajectory) AttackRate() float64 {
	s, _, _ := mt.Final()
	return 1 - s/float64(mt.Population)
}

// Expected runs the deterministic mean-field recurrence. It draws nothing
// and is safe to evaluate concurrently.
func Expected(cfg Config, p Params) (*MeanTrajectory, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if err := p.Validate(); err != nil {
		return nil, err
	}

	n := cfg.Days
	mt := &MeanTrajectory{
		S:          make([]float64, n),
		I:          make([]float64, n),
		R:          make([]float64, n),
		Population: cfg.Population,
	}
	mt.S[0] = float64(cfg.Population - cfg.InitialInfected)
	mt.I[0] = float64(cfg.InitialInfected)

	popSize := float64(cfg.Population)
	pRecover := 1 - math.Exp(-p.Gamma)

	for t := 1; t < n; t++ {
		s, i, r := mt.S[t-1], mt.I[t-1], mt.R[t-1]

		newInfections := s * (1 - math.Exp(-p.Beta*i/popSize))
		newRecoveries := i * pRecover

		mt.S[t] = s - newInfections
		mt.I[t] = i + newInfections - newRecoveries
		mt.R[t] = r + newRecoveries
	}
	return mt, nil
}
