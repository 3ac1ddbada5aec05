// Package abm simulates disease spread over a contact network with a
// discrete 5-state agent model: Shielded, Infiltrated, Spreader,
// Resistant, Fallen.
//
// Two kinds of transition drive the model. The exposure rule moves a
// Shielded agent to Infiltrated when at least one directly-connected
// neighbor is a Spreader and an independent Bernoulli draw at
// InfectionProb succeeds. All other transitions are timed: one Bernoulli
// draw per positive entry of the agent's transition-matrix row, evaluated
// independently, with Fallen taking precedence over any other success.
//
// # Update semantics
//
// By default each day is computed from a snapshot of the previous day's
// states and committed atomically at day end, so every agent sees a
// consistent picture and transitions at most once per day. Setting
// Config.AllowSameDayCascades reproduces the sequential in-place variant,
// where an agent's transition earlier in the pass is visible to agents
// later in the same pass and can chain transitions within one day. The
// cascading variant exists for behavioral-compatibility testing only.
//
// Draw order is fixed for reproducibility: agents are visited in
// ascending id; a Shielded agent consumes one draw only when exposed;
// every other non-Fallen agent past its dwell consumes one draw per
// positive row entry in canonical state order regardless of outcome.
package abm

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"golang.org/x/exp/rand"

	"github.com/outbreaklab/go-outbreak/network"
)

// Duration bounds how long an agent dwells in a state before timed exits
// may fire. On entering the state the agent draws a countdown uniformly
// from {Min..Max}; while it is positive, timed exits are blocked.
// A zero Max disables the dwell for that state.
type Duration struct {
	Min, Max int
}

// Config holds the per-day transition probabilities and update policy.
type Config struct {
	InitialSpreaders int // agents seeded as Spreader at day 0

	// InitialStates optionally fixes every agent's starting state.
	// When set it must have one entry per node and overrides
	// InitialSpreaders.
	InitialStates []State

	InfectionProb      float64 // Shielded -> Infiltrated on exposure
	ProgressionProb    float64 // Infiltrated -> Spreader
	RecoveryProb       float64 // Spreader -> Resistant
	FatalityProb       float64 // Spreader -> Fallen
	ResistanceLossProb float64 // Resistant -> Shielded (waning immunity)

	Durations [NumStates]Duration

	// AllowSameDayCascades selects the sequential in-place update for
	// compatibility testing. The default (false) is snapshot-then-commit.
	AllowSameDayCascades bool
}

// DefaultConfig returns a moderate outbreak parameterization.
func DefaultConfig() Config {
	return Config{
		InitialSpreaders:   3,
		InfectionProb:      0.25,
		ProgressionProb:    0.3,
		RecoveryProb:       0.15,
		FatalityProb:       0.02,
		ResistanceLossProb: 0.01,
	}
}

// Matrix returns the 5×5 timed-transition table implied by the
// configured probabilities. The Shielded row is all zero: its only exit
// is the exposure rule, which depends on neighbors rather than the
// matrix. The Fallen row is all zero because Fallen is absorbing.
func (c Config) Matrix() TransitionMatrix {
	var m TransitionMatrix
	m[Infiltrated][Spreader] = c.ProgressionProb
	m[Spreader][Resistant] = c.RecoveryProb
	m[Spreader][Fallen] = c.FatalityProb
	m[Resistant][Shielded] = c.ResistanceLossProb
	return m
}

// Validate checks probabilities, row mass, durations, and the initial
// state assignment (against n nodes).
func (c Config) Validate(n int) error {
	probs := map[string]float64{
		"infection":       c.InfectionProb,
		"progression":     c.ProgressionProb,
		"recovery":        c.RecoveryProb,
		"fatality":        c.FatalityProb,
		"resistance loss": c.ResistanceLossProb,
	}
	for name, p := range probs {
		if p < 0 || p > 1 {
			return fmt.Errorf("%w: %s probability %v outside [0,1]", ErrConfiguration, name, p)
		}
	}
	if err := c.Matrix().Validate(); err != nil {
		return err
	}
	for st, d := range c.Durations {
		if d.Min < 0 || d.Max < d.Min {
			return fmt.Errorf("%w: duration for %s (min=%d max=%d)", ErrConfiguration, State(st), d.Min, d.Max)
		}
	}
	if c.InitialStates != nil {
		if len(c.InitialStates) != n {
			return fmt.Errorf("%w: %d initial states for %d agents", ErrConfiguration, len(c.InitialStates), n)
		}
		for id, st := range c.InitialStates {
			if !st.Valid() {
				return fmt.Errorf("%w: agent %d initial state %d", ErrConfiguration, id, int(st))
			}
		}
	} else if c.InitialSpreaders < 0 || c.InitialSpreaders > n {
		return fmt.Errorf("%w: %d initial spreaders for %d agents", ErrConfiguration, c.InitialSpreaders, n)
	}
	return nil
}

// TransitionMatrix is a 5×5 table of timed per-day transition
// probabilities. Each row's mass must not exceed 1; the remainder is the
// probability of staying. An all-zero row means the state has no timed
// exit path.
type TransitionMatrix [NumStates][NumStates]float64

// Validate checks entry ranges and row mass.
func (m TransitionMatrix) Validate() error {
	for from := range m {
		sum := 0.0
		for to, p := range m[from] {
			if p < 0 {
				return fmt.Errorf("%w: negative transition probability %s -> %s", ErrConfiguration, State(from), State(to))
			}
			sum += p
		}
		if sum > 1 {
			return fmt.Errorf("%w: row %s mass %v exceeds 1", ErrConfiguration, State(from), sum)
		}
	}
	return nil
}

// Simulation advances a population of agents over a contact graph one
// day at a time. It owns its working buffers exclusively; all randomness
// comes from the source supplied at construction.
type Simulation struct {
	runID     string
	cfg       Config
	matrix    TransitionMatrix
	agents    []Agent
	neighbors [][]int
	positions []network.Position
	edges     [][2]int
	rng       *rand.Rand
	day       int
}

// New builds a simulation over graph g. Edge endpoints are checked
// against the agent array; an out-of-range endpoint fails with
// ErrGraphConsistency. Initial spreaders are chosen by a random
// permutation of agent ids unless Config.InitialStates pins them.
func New(cfg Config, g *network.Graph, src rand.Source) (*Simulation, error) {
	n := g.N()
	if err := cfg.Validate(n); err != nil {
		return nil, err
	}

	neighbors := make([][]int, n)
	for _, e := range g.Edges() {
		a, b := e[0], e[1]
		if a < 0 || a >= n || b < 0 || b >= n {
			return nil, fmt.Errorf("%w: edge (%d, %d) with %d agents", ErrGraphConsistency, a, b, n)
		}
		neighbors[a] = append(neighbors[a], b)
		neighbors[b] = append(neighbors[b], a)
	}

	s := &Simulation{
		runID:     uuid.New().String(),
		cfg:       cfg,
		matrix:    cfg.Matrix(),
		agents:    make([]Agent, n),
		neighbors: neighbors,
		positions: g.Positions(),
		edges:     g.Edges(),
		rng:       rand.New(src),
	}

	pos := g.Positions()
	for i := range s.agents {
		s.agents[i] = Agent{
			ID:        i,
			X:         pos[i].X,
			Y:         pos[i].Y,
			State:     Shielded,
			Countdown: -1,
			Pending:   None,
		}
	}

	if cfg.InitialStates != nil {
		for i, st := range cfg.InitialStates {
			s.agents[i].State = st
		}
	} else if cfg.InitialSpreaders > 0 {
		perm := s.rng.Perm(n)
		for _, id := range perm[:cfg.InitialSpreaders] {
			s.agents[id].State = Spreader
		}
	}
	for i := range s.agents {
		s.agents[i].Countdown = s.drawCountdown(s.agents[i].State)
	}

	return s, nil
}

// RunID identifies this run so downstream consumers can correlate its
// outputs. Assigned once at construction and stamped on every snapshot.
func (s *Simulation) RunID() string { return s.runID }

// Day returns the number of completed days.
func (s *Simulation) Day() int { return s.day }

// Agents returns the agent array. Callers must treat it as read-only.
func (s *Simulation) Agents() []Agent { return s.agents }

// Positions returns the static node layout.
func (s *Simulation) Positions() []network.Position { return s.positions }

// Edges returns the static edge list.
func (s *Simulation) Edges() [][2]int { return s.edges }

// Step advances the simulation by one day.
func (s *Simulation) Step() {
	if s.cfg.AllowSameDayCascades {
		s.stepCascading()
	} else {
		s.stepSnapshot()
	}
	s.day++
}

// stepSnapshot computes every decision from a read-only copy of the
// previous day's states, then commits all transitions atomically. No
// agent changes state more than once per day.
func (s *Simulation) stepSnapshot() {
	prev := make([]State, len(s.agents))
	for i := range s.agents {
		prev[i] = s.agents[i].State
	}
	read := func(id int) State { return prev[id] }

	for i := range s.agents {
		s.agents[i].Pending = s.decide(i, read)
	}
	for i := range s.agents {
		a := &s.agents[i]
		if a.Pending != None && a.Pending != a.State {
			s.enter(a, a.Pending)
		}
		a.Pending = None
	}
}

// stepCascading mutates states in place in ascending id order, so a
// transition earlier in the pass is visible to later agents the same day.
func (s *Simulation) stepCascading() {
	read := func(id int) State { return s.agents[id].State }
	for i := range s.agents {
		next := s.decide(i, read)
		if next != None && next != s.agents[i].State {
			s.enter(&s.agents[i], next)
		}
	}
}

// decide computes agent i's next state for the day, reading neighbor
// states through read. It returns None when the agent stays put.
// Countdown bookkeeping happens here: a positive countdown decrements
// and blocks timed exits for the day.
func (s *Simulation) decide(i int, read func(int) State) State {
	a := &s.agents[i]
	st := read(i)

	switch st {
	case Fallen:
		return None

	case Shielded:
		if a.Countdown > 0 {
			a.Countdown--
		}
		exposed := false
		for _, nb := range s.neighbors[i] {
			if read(nb) == Spreader {
				exposed = true
				break
			}
		}
		if exposed && s.rng.Float64() < s.cfg.InfectionProb {
			return Infiltrated
		}
		return None

	default:
		if a.Countdown > 0 {
			a.Countdown--
			return None
		}
		// One independent draw per positive row entry, in canonical
		// state order; every draw is consumed. Fallen beats any other
		// success, otherwise the first success wins.
		next := None
		fell := false
		for to := Shielded; to < NumStates; to++ {
			p := s.matrix[st][to]
			if p <= 0 {
				continue
			}
			hit := s.rng.Float64() < p
			if !hit {
				continue
			}
			if to == Fallen {
				fell = true
			} else if next == None {
				next = to
			}
		}
		if fell {
			return Fallen
		}
		return next
	}
}

// enter commits a transition and seeds the new state's dwell countdown.
func (s *Simulation) enter(a *Agent, to State) {
	a.State = to
	a.Countdown = s.drawCountdown(to)
}

// drawCountdown samples a dwell from the state's duration bounds, or -1
// when the state has no configured dwell. Consumes one draw only when a
// range must be sampled.
func (s *Simulation) drawCountdown(st State) int {
	d := s.cfg.Durations[st]
	if d.Max <= 0 {
		return -1
	}
	if d.Min == d.Max {
		return d.Min
	}
	return d.Min + s.rng.Intn(d.Max-d.Min+1)
}

// StateCounts tallies the current population by state.
func (s *Simulation) StateCounts() [NumStates]int {
	var counts [NumStates]int
	for i := range s.agents {
		counts[s.agents[i].State]++
	}
	return counts
}

// Snapshot is a read-only per-day view handed to visualization
// consumers: agent states by id plus the run's static geometry, stamped
// with the run id. Positions and Edges alias the run's immutable slices
// and must not be mutated.
type Snapshot struct {
	RunID     string
	Day       int
	States    []State
	Counts    [NumStates]int
	Positions []network.Position
	Edges     [][2]int
}

// Snapshot captures the current day.
func (s *Simulation) Snapshot() Snapshot {
	states := make([]State, len(s.agents))
	for i := range s.agents {
		states[i] = s.agents[i].State
	}
	return Snapshot{
		RunID:     s.runID,
		Day:       s.day,
		States:    states,
		Counts:    s.StateCounts(),
		Positions: s.positions,
		Edges:     s.edges,
	}
}

// Run advances the simulation for the given number of days, polling ctx
// once per day. On cancellation it returns the snapshots collected so
// far together with ctx's error. The returned slice has one snapshot per
// completed day, day 0's initial state included.
func (s *Simulation) Run(ctx context.Context, days int) ([]Snapshot, error) {
	if days < 0 {
		return nil, fmt.Errorf("%w: days %d", ErrConfiguration, days)
	}
	snaps := make([]Snapshot, 0, days+1)
	snaps = append(snaps, s.Snapshot())
	for d := 0; d < days; d++ {
		select {
		case <-ctx.Done():
			return snaps, ctx.Err()
		default:
		}
		s.Step()
		snaps = append(snaps, s.Snapshot())
	}
	return snaps, nil
}
