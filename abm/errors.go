package abm

import "errors"

var (
	// ErrConfiguration indicates invalid simulation configuration:
	// probabilities outside [0,1], a transition matrix row exceeding unit
	// mass, or an initial-state assignment that does not fit the graph.
	ErrConfiguration = errors.New("abm: invalid configuration")

	// ErrGraphConsistency indicates an edge endpoint outside the agent
	// array. This is a construction bug in the caller, fatal and never
	// retried.
	ErrGraphConsistency = errors.New("abm: graph references unknown agent")
)
