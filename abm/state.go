package abm

import "fmt"

// State is one symbol of the 5-state agent alphabet.
type State int

const (
	Shielded State = iota
	Infiltrated
	Spreader
	Resistant
	Fallen
)

// NumStates is the size of the state alphabet.
const NumStates = 5

// None marks an empty Pending slot or an unset countdown trigger.
const None State = -1

func (s State) String() string {
	switch s {
	case Shielded:
		return "Shielded"
	case Infiltrated:
		return "Infiltrated"
	case Spreader:
		return "Spreader"
	case Resistant:
		return "Resistant"
	case Fallen:
		return "Fallen"
	case None:
		return "None"
	}
	return fmt.Sprintf("State(%d)", int(s))
}

// Symbol returns the one-letter code used in snapshots and logs.
func (s State) Symbol() string {
	switch s {
	case Shielded:
		return "H"
	case Infiltrated:
		return "I"
	case Spreader:
		return "S"
	case Resistant:
		return "R"
	case Fallen:
		return "F"
	}
	return "?"
}

// Valid reports whether s is a member of the alphabet.
func (s State) Valid() bool {
	return s >= Shielded && s < NumStates
}

// Agent is one simulated individual. Agents live in a contiguous array
// indexed by ID and are never destroyed mid-run; Fallen is absorbing.
type Agent struct {
	ID        int
	X, Y      float64 // layout pass-through, unused by transition logic
	State     State
	Countdown int   // remaining dwell days; -1 when unset
	Pending   State // staged next state during a snapshot update; None between days
}
