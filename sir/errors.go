package sir

import "errors"

var (
	// ErrConfiguration indicates an invalid simulation configuration
	// (non-positive population or horizon, initial infected outside the
	// population). Raised before any simulation work begins.
	ErrConfiguration = errors.New("sir: invalid configuration")

	// ErrParameterRange indicates a rate parameter outside [0, 1] reaching
	// the simulator directly. MCMC proposals never surface this error;
	// they self-reject before calling the simulator.
	ErrParameterRange = errors.New("sir: rate parameter out of range")
)
