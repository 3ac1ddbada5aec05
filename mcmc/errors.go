package mcmc

import "errors"

// ErrConfiguration indicates invalid sampler configuration: non-positive
// iteration budgets, burn-in at or past the iteration count, malformed
// priors or starting point, or an observed series whose length does not
// match the simulation horizon. Raised before any iteration runs.
var ErrConfiguration = errors.New("mcmc: invalid configuration")
