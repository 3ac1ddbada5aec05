package mcmc

import (
	"fmt"

	"golang.org/x/exp/rand"
	"gonum.org/v1/gonum/stat/distuv"

	"github.com/outbreaklab/go-outbreak/sir"
)

// ObservedSeries is a sequence of reported daily infection counts, one
// non-negative integer per day of the simulation horizon.
type ObservedSeries []int

// Validate checks length against the horizon and non-negativity.
func (o ObservedSeries) Validate(days int) error {
	if len(o) != days {
		return fmt.Errorf("%w: %d observations for a %d-day horizon", ErrConfiguration, len(o), days)
	}
	for t, v := range o {
		if v < 0 {
			return fmt.Errorf("%w: negative count %d on day %d", ErrConfiguration, v, t)
		}
	}
	return nil
}

// SyntheticObserved generates an observed series by running the
// stochastic simulator once and Poisson-sampling a reported count around
// each day's true infected total. The underlying trajectory is returned
// alongside so tests and demos can compare inference against the truth.
func SyntheticObserved(cfg sir.Config, p sir.Params, src rand.Source) (ObservedSeries, *sir.Trajectory, error) {
	tr, err := sir.Simulate(cfg, p, src)
	if err != nil {
		return nil, nil, err
	}
	obs := make(ObservedSeries, cfg.Days)
	for t, infected := range tr.I {
		if infected <= 0 {
			obs[t] = 0
			continue
		}
		obs[t] = int(distuv.Poisson{Lambda: float64(infected), Src: src}.Rand())
	}
	return obs, tr, nil
}
