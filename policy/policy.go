// Package policy converts posterior parameter chains into exceedance
// probabilities and categorical intervention recommendations. It is a
// pure deterministic lookup over documented thresholds, not a
// decision-theoretic optimizer.
package policy

import (
	"errors"
	"fmt"
)

// ErrValidation indicates mismatched or empty posterior chains.
var ErrValidation = errors.New("policy: invalid posterior chains")

// Recommendation strings for the two intervention categories.
const (
	LockdownStronglyRecommended = "Strongly Recommended"
	LockdownRecommended         = "Recommended"
	LockdownNotRecommended      = "Not Recommended"

	VaccinationUrgentNeed  = "Urgent Need"
	VaccinationRecommended = "Recommended"
	VaccinationMonitor     = "Monitor Situation"
)

// Thresholds are the named decision boundaries. All are overridable;
// the defaults are the documented reference values.
type Thresholds struct {
	// Transmissibility is the β exceedance threshold θ.
	Transmissibility float64

	// Lockdown boundaries on P(β > θ).
	LockdownStrong      float64
	LockdownRecommended float64

	// Vaccination boundaries on P(R0 > 1).
	VaccinationUrgent      float64
	VaccinationRecommended float64
}

// DefaultThresholds returns θ=0.3, lockdown boundaries 0.8/0.5, and
// vaccination boundaries 0.7/0.3.
func DefaultThresholds() Thresholds {
	return Thresholds{
		Transmissibility:       0.3,
		LockdownStrong:         0.8,
		LockdownRecommended:    0.5,
		VaccinationUrgent:      0.7,
		VaccinationRecommended: 0.3,
	}
}

// Assessment is the analyzer output: the two exceedance probabilities
// and the categorical recommendations they map to.
type Assessment struct {
	ProbHighBeta       float64 // P(β > θ)
	ProbR0GreaterThan1 float64 // P(β/γ > 1)
	Lockdown           string
	Vaccination        string
}

// Analyze computes exceedance probabilities over index-aligned posterior
// chains (sample i of each chain belongs to the same MCMC step) and maps
// them to recommendations. Chains must be non-empty and equal length.
func Analyze(beta, gamma []float64, th Thresholds) (*Assessment, error) {
	if len(beta) == 0 {
		return nil, fmt.Errorf("%w: empty chains", ErrValidation)
	}
	if len(beta) != len(gamma) {
		return nil, fmt.Errorf("%w: beta length %d, gamma length %d", ErrValidation, len(beta), len(gamma))
	}

	highBeta, highR0 := 0, 0
	for i := range beta {
		if beta[i] > th.Transmissibility {
			highBeta++
		}
		if beta[i]/gamma[i] > 1 {
			highR0++
		}
	}

	n := float64(len(beta))
	a := &Assessment{
		ProbHighBeta:       float64(highBeta) / n,
		ProbR0GreaterThan1: float64(highR0) / n,
	}

	switch {
	case a.ProbHighBeta > th.LockdownStrong:
		a.Lockdown = LockdownStronglyRecommended
	case a.ProbHighBeta > th.LockdownRecommended:
		a.Lockdown = LockdownRecommended
	default:
		a.Lockdown = LockdownNotRecommended
	}

	switch {
	case a.ProbR0GreaterThan1 > th.VaccinationUrgent:
		a.Vaccination = VaccinationUrgentNeed
	case a.ProbR0GreaterThan1 > th.VaccinationRecommended:
		a.Vaccination = VaccinationRecommended
	default:
		a.Vaccination = VaccinationMonitor
	}

	return a, nil
}
