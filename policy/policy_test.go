package policy

import (
	"math"
	"testing"
)

func constChain(n int, v float64) []float64 {
	c := make([]float64, n)
	for i := range c {
		c[i] = v
	}
	return c
}

func TestHighR0Scenario(t *testing.T) {
	// Every sample has R0 = 0.5/0.1 = 5: certain exceedance.
	beta := constChain(100, 0.5)
	gamma := constChain(100, 0.1)

	a, err := Analyze(beta, gamma, DefaultThresholds())
	if err != nil {
		t.Fatalf("Analyze failed: %v", err)
	}

	if a.ProbR0GreaterThan1 != 1.0 {
		t.Errorf("Expected prob_R0_gt1 = 1.0, got %f", a.ProbR0GreaterThan1)
	}
	if a.Vaccination != VaccinationUrgentNeed {
		t.Errorf("Expected %q, got %q", VaccinationUrgentNeed, a.Vaccination)
	}
	// beta 0.5 > theta 0.3 everywhere.
	if a.ProbHighBeta != 1.0 {
		t.Errorf("Expected prob_high_beta = 1.0, got %f", a.ProbHighBeta)
	}
	if a.Lockdown != LockdownStronglyRecommended {
		t.Errorf("Expected %q, got %q", LockdownStronglyRecommended, a.Lockdown)
	}
}

func TestLowRiskScenario(t *testing.T) {
	beta := constChain(50, 0.1)
	gamma := constChain(50, 0.4)

	a, err := Analyze(beta, gamma, DefaultThresholds())
	if err != nil {
		t.Fatal(err)
	}
	if a.ProbHighBeta != 0 || a.ProbR0GreaterThan1 != 0 {
		t.Errorf("Expected zero exceedance, got beta=%f r0=%f", a.ProbHighBeta, a.ProbR0GreaterThan1)
	}
	if a.Lockdown != LockdownNotRecommended {
		t.Errorf("Expected %q, got %q", LockdownNotRecommended, a.Lockdown)
	}
	if a.Vaccination != VaccinationMonitor {
		t.Errorf("Expected %q, got %q", VaccinationMonitor, a.Vaccination)
	}
}

func TestMiddleBands(t *testing.T) {
	// 60 of 100 samples above theta: 0.5 < 0.6 <= 0.8 -> "Recommended".
	beta := append(constChain(60, 0.5), constChain(40, 0.1)...)
	// 40 of 100 samples with R0 > 1: 0.3 < 0.4 <= 0.7 -> "Recommended".
	gamma := append(constChain(40, 0.1), constChain(60, 0.9)...)

	a, err := Analyze(beta, gamma, DefaultThresholds())
	if err != nil {
		t.Fatal(err)
	}
	if math.Abs(a.ProbHighBeta-0.6) > 1e-12 {
		t.Errorf("Expected prob_high_beta 0.6, got %f", a.ProbHighBeta)
	}
	if a.Lockdown != LockdownRecommended {
		t.Errorf("Expected %q, got %q", LockdownRecommended, a.Lockdown)
	}
	if math.Abs(a.ProbR0GreaterThan1-0.4) > 1e-12 {
		t.Errorf("Expected prob_R0_gt1 0.4, got %f", a.ProbR0GreaterThan1)
	}
	if a.Vaccination != VaccinationRecommended {
		t.Errorf("Expected %q, got %q", VaccinationRecommended, a.Vaccination)
	}
}

func TestValidation(t *testing.T) {
	th := DefaultThresholds()

	if _, err := Analyze(nil, nil, th); err == nil {
		t.Error("Expected error for empty chains")
	}
	if _, err := Analyze(constChain(10, 0.3), constChain(9, 0.1), th); err == nil {
		t.Error("Expected error for mismatched chain lengths")
	}
}

func TestCustomThresholds(t *testing.T) {
	th := DefaultThresholds()
	th.Transmissibility = 0.6

	a, err := Analyze(constChain(10, 0.5), constChain(10, 0.1), th)
	if err != nil {
		t.Fatal(err)
	}
	if a.ProbHighBeta != 0 {
		t.Errorf("Expected no exceedance of raised threshold, got %f", a.ProbHighBeta)
	}
}
