package domain

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func healthyResult() *GLWBPricingResult {
	return &GLWBPricingResult{
		GuaranteeCost:  5000,
		StdError:       100,
		ProbRuin:       0.12,
		CompletedPaths: 10000,
		RequestedPaths: 10000,
	}
}

func gateByName(t *testing.T, report *ValidationReport, name string) GateResult {
	t.Helper()
	for _, g := range report.Gates {
		if g.Name == name {
			return g
		}
	}
	t.Fatalf("gate %q missing from report", name)
	return GateResult{}
}

func TestValidatePricingAllPass(t *testing.T) {
	report := ValidatePricing(healthyResult(), 100000)
	assert.Equal(t, GatePass, report.Status)
	assert.False(t, report.Halted())
	require.Len(t, report.Gates, 5)
	for _, g := range report.Gates {
		assert.Equal(t, GatePass, g.Status, g.Name)
	}
}

func TestValidatePricingNonFiniteCostHalts(t *testing.T) {
	for _, cost := range []float64{math.NaN(), math.Inf(1), -1} {
		result := healthyResult()
		result.GuaranteeCost = cost
		report := ValidatePricing(result, 100000)
		assert.True(t, report.Halted())
		assert.Equal(t, GateHalt, gateByName(t, report, "cost_finite").Status)
	}
}

func TestValidatePricingImplausibleCostHalts(t *testing.T) {
	result := healthyResult()
	result.GuaranteeCost = 25000 // 25% 的保费
	report := ValidatePricing(result, 100000)
	assert.True(t, report.Halted())
	assert.Equal(t, GateHalt, gateByName(t, report, "cost_plausible").Status)
}

func TestValidatePricingZeroPremiumSkipsPlausibility(t *testing.T) {
	report := ValidatePricing(healthyResult(), 0)
	require.Len(t, report.Gates, 4)
	for _, g := range report.Gates {
		assert.NotEqual(t, "cost_plausible", g.Name)
	}
}

func TestValidatePricingWideStdErrorWarns(t *testing.T) {
	result := healthyResult()
	result.StdError = 500 // 10% 的保证成本
	report := ValidatePricing(result, 100000)
	assert.Equal(t, GateWarn, report.Status)
	assert.False(t, report.Halted())
	assert.Equal(t, GateWarn, gateByName(t, report, "std_error").Status)
}

func TestValidatePricingInvalidStdErrorHalts(t *testing.T) {
	result := healthyResult()
	result.StdError = math.NaN()
	report := ValidatePricing(result, 100000)
	assert.True(t, report.Halted())
}

func TestValidatePricingZeroCostIgnoresRelativeStdError(t *testing.T) {
	result := healthyResult()
	result.GuaranteeCost = 0
	result.StdError = 0
	report := ValidatePricing(result, 100000)
	assert.Equal(t, GatePass, gateByName(t, report, "std_error").Status)
}

func TestValidatePricingRuinProbabilityBounds(t *testing.T) {
	result := healthyResult()
	result.ProbRuin = 1.2
	report := ValidatePricing(result, 100000)
	assert.True(t, report.Halted())
	assert.Equal(t, GateHalt, gateByName(t, report, "ruin_probability").Status)
}

func TestValidatePricingPartialResultWarns(t *testing.T) {
	result := healthyResult()
	result.Partial = true
	result.CompletedPaths = 6000
	report := ValidatePricing(result, 100000)
	assert.Equal(t, GateWarn, report.Status)
	assert.Equal(t, GateWarn, gateByName(t, report, "completeness").Status)
	assert.Contains(t, gateByName(t, report, "completeness").Message, "6000")
}

func TestValidatePricingHaltDominatesWarn(t *testing.T) {
	result := healthyResult()
	result.Partial = true
	result.GuaranteeCost = math.Inf(1)
	report := ValidatePricing(result, 100000)
	assert.Equal(t, GateHalt, report.Status)
}
