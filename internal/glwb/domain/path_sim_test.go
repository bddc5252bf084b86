package domain

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// zeroMortality 关闭死亡抽样，令路径完全确定
func zeroMortality() MortalityProvider {
	return &GompertzMortality{Level: 0, Slope: 0}
}

// deterministicGWB 关闭滚存与棘轮的基数配置
func deterministicGWB(withdrawalRate, feeRate float64) GWBConfig {
	cfg := DefaultGWBConfig()
	cfg.RollupType = RollupNone
	cfg.RollupCapYears = 0
	cfg.RatchetEnabled = false
	cfg.RatchetFrequencyYears = 0
	cfg.WithdrawalRate = withdrawalRate
	cfg.FeeRate = feeRate
	return cfg
}

func TestSimulatePathNoWithdrawalsGrowsAtRiskFree(t *testing.T) {
	one := 1.0
	input := PricingInput{
		Premium:             100000,
		Age:                 65,
		Rate:                0.03,
		Volatility:          0,
		MaxAge:              75,
		StepsPerYear:        1,
		DeferralYears:       10, // 递延期覆盖全程，不发生领取
		UtilizationOverride: &one,
		GWB:                 deterministicGWB(0.05, 0),
	}
	sim, err := NewPathSimulator(input, Models{Mortality: zeroMortality()})
	require.NoError(t, err)

	result, err := sim.SimulatePath(NewPathRNG(42, 0, false))
	require.NoError(t, err)

	assert.InDelta(t, 100000*math.Exp(0.03*10), result.FinalAV, 1e-6)
	assert.Zero(t, result.PVWithdrawals)
	assert.Zero(t, result.PVInsurerPayments)
	assert.Zero(t, result.PVRiderFees)
	assert.Equal(t, PeriodNever, result.RuinPeriod)
	assert.Equal(t, PeriodNever, result.LapsePeriod)
	assert.Equal(t, PeriodNever, result.DeathPeriod)
}

func TestSimulatePathInsurerPaysAfterDepletion(t *testing.T) {
	one := 1.0
	input := PricingInput{
		Premium:             100000,
		Age:                 65,
		Rate:                0,
		Volatility:          0,
		MaxAge:              68,
		StepsPerYear:        1,
		DeferralYears:       0,
		UtilizationOverride: &one,
		GWB:                 deterministicGWB(1.0, 0), // 首年即领空账户
	}
	sim, err := NewPathSimulator(input, Models{Mortality: zeroMortality()})
	require.NoError(t, err)

	result, err := sim.SimulatePath(NewPathRNG(42, 0, false))
	require.NoError(t, err)

	// 第 0 期领取耗尽账户，此后保险公司全额支付保证领取
	assert.Equal(t, 0, result.RuinPeriod)
	assert.InDelta(t, 100000, result.PVWithdrawals, 1e-9)
	assert.InDelta(t, 200000, result.PVInsurerPayments, 1e-9)
	assert.Zero(t, result.FinalAV)
	assert.InDelta(t, 100000, result.FinalGWB, 1e-9)
}

func TestSimulatePathWithdrawalDiscounting(t *testing.T) {
	one := 1.0
	input := PricingInput{
		Premium:             100000,
		Age:                 65,
		Rate:                0.03,
		Volatility:          0,
		MaxAge:              68,
		StepsPerYear:        1,
		DeferralYears:       0,
		UtilizationOverride: &one,
		GWB:                 deterministicGWB(0.05, 0),
	}
	sim, err := NewPathSimulator(input, Models{Mortality: zeroMortality()})
	require.NoError(t, err)

	result, err := sim.SimulatePath(NewPathRNG(42, 0, false))
	require.NoError(t, err)

	// 每年领取 5000（基数不滚存不棘轮），按期末时点折现
	want := 5000 * (math.Exp(-0.03*1) + math.Exp(-0.03*2) + math.Exp(-0.03*3))
	assert.InDelta(t, want, result.PVWithdrawals, 1e-6)
	assert.Equal(t, PeriodNever, result.RuinPeriod)
	assert.Greater(t, result.FinalAV, 0.0)
}

func TestSimulatePathRiderFeeAccumulation(t *testing.T) {
	one := 1.0
	input := PricingInput{
		Premium:             100000,
		Age:                 65,
		Rate:                0,
		Volatility:          0,
		MaxAge:              68,
		StepsPerYear:        1,
		DeferralYears:       3, // 无领取，只收费
		UtilizationOverride: &one,
		GWB:                 deterministicGWB(0.05, 0.01),
	}
	sim, err := NewPathSimulator(input, Models{Mortality: zeroMortality()})
	require.NoError(t, err)

	result, err := sim.SimulatePath(NewPathRNG(42, 0, false))
	require.NoError(t, err)

	// 每期按期初市场步进后的账户价值收 1%
	assert.InDelta(t, 100000*0.99*0.99*0.99, result.FinalAV, 1e-6)
	assert.InDelta(t, 100000*0.01*(1+0.99+0.99*0.99), result.PVRiderFees, 1e-6)
}

func TestSimulatePathSurrenderLockBlocksLapse(t *testing.T) {
	one := 1.0
	alwaysLapse, err := NewStaticLapse(1.0)
	require.NoError(t, err)

	base := PricingInput{
		Premium:             100000,
		Age:                 65,
		Rate:                0,
		Volatility:          0,
		MaxAge:              68,
		StepsPerYear:        1,
		DeferralYears:       3,
		SurrenderYears:      10,
		BehavioralModels:    true,
		UtilizationOverride: &one,
		GWB:                 deterministicGWB(0.05, 0),
	}
	models := Models{Mortality: zeroMortality(), Lapse: alwaysLapse}

	locked := base
	locked.SurrenderLock = true
	sim, err := NewPathSimulator(locked, models)
	require.NoError(t, err)
	result, err := sim.SimulatePath(NewPathRNG(42, 0, false))
	require.NoError(t, err)
	assert.Equal(t, PeriodNever, result.LapsePeriod, "surrender lock suppresses lapse entirely")

	unlocked := base
	sim, err = NewPathSimulator(unlocked, models)
	require.NoError(t, err)
	result, err = sim.SimulatePath(NewPathRNG(42, 0, false))
	require.NoError(t, err)
	assert.Equal(t, 0, result.LapsePeriod, "certain lapse fires immediately without lock")
}

func TestSimulatePathAccountValueNeverNegative(t *testing.T) {
	input := PricingInput{
		Premium:          100000,
		Age:              60,
		Rate:             0.03,
		Volatility:       0.4,
		MaxAge:           90,
		StepsPerYear:     4,
		DeferralYears:    5,
		BehavioralModels: true,
		GWB:              DefaultGWBConfig(),
	}
	sim, err := NewPathSimulator(input, Models{Expense: &FixedExpense{AnnualRate: 0.005, AnnualFlat: 100}})
	require.NoError(t, err)

	for i := uint64(0); i < 200; i++ {
		result, err := sim.SimulatePath(NewPathRNG(7, i, false))
		require.NoError(t, err)
		require.GreaterOrEqual(t, result.FinalAV, 0.0)
		require.GreaterOrEqual(t, result.PVInsurerPayments, 0.0)
		require.GreaterOrEqual(t, result.PVWithdrawals, 0.0)
		if result.RuinPeriod != PeriodNever {
			require.Zero(t, result.FinalAV, "ruined account stays pinned at zero")
		}
	}
}

type outOfRangeLapse struct{}

func (outOfRangeLapse) AnnualRate(av, gwb float64, surrenderComplete bool) (float64, error) {
	return 1.5, nil
}

func TestSimulatePathRejectsOutOfRangeLapseRate(t *testing.T) {
	one := 1.0
	input := PricingInput{
		Premium:             100000,
		Age:                 65,
		Rate:                0.03,
		Volatility:          0.2,
		MaxAge:              70,
		StepsPerYear:        1,
		BehavioralModels:    true,
		UtilizationOverride: &one,
		GWB:                 DefaultGWBConfig(),
	}
	sim, err := NewPathSimulator(input, Models{Mortality: zeroMortality(), Lapse: outOfRangeLapse{}})
	require.NoError(t, err)

	_, err = sim.SimulatePath(NewPathRNG(42, 0, false))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "lapse rate out of [0,1]")
}

func TestNewPathSimulatorValidation(t *testing.T) {
	bad := -0.5
	valid := PricingInput{
		Premium:      100000,
		Age:          65,
		Rate:         0.03,
		Volatility:   0.2,
		MaxAge:       100,
		StepsPerYear: 1,
		GWB:          DefaultGWBConfig(),
	}
	tests := []struct {
		name    string
		mutate  func(*PricingInput)
		wantErr string
	}{
		{"zero premium", func(in *PricingInput) { in.Premium = 0 }, "premium"},
		{"age beyond max", func(in *PricingInput) { in.Age = 100 }, "age"},
		{"negative rate", func(in *PricingInput) { in.Rate = -0.01 }, "rate"},
		{"negative vol", func(in *PricingInput) { in.Volatility = -0.1 }, "volatility"},
		{"zero steps", func(in *PricingInput) { in.StepsPerYear = 0 }, "steps per year"},
		{"negative deferral", func(in *PricingInput) { in.DeferralYears = -1 }, "deferral"},
		{"bad utilization override", func(in *PricingInput) { in.UtilizationOverride = &bad }, "utilization override"},
		{"bad gwb config", func(in *PricingInput) { in.GWB.RollupRate = -1 }, "rollup rate"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			input := valid
			tt.mutate(&input)
			_, err := NewPathSimulator(input, Models{})
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestNewPathSimulatorChecksMortalityTableCoverage(t *testing.T) {
	table, err := NewTableMortality(60, []float64{0.01, 0.012, 0.015})
	require.NoError(t, err)

	input := PricingInput{
		Premium:      100000,
		Age:          60,
		Rate:         0.03,
		Volatility:   0.2,
		MaxAge:       90,
		StepsPerYear: 1,
		GWB:          DefaultGWBConfig(),
	}
	_, err = NewPathSimulator(input, Models{Mortality: table})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "mortality table range")
}
