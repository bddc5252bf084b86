package domain

import (
	"context"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func benchmarkInput() PricingInput {
	return PricingInput{
		Premium:          100000,
		Age:              65,
		Rate:             0.03,
		Volatility:       0.2,
		MaxAge:           100,
		StepsPerYear:     1,
		DeferralYears:    10,
		SurrenderYears:   7,
		BehavioralModels: true,
		GWB:              DefaultGWBConfig(),
	}
}

func TestEngineConfigValidate(t *testing.T) {
	tests := []struct {
		name    string
		cfg     EngineConfig
		wantErr string
	}{
		{"zero paths", EngineConfig{Paths: 0, Seed: 42}, "path count"},
		{"odd antithetic", EngineConfig{Paths: 101, Seed: 42, Antithetic: true}, "even path count"},
		{"negative workers", EngineConfig{Paths: 100, Seed: 42, Workers: -1}, "worker count"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.cfg.Validate()
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
	assert.NoError(t, EngineConfig{Paths: 100, Seed: 42, Antithetic: true, Workers: 4}.Validate())
}

// 同一种子下改变 worker 数量必须得到逐比特一致的结果
func TestRunReproducibleAcrossWorkerCounts(t *testing.T) {
	input := benchmarkInput()
	var results []*GLWBPricingResult
	for _, workers := range []int{1, 4} {
		engine, err := NewMonteCarloEngine(input, Models{}, EngineConfig{Paths: 500, Seed: 42, Workers: workers})
		require.NoError(t, err)
		result, err := engine.Run(context.Background())
		require.NoError(t, err)
		results = append(results, result)
	}

	assert.Equal(t, results[0].GuaranteeCost, results[1].GuaranteeCost)
	assert.Equal(t, results[0].StdError, results[1].StdError)
	assert.Equal(t, results[0].ProbRuin, results[1].ProbRuin)
	assert.Equal(t, results[0].MeanFinalAV, results[1].MeanFinalAV)
}

func TestRunSameSeedTwiceIsIdentical(t *testing.T) {
	input := benchmarkInput()
	cfg := EngineConfig{Paths: 400, Seed: 7, Antithetic: true}
	first, err := mustRun(t, input, cfg)
	require.NoError(t, err)
	second, err := mustRun(t, input, cfg)
	require.NoError(t, err)
	assert.Equal(t, first.GuaranteeCost, second.GuaranteeCost)
	assert.Equal(t, first.StdError, second.StdError)
}

func mustRun(t *testing.T, input PricingInput, cfg EngineConfig) (*GLWBPricingResult, error) {
	t.Helper()
	engine, err := NewMonteCarloEngine(input, Models{}, cfg)
	require.NoError(t, err)
	return engine.Run(context.Background())
}

func TestRunDifferentSeedsDiffer(t *testing.T) {
	input := benchmarkInput()
	a, err := mustRun(t, input, EngineConfig{Paths: 500, Seed: 1})
	require.NoError(t, err)
	b, err := mustRun(t, input, EngineConfig{Paths: 500, Seed: 2})
	require.NoError(t, err)
	assert.NotEqual(t, a.GuaranteeCost, b.GuaranteeCost)
}

// 标准误随路径数按 1/sqrt(n) 收缩
func TestRunStandardErrorScaling(t *testing.T) {
	input := benchmarkInput()
	small, err := mustRun(t, input, EngineConfig{Paths: 1000, Seed: 42})
	require.NoError(t, err)
	large, err := mustRun(t, input, EngineConfig{Paths: 4000, Seed: 42})
	require.NoError(t, err)

	require.Greater(t, small.StdError, 0.0)
	ratio := small.StdError / large.StdError
	assert.InDelta(t, 2.0, ratio, 0.4)
}

func TestRunProbabilitiesInRange(t *testing.T) {
	result, err := mustRun(t, benchmarkInput(), EngineConfig{Paths: 1000, Seed: 42})
	require.NoError(t, err)

	for name, p := range map[string]float64{
		"ruin":  result.ProbRuin,
		"lapse": result.ProbLapse,
		"death": result.ProbDeath,
	} {
		assert.GreaterOrEqual(t, p, 0.0, name)
		assert.LessOrEqual(t, p, 1.0, name)
	}
	assert.Equal(t, 1000, result.CompletedPaths)
	assert.Equal(t, 1000, result.RequestedPaths)
	assert.False(t, result.Partial)
	assert.GreaterOrEqual(t, result.GuaranteeCost, 0.0)
}

// 零波动率下领取率低于无风险增长，账户不可能耗尽
func TestRunZeroVolNoRuin(t *testing.T) {
	input := benchmarkInput()
	input.Volatility = 0
	input.BehavioralModels = false
	input.GWB.FeeRate = 0
	input.GWB.RollupType = RollupNone
	input.GWB.WithdrawalRate = 0.02
	result, err := mustRun(t, input, EngineConfig{Paths: 200, Seed: 42})
	require.NoError(t, err)
	assert.Zero(t, result.ProbRuin)
	assert.Zero(t, result.MeanRuinYears)
	assert.Zero(t, result.GuaranteeCost)
}

// 无领取且无费用时没有强制现金流出，正波动率下账户也不会耗尽
func TestRunNoCashOutflowNeverRuins(t *testing.T) {
	input := benchmarkInput()
	input.BehavioralModels = false
	input.GWB.WithdrawalRate = 0
	input.GWB.FeeRate = 0
	result, err := mustRun(t, input, EngineConfig{Paths: 500, Seed: 42})
	require.NoError(t, err)
	assert.Zero(t, result.ProbRuin)
}

// 固定种子下耗尽概率随波动率单调不减
func TestRunRuinMonotoneInVolatility(t *testing.T) {
	var prev float64
	for i, vol := range []float64{0.10, 0.25, 0.40} {
		input := benchmarkInput()
		input.Volatility = vol
		result, err := mustRun(t, input, EngineConfig{Paths: 2000, Seed: 42})
		require.NoError(t, err)
		if i > 0 {
			// 允许小幅蒙特卡洛噪声
			assert.GreaterOrEqual(t, result.ProbRuin, prev-0.01, "vol %v", vol)
		}
		prev = result.ProbRuin
	}
}

// 基准场景：结果逐比特可复现，保证成本落在合理区间
func TestRunBenchmarkScenario(t *testing.T) {
	input := PricingInput{
		Premium:          100000,
		Age:              65,
		Rate:             0.04,
		Volatility:       0.18,
		MaxAge:           100,
		StepsPerYear:     1,
		DeferralYears:    10,
		SurrenderYears:   7,
		BehavioralModels: true,
		GWB:              DefaultGWBConfig(),
	}
	input.GWB.RollupRate = 0.05
	input.GWB.WithdrawalRate = 0.05
	input.GWB.FeeRate = 0.01
	cfg := EngineConfig{Paths: 10000, Seed: 42}

	first, err := mustRun(t, input, cfg)
	require.NoError(t, err)
	second, err := mustRun(t, input, cfg)
	require.NoError(t, err)

	assert.Equal(t, *first, *second)
	assert.GreaterOrEqual(t, first.GuaranteeCost, 0.0)
	assert.LessOrEqual(t, first.GuaranteeCost, 0.20*input.Premium)
	assert.Greater(t, first.StdError, 0.0)
	assert.False(t, math.IsInf(first.StdError, 0))
	assert.False(t, ValidatePricing(first, input.Premium).Halted())
}

// 关闭身故、退保与领取后，贴现账户期望值应回到保费（鞅性质）
func TestRunMartingaleProperty(t *testing.T) {
	input := PricingInput{
		Premium:      100000,
		Age:          65,
		Rate:         0.03,
		Volatility:   0.2,
		MaxAge:       75,
		StepsPerYear: 1,
		GWB: GWBConfig{
			RollupType:     RollupNone,
			WithdrawalRate: 0,
			FeeRate:        0,
			FeeBasis:       FeeBasisAccountValue,
		},
	}
	input.DeferralYears = 10

	engine, err := NewMonteCarloEngine(input, Models{Mortality: zeroMortality()},
		EngineConfig{Paths: 20000, Seed: 42, Antithetic: true})
	require.NoError(t, err)
	result, err := engine.Run(context.Background())
	require.NoError(t, err)

	discounted := result.MeanFinalAV * math.Exp(-0.03*10)
	assert.InEpsilon(t, 100000, discounted, 0.03)
	assert.Zero(t, result.GuaranteeCost)
	assert.Zero(t, result.MeanPVWithdrawals)
}

func TestRunCancelledContextReturnsPartial(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	engine, err := NewMonteCarloEngine(benchmarkInput(), Models{}, EngineConfig{Paths: 1000, Seed: 42})
	require.NoError(t, err)
	result, err := engine.Run(ctx)
	require.NoError(t, err)
	assert.True(t, result.Partial)
	assert.Less(t, result.CompletedPaths, result.RequestedPaths)
	assert.Equal(t, 1000, result.RequestedPaths)
}

// 对偶抽样应明显降低方差更重的成本估计的标准误
func TestRunAntitheticReducesVariance(t *testing.T) {
	input := benchmarkInput()
	plain, err := mustRun(t, input, EngineConfig{Paths: 2000, Seed: 42})
	require.NoError(t, err)
	anti, err := mustRun(t, input, EngineConfig{Paths: 2000, Seed: 42, Antithetic: true})
	require.NoError(t, err)

	require.Greater(t, plain.StdError, 0.0)
	assert.Less(t, anti.StdError, plain.StdError*1.1)
}

func TestGLWBPricingResultNetCost(t *testing.T) {
	result := &GLWBPricingResult{GuaranteeCost: 1200, MeanPVRiderFees: 900}
	assert.InDelta(t, 300, result.NetCost(), 1e-12)
}
