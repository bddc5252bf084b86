package domain

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSensitivityConfigValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*SensitivityConfig)
		wantErr string
	}{
		{"zero vol bump", func(c *SensitivityConfig) { c.VolBumpRelative = 0 }, "volatility bump"},
		{"zero rate bump", func(c *SensitivityConfig) { c.RateBumpAbsolute = 0 }, "rate bump"},
		{"zero age bump", func(c *SensitivityConfig) { c.AgeBumpYears = 0 }, "age bump"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultSensitivityConfig()
			tt.mutate(&cfg)
			err := cfg.Validate()
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
	assert.NoError(t, DefaultSensitivityConfig().Validate())
}

func TestNewSensitivityAnalyzerValidation(t *testing.T) {
	engine := EngineConfig{Paths: 100, Seed: 42}

	zeroVol := benchmarkInput()
	zeroVol.Volatility = 0
	_, err := NewSensitivityAnalyzer(zeroVol, Models{}, engine, DefaultSensitivityConfig())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "positive volatility")

	oldAge := benchmarkInput()
	oldAge.Age = 96
	_, err = NewSensitivityAnalyzer(oldAge, Models{}, engine, DefaultSensitivityConfig())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "beyond max age")

	badEngine := EngineConfig{Paths: 0, Seed: 42}
	_, err = NewSensitivityAnalyzer(benchmarkInput(), Models{}, badEngine, DefaultSensitivityConfig())
	require.Error(t, err)
}

// 公共随机数下波动率敏感性应为正：更高波动率抬升保证成本
func TestAnalyzeVolSensitivityPositive(t *testing.T) {
	analyzer, err := NewSensitivityAnalyzer(benchmarkInput(), Models{},
		EngineConfig{Paths: 2000, Seed: 42}, DefaultSensitivityConfig())
	require.NoError(t, err)

	result, err := analyzer.Analyze(context.Background())
	require.NoError(t, err)

	require.NotNil(t, result.Base)
	assert.Greater(t, result.Base.GuaranteeCost, 0.0)
	assert.Greater(t, result.VolSensitivity, 0.0)
	assert.Equal(t, DefaultSensitivityConfig(), result.Config)
}

// 利率低于扰动幅度时退化为前向差分，不产生负利率评估
func TestAnalyzeLowRateForwardDifference(t *testing.T) {
	input := benchmarkInput()
	input.Rate = 0.005

	cfg := DefaultSensitivityConfig()
	analyzer, err := NewSensitivityAnalyzer(input, Models{}, EngineConfig{Paths: 500, Seed: 42}, cfg)
	require.NoError(t, err)

	result, err := analyzer.Analyze(context.Background())
	require.NoError(t, err)
	assert.False(t, result.RateSensitivity == 0 && result.Base.GuaranteeCost > 0,
		"forward difference should still produce a rate sensitivity")
}

func TestAnalyzeCancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	analyzer, err := NewSensitivityAnalyzer(benchmarkInput(), Models{},
		EngineConfig{Paths: 500, Seed: 42}, DefaultSensitivityConfig())
	require.NoError(t, err)

	_, err = analyzer.Analyze(ctx)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "interrupted")
}
