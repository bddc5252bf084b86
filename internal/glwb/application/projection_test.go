package application

import (
	"context"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wyfcoding/annuitypricing/internal/glwb/domain"
)

func newProjection(t *testing.T) (*GLWBProjectionService, *fakeSummaryRepo) {
	t.Helper()
	summaries := newFakeSummaryRepo()
	return NewGLWBProjectionService(summaries, slog.Default()), summaries
}

func TestApplyPricedCreatesSummary(t *testing.T) {
	svc, _ := newProjection(t)
	ctx := context.Background()

	err := svc.ApplyPriced(ctx, domain.GLWBPricedEvent{
		PolicyID:      "POL-001",
		GuaranteeCost: 4200,
		ProbRuin:      0.11,
		GateStatus:    domain.GatePass,
		CalculatedAt:  1000,
	})
	require.NoError(t, err)

	summary, err := svc.GetSummary(ctx, "POL-001")
	require.NoError(t, err)
	require.NotNil(t, summary)
	assert.Equal(t, 4200.0, summary.LatestGuaranteeCost)
	assert.Equal(t, 0.11, summary.LatestProbRuin)
	assert.Equal(t, string(domain.ValuationTypePrice), summary.LastValuationType)
	assert.Equal(t, domain.GatePass, summary.LastGateStatus)
	assert.Equal(t, int64(1000), summary.CalculatedAt)
}

// 乱序到达的旧事件不得覆盖新读模型
func TestApplyPricedSkipsStaleEvents(t *testing.T) {
	svc, _ := newProjection(t)
	ctx := context.Background()

	require.NoError(t, svc.ApplyPriced(ctx, domain.GLWBPricedEvent{
		PolicyID: "POL-001", GuaranteeCost: 5000, CalculatedAt: 2000,
	}))
	require.NoError(t, svc.ApplyPriced(ctx, domain.GLWBPricedEvent{
		PolicyID: "POL-001", GuaranteeCost: 1, CalculatedAt: 1000,
	}))

	summary, err := svc.GetSummary(ctx, "POL-001")
	require.NoError(t, err)
	assert.Equal(t, 5000.0, summary.LatestGuaranteeCost)
	assert.Equal(t, int64(2000), summary.CalculatedAt)
}

func TestApplyFairFeeSolvedUpdatesFee(t *testing.T) {
	svc, _ := newProjection(t)
	ctx := context.Background()

	require.NoError(t, svc.ApplyFairFeeSolved(ctx, domain.FairFeeSolvedEvent{
		PolicyID:      "POL-001",
		FairFee:       0.0093,
		GuaranteeCost: 3800,
		CalculatedAt:  1500,
	}))

	summary, err := svc.GetSummary(ctx, "POL-001")
	require.NoError(t, err)
	assert.Equal(t, 0.0093, summary.LatestFairFee)
	assert.Equal(t, 3800.0, summary.LatestGuaranteeCost)
	assert.Equal(t, string(domain.ValuationTypeFairFee), summary.LastValuationType)
}

func TestApplySensitivityUpdatesGreeks(t *testing.T) {
	svc, _ := newProjection(t)
	ctx := context.Background()

	require.NoError(t, svc.ApplySensitivity(ctx, domain.SensitivityCalculatedEvent{
		PolicyID:        "POL-001",
		GuaranteeCost:   4100,
		VolSensitivity:  52000,
		RateSensitivity: -31000,
		AgePerYear:      -90,
		CalculatedAt:    1800,
	}))

	summary, err := svc.GetSummary(ctx, "POL-001")
	require.NoError(t, err)
	assert.Equal(t, 52000.0, summary.VolSensitivity)
	assert.Equal(t, -31000.0, summary.RateSensitivity)
	assert.Equal(t, -90.0, summary.AgePerYear)
}

// 失败事件只累积计数，不参与时间戳比较
func TestApplyFailedIncrementsCount(t *testing.T) {
	svc, _ := newProjection(t)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		require.NoError(t, svc.ApplyFailed(ctx, domain.PricingFailedEvent{
			PolicyID: "POL-001",
			Reason:   "premium must be positive",
		}))
	}

	summary, err := svc.GetSummary(ctx, "POL-001")
	require.NoError(t, err)
	assert.Equal(t, 3, summary.FailureCount)
	assert.Equal(t, "premium must be positive", summary.LastError)
}

// 同一保单的不同估值类型事件互不覆盖各自的专有字段
func TestProjectionMergesAcrossEventTypes(t *testing.T) {
	svc, _ := newProjection(t)
	ctx := context.Background()

	require.NoError(t, svc.ApplyPriced(ctx, domain.GLWBPricedEvent{
		PolicyID: "POL-001", GuaranteeCost: 4200, ProbRuin: 0.11, CalculatedAt: 1000,
	}))
	require.NoError(t, svc.ApplyFairFeeSolved(ctx, domain.FairFeeSolvedEvent{
		PolicyID: "POL-001", FairFee: 0.009, GuaranteeCost: 4150, CalculatedAt: 2000,
	}))

	summary, err := svc.GetSummary(ctx, "POL-001")
	require.NoError(t, err)
	assert.Equal(t, 0.009, summary.LatestFairFee)
	assert.Equal(t, 0.11, summary.LatestProbRuin, "pricing fields survive later fair fee events")
	assert.Equal(t, 4150.0, summary.LatestGuaranteeCost)
}
