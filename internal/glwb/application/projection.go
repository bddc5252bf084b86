package application

import (
	"context"
	"log/slog"
	"time"

	"github.com/wyfcoding/annuitypricing/internal/glwb/domain"
)

// GLWBProjectionService 将估值事件投影为保单读模型
type GLWBProjectionService struct {
	summaries domain.PolicySummaryRepository
	logger    *slog.Logger
}

// NewGLWBProjectionService 创建投影服务
func NewGLWBProjectionService(summaries domain.PolicySummaryRepository, logger *slog.Logger) *GLWBProjectionService {
	return &GLWBProjectionService{summaries: summaries, logger: logger}
}

// loadOrInit 读取现有读模型，不存在时初始化
func (s *GLWBProjectionService) loadOrInit(ctx context.Context, policyID string) (*domain.PolicySummary, error) {
	summary, err := s.summaries.Get(ctx, policyID)
	if err != nil {
		return nil, err
	}
	if summary == nil {
		summary = &domain.PolicySummary{PolicyID: policyID}
	}
	return summary, nil
}

// ApplyPriced 投影保证成本定价事件
func (s *GLWBProjectionService) ApplyPriced(ctx context.Context, event domain.GLWBPricedEvent) error {
	summary, err := s.loadOrInit(ctx, event.PolicyID)
	if err != nil {
		return err
	}
	// 乱序事件：旧于当前读模型的直接丢弃
	if event.CalculatedAt < summary.CalculatedAt {
		s.logger.DebugContext(ctx, "skipping stale pricing event", "policy_id", event.PolicyID)
		return nil
	}
	summary.LatestGuaranteeCost = event.GuaranteeCost
	summary.LatestProbRuin = event.ProbRuin
	summary.LastValuationType = string(domain.ValuationTypePrice)
	summary.LastGateStatus = event.GateStatus
	summary.CalculatedAt = event.CalculatedAt
	summary.UpdatedAt = time.Now()
	return s.summaries.Upsert(ctx, summary)
}

// ApplyFairFeeSolved 投影公平费率求解事件
func (s *GLWBProjectionService) ApplyFairFeeSolved(ctx context.Context, event domain.FairFeeSolvedEvent) error {
	summary, err := s.loadOrInit(ctx, event.PolicyID)
	if err != nil {
		return err
	}
	if event.CalculatedAt < summary.CalculatedAt {
		s.logger.DebugContext(ctx, "skipping stale fair fee event", "policy_id", event.PolicyID)
		return nil
	}
	summary.LatestGuaranteeCost = event.GuaranteeCost
	summary.LatestFairFee = event.FairFee
	summary.LastValuationType = string(domain.ValuationTypeFairFee)
	summary.CalculatedAt = event.CalculatedAt
	summary.UpdatedAt = time.Now()
	return s.summaries.Upsert(ctx, summary)
}

// ApplySensitivity 投影敏感性分析事件
func (s *GLWBProjectionService) ApplySensitivity(ctx context.Context, event domain.SensitivityCalculatedEvent) error {
	summary, err := s.loadOrInit(ctx, event.PolicyID)
	if err != nil {
		return err
	}
	if event.CalculatedAt < summary.CalculatedAt {
		s.logger.DebugContext(ctx, "skipping stale sensitivity event", "policy_id", event.PolicyID)
		return nil
	}
	summary.LatestGuaranteeCost = event.GuaranteeCost
	summary.VolSensitivity = event.VolSensitivity
	summary.RateSensitivity = event.RateSensitivity
	summary.AgePerYear = event.AgePerYear
	summary.LastValuationType = string(domain.ValuationTypeSensitivity)
	summary.CalculatedAt = event.CalculatedAt
	summary.UpdatedAt = time.Now()
	return s.summaries.Upsert(ctx, summary)
}

// ApplyFailed 投影估值失败事件，失败计数只增不减
func (s *GLWBProjectionService) ApplyFailed(ctx context.Context, event domain.PricingFailedEvent) error {
	summary, err := s.loadOrInit(ctx, event.PolicyID)
	if err != nil {
		return err
	}
	summary.FailureCount++
	summary.LastError = event.Reason
	summary.UpdatedAt = time.Now()
	return s.summaries.Upsert(ctx, summary)
}

// GetSummary 读取保单读模型
func (s *GLWBProjectionService) GetSummary(ctx context.Context, policyID string) (*domain.PolicySummary, error) {
	return s.summaries.Get(ctx, policyID)
}
