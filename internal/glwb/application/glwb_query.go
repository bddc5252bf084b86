package application

import (
	"context"
	"errors"
	"fmt"

	"github.com/wyfcoding/annuitypricing/internal/glwb/domain"
)

// GLWBQueryService 处理估值相关的查询操作。
// 历史查询走仓储读路径，费率曲面与收敛性研究是纯计算查询，
// 不落库、不发事件。
type GLWBQueryService struct {
	repo      domain.ValuationRepository
	summaries domain.PolicySummaryRepository
	defaults  SimulationDefaults
}

// NewGLWBQueryService 创建新的 GLWBQueryService 实例
func NewGLWBQueryService(repo domain.ValuationRepository, summaries domain.PolicySummaryRepository, defaults SimulationDefaults) *GLWBQueryService {
	return &GLWBQueryService{repo: repo, summaries: summaries, defaults: defaults}
}

// GetPolicySummary 读取事件投影出的保单读模型
func (q *GLWBQueryService) GetPolicySummary(ctx context.Context, policyID string) (*domain.PolicySummary, error) {
	if policyID == "" {
		return nil, errors.New("policy id is required")
	}
	return q.summaries.Get(ctx, policyID)
}

// GetLatestValuation 查询保单最近一次估值
func (q *GLWBQueryService) GetLatestValuation(ctx context.Context, policyID string) (*ValuationDTO, error) {
	if policyID == "" {
		return nil, errors.New("policy id is required")
	}
	v, err := q.repo.GetLatest(ctx, policyID)
	if err != nil {
		return nil, err
	}
	if v == nil {
		return nil, nil
	}
	return toValuationDTO(v), nil
}

// GetValuationHistory 查询保单估值历史，按时间倒序
func (q *GLWBQueryService) GetValuationHistory(ctx context.Context, policyID string, limit int) ([]*ValuationDTO, error) {
	if policyID == "" {
		return nil, errors.New("policy id is required")
	}
	if limit <= 0 {
		limit = 20
	}
	history, err := q.repo.GetHistory(ctx, policyID, limit)
	if err != nil {
		return nil, err
	}
	dtos := make([]*ValuationDTO, 0, len(history))
	for _, v := range history {
		dtos = append(dtos, toValuationDTO(v))
	}
	return dtos, nil
}

// FeeSurface 计算年龄 × 费率网格上的保证成本曲面。
// 各格点复用同一随机种子，曲面差异只反映参数变化。
func (q *GLWBQueryService) FeeSurface(ctx context.Context, query FeeSurfaceQuery) (*FeeSurfaceDTO, error) {
	if len(query.Ages) == 0 || len(query.FeeRates) == 0 {
		return nil, errors.New("fee surface requires at least one age and one fee rate")
	}
	out := &FeeSurfaceDTO{Points: make([]FeeSurfacePointDTO, 0, len(query.Ages)*len(query.FeeRates))}
	for _, age := range query.Ages {
		for _, fee := range query.FeeRates {
			cmd := query.Base
			cmd.Age = age
			cmd.FeeRate = fee
			input := toPricingInput(cmd, q.defaults)
			engineCfg := toEngineConfig(cmd, q.defaults)

			engine, err := domain.NewMonteCarloEngine(input, domain.Models{}, engineCfg)
			if err != nil {
				return nil, fmt.Errorf("surface point age=%d fee=%v: %w", age, fee, err)
			}
			result, err := engine.Run(ctx)
			if err != nil {
				return nil, fmt.Errorf("surface point age=%d fee=%v: %w", age, fee, err)
			}
			if result.Partial {
				return nil, fmt.Errorf("surface point age=%d fee=%v interrupted: %w", age, fee, ctx.Err())
			}
			out.Points = append(out.Points, FeeSurfacePointDTO{
				Age:           age,
				FeeRate:       fee,
				GuaranteeCost: result.GuaranteeCost,
				NetCost:       result.NetCost(),
				ProbRuin:      result.ProbRuin,
			})
		}
	}
	return out, nil
}

// ConvergenceStudy 在递增的路径数下重复定价，验证标准误收敛
func (q *GLWBQueryService) ConvergenceStudy(ctx context.Context, query ConvergenceQuery) (*ConvergenceDTO, error) {
	if len(query.PathCounts) == 0 {
		return nil, errors.New("convergence study requires at least one path count")
	}
	out := &ConvergenceDTO{Points: make([]ConvergencePointDTO, 0, len(query.PathCounts))}
	for _, paths := range query.PathCounts {
		cmd := query.Base
		cmd.Paths = paths
		input := toPricingInput(cmd, q.defaults)
		engineCfg := toEngineConfig(cmd, q.defaults)

		engine, err := domain.NewMonteCarloEngine(input, domain.Models{}, engineCfg)
		if err != nil {
			return nil, fmt.Errorf("convergence point paths=%d: %w", paths, err)
		}
		result, err := engine.Run(ctx)
		if err != nil {
			return nil, fmt.Errorf("convergence point paths=%d: %w", paths, err)
		}
		if result.Partial {
			return nil, fmt.Errorf("convergence point paths=%d interrupted: %w", paths, ctx.Err())
		}
		out.Points = append(out.Points, ConvergencePointDTO{
			Paths:         paths,
			GuaranteeCost: result.GuaranteeCost,
			StdError:      result.StdError,
		})
	}
	return out, nil
}
