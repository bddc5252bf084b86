package domain

import (
	"context"
	"fmt"
	"math"
)

// FairFeeConfig 公平费率二分求解参数
type FairFeeConfig struct {
	// 费率搜索下界
	LowFee float64
	// 费率搜索上界
	HighFee float64
	// 净成本收敛容差（绝对值，与保费同量纲）
	CostTolerance float64
	// 费率区间宽度容差
	FeeTolerance float64
	// 最大迭代次数
	MaxIterations int
}

// DefaultFairFeeConfig 默认求解参数
func DefaultFairFeeConfig() FairFeeConfig {
	return FairFeeConfig{
		LowFee:        0.0,
		HighFee:       0.05,
		CostTolerance: 1.0,
		FeeTolerance:  1e-6,
		MaxIterations: 60,
	}
}

// Validate 校验求解参数
func (c FairFeeConfig) Validate() error {
	if c.LowFee < 0 {
		return fmt.Errorf("low fee cannot be negative, got %v", c.LowFee)
	}
	if c.HighFee <= c.LowFee {
		return fmt.Errorf("high fee %v must exceed low fee %v", c.HighFee, c.LowFee)
	}
	if c.CostTolerance <= 0 {
		return fmt.Errorf("cost tolerance must be positive, got %v", c.CostTolerance)
	}
	if c.FeeTolerance <= 0 {
		return fmt.Errorf("fee tolerance must be positive, got %v", c.FeeTolerance)
	}
	if c.MaxIterations <= 0 {
		return fmt.Errorf("max iterations must be positive, got %d", c.MaxIterations)
	}
	return nil
}

// FairFeeResult 公平费率求解结果
type FairFeeResult struct {
	// 求得的公平附加险费率
	FairFee float64
	// 收敛时的净成本
	NetCost float64
	// 实际迭代次数
	Iterations int
	// 公平费率下的完整定价结果
	Pricing *GLWBPricingResult
}

// FairFeeSolver 用二分法求净保证成本为零的附加险费率。
// 每次评估复用同一随机种子（公共随机数），目标函数对费率
// 单调且无抽样噪声交叉，二分收敛稳定。
type FairFeeSolver struct {
	input  PricingInput
	models Models
	engine EngineConfig
	cfg    FairFeeConfig
}

// NewFairFeeSolver 创建求解器
func NewFairFeeSolver(input PricingInput, models Models, engine EngineConfig, cfg FairFeeConfig) (*FairFeeSolver, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	// 构造一次引擎验证输入本身合法
	if _, err := NewMonteCarloEngine(input, models, engine); err != nil {
		return nil, err
	}
	return &FairFeeSolver{input: input, models: models, engine: engine, cfg: cfg}, nil
}

// Solve 执行二分搜索。
// 先验证区间端点的净成本异号，再迭代至净成本或区间宽度
// 满足容差；达到最大迭代次数仍未收敛时返回错误。
func (s *FairFeeSolver) Solve(ctx context.Context) (*FairFeeResult, error) {
	low, high := s.cfg.LowFee, s.cfg.HighFee

	lowCost, _, err := s.evaluate(ctx, low)
	if err != nil {
		return nil, err
	}
	highCost, _, err := s.evaluate(ctx, high)
	if err != nil {
		return nil, err
	}
	// 净成本随费率单调下降，区间须横跨零点
	if lowCost < 0 {
		return nil, fmt.Errorf("net cost %v already negative at low fee %v: bracket does not contain fair fee", lowCost, low)
	}
	if highCost > 0 {
		return nil, fmt.Errorf("net cost %v still positive at high fee %v: bracket does not contain fair fee", highCost, high)
	}

	var (
		mid     float64
		midCost float64
		pricing *GLWBPricingResult
	)
	for iter := 1; iter <= s.cfg.MaxIterations; iter++ {
		mid = (low + high) / 2
		midCost, pricing, err = s.evaluate(ctx, mid)
		if err != nil {
			return nil, err
		}
		if math.Abs(midCost) < s.cfg.CostTolerance || high-low < s.cfg.FeeTolerance {
			return &FairFeeResult{
				FairFee:    mid,
				NetCost:    midCost,
				Iterations: iter,
				Pricing:    pricing,
			}, nil
		}
		if midCost > 0 {
			low = mid
		} else {
			high = mid
		}
	}
	return nil, fmt.Errorf("fair fee search did not converge after %d iterations: bracket [%v, %v], net cost %v",
		s.cfg.MaxIterations, low, high, midCost)
}

// evaluate 在给定费率下定价并返回净成本
func (s *FairFeeSolver) evaluate(ctx context.Context, fee float64) (float64, *GLWBPricingResult, error) {
	input := s.input
	input.GWB.FeeRate = fee

	engine, err := NewMonteCarloEngine(input, s.models, s.engine)
	if err != nil {
		return 0, nil, err
	}
	result, err := engine.Run(ctx)
	if err != nil {
		return 0, nil, fmt.Errorf("pricing at fee %v: %w", fee, err)
	}
	if result.Partial {
		return 0, nil, fmt.Errorf("pricing at fee %v interrupted: %w", fee, ctx.Err())
	}
	return result.NetCost(), result, nil
}
