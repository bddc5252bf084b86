package application

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/wyfcoding/pkg/contextx"
	"github.com/wyfcoding/pkg/messagequeue"

	"github.com/wyfcoding/annuitypricing/internal/glwb/domain"
)

// SimulationDefaults 服务级模拟默认参数，命令未指定时生效
type SimulationDefaults struct {
	Paths        int
	Seed         uint64
	StepsPerYear int
	MaxAge       int
	Antithetic   bool
	Workers      int
}

// GLWBCommandService 处理估值相关的命令操作
// 使用 Outbox 发布领域事件
type GLWBCommandService struct {
	repo      domain.ValuationRepository
	publisher messagequeue.EventPublisher
	defaults  SimulationDefaults
}

// NewGLWBCommandService 创建新的 GLWBCommandService 实例
func NewGLWBCommandService(repo domain.ValuationRepository, publisher messagequeue.EventPublisher, defaults SimulationDefaults) *GLWBCommandService {
	return &GLWBCommandService{
		repo:      repo,
		publisher: publisher,
		defaults:  defaults,
	}
}

// toPricingInput 将命令转换为领域定价输入，零值字段回退到默认配置
func toPricingInput(cmd PriceGLWBCommand, defaults SimulationDefaults) domain.PricingInput {
	gwb := domain.DefaultGWBConfig()
	if cmd.RollupType != "" {
		gwb.RollupType = domain.RollupType(strings.ToUpper(cmd.RollupType))
	}
	if cmd.RollupRate != 0 {
		gwb.RollupRate = cmd.RollupRate
	}
	if cmd.RollupCapYears != 0 {
		gwb.RollupCapYears = cmd.RollupCapYears
	}
	gwb.RatchetEnabled = cmd.RatchetEnabled
	if cmd.RatchetFrequencyYears != 0 {
		gwb.RatchetFrequencyYears = cmd.RatchetFrequencyYears
	}
	if cmd.WithdrawalRate != 0 {
		gwb.WithdrawalRate = cmd.WithdrawalRate
	}
	gwb.FeeRate = cmd.FeeRate
	if cmd.FeeBasis != "" {
		gwb.FeeBasis = domain.FeeBasis(strings.ToUpper(cmd.FeeBasis))
	}

	input := domain.PricingInput{
		Premium:             cmd.Premium,
		Age:                 cmd.Age,
		Rate:                cmd.Rate,
		Volatility:          cmd.Volatility,
		MaxAge:              cmd.MaxAge,
		StepsPerYear:        cmd.StepsPerYear,
		DeferralYears:       cmd.DeferralYears,
		SurrenderYears:      cmd.SurrenderYears,
		SurrenderLock:       cmd.SurrenderLock,
		BehavioralModels:    cmd.BehavioralModels,
		UtilizationOverride: cmd.UtilizationOverride,
		GWB:                 gwb,
	}
	if input.MaxAge == 0 {
		input.MaxAge = defaults.MaxAge
	}
	if input.StepsPerYear == 0 {
		input.StepsPerYear = defaults.StepsPerYear
	}
	return input
}

// toEngineConfig 将命令转换为引擎控制参数
func toEngineConfig(cmd PriceGLWBCommand, defaults SimulationDefaults) domain.EngineConfig {
	cfg := domain.EngineConfig{
		Paths:      cmd.Paths,
		Seed:       defaults.Seed,
		Antithetic: defaults.Antithetic,
		Workers:    defaults.Workers,
	}
	if cfg.Paths == 0 {
		cfg.Paths = defaults.Paths
	}
	if cmd.Seed != nil {
		cfg.Seed = *cmd.Seed
	}
	if cmd.Antithetic != nil {
		cfg.Antithetic = *cmd.Antithetic
	}
	return cfg
}

// PriceGLWB 执行保证成本定价，持久化估值并发布事件
func (c *GLWBCommandService) PriceGLWB(ctx context.Context, cmd PriceGLWBCommand) (*PricingDTO, error) {
	if cmd.PolicyID == "" {
		return nil, errors.New("policy id is required")
	}
	input := toPricingInput(cmd, c.defaults)
	engineCfg := toEngineConfig(cmd, c.defaults)

	engine, err := domain.NewMonteCarloEngine(input, domain.Models{}, engineCfg)
	if err != nil {
		c.reportFailure(ctx, cmd.PolicyID, "price", err)
		return nil, err
	}
	result, err := engine.Run(ctx)
	if err != nil {
		c.reportFailure(ctx, cmd.PolicyID, "price", err)
		return nil, err
	}
	report := domain.ValidatePricing(result, input.Premium)

	valuation := domain.NewValuation(cmd.PolicyID, domain.ValuationTypePrice, input, engineCfg, result, report)
	err = c.repo.WithTx(ctx, func(txCtx context.Context) error {
		if err := c.repo.Save(txCtx, valuation); err != nil {
			return err
		}
		if c.publisher == nil {
			return nil
		}
		tx := contextx.GetTx(txCtx)
		event := domain.GLWBPricedEvent{
			PolicyID:      cmd.PolicyID,
			Premium:       input.Premium,
			Age:           input.Age,
			Rate:          input.Rate,
			Volatility:    input.Volatility,
			FeeRate:       input.GWB.FeeRate,
			GuaranteeCost: result.GuaranteeCost,
			StdError:      result.StdError,
			ProbRuin:      result.ProbRuin,
			MeanRuinYears: result.MeanRuinYears,
			Paths:         result.CompletedPaths,
			Seed:          engineCfg.Seed,
			Partial:       result.Partial,
			GateStatus:    report.Status,
			CalculatedAt:  valuation.CalculatedAt,
			OccurredOn:    time.Now(),
		}
		return c.publisher.PublishInTx(txCtx, tx, domain.GLWBPricedEventType, cmd.PolicyID, event)
	})
	if err != nil {
		return nil, err
	}

	return &PricingDTO{
		Valuation:  toValuationDTO(valuation),
		Statistics: toStatisticsDTO(result),
		Validation: report,
	}, nil
}

// SolveFairFee 求解公平附加险费率，持久化估值并发布事件
func (c *GLWBCommandService) SolveFairFee(ctx context.Context, cmd SolveFairFeeCommand) (*FairFeeDTO, error) {
	if cmd.PolicyID == "" {
		return nil, errors.New("policy id is required")
	}
	input := toPricingInput(cmd.PriceGLWBCommand, c.defaults)
	engineCfg := toEngineConfig(cmd.PriceGLWBCommand, c.defaults)

	solverCfg := domain.DefaultFairFeeConfig()
	if cmd.LowFee != 0 || cmd.HighFee != 0 {
		solverCfg.LowFee = cmd.LowFee
		solverCfg.HighFee = cmd.HighFee
	}

	solver, err := domain.NewFairFeeSolver(input, domain.Models{}, engineCfg, solverCfg)
	if err != nil {
		c.reportFailure(ctx, cmd.PolicyID, "fair_fee", err)
		return nil, err
	}
	solved, err := solver.Solve(ctx)
	if err != nil {
		c.reportFailure(ctx, cmd.PolicyID, "fair_fee", err)
		return nil, err
	}
	report := domain.ValidatePricing(solved.Pricing, input.Premium)

	solvedInput := input
	solvedInput.GWB.FeeRate = solved.FairFee
	valuation := domain.NewValuation(cmd.PolicyID, domain.ValuationTypeFairFee, solvedInput, engineCfg, solved.Pricing, report).
		WithFairFee(solved.FairFee)
	err = c.repo.WithTx(ctx, func(txCtx context.Context) error {
		if err := c.repo.Save(txCtx, valuation); err != nil {
			return err
		}
		if c.publisher == nil {
			return nil
		}
		tx := contextx.GetTx(txCtx)
		event := domain.FairFeeSolvedEvent{
			PolicyID:      cmd.PolicyID,
			Premium:       input.Premium,
			Age:           input.Age,
			FairFee:       solved.FairFee,
			NetCost:       solved.NetCost,
			Iterations:    solved.Iterations,
			GuaranteeCost: solved.Pricing.GuaranteeCost,
			Paths:         solved.Pricing.CompletedPaths,
			Seed:          engineCfg.Seed,
			CalculatedAt:  valuation.CalculatedAt,
			OccurredOn:    time.Now(),
		}
		return c.publisher.PublishInTx(txCtx, tx, domain.FairFeeSolvedEventType, cmd.PolicyID, event)
	})
	if err != nil {
		return nil, err
	}

	return &FairFeeDTO{
		Valuation:  toValuationDTO(valuation),
		FairFee:    solved.FairFee,
		NetCost:    solved.NetCost,
		Iterations: solved.Iterations,
		Statistics: toStatisticsDTO(solved.Pricing),
	}, nil
}

// CalculateSensitivity 执行敏感性分析，持久化估值并发布事件
func (c *GLWBCommandService) CalculateSensitivity(ctx context.Context, cmd SensitivityCommand) (*SensitivityDTO, error) {
	if cmd.PolicyID == "" {
		return nil, errors.New("policy id is required")
	}
	input := toPricingInput(cmd.PriceGLWBCommand, c.defaults)
	engineCfg := toEngineConfig(cmd.PriceGLWBCommand, c.defaults)

	analyzer, err := domain.NewSensitivityAnalyzer(input, domain.Models{}, engineCfg, domain.DefaultSensitivityConfig())
	if err != nil {
		c.reportFailure(ctx, cmd.PolicyID, "sensitivity", err)
		return nil, err
	}
	analysis, err := analyzer.Analyze(ctx)
	if err != nil {
		c.reportFailure(ctx, cmd.PolicyID, "sensitivity", err)
		return nil, err
	}
	report := domain.ValidatePricing(analysis.Base, input.Premium)

	valuation := domain.NewValuation(cmd.PolicyID, domain.ValuationTypeSensitivity, input, engineCfg, analysis.Base, report)
	err = c.repo.WithTx(ctx, func(txCtx context.Context) error {
		if err := c.repo.Save(txCtx, valuation); err != nil {
			return err
		}
		if c.publisher == nil {
			return nil
		}
		tx := contextx.GetTx(txCtx)
		event := domain.SensitivityCalculatedEvent{
			PolicyID:        cmd.PolicyID,
			GuaranteeCost:   analysis.Base.GuaranteeCost,
			VolSensitivity:  analysis.VolSensitivity,
			RateSensitivity: analysis.RateSensitivity,
			AgePerYear:      analysis.AgePerYear,
			Paths:           analysis.Base.CompletedPaths,
			Seed:            engineCfg.Seed,
			CalculatedAt:    valuation.CalculatedAt,
			OccurredOn:      time.Now(),
		}
		return c.publisher.PublishInTx(txCtx, tx, domain.SensitivityCalculatedEventType, cmd.PolicyID, event)
	})
	if err != nil {
		return nil, err
	}

	return &SensitivityDTO{
		Valuation:       toValuationDTO(valuation),
		VolSensitivity:  analysis.VolSensitivity,
		RateSensitivity: analysis.RateSensitivity,
		AgePerYear:      analysis.AgePerYear,
		Statistics:      toStatisticsDTO(analysis.Base),
	}, nil
}

// reportFailure 尽力发布估值失败事件，失败不影响主错误返回
func (c *GLWBCommandService) reportFailure(ctx context.Context, policyID, operation string, cause error) {
	if c.publisher == nil {
		return
	}
	event := domain.PricingFailedEvent{
		PolicyID:   policyID,
		Operation:  operation,
		Reason:     cause.Error(),
		OccurredOn: time.Now(),
	}
	_ = c.publisher.Publish(ctx, domain.PricingFailedEventType, policyID, event)
}
