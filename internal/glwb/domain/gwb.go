package domain

import (
	"fmt"
	"math"
)

// RollupType 保证基数滚存类型
type RollupType string

const (
	RollupNone     RollupType = "NONE"     // 不滚存
	RollupSimple   RollupType = "SIMPLE"   // 单利滚存
	RollupCompound RollupType = "COMPOUND" // 复利滚存
)

// FeeBasis 附加险费用计提基础
type FeeBasis string

const (
	FeeBasisAccountValue  FeeBasis = "ACCOUNT_VALUE"  // 按账户价值计提
	FeeBasisGuaranteeBase FeeBasis = "GUARANTEE_BASE" // 按保证基数计提
)

// GWBConfig 保证基数机制配置。
// 不可变值对象，构造一次后在所有路径间只读共享。
type GWBConfig struct {
	// 滚存类型
	RollupType RollupType
	// 年化滚存率
	RollupRate float64
	// 滚存年限上限，0 表示不设上限
	RollupCapYears int
	// 是否启用棘轮（高水位锁定）
	RatchetEnabled bool
	// 棘轮检查频率（年）
	RatchetFrequencyYears int
	// 年化保证领取率（保证基数的比例）
	WithdrawalRate float64
	// 附加险年化费用率
	FeeRate float64
	// 费用计提基础
	FeeBasis FeeBasis
}

// DefaultGWBConfig 典型 GLWB 配置：5% 复利滚存、年度棘轮、5% 领取率、1% 按账户价值计提
func DefaultGWBConfig() GWBConfig {
	return GWBConfig{
		RollupType:            RollupCompound,
		RollupRate:            0.05,
		RollupCapYears:        10,
		RatchetEnabled:        true,
		RatchetFrequencyYears: 1,
		WithdrawalRate:        0.05,
		FeeRate:               0.01,
		FeeBasis:              FeeBasisAccountValue,
	}
}

// Validate 校验配置，非法配置在构造期即拒绝
func (c GWBConfig) Validate() error {
	switch c.RollupType {
	case RollupNone, RollupSimple, RollupCompound:
	default:
		return fmt.Errorf("unknown rollup type: %q", c.RollupType)
	}
	if c.RollupRate < 0 {
		return fmt.Errorf("rollup rate cannot be negative, got %v", c.RollupRate)
	}
	if c.RollupCapYears < 0 {
		return fmt.Errorf("rollup cap years cannot be negative, got %d", c.RollupCapYears)
	}
	if c.RatchetEnabled && c.RatchetFrequencyYears <= 0 {
		return fmt.Errorf("ratchet frequency must be positive when ratchet enabled, got %d", c.RatchetFrequencyYears)
	}
	if c.WithdrawalRate < 0 || c.WithdrawalRate > 1 {
		return fmt.Errorf("withdrawal rate must be in [0,1], got %v", c.WithdrawalRate)
	}
	if c.FeeRate < 0 {
		return fmt.Errorf("fee rate cannot be negative, got %v", c.FeeRate)
	}
	switch c.FeeBasis {
	case FeeBasisAccountValue, FeeBasisGuaranteeBase:
	default:
		return fmt.Errorf("unknown fee basis: %q", c.FeeBasis)
	}
	return nil
}

// GWBTracker 保证基数状态机：滚存、棘轮与超额领取削减。
// 跟踪器本身无状态，所有方法都是对传入数值的纯函数。
type GWBTracker struct {
	config     GWBConfig
	initialGWB float64
}

// NewGWBTracker 创建保证基数跟踪器，initialGWB 通常等于保费
func NewGWBTracker(cfg GWBConfig, initialGWB float64) (*GWBTracker, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid guarantee base config: %w", err)
	}
	if initialGWB <= 0 {
		return nil, fmt.Errorf("initial guarantee base must be positive, got %v", initialGWB)
	}
	return &GWBTracker{config: cfg, initialGWB: initialGWB}, nil
}

// Config 返回配置副本
func (t *GWBTracker) Config() GWBConfig { return t.config }

// InitialGWB 初始保证基数
func (t *GWBTracker) InitialGWB() float64 { return t.initialGWB }

// Rollup 滚存一步。仅在领取开始前、且未超过滚存年限上限时生效。
// 单利按初始基数累加，复利按当前基数复合，步长按 dt 折算。
func (t *GWBTracker) Rollup(gwb, elapsedYears, dt float64, withdrawalsStarted bool) float64 {
	if withdrawalsStarted || t.config.RollupType == RollupNone {
		return gwb
	}
	if t.config.RollupCapYears > 0 && elapsedYears >= float64(t.config.RollupCapYears) {
		return gwb
	}
	switch t.config.RollupType {
	case RollupSimple:
		return gwb + t.initialGWB*t.config.RollupRate*dt
	case RollupCompound:
		return gwb * math.Pow(1+t.config.RollupRate, dt)
	default:
		return gwb
	}
}

// ShouldRatchet 按配置频率判断第 period 期末是否进行棘轮检查。
// period 为 0 起始的期序号，stepsPerYear 为每年步数。
func (t *GWBTracker) ShouldRatchet(period, stepsPerYear int) bool {
	if !t.config.RatchetEnabled {
		return false
	}
	interval := t.config.RatchetFrequencyYears * stepsPerYear
	return (period+1)%interval == 0
}

// Ratchet 棘轮到高水位：保证基数升至账户价值高点，从不下调
func (t *GWBTracker) Ratchet(gwb, av float64) float64 {
	return math.Max(gwb, av)
}

// MaxAnnualWithdrawal 当前保证基数下的年度最大保证领取额
func (t *GWBTracker) MaxAnnualWithdrawal(gwb float64) float64 {
	return gwb * t.config.WithdrawalRate
}

// ReduceForExcess 超额领取按比例削减保证基数。
// avBefore 为扣除超额部分前的账户价值；保证额度内的领取不触发削减。
func (t *GWBTracker) ReduceForExcess(gwb, avBefore, excess float64) float64 {
	if excess <= 0 || avBefore <= 0 {
		return gwb
	}
	ratio := (avBefore - excess) / avBefore
	return gwb * math.Max(ratio, 0)
}

// PeriodFee 当期附加险费用，按配置的计提基础计算
func (t *GWBTracker) PeriodFee(av, gwb, dt float64) float64 {
	if t.config.FeeRate <= 0 {
		return 0
	}
	basis := av
	if t.config.FeeBasis == FeeBasisGuaranteeBase {
		basis = gwb
	}
	if basis <= 0 {
		return 0
	}
	return basis * t.config.FeeRate * dt
}
