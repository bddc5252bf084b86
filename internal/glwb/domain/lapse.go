package domain

import (
	"fmt"
	"math"
)

// LapseModel 退保模型接口，返回年化退保率。
// 模型为策略状态的纯函数，无内部状态。
type LapseModel interface {
	AnnualRate(av, gwb float64, surrenderComplete bool) (float64, error)
}

// StaticLapse 固定年化退保率
type StaticLapse struct {
	Rate float64
}

// NewStaticLapse 创建固定退保率模型
func NewStaticLapse(rate float64) (*StaticLapse, error) {
	if rate < 0 || rate > 1 {
		return nil, fmt.Errorf("lapse rate must be in [0,1], got %v", rate)
	}
	return &StaticLapse{Rate: rate}, nil
}

// AnnualRate 返回固定退保率
func (s *StaticLapse) AnnualRate(av, gwb float64, surrenderComplete bool) (float64, error) {
	return s.Rate, nil
}

// LapseAssumptions 动态退保假设（假设层参数，未经经验校准）
type LapseAssumptions struct {
	// 基础年化退保率
	BaseAnnualLapse float64
	// 动态退保率下限
	MinLapse float64
	// 动态退保率上限
	MaxLapse float64
	// 退保率对 moneyness 的敏感度
	Sensitivity float64
}

// DefaultLapseAssumptions 默认动态退保假设
func DefaultLapseAssumptions() LapseAssumptions {
	return LapseAssumptions{
		BaseAnnualLapse: 0.05,
		MinLapse:        0.01,
		MaxLapse:        0.25,
		Sensitivity:     1.0,
	}
}

// DynamicLapse 基于 moneyness 的动态退保模型。
// 保证价内（AV < GWB）时退保率下调，价外时上调；
// 退保锁定期内基础退保率打 2 折。
type DynamicLapse struct {
	assumptions LapseAssumptions
}

// NewDynamicLapse 创建动态退保模型
func NewDynamicLapse(a LapseAssumptions) (*DynamicLapse, error) {
	if a.BaseAnnualLapse < 0 || a.BaseAnnualLapse > 1 {
		return nil, fmt.Errorf("base annual lapse must be in [0,1], got %v", a.BaseAnnualLapse)
	}
	if a.MinLapse < 0 || a.MaxLapse > 1 || a.MinLapse > a.MaxLapse {
		return nil, fmt.Errorf("invalid lapse bounds [%v, %v]", a.MinLapse, a.MaxLapse)
	}
	if a.Sensitivity < 0 {
		return nil, fmt.Errorf("lapse sensitivity cannot be negative, got %v", a.Sensitivity)
	}
	return &DynamicLapse{assumptions: a}, nil
}

// Moneyness 账户价值与保证基数之比。
// AV 耗尽返回 0，无保证基数时返回 1（退回基础退保率）。
func Moneyness(av, gwb float64) float64 {
	if av <= 0 {
		return 0
	}
	if gwb <= 0 {
		return 1
	}
	return av / gwb
}

// AnnualRate 计算动态退保率：base * moneyness^sensitivity，钳制在 [min, max]
func (d *DynamicLapse) AnnualRate(av, gwb float64, surrenderComplete bool) (float64, error) {
	base := d.assumptions.BaseAnnualLapse
	if !surrenderComplete {
		// 退保费用期内退保行为大幅受抑
		base *= 0.2
	}
	factor := math.Pow(Moneyness(av, gwb), d.assumptions.Sensitivity)
	rate := base * factor
	rate = math.Min(math.Max(rate, d.assumptions.MinLapse), d.assumptions.MaxLapse)
	return rate, nil
}

// SurvivalProbabilities 根据逐期年化退保率序列计算累计存续概率。
// 返回长度 len(rates)+1 的序列，首项为 1。
func SurvivalProbabilities(rates []float64, dt float64) []float64 {
	survival := make([]float64, len(rates)+1)
	survival[0] = 1.0
	for t, rate := range rates {
		stay := 1.0 - PeriodProbability(rate, dt)
		survival[t+1] = survival[t] * math.Max(stay, 0)
	}
	return survival
}
