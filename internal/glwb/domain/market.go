// Package domain 包含 GLWB 附加险定价的领域模型与模拟核心。
package domain

import (
	"fmt"
	"math"
	"math/rand/v2"
)

// PathRNG 单条路径的随机数子流。
// 子流由顶层种子和路径序号确定性派生，保证串行与并行执行结果一致。
// 对偶模式下正态抽样取负，均匀抽样保持不变，用于对偶变量方差缩减。
type PathRNG struct {
	rng        *rand.Rand
	antithetic bool
}

// NewPathRNG 创建路径随机数子流
func NewPathRNG(seed, pathIndex uint64, antithetic bool) *PathRNG {
	return &PathRNG{
		rng:        rand.New(rand.NewPCG(seed, pathIndex)),
		antithetic: antithetic,
	}
}

// NormFloat64 标准正态抽样，对偶模式下取负
func (p *PathRNG) NormFloat64() float64 {
	z := p.rng.NormFloat64()
	if p.antithetic {
		return -z
	}
	return z
}

// Float64 [0,1) 均匀抽样，不受对偶模式影响
func (p *PathRNG) Float64() float64 {
	return p.rng.Float64()
}

// PathGenerator 市场路径生成器接口
type PathGenerator interface {
	// NextAV 给定当前账户价值和步长，消耗一次正态抽样，返回下一期账户价值
	NextAV(av, dt float64, rng *PathRNG) float64
}

// RiskNeutralGBM 风险中性几何布朗运动。
// AV_next = AV * exp((r - 0.5*sigma^2)*dt + sigma*sqrt(dt)*Z)
type RiskNeutralGBM struct {
	Rate       float64
	Volatility float64
}

// NewRiskNeutralGBM 创建风险中性 GBM 生成器
func NewRiskNeutralGBM(rate, volatility float64) (*RiskNeutralGBM, error) {
	if rate < 0 {
		return nil, fmt.Errorf("risk-free rate cannot be negative, got %v", rate)
	}
	if volatility < 0 {
		return nil, fmt.Errorf("volatility cannot be negative, got %v", volatility)
	}
	return &RiskNeutralGBM{Rate: rate, Volatility: volatility}, nil
}

// NextAV 演化一步账户价值，结果不为负
func (g *RiskNeutralGBM) NextAV(av, dt float64, rng *PathRNG) float64 {
	if av <= 0 {
		// 账户已耗尽后价值钉在零
		return 0
	}
	z := rng.NormFloat64()
	next := av * math.Exp((g.Rate-0.5*g.Volatility*g.Volatility)*dt+g.Volatility*math.Sqrt(dt)*z)
	return math.Max(next, 0)
}
