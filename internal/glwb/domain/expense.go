package domain

import (
	"fmt"
	"math"
)

// ExpenseModel 费用模型接口，返回当期从账户价值中扣除的费用。
// 仅在启用行为模型时生效。
type ExpenseModel interface {
	PeriodCharge(av, dt float64) float64
}

// FixedExpense 固定费用模型：按账户价值的年化比例加每年固定金额收取
type FixedExpense struct {
	// 账户价值的年化费用比例
	AnnualRate float64
	// 每年固定费用金额
	AnnualFlat float64
}

// NewFixedExpense 创建固定费用模型
func NewFixedExpense(annualRate, annualFlat float64) (*FixedExpense, error) {
	if annualRate < 0 || annualRate > 1 {
		return nil, fmt.Errorf("expense rate must be in [0,1], got %v", annualRate)
	}
	if annualFlat < 0 {
		return nil, fmt.Errorf("flat expense cannot be negative, got %v", annualFlat)
	}
	return &FixedExpense{AnnualRate: annualRate, AnnualFlat: annualFlat}, nil
}

// PeriodCharge 当期费用，不超过当前账户价值
func (e *FixedExpense) PeriodCharge(av, dt float64) float64 {
	if av <= 0 {
		return 0
	}
	charge := (av*e.AnnualRate + e.AnnualFlat) * dt
	return math.Min(charge, av)
}
