package domain

import (
	"fmt"
	"math"
)

// UtilizationModel 领取利用率模型接口。
// 返回当期实际领取额占最大保证领取额的比例。
type UtilizationModel interface {
	Utilization(age int, yearsSinceFirstWithdrawal int) (float64, error)
}

// FixedUtilization 固定利用率，用于确定性测试或调用方覆盖
type FixedUtilization struct {
	Rate float64
}

// NewFixedUtilization 创建固定利用率模型
func NewFixedUtilization(rate float64) (*FixedUtilization, error) {
	if rate < 0 || rate > 1 {
		return nil, fmt.Errorf("utilization rate must be in [0,1], got %v", rate)
	}
	return &FixedUtilization{Rate: rate}, nil
}

// Utilization 返回固定利用率
func (f *FixedUtilization) Utilization(age, yearsSinceFirstWithdrawal int) (float64, error) {
	return f.Rate, nil
}

// WithdrawalAssumptions 领取行为假设（假设层参数，默认值来自行业经验区间，
// 未经逐单校准，调用方应按自身经验数据覆盖）
type WithdrawalAssumptions struct {
	// 基础利用率
	BaseUtilization float64
	// 65 岁以上每增加一岁的利用率增量
	AgeSensitivity float64
	// 利用率下限
	MinUtilization float64
	// 利用率上限
	MaxUtilization float64
}

// DefaultWithdrawalAssumptions 默认领取行为假设
func DefaultWithdrawalAssumptions() WithdrawalAssumptions {
	return WithdrawalAssumptions{
		BaseUtilization: 0.70,
		AgeSensitivity:  0.01,
		MinUtilization:  0.30,
		MaxUtilization:  1.00,
	}
}

// AgeBasedUtilization 年龄相关的利用率模型：
// 基础利用率随年龄上调，首次领取后前三年有 70%/80%/90% 的爬坡。
type AgeBasedUtilization struct {
	assumptions WithdrawalAssumptions
}

// NewAgeBasedUtilization 创建年龄相关利用率模型
func NewAgeBasedUtilization(a WithdrawalAssumptions) (*AgeBasedUtilization, error) {
	if a.BaseUtilization < 0 || a.BaseUtilization > 1 {
		return nil, fmt.Errorf("base utilization must be in [0,1], got %v", a.BaseUtilization)
	}
	if a.MinUtilization < 0 || a.MaxUtilization > 1 || a.MinUtilization > a.MaxUtilization {
		return nil, fmt.Errorf("invalid utilization bounds [%v, %v]", a.MinUtilization, a.MaxUtilization)
	}
	if a.AgeSensitivity < 0 {
		return nil, fmt.Errorf("age sensitivity cannot be negative, got %v", a.AgeSensitivity)
	}
	return &AgeBasedUtilization{assumptions: a}, nil
}

// Utilization 计算利用率，钳制在 [min, max]
func (m *AgeBasedUtilization) Utilization(age, yearsSinceFirstWithdrawal int) (float64, error) {
	if age < 0 {
		return 0, fmt.Errorf("age cannot be negative, got %d", age)
	}
	a := m.assumptions

	utilization := a.BaseUtilization
	// 65 岁为基准年龄
	utilization += a.AgeSensitivity * math.Max(0, float64(age-65))

	if yearsSinceFirstWithdrawal < 3 {
		utilization *= 0.7 + 0.1*float64(yearsSinceFirstWithdrawal)
	}

	return math.Min(math.Max(utilization, a.MinUtilization), a.MaxUtilization), nil
}

// WithdrawalRateByAge 常见的按首次领取年龄分档的合同领取率
func WithdrawalRateByAge(age int) float64 {
	switch {
	case age < 55:
		return 0.035
	case age < 60:
		return 0.040
	case age < 65:
		return 0.045
	case age < 70:
		return 0.050
	case age < 75:
		return 0.055
	default:
		return 0.060
	}
}
