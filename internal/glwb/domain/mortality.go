package domain

import (
	"fmt"
	"math"
)

// MortalityProvider 死亡率提供者接口，映射年龄到年化死亡率 qx
type MortalityProvider interface {
	AnnualRate(age int) (float64, error)
}

// GompertzMortality 参数化死亡率曲线 qx = Level * e^(Slope*age)，封顶 1.0。
// 默认参数为简化的美国生命表近似。
type GompertzMortality struct {
	Level float64
	Slope float64
}

// DefaultMortality 默认死亡率曲线
func DefaultMortality() *GompertzMortality {
	return &GompertzMortality{Level: 1e-4, Slope: 0.08}
}

// NewGompertzMortality 创建参数化死亡率曲线
func NewGompertzMortality(level, slope float64) (*GompertzMortality, error) {
	if level < 0 {
		return nil, fmt.Errorf("mortality level cannot be negative, got %v", level)
	}
	if slope < 0 {
		return nil, fmt.Errorf("mortality slope cannot be negative, got %v", slope)
	}
	return &GompertzMortality{Level: level, Slope: slope}, nil
}

// AnnualRate 返回年化死亡率
func (m *GompertzMortality) AnnualRate(age int) (float64, error) {
	if age < 0 {
		return 0, fmt.Errorf("age cannot be negative, got %d", age)
	}
	qx := m.Level * math.Exp(m.Slope*float64(age))
	return math.Min(qx, 1.0), nil
}

// TableMortality 基于外部生命表的死亡率查表实现
type TableMortality struct {
	minAge int
	qx     []float64
}

// NewTableMortality 创建查表死亡率，qx[i] 对应年龄 minAge+i。
// 任一 qx 越出 [0,1] 视为数据错误。
func NewTableMortality(minAge int, qx []float64) (*TableMortality, error) {
	if minAge < 0 {
		return nil, fmt.Errorf("table min age cannot be negative, got %d", minAge)
	}
	if len(qx) == 0 {
		return nil, fmt.Errorf("mortality table must not be empty")
	}
	for i, q := range qx {
		if q < 0 || q > 1 {
			return nil, fmt.Errorf("mortality rate out of [0,1] at age %d: %v", minAge+i, q)
		}
	}
	rates := make([]float64, len(qx))
	copy(rates, qx)
	return &TableMortality{minAge: minAge, qx: rates}, nil
}

// MinAge 生命表起始年龄
func (t *TableMortality) MinAge() int { return t.minAge }

// MaxAge 生命表终止年龄
func (t *TableMortality) MaxAge() int { return t.minAge + len(t.qx) - 1 }

// AnnualRate 查表返回年化死亡率，年龄越界报错
func (t *TableMortality) AnnualRate(age int) (float64, error) {
	if age < t.minAge || age > t.MaxAge() {
		return 0, fmt.Errorf("age %d outside mortality table range [%d, %d]", age, t.minAge, t.MaxAge())
	}
	return t.qx[age-t.minAge], nil
}

// PeriodProbability 将年化概率转换为步长 dt 内的概率：1 - (1-q)^dt
func PeriodProbability(annualRate, dt float64) float64 {
	if annualRate <= 0 {
		return 0
	}
	if annualRate >= 1 {
		return 1
	}
	return 1 - math.Pow(1-annualRate, dt)
}
