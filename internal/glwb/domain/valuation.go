// 包 GLWB 附加险估值的领域模型
package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// ValuationType 估值类型
type ValuationType string

const (
	ValuationTypePrice       ValuationType = "PRICE"       // 保证成本定价
	ValuationTypeFairFee     ValuationType = "FAIR_FEE"    // 公平费率求解
	ValuationTypeSensitivity ValuationType = "SENSITIVITY" // 敏感性分析
)

// Valuation 估值结果实体。
// 模拟内部使用 float64，落库与对外展示在此边界转换为 decimal。
type Valuation struct {
	ID            uint            `json:"id"`
	CreatedAt     time.Time       `json:"created_at"`
	UpdatedAt     time.Time       `json:"updated_at"`
	PolicyID      string          `json:"policy_id"`
	Type          ValuationType   `json:"type"`
	Premium       decimal.Decimal `json:"premium"`
	Age           int             `json:"age"`
	Rate          decimal.Decimal `json:"rate"`
	Volatility    decimal.Decimal `json:"volatility"`
	FeeRate       decimal.Decimal `json:"fee_rate"`
	GuaranteeCost decimal.Decimal `json:"guarantee_cost"`
	StdError      decimal.Decimal `json:"std_error"`
	ProbRuin      decimal.Decimal `json:"prob_ruin"`
	FairFee       decimal.Decimal `json:"fair_fee"`
	Paths         int             `json:"paths"`
	Seed          uint64          `json:"seed"`
	Partial       bool            `json:"partial"`
	GateStatus    GateStatus      `json:"gate_status"`
	CalculatedAt  int64           `json:"calculated_at"`
}

// NewValuation 从定价结果构造估值实体
func NewValuation(policyID string, vtype ValuationType, input PricingInput, cfg EngineConfig, result *GLWBPricingResult, report *ValidationReport) *Valuation {
	v := &Valuation{
		PolicyID:      policyID,
		Type:          vtype,
		Premium:       decimal.NewFromFloat(input.Premium),
		Age:           input.Age,
		Rate:          decimal.NewFromFloat(input.Rate),
		Volatility:    decimal.NewFromFloat(input.Volatility),
		FeeRate:       decimal.NewFromFloat(input.GWB.FeeRate),
		GuaranteeCost: decimal.NewFromFloat(result.GuaranteeCost),
		StdError:      decimal.NewFromFloat(result.StdError),
		ProbRuin:      decimal.NewFromFloat(result.ProbRuin),
		Paths:         result.CompletedPaths,
		Seed:          cfg.Seed,
		Partial:       result.Partial,
		CalculatedAt:  time.Now().UnixMilli(),
	}
	if report != nil {
		v.GateStatus = report.Status
	}
	return v
}

// WithFairFee 记录公平费率求解结果
func (v *Valuation) WithFairFee(fee float64) *Valuation {
	v.FairFee = decimal.NewFromFloat(fee)
	return v
}
