package domain

import "time"

const (
	GLWBPricedEventType            = "GLWBPriced"
	FairFeeSolvedEventType         = "FairFeeSolved"
	SensitivityCalculatedEventType = "SensitivityCalculated"
	PricingFailedEventType         = "PricingFailed"
)

// GLWBPricedEvent 保证成本定价完成事件
type GLWBPricedEvent struct {
	PolicyID      string     `json:"policy_id"`
	Premium       float64    `json:"premium"`
	Age           int        `json:"age"`
	Rate          float64    `json:"rate"`
	Volatility    float64    `json:"volatility"`
	FeeRate       float64    `json:"fee_rate"`
	GuaranteeCost float64    `json:"guarantee_cost"`
	StdError      float64    `json:"std_error"`
	ProbRuin      float64    `json:"prob_ruin"`
	MeanRuinYears float64    `json:"mean_ruin_years"`
	Paths         int        `json:"paths"`
	Seed          uint64     `json:"seed"`
	Partial       bool       `json:"partial"`
	GateStatus    GateStatus `json:"gate_status"`
	CalculatedAt  int64      `json:"calculated_at"`
	OccurredOn    time.Time  `json:"occurred_on"`
}

// FairFeeSolvedEvent 公平费率求解完成事件
type FairFeeSolvedEvent struct {
	PolicyID      string    `json:"policy_id"`
	Premium       float64   `json:"premium"`
	Age           int       `json:"age"`
	FairFee       float64   `json:"fair_fee"`
	NetCost       float64   `json:"net_cost"`
	Iterations    int       `json:"iterations"`
	GuaranteeCost float64   `json:"guarantee_cost"`
	Paths         int       `json:"paths"`
	Seed          uint64    `json:"seed"`
	CalculatedAt  int64     `json:"calculated_at"`
	OccurredOn    time.Time `json:"occurred_on"`
}

// SensitivityCalculatedEvent 敏感性分析完成事件
type SensitivityCalculatedEvent struct {
	PolicyID        string    `json:"policy_id"`
	GuaranteeCost   float64   `json:"guarantee_cost"`
	VolSensitivity  float64   `json:"vol_sensitivity"`
	RateSensitivity float64   `json:"rate_sensitivity"`
	AgePerYear      float64   `json:"age_per_year"`
	Paths           int       `json:"paths"`
	Seed            uint64    `json:"seed"`
	CalculatedAt    int64     `json:"calculated_at"`
	OccurredOn      time.Time `json:"occurred_on"`
}

// PricingFailedEvent 估值失败事件
type PricingFailedEvent struct {
	PolicyID   string    `json:"policy_id"`
	Operation  string    `json:"operation"`
	Reason     string    `json:"reason"`
	OccurredOn time.Time `json:"occurred_on"`
}
