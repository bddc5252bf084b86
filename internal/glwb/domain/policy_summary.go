package domain

import (
	"context"
	"time"
)

// PolicySummary 保单估值读模型。
// 由估值事件异步投影，供查询侧直接读取，无需回放估值历史。
type PolicySummary struct {
	PolicyID            string     `json:"policy_id"`
	LatestGuaranteeCost float64    `json:"latest_guarantee_cost"`
	LatestFairFee       float64    `json:"latest_fair_fee"`
	LatestProbRuin      float64    `json:"latest_prob_ruin"`
	VolSensitivity      float64    `json:"vol_sensitivity"`
	RateSensitivity     float64    `json:"rate_sensitivity"`
	AgePerYear          float64    `json:"age_per_year"`
	LastValuationType   string     `json:"last_valuation_type"`
	LastGateStatus      GateStatus `json:"last_gate_status"`
	FailureCount        int        `json:"failure_count"`
	LastError           string     `json:"last_error"`
	CalculatedAt        int64      `json:"calculated_at"`
	UpdatedAt           time.Time  `json:"updated_at"`
}

// PolicySummaryRepository 读模型仓储接口
type PolicySummaryRepository interface {
	Upsert(ctx context.Context, summary *PolicySummary) error
	Get(ctx context.Context, policyID string) (*PolicySummary, error)
}
