package mysql

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/wyfcoding/annuitypricing/internal/glwb/domain"
)

// PolicySummaryModel MySQL 保单读模型表映射
type PolicySummaryModel struct {
	PolicyID            string    `gorm:"column:policy_id;type:varchar(64);primaryKey"`
	LatestGuaranteeCost float64   `gorm:"column:latest_guarantee_cost;type:decimal(20,8)"`
	LatestFairFee       float64   `gorm:"column:latest_fair_fee;type:decimal(20,8)"`
	LatestProbRuin      float64   `gorm:"column:latest_prob_ruin;type:decimal(20,8)"`
	VolSensitivity      float64   `gorm:"column:vol_sensitivity;type:decimal(20,8)"`
	RateSensitivity     float64   `gorm:"column:rate_sensitivity;type:decimal(20,8)"`
	AgePerYear          float64   `gorm:"column:age_per_year;type:decimal(20,8)"`
	LastValuationType   string    `gorm:"column:last_valuation_type;type:varchar(20)"`
	LastGateStatus      string    `gorm:"column:last_gate_status;type:varchar(10)"`
	FailureCount        int       `gorm:"column:failure_count;type:int"`
	LastError           string    `gorm:"column:last_error;type:text"`
	CalculatedAt        int64     `gorm:"column:calculated_at;type:bigint"`
	UpdatedAt           time.Time `gorm:"column:updated_at"`
}

func (PolicySummaryModel) TableName() string { return "glwb_policy_summaries" }

type policySummaryRepository struct {
	db *gorm.DB
}

// NewPolicySummaryRepository 创建并返回一个新的 policySummaryRepository 实例。
func NewPolicySummaryRepository(db *gorm.DB) domain.PolicySummaryRepository {
	return &policySummaryRepository{db: db}
}

func (r *policySummaryRepository) Upsert(ctx context.Context, summary *domain.PolicySummary) error {
	model := toSummaryModel(summary)
	return r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "policy_id"}},
			UpdateAll: true,
		}).
		Create(model).Error
}

func (r *policySummaryRepository) Get(ctx context.Context, policyID string) (*domain.PolicySummary, error) {
	var model PolicySummaryModel
	err := r.db.WithContext(ctx).Where("policy_id = ?", policyID).First(&model).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return toSummary(&model), nil
}

func toSummaryModel(s *domain.PolicySummary) *PolicySummaryModel {
	return &PolicySummaryModel{
		PolicyID:            s.PolicyID,
		LatestGuaranteeCost: s.LatestGuaranteeCost,
		LatestFairFee:       s.LatestFairFee,
		LatestProbRuin:      s.LatestProbRuin,
		VolSensitivity:      s.VolSensitivity,
		RateSensitivity:     s.RateSensitivity,
		AgePerYear:          s.AgePerYear,
		LastValuationType:   s.LastValuationType,
		LastGateStatus:      string(s.LastGateStatus),
		FailureCount:        s.FailureCount,
		LastError:           s.LastError,
		CalculatedAt:        s.CalculatedAt,
		UpdatedAt:           s.UpdatedAt,
	}
}

func toSummary(m *PolicySummaryModel) *domain.PolicySummary {
	return &domain.PolicySummary{
		PolicyID:            m.PolicyID,
		LatestGuaranteeCost: m.LatestGuaranteeCost,
		LatestFairFee:       m.LatestFairFee,
		LatestProbRuin:      m.LatestProbRuin,
		VolSensitivity:      m.VolSensitivity,
		RateSensitivity:     m.RateSensitivity,
		AgePerYear:          m.AgePerYear,
		LastValuationType:   m.LastValuationType,
		LastGateStatus:      domain.GateStatus(m.LastGateStatus),
		FailureCount:        m.FailureCount,
		LastError:           m.LastError,
		CalculatedAt:        m.CalculatedAt,
		UpdatedAt:           m.UpdatedAt,
	}
}
