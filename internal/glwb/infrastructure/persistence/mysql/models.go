package mysql

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/wyfcoding/annuitypricing/internal/glwb/domain"
)

// ValuationModel MySQL 估值表映射
type ValuationModel struct {
	ID            uint      `gorm:"primaryKey;autoIncrement"`
	CreatedAt     time.Time `gorm:"column:created_at"`
	UpdatedAt     time.Time `gorm:"column:updated_at"`
	PolicyID      string    `gorm:"column:policy_id;type:varchar(64);index;not null"`
	Type          string    `gorm:"column:type;type:varchar(20);not null"`
	Premium       string    `gorm:"column:premium;type:decimal(32,18);not null"`
	Age           int       `gorm:"column:age;type:int;not null"`
	Rate          string    `gorm:"column:rate;type:decimal(32,18)"`
	Volatility    string    `gorm:"column:volatility;type:decimal(32,18)"`
	FeeRate       string    `gorm:"column:fee_rate;type:decimal(32,18)"`
	GuaranteeCost string    `gorm:"column:guarantee_cost;type:decimal(32,18)"`
	StdError      string    `gorm:"column:std_error;type:decimal(32,18)"`
	ProbRuin      string    `gorm:"column:prob_ruin;type:decimal(32,18)"`
	FairFee       string    `gorm:"column:fair_fee;type:decimal(32,18)"`
	Paths         int       `gorm:"column:paths;type:int"`
	Seed          uint64    `gorm:"column:seed;type:bigint unsigned"`
	Partial       bool      `gorm:"column:partial"`
	GateStatus    string    `gorm:"column:gate_status;type:varchar(10)"`
	CalculatedAt  int64     `gorm:"column:calculated_at;type:bigint;index;not null"`
}

func (ValuationModel) TableName() string { return "glwb_valuations" }

// mapping helpers

func toValuationModel(v *domain.Valuation) *ValuationModel {
	if v == nil {
		return nil
	}
	return &ValuationModel{
		ID:            v.ID,
		CreatedAt:     v.CreatedAt,
		UpdatedAt:     v.UpdatedAt,
		PolicyID:      v.PolicyID,
		Type:          string(v.Type),
		Premium:       v.Premium.String(),
		Age:           v.Age,
		Rate:          v.Rate.String(),
		Volatility:    v.Volatility.String(),
		FeeRate:       v.FeeRate.String(),
		GuaranteeCost: v.GuaranteeCost.String(),
		StdError:      v.StdError.String(),
		ProbRuin:      v.ProbRuin.String(),
		FairFee:       v.FairFee.String(),
		Paths:         v.Paths,
		Seed:          v.Seed,
		Partial:       v.Partial,
		GateStatus:    string(v.GateStatus),
		CalculatedAt:  v.CalculatedAt,
	}
}

func toValuation(m *ValuationModel) *domain.Valuation {
	if m == nil {
		return nil
	}
	parse := func(s string) decimal.Decimal {
		d, err := decimal.NewFromString(s)
		if err != nil {
			return decimal.Zero
		}
		return d
	}
	return &domain.Valuation{
		ID:            m.ID,
		CreatedAt:     m.CreatedAt,
		UpdatedAt:     m.UpdatedAt,
		PolicyID:      m.PolicyID,
		Type:          domain.ValuationType(m.Type),
		Premium:       parse(m.Premium),
		Age:           m.Age,
		Rate:          parse(m.Rate),
		Volatility:    parse(m.Volatility),
		FeeRate:       parse(m.FeeRate),
		GuaranteeCost: parse(m.GuaranteeCost),
		StdError:      parse(m.StdError),
		ProbRuin:      parse(m.ProbRuin),
		FairFee:       parse(m.FairFee),
		Paths:         m.Paths,
		Seed:          m.Seed,
		Partial:       m.Partial,
		GateStatus:    domain.GateStatus(m.GateStatus),
		CalculatedAt:  m.CalculatedAt,
	}
}
