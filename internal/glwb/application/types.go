package application

import (
	"time"

	"github.com/wyfcoding/annuitypricing/internal/glwb/domain"
)

// PriceGLWBCommand 保证成本定价命令。
// 模拟控制字段（Paths/Seed/StepsPerYear/MaxAge）为零值时
// 使用服务级默认配置。
type PriceGLWBCommand struct {
	PolicyID              string
	Premium               float64
	Age                   int
	Rate                  float64
	Volatility            float64
	FeeRate               float64
	FeeBasis              string
	RollupType            string
	RollupRate            float64
	RollupCapYears        int
	RatchetEnabled        bool
	RatchetFrequencyYears int
	WithdrawalRate        float64
	DeferralYears         int
	SurrenderYears        int
	SurrenderLock         bool
	BehavioralModels      bool
	UtilizationOverride   *float64
	Paths                 int
	Seed                  *uint64
	Antithetic            *bool
	StepsPerYear          int
	MaxAge                int
}

// SolveFairFeeCommand 公平费率求解命令
type SolveFairFeeCommand struct {
	PriceGLWBCommand
	LowFee  float64
	HighFee float64
}

// SensitivityCommand 敏感性分析命令
type SensitivityCommand struct {
	PriceGLWBCommand
}

// FeeSurfaceQuery 费率曲面查询：年龄 × 费率网格上的保证成本
type FeeSurfaceQuery struct {
	Base     PriceGLWBCommand
	Ages     []int
	FeeRates []float64
}

// ConvergenceQuery 收敛性研究查询：不同路径数下的标准误
type ConvergenceQuery struct {
	Base       PriceGLWBCommand
	PathCounts []int
}

// ValuationDTO 估值结果 DTO
type ValuationDTO struct {
	ID            uint      `json:"id"`
	PolicyID      string    `json:"policy_id"`
	Type          string    `json:"type"`
	Premium       string    `json:"premium"`
	Age           int       `json:"age"`
	Rate          string    `json:"rate"`
	Volatility    string    `json:"volatility"`
	FeeRate       string    `json:"fee_rate"`
	GuaranteeCost string    `json:"guarantee_cost"`
	StdError      string    `json:"std_error"`
	ProbRuin      string    `json:"prob_ruin"`
	FairFee       string    `json:"fair_fee"`
	Paths         int       `json:"paths"`
	Seed          uint64    `json:"seed"`
	Partial       bool      `json:"partial"`
	GateStatus    string    `json:"gate_status"`
	CalculatedAt  int64     `json:"calculated_at"`
	CreatedAt     time.Time `json:"created_at"`
}

// PricingDTO 定价操作的完整响应
type PricingDTO struct {
	Valuation  *ValuationDTO            `json:"valuation"`
	Statistics *PricingStatisticsDTO    `json:"statistics"`
	Validation *domain.ValidationReport `json:"validation"`
}

// PricingStatisticsDTO 模拟统计量 DTO
type PricingStatisticsDTO struct {
	GuaranteeCost     float64 `json:"guarantee_cost"`
	StdDev            float64 `json:"std_dev"`
	StdError          float64 `json:"std_error"`
	MeanPVWithdrawals float64 `json:"mean_pv_withdrawals"`
	MeanPVRiderFees   float64 `json:"mean_pv_rider_fees"`
	MeanPVExpenses    float64 `json:"mean_pv_expenses"`
	MeanFinalAV       float64 `json:"mean_final_av"`
	ProbRuin          float64 `json:"prob_ruin"`
	MeanRuinYears     float64 `json:"mean_ruin_years"`
	ProbLapse         float64 `json:"prob_lapse"`
	MeanLapseYears    float64 `json:"mean_lapse_years"`
	ProbDeath         float64 `json:"prob_death"`
	CompletedPaths    int     `json:"completed_paths"`
	RequestedPaths    int     `json:"requested_paths"`
	Partial           bool    `json:"partial"`
}

// FairFeeDTO 公平费率求解响应
type FairFeeDTO struct {
	Valuation  *ValuationDTO         `json:"valuation"`
	FairFee    float64               `json:"fair_fee"`
	NetCost    float64               `json:"net_cost"`
	Iterations int                   `json:"iterations"`
	Statistics *PricingStatisticsDTO `json:"statistics"`
}

// SensitivityDTO 敏感性分析响应
type SensitivityDTO struct {
	Valuation       *ValuationDTO         `json:"valuation"`
	VolSensitivity  float64               `json:"vol_sensitivity"`
	RateSensitivity float64               `json:"rate_sensitivity"`
	AgePerYear      float64               `json:"age_per_year"`
	Statistics      *PricingStatisticsDTO `json:"statistics"`
}

// FeeSurfacePointDTO 费率曲面上的一个点
type FeeSurfacePointDTO struct {
	Age           int     `json:"age"`
	FeeRate       float64 `json:"fee_rate"`
	GuaranteeCost float64 `json:"guarantee_cost"`
	NetCost       float64 `json:"net_cost"`
	ProbRuin      float64 `json:"prob_ruin"`
}

// FeeSurfaceDTO 费率曲面响应
type FeeSurfaceDTO struct {
	Points []FeeSurfacePointDTO `json:"points"`
}

// ConvergencePointDTO 收敛性研究中的一个样本量
type ConvergencePointDTO struct {
	Paths         int     `json:"paths"`
	GuaranteeCost float64 `json:"guarantee_cost"`
	StdError      float64 `json:"std_error"`
}

// ConvergenceDTO 收敛性研究响应
type ConvergenceDTO struct {
	Points []ConvergencePointDTO `json:"points"`
}

func toValuationDTO(v *domain.Valuation) *ValuationDTO {
	if v == nil {
		return nil
	}
	return &ValuationDTO{
		ID:            v.ID,
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
		CreatedAt:     v.CreatedAt,
	}
}

func toStatisticsDTO(r *domain.GLWBPricingResult) *PricingStatisticsDTO {
	if r == nil {
		return nil
	}
	return &PricingStatisticsDTO{
		GuaranteeCost:     r.GuaranteeCost,
		StdDev:            r.StdDev,
		StdError:          r.StdError,
		MeanPVWithdrawals: r.MeanPVWithdrawals,
		MeanPVRiderFees:   r.MeanPVRiderFees,
		MeanPVExpenses:    r.MeanPVExpenses,
		MeanFinalAV:       r.MeanFinalAV,
		ProbRuin:          r.ProbRuin,
		MeanRuinYears:     r.MeanRuinYears,
		ProbLapse:         r.ProbLapse,
		MeanLapseYears:    r.MeanLapseYears,
		ProbDeath:         r.ProbDeath,
		CompletedPaths:    r.CompletedPaths,
		RequestedPaths:    r.RequestedPaths,
		Partial:           r.Partial,
	}
}
