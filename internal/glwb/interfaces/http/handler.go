package http

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/wyfcoding/pkg/logging"
	"github.com/wyfcoding/pkg/response"

	"github.com/wyfcoding/annuitypricing/internal/glwb/application"
)

// HTTP 处理器
// 负责处理与 GLWB 估值相关的 HTTP 请求
type GLWBHandler struct {
	cmd   *application.GLWBCommandService
	query *application.GLWBQueryService
}

// 创建 HTTP 处理器实例
func NewGLWBHandler(cmd *application.GLWBCommandService, query *application.GLWBQueryService) *GLWBHandler {
	return &GLWBHandler{cmd: cmd, query: query}
}

// 注册路由
// 将处理器方法绑定到 Gin 路由引擎
func (h *GLWBHandler) RegisterRoutes(router *gin.RouterGroup) {
	api := router.Group("/api/v1/glwb")
	{
		api.POST("/price", h.PriceGLWB)
		api.POST("/fair-fee", h.SolveFairFee)
		api.POST("/sensitivity", h.CalculateSensitivity)
		api.POST("/fee-surface", h.FeeSurface)
		api.POST("/convergence", h.ConvergenceStudy)
		api.GET("/valuations/:policy_id/latest", h.GetLatestValuation)
		api.GET("/valuations/:policy_id/history", h.GetValuationHistory)
		api.GET("/summaries/:policy_id", h.GetPolicySummary)
	}
}

// ContractRequest GLWB 合约与模拟参数
type ContractRequest struct {
	PolicyID              string   `json:"policy_id" binding:"required"`
	Premium               float64  `json:"premium" binding:"required,gt=0"`
	Age                   int      `json:"age" binding:"required,gte=0"`
	Rate                  float64  `json:"rate"`
	Volatility            float64  `json:"volatility" binding:"required,gte=0"`
	FeeRate               float64  `json:"fee_rate"`
	FeeBasis              string   `json:"fee_basis"`
	RollupType            string   `json:"rollup_type"`
	RollupRate            float64  `json:"rollup_rate"`
	RollupCapYears        int      `json:"rollup_cap_years"`
	RatchetEnabled        bool     `json:"ratchet_enabled"`
	RatchetFrequencyYears int      `json:"ratchet_frequency_years"`
	WithdrawalRate        float64  `json:"withdrawal_rate"`
	DeferralYears         int      `json:"deferral_years"`
	SurrenderYears        int      `json:"surrender_years"`
	SurrenderLock         bool     `json:"surrender_lock"`
	BehavioralModels      bool     `json:"behavioral_models"`
	UtilizationOverride   *float64 `json:"utilization_override"`
	Paths                 int      `json:"paths"`
	Seed                  *uint64  `json:"seed"`
	Antithetic            *bool    `json:"antithetic"`
	StepsPerYear          int      `json:"steps_per_year"`
	MaxAge                int      `json:"max_age"`
}

func (r *ContractRequest) toCommand() application.PriceGLWBCommand {
	return application.PriceGLWBCommand{
		PolicyID:              r.PolicyID,
		Premium:               r.Premium,
		Age:                   r.Age,
		Rate:                  r.Rate,
		Volatility:            r.Volatility,
		FeeRate:               r.FeeRate,
		FeeBasis:              r.FeeBasis,
		RollupType:            r.RollupType,
		RollupRate:            r.RollupRate,
		RollupCapYears:        r.RollupCapYears,
		RatchetEnabled:        r.RatchetEnabled,
		RatchetFrequencyYears: r.RatchetFrequencyYears,
		WithdrawalRate:        r.WithdrawalRate,
		DeferralYears:         r.DeferralYears,
		SurrenderYears:        r.SurrenderYears,
		SurrenderLock:         r.SurrenderLock,
		BehavioralModels:      r.BehavioralModels,
		UtilizationOverride:   r.UtilizationOverride,
		Paths:                 r.Paths,
		Seed:                  r.Seed,
		Antithetic:            r.Antithetic,
		StepsPerYear:          r.StepsPerYear,
		MaxAge:                r.MaxAge,
	}
}

// FairFeeRequest 公平费率求解请求
type FairFeeRequest struct {
	ContractRequest
	LowFee  float64 `json:"low_fee"`
	HighFee float64 `json:"high_fee"`
}

// FeeSurfaceRequest 费率曲面请求
type FeeSurfaceRequest struct {
	Contract ContractRequest `json:"contract" binding:"required"`
	Ages     []int           `json:"ages" binding:"required,min=1"`
	FeeRates []float64       `json:"fee_rates" binding:"required,min=1"`
}

// ConvergenceRequest 收敛性研究请求
type ConvergenceRequest struct {
	Contract   ContractRequest `json:"contract" binding:"required"`
	PathCounts []int           `json:"path_counts" binding:"required,min=1"`
}

// PriceGLWB 保证成本定价
func (h *GLWBHandler) PriceGLWB(c *gin.Context) {
	var req ContractRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ErrorWithStatus(c, http.StatusBadRequest, err.Error(), "")
		return
	}

	result, err := h.cmd.PriceGLWB(c.Request.Context(), req.toCommand())
	if err != nil {
		logging.Error(c.Request.Context(), "Failed to price GLWB rider", "policy_id", req.PolicyID, "error", err)
		response.ErrorWithStatus(c, http.StatusInternalServerError, err.Error(), "")
		return
	}
	response.Success(c, result)
}

// SolveFairFee 公平费率求解
func (h *GLWBHandler) SolveFairFee(c *gin.Context) {
	var req FairFeeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ErrorWithStatus(c, http.StatusBadRequest, err.Error(), "")
		return
	}

	result, err := h.cmd.SolveFairFee(c.Request.Context(), application.SolveFairFeeCommand{
		PriceGLWBCommand: req.toCommand(),
		LowFee:           req.LowFee,
		HighFee:          req.HighFee,
	})
	if err != nil {
		logging.Error(c.Request.Context(), "Failed to solve fair fee", "policy_id", req.PolicyID, "error", err)
		response.ErrorWithStatus(c, http.StatusInternalServerError, err.Error(), "")
		return
	}
	response.Success(c, result)
}

// CalculateSensitivity 敏感性分析
func (h *GLWBHandler) CalculateSensitivity(c *gin.Context) {
	var req ContractRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ErrorWithStatus(c, http.StatusBadRequest, err.Error(), "")
		return
	}

	result, err := h.cmd.CalculateSensitivity(c.Request.Context(), application.SensitivityCommand{
		PriceGLWBCommand: req.toCommand(),
	})
	if err != nil {
		logging.Error(c.Request.Context(), "Failed to calculate sensitivities", "policy_id", req.PolicyID, "error", err)
		response.ErrorWithStatus(c, http.StatusInternalServerError, err.Error(), "")
		return
	}
	response.Success(c, result)
}

// FeeSurface 费率曲面
func (h *GLWBHandler) FeeSurface(c *gin.Context) {
	var req FeeSurfaceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ErrorWithStatus(c, http.StatusBadRequest, err.Error(), "")
		return
	}

	result, err := h.query.FeeSurface(c.Request.Context(), application.FeeSurfaceQuery{
		Base:     req.Contract.toCommand(),
		Ages:     req.Ages,
		FeeRates: req.FeeRates,
	})
	if err != nil {
		logging.Error(c.Request.Context(), "Failed to compute fee surface", "error", err)
		response.ErrorWithStatus(c, http.StatusInternalServerError, err.Error(), "")
		return
	}
	response.Success(c, result)
}

// ConvergenceStudy 收敛性研究
func (h *GLWBHandler) ConvergenceStudy(c *gin.Context) {
	var req ConvergenceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ErrorWithStatus(c, http.StatusBadRequest, err.Error(), "")
		return
	}

	result, err := h.query.ConvergenceStudy(c.Request.Context(), application.ConvergenceQuery{
		Base:       req.Contract.toCommand(),
		PathCounts: req.PathCounts,
	})
	if err != nil {
		logging.Error(c.Request.Context(), "Failed to run convergence study", "error", err)
		response.ErrorWithStatus(c, http.StatusInternalServerError, err.Error(), "")
		return
	}
	response.Success(c, result)
}

// GetLatestValuation 查询最近一次估值
func (h *GLWBHandler) GetLatestValuation(c *gin.Context) {
	policyID := c.Param("policy_id")
	result, err := h.query.GetLatestValuation(c.Request.Context(), policyID)
	if err != nil {
		logging.Error(c.Request.Context(), "Failed to query latest valuation", "policy_id", policyID, "error", err)
		response.ErrorWithStatus(c, http.StatusInternalServerError, err.Error(), "")
		return
	}
	if result == nil {
		response.ErrorWithStatus(c, http.StatusNotFound, "valuation not found", "")
		return
	}
	response.Success(c, result)
}

// GetPolicySummary 查询保单读模型
func (h *GLWBHandler) GetPolicySummary(c *gin.Context) {
	policyID := c.Param("policy_id")
	result, err := h.query.GetPolicySummary(c.Request.Context(), policyID)
	if err != nil {
		logging.Error(c.Request.Context(), "Failed to query policy summary", "policy_id", policyID, "error", err)
		response.ErrorWithStatus(c, http.StatusInternalServerError, err.Error(), "")
		return
	}
	if result == nil {
		response.ErrorWithStatus(c, http.StatusNotFound, "policy summary not found", "")
		return
	}
	response.Success(c, result)
}

// GetValuationHistory 查询估值历史
func (h *GLWBHandler) GetValuationHistory(c *gin.Context) {
	policyID := c.Param("policy_id")
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "20"))
	result, err := h.query.GetValuationHistory(c.Request.Context(), policyID, limit)
	if err != nil {
		logging.Error(c.Request.Context(), "Failed to query valuation history", "policy_id", policyID, "error", err)
		response.ErrorWithStatus(c, http.StatusInternalServerError, err.Error(), "")
		return
	}
	response.Success(c, result)
}
