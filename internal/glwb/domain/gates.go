package domain

import (
	"fmt"
	"math"
)

// GateStatus 校验门结果等级
type GateStatus string

const (
	GatePass GateStatus = "PASS"
	GateWarn GateStatus = "WARN"
	GateHalt GateStatus = "HALT"
)

// GateResult 单项校验结果
type GateResult struct {
	Name    string     `json:"name"`
	Status  GateStatus `json:"status"`
	Message string     `json:"message"`
}

// ValidationReport 定价结果的完整校验报告
type ValidationReport struct {
	Gates  []GateResult `json:"gates"`
	Status GateStatus   `json:"status"`
}

// Halted 是否存在 HALT 级问题
func (r *ValidationReport) Halted() bool { return r.Status == GateHalt }

// worst 取两个等级中更严重的一个
func worst(a, b GateStatus) GateStatus {
	rank := map[GateStatus]int{GatePass: 0, GateWarn: 1, GateHalt: 2}
	if rank[b] > rank[a] {
		return b
	}
	return a
}

// 保证成本占保费比例的合理上限，超出视为输入或模型异常
const maxPlausibleCostRatio = 0.20

// 标准误相对保证成本的告警阈值
const maxRelativeStdError = 0.05

// ValidatePricing 对定价结果执行全部校验门。
// HALT 表示结果不可用于报价，WARN 表示可用但需复核。
func ValidatePricing(result *GLWBPricingResult, premium float64) *ValidationReport {
	report := &ValidationReport{Status: GatePass}
	add := func(name string, status GateStatus, message string) {
		report.Gates = append(report.Gates, GateResult{Name: name, Status: status, Message: message})
		report.Status = worst(report.Status, status)
	}

	switch {
	case math.IsNaN(result.GuaranteeCost) || math.IsInf(result.GuaranteeCost, 0):
		add("cost_finite", GateHalt, fmt.Sprintf("guarantee cost is not finite: %v", result.GuaranteeCost))
	case result.GuaranteeCost < 0:
		add("cost_finite", GateHalt, fmt.Sprintf("guarantee cost is negative: %v", result.GuaranteeCost))
	default:
		add("cost_finite", GatePass, "guarantee cost is finite and non-negative")
	}

	if premium > 0 {
		ratio := result.GuaranteeCost / premium
		if ratio > maxPlausibleCostRatio {
			add("cost_plausible", GateHalt,
				fmt.Sprintf("guarantee cost is %.1f%% of premium, above %.0f%% plausibility bound", ratio*100, maxPlausibleCostRatio*100))
		} else {
			add("cost_plausible", GatePass, fmt.Sprintf("guarantee cost is %.2f%% of premium", ratio*100))
		}
	}

	switch {
	case math.IsNaN(result.StdError) || math.IsInf(result.StdError, 0) || result.StdError < 0:
		add("std_error", GateHalt, fmt.Sprintf("standard error is invalid: %v", result.StdError))
	case result.GuaranteeCost > 0 && result.StdError/result.GuaranteeCost > maxRelativeStdError:
		add("std_error", GateWarn,
			fmt.Sprintf("standard error is %.1f%% of guarantee cost, consider more paths", result.StdError/result.GuaranteeCost*100))
	default:
		add("std_error", GatePass, "standard error within tolerance")
	}

	if result.ProbRuin < 0 || result.ProbRuin > 1 {
		add("ruin_probability", GateHalt, fmt.Sprintf("ruin probability out of [0,1]: %v", result.ProbRuin))
	} else {
		add("ruin_probability", GatePass, fmt.Sprintf("ruin probability %.4f", result.ProbRuin))
	}

	if result.Partial {
		add("completeness", GateWarn,
			fmt.Sprintf("result covers %d of %d requested paths", result.CompletedPaths, result.RequestedPaths))
	} else {
		add("completeness", GatePass, "all requested paths completed")
	}

	return report
}
