package domain

import (
	"fmt"
	"math"
)

// PricingInput GLWB 定价输入。
// 不可变，构造一次后在所有路径间只读共享。
type PricingInput struct {
	// 初始保费，> 0
	Premium float64
	// 起始年龄
	Age int
	// 无风险利率
	Rate float64
	// 年化波动率
	Volatility float64
	// 模拟终止年龄
	MaxAge int
	// 每年模拟步数
	StepsPerYear int
	// 递延期（年），期内不发生保证领取
	DeferralYears int
	// 退保费用期（年）
	SurrenderYears int
	// 退保费用期内是否完全禁止退保
	SurrenderLock bool
	// 是否启用行为模型（退保/领取利用率/费用）
	BehavioralModels bool
	// 固定利用率覆盖，非 nil 时优先于利用率模型
	UtilizationOverride *float64
	// 保证基数机制配置
	GWB GWBConfig
}

// Validate 校验定价输入，所有配置错误在模拟开始前暴露
func (in PricingInput) Validate() error {
	if in.Premium <= 0 {
		return fmt.Errorf("premium must be positive, got %v", in.Premium)
	}
	if in.Age < 0 || in.Age >= in.MaxAge {
		return fmt.Errorf("age must be in [0, %d), got %d", in.MaxAge, in.Age)
	}
	if in.Rate < 0 {
		return fmt.Errorf("risk-free rate cannot be negative, got %v", in.Rate)
	}
	if in.Volatility < 0 {
		return fmt.Errorf("volatility cannot be negative, got %v", in.Volatility)
	}
	if in.StepsPerYear <= 0 {
		return fmt.Errorf("steps per year must be positive, got %d", in.StepsPerYear)
	}
	if in.DeferralYears < 0 {
		return fmt.Errorf("deferral years cannot be negative, got %d", in.DeferralYears)
	}
	if in.SurrenderYears < 0 {
		return fmt.Errorf("surrender years cannot be negative, got %d", in.SurrenderYears)
	}
	if in.UtilizationOverride != nil {
		if u := *in.UtilizationOverride; u < 0 || u > 1 {
			return fmt.Errorf("utilization override must be in [0,1], got %v", u)
		}
	}
	return in.GWB.Validate()
}

// Periods 模拟总期数
func (in PricingInput) Periods() int {
	return (in.MaxAge - in.Age) * in.StepsPerYear
}

// Dt 单期步长（年）
func (in PricingInput) Dt() float64 {
	return 1.0 / float64(in.StepsPerYear)
}

// Models 可插拔的减量模型集合。
// 为 nil 的成员按文档化默认值解析，测试可传入固定值实现确定性验证。
type Models struct {
	Mortality   MortalityProvider
	Lapse       LapseModel
	Utilization UtilizationModel
	Expense     ExpenseModel
}

// PathResult 单条路径的折现现金流汇总，创建后不可变
type PathResult struct {
	// 保险公司保证给付的现值（账户耗尽后）
	PVInsurerPayments float64
	// 全部领取的现值
	PVWithdrawals float64
	// 全部费用扣款的现值
	PVExpenses float64
	// 附加险费用收入的现值
	PVRiderFees float64
	// 账户耗尽的期序号，未发生为 PeriodNever
	RuinPeriod int
	// 退保的期序号，未发生为 PeriodNever
	LapsePeriod int
	// 身故的期序号，未发生为 PeriodNever
	DeathPeriod int
	// 期末账户价值
	FinalAV float64
	// 期末保证基数
	FinalGWB float64
}

// PathSimulator 单路径模拟器：将市场步进、死亡率、减量模型与保证基数
// 状态机组合成逐期循环，产出一条路径的折现现金流汇总。
type PathSimulator struct {
	input       PricingInput
	tracker     *GWBTracker
	market      PathGenerator
	mortality   MortalityProvider
	lapse       LapseModel
	utilization UtilizationModel
	expense     ExpenseModel
}

// NewPathSimulator 创建路径模拟器，解析模型默认值并做构造期校验
func NewPathSimulator(input PricingInput, models Models) (*PathSimulator, error) {
	if err := input.Validate(); err != nil {
		return nil, err
	}

	tracker, err := NewGWBTracker(input.GWB, input.Premium)
	if err != nil {
		return nil, err
	}
	market, err := NewRiskNeutralGBM(input.Rate, input.Volatility)
	if err != nil {
		return nil, err
	}

	mortality := models.Mortality
	if mortality == nil {
		mortality = DefaultMortality()
	}
	// 查表死亡率需覆盖整个模拟年龄区间
	if table, ok := mortality.(*TableMortality); ok {
		if input.Age < table.MinAge() || input.MaxAge-1 > table.MaxAge() {
			return nil, fmt.Errorf("simulation ages [%d, %d] outside mortality table range [%d, %d]",
				input.Age, input.MaxAge-1, table.MinAge(), table.MaxAge())
		}
	}

	var utilization UtilizationModel
	switch {
	case input.UtilizationOverride != nil:
		utilization, err = NewFixedUtilization(*input.UtilizationOverride)
		if err != nil {
			return nil, err
		}
	case models.Utilization != nil:
		utilization = models.Utilization
	case input.BehavioralModels:
		utilization, err = NewAgeBasedUtilization(DefaultWithdrawalAssumptions())
		if err != nil {
			return nil, err
		}
	default:
		utilization = &FixedUtilization{Rate: 1.0}
	}

	var lapse LapseModel
	var expense ExpenseModel
	if input.BehavioralModels {
		lapse = models.Lapse
		if lapse == nil {
			lapse, err = NewDynamicLapse(DefaultLapseAssumptions())
			if err != nil {
				return nil, err
			}
		}
		expense = models.Expense
	}

	return &PathSimulator{
		input:       input,
		tracker:     tracker,
		market:      market,
		mortality:   mortality,
		lapse:       lapse,
		utilization: utilization,
		expense:     expense,
	}, nil
}

// Input 返回定价输入副本
func (s *PathSimulator) Input() PricingInput { return s.input }

// SimulatePath 模拟一条完整的保单持有人轨迹。
// 每期按固定顺序执行：死亡抽样、退保抽样、费用扣减、市场步进与
// 附加险费用、保证领取、耗尽检测、保证基数更新、折现累积。
// 账户耗尽不提前退出：保险公司继续支付直至身故、退保或到达期限。
func (s *PathSimulator) SimulatePath(rng *PathRNG) (PathResult, error) {
	in := s.input
	dt := in.Dt()
	periods := in.Periods()
	state := NewPolicyState(in.Premium, in.Age)

	var pvInsurer, pvWithdrawals, pvExpenses, pvFees float64

	for t := 0; t < periods; t++ {
		elapsed := float64(t) * dt
		state.Age = in.Age + int(elapsed)

		// 1. 死亡抽样
		qx, err := s.mortality.AnnualRate(state.Age)
		if err != nil {
			return PathResult{}, err
		}
		if qx < 0 || qx > 1 {
			return PathResult{}, fmt.Errorf("mortality rate out of [0,1] at age %d: %v", state.Age, qx)
		}
		if rng.Float64() < PeriodProbability(qx, dt) {
			_ = state.MarkDead(t)
			break
		}

		// 2. 退保抽样
		surrenderComplete := elapsed >= float64(in.SurrenderYears)
		if s.lapse != nil && !(in.SurrenderLock && !surrenderComplete) {
			lapseRate, err := s.lapse.AnnualRate(state.AV, state.GWB, surrenderComplete)
			if err != nil {
				return PathResult{}, err
			}
			if lapseRate < 0 || lapseRate > 1 {
				return PathResult{}, fmt.Errorf("lapse rate out of [0,1]: %v", lapseRate)
			}
			if rng.Float64() < PeriodProbability(lapseRate, dt) {
				_ = state.MarkLapsed(t)
				break
			}
		}

		// 当期现金流统一折现到期末时点
		df := math.Exp(-in.Rate * (elapsed + dt))

		// 3. 费用扣减（仅行为模型启用时）
		if s.expense != nil && state.AV > 0 {
			charge := s.expense.PeriodCharge(state.AV, dt)
			state.AV = math.Max(state.AV-charge, 0)
			pvExpenses += charge * df
		}

		// 4. 市场步进与附加险费用
		state.AV = s.market.NextAV(state.AV, dt, rng)
		if fee := s.tracker.PeriodFee(state.AV, state.GWB, dt); fee > 0 {
			charged := math.Min(fee, state.AV)
			state.AV -= charged
			pvFees += charged * df
		}

		// 5. 保证领取
		pastDeferral := elapsed >= float64(in.DeferralYears)
		if pastDeferral {
			if state.Phase == PhaseAccumulating {
				_ = state.BeginWithdrawals()
			}
			guaranteed := s.tracker.MaxAnnualWithdrawal(state.GWB) * dt
			switch {
			case state.Ruined():
				// 账户已耗尽：保险公司全额支付保证领取
				pvInsurer += guaranteed * df
			case state.AV > 0 && guaranteed > 0:
				yearsSince := int(elapsed) - in.DeferralYears
				if yearsSince < 0 {
					yearsSince = 0
				}
				util, err := s.utilization.Utilization(state.Age, yearsSince)
				if err != nil {
					return PathResult{}, err
				}
				if util < 0 || util > 1 {
					return PathResult{}, fmt.Errorf("utilization rate out of [0,1]: %v", util)
				}
				w := math.Min(guaranteed*util, state.AV)
				state.AV -= w
				state.CumulativeWithdrawals += w
				pvWithdrawals += w * df
			}
		}

		// 6. 耗尽检测：账户归零且尚未记录时记录，此后账户价值钉在零
		if state.AV <= 0 && !state.Ruined() && state.Alive() {
			_ = state.MarkRuined(t)
		}

		// 7. 保证基数更新：滚存（领取开始前）与棘轮检查
		state.GWB = s.tracker.Rollup(state.GWB, elapsed, dt, pastDeferral)
		if s.tracker.ShouldRatchet(t, in.StepsPerYear) {
			state.GWB = s.tracker.Ratchet(state.GWB, state.AV)
		}
	}

	return PathResult{
		PVInsurerPayments: pvInsurer,
		PVWithdrawals:     pvWithdrawals,
		PVExpenses:        pvExpenses,
		PVRiderFees:       pvFees,
		RuinPeriod:        state.RuinPeriod,
		LapsePeriod:       state.LapsePeriod,
		DeathPeriod:       state.DeathPeriod,
		FinalAV:           state.AV,
		FinalGWB:          state.GWB,
	}, nil
}
