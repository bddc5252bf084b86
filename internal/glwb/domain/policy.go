package domain

import "fmt"

// PathPhase 单条路径的显式状态机状态
type PathPhase string

const (
	// PhaseAccumulating 积累期：递延期内，尚未开始保证领取
	PhaseAccumulating PathPhase = "ACCUMULATING"
	// PhaseWithdrawing 领取期：递延期结束，按保证额度领取
	PhaseWithdrawing PathPhase = "WITHDRAWING"
	// PhaseRuinedAlive 账户耗尽但保单持有人在世，保险公司承担保证给付
	PhaseRuinedAlive PathPhase = "RUINED_ALIVE"
	// PhaseLapsed 已退保，路径冻结
	PhaseLapsed PathPhase = "LAPSED"
	// PhaseDead 已身故，路径冻结
	PhaseDead PathPhase = "DEAD"
)

// PeriodNever 表示事件从未发生的期序号哨兵值
const PeriodNever = -1

// PolicyState 单条在途路径独占的可变保单状态。
// 状态转移触发条件：
//   - Accumulating -> Withdrawing：递延期结束
//   - Accumulating/Withdrawing -> RuinedAlive：账户价值耗尽
//   - 任一存活状态 -> Lapsed：退保抽样命中
//   - 任一存活状态 -> Dead：死亡抽样命中
type PolicyState struct {
	// 账户价值，始终 >= 0
	AV float64
	// 保证基数，启用棘轮后单调不减
	GWB float64
	// 累计领取额
	CumulativeWithdrawals float64
	// 当前整数年龄
	Age int
	// 当前状态机状态
	Phase PathPhase
	// 账户耗尽的期序号，未发生为 PeriodNever
	RuinPeriod int
	// 退保的期序号，未发生为 PeriodNever
	LapsePeriod int
	// 身故的期序号，未发生为 PeriodNever
	DeathPeriod int
}

// NewPolicyState 在路径起点创建保单状态，保证基数初始等于保费
func NewPolicyState(premium float64, age int) *PolicyState {
	return &PolicyState{
		AV:          premium,
		GWB:         premium,
		Age:         age,
		Phase:       PhaseAccumulating,
		RuinPeriod:  PeriodNever,
		LapsePeriod: PeriodNever,
		DeathPeriod: PeriodNever,
	}
}

// Alive 保单持有人是否在世且未退保
func (s *PolicyState) Alive() bool {
	switch s.Phase {
	case PhaseAccumulating, PhaseWithdrawing, PhaseRuinedAlive:
		return true
	default:
		return false
	}
}

// Terminated 路径是否已冻结（身故或退保）
func (s *PolicyState) Terminated() bool {
	return s.Phase == PhaseDead || s.Phase == PhaseLapsed
}

// Ruined 账户是否已耗尽
func (s *PolicyState) Ruined() bool {
	return s.RuinPeriod != PeriodNever
}

// BeginWithdrawals 递延期结束，进入领取期
func (s *PolicyState) BeginWithdrawals() error {
	if s.Phase != PhaseAccumulating {
		return fmt.Errorf("cannot begin withdrawals from phase %s", s.Phase)
	}
	s.Phase = PhaseWithdrawing
	return nil
}

// MarkRuined 记录账户耗尽。账户价值钉在零，保险公司自此承担保证给付。
func (s *PolicyState) MarkRuined(period int) error {
	if s.Phase != PhaseAccumulating && s.Phase != PhaseWithdrawing {
		return fmt.Errorf("cannot mark ruin from phase %s", s.Phase)
	}
	if s.Ruined() {
		return fmt.Errorf("ruin already recorded at period %d", s.RuinPeriod)
	}
	s.Phase = PhaseRuinedAlive
	s.RuinPeriod = period
	s.AV = 0
	return nil
}

// MarkLapsed 记录退保，路径冻结，已累积现金流保留
func (s *PolicyState) MarkLapsed(period int) error {
	if !s.Alive() {
		return fmt.Errorf("cannot lapse from phase %s", s.Phase)
	}
	s.Phase = PhaseLapsed
	s.LapsePeriod = period
	return nil
}

// MarkDead 记录身故，路径冻结，不再产生现金流
func (s *PolicyState) MarkDead(period int) error {
	if !s.Alive() {
		return fmt.Errorf("cannot mark death from phase %s", s.Phase)
	}
	s.Phase = PhaseDead
	s.DeathPeriod = period
	return nil
}
