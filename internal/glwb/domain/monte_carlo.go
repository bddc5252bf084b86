package domain

import (
	"context"
	"errors"
	"fmt"
	"math"
	"runtime"
	"sync/atomic"

	"golang.org/x/sync/errgroup"
)

// EngineConfig 蒙特卡洛引擎控制参数
type EngineConfig struct {
	// 模拟路径数
	Paths int
	// 基础随机种子，相同种子产生逐位相同的结果
	Seed uint64
	// 是否启用对偶变量方差缩减
	Antithetic bool
	// 并行 worker 数，0 表示 GOMAXPROCS
	Workers int
}

// Validate 校验引擎参数
func (c EngineConfig) Validate() error {
	if c.Paths <= 0 {
		return fmt.Errorf("path count must be positive, got %d", c.Paths)
	}
	if c.Antithetic && c.Paths%2 != 0 {
		return fmt.Errorf("antithetic sampling requires an even path count, got %d", c.Paths)
	}
	if c.Workers < 0 {
		return fmt.Errorf("worker count cannot be negative, got %d", c.Workers)
	}
	return nil
}

// GLWBPricingResult 蒙特卡洛定价结果。
// 标准误在启用对偶变量时按配对均值计算，避免低估。
type GLWBPricingResult struct {
	// 保证成本：保险公司给付现值的均值
	GuaranteeCost float64
	// 统计单元（路径或对偶配对）样本标准差
	StdDev float64
	// 保证成本的蒙特卡洛标准误
	StdError float64
	// 保单持有人领取现值的均值
	MeanPVWithdrawals float64
	// 费用扣款现值的均值
	MeanPVExpenses float64
	// 附加险费用收入现值的均值
	MeanPVRiderFees float64
	// 期末账户价值的均值
	MeanFinalAV float64
	// 账户耗尽概率
	ProbRuin float64
	// 耗尽路径的平均耗尽时点（年），无耗尽时为 0
	MeanRuinYears float64
	// 退保概率
	ProbLapse float64
	// 退保路径的平均退保时点（年），无退保时为 0
	MeanLapseYears float64
	// 身故概率
	ProbDeath float64
	// 实际完成的路径数
	CompletedPaths int
	// 请求的路径数
	RequestedPaths int
	// 上下文取消导致结果仅覆盖部分路径时为 true
	Partial bool
}

// NetCost 保证成本扣除附加险费用收入后的净成本。
// 净成本为零即为公平费率的定义。
func (r *GLWBPricingResult) NetCost() float64 {
	return r.GuaranteeCost - r.MeanPVRiderFees
}

// MonteCarloEngine GLWB 蒙特卡洛定价引擎。
// 路径级随机流由 (seed, pathIndex) 确定性派生，归约按路径序号
// 顺序执行，因此结果与 worker 数和调度顺序无关。
type MonteCarloEngine struct {
	sim *PathSimulator
	cfg EngineConfig
}

// NewMonteCarloEngine 创建定价引擎，所有参数错误在构造期暴露
func NewMonteCarloEngine(input PricingInput, models Models, cfg EngineConfig) (*MonteCarloEngine, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	sim, err := NewPathSimulator(input, models)
	if err != nil {
		return nil, err
	}
	return &MonteCarloEngine{sim: sim, cfg: cfg}, nil
}

// Input 返回引擎的定价输入
func (e *MonteCarloEngine) Input() PricingInput { return e.sim.Input() }

// Config 返回引擎控制参数
func (e *MonteCarloEngine) Config() EngineConfig { return e.cfg }

// Run 并行执行全部路径并做确定性归约。
// 上下文取消时返回已完成路径上的部分结果并置 Partial，
// 数据错误（概率越界等）则中止并返回错误。
func (e *MonteCarloEngine) Run(ctx context.Context) (*GLWBPricingResult, error) {
	paths := e.cfg.Paths
	results := make([]PathResult, paths)
	completed := make([]atomic.Bool, paths)

	workers := e.cfg.Workers
	if workers == 0 {
		workers = runtime.GOMAXPROCS(0)
	}
	if workers > paths {
		workers = paths
	}

	var next atomic.Int64
	g, gctx := errgroup.WithContext(ctx)
	for w := 0; w < workers; w++ {
		g.Go(func() error {
			for {
				i := int(next.Add(1)) - 1
				if i >= paths {
					return nil
				}
				select {
				case <-gctx.Done():
					return gctx.Err()
				default:
				}
				rng := e.pathRNG(uint64(i))
				r, err := e.sim.SimulatePath(rng)
				if err != nil {
					return fmt.Errorf("path %d: %w", i, err)
				}
				results[i] = r
				completed[i].Store(true)
			}
		})
	}

	err := g.Wait()
	partial := false
	switch {
	case err == nil:
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		partial = true
	default:
		return nil, err
	}

	return e.reduce(results, completed, partial), nil
}

// pathRNG 派生路径 i 的随机流。
// 对偶模式下相邻路径 (2k, 2k+1) 共享子流 k，奇数路径取反正态抽样。
func (e *MonteCarloEngine) pathRNG(i uint64) *PathRNG {
	if e.cfg.Antithetic {
		return NewPathRNG(e.cfg.Seed, i/2, i%2 == 1)
	}
	return NewPathRNG(e.cfg.Seed, i, false)
}

// reduce 按路径序号顺序聚合，保证浮点求和顺序固定
func (e *MonteCarloEngine) reduce(results []PathResult, completed []atomic.Bool, partial bool) *GLWBPricingResult {
	dt := e.sim.Input().Dt()

	// 统计单元：对偶模式下为完整配对的均值，否则为单路径
	var units []float64
	if e.cfg.Antithetic {
		units = make([]float64, 0, len(results)/2)
		for k := 0; k+1 < len(results); k += 2 {
			if completed[k].Load() && completed[k+1].Load() {
				units = append(units, (results[k].PVInsurerPayments+results[k+1].PVInsurerPayments)/2)
			}
		}
	} else {
		units = make([]float64, 0, len(results))
		for i := range results {
			if completed[i].Load() {
				units = append(units, results[i].PVInsurerPayments)
			}
		}
	}

	out := &GLWBPricingResult{
		RequestedPaths: e.cfg.Paths,
		Partial:        partial,
	}

	var sum float64
	for _, u := range units {
		sum += u
	}
	if n := len(units); n > 0 {
		out.GuaranteeCost = sum / float64(n)
		if n > 1 {
			var sq float64
			for _, u := range units {
				d := u - out.GuaranteeCost
				sq += d * d
			}
			out.StdDev = math.Sqrt(sq / float64(n-1))
			out.StdError = out.StdDev / math.Sqrt(float64(n))
		}
	}

	// 逐路径诊断量在全部已完成路径上统计
	var done, ruined, lapsed, died int
	var wsum, esum, fsum, avsum, ruinY, lapseY float64
	for i := range results {
		if !completed[i].Load() {
			continue
		}
		r := results[i]
		done++
		wsum += r.PVWithdrawals
		esum += r.PVExpenses
		fsum += r.PVRiderFees
		avsum += r.FinalAV
		if r.RuinPeriod != PeriodNever {
			ruined++
			ruinY += float64(r.RuinPeriod+1) * dt
		}
		if r.LapsePeriod != PeriodNever {
			lapsed++
			lapseY += float64(r.LapsePeriod+1) * dt
		}
		if r.DeathPeriod != PeriodNever {
			died++
		}
	}
	out.CompletedPaths = done
	if done > 0 {
		out.MeanPVWithdrawals = wsum / float64(done)
		out.MeanPVExpenses = esum / float64(done)
		out.MeanPVRiderFees = fsum / float64(done)
		out.MeanFinalAV = avsum / float64(done)
		out.ProbRuin = float64(ruined) / float64(done)
		out.ProbLapse = float64(lapsed) / float64(done)
		out.ProbDeath = float64(died) / float64(done)
	}
	if ruined > 0 {
		out.MeanRuinYears = ruinY / float64(ruined)
	}
	if lapsed > 0 {
		out.MeanLapseYears = lapseY / float64(lapsed)
	}
	return out
}
