package domain

import "context"

// ValuationRepository 估值历史仓储接口
type ValuationRepository interface {
	Save(ctx context.Context, valuation *Valuation) error
	GetLatest(ctx context.Context, policyID string) (*Valuation, error)
	GetHistory(ctx context.Context, policyID string, limit int) ([]*Valuation, error)

	// WithTx 在单个数据库事务内执行 fn，事务句柄随 ctx 传递
	WithTx(ctx context.Context, fn func(ctx context.Context) error) error
}
