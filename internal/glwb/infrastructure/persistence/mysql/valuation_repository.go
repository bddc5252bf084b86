package mysql

import (
	"context"
	"errors"

	"github.com/wyfcoding/pkg/contextx"
	"gorm.io/gorm"

	"github.com/wyfcoding/annuitypricing/internal/glwb/domain"
)

type valuationRepository struct {
	db *gorm.DB
}

// NewValuationRepository 创建并返回一个新的 valuationRepository 实例。
func NewValuationRepository(db *gorm.DB) domain.ValuationRepository {
	return &valuationRepository{db: db}
}

// WithTx 在单个 gorm 事务内执行 fn，事务句柄通过 contextx 传递
func (r *valuationRepository) WithTx(ctx context.Context, fn func(ctx context.Context) error) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		txCtx := contextx.WithTx(ctx, tx)
		return fn(txCtx)
	})
}

func (r *valuationRepository) Save(ctx context.Context, valuation *domain.Valuation) error {
	model := toValuationModel(valuation)
	if model == nil {
		return nil
	}
	if err := r.getDB(ctx).WithContext(ctx).Create(model).Error; err != nil {
		return err
	}
	valuation.ID = model.ID
	valuation.CreatedAt = model.CreatedAt
	valuation.UpdatedAt = model.UpdatedAt
	return nil
}

func (r *valuationRepository) GetLatest(ctx context.Context, policyID string) (*domain.Valuation, error) {
	var model ValuationModel
	err := r.getDB(ctx).WithContext(ctx).
		Where("policy_id = ?", policyID).
		Order("calculated_at desc").
		First(&model).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return toValuation(&model), nil
}

func (r *valuationRepository) GetHistory(ctx context.Context, policyID string, limit int) ([]*domain.Valuation, error) {
	var models []ValuationModel
	if err := r.getDB(ctx).WithContext(ctx).
		Where("policy_id = ?", policyID).
		Order("calculated_at desc").
		Limit(limit).
		Find(&models).Error; err != nil {
		return nil, err
	}
	res := make([]*domain.Valuation, len(models))
	for i := range models {
		res[i] = toValuation(&models[i])
	}
	return res, nil
}

func (r *valuationRepository) getDB(ctx context.Context) *gorm.DB {
	if tx, ok := contextx.GetTx(ctx).(*gorm.DB); ok {
		return tx
	}
	return r.db
}
