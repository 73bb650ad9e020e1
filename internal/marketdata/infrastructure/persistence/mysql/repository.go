// Package mysql 行情服务 gorm 仓储实现
package mysql

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/wyfcoding/swapcashflow/internal/marketdata/domain"
)

// MarketDataRepository 行情仓储
type MarketDataRepository struct {
	db *gorm.DB
}

// NewMarketDataRepository 创建行情仓储
func NewMarketDataRepository(db *gorm.DB) domain.MarketDataRepository {
	return &MarketDataRepository{db: db}
}

func (r *MarketDataRepository) UpsertPrice(ctx context.Context, price *domain.Price) error {
	return txOrDefault(ctx, r.db).WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "symbol"}, {Name: "as_of"}},
		DoUpdates: clause.AssignmentColumns([]string{"price", "source", "updated_at"}),
	}).Create(price).Error
}

func (r *MarketDataRepository) UpsertRate(ctx context.Context, rate *domain.Rate) error {
	return txOrDefault(ctx, r.db).WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "index_name"}, {Name: "as_of"}},
		DoUpdates: clause.AssignmentColumns([]string{"rate", "source", "updated_at"}),
	}).Create(rate).Error
}

func (r *MarketDataRepository) UpsertDividend(ctx context.Context, dividend *domain.Dividend) error {
	return txOrDefault(ctx, r.db).WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "symbol"}, {Name: "ex_date"}},
		DoUpdates: clause.AssignmentColumns([]string{"payment_date", "amount", "currency", "tax_rate", "treatment", "updated_at"}),
	}).Create(dividend).Error
}

func (r *MarketDataRepository) LatestPrice(ctx context.Context, symbol string) (*domain.Price, error) {
	var price domain.Price
	err := r.db.WithContext(ctx).
		Where("symbol = ?", symbol).
		Order("as_of DESC").
		First(&price).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &price, nil
}

func (r *MarketDataRepository) ListRates(ctx context.Context, index string, from, to time.Time) ([]*domain.Rate, error) {
	var rates []*domain.Rate
	err := r.db.WithContext(ctx).
		Where("index_name = ? AND as_of >= ? AND as_of <= ?", index, from, to).
		Order("as_of ASC").
		Find(&rates).Error
	return rates, err
}

func (r *MarketDataRepository) ListDividends(ctx context.Context, symbol string) ([]*domain.Dividend, error) {
	var dividends []*domain.Dividend
	err := r.db.WithContext(ctx).
		Where("symbol = ?", symbol).
		Order("ex_date ASC").
		Find(&dividends).Error
	return dividends, err
}

func (r *MarketDataRepository) WithTx(ctx context.Context, fn func(txCtx context.Context) error) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		txCtx := context.WithValue(ctx, "tx", tx)
		return fn(txCtx)
	})
}

func txOrDefault(ctx context.Context, db *gorm.DB) *gorm.DB {
	if tx, ok := ctx.Value("tx").(*gorm.DB); ok && tx != nil {
		return tx
	}
	return db
}
