// Package domain 行情服务领域模型
// 生成摘要：
// 1) 价格、利率定盘、分红宣告三类行情数据的规范存储行
// 2) 写入成功后发布变更事件，计算服务据此维护自身读模型
package domain

import (
	"context"
	"errors"
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// ErrInvalidMarketData 行情数据非法
var ErrInvalidMarketData = errors.New("invalid market data")

// Price 标的价格
type Price struct {
	gorm.Model
	Symbol string          `gorm:"column:symbol;type:varchar(32);index:idx_md_price,unique;not null" json:"symbol"`
	Price  decimal.Decimal `gorm:"column:price;type:decimal(18,8);not null" json:"price"`
	AsOf   time.Time       `gorm:"column:as_of;index:idx_md_price,unique;not null" json:"as_of"`
	Source string          `gorm:"column:source;type:varchar(32)" json:"source"`
}

// TableName 表名
func (Price) TableName() string {
	return "md_prices"
}

// Validate 校验价格行
func (p *Price) Validate() error {
	if p.Symbol == "" || p.Price.IsNegative() || p.AsOf.IsZero() {
		return ErrInvalidMarketData
	}
	return nil
}

// Rate 利率指数定盘
type Rate struct {
	gorm.Model
	IndexName string          `gorm:"column:index_name;type:varchar(32);index:idx_md_rate,unique;not null" json:"index_name"`
	Rate      decimal.Decimal `gorm:"column:rate;type:decimal(12,8);not null" json:"rate"`
	AsOf      time.Time       `gorm:"column:as_of;index:idx_md_rate,unique;not null" json:"as_of"`
	Source    string          `gorm:"column:source;type:varchar(32)" json:"source"`
}

// TableName 表名
func (Rate) TableName() string {
	return "md_rates"
}

// Validate 校验定盘行
func (r *Rate) Validate() error {
	if r.IndexName == "" || r.AsOf.IsZero() {
		return ErrInvalidMarketData
	}
	return nil
}

// Dividend 分红宣告
// 除息日在本服务为必填：无除息日的宣告对下游没有意义
type Dividend struct {
	gorm.Model
	Symbol      string          `gorm:"column:symbol;type:varchar(32);index:idx_md_dividend,unique;not null" json:"symbol"`
	ExDate      time.Time       `gorm:"column:ex_date;index:idx_md_dividend,unique;not null" json:"ex_date"`
	PaymentDate *time.Time      `gorm:"column:payment_date" json:"payment_date"`
	Amount      decimal.Decimal `gorm:"column:amount;type:decimal(18,8);not null" json:"amount"`
	Currency    string          `gorm:"column:currency;type:char(3)" json:"currency"`
	TaxRate     decimal.Decimal `gorm:"column:tax_rate;type:decimal(8,4)" json:"tax_rate"`
	Treatment   string          `gorm:"column:treatment;type:varchar(16)" json:"treatment"`
}

// TableName 表名
func (Dividend) TableName() string {
	return "md_dividends"
}

// Validate 校验分红宣告
func (d *Dividend) Validate() error {
	if d.Symbol == "" || d.ExDate.IsZero() || d.Amount.IsNegative() {
		return ErrInvalidMarketData
	}
	return nil
}

// MarketDataRepository 行情仓储接口
type MarketDataRepository interface {
	UpsertPrice(ctx context.Context, price *Price) error
	UpsertRate(ctx context.Context, rate *Rate) error
	UpsertDividend(ctx context.Context, dividend *Dividend) error
	LatestPrice(ctx context.Context, symbol string) (*Price, error)
	ListRates(ctx context.Context, index string, from, to time.Time) ([]*Rate, error)
	ListDividends(ctx context.Context, symbol string) ([]*Dividend, error)
	WithTx(ctx context.Context, fn func(txCtx context.Context) error) error
}
