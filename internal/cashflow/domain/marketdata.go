// Package domain 行情快照模型
// 生成摘要：
// 1) 定义价格、利率定盘、分红宣告三类行情读模型行，兼作快照元素
// 2) MarketDataSnapshot 为不可变时间盒：查找缺失即错误，而非空结果
// 3) 快照有效窗口（AsOf + TTL）由应用层在进入计算前校验
package domain

import (
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// PriceMark 标的价格
type PriceMark struct {
	gorm.Model
	Symbol string          `gorm:"column:symbol;type:varchar(32);index:idx_price_symbol_asof,unique;not null" json:"symbol"`
	Price  decimal.Decimal `gorm:"column:price;type:decimal(18,8);not null" json:"price"`
	AsOf   time.Time       `gorm:"column:as_of;index:idx_price_symbol_asof,unique;not null" json:"as_of"`
}

// TableName 表名
func (PriceMark) TableName() string {
	return "cashflow_price_marks"
}

// RateFixing 利率指数定盘
type RateFixing struct {
	gorm.Model
	IndexName string          `gorm:"column:index_name;type:varchar(32);index:idx_rate_index_asof,unique;not null" json:"index_name"`
	Rate      decimal.Decimal `gorm:"column:rate;type:decimal(12,8);not null" json:"rate"`
	AsOf      time.Time       `gorm:"column:as_of;index:idx_rate_index_asof,unique;not null" json:"as_of"`
}

// TableName 表名
func (RateFixing) TableName() string {
	return "cashflow_rate_fixings"
}

// DividendDeclaration 分红宣告
// 除息日为空视为无效宣告，任何模式下都不参与；支付日为空视为约束满足
type DividendDeclaration struct {
	gorm.Model
	Symbol      string               `gorm:"column:symbol;type:varchar(32);index;not null" json:"symbol"`
	ExDate      *time.Time           `gorm:"column:ex_date;index" json:"ex_date"`
	PaymentDate *time.Time           `gorm:"column:payment_date" json:"payment_date"`
	Amount      decimal.Decimal      `gorm:"column:amount;type:decimal(18,8);not null" json:"amount"`
	Currency    string               `gorm:"column:currency;type:char(3)" json:"currency"`
	TaxRate     decimal.Decimal      `gorm:"column:tax_rate;type:decimal(8,4)" json:"tax_rate"`
	Treatment   WithholdingTreatment `gorm:"column:treatment;type:varchar(16)" json:"treatment"`
}

// TableName 表名
func (DividendDeclaration) TableName() string {
	return "cashflow_dividend_declarations"
}

// PayableAsOf 分红在计算日是否已生效
// 规则：除息日非空且不晚于 asOf，支付日为空或不晚于 asOf
func (d *DividendDeclaration) PayableAsOf(asOf time.Time) bool {
	if d.ExDate == nil {
		return false
	}
	if DateOf(*d.ExDate).After(DateOf(asOf)) {
		return false
	}
	if d.PaymentDate != nil && DateOf(*d.PaymentDate).After(DateOf(asOf)) {
		return false
	}
	return true
}

// MarketDataSnapshot 行情快照
// 一次计算请求使用的全部行情输入，构建后不再变更
type MarketDataSnapshot struct {
	Prices    []*PriceMark           `json:"prices"`
	Rates     []*RateFixing          `json:"rates"`
	Dividends []*DividendDeclaration `json:"dividends"`
	// Price 单标的价格字段，多标的列表查不到时回查此字段
	Price *PriceMark    `json:"price,omitempty"`
	AsOf  time.Time     `json:"as_of"`
	TTL   time.Duration `json:"ttl"`
}

// Expired 快照是否超出有效窗口，TTL 为零表示随请求内联、不设窗口
func (s *MarketDataSnapshot) Expired(now time.Time) bool {
	if s.TTL <= 0 {
		return false
	}
	return now.After(s.AsOf.Add(s.TTL))
}

// PriceOf 查找标的现价：先查多标的列表（取最新一笔），再查单标的字段
func (s *MarketDataSnapshot) PriceOf(symbol string) (decimal.Decimal, bool) {
	var (
		found  bool
		latest time.Time
		price  decimal.Decimal
	)
	for _, m := range s.Prices {
		if m == nil || m.Symbol != symbol {
			continue
		}
		if !found || m.AsOf.After(latest) {
			found = true
			latest = m.AsOf
			price = m.Price
		}
	}
	if found {
		return price, true
	}
	if s.Price != nil && (s.Price.Symbol == symbol || s.Price.Symbol == "") {
		return s.Price.Price, true
	}
	return decimal.Zero, false
}

// RateOf 查找指数在指定日期的定盘：取不晚于该日的最新一笔
func (s *MarketDataSnapshot) RateOf(index string, asOf time.Time) (decimal.Decimal, bool) {
	var (
		found  bool
		latest time.Time
		rate   decimal.Decimal
	)
	day := DateOf(asOf)
	for _, f := range s.Rates {
		if f == nil || f.IndexName != index {
			continue
		}
		if DateOf(f.AsOf).After(day) {
			continue
		}
		if !found || f.AsOf.After(latest) {
			found = true
			latest = f.AsOf
			rate = f.Rate
		}
	}
	return rate, found
}

// DividendsOf 查找标的的分红序列，返回空切片即该标的不在快照内
func (s *MarketDataSnapshot) DividendsOf(symbol string) []*DividendDeclaration {
	var out []*DividendDeclaration
	for _, d := range s.Dividends {
		if d != nil && d.Symbol == symbol {
			out = append(out, d)
		}
	}
	return out
}
