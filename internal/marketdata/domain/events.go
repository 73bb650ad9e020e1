// Package domain 行情服务领域事件
package domain

import "time"

// 发布主题
const (
	PriceUpdatedTopic     = "marketdata.price.updated"
	RateUpdatedTopic      = "marketdata.rate.updated"
	DividendDeclaredTopic = "marketdata.dividend.declared"
)

// PriceUpdatedEvent 价格更新事件
type PriceUpdatedEvent struct {
	Symbol string    `json:"symbol"`
	Price  string    `json:"price"`
	AsOf   string    `json:"as_of"`
	SentAt time.Time `json:"sent_at"`
}

// RateUpdatedEvent 利率定盘更新事件
type RateUpdatedEvent struct {
	Index  string    `json:"index"`
	Rate   string    `json:"rate"`
	AsOf   string    `json:"as_of"`
	SentAt time.Time `json:"sent_at"`
}

// DividendDeclaredEvent 分红宣告事件
type DividendDeclaredEvent struct {
	Symbol      string    `json:"symbol"`
	ExDate      string    `json:"ex_date"`
	PaymentDate string    `json:"payment_date,omitempty"`
	Amount      string    `json:"amount"`
	Currency    string    `json:"currency"`
	TaxRate     string    `json:"tax_rate,omitempty"`
	Treatment   string    `json:"treatment,omitempty"`
	SentAt      time.Time `json:"sent_at"`
}
