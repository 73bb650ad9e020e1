// Package domain 计算请求与结果
package domain

import (
	"errors"
	"time"

	"github.com/shopspring/decimal"
)

// DateRange 计算区间
type DateRange struct {
	From time.Time `json:"from"`
	To   time.Time `json:"to"`
}

// CalculationRequest 一次计算的全部输入
// 合约、批次、持仓、行情快照均为已解析的不可变快照，计算过程不访问网络与磁盘
type CalculationRequest struct {
	Contract   *SwapContract       `json:"contract"`
	Range      DateRange           `json:"range"`
	Lots       []*Lot              `json:"lots"`
	Positions  []*Position         `json:"positions"`
	MarketData *MarketDataSnapshot `json:"market_data"`
}

// Validate 校验请求的结构完整性
func (r *CalculationRequest) Validate() error {
	if r.Contract == nil {
		return errors.New("calculation request missing contract")
	}
	if r.Range.From.IsZero() || r.Range.To.IsZero() {
		return errors.New("calculation request missing date range")
	}
	if DateOf(r.Range.To).Before(DateOf(r.Range.From)) {
		return errors.New("calculation range end before start")
	}
	if r.MarketData == nil {
		return errors.New("calculation request missing market data snapshot")
	}
	return nil
}

// AsOf 计算日即区间终点
func (r *CalculationRequest) AsOf() time.Time {
	return DateOf(r.Range.To)
}

// CalculationResult 一次计算的输出
type CalculationResult struct {
	ContractID            string                `json:"contract_id"`
	CalculationDate       time.Time             `json:"calculation_date"`
	CashFlows             []*CashFlow           `json:"cash_flows"`
	WithholdingTaxDetails []*WithholdingTaxInfo `json:"withholding_tax_details,omitempty"`
	InterestAmount        decimal.Decimal       `json:"interest_amount"`
	DividendAmount        decimal.Decimal       `json:"dividend_amount"`
	PnLAmount             decimal.Decimal       `json:"pnl_amount"`
}
