// Package domain 盈亏计算
// 生成摘要：
// 1) 按批次：Σ 数量 × (现价 - 成本价)，负盈亏合法，不做钳制
// 2) 批次合计为零（无批次、不匹配、恰好为零）回落合约口径：名义本金 × (现价 - 参考价)/参考价
// 3) 现价缺失为硬失败；持仓级口径只统计权益腿
package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// referencePrice 合约口径的参考价
// 占位值，非真实市场参考价，接入真实参考价源之前保持为 100
var referencePrice = decimal.NewFromInt(100)

// PnLResult 盈亏计算结果
type PnLResult struct {
	Amount       decimal.Decimal  `json:"amount"`
	CurrentPrice decimal.Decimal  `json:"current_price"`
	Basis        CalculationBasis `json:"basis"`
}

// PnLCalculator 盈亏计算器
type PnLCalculator struct{}

// NewPnLCalculator 创建盈亏计算器
func NewPnLCalculator() *PnLCalculator {
	return &PnLCalculator{}
}

// Calculate 计算合约在计算日的盈亏
func (c *PnLCalculator) Calculate(contract *SwapContract, lots []*Lot, snapshot *MarketDataSnapshot, asOf time.Time) (*PnLResult, error) {
	price, err := c.resolvePrice(contract, snapshot)
	if err != nil {
		return nil, err
	}

	lotPnL := decimal.Zero
	for _, lot := range EligibleLots(contract.ContractID, asOf, lots) {
		lotPnL = lotPnL.Add(lot.EffectiveQuantity().Mul(price.Sub(lot.CostPrice)))
	}
	if !lotPnL.IsZero() {
		return &PnLResult{Amount: lotPnL, CurrentPrice: price, Basis: BasisLotBased}, nil
	}

	// 合约口径兜底
	notional := contract.StaticNotional()
	amount := notional.Mul(price.Sub(referencePrice)).Div(referencePrice)
	return &PnLResult{Amount: amount, CurrentPrice: price, Basis: BasisContractBased}, nil
}

// CalculateByPositions 持仓级口径：只统计权益腿持仓，其余持仓贡献为零
func (c *PnLCalculator) CalculateByPositions(contract *SwapContract, positions []*Position, snapshot *MarketDataSnapshot) (decimal.Decimal, error) {
	price, err := c.resolvePrice(contract, snapshot)
	if err != nil {
		return decimal.Zero, err
	}

	total := decimal.Zero
	for _, p := range positions {
		if p == nil || p.ContractID != contract.ContractID || !p.IsEquityLeg() {
			continue
		}
		total = total.Add(p.Quantity.Mul(price.Sub(p.AveragePrice)))
	}
	return total, nil
}

// resolvePrice 解析标的现价
func (c *PnLCalculator) resolvePrice(contract *SwapContract, snapshot *MarketDataSnapshot) (decimal.Decimal, error) {
	if snapshot != nil {
		if price, ok := snapshot.PriceOf(contract.Underlying); ok {
			return price, nil
		}
	}
	return decimal.Zero, &PriceDataNotFoundError{ContractID: contract.ContractID, Underlying: contract.Underlying}
}
