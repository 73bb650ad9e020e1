// Package domain 分红计算
// 生成摘要：
// 1) 优先按批次：参与批次数量 × 每股分红，逐笔过预提税引擎
// 2) 批次数量为零（无批次、不匹配、数量为零）回落合约口径：名义本金 × 每股分红 / 1,000,000，
//    过滤条件换为除息日落在合约有效期内
// 3) 标的不在快照分红序列中为硬失败，两种口径一致
package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// DividendComputation 分红计算结果
type DividendComputation struct {
	TotalGross decimal.Decimal       `json:"total_gross"`
	TotalNet   decimal.Decimal       `json:"total_net"`
	TotalTax   decimal.Decimal       `json:"total_tax"`
	Basis      CalculationBasis      `json:"basis"`
	Details    []*WithholdingTaxInfo `json:"details"`
}

// DividendCalculator 分红计算器
type DividendCalculator struct{}

// NewDividendCalculator 创建分红计算器
func NewDividendCalculator() *DividendCalculator {
	return &DividendCalculator{}
}

// Calculate 计算分红净额合计
func (c *DividendCalculator) Calculate(contract *SwapContract, lots []*Lot, snapshot *MarketDataSnapshot, asOf time.Time) (decimal.Decimal, error) {
	comp, err := c.CalculateWithTaxDetails(contract, lots, snapshot, asOf)
	if err != nil {
		return decimal.Zero, err
	}
	return comp.TotalNet, nil
}

// CalculateWithTaxDetails 计算分红并返回逐笔预提税明细
// 与 Calculate 同一套算术，输出更丰富，供审计与申报使用
func (c *DividendCalculator) CalculateWithTaxDetails(contract *SwapContract, lots []*Lot, snapshot *MarketDataSnapshot, asOf time.Time) (*DividendComputation, error) {
	var dividends []*DividendDeclaration
	if snapshot != nil {
		dividends = snapshot.DividendsOf(contract.Underlying)
	}
	if len(dividends) == 0 {
		return nil, &DividendDataNotFoundError{ContractID: contract.ContractID, Underlying: contract.Underlying}
	}

	totalQty := EligibleQuantity(contract.ContractID, asOf, lots)
	if totalQty.IsPositive() {
		return c.lotBased(contract, dividends, totalQty, asOf), nil
	}
	return c.contractBased(contract, dividends, asOf), nil
}

// lotBased 按批次口径：总数量 × 每股分红，过滤已生效的宣告
func (c *DividendCalculator) lotBased(contract *SwapContract, dividends []*DividendDeclaration, totalQty decimal.Decimal, asOf time.Time) *DividendComputation {
	comp := &DividendComputation{
		TotalGross: decimal.Zero,
		TotalNet:   decimal.Zero,
		TotalTax:   decimal.Zero,
		Basis:      BasisLotBased,
	}
	for _, d := range dividends {
		if !d.PayableAsOf(asOf) {
			continue
		}
		gross := totalQty.Mul(d.Amount)
		c.accumulate(comp, contract, d, gross, asOf)
	}
	return comp
}

// contractBased 按合约口径：名义本金 × 每股分红 / 1,000,000，过滤除息日在合约期内的宣告
func (c *DividendCalculator) contractBased(contract *SwapContract, dividends []*DividendDeclaration, asOf time.Time) *DividendComputation {
	comp := &DividendComputation{
		TotalGross: decimal.Zero,
		TotalNet:   decimal.Zero,
		TotalTax:   decimal.Zero,
		Basis:      BasisContractBased,
	}
	notional := contract.StaticNotional()
	for _, d := range dividends {
		if d.ExDate == nil || !contract.ContainsExDate(*d.ExDate) {
			continue
		}
		gross := notional.Mul(d.Amount).Div(DefaultNotional)
		c.accumulate(comp, contract, d, gross, asOf)
	}
	return comp
}

// accumulate 单笔宣告过预提税引擎并累加
func (c *DividendCalculator) accumulate(comp *DividendComputation, contract *SwapContract, d *DividendDeclaration, gross decimal.Decimal, asOf time.Time) {
	net, tax := ApplyWithholding(gross, d.TaxRate, d.Treatment)
	comp.TotalGross = comp.TotalGross.Add(gross)
	comp.TotalNet = comp.TotalNet.Add(net)
	comp.TotalTax = comp.TotalTax.Add(tax)
	comp.Details = append(comp.Details, NewWithholdingTaxInfo(contract, d, gross, tax, net, comp.Basis, asOf))
}
