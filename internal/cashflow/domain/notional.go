// Package domain 名义本金汇总与回落链
// 生成摘要：
// 1) 批次名义本金 = Σ 参与批次的 数量 × 成本价
// 2) 回落链按序惰性求值：批次汇总 -> 合约名义本金 -> 兜底 1,000,000，取第一个非退化值
//    持仓数据未交收时批次汇总为零，回落到合约口径是约定行为而非错误
package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// LotNotional 汇总指定合约参与批次的经济敞口（数量 × 成本价）
func LotNotional(contractID string, asOf time.Time, lots []*Lot) decimal.Decimal {
	total := decimal.Zero
	for _, lot := range EligibleLots(contractID, asOf, lots) {
		total = total.Add(lot.EffectiveQuantity().Mul(lot.CostPrice))
	}
	return total
}

// notionalSource 名义本金解析策略
type notionalSource struct {
	basis   CalculationBasis
	resolve func() decimal.Decimal
}

// ResolveNotional 按回落链解析名义本金，返回金额与命中的计算口径
func ResolveNotional(contract *SwapContract, asOf time.Time, lots []*Lot) (decimal.Decimal, CalculationBasis) {
	chain := []notionalSource{
		{basis: BasisLotBased, resolve: func() decimal.Decimal {
			return LotNotional(contract.ContractID, asOf, lots)
		}},
		{basis: BasisContractBased, resolve: func() decimal.Decimal {
			return contract.NotionalAmount
		}},
		{basis: BasisContractBased, resolve: func() decimal.Decimal {
			return DefaultNotional
		}},
	}

	for _, src := range chain {
		if v := src.resolve(); v.IsPositive() {
			return v, src.basis
		}
	}
	return DefaultNotional, BasisContractBased
}
