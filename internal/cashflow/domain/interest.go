// Package domain 利息计提计算
// 生成摘要：
// 1) 按付息频率切期，每期 利息 = round2(名义本金 × 利率 × 天数/分母)
// 2) 利率解析：合约指数的行情定盘 -> 合约固定利率 -> 0；指数有配置但无定盘且无固定利率为硬失败
// 3) 定盘查找按 (指数, 日期) 在请求内做备忘，单请求单协程内使用，无需加锁
package domain

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// InterestAccrual 单个计息期的利息计算结果
type InterestAccrual struct {
	Period        InterestPeriod   `json:"period"`
	Notional      decimal.Decimal  `json:"notional"`
	Rate          decimal.Decimal  `json:"rate"`
	Days          int              `json:"days"`
	Denominator   int              `json:"denominator"`
	Amount        decimal.Decimal  `json:"amount"`
	NotionalBasis CalculationBasis `json:"notional_basis"`
}

// InterestAccrualCalculator 利息计提计算器
// 纯领域服务，只读快照输入，可与其他计算器并行
type InterestAccrualCalculator struct{}

// NewInterestAccrualCalculator 创建利息计提计算器
func NewInterestAccrualCalculator() *InterestAccrualCalculator {
	return &InterestAccrualCalculator{}
}

// Calculate 计算 [from, to) 内各计息期的利息
// 金额为零的计息期不产生结果
func (c *InterestAccrualCalculator) Calculate(contract *SwapContract, from, to time.Time, lots []*Lot, snapshot *MarketDataSnapshot, asOf time.Time) ([]*InterestAccrual, error) {
	periods := GeneratePeriods(from, to, contract.PaymentFreq)
	if len(periods) == 0 {
		return nil, nil
	}

	notional, basis := ResolveNotional(contract, asOf, lots)
	rateMemo := make(map[string]decimal.Decimal)

	var accruals []*InterestAccrual
	for _, p := range periods {
		rate, err := c.resolveRate(contract, snapshot, p.Start, rateMemo)
		if err != nil {
			return nil, err
		}

		days, denom := contract.DayCount.Count(p.Start, p.End)
		amount := notional.Mul(rate).
			Mul(decimal.NewFromInt(int64(days))).
			Div(decimal.NewFromInt(int64(denom))).
			Round(2)
		if amount.IsZero() {
			continue
		}

		accruals = append(accruals, &InterestAccrual{
			Period:        p,
			Notional:      notional,
			Rate:          rate,
			Days:          days,
			Denominator:   denom,
			Amount:        amount,
			NotionalBasis: basis,
		})
	}
	return accruals, nil
}

// resolveRate 解析计息期起始日适用的利率
func (c *InterestAccrualCalculator) resolveRate(contract *SwapContract, snapshot *MarketDataSnapshot, periodStart time.Time, memo map[string]decimal.Decimal) (decimal.Decimal, error) {
	index := contract.InterestRateIndex
	if index == "" {
		if contract.HasFixedRate() {
			return contract.FixedRate, nil
		}
		return decimal.Zero, nil
	}

	key := index + "@" + DateOf(periodStart).Format("2006-01-02")
	if r, ok := memo[key]; ok {
		return r, nil
	}

	if snapshot != nil {
		if r, ok := snapshot.RateOf(index, periodStart); ok {
			memo[key] = r
			return r, nil
		}
	}
	if contract.HasFixedRate() {
		memo[key] = contract.FixedRate
		return contract.FixedRate, nil
	}
	return decimal.Zero, &InterestCalculationError{
		ContractID: contract.ContractID,
		Cause:      fmt.Sprintf("no rate fixing for index %s as of %s and no contract fallback rate", index, DateOf(periodStart).Format("2006-01-02")),
	}
}
