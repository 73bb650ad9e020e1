// Package domain 现金流组装
// 生成摘要：
// 1) 把利息/分红/盈亏计算结果合并为带类型、带日期的现金流记录，合并满足交换律
// 2) 利息每期出一条计提流；付息期另出一条已实现流，交收日为期末 T+2
// 3) 分红与盈亏按计算日出已实现流；本金与公司行动为外部扩展点，组装器不产出
package domain

import (
	"fmt"
	"time"
)

// CashFlowAssembler 现金流组装器
type CashFlowAssembler struct {
	genID func() string
}

// NewCashFlowAssembler 创建现金流组装器
// genID 为空时退化为时间戳编号
func NewCashFlowAssembler(genID func() string) *CashFlowAssembler {
	if genID == nil {
		genID = func() string {
			return fmt.Sprintf("CF%d", time.Now().UnixNano())
		}
	}
	return &CashFlowAssembler{genID: genID}
}

// Assemble 合并三类计算结果为现金流记录
// 任一计算器失败时不应调用本方法：部分结果集对下游是错误数据
func (a *CashFlowAssembler) Assemble(contract *SwapContract, accruals []*InterestAccrual, dividends *DividendComputation, pnl *PnLResult, asOf time.Time) []*CashFlow {
	var flows []*CashFlow

	for _, acc := range accruals {
		accrual := NewAccrualCashFlow(
			a.genID(), contract.ContractID, FlowTypeInterest,
			acc.Amount, contract.Currency, acc.Period.End, asOf, BasisPeriodBased,
		).WithAccrualPeriod(acc.Period.Start, acc.Period.End)
		flows = append(flows, accrual)

		if acc.Period.PaymentDue {
			realized := NewRealizedCashFlow(
				a.genID(), contract.ContractID, FlowTypeInterest,
				acc.Amount, contract.Currency, acc.Period.End, asOf, BasisPeriodBased,
			).WithAccrualPeriod(acc.Period.Start, acc.Period.End)
			flows = append(flows, realized)
		}
	}

	if dividends != nil && !dividends.TotalNet.IsZero() {
		flows = append(flows, NewRealizedCashFlow(
			a.genID(), contract.ContractID, FlowTypeDividend,
			dividends.TotalNet, contract.Currency, asOf, asOf, dividends.Basis,
		))
	}

	if pnl != nil && !pnl.Amount.IsZero() {
		flows = append(flows, NewRealizedCashFlow(
			a.genID(), contract.ContractID, FlowTypePnL,
			pnl.Amount, contract.Currency, asOf, asOf, pnl.Basis,
		))
	}

	return flows
}
