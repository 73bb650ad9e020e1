package domain

import (
	"fmt"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCashFlowAssembler(t *testing.T) {
	contract := makeContract("C1", 1_000_000)
	asOf := d(2024, 1, 31)

	t.Run("interest period emits accrual plus realized on payment date", func(t *testing.T) {
		assembler := NewCashFlowAssembler(nil)
		accruals := []*InterestAccrual{{
			Period: InterestPeriod{Start: d(2024, 1, 1), End: d(2024, 1, 31), PaymentDue: true},
			Amount: decimal.NewFromFloat(2368.06),
		}}

		flows := assembler.Assemble(contract, accruals, nil, nil, asOf)
		require.Len(t, flows, 2)

		accrual := flows[0]
		assert.Equal(t, FlowTypeInterest, accrual.FlowType)
		assert.Equal(t, FlowStatusAccrual, accrual.Status)
		assert.Nil(t, accrual.SettlementDate)
		require.NotNil(t, accrual.AccrualStart)
		assert.Equal(t, d(2024, 1, 1), *accrual.AccrualStart)

		realized := flows[1]
		assert.Equal(t, FlowStatusRealizedUnsettled, realized.Status)
		require.NotNil(t, realized.SettlementDate)
		assert.Equal(t, d(2024, 2, 2), *realized.SettlementDate, "T+2 from period end")
	})

	t.Run("non payment period emits accrual only", func(t *testing.T) {
		assembler := NewCashFlowAssembler(nil)
		accruals := []*InterestAccrual{{
			Period: InterestPeriod{Start: d(2024, 1, 1), End: d(2024, 1, 15), PaymentDue: false},
			Amount: decimal.NewFromFloat(100),
		}}

		flows := assembler.Assemble(contract, accruals, nil, nil, asOf)
		require.Len(t, flows, 1)
		assert.Equal(t, FlowStatusAccrual, flows[0].Status)
	})

	t.Run("dividend and pnl emit realized flows at calculation date", func(t *testing.T) {
		assembler := NewCashFlowAssembler(nil)
		dividends := &DividendComputation{TotalNet: decimal.NewFromFloat(2475), Basis: BasisLotBased}
		pnl := &PnLResult{Amount: decimal.NewFromInt(30_000), Basis: BasisLotBased}

		flows := assembler.Assemble(contract, nil, dividends, pnl, asOf)
		require.Len(t, flows, 2)

		byType := map[FlowType]*CashFlow{}
		for _, f := range flows {
			byType[f.FlowType] = f
		}

		div := byType[FlowTypeDividend]
		require.NotNil(t, div)
		assert.Equal(t, FlowStatusRealizedUnsettled, div.Status)
		assert.Equal(t, BasisLotBased, div.Basis)
		require.NotNil(t, div.SettlementDate)
		assert.Equal(t, d(2024, 2, 2), *div.SettlementDate)

		p := byType[FlowTypePnL]
		require.NotNil(t, p)
		assert.True(t, p.Amount.Equal(decimal.NewFromInt(30_000)))
	})

	t.Run("zero amounts emit nothing", func(t *testing.T) {
		assembler := NewCashFlowAssembler(nil)
		flows := assembler.Assemble(contract, nil,
			&DividendComputation{TotalNet: decimal.Zero, Basis: BasisContractBased},
			&PnLResult{Amount: decimal.Zero, Basis: BasisContractBased},
			asOf)
		assert.Empty(t, flows)
	})

	t.Run("assigned ids are unique", func(t *testing.T) {
		seq := 0
		assembler := NewCashFlowAssembler(func() string {
			seq++
			return fmt.Sprintf("CF%d", seq)
		})
		accruals := []*InterestAccrual{{
			Period: InterestPeriod{Start: d(2024, 1, 1), End: d(2024, 1, 31), PaymentDue: true},
			Amount: decimal.NewFromFloat(100),
		}}
		flows := assembler.Assemble(contract, accruals, nil, nil, asOf)
		require.Len(t, flows, 2)
		assert.NotEqual(t, flows[0].FlowID, flows[1].FlowID)
	})
}

func TestSettlementDateFor(t *testing.T) {
	assert.Equal(t, d(2024, 1, 17), SettlementDateFor(d(2024, 1, 15)))
	// 跨月
	assert.Equal(t, d(2024, 2, 1), SettlementDateFor(d(2024, 1, 30)))
}
