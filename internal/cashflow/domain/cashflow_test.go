package domain

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCashFlowLifecycle(t *testing.T) {
	t.Run("accrual realize settle", func(t *testing.T) {
		cf := NewAccrualCashFlow("CF1", "C1", FlowTypeInterest,
			decimal.NewFromInt(100), "USD", d(2024, 1, 31), d(2024, 1, 31), BasisPeriodBased)
		assert.Equal(t, FlowStatusAccrual, cf.Status)
		assert.Nil(t, cf.SettlementDate)
		assert.False(t, cf.IsRealized())

		require.NoError(t, cf.Realize(d(2024, 1, 31)))
		assert.Equal(t, FlowStatusRealizedUnsettled, cf.Status)
		require.NotNil(t, cf.SettlementDate)
		assert.Equal(t, d(2024, 2, 2), *cf.SettlementDate)
		assert.True(t, cf.IsRealized())

		require.NoError(t, cf.MarkSettled())
		assert.Equal(t, FlowStatusSettled, cf.Status)
		assert.True(t, cf.IsRealized())
	})

	t.Run("realize only from accrual", func(t *testing.T) {
		cf := NewRealizedCashFlow("CF2", "C1", FlowTypeDividend,
			decimal.NewFromInt(100), "USD", d(2024, 1, 15), d(2024, 1, 15), BasisLotBased)
		assert.Error(t, cf.Realize(d(2024, 1, 15)))
	})

	t.Run("settle only from realized unsettled", func(t *testing.T) {
		cf := NewAccrualCashFlow("CF3", "C1", FlowTypeInterest,
			decimal.NewFromInt(100), "USD", d(2024, 1, 31), d(2024, 1, 31), BasisPeriodBased)
		assert.Error(t, cf.MarkSettled())

		require.NoError(t, cf.Realize(d(2024, 1, 31)))
		require.NoError(t, cf.MarkSettled())
		assert.Error(t, cf.MarkSettled(), "settle is not repeatable")
	})

	t.Run("realized flow carries event date and T+2", func(t *testing.T) {
		cf := NewRealizedCashFlow("CF4", "C1", FlowTypePnL,
			decimal.NewFromInt(-500), "USD", d(2024, 3, 30), d(2024, 3, 31), BasisContractBased)
		assert.Equal(t, d(2024, 3, 30), cf.FlowDate)
		require.NotNil(t, cf.SettlementDate)
		assert.Equal(t, d(2024, 4, 1), *cf.SettlementDate)
		assert.Equal(t, d(2024, 3, 31), cf.CalculationDate)
	})
}

func TestCashFlowDomainEvents(t *testing.T) {
	cf := NewRealizedCashFlow("CF5", "C1", FlowTypeDividend,
		decimal.NewFromInt(100), "USD", d(2024, 1, 15), d(2024, 1, 15), BasisLotBased)

	events := cf.GetDomainEvents()
	require.Len(t, events, 1)
	realized, ok := events[0].(*CashFlowRealizedEvent)
	require.True(t, ok)
	assert.Equal(t, "CF5", realized.FlowID)
	assert.Equal(t, string(FlowTypeDividend), realized.FlowType)

	require.NoError(t, cf.MarkSettled())
	require.Len(t, cf.GetDomainEvents(), 2)

	cf.ClearDomainEvents()
	assert.Empty(t, cf.GetDomainEvents())
}
