package domain

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestInstruction() *SettlementInstruction {
	return NewSettlementInstruction(
		"SI1", "CF1", "C1", "DIVIDEND",
		decimal.NewFromInt(2475), "USD",
		time.Date(2024, 1, 17, 0, 0, 0, 0, time.UTC),
	)
}

func TestSettlementInstructionLifecycle(t *testing.T) {
	t.Run("settle from pending", func(t *testing.T) {
		ins := newTestInstruction()
		assert.Equal(t, InstructionStatusPending, ins.Status)

		require.NoError(t, ins.Settle())
		assert.Equal(t, InstructionStatusSettled, ins.Status)
		require.NotNil(t, ins.SettledAt)

		assert.ErrorIs(t, ins.Settle(), ErrInstructionNotPending)
		assert.ErrorIs(t, ins.MarkFailed("late"), ErrInstructionNotPending)
	})

	t.Run("fail from pending", func(t *testing.T) {
		ins := newTestInstruction()
		require.NoError(t, ins.MarkFailed("counterparty rejected"))
		assert.Equal(t, InstructionStatusFailed, ins.Status)
		assert.Equal(t, "counterparty rejected", ins.FailReason)
		assert.Nil(t, ins.SettledAt)

		assert.ErrorIs(t, ins.Settle(), ErrInstructionNotPending)
	})
}

func TestSettlementInstructionDue(t *testing.T) {
	ins := newTestInstruction()

	assert.False(t, ins.Due(time.Date(2024, 1, 16, 0, 0, 0, 0, time.UTC)))
	assert.True(t, ins.Due(time.Date(2024, 1, 17, 0, 0, 0, 0, time.UTC)), "交收日当天即到期")
	assert.True(t, ins.Due(time.Date(2024, 1, 18, 0, 0, 0, 0, time.UTC)))
}

func TestSettlementInstructionEvents(t *testing.T) {
	ins := newTestInstruction()

	events := ins.GetDomainEvents()
	require.Len(t, events, 1)
	created, ok := events[0].(*InstructionCreatedEvent)
	require.True(t, ok)
	assert.Equal(t, "SI1", created.InstructionID)
	assert.Equal(t, "CF1", created.CashFlowID)

	require.NoError(t, ins.Settle())
	events = ins.GetDomainEvents()
	require.Len(t, events, 2)
	settled, ok := events[1].(*InstructionSettledEvent)
	require.True(t, ok)
	assert.True(t, settled.Amount.Equal(decimal.NewFromInt(2475)))

	ins.ClearDomainEvents()
	assert.Empty(t, ins.GetDomainEvents())
}
