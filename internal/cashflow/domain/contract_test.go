package domain

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewSwapContract(t *testing.T) {
	c, err := NewSwapContract("SWP1", "AAPL", ContractTypeEquitySwap, "USD", d(2024, 1, 1), d(2024, 12, 31))
	require.NoError(t, err)
	assert.Equal(t, ContractStatusDraft, c.Status)
	assert.Equal(t, DayCountACT360, c.DayCount)
	assert.Equal(t, FrequencyMonthly, c.PaymentFreq)

	_, err = NewSwapContract("", "AAPL", ContractTypeEquitySwap, "USD", d(2024, 1, 1), d(2024, 12, 31))
	assert.ErrorIs(t, err, ErrInvalidContract)

	_, err = NewSwapContract("SWP1", "", ContractTypeEquitySwap, "USD", d(2024, 1, 1), d(2024, 12, 31))
	assert.ErrorIs(t, err, ErrInvalidContract)

	_, err = NewSwapContract("SWP1", "AAPL", ContractTypeEquitySwap, "USD", d(2024, 12, 31), d(2024, 1, 1))
	assert.ErrorIs(t, err, ErrInvalidContract)
}

func TestSwapContractStatusTransitions(t *testing.T) {
	c, err := NewSwapContract("SWP1", "AAPL", ContractTypeEquitySwap, "USD", d(2024, 1, 1), d(2024, 12, 31))
	require.NoError(t, err)

	require.NoError(t, c.Activate())
	assert.Equal(t, ContractStatusActive, c.Status)
	assert.Error(t, c.Activate(), "生效不可重复")

	require.NoError(t, c.Terminate())
	assert.Equal(t, ContractStatusTerminated, c.Status)
	assert.Error(t, c.Terminate())

	// 草稿可直接终止
	draft, err := NewSwapContract("SWP2", "AAPL", ContractTypeEquitySwap, "USD", d(2024, 1, 1), d(2024, 12, 31))
	require.NoError(t, err)
	require.NoError(t, draft.Terminate())
}

func TestSwapContractStaticNotional(t *testing.T) {
	c, err := NewSwapContract("SWP1", "AAPL", ContractTypeEquitySwap, "USD", d(2024, 1, 1), d(2024, 12, 31))
	require.NoError(t, err)

	assert.True(t, c.StaticNotional().Equal(DefaultNotional), "未设置时回落到兜底值")

	c.SetNotional(decimal.NewFromInt(5_000_000))
	assert.True(t, c.StaticNotional().Equal(decimal.NewFromInt(5_000_000)))
}

func TestSwapContractInterestLeg(t *testing.T) {
	c, err := NewSwapContract("SWP1", "AAPL", ContractTypeEquitySwap, "USD", d(2024, 1, 1), d(2024, 12, 31))
	require.NoError(t, err)

	assert.False(t, c.HasFixedRate())

	c.SetInterestLeg("SOFR", decimal.NewFromFloat(0.055), DayCountACT365, FrequencyQuarterly)
	assert.Equal(t, "SOFR", c.InterestRateIndex)
	assert.Equal(t, DayCountACT365, c.DayCount)
	assert.Equal(t, FrequencyQuarterly, c.PaymentFreq)
	assert.True(t, c.HasFixedRate())

	// 空惯例/频率保留原值
	c.SetInterestLeg("SOFR", decimal.NewFromFloat(0.055), "", "")
	assert.Equal(t, DayCountACT365, c.DayCount)
	assert.Equal(t, FrequencyQuarterly, c.PaymentFreq)
}

func TestSwapContractContainsExDate(t *testing.T) {
	c, err := NewSwapContract("SWP1", "AAPL", ContractTypeEquitySwap, "USD", d(2024, 1, 1), d(2024, 12, 31))
	require.NoError(t, err)

	assert.True(t, c.ContainsExDate(d(2024, 1, 1)), "含起始日")
	assert.True(t, c.ContainsExDate(d(2024, 12, 31)), "含到期日")
	assert.False(t, c.ContainsExDate(d(2023, 12, 31)))
	assert.False(t, c.ContainsExDate(d(2025, 1, 1)))
}

func TestSwapContractDomainEvents(t *testing.T) {
	c, err := NewSwapContract("SWP1", "AAPL", ContractTypeEquitySwap, "USD", d(2024, 1, 1), d(2024, 12, 31))
	require.NoError(t, err)

	events := c.GetDomainEvents()
	require.Len(t, events, 1)
	created, ok := events[0].(*ContractCreatedEvent)
	require.True(t, ok)
	assert.Equal(t, "SWP1", created.ContractID)

	c.SetNotional(decimal.NewFromInt(100))
	require.Len(t, c.GetDomainEvents(), 2)

	c.ClearDomainEvents()
	assert.Empty(t, c.GetDomainEvents())
}
