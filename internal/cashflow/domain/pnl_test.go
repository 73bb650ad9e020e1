package domain

import (
	"errors"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func priceSnapshot(symbol string, price float64) *MarketDataSnapshot {
	return &MarketDataSnapshot{
		Prices: []*PriceMark{{Symbol: symbol, Price: decimal.NewFromFloat(price), AsOf: d(2024, 1, 15)}},
	}
}

func TestPnLCalculatorLotBased(t *testing.T) {
	calc := NewPnLCalculator()
	asOf := d(2024, 1, 15)

	t.Run("quantity times price move", func(t *testing.T) {
		contract := makeContract("C1", 1_000_000)
		lots := []*Lot{makeLot("C1", 1000, 120, dp(2024, 1, 10), LotStatusActive)}

		result, err := calc.Calculate(contract, lots, priceSnapshot("AAPL", 150), asOf)
		require.NoError(t, err)
		assert.Equal(t, BasisLotBased, result.Basis)
		assert.True(t, result.Amount.Equal(decimal.NewFromInt(30_000)), "got %s", result.Amount)
	})

	t.Run("late cost date lot excluded", func(t *testing.T) {
		contract := makeContract("C1", 1_000_000)
		lots := []*Lot{
			makeLot("C1", 1000, 120, dp(2024, 1, 10), LotStatusActive),
			makeLot("C1", 500, 100, dp(2024, 3, 1), LotStatusActive),
		}

		result, err := calc.Calculate(contract, lots, priceSnapshot("AAPL", 150), asOf)
		require.NoError(t, err)
		assert.True(t, result.Amount.Equal(decimal.NewFromInt(30_000)), "got %s", result.Amount)
	})

	t.Run("negative pnl is not clamped", func(t *testing.T) {
		contract := makeContract("C1", 1_000_000)
		lots := []*Lot{makeLot("C1", 1000, 120, dp(2024, 1, 10), LotStatusActive)}

		result, err := calc.Calculate(contract, lots, priceSnapshot("AAPL", 90), asOf)
		require.NoError(t, err)
		assert.True(t, result.Amount.Equal(decimal.NewFromInt(-30_000)), "got %s", result.Amount)
	})

	t.Run("closed lot excluded", func(t *testing.T) {
		contract := makeContract("C1", 1_000_000)
		lots := []*Lot{
			makeLot("C1", 1000, 120, dp(2024, 1, 10), LotStatusActive),
			makeLot("C1", 500, 120, dp(2024, 1, 10), LotStatusClosed),
		}

		result, err := calc.Calculate(contract, lots, priceSnapshot("AAPL", 150), asOf)
		require.NoError(t, err)
		assert.True(t, result.Amount.Equal(decimal.NewFromInt(30_000)), "got %s", result.Amount)
	})
}

func TestPnLCalculatorContractBased(t *testing.T) {
	calc := NewPnLCalculator()
	asOf := d(2024, 1, 15)

	t.Run("no lots falls back to reference price formula", func(t *testing.T) {
		contract := makeContract("C1", 1_000_000)

		result, err := calc.Calculate(contract, nil, priceSnapshot("AAPL", 150), asOf)
		require.NoError(t, err)
		assert.Equal(t, BasisContractBased, result.Basis)
		// 1,000,000 * (150 - 100) / 100
		assert.True(t, result.Amount.Equal(decimal.NewFromInt(500_000)), "got %s", result.Amount)
	})

	t.Run("empty and nil lots produce identical fallback", func(t *testing.T) {
		contract := makeContract("C1", 1_000_000)

		fromNil, err := calc.Calculate(contract, nil, priceSnapshot("AAPL", 150), asOf)
		require.NoError(t, err)
		fromEmpty, err := calc.Calculate(contract, []*Lot{}, priceSnapshot("AAPL", 150), asOf)
		require.NoError(t, err)
		assert.True(t, fromNil.Amount.Equal(fromEmpty.Amount))
		assert.Equal(t, fromNil.Basis, fromEmpty.Basis)
	})

	t.Run("other contract lots trigger fallback", func(t *testing.T) {
		contract := makeContract("C1", 1_000_000)
		lots := []*Lot{makeLot("C2", 1000, 120, dp(2024, 1, 10), LotStatusActive)}

		result, err := calc.Calculate(contract, lots, priceSnapshot("AAPL", 150), asOf)
		require.NoError(t, err)
		assert.Equal(t, BasisContractBased, result.Basis)
	})
}

func TestPnLCalculatorMissingPrice(t *testing.T) {
	calc := NewPnLCalculator()
	contract := makeContract("C1", 1_000_000)

	_, err := calc.Calculate(contract, nil, priceSnapshot("MSFT", 150), d(2024, 1, 15))
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrPriceDataNotFound))

	var notFound *PriceDataNotFoundError
	require.True(t, errors.As(err, &notFound))
	assert.Equal(t, "AAPL", notFound.Underlying)
}

func TestPnLCalculatorSingleSecurityFallbackField(t *testing.T) {
	calc := NewPnLCalculator()
	contract := makeContract("C1", 1_000_000)
	snapshot := &MarketDataSnapshot{
		Price: &PriceMark{Symbol: "AAPL", Price: decimal.NewFromFloat(150)},
	}

	result, err := calc.Calculate(contract, nil, snapshot, d(2024, 1, 15))
	require.NoError(t, err)
	assert.True(t, result.CurrentPrice.Equal(decimal.NewFromFloat(150)))
}

func TestPnLCalculatorByPositions(t *testing.T) {
	calc := NewPnLCalculator()
	contract := makeContract("C1", 1_000_000)
	positions := []*Position{
		{PositionID: "P1", ContractID: "C1", LegType: LegTypeEquity, Quantity: decimal.NewFromInt(1000), AveragePrice: decimal.NewFromInt(120)},
		{PositionID: "P2", ContractID: "C1", LegType: LegTypeFixedIncome, Quantity: decimal.NewFromInt(9999), AveragePrice: decimal.NewFromInt(1)},
		{PositionID: "P3", ContractID: "C2", LegType: LegTypeEquity, Quantity: decimal.NewFromInt(9999), AveragePrice: decimal.NewFromInt(1)},
	}

	total, err := calc.CalculateByPositions(contract, positions, priceSnapshot("AAPL", 150))
	require.NoError(t, err)
	// 只有 C1 的权益腿持仓参与
	assert.True(t, total.Equal(decimal.NewFromInt(30_000)), "got %s", total)
}
