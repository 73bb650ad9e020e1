package domain

import (
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// makeDividend 构造测试分红宣告
func makeDividend(symbol string, exDate, paymentDate *time.Time, amount float64) *DividendDeclaration {
	return &DividendDeclaration{
		Symbol:   symbol,
		ExDate:   exDate,
		PaymentDate: paymentDate,
		Amount:   decimal.NewFromFloat(amount),
		Currency: "USD",
	}
}

func dividendSnapshot(dividends ...*DividendDeclaration) *MarketDataSnapshot {
	return &MarketDataSnapshot{Dividends: dividends}
}

func TestDividendCalculatorLotBased(t *testing.T) {
	calc := NewDividendCalculator()
	asOf := d(2024, 1, 15)

	t.Run("eligible lot quantity times per share amount", func(t *testing.T) {
		contract := makeContract("C1", 1_000_000)
		lots := []*Lot{
			makeLot("C1", 1000, 120, dp(2024, 1, 10), LotStatusActive),
			makeLot("C1", 500, 110, dp(2024, 1, 5), LotStatusActive),
		}
		snapshot := dividendSnapshot(makeDividend("AAPL", dp(2024, 1, 10), dp(2024, 1, 15), 1.65))

		total, err := calc.Calculate(contract, lots, snapshot, asOf)
		require.NoError(t, err)
		assert.True(t, total.Equal(decimal.NewFromFloat(2475)), "got %s", total)
	})

	t.Run("nil ex date never contributes", func(t *testing.T) {
		contract := makeContract("C1", 1_000_000)
		lots := []*Lot{makeLot("C1", 1000, 120, dp(2024, 1, 10), LotStatusActive)}
		snapshot := dividendSnapshot(
			makeDividend("AAPL", nil, dp(2024, 1, 15), 99),
			makeDividend("AAPL", dp(2024, 1, 10), nil, 1.65),
		)

		total, err := calc.Calculate(contract, lots, snapshot, asOf)
		require.NoError(t, err)
		assert.True(t, total.Equal(decimal.NewFromFloat(1650)), "got %s", total)
	})

	t.Run("future ex date excluded", func(t *testing.T) {
		contract := makeContract("C1", 1_000_000)
		lots := []*Lot{makeLot("C1", 1000, 120, dp(2024, 1, 10), LotStatusActive)}
		snapshot := dividendSnapshot(makeDividend("AAPL", dp(2024, 6, 1), nil, 1.65))

		comp, err := calc.CalculateWithTaxDetails(contract, lots, snapshot, asOf)
		require.NoError(t, err)
		assert.True(t, comp.TotalNet.IsZero())
		assert.Empty(t, comp.Details)
	})

	t.Run("future payment date excluded until it arrives", func(t *testing.T) {
		contract := makeContract("C1", 1_000_000)
		lots := []*Lot{makeLot("C1", 1000, 120, dp(2024, 1, 10), LotStatusActive)}
		snapshot := dividendSnapshot(makeDividend("AAPL", dp(2024, 1, 10), dp(2024, 2, 15), 1.65))

		total, err := calc.Calculate(contract, lots, snapshot, asOf)
		require.NoError(t, err)
		assert.True(t, total.IsZero())

		total, err = calc.Calculate(contract, lots, snapshot, d(2024, 2, 15))
		require.NoError(t, err)
		assert.True(t, total.Equal(decimal.NewFromFloat(1650)))
	})

	t.Run("late cost date lot excluded from quantity", func(t *testing.T) {
		contract := makeContract("C1", 1_000_000)
		lots := []*Lot{
			makeLot("C1", 1000, 120, dp(2024, 1, 10), LotStatusActive),
			makeLot("C1", 9999, 100, dp(2024, 3, 1), LotStatusActive),
		}
		snapshot := dividendSnapshot(makeDividend("AAPL", dp(2024, 1, 10), nil, 1.65))

		total, err := calc.Calculate(contract, lots, snapshot, asOf)
		require.NoError(t, err)
		assert.True(t, total.Equal(decimal.NewFromFloat(1650)), "got %s", total)
	})
}

func TestDividendCalculatorContractBased(t *testing.T) {
	calc := NewDividendCalculator()
	asOf := d(2024, 1, 15)

	t.Run("no lots falls back to contract basis", func(t *testing.T) {
		contract := makeContract("C1", 1_000_000)
		snapshot := dividendSnapshot(
			makeDividend("AAPL", dp(2024, 1, 10), nil, 1.65),
			makeDividend("AAPL", dp(2024, 5, 10), nil, 1.50),
			makeDividend("AAPL", dp(2024, 9, 10), nil, 1.75),
		)

		comp, err := calc.CalculateWithTaxDetails(contract, nil, snapshot, asOf)
		require.NoError(t, err)
		assert.Equal(t, BasisContractBased, comp.Basis)
		// 1,000,000 * (1.65+1.50+1.75) / 1,000,000
		assert.True(t, comp.TotalNet.Equal(decimal.NewFromFloat(4.9)), "got %s", comp.TotalNet)
	})

	t.Run("empty and nil lots produce identical contract-based result", func(t *testing.T) {
		contract := makeContract("C1", 1_000_000)
		snapshot := dividendSnapshot(makeDividend("AAPL", dp(2024, 1, 10), nil, 1.65))

		fromNil, err := calc.Calculate(contract, nil, snapshot, asOf)
		require.NoError(t, err)
		fromEmpty, err := calc.Calculate(contract, []*Lot{}, snapshot, asOf)
		require.NoError(t, err)
		assert.True(t, fromNil.Equal(fromEmpty))
	})

	t.Run("zero quantity lots fall back to contract basis", func(t *testing.T) {
		contract := makeContract("C1", 1_000_000)
		lots := []*Lot{makeLot("C1", 0, 120, dp(2024, 1, 10), LotStatusActive)}
		snapshot := dividendSnapshot(makeDividend("AAPL", dp(2024, 1, 10), nil, 1.65))

		comp, err := calc.CalculateWithTaxDetails(contract, lots, snapshot, asOf)
		require.NoError(t, err)
		assert.Equal(t, BasisContractBased, comp.Basis)
	})

	t.Run("ex date outside contract period excluded", func(t *testing.T) {
		contract := makeContract("C1", 1_000_000)
		snapshot := dividendSnapshot(
			makeDividend("AAPL", dp(2023, 12, 31), nil, 9),
			makeDividend("AAPL", dp(2025, 1, 1), nil, 9),
			makeDividend("AAPL", dp(2024, 1, 10), nil, 1.65),
		)

		total, err := calc.Calculate(contract, nil, snapshot, asOf)
		require.NoError(t, err)
		assert.True(t, total.Equal(decimal.NewFromFloat(1.65)), "got %s", total)
	})
}

func TestDividendCalculatorWithholding(t *testing.T) {
	calc := NewDividendCalculator()
	asOf := d(2024, 1, 15)

	t.Run("gross up splits tax out of net", func(t *testing.T) {
		contract := makeContract("C1", 1_000_000)
		lots := []*Lot{makeLot("C1", 1000, 120, dp(2024, 1, 10), LotStatusActive)}
		div := makeDividend("AAPL", dp(2024, 1, 10), nil, 2.00)
		div.TaxRate = decimal.NewFromFloat(15.0)
		div.Treatment = TreatmentGrossUp

		comp, err := calc.CalculateWithTaxDetails(contract, lots, dividendSnapshot(div), asOf)
		require.NoError(t, err)
		assert.True(t, comp.TotalGross.Equal(decimal.NewFromInt(2000)))
		assert.True(t, comp.TotalTax.Equal(decimal.NewFromInt(300)))
		assert.True(t, comp.TotalNet.Equal(decimal.NewFromInt(1700)))

		require.Len(t, comp.Details, 1)
		detail := comp.Details[0]
		assert.True(t, detail.NetAmount.Equal(detail.GrossAmount.Sub(detail.TaxAmount)))
		assert.Equal(t, "US", detail.TaxJurisdiction)
		assert.Equal(t, "TAX_C1_20240110", detail.TaxUtilityRef)
	})

	t.Run("tax credit keeps net at gross with recoverable tax", func(t *testing.T) {
		contract := makeContract("C1", 1_000_000)
		lots := []*Lot{makeLot("C1", 1000, 120, dp(2024, 1, 10), LotStatusActive)}
		div := makeDividend("AAPL", dp(2024, 1, 10), nil, 2.00)
		div.TaxRate = decimal.NewFromFloat(15.0)
		div.Treatment = TreatmentTaxCredit

		comp, err := calc.CalculateWithTaxDetails(contract, lots, dividendSnapshot(div), asOf)
		require.NoError(t, err)
		assert.True(t, comp.TotalNet.Equal(decimal.NewFromInt(2000)))
		assert.True(t, comp.TotalTax.Equal(decimal.NewFromInt(300)))
	})
}

func TestDividendCalculatorMissingData(t *testing.T) {
	calc := NewDividendCalculator()
	contract := makeContract("C1", 1_000_000)

	for name, snapshot := range map[string]*MarketDataSnapshot{
		"nil snapshot":          nil,
		"empty snapshot":        dividendSnapshot(),
		"other symbol only":     dividendSnapshot(makeDividend("MSFT", dp(2024, 1, 10), nil, 1)),
	} {
		t.Run(name, func(t *testing.T) {
			_, err := calc.Calculate(contract, nil, snapshot, d(2024, 1, 15))
			require.Error(t, err)
			assert.True(t, errors.Is(err, ErrDividendDataNotFound))

			var notFound *DividendDataNotFoundError
			require.True(t, errors.As(err, &notFound))
			assert.Equal(t, "C1", notFound.ContractID)
			assert.Equal(t, "AAPL", notFound.Underlying)
		})
	}
}
