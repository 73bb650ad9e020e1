package domain

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func TestPriceValidate(t *testing.T) {
	asOf := time.Date(2024, 1, 15, 0, 0, 0, 0, time.UTC)

	valid := &Price{Symbol: "AAPL", Price: decimal.NewFromInt(150), AsOf: asOf}
	assert.NoError(t, valid.Validate())

	assert.ErrorIs(t, (&Price{Price: decimal.NewFromInt(150), AsOf: asOf}).Validate(), ErrInvalidMarketData)
	assert.ErrorIs(t, (&Price{Symbol: "AAPL", Price: decimal.NewFromInt(-1), AsOf: asOf}).Validate(), ErrInvalidMarketData)
	assert.ErrorIs(t, (&Price{Symbol: "AAPL", Price: decimal.NewFromInt(150)}).Validate(), ErrInvalidMarketData)
}

func TestRateValidate(t *testing.T) {
	asOf := time.Date(2024, 1, 15, 0, 0, 0, 0, time.UTC)

	valid := &Rate{IndexName: "SOFR", Rate: decimal.NewFromFloat(0.053), AsOf: asOf}
	assert.NoError(t, valid.Validate())

	// 负利率合法
	negative := &Rate{IndexName: "ESTR", Rate: decimal.NewFromFloat(-0.005), AsOf: asOf}
	assert.NoError(t, negative.Validate())

	assert.ErrorIs(t, (&Rate{AsOf: asOf}).Validate(), ErrInvalidMarketData)
	assert.ErrorIs(t, (&Rate{IndexName: "SOFR"}).Validate(), ErrInvalidMarketData)
}

func TestDividendValidate(t *testing.T) {
	exDate := time.Date(2024, 1, 15, 0, 0, 0, 0, time.UTC)

	valid := &Dividend{Symbol: "AAPL", ExDate: exDate, Amount: decimal.NewFromFloat(1.65), Currency: "USD"}
	assert.NoError(t, valid.Validate())

	assert.ErrorIs(t, (&Dividend{ExDate: exDate, Amount: decimal.NewFromFloat(1.65)}).Validate(), ErrInvalidMarketData)
	assert.ErrorIs(t, (&Dividend{Symbol: "AAPL", Amount: decimal.NewFromFloat(1.65)}).Validate(), ErrInvalidMarketData)
	assert.ErrorIs(t, (&Dividend{Symbol: "AAPL", ExDate: exDate, Amount: decimal.NewFromInt(-1)}).Validate(), ErrInvalidMarketData)
}
