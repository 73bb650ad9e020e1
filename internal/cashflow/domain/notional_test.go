package domain

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// makeContract 构造测试合约
func makeContract(contractID string, notional float64) *SwapContract {
	c, err := NewSwapContract(contractID, "AAPL", ContractTypeEquitySwap, "USD", d(2024, 1, 1), d(2024, 12, 31))
	if err != nil {
		panic(err)
	}
	if notional > 0 {
		c.SetNotional(decimal.NewFromFloat(notional))
	}
	c.ClearDomainEvents()
	return c
}

func TestLotNotional(t *testing.T) {
	asOf := d(2024, 1, 15)
	lots := []*Lot{
		makeLot("C1", 1000, 120, dp(2024, 1, 10), LotStatusActive),
		makeLot("C1", 500, 110, dp(2024, 1, 5), LotStatusActive),
		makeLot("C1", 9999, 100, dp(2024, 3, 1), LotStatusActive), // 未到成本日
	}

	got := LotNotional("C1", asOf, lots)
	want := decimal.NewFromInt(1000*120 + 500*110)
	assert.True(t, got.Equal(want), "got %s want %s", got, want)
}

func TestResolveNotional(t *testing.T) {
	asOf := d(2024, 1, 15)

	t.Run("eligible lots win", func(t *testing.T) {
		contract := makeContract("C1", 5_000_000)
		lots := []*Lot{makeLot("C1", 1000, 120, dp(2024, 1, 10), LotStatusActive)}

		notional, basis := ResolveNotional(contract, asOf, lots)
		assert.True(t, notional.Equal(decimal.NewFromInt(120_000)))
		assert.Equal(t, BasisLotBased, basis)
	})

	t.Run("zero lot total falls back to contract notional", func(t *testing.T) {
		contract := makeContract("C1", 5_000_000)

		notional, basis := ResolveNotional(contract, asOf, nil)
		assert.True(t, notional.Equal(decimal.NewFromInt(5_000_000)))
		assert.Equal(t, BasisContractBased, basis)
	})

	t.Run("unset contract notional falls back to default", func(t *testing.T) {
		contract := makeContract("C1", 0)

		notional, basis := ResolveNotional(contract, asOf, nil)
		require.True(t, notional.Equal(DefaultNotional), "got %s", notional)
		assert.Equal(t, BasisContractBased, basis)
	})

	t.Run("zero quantity lots are degenerate", func(t *testing.T) {
		contract := makeContract("C1", 2_000_000)
		lots := []*Lot{makeLot("C1", 0, 120, dp(2024, 1, 10), LotStatusActive)}

		notional, basis := ResolveNotional(contract, asOf, lots)
		assert.True(t, notional.Equal(decimal.NewFromInt(2_000_000)))
		assert.Equal(t, BasisContractBased, basis)
	})
}

func TestStaticNotionalDefault(t *testing.T) {
	c := makeContract("C1", 0)
	assert.True(t, c.StaticNotional().Equal(DefaultNotional))

	c2 := makeContract("C2", 750_000)
	assert.True(t, c2.StaticNotional().Equal(decimal.NewFromInt(750_000)))
}
