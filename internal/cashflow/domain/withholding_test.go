package domain

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func TestApplyWithholding(t *testing.T) {
	gross := decimal.NewFromInt(2000)
	rate := decimal.NewFromFloat(15.0)

	t.Run("gross up deducts tax from net", func(t *testing.T) {
		net, tax := ApplyWithholding(gross, rate, TreatmentGrossUp)
		assert.True(t, tax.Equal(decimal.NewFromInt(300)), "tax %s", tax)
		assert.True(t, net.Equal(decimal.NewFromInt(1700)), "net %s", net)
	})

	t.Run("tax credit keeps net at gross and reports tax separately", func(t *testing.T) {
		net, tax := ApplyWithholding(gross, rate, TreatmentTaxCredit)
		assert.True(t, net.Equal(gross))
		assert.True(t, tax.Equal(decimal.NewFromInt(300)))
	})

	t.Run("net amount passes through untaxed", func(t *testing.T) {
		net, tax := ApplyWithholding(gross, rate, TreatmentNetAmount)
		assert.True(t, net.Equal(gross))
		assert.True(t, tax.IsZero())
	})

	t.Run("no withholding passes through untaxed", func(t *testing.T) {
		net, tax := ApplyWithholding(gross, rate, TreatmentNoWithholding)
		assert.True(t, net.Equal(gross))
		assert.True(t, tax.IsZero())
	})

	t.Run("empty treatment behaves as gross up", func(t *testing.T) {
		net, tax := ApplyWithholding(gross, rate, "")
		assert.True(t, net.Equal(decimal.NewFromInt(1700)))
		assert.True(t, tax.Equal(decimal.NewFromInt(300)))
	})

	t.Run("zero rate never taxes", func(t *testing.T) {
		for _, treatment := range []WithholdingTreatment{TreatmentGrossUp, TreatmentTaxCredit, TreatmentNetAmount, ""} {
			net, tax := ApplyWithholding(gross, decimal.Zero, treatment)
			assert.True(t, net.Equal(gross))
			assert.True(t, tax.IsZero())
		}
	})

	t.Run("net plus tax equals gross for gross up", func(t *testing.T) {
		for _, r := range []float64{5, 10, 15, 25.5, 30} {
			net, tax := ApplyWithholding(gross, decimal.NewFromFloat(r), TreatmentGrossUp)
			assert.True(t, net.Add(tax).Equal(gross), "rate %v", r)
		}
	})
}

func TestEffectiveTreatment(t *testing.T) {
	assert.Equal(t, TreatmentGrossUp, EffectiveTreatment(""))
	assert.Equal(t, TreatmentTaxCredit, EffectiveTreatment(TreatmentTaxCredit))
}

func TestTaxUtilityRef(t *testing.T) {
	ex := d(2024, 1, 10)
	assert.Equal(t, "TAX_CTR001_20240110", TaxUtilityRef("CTR001", &ex))
	assert.Equal(t, "TAX_CTR001_00000000", TaxUtilityRef("CTR001", nil))
}

func TestJurisdictionOfCurrency(t *testing.T) {
	assert.Equal(t, "US", JurisdictionOfCurrency("USD"))
	assert.Equal(t, "JP", JurisdictionOfCurrency("JPY"))
	assert.Equal(t, "UNKNOWN", JurisdictionOfCurrency("XXX"))
}
