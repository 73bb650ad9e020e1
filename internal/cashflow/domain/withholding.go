// Package domain 分红预提税处理
// 生成摘要：
// 1) 定义四种预提税处理方式的闭合枚举与金额拆分规则
// 2) 不变式：除 TAX_CREDIT 外恒有 net = gross - tax；TAX_CREDIT 下 net = gross，税额单独作为可抵扣项报告
// 3) WithholdingTaxInfo 每次计算新建，核心不落库
package domain

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// WithholdingTreatment 预提税处理方式
type WithholdingTreatment string

const (
	TreatmentGrossUp       WithholdingTreatment = "GROSS_UP"       // 税前金额，扣税后入账
	TreatmentNetAmount     WithholdingTreatment = "NET_AMOUNT"     // 金额已为税后
	TreatmentNoWithholding WithholdingTreatment = "NO_WITHHOLDING" // 不预提
	TreatmentTaxCredit     WithholdingTreatment = "TAX_CREDIT"     // 税额可抵扣，全额入账
)

// EffectiveTreatment 处理方式缺省解析：空值按 GROSS_UP
func EffectiveTreatment(t WithholdingTreatment) WithholdingTreatment {
	if t == "" {
		return TreatmentGrossUp
	}
	return t
}

// ApplyWithholding 按处理方式拆分税前金额
// 返回净额与税额；税率为零时不论处理方式均无税
func ApplyWithholding(gross, rate decimal.Decimal, treatment WithholdingTreatment) (net, tax decimal.Decimal) {
	if rate.IsZero() {
		return gross, decimal.Zero
	}

	switch EffectiveTreatment(treatment) {
	case TreatmentGrossUp:
		tax = gross.Mul(rate).Div(decimal.NewFromInt(100))
		return gross.Sub(tax), tax
	case TreatmentNetAmount:
		return gross, decimal.Zero
	case TreatmentNoWithholding:
		return gross, decimal.Zero
	case TreatmentTaxCredit:
		// 投资者可向税务机关申索，净额不减，税额单独报告
		tax = gross.Mul(rate).Div(decimal.NewFromInt(100))
		return gross, tax
	default:
		tax = gross.Mul(rate).Div(decimal.NewFromInt(100))
		return gross.Sub(tax), tax
	}
}

// WithholdingTaxInfo 单笔分红的预提税明细，用于审计与申报
type WithholdingTaxInfo struct {
	ContractID      string               `json:"contract_id"`
	Underlying      string               `json:"underlying"`
	Currency        string               `json:"currency"`
	ExDate          *time.Time           `json:"ex_date"`
	PaymentDate     *time.Time           `json:"payment_date"`
	GrossAmount     decimal.Decimal      `json:"gross_amount"`
	TaxRate         decimal.Decimal      `json:"tax_rate"`
	TaxAmount       decimal.Decimal      `json:"tax_amount"`
	NetAmount       decimal.Decimal      `json:"net_amount"`
	Treatment       WithholdingTreatment `json:"treatment"`
	TaxJurisdiction string               `json:"tax_jurisdiction"`
	CalculationType CalculationBasis     `json:"calculation_type"`
	CalculationDate time.Time            `json:"calculation_date"`
	TaxUtilityRef   string               `json:"tax_utility_ref"`
}

// NewWithholdingTaxInfo 构建单笔分红的预提税明细
func NewWithholdingTaxInfo(contract *SwapContract, div *DividendDeclaration, gross, tax, net decimal.Decimal, basis CalculationBasis, calcDate time.Time) *WithholdingTaxInfo {
	return &WithholdingTaxInfo{
		ContractID:      contract.ContractID,
		Underlying:      div.Symbol,
		Currency:        div.Currency,
		ExDate:          div.ExDate,
		PaymentDate:     div.PaymentDate,
		GrossAmount:     gross,
		TaxRate:         div.TaxRate,
		TaxAmount:       tax,
		NetAmount:       net,
		Treatment:       EffectiveTreatment(div.Treatment),
		TaxJurisdiction: JurisdictionOfCurrency(div.Currency),
		CalculationType: basis,
		CalculationDate: DateOf(calcDate),
		TaxUtilityRef:   TaxUtilityRef(contract.ContractID, div.ExDate),
	}
}

// TaxUtilityRef 税务申报系统的关联引用号
func TaxUtilityRef(contractID string, exDate *time.Time) string {
	compact := "00000000"
	if exDate != nil {
		compact = exDate.Format("20060102")
	}
	return fmt.Sprintf("TAX_%s_%s", contractID, compact)
}

// currencyJurisdictions 币种到税务辖区的静态映射
var currencyJurisdictions = map[string]string{
	"USD": "US",
	"EUR": "EU",
	"GBP": "GB",
	"JPY": "JP",
	"CHF": "CH",
	"CNY": "CN",
	"HKD": "HK",
}

// JurisdictionOfCurrency 按分红币种推导税务辖区
func JurisdictionOfCurrency(currency string) string {
	if j, ok := currencyJurisdictions[currency]; ok {
		return j
	}
	return "UNKNOWN"
}
