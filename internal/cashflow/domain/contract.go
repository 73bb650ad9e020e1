// Package domain 互换合约聚合根
// 生成摘要：
// 1) 定义 SwapContract 聚合根：利率腿配置（指数、固定利率、计息惯例、付息频率）与权益腿标的
// 2) 名义本金缺省解析：未设置时回落到 1,000,000
// 3) 合约在单次计算期间不可变，仅作为只读输入
package domain

import (
	"errors"
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// ContractType 合约类型
type ContractType string

const (
	ContractTypeEquitySwap       ContractType = "EQUITY_SWAP"       // 权益互换
	ContractTypeEquityForward    ContractType = "EQUITY_FORWARD"    // 权益远期
	ContractTypeEquityOption     ContractType = "EQUITY_OPTION"     // 权益期权
	ContractTypeInterestRateSwap ContractType = "INTEREST_RATE_SWAP" // 利率互换
	ContractTypeBond             ContractType = "BOND"              // 债券
)

// ContractStatus 合约状态
type ContractStatus string

const (
	ContractStatusDraft      ContractStatus = "DRAFT"      // 草稿
	ContractStatusActive     ContractStatus = "ACTIVE"     // 生效
	ContractStatusTerminated ContractStatus = "TERMINATED" // 已终止
)

// PaymentFrequency 付息频率
type PaymentFrequency string

const (
	FrequencyDaily     PaymentFrequency = "DAILY"     // 每日
	FrequencyWeekly    PaymentFrequency = "WEEKLY"    // 每周
	FrequencyMonthly   PaymentFrequency = "MONTHLY"   // 每月
	FrequencyQuarterly PaymentFrequency = "QUARTERLY" // 每季
	FrequencyYearly    PaymentFrequency = "YEARLY"    // 每年
)

// DefaultNotional 名义本金兜底值
var DefaultNotional = decimal.NewFromInt(1_000_000)

// SwapContract 互换合约聚合根
type SwapContract struct {
	gorm.Model
	ContractID       string             `gorm:"column:contract_id;type:varchar(64);uniqueIndex;not null" json:"contract_id"`
	Underlying       string             `gorm:"column:underlying;type:varchar(32);not null" json:"underlying"`
	ContractType     ContractType       `gorm:"column:contract_type;type:varchar(32);not null" json:"contract_type"`
	Status           ContractStatus     `gorm:"column:status;type:varchar(16);not null;default:'DRAFT'" json:"status"`
	NotionalAmount   decimal.Decimal    `gorm:"column:notional_amount;type:decimal(20,2)" json:"notional_amount"`
	Currency         string             `gorm:"column:currency;type:char(3);not null" json:"currency"`
	StartDate        time.Time          `gorm:"column:start_date;not null" json:"start_date"`
	EndDate          time.Time          `gorm:"column:end_date;not null" json:"end_date"`

	// 利率腿
	InterestRateIndex string             `gorm:"column:interest_rate_index;type:varchar(32)" json:"interest_rate_index"`
	FixedRate         decimal.Decimal    `gorm:"column:fixed_rate;type:decimal(12,8)" json:"fixed_rate"`
	DayCount          DayCountConvention `gorm:"column:day_count;type:varchar(16);not null;default:'ACT/360'" json:"day_count"`
	PaymentFreq       PaymentFrequency   `gorm:"column:payment_freq;type:varchar(16);not null;default:'MONTHLY'" json:"payment_freq"`

	// 权益腿
	EquityQuantity decimal.Decimal `gorm:"column:equity_quantity;type:decimal(20,4)" json:"equity_quantity"`

	domainEvents []DomainEvent `gorm:"-"`
}

// TableName 表名
func (SwapContract) TableName() string {
	return "swap_contracts"
}

// NewSwapContract 创建合约
func NewSwapContract(contractID, underlying string, cType ContractType, currency string, start, end time.Time) (*SwapContract, error) {
	if contractID == "" {
		return nil, ErrInvalidContract
	}
	if underlying == "" {
		return nil, ErrInvalidContract
	}
	if end.Before(start) {
		return nil, ErrInvalidContract
	}

	c := &SwapContract{
		ContractID:   contractID,
		Underlying:   underlying,
		ContractType: cType,
		Status:       ContractStatusDraft,
		Currency:     currency,
		StartDate:    DateOf(start),
		EndDate:      DateOf(end),
		DayCount:     DayCountACT360,
		PaymentFreq:  FrequencyMonthly,
	}
	c.addEvent(&ContractCreatedEvent{
		ContractID: contractID,
		Underlying: underlying,
		Timestamp:  time.Now(),
	})
	return c, nil
}

// Activate 生效合约
func (c *SwapContract) Activate() error {
	if c.Status != ContractStatusDraft {
		return errors.New("invalid status for activate")
	}
	c.Status = ContractStatusActive
	c.addEvent(&ContractUpdatedEvent{ContractID: c.ContractID, Field: "status", Timestamp: time.Now()})
	return nil
}

// Terminate 终止合约
func (c *SwapContract) Terminate() error {
	if c.Status == ContractStatusTerminated {
		return errors.New("contract already terminated")
	}
	c.Status = ContractStatusTerminated
	c.addEvent(&ContractUpdatedEvent{ContractID: c.ContractID, Field: "status", Timestamp: time.Now()})
	return nil
}

// SetInterestLeg 配置利率腿
func (c *SwapContract) SetInterestLeg(index string, fixedRate decimal.Decimal, dayCount DayCountConvention, freq PaymentFrequency) {
	c.InterestRateIndex = index
	c.FixedRate = fixedRate
	if dayCount != "" {
		c.DayCount = dayCount
	}
	if freq != "" {
		c.PaymentFreq = freq
	}
	c.addEvent(&ContractUpdatedEvent{ContractID: c.ContractID, Field: "interest_leg", Timestamp: time.Now()})
}

// SetNotional 设置名义本金
func (c *SwapContract) SetNotional(notional decimal.Decimal) {
	c.NotionalAmount = notional
	c.addEvent(&ContractUpdatedEvent{ContractID: c.ContractID, Field: "notional", Timestamp: time.Now()})
}

// StaticNotional 合约级名义本金缺省解析：未设置（零值）时回落到 DefaultNotional
func (c *SwapContract) StaticNotional() decimal.Decimal {
	if c.NotionalAmount.IsPositive() {
		return c.NotionalAmount
	}
	return DefaultNotional
}

// HasFixedRate 合约是否配置了固定/兜底利率
func (c *SwapContract) HasFixedRate() bool {
	return !c.FixedRate.IsZero()
}

// ContainsExDate 除息日是否落在合约有效期内（含两端）
func (c *SwapContract) ContainsExDate(exDate time.Time) bool {
	d := DateOf(exDate)
	return !d.Before(DateOf(c.StartDate)) && !d.After(DateOf(c.EndDate))
}

func (c *SwapContract) addEvent(event DomainEvent) {
	c.domainEvents = append(c.domainEvents, event)
}

// GetDomainEvents 获取领域事件
func (c *SwapContract) GetDomainEvents() []DomainEvent {
	return c.domainEvents
}

// ClearDomainEvents 清空领域事件
func (c *SwapContract) ClearDomainEvents() {
	c.domainEvents = nil
}
