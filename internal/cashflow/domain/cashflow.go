// Package domain 现金流聚合根与生命周期
// 生成摘要：
// 1) 定义 CashFlow 聚合根：类型、金额、计提区间、计算口径、状态机
// 2) 状态机 ACCRUAL -> REALIZED_UNSETTLED -> SETTLED；SETTLED 由外部结算跟踪方驱动
// 3) 已实现现金流带 T+2 自然日交收日
package domain

import (
	"errors"
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// FlowType 现金流类型
type FlowType string

const (
	FlowTypeInterest        FlowType = "INTEREST"         // 利息
	FlowTypeDividend        FlowType = "DIVIDEND"         // 分红
	FlowTypePnL             FlowType = "PNL"              // 盈亏
	FlowTypePrincipal       FlowType = "PRINCIPAL"        // 本金（扩展点）
	FlowTypeCorporateAction FlowType = "CORPORATE_ACTION" // 公司行动（扩展点）
)

// FlowStatus 现金流状态
type FlowStatus string

const (
	FlowStatusAccrual           FlowStatus = "ACCRUAL"            // 计提中
	FlowStatusRealizedUnsettled FlowStatus = "REALIZED_UNSETTLED" // 已实现未交收
	FlowStatusSettled           FlowStatus = "SETTLED"            // 已交收
)

// CalculationBasis 计算口径，审计用
type CalculationBasis string

const (
	BasisLotBased      CalculationBasis = "LOT_BASED"      // 按批次
	BasisContractBased CalculationBasis = "CONTRACT_BASED" // 按合约兜底
	BasisPeriodBased   CalculationBasis = "PERIOD_BASED"   // 按计息期
)

// SettlementLagDays 实现后到交收的自然日滞后（T+2 简化）
const SettlementLagDays = 2

// SettlementDateFor 按 T+2 自然日推导交收日
func SettlementDateFor(eventDate time.Time) time.Time {
	return DateOf(eventDate).AddDate(0, 0, SettlementLagDays)
}

// CashFlow 现金流聚合根
type CashFlow struct {
	gorm.Model
	FlowID          string           `gorm:"column:flow_id;type:varchar(64);uniqueIndex;not null" json:"flow_id"`
	ContractID      string           `gorm:"column:contract_id;type:varchar(64);index;not null" json:"contract_id"`
	PositionID      string           `gorm:"column:position_id;type:varchar(64)" json:"position_id"`
	LotID           string           `gorm:"column:lot_id;type:varchar(64)" json:"lot_id"`
	FlowType        FlowType         `gorm:"column:flow_type;type:varchar(32);not null" json:"flow_type"`
	Amount          decimal.Decimal  `gorm:"column:amount;type:decimal(20,2);not null" json:"amount"`
	Currency        string           `gorm:"column:currency;type:char(3);not null" json:"currency"`
	FlowDate        time.Time        `gorm:"column:flow_date;index;not null" json:"flow_date"`
	AccrualStart    *time.Time       `gorm:"column:accrual_start" json:"accrual_start"`
	AccrualEnd      *time.Time       `gorm:"column:accrual_end" json:"accrual_end"`
	Status          FlowStatus       `gorm:"column:status;type:varchar(32);not null;default:'ACCRUAL'" json:"status"`
	SettlementDate  *time.Time       `gorm:"column:settlement_date;index" json:"settlement_date"`
	Basis           CalculationBasis `gorm:"column:basis;type:varchar(32);not null" json:"basis"`
	CalculationDate time.Time        `gorm:"column:calculation_date;index;not null" json:"calculation_date"`

	domainEvents []DomainEvent `gorm:"-"`
}

// TableName 表名
func (CashFlow) TableName() string {
	return "cash_flows"
}

// NewAccrualCashFlow 创建计提中现金流，不带交收日
func NewAccrualCashFlow(flowID, contractID string, fType FlowType, amount decimal.Decimal, currency string, flowDate, calcDate time.Time, basis CalculationBasis) *CashFlow {
	return &CashFlow{
		FlowID:          flowID,
		ContractID:      contractID,
		FlowType:        fType,
		Amount:          amount,
		Currency:        currency,
		FlowDate:        DateOf(flowDate),
		Status:          FlowStatusAccrual,
		Basis:           basis,
		CalculationDate: DateOf(calcDate),
	}
}

// NewRealizedCashFlow 创建已实现未交收现金流，交收日为事件日 T+2
func NewRealizedCashFlow(flowID, contractID string, fType FlowType, amount decimal.Decimal, currency string, eventDate, calcDate time.Time, basis CalculationBasis) *CashFlow {
	settle := SettlementDateFor(eventDate)
	cf := &CashFlow{
		FlowID:          flowID,
		ContractID:      contractID,
		FlowType:        fType,
		Amount:          amount,
		Currency:        currency,
		FlowDate:        DateOf(eventDate),
		Status:          FlowStatusRealizedUnsettled,
		SettlementDate:  &settle,
		Basis:           basis,
		CalculationDate: DateOf(calcDate),
	}
	cf.addEvent(&CashFlowRealizedEvent{
		FlowID:         cf.FlowID,
		ContractID:     contractID,
		FlowType:       string(fType),
		Amount:         amount,
		Currency:       currency,
		SettlementDate: settle,
		Timestamp:      time.Now(),
	})
	return cf
}

// WithAccrualPeriod 标注计提区间，利息现金流使用
func (f *CashFlow) WithAccrualPeriod(start, end time.Time) *CashFlow {
	s := DateOf(start)
	e := DateOf(end)
	f.AccrualStart = &s
	f.AccrualEnd = &e
	return f
}

// WithLotRef 标注来源批次/持仓
func (f *CashFlow) WithLotRef(positionID, lotID string) *CashFlow {
	f.PositionID = positionID
	f.LotID = lotID
	return f
}

// Realize 计提转已实现，付款日到达时调用
func (f *CashFlow) Realize(eventDate time.Time) error {
	if f.Status != FlowStatusAccrual {
		return errors.New("invalid status for realize")
	}
	settle := SettlementDateFor(eventDate)
	f.Status = FlowStatusRealizedUnsettled
	f.SettlementDate = &settle
	f.addEvent(&CashFlowRealizedEvent{
		FlowID:         f.FlowID,
		ContractID:     f.ContractID,
		FlowType:       string(f.FlowType),
		Amount:         f.Amount,
		Currency:       f.Currency,
		SettlementDate: settle,
		Timestamp:      time.Now(),
	})
	return nil
}

// MarkSettled 交收完成，由结算确认事件驱动
func (f *CashFlow) MarkSettled() error {
	if f.Status != FlowStatusRealizedUnsettled {
		return errors.New("invalid status for settle")
	}
	f.Status = FlowStatusSettled
	f.addEvent(&CashFlowSettledEvent{
		FlowID:     f.FlowID,
		ContractID: f.ContractID,
		Timestamp:  time.Now(),
	})
	return nil
}

// IsRealized 是否已实现（含已交收）
func (f *CashFlow) IsRealized() bool {
	return f.Status == FlowStatusRealizedUnsettled || f.Status == FlowStatusSettled
}

func (f *CashFlow) addEvent(event DomainEvent) {
	f.domainEvents = append(f.domainEvents, event)
}

// GetDomainEvents 获取领域事件
func (f *CashFlow) GetDomainEvents() []DomainEvent {
	return f.domainEvents
}

// ClearDomainEvents 清空领域事件
func (f *CashFlow) ClearDomainEvents() {
	f.domainEvents = nil
}
