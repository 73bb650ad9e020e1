// Package domain 结算跟踪领域模型
// 生成摘要：
// 1) 每条已实现现金流对应一条结算指令，按现金流号幂等
// 2) 状态机 PENDING -> SETTLED / FAILED，交收日到达后由清算扫描或人工操作推进
package domain

import (
	"context"
	"errors"
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// InstructionStatus 结算指令状态
type InstructionStatus string

const (
	InstructionStatusPending InstructionStatus = "PENDING" // 待结算
	InstructionStatusSettled InstructionStatus = "SETTLED" // 已结算
	InstructionStatusFailed  InstructionStatus = "FAILED"  // 结算失败
)

var (
	// ErrInstructionNotFound 结算指令不存在
	ErrInstructionNotFound = errors.New("settlement instruction not found")
	// ErrInstructionNotPending 指令不在待结算状态
	ErrInstructionNotPending = errors.New("settlement instruction not pending")
)

// SettlementInstruction 结算指令聚合根
type SettlementInstruction struct {
	gorm.Model
	InstructionID string            `gorm:"column:instruction_id;type:varchar(64);uniqueIndex;not null" json:"instruction_id"`
	CashFlowID    string            `gorm:"column:cash_flow_id;type:varchar(64);uniqueIndex;not null" json:"cash_flow_id"`
	ContractID    string            `gorm:"column:contract_id;type:varchar(64);index;not null" json:"contract_id"`
	FlowType      string            `gorm:"column:flow_type;type:varchar(32);not null" json:"flow_type"`
	Amount        decimal.Decimal   `gorm:"column:amount;type:decimal(20,2);not null" json:"amount"`
	Currency      string            `gorm:"column:currency;type:char(3);not null" json:"currency"`
	ValueDate     time.Time         `gorm:"column:value_date;index;not null" json:"value_date"`
	Status        InstructionStatus `gorm:"column:status;type:varchar(16);not null;default:'PENDING'" json:"status"`
	FailReason    string            `gorm:"column:fail_reason;type:varchar(512)" json:"fail_reason"`
	SettledAt     *time.Time        `gorm:"column:settled_at" json:"settled_at"`

	domainEvents []DomainEvent `gorm:"-"`
}

// TableName 表名
func (SettlementInstruction) TableName() string {
	return "settlement_instructions"
}

// NewSettlementInstruction 按已实现现金流创建结算指令
func NewSettlementInstruction(instructionID, cashFlowID, contractID, flowType string, amount decimal.Decimal, currency string, valueDate time.Time) *SettlementInstruction {
	ins := &SettlementInstruction{
		InstructionID: instructionID,
		CashFlowID:    cashFlowID,
		ContractID:    contractID,
		FlowType:      flowType,
		Amount:        amount,
		Currency:      currency,
		ValueDate:     valueDate,
		Status:        InstructionStatusPending,
	}
	ins.addEvent(&InstructionCreatedEvent{
		InstructionID: instructionID,
		CashFlowID:    cashFlowID,
		ContractID:    contractID,
		ValueDate:     valueDate,
		Timestamp:     time.Now(),
	})
	return ins
}

// Settle 结算完成
func (i *SettlementInstruction) Settle() error {
	if i.Status != InstructionStatusPending {
		return ErrInstructionNotPending
	}
	now := time.Now()
	i.Status = InstructionStatusSettled
	i.SettledAt = &now
	i.addEvent(&InstructionSettledEvent{
		InstructionID: i.InstructionID,
		CashFlowID:    i.CashFlowID,
		ContractID:    i.ContractID,
		Amount:        i.Amount,
		Currency:      i.Currency,
		SettledAt:     now,
		Timestamp:     now,
	})
	return nil
}

// MarkFailed 结算失败
func (i *SettlementInstruction) MarkFailed(reason string) error {
	if i.Status != InstructionStatusPending {
		return ErrInstructionNotPending
	}
	i.Status = InstructionStatusFailed
	i.FailReason = reason
	i.addEvent(&InstructionFailedEvent{
		InstructionID: i.InstructionID,
		CashFlowID:    i.CashFlowID,
		ContractID:    i.ContractID,
		Reason:        reason,
		Timestamp:     time.Now(),
	})
	return nil
}

// Due 交收日是否已到达
func (i *SettlementInstruction) Due(asOf time.Time) bool {
	return !i.ValueDate.After(asOf)
}

func (i *SettlementInstruction) addEvent(event DomainEvent) {
	i.domainEvents = append(i.domainEvents, event)
}

// GetDomainEvents 获取领域事件
func (i *SettlementInstruction) GetDomainEvents() []DomainEvent {
	return i.domainEvents
}

// ClearDomainEvents 清空领域事件
func (i *SettlementInstruction) ClearDomainEvents() {
	i.domainEvents = nil
}

// InstructionRepository 结算指令仓储接口
type InstructionRepository interface {
	Save(ctx context.Context, instruction *SettlementInstruction) error
	Update(ctx context.Context, instruction *SettlementInstruction) error
	Get(ctx context.Context, instructionID string) (*SettlementInstruction, error)
	GetByCashFlowID(ctx context.Context, cashFlowID string) (*SettlementInstruction, error)
	ListPendingDue(ctx context.Context, asOf time.Time, limit int) ([]*SettlementInstruction, error)
	ListPending(ctx context.Context, limit, offset int) ([]*SettlementInstruction, error)
	WithTx(ctx context.Context, fn func(txCtx context.Context) error) error
}
