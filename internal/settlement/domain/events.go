// Package domain 结算跟踪领域事件
package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// 发布主题
const (
	InstructionSettledTopic = "settlement.instruction.settled"
	InstructionFailedTopic  = "settlement.instruction.failed"
)

// DomainEvent 领域事件
type DomainEvent interface {
	EventName() string
	OccurredAt() time.Time
}

// InstructionCreatedEvent 结算指令创建事件
type InstructionCreatedEvent struct {
	InstructionID string    `json:"instruction_id"`
	CashFlowID    string    `json:"cash_flow_id"`
	ContractID    string    `json:"contract_id"`
	ValueDate     time.Time `json:"value_date"`
	Timestamp     time.Time `json:"timestamp"`
}

func (e *InstructionCreatedEvent) EventName() string     { return "settlement.instruction_created" }
func (e *InstructionCreatedEvent) OccurredAt() time.Time { return e.Timestamp }

// InstructionSettledEvent 结算完成事件，计算服务据此推进现金流到已交收
type InstructionSettledEvent struct {
	InstructionID string          `json:"instruction_id"`
	CashFlowID    string          `json:"cash_flow_id"`
	ContractID    string          `json:"contract_id"`
	Amount        decimal.Decimal `json:"amount"`
	Currency      string          `json:"currency"`
	SettledAt     time.Time       `json:"settled_at"`
	Timestamp     time.Time       `json:"timestamp"`
}

func (e *InstructionSettledEvent) EventName() string     { return "settlement.instruction_settled" }
func (e *InstructionSettledEvent) OccurredAt() time.Time { return e.Timestamp }

// InstructionFailedEvent 结算失败事件
type InstructionFailedEvent struct {
	InstructionID string    `json:"instruction_id"`
	CashFlowID    string    `json:"cash_flow_id"`
	ContractID    string    `json:"contract_id"`
	Reason        string    `json:"reason"`
	Timestamp     time.Time `json:"timestamp"`
}

func (e *InstructionFailedEvent) EventName() string     { return "settlement.instruction_failed" }
func (e *InstructionFailedEvent) OccurredAt() time.Time { return e.Timestamp }
