// Package domain 现金流计算服务领域事件
package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// DomainEvent 领域事件
type DomainEvent interface {
	EventName() string
	OccurredAt() time.Time
}

// ContractCreatedEvent 合约创建事件
type ContractCreatedEvent struct {
	ContractID string    `json:"contract_id"`
	Underlying string    `json:"underlying"`
	Timestamp  time.Time `json:"timestamp"`
}

func (e *ContractCreatedEvent) EventName() string     { return "cashflow.contract_created" }
func (e *ContractCreatedEvent) OccurredAt() time.Time { return e.Timestamp }

// ContractUpdatedEvent 合约变更事件
type ContractUpdatedEvent struct {
	ContractID string    `json:"contract_id"`
	Field      string    `json:"field"`
	Timestamp  time.Time `json:"timestamp"`
}

func (e *ContractUpdatedEvent) EventName() string     { return "cashflow.contract_updated" }
func (e *ContractUpdatedEvent) OccurredAt() time.Time { return e.Timestamp }

// CashFlowRealizedEvent 现金流实现事件，结算服务据此生成结算指令
type CashFlowRealizedEvent struct {
	FlowID         string          `json:"flow_id"`
	ContractID     string          `json:"contract_id"`
	FlowType       string          `json:"flow_type"`
	Amount         decimal.Decimal `json:"amount"`
	Currency       string          `json:"currency"`
	SettlementDate time.Time       `json:"settlement_date"`
	Timestamp      time.Time       `json:"timestamp"`
}

func (e *CashFlowRealizedEvent) EventName() string     { return "cashflow.flow_realized" }
func (e *CashFlowRealizedEvent) OccurredAt() time.Time { return e.Timestamp }

// CashFlowSettledEvent 现金流交收完成事件
type CashFlowSettledEvent struct {
	FlowID     string    `json:"flow_id"`
	ContractID string    `json:"contract_id"`
	Timestamp  time.Time `json:"timestamp"`
}

func (e *CashFlowSettledEvent) EventName() string     { return "cashflow.flow_settled" }
func (e *CashFlowSettledEvent) OccurredAt() time.Time { return e.Timestamp }

// CalculationTaskFinishedEvent 历史计算任务终态事件
type CalculationTaskFinishedEvent struct {
	TaskID    string    `json:"task_id"`
	Status    string    `json:"status"`
	Reason    string    `json:"reason,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}

func (e *CalculationTaskFinishedEvent) EventName() string     { return "cashflow.task_finished" }
func (e *CalculationTaskFinishedEvent) OccurredAt() time.Time { return e.Timestamp }
