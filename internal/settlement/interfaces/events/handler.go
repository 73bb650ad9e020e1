// Package events 结算服务 Kafka 事件消费
// 消费现金流实现事件，生成待结算指令
package events

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	kafkago "github.com/segmentio/kafka-go"
	"github.com/shopspring/decimal"
	"github.com/wyfcoding/pkg/messagequeue/kafka"

	"github.com/wyfcoding/swapcashflow/internal/settlement/application"
)

// FlowRealizedHandler 现金流实现事件处理器
type FlowRealizedHandler struct {
	service *application.SettlementService
	logger  *slog.Logger
}

// NewFlowRealizedHandler 创建处理器
func NewFlowRealizedHandler(service *application.SettlementService, logger *slog.Logger) *FlowRealizedHandler {
	return &FlowRealizedHandler{service: service, logger: logger}
}

// Handle 消费单条实现事件
func (h *FlowRealizedHandler) Handle(ctx context.Context, msg kafkago.Message) error {
	var event struct {
		FlowID         string          `json:"flow_id"`
		ContractID     string          `json:"contract_id"`
		FlowType       string          `json:"flow_type"`
		Amount         decimal.Decimal `json:"amount"`
		Currency       string          `json:"currency"`
		SettlementDate time.Time       `json:"settlement_date"`
	}
	if err := json.Unmarshal(msg.Value, &event); err != nil {
		return err
	}
	if event.FlowID == "" {
		h.logger.WarnContext(ctx, "realized flow event missing flow id", "contract_id", event.ContractID)
		return nil
	}

	_, err := h.service.CreateFromRealizedFlow(ctx, application.CreateInstructionCommand{
		CashFlowID:     event.FlowID,
		ContractID:     event.ContractID,
		FlowType:       event.FlowType,
		Amount:         event.Amount,
		Currency:       event.Currency,
		SettlementDate: event.SettlementDate,
	})
	return err
}

// Subscribe 启动消费
func (h *FlowRealizedHandler) Subscribe(ctx context.Context, consumer *kafka.Consumer, workers int) {
	consumer.Start(ctx, workers, h.Handle)
}
