// Package events 现金流服务 Kafka 事件消费
// 生成摘要：
// 1) 订阅行情服务发布的价格/利率/分红主题，更新本地读模型并回填价格缓存
// 2) 订阅结算确认主题，把现金流推进到已交收
package events

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	kafkago "github.com/segmentio/kafka-go"
	"github.com/shopspring/decimal"
	"github.com/wyfcoding/pkg/messagequeue/kafka"

	"github.com/wyfcoding/swapcashflow/internal/cashflow/application"
	"github.com/wyfcoding/swapcashflow/internal/cashflow/domain"
)

// 订阅的行情主题
const (
	PriceUpdatedTopic     = "marketdata.price.updated"
	RateUpdatedTopic      = "marketdata.rate.updated"
	DividendDeclaredTopic = "marketdata.dividend.declared"
	InstructionSettled    = "settlement.instruction.settled"
)

// MarketDataEventHandler 行情事件处理器，维护计算侧读模型
type MarketDataEventHandler struct {
	marketRepo domain.MarketDataRepository
	priceCache domain.PriceCache
	logger     *slog.Logger
}

// NewMarketDataEventHandler 创建行情事件处理器
func NewMarketDataEventHandler(marketRepo domain.MarketDataRepository, priceCache domain.PriceCache, logger *slog.Logger) *MarketDataEventHandler {
	return &MarketDataEventHandler{marketRepo: marketRepo, priceCache: priceCache, logger: logger}
}

// Handle 按主题分发行情事件
func (h *MarketDataEventHandler) Handle(ctx context.Context, msg kafkago.Message) error {
	switch msg.Topic {
	case PriceUpdatedTopic:
		return h.handlePrice(ctx, msg)
	case RateUpdatedTopic:
		return h.handleRate(ctx, msg)
	case DividendDeclaredTopic:
		return h.handleDividend(ctx, msg)
	default:
		h.logger.WarnContext(ctx, "unexpected topic on marketdata consumer", "topic", msg.Topic)
		return nil
	}
}

func (h *MarketDataEventHandler) handlePrice(ctx context.Context, msg kafkago.Message) error {
	var event struct {
		Symbol string `json:"symbol"`
		Price  string `json:"price"`
		AsOf   string `json:"as_of"`
	}
	if err := json.Unmarshal(msg.Value, &event); err != nil {
		return err
	}
	price, err := decimal.NewFromString(event.Price)
	if err != nil {
		return err
	}
	asOf, err := time.Parse(time.RFC3339, event.AsOf)
	if err != nil {
		return err
	}

	mark := &domain.PriceMark{Symbol: event.Symbol, Price: price, AsOf: asOf}
	if err := h.marketRepo.UpsertPrice(ctx, mark); err != nil {
		return err
	}
	if h.priceCache != nil {
		if err := h.priceCache.SetPrice(ctx, mark); err != nil {
			h.logger.WarnContext(ctx, "failed to refresh price cache", "symbol", event.Symbol, "error", err)
		}
	}
	return nil
}

func (h *MarketDataEventHandler) handleRate(ctx context.Context, msg kafkago.Message) error {
	var event struct {
		Index string `json:"index"`
		Rate  string `json:"rate"`
		AsOf  string `json:"as_of"`
	}
	if err := json.Unmarshal(msg.Value, &event); err != nil {
		return err
	}
	rate, err := decimal.NewFromString(event.Rate)
	if err != nil {
		return err
	}
	asOf, err := time.Parse(time.RFC3339, event.AsOf)
	if err != nil {
		return err
	}
	return h.marketRepo.UpsertRate(ctx, &domain.RateFixing{IndexName: event.Index, Rate: rate, AsOf: asOf})
}

func (h *MarketDataEventHandler) handleDividend(ctx context.Context, msg kafkago.Message) error {
	var event struct {
		Symbol      string `json:"symbol"`
		ExDate      string `json:"ex_date"`
		PaymentDate string `json:"payment_date"`
		Amount      string `json:"amount"`
		Currency    string `json:"currency"`
		TaxRate     string `json:"tax_rate"`
		Treatment   string `json:"treatment"`
	}
	if err := json.Unmarshal(msg.Value, &event); err != nil {
		return err
	}

	amount, err := decimal.NewFromString(event.Amount)
	if err != nil {
		return err
	}
	taxRate := decimal.Zero
	if event.TaxRate != "" {
		if taxRate, err = decimal.NewFromString(event.TaxRate); err != nil {
			return err
		}
	}

	declaration := &domain.DividendDeclaration{
		Symbol:    event.Symbol,
		Amount:    amount,
		Currency:  event.Currency,
		TaxRate:   taxRate,
		Treatment: domain.WithholdingTreatment(event.Treatment),
	}
	if event.ExDate != "" {
		exDate, err := time.Parse("2006-01-02", event.ExDate)
		if err != nil {
			return err
		}
		declaration.ExDate = &exDate
	}
	if event.PaymentDate != "" {
		payDate, err := time.Parse("2006-01-02", event.PaymentDate)
		if err != nil {
			return err
		}
		declaration.PaymentDate = &payDate
	}
	return h.marketRepo.UpsertDividend(ctx, declaration)
}

// Subscribe 启动消费
func (h *MarketDataEventHandler) Subscribe(ctx context.Context, consumer *kafka.Consumer, workers int) {
	consumer.Start(ctx, workers, h.Handle)
}

// SettlementEventHandler 结算确认事件处理器
type SettlementEventHandler struct {
	calcService *application.CalculationService
	logger      *slog.Logger
}

// NewSettlementEventHandler 创建结算确认事件处理器
func NewSettlementEventHandler(calcService *application.CalculationService, logger *slog.Logger) *SettlementEventHandler {
	return &SettlementEventHandler{calcService: calcService, logger: logger}
}

// Handle 消费结算完成事件，推进现金流到 SETTLED
func (h *SettlementEventHandler) Handle(ctx context.Context, msg kafkago.Message) error {
	var event struct {
		CashFlowID string `json:"cash_flow_id"`
		ContractID string `json:"contract_id"`
	}
	if err := json.Unmarshal(msg.Value, &event); err != nil {
		return err
	}
	if event.CashFlowID == "" {
		h.logger.WarnContext(ctx, "settlement event missing cash flow id", "contract_id", event.ContractID)
		return nil
	}
	return h.calcService.MarkFlowSettled(ctx, event.CashFlowID)
}

// Subscribe 启动消费
func (h *SettlementEventHandler) Subscribe(ctx context.Context, consumer *kafka.Consumer, workers int) {
	consumer.Start(ctx, workers, h.Handle)
}
