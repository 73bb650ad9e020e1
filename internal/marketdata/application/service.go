// Package application 行情服务应用层
// 生成摘要：
// 1) 写路径：校验、事务内落库、同事务 Outbox 发布变更事件
// 2) 读路径：最新价、定盘历史、分红序列查询
package application

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/shopspring/decimal"
	"github.com/wyfcoding/pkg/contextx"
	"github.com/wyfcoding/pkg/messagequeue"

	"github.com/wyfcoding/swapcashflow/internal/marketdata/domain"
)

// MarketDataService 行情应用服务
type MarketDataService struct {
	repo      domain.MarketDataRepository
	publisher messagequeue.EventPublisher
	logger    *slog.Logger
}

// NewMarketDataService 创建行情应用服务
func NewMarketDataService(repo domain.MarketDataRepository, publisher messagequeue.EventPublisher, logger *slog.Logger) *MarketDataService {
	return &MarketDataService{repo: repo, publisher: publisher, logger: logger}
}

// UpsertPriceCommand 价格写入命令
type UpsertPriceCommand struct {
	Symbol string
	Price  string
	AsOf   time.Time
	Source string
}

// UpsertPrice 写入价格并发布更新事件
func (s *MarketDataService) UpsertPrice(ctx context.Context, cmd UpsertPriceCommand) error {
	price, err := decimal.NewFromString(cmd.Price)
	if err != nil {
		return fmt.Errorf("invalid price: %w", err)
	}

	row := &domain.Price{Symbol: cmd.Symbol, Price: price, AsOf: cmd.AsOf, Source: cmd.Source}
	if err := row.Validate(); err != nil {
		return err
	}

	return s.repo.WithTx(ctx, func(txCtx context.Context) error {
		if err := s.repo.UpsertPrice(txCtx, row); err != nil {
			return err
		}
		if s.publisher == nil {
			return nil
		}
		event := domain.PriceUpdatedEvent{
			Symbol: row.Symbol,
			Price:  row.Price.String(),
			AsOf:   row.AsOf.Format(time.RFC3339),
			SentAt: time.Now(),
		}
		return s.publisher.PublishInTx(ctx, contextx.GetTx(txCtx), domain.PriceUpdatedTopic, row.Symbol, event)
	})
}

// UpsertRateCommand 定盘写入命令
type UpsertRateCommand struct {
	Index  string
	Rate   string
	AsOf   time.Time
	Source string
}

// UpsertRate 写入定盘并发布更新事件
func (s *MarketDataService) UpsertRate(ctx context.Context, cmd UpsertRateCommand) error {
	rate, err := decimal.NewFromString(cmd.Rate)
	if err != nil {
		return fmt.Errorf("invalid rate: %w", err)
	}

	row := &domain.Rate{IndexName: cmd.Index, Rate: rate, AsOf: cmd.AsOf, Source: cmd.Source}
	if err := row.Validate(); err != nil {
		return err
	}

	return s.repo.WithTx(ctx, func(txCtx context.Context) error {
		if err := s.repo.UpsertRate(txCtx, row); err != nil {
			return err
		}
		if s.publisher == nil {
			return nil
		}
		event := domain.RateUpdatedEvent{
			Index:  row.IndexName,
			Rate:   row.Rate.String(),
			AsOf:   row.AsOf.Format(time.RFC3339),
			SentAt: time.Now(),
		}
		return s.publisher.PublishInTx(ctx, contextx.GetTx(txCtx), domain.RateUpdatedTopic, row.IndexName, event)
	})
}

// DeclareDividendCommand 分红宣告命令
type DeclareDividendCommand struct {
	Symbol      string
	ExDate      time.Time
	PaymentDate *time.Time
	Amount      string
	Currency    string
	TaxRate     string
	Treatment   string
}

// DeclareDividend 写入分红宣告并发布事件
func (s *MarketDataService) DeclareDividend(ctx context.Context, cmd DeclareDividendCommand) error {
	amount, err := decimal.NewFromString(cmd.Amount)
	if err != nil {
		return fmt.Errorf("invalid dividend amount: %w", err)
	}
	taxRate := decimal.Zero
	if cmd.TaxRate != "" {
		if taxRate, err = decimal.NewFromString(cmd.TaxRate); err != nil {
			return fmt.Errorf("invalid tax rate: %w", err)
		}
	}

	row := &domain.Dividend{
		Symbol:      cmd.Symbol,
		ExDate:      cmd.ExDate,
		PaymentDate: cmd.PaymentDate,
		Amount:      amount,
		Currency:    cmd.Currency,
		TaxRate:     taxRate,
		Treatment:   cmd.Treatment,
	}
	if err := row.Validate(); err != nil {
		return err
	}

	return s.repo.WithTx(ctx, func(txCtx context.Context) error {
		if err := s.repo.UpsertDividend(txCtx, row); err != nil {
			return err
		}
		if s.publisher == nil {
			return nil
		}
		event := domain.DividendDeclaredEvent{
			Symbol:    row.Symbol,
			ExDate:    row.ExDate.Format("2006-01-02"),
			Amount:    row.Amount.String(),
			Currency:  row.Currency,
			TaxRate:   row.TaxRate.String(),
			Treatment: row.Treatment,
			SentAt:    time.Now(),
		}
		if row.PaymentDate != nil {
			event.PaymentDate = row.PaymentDate.Format("2006-01-02")
		}
		return s.publisher.PublishInTx(ctx, contextx.GetTx(txCtx), domain.DividendDeclaredTopic, row.Symbol, event)
	})
}

// LatestPrice 查询标的最新价
func (s *MarketDataService) LatestPrice(ctx context.Context, symbol string) (*domain.Price, error) {
	return s.repo.LatestPrice(ctx, symbol)
}

// ListRates 查询指数定盘历史
func (s *MarketDataService) ListRates(ctx context.Context, index string, from, to time.Time) ([]*domain.Rate, error) {
	return s.repo.ListRates(ctx, index, from, to)
}

// ListDividends 查询标的分红序列
func (s *MarketDataService) ListDividends(ctx context.Context, symbol string) ([]*domain.Dividend, error) {
	return s.repo.ListDividends(ctx, symbol)
}
