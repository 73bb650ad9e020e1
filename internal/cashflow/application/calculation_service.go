// Package application 现金流计算应用服务
// 生成摘要：
// 1) 同步计算入口：请求可内联全量输入，也可只引用已存合约，由仓储与行情读模型补齐
// 2) 利息/分红/盈亏三个计算器 errgroup 并发扇出，任一失败整个请求失败，不返回部分结果
// 3) 结果在同一事务内整体替换既有记录，已实现现金流经 Outbox 发布实现事件
package application

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/shopspring/decimal"
	"github.com/wyfcoding/pkg/contextx"
	"github.com/wyfcoding/pkg/idgen"
	"github.com/wyfcoding/pkg/messagequeue"
	"golang.org/x/sync/errgroup"

	"github.com/wyfcoding/swapcashflow/internal/cashflow/domain"
)

// FlowRealizedTopic 现金流实现事件主题
const FlowRealizedTopic = "cashflow.flow.realized"

// CalculationService 同步现金流计算服务
type CalculationService struct {
	contractRepo domain.ContractRepository
	lotRepo      domain.LotRepository
	positionRepo domain.PositionRepository
	cashFlowRepo domain.CashFlowRepository
	marketRepo   domain.MarketDataRepository
	priceCache   domain.PriceCache
	publisher    messagequeue.EventPublisher
	snapshotTTL  time.Duration
	logger       *slog.Logger

	interest  *domain.InterestAccrualCalculator
	dividend  *domain.DividendCalculator
	pnl       *domain.PnLCalculator
	assembler *domain.CashFlowAssembler
}

// NewCalculationService 创建计算服务
func NewCalculationService(
	contractRepo domain.ContractRepository,
	lotRepo domain.LotRepository,
	positionRepo domain.PositionRepository,
	cashFlowRepo domain.CashFlowRepository,
	marketRepo domain.MarketDataRepository,
	priceCache domain.PriceCache,
	publisher messagequeue.EventPublisher,
	snapshotTTL time.Duration,
	logger *slog.Logger,
) *CalculationService {
	return &CalculationService{
		contractRepo: contractRepo,
		lotRepo:      lotRepo,
		positionRepo: positionRepo,
		cashFlowRepo: cashFlowRepo,
		marketRepo:   marketRepo,
		priceCache:   priceCache,
		publisher:    publisher,
		snapshotTTL:  snapshotTTL,
		logger:       logger,
		interest:     domain.NewInterestAccrualCalculator(),
		dividend:     domain.NewDividendCalculator(),
		pnl:          domain.NewPnLCalculator(),
		assembler:    domain.NewCashFlowAssembler(func() string { return "CF" + idgen.GenIDString() }),
	}
}

// CalculateCommand 同步计算命令
// MarketData 内联时直接使用；为空且给出 ContractID 时由行情读模型构建快照
type CalculateCommand struct {
	ContractID string
	From       time.Time
	To         time.Time
	Request    *domain.CalculationRequest
	Persist    bool
}

// Calculate 执行一次同步计算
func (s *CalculationService) Calculate(ctx context.Context, cmd CalculateCommand) (*domain.CalculationResult, error) {
	req, err := s.materialize(ctx, cmd)
	if err != nil {
		return nil, err
	}
	if err := req.Validate(); err != nil {
		return nil, err
	}
	if req.MarketData.Expired(time.Now()) {
		return nil, domain.ErrSnapshotExpired
	}

	result, err := s.run(ctx, req)
	if err != nil {
		return nil, domain.WrapCalculation(req.Contract.ContractID, err)
	}

	if cmd.Persist {
		if err := s.persist(ctx, result); err != nil {
			return nil, fmt.Errorf("failed to persist calculation result: %w", err)
		}
	}
	return result, nil
}

// run 扇出三个计算器并组装结果
// 计算器只读各自的不可变快照入参，可安全并行；首个错误取消同组其余计算
func (s *CalculationService) run(ctx context.Context, req *domain.CalculationRequest) (*domain.CalculationResult, error) {
	asOf := req.AsOf()

	var (
		accruals  []*domain.InterestAccrual
		dividends *domain.DividendComputation
		pnl       *domain.PnLResult
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		if err := gctx.Err(); err != nil {
			return err
		}
		var err error
		accruals, err = s.interest.Calculate(req.Contract, req.Range.From, req.Range.To, req.Lots, req.MarketData, asOf)
		return err
	})
	g.Go(func() error {
		if err := gctx.Err(); err != nil {
			return err
		}
		var err error
		dividends, err = s.dividend.CalculateWithTaxDetails(req.Contract, req.Lots, req.MarketData, asOf)
		return err
	})
	g.Go(func() error {
		if err := gctx.Err(); err != nil {
			return err
		}
		var err error
		pnl, err = s.pnl.Calculate(req.Contract, req.Lots, req.MarketData, asOf)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	flows := s.assembler.Assemble(req.Contract, accruals, dividends, pnl, asOf)

	result := &domain.CalculationResult{
		ContractID:      req.Contract.ContractID,
		CalculationDate: asOf,
		CashFlows:       flows,
		DividendAmount:  dividends.TotalNet,
		PnLAmount:       pnl.Amount,
		InterestAmount:  decimal.Zero,
	}
	result.WithholdingTaxDetails = dividends.Details
	for _, acc := range accruals {
		result.InterestAmount = result.InterestAmount.Add(acc.Amount)
	}
	return result, nil
}

// materialize 补齐计算输入：内联请求原样返回，引用式请求从仓储与读模型装配
func (s *CalculationService) materialize(ctx context.Context, cmd CalculateCommand) (*domain.CalculationRequest, error) {
	if cmd.Request != nil {
		return cmd.Request, nil
	}
	if cmd.ContractID == "" {
		return nil, fmt.Errorf("calculate command needs an inline request or a contract id")
	}

	contract, err := s.contractRepo.Get(ctx, cmd.ContractID)
	if err != nil {
		return nil, err
	}
	if contract == nil {
		return nil, domain.ErrContractNotFound
	}

	lots, err := s.lotRepo.ListByContract(ctx, cmd.ContractID)
	if err != nil {
		return nil, err
	}
	positions, err := s.positionRepo.ListByContract(ctx, cmd.ContractID)
	if err != nil {
		return nil, err
	}
	snapshot, err := s.buildSnapshot(ctx, contract, cmd.From, cmd.To)
	if err != nil {
		return nil, err
	}

	return &domain.CalculationRequest{
		Contract:   contract,
		Range:      domain.DateRange{From: cmd.From, To: cmd.To},
		Lots:       lots,
		Positions:  positions,
		MarketData: snapshot,
	}, nil
}

// buildSnapshot 按合约引用的标的与指数从读模型构建行情快照
// 最新价优先走 Redis 缓存，未命中回源 MySQL 读模型
func (s *CalculationService) buildSnapshot(ctx context.Context, contract *domain.SwapContract, from, to time.Time) (*domain.MarketDataSnapshot, error) {
	snapshot := &domain.MarketDataSnapshot{
		AsOf: time.Now(),
		TTL:  s.snapshotTTL,
	}

	price, err := s.latestPrice(ctx, contract.Underlying)
	if err != nil {
		return nil, err
	}
	if price != nil {
		snapshot.Prices = append(snapshot.Prices, price)
	}

	if contract.InterestRateIndex != "" {
		fixings, err := s.marketRepo.RateHistory(ctx, contract.InterestRateIndex, domain.DateOf(from), domain.DateOf(to))
		if err != nil {
			return nil, err
		}
		snapshot.Rates = fixings
	}

	dividends, err := s.marketRepo.DividendsBySymbol(ctx, contract.Underlying)
	if err != nil {
		return nil, err
	}
	snapshot.Dividends = dividends

	return snapshot, nil
}

// latestPrice 读取标的最新价，缓存未命中时回源并回填
func (s *CalculationService) latestPrice(ctx context.Context, symbol string) (*domain.PriceMark, error) {
	if s.priceCache != nil {
		if mark, err := s.priceCache.GetPrice(ctx, symbol); err != nil {
			s.logger.WarnContext(ctx, "price cache read failed, falling back to store", "symbol", symbol, "error", err)
		} else if mark != nil {
			return mark, nil
		}
	}

	mark, err := s.marketRepo.LatestPrice(ctx, symbol)
	if err != nil {
		return nil, err
	}
	if mark != nil && s.priceCache != nil {
		if err := s.priceCache.SetPrice(ctx, mark); err != nil {
			s.logger.WarnContext(ctx, "price cache backfill failed", "symbol", symbol, "error", err)
		}
	}
	return mark, nil
}

// persist 同一事务内整体替换 (合约, 计算日) 的结果集并发布实现事件
func (s *CalculationService) persist(ctx context.Context, result *domain.CalculationResult) error {
	return s.cashFlowRepo.WithTx(ctx, func(txCtx context.Context) error {
		if err := s.cashFlowRepo.ReplaceForCalculation(txCtx, result.ContractID, result.CalculationDate, result.CashFlows); err != nil {
			return err
		}
		if s.publisher == nil {
			return nil
		}
		for _, flow := range result.CashFlows {
			for _, event := range flow.GetDomainEvents() {
				if err := s.publisher.PublishInTx(ctx, contextx.GetTx(txCtx), FlowRealizedTopic, flow.FlowID, event); err != nil {
					return err
				}
			}
			flow.ClearDomainEvents()
		}
		return nil
	})
}

// MarkFlowSettled 按结算确认把现金流推进到已交收
func (s *CalculationService) MarkFlowSettled(ctx context.Context, flowID string) error {
	flow, err := s.cashFlowRepo.GetByFlowID(ctx, flowID)
	if err != nil {
		return err
	}
	if flow == nil {
		return fmt.Errorf("cash flow %s not found", flowID)
	}
	// 结算确认消息可能重投，已交收即幂等返回
	if flow.Status == domain.FlowStatusSettled {
		s.logger.InfoContext(ctx, "cash flow already settled", "flow_id", flowID)
		return nil
	}
	if err := flow.MarkSettled(); err != nil {
		return fmt.Errorf("failed to settle cash flow %s: %w", flowID, err)
	}
	flow.ClearDomainEvents()
	if err := s.cashFlowRepo.Update(ctx, flow); err != nil {
		return err
	}
	s.logger.InfoContext(ctx, "cash flow settled", "flow_id", flowID, "contract_id", flow.ContractID)
	return nil
}

// encodeContractIDs 合约号列表序列化为任务字段
func encodeContractIDs(ids []string) (string, error) {
	data, err := json.Marshal(ids)
	if err != nil {
		return "", err
	}
	return string(data), nil
}

// decodeContractIDs 任务字段反序列化为合约号列表
func decodeContractIDs(raw string) ([]string, error) {
	if raw == "" {
		return nil, nil
	}
	var ids []string
	if err := json.Unmarshal([]byte(raw), &ids); err != nil {
		return nil, err
	}
	return ids, nil
}
