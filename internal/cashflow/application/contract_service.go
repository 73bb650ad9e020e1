// Package application 合约命令服务
// 写路径统一走 MySQL 事务 + Outbox 事件发布
package application

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/wyfcoding/pkg/contextx"
	"github.com/wyfcoding/pkg/idgen"
	"github.com/wyfcoding/pkg/messagequeue"

	"github.com/wyfcoding/swapcashflow/internal/cashflow/domain"
)

// ContractCreatedTopic 合约创建事件主题
const ContractCreatedTopic = "cashflow.contract.created"

// ContractUpdatedTopic 合约变更事件主题
const ContractUpdatedTopic = "cashflow.contract.updated"

// ContractCommandService 合约命令服务
type ContractCommandService struct {
	contractRepo domain.ContractRepository
	lotRepo      domain.LotRepository
	publisher    messagequeue.EventPublisher
	logger       *slog.Logger
}

// NewContractCommandService 创建合约命令服务
func NewContractCommandService(contractRepo domain.ContractRepository, lotRepo domain.LotRepository, publisher messagequeue.EventPublisher, logger *slog.Logger) *ContractCommandService {
	return &ContractCommandService{
		contractRepo: contractRepo,
		lotRepo:      lotRepo,
		publisher:    publisher,
		logger:       logger,
	}
}

// CreateContractCommand 创建合约命令
type CreateContractCommand struct {
	ContractID        string
	Underlying        string
	ContractType      string
	Currency          string
	StartDate         string
	EndDate           string
	NotionalAmount    string
	InterestRateIndex string
	FixedRate         string
	DayCount          string
	PaymentFreq       string
}

// CreateContract 创建合约
func (s *ContractCommandService) CreateContract(ctx context.Context, cmd CreateContractCommand) (*ContractDTO, error) {
	contractID := cmd.ContractID
	if contractID == "" {
		contractID = "SWP" + idgen.GenIDString()
	}

	start, err := parseDate(cmd.StartDate)
	if err != nil {
		return nil, fmt.Errorf("invalid start date: %w", err)
	}
	end, err := parseDate(cmd.EndDate)
	if err != nil {
		return nil, fmt.Errorf("invalid end date: %w", err)
	}

	contract, err := domain.NewSwapContract(contractID, cmd.Underlying, domain.ContractType(cmd.ContractType), cmd.Currency, start, end)
	if err != nil {
		return nil, err
	}

	if cmd.NotionalAmount != "" {
		notional, err := parseDecimal(cmd.NotionalAmount)
		if err != nil {
			return nil, fmt.Errorf("invalid notional amount: %w", err)
		}
		contract.SetNotional(notional)
	}
	fixedRate, err := parseDecimal(cmd.FixedRate)
	if err != nil {
		return nil, fmt.Errorf("invalid fixed rate: %w", err)
	}
	contract.SetInterestLeg(cmd.InterestRateIndex, fixedRate, domain.DayCountConvention(cmd.DayCount), domain.PaymentFrequency(cmd.PaymentFreq))

	err = s.contractRepo.WithTx(ctx, func(txCtx context.Context) error {
		if err := s.contractRepo.Save(txCtx, contract); err != nil {
			return err
		}
		return s.publishEvents(ctx, txCtx, contract)
	})
	if err != nil {
		return nil, err
	}

	s.logger.InfoContext(ctx, "contract created", "contract_id", contract.ContractID, "underlying", contract.Underlying)
	return ToContractDTO(contract), nil
}

// UpdateContractCommand 修改合约条款命令，空字段保留原值
type UpdateContractCommand struct {
	NotionalAmount    string
	InterestRateIndex string
	FixedRate         string
	DayCount          string
	PaymentFreq       string
}

// UpdateContract 修改合约条款
func (s *ContractCommandService) UpdateContract(ctx context.Context, contractID string, cmd UpdateContractCommand) (*ContractDTO, error) {
	contract, err := s.contractRepo.Get(ctx, contractID)
	if err != nil {
		return nil, err
	}
	if contract == nil {
		return nil, domain.ErrContractNotFound
	}

	if cmd.NotionalAmount != "" {
		notional, err := parseDecimal(cmd.NotionalAmount)
		if err != nil {
			return nil, fmt.Errorf("invalid notional amount: %w", err)
		}
		contract.SetNotional(notional)
	}
	if cmd.InterestRateIndex != "" || cmd.FixedRate != "" || cmd.DayCount != "" || cmd.PaymentFreq != "" {
		index := contract.InterestRateIndex
		if cmd.InterestRateIndex != "" {
			index = cmd.InterestRateIndex
		}
		fixedRate := contract.FixedRate
		if cmd.FixedRate != "" {
			if fixedRate, err = parseDecimal(cmd.FixedRate); err != nil {
				return nil, fmt.Errorf("invalid fixed rate: %w", err)
			}
		}
		contract.SetInterestLeg(index, fixedRate, domain.DayCountConvention(cmd.DayCount), domain.PaymentFrequency(cmd.PaymentFreq))
	}

	err = s.contractRepo.WithTx(ctx, func(txCtx context.Context) error {
		if err := s.contractRepo.Update(txCtx, contract); err != nil {
			return err
		}
		return s.publishEvents(ctx, txCtx, contract)
	})
	if err != nil {
		return nil, err
	}

	s.logger.InfoContext(ctx, "contract updated", "contract_id", contract.ContractID)
	return ToContractDTO(contract), nil
}

// ActivateContract 生效合约
func (s *ContractCommandService) ActivateContract(ctx context.Context, contractID string) error {
	return s.transition(ctx, contractID, func(c *domain.SwapContract) error { return c.Activate() })
}

// TerminateContract 终止合约
func (s *ContractCommandService) TerminateContract(ctx context.Context, contractID string) error {
	return s.transition(ctx, contractID, func(c *domain.SwapContract) error { return c.Terminate() })
}

// transition 加载合约、执行状态迁移、事务内落库并发布事件
func (s *ContractCommandService) transition(ctx context.Context, contractID string, fn func(*domain.SwapContract) error) error {
	contract, err := s.contractRepo.Get(ctx, contractID)
	if err != nil {
		return err
	}
	if contract == nil {
		return domain.ErrContractNotFound
	}
	if err := fn(contract); err != nil {
		return err
	}

	return s.contractRepo.WithTx(ctx, func(txCtx context.Context) error {
		if err := s.contractRepo.Update(txCtx, contract); err != nil {
			return err
		}
		return s.publishEvents(ctx, txCtx, contract)
	})
}

// AddLotCommand 添加批次命令
type AddLotCommand struct {
	LotID      string
	PositionID string
	Quantity   string
	CostPrice  string
	CostDate   string
	Status     string
}

// AddLots 向合约追加持仓批次
func (s *ContractCommandService) AddLots(ctx context.Context, contractID string, cmds []AddLotCommand) ([]*LotDTO, error) {
	contract, err := s.contractRepo.Get(ctx, contractID)
	if err != nil {
		return nil, err
	}
	if contract == nil {
		return nil, domain.ErrContractNotFound
	}

	lots := make([]*domain.Lot, 0, len(cmds))
	for _, cmd := range cmds {
		qty, err := parseDecimal(cmd.Quantity)
		if err != nil {
			return nil, fmt.Errorf("invalid lot quantity: %w", err)
		}
		costPrice, err := parseDecimal(cmd.CostPrice)
		if err != nil {
			return nil, fmt.Errorf("invalid lot cost price: %w", err)
		}
		costDate, err := parseDatePtr(cmd.CostDate)
		if err != nil {
			return nil, fmt.Errorf("invalid lot cost date: %w", err)
		}

		lotID := cmd.LotID
		if lotID == "" {
			lotID = "LOT" + idgen.GenIDString()
		}
		lots = append(lots, &domain.Lot{
			LotID:      lotID,
			ContractID: contractID,
			PositionID: cmd.PositionID,
			Quantity:   qty,
			CostPrice:  costPrice,
			CostDate:   costDate,
			Status:     domain.LotStatus(cmd.Status),
		})
	}

	if err := s.lotRepo.SaveBatch(ctx, lots); err != nil {
		return nil, err
	}

	dtos := make([]*LotDTO, 0, len(lots))
	for _, l := range lots {
		dtos = append(dtos, ToLotDTO(l))
	}
	s.logger.InfoContext(ctx, "lots added", "contract_id", contractID, "count", len(lots))
	return dtos, nil
}

// publishEvents 事务内经 Outbox 发布合约领域事件
func (s *ContractCommandService) publishEvents(ctx, txCtx context.Context, contract *domain.SwapContract) error {
	if s.publisher == nil {
		contract.ClearDomainEvents()
		return nil
	}
	for _, event := range contract.GetDomainEvents() {
		topic := ContractUpdatedTopic
		if _, ok := event.(*domain.ContractCreatedEvent); ok {
			topic = ContractCreatedTopic
		}
		if err := s.publisher.PublishInTx(ctx, contextx.GetTx(txCtx), topic, contract.ContractID, event); err != nil {
			return err
		}
	}
	contract.ClearDomainEvents()
	return nil
}
