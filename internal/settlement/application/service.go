// Package application 结算跟踪应用服务
// 生成摘要：
// 1) 消费现金流实现事件创建待结算指令，按现金流号幂等
// 2) 清算扫描：结算交收日已到达的待结算指令；人工接口可逐条结算或置失败
// 3) 结算/失败在事务内落库并经 Outbox 发布确认事件
package application

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/shopspring/decimal"
	"github.com/wyfcoding/pkg/contextx"
	"github.com/wyfcoding/pkg/idgen"
	"github.com/wyfcoding/pkg/messagequeue"

	"github.com/wyfcoding/swapcashflow/internal/settlement/domain"
)

// sweepBatchSize 单轮扫描处理的指令上限
const sweepBatchSize = 500

// SettlementService 结算跟踪应用服务
type SettlementService struct {
	repo      domain.InstructionRepository
	publisher messagequeue.EventPublisher
	logger    *slog.Logger
}

// NewSettlementService 创建结算应用服务
func NewSettlementService(repo domain.InstructionRepository, publisher messagequeue.EventPublisher, logger *slog.Logger) *SettlementService {
	return &SettlementService{repo: repo, publisher: publisher, logger: logger}
}

// CreateInstructionCommand 按已实现现金流创建结算指令命令
type CreateInstructionCommand struct {
	CashFlowID     string
	ContractID     string
	FlowType       string
	Amount         decimal.Decimal
	Currency       string
	SettlementDate time.Time
}

// CreateFromRealizedFlow 按现金流实现事件创建结算指令
// 同一现金流重复投递时直接返回既有指令，保证消费幂等
func (s *SettlementService) CreateFromRealizedFlow(ctx context.Context, cmd CreateInstructionCommand) (*domain.SettlementInstruction, error) {
	if cmd.CashFlowID == "" {
		return nil, fmt.Errorf("realized flow event missing cash flow id")
	}

	existing, err := s.repo.GetByCashFlowID(ctx, cmd.CashFlowID)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return existing, nil
	}

	instruction := domain.NewSettlementInstruction(
		"INS"+idgen.GenIDString(),
		cmd.CashFlowID,
		cmd.ContractID,
		cmd.FlowType,
		cmd.Amount,
		cmd.Currency,
		cmd.SettlementDate,
	)
	instruction.ClearDomainEvents()
	if err := s.repo.Save(ctx, instruction); err != nil {
		return nil, fmt.Errorf("failed to save settlement instruction: %w", err)
	}

	s.logger.InfoContext(ctx, "settlement instruction created",
		"instruction_id", instruction.InstructionID,
		"cash_flow_id", cmd.CashFlowID,
		"value_date", instruction.ValueDate.Format("2006-01-02"))
	return instruction, nil
}

// SettleDue 结算交收日已到达的待结算指令，返回 (成功数, 失败数)
func (s *SettlementService) SettleDue(ctx context.Context, asOf time.Time) (int, int, error) {
	instructions, err := s.repo.ListPendingDue(ctx, asOf, sweepBatchSize)
	if err != nil {
		return 0, 0, err
	}

	settled, failed := 0, 0
	for _, ins := range instructions {
		if err := ctx.Err(); err != nil {
			return settled, failed, err
		}
		if err := s.settle(ctx, ins); err != nil {
			failed++
			s.logger.ErrorContext(ctx, "failed to settle instruction", "instruction_id", ins.InstructionID, "error", err)
			continue
		}
		settled++
	}
	if settled+failed > 0 {
		s.logger.InfoContext(ctx, "settlement sweep finished", "settled", settled, "failed", failed)
	}
	return settled, failed, nil
}

// Settle 人工结算单条指令
func (s *SettlementService) Settle(ctx context.Context, instructionID string) error {
	instruction, err := s.repo.Get(ctx, instructionID)
	if err != nil {
		return err
	}
	if instruction == nil {
		return domain.ErrInstructionNotFound
	}
	return s.settle(ctx, instruction)
}

// settle 推进指令到已结算并在同一事务内发布确认事件
func (s *SettlementService) settle(ctx context.Context, instruction *domain.SettlementInstruction) error {
	if err := instruction.Settle(); err != nil {
		return err
	}
	return s.repo.WithTx(ctx, func(txCtx context.Context) error {
		if err := s.repo.Update(txCtx, instruction); err != nil {
			return err
		}
		return s.publishEvents(ctx, txCtx, instruction, domain.InstructionSettledTopic)
	})
}

// Fail 人工把指令置为结算失败
func (s *SettlementService) Fail(ctx context.Context, instructionID, reason string) error {
	instruction, err := s.repo.Get(ctx, instructionID)
	if err != nil {
		return err
	}
	if instruction == nil {
		return domain.ErrInstructionNotFound
	}
	if err := instruction.MarkFailed(reason); err != nil {
		return err
	}
	return s.repo.WithTx(ctx, func(txCtx context.Context) error {
		if err := s.repo.Update(txCtx, instruction); err != nil {
			return err
		}
		return s.publishEvents(ctx, txCtx, instruction, domain.InstructionFailedTopic)
	})
}

// Get 查询指令
func (s *SettlementService) Get(ctx context.Context, instructionID string) (*domain.SettlementInstruction, error) {
	instruction, err := s.repo.Get(ctx, instructionID)
	if err != nil {
		return nil, err
	}
	if instruction == nil {
		return nil, domain.ErrInstructionNotFound
	}
	return instruction, nil
}

// ListPending 查询待结算指令
func (s *SettlementService) ListPending(ctx context.Context, limit, offset int) ([]*domain.SettlementInstruction, error) {
	return s.repo.ListPending(ctx, limit, offset)
}

func (s *SettlementService) publishEvents(ctx, txCtx context.Context, instruction *domain.SettlementInstruction, topic string) error {
	if s.publisher == nil {
		instruction.ClearDomainEvents()
		return nil
	}
	for _, event := range instruction.GetDomainEvents() {
		if err := s.publisher.PublishInTx(ctx, contextx.GetTx(txCtx), topic, instruction.InstructionID, event); err != nil {
			return err
		}
	}
	instruction.ClearDomainEvents()
	return nil
}
