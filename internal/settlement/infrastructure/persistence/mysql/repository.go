// Package mysql 结算跟踪 gorm 仓储实现
package mysql

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"

	"github.com/wyfcoding/swapcashflow/internal/settlement/domain"
)

// InstructionRepository 结算指令仓储
type InstructionRepository struct {
	db *gorm.DB
}

// NewInstructionRepository 创建结算指令仓储
func NewInstructionRepository(db *gorm.DB) domain.InstructionRepository {
	return &InstructionRepository{db: db}
}

func (r *InstructionRepository) Save(ctx context.Context, instruction *domain.SettlementInstruction) error {
	return txOrDefault(ctx, r.db).WithContext(ctx).Create(instruction).Error
}

func (r *InstructionRepository) Update(ctx context.Context, instruction *domain.SettlementInstruction) error {
	return txOrDefault(ctx, r.db).WithContext(ctx).Save(instruction).Error
}

func (r *InstructionRepository) Get(ctx context.Context, instructionID string) (*domain.SettlementInstruction, error) {
	var instruction domain.SettlementInstruction
	err := r.db.WithContext(ctx).Where("instruction_id = ?", instructionID).First(&instruction).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &instruction, nil
}

func (r *InstructionRepository) GetByCashFlowID(ctx context.Context, cashFlowID string) (*domain.SettlementInstruction, error) {
	var instruction domain.SettlementInstruction
	err := r.db.WithContext(ctx).Where("cash_flow_id = ?", cashFlowID).First(&instruction).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &instruction, nil
}

func (r *InstructionRepository) ListPendingDue(ctx context.Context, asOf time.Time, limit int) ([]*domain.SettlementInstruction, error) {
	var instructions []*domain.SettlementInstruction
	err := r.db.WithContext(ctx).
		Where("status = ? AND value_date <= ?", domain.InstructionStatusPending, asOf).
		Order("value_date ASC, id ASC").
		Limit(limit).
		Find(&instructions).Error
	return instructions, err
}

func (r *InstructionRepository) ListPending(ctx context.Context, limit, offset int) ([]*domain.SettlementInstruction, error) {
	var instructions []*domain.SettlementInstruction
	err := r.db.WithContext(ctx).
		Where("status = ?", domain.InstructionStatusPending).
		Order("value_date ASC, id ASC").
		Limit(limit).Offset(offset).
		Find(&instructions).Error
	return instructions, err
}

func (r *InstructionRepository) WithTx(ctx context.Context, fn func(txCtx context.Context) error) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		txCtx := context.WithValue(ctx, "tx", tx)
		return fn(txCtx)
	})
}

func txOrDefault(ctx context.Context, db *gorm.DB) *gorm.DB {
	if tx, ok := ctx.Value("tx").(*gorm.DB); ok && tx != nil {
		return tx
	}
	return db
}
