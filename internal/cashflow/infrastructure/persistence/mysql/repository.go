// Package mysql 现金流计算服务 gorm 仓储实现
package mysql

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/wyfcoding/swapcashflow/internal/cashflow/domain"
)

// ContractRepository 合约仓储
type ContractRepository struct {
	db *gorm.DB
}

// NewContractRepository 创建合约仓储
func NewContractRepository(db *gorm.DB) domain.ContractRepository {
	return &ContractRepository{db: db}
}

func (r *ContractRepository) Save(ctx context.Context, contract *domain.SwapContract) error {
	return txOrDefault(ctx, r.db).WithContext(ctx).Create(contract).Error
}

func (r *ContractRepository) Update(ctx context.Context, contract *domain.SwapContract) error {
	return txOrDefault(ctx, r.db).WithContext(ctx).Save(contract).Error
}

func (r *ContractRepository) Get(ctx context.Context, contractID string) (*domain.SwapContract, error) {
	var contract domain.SwapContract
	err := r.db.WithContext(ctx).Where("contract_id = ?", contractID).First(&contract).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &contract, nil
}

func (r *ContractRepository) List(ctx context.Context, status domain.ContractStatus, limit, offset int) ([]*domain.SwapContract, error) {
	q := r.db.WithContext(ctx).Model(&domain.SwapContract{})
	if status != "" {
		q = q.Where("status = ?", status)
	}
	var contracts []*domain.SwapContract
	err := q.Order("created_at DESC").Limit(limit).Offset(offset).Find(&contracts).Error
	return contracts, err
}

func (r *ContractRepository) ListActiveIDs(ctx context.Context) ([]string, error) {
	var ids []string
	err := r.db.WithContext(ctx).Model(&domain.SwapContract{}).
		Where("status = ?", domain.ContractStatusActive).
		Pluck("contract_id", &ids).Error
	return ids, err
}

func (r *ContractRepository) WithTx(ctx context.Context, fn func(txCtx context.Context) error) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		txCtx := context.WithValue(ctx, "tx", tx)
		return fn(txCtx)
	})
}

// LotRepository 批次仓储
type LotRepository struct {
	db *gorm.DB
}

// NewLotRepository 创建批次仓储
func NewLotRepository(db *gorm.DB) domain.LotRepository {
	return &LotRepository{db: db}
}

func (r *LotRepository) SaveBatch(ctx context.Context, lots []*domain.Lot) error {
	if len(lots) == 0 {
		return nil
	}
	return r.db.WithContext(ctx).Create(lots).Error
}

func (r *LotRepository) ListByContract(ctx context.Context, contractID string) ([]*domain.Lot, error) {
	var lots []*domain.Lot
	err := r.db.WithContext(ctx).
		Where("contract_id = ?", contractID).
		Order("cost_date ASC, id ASC").
		Find(&lots).Error
	return lots, err
}

// PositionRepository 持仓仓储
type PositionRepository struct {
	db *gorm.DB
}

// NewPositionRepository 创建持仓仓储
func NewPositionRepository(db *gorm.DB) domain.PositionRepository {
	return &PositionRepository{db: db}
}

func (r *PositionRepository) Save(ctx context.Context, position *domain.Position) error {
	return r.db.WithContext(ctx).Save(position).Error
}

func (r *PositionRepository) ListByContract(ctx context.Context, contractID string) ([]*domain.Position, error) {
	var positions []*domain.Position
	err := r.db.WithContext(ctx).Where("contract_id = ?", contractID).Find(&positions).Error
	return positions, err
}

// CashFlowRepository 现金流仓储
type CashFlowRepository struct {
	db *gorm.DB
}

// NewCashFlowRepository 创建现金流仓储
func NewCashFlowRepository(db *gorm.DB) domain.CashFlowRepository {
	return &CashFlowRepository{db: db}
}

// ReplaceForCalculation 删除同一 (合约, 计算日) 的既有记录后整体写入新结果
// 调用方负责把本方法包进 WithTx，保证替换原子性
func (r *CashFlowRepository) ReplaceForCalculation(ctx context.Context, contractID string, calcDate time.Time, flows []*domain.CashFlow) error {
	db := txOrDefault(ctx, r.db).WithContext(ctx)
	if err := db.Where("contract_id = ? AND calculation_date = ?", contractID, domain.DateOf(calcDate)).
		Delete(&domain.CashFlow{}).Error; err != nil {
		return err
	}
	if len(flows) == 0 {
		return nil
	}
	return db.Create(flows).Error
}

func (r *CashFlowRepository) Update(ctx context.Context, flow *domain.CashFlow) error {
	return txOrDefault(ctx, r.db).WithContext(ctx).Save(flow).Error
}

func (r *CashFlowRepository) GetByFlowID(ctx context.Context, flowID string) (*domain.CashFlow, error) {
	var flow domain.CashFlow
	err := r.db.WithContext(ctx).Where("flow_id = ?", flowID).First(&flow).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &flow, nil
}

func (r *CashFlowRepository) ListByContract(ctx context.Context, contractID string, from, to *time.Time, status domain.FlowStatus) ([]*domain.CashFlow, error) {
	q := r.db.WithContext(ctx).Where("contract_id = ?", contractID)
	if from != nil {
		q = q.Where("flow_date >= ?", domain.DateOf(*from))
	}
	if to != nil {
		q = q.Where("flow_date <= ?", domain.DateOf(*to))
	}
	if status != "" {
		q = q.Where("status = ?", status)
	}
	var flows []*domain.CashFlow
	err := q.Order("flow_date ASC, id ASC").Find(&flows).Error
	return flows, err
}

func (r *CashFlowRepository) WithTx(ctx context.Context, fn func(txCtx context.Context) error) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		txCtx := context.WithValue(ctx, "tx", tx)
		return fn(txCtx)
	})
}

// TaskRepository 计算任务仓储
type TaskRepository struct {
	db *gorm.DB
}

// NewTaskRepository 创建任务仓储
func NewTaskRepository(db *gorm.DB) domain.TaskRepository {
	return &TaskRepository{db: db}
}

func (r *TaskRepository) Save(ctx context.Context, task *domain.CalculationTask) error {
	return r.db.WithContext(ctx).Create(task).Error
}

func (r *TaskRepository) Update(ctx context.Context, task *domain.CalculationTask) error {
	return r.db.WithContext(ctx).Save(task).Error
}

func (r *TaskRepository) Get(ctx context.Context, taskID string) (*domain.CalculationTask, error) {
	var task domain.CalculationTask
	err := r.db.WithContext(ctx).Where("task_id = ?", taskID).First(&task).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &task, nil
}

func (r *TaskRepository) List(ctx context.Context, limit, offset int) ([]*domain.CalculationTask, error) {
	var tasks []*domain.CalculationTask
	err := r.db.WithContext(ctx).
		Order("created_at DESC").
		Limit(limit).Offset(offset).
		Find(&tasks).Error
	return tasks, err
}

// MarketDataRepository 行情读模型仓储
type MarketDataRepository struct {
	db *gorm.DB
}

// NewMarketDataRepository 创建行情读模型仓储
func NewMarketDataRepository(db *gorm.DB) domain.MarketDataRepository {
	return &MarketDataRepository{db: db}
}

func (r *MarketDataRepository) UpsertPrice(ctx context.Context, mark *domain.PriceMark) error {
	return r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "symbol"}, {Name: "as_of"}},
		DoUpdates: clause.AssignmentColumns([]string{"price", "updated_at"}),
	}).Create(mark).Error
}

func (r *MarketDataRepository) UpsertRate(ctx context.Context, fixing *domain.RateFixing) error {
	return r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "index_name"}, {Name: "as_of"}},
		DoUpdates: clause.AssignmentColumns([]string{"rate", "updated_at"}),
	}).Create(fixing).Error
}

func (r *MarketDataRepository) UpsertDividend(ctx context.Context, declaration *domain.DividendDeclaration) error {
	return r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "symbol"}, {Name: "ex_date"}},
		DoUpdates: clause.AssignmentColumns([]string{"payment_date", "amount", "currency", "tax_rate", "treatment", "updated_at"}),
	}).Create(declaration).Error
}

func (r *MarketDataRepository) LatestPrice(ctx context.Context, symbol string) (*domain.PriceMark, error) {
	var mark domain.PriceMark
	err := r.db.WithContext(ctx).
		Where("symbol = ?", symbol).
		Order("as_of DESC").
		First(&mark).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &mark, nil
}

func (r *MarketDataRepository) RateHistory(ctx context.Context, index string, from, to time.Time) ([]*domain.RateFixing, error) {
	var fixings []*domain.RateFixing
	err := r.db.WithContext(ctx).
		Where("index_name = ? AND as_of <= ?", index, to).
		Order("as_of ASC").
		Find(&fixings).Error
	return fixings, err
}

func (r *MarketDataRepository) DividendsBySymbol(ctx context.Context, symbol string) ([]*domain.DividendDeclaration, error) {
	var declarations []*domain.DividendDeclaration
	err := r.db.WithContext(ctx).
		Where("symbol = ?", symbol).
		Order("ex_date ASC").
		Find(&declarations).Error
	return declarations, err
}

// txOrDefault 取出 WithTx 塞进上下文的事务句柄，不在事务内时退回默认连接
func txOrDefault(ctx context.Context, db *gorm.DB) *gorm.DB {
	if tx, ok := ctx.Value("tx").(*gorm.DB); ok && tx != nil {
		return tx
	}
	return db
}
