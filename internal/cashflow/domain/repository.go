// Package domain 仓储接口
package domain

import (
	"context"
	"time"
)

// ContractRepository 合约仓储接口
type ContractRepository interface {
	Save(ctx context.Context, contract *SwapContract) error
	Update(ctx context.Context, contract *SwapContract) error
	Get(ctx context.Context, contractID string) (*SwapContract, error)
	List(ctx context.Context, status ContractStatus, limit, offset int) ([]*SwapContract, error)
	ListActiveIDs(ctx context.Context) ([]string, error)
	WithTx(ctx context.Context, fn func(txCtx context.Context) error) error
}

// LotRepository 批次仓储接口
type LotRepository interface {
	SaveBatch(ctx context.Context, lots []*Lot) error
	ListByContract(ctx context.Context, contractID string) ([]*Lot, error)
}

// PositionRepository 持仓仓储接口
type PositionRepository interface {
	Save(ctx context.Context, position *Position) error
	ListByContract(ctx context.Context, contractID string) ([]*Position, error)
}

// CashFlowRepository 现金流仓储接口
type CashFlowRepository interface {
	// ReplaceForCalculation 以新结果整体替换同一合约同一计算日的既有记录
	ReplaceForCalculation(ctx context.Context, contractID string, calcDate time.Time, flows []*CashFlow) error
	Update(ctx context.Context, flow *CashFlow) error
	GetByFlowID(ctx context.Context, flowID string) (*CashFlow, error)
	ListByContract(ctx context.Context, contractID string, from, to *time.Time, status FlowStatus) ([]*CashFlow, error)
	WithTx(ctx context.Context, fn func(txCtx context.Context) error) error
}

// TaskRepository 计算任务仓储接口
type TaskRepository interface {
	Save(ctx context.Context, task *CalculationTask) error
	Update(ctx context.Context, task *CalculationTask) error
	Get(ctx context.Context, taskID string) (*CalculationTask, error)
	List(ctx context.Context, limit, offset int) ([]*CalculationTask, error)
}

// MarketDataRepository 行情读模型仓储接口
// 读接口查不到时返回 (nil, nil)，缺失是否构成错误由计算器按口径判定
type MarketDataRepository interface {
	UpsertPrice(ctx context.Context, mark *PriceMark) error
	UpsertRate(ctx context.Context, fixing *RateFixing) error
	UpsertDividend(ctx context.Context, declaration *DividendDeclaration) error
	LatestPrice(ctx context.Context, symbol string) (*PriceMark, error)
	RateHistory(ctx context.Context, index string, from, to time.Time) ([]*RateFixing, error)
	DividendsBySymbol(ctx context.Context, symbol string) ([]*DividendDeclaration, error)
}

// PriceCache 标的现价缓存接口
// 未命中返回 (nil, nil)
type PriceCache interface {
	GetPrice(ctx context.Context, symbol string) (*PriceMark, error)
	SetPrice(ctx context.Context, mark *PriceMark) error
}
