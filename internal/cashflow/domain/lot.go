// Package domain 持仓批次（Lot）模型与参与资格过滤
// 生成摘要：
// 1) 定义 Lot 实体，批次级成本价/成本日/状态，引擎内只读
// 2) EligibleAt 为纯全函数：成本日非空且不晚于计算日，状态为空或 ACTIVE
package domain

import (
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// LotStatus 批次状态
type LotStatus string

const (
	LotStatusActive LotStatus = "ACTIVE" // 活跃
	LotStatusClosed LotStatus = "CLOSED" // 已平仓
)

// Lot 持仓批次实体
// 每个批次携带自身的成本日期、成本价与状态，按批次而非持仓汇总计算
type Lot struct {
	gorm.Model
	LotID          string          `gorm:"column:lot_id;type:varchar(64);uniqueIndex;not null" json:"lot_id"`
	ContractID     string          `gorm:"column:contract_id;type:varchar(64);index;not null" json:"contract_id"`
	PositionID     string          `gorm:"column:position_id;type:varchar(64);index" json:"position_id"`
	Quantity       decimal.Decimal `gorm:"column:quantity;type:decimal(20,4)" json:"quantity"`
	CostPrice      decimal.Decimal `gorm:"column:cost_price;type:decimal(18,8)" json:"cost_price"`
	CostDate       *time.Time      `gorm:"column:cost_date" json:"cost_date"`
	Status         LotStatus       `gorm:"column:status;type:varchar(16)" json:"status"`
	CloseDate      *time.Time      `gorm:"column:close_date" json:"close_date"`
	ClosePrice     decimal.Decimal `gorm:"column:close_price;type:decimal(18,8)" json:"close_price"`
	SettlementDate *time.Time      `gorm:"column:settlement_date" json:"settlement_date"`
}

// TableName 表名
func (Lot) TableName() string {
	return "cashflow_lots"
}

// EffectiveStatus 状态缺省解析：空状态视同 ACTIVE
func (l *Lot) EffectiveStatus() LotStatus {
	if l.Status == "" {
		return LotStatusActive
	}
	return l.Status
}

// EffectiveQuantity 数量缺省解析：调用方传入零值即按 0 参与汇总
func (l *Lot) EffectiveQuantity() decimal.Decimal {
	return l.Quantity
}

// EligibleAt 判断批次在计算日是否参与计算
// 规则：成本日非空且不晚于 asOf，且状态为空或 ACTIVE
func (l *Lot) EligibleAt(asOf time.Time) bool {
	if l.CostDate == nil {
		return false
	}
	if DateOf(*l.CostDate).After(DateOf(asOf)) {
		return false
	}
	return l.EffectiveStatus() == LotStatusActive
}

// EligibleLots 过滤出指定合约在计算日参与计算的批次
func EligibleLots(contractID string, asOf time.Time, lots []*Lot) []*Lot {
	var out []*Lot
	for _, lot := range lots {
		if lot == nil || lot.ContractID != contractID {
			continue
		}
		if lot.EligibleAt(asOf) {
			out = append(out, lot)
		}
	}
	return out
}

// EligibleQuantity 汇总指定合约参与批次的数量
func EligibleQuantity(contractID string, asOf time.Time, lots []*Lot) decimal.Decimal {
	total := decimal.Zero
	for _, lot := range EligibleLots(contractID, asOf, lots) {
		total = total.Add(lot.EffectiveQuantity())
	}
	return total
}
