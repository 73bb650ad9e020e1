// Package domain 持仓模型
package domain

import (
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// LegType 持仓所属腿类型
type LegType string

const (
	LegTypeEquity      LegType = "EQUITY"       // 权益腿
	LegTypeFixedIncome LegType = "FIXED_INCOME" // 固定收益腿
)

// Position 持仓实体，按合约聚合若干批次
type Position struct {
	gorm.Model
	PositionID   string          `gorm:"column:position_id;type:varchar(64);uniqueIndex;not null" json:"position_id"`
	ContractID   string          `gorm:"column:contract_id;type:varchar(64);index;not null" json:"contract_id"`
	Underlying   string          `gorm:"column:underlying;type:varchar(32);not null" json:"underlying"`
	LegType      LegType         `gorm:"column:leg_type;type:varchar(16);not null;default:'EQUITY'" json:"leg_type"`
	Quantity     decimal.Decimal `gorm:"column:quantity;type:decimal(20,4)" json:"quantity"`
	AveragePrice decimal.Decimal `gorm:"column:average_price;type:decimal(18,8)" json:"average_price"`
	Currency     string          `gorm:"column:currency;type:char(3)" json:"currency"`
}

// TableName 表名
func (Position) TableName() string {
	return "cashflow_positions"
}

// IsEquityLeg 是否权益腿持仓，盈亏的持仓级口径只统计权益腿
func (p *Position) IsEquityLeg() bool {
	return p.LegType == LegTypeEquity
}
