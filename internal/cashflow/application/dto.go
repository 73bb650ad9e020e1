// Package application 现金流计算服务应用层数据传输对象
// 金额、价格、数量、利率一律以字符串承载，避免 JSON 浮点精度损失
package application

import (
	"time"

	"github.com/shopspring/decimal"
	"github.com/wyfcoding/swapcashflow/internal/cashflow/domain"
)

// ContractDTO 合约视图
type ContractDTO struct {
	ContractID        string `json:"contract_id"`
	Underlying        string `json:"underlying"`
	ContractType      string `json:"contract_type"`
	Status            string `json:"status"`
	NotionalAmount    string `json:"notional_amount"`
	Currency          string `json:"currency"`
	StartDate         string `json:"start_date"`
	EndDate           string `json:"end_date"`
	InterestRateIndex string `json:"interest_rate_index,omitempty"`
	FixedRate         string `json:"fixed_rate,omitempty"`
	DayCount          string `json:"day_count"`
	PaymentFreq       string `json:"payment_freq"`
}

// ToContractDTO 合约聚合转视图
func ToContractDTO(c *domain.SwapContract) *ContractDTO {
	if c == nil {
		return nil
	}
	return &ContractDTO{
		ContractID:        c.ContractID,
		Underlying:        c.Underlying,
		ContractType:      string(c.ContractType),
		Status:            string(c.Status),
		NotionalAmount:    c.NotionalAmount.String(),
		Currency:          c.Currency,
		StartDate:         c.StartDate.Format("2006-01-02"),
		EndDate:           c.EndDate.Format("2006-01-02"),
		InterestRateIndex: c.InterestRateIndex,
		FixedRate:         c.FixedRate.String(),
		DayCount:          string(c.DayCount),
		PaymentFreq:       string(c.PaymentFreq),
	}
}

// LotDTO 批次视图
type LotDTO struct {
	LotID          string  `json:"lot_id"`
	ContractID     string  `json:"contract_id"`
	PositionID     string  `json:"position_id,omitempty"`
	Quantity       string  `json:"quantity"`
	CostPrice      string  `json:"cost_price"`
	CostDate       *string `json:"cost_date,omitempty"`
	Status         string  `json:"status"`
	CloseDate      *string `json:"close_date,omitempty"`
	ClosePrice     string  `json:"close_price,omitempty"`
	SettlementDate *string `json:"settlement_date,omitempty"`
}

// ToLotDTO 批次转视图
func ToLotDTO(l *domain.Lot) *LotDTO {
	if l == nil {
		return nil
	}
	dto := &LotDTO{
		LotID:      l.LotID,
		ContractID: l.ContractID,
		PositionID: l.PositionID,
		Quantity:   l.Quantity.String(),
		CostPrice:  l.CostPrice.String(),
		Status:     string(l.EffectiveStatus()),
		ClosePrice: l.ClosePrice.String(),
	}
	dto.CostDate = formatDatePtr(l.CostDate)
	dto.CloseDate = formatDatePtr(l.CloseDate)
	dto.SettlementDate = formatDatePtr(l.SettlementDate)
	return dto
}

// CashFlowDTO 现金流视图
type CashFlowDTO struct {
	FlowID          string  `json:"flow_id"`
	ContractID      string  `json:"contract_id"`
	PositionID      string  `json:"position_id,omitempty"`
	LotID           string  `json:"lot_id,omitempty"`
	FlowType        string  `json:"flow_type"`
	Amount          string  `json:"amount"`
	Currency        string  `json:"currency"`
	FlowDate        string  `json:"flow_date"`
	AccrualStart    *string `json:"accrual_start,omitempty"`
	AccrualEnd      *string `json:"accrual_end,omitempty"`
	Status          string  `json:"status"`
	SettlementDate  *string `json:"settlement_date,omitempty"`
	Basis           string  `json:"basis"`
	CalculationDate string  `json:"calculation_date"`
}

// ToCashFlowDTO 现金流聚合转视图
func ToCashFlowDTO(f *domain.CashFlow) *CashFlowDTO {
	if f == nil {
		return nil
	}
	return &CashFlowDTO{
		FlowID:          f.FlowID,
		ContractID:      f.ContractID,
		PositionID:      f.PositionID,
		LotID:           f.LotID,
		FlowType:        string(f.FlowType),
		Amount:          f.Amount.String(),
		Currency:        f.Currency,
		FlowDate:        f.FlowDate.Format("2006-01-02"),
		AccrualStart:    formatDatePtr(f.AccrualStart),
		AccrualEnd:      formatDatePtr(f.AccrualEnd),
		Status:          string(f.Status),
		SettlementDate:  formatDatePtr(f.SettlementDate),
		Basis:           string(f.Basis),
		CalculationDate: f.CalculationDate.Format("2006-01-02"),
	}
}

// WithholdingTaxDTO 预提税明细视图
type WithholdingTaxDTO struct {
	ContractID      string  `json:"contract_id"`
	Underlying      string  `json:"underlying"`
	Currency        string  `json:"currency"`
	ExDate          *string `json:"ex_date,omitempty"`
	PaymentDate     *string `json:"payment_date,omitempty"`
	GrossAmount     string  `json:"gross_amount"`
	TaxRate         string  `json:"tax_rate"`
	TaxAmount       string  `json:"tax_amount"`
	NetAmount       string  `json:"net_amount"`
	Treatment       string  `json:"treatment"`
	Jurisdiction    string  `json:"jurisdiction"`
	CalculationType string  `json:"calculation_type"`
	CalculationDate string  `json:"calculation_date"`
	TaxUtilityRef   string  `json:"tax_utility_ref"`
}

// ToWithholdingTaxDTO 预提税明细转视图
func ToWithholdingTaxDTO(w *domain.WithholdingTaxInfo) *WithholdingTaxDTO {
	if w == nil {
		return nil
	}
	return &WithholdingTaxDTO{
		ContractID:      w.ContractID,
		Underlying:      w.Underlying,
		Currency:        w.Currency,
		ExDate:          formatDatePtr(w.ExDate),
		PaymentDate:     formatDatePtr(w.PaymentDate),
		GrossAmount:     w.GrossAmount.String(),
		TaxRate:         w.TaxRate.String(),
		TaxAmount:       w.TaxAmount.String(),
		NetAmount:       w.NetAmount.String(),
		Treatment:       string(w.Treatment),
		Jurisdiction:    w.TaxJurisdiction,
		CalculationType: string(w.CalculationType),
		CalculationDate: w.CalculationDate.Format("2006-01-02"),
		TaxUtilityRef:   w.TaxUtilityRef,
	}
}

// CalculationResultDTO 计算结果视图
type CalculationResultDTO struct {
	ContractID            string               `json:"contract_id"`
	CalculationDate       string               `json:"calculation_date"`
	CashFlows             []*CashFlowDTO       `json:"cash_flows"`
	WithholdingTaxDetails []*WithholdingTaxDTO `json:"withholding_tax_details,omitempty"`
	InterestAmount        string               `json:"interest_amount"`
	DividendAmount        string               `json:"dividend_amount"`
	PnLAmount             string               `json:"pnl_amount"`
}

// ToCalculationResultDTO 计算结果转视图
func ToCalculationResultDTO(r *domain.CalculationResult) *CalculationResultDTO {
	if r == nil {
		return nil
	}
	dto := &CalculationResultDTO{
		ContractID:      r.ContractID,
		CalculationDate: r.CalculationDate.Format("2006-01-02"),
		InterestAmount:  r.InterestAmount.String(),
		DividendAmount:  r.DividendAmount.String(),
		PnLAmount:       r.PnLAmount.String(),
	}
	for _, f := range r.CashFlows {
		dto.CashFlows = append(dto.CashFlows, ToCashFlowDTO(f))
	}
	for _, w := range r.WithholdingTaxDetails {
		dto.WithholdingTaxDetails = append(dto.WithholdingTaxDetails, ToWithholdingTaxDTO(w))
	}
	return dto
}

// TaskDTO 历史计算任务视图
type TaskDTO struct {
	TaskID         string  `json:"task_id"`
	ContractIDs    string  `json:"contract_ids"`
	FromDate       string  `json:"from_date"`
	ToDate         string  `json:"to_date"`
	Status         string  `json:"status"`
	Progress       int     `json:"progress"`
	ProcessedCount int     `json:"processed_count"`
	TotalCount     int     `json:"total_count"`
	FailReason     string  `json:"fail_reason,omitempty"`
	StartedAt      *string `json:"started_at,omitempty"`
	FinishedAt     *string `json:"finished_at,omitempty"`
}

// ToTaskDTO 任务聚合转视图
func ToTaskDTO(t *domain.CalculationTask) *TaskDTO {
	if t == nil {
		return nil
	}
	dto := &TaskDTO{
		TaskID:         t.TaskID,
		ContractIDs:    t.ContractIDs,
		FromDate:       t.FromDate.Format("2006-01-02"),
		ToDate:         t.ToDate.Format("2006-01-02"),
		Status:         string(t.Status),
		Progress:       t.Progress,
		ProcessedCount: t.ProcessedCount,
		TotalCount:     t.TotalCount,
		FailReason:     t.FailReason,
	}
	if t.StartedAt != nil {
		s := t.StartedAt.Format(time.RFC3339)
		dto.StartedAt = &s
	}
	if t.FinishedAt != nil {
		s := t.FinishedAt.Format(time.RFC3339)
		dto.FinishedAt = &s
	}
	return dto
}

// parseDate 解析 yyyy-MM-dd 日期串
func parseDate(s string) (time.Time, error) {
	return time.Parse("2006-01-02", s)
}

// parseDatePtr 解析可空日期串
func parseDatePtr(s string) (*time.Time, error) {
	if s == "" {
		return nil, nil
	}
	t, err := parseDate(s)
	if err != nil {
		return nil, err
	}
	return &t, nil
}

// parseDecimal 解析十进制串，空串视为零
func parseDecimal(s string) (decimal.Decimal, error) {
	if s == "" {
		return decimal.Zero, nil
	}
	return decimal.NewFromString(s)
}

func formatDatePtr(t *time.Time) *string {
	if t == nil {
		return nil
	}
	s := t.Format("2006-01-02")
	return &s
}
