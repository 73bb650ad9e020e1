// Package application 合约与现金流查询服务
package application

import (
	"context"
	"log/slog"
	"time"

	"github.com/wyfcoding/swapcashflow/internal/cashflow/domain"
)

// QueryService 查询服务
type QueryService struct {
	contractRepo domain.ContractRepository
	lotRepo      domain.LotRepository
	cashFlowRepo domain.CashFlowRepository
	logger       *slog.Logger
}

// NewQueryService 创建查询服务
func NewQueryService(contractRepo domain.ContractRepository, lotRepo domain.LotRepository, cashFlowRepo domain.CashFlowRepository, logger *slog.Logger) *QueryService {
	return &QueryService{
		contractRepo: contractRepo,
		lotRepo:      lotRepo,
		cashFlowRepo: cashFlowRepo,
		logger:       logger,
	}
}

// GetContract 查询单个合约
func (s *QueryService) GetContract(ctx context.Context, contractID string) (*ContractDTO, error) {
	contract, err := s.contractRepo.Get(ctx, contractID)
	if err != nil {
		return nil, err
	}
	if contract == nil {
		return nil, domain.ErrContractNotFound
	}
	return ToContractDTO(contract), nil
}

// ListContracts 查询合约列表，status 为空时不按状态过滤
func (s *QueryService) ListContracts(ctx context.Context, status string, limit, offset int) ([]*ContractDTO, error) {
	contracts, err := s.contractRepo.List(ctx, domain.ContractStatus(status), limit, offset)
	if err != nil {
		return nil, err
	}
	dtos := make([]*ContractDTO, 0, len(contracts))
	for _, c := range contracts {
		dtos = append(dtos, ToContractDTO(c))
	}
	return dtos, nil
}

// ListLots 查询合约批次
func (s *QueryService) ListLots(ctx context.Context, contractID string) ([]*LotDTO, error) {
	lots, err := s.lotRepo.ListByContract(ctx, contractID)
	if err != nil {
		return nil, err
	}
	dtos := make([]*LotDTO, 0, len(lots))
	for _, l := range lots {
		dtos = append(dtos, ToLotDTO(l))
	}
	return dtos, nil
}

// ListCashFlows 查询合约现金流，区间与状态过滤可选
func (s *QueryService) ListCashFlows(ctx context.Context, contractID string, from, to *time.Time, status string) ([]*CashFlowDTO, error) {
	flows, err := s.cashFlowRepo.ListByContract(ctx, contractID, from, to, domain.FlowStatus(status))
	if err != nil {
		return nil, err
	}
	dtos := make([]*CashFlowDTO, 0, len(flows))
	for _, f := range flows {
		dtos = append(dtos, ToCashFlowDTO(f))
	}
	return dtos, nil
}
