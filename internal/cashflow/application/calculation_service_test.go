package application

import (
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wyfcoding/swapcashflow/internal/cashflow/domain"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func testService() *CalculationService {
	return NewCalculationService(nil, nil, nil, nil, nil, nil, nil, 0, testLogger())
}

func testContract(t *testing.T) *domain.SwapContract {
	t.Helper()
	c, err := domain.NewSwapContract("C1", "AAPL", domain.ContractTypeEquitySwap, "USD",
		time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC), time.Date(2024, 12, 31, 0, 0, 0, 0, time.UTC))
	require.NoError(t, err)
	c.SetNotional(decimal.NewFromInt(1_000_000))
	c.SetInterestLeg("", decimal.NewFromFloat(0.055), domain.DayCountACT360, domain.FrequencyMonthly)
	return c
}

func testSnapshot() *domain.MarketDataSnapshot {
	exDate := time.Date(2024, 1, 10, 0, 0, 0, 0, time.UTC)
	return &domain.MarketDataSnapshot{
		Prices: []*domain.PriceMark{
			{Symbol: "AAPL", Price: decimal.NewFromInt(150), AsOf: time.Date(2024, 2, 1, 0, 0, 0, 0, time.UTC)},
		},
		Dividends: []*domain.DividendDeclaration{
			{
				Symbol:    "AAPL",
				ExDate:    &exDate,
				Amount:    decimal.NewFromInt(2),
				Currency:  "USD",
				TaxRate:   decimal.NewFromInt(15), // 百分比口径
				Treatment: domain.TreatmentGrossUp,
			},
		},
		AsOf: time.Now(),
	}
}

func testLots() []*domain.Lot {
	costDate := time.Date(2023, 12, 1, 0, 0, 0, 0, time.UTC)
	return []*domain.Lot{{
		LotID:      "L1",
		ContractID: "C1",
		Quantity:   decimal.NewFromInt(1000),
		CostPrice:  decimal.NewFromInt(120),
		CostDate:   &costDate,
		Status:     domain.LotStatusActive,
	}}
}

func TestCalculationServiceInlineRequest(t *testing.T) {
	svc := testService()

	result, err := svc.Calculate(context.Background(), CalculateCommand{
		Request: &domain.CalculationRequest{
			Contract: testContract(t),
			Range: domain.DateRange{
				From: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
				To:   time.Date(2024, 2, 1, 0, 0, 0, 0, time.UTC),
			},
			Lots:       testLots(),
			MarketData: testSnapshot(),
		},
	})
	require.NoError(t, err)
	require.NotNil(t, result)

	// 利息：1,000,000 × 5.5% × 31/360
	assert.True(t, result.InterestAmount.Equal(decimal.NewFromFloat(4736.11)), result.InterestAmount.String())
	// 分红：1000 股 × 2.00，预提 15%
	assert.True(t, result.DividendAmount.Equal(decimal.NewFromInt(1700)), result.DividendAmount.String())
	// 盈亏：1000 × (150 − 120)
	assert.True(t, result.PnLAmount.Equal(decimal.NewFromInt(30_000)), result.PnLAmount.String())

	// 完整计息期出计提 + 已实现两条利息流，另有分红、盈亏各一条
	require.Len(t, result.CashFlows, 4)
	require.Len(t, result.WithholdingTaxDetails, 1)
	assert.True(t, result.WithholdingTaxDetails[0].TaxAmount.Equal(decimal.NewFromInt(300)))
}

func TestCalculationServiceFailsWithoutPartialResult(t *testing.T) {
	svc := testService()

	snap := testSnapshot()
	snap.Dividends = nil // 利息、盈亏可算，分红缺数据

	result, err := svc.Calculate(context.Background(), CalculateCommand{
		Request: &domain.CalculationRequest{
			Contract: testContract(t),
			Range: domain.DateRange{
				From: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
				To:   time.Date(2024, 2, 1, 0, 0, 0, 0, time.UTC),
			},
			Lots:       testLots(),
			MarketData: snap,
		},
	})
	require.Error(t, err)
	assert.Nil(t, result, "任一计算器失败不返回部分结果")

	var notFound *domain.DividendDataNotFoundError
	require.ErrorAs(t, err, &notFound)
	assert.Equal(t, "C1", notFound.ContractID)
}

func TestCalculationServiceExpiredSnapshot(t *testing.T) {
	svc := testService()

	snap := testSnapshot()
	snap.AsOf = time.Now().Add(-10 * time.Minute)
	snap.TTL = 5 * time.Minute

	_, err := svc.Calculate(context.Background(), CalculateCommand{
		Request: &domain.CalculationRequest{
			Contract: testContract(t),
			Range: domain.DateRange{
				From: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
				To:   time.Date(2024, 2, 1, 0, 0, 0, 0, time.UTC),
			},
			Lots:       testLots(),
			MarketData: snap,
		},
	})
	assert.ErrorIs(t, err, domain.ErrSnapshotExpired)
}

func TestCalculationServiceInvalidCommand(t *testing.T) {
	svc := testService()

	_, err := svc.Calculate(context.Background(), CalculateCommand{})
	assert.Error(t, err, "既无内联请求也无合约号")

	_, err = svc.Calculate(context.Background(), CalculateCommand{
		Request: &domain.CalculationRequest{MarketData: testSnapshot()},
	})
	assert.Error(t, err, "内联请求缺合约")
}

// fakeCashFlowRepo 内存现金流仓储
type fakeCashFlowRepo struct {
	flows   map[string]*domain.CashFlow
	updates int
}

func newFakeCashFlowRepo(flows ...*domain.CashFlow) *fakeCashFlowRepo {
	repo := &fakeCashFlowRepo{flows: make(map[string]*domain.CashFlow)}
	for _, f := range flows {
		repo.flows[f.FlowID] = f
	}
	return repo
}

func (r *fakeCashFlowRepo) ReplaceForCalculation(ctx context.Context, contractID string, calcDate time.Time, flows []*domain.CashFlow) error {
	for _, f := range flows {
		r.flows[f.FlowID] = f
	}
	return nil
}

func (r *fakeCashFlowRepo) Update(ctx context.Context, flow *domain.CashFlow) error {
	r.updates++
	r.flows[flow.FlowID] = flow
	return nil
}

func (r *fakeCashFlowRepo) GetByFlowID(ctx context.Context, flowID string) (*domain.CashFlow, error) {
	return r.flows[flowID], nil
}

func (r *fakeCashFlowRepo) ListByContract(ctx context.Context, contractID string, from, to *time.Time, status domain.FlowStatus) ([]*domain.CashFlow, error) {
	return nil, nil
}

func (r *fakeCashFlowRepo) WithTx(ctx context.Context, fn func(txCtx context.Context) error) error {
	return fn(ctx)
}

func TestMarkFlowSettled(t *testing.T) {
	now := time.Date(2024, 1, 15, 0, 0, 0, 0, time.UTC)

	t.Run("realized flow transitions to settled", func(t *testing.T) {
		flow := domain.NewRealizedCashFlow("CF1", "C1", domain.FlowTypeDividend,
			decimal.NewFromInt(100), "USD", now, now, domain.BasisLotBased)
		repo := newFakeCashFlowRepo(flow)
		svc := NewCalculationService(nil, nil, nil, repo, nil, nil, nil, 0, testLogger())

		require.NoError(t, svc.MarkFlowSettled(context.Background(), "CF1"))
		assert.Equal(t, domain.FlowStatusSettled, flow.Status)
		assert.Equal(t, 1, repo.updates)
	})

	t.Run("redelivered confirmation is a no-op", func(t *testing.T) {
		flow := domain.NewRealizedCashFlow("CF2", "C1", domain.FlowTypeDividend,
			decimal.NewFromInt(100), "USD", now, now, domain.BasisLotBased)
		require.NoError(t, flow.MarkSettled())
		repo := newFakeCashFlowRepo(flow)
		svc := NewCalculationService(nil, nil, nil, repo, nil, nil, nil, 0, testLogger())

		require.NoError(t, svc.MarkFlowSettled(context.Background(), "CF2"))
		assert.Equal(t, domain.FlowStatusSettled, flow.Status)
		assert.Equal(t, 0, repo.updates, "重投不落库")
	})

	t.Run("unknown flow errors", func(t *testing.T) {
		svc := NewCalculationService(nil, nil, nil, newFakeCashFlowRepo(), nil, nil, nil, 0, testLogger())
		assert.Error(t, svc.MarkFlowSettled(context.Background(), "CF404"))
	})
}

func TestContractIDsCodec(t *testing.T) {
	encoded, err := encodeContractIDs([]string{"C1", "C2"})
	require.NoError(t, err)

	decoded, err := decodeContractIDs(encoded)
	require.NoError(t, err)
	assert.Equal(t, []string{"C1", "C2"}, decoded)

	decoded, err = decodeContractIDs("")
	require.NoError(t, err)
	assert.Nil(t, decoded)

	_, err = decodeContractIDs("{not json")
	assert.Error(t, err)
}
