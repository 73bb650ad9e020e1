// Package http 现金流计算服务 HTTP 接口层
// 生成摘要：
// 1) 同步计算、历史任务、合约与批次管理、现金流查询四组路由
// 2) 类型化计算错误映射 422 并携带合约号；聚合缺失 404；入参非法 400
// 3) 同步计算端点带硬性墙钟预算，由超时上下文强制
package http

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/wyfcoding/pkg/logging"
	"github.com/wyfcoding/pkg/response"

	"github.com/wyfcoding/swapcashflow/internal/cashflow/application"
	"github.com/wyfcoding/swapcashflow/internal/cashflow/domain"
)

// CashFlowHandler 现金流服务 HTTP 处理器
type CashFlowHandler struct {
	calcService     *application.CalculationService
	taskService     *application.TaskService
	contractService *application.ContractCommandService
	queryService    *application.QueryService
	calcTimeout     time.Duration
}

// NewCashFlowHandler 创建 HTTP 处理器
// calcTimeout 为同步计算的硬性墙钟预算
func NewCashFlowHandler(
	calcService *application.CalculationService,
	taskService *application.TaskService,
	contractService *application.ContractCommandService,
	queryService *application.QueryService,
	calcTimeout time.Duration,
) *CashFlowHandler {
	if calcTimeout <= 0 {
		calcTimeout = time.Second
	}
	return &CashFlowHandler{
		calcService:     calcService,
		taskService:     taskService,
		contractService: contractService,
		queryService:    queryService,
		calcTimeout:     calcTimeout,
	}
}

// RegisterRoutes 注册路由
func (h *CashFlowHandler) RegisterRoutes(r *gin.RouterGroup) {
	cashflow := r.Group("/cashflow")
	{
		cashflow.POST("/calculate", h.Calculate)
		cashflow.POST("/tasks", h.SubmitTask)
		cashflow.GET("/tasks", h.ListTasks)
		cashflow.GET("/tasks/:id", h.GetTask)
		cashflow.POST("/tasks/:id/cancel", h.CancelTask)
	}
	contracts := r.Group("/contracts")
	{
		contracts.POST("", h.CreateContract)
		contracts.GET("", h.ListContracts)
		contracts.GET("/:id", h.GetContract)
		contracts.PUT("/:id", h.UpdateContract)
		contracts.POST("/:id/activate", h.ActivateContract)
		contracts.POST("/:id/terminate", h.TerminateContract)
		contracts.POST("/:id/lots", h.AddLots)
		contracts.GET("/:id/lots", h.ListLots)
		contracts.GET("/:id/cashflows", h.ListCashFlows)
	}
}

// CalculateRequest 同步计算请求
type CalculateRequest struct {
	ContractID string `json:"contract_id" binding:"required"`
	From       string `json:"from" binding:"required"`
	To         string `json:"to" binding:"required"`
	Persist    bool   `json:"persist"`
}

// Calculate 同步计算
func (h *CashFlowHandler) Calculate(c *gin.Context) {
	var req CalculateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ErrorWithStatus(c, http.StatusBadRequest, err.Error(), "")
		return
	}
	from, err := time.Parse("2006-01-02", req.From)
	if err != nil {
		response.ErrorWithStatus(c, http.StatusBadRequest, "invalid from date", "")
		return
	}
	to, err := time.Parse("2006-01-02", req.To)
	if err != nil {
		response.ErrorWithStatus(c, http.StatusBadRequest, "invalid to date", "")
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), h.calcTimeout)
	defer cancel()

	result, err := h.calcService.Calculate(ctx, application.CalculateCommand{
		ContractID: req.ContractID,
		From:       from,
		To:         to,
		Persist:    req.Persist,
	})
	if err != nil {
		h.renderCalcError(c, req.ContractID, err)
		return
	}
	response.Success(c, application.ToCalculationResultDTO(result))
}

// renderCalcError 类型化计算错误的 HTTP 映射
func (h *CashFlowHandler) renderCalcError(c *gin.Context, contractID string, err error) {
	logging.Error(c.Request.Context(), "calculation failed", "contract_id", contractID, "error", err)
	switch {
	case errors.Is(err, domain.ErrContractNotFound):
		response.ErrorWithStatus(c, http.StatusNotFound, err.Error(), "")
	case errors.Is(err, domain.ErrInterestCalculationFailed),
		errors.Is(err, domain.ErrDividendDataNotFound),
		errors.Is(err, domain.ErrPriceDataNotFound),
		errors.Is(err, domain.ErrSnapshotExpired),
		errors.Is(err, domain.ErrCalculationFailed):
		response.ErrorWithStatus(c, http.StatusUnprocessableEntity, err.Error(), contractID)
	case errors.Is(err, context.DeadlineExceeded):
		response.ErrorWithStatus(c, http.StatusGatewayTimeout, "calculation exceeded wall-clock budget", contractID)
	default:
		response.ErrorWithStatus(c, http.StatusInternalServerError, err.Error(), "")
	}
}

// SubmitTaskRequest 提交历史任务请求
type SubmitTaskRequest struct {
	ContractIDs []string `json:"contract_ids"`
	From        string   `json:"from" binding:"required"`
	To          string   `json:"to" binding:"required"`
}

// SubmitTask 提交历史计算任务
func (h *CashFlowHandler) SubmitTask(c *gin.Context) {
	var req SubmitTaskRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ErrorWithStatus(c, http.StatusBadRequest, err.Error(), "")
		return
	}
	from, err := time.Parse("2006-01-02", req.From)
	if err != nil {
		response.ErrorWithStatus(c, http.StatusBadRequest, "invalid from date", "")
		return
	}
	to, err := time.Parse("2006-01-02", req.To)
	if err != nil {
		response.ErrorWithStatus(c, http.StatusBadRequest, "invalid to date", "")
		return
	}

	taskID, err := h.taskService.Submit(c.Request.Context(), application.SubmitTaskCommand{
		ContractIDs: req.ContractIDs,
		From:        from,
		To:          to,
	})
	if err != nil {
		logging.Error(c.Request.Context(), "failed to submit task", "error", err)
		response.ErrorWithStatus(c, http.StatusInternalServerError, err.Error(), "")
		return
	}
	c.JSON(http.StatusAccepted, gin.H{"task_id": taskID})
}

// GetTask 查询任务
func (h *CashFlowHandler) GetTask(c *gin.Context) {
	dto, err := h.taskService.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		if errors.Is(err, domain.ErrTaskNotFound) {
			response.ErrorWithStatus(c, http.StatusNotFound, err.Error(), "")
			return
		}
		response.ErrorWithStatus(c, http.StatusInternalServerError, err.Error(), "")
		return
	}
	response.Success(c, dto)
}

// ListTasks 查询任务列表
func (h *CashFlowHandler) ListTasks(c *gin.Context) {
	limit, offset, ok := pagination(c)
	if !ok {
		return
	}
	dtos, err := h.taskService.List(c.Request.Context(), limit, offset)
	if err != nil {
		response.ErrorWithStatus(c, http.StatusInternalServerError, err.Error(), "")
		return
	}
	response.Success(c, dtos)
}

// CancelTask 取消任务
func (h *CashFlowHandler) CancelTask(c *gin.Context) {
	if err := h.taskService.Cancel(c.Request.Context(), c.Param("id")); err != nil {
		if errors.Is(err, domain.ErrTaskNotFound) {
			response.ErrorWithStatus(c, http.StatusNotFound, err.Error(), "")
			return
		}
		response.ErrorWithStatus(c, http.StatusConflict, err.Error(), "")
		return
	}
	response.Success(c, gin.H{"status": "cancelling"})
}

// CreateContractRequest 创建合约请求
type CreateContractRequest struct {
	ContractID        string `json:"contract_id"`
	Underlying        string `json:"underlying" binding:"required"`
	ContractType      string `json:"contract_type" binding:"required"`
	Currency          string `json:"currency" binding:"required"`
	StartDate         string `json:"start_date" binding:"required"`
	EndDate           string `json:"end_date" binding:"required"`
	NotionalAmount    string `json:"notional_amount"`
	InterestRateIndex string `json:"interest_rate_index"`
	FixedRate         string `json:"fixed_rate"`
	DayCount          string `json:"day_count"`
	PaymentFreq       string `json:"payment_freq"`
}

// CreateContract 创建合约
func (h *CashFlowHandler) CreateContract(c *gin.Context) {
	var req CreateContractRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ErrorWithStatus(c, http.StatusBadRequest, err.Error(), "")
		return
	}

	dto, err := h.contractService.CreateContract(c.Request.Context(), application.CreateContractCommand{
		ContractID:        req.ContractID,
		Underlying:        req.Underlying,
		ContractType:      req.ContractType,
		Currency:          req.Currency,
		StartDate:         req.StartDate,
		EndDate:           req.EndDate,
		NotionalAmount:    req.NotionalAmount,
		InterestRateIndex: req.InterestRateIndex,
		FixedRate:         req.FixedRate,
		DayCount:          req.DayCount,
		PaymentFreq:       req.PaymentFreq,
	})
	if err != nil {
		if errors.Is(err, domain.ErrInvalidContract) {
			response.ErrorWithStatus(c, http.StatusBadRequest, err.Error(), "")
			return
		}
		logging.Error(c.Request.Context(), "failed to create contract", "error", err)
		response.ErrorWithStatus(c, http.StatusInternalServerError, err.Error(), "")
		return
	}
	c.JSON(http.StatusCreated, gin.H{"data": dto})
}

// UpdateContractRequest 修改合约条款请求，空字段保留原值
type UpdateContractRequest struct {
	NotionalAmount    string `json:"notional_amount"`
	InterestRateIndex string `json:"interest_rate_index"`
	FixedRate         string `json:"fixed_rate"`
	DayCount          string `json:"day_count"`
	PaymentFreq       string `json:"payment_freq"`
}

// UpdateContract 修改合约条款
func (h *CashFlowHandler) UpdateContract(c *gin.Context) {
	var req UpdateContractRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ErrorWithStatus(c, http.StatusBadRequest, err.Error(), "")
		return
	}

	dto, err := h.contractService.UpdateContract(c.Request.Context(), c.Param("id"), application.UpdateContractCommand{
		NotionalAmount:    req.NotionalAmount,
		InterestRateIndex: req.InterestRateIndex,
		FixedRate:         req.FixedRate,
		DayCount:          req.DayCount,
		PaymentFreq:       req.PaymentFreq,
	})
	if err != nil {
		if errors.Is(err, domain.ErrContractNotFound) {
			response.ErrorWithStatus(c, http.StatusNotFound, err.Error(), "")
			return
		}
		logging.Error(c.Request.Context(), "failed to update contract", "contract_id", c.Param("id"), "error", err)
		response.ErrorWithStatus(c, http.StatusBadRequest, err.Error(), "")
		return
	}
	response.Success(c, dto)
}

// ActivateContract 生效合约
func (h *CashFlowHandler) ActivateContract(c *gin.Context) {
	h.contractTransition(c, h.contractService.ActivateContract)
}

// TerminateContract 终止合约
func (h *CashFlowHandler) TerminateContract(c *gin.Context) {
	h.contractTransition(c, h.contractService.TerminateContract)
}

func (h *CashFlowHandler) contractTransition(c *gin.Context, fn func(context.Context, string) error) {
	contractID := c.Param("id")
	if err := fn(c.Request.Context(), contractID); err != nil {
		if errors.Is(err, domain.ErrContractNotFound) {
			response.ErrorWithStatus(c, http.StatusNotFound, err.Error(), "")
			return
		}
		response.ErrorWithStatus(c, http.StatusConflict, err.Error(), "")
		return
	}
	response.Success(c, gin.H{"contract_id": contractID})
}

// AddLotsRequest 添加批次请求
type AddLotsRequest struct {
	Lots []struct {
		LotID      string `json:"lot_id"`
		PositionID string `json:"position_id"`
		Quantity   string `json:"quantity"`
		CostPrice  string `json:"cost_price"`
		CostDate   string `json:"cost_date"`
		Status     string `json:"status"`
	} `json:"lots" binding:"required,min=1"`
}

// AddLots 追加批次
func (h *CashFlowHandler) AddLots(c *gin.Context) {
	var req AddLotsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ErrorWithStatus(c, http.StatusBadRequest, err.Error(), "")
		return
	}

	cmds := make([]application.AddLotCommand, 0, len(req.Lots))
	for _, l := range req.Lots {
		cmds = append(cmds, application.AddLotCommand{
			LotID:      l.LotID,
			PositionID: l.PositionID,
			Quantity:   l.Quantity,
			CostPrice:  l.CostPrice,
			CostDate:   l.CostDate,
			Status:     l.Status,
		})
	}

	dtos, err := h.contractService.AddLots(c.Request.Context(), c.Param("id"), cmds)
	if err != nil {
		if errors.Is(err, domain.ErrContractNotFound) {
			response.ErrorWithStatus(c, http.StatusNotFound, err.Error(), "")
			return
		}
		logging.Error(c.Request.Context(), "failed to add lots", "contract_id", c.Param("id"), "error", err)
		response.ErrorWithStatus(c, http.StatusInternalServerError, err.Error(), "")
		return
	}
	c.JSON(http.StatusCreated, gin.H{"data": dtos})
}

// GetContract 查询合约
func (h *CashFlowHandler) GetContract(c *gin.Context) {
	dto, err := h.queryService.GetContract(c.Request.Context(), c.Param("id"))
	if err != nil {
		if errors.Is(err, domain.ErrContractNotFound) {
			response.ErrorWithStatus(c, http.StatusNotFound, err.Error(), "")
			return
		}
		response.ErrorWithStatus(c, http.StatusInternalServerError, err.Error(), "")
		return
	}
	response.Success(c, dto)
}

// ListContracts 查询合约列表
func (h *CashFlowHandler) ListContracts(c *gin.Context) {
	limit, offset, ok := pagination(c)
	if !ok {
		return
	}
	dtos, err := h.queryService.ListContracts(c.Request.Context(), c.Query("status"), limit, offset)
	if err != nil {
		response.ErrorWithStatus(c, http.StatusInternalServerError, err.Error(), "")
		return
	}
	response.Success(c, dtos)
}

// ListLots 查询合约批次
func (h *CashFlowHandler) ListLots(c *gin.Context) {
	dtos, err := h.queryService.ListLots(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.ErrorWithStatus(c, http.StatusInternalServerError, err.Error(), "")
		return
	}
	response.Success(c, dtos)
}

// ListCashFlows 查询合约现金流
func (h *CashFlowHandler) ListCashFlows(c *gin.Context) {
	var from, to *time.Time
	if s := c.Query("from"); s != "" {
		t, err := time.Parse("2006-01-02", s)
		if err != nil {
			response.ErrorWithStatus(c, http.StatusBadRequest, "invalid from date", "")
			return
		}
		from = &t
	}
	if s := c.Query("to"); s != "" {
		t, err := time.Parse("2006-01-02", s)
		if err != nil {
			response.ErrorWithStatus(c, http.StatusBadRequest, "invalid to date", "")
			return
		}
		to = &t
	}

	dtos, err := h.queryService.ListCashFlows(c.Request.Context(), c.Param("id"), from, to, c.Query("status"))
	if err != nil {
		response.ErrorWithStatus(c, http.StatusInternalServerError, err.Error(), "")
		return
	}
	response.Success(c, dtos)
}

// pagination 解析分页参数
func pagination(c *gin.Context) (limit, offset int, ok bool) {
	limit, err := strconv.Atoi(c.DefaultQuery("limit", "20"))
	if err != nil || limit <= 0 {
		response.ErrorWithStatus(c, http.StatusBadRequest, "invalid limit", "")
		return 0, 0, false
	}
	offset, err = strconv.Atoi(c.DefaultQuery("offset", "0"))
	if err != nil || offset < 0 {
		response.ErrorWithStatus(c, http.StatusBadRequest, "invalid offset", "")
		return 0, 0, false
	}
	return limit, offset, true
}
