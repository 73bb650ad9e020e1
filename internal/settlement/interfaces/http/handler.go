// Package http 结算服务 HTTP 接口层
package http

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/wyfcoding/pkg/logging"
	"github.com/wyfcoding/pkg/response"

	"github.com/wyfcoding/swapcashflow/internal/settlement/application"
	"github.com/wyfcoding/swapcashflow/internal/settlement/domain"
)

// SettlementHandler 结算 HTTP 处理器
type SettlementHandler struct {
	service *application.SettlementService
}

// NewSettlementHandler 创建结算 HTTP 处理器
func NewSettlementHandler(service *application.SettlementService) *SettlementHandler {
	return &SettlementHandler{service: service}
}

// RegisterRoutes 注册路由
func (h *SettlementHandler) RegisterRoutes(r *gin.RouterGroup) {
	settlement := r.Group("/settlement")
	{
		settlement.GET("/instructions", h.ListPending)
		settlement.GET("/instructions/:id", h.Get)
		settlement.POST("/instructions/:id/settle", h.Settle)
		settlement.POST("/instructions/:id/fail", h.Fail)
		settlement.POST("/sweep", h.Sweep)
	}
}

// ListPending 查询待结算指令
func (h *SettlementHandler) ListPending(c *gin.Context) {
	limit, err := strconv.Atoi(c.DefaultQuery("limit", "20"))
	if err != nil || limit <= 0 {
		response.ErrorWithStatus(c, http.StatusBadRequest, "invalid limit", "")
		return
	}
	offset, err := strconv.Atoi(c.DefaultQuery("offset", "0"))
	if err != nil || offset < 0 {
		response.ErrorWithStatus(c, http.StatusBadRequest, "invalid offset", "")
		return
	}

	instructions, err := h.service.ListPending(c.Request.Context(), limit, offset)
	if err != nil {
		response.ErrorWithStatus(c, http.StatusInternalServerError, err.Error(), "")
		return
	}
	response.Success(c, instructions)
}

// Get 查询单条指令
func (h *SettlementHandler) Get(c *gin.Context) {
	instruction, err := h.service.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		if errors.Is(err, domain.ErrInstructionNotFound) {
			response.ErrorWithStatus(c, http.StatusNotFound, err.Error(), "")
			return
		}
		response.ErrorWithStatus(c, http.StatusInternalServerError, err.Error(), "")
		return
	}
	response.Success(c, instruction)
}

// Settle 人工结算
func (h *SettlementHandler) Settle(c *gin.Context) {
	if err := h.service.Settle(c.Request.Context(), c.Param("id")); err != nil {
		h.renderError(c, err)
		return
	}
	response.Success(c, gin.H{"instruction_id": c.Param("id"), "status": string(domain.InstructionStatusSettled)})
}

// FailRequest 人工置失败请求
type FailRequest struct {
	Reason string `json:"reason" binding:"required"`
}

// Fail 人工置失败
func (h *SettlementHandler) Fail(c *gin.Context) {
	var req FailRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ErrorWithStatus(c, http.StatusBadRequest, err.Error(), "")
		return
	}
	if err := h.service.Fail(c.Request.Context(), c.Param("id"), req.Reason); err != nil {
		h.renderError(c, err)
		return
	}
	response.Success(c, gin.H{"instruction_id": c.Param("id"), "status": string(domain.InstructionStatusFailed)})
}

// Sweep 手动触发一轮到期结算扫描
func (h *SettlementHandler) Sweep(c *gin.Context) {
	settled, failed, err := h.service.SettleDue(c.Request.Context(), time.Now())
	if err != nil {
		logging.Error(c.Request.Context(), "settlement sweep failed", "error", err)
		response.ErrorWithStatus(c, http.StatusInternalServerError, err.Error(), "")
		return
	}
	response.Success(c, gin.H{"settled": settled, "failed": failed})
}

func (h *SettlementHandler) renderError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, domain.ErrInstructionNotFound):
		response.ErrorWithStatus(c, http.StatusNotFound, err.Error(), "")
	case errors.Is(err, domain.ErrInstructionNotPending):
		response.ErrorWithStatus(c, http.StatusConflict, err.Error(), "")
	default:
		logging.Error(c.Request.Context(), "settlement operation failed", "instruction_id", c.Param("id"), "error", err)
		response.ErrorWithStatus(c, http.StatusInternalServerError, err.Error(), "")
	}
}
