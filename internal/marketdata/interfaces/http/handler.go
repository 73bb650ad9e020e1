// Package http 行情服务 HTTP 接口层
package http

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/wyfcoding/pkg/logging"
	"github.com/wyfcoding/pkg/response"

	"github.com/wyfcoding/swapcashflow/internal/marketdata/application"
)

// MarketDataHandler 行情 HTTP 处理器
type MarketDataHandler struct {
	service *application.MarketDataService
}

// NewMarketDataHandler 创建行情 HTTP 处理器
func NewMarketDataHandler(service *application.MarketDataService) *MarketDataHandler {
	return &MarketDataHandler{service: service}
}

// RegisterRoutes 注册路由
func (h *MarketDataHandler) RegisterRoutes(r *gin.RouterGroup) {
	md := r.Group("/marketdata")
	{
		md.POST("/prices", h.UpsertPrice)
		md.POST("/prices/batch", h.UpsertPrices)
		md.GET("/prices/:symbol", h.LatestPrice)
		md.POST("/rates", h.UpsertRate)
		md.GET("/rates/:index", h.ListRates)
		md.POST("/dividends", h.DeclareDividend)
		md.GET("/dividends/:symbol", h.ListDividends)
	}
}

// PriceRequest 价格写入请求
type PriceRequest struct {
	Symbol string `json:"symbol" binding:"required"`
	Price  string `json:"price" binding:"required"`
	AsOf   string `json:"as_of" binding:"required"`
	Source string `json:"source"`
}

// UpsertPrice 写入单笔价格
func (h *MarketDataHandler) UpsertPrice(c *gin.Context) {
	var req PriceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ErrorWithStatus(c, http.StatusBadRequest, err.Error(), "")
		return
	}
	cmd, ok := h.priceCommand(c, req)
	if !ok {
		return
	}
	if err := h.service.UpsertPrice(c.Request.Context(), cmd); err != nil {
		logging.Error(c.Request.Context(), "failed to upsert price", "symbol", req.Symbol, "error", err)
		response.ErrorWithStatus(c, http.StatusInternalServerError, err.Error(), "")
		return
	}
	response.Success(c, gin.H{"symbol": req.Symbol})
}

// UpsertPrices 批量写入价格
func (h *MarketDataHandler) UpsertPrices(c *gin.Context) {
	var reqs []PriceRequest
	if err := c.ShouldBindJSON(&reqs); err != nil {
		response.ErrorWithStatus(c, http.StatusBadRequest, err.Error(), "")
		return
	}
	for _, req := range reqs {
		cmd, ok := h.priceCommand(c, req)
		if !ok {
			return
		}
		if err := h.service.UpsertPrice(c.Request.Context(), cmd); err != nil {
			logging.Error(c.Request.Context(), "failed to upsert price", "symbol", req.Symbol, "error", err)
			response.ErrorWithStatus(c, http.StatusInternalServerError, err.Error(), "")
			return
		}
	}
	response.Success(c, gin.H{"count": len(reqs)})
}

func (h *MarketDataHandler) priceCommand(c *gin.Context, req PriceRequest) (application.UpsertPriceCommand, bool) {
	asOf, err := time.Parse(time.RFC3339, req.AsOf)
	if err != nil {
		response.ErrorWithStatus(c, http.StatusBadRequest, "invalid as_of timestamp", "")
		return application.UpsertPriceCommand{}, false
	}
	return application.UpsertPriceCommand{
		Symbol: req.Symbol,
		Price:  req.Price,
		AsOf:   asOf,
		Source: req.Source,
	}, true
}

// LatestPrice 查询最新价
func (h *MarketDataHandler) LatestPrice(c *gin.Context) {
	price, err := h.service.LatestPrice(c.Request.Context(), c.Param("symbol"))
	if err != nil {
		response.ErrorWithStatus(c, http.StatusInternalServerError, err.Error(), "")
		return
	}
	if price == nil {
		response.ErrorWithStatus(c, http.StatusNotFound, "price not found", "")
		return
	}
	response.Success(c, price)
}

// RateRequest 定盘写入请求
type RateRequest struct {
	Index  string `json:"index" binding:"required"`
	Rate   string `json:"rate" binding:"required"`
	AsOf   string `json:"as_of" binding:"required"`
	Source string `json:"source"`
}

// UpsertRate 写入定盘
func (h *MarketDataHandler) UpsertRate(c *gin.Context) {
	var req RateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ErrorWithStatus(c, http.StatusBadRequest, err.Error(), "")
		return
	}
	asOf, err := time.Parse(time.RFC3339, req.AsOf)
	if err != nil {
		response.ErrorWithStatus(c, http.StatusBadRequest, "invalid as_of timestamp", "")
		return
	}
	err = h.service.UpsertRate(c.Request.Context(), application.UpsertRateCommand{
		Index:  req.Index,
		Rate:   req.Rate,
		AsOf:   asOf,
		Source: req.Source,
	})
	if err != nil {
		logging.Error(c.Request.Context(), "failed to upsert rate", "index", req.Index, "error", err)
		response.ErrorWithStatus(c, http.StatusInternalServerError, err.Error(), "")
		return
	}
	response.Success(c, gin.H{"index": req.Index})
}

// ListRates 查询定盘历史
func (h *MarketDataHandler) ListRates(c *gin.Context) {
	from, err := time.Parse("2006-01-02", c.DefaultQuery("from", "1970-01-01"))
	if err != nil {
		response.ErrorWithStatus(c, http.StatusBadRequest, "invalid from date", "")
		return
	}
	to, err := time.Parse("2006-01-02", c.DefaultQuery("to", "9999-12-31"))
	if err != nil {
		response.ErrorWithStatus(c, http.StatusBadRequest, "invalid to date", "")
		return
	}
	rates, err := h.service.ListRates(c.Request.Context(), c.Param("index"), from, to)
	if err != nil {
		response.ErrorWithStatus(c, http.StatusInternalServerError, err.Error(), "")
		return
	}
	response.Success(c, rates)
}

// DividendRequest 分红宣告请求
type DividendRequest struct {
	Symbol      string `json:"symbol" binding:"required"`
	ExDate      string `json:"ex_date" binding:"required"`
	PaymentDate string `json:"payment_date"`
	Amount      string `json:"amount" binding:"required"`
	Currency    string `json:"currency"`
	TaxRate     string `json:"tax_rate"`
	Treatment   string `json:"treatment"`
}

// DeclareDividend 写入分红宣告
func (h *MarketDataHandler) DeclareDividend(c *gin.Context) {
	var req DividendRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ErrorWithStatus(c, http.StatusBadRequest, err.Error(), "")
		return
	}
	exDate, err := time.Parse("2006-01-02", req.ExDate)
	if err != nil {
		response.ErrorWithStatus(c, http.StatusBadRequest, "invalid ex_date", "")
		return
	}
	var paymentDate *time.Time
	if req.PaymentDate != "" {
		pd, err := time.Parse("2006-01-02", req.PaymentDate)
		if err != nil {
			response.ErrorWithStatus(c, http.StatusBadRequest, "invalid payment_date", "")
			return
		}
		paymentDate = &pd
	}

	err = h.service.DeclareDividend(c.Request.Context(), application.DeclareDividendCommand{
		Symbol:      req.Symbol,
		ExDate:      exDate,
		PaymentDate: paymentDate,
		Amount:      req.Amount,
		Currency:    req.Currency,
		TaxRate:     req.TaxRate,
		Treatment:   req.Treatment,
	})
	if err != nil {
		logging.Error(c.Request.Context(), "failed to declare dividend", "symbol", req.Symbol, "error", err)
		response.ErrorWithStatus(c, http.StatusInternalServerError, err.Error(), "")
		return
	}
	response.Success(c, gin.H{"symbol": req.Symbol, "ex_date": req.ExDate})
}

// ListDividends 查询分红序列
func (h *MarketDataHandler) ListDividends(c *gin.Context) {
	dividends, err := h.service.ListDividends(c.Request.Context(), c.Param("symbol"))
	if err != nil {
		response.ErrorWithStatus(c, http.StatusInternalServerError, err.Error(), "")
		return
	}
	response.Success(c, dividends)
}
