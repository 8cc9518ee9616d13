package api

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"time"

	"veira-pos/internal/models"
	"veira-pos/internal/service"
	"veira-pos/internal/util"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
)

// Handler contains HTTP handlers
type Handler struct {
	pos      *service.POSService
	insights *service.InsightsService
	logger   *zap.Logger
}

// NewHandler creates a new HTTP handler
func NewHandler(pos *service.POSService, insights *service.InsightsService) *Handler {
	return &Handler{
		pos:      pos,
		insights: insights,
		logger:   util.Named("api"),
	}
}

// SetupRoutes sets up HTTP routes
func (h *Handler) SetupRoutes(router *gin.Engine) {
	router.Use(gin.Recovery())
	router.Use(prometheusMiddleware())
	router.Use(gin.Logger())

	router.GET("/health", h.healthCheck)
	router.GET("/ready", h.readinessCheck)

	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	v1 := router.Group("/api/v1")
	{
		v1.POST("/session/login", h.login)
		v1.POST("/session/logout", h.logout)
		v1.GET("/session", h.getSession)

		v1.GET("/settings", h.getSettings)
		v1.PUT("/settings", h.updateSettings)

		v1.GET("/categories", h.listCategories)
		v1.GET("/products", h.listProducts)
		v1.GET("/products/low-stock", h.lowStock)
		v1.GET("/products/regulated", h.regulatedItems)
		v1.GET("/products/:id", h.getProduct)
		v1.POST("/products", h.createProduct)
		v1.PUT("/products/:id", h.updateProduct)
		v1.DELETE("/products/:id", h.deleteProduct)

		v1.GET("/cart", h.getCart)
		v1.POST("/cart/items", h.addCartItem)
		v1.PATCH("/cart/items/:id", h.adjustCartItem)
		v1.DELETE("/cart", h.clearCart)
		v1.POST("/checkout", h.checkout)

		v1.GET("/transactions", h.listTransactions)
		v1.GET("/transactions/audit", h.auditTransactions)
		v1.GET("/transactions/:id", h.getTransaction)

		v1.GET("/reports/totals", h.totals)
		v1.GET("/reports/payment-methods", h.paymentMethods)
		v1.GET("/reports/daily", h.daily)
		v1.GET("/reports/inventory-valuation", h.inventoryValuation)

		v1.GET("/exports/sales.csv", h.exportSales)
		v1.GET("/exports/tax-report.txt", h.exportTaxReport)
		v1.GET("/exports/audit-pack.csv", h.exportAuditPack)

		v1.GET("/insights", h.getInsights)
		v1.POST("/assistant/chat", h.chat)
	}
}

// healthCheck handles health check requests
func (h *Handler) healthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status": "healthy",
		"time":   time.Now().Unix(),
	})
}

// readinessCheck reports ready once the state store answers
func (h *Handler) readinessCheck(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
	defer cancel()

	if err := h.pos.Ready(ctx); err != nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{
			"status":  "not ready",
			"details": err.Error(),
		})
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"status": "ready",
		"time":   time.Now().Unix(),
	})
}

// respondError maps domain errors to HTTP status codes
func (h *Handler) respondError(c *gin.Context, err error) {
	status := http.StatusInternalServerError
	msg := "Internal error"

	switch {
	case models.IsValidation(err):
		status, msg = http.StatusBadRequest, "Invalid request"
	case models.IsNotFound(err):
		status, msg = http.StatusNotFound, "Not found"
	case errors.Is(err, models.ErrEmptyCart):
		status, msg = http.StatusUnprocessableEntity, "Cart is empty"
	case errors.Is(err, models.ErrForbidden):
		status, msg = http.StatusForbidden, "Not allowed for current role"
	case errors.Is(err, context.DeadlineExceeded), errors.Is(err, context.Canceled):
		status, msg = http.StatusServiceUnavailable, "Request cancelled"
	default:
		h.logger.Error("Request failed",
			zap.String("path", c.FullPath()),
			zap.Error(err))
	}

	c.JSON(status, gin.H{
		"error":   msg,
		"details": err.Error(),
	})
}

func badRequest(c *gin.Context, msg string, err error) {
	body := gin.H{"error": msg}
	if err != nil {
		body["details"] = err.Error()
	}
	c.JSON(http.StatusBadRequest, body)
}

// prometheusMiddleware collects HTTP metrics
func prometheusMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()

		c.Next()

		duration := time.Since(start).Seconds()
		status := strconv.Itoa(c.Writer.Status())
		path := c.FullPath()
		if path == "" {
			path = "unmatched"
		}

		util.HTTPRequestDuration.WithLabelValues(
			c.Request.Method,
			path,
			status,
		).Observe(duration)

		util.HTTPRequestsTotal.WithLabelValues(
			c.Request.Method,
			path,
			status,
		).Inc()
	}
}
