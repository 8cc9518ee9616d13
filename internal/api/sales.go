package api

import (
	"net/http"
	"strconv"
	"time"

	"veira-pos/internal/ledger"
	"veira-pos/internal/models"

	"github.com/gin-gonic/gin"
)

// CheckoutRequest completes the open cart
type CheckoutRequest struct {
	PaymentMethod  *models.PaymentMethod `json:"payment_method" binding:"required"`
	IdempotencyKey string                `json:"idempotency_key,omitempty"`
}

func (h *Handler) checkout(c *gin.Context) {
	var req CheckoutRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "Invalid request body", err)
		return
	}
	if req.IdempotencyKey == "" {
		req.IdempotencyKey = c.GetHeader("Idempotency-Key")
	}

	res, err := h.pos.Checkout(c.Request.Context(), *req.PaymentMethod, req.IdempotencyKey)
	if err != nil {
		h.respondError(c, err)
		return
	}

	status := http.StatusCreated
	if res.Replayed {
		status = http.StatusOK
	}
	c.JSON(status, gin.H{
		"transaction": viewTransactions(h.pos.Role(), []models.Transaction{res.Transaction})[0],
		"stock":       res.Stock,
		"replayed":    res.Replayed,
	})
}

func (h *Handler) listTransactions(c *gin.Context) {
	filter := ledger.FilterAll
	switch c.Query("flagged") {
	case "":
	case "true":
		filter = ledger.FilterFlagged
	case "false":
		filter = ledger.FilterClean
	default:
		badRequest(c, "Invalid flagged filter, use true or false", nil)
		return
	}

	txs := h.pos.Transactions(c.Request.Context(), filter)
	c.JSON(http.StatusOK, gin.H{"transactions": viewTransactions(h.pos.Role(), txs)})
}

func (h *Handler) getTransaction(c *gin.Context) {
	tx, err := h.pos.Transaction(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, viewTransactions(h.pos.Role(), []models.Transaction{tx})[0])
}

func (h *Handler) auditTransactions(c *gin.Context) {
	txs, err := h.pos.Audit(c.Request.Context())
	if err != nil {
		h.respondError(c, err)
		return
	}

	flagged := 0
	for _, tx := range txs {
		if tx.IsAnomaly() {
			flagged++
		}
	}
	c.JSON(http.StatusOK, gin.H{
		"transactions": viewTransactions(h.pos.Role(), txs),
		"flagged":      flagged,
	})
}

func (h *Handler) totals(c *gin.Context) {
	c.JSON(http.StatusOK, viewReportTotals(h.pos.Role(), h.pos.Totals(c.Request.Context())))
}

func (h *Handler) paymentMethods(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"methods": h.pos.PaymentMethods(c.Request.Context())})
}

func (h *Handler) daily(c *gin.Context) {
	days := 7
	if raw := c.Query("days"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil {
			badRequest(c, "Invalid days", err)
			return
		}
		days = n
	}

	series, err := h.pos.Daily(c.Request.Context(), days)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"days": viewDaily(h.pos.Role(), series)})
}

func (h *Handler) inventoryValuation(c *gin.Context) {
	value, err := h.pos.InventoryValuation(c.Request.Context())
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"valuation": value})
}

func attachment(c *gin.Context, name, contentType string, data []byte) {
	c.Header("Content-Disposition", `attachment; filename="`+name+`"`)
	c.Data(http.StatusOK, contentType, data)
}

func today() string {
	return time.Now().UTC().Format(models.DateLayout)
}

func (h *Handler) exportSales(c *gin.Context) {
	data, err := h.pos.SalesCSV(c.Request.Context())
	if err != nil {
		h.respondError(c, err)
		return
	}
	attachment(c, "Veira_Sales_"+today()+".csv", "text/csv; charset=utf-8", data)
}

func (h *Handler) exportTaxReport(c *gin.Context) {
	data, err := h.pos.TaxReport(c.Request.Context())
	if err != nil {
		h.respondError(c, err)
		return
	}
	attachment(c, "Veira_Tax_Report_"+today()+".txt", "text/plain; charset=utf-8", data)
}

func (h *Handler) exportAuditPack(c *gin.Context) {
	data, err := h.pos.AuditPack(c.Request.Context())
	if err != nil {
		h.respondError(c, err)
		return
	}
	attachment(c, "Veira_Business_Report_"+today()+".csv", "text/csv; charset=utf-8", data)
}
