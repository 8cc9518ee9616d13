package api

import (
	"net/http"
	"strconv"

	"veira-pos/internal/models"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
)

// ProductRequest creates or replaces a product. Category defaults to Other.
// An omitted cost is zero on create and unchanged on update.
type ProductRequest struct {
	ID       string           `json:"id"`
	Name     string           `json:"name" binding:"required"`
	Price    decimal.Decimal  `json:"price"`
	Cost     *decimal.Decimal `json:"cost"`
	Stock    int              `json:"stock"`
	Category *models.Category `json:"category"`
	ImageURL string           `json:"imageUrl"`
}

func (r ProductRequest) product() models.Product {
	cat := models.CategoryOther
	if r.Category != nil {
		cat = *r.Category
	}
	p := models.Product{
		ID:       r.ID,
		Name:     r.Name,
		Price:    r.Price,
		Stock:    r.Stock,
		Category: cat,
		ImageURL: r.ImageURL,
	}
	if r.Cost != nil {
		p.Cost = *r.Cost
	}
	return p
}

// AddCartItemRequest adds one unit of a product
type AddCartItemRequest struct {
	ProductID string `json:"product_id" binding:"required"`
}

// AdjustCartItemRequest changes a line quantity by Delta
type AdjustCartItemRequest struct {
	Delta int `json:"delta" binding:"required"`
}

func (h *Handler) listProducts(c *gin.Context) {
	var category *models.Category
	if label := c.Query("category"); label != "" {
		cat, err := models.ParseCategory(label)
		if err != nil {
			badRequest(c, "Invalid category", err)
			return
		}
		category = &cat
	}

	products := h.pos.ListProducts(c.Request.Context(), c.Query("q"), category)
	c.JSON(http.StatusOK, gin.H{"products": viewProducts(h.pos.Role(), products)})
}

func (h *Handler) listCategories(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"categories": models.Categories()})
}

func (h *Handler) getProduct(c *gin.Context) {
	p, err := h.pos.GetProduct(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, viewProducts(h.pos.Role(), []models.Product{p})[0])
}

func (h *Handler) lowStock(c *gin.Context) {
	threshold := 0
	if raw := c.Query("threshold"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 {
			badRequest(c, "Invalid threshold", err)
			return
		}
		threshold = n
	}

	products := h.pos.LowStock(c.Request.Context(), threshold)
	c.JSON(http.StatusOK, gin.H{"products": viewProducts(h.pos.Role(), products)})
}

func (h *Handler) regulatedItems(c *gin.Context) {
	products := h.pos.RegulatedItems(c.Request.Context())
	c.JSON(http.StatusOK, gin.H{"products": viewProducts(h.pos.Role(), products)})
}

func (h *Handler) createProduct(c *gin.Context) {
	var req ProductRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "Invalid request body", err)
		return
	}

	p, err := h.pos.AddProduct(c.Request.Context(), req.product())
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, viewProducts(h.pos.Role(), []models.Product{p})[0])
}

func (h *Handler) updateProduct(c *gin.Context) {
	var req ProductRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "Invalid request body", err)
		return
	}
	req.ID = c.Param("id")

	p, err := h.pos.UpdateProduct(c.Request.Context(), req.product(), req.Cost != nil)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, viewProducts(h.pos.Role(), []models.Product{p})[0])
}

func (h *Handler) deleteProduct(c *gin.Context) {
	removed, err := h.pos.RemoveProduct(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"removed": removed})
}

func (h *Handler) getCart(c *gin.Context) {
	cv, err := h.pos.Cart(c.Request.Context())
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, viewCart(h.pos.Role(), cv))
}

func (h *Handler) addCartItem(c *gin.Context) {
	var req AddCartItemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "Invalid request body", err)
		return
	}

	cv, err := h.pos.AddToCart(c.Request.Context(), req.ProductID)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, viewCart(h.pos.Role(), cv))
}

func (h *Handler) adjustCartItem(c *gin.Context) {
	var req AdjustCartItemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "Invalid request body", err)
		return
	}

	cv, err := h.pos.AdjustCartItem(c.Request.Context(), c.Param("id"), req.Delta)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, viewCart(h.pos.Role(), cv))
}

func (h *Handler) clearCart(c *gin.Context) {
	cv, err := h.pos.ClearCart(c.Request.Context())
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, viewCart(h.pos.Role(), cv))
}
