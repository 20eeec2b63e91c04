package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/quangtd/shelfcheck-golang/internal/workflow"
)

// --- Inputs ---

type CreateProductInput struct {
	Barcode string   `json:"barcode" binding:"required"`
	Name    string   `json:"name" binding:"required"`
	Price   *float64 `json:"price" binding:"required,gte=0"`
	Unit    string   `json:"unit" binding:"required"`
	Owner   *string  `json:"owner"`
}

// CreateProduct is the handler for POST /api/products.
// Staff land here when a scanned barcode has no match in the catalog.
func (h *Handlers) CreateProduct(c *gin.Context) {
	var input CreateProductInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Missing required fields", "details": err.Error()})
		return
	}

	product, err := h.Svc.CreateProduct(c.Request.Context(), input.Barcode, input.Name, *input.Price, input.Unit, input.Owner)
	if err != nil {
		switch {
		case errors.Is(err, workflow.ErrAlreadyExists):
			c.JSON(http.StatusConflict, gin.H{"error": "Product with this barcode already exists"})
		case errors.Is(err, workflow.ErrValidation):
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		default:
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create product"})
		}
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"message": "Product created successfully",
		"product": product,
	})
}

// GetProduct is the handler for GET /api/products/:barcode.
func (h *Handlers) GetProduct(c *gin.Context) {
	barcode := c.Param("barcode")

	product, err := h.Svc.GetProduct(c.Request.Context(), barcode)
	if err != nil {
		if errors.Is(err, workflow.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Product not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch product"})
		return
	}

	c.JSON(http.StatusOK, product)
}

// pagination pulls limit/offset from the query string, defaulting to
// the first page of 50.
func pagination(c *gin.Context) (int, int) {
	limit, err := strconv.Atoi(c.Query("limit"))
	if err != nil {
		limit = 50
	}
	offset, err := strconv.Atoi(c.Query("offset"))
	if err != nil {
		offset = 0
	}
	return limit, offset
}

// ListProducts is the handler for GET /api/products?limit&offset.
func (h *Handlers) ListProducts(c *gin.Context) {
	limit, offset := pagination(c)

	products, total, err := h.Svc.ListProducts(c.Request.Context(), limit, offset)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch products"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": products, "total": total})
}

// SearchProducts is the handler for GET /api/products/search?q&limit&offset.
// Matches name or barcode; prefix matches rank first.
func (h *Handlers) SearchProducts(c *gin.Context) {
	limit, offset := pagination(c)

	products, total, err := h.Svc.Search(c.Request.Context(), c.Query("q"), limit, offset)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to search products"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": products, "total": total})
}

// --- Product Update (direct edit) ---

type UpdateProductInput struct {
	Name  *string  `json:"name"`
	Price *float64 `json:"price" binding:"omitempty,gte=0"`
	Unit  *string  `json:"unit"`
}

// UpdateProduct is the handler for PUT /api/products/:barcode.
// Direct edit of the official fields, bypassing the staging workflow.
func (h *Handlers) UpdateProduct(c *gin.Context) {
	barcode := c.Param("barcode")

	var input UpdateProductInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	product, err := h.Svc.UpdateProduct(c.Request.Context(), barcode, input.Name, input.Price, input.Unit)
	if err != nil {
		switch {
		case errors.Is(err, workflow.ErrNotFound):
			c.JSON(http.StatusNotFound, gin.H{"error": "Product not found"})
		case errors.Is(err, workflow.ErrValidation):
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		default:
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to update product"})
		}
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"message": "Product updated successfully",
		"product": product,
	})
}
