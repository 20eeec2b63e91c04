package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/quangtd/shelfcheck-golang/internal/models"
	"github.com/quangtd/shelfcheck-golang/internal/workflow"
)

//
// --- Double-Check Workflow Handlers ---
//

// CheckInput is the body of a first or second check submission.
type CheckInput struct {
	CheckedBy      string   `json:"checked_by" binding:"required"`
	CheckResult    string   `json:"check_result" binding:"required"`
	NewProductName *string  `json:"new_product_name"`
	NewUnit        *string  `json:"new_unit"`
	NewBarcode     *string  `json:"new_barcode"`
	NewPrice       *float64 `json:"new_price"`
	Stock          *int     `json:"stock"`
	Images         []string `json:"images" binding:"max=3"`
}

func (in *CheckInput) toSubmission() workflow.Submission {
	return workflow.Submission{
		Actor:          in.CheckedBy,
		Result:         models.CheckResult(in.CheckResult),
		NewProductName: in.NewProductName,
		NewUnit:        in.NewUnit,
		NewBarcode:     in.NewBarcode,
		NewPrice:       in.NewPrice,
		Stock:          in.Stock,
		Images:         in.Images,
	}
}

// FirstCheck is the handler for PATCH /api/products/:barcode/first-check.
func (h *Handlers) FirstCheck(c *gin.Context) {
	barcode := c.Param("barcode")

	var input CheckInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	product, err := h.Svc.SubmitFirstCheck(c.Request.Context(), barcode, input.toSubmission())
	if err != nil {
		h.checkError(c, err, "Failed to complete first check")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"message": "First check completed successfully",
		"product": product,
	})
}

// SecondCheckInput is the body of PATCH second-check. Two shapes share
// the endpoint: an approval decision ({checked_by, approved}) or a
// full supervisor re-check (same shape as CheckInput). The presence of
// "approved" picks the branch.
type SecondCheckInput struct {
	CheckedBy string `json:"checked_by" binding:"required"`
	Approved  *bool  `json:"approved"`

	CheckResult    string   `json:"check_result"`
	NewProductName *string  `json:"new_product_name"`
	NewUnit        *string  `json:"new_unit"`
	NewBarcode     *string  `json:"new_barcode"`
	NewPrice       *float64 `json:"new_price"`
	Stock          *int     `json:"stock"`
	Images         []string `json:"images" binding:"max=3"`
}

// SecondCheck is the handler for PATCH /api/products/:barcode/second-check.
func (h *Handlers) SecondCheck(c *gin.Context) {
	barcode := c.Param("barcode")

	var input SecondCheckInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	// Approval decision branch.
	if input.Approved != nil {
		product, committed, err := h.Svc.DecideApproval(c.Request.Context(), barcode, *input.Approved, input.CheckedBy)
		if err != nil {
			h.checkError(c, err, "Failed to complete second check")
			return
		}

		message := "Second check rejected - Reset to pending"
		if *input.Approved {
			message = "Second check approved - No changes needed"
			if committed {
				message = "Second check approved - Changes applied"
			}
		}

		c.JSON(http.StatusOK, gin.H{
			"success":         true,
			"message":         message,
			"approved":        *input.Approved,
			"changes_applied": committed,
			"product":         product,
		})
		return
	}

	// Supervisor re-check branch: replaces the first submission.
	if input.CheckResult == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Either 'approved' or 'check_result' is required"})
		return
	}

	sub := workflow.Submission{
		Actor:          input.CheckedBy,
		Result:         models.CheckResult(input.CheckResult),
		NewProductName: input.NewProductName,
		NewUnit:        input.NewUnit,
		NewBarcode:     input.NewBarcode,
		NewPrice:       input.NewPrice,
		Stock:          input.Stock,
		Images:         input.Images,
	}

	product, err := h.Svc.SubmitSecondCheck(c.Request.Context(), barcode, sub)
	if err != nil {
		h.checkError(c, err, "Failed to complete second check")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"message": "Second check completed successfully",
		"product": product,
	})
}

// checkError maps workflow errors onto the HTTP taxonomy.
func (h *Handlers) checkError(c *gin.Context, err error, fallback string) {
	switch {
	case errors.Is(err, workflow.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "Product not found"})
	case errors.Is(err, workflow.ErrPrerequisiteNotMet):
		c.JSON(http.StatusBadRequest, gin.H{"error": "First check not completed yet"})
	case errors.Is(err, workflow.ErrInvalidResult):
		c.JSON(http.StatusBadRequest, gin.H{
			"error":       "Invalid check_result",
			"validValues": []string{"correct", "needs_correction", "incorrect"},
		})
	case errors.Is(err, workflow.ErrTooManyImages), errors.Is(err, workflow.ErrValidation):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	default:
		c.JSON(http.StatusInternalServerError, gin.H{"error": fallback})
	}
}

// PendingFirstCheck is the handler for GET /api/products/pending-first-check.
func (h *Handlers) PendingFirstCheck(c *gin.Context) {
	limit, offset := pagination(c)

	products, err := h.Svc.ListPendingFirstCheck(c.Request.Context(), limit, offset)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch products"})
		return
	}

	c.JSON(http.StatusOK, products)
}

// PendingSecondCheck is the handler for GET /api/products/pending-second-check.
// Includes the staged fields and image references so the supervisor
// screen can show what it is approving.
func (h *Handlers) PendingSecondCheck(c *gin.Context) {
	limit, offset := pagination(c)

	products, err := h.Svc.ListPendingSecondCheck(c.Request.Context(), limit, offset)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch products"})
		return
	}

	c.JSON(http.StatusOK, products)
}

// WorkflowStats is the handler for GET /api/check-workflow/stats.
func (h *Handlers) WorkflowStats(c *gin.Context) {
	stats, err := h.Svc.Stats(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch stats"})
		return
	}

	c.JSON(http.StatusOK, stats)
}
