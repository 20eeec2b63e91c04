package handlers

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/quangtd/shelfcheck-golang/internal/auth"
	"github.com/quangtd/shelfcheck-golang/internal/workflow"
)

// --- Login ---

type LoginInput struct {
	Username string `json:"username" binding:"required"`
}

// Login is the handler for POST /api/login.
// There is no password here on purpose: the floor staff log in with
// their employee id, and the only gate is that the id exists and the
// employee is active.
func (h *Handlers) Login(c *gin.Context) {
	// 1. --- Bind & Validate JSON ---
	var input LoginInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Username is required"})
		return
	}

	username := strings.TrimSpace(input.Username)
	if username == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Username is required"})
		return
	}

	// 2. --- Look Up Employee ---
	employee, err := h.Employees.FindEmployee(c.Request.Context(), username)
	if err != nil {
		if errors.Is(err, workflow.ErrNotFound) {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Username does not exist"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Login failed"})
		return
	}

	// 3. --- Check Status ---
	if !employee.IsActive() {
		c.JSON(http.StatusUnauthorized, gin.H{
			"error":  "Account is not active",
			"status": employee.Status,
		})
		return
	}

	// 4. --- Issue Session Token ---
	token, err := auth.GenerateToken(employee.Username)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to generate token"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success":      true,
		"username":     employee.Username,
		"employeeName": employee.EmployeeName,
		"role":         employee.Role,
		"token":        token,
	})
}

// Me is the handler for GET /api/auth/me (token required).
// Used by the client to restore a session after a page reload.
func (h *Handlers) Me(c *gin.Context) {
	username := c.GetString("username")

	employee, err := h.Employees.FindEmployee(c.Request.Context(), username)
	if err != nil {
		if errors.Is(err, workflow.ErrNotFound) {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Unknown employee"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to load employee"})
		return
	}
	if !employee.IsActive() {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Account is not active"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"username":     employee.Username,
		"employeeName": employee.EmployeeName,
		"role":         employee.Role,
	})
}
