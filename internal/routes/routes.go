package routes

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/quangtd/shelfcheck-golang/internal/handlers"
	"github.com/quangtd/shelfcheck-golang/internal/middleware"
)

// CORSMiddleware lets the mobile web client (a separate dev server in
// development) talk to this API.
func CORSMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Writer.Header().Set("Access-Control-Allow-Origin", "*")
		c.Writer.Header().Set("Access-Control-Allow-Headers", "Content-Type, Content-Length, Accept-Encoding, Authorization, accept, origin, Cache-Control, X-Requested-With")
		c.Writer.Header().Set("Access-Control-Allow-Methods", "POST, OPTIONS, GET, PUT, PATCH")

		// Preflight request: reply 204 and stop.
		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(204)
			return
		}

		c.Next()
	}
}

// SetupRouter wires every endpoint. uploadDir is served statically so
// the image references returned by the API resolve directly.
func SetupRouter(h *handlers.Handlers, uploadDir string) *gin.Engine {
	router := gin.Default()

	router.Use(CORSMiddleware())

	// Check photos are plain files; clients resolve the /uploads/...
	// references from product payloads against this route.
	router.Static("/uploads", uploadDir)

	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok", "message": "Server is running"})
	})

	api := router.Group("/api")
	{
		// --- Auth ---
		api.POST("/login", h.Login)
		api.GET("/auth/me", middleware.AuthMiddleware(), h.Me)

		// --- Products ---
		api.GET("/products", h.ListProducts)
		api.GET("/products/search", h.SearchProducts)
		api.GET("/products/pending-first-check", h.PendingFirstCheck)
		api.GET("/products/pending-second-check", h.PendingSecondCheck)
		api.GET("/products/:barcode", h.GetProduct)
		api.POST("/products", h.CreateProduct)
		api.PUT("/products/:barcode", h.UpdateProduct)

		// --- Double-Check Workflow ---
		api.PATCH("/products/:barcode/first-check", h.FirstCheck)
		api.PATCH("/products/:barcode/second-check", h.SecondCheck)
		api.GET("/check-workflow/stats", h.WorkflowStats)
	}

	return router
}
