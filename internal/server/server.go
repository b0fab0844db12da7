package server

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// NewRouter builds the gin engine with middleware and all API routes.
func NewRouter(h *Handlers, logger *zap.Logger) *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(loggingMiddleware(logger))
	router.Use(corsMiddleware())

	// Health check endpoint
	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status":  "healthy",
			"service": "aktionsabrechnung",
			"time":    time.Now().Format(time.RFC3339),
		})
	})

	api := router.Group("/api/v1")
	{
		api.GET("/rates", h.GetRates)

		api.POST("/events", h.CreateEvent)
		api.GET("/events", h.ListEvents)
		api.GET("/events/:id", h.GetEvent)
		api.PUT("/events/:id", h.UpdateEvent)
		api.DELETE("/events/:id", h.DeleteEvent)
		api.GET("/events/:id/entries", h.ListEntries)
		api.GET("/events/:id/summary", h.GetSummary)
		api.POST("/events/:id/export", h.ExportStatement)
		api.GET("/events/:id/exports", h.ListExports)

		api.POST("/entries", h.CreateEntry)
		api.GET("/entries/:id", h.GetEntry)
		api.PUT("/entries/:id", h.UpdateEntry)
		api.PATCH("/entries/:id/status", h.UpdateEntryStatus)
		api.DELETE("/entries/:id", h.DeleteEntry)
		api.POST("/entries/:id/receipt", h.UploadReceipt)

		api.POST("/mileage/preview", h.PreviewMileage)
	}

	return router
}

// loggingMiddleware logs HTTP requests
func loggingMiddleware(logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		path := c.Request.URL.Path
		query := c.Request.URL.RawQuery

		c.Next()

		latency := time.Since(start)

		logger.Info("HTTP request",
			zap.String("method", c.Request.Method),
			zap.String("path", path),
			zap.String("query", query),
			zap.Int("status", c.Writer.Status()),
			zap.Duration("latency", latency),
			zap.String("ip", c.ClientIP()),
		)
	}
}

// corsMiddleware adds CORS headers
func corsMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Writer.Header().Set("Access-Control-Allow-Origin", "*")
		c.Writer.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, PATCH, DELETE, OPTIONS")
		c.Writer.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")

		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}

		c.Next()
	}
}
