package handlers

import (
	"context"
	"net/http"
	"runtime"
	"time"

	"github.com/gin-gonic/gin"

	tweetbook "github.com/lisanmuaddib/tweetbook/pkg"
)

// Build information - can be set at build time using ldflags
var (
	Version   = "dev"
	GoVersion = runtime.Version()
)

// HealthHandler handles health check requests
type HealthHandler struct {
	app *tweetbook.App
}

func NewHealthHandler(app *tweetbook.App) *HealthHandler {
	return &HealthHandler{app: app}
}

// HealthCheck handles GET /health
func (h *HealthHandler) HealthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":    "healthy",
		"service":   "tweetbook",
		"timestamp": time.Now().UTC().Format(time.RFC3339),
		"version":   Version,
		"go":        GoVersion,
	})
}

// ReadinessCheck handles GET /ready by pinging the relational store.
func (h *HealthHandler) ReadinessCheck(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
	defer cancel()

	checks := gin.H{"documents": h.app.HasDocuments()}
	status := http.StatusOK
	if err := h.app.Ping(ctx); err != nil {
		checks["database"] = gin.H{"status": "unhealthy", "error": err.Error()}
		status = http.StatusServiceUnavailable
	} else {
		checks["database"] = gin.H{"status": "healthy"}
	}

	state := "ready"
	if status != http.StatusOK {
		state = "not_ready"
	}
	c.JSON(status, gin.H{
		"status":    state,
		"service":   "tweetbook",
		"timestamp": time.Now().UTC().Format(time.RFC3339),
		"checks":    checks,
	})
}
