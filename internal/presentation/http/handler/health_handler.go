package handler

import (
	"github.com/gin-gonic/gin"
	"github.com/pipecenter/pipecenter-api/internal/application/service"
	"github.com/pipecenter/pipecenter-api/internal/presentation/http/dto/response"
)

// HealthHandler serves the unauthenticated status endpoint
type HealthHandler struct {
	healthService *service.HealthService
}

// NewHealthHandler creates a new health handler
func NewHealthHandler(healthService *service.HealthService) *HealthHandler {
	return &HealthHandler{healthService: healthService}
}

// Health reports service and storage status
func (h *HealthHandler) Health(c *gin.Context) {
	response.OK(c, "Service is running", h.healthService.Status())
}
