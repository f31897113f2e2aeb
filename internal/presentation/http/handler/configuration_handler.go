package handler

import (
	"fmt"

	"github.com/gin-gonic/gin"
	"github.com/pipecenter/pipecenter-api/internal/application/service"
	"github.com/pipecenter/pipecenter-api/internal/domain/entity"
	"github.com/pipecenter/pipecenter-api/internal/presentation/http/dto/response"
)

// ConfigurationHandler handles pricing configuration HTTP requests
type ConfigurationHandler struct {
	configService *service.ConfigurationService
}

// NewConfigurationHandler creates a new configuration handler
func NewConfigurationHandler(configService *service.ConfigurationService) *ConfigurationHandler {
	return &ConfigurationHandler{configService: configService}
}

// List handles listing configurations
// @Summary List Configurations
// @Tags configurations
// @Security BearerAuth
// @Produce json
// @Success 200 {object} response.APIResponse
// @Router /configurations [get]
func (h *ConfigurationHandler) List(c *gin.Context) {
	configs, err := h.configService.ListConfigurations(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}

	response.OK(c, fmt.Sprintf("Retrieved %d configurations", len(configs)), gin.H{
		"configurations": configs,
	})
}

// Get handles getting a single configuration
// @Summary Get Configuration
// @Tags configurations
// @Security BearerAuth
// @Produce json
// @Param id path string true "Configuration ID"
// @Success 200 {object} response.APIResponse
// @Failure 404 {object} response.APIResponse
// @Router /configurations/{id} [get]
func (h *ConfigurationHandler) Get(c *gin.Context) {
	cfg, err := h.configService.GetConfiguration(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}

	response.OK(c, "Configuration retrieved successfully", gin.H{"configuration": cfg})
}

// Create handles creating a new configuration
// @Summary Create Configuration
// @Tags configurations
// @Security BearerAuth
// @Accept json
// @Produce json
// @Success 201 {object} response.APIResponse
// @Failure 400 {object} response.APIResponse
// @Router /configurations/create [post]
func (h *ConfigurationHandler) Create(c *gin.Context) {
	raw, err := readBody(c)
	if err != nil {
		response.Error(c, err)
		return
	}
	draft, err := entity.ParseConfigurationDraft(raw)
	if err != nil {
		response.Error(c, err)
		return
	}

	cfg, err := h.configService.CreateConfiguration(c.Request.Context(), draft)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Created(c, "Configuration created successfully", gin.H{"configuration": cfg})
}

// Delete handles deleting a configuration
// @Summary Delete Configuration
// @Tags configurations
// @Security BearerAuth
// @Produce json
// @Param id path string true "Configuration ID"
// @Success 200 {object} response.APIResponse
// @Failure 404 {object} response.APIResponse
// @Router /configurations/{id} [delete]
func (h *ConfigurationHandler) Delete(c *gin.Context) {
	id := c.Param("id")
	if err := h.configService.DeleteConfiguration(c.Request.Context(), id); err != nil {
		response.Error(c, err)
		return
	}

	response.OK(c, fmt.Sprintf("Configuration '%s' deleted successfully", id), nil)
}
