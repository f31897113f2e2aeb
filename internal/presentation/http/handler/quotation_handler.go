package handler

import (
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/pipecenter/pipecenter-api/internal/application/service"
	"github.com/pipecenter/pipecenter-api/internal/domain/entity"
	"github.com/pipecenter/pipecenter-api/internal/presentation/http/dto/response"
)

const xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

// QuotationHandler handles quotation-related HTTP requests
type QuotationHandler struct {
	quotationService *service.QuotationService
	now              func() time.Time
}

// NewQuotationHandler creates a new quotation handler
func NewQuotationHandler(quotationService *service.QuotationService, now func() time.Time) *QuotationHandler {
	if now == nil {
		now = time.Now
	}
	return &QuotationHandler{quotationService: quotationService, now: now}
}

// List handles listing quotations
// @Summary List Quotations
// @Description Get all quotations within retention, newest first
// @Tags quotations
// @Security BearerAuth
// @Produce json
// @Success 200 {object} response.APIResponse
// @Router /quotations [get]
func (h *QuotationHandler) List(c *gin.Context) {
	quotations, err := h.quotationService.ListQuotations(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}

	response.OK(c, fmt.Sprintf("Retrieved %d quotations", len(quotations)), gin.H{
		"quotations": quotations,
	})
}

// Get handles getting a single quotation
// @Summary Get Quotation
// @Tags quotations
// @Security BearerAuth
// @Produce json
// @Param id path string true "Quotation ID"
// @Success 200 {object} response.APIResponse
// @Failure 404 {object} response.APIResponse
// @Router /quotations/{id} [get]
func (h *QuotationHandler) Get(c *gin.Context) {
	q, err := h.quotationService.GetQuotation(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}

	response.OK(c, "Quotation retrieved successfully", gin.H{"quotation": q})
}

// Create handles creating a new quotation
// @Summary Create Quotation
// @Tags quotations
// @Security BearerAuth
// @Accept json
// @Produce json
// @Success 201 {object} response.APIResponse
// @Failure 400 {object} response.APIResponse
// @Router /quotations/create [post]
func (h *QuotationHandler) Create(c *gin.Context) {
	draft, ok := h.bindDraft(c)
	if !ok {
		return
	}

	q, err := h.quotationService.CreateQuotation(c.Request.Context(), draft)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Created(c, "Quotation created successfully", gin.H{"quotation": q})
}

// Update handles replacing a quotation
// @Summary Update Quotation
// @Description Replace a quotation in place; the path ID is kept
// @Tags quotations
// @Security BearerAuth
// @Accept json
// @Produce json
// @Param id path string true "Quotation ID"
// @Success 200 {object} response.APIResponse
// @Failure 400 {object} response.APIResponse
// @Failure 404 {object} response.APIResponse
// @Router /quotations/{id} [put]
func (h *QuotationHandler) Update(c *gin.Context) {
	draft, ok := h.bindDraft(c)
	if !ok {
		return
	}

	q, err := h.quotationService.UpdateQuotation(c.Request.Context(), c.Param("id"), draft)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.OK(c, "Quotation updated successfully", gin.H{"quotation": q})
}

// Delete handles deleting a quotation
// @Summary Delete Quotation
// @Tags quotations
// @Security BearerAuth
// @Produce json
// @Param id path string true "Quotation ID"
// @Success 200 {object} response.APIResponse
// @Failure 404 {object} response.APIResponse
// @Router /quotations/{id} [delete]
func (h *QuotationHandler) Delete(c *gin.Context) {
	id := c.Param("id")
	if err := h.quotationService.DeleteQuotation(c.Request.Context(), id); err != nil {
		response.Error(c, err)
		return
	}

	response.OK(c, fmt.Sprintf("Quotation '%s' deleted successfully", id), nil)
}

// PDF handles rendering a quotation as a PDF attachment
// @Summary Quotation PDF
// @Tags quotations
// @Security BearerAuth
// @Produce application/pdf
// @Success 200 {file} binary
// @Failure 404 {object} response.APIResponse
// @Router /quotations/pdf/{id} [get]
func (h *QuotationHandler) PDF(c *gin.Context) {
	q, doc, err := h.quotationService.RenderPDF(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}

	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=\"quotation_%s.pdf\"", q.ID))
	c.Data(http.StatusOK, "application/pdf", doc)
}

// Export handles downloading all quotations as a spreadsheet
// @Summary Export Quotations
// @Tags quotations
// @Security BearerAuth
// @Produce application/vnd.openxmlformats-officedocument.spreadsheetml.sheet
// @Success 200 {file} binary
// @Router /quotations/export [get]
func (h *QuotationHandler) Export(c *gin.Context) {
	doc, err := h.quotationService.ExportXLSX(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}

	filename := fmt.Sprintf("quotations_%s.xlsx", h.now().Format("20060102"))
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=\"%s\"", filename))
	c.Data(http.StatusOK, xlsxContentType, doc)
}

// Purge handles an explicit retention sweep
// @Summary Purge Expired Quotations
// @Tags quotations
// @Security BearerAuth
// @Produce json
// @Success 200 {object} response.APIResponse
// @Router /quotations/purge [post]
func (h *QuotationHandler) Purge(c *gin.Context) {
	removed, err := h.quotationService.PurgeExpired(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}

	response.OK(c, fmt.Sprintf("Removed %d expired quotations", removed), gin.H{"removed": removed})
}

func (h *QuotationHandler) bindDraft(c *gin.Context) (entity.QuotationDraft, bool) {
	raw, err := readBody(c)
	if err != nil {
		response.Error(c, err)
		return entity.QuotationDraft{}, false
	}
	draft, err := entity.ParseQuotationDraft(raw)
	if err != nil {
		response.Error(c, err)
		return entity.QuotationDraft{}, false
	}
	return draft, true
}
