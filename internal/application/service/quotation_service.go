package service

import (
	"context"
	"sort"

	"github.com/pipecenter/pipecenter-api/internal/domain/entity"
	"github.com/pipecenter/pipecenter-api/internal/domain/repository"
	"github.com/pipecenter/pipecenter-api/pkg/apperror"
	"github.com/pipecenter/pipecenter-api/pkg/export"
)

// PDFRenderer renders a quotation document
type PDFRenderer interface {
	Render(q entity.Quotation) ([]byte, error)
}

// QuotationService handles quotation-related business logic
type QuotationService struct {
	quotationRepo repository.QuotationRepository
	renderer      PDFRenderer
}

// NewQuotationService creates a new quotation service
func NewQuotationService(quotationRepo repository.QuotationRepository, renderer PDFRenderer) *QuotationService {
	return &QuotationService{
		quotationRepo: quotationRepo,
		renderer:      renderer,
	}
}

// ListQuotations returns retained quotations, newest first
func (s *QuotationService) ListQuotations(ctx context.Context) ([]entity.Quotation, error) {
	quotations, err := s.quotationRepo.List(ctx)
	if err != nil {
		return nil, err
	}
	sort.SliceStable(quotations, func(i, j int) bool {
		return quotations[i].CreatedAt > quotations[j].CreatedAt
	})
	return quotations, nil
}

// GetQuotation retrieves a quotation by ID
func (s *QuotationService) GetQuotation(ctx context.Context, id string) (*entity.Quotation, error) {
	q, err := s.quotationRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if q == nil {
		return nil, apperror.NewNotFoundError("Quotation", id)
	}
	return q, nil
}

// CreateQuotation validates and stores a new quotation
func (s *QuotationService) CreateQuotation(ctx context.Context, draft entity.QuotationDraft) (*entity.Quotation, error) {
	return s.quotationRepo.Create(ctx, draft)
}

// UpdateQuotation replaces an existing quotation, keeping its ID
func (s *QuotationService) UpdateQuotation(ctx context.Context, id string, draft entity.QuotationDraft) (*entity.Quotation, error) {
	return s.quotationRepo.Update(ctx, id, draft)
}

// DeleteQuotation removes a quotation
func (s *QuotationService) DeleteQuotation(ctx context.Context, id string) error {
	return s.quotationRepo.Delete(ctx, id)
}

// PurgeExpired drops quotations past retention and returns how many were removed
func (s *QuotationService) PurgeExpired(ctx context.Context) (int, error) {
	return s.quotationRepo.Purge(ctx)
}

// RenderPDF looks up a quotation and renders it
func (s *QuotationService) RenderPDF(ctx context.Context, id string) (*entity.Quotation, []byte, error) {
	q, err := s.GetQuotation(ctx, id)
	if err != nil {
		return nil, nil, err
	}
	doc, err := s.renderer.Render(*q)
	if err != nil {
		return nil, nil, err
	}
	return q, doc, nil
}

// ExportXLSX returns every retained quotation as a spreadsheet, newest first
func (s *QuotationService) ExportXLSX(ctx context.Context) ([]byte, error) {
	quotations, err := s.ListQuotations(ctx)
	if err != nil {
		return nil, err
	}
	return export.QuotationsXLSX(quotations)
}
