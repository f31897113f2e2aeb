package repository

import (
	"context"

	"github.com/pipecenter/pipecenter-api/internal/domain/entity"
)

// QuotationsKey is the blob holding the quotation collection
const QuotationsKey = "quotations.json"

// QuotationRepository defines the lifecycle operations on the quotation collection.
// Quotations past the retention window are never returned and are dropped from
// storage on the next load.
type QuotationRepository interface {
	List(ctx context.Context) ([]entity.Quotation, error)
	GetByID(ctx context.Context, id string) (*entity.Quotation, error)
	Create(ctx context.Context, draft entity.QuotationDraft) (*entity.Quotation, error)
	Update(ctx context.Context, id string, draft entity.QuotationDraft) (*entity.Quotation, error)
	Delete(ctx context.Context, id string) error
	Purge(ctx context.Context) (int, error)
}
