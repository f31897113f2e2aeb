package repository

import (
	"context"
	"time"

	"github.com/pipecenter/pipecenter-api/internal/domain/entity"
	domainRepo "github.com/pipecenter/pipecenter-api/internal/domain/repository"
	"github.com/pipecenter/pipecenter-api/pkg/apperror"
	"github.com/pipecenter/pipecenter-api/pkg/utils"
)

type quotationRepository struct {
	col *Collection[entity.Quotation]
	ids *utils.IDGenerator
	now func() time.Time
}

// NewQuotationRepository creates a new quotation repository. Quotations whose
// createdAt is not within retention of the store clock are dropped on load
// and the pruned collection is written back.
func NewQuotationRepository(store *Store, ids *utils.IDGenerator, retention time.Duration) domainRepo.QuotationRepository {
	keep := func(q entity.Quotation, now time.Time) bool {
		return q.CreatedAt > now.Add(-retention).UnixMilli()
	}
	return &quotationRepository{
		col: NewCollection(store, domainRepo.QuotationsKey, entity.DecodeQuotation, keep, true),
		ids: ids,
		now: store.now,
	}
}

func (r *quotationRepository) List(ctx context.Context) ([]entity.Quotation, error) {
	return r.col.Load(ctx)
}

func (r *quotationRepository) GetByID(ctx context.Context, id string) (*entity.Quotation, error) {
	records, err := r.col.Load(ctx)
	if err != nil {
		return nil, err
	}
	if i := indexOf(records, id); i >= 0 {
		return &records[i], nil
	}
	return nil, nil
}

func (r *quotationRepository) Create(ctx context.Context, draft entity.QuotationDraft) (*entity.Quotation, error) {
	id, createdAt := r.ids.Next()
	q, err := draft.Build(id, createdAt, r.now())
	if err != nil {
		return nil, err
	}

	_, err = r.col.Transact(ctx, func(records []entity.Quotation) ([]entity.Quotation, bool, error) {
		return append(records, q), true, nil
	})
	if err != nil {
		return nil, err
	}
	return &q, nil
}

// Update replaces the quotation with the given id in place. A missing id is
// reported before the replacement is validated.
func (r *quotationRepository) Update(ctx context.Context, id string, draft entity.QuotationDraft) (*entity.Quotation, error) {
	var updated entity.Quotation
	_, err := r.col.Transact(ctx, func(records []entity.Quotation) ([]entity.Quotation, bool, error) {
		i := indexOf(records, id)
		if i < 0 {
			return nil, false, apperror.NewNotFoundError("Quotation", id)
		}
		q, err := draft.Replace(records[i], r.now())
		if err != nil {
			return nil, false, err
		}
		next := make([]entity.Quotation, len(records))
		copy(next, records)
		next[i] = q
		updated = q
		return next, true, nil
	})
	if err != nil {
		return nil, err
	}
	return &updated, nil
}

func (r *quotationRepository) Delete(ctx context.Context, id string) error {
	_, err := r.col.Transact(ctx, func(records []entity.Quotation) ([]entity.Quotation, bool, error) {
		kept := withoutID(records, id)
		if len(kept) == len(records) {
			return nil, false, apperror.NewNotFoundError("Quotation", id)
		}
		return kept, true, nil
	})
	return err
}

// Purge runs the load-time cleanup on demand and returns how many records it removed
func (r *quotationRepository) Purge(ctx context.Context) (int, error) {
	return r.col.purge(ctx)
}
