package repository

import (
	"context"
	"time"

	"github.com/pipecenter/pipecenter-api/internal/domain/entity"
	domainRepo "github.com/pipecenter/pipecenter-api/internal/domain/repository"
	"github.com/pipecenter/pipecenter-api/pkg/apperror"
	"github.com/pipecenter/pipecenter-api/pkg/utils"
	"golang.org/x/text/cases"
)

type configurationRepository struct {
	col *Collection[entity.Configuration]
	ids *utils.IDGenerator
}

// NewConfigurationRepository creates a new configuration repository
func NewConfigurationRepository(store *Store, ids *utils.IDGenerator) domainRepo.ConfigurationRepository {
	decode := func(raw []byte, _ time.Time) (entity.Configuration, error) {
		return entity.DecodeConfiguration(raw)
	}
	return &configurationRepository{
		col: NewCollection(store, domainRepo.ConfigurationsKey, decode, nil, false),
		ids: ids,
	}
}

func (r *configurationRepository) List(ctx context.Context) ([]entity.Configuration, error) {
	return r.col.Load(ctx)
}

func (r *configurationRepository) GetByID(ctx context.Context, id string) (*entity.Configuration, error) {
	records, err := r.col.Load(ctx)
	if err != nil {
		return nil, err
	}
	if i := indexOf(records, id); i >= 0 {
		return &records[i], nil
	}
	return nil, nil
}

func (r *configurationRepository) Create(ctx context.Context, draft entity.ConfigurationDraft) (*entity.Configuration, error) {
	id, createdAt := r.ids.Next()
	cfg, err := draft.Build(id, createdAt)
	if err != nil {
		return nil, err
	}

	name := foldName(cfg.Name)
	_, err = r.col.Transact(ctx, func(records []entity.Configuration) ([]entity.Configuration, bool, error) {
		for _, existing := range records {
			if foldName(existing.Name) == name {
				return nil, false, apperror.NewDuplicateError(cfg.Name)
			}
		}
		return append(records, cfg), true, nil
	})
	if err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (r *configurationRepository) Delete(ctx context.Context, id string) error {
	_, err := r.col.Transact(ctx, func(records []entity.Configuration) ([]entity.Configuration, bool, error) {
		kept := withoutID(records, id)
		if len(kept) == len(records) {
			return nil, false, apperror.NewNotFoundError("Configuration", id)
		}
		return kept, true, nil
	})
	return err
}

// foldName is the key under which configuration names must be unique
func foldName(name string) string {
	return cases.Fold().String(name)
}

func withoutID[T Record](records []T, id string) []T {
	kept := make([]T, 0, len(records))
	for _, r := range records {
		if r.RecordID() != id {
			kept = append(kept, r)
		}
	}
	return kept
}
