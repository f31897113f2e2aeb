package repository

import (
	"context"

	"github.com/pipecenter/pipecenter-api/internal/domain/entity"
)

// ConfigurationsKey is the blob holding the configuration collection
const ConfigurationsKey = "configurations.json"

// ConfigurationRepository defines the lifecycle operations on the configuration collection
type ConfigurationRepository interface {
	List(ctx context.Context) ([]entity.Configuration, error)
	GetByID(ctx context.Context, id string) (*entity.Configuration, error)
	Create(ctx context.Context, draft entity.ConfigurationDraft) (*entity.Configuration, error)
	Delete(ctx context.Context, id string) error
}
