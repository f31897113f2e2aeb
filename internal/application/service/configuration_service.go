package service

import (
	"context"

	"github.com/pipecenter/pipecenter-api/internal/domain/entity"
	"github.com/pipecenter/pipecenter-api/internal/domain/repository"
	"github.com/pipecenter/pipecenter-api/pkg/apperror"
)

// ConfigurationService handles pricing configuration operations
type ConfigurationService struct {
	configRepo repository.ConfigurationRepository
}

// NewConfigurationService creates a new configuration service
func NewConfigurationService(configRepo repository.ConfigurationRepository) *ConfigurationService {
	return &ConfigurationService{configRepo: configRepo}
}

// ListConfigurations returns every stored configuration in insertion order
func (s *ConfigurationService) ListConfigurations(ctx context.Context) ([]entity.Configuration, error) {
	return s.configRepo.List(ctx)
}

// GetConfiguration retrieves a configuration by ID
func (s *ConfigurationService) GetConfiguration(ctx context.Context, id string) (*entity.Configuration, error) {
	cfg, err := s.configRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if cfg == nil {
		return nil, apperror.NewNotFoundError("Configuration", id)
	}
	return cfg, nil
}

// CreateConfiguration validates and stores a new configuration
func (s *ConfigurationService) CreateConfiguration(ctx context.Context, draft entity.ConfigurationDraft) (*entity.Configuration, error) {
	return s.configRepo.Create(ctx, draft)
}

// DeleteConfiguration removes a configuration
func (s *ConfigurationService) DeleteConfiguration(ctx context.Context, id string) error {
	return s.configRepo.Delete(ctx, id)
}
