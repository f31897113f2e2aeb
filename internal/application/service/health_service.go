package service

import (
	"runtime"
	"time"

	"github.com/pipecenter/pipecenter-api/internal/config"
	"github.com/pipecenter/pipecenter-api/internal/domain/repository"
)

// HealthStatus is the payload of the health endpoint
type HealthStatus struct {
	Status      string            `json:"status"`
	Timestamp   string            `json:"timestamp"`
	Version     string            `json:"version"`
	Service     string            `json:"service"`
	Storage     StorageStatus     `json:"storage"`
	Environment EnvironmentStatus `json:"environment"`
}

type StorageStatus struct {
	Backend    string `json:"backend"`
	Persistent bool   `json:"persistent"`
}

type EnvironmentStatus struct {
	HasBlobToken  bool   `json:"hasBlobToken"`
	HasAuthSecret bool   `json:"hasAuthSecret"`
	GoVersion     string `json:"goVersion"`
}

// HealthService reports process and storage status
type HealthService struct {
	cfg   *config.Config
	blobs repository.BlobStore
	now   func() time.Time
}

// NewHealthService creates a new health service
func NewHealthService(cfg *config.Config, blobs repository.BlobStore, now func() time.Time) *HealthService {
	if now == nil {
		now = time.Now
	}
	return &HealthService{cfg: cfg, blobs: blobs, now: now}
}

// Status reports which backend is active and whether it survives a restart
func (s *HealthService) Status() *HealthStatus {
	status := "healthy"
	if !s.blobs.Persistent() {
		status = "degraded"
	}
	return &HealthStatus{
		Status:    status,
		Timestamp: s.now().UTC().Format(time.RFC3339),
		Version:   s.cfg.App.Version,
		Service:   s.cfg.App.Name,
		Storage: StorageStatus{
			Backend:    s.blobs.Name(),
			Persistent: s.blobs.Persistent(),
		},
		Environment: EnvironmentStatus{
			HasBlobToken:  s.cfg.Blob.HasBlobToken(),
			HasAuthSecret: s.cfg.Auth.SecretSet,
			GoVersion:     runtime.Version(),
		},
	}
}
