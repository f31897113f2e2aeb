package blob

import (
	"context"
	"errors"
	"time"

	"github.com/pipecenter/pipecenter-api/internal/infrastructure/database"
	"github.com/pipecenter/pipecenter-api/pkg/apperror"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// PostgresStore keeps blobs as rows of a single key/content table
type PostgresStore struct {
	db *gorm.DB
}

func NewPostgresStore(db *gorm.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

func (s *PostgresStore) Get(ctx context.Context, key string) ([]byte, error) {
	var rec database.BlobRecord
	err := s.db.WithContext(ctx).First(&rec, "key = ?", key).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, apperror.NewStorageError("get", key, err)
	}
	return rec.Content, nil
}

func (s *PostgresStore) Put(ctx context.Context, key string, data []byte) error {
	rec := database.BlobRecord{Key: key, Content: data, UpdatedAt: time.Now().UTC()}
	err := s.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "key"}},
		DoUpdates: clause.AssignmentColumns([]string{"content", "updated_at"}),
	}).Create(&rec).Error
	if err != nil {
		return apperror.NewStorageError("put", key, err)
	}
	return nil
}

func (s *PostgresStore) Delete(ctx context.Context, key string) (bool, error) {
	res := s.db.WithContext(ctx).Delete(&database.BlobRecord{}, "key = ?", key)
	if res.Error != nil {
		return false, apperror.NewStorageError("delete", key, res.Error)
	}
	return res.RowsAffected > 0, nil
}

func (s *PostgresStore) Name() string { return "postgres" }

func (s *PostgresStore) Persistent() bool { return true }
