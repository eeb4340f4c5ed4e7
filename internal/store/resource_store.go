package store

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"

	"github.com/filecrate/filecrate/internal/models"
	"github.com/filecrate/filecrate/internal/permissions"
)

// ResourceStore resolves file ownership from the database. It performs a
// fresh read on every call; ownership is never cached between checks.
type ResourceStore struct {
	db *gorm.DB
}

// NewResourceStore constructs a resource store backed by the provided database.
func NewResourceStore(db *gorm.DB) (*ResourceStore, error) {
	if db == nil {
		return nil, errors.New("resource store: db is required")
	}
	return &ResourceStore{db: db}, nil
}

// FindOwner returns the owning principal of the file.
func (s *ResourceStore) FindOwner(ctx context.Context, resourceID string) (string, error) {
	var file models.File
	if err := s.db.WithContext(ctx).
		Select("id", "owner_id").
		First(&file, "id = ?", resourceID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return "", permissions.ErrResourceNotFound
		}
		return "", fmt.Errorf("resource store: load file: %w", err)
	}
	return file.OwnerID, nil
}
