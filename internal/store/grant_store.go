package store

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/filecrate/filecrate/internal/models"
	"github.com/filecrate/filecrate/internal/permissions"
)

// GrantStore persists file grants. Mutations are single statements so a
// concurrent read observes either the previous or the new grant, never a
// transiently absent row.
type GrantStore struct {
	db *gorm.DB
}

// NewGrantStore constructs a grant store backed by the provided database.
func NewGrantStore(db *gorm.DB) (*GrantStore, error) {
	if db == nil {
		return nil, errors.New("grant store: db is required")
	}
	return &GrantStore{db: db}, nil
}

// FindGrant returns the level granted to the principal on the file.
func (s *GrantStore) FindGrant(ctx context.Context, resourceID, principalID string) (permissions.Level, error) {
	var grant models.FileGrant
	if err := s.db.WithContext(ctx).
		First(&grant, "file_id = ? AND user_id = ?", resourceID, principalID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return permissions.LevelNone, permissions.ErrGrantNotFound
		}
		return permissions.LevelNone, fmt.Errorf("grant store: load grant: %w", err)
	}

	level, err := permissions.ParseGrantLevel(grant.Level)
	if err != nil {
		return permissions.LevelNone, fmt.Errorf("grant store: stored grant for file %s user %s: %w", resourceID, principalID, err)
	}
	return level, nil
}

// UpsertGrant stores exactly the given level for the pair, replacing any
// existing row in a single ON CONFLICT statement.
func (s *GrantStore) UpsertGrant(ctx context.Context, resourceID, principalID string, level permissions.Level) error {
	if !level.Grantable() {
		return fmt.Errorf("grant store: level %q is not grantable", level)
	}

	grant := models.FileGrant{
		FileID: resourceID,
		UserID: principalID,
		Level:  level.String(),
	}

	if err := s.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "file_id"}, {Name: "user_id"}},
			DoUpdates: clause.AssignmentColumns([]string{"level", "updated_at"}),
		}).
		Create(&grant).Error; err != nil {
		return fmt.Errorf("grant store: upsert grant: %w", err)
	}
	return nil
}

// DeleteGrant removes the grant row for the pair. Absence is not an error.
func (s *GrantStore) DeleteGrant(ctx context.Context, resourceID, principalID string) error {
	if err := s.db.WithContext(ctx).
		Where("file_id = ? AND user_id = ?", resourceID, principalID).
		Delete(&models.FileGrant{}).Error; err != nil {
		return fmt.Errorf("grant store: delete grant: %w", err)
	}
	return nil
}

// DeleteAllGrants removes every grant row for the file.
func (s *GrantStore) DeleteAllGrants(ctx context.Context, resourceID string) error {
	if err := s.db.WithContext(ctx).
		Where("file_id = ?", resourceID).
		Delete(&models.FileGrant{}).Error; err != nil {
		return fmt.Errorf("grant store: delete grants: %w", err)
	}
	return nil
}

// ListGrants returns all grants on the file ordered by creation time.
func (s *GrantStore) ListGrants(ctx context.Context, resourceID string) ([]permissions.Grant, error) {
	var rows []models.FileGrant
	if err := s.db.WithContext(ctx).
		Where("file_id = ?", resourceID).
		Order("created_at").
		Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("grant store: list grants: %w", err)
	}

	grants := make([]permissions.Grant, 0, len(rows))
	for _, row := range rows {
		level, err := permissions.ParseGrantLevel(row.Level)
		if err != nil {
			return nil, fmt.Errorf("grant store: stored grant %s: %w", row.ID, err)
		}
		grants = append(grants, permissions.Grant{
			ResourceID:  row.FileID,
			PrincipalID: row.UserID,
			Level:       level,
		})
	}
	return grants, nil
}
