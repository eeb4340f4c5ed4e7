package services

import (
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/filecrate/filecrate/internal/models"
	"github.com/filecrate/filecrate/internal/permissions"
	"github.com/filecrate/filecrate/internal/store"
	apperrors "github.com/filecrate/filecrate/pkg/errors"
)

func setupTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err, "failed to open test database")

	err = db.AutoMigrate(&models.User{}, &models.File{}, &models.FileGrant{})
	require.NoError(t, err, "failed to auto-migrate")

	return db
}

func createTestUser(t *testing.T, db *gorm.DB, username string) models.User {
	t.Helper()
	user := models.User{
		Username: username,
		Email:    username + "@example.com",
		Password: "irrelevant-hash",
	}
	require.NoError(t, db.Create(&user).Error)
	return user
}

func createTestFile(t *testing.T, db *gorm.DB, ownerID string) models.File {
	t.Helper()
	file := models.File{
		OwnerID:     ownerID,
		Name:        "notes.txt",
		ContentType: "text/plain",
		Size:        42,
		StorageKey:  uuid.NewString(),
	}
	require.NoError(t, db.Create(&file).Error)
	return file
}

func newTestGrantService(t *testing.T, db *gorm.DB) *GrantService {
	t.Helper()

	resources, err := store.NewResourceStore(db)
	require.NoError(t, err)
	grants, err := store.NewGrantStore(db)
	require.NoError(t, err)
	evaluator, err := permissions.NewEvaluator(resources, grants)
	require.NoError(t, err)
	service, err := NewGrantService(db, evaluator, resources, grants)
	require.NoError(t, err)
	return service
}

func requireAppErrorCode(t *testing.T, err error, code string) {
	t.Helper()

	var appErr *apperrors.AppError
	require.True(t, errors.As(err, &appErr), "expected AppError, got %v", err)
	require.Equal(t, code, appErr.Code)
}
