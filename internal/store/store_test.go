package store

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/filecrate/filecrate/internal/models"
)

func setupTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err, "failed to open test database")

	err = db.AutoMigrate(&models.User{}, &models.File{}, &models.FileGrant{})
	require.NoError(t, err, "failed to auto-migrate")

	return db
}

func createTestFile(t *testing.T, db *gorm.DB, ownerID string) models.File {
	t.Helper()
	file := models.File{
		OwnerID:     ownerID,
		Name:        "report.pdf",
		ContentType: "application/pdf",
		Size:        128,
		StorageKey:  uuid.NewString(),
	}
	require.NoError(t, db.Create(&file).Error)
	return file
}
