package services

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/filecrate/filecrate/internal/models"
	"github.com/filecrate/filecrate/internal/storage"
	apperrors "github.com/filecrate/filecrate/pkg/errors"
	"github.com/filecrate/filecrate/pkg/logger"
)

// FileDTO is the metadata view of a file returned to clients.
type FileDTO struct {
	ID          string `json:"id"`
	OwnerID     string `json:"owner_id"`
	Name        string `json:"name"`
	ContentType string `json:"content_type"`
	Size        int64  `json:"size"`
	CreatedAt   string `json:"created_at"`
}

// FileService manages file metadata and the backing blob store. Access
// decisions happen in the guard before any of these methods run; the
// service only re-derives ownership for listing.
type FileService struct {
	db    *gorm.DB
	blobs storage.Store
	log   *zap.Logger
}

// NewFileService constructs a file service.
func NewFileService(db *gorm.DB, blobs storage.Store) (*FileService, error) {
	if db == nil {
		return nil, errors.New("file service: db is required")
	}
	if blobs == nil {
		return nil, errors.New("file service: blob store is required")
	}
	return &FileService{db: db, blobs: blobs, log: logger.WithModule("files")}, nil
}

// UploadInput describes a file being uploaded.
type UploadInput struct {
	Name        string
	ContentType string
	Size        int64
	Content     io.Reader
}

// Upload persists the content under a generated storage key and creates
// the metadata row with the uploader as owner.
func (s *FileService) Upload(ctx context.Context, ownerID string, input UploadInput) (*FileDTO, error) {
	ctx = ensureContext(ctx)

	ownerID = strings.TrimSpace(ownerID)
	if ownerID == "" {
		return nil, apperrors.ErrUnauthorized
	}
	name := strings.TrimSpace(input.Name)
	if name == "" {
		return nil, apperrors.NewBadRequest("file name is required")
	}
	if input.Content == nil {
		return nil, apperrors.NewBadRequest("file content is required")
	}

	key := uuid.NewString()
	if err := s.blobs.Put(ctx, key, input.Content, input.Size, input.ContentType); err != nil {
		return nil, apperrors.ErrInternalServer.WithInternal(err)
	}

	file := models.File{
		OwnerID:     ownerID,
		Name:        name,
		ContentType: input.ContentType,
		Size:        input.Size,
		StorageKey:  key,
	}
	if err := s.db.WithContext(ctx).Create(&file).Error; err != nil {
		// Do not leave an orphaned blob behind the failed row.
		if removeErr := s.blobs.Remove(ctx, key); removeErr != nil {
			s.log.Warn("orphaned blob after failed upload",
				zap.String("key", key), zap.Error(removeErr))
		}
		return nil, apperrors.ErrInternalServer.WithInternal(err)
	}

	dto := toFileDTO(&file)
	return &dto, nil
}

// Get returns the file's metadata.
func (s *FileService) Get(ctx context.Context, fileID string) (*FileDTO, error) {
	file, err := s.load(ctx, fileID)
	if err != nil {
		return nil, err
	}
	dto := toFileDTO(file)
	return &dto, nil
}

// Open returns the file's metadata together with a reader over its
// content. The caller closes the reader.
func (s *FileService) Open(ctx context.Context, fileID string) (*FileDTO, io.ReadCloser, error) {
	file, err := s.load(ctx, fileID)
	if err != nil {
		return nil, nil, err
	}

	r, err := s.blobs.Open(ensureContext(ctx), file.StorageKey)
	if err != nil {
		if errors.Is(err, storage.ErrObjectNotFound) {
			return nil, nil, apperrors.ErrNotFound
		}
		return nil, nil, apperrors.ErrInternalServer.WithInternal(err)
	}

	dto := toFileDTO(file)
	return &dto, r, nil
}

// List returns the files the principal can see: the ones they own plus
// the ones they hold any grant on. Visibility filtering happens here, in
// the query, not in the guard.
func (s *FileService) List(ctx context.Context, userID string) ([]FileDTO, error) {
	ctx = ensureContext(ctx)

	userID = strings.TrimSpace(userID)
	if userID == "" {
		return nil, apperrors.ErrUnauthorized
	}

	var files []models.File
	if err := s.db.WithContext(ctx).
		Where("owner_id = ? OR id IN (?)",
			userID,
			s.db.Model(&models.FileGrant{}).Select("file_id").Where("user_id = ?", userID),
		).
		Order("created_at DESC").
		Find(&files).Error; err != nil {
		return nil, fmt.Errorf("file service: list files: %w", err)
	}

	dtos := make([]FileDTO, 0, len(files))
	for i := range files {
		dtos = append(dtos, toFileDTO(&files[i]))
	}
	return dtos, nil
}

// Delete removes the file row and every grant row in one transaction,
// then removes the blob. A failed blob removal leaves no dangling
// metadata, only an unreferenced object, which is logged.
func (s *FileService) Delete(ctx context.Context, fileID string) error {
	ctx = ensureContext(ctx)

	file, err := s.load(ctx, fileID)
	if err != nil {
		return err
	}

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("file_id = ?", file.ID).Delete(&models.FileGrant{}).Error; err != nil {
			return fmt.Errorf("delete grants: %w", err)
		}
		if err := tx.Delete(&models.File{}, "id = ?", file.ID).Error; err != nil {
			return fmt.Errorf("delete file: %w", err)
		}
		return nil
	})
	if err != nil {
		return apperrors.ErrInternalServer.WithInternal(err)
	}

	if err := s.blobs.Remove(ctx, file.StorageKey); err != nil {
		s.log.Warn("unreferenced blob after file delete",
			zap.String("file", file.ID), zap.String("key", file.StorageKey), zap.Error(err))
	}
	return nil
}

func (s *FileService) load(ctx context.Context, fileID string) (*models.File, error) {
	ctx = ensureContext(ctx)

	fileID = strings.TrimSpace(fileID)
	if fileID == "" {
		return nil, apperrors.NewBadRequest("file id is required")
	}

	var file models.File
	if err := s.db.WithContext(ctx).First(&file, "id = ?", fileID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrNotFound
		}
		return nil, fmt.Errorf("file service: load file: %w", err)
	}
	return &file, nil
}

func toFileDTO(file *models.File) FileDTO {
	return FileDTO{
		ID:          file.ID,
		OwnerID:     file.OwnerID,
		Name:        file.Name,
		ContentType: file.ContentType,
		Size:        file.Size,
		CreatedAt:   file.CreatedAt.UTC().Format(time.RFC3339),
	}
}
