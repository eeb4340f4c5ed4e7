package handlers

import (
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/filecrate/filecrate/internal/services"
	"github.com/filecrate/filecrate/pkg/errors"
	"github.com/filecrate/filecrate/pkg/response"
)

// FileHandler exposes upload, download and metadata operations.
type FileHandler struct {
	files     *services.FileService
	maxUpload int64
}

// NewFileHandler constructs a handler for file endpoints.
func NewFileHandler(files *services.FileService, maxUpload int64) *FileHandler {
	return &FileHandler{files: files, maxUpload: maxUpload}
}

// POST /api/files: multipart upload, the uploader becomes the owner.
// Not guarded: there is no resource yet to check a level against.
func (h *FileHandler) Upload(c *gin.Context) {
	userID := currentUserID(c)
	if userID == "" {
		response.Error(c, errors.ErrUnauthorized)
		return
	}

	header, err := c.FormFile("file")
	if err != nil {
		response.Error(c, errors.NewBadRequest("multipart field \"file\" is required"))
		return
	}
	if h.maxUpload > 0 && header.Size > h.maxUpload {
		response.Error(c, errors.ErrPayloadTooLarge)
		return
	}

	content, err := header.Open()
	if err != nil {
		response.Error(c, errors.ErrInternalServer.WithInternal(err))
		return
	}
	defer content.Close()

	dto, err := h.files.Upload(requestContext(c), userID, services.UploadInput{
		Name:        header.Filename,
		ContentType: header.Header.Get("Content-Type"),
		Size:        header.Size,
		Content:     content,
	})
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, http.StatusCreated, dto)
}

// GET /api/files: the principal's visible files. Not guarded; the
// listing query itself filters by ownership and grants.
func (h *FileHandler) List(c *gin.Context) {
	userID := currentUserID(c)
	if userID == "" {
		response.Error(c, errors.ErrUnauthorized)
		return
	}

	files, err := h.files.List(requestContext(c), userID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, http.StatusOK, files)
}

// GET /api/files/:id: metadata; guarded at read level.
func (h *FileHandler) Get(c *gin.Context) {
	dto, err := h.files.Get(requestContext(c), guardedFileID(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, http.StatusOK, dto)
}

// GET /api/files/:id/download: content; guarded at read level.
func (h *FileHandler) Download(c *gin.Context) {
	dto, content, err := h.files.Open(requestContext(c), guardedFileID(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	defer content.Close()

	contentType := dto.ContentType
	if contentType == "" {
		contentType = "application/octet-stream"
	}
	c.DataFromReader(http.StatusOK, dto.Size, contentType, content, map[string]string{
		"Content-Disposition": fmt.Sprintf("attachment; filename=%q", dto.Name),
	})
}

// DELETE /api/files/:id: guarded at delete level.
func (h *FileHandler) Delete(c *gin.Context) {
	if err := h.files.Delete(requestContext(c), guardedFileID(c)); err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"deleted": true})
}
