// Package http provides HTTP handlers for encrypted file operations.
package http

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"mime"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	authHTTP "github.com/cryptshare/cryptshare/internal/auth/http"
	"github.com/cryptshare/cryptshare/internal/file/domain"
	"github.com/cryptshare/cryptshare/internal/file/http/dto"
	"github.com/cryptshare/cryptshare/internal/file/usecase"
	"github.com/cryptshare/cryptshare/internal/httputil"
	userDomain "github.com/cryptshare/cryptshare/internal/user/domain"
)

// maxUploadBytes caps the size of an uploaded file body (32 MiB).
const maxUploadBytes = 32 << 20

// FileHandler handles file-related HTTP requests
type FileHandler struct {
	fileUseCase usecase.UseCase
	logger      *slog.Logger
}

// NewFileHandler creates a new FileHandler
func NewFileHandler(fileUseCase usecase.UseCase, logger *slog.Logger) *FileHandler {
	return &FileHandler{
		fileUseCase: fileUseCase,
		logger:      logger,
	}
}

// UploadHandler uploads an encrypted file and shares it with recipients.
// POST /v1/files
// Multipart form: "file" is the body, "recipients" is an optional JSON array
// of {email, can_view, can_download, expires_at}, "file_symmetric_key" is an
// optional base64 client-supplied file key. Returns 201 Created with the file
// metadata, the created shares and a share token.
func (h *FileHandler) UploadHandler(c *gin.Context) {
	caller, ok := authHTTP.GetUser(c.Request.Context())
	if !ok {
		httputil.HandleErrorGin(c, domain.ErrAccessDenied, h.logger)
		return
	}

	header, err := c.FormFile("file")
	if err != nil {
		httputil.HandleValidationErrorGin(c, fmt.Errorf("file form field is required"), h.logger)
		return
	}
	if header.Size > maxUploadBytes {
		httputil.HandleValidationErrorGin(c, fmt.Errorf("file exceeds the %d byte limit", maxUploadBytes), h.logger)
		return
	}

	recipients, err := dto.ParseRecipients(c.PostForm("recipients"))
	if err != nil {
		httputil.HandleValidationErrorGin(c, err, h.logger)
		return
	}

	fileKey, err := dto.ParseFileKey(c.PostForm("file_symmetric_key"))
	if err != nil {
		httputil.HandleValidationErrorGin(c, err, h.logger)
		return
	}

	src, err := header.Open()
	if err != nil {
		httputil.HandleBadRequestGin(c, err, h.logger)
		return
	}
	defer src.Close()

	data, err := io.ReadAll(io.LimitReader(src, maxUploadBytes+1))
	if err != nil {
		httputil.HandleBadRequestGin(c, err, h.logger)
		return
	}
	if len(data) > maxUploadBytes {
		httputil.HandleValidationErrorGin(c, fmt.Errorf("file exceeds the %d byte limit", maxUploadBytes), h.logger)
		return
	}

	output, err := h.fileUseCase.Upload(c.Request.Context(), caller, usecase.UploadFileInput{
		Filename:    header.Filename,
		ContentType: header.Header.Get("Content-Type"),
		Data:        data,
		Recipients:  recipients,
		FileKey:     fileKey,
	})
	if err != nil {
		httputil.HandleErrorGin(c, err, h.logger)
		return
	}

	c.JSON(http.StatusCreated, dto.MapUploadToResponse(output))
}

// AccessHandler opens a file through a share token.
// GET /v1/files/access?token=...&action=view|download
// A view returns JSON with the base64 body and the caller's wrapped key.
// A download streams the raw body with the wrapped key in the
// X-Wrapped-Key header.
func (h *FileHandler) AccessHandler(c *gin.Context) {
	caller, ok := authHTTP.GetUser(c.Request.Context())
	if !ok {
		httputil.HandleErrorGin(c, domain.ErrAccessDenied, h.logger)
		return
	}

	token := c.Query("token")
	if token == "" {
		httputil.HandleValidationErrorGin(c, fmt.Errorf("token query parameter is required"), h.logger)
		return
	}

	var action domain.AccessAction
	switch c.DefaultQuery("action", string(domain.AccessView)) {
	case string(domain.AccessView):
		action = domain.AccessView
	case string(domain.AccessDownload):
		action = domain.AccessDownload
	default:
		httputil.HandleValidationErrorGin(c, fmt.Errorf("action must be view or download"), h.logger)
		return
	}

	output, err := h.fileUseCase.Access(c.Request.Context(), token, caller, action)
	if err != nil {
		httputil.HandleErrorGin(c, err, h.logger)
		return
	}

	if action == domain.AccessDownload {
		disposition := mime.FormatMediaType("attachment", map[string]string{"filename": output.File.Filename})
		c.Header("Content-Disposition", disposition)
		c.Header("X-Wrapped-Key", output.WrappedKey)
		c.Data(http.StatusOK, output.File.ContentType, output.Plaintext)
		return
	}

	c.JSON(http.StatusOK, dto.MapAccessToResponse(output))
}

// ShareLinkHandler issues a fresh share token for a file the caller owns.
// POST /v1/files/:id/share-link
func (h *FileHandler) ShareLinkHandler(c *gin.Context) {
	caller, ok := authHTTP.GetUser(c.Request.Context())
	if !ok {
		httputil.HandleErrorGin(c, domain.ErrAccessDenied, h.logger)
		return
	}

	fileID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		httputil.HandleValidationErrorGin(c, fmt.Errorf("invalid file id"), h.logger)
		return
	}

	output, err := h.fileUseCase.ShareLink(c.Request.Context(), caller, fileID)
	if err != nil {
		httputil.HandleErrorGin(c, err, h.logger)
		return
	}

	c.JSON(http.StatusCreated, dto.MapShareLinkToResponse(output))
}

// ListOwnHandler lists the caller's own files.
// GET /v1/files?offset=0&limit=50
func (h *FileHandler) ListOwnHandler(c *gin.Context) {
	h.list(c, h.fileUseCase.ListOwn)
}

// ListSharedHandler lists files shared with the caller.
// GET /v1/files/shared?offset=0&limit=50
func (h *FileHandler) ListSharedHandler(c *gin.Context) {
	h.list(c, h.fileUseCase.ListShared)
}

func (h *FileHandler) list(
	c *gin.Context,
	fetch func(ctx context.Context, caller *userDomain.User, offset, limit int) ([]*domain.File, error),
) {
	caller, ok := authHTTP.GetUser(c.Request.Context())
	if !ok {
		httputil.HandleErrorGin(c, domain.ErrAccessDenied, h.logger)
		return
	}

	offset, limit, err := httputil.ParsePagination(c)
	if err != nil {
		httputil.HandleBadRequestGin(c, err, h.logger)
		return
	}

	files, err := fetch(c.Request.Context(), caller, offset, limit)
	if err != nil {
		httputil.HandleErrorGin(c, err, h.logger)
		return
	}

	c.JSON(http.StatusOK, dto.MapFileListToResponse(files, offset, limit))
}
