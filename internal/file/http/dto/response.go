package dto

import (
	"encoding/base64"
	"time"

	"github.com/google/uuid"

	"github.com/cryptshare/cryptshare/internal/file/domain"
	"github.com/cryptshare/cryptshare/internal/file/usecase"
)

// FileResponse is the public representation of a file. The storage key
// stays server-side.
type FileResponse struct {
	ID          uuid.UUID `json:"id"`
	OwnerID     uuid.UUID `json:"owner_id"`
	Filename    string    `json:"filename"`
	ContentType string    `json:"content_type"`
	SizeBytes   int64     `json:"size_bytes"`
	CreatedAt   time.Time `json:"created_at"`
}

// ShareResponse describes one recipient's share of an uploaded file.
type ShareResponse struct {
	UserID      uuid.UUID  `json:"user_id"`
	CanView     bool       `json:"can_view"`
	CanDownload bool       `json:"can_download"`
	ExpiresAt   *time.Time `json:"expires_at,omitempty"`
}

// UploadResponse is returned after a successful upload.
type UploadResponse struct {
	File       FileResponse    `json:"file"`
	Shares     []ShareResponse `json:"shares"`
	ShareToken string          `json:"share_token"`
	TokenExp   time.Time       `json:"token_expires_at"`
}

// AccessResponse carries the decrypted body for a view request. Content is
// base64 so arbitrary bytes survive the JSON envelope; the wrapped key is
// returned as stored, never unwrapped server-side.
type AccessResponse struct {
	File        FileResponse `json:"file"`
	Content     string       `json:"content"`
	WrappedKey  string       `json:"wrapped_key"`
	CanView     bool         `json:"can_view"`
	CanDownload bool         `json:"can_download"`
}

// ShareLinkResponse is a fresh share token for an existing file.
type ShareLinkResponse struct {
	ShareToken string    `json:"share_token"`
	TokenExp   time.Time `json:"token_expires_at"`
}

// FileListResponse is a paginated file listing.
type FileListResponse struct {
	Files  []FileResponse `json:"files"`
	Offset int            `json:"offset"`
	Limit  int            `json:"limit"`
}

// MapFileToResponse converts a file domain object to its response representation.
func MapFileToResponse(file *domain.File) FileResponse {
	return FileResponse{
		ID:          file.ID,
		OwnerID:     file.OwnerID,
		Filename:    file.Filename,
		ContentType: file.ContentType,
		SizeBytes:   file.SizeBytes,
		CreatedAt:   file.CreatedAt,
	}
}

// MapUploadToResponse converts an upload result to its response representation.
func MapUploadToResponse(output *usecase.UploadFileOutput) UploadResponse {
	shares := make([]ShareResponse, 0, len(output.Shares))
	for _, share := range output.Shares {
		shares = append(shares, ShareResponse{
			UserID:      share.UserID,
			CanView:     share.CanView,
			CanDownload: share.CanDownload,
			ExpiresAt:   share.ExpiresAt,
		})
	}
	return UploadResponse{
		File:       MapFileToResponse(output.File),
		Shares:     shares,
		ShareToken: output.ShareToken,
		TokenExp:   output.TokenExp,
	}
}

// MapAccessToResponse converts an access result to its response representation.
func MapAccessToResponse(output *usecase.AccessFileOutput) AccessResponse {
	return AccessResponse{
		File:        MapFileToResponse(output.File),
		Content:     base64.StdEncoding.EncodeToString(output.Plaintext),
		WrappedKey:  output.WrappedKey,
		CanView:     output.Share.CanView,
		CanDownload: output.Share.CanDownload,
	}
}

// MapShareLinkToResponse converts a share link result to its response representation.
func MapShareLinkToResponse(output *usecase.ShareLinkOutput) ShareLinkResponse {
	return ShareLinkResponse{
		ShareToken: output.ShareToken,
		TokenExp:   output.TokenExp,
	}
}

// MapFileListToResponse converts a file listing page to its response representation.
func MapFileListToResponse(files []*domain.File, offset, limit int) FileListResponse {
	responses := make([]FileResponse, 0, len(files))
	for _, file := range files {
		responses = append(responses, MapFileToResponse(file))
	}
	return FileListResponse{
		Files:  responses,
		Offset: offset,
		Limit:  limit,
	}
}
