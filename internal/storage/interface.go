package storage

import (
	"context"
	"mime/multipart"
	"time"
)

// Uploader is the storage surface the handlers depend on, so tests can swap
// in a mock instead of talking to S3.
type Uploader interface {
	UploadAttachment(ctx context.Context, data []byte, userID, originalFilename string) (*UploadResult, error)
	UploadProfilePicture(ctx context.Context, file multipart.File, header *multipart.FileHeader, userID string) (*UploadResult, error)
	PresignUpload(ctx context.Context, userID, filename string, expires time.Duration) (*PresignedUpload, error)
	DeleteFile(ctx context.Context, key string) error
}

var _ Uploader = (*S3Storage)(nil)
