package storage

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"mime/multipart"
	"path/filepath"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/google/uuid"
)

// S3Storage handles post attachment and profile picture uploads to AWS S3
type S3Storage struct {
	client  *s3.Client
	presign *s3.PresignClient
	bucket  string
	region  string
	baseURL string
}

// UploadResult contains the result of an S3 upload
type UploadResult struct {
	Key    string `json:"key"`
	URL    string `json:"url"`
	Bucket string `json:"bucket"`
	Region string `json:"region"`
	Size   int64  `json:"size"`
}

// PresignedUpload is a short-lived URL a client can PUT a file to directly,
// plus the public URL the file will have once uploaded.
type PresignedUpload struct {
	UploadURL string    `json:"uploadUrl"`
	PublicURL string    `json:"publicUrl"`
	Key       string    `json:"key"`
	ExpiresAt time.Time `json:"expiresAt"`
}

// NewS3Storage creates a new S3 storage client
func NewS3Storage(region, bucket, baseURL string) (*S3Storage, error) {
	cfg, err := config.LoadDefaultConfig(context.TODO(),
		config.WithRegion(region),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}

	client := s3.NewFromConfig(cfg)

	return &S3Storage{
		client:  client,
		presign: s3.NewPresignClient(client),
		bucket:  bucket,
		region:  region,
		baseURL: baseURL,
	}, nil
}

// UploadAttachment uploads a post attachment (audio demo, image, PDF rider)
// to S3 under an organized key and returns its public URL.
func (s *S3Storage) UploadAttachment(ctx context.Context, data []byte, userID, originalFilename string) (*UploadResult, error) {
	key := attachmentKey(userID, originalFilename, time.Now())

	putObjectInput := &s3.PutObjectInput{
		Bucket:      aws.String(s.bucket),
		Key:         aws.String(key),
		Body:        bytes.NewReader(data),
		ContentType: aws.String(contentTypeFor(filepath.Ext(key))),

		// Attachments are immutable once uploaded
		CacheControl: aws.String("max-age=86400"),

		Metadata: map[string]string{
			"user-id":           userID,
			"original-filename": originalFilename,
			"upload-timestamp":  time.Now().Format(time.RFC3339),
		},
	}

	if _, err := s.client.PutObject(ctx, putObjectInput); err != nil {
		return nil, fmt.Errorf("failed to upload to S3: %w", err)
	}

	return &UploadResult{
		Key:    key,
		URL:    s.publicURL(key),
		Bucket: s.bucket,
		Region: s.region,
		Size:   int64(len(data)),
	}, nil
}

// UploadProfilePicture uploads a user's profile picture from a multipart form
func (s *S3Storage) UploadProfilePicture(ctx context.Context, file multipart.File, header *multipart.FileHeader, userID string) (*UploadResult, error) {
	data, err := io.ReadAll(file)
	if err != nil {
		return nil, fmt.Errorf("failed to read upload: %w", err)
	}

	extension := strings.ToLower(filepath.Ext(header.Filename))
	if extension == "" {
		extension = ".jpg"
	}
	key := fmt.Sprintf("profiles/%s/avatar%s", userID, extension)

	putObjectInput := &s3.PutObjectInput{
		Bucket:       aws.String(s.bucket),
		Key:          aws.String(key),
		Body:         bytes.NewReader(data),
		ContentType:  aws.String(contentTypeFor(extension)),
		CacheControl: aws.String("max-age=3600"),

		Metadata: map[string]string{
			"user-id":           userID,
			"original-filename": header.Filename,
		},
	}

	if _, err := s.client.PutObject(ctx, putObjectInput); err != nil {
		return nil, fmt.Errorf("failed to upload profile picture: %w", err)
	}

	return &UploadResult{
		Key:    key,
		URL:    s.publicURL(key),
		Bucket: s.bucket,
		Region: s.region,
		Size:   int64(len(data)),
	}, nil
}

// PresignUpload returns a presigned PUT URL so clients can upload large
// attachments directly to S3 without proxying bytes through the API.
func (s *S3Storage) PresignUpload(ctx context.Context, userID, filename string, expires time.Duration) (*PresignedUpload, error) {
	key := attachmentKey(userID, filename, time.Now())

	req, err := s.presign.PresignPutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(s.bucket),
		Key:         aws.String(key),
		ContentType: aws.String(contentTypeFor(filepath.Ext(key))),
	}, s3.WithPresignExpires(expires))
	if err != nil {
		return nil, fmt.Errorf("failed to presign upload: %w", err)
	}

	return &PresignedUpload{
		UploadURL: req.URL,
		PublicURL: s.publicURL(key),
		Key:       key,
		ExpiresAt: time.Now().Add(expires),
	}, nil
}

// DeleteFile deletes a file from S3
func (s *S3Storage) DeleteFile(ctx context.Context, key string) error {
	_, err := s.client.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		return fmt.Errorf("failed to delete from S3: %w", err)
	}

	return nil
}

// CheckBucketAccess verifies that we can access the S3 bucket
func (s *S3Storage) CheckBucketAccess(ctx context.Context) error {
	_, err := s.client.HeadBucket(ctx, &s3.HeadBucketInput{
		Bucket: aws.String(s.bucket),
	})
	if err != nil {
		return fmt.Errorf("cannot access S3 bucket %s: %w", s.bucket, err)
	}

	return nil
}

func (s *S3Storage) publicURL(key string) string {
	return fmt.Sprintf("%s/%s", strings.TrimSuffix(s.baseURL, "/"), key)
}

// attachmentKey builds an organized key: attachments/{year}/{month}/{userID}/{fileID}{ext}
func attachmentKey(userID, originalFilename string, now time.Time) string {
	extension := strings.ToLower(filepath.Ext(originalFilename))
	if extension == "" {
		extension = ".bin"
	}
	return fmt.Sprintf("attachments/%d/%02d/%s/%s%s",
		now.Year(), now.Month(), userID, uuid.New().String(), extension)
}

// contentTypeFor returns the MIME type for attachment extensions
func contentTypeFor(extension string) string {
	switch strings.ToLower(extension) {
	case ".mp3":
		return "audio/mpeg"
	case ".wav":
		return "audio/wav"
	case ".ogg":
		return "audio/ogg"
	case ".m4a":
		return "audio/mp4"
	case ".jpg", ".jpeg":
		return "image/jpeg"
	case ".png":
		return "image/png"
	case ".gif":
		return "image/gif"
	case ".webp":
		return "image/webp"
	case ".pdf":
		return "application/pdf"
	default:
		return "application/octet-stream"
	}
}
