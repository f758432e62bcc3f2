package storage

import (
	"bytes"
	"context"
	"errors"
	"io"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"

	apperrors "github.com/cryptshare/cryptshare/internal/errors"
)

// blobContentType marks stored objects as opaque binary.
const blobContentType = "application/octet-stream"

// MinioConfig holds the connection parameters for a MinIO backend.
type MinioConfig struct {
	Endpoint  string
	AccessKey string
	SecretKey string
	Bucket    string
	UseSSL    bool
}

// MinioStore stores blobs as objects in a MinIO (or S3-compatible) bucket.
type MinioStore struct {
	client *minio.Client
	bucket string
}

// NewMinioStore connects to MinIO and ensures the bucket exists.
func NewMinioStore(ctx context.Context, cfg MinioConfig) (*MinioStore, error) {
	client, err := minio.New(cfg.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKey, cfg.SecretKey, ""),
		Secure: cfg.UseSSL,
	})
	if err != nil {
		return nil, apperrors.Wrap(err, "failed to create minio client")
	}

	exists, err := client.BucketExists(ctx, cfg.Bucket)
	if err != nil {
		return nil, apperrors.Wrap(err, "failed to check minio bucket")
	}
	if !exists {
		if err := client.MakeBucket(ctx, cfg.Bucket, minio.MakeBucketOptions{}); err != nil {
			return nil, apperrors.Wrap(err, "failed to create minio bucket")
		}
	}

	return &MinioStore{client: client, bucket: cfg.Bucket}, nil
}

// Put writes the blob as an object under the key.
func (s *MinioStore) Put(ctx context.Context, key string, data []byte) error {
	_, err := s.client.PutObject(ctx, s.bucket, key, bytes.NewReader(data), int64(len(data)),
		minio.PutObjectOptions{ContentType: blobContentType})
	if err != nil {
		return apperrors.Wrap(err, "failed to put blob")
	}
	return nil
}

// Get reads the object stored under the key.
func (s *MinioStore) Get(ctx context.Context, key string) ([]byte, error) {
	object, err := s.client.GetObject(ctx, s.bucket, key, minio.GetObjectOptions{})
	if err != nil {
		return nil, apperrors.Wrap(err, "failed to get blob")
	}
	defer func() {
		_ = object.Close()
	}()

	data, err := io.ReadAll(object)
	if err != nil {
		var minioErr minio.ErrorResponse
		if errors.As(err, &minioErr) && minioErr.Code == "NoSuchKey" {
			return nil, ErrBlobNotFound
		}
		return nil, apperrors.Wrap(err, "failed to read blob")
	}

	return data, nil
}

// Delete removes the object. Missing objects are ignored by MinIO.
func (s *MinioStore) Delete(ctx context.Context, key string) error {
	if err := s.client.RemoveObject(ctx, s.bucket, key, minio.RemoveObjectOptions{}); err != nil {
		return apperrors.Wrap(err, "failed to delete blob")
	}
	return nil
}
