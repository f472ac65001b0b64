// Package storage uploads report snapshots to S3-compatible object storage.
package storage

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os"
	"path"

	"momo-loanhub/internal/config"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
)

var ErrUploadFailed = errors.New("upload failed")

// ReportStore puts report files into a MinIO bucket
type ReportStore struct {
	client *minio.Client
	bucket string
}

// NewReportStore connects to MinIO; it returns nil when no endpoint is configured
func NewReportStore(cfg config.StorageConfig) (*ReportStore, error) {
	if cfg.Endpoint == "" {
		log.Println("⚠️ MINIO_ENDPOINT not set, report upload disabled")
		return nil, nil
	}

	client, err := minio.New(cfg.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKey, cfg.SecretKey, ""),
		Secure: cfg.UseSSL,
	})
	if err != nil {
		return nil, fmt.Errorf("minio client: %w", err)
	}

	return &ReportStore{client: client, bucket: cfg.Bucket}, nil
}

// EnsureBucket creates the bucket when missing
func (s *ReportStore) EnsureBucket(ctx context.Context) error {
	exists, err := s.client.BucketExists(ctx, s.bucket)
	if err != nil {
		return err
	}
	if !exists {
		return s.client.MakeBucket(ctx, s.bucket, minio.MakeBucketOptions{})
	}
	return nil
}

// UploadFile stores the file at localPath under prefix/name
func (s *ReportStore) UploadFile(ctx context.Context, prefix, name, localPath, contentType string) (string, error) {
	f, err := os.Open(localPath)
	if err != nil {
		return "", err
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return "", err
	}

	objectName := path.Join(prefix, name)
	_, err = s.client.PutObject(ctx, s.bucket, objectName, f, info.Size(), minio.PutObjectOptions{
		ContentType: contentType,
	})
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrUploadFailed, err)
	}
	return objectName, nil
}
