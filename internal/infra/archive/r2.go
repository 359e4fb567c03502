package archive

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"

	"github.com/lassnet/powerdash/internal/domain/forecast"
)

// R2Sink stores forecast files in an S3-compatible bucket such as Cloudflare R2.
type R2Sink struct {
	client *minio.Client
	bucket string
	logger *slog.Logger
}

// NewR2Sink constructs the bucket sink.
func NewR2Sink(endpoint, accessKey, secretKey, bucket, region string, logger *slog.Logger) (*R2Sink, error) {
	if logger == nil {
		logger = slog.Default()
	}
	client, err := minio.New(sanitizeEndpoint(endpoint), &minio.Options{
		Creds:        credentials.NewStaticV4(accessKey, secretKey, ""),
		Secure:       strings.HasPrefix(strings.ToLower(strings.TrimSpace(endpoint)), "https"),
		Region:       region,
		BucketLookup: minio.BucketLookupPath,
	})
	if err != nil {
		return nil, fmt.Errorf("init r2 client: %w", err)
	}
	return &R2Sink{client: client, bucket: bucket, logger: logger.With("component", "archive.r2")}, nil
}

func (s *R2Sink) ensureBucket(ctx context.Context) error {
	exists, err := s.client.BucketExists(ctx, s.bucket)
	if err == nil && exists {
		return nil
	}
	err = s.client.MakeBucket(ctx, s.bucket, minio.MakeBucketOptions{})
	if err != nil && minio.ToErrorResponse(err).Code != "BucketAlreadyOwnedByYou" {
		return err
	}
	return nil
}

// Put uploads one file.
func (s *R2Sink) Put(ctx context.Context, key string, data []byte, contentType string) (forecast.StoredObject, error) {
	if err := s.ensureBucket(ctx); err != nil {
		return forecast.StoredObject{}, err
	}
	info, err := s.client.PutObject(ctx, s.bucket, key, bytes.NewReader(data), int64(len(data)), minio.PutObjectOptions{
		ContentType:      contentType,
		DisableMultipart: len(data) < 5*1024*1024,
	})
	if err != nil {
		return forecast.StoredObject{}, err
	}
	s.logger.Debug("object uploaded", "bucket", s.bucket, "key", key, "bytes", info.Size)
	return forecast.StoredObject{
		Key:         key,
		Size:        info.Size,
		ContentType: contentType,
		ETag:        info.ETag,
	}, nil
}

var _ forecast.Sink = (*R2Sink)(nil)

// sanitizeEndpoint strips the scheme and any path, leaving host[:port] for minio.New.
func sanitizeEndpoint(raw string) string {
	raw = strings.TrimSpace(raw)
	raw = strings.TrimPrefix(strings.TrimPrefix(raw, "https://"), "http://")
	if i := strings.Index(raw, "/"); i >= 0 {
		raw = raw[:i]
	}
	return raw
}
