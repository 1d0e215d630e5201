// Package storage reads user portfolio files from object storage and
// archives generated reports back to it.
package storage

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"
	"path"
	"strings"
	"time"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"

	"github.com/mimurillof/chat-agent-service/internal/config"
)

// Report context only cares about structured data, notes and chart
// images; anything else in the bucket is skipped.
var contextExtensions = map[string]bool{
	".json": true,
	".md":   true,
	".png":  true,
}

// FileInfo describes one object in the user's folder.
type FileInfo struct {
	Name         string    `json:"name"`
	Size         int64     `json:"size"`
	LastModified time.Time `json:"last_modified"`
}

// Store is the object storage abstraction the report service uses.
type Store interface {
	// List returns the context-relevant files under the user's prefix.
	List(ctx context.Context, userID string) ([]FileInfo, error)
	// Download fetches one object's contents.
	Download(ctx context.Context, name string) ([]byte, error)
	// UploadJSON archives a generated document under the user's prefix.
	UploadJSON(ctx context.Context, userID, name string, data []byte) error
}

// MinioStore implements Store against a MinIO or S3-compatible bucket.
type MinioStore struct {
	client *minio.Client
	bucket string
	logger *slog.Logger
}

// NewMinioStore connects to the configured endpoint. It does not probe
// the bucket; a missing bucket surfaces on first use.
func NewMinioStore(cfg config.StorageConfig, logger *slog.Logger) (*MinioStore, error) {
	client, err := minio.New(cfg.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKey, cfg.SecretKey, ""),
		Secure: cfg.UseSSL,
	})
	if err != nil {
		return nil, fmt.Errorf("storage client: %w", err)
	}
	return &MinioStore{client: client, bucket: cfg.Bucket, logger: logger}, nil
}

func (m *MinioStore) List(ctx context.Context, userID string) ([]FileInfo, error) {
	prefix := strings.TrimSuffix(userID, "/") + "/"
	var out []FileInfo
	for obj := range m.client.ListObjects(ctx, m.bucket, minio.ListObjectsOptions{
		Prefix:    prefix,
		Recursive: true,
	}) {
		if obj.Err != nil {
			return nil, fmt.Errorf("list %s: %w", prefix, obj.Err)
		}
		if !contextExtensions[strings.ToLower(path.Ext(obj.Key))] {
			continue
		}
		// Archived reports are output, not context.
		if strings.HasPrefix(obj.Key, prefix+"reports/") {
			continue
		}
		out = append(out, FileInfo{
			Name:         obj.Key,
			Size:         obj.Size,
			LastModified: obj.LastModified,
		})
	}
	return out, nil
}

func (m *MinioStore) Download(ctx context.Context, name string) ([]byte, error) {
	obj, err := m.client.GetObject(ctx, m.bucket, name, minio.GetObjectOptions{})
	if err != nil {
		return nil, fmt.Errorf("get %s: %w", name, err)
	}
	defer obj.Close()
	data, err := io.ReadAll(obj)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", name, err)
	}
	return data, nil
}

func (m *MinioStore) UploadJSON(ctx context.Context, userID, name string, data []byte) error {
	key := strings.TrimSuffix(userID, "/") + "/" + name
	_, err := m.client.PutObject(ctx, m.bucket, key, bytes.NewReader(data), int64(len(data)), minio.PutObjectOptions{
		ContentType: "application/json",
	})
	if err != nil {
		return fmt.Errorf("put %s: %w", key, err)
	}
	m.logger.Info("report archived", "bucket", m.bucket, "key", key, "bytes", len(data))
	return nil
}
