package archive

import (
	"context"
	"crypto/md5"
	"encoding/hex"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/lassnet/powerdash/internal/domain/forecast"
)

// LocalSink writes forecast files below a directory.
type LocalSink struct {
	dir string
}

// NewLocalSink creates dir if needed.
func NewLocalSink(dir string) (*LocalSink, error) {
	if strings.TrimSpace(dir) == "" {
		dir = "."
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create output dir: %w", err)
	}
	return &LocalSink{dir: dir}, nil
}

// Put writes data atomically via a temporary file in the same directory.
func (s *LocalSink) Put(ctx context.Context, key string, data []byte, contentType string) (forecast.StoredObject, error) {
	if err := ctx.Err(); err != nil {
		return forecast.StoredObject{}, err
	}
	target := filepath.Join(s.dir, filepath.FromSlash(key))
	if rel, err := filepath.Rel(s.dir, target); err != nil || strings.HasPrefix(rel, "..") {
		return forecast.StoredObject{}, fmt.Errorf("key %q escapes output dir", key)
	}
	if err := os.MkdirAll(filepath.Dir(target), 0o755); err != nil {
		return forecast.StoredObject{}, err
	}

	tmp, err := os.CreateTemp(filepath.Dir(target), ".partial-*")
	if err != nil {
		return forecast.StoredObject{}, err
	}
	defer os.Remove(tmp.Name())
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return forecast.StoredObject{}, err
	}
	if err := tmp.Close(); err != nil {
		return forecast.StoredObject{}, err
	}
	if err := os.Rename(tmp.Name(), target); err != nil {
		return forecast.StoredObject{}, err
	}

	hash := md5.Sum(data)
	return forecast.StoredObject{
		Key:         key,
		Size:        int64(len(data)),
		ContentType: contentType,
		ETag:        hex.EncodeToString(hash[:]),
	}, nil
}

var _ forecast.Sink = (*LocalSink)(nil)
