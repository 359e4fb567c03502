package archive

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestLocalSinkPut(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "forecast")
	sink, err := NewLocalSink(dir)
	require.NoError(t, err)

	obj, err := sink.Put(context.Background(), "2024/20240305_weather.zip", []byte("PK"), "application/zip")
	require.NoError(t, err)
	require.Equal(t, int64(2), obj.Size)
	require.NotEmpty(t, obj.ETag)

	data, err := os.ReadFile(filepath.Join(dir, "2024", "20240305_weather.zip"))
	require.NoError(t, err)
	require.Equal(t, "PK", string(data))

	entries, err := os.ReadDir(filepath.Join(dir, "2024"))
	require.NoError(t, err)
	require.Len(t, entries, 1)
}

func TestLocalSinkRejectsEscape(t *testing.T) {
	sink, err := NewLocalSink(t.TempDir())
	require.NoError(t, err)

	_, err = sink.Put(context.Background(), "../outside.csv", []byte("x"), "text/csv")
	require.Error(t, err)
}

func TestMemorySink(t *testing.T) {
	sink := NewMemorySink()
	_, err := sink.Put(context.Background(), "b.csv", []byte("2"), "text/csv")
	require.NoError(t, err)
	_, err = sink.Put(context.Background(), "a.csv", []byte("1"), "text/csv")
	require.NoError(t, err)

	require.Equal(t, []string{"a.csv", "b.csv"}, sink.Keys())
	data, ok := sink.Get("a.csv")
	require.True(t, ok)
	require.Equal(t, "1", string(data))
	_, ok = sink.Get("missing")
	require.False(t, ok)
}

func TestSanitizeEndpoint(t *testing.T) {
	require.Equal(t, "acct.r2.cloudflarestorage.com", sanitizeEndpoint("https://acct.r2.cloudflarestorage.com/bucket"))
	require.Equal(t, "localhost:9000", sanitizeEndpoint("http://localhost:9000"))
}
