package cwb

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"

	apperrors "github.com/lassnet/powerdash/pkg/errors"
)

func TestWeekTable(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(weekPage))
	}))
	defer server.Close()

	client := NewClient(Config{WeekURL: server.URL}, discardLogger())
	grid, err := client.WeekTable(context.Background())
	require.NoError(t, err)
	require.Len(t, grid.Rows, 2)
}

func TestArchiveSendsKey(t *testing.T) {
	var gotKey, gotFormat string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotKey = r.URL.Query().Get("Authorization")
		gotFormat = r.URL.Query().Get("format")
		_, _ = w.Write([]byte("PK\x03\x04"))
	}))
	defer server.Close()

	client := NewClient(Config{ArchiveURL: server.URL + "/F-D0047-093", APIKey: "secret"}, discardLogger())
	data, err := client.Archive(context.Background())
	require.NoError(t, err)
	require.Equal(t, "secret", gotKey)
	require.Equal(t, "ZIP", gotFormat)
	require.Equal(t, []byte("PK\x03\x04"), data)
}

func TestArchiveRequiresKey(t *testing.T) {
	client := NewClient(Config{}, discardLogger())
	_, err := client.Archive(context.Background())
	require.True(t, apperrors.IsCode(err, apperrors.CodeInvalidInput))
}

func TestArchiveStatusError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	}))
	defer server.Close()

	client := NewClient(Config{ArchiveURL: server.URL, APIKey: "bad"}, discardLogger())
	_, err := client.Archive(context.Background())
	require.True(t, apperrors.IsCode(err, apperrors.CodeFetch))
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}
