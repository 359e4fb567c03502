package forecast

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	apperrors "github.com/lassnet/powerdash/pkg/errors"
)

func TestServiceRunWritesAllFiles(t *testing.T) {
	sink := newStubSink()
	svc := newTestService(&stubLoad{}, &stubWeather{}, sink)
	date := time.Date(2024, 3, 5, 6, 0, 0, 0, time.UTC)

	manifest, err := svc.Run(context.Background(), date)
	require.NoError(t, err)
	require.Equal(t, "run-1", manifest.RunID)
	require.Len(t, manifest.Artifacts, 4)

	require.Equal(t, []string{
		"forecast/20240305_weekly_load_pred.csv",
		"forecast/20240305_monthly_load_pred.csv",
		"forecast/20240305_daily_weather_pred.csv",
		"forecast/20240305_weather.zip",
		"forecast/20240305_manifest.csv",
	}, sink.order)

	require.Equal(t, "0,1\n3500,1.2\n", string(sink.blobs["forecast/20240305_weekly_load_pred.csv"]))
	require.Equal(t, "PK", string(sink.blobs["forecast/20240305_weather.zip"]))
	require.Equal(t, "application/zip", sink.types["forecast/20240305_weather.zip"])
	require.Equal(t, int64(2), manifest.Artifacts[3].Bytes)
	require.Len(t, manifest.Artifacts[3].SHA256, 64)

	manifestCSV := string(sink.blobs["forecast/20240305_manifest.csv"])
	require.True(t, strings.HasPrefix(manifestCSV, "run_id,file,kind,bytes,sha256\n"))
	require.Contains(t, manifestCSV, "run-1,forecast/20240305_weather.zip,weather,2,")
}

func TestServiceRunStopsAtFirstFailure(t *testing.T) {
	sink := newStubSink()
	svc := newTestService(&stubLoad{monthlyErr: errors.New("connection reset")}, &stubWeather{}, sink)

	manifest, err := svc.Run(context.Background(), time.Date(2024, 3, 5, 6, 0, 0, 0, time.UTC))
	require.Error(t, err)
	require.True(t, apperrors.IsCode(err, apperrors.CodeFetch))
	require.Len(t, manifest.Artifacts, 1)
	require.Equal(t, []string{"forecast/20240305_weekly_load_pred.csv"}, sink.order)
}

func TestServiceRunKeepsDomainErrorCode(t *testing.T) {
	sink := newStubSink()
	weather := &stubWeather{grid: Grid{Header: []string{"縣市", "時間", "someday"}}}
	svc := newTestService(&stubLoad{}, weather, sink)

	_, err := svc.Run(context.Background(), time.Date(2024, 3, 5, 6, 0, 0, 0, time.UTC))
	require.True(t, apperrors.IsCode(err, apperrors.CodeParse))
	require.Len(t, sink.order, 2)
}

func newTestService(load LoadSource, weather WeatherSource, sink Sink) *service {
	return &service{
		cfg:     Config{Location: time.UTC, Prefix: "/forecast/"},
		load:    load,
		weather: weather,
		sink:    sink,
		logger:  slog.New(slog.NewTextHandler(io.Discard, nil)),
		newID:   func() string { return "run-1" },
	}
}

type stubLoad struct {
	monthlyErr error
}

func (s *stubLoad) Weekly(context.Context) ([][]string, error) {
	return [][]string{{"3500", "1.2"}, {"3600", ""}}, nil
}

func (s *stubLoad) Monthly(context.Context) ([][]string, error) {
	if s.monthlyErr != nil {
		return nil, s.monthlyErr
	}
	return [][]string{{"2024/03", "36000"}}, nil
}

type stubWeather struct {
	grid Grid
}

func (s *stubWeather) WeekTable(context.Context) (Grid, error) {
	if s.grid.Header != nil {
		return s.grid, nil
	}
	return Grid{
		Header: []string{"縣市", "時間", "3/5星期二"},
		Rows:   [][]string{{"臺北市", "白天", "18 - 22"}},
	}, nil
}

func (s *stubWeather) Archive(context.Context) ([]byte, error) {
	return []byte("PK"), nil
}

type stubSink struct {
	order []string
	blobs map[string][]byte
	types map[string]string
}

func newStubSink() *stubSink {
	return &stubSink{blobs: make(map[string][]byte), types: make(map[string]string)}
}

func (s *stubSink) Put(_ context.Context, key string, data []byte, contentType string) (StoredObject, error) {
	s.order = append(s.order, key)
	s.blobs[key] = data
	s.types[key] = contentType
	return StoredObject{Key: key, Size: int64(len(data)), ContentType: contentType}, nil
}
