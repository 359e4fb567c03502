package forecast

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"log/slog"
	"path"
	"strings"
	"time"

	"github.com/google/uuid"

	apperrors "github.com/lassnet/powerdash/pkg/errors"
	"github.com/lassnet/powerdash/pkg/metrics"
)

// Service downloads the daily forecast files.
type Service interface {
	Run(ctx context.Context, date time.Time) (Manifest, error)
}

type service struct {
	cfg     Config
	load    LoadSource
	weather WeatherSource
	sink    Sink
	logger  *slog.Logger
	newID   func() string
}

// NewService wires up the forecast downloader.
func NewService(cfg Config, load LoadSource, weather WeatherSource, sink Sink, logger *slog.Logger) Service {
	if cfg.Location == nil {
		cfg.Location = time.FixedZone("Asia/Taipei", 8*60*60)
	}
	return &service{
		cfg:     cfg,
		load:    load,
		weather: weather,
		sink:    sink,
		logger:  logger.With("component", "forecast.service"),
		newID:   uuid.NewString,
	}
}

type step struct {
	kind  Kind
	build func(ctx context.Context) ([]byte, error)
}

// Run performs every download in order and stops at the first failure.
// Files already written by earlier steps are left in place.
func (s *service) Run(ctx context.Context, date time.Time) (Manifest, error) {
	date = date.In(s.cfg.Location)
	manifest := Manifest{RunID: s.newID(), Date: date}
	logger := s.logger.With("runId", manifest.RunID, "date", date.Format("2006-01-02"))

	steps := []step{
		{kind: KindWeeklyLoad, build: func(ctx context.Context) ([]byte, error) {
			records, err := s.load.Weekly(ctx)
			if err != nil {
				return nil, err
			}
			return EncodeIndexed(DropIncomplete(records))
		}},
		{kind: KindMonthlyLoad, build: func(ctx context.Context) ([]byte, error) {
			records, err := s.load.Monthly(ctx)
			if err != nil {
				return nil, err
			}
			return EncodeIndexed(DropIncomplete(records))
		}},
		{kind: KindDailyWeather, build: func(ctx context.Context) ([]byte, error) {
			grid, err := s.weather.WeekTable(ctx)
			if err != nil {
				return nil, err
			}
			rows, err := MeltWeather(grid, date.Year(), s.cfg.Location)
			if err != nil {
				return nil, err
			}
			return EncodeWeather(rows)
		}},
		{kind: KindWeatherZip, build: s.weather.Archive},
	}

	for _, st := range steps {
		start := time.Now()
		artifact, err := s.write(ctx, date, st.kind, st.build)
		metrics.ObserveForecastStep(string(st.kind), err, time.Since(start))
		if err != nil {
			logger.Error("forecast step failed", "kind", st.kind, "error", err)
			return manifest, err
		}
		manifest.Artifacts = append(manifest.Artifacts, artifact)
		logger.Info("forecast file written", "file", artifact.Name, "bytes", artifact.Bytes)
	}

	start := time.Now()
	_, err := s.write(ctx, date, KindManifest, func(context.Context) ([]byte, error) {
		return encodeManifest(manifest)
	})
	metrics.ObserveForecastStep(string(KindManifest), err, time.Since(start))
	if err != nil {
		logger.Error("forecast manifest failed", "error", err)
		return manifest, err
	}
	logger.Info("forecast run completed", "files", len(manifest.Artifacts)+1)
	return manifest, nil
}

func (s *service) write(ctx context.Context, date time.Time, kind Kind, build func(context.Context) ([]byte, error)) (Artifact, error) {
	if err := ctx.Err(); err != nil {
		return Artifact{}, err
	}
	data, err := build(ctx)
	if err != nil {
		if apperrors.CodeOf(err) == "" {
			err = apperrors.Wrap(apperrors.CodeFetch, fmt.Sprintf("build %s", kind), err)
		}
		return Artifact{}, err
	}
	name := FileName(date, kind)
	key := name
	if prefix := strings.Trim(s.cfg.Prefix, "/"); prefix != "" {
		key = path.Join(prefix, name)
	}
	obj, err := s.sink.Put(ctx, key, data, kind.ContentType())
	if err != nil {
		return Artifact{}, fmt.Errorf("store %s: %w", key, err)
	}
	sum := sha256.Sum256(data)
	return Artifact{
		Kind:   kind,
		Name:   obj.Key,
		Bytes:  int64(len(data)),
		SHA256: hex.EncodeToString(sum[:]),
	}, nil
}
