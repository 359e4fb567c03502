package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/lassnet/powerdash/internal/domain/forecast"
	"github.com/lassnet/powerdash/internal/infra/archive"
	"github.com/lassnet/powerdash/internal/infra/config"
	"github.com/lassnet/powerdash/internal/infra/cwb"
	"github.com/lassnet/powerdash/internal/infra/taipower"
	"github.com/lassnet/powerdash/pkg/logger"
	"github.com/lassnet/powerdash/pkg/metrics"
)

const pushJob = "powerdash_forecast"

func main() {
	_ = godotenv.Load()

	out := flag.String("out", "", "output directory (overrides forecast.outputDir)")
	date := flag.String("date", "", "run date as YYYYMMDD (defaults to today)")
	dryRun := flag.Bool("dry-run", false, "download and encode without writing files")
	flag.Parse()

	log := logger.NewNamed("powerdash-forecast")
	metrics.Init()
	if err := run(log, *out, *date, *dryRun); err != nil {
		log.Error("forecast run failed", "error", err)
		os.Exit(1)
	}
}

func run(log *slog.Logger, out, date string, dryRun bool) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load()
	if err != nil {
		return err
	}
	if strings.TrimSpace(out) != "" {
		cfg.Forecast.OutputDir = out
		cfg.Forecast.R2.Enabled = false
	}
	loc := cfg.Energy.Location()

	runDate := time.Now().In(loc)
	if strings.TrimSpace(date) != "" {
		runDate, err = time.ParseInLocation("20060102", strings.TrimSpace(date), loc)
		if err != nil {
			return fmt.Errorf("parse -date: %w", err)
		}
	}

	sink, prefix, err := buildSink(cfg.Forecast, dryRun, log)
	if err != nil {
		return err
	}

	svc := forecast.NewService(
		forecast.Config{Location: loc, Prefix: prefix},
		taipower.NewClient(taipower.Config{
			WeeklyURL:  cfg.Forecast.WeeklyLoadURL,
			MonthlyURL: cfg.Forecast.MonthlyLoadURL,
			Timeout:    cfg.Forecast.RequestTimeout,
		}, log),
		cwb.NewClient(cwb.Config{
			WeekURL:    cfg.Forecast.WeatherWeekURL,
			ArchiveURL: cfg.Forecast.WeatherZipURL,
			APIKey:     cfg.Forecast.CWBAPIKey,
			Timeout:    cfg.Forecast.RequestTimeout,
		}, log),
		sink,
		log,
	)

	manifest, err := svc.Run(ctx, runDate)
	pushMetrics(cfg.Forecast.PushGatewayURL, log)
	if err != nil {
		return err
	}
	for _, a := range manifest.Artifacts {
		log.Info("artifact", "runId", manifest.RunID, "file", a.Name, "bytes", a.Bytes, "sha256", a.SHA256)
	}
	return nil
}

func buildSink(cfg config.ForecastConfig, dryRun bool, log *slog.Logger) (forecast.Sink, string, error) {
	switch {
	case dryRun:
		log.Info("dry run, files are kept in memory")
		return archive.NewMemorySink(), "", nil
	case cfg.R2.Enabled:
		sink, err := archive.NewR2Sink(cfg.R2.Endpoint, cfg.R2.AccessKey, cfg.R2.SecretKey, cfg.R2.Bucket, cfg.R2.Region, log)
		if err != nil {
			return nil, "", err
		}
		log.Info("writing forecast files to bucket", "bucket", cfg.R2.Bucket, "prefix", cfg.R2.Prefix)
		return sink, cfg.R2.Prefix, nil
	default:
		sink, err := archive.NewLocalSink(cfg.OutputDir)
		if err != nil {
			return nil, "", err
		}
		log.Info("writing forecast files to directory", "dir", cfg.OutputDir)
		return sink, "", nil
	}
}

func pushMetrics(gatewayURL string, log *slog.Logger) {
	if strings.TrimSpace(gatewayURL) == "" {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := metrics.PushForecast(ctx, gatewayURL, pushJob); err != nil {
		log.Warn("push forecast metrics failed", "gateway", gatewayURL, "error", err)
		return
	}
	log.Info("forecast metrics pushed", "gateway", gatewayURL)
}
