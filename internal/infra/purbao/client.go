package purbao

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/lassnet/powerdash/internal/domain/energy"
	apperrors "github.com/lassnet/powerdash/pkg/errors"
	"github.com/lassnet/powerdash/pkg/metrics"
)

const (
	defaultBaseURL = "https://purbao.lass-net.org"
	defaultTimeout = 10 * time.Second

	loadDateLayout    = "2006/01/02"
	weatherDateLayout = "2006/1/2"
)

// Config describes the upstream endpoints.
type Config struct {
	BaseURL     string
	LoadPath    string
	RatioPath   string
	WeatherPath string
	Timeout     time.Duration
}

// Client fetches one day of a purbao time-series feed.
type Client struct {
	baseURL    string
	paths      map[energy.Source]string
	httpClient *http.Client
	logger     *slog.Logger
}

// NewClient builds an API client.
func NewClient(cfg Config, logger *slog.Logger) *Client {
	base := strings.TrimSpace(cfg.BaseURL)
	if base == "" {
		base = defaultBaseURL
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	return &Client{
		baseURL: strings.TrimRight(base, "/"),
		paths: map[energy.Source]string{
			energy.SourceLoad:    pathOr(cfg.LoadPath, "powerLoad"),
			energy.SourceRatio:   pathOr(cfg.RatioPath, "powerRatio"),
			energy.SourceWeather: pathOr(cfg.WeatherPath, "weatherData"),
		},
		httpClient: &http.Client{Timeout: timeout},
		logger:     logger.With("component", "purbao.client"),
	}
}

// FetchDay retrieves one day of source and returns it in long form.
func (c *Client) FetchDay(ctx context.Context, source energy.Source, date time.Time) (table energy.LongTable, err error) {
	start := time.Now()
	defer func() {
		metrics.ObserveFetch(string(source), err, time.Since(start))
	}()

	path, ok := c.paths[source]
	if !ok {
		return nil, apperrors.Wrap(apperrors.CodeInvalidInput, fmt.Sprintf("unknown source %q", source), nil)
	}
	endpoint := fmt.Sprintf("%s/%s?date=%s", c.baseURL, path, url.QueryEscape(formatDate(source, date)))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, energy.NewFetchError(source, date, 0, fmt.Errorf("build request: %w", err))
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, energy.NewFetchError(source, date, 0, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		payload, _ := io.ReadAll(io.LimitReader(resp.Body, 4<<10))
		return nil, energy.NewFetchError(source, date, resp.StatusCode, fmt.Errorf("body=%s", strings.TrimSpace(string(payload))))
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, energy.NewFetchError(source, date, resp.StatusCode, fmt.Errorf("read body: %w", err))
	}

	var fields []string
	if source == energy.SourceWeather {
		fields = weatherKeys
	}
	obs, err := decodeObservations(body, fields)
	if err != nil {
		return nil, apperrors.Wrap(apperrors.CodeParse, fmt.Sprintf("decode %s payload for %s", source, date.Format(loadDateLayout)), err)
	}

	table = energy.Melt(date, obs)
	if source == energy.SourceWeather {
		table = energy.MedianByKey(table)
	}
	c.logger.Debug("purbao day fetched", "source", source, "date", formatDate(source, date), "observations", len(obs), "records", len(table))
	return table, nil
}

// formatDate renders date the way each endpoint expects it. The weather
// endpoint wants month and day without zero padding.
func formatDate(source energy.Source, date time.Time) string {
	if source == energy.SourceWeather {
		return date.Format(weatherDateLayout)
	}
	return date.Format(loadDateLayout)
}

func pathOr(path, fallback string) string {
	path = strings.Trim(strings.TrimSpace(path), "/")
	if path == "" {
		return fallback
	}
	return path
}
