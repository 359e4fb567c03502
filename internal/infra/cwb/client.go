package cwb

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/lassnet/powerdash/internal/domain/forecast"
	apperrors "github.com/lassnet/powerdash/pkg/errors"
)

const (
	defaultWeekURL    = "https://www.cwb.gov.tw/V8/C/W/County/MOD/wf7dayNC_NCSEI/ALL_Week.html"
	defaultArchiveURL = "https://opendata.cwb.gov.tw/fileapi/v1/opendataapi/F-D0047-093"
	maxArchiveBytes   = 256 << 20
)

// Config holds the CWB endpoints and open data key.
type Config struct {
	WeekURL    string
	ArchiveURL string
	APIKey     string
	Timeout    time.Duration
}

// Client downloads Central Weather Bureau forecasts.
type Client struct {
	weekURL    string
	archiveURL string
	apiKey     string
	httpClient *http.Client
	logger     *slog.Logger
}

// NewClient builds a CWB client.
func NewClient(cfg Config, logger *slog.Logger) *Client {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 60 * time.Second
	}
	weekURL := strings.TrimSpace(cfg.WeekURL)
	if weekURL == "" {
		weekURL = defaultWeekURL
	}
	archiveURL := strings.TrimSpace(cfg.ArchiveURL)
	if archiveURL == "" {
		archiveURL = defaultArchiveURL
	}
	return &Client{
		weekURL:    weekURL,
		archiveURL: archiveURL,
		apiKey:     strings.TrimSpace(cfg.APIKey),
		httpClient: &http.Client{Timeout: timeout},
		logger:     logger.With("component", "cwb.client"),
	}
}

// WeekTable downloads the county seven day forecast page and returns its first table.
func (c *Client) WeekTable(ctx context.Context) (forecast.Grid, error) {
	body, err := c.get(ctx, c.weekURL, 8<<20)
	if err != nil {
		return forecast.Grid{}, err
	}
	grid, err := ParseFirstTable(bytes.NewReader(body))
	if err != nil {
		return forecast.Grid{}, apperrors.Wrap(apperrors.CodeParse, "parse cwb week table", err)
	}
	c.logger.Debug("cwb week table fetched", "columns", len(grid.Header), "rows", len(grid.Rows))
	return grid, nil
}

// Archive downloads the zipped township forecast dataset.
func (c *Client) Archive(ctx context.Context) ([]byte, error) {
	if c.apiKey == "" {
		return nil, apperrors.Wrap(apperrors.CodeInvalidInput, "cwb api key is not configured", nil)
	}
	u, err := url.Parse(c.archiveURL)
	if err != nil {
		return nil, fmt.Errorf("parse cwb archive url: %w", err)
	}
	q := u.Query()
	q.Set("Authorization", c.apiKey)
	q.Set("format", "ZIP")
	u.RawQuery = q.Encode()

	data, err := c.get(ctx, u.String(), maxArchiveBytes)
	if err != nil {
		return nil, err
	}
	c.logger.Debug("cwb archive fetched", "bytes", len(data))
	return data, nil
}

func (c *Client) get(ctx context.Context, endpoint string, limit int64) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("build cwb request: %w", err)
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, apperrors.Wrap(apperrors.CodeFetch, "cwb request failed", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		payload, _ := io.ReadAll(io.LimitReader(resp.Body, 4<<10))
		return nil, apperrors.Wrap(apperrors.CodeFetch,
			fmt.Sprintf("cwb request error: status=%d body=%s", resp.StatusCode, strings.TrimSpace(string(payload))), nil)
	}
	body, err := io.ReadAll(io.LimitReader(resp.Body, limit))
	if err != nil {
		return nil, apperrors.Wrap(apperrors.CodeFetch, "read cwb response", err)
	}
	return body, nil
}

var _ forecast.WeatherSource = (*Client)(nil)
