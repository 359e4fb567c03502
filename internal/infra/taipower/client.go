package taipower

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"golang.org/x/text/encoding/traditionalchinese"
	"golang.org/x/text/transform"

	"github.com/lassnet/powerdash/internal/domain/forecast"
	apperrors "github.com/lassnet/powerdash/pkg/errors"
)

const (
	defaultWeeklyURL  = "https://www.taipower.com.tw/d006/loadGraph/loadGraph/data/reserve_forecast.txt"
	defaultMonthlyURL = "https://www.taipower.com.tw/d006/loadGraph/loadGraph/data/reserve_forecast_month.txt"
)

// Config holds the forecast file locations.
type Config struct {
	WeeklyURL  string
	MonthlyURL string
	Timeout    time.Duration
}

// Client downloads Taipower load forecasts.
type Client struct {
	weeklyURL  string
	monthlyURL string
	httpClient *http.Client
	logger     *slog.Logger
}

// NewClient builds a Taipower client.
func NewClient(cfg Config, logger *slog.Logger) *Client {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &Client{
		weeklyURL:  firstNonEmpty(cfg.WeeklyURL, defaultWeeklyURL),
		monthlyURL: firstNonEmpty(cfg.MonthlyURL, defaultMonthlyURL),
		httpClient: &http.Client{Timeout: timeout},
		logger:     logger.With("component", "taipower.client"),
	}
}

// Weekly returns the seven day forecast. The file is Big5 encoded.
func (c *Client) Weekly(ctx context.Context) ([][]string, error) {
	return c.fetch(ctx, c.weeklyURL, true)
}

// Monthly returns the monthly forecast.
func (c *Client) Monthly(ctx context.Context) ([][]string, error) {
	return c.fetch(ctx, c.monthlyURL, false)
}

func (c *Client) fetch(ctx context.Context, endpoint string, big5 bool) ([][]string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("build taipower request: %w", err)
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, apperrors.Wrap(apperrors.CodeFetch, "taipower request failed", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		payload, _ := io.ReadAll(io.LimitReader(resp.Body, 4<<10))
		return nil, apperrors.Wrap(apperrors.CodeFetch,
			fmt.Sprintf("taipower request error: status=%d body=%s", resp.StatusCode, strings.TrimSpace(string(payload))), nil)
	}

	var body io.Reader = resp.Body
	if big5 {
		body = transform.NewReader(body, traditionalchinese.Big5.NewDecoder())
	}
	reader := csv.NewReader(body)
	reader.FieldsPerRecord = -1
	reader.LazyQuotes = true
	reader.TrimLeadingSpace = true

	records, err := reader.ReadAll()
	if err != nil {
		return nil, apperrors.Wrap(apperrors.CodeParse, "decode taipower forecast", err)
	}
	c.logger.Debug("taipower forecast fetched", "url", endpoint, "records", len(records))
	return records, nil
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if strings.TrimSpace(v) != "" {
			return strings.TrimSpace(v)
		}
	}
	return ""
}

var _ forecast.LoadSource = (*Client)(nil)
