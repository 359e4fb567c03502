package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Config aggregates runtime configuration used across the service.
type Config struct {
	HTTP     HTTPConfig     `yaml:"http"`
	Energy   EnergyConfig   `yaml:"energy"`
	Forecast ForecastConfig `yaml:"forecast"`
}

// HTTPConfig controls server level behavior.
type HTTPConfig struct {
	Address        string          `yaml:"address"`
	ReadTimeout    time.Duration   `yaml:"readTimeout"`
	WriteTimeout   time.Duration   `yaml:"writeTimeout"`
	AllowedOrigins []string        `yaml:"allowedOrigins"`
	RateLimit      RateLimitConfig `yaml:"rateLimit"`
	Gzip           bool            `yaml:"gzip"`
}

// RateLimitConfig drives the request limiting middleware.
type RateLimitConfig struct {
	Enabled           bool `yaml:"enabled"`
	RequestsPerMinute int  `yaml:"requestsPerMinute"`
	Burst             int  `yaml:"burst"`
}

// EnergyConfig controls the dashboard pipeline and its upstream feeds.
type EnergyConfig struct {
	BaseURL         string        `yaml:"baseUrl"`
	LoadPath        string        `yaml:"loadPath"`
	RatioPath       string        `yaml:"ratioPath"`
	WeatherPath     string        `yaml:"weatherPath"`
	RequestTimeout  time.Duration `yaml:"requestTimeout"`
	Timezone        string        `yaml:"timezone"`
	DefaultLookback int           `yaml:"defaultLookback"`
	MaxLookback     int           `yaml:"maxLookback"`
	WeatherLookback int           `yaml:"weatherLookback"`
}

// ForecastConfig controls the forecast downloader.
type ForecastConfig struct {
	WeeklyLoadURL  string        `yaml:"weeklyLoadUrl"`
	MonthlyLoadURL string        `yaml:"monthlyLoadUrl"`
	WeatherWeekURL string        `yaml:"weatherWeekUrl"`
	WeatherZipURL  string        `yaml:"weatherZipUrl"`
	CWBAPIKey      string        `yaml:"cwbApiKey"`
	RequestTimeout time.Duration `yaml:"requestTimeout"`
	OutputDir      string        `yaml:"outputDir"`
	PushGatewayURL string        `yaml:"pushGatewayUrl"`
	R2             R2Config      `yaml:"r2"`
}

// R2Config contains S3-compatible bucket settings. Files go to the bucket
// instead of OutputDir when enabled.
type R2Config struct {
	Enabled   bool   `yaml:"enabled"`
	Endpoint  string `yaml:"endpoint"`
	AccessKey string `yaml:"accessKey"`
	SecretKey string `yaml:"secretKey"`
	Bucket    string `yaml:"bucket"`
	Region    string `yaml:"region"`
	Prefix    string `yaml:"prefix"`
}

// Load reads configuration from a YAML file and environment variables.
func Load() (*Config, error) {
	cfg := defaultConfig()

	if path := os.Getenv("CONFIG_PATH"); path != "" {
		if err := hydrateFromFile(cfg, path); err != nil {
			return nil, err
		}
	} else if _, err := os.Stat("configs/config.yaml"); err == nil {
		if err := hydrateFromFile(cfg, "configs/config.yaml"); err != nil {
			return nil, err
		}
	}

	applyEnvOverrides(cfg)

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return cfg, nil
}

func hydrateFromFile(cfg *Config, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config file: %w", err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return fmt.Errorf("parse config file: %w", err)
	}
	return nil
}

func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv("HTTP_ADDRESS"); v != "" {
		cfg.HTTP.Address = v
	}
	if v := os.Getenv("HTTP_ALLOWED_ORIGINS"); v != "" {
		cfg.HTTP.AllowedOrigins = splitList(v)
	}
	if v := os.Getenv("HTTP_GZIP"); v != "" {
		cfg.HTTP.Gzip = parseBool(v)
	}
	if v := os.Getenv("HTTP_RATE_LIMIT_ENABLED"); v != "" {
		cfg.HTTP.RateLimit.Enabled = parseBool(v)
	}
	if v := os.Getenv("HTTP_RATE_LIMIT_RPM"); v != "" {
		if parsed, err := strconv.Atoi(v); err == nil {
			cfg.HTTP.RateLimit.RequestsPerMinute = parsed
		}
	}
	if v := os.Getenv("HTTP_RATE_LIMIT_BURST"); v != "" {
		if parsed, err := strconv.Atoi(v); err == nil {
			cfg.HTTP.RateLimit.Burst = parsed
		}
	}

	if v := os.Getenv("ENERGY_BASE_URL"); v != "" {
		cfg.Energy.BaseURL = v
	}
	if v := os.Getenv("ENERGY_REQUEST_TIMEOUT"); v != "" {
		if parsed, err := time.ParseDuration(v); err == nil {
			cfg.Energy.RequestTimeout = parsed
		}
	}
	if v := os.Getenv("ENERGY_TIMEZONE"); v != "" {
		cfg.Energy.Timezone = v
	}
	if v := os.Getenv("ENERGY_DEFAULT_LOOKBACK"); v != "" {
		if parsed, err := strconv.Atoi(v); err == nil {
			cfg.Energy.DefaultLookback = parsed
		}
	}
	if v := os.Getenv("ENERGY_WEATHER_LOOKBACK"); v != "" {
		if parsed, err := strconv.Atoi(v); err == nil {
			cfg.Energy.WeatherLookback = parsed
		}
	}

	if v := os.Getenv("CWB_API_KEY"); v != "" {
		cfg.Forecast.CWBAPIKey = v
	}
	if v := os.Getenv("FORECAST_OUTPUT_DIR"); v != "" {
		cfg.Forecast.OutputDir = v
	}
	if v := os.Getenv("FORECAST_PUSHGATEWAY_URL"); v != "" {
		cfg.Forecast.PushGatewayURL = v
	}
	if v := os.Getenv("FORECAST_R2_ENABLED"); v != "" {
		cfg.Forecast.R2.Enabled = parseBool(v)
	}
	if v := os.Getenv("R2_ENDPOINT"); v != "" {
		cfg.Forecast.R2.Endpoint = v
	}
	if v := os.Getenv("R2_ACCESS_KEY"); v != "" {
		cfg.Forecast.R2.AccessKey = v
	}
	if v := os.Getenv("R2_SECRET_KEY"); v != "" {
		cfg.Forecast.R2.SecretKey = v
	}
	if v := os.Getenv("R2_BUCKET"); v != "" {
		cfg.Forecast.R2.Bucket = v
	}
	if v := os.Getenv("R2_REGION"); v != "" {
		cfg.Forecast.R2.Region = v
	}
}

func defaultConfig() *Config {
	return &Config{
		HTTP: HTTPConfig{
			Address:      ":8080",
			ReadTimeout:  5 * time.Second,
			WriteTimeout: 90 * time.Second,
			RateLimit: RateLimitConfig{
				Enabled:           true,
				RequestsPerMinute: 60,
				Burst:             20,
			},
			Gzip: true,
		},
		Energy: EnergyConfig{
			BaseURL:         "https://purbao.lass-net.org",
			LoadPath:        "powerLoad",
			RatioPath:       "powerRatio",
			WeatherPath:     "weatherData",
			RequestTimeout:  10 * time.Second,
			Timezone:        "Asia/Taipei",
			DefaultLookback: 7,
			MaxLookback:     7,
			WeatherLookback: 1,
		},
		Forecast: ForecastConfig{
			WeeklyLoadURL:  "https://www.taipower.com.tw/d006/loadGraph/loadGraph/data/reserve_forecast.txt",
			MonthlyLoadURL: "https://www.taipower.com.tw/d006/loadGraph/loadGraph/data/reserve_forecast_month.txt",
			WeatherWeekURL: "https://www.cwb.gov.tw/V8/C/W/County/MOD/wf7dayNC_NCSEI/ALL_Week.html",
			WeatherZipURL:  "https://opendata.cwb.gov.tw/fileapi/v1/opendataapi/F-D0047-093",
			RequestTimeout: 60 * time.Second,
			OutputDir:      "data/forecast",
			R2: R2Config{
				Region: "auto",
			},
		},
	}
}

// Location resolves the dashboard time zone, falling back to a fixed UTC+8
// zone when the tz database is unavailable.
func (c EnergyConfig) Location() *time.Location {
	if loc, err := time.LoadLocation(c.Timezone); err == nil {
		return loc
	}
	return time.FixedZone(c.Timezone, 8*60*60)
}

// Validate ensures the configuration is safe to use.
func (c *Config) Validate() error {
	if c.HTTP.Address == "" {
		return errors.New("http.address cannot be empty")
	}
	if c.HTTP.RateLimit.Enabled {
		if c.HTTP.RateLimit.RequestsPerMinute <= 0 {
			return errors.New("http.rateLimit.requestsPerMinute must be positive")
		}
		if c.HTTP.RateLimit.Burst <= 0 {
			return errors.New("http.rateLimit.burst must be positive")
		}
	}
	if strings.TrimSpace(c.Energy.BaseURL) == "" {
		return errors.New("energy.baseUrl cannot be empty")
	}
	if c.Energy.RequestTimeout <= 0 {
		return errors.New("energy.requestTimeout must be positive")
	}
	if strings.TrimSpace(c.Energy.Timezone) == "" {
		return errors.New("energy.timezone cannot be empty")
	}
	if c.Energy.MaxLookback <= 0 {
		return errors.New("energy.maxLookback must be positive")
	}
	if c.Energy.DefaultLookback <= 0 || c.Energy.DefaultLookback > c.Energy.MaxLookback {
		return errors.New("energy.defaultLookback must be between 1 and energy.maxLookback")
	}
	if c.Energy.WeatherLookback <= 0 || c.Energy.WeatherLookback > c.Energy.MaxLookback {
		return errors.New("energy.weatherLookback must be between 1 and energy.maxLookback")
	}
	if c.Forecast.RequestTimeout <= 0 {
		return errors.New("forecast.requestTimeout must be positive")
	}
	if c.Forecast.R2.Enabled {
		if strings.TrimSpace(c.Forecast.R2.Endpoint) == "" {
			return errors.New("forecast.r2.endpoint cannot be empty when r2 is enabled")
		}
		if strings.TrimSpace(c.Forecast.R2.Bucket) == "" {
			return errors.New("forecast.r2.bucket cannot be empty when r2 is enabled")
		}
		if c.Forecast.R2.AccessKey == "" || c.Forecast.R2.SecretKey == "" {
			return errors.New("forecast.r2 credentials cannot be empty when r2 is enabled")
		}
	} else if strings.TrimSpace(c.Forecast.OutputDir) == "" {
		return errors.New("forecast.outputDir cannot be empty")
	}
	return nil
}

func parseBool(v string) bool {
	return v == "1" || strings.EqualFold(v, "true")
}

func splitList(v string) []string {
	var out []string
	for _, part := range strings.Split(v, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}
