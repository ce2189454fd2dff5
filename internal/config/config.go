package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

type RuntimeConfig struct {
	Dev bool
}

type LogConfig struct {
	Level    string `yaml:"level"`    // trace|debug|info|warn|error
	Format   string `yaml:"format"`   // json|console
	Sampling bool   `yaml:"sampling"` // enable sampling in prod
}

type ServerConfig struct {
	Port    int    `yaml:"port"`
	BaseURL string `yaml:"base_url"` // public base URL, used for callback and download links
}

type DatabaseConfig struct {
	URL string `yaml:"url"`
}

type RedisConfig struct {
	URL      string        `yaml:"url"`
	Password string        `yaml:"password"`
	DB       int           `yaml:"db"`
	TTL      time.Duration `yaml:"ttl"`
}

// GatewayConfig carries the hosted-payment-page processor settings. The
// signing secret is shared with the processor and must never be hardcoded.
type GatewayConfig struct {
	MerchantID string `yaml:"merchant_id"`
	Secret     string `yaml:"secret"`
	PayURL     string `yaml:"pay_url"` // processor's hosted page endpoint
	PageLang   string `yaml:"page_lang"`
}

type StorageConfig struct {
	Bucket        string        `yaml:"bucket"`
	DownloadTTL   time.Duration `yaml:"download_ttl"`
	TokenSecret   string        `yaml:"token_secret"`
	PublicBaseURL string        `yaml:"public_base_url"` // bucket CDN prefix
}

type InvoicingConfig struct {
	URL       string        `yaml:"url"`
	APIKey    string        `yaml:"api_key"`
	APISecret string        `yaml:"api_secret"`
	Timeout   time.Duration `yaml:"timeout"`
}

type ConverterConfig struct {
	URL     string        `yaml:"url"`
	Timeout time.Duration `yaml:"timeout"`
}

type MailConfig struct {
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	Username string `yaml:"username"`
	Password string `yaml:"password"`
	From     string `yaml:"from"`
}

type AnalyticsConfig struct {
	URL     string        `yaml:"url"`
	Token   string        `yaml:"token"`
	Timeout time.Duration `yaml:"timeout"`
}

type ReaperConfig struct {
	Interval   time.Duration `yaml:"interval"`
	StaleAfter time.Duration `yaml:"stale_after"`
}

type Config struct {
	Log       LogConfig       `yaml:"log"`
	Server    ServerConfig    `yaml:"server"`
	Database  DatabaseConfig  `yaml:"database"`
	Redis     RedisConfig     `yaml:"redis"`
	Gateway   GatewayConfig   `yaml:"gateway"`
	Storage   StorageConfig   `yaml:"storage"`
	Invoicing InvoicingConfig `yaml:"invoicing"`
	Converter ConverterConfig `yaml:"converter"`
	Mail      MailConfig      `yaml:"mail"`
	Analytics AnalyticsConfig `yaml:"analytics"`
	Reaper    ReaperConfig    `yaml:"reaper"`

	Runtime RuntimeConfig `yaml:"-"`
}

func LoadConfig(path string, dev bool) (*Config, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}
	var cfg Config
	if err := yaml.Unmarshal(b, &cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}

	// defaults
	if cfg.Log.Level == "" {
		cfg.Log.Level = "info"
	}
	if cfg.Log.Format == "" {
		cfg.Log.Format = "json"
	}
	if cfg.Server.Port == 0 {
		cfg.Server.Port = 8080
	}
	if cfg.Gateway.PageLang == "" {
		cfg.Gateway.PageLang = "HEB"
	}
	if cfg.Storage.DownloadTTL <= 0 {
		cfg.Storage.DownloadTTL = 24 * time.Hour
	}
	if cfg.Invoicing.Timeout <= 0 {
		cfg.Invoicing.Timeout = 10 * time.Second
	}
	if cfg.Converter.Timeout <= 0 {
		cfg.Converter.Timeout = 15 * time.Second
	}
	if cfg.Analytics.Timeout <= 0 {
		cfg.Analytics.Timeout = 3 * time.Second
	}
	if cfg.Reaper.Interval <= 0 {
		cfg.Reaper.Interval = time.Minute
	}
	if cfg.Reaper.StaleAfter <= 0 {
		cfg.Reaper.StaleAfter = 2 * time.Hour
	}

	// Minimal validation. The gateway secret and bucket fail closed here:
	// without them no callback can verify and no document can be stored.
	if cfg.Database.URL == "" {
		return nil, errors.New("database.url is required")
	}
	if cfg.Gateway.MerchantID == "" {
		return nil, errors.New("gateway.merchant_id is required")
	}
	if cfg.Gateway.Secret == "" {
		return nil, errors.New("gateway.secret is required")
	}
	if cfg.Gateway.PayURL == "" {
		return nil, errors.New("gateway.pay_url is required")
	}
	if cfg.Storage.Bucket == "" {
		return nil, errors.New("storage.bucket is required")
	}
	if cfg.Server.BaseURL == "" {
		return nil, errors.New("server.base_url is required")
	}

	cfg.Runtime.Dev = dev
	return &cfg, nil
}
