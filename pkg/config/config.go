// Package config contains all knobs and defaults used to configure the feed explorer
// when running as a CLI or as an HTTP server for a presentation layer.
package config

import (
	"errors"
	"fmt"
	"net"
	"net/url"
	"time"
)

const (
	DefaultAPIBaseURL              = "https://jsonplaceholder.typicode.com"
	DefaultAPITimeout              = 10 * time.Second
	DefaultAPIMaxRetries           = 0
	DefaultAPIMaxConcurrentFetches = 10

	// DefaultCacheMaxEntries of zero keeps every fetched page, user list and comment
	// list for the lifetime of the process.
	DefaultCacheMaxEntries = 0

	DefaultPageSize    = 10
	DefaultSearchMode  = "full"
	DefaultMaxPageSize = 100

	DefaultHTTPAddr           = "0.0.0.0:8080"
	DefaultHTTPRequestTimeout = 30 * time.Second
)

// APIConfig configures the remote content API the gateway talks to.
type APIConfig struct {
	// BaseURL is the root of the content API (e.g. 'https://jsonplaceholder.typicode.com').
	BaseURL string

	// Timeout bounds a single HTTP request, including reading the body.
	Timeout time.Duration

	// MaxRetries is the number of extra attempts for a failed request. Zero means a
	// failed fetch surfaces immediately.
	MaxRetries int

	// MaxConcurrentFetches bounds the fan-out when comments for many posts are fetched.
	MaxConcurrentFetches int
}

// CacheConfig defines the memoization settings of the gateway.
type CacheConfig struct {
	// MaxEntries bounds every memo table. Zero keeps entries forever.
	MaxEntries int
}

// ShouldBound reports whether a bounded cache backend has to be used.
func (c CacheConfig) ShouldBound() bool {
	return c.MaxEntries > 0
}

// FeedConfig defines the defaults of a feed session.
type FeedConfig struct {
	PageSize    int
	DefaultMode string
}

type TLSConfig struct {
	Enabled  bool
	CertPath string `mapstructure:"cert"`
	KeyPath  string `mapstructure:"key"`
}

// HTTPConfig defines the HTTP surface used by a presentation layer.
type HTTPConfig struct {
	Addr string
	TLS  *TLSConfig

	// CORSAllowedOrigins specifies the CORS allowed origins.
	CORSAllowedOrigins []string

	// CORSAllowedHeaders specifies the CORS allowed headers.
	CORSAllowedHeaders []string

	// RequestTimeout bounds the handling of one request. Zero disables it.
	RequestTimeout time.Duration
}

// LogConfig defines log specific settings. For production we recommend using the 'json'
// log format.
type LogConfig struct {
	// Format is the log format to use in the log output (e.g. 'text' or 'json')
	Format string

	// Level is the log level to use in the log output (e.g. 'none', 'debug', or 'info')
	Level string
}

type TraceConfig struct {
	Enabled     bool
	OTLP        OTLPTraceConfig `mapstructure:"otlp"`
	SampleRatio float64
	ServiceName string
}

type OTLPTraceConfig struct {
	Endpoint string
}

// MetricConfig defines configurations for serving prometheus metrics.
type MetricConfig struct {
	Enabled bool
}

type Config struct {
	API     APIConfig
	Cache   CacheConfig
	Feed    FeedConfig
	HTTP    HTTPConfig
	Log     LogConfig
	Trace   TraceConfig
	Metrics MetricConfig
}

func (cfg *Config) Verify() error {
	if _, err := url.ParseRequestURI(cfg.API.BaseURL); err != nil {
		return fmt.Errorf("config 'api.baseURL' is not a valid URL: %w", err)
	}

	if cfg.API.Timeout < 0 {
		return errors.New("config 'api.timeout' cannot be negative")
	}

	if cfg.API.MaxRetries < 0 {
		return errors.New("config 'api.maxRetries' cannot be negative")
	}

	if cfg.API.MaxConcurrentFetches < 1 {
		return errors.New("config 'api.maxConcurrentFetches' must be at least 1")
	}

	if cfg.Cache.MaxEntries < 0 {
		return errors.New("config 'cache.maxEntries' cannot be negative")
	}

	if cfg.Feed.PageSize < 1 || cfg.Feed.PageSize > DefaultMaxPageSize {
		return fmt.Errorf("config 'feed.pageSize' must be between 1 and %d", DefaultMaxPageSize)
	}

	switch cfg.Feed.DefaultMode {
	case "title", "full", "fuzzy":
	default:
		return fmt.Errorf("config 'feed.defaultMode' must be one of ['title', 'full', 'fuzzy']")
	}

	if cfg.Log.Format != "text" && cfg.Log.Format != "json" {
		return fmt.Errorf("config 'log.format' must be one of ['text', 'json']")
	}

	if cfg.Log.Level != "none" &&
		cfg.Log.Level != "debug" &&
		cfg.Log.Level != "info" &&
		cfg.Log.Level != "warn" &&
		cfg.Log.Level != "error" &&
		cfg.Log.Level != "panic" &&
		cfg.Log.Level != "fatal" {
		return fmt.Errorf(
			"config 'log.level' must be one of ['none', 'debug', 'info', 'warn', 'error', 'panic', 'fatal']",
		)
	}

	if _, _, err := net.SplitHostPort(cfg.HTTP.Addr); err != nil {
		return fmt.Errorf("config 'http.addr' is invalid: %w", err)
	}

	if cfg.HTTP.RequestTimeout < 0 {
		return errors.New("config 'http.requestTimeout' cannot be negative")
	}

	if cfg.HTTP.TLS != nil && cfg.HTTP.TLS.Enabled {
		if cfg.HTTP.TLS.CertPath == "" || cfg.HTTP.TLS.KeyPath == "" {
			return errors.New("'http.tls.cert' and 'http.tls.key' configs must be set")
		}
	}

	if cfg.Trace.Enabled && (cfg.Trace.SampleRatio < 0 || cfg.Trace.SampleRatio > 1) {
		return errors.New("config 'trace.sampleRatio' must be within [0, 1]")
	}

	return nil
}

// DefaultConfig returns the feed explorer's default configuration values.
func DefaultConfig() *Config {
	return &Config{
		API: APIConfig{
			BaseURL:              DefaultAPIBaseURL,
			Timeout:              DefaultAPITimeout,
			MaxRetries:           DefaultAPIMaxRetries,
			MaxConcurrentFetches: DefaultAPIMaxConcurrentFetches,
		},
		Cache: CacheConfig{
			MaxEntries: DefaultCacheMaxEntries,
		},
		Feed: FeedConfig{
			PageSize:    DefaultPageSize,
			DefaultMode: DefaultSearchMode,
		},
		HTTP: HTTPConfig{
			Addr:               DefaultHTTPAddr,
			TLS:                &TLSConfig{Enabled: false},
			CORSAllowedOrigins: []string{"*"},
			CORSAllowedHeaders: []string{"*"},
			RequestTimeout:     DefaultHTTPRequestTimeout,
		},
		Log: LogConfig{
			Format: "text",
			Level:  "info",
		},
		Trace: TraceConfig{
			Enabled:     false,
			OTLP:        OTLPTraceConfig{Endpoint: "0.0.0.0:4317"},
			SampleRatio: 0.2,
			ServiceName: "feedexplorer",
		},
		Metrics: MetricConfig{
			Enabled: true,
		},
	}
}
