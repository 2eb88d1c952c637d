package exec_common

import (
	"errors"
	"fmt"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/Jyoti-coder1/Postsphere-feed-explorer/cmd/util"
	"github.com/Jyoti-coder1/Postsphere-feed-explorer/pkg/cache"
	"github.com/Jyoti-coder1/Postsphere-feed-explorer/pkg/config"
	"github.com/Jyoti-coder1/Postsphere-feed-explorer/pkg/gateway"
	"github.com/Jyoti-coder1/Postsphere-feed-explorer/pkg/logger"
)

// OutputFormat type to define how a command prints its result
type OutputFormat string

const (
	Text OutputFormat = "text"
	JSON OutputFormat = "json"
)

func (o OutputFormat) String() string {
	return string(o)
}

func NewOutputFormat(format string) (OutputFormat, error) {
	for _, f := range []OutputFormat{Text, JSON} {
		if f.String() == format {
			return f, nil
		}
	}
	return "", fmt.Errorf("invalid output format '(%s)', must be one of ['text', 'json']", format)
}

// AddAPIFlags defines the flags shared by every command that reads from the content API.
func AddAPIFlags(flags *pflag.FlagSet) {
	defaultConfig := config.DefaultConfig()

	flags.String("api-base-url", defaultConfig.API.BaseURL, "the base URL of the content API")
	flags.Duration("api-timeout", defaultConfig.API.Timeout, "the timeout of a single request to the content API")
	flags.Int("api-max-retries", defaultConfig.API.MaxRetries, "the number of retries of a failed request to the content API")
	flags.Int("api-max-concurrent-fetches", defaultConfig.API.MaxConcurrentFetches, "the maximum number of concurrent comment fetches")
	flags.Int("cache-max-entries", defaultConfig.Cache.MaxEntries, "the maximum number of entries per cache table, 0 keeps every entry")
	flags.String("log-format", defaultConfig.Log.Format, "the log format to output logs in")
	flags.String("log-level", defaultConfig.Log.Level, "the log level to use")
}

// BindAPIFlags binds the flags defined by AddAPIFlags to the equivalent config values
// managed by viper. It has to run in PreRun so that the last bound command wins.
func BindAPIFlags(flags *pflag.FlagSet) {
	util.MustBindPFlag("api.baseURL", flags.Lookup("api-base-url"))
	util.MustBindEnv("api.baseURL", "FEEDEXPLORER_API_BASE_URL", "FEEDEXPLORER_API_BASEURL")

	util.MustBindPFlag("api.timeout", flags.Lookup("api-timeout"))
	util.MustBindEnv("api.timeout", "FEEDEXPLORER_API_TIMEOUT")

	util.MustBindPFlag("api.maxRetries", flags.Lookup("api-max-retries"))
	util.MustBindEnv("api.maxRetries", "FEEDEXPLORER_API_MAX_RETRIES", "FEEDEXPLORER_API_MAXRETRIES")

	util.MustBindPFlag("api.maxConcurrentFetches", flags.Lookup("api-max-concurrent-fetches"))
	util.MustBindEnv("api.maxConcurrentFetches", "FEEDEXPLORER_API_MAX_CONCURRENT_FETCHES", "FEEDEXPLORER_API_MAXCONCURRENTFETCHES")

	util.MustBindPFlag("cache.maxEntries", flags.Lookup("cache-max-entries"))
	util.MustBindEnv("cache.maxEntries", "FEEDEXPLORER_CACHE_MAX_ENTRIES", "FEEDEXPLORER_CACHE_MAXENTRIES")

	util.MustBindPFlag("log.format", flags.Lookup("log-format"))
	util.MustBindEnv("log.format", "FEEDEXPLORER_LOG_FORMAT")

	util.MustBindPFlag("log.level", flags.Lookup("log-level"))
	util.MustBindEnv("log.level", "FEEDEXPLORER_LOG_LEVEL")
}

// ReadConfig returns the feed explorer configuration based on the values provided in the 'config.yaml' file.
// The 'config.yaml' file is loaded from '/etc/feedexplorer', '$HOME/.feedexplorer', or the current working directory. If no configuration
// file is present, the default values are returned.
func ReadConfig() (*config.Config, error) {
	cfg := config.DefaultConfig()

	viper.SetTypeByDefaultValue(true)
	err := viper.ReadInConfig()
	if err != nil {
		if !errors.As(err, &viper.ConfigFileNotFoundError{}) {
			return nil, fmt.Errorf("failed to load config: %w", err)
		}
	}

	if err := viper.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := cfg.Verify(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// NewGateway builds the gateway client, its caches and its HTTP transport from cfg.
// The caller owns the returned client and should close its cache when done.
func NewGateway(cfg *config.Config, l logger.Logger) (*gateway.Client, error) {
	var cacheOpts []cache.Opt
	if cfg.Cache.ShouldBound() {
		cacheOpts = append(cacheOpts, cache.WithMaxEntries(int64(cfg.Cache.MaxEntries)))
	}

	c, err := gateway.NewCache(cacheOpts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create the gateway cache: %w", err)
	}

	transport := gateway.DefaultTransportConfig()
	transport.Timeout = cfg.API.Timeout
	transport.MaxRetries = cfg.API.MaxRetries

	return gateway.NewClient(c,
		gateway.WithBaseURL(cfg.API.BaseURL),
		gateway.WithHTTPClient(gateway.NewHTTPClient(transport, l)),
		gateway.WithLogger(l),
		gateway.WithMaxConcurrentFetches(cfg.API.MaxConcurrentFetches),
	), nil
}
