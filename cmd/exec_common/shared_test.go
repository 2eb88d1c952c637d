package exec_common

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/spf13/pflag"
	"github.com/stretchr/testify/require"

	"github.com/Jyoti-coder1/Postsphere-feed-explorer/cmd/util"
	"github.com/Jyoti-coder1/Postsphere-feed-explorer/pkg/config"
	"github.com/Jyoti-coder1/Postsphere-feed-explorer/pkg/content"
	"github.com/Jyoti-coder1/Postsphere-feed-explorer/pkg/logger"
)

func TestNewOutputFormat(t *testing.T) {
	format, err := NewOutputFormat("json")
	require.NoError(t, err)
	require.Equal(t, JSON, format)

	format, err = NewOutputFormat("text")
	require.NoError(t, err)
	require.Equal(t, Text, format)

	_, err = NewOutputFormat("yaml")
	require.ErrorContains(t, err, "invalid output format")
}

func TestReadConfigFromFlags(t *testing.T) {
	util.PrepareTempConfigDir(t)

	flags := pflag.NewFlagSet("test", pflag.ContinueOnError)
	AddAPIFlags(flags)
	require.NoError(t, flags.Parse([]string{
		"--api-base-url", "http://localhost:3000",
		"--api-timeout", "3s",
		"--api-max-retries", "2",
		"--cache-max-entries", "500",
	}))
	BindAPIFlags(flags)

	cfg, err := ReadConfig()
	require.NoError(t, err)
	require.Equal(t, "http://localhost:3000", cfg.API.BaseURL)
	require.Equal(t, 2, cfg.API.MaxRetries)
	require.Equal(t, 500, cfg.Cache.MaxEntries)
	require.Equal(t, config.DefaultAPIMaxConcurrentFetches, cfg.API.MaxConcurrentFetches)

	require.NoError(t, flags.Set("api-max-retries", "-1"))
	_, err = ReadConfig()
	require.ErrorContains(t, err, "api.maxRetries")
}

func TestNewGateway(t *testing.T) {
	var calls atomic.Int32
	api := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		calls.Add(1)
		_ = json.NewEncoder(w).Encode([]content.User{{ID: 1, Name: "Leanne Graham"}})
	}))
	t.Cleanup(api.Close)

	for name, maxEntries := range map[string]int{"unbounded": 0, "bounded": 10} {
		t.Run(name, func(t *testing.T) {
			calls.Store(0)

			cfg := config.DefaultConfig()
			cfg.API.BaseURL = api.URL
			cfg.Cache.MaxEntries = maxEntries

			gw, err := NewGateway(cfg, logger.NewNoopLogger())
			require.NoError(t, err)
			t.Cleanup(gw.Cache().Close)

			for i := 0; i < 3; i++ {
				users, err := gw.FetchUsers(context.Background())
				require.NoError(t, err)
				require.Len(t, users, 1)
			}
			require.Equal(t, int32(1), calls.Load())
		})
	}
}
