// Package serve contains the command to run the feed explorer HTTP server.
package serve

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace/noop"
	"go.uber.org/zap"

	"github.com/Jyoti-coder1/Postsphere-feed-explorer/cmd/exec_common"
	"github.com/Jyoti-coder1/Postsphere-feed-explorer/pkg/config"
	"github.com/Jyoti-coder1/Postsphere-feed-explorer/pkg/logger"
	"github.com/Jyoti-coder1/Postsphere-feed-explorer/pkg/search"
	"github.com/Jyoti-coder1/Postsphere-feed-explorer/pkg/server"
	"github.com/Jyoti-coder1/Postsphere-feed-explorer/pkg/telemetry"
)

const shutdownTimeout = 5 * time.Second

func NewServeCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the feed explorer HTTP server",
		Long:  "Run the feed explorer HTTP server, exposing feed views, post details and users as JSON for a browser presentation layer.",
		RunE:  serve,
		Args:  cobra.NoArgs,
	}

	defaultConfig := config.DefaultConfig()
	flags := cmd.Flags()

	flags.String("http-addr", defaultConfig.HTTP.Addr, "the host:port address to serve the HTTP server on")
	flags.Bool("http-tls-enabled", defaultConfig.HTTP.TLS.Enabled, "enable/disable transport layer security (TLS)")
	flags.String("http-tls-cert", defaultConfig.HTTP.TLS.CertPath, "the (absolute) file path of the certificate to use for the TLS connection")
	flags.String("http-tls-key", defaultConfig.HTTP.TLS.KeyPath, "the (absolute) file path of the TLS key that should be used for the TLS connection")
	cmd.MarkFlagsRequiredTogether("http-tls-enabled", "http-tls-cert", "http-tls-key")
	flags.StringSlice("http-cors-allowed-origins", defaultConfig.HTTP.CORSAllowedOrigins, "specifies the CORS allowed origins")
	flags.StringSlice("http-cors-allowed-headers", defaultConfig.HTTP.CORSAllowedHeaders, "specifies the CORS allowed headers")
	flags.Duration("http-request-timeout", defaultConfig.HTTP.RequestTimeout, "the maximum time to handle one request, 0 disables it")

	flags.Int("feed-page-size", defaultConfig.Feed.PageSize, "the page size used when a request does not set one")
	flags.String("feed-default-mode", defaultConfig.Feed.DefaultMode, fmt.Sprintf("the search mode used when a request does not set one, one of %v", search.Modes()))

	flags.Bool("metrics-enabled", defaultConfig.Metrics.Enabled, "enable/disable prometheus metrics on the '/metrics' endpoint")

	flags.Bool("trace-enabled", defaultConfig.Trace.Enabled, "enable tracing")
	flags.String("trace-otlp-endpoint", defaultConfig.Trace.OTLP.Endpoint, "the endpoint of the trace collector")
	flags.Float64("trace-sample-ratio", defaultConfig.Trace.SampleRatio, "the fraction of traces to sample. 1 means all, 0 means none.")
	flags.String("trace-service-name", defaultConfig.Trace.ServiceName, "the service name included in sampled traces.")

	exec_common.AddAPIFlags(flags)

	cmd.PreRun = bindRunFlags

	return cmd
}

func serve(cmd *cobra.Command, _ []string) error {
	cfg, err := exec_common.ReadConfig()
	if err != nil {
		return err
	}

	l, err := logger.NewLogger(cfg.Log.Format, cfg.Log.Level)
	if err != nil {
		return err
	}

	serverCtx := &ServerContext{Logger: l}
	return serverCtx.Run(cmd.Context(), cfg)
}

type ServerContext struct {
	Logger logger.Logger

	// listening, when set, receives the bound address once the server accepts connections.
	listening chan<- net.Addr
}

// telemetryConfig returns the function that must be called to shut down tracing.
// The context provided to this function should be error-free, or shut down will be incomplete.
func (s *ServerContext) telemetryConfig(cfg *config.Config) func() error {
	if cfg.Trace.Enabled {
		s.Logger.Info(fmt.Sprintf("tracing enabled: sampling ratio is %v and sending traces to '%s'", cfg.Trace.SampleRatio, cfg.Trace.OTLP.Endpoint))

		tp := telemetry.MustNewTracerProvider(
			telemetry.WithOTLPEndpoint(cfg.Trace.OTLP.Endpoint),
			telemetry.WithServiceName(cfg.Trace.ServiceName),
			telemetry.WithSamplingRatio(cfg.Trace.SampleRatio),
		)
		return func() error {
			// the batch span processor may take up to 5 seconds to flush
			ctx, cancel := context.WithTimeout(context.Background(), 6*time.Second)
			defer cancel()
			return errors.Join(tp.ForceFlush(ctx), tp.Shutdown(ctx))
		}
	}
	otel.SetTracerProvider(noop.NewTracerProvider())
	return func() error {
		return nil
	}
}

// Run serves the HTTP API until ctx is cancelled or the process is interrupted, then
// shuts down gracefully.
func (s *ServerContext) Run(ctx context.Context, cfg *config.Config) error {
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	tracerProviderCloser := s.telemetryConfig(cfg)

	gw, err := exec_common.NewGateway(cfg, s.Logger)
	if err != nil {
		return err
	}
	defer gw.Cache().Close()

	mode, err := search.ParseMode(cfg.Feed.DefaultMode)
	if err != nil {
		return err
	}

	svr := server.New(&server.Dependencies{
		Gateway: gw,
		Logger:  s.Logger,
	}, &server.Config{
		PageSize:           cfg.Feed.PageSize,
		MaxPageSize:        config.DefaultMaxPageSize,
		DefaultMode:        mode,
		RequestTimeout:     cfg.HTTP.RequestTimeout,
		CORSAllowedOrigins: cfg.HTTP.CORSAllowedOrigins,
		CORSAllowedHeaders: cfg.HTTP.CORSAllowedHeaders,
		MetricsEnabled:     cfg.Metrics.Enabled,
		ServiceName:        cfg.Trace.ServiceName,
	})

	listener, err := net.Listen("tcp", cfg.HTTP.Addr)
	if err != nil {
		return fmt.Errorf("failed to listen on '%s': %w", cfg.HTTP.Addr, err)
	}

	httpServer := &http.Server{
		Addr:              cfg.HTTP.Addr,
		Handler:           svr.Handler(),
		ReadHeaderTimeout: 30 * time.Second,
	}

	tlsEnabled := cfg.HTTP.TLS != nil && cfg.HTTP.TLS.Enabled
	if tlsEnabled {
		s.Logger.Info("HTTP TLS is enabled, serving connections using the provided certificate")
	} else {
		s.Logger.Warn("HTTP TLS is disabled, serving connections using insecure plaintext")
	}

	serveErr := make(chan error, 1)
	go func() {
		s.Logger.Info(fmt.Sprintf("starting HTTP server on '%s'...", listener.Addr()))

		var err error
		if tlsEnabled {
			err = httpServer.ServeTLS(listener, cfg.HTTP.TLS.CertPath, cfg.HTTP.TLS.KeyPath)
		} else {
			err = httpServer.Serve(listener)
		}
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
		close(serveErr)
	}()

	if s.listening != nil {
		s.listening <- listener.Addr()
	}

	var runErr error
	select {
	case <-ctx.Done():
	case err := <-serveErr:
		runErr = fmt.Errorf("HTTP server closed with unexpected error: %w", err)
	}

	s.Logger.Info("attempting to shutdown gracefully...")
	svr.Close()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		s.Logger.Info("failed to shutdown the http server", zap.Error(err))
	}

	if err := tracerProviderCloser(); err != nil {
		s.Logger.Error("failed to shutdown tracing", zap.Error(err))
	}

	s.Logger.Info("server exited. goodbye 👋")

	return runErr
}
