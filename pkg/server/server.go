// Package server exposes the feed explorer core as a JSON HTTP API for a browser
// presentation layer.
package server

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"
	"sync/atomic"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/cors"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"

	"github.com/Jyoti-coder1/Postsphere-feed-explorer/internal/build"
	"github.com/Jyoti-coder1/Postsphere-feed-explorer/pkg/feed"
	"github.com/Jyoti-coder1/Postsphere-feed-explorer/pkg/gateway"
	"github.com/Jyoti-coder1/Postsphere-feed-explorer/pkg/logger"
	"github.com/Jyoti-coder1/Postsphere-feed-explorer/pkg/middleware"
	"github.com/Jyoti-coder1/Postsphere-feed-explorer/pkg/middleware/logging"
	"github.com/Jyoti-coder1/Postsphere-feed-explorer/pkg/middleware/recovery"
	"github.com/Jyoti-coder1/Postsphere-feed-explorer/pkg/middleware/requestid"
	"github.com/Jyoti-coder1/Postsphere-feed-explorer/pkg/search"
	serverErrors "github.com/Jyoti-coder1/Postsphere-feed-explorer/pkg/server/errors"
	"github.com/Jyoti-coder1/Postsphere-feed-explorer/pkg/server/health"
	"github.com/Jyoti-coder1/Postsphere-feed-explorer/pkg/telemetry"
	"github.com/Jyoti-coder1/Postsphere-feed-explorer/pkg/transform"
)

const (
	DefaultMaxPageSize = 100

	routeFeed            = "GET /v1/feed"
	routePost            = "GET /v1/posts/{id}"
	routeUsers           = "GET /v1/users"
	routeDefaultPipeline = "GET /v1/pipeline/default"
	routeHealth          = "GET /healthz"
	routeMetrics         = "GET /metrics"
)

var tracer = otel.Tracer("feedexplorer/pkg/server")

var requestDurationHistogram = promauto.NewHistogramVec(prometheus.HistogramOpts{
	Namespace: build.ProjectName,
	Name:      "http_request_duration_ms",
	Help:      "The latency (in ms) of HTTP API requests, partitioned by route, method and status code.",
	Buckets:   []float64{1, 5, 10, 25, 50, 100, 200, 500, 1000, 2500, 5000},
}, []string{"route", "method", "code"})

// A Server serves feed views, post details and users. Every feed request builds a
// short-lived feed.Session over the shared gateway, so repeated requests for the same
// page are answered from the gateway cache.
type Server struct {
	gateway gateway.Gateway
	logger  logger.Logger
	config  *Config
	ready   atomic.Bool
}

type Dependencies struct {
	Gateway gateway.Gateway
	Logger  logger.Logger
}

type Config struct {
	PageSize           int
	MaxPageSize        int
	DefaultMode        search.Mode
	RequestTimeout     time.Duration
	CORSAllowedOrigins []string
	CORSAllowedHeaders []string
	MetricsEnabled     bool
	ServiceName        string
}

// New creates a new Server which reads content through the supplied gateway.
func New(dependencies *Dependencies, config *Config) *Server {
	if config == nil {
		config = &Config{}
	}
	if config.PageSize < 1 {
		config.PageSize = feed.DefaultPageSize
	}
	if config.MaxPageSize < 1 {
		config.MaxPageSize = DefaultMaxPageSize
	}
	if config.DefaultMode == "" {
		config.DefaultMode = search.DefaultMode
	}
	if config.ServiceName == "" {
		config.ServiceName = build.ProjectName
	}

	l := dependencies.Logger
	if l == nil {
		l = logger.NewNoopLogger()
	}

	s := &Server{
		gateway: dependencies.Gateway,
		logger:  l,
		config:  config,
	}
	s.ready.Store(true)
	return s
}

// IsReady reports whether the server accepts requests. It turns false once Close
// was called.
func (s *Server) IsReady(_ context.Context) (bool, error) {
	return s.ready.Load(), nil
}

// Close marks the server as not ready so health checks fail while draining.
func (s *Server) Close() {
	s.ready.Store(false)
}

// Handler returns the API routes wrapped in the middleware chain: panic recovery,
// CORS, tracing, request ids, access logs and the request timeout.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	s.handle(mux, routeFeed, s.getFeed)
	s.handle(mux, routePost, s.getPost)
	s.handle(mux, routeUsers, s.getUsers)
	s.handle(mux, routeDefaultPipeline, s.getDefaultPipeline)

	mux.Handle(routeHealth, &health.Checker{TargetService: s, TargetServiceName: s.config.ServiceName})
	if s.config.MetricsEnabled {
		mux.Handle(routeMetrics, promhttp.Handler())
	}

	var handler http.Handler = mux
	handler = middleware.NewTimeoutHandler(s.config.RequestTimeout, s.logger).Wrap(handler)
	handler = logging.NewHTTPMiddleware(handler, s.logger)
	handler = requestid.NewHTTPMiddleware(handler)
	handler = otelhttp.NewHandler(handler, s.config.ServiceName)
	handler = cors.New(cors.Options{
		AllowedOrigins:   s.config.CORSAllowedOrigins,
		AllowCredentials: true,
		AllowedHeaders:   s.config.CORSAllowedHeaders,
		AllowedMethods:   []string{http.MethodGet, http.MethodHead},
	}).Handler(handler)

	return recovery.HTTPPanicRecoveryHandler(handler, s.logger)
}

type handlerFunc func(w http.ResponseWriter, r *http.Request) error

func (s *Server) handle(mux *http.ServeMux, route string, h handlerFunc) {
	observer := requestDurationHistogram.MustCurryWith(prometheus.Labels{"route": route})

	mux.Handle(route, promhttp.InstrumentHandlerDuration(observer, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if err := h(w, r); err != nil {
			encoded := serverErrors.HandleError("", err)
			if encoded.HTTPStatusCode >= http.StatusInternalServerError {
				s.logger.ErrorWithContext(r.Context(), "request failed", zap.String("route", route), zap.Error(err))
			}
			serverErrors.WriteHTTPError(w, encoded)
		}
	})))
}

// getFeed computes one view. Query parameters: page, pageSize, q, mode and pipeline,
// the latter holding a JSON or YAML pipeline document.
func (s *Server) getFeed(w http.ResponseWriter, r *http.Request) error {
	ctx, span := tracer.Start(r.Context(), "server.getFeed")
	defer span.End()

	opts, err := s.feedOptions(r)
	if err != nil {
		telemetry.TraceError(span, err)
		return err
	}

	session, err := feed.NewSession(s.gateway, append(opts, feed.WithLogger(s.logger))...)
	if err != nil {
		telemetry.TraceError(span, err)
		return err
	}
	session.Start(ctx)

	if err := session.Err(); err != nil {
		telemetry.TraceError(span, err)
		return err
	}

	view := session.View()
	span.SetAttributes(
		attribute.Int("page", view.Page),
		attribute.Int("items", len(view.Items)),
	)
	return writeJSON(w, http.StatusOK, view)
}

func (s *Server) feedOptions(r *http.Request) ([]feed.SessionOpt, error) {
	query := r.URL.Query()

	page, err := intParam(query.Get("page"), "page", 1)
	if err != nil {
		return nil, err
	}
	if page < 1 {
		return nil, serverErrors.InvalidArgument("page must be at least 1, got %d", page)
	}

	pageSize, err := intParam(query.Get("pageSize"), "pageSize", s.config.PageSize)
	if err != nil {
		return nil, err
	}
	if pageSize < 1 || pageSize > s.config.MaxPageSize {
		return nil, serverErrors.InvalidArgument("pageSize must be between 1 and %d, got %d", s.config.MaxPageSize, pageSize)
	}

	mode := s.config.DefaultMode
	if raw := query.Get("mode"); raw != "" {
		mode, err = search.ParseMode(raw)
		if err != nil {
			return nil, err
		}
	}

	pipeline := transform.DefaultPipeline()
	if raw := query.Get("pipeline"); raw != "" {
		pipeline, err = transform.ParsePipeline([]byte(raw))
		if err != nil {
			return nil, serverErrors.InvalidArgument("invalid pipeline: %v", err)
		}
	}

	return []feed.SessionOpt{
		feed.WithPage(page),
		feed.WithPageSize(pageSize),
		feed.WithQuery(query.Get("q")),
		feed.WithSearchMode(mode),
		feed.WithPipeline(pipeline),
	}, nil
}

func (s *Server) getPost(w http.ResponseWriter, r *http.Request) error {
	ctx, span := tracer.Start(r.Context(), "server.getPost")
	defer span.End()

	raw := r.PathValue("id")
	postID, err := strconv.Atoi(raw)
	if err != nil || postID < 1 {
		return serverErrors.InvalidArgument("post id must be a positive integer, got %q", raw)
	}
	span.SetAttributes(attribute.Int("post_id", postID))

	detail, err := s.gateway.FetchPostDetail(ctx, postID)
	if err != nil {
		telemetry.TraceError(span, err)
		return err
	}
	return writeJSON(w, http.StatusOK, detail)
}

func (s *Server) getUsers(w http.ResponseWriter, r *http.Request) error {
	ctx, span := tracer.Start(r.Context(), "server.getUsers")
	defer span.End()

	users, err := s.gateway.FetchUsers(ctx)
	if err != nil {
		telemetry.TraceError(span, err)
		return err
	}
	return writeJSON(w, http.StatusOK, users)
}

func (s *Server) getDefaultPipeline(w http.ResponseWriter, _ *http.Request) error {
	return writeJSON(w, http.StatusOK, transform.DefaultPipeline())
}

func intParam(raw, name string, fallback int) (int, error) {
	if raw == "" {
		return fallback, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return 0, serverErrors.InvalidArgument("%s must be an integer, got %q", name, raw)
	}
	return n, nil
}

func writeJSON(w http.ResponseWriter, status int, v any) error {
	body, err := json.Marshal(v)
	if err != nil {
		return err
	}
	w.Header().Set("content-type", "application/json")
	w.WriteHeader(status)
	_, _ = w.Write(body)
	return nil
}
