package requestid

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/oklog/ulid/v2"
	"github.com/stretchr/testify/require"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
)

func TestNewHTTPMiddleware(t *testing.T) {
	var seen string
	handler := NewHTTPMiddleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id, ok := FromContext(r.Context())
		require.True(t, ok)
		seen = id
	}))

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/v1/feed", nil))

	header := rec.Header().Get(RequestIDHeader)
	require.NotEmpty(t, header)
	require.Equal(t, header, seen)

	_, err := ulid.Parse(header)
	require.NoError(t, err)

	// every request gets its own id
	other := httptest.NewRecorder()
	handler.ServeHTTP(other, httptest.NewRequest(http.MethodGet, "/v1/feed", nil))
	require.NotEqual(t, header, other.Header().Get(RequestIDHeader))
}

func TestInitIDUsesTraceID(t *testing.T) {
	tp := sdktrace.NewTracerProvider()
	ctx, span := tp.Tracer("test").Start(context.Background(), "request")
	defer span.End()

	require.Equal(t, span.SpanContext().TraceID().String(), InitID(ctx))
}
