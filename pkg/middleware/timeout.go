// Package middleware holds HTTP middlewares shared by the server.
package middleware

import (
	"context"
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/Jyoti-coder1/Postsphere-feed-explorer/pkg/logger"
)

// TimeoutHandler sets the timeout in each request
type TimeoutHandler struct {
	timeout time.Duration
	logger  logger.Logger
}

// NewTimeoutHandler returns new TimeoutHandler that timeouts request if it
// exceeds the timeout value. A zero timeout disables it.
func NewTimeoutHandler(timeout time.Duration, logger logger.Logger) *TimeoutHandler {
	return &TimeoutHandler{
		timeout: timeout,
		logger:  logger,
	}
}

// Wrap bounds the request context of next. Handlers observe the deadline through
// their context, so upstream fetches are cancelled and surface as errors.
func (h *TimeoutHandler) Wrap(next http.Handler) http.Handler {
	if h.timeout <= 0 {
		return next
	}
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
		defer cancel()

		next.ServeHTTP(w, r.WithContext(ctx))

		if ctx.Err() == context.DeadlineExceeded {
			h.logger.WarnWithContext(ctx, "request exceeded timeout",
				zap.String("http_path", r.URL.Path),
				zap.Duration("timeout", h.timeout),
			)
		}
	})
}
