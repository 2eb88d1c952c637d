// Package health contains the handler that reports the health of a feed explorer server.
package health

import (
	"context"
	"encoding/json"
	"net/http"
)

const (
	StatusServing    = "SERVING"
	StatusNotServing = "NOT_SERVING"
)

// TargetService defines an interface that services can implement for server health checks.
type TargetService interface {
	IsReady(ctx context.Context) (bool, error)
}

type Checker struct {
	TargetService
	TargetServiceName string
}

type response struct {
	Status  string `json:"status"`
	Service string `json:"service,omitempty"`
	Error   string `json:"error,omitempty"`
}

var _ http.Handler = (*Checker)(nil)

// ServeHTTP answers 200 while the target service is ready and 503 otherwise.
func (o *Checker) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	resp := response{Status: StatusServing, Service: o.TargetServiceName}
	code := http.StatusOK

	ready, err := o.IsReady(r.Context())
	if err != nil {
		resp.Error = err.Error()
	}
	if err != nil || !ready {
		resp.Status = StatusNotServing
		code = http.StatusServiceUnavailable
	}

	w.Header().Set("content-type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(resp)
}
