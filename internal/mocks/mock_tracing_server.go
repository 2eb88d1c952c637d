package mocks

import (
	"context"
	"net"
	"sync"
	"testing"

	otlpcollector "go.opentelemetry.io/proto/otlp/collector/trace/v1"
	"google.golang.org/grpc"
)

// TracingServer is an OTLP/gRPC trace collector that only counts what it receives.
type TracingServer struct {
	otlpcollector.UnimplementedTraceServiceServer

	mu          sync.Mutex
	exportCount int
	spanNames   []string
}

var _ otlpcollector.TraceServiceServer = (*TracingServer)(nil)

func (s *TracingServer) Export(_ context.Context, req *otlpcollector.ExportTraceServiceRequest) (*otlpcollector.ExportTraceServiceResponse, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.exportCount++
	for _, rs := range req.GetResourceSpans() {
		for _, ss := range rs.GetScopeSpans() {
			for _, span := range ss.GetSpans() {
				s.spanNames = append(s.spanNames, span.GetName())
			}
		}
	}
	return &otlpcollector.ExportTraceServiceResponse{}, nil
}

// NewMockTracingServer starts a collector on a free local port and returns it with its
// address. The server is stopped when the test ends.
func NewMockTracingServer(t testing.TB) (*TracingServer, string) {
	t.Helper()

	lis, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("failed to listen: %v", err)
	}

	mockServer := &TracingServer{}
	server := grpc.NewServer()
	otlpcollector.RegisterTraceServiceServer(server, mockServer)

	done := make(chan struct{})
	go func() {
		defer close(done)
		_ = server.Serve(lis)
	}()

	t.Cleanup(func() {
		server.Stop()
		<-done
	})

	return mockServer, lis.Addr().String()
}

func (s *TracingServer) GetExportCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.exportCount
}

// SpanNames returns the names of every span received so far.
func (s *TracingServer) SpanNames() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]string, len(s.spanNames))
	copy(out, s.spanNames)
	return out
}
