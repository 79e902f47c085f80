package client

import (
	"context"
	"net"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/status"
	"google.golang.org/grpc/test/bufconn"
)

func startHealth(t *testing.T) (*health.Server, *HealthChecker) {
	t.Helper()
	lis := bufconn.Listen(1 << 20)
	srv := grpc.NewServer()
	hs := health.NewServer()
	healthpb.RegisterHealthServer(srv, hs)
	go func() { _ = srv.Serve(lis) }()
	t.Cleanup(srv.Stop)

	conn, err := grpc.NewClient("passthrough:///bufnet",
		grpc.WithContextDialer(func(ctx context.Context, _ string) (net.Conn, error) { return lis.DialContext(ctx) }),
		grpc.WithTransportCredentials(insecure.NewCredentials()),
	)
	require.NoError(t, err)

	hc := &HealthChecker{addr: "bufnet", conn: conn, client: healthpb.NewHealthClient(conn)}
	t.Cleanup(func() { _ = hc.Close() })
	return hs, hc
}

func TestHealthChecker_Serving(t *testing.T) {
	hs, hc := startHealth(t)
	hs.SetServingStatus("", healthpb.HealthCheckResponse_SERVING)
	require.NoError(t, hc.Ping(context.Background()))

	hs.SetServingStatus("", healthpb.HealthCheckResponse_NOT_SERVING)
	assert.ErrorIs(t, hc.Ping(context.Background()), ErrUnavailable)
}

// fakeHealth embeds the interface so only Check needs a body.
type fakeHealth struct {
	healthpb.HealthClient
	resp *healthpb.HealthCheckResponse
	err  error
}

func (f *fakeHealth) Check(context.Context, *healthpb.HealthCheckRequest, ...grpc.CallOption) (*healthpb.HealthCheckResponse, error) {
	return f.resp, f.err
}

func TestHealthChecker_MapsErrors(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want error
	}{
		{"unavailable", status.Error(codes.Unavailable, "down"), ErrUnavailable},
		{"deadline", status.Error(codes.DeadlineExceeded, "slow"), ErrUnavailable},
		{"unauthenticated", status.Error(codes.Unauthenticated, "who"), ErrUnauthorized},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			hc := &HealthChecker{client: &fakeHealth{err: tt.err}}
			assert.ErrorIs(t, hc.Ping(context.Background()), tt.want)
		})
	}

	hc := &HealthChecker{client: &fakeHealth{err: status.Error(codes.Internal, "boom")}}
	err := hc.Ping(context.Background())
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrUnavailable)
	assert.NoError(t, (&HealthChecker{}).Close())
}
