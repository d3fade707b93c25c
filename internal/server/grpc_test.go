package server

import (
	"context"
	"errors"
	"net"
	"sync/atomic"
	"testing"
	"time"

	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/test/bufconn"
)

type togglePinger struct {
	down atomic.Bool
}

func (p *togglePinger) Ping(context.Context) error {
	if p.down.Load() {
		return errors.New("store down")
	}
	return nil
}

func dialHealth(t *testing.T) (healthpb.HealthClient, *togglePinger) {
	t.Helper()
	lis := bufconn.Listen(1 << 20)
	srv, hs := NewGRPCServer(discardLogger)
	go func() { _ = srv.Serve(lis) }()
	t.Cleanup(srv.Stop)

	pinger := &togglePinger{}
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	go ReportHealth(ctx, hs, pinger, 10*time.Millisecond, discardLogger)

	conn, err := grpc.NewClient("passthrough:///bufnet",
		grpc.WithContextDialer(func(ctx context.Context, _ string) (net.Conn, error) {
			return lis.DialContext(ctx)
		}),
		grpc.WithTransportCredentials(insecure.NewCredentials()),
	)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	t.Cleanup(func() { _ = conn.Close() })
	return healthpb.NewHealthClient(conn), pinger
}

func waitForStatus(t *testing.T, client healthpb.HealthClient, service string, want healthpb.HealthCheckResponse_ServingStatus) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for {
		resp, err := client.Check(context.Background(), &healthpb.HealthCheckRequest{Service: service})
		if err == nil && resp.GetStatus() == want {
			return
		}
		if time.Now().After(deadline) {
			t.Fatalf("service %q: status = %v (err %v), want %v", service, resp.GetStatus(), err, want)
		}
		time.Sleep(5 * time.Millisecond)
	}
}

func TestHealthServerTracksStore(t *testing.T) {
	client, pinger := dialHealth(t)

	waitForStatus(t, client, "", healthpb.HealthCheckResponse_SERVING)
	waitForStatus(t, client, HealthService, healthpb.HealthCheckResponse_SERVING)

	pinger.down.Store(true)
	waitForStatus(t, client, HealthService, healthpb.HealthCheckResponse_NOT_SERVING)

	pinger.down.Store(false)
	waitForStatus(t, client, HealthService, healthpb.HealthCheckResponse_SERVING)
}
