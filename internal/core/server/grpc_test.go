package server

import (
	"context"
	"io"
	"log/slog"
	"net"
	"testing"
	"time"

	"github.com/solatis/schemamend/internal/core/api"
	"github.com/solatis/schemamend/internal/core/auth"
	"github.com/solatis/schemamend/internal/core/config"
	"github.com/solatis/schemamend/internal/repair"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/status"
	"google.golang.org/grpc/test/bufconn"
)

func TestNewGRPCServer_Validation(t *testing.T) {
	cfg := config.Default()
	if _, err := NewGRPCServer(nil, nil, nil, nil); err == nil {
		t.Error("expected error for nil config")
	}
	if _, err := NewGRPCServer(&cfg.RepairAPI, nil, nil, nil); err == nil {
		t.Error("expected error for nil service")
	}
}

func TestGRPCServer_Lifecycle(t *testing.T) {
	cfg := config.Default()
	cfg.RepairAPI.DataDir = t.TempDir()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	svc, err := api.NewRepairAPIService(repair.NewEngine(), nil, cfg, logger)
	if err != nil {
		t.Fatalf("NewRepairAPIService failed: %v", err)
	}
	authn := auth.NewAuthenticator(map[string][]byte{}, nil)

	srv, err := NewGRPCServer(&cfg.RepairAPI, svc, authn, logger)
	if err != nil {
		t.Fatalf("NewGRPCServer failed: %v", err)
	}

	lis := bufconn.Listen(1 << 20)
	served := make(chan error, 1)
	go func() { served <- srv.Serve(lis) }()

	conn, err := grpc.NewClient("passthrough:///bufnet",
		grpc.WithContextDialer(func(ctx context.Context, _ string) (net.Conn, error) {
			return lis.DialContext(ctx)
		}),
		grpc.WithTransportCredentials(insecure.NewCredentials()),
	)
	if err != nil {
		t.Fatalf("NewClient failed: %v", err)
	}
	defer conn.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	// Health checks need no API key
	health := grpc_health_v1.NewHealthClient(conn)
	resp, err := health.Check(ctx, &grpc_health_v1.HealthCheckRequest{Service: api.ServiceName})
	if err != nil {
		t.Fatalf("health check failed: %v", err)
	}
	if resp.Status != grpc_health_v1.HealthCheckResponse_SERVING {
		t.Errorf("expected SERVING, got %v", resp.Status)
	}

	_, err = api.NewClient(conn).ListPlans(ctx, &api.ListPlansRequest{})
	if status.Code(err) != codes.Unauthenticated {
		t.Errorf("expected Unauthenticated without key, got %v", err)
	}

	if err := srv.Shutdown(ctx); err != nil {
		t.Fatalf("Shutdown failed: %v", err)
	}
	select {
	case <-served:
	case <-time.After(5 * time.Second):
		t.Fatal("Serve did not return after Shutdown")
	}
}
