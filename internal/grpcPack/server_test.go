package grpcPack

import (
	"context"
	"io"
	"net"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/status"
	"google.golang.org/grpc/test/bufconn"

	kvErr "github.com/sajjad-MoBe/tuplespace/internal/errors"
	"github.com/sajjad-MoBe/tuplespace/internal/shared"
	"github.com/sajjad-MoBe/tuplespace/internal/storage"
)

const bufSize = 1024 * 1024

func setupTestServer(t *testing.T) (*AdminClient, *Server, *storage.TupleSpace, *shared.HealthManager) {
	t.Helper()

	store := storage.NewTupleSpace()
	health := shared.NewHealthManager()
	health.RegisterChecker("store", shared.CheckerFunc(func(ctx context.Context) shared.HealthStatus {
		return shared.HealthStatus{Status: shared.StatusOK, Timestamp: time.Now()}
	}))
	logger := shared.NewLoggerTo(io.Discard, shared.ERROR)

	srv := NewServer(store, health, logger)
	gs := NewGRPCServer(srv)

	lis := bufconn.Listen(bufSize)
	go Serve(gs, lis, logger)

	conn, err := grpc.DialContext(context.Background(), "bufnet",
		grpc.WithContextDialer(func(context.Context, string) (net.Conn, error) {
			return lis.Dial()
		}),
		grpc.WithTransportCredentials(insecure.NewCredentials()),
	)
	require.NoError(t, err)

	t.Cleanup(func() {
		conn.Close()
		gs.Stop()
	})

	return NewAdminClient(conn), srv, store, health
}

func TestStats(t *testing.T) {
	client, srv, store, _ := setupTestServer(t)

	store.ClientConnected()
	store.Put("ab", "cd")
	store.Get("ab")
	store.Read("ab")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	resp, err := client.Stats(ctx, &StatsRequest{})
	require.NoError(t, err)
	assert.Equal(t, store.Snapshot(), resp.Snapshot)
	assert.Equal(t, int64(1), resp.Snapshot.TotalClients)
	assert.Equal(t, int64(3), resp.Snapshot.TotalOperations)
	assert.Equal(t, int64(1), resp.Snapshot.TotalErrors)
	assert.Equal(t, 0, resp.Snapshot.Tuples)

	assert.Equal(t, int64(1), srv.GetMetrics().StatsCount)
}

func TestHealth(t *testing.T) {
	client, srv, _, health := setupTestServer(t)

	tests := []struct {
		name       string
		component  string
		wantStatus string
		wantErr    codes.Code
	}{
		{
			name:       "overall",
			wantStatus: shared.StatusOK,
			wantErr:    codes.OK,
		},
		{
			name:       "single component",
			component:  "store",
			wantStatus: shared.StatusOK,
			wantErr:    codes.OK,
		},
		{
			name:      "unknown component",
			component: "disk",
			wantErr:   codes.NotFound,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp, err := client.Health(context.Background(), &HealthRequest{Component: tt.component})
			if tt.wantErr != codes.OK {
				require.Error(t, err)
				assert.Equal(t, tt.wantErr, status.Code(err))
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantStatus, resp.Status)
			assert.Contains(t, resp.Components, "store")
		})
	}

	health.RegisterChecker("listener", shared.CheckerFunc(func(ctx context.Context) shared.HealthStatus {
		return shared.HealthStatus{Status: shared.StatusError, Message: "not listening", Timestamp: time.Now()}
	}))
	resp, err := client.Health(context.Background(), &HealthRequest{})
	require.NoError(t, err)
	assert.Equal(t, shared.StatusError, resp.Status)
	assert.Equal(t, "not listening", resp.Components["listener"].Message)

	metrics := srv.GetMetrics()
	assert.Equal(t, int64(4), metrics.HealthCount)
	assert.Equal(t, int64(1), metrics.ErrorCount)
}

func TestConvertError(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want codes.Code
	}{
		{"not found", kvErr.New(kvErr.ErrorTypeNotFound, "missing", nil), codes.NotFound},
		{"already exists", kvErr.New(kvErr.ErrorTypeAlreadyExists, "dup", nil), codes.AlreadyExists},
		{"invalid input", kvErr.New(kvErr.ErrorTypeInvalidInput, "bad", nil), codes.InvalidArgument},
		{"malformed", kvErr.New(kvErr.ErrorTypeMalformed, "bad frame", nil), codes.InvalidArgument},
		{"internal", kvErr.New(kvErr.ErrorTypeInternal, "oops", nil), codes.Internal},
		{"plain error", io.ErrUnexpectedEOF, codes.Internal},
		{"status passthrough", status.Error(codes.Canceled, "gone"), codes.Canceled},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, status.Code(convertError(tt.err)))
		})
	}
	assert.NoError(t, convertError(nil))
}

func TestUnaryErrorInterceptorRecoversPanic(t *testing.T) {
	info := &grpc.UnaryServerInfo{FullMethod: statsMethod}
	resp, err := UnaryErrorInterceptor(context.Background(), &StatsRequest{}, info,
		func(ctx context.Context, req interface{}) (interface{}, error) {
			panic("boom")
		})

	assert.Nil(t, resp)
	assert.Equal(t, codes.Internal, status.Code(err))
	assert.Contains(t, status.Convert(err).Message(), "boom")
}
