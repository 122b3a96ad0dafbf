package cmd

import (
	"bytes"
	"context"
	"io"
	"net"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sajjad-MoBe/tuplespace/internal/server"
	"github.com/sajjad-MoBe/tuplespace/internal/shared"
	"github.com/sajjad-MoBe/tuplespace/internal/storage"
)

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	root := NewRootCommand()
	var out bytes.Buffer
	root.SetOut(&out)
	root.SetErr(io.Discard)
	root.SetArgs(args)
	err := root.ExecuteContext(context.Background())
	return out.String(), err
}

func TestClientUsageOnWrongArgCount(t *testing.T) {
	tests := []struct {
		name string
		args []string
	}{
		{"no args", []string{"client"}},
		{"two args", []string{"client", "localhost", "51234"}},
		{"four args", []string{"client", "localhost", "51234", "a.txt", "extra"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out, err := execute(t, tt.args...)
			require.NoError(t, err)
			assert.Equal(t, clientUsage+"\n", out)
		})
	}
}

func TestClientRejectsBadPort(t *testing.T) {
	_, err := execute(t, "client", "localhost", "port", "a.txt")
	assert.Error(t, err)
}

func TestClientCommandAgainstServer(t *testing.T) {
	store := storage.NewTupleSpace()
	srv := server.NewServer(store, server.Config{Address: "127.0.0.1:0"},
		server.WithLogger(shared.NewLoggerTo(io.Discard, shared.ERROR)))
	require.NoError(t, srv.Listen())

	ctx, cancel := context.WithCancel(context.Background())
	errCh := make(chan error, 1)
	go func() { errCh <- srv.Serve(ctx) }()
	defer func() {
		cancel()
		shutdownCtx, done := context.WithTimeout(context.Background(), 5*time.Second)
		defer done()
		assert.NoError(t, srv.Shutdown(shutdownCtx))
		assert.NoError(t, <-errCh)
	}()

	file := filepath.Join(t.TempDir(), "requests.txt")
	require.NoError(t, os.WriteFile(file, []byte("P k v\nR k\n"), 0o644))

	host, port, err := net.SplitHostPort(srv.Addr().String())
	require.NoError(t, err)

	out, err := execute(t, "client", host, port, file)
	require.NoError(t, err)
	assert.Equal(t,
		"Request: P k v\nResponse: 014 OK (k, v) added\nRequest: R k\nResponse: 018 OK (k, v) read\n",
		out)
	assert.Equal(t, int64(1), store.Snapshot().TotalClients)
}

func TestServerRejectsBadFlags(t *testing.T) {
	tests := []struct {
		name string
		args []string
	}{
		{"positional arg", []string{"server", "extra"}},
		{"bad log level", []string{"server", "--log-level", "loud", "--address", "127.0.0.1:0"}},
		{"negative interval", []string{"server", "--stats-interval=-1s", "--address", "127.0.0.1:0"}},
		{"negative cap", []string{"server", "--max-connections=-1", "--address", "127.0.0.1:0"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := execute(t, tt.args...)
			assert.Error(t, err)
		})
	}
}

func TestRunServerStopsOnCancelledContext(t *testing.T) {
	opts := serverOptions{
		address:      "127.0.0.1:0",
		adminAddress: "127.0.0.1:0",
		grpcAddress:  "127.0.0.1:0",
		logLevel:     "error",
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	cmd := newServerCommand()
	cmd.SetOut(io.Discard)
	cmd.SetErr(io.Discard)

	done := make(chan error, 1)
	go func() { done <- runServer(ctx, cmd, opts) }()

	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(10 * time.Second):
		t.Fatal("server did not stop after its context was cancelled")
	}
}

func TestRunServerListenFailure(t *testing.T) {
	l, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	defer l.Close()

	cmd := newServerCommand()
	cmd.SetOut(io.Discard)
	cmd.SetErr(io.Discard)

	err = runServer(context.Background(), cmd, serverOptions{
		address:  l.Addr().String(),
		logLevel: "error",
	})
	assert.Error(t, err)
}
