package cmd

import (
	"context"
	"fmt"
	"net"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/sajjad-MoBe/tuplespace/internal/api"
	"github.com/sajjad-MoBe/tuplespace/internal/grpcPack"
	"github.com/sajjad-MoBe/tuplespace/internal/server"
	"github.com/sajjad-MoBe/tuplespace/internal/shared"
	"github.com/sajjad-MoBe/tuplespace/internal/storage"
)

const shutdownTimeout = 10 * time.Second

type serverOptions struct {
	address        string
	statsInterval  time.Duration
	maxConnections int
	adminAddress   string
	grpcAddress    string
	jaegerEndpoint string
	logLevel       string
}

func newServerCommand() *cobra.Command {
	opts := serverOptions{}
	defaults := server.DefaultConfig()

	cmd := &cobra.Command{
		Use:   "server",
		Short: "Start the tuple space server",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()
			return runServer(ctx, cmd, opts)
		},
	}

	flags := cmd.Flags()
	flags.StringVarP(&opts.address, "address", "a", defaults.Address, "Address for the tuple space to listen on")
	flags.DurationVar(&opts.statsInterval, "stats-interval", defaults.StatsInterval, "Interval between stats reports, 0 disables them")
	flags.IntVar(&opts.maxConnections, "max-connections", defaults.MaxConnections, "Maximum concurrent connections, 0 for unlimited")
	flags.StringVar(&opts.adminAddress, "admin-address", "", "Address for the admin HTTP server (disabled when empty)")
	flags.StringVar(&opts.grpcAddress, "grpc-address", "", "Address for the admin gRPC server (disabled when empty)")
	flags.StringVar(&opts.jaegerEndpoint, "jaeger-endpoint", "", "Jaeger collector endpoint for request spans")
	flags.StringVar(&opts.logLevel, "log-level", "info", "Log level: debug, info, warn or error")
	return cmd
}

func runServer(ctx context.Context, cmd *cobra.Command, opts serverOptions) error {
	level, err := shared.ParseLevel(opts.logLevel)
	if err != nil {
		return err
	}
	logger := shared.NewLoggerTo(cmd.ErrOrStderr(), level)

	cfg := server.Config{
		Address:        opts.address,
		StatsInterval:  opts.statsInterval,
		MaxConnections: opts.maxConnections,
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	tracer, err := api.NewTracer("tuplespace", opts.jaegerEndpoint)
	if err != nil {
		return fmt.Errorf("failed to create tracer: %w", err)
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := tracer.Shutdown(shutdownCtx); err != nil {
			logger.Warn("Tracer shutdown: %v", err)
		}
	}()

	store := storage.NewTupleSpace()
	metrics := api.NewMetrics()
	store.SetObserver(metrics)

	srv := server.NewServer(store, cfg,
		server.WithLogger(logger),
		server.WithTracer(tracer.Tracer()),
		server.WithConnectionObserver(metrics),
		server.WithStatsOutput(cmd.OutOrStdout()),
	)
	if err := srv.Listen(); err != nil {
		return err
	}

	health := shared.NewHealthManager()
	health.RegisterChecker("store", api.NewStoreHealthChecker(store))
	health.RegisterChecker("listener", api.NewListenerHealthChecker(srv.Addr))

	errCh := make(chan error, 3)
	go func() { errCh <- srv.Serve(ctx) }()

	var adminSrv *api.Server
	if opts.adminAddress != "" {
		l, err := net.Listen("tcp", opts.adminAddress)
		if err != nil {
			srv.Shutdown(context.Background())
			return fmt.Errorf("failed to listen on %s: %w", opts.adminAddress, err)
		}
		adminSrv = api.NewServer(store, metrics, health, logger)
		go func() {
			if err := adminSrv.Serve(l); err != nil {
				errCh <- err
			}
		}()
	}

	var grpcAdmin *grpcPack.Server
	if opts.grpcAddress != "" {
		l, err := net.Listen("tcp", opts.grpcAddress)
		if err != nil {
			srv.Shutdown(context.Background())
			return fmt.Errorf("failed to listen on %s: %w", opts.grpcAddress, err)
		}
		grpcAdmin = grpcPack.NewServer(store, health, logger)
		gs := grpcPack.NewGRPCServer(grpcAdmin)
		defer gs.GracefulStop()
		go func() {
			if err := grpcPack.Serve(gs, l, logger); err != nil {
				errCh <- err
			}
		}()
	}

	var runErr error
	select {
	case <-ctx.Done():
		logger.Info("Received shutdown signal, initiating shutdown")
	case runErr = <-errCh:
		if runErr != nil {
			logger.Error("Server error: %v", runErr)
		}
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if adminSrv != nil {
		if err := adminSrv.Shutdown(shutdownCtx); err != nil {
			logger.Warn("Admin HTTP shutdown: %v", err)
		}
	}
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Warn("Server shutdown: %v", err)
	}
	logger.Info("Server stopped")
	return runErr
}
