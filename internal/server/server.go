package server

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"os"
	"sync"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"

	"github.com/sajjad-MoBe/tuplespace/internal/protocol"
	"github.com/sajjad-MoBe/tuplespace/internal/shared"
	"github.com/sajjad-MoBe/tuplespace/internal/storage"
)

const (
	// DefaultAddress is the fixed port the tuple space has always listened on
	DefaultAddress       = ":51234"
	DefaultStatsInterval = 10 * time.Second
)

// Config holds the listener settings
type Config struct {
	Address       string
	StatsInterval time.Duration // 0 disables the periodic stats report
	// MaxConnections caps concurrently served connections. 0 means unlimited.
	MaxConnections int
}

// DefaultConfig returns the settings used when no flags are given
func DefaultConfig() Config {
	return Config{
		Address:       DefaultAddress,
		StatsInterval: DefaultStatsInterval,
	}
}

// Validate checks the configuration for values the server cannot run with
func (c Config) Validate() error {
	if c.Address == "" {
		return fmt.Errorf("listen address cannot be empty")
	}
	if c.StatsInterval < 0 {
		return fmt.Errorf("stats interval cannot be negative: %s", c.StatsInterval)
	}
	if c.MaxConnections < 0 {
		return fmt.Errorf("max connections cannot be negative: %d", c.MaxConnections)
	}
	return nil
}

// ConnectionObserver is told about connection lifecycle and protocol errors
type ConnectionObserver interface {
	ConnectionOpened()
	ConnectionClosed()
	ProtocolError(reason string)
}

type noopObserver struct{}

func (noopObserver) ConnectionOpened()    {}
func (noopObserver) ConnectionClosed()    {}
func (noopObserver) ProtocolError(string) {}

// Option customises a Server
type Option func(*Server)

// WithLogger sets the server logger
func WithLogger(l *shared.Logger) Option {
	return func(s *Server) { s.logger = l }
}

// WithTracer sets the tracer used for per-operation spans
func WithTracer(t trace.Tracer) Option {
	return func(s *Server) { s.tracer = t }
}

// WithConnectionObserver installs a connection observer
func WithConnectionObserver(o ConnectionObserver) Option {
	return func(s *Server) { s.observer = o }
}

// WithStatsOutput redirects the periodic stats report
func WithStatsOutput(w io.Writer) Option {
	return func(s *Server) { s.statsOut = w }
}

// Server accepts tuple space connections and serves each one on its own goroutine.
// It owns the store for the lifetime of the process.
type Server struct {
	config   Config
	store    *storage.TupleSpace
	logger   *shared.Logger
	tracer   trace.Tracer
	observer ConnectionObserver
	statsOut io.Writer
	handlers map[protocol.Command]commandHandler

	mu       sync.Mutex
	listener net.Listener
	conns    map[net.Conn]struct{}
	closing  bool
	done     chan struct{}
	wg       sync.WaitGroup
}

// NewServer creates a server around store. Nothing is bound until Listen or Start.
func NewServer(store *storage.TupleSpace, config Config, opts ...Option) *Server {
	s := &Server{
		config:   config,
		store:    store,
		logger:   shared.DefaultLogger,
		tracer:   otel.Tracer("tuplespace"),
		observer: noopObserver{},
		statsOut: os.Stdout,
		conns:    make(map[net.Conn]struct{}),
		done:     make(chan struct{}),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.handlers = s.commandHandlers()
	return s
}

// Store returns the tuple space served by s
func (s *Server) Store() *storage.TupleSpace {
	return s.store
}

// Addr returns the bound address, or nil before Listen
func (s *Server) Addr() net.Addr {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.listener == nil {
		return nil
	}
	return s.listener.Addr()
}

// Listen binds the configured address
func (s *Server) Listen() error {
	lc := net.ListenConfig{}
	listener, err := lc.Listen(context.Background(), "tcp", s.config.Address)
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", s.config.Address, err)
	}

	s.mu.Lock()
	s.listener = listener
	s.mu.Unlock()

	s.logger.Info("Tuple space server listening on %s", listener.Addr())
	return nil
}

// Start binds the configured address and serves until ctx is cancelled or Shutdown is called
func (s *Server) Start(ctx context.Context) error {
	if err := s.Listen(); err != nil {
		return err
	}
	return s.Serve(ctx)
}

// Serve runs the accept loop on the bound listener along with the stats reporter.
// It returns nil once the server has been shut down.
func (s *Server) Serve(ctx context.Context) error {
	s.mu.Lock()
	listener := s.listener
	s.mu.Unlock()
	if listener == nil {
		return fmt.Errorf("server is not listening")
	}

	go func() {
		select {
		case <-ctx.Done():
			s.stop()
		case <-s.done:
		}
	}()

	if s.config.StatsInterval > 0 {
		go s.reportStats(s.config.StatsInterval)
	}

	for {
		conn, err := listener.Accept()
		if err != nil {
			if s.isClosing() || errors.Is(err, net.ErrClosed) {
				return nil
			}
			s.logger.Warn("Failed to accept connection: %v", err)
			continue
		}

		s.store.ClientConnected()

		if !s.track(conn) {
			continue
		}
		go s.handleConnection(ctx, conn)
	}
}

// track registers conn and reserves a handler slot. It returns false, having closed
// conn, when the server is closing or the connection cap has been reached.
func (s *Server) track(conn net.Conn) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closing {
		conn.Close()
		return false
	}
	if s.config.MaxConnections > 0 && len(s.conns) >= s.config.MaxConnections {
		s.logger.Warn("Rejecting %s: %d connections already open", conn.RemoteAddr(), len(s.conns))
		conn.Close()
		return false
	}

	s.conns[conn] = struct{}{}
	s.wg.Add(1)
	return true
}

func (s *Server) untrack(conn net.Conn) {
	s.mu.Lock()
	delete(s.conns, conn)
	s.mu.Unlock()
	s.wg.Done()
}

func (s *Server) isClosing() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.closing
}

// stop closes the listener and every open connection. It is safe to call more than once.
func (s *Server) stop() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closing {
		return
	}
	s.closing = true
	close(s.done)

	if s.listener != nil {
		if err := s.listener.Close(); err != nil {
			s.logger.Warn("Error closing listener: %v", err)
		}
	}
	for conn := range s.conns {
		conn.Close()
	}
}

// Shutdown stops accepting connections, closes the open ones and waits for their
// handlers to return or for ctx to expire.
func (s *Server) Shutdown(ctx context.Context) error {
	s.stop()

	finished := make(chan struct{})
	go func() {
		s.wg.Wait()
		close(finished)
	}()

	select {
	case <-finished:
		s.logger.Info("Tuple space server stopped")
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
