package client

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"net"
	"os"
	"strconv"
	"sync"
	"time"

	kvErr "github.com/sajjad-MoBe/tuplespace/internal/errors"
	"github.com/sajjad-MoBe/tuplespace/internal/protocol"
	"github.com/sajjad-MoBe/tuplespace/internal/shared"
)

// DefaultTimeout bounds both the dial and every response read
const DefaultTimeout = 5 * time.Second

// Config holds the client configuration
type Config struct {
	Host        string
	Port        int
	RequestFile string
	Timeout     time.Duration
}

// DefaultConfig returns a config with the default timeout and no target
func DefaultConfig() Config {
	return Config{Timeout: DefaultTimeout}
}

// Validate checks the configuration
func (c Config) Validate() error {
	if c.Host == "" {
		return kvErr.New(kvErr.ErrorTypeInvalidInput, "hostname is required", nil)
	}
	if c.Port <= 0 || c.Port > 65535 {
		return kvErr.New(kvErr.ErrorTypeInvalidInput, fmt.Sprintf("port %d out of range", c.Port), nil)
	}
	if c.RequestFile == "" {
		return kvErr.New(kvErr.ErrorTypeInvalidInput, "request file is required", nil)
	}
	if c.Timeout <= 0 {
		return kvErr.New(kvErr.ErrorTypeInvalidInput, "timeout must be positive", nil)
	}
	return nil
}

// Address returns host:port
func (c Config) Address() string {
	return net.JoinHostPort(c.Host, strconv.Itoa(c.Port))
}

// Client sends framed requests over a single TCP connection and waits for one
// response line per request
type Client struct {
	config Config
	out    io.Writer
	logger *shared.Logger

	mu     sync.Mutex
	conn   net.Conn
	reader *bufio.Reader
}

// NewClient creates a new client. Request/response pairs are printed to out.
func NewClient(config Config, out io.Writer, logger *shared.Logger) *Client {
	if out == nil {
		out = os.Stdout
	}
	if logger == nil {
		logger = shared.DefaultLogger
	}
	return &Client{
		config: config,
		out:    out,
		logger: logger,
	}
}

// Connect dials the server
func (c *Client) Connect(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.conn != nil {
		return nil
	}

	dialer := net.Dialer{Timeout: c.config.Timeout}
	conn, err := dialer.DialContext(ctx, "tcp", c.config.Address())
	if err != nil {
		return kvErr.New(kvErr.ErrorTypeIO, "failed to connect to "+c.config.Address(), err)
	}
	c.conn = conn
	c.reader = bufio.NewReader(conn)
	c.logger.Debug("Connected to %s", c.config.Address())
	return nil
}

// Send encodes one request file line, writes it and returns the server's
// response line without its terminator
func (c *Client) Send(line string) (string, error) {
	frame, err := protocol.EncodeRequest(line)
	if err != nil {
		return "", err
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if c.conn == nil {
		return "", kvErr.New(kvErr.ErrorTypeIO, "not connected", nil)
	}

	if _, err := io.WriteString(c.conn, frame); err != nil {
		return "", kvErr.New(kvErr.ErrorTypeIO, "failed to write request", err)
	}
	if err := c.conn.SetReadDeadline(time.Now().Add(c.config.Timeout)); err != nil {
		return "", kvErr.New(kvErr.ErrorTypeIO, "failed to set read deadline", err)
	}
	resp, err := protocol.ReadLine(c.reader)
	if err != nil {
		return "", kvErr.New(kvErr.ErrorTypeIO, "failed to read response", err)
	}
	return resp, nil
}

// Close closes the connection
func (c *Client) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.conn == nil {
		return nil
	}
	err := c.conn.Close()
	c.conn = nil
	c.reader = nil
	return err
}

// Run connects, then sends every line of the request file in order and prints
// each request with its response. The first encoding or I/O error ends the run.
func (c *Client) Run(ctx context.Context) error {
	if err := c.config.Validate(); err != nil {
		return err
	}

	file, err := os.Open(c.config.RequestFile)
	if err != nil {
		return kvErr.New(kvErr.ErrorTypeIO, "failed to open request file", err)
	}
	defer file.Close()

	if err := c.Connect(ctx); err != nil {
		return err
	}
	defer c.Close()

	scanner := bufio.NewScanner(file)
	lineNo := 0
	for scanner.Scan() {
		if err := ctx.Err(); err != nil {
			return err
		}
		lineNo++
		line := scanner.Text()

		resp, err := c.Send(line)
		if err != nil {
			return fmt.Errorf("line %d: %w", lineNo, err)
		}
		fmt.Fprintf(c.out, "Request: %s\n", line)
		fmt.Fprintf(c.out, "Response: %s\n", resp)
	}
	if err := scanner.Err(); err != nil {
		return kvErr.New(kvErr.ErrorTypeIO, "failed to read request file", err)
	}
	return nil
}
