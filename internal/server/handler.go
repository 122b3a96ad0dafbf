package server

import (
	"bufio"
	"context"
	"errors"
	"io"
	"net"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	kvErr "github.com/sajjad-MoBe/tuplespace/internal/errors"
	"github.com/sajjad-MoBe/tuplespace/internal/protocol"
	"github.com/sajjad-MoBe/tuplespace/internal/storage"
)

// commandHandler runs one decoded request against the store and returns the
// response line. A store-logic miss is reported as a NOT_FOUND or ALREADY_EXISTS
// error alongside its response line.
type commandHandler func(req protocol.Request) (string, error)

func (s *Server) commandHandlers() map[protocol.Command]commandHandler {
	return map[protocol.Command]commandHandler{
		protocol.CmdRead: s.handleRead,
		protocol.CmdGet:  s.handleGet,
		protocol.CmdPut:  s.handlePut,
	}
}

var operations = map[protocol.Command]storage.Operation{
	protocol.CmdRead: storage.OpRead,
	protocol.CmdGet:  storage.OpGet,
	protocol.CmdPut:  storage.OpPut,
}

// handleConnection serves one client until it disconnects or an I/O error occurs.
// Protocol errors are answered and the loop keeps reading.
func (s *Server) handleConnection(ctx context.Context, conn net.Conn) {
	logger := s.logger.WithFields(map[string]interface{}{"remote": conn.RemoteAddr().String()})

	s.observer.ConnectionOpened()
	defer func() {
		if r := recover(); r != nil {
			logger.Error("Connection handler panicked: %v", kvErr.RecoverError(r))
		}
		if err := conn.Close(); err != nil && !errors.Is(err, net.ErrClosed) {
			logger.Warn("Error closing connection: %v", err)
		}
		s.observer.ConnectionClosed()
		s.untrack(conn)
	}()

	logger.Debug("Client connected")

	reader := bufio.NewReader(conn)
	writer := bufio.NewWriter(conn)

	for {
		line, err := protocol.ReadLine(reader)
		if err != nil {
			if errors.Is(err, io.EOF) || errors.Is(err, net.ErrClosed) {
				logger.Info("Client disconnected")
			} else {
				logger.Warn("%v", kvErr.New(kvErr.ErrorTypeIO, "read request", err))
			}
			return
		}

		resp := s.dispatch(ctx, line)

		if _, err := writer.WriteString(resp); err != nil {
			logger.Warn("%v", kvErr.New(kvErr.ErrorTypeIO, "write response", err))
			return
		}
		if err := writer.Flush(); err != nil {
			logger.Warn("%v", kvErr.New(kvErr.ErrorTypeIO, "flush response", err))
			return
		}
	}
}

// dispatch decodes one request line and returns the response line to send back
func (s *Server) dispatch(ctx context.Context, line string) string {
	req, err := protocol.Decode(line)
	if err != nil {
		s.logger.Debug("Rejecting %q: %v", line, err)
		s.observer.ProtocolError("invalid_request")
		return protocol.InvalidRequest
	}

	handler, ok := s.handlers[req.Command]
	if !ok {
		s.logger.Debug("Rejecting %q: unknown command %q", line, req.Command)
		s.observer.ProtocolError("invalid_command")
		return protocol.InvalidCommand
	}

	op := operations[req.Command]
	_, span := s.tracer.Start(ctx, "tuplespace."+string(op))
	defer span.End()

	resp, err := handler(req)

	span.SetAttributes(
		attribute.String("tuplespace.operation", string(op)),
		attribute.String("tuplespace.key", req.Key),
		attribute.Bool("tuplespace.ok", err == nil),
	)
	if err != nil {
		span.SetStatus(codes.Error, err.Error())
	}
	return resp
}

func (s *Server) handleRead(req protocol.Request) (string, error) {
	value, found := s.store.Read(req.Key)
	if !found {
		return protocol.ResponseNotExist(req.Key), kvErr.New(kvErr.ErrorTypeNotFound, req.Key, nil)
	}
	return protocol.ResponseRead(req.Key, value), nil
}

func (s *Server) handleGet(req protocol.Request) (string, error) {
	value, found := s.store.Get(req.Key)
	if !found {
		return protocol.ResponseNotExist(req.Key), kvErr.New(kvErr.ErrorTypeNotFound, req.Key, nil)
	}
	return protocol.ResponseRemoved(req.Key, value), nil
}

func (s *Server) handlePut(req protocol.Request) (string, error) {
	if !s.store.Put(req.Key, req.Value) {
		return protocol.ResponseAlreadyExists(req.Key), kvErr.New(kvErr.ErrorTypeAlreadyExists, req.Key, nil)
	}
	return protocol.ResponseAdded(req.Key, req.Value), nil
}
