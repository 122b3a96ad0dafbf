package api

import (
	"context"
	"net"
	"time"

	"github.com/sajjad-MoBe/tuplespace/internal/shared"
	"github.com/sajjad-MoBe/tuplespace/internal/storage"
)

// StoreHealthChecker checks that the tuple space lock can be taken
type StoreHealthChecker struct {
	store *storage.TupleSpace
}

// NewStoreHealthChecker creates a new store health checker
func NewStoreHealthChecker(store *storage.TupleSpace) *StoreHealthChecker {
	return &StoreHealthChecker{store: store}
}

// Check implements HealthChecker
func (c *StoreHealthChecker) Check(ctx context.Context) shared.HealthStatus {
	start := time.Now()
	done := make(chan int, 1)
	go func() { done <- c.store.Len() }()

	select {
	case tuples := <-done:
		return shared.HealthStatus{
			Status:    shared.StatusOK,
			Timestamp: time.Now(),
			Details: map[string]interface{}{
				"tuples":   tuples,
				"duration": time.Since(start).String(),
			},
		}
	case <-ctx.Done():
		return shared.HealthStatus{
			Status:    shared.StatusError,
			Message:   "Store health check timed out",
			Timestamp: time.Now(),
			Details: map[string]interface{}{
				"error": ctx.Err().Error(),
			},
		}
	}
}

// ListenerHealthChecker reports whether the tuple space listener is bound
type ListenerHealthChecker struct {
	addr func() net.Addr
}

// NewListenerHealthChecker creates a checker around a bound-address accessor
func NewListenerHealthChecker(addr func() net.Addr) *ListenerHealthChecker {
	return &ListenerHealthChecker{addr: addr}
}

// Check implements HealthChecker
func (c *ListenerHealthChecker) Check(ctx context.Context) shared.HealthStatus {
	addr := c.addr()
	if addr == nil {
		return shared.HealthStatus{
			Status:    shared.StatusError,
			Message:   "Tuple space listener is not bound",
			Timestamp: time.Now(),
		}
	}
	return shared.HealthStatus{
		Status:    shared.StatusOK,
		Timestamp: time.Now(),
		Details: map[string]interface{}{
			"address": addr.String(),
		},
	}
}
