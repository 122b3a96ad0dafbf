package shared

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestHealthManagerOverall(t *testing.T) {
	hm := NewHealthManager()
	ctx := context.Background()

	overall, status := hm.Overall(ctx)
	assert.Equal(t, StatusOK, overall)
	assert.Empty(t, status)

	hm.RegisterChecker("store", CheckerFunc(func(context.Context) HealthStatus {
		return HealthStatus{Status: StatusOK, Timestamp: time.Now()}
	}))
	overall, status = hm.Overall(ctx)
	assert.Equal(t, StatusOK, overall)
	assert.Contains(t, status, "store")

	hm.RegisterChecker("listener", CheckerFunc(func(context.Context) HealthStatus {
		return HealthStatus{Status: StatusError, Message: "not listening", Timestamp: time.Now()}
	}))
	overall, status = hm.Overall(ctx)
	assert.Equal(t, StatusError, overall)
	assert.Equal(t, "not listening", status["listener"].Message)
}
