package errors

import (
	"fmt"
	"io"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestKVErrorClassification(t *testing.T) {
	tests := []struct {
		name  string
		err   error
		check func(error) bool
	}{
		{"malformed", New(ErrorTypeMalformed, "line too short", nil), IsMalformed},
		{"invalid command", New(ErrorTypeInvalidCommand, "X", nil), IsInvalidCommand},
		{"not found", New(ErrorTypeNotFound, "a", nil), IsNotFound},
		{"already exists", New(ErrorTypeAlreadyExists, "a", nil), IsAlreadyExists},
		{"invalid input", New(ErrorTypeInvalidInput, "empty key", nil), IsInvalidInput},
		{"io", New(ErrorTypeIO, "read", io.ErrUnexpectedEOF), IsIO},
		{"wrapped", fmt.Errorf("decode: %w", New(ErrorTypeMalformed, "bad length", nil)), IsMalformed},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.True(t, tt.check(tt.err))
			assert.False(t, IsInternal(tt.err))
		})
	}

	assert.Equal(t, ErrorType(""), TypeOf(io.EOF))
}

func TestKVErrorMessage(t *testing.T) {
	err := New(ErrorTypeIO, "write response", io.ErrClosedPipe)
	assert.Equal(t, "IO: write response (io: read/write on closed pipe)", err.Error())
	assert.ErrorIs(t, err, io.ErrClosedPipe)
	assert.NotEmpty(t, err.Stack)

	assert.Equal(t, "NOT_FOUND: a", New(ErrorTypeNotFound, "a", nil).Error())
}

func TestRecoverError(t *testing.T) {
	assert.Nil(t, RecoverError(nil))
	assert.True(t, IsInternal(RecoverError("boom")))
	assert.True(t, IsInternal(RecoverError(io.EOF)))
	assert.True(t, IsInternal(RecoverError(42)))
	assert.ErrorIs(t, RecoverError(io.EOF), io.EOF)
}
