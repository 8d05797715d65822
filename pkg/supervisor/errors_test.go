package supervisor

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSupervisorError_Error(t *testing.T) {
	err := NewError(ErrorCodeSpawnFailed, "could not start").
		WithContext("binary_path", "/opt/app/whodb").
		WithCause(errors.New("permission denied")).
		WithSuggestion("chmod +x the binary")

	msg := err.Error()
	assert.Contains(t, msg, "[SPAWN_FAILED]")
	assert.Contains(t, msg, "could not start")
	assert.Contains(t, msg, "binary_path=/opt/app/whodb")
	assert.Contains(t, msg, "Cause: permission denied")
	assert.Contains(t, msg, "Suggestion: chmod +x the binary")
}

func TestSupervisorError_Unwrap(t *testing.T) {
	cause := errors.New("connection refused")
	err := ErrBackendTimeout("http://localhost:9999", 30, cause)

	assert.True(t, errors.Is(err, cause))

	wrapped := fmt.Errorf("starting backend: %w", err)
	var supErr *SupervisorError
	require.ErrorAs(t, wrapped, &supErr)
	assert.Equal(t, ErrorCodeBackendTimeout, supErr.Code)
}

func TestErrorCodeHelpers(t *testing.T) {
	err := ErrImmediateExit("/opt/app/whodb", 3)

	assert.True(t, IsErrorCode(err, ErrorCodeImmediateExit))
	assert.False(t, IsErrorCode(err, ErrorCodeSpawnFailed))
	assert.Equal(t, ErrorCodeImmediateExit, GetErrorCode(err))
	assert.NotEmpty(t, GetSuggestion(err))

	plain := errors.New("plain")
	assert.False(t, IsErrorCode(plain, ErrorCodeImmediateExit))
	assert.Equal(t, ErrorCode(""), GetErrorCode(plain))
	assert.Empty(t, GetSuggestion(plain))

	assert.False(t, IsErrorCode(nil, ErrorCodeImmediateExit))
}

func TestErrorConstructors_Context(t *testing.T) {
	t.Run("binary not found", func(t *testing.T) {
		searched := []string{"/a/whodb", "/b/whodb"}
		err := ErrBinaryNotFound("whodb", searched)
		assert.Equal(t, "whodb", err.Context["binary_name"])
		assert.Equal(t, searched, err.Context["searched"])
	})

	t.Run("immediate exit", func(t *testing.T) {
		err := ErrImmediateExit("/opt/app/whodb", 127)
		assert.Equal(t, 127, err.Context["exit_code"])
	})

	t.Run("backend timeout", func(t *testing.T) {
		err := ErrBackendTimeout("http://localhost:8080", 30, nil)
		assert.Equal(t, "http://localhost:8080", err.Context["url"])
		assert.Equal(t, 30, err.Context["attempts"])
	})

	t.Run("invalid configuration", func(t *testing.T) {
		err := ErrInvalidConfiguration("probe_attempts", 0, "must be positive")
		assert.Equal(t, "probe_attempts", err.Context["field"])
		assert.Equal(t, 0, err.Context["value"])
	})
}
