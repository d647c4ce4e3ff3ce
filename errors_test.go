package rivet

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestError_MessageRendering(t *testing.T) {
	t.Parallel()

	err := errBindingNotFound("Token(Database)", []string{"Token(Server)", "Token(Repo)"})

	msg := err.Error()
	assert.Contains(t, msg, "BINDING_NOT_FOUND")
	assert.Contains(t, msg, "Token(Database)")
	assert.Contains(t, msg, "Token(Server) -> Token(Repo)")
}

func TestError_IsMatchesByCode(t *testing.T) {
	t.Parallel()

	err := errCircularDependency([]string{"Token(A)", "Token(B)", "Token(A)"})

	assert.True(t, errors.Is(err, &Error{Code: ErrCodeCircularDependency}))
	assert.False(t, errors.Is(err, &Error{Code: ErrCodeBindingNotFound}))
}

func TestError_UnwrapExposesCause(t *testing.T) {
	t.Parallel()

	cause := fmt.Errorf("connection refused")
	err := errFactoryFailed("Token(Database)", cause)

	require.ErrorIs(t, err, cause)
	assert.True(t, IsFactoryFailed(err))
}

func TestError_WrappedPredicates(t *testing.T) {
	t.Parallel()

	inner := errSyncAsyncMismatch("Token(DB)", nil)
	wrapped := fmt.Errorf("during startup: %w", inner)

	assert.True(t, IsSyncAsyncMismatch(wrapped))
	assert.False(t, IsContainerDisposed(wrapped))
}

func TestErrorCode_String(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "AUTOWIRE_CONFIG", ErrCodeAutowireConfig.String())
	assert.Equal(t, "UNKNOWN(999)", ErrorCode(999).String())
}
