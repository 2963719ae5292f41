package cli

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestGetExitCode(t *testing.T) {
	assert.Equal(t, ExitCommandError, GetExitCode(NewExitError(ExitCommandError, "bad config")))
	assert.Equal(t, ExitFailure, GetExitCode(errors.New("plain error")))

	// The code survives wrapping.
	wrapped := fmt.Errorf("outer: %w", NewExitError(ExitCommandError, "inner"))
	assert.Equal(t, ExitCommandError, GetExitCode(wrapped))
}

func TestExitError_Message(t *testing.T) {
	err := WrapExitError(ExitFailure, "engine error", errors.New("boom"))
	assert.Equal(t, "engine error: boom", err.Error())
	assert.Equal(t, "boom", err.Unwrap().Error())

	bare := NewExitError(ExitCommandError, "mode is required")
	assert.Equal(t, "mode is required", bare.Error())
	assert.Nil(t, bare.Unwrap())
}
