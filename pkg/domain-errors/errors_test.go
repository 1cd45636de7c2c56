package domainerrors

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCodes(t *testing.T) {
	t.Run("New carries code and message", func(t *testing.T) {
		err := New(CodeNotFound, "tree not found")
		assert.True(t, HasCode(err, CodeNotFound))
		assert.Equal(t, "tree not found", Message(err))
		assert.Equal(t, CodeNotFound, CodeOf(err))
	})

	t.Run("Wrap keeps the cause reachable", func(t *testing.T) {
		cause := errors.New("connection reset")
		err := Wrap(cause, CodeInternal, "failed to load tree")
		assert.ErrorIs(t, err, cause)
		assert.True(t, Is(err, CodeInternal))
	})

	t.Run("code survives fmt wrapping", func(t *testing.T) {
		err := fmt.Errorf("outer: %w", New(CodeConflict, "tree id taken"))
		assert.True(t, HasCode(err, CodeConflict))
	})

	t.Run("plain errors are internal", func(t *testing.T) {
		err := errors.New("boom")
		assert.False(t, HasCode(err, CodeNotFound))
		assert.Equal(t, CodeInternal, CodeOf(err))
		assert.Equal(t, "boom", Message(err))
	})

	t.Run("nil has no code", func(t *testing.T) {
		assert.False(t, HasCode(nil, CodeInternal))
	})
}
