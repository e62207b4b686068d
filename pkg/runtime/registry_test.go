package runtime

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRegistryLookup(t *testing.T) {
	r := NewRegistry()
	called := false
	r.Register("noop", func(ctx *Context, args json.RawMessage) error {
		called = true
		return nil
	})

	fn, ok := r.Lookup("noop")
	require.True(t, ok)
	require.NoError(t, fn(nil, nil))
	assert.True(t, called)

	_, ok = r.Lookup("missing")
	assert.False(t, ok)
}

func TestRegistryRegisterDuplicatePanics(t *testing.T) {
	r := NewRegistry()
	r.Register("dup", func(ctx *Context, args json.RawMessage) error { return nil })
	assert.Panics(t, func() {
		r.Register("dup", func(ctx *Context, args json.RawMessage) error { return nil })
	})
}

func TestErrorKindOf(t *testing.T) {
	err := NewError(KindConflict, "slot %d occupied", 3)
	assert.Equal(t, KindConflict, KindOf(err))
	assert.Equal(t, KindInternal, KindOf(assertPlainError{}))
}

type assertPlainError struct{}

func (assertPlainError) Error() string { return "plain" }
