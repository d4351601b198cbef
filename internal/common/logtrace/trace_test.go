package logtrace

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRequestID(t *testing.T) {
	t.Run("empty when absent", func(t *testing.T) {
		assert.Empty(t, RequestIDFromContext(context.Background()))
		var nilCtx context.Context
		assert.Empty(t, RequestIDFromContext(nilCtx))
	})

	t.Run("round trip", func(t *testing.T) {
		ctx := WithRequestID(context.Background(), "req-1")
		assert.Equal(t, "req-1", RequestIDFromContext(ctx))
	})

	t.Run("ensure keeps an existing id", func(t *testing.T) {
		ctx := WithRequestID(context.Background(), "req-2")
		got, id := EnsureRequestID(ctx)
		assert.Equal(t, "req-2", id)
		assert.Equal(t, ctx, got)
	})

	t.Run("ensure generates a uuidv7", func(t *testing.T) {
		ctx, id := EnsureRequestID(context.Background())
		assert.Equal(t, id, RequestIDFromContext(ctx))
		parsed, err := uuid.Parse(id)
		require.NoError(t, err)
		assert.Equal(t, uuid.Version(7), parsed.Version())
	})
}

func TestInitConsoleLogger(t *testing.T) {
	assert.NoError(t, InitConsoleLogger("debug", false))
	assert.NoError(t, InitConsoleLogger("", true))
	assert.Error(t, InitConsoleLogger("loud", false))
	InitLogger()
}
