package observability

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRequestIDContext(t *testing.T) {
	t.Run("stores and retrieves request ID", func(t *testing.T) {
		ctx := context.Background()
		ctx = WithRequestID(ctx, "req-123")

		result := RequestIDFromContext(ctx)
		assert.Equal(t, "req-123", result)
	})

	t.Run("returns empty string when not set", func(t *testing.T) {
		ctx := context.Background()
		result := RequestIDFromContext(ctx)
		assert.Equal(t, "", result)
	})
}

func TestContextOverwrite(t *testing.T) {
	ctx := context.Background()

	// Set initial values
	ctx = WithRequestID(ctx, "req-1")

	// Overwrite with new values
	ctx = WithRequestID(ctx, "req-2")

	// Should have new value
	assert.Equal(t, "req-2", RequestIDFromContext(ctx))
}
