package utils

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestWithDefaultArgs(t *testing.T) {
	ctx := context.Background()
	assert.Empty(t, ctxArgs(ctx))

	tagged := WithDefaultArgs(ctx, "class", "a.B")
	assert.Equal(t, []any{"class", "a.B"}, ctxArgs(tagged))

	// stacking merges, and the parent context stays untouched
	stacked := WithDefaultArgs(tagged, "session", 7)
	assert.Equal(t, []any{"class", "a.B", "session", 7}, ctxArgs(stacked))
	assert.Equal(t, []any{"class", "a.B"}, ctxArgs(tagged))
}
