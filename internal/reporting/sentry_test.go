package reporting

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestSanitizeError(t *testing.T) {
	got := sanitizeError("player 123e4567-e89b-12d3-a456-426614174000 wallet 9xQeWvG816bUx9EPjHmaT23yvVM2ZWbrrpZb9PusVFin failed")
	require.Equal(t, "player <uuid> wallet <address> failed", got)
}

func TestContextMeta(t *testing.T) {
	ctx := AddTagsToContext(context.Background(), map[string]string{"a": "1"})
	ctx = SetPlayerIDInContext(ctx, "42")
	child := AddTagsToContext(ctx, map[string]string{"b": "2"})

	require.Equal(t, map[string]string{"a": "1"}, metaFromContext(ctx).tags)
	m := metaFromContext(child)
	require.Equal(t, map[string]string{"a": "1", "b": "2"}, m.tags)
	require.Equal(t, "42", m.playerID)
}

func TestReportWithoutHub(t *testing.T) {
	Report(context.Background(), errors.New("boom"))
	Report(context.Background(), nil)
}
