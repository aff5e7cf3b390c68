package core

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// ensures that random UIDs carry the root, fit into a UI value and differ
func TestNewRandInstanceUID(t *testing.T) {
	t.Parallel()
	a, err := NewRandInstanceUID()
	require.NoError(t, err)
	b, err := NewRandInstanceUID()
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(a, UIDRoot))
	assert.LessOrEqual(t, len(a), 64)
	assert.NotEqual(t, a, b)
	assert.True(t, len(ImplementationClassUID) <= 64)
}
