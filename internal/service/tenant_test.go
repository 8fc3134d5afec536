package service

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerateAPIKey(t *testing.T) {
	raw, hash, err := generateAPIKey()
	require.NoError(t, err)

	assert.True(t, strings.HasPrefix(raw, "lg_"))
	assert.Len(t, raw, 3+APIKeyBytes*2)
	assert.Equal(t, hashAPIKey(raw), hash)

	// Keys must not repeat.
	raw2, _, err := generateAPIKey()
	require.NoError(t, err)
	assert.NotEqual(t, raw, raw2)
}

func TestHashAPIKeyDeterministic(t *testing.T) {
	assert.Equal(t, hashAPIKey("lg_abc"), hashAPIKey("lg_abc"))
	assert.NotEqual(t, hashAPIKey("lg_abc"), hashAPIKey("lg_abd"))
	assert.Len(t, hashAPIKey("lg_abc"), 64)
}
