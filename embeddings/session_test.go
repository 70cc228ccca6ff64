package embeddings

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewSession(t *testing.T) {
	session, err := NewSession("sk-123")
	require.NoError(t, err)
	assert.Equal(t, "sk-123", session.APIKey())

	_, err = NewSession("")
	assert.Error(t, err)
}

func TestNewSessionFromEnv(t *testing.T) {
	t.Run("key set", func(t *testing.T) {
		t.Setenv(APIKeyEnv, "sk-from-env")

		session, err := NewSessionFromEnv()
		require.NoError(t, err)
		assert.Equal(t, "sk-from-env", session.APIKey())
	})

	t.Run("key unset is terminal", func(t *testing.T) {
		t.Setenv(APIKeyEnv, "")

		_, err := NewSessionFromEnv()
		require.Error(t, err)
		assert.Contains(t, err.Error(), APIKeyEnv)
	})
}

func TestConfigFromEnv(t *testing.T) {
	t.Setenv("EMBEDKIT_MODEL", "text-embedding-3-large")
	t.Setenv("EMBEDKIT_GAS", "7")
	t.Setenv("EMBEDKIT_BATCH_SIZE", "not a number")

	cfg := ConfigFromEnv()

	assert.Equal(t, "text-embedding-3-large", cfg.Model)
	assert.Equal(t, 7, cfg.Gas)
	assert.Equal(t, DefaultConfig().BatchSize, cfg.BatchSize)
}
