package registry

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleConfig = `
endpoints:
  - id: "openai:small"
    base_url: "https://api.openai.com/v1"
    api_key_env: "OPENAI_API_KEY"
    model: "text-embedding-3-small"
    encoding: "cl100k_base"
    gas: 5
    batch_size: 200
    tags: ["default"]
  - id: "local:nomic"
    base_url: "http://localhost:11434/v1"
    api_key_env: "LOCAL_API_KEY"
    model: "nomic-embed-text"
    tags: ["local"]
`

func TestLoadRegistryFromBytes(t *testing.T) {
	reg, err := LoadRegistryFromBytes([]byte(sampleConfig))
	require.NoError(t, err)
	require.Len(t, reg.Endpoints, 2)

	ep := reg.GetEndpointByID("openai:small")
	require.NotNil(t, ep)
	assert.Equal(t, "text-embedding-3-small", ep.Model)
	assert.Equal(t, 5, ep.Gas)
	assert.Equal(t, 200, ep.BatchSize)

	assert.Nil(t, reg.GetEndpointByID("missing"))
	assert.Len(t, reg.GetEndpointsByTag("local"), 1)

	// Tag selection preserves declaration order: the first match is what
	// tag-based lookup callers get.
	tagged := reg.GetEndpointsByTag("default")
	require.Len(t, tagged, 1)
	assert.Equal(t, "openai:small", tagged[0].ID)
}

func TestLoadRegistryFromBytes_BadYAML(t *testing.T) {
	_, err := LoadRegistryFromBytes([]byte("endpoints: [unclosed"))
	assert.Error(t, err)
}

func TestLoader_MissingFileYieldsEmptyRegistry(t *testing.T) {
	t.Setenv("EMBEDKIT_CONFIG", "")

	loader := NewLoader(filepath.Join(t.TempDir(), "nope.yaml"))
	reg, err := loader.LoadRegistry()

	require.NoError(t, err)
	assert.Empty(t, reg.Endpoints)
}

func TestLoader_EnvOverridesPath(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "override.yaml")
	require.NoError(t, os.WriteFile(path, []byte(sampleConfig), 0o644))

	t.Setenv("EMBEDKIT_CONFIG", path)

	loader := NewLoader(filepath.Join(dir, "ignored.yaml"))
	reg, err := loader.LoadRegistry()

	require.NoError(t, err)
	assert.Len(t, reg.Endpoints, 2)
}
