package server

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfigDefaults(t *testing.T) {
	cfg, err := LoadConfig("")
	require.NoError(t, err)

	assert.Equal(t, "127.0.0.1", cfg.Host)
	assert.Equal(t, 8080, cfg.Port)
	assert.Equal(t, "schemas", cfg.SchemaDir)
	assert.Empty(t, cfg.StorePath)
	assert.False(t, cfg.Debug)
}

func TestLoadConfigFromFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "formwell.yaml")
	content := `host: 0.0.0.0
port: 9090
schema_dir: /etc/formwell/schemas
store_path: /var/lib/formwell/ledger.db
debug: true
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))

	cfg, err := LoadConfig(path)
	require.NoError(t, err)

	assert.Equal(t, "0.0.0.0", cfg.Host)
	assert.Equal(t, 9090, cfg.Port)
	assert.Equal(t, "/etc/formwell/schemas", cfg.SchemaDir)
	assert.Equal(t, "/var/lib/formwell/ledger.db", cfg.StorePath)
	assert.True(t, cfg.Debug)
}

func TestLoadConfigPartialFileKeepsDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "formwell.yaml")
	require.NoError(t, os.WriteFile(path, []byte("port: 3000\n"), 0644))

	cfg, err := LoadConfig(path)
	require.NoError(t, err)

	assert.Equal(t, 3000, cfg.Port)
	assert.Equal(t, "127.0.0.1", cfg.Host)
}

func TestLoadConfigMissingFile(t *testing.T) {
	_, err := LoadConfig("/nonexistent/formwell.yaml")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "reading config")
}

func TestLoadConfigEnvOverride(t *testing.T) {
	t.Setenv("FORMWELL_PORT", "4242")

	cfg, err := LoadConfig("")
	require.NoError(t, err)
	assert.Equal(t, 4242, cfg.Port)
}

func TestConfigAddr(t *testing.T) {
	cfg := Config{Host: "0.0.0.0", Port: 9090}
	assert.Equal(t, "0.0.0.0:9090", cfg.Addr())
}
