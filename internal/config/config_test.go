package config_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/InNinoWeTrust/covalent/internal/config"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfigFile(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestLoadConfig_RequiresAPIKey(t *testing.T) {
	t.Setenv(config.APIKeyEnvVar, "")
	os.Unsetenv(config.APIKeyEnvVar)

	path := writeConfigFile(t, "server:\n  port: \":8080\"\n")
	_, err := config.LoadConfig(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), config.APIKeyEnvVar)
}

func TestLoadConfig_AppliesDefaults(t *testing.T) {
	t.Setenv(config.APIKeyEnvVar, "ckey_test")

	path := writeConfigFile(t, "server:\n  port: \":9090\"\n")
	cfg, err := config.LoadConfig(path)
	require.NoError(t, err)

	assert.Equal(t, ":9090", cfg.Server.Port)
	assert.Equal(t, "ckey_test", cfg.Covalent.APIKey)
	assert.Equal(t, "https://api.covalenthq.com", cfg.Covalent.BaseURL)
	assert.Equal(t, int64(10000), cfg.Covalent.RequestTimeoutMillis)
	assert.Equal(t, "https://ipfs.io/ipfs/", cfg.Metadata.IPFSGateway)
	assert.Equal(t, 5, cfg.Gallery.MaxConcurrentContracts)
	assert.Equal(t, 30, cfg.Session.TTLMinutes)
}

func TestLoadConfig_ReadsValues(t *testing.T) {
	t.Setenv(config.APIKeyEnvVar, "ckey_test")

	path := writeConfigFile(t, `
server:
  port: ":8081"
covalent:
  baseURL: "https://covalent.local"
  requestTimeoutMillis: 2500
  rateLimit: 10
  burstLimit: 5
chain:
  rpcURL: "https://rpc.local"
gallery:
  maxConcurrentContracts: 3
`)
	cfg, err := config.LoadConfig(path)
	require.NoError(t, err)

	assert.Equal(t, "https://covalent.local", cfg.Covalent.BaseURL)
	assert.Equal(t, int64(2500), cfg.Covalent.RequestTimeoutMillis)
	assert.Equal(t, 10, cfg.Covalent.RateLimit)
	assert.Equal(t, "https://rpc.local", cfg.Chain.RPCURL)
	assert.Equal(t, 3, cfg.Gallery.MaxConcurrentContracts)
}

func TestLoadConfig_MissingFile(t *testing.T) {
	t.Setenv(config.APIKeyEnvVar, "ckey_test")

	_, err := config.LoadConfig(filepath.Join(t.TempDir(), "absent.yaml"))
	assert.Error(t, err)
}
