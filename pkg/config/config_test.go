package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)

	require.Equal(t, "mongodb://localhost:27017", cfg.Mongo.URI)
	require.Equal(t, "master_crawler_logs", cfg.Mongo.LogCollection)
	require.Equal(t, "https://www.wanted.co.kr", cfg.Wanted.BaseURL)
	require.Equal(t, "https://www.jobkorea.co.kr", cfg.Korea.BaseURL)
	require.Equal(t, 15*time.Second, cfg.FetchTimeout())
	require.Equal(t, time.Second, cfg.FetchDelay())
	require.Equal(t, 8080, cfg.Ops.Port)
}

func TestLoadFromFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "harvester.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
mongo:
  database: harvest_test
ops:
  port: 9090
`), 0o600))

	cfg, err := Load(path)
	require.NoError(t, err)
	require.Equal(t, "harvest_test", cfg.Mongo.Database)
	require.Equal(t, 9090, cfg.Ops.Port)
	require.Equal(t, "mongodb://localhost:27017", cfg.Mongo.URI, "unset keys keep defaults")
}

func TestLoadFromEnvironment(t *testing.T) {
	t.Setenv("HARVESTER_MONGO_DATABASE", "from_env")
	t.Setenv("HARVESTER_OPS_PORT", "7070")

	cfg, err := Load("")
	require.NoError(t, err)
	require.Equal(t, "from_env", cfg.Mongo.Database)
	require.Equal(t, 7070, cfg.Ops.Port)
}

func TestValidateRejectsBadValues(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)

	cfg.Mongo.URI = ""
	require.ErrorContains(t, cfg.Validate(), "mongo.uri")

	cfg, _ = Load("")
	cfg.Fetch.TimeoutSeconds = 0
	require.ErrorContains(t, cfg.Validate(), "fetch.timeout_seconds")
}

func TestLoadMissingFileFails(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	require.Error(t, err)
}
