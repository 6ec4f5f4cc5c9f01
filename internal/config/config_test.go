package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

func TestLoadDefaultsWithoutFile(t *testing.T) {
	t.Setenv("CONFIG_PATH", filepath.Join(t.TempDir(), "missing.yaml"))

	c, err := Load()
	require.NoError(t, err)

	wd, err := os.Getwd()
	require.NoError(t, err)
	assert.Equal(t, ":3001", c.ListenAddr)
	assert.Equal(t, filepath.Join(wd, "uploads"), c.UploadsDir)
	assert.Equal(t, []string{"*"}, c.CORSOrigins)
	assert.Equal(t, "overwrite", c.DuplicatePolicy)
	assert.Equal(t, 24*time.Hour, c.StagingTTL)
}

func TestLoadYAMLAndEnvOverride(t *testing.T) {
	t.Setenv("CONFIG_PATH", writeConfig(t, `
listen_addr: ":9000"
uploads_dir: /srv/uploads
duplicate_policy: Reject
max_chunk_bytes: 1024
staging_ttl: 2h
janitor_interval: 5m
journal_dsn: memory://
`))
	t.Setenv("LISTEN_ADDR", ":9100")
	t.Setenv("CORS_ALLOWED_ORIGINS", "https://a.example, https://b.example")
	t.Setenv("MAX_CONCURRENT_PLACEMENTS", "8")

	c, err := Load()
	require.NoError(t, err)

	assert.Equal(t, ":9100", c.ListenAddr)
	assert.Equal(t, "/srv/uploads", c.UploadsDir)
	assert.Equal(t, "reject", c.DuplicatePolicy)
	assert.Equal(t, int64(1024), c.MaxChunkBytes)
	assert.Equal(t, 2*time.Hour, c.StagingTTL)
	assert.Equal(t, 5*time.Minute, c.JanitorInterval)
	assert.Equal(t, "memory://", c.JournalDSN)
	assert.Equal(t, 8, c.MaxConcurrentPlacements)
	assert.Equal(t, []string{"https://a.example", "https://b.example"}, c.CORSOrigins)
}

func TestLoadRejectsInvalidValues(t *testing.T) {
	cases := map[string]string{
		"policy":    "duplicate_policy: append\n",
		"log level": "log_level: loud\n",
		"redis":     "redis_addr: not-an-addr\n",
		"yaml":      "listen_addr: [\n",
		"zero ttl":  "staging_ttl: 0s\n",
	}
	for name, body := range cases {
		t.Run(name, func(t *testing.T) {
			t.Setenv("CONFIG_PATH", writeConfig(t, body))
			_, err := Load()
			require.Error(t, err)
		})
	}
}

func TestLoadBadEnvDuration(t *testing.T) {
	t.Setenv("CONFIG_PATH", filepath.Join(t.TempDir(), "missing.yaml"))
	t.Setenv("STAGING_TTL", "soon")

	_, err := Load()
	require.Error(t, err)
}

func TestLoadRejectsZeroStagingTTLFromEnv(t *testing.T) {
	t.Setenv("CONFIG_PATH", filepath.Join(t.TempDir(), "missing.yaml"))
	t.Setenv("STAGING_TTL", "0s")

	_, err := Load()
	require.ErrorContains(t, err, "StagingTTL")
}
