package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("PROJECT_DIR", dir)

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, ":8080", cfg.ListenAddr)
	assert.Equal(t, dir, cfg.ProjectDir)
	assert.Equal(t, []string{"auth", "orders", "admin"}, cfg.CollectionNames)
	assert.Equal(t, DefaultCollectionTimeout, cfg.CollectionTimeout)
	assert.True(t, cfg.StreamOutput)
	assert.False(t, cfg.RunAllIncludesCollections)
	assert.Zero(t, cfg.RunInterval)
}

func TestLoad_EnvOverrides(t *testing.T) {
	t.Setenv("PROJECT_DIR", t.TempDir())
	t.Setenv("COLLECTION_NAMES", "auth, menus ,,loyalty,auth")
	t.Setenv("COLLECTION_TIMEOUT", "90s")
	t.Setenv("RUN_INTERVAL", "1h")
	t.Setenv("STREAM_OUTPUT", "false")
	t.Setenv("UNIT_COMMAND", "go test ./...")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, []string{"auth", "menus", "loyalty"}, cfg.CollectionNames)
	assert.Equal(t, 90*time.Second, cfg.CollectionTimeout)
	assert.Equal(t, time.Hour, cfg.RunInterval)
	assert.False(t, cfg.StreamOutput)
	assert.Equal(t, "go test ./...", cfg.UnitCommand)
}

func TestLoad_File(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "dashboard.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
listenAddr: ":9090"
collectionNames: [reviews, newsletters]
collectionTimeout: 2m
runAllIncludesCollections: true
`), 0644))

	t.Setenv("DASHBOARD_CONFIG", path)
	t.Setenv("PROJECT_DIR", dir)
	t.Setenv("LISTEN_ADDR", ":7070")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, ":7070", cfg.ListenAddr, "environment wins over file")
	assert.Equal(t, []string{"reviews", "newsletters"}, cfg.CollectionNames)
	assert.Equal(t, 2*time.Minute, cfg.CollectionTimeout)
	assert.True(t, cfg.RunAllIncludesCollections)
}

func TestLoad_Invalid(t *testing.T) {
	tests := []struct {
		name string
		key  string
		val  string
	}{
		{"bad duration", "COLLECTION_TIMEOUT", "soon"},
		{"bad bool", "STREAM_OUTPUT", "maybe"},
		{"same report path", "E2E_REPORT_PATH", "reports/unit-results.json"},
		{"zero timeout", "COLLECTION_TIMEOUT", "0s"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv("PROJECT_DIR", t.TempDir())
			t.Setenv(tt.key, tt.val)

			_, err := Load()
			assert.Error(t, err)
		})
	}
}

func TestPath(t *testing.T) {
	cfg := Config{ProjectDir: "/srv/catering"}
	assert.Equal(t, "/srv/catering/reports/unit.json", cfg.Path("reports/unit.json"))
	assert.Equal(t, "/tmp/unit.json", cfg.Path("/tmp/unit.json"))
	assert.Equal(t, "", cfg.Path(""))
}
