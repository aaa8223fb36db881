package adapter

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mmcdole/playloop/internal/catalog"
)

func TestLoadConfigDefaults(t *testing.T) {
	t.Chdir(t.TempDir())

	cfg, err := LoadConfig(t.TempDir())
	require.NoError(t, err)

	assert.Equal(t, catalog.DefaultBaseURL, cfg.Catalog.BaseURL)
	assert.Equal(t, "US", cfg.Catalog.Region)
	assert.Equal(t, 15*time.Second, cfg.Catalog.Timeout)
	assert.Equal(t, "mpv", cfg.Player.Command)
	assert.Equal(t, 5*time.Second, cfg.Player.ReadyTimeout)
	assert.Empty(t, cfg.Catalog.APIKey)
}

func TestLoadConfigFromFile(t *testing.T) {
	t.Chdir(t.TempDir())
	dir := t.TempDir()
	yaml := `
catalog:
  region: GB
  timeout: 3s
player:
  command: vlc
  args: ["--fullscreen"]
  ready_timeout: 750ms
storage:
  data_dir: ~/playloop-data
logging:
  level: debug
`
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.yaml"), []byte(yaml), 0644))

	cfg, err := LoadConfig(dir)
	require.NoError(t, err)

	assert.Equal(t, "GB", cfg.Catalog.Region)
	assert.Equal(t, 3*time.Second, cfg.Catalog.Timeout)
	assert.Equal(t, "vlc", cfg.Player.Command)
	assert.Equal(t, []string{"--fullscreen"}, cfg.Player.Args)
	assert.Equal(t, 750*time.Millisecond, cfg.Player.ReadyTimeout)
	assert.Equal(t, "debug", cfg.Logging.Level)

	home, err := os.UserHomeDir()
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(home, "playloop-data"), cfg.Storage.DataDir)
}

func TestLoadConfigEnvOverridesFile(t *testing.T) {
	t.Chdir(t.TempDir())
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.yaml"), []byte("catalog:\n  region: GB\n"), 0644))

	t.Setenv("PLAYLOOP_CATALOG_REGION", "DE")
	t.Setenv("PLAYLOOP_CATALOG_API_KEY", "secret")

	cfg, err := LoadConfig(dir)
	require.NoError(t, err)
	assert.Equal(t, "DE", cfg.Catalog.Region)
	assert.Equal(t, "secret", cfg.Catalog.APIKey)
}

func TestLoadConfigReadsDotEnv(t *testing.T) {
	work := t.TempDir()
	t.Chdir(work)
	require.NoError(t, os.WriteFile(filepath.Join(work, ".env"), []byte("PLAYLOOP_UI_THEME=dark\n"), 0644))
	t.Cleanup(func() { os.Unsetenv("PLAYLOOP_UI_THEME") })

	cfg, err := LoadConfig(t.TempDir())
	require.NoError(t, err)
	assert.Equal(t, "dark", cfg.UI.Theme)
}

func TestLoadConfigRejectsBrokenFile(t *testing.T) {
	t.Chdir(t.TempDir())
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.yaml"), []byte("catalog: [unterminated"), 0644))

	_, err := LoadConfig(dir)
	assert.Error(t, err)
}

func TestExpandHome(t *testing.T) {
	home, err := os.UserHomeDir()
	require.NoError(t, err)

	assert.Equal(t, home, expandHome("~"))
	assert.Equal(t, filepath.Join(home, "a", "b"), expandHome("~/a/b"))
	assert.Equal(t, "/abs/path", expandHome("/abs/path"))
	assert.Equal(t, "~user/x", expandHome("~user/x"))
}
