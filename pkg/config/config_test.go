package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadMissingFileUsesDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.True(t, cfg.Headless, "headless must default to true")
	assert.Equal(t, DefaultNavigationTimeout, cfg.NavigationTimeout)
	assert.Equal(t, DefaultElementTimeout, cfg.ElementTimeout)
	assert.Equal(t, DefaultSettleDelay, cfg.SettleDelay)
	assert.NotEmpty(t, cfg.DataDir)
	assert.NotEmpty(t, cfg.DebugDir)
}

func TestSaveAndReload(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")

	cfg, err := Load(path)
	require.NoError(t, err)

	cfg.Headless = false
	cfg.SettleDelay = 5 * time.Second
	require.NoError(t, cfg.Save())

	reloaded, err := Load(path)
	require.NoError(t, err)
	assert.False(t, reloaded.Headless)
	assert.Equal(t, 5*time.Second, reloaded.SettleDelay)
}

func TestLoadPartialFileFillsFallbacks(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("headless: false\ndata_dir: "+dir+"\n"), 0600))

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.False(t, cfg.Headless)
	assert.Equal(t, dir, cfg.DataDir)
	assert.Equal(t, filepath.Join(dir, "debug"), cfg.DebugDir)
	assert.Equal(t, filepath.Join(dir, "redpilot.db"), cfg.DatabasePath)
	assert.Equal(t, DefaultElementTimeout, cfg.ElementTimeout)
}

func TestLoadExplicitPathsWinOverDerivation(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	debugDir := filepath.Join(dir, "elsewhere")
	raw := "data_dir: " + dir + "\ndebug_dir: " + debugDir + "\n"
	require.NoError(t, os.WriteFile(path, []byte(raw), 0600))

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, debugDir, cfg.DebugDir, "an explicit debug_dir beats derivation")
	assert.Equal(t, filepath.Join(dir, "redpilot.db"), cfg.DatabasePath)
}

func TestProfileDirCreatesDirectory(t *testing.T) {
	dir := t.TempDir()
	cfg := &Config{DataDir: dir}

	profile, err := cfg.ProfileDir("13800138000")
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "profiles", "13800138000"), profile)

	info, err := os.Stat(profile)
	require.NoError(t, err)
	assert.True(t, info.IsDir())
}
