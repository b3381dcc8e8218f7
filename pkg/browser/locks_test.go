package browser

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"redpilot/pkg/logging"
)

func testLogger(t *testing.T) *logging.Logger {
	t.Helper()
	logging.SetLogDir(t.TempDir())
	log, _ := logging.New("test")
	t.Cleanup(func() { log.Close() })
	return log
}

func TestJanitorRemovesLockArtifacts(t *testing.T) {
	profileDir := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(profileDir, "Default"), 0750))

	for _, artifact := range lockArtifacts {
		path := filepath.Join(profileDir, artifact)
		require.NoError(t, os.WriteFile(path, []byte("stale"), 0600))
	}
	// Unrelated profile state must survive cleanup.
	cookieDB := filepath.Join(profileDir, "Default", "Cookies")
	require.NoError(t, os.WriteFile(cookieDB, []byte("cookies"), 0600))

	janitor := NewJanitor(testLogger(t))
	require.NoError(t, janitor.Clean(profileDir))

	for _, artifact := range lockArtifacts {
		_, err := os.Lstat(filepath.Join(profileDir, artifact))
		assert.True(t, os.IsNotExist(err), "expected %s to be removed", artifact)
	}
	_, err := os.Stat(cookieDB)
	assert.NoError(t, err)
}

func TestJanitorIgnoresAbsentArtifacts(t *testing.T) {
	janitor := NewJanitor(testLogger(t))
	assert.NoError(t, janitor.Clean(t.TempDir()))
}

func TestJanitorRemovesDanglingSymlink(t *testing.T) {
	profileDir := t.TempDir()
	// Chromium's SingletonLock is a symlink to "<hostname>-<pid>", a
	// target that never exists.
	link := filepath.Join(profileDir, "SingletonLock")
	require.NoError(t, os.Symlink("somehost-12345", link))

	janitor := NewJanitor(testLogger(t))
	require.NoError(t, janitor.Clean(profileDir))

	_, err := os.Lstat(link)
	assert.True(t, os.IsNotExist(err))
}
