package browser

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// stubSurface is the minimal Surface for diagnostics tests.
type stubSurface struct {
	screenshotErr error
	content       string
	contentErr    error
}

func (s *stubSurface) Navigate(string, time.Duration) error              { return nil }
func (s *stubSurface) WaitFor(string, time.Duration) error               { return nil }
func (s *stubSurface) Click(string, time.Duration) error                 { return nil }
func (s *stubSurface) TypeText(string, string, time.Duration) error      { return nil }
func (s *stubSurface) UploadFiles(string, []string, time.Duration) error { return nil }
func (s *stubSurface) InnerText(string, time.Duration) (string, error)   { return "", nil }
func (s *stubSurface) Attribute(string, string, time.Duration) (string, error) {
	return "", nil
}
func (s *stubSurface) Evaluate(string) (any, error)     { return nil, nil }
func (s *stubSurface) WaitForLoad(time.Duration) error  { return nil }
func (s *stubSurface) URL() string                      { return "about:blank" }
func (s *stubSurface) Content() (string, error)         { return s.content, s.contentErr }
func (s *stubSurface) Screenshot(path string) error {
	if s.screenshotErr != nil {
		return s.screenshotErr
	}
	return os.WriteFile(path, []byte("png"), 0600)
}

func TestCaptureWritesScreenshotAndSnapshot(t *testing.T) {
	dir := t.TempDir()
	diag := NewDiagnostics(dir, testLogger(t))
	surface := &stubSurface{content: `<div class="edit-container">hi</div>`}

	path := diag.Capture(surface, "error_wait_edit_container")

	require.Equal(t, filepath.Join(dir, "error_wait_edit_container.png"), path)
	_, err := os.Stat(path)
	assert.NoError(t, err)

	snapshot, err := os.ReadFile(filepath.Join(dir, "error_wait_edit_container.html"))
	require.NoError(t, err)
	assert.Contains(t, string(snapshot), "edit-container")
}

func TestCaptureSwallowsScreenshotFailure(t *testing.T) {
	diag := NewDiagnostics(t.TempDir(), testLogger(t))
	surface := &stubSurface{screenshotErr: errors.New("target closed")}

	path := diag.Capture(surface, "error_step")
	assert.Empty(t, path, "capture failure must not propagate, only yield an empty path")
}

func TestCaptureCreatesDebugDirectory(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "nested", "debug")
	diag := NewDiagnostics(dir, testLogger(t))

	diag.Capture(&stubSurface{content: "<p>x</p>"}, "step")

	info, err := os.Stat(dir)
	require.NoError(t, err)
	assert.True(t, info.IsDir())
}
