package browser

import (
	"os"
	"path/filepath"

	"redpilot/pkg/logging"
)

// Diagnostics captures failure evidence from an interaction surface.
// Capture failures are logged and swallowed: diagnostics must never
// mask the original step failure.
type Diagnostics struct {
	dir string
	log *logging.Logger
}

// NewDiagnostics creates a capture helper writing into dir.
func NewDiagnostics(dir string, log *logging.Logger) *Diagnostics {
	return &Diagnostics{dir: dir, log: log}
}

// Dir returns the debug directory.
func (d *Diagnostics) Dir() string {
	return d.dir
}

// Capture writes <dir>/<step>.png (full-page screenshot) and
// <dir>/<step>.html (cleaned page snapshot) and returns the screenshot
// path, or empty when the screenshot could not be written.
func (d *Diagnostics) Capture(surface Surface, step string) string {
	if err := os.MkdirAll(d.dir, 0750); err != nil {
		d.log.Warnf("failed to create debug directory %s: %v", d.dir, err)
		return ""
	}

	screenshotPath := filepath.Join(d.dir, step+".png")
	if err := surface.Screenshot(screenshotPath); err != nil {
		d.log.Warnf("failed to capture screenshot %s: %v", step, err)
		screenshotPath = ""
	} else {
		d.log.Infof("screenshot saved: %s", screenshotPath)
	}

	d.captureSnapshot(surface, step)
	return screenshotPath
}

// captureSnapshot writes a cleaned HTML snapshot so a failing selector
// can be debugged against the markup the page actually had.
func (d *Diagnostics) captureSnapshot(surface Surface, step string) {
	raw, err := surface.Content()
	if err != nil {
		d.log.Debugf("failed to read page content for %s: %v", step, err)
		return
	}

	cleaned, err := cleanSnapshot(raw, snapshotMaxLength)
	if err != nil {
		d.log.Debugf("failed to clean page snapshot for %s: %v", step, err)
		return
	}

	path := filepath.Join(d.dir, step+".html")
	if err := os.WriteFile(path, []byte(cleaned), 0600); err != nil {
		d.log.Debugf("failed to write page snapshot %s: %v", path, err)
	}
}
