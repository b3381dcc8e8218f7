package browser

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"redpilot/pkg/logging"
)

// Chromium writes these into the profile directory to stop a second
// process from attaching to it. After an unclean shutdown they survive
// and block the next launch, so they are removed before every launch.
var lockArtifacts = []string{
	"SingletonLock",
	"SingletonCookie",
	"SingletonSocket",
	"DevToolsActivePort",
	filepath.Join("Default", "DevToolsActivePort"),
}

// LockCleaner removes stale inter-process lock artifacts from a profile
// directory.
type LockCleaner interface {
	Clean(profileDir string) error
}

// Janitor is the default LockCleaner.
type Janitor struct {
	log *logging.Logger
}

// NewJanitor creates a lock-file janitor.
func NewJanitor(log *logging.Logger) *Janitor {
	return &Janitor{log: log}
}

// Clean deletes the well-known lock artifacts under profileDir.
// Absent files are ignored; removal failures are aggregated into a
// LockCleanupError, which callers log and do not treat as fatal.
func (j *Janitor) Clean(profileDir string) error {
	var errs []error
	for _, artifact := range lockArtifacts {
		path := filepath.Join(profileDir, artifact)
		// Lstat, not Stat: SingletonLock is a dangling symlink.
		if _, err := os.Lstat(path); err != nil {
			continue
		}
		if err := os.Remove(path); err != nil {
			errs = append(errs, fmt.Errorf("remove %s: %w", artifact, err))
			continue
		}
		j.log.Debugf("removed stale lock artifact %s", path)
	}

	if len(errs) > 0 {
		return &LockCleanupError{ProfileDir: profileDir, Err: errors.Join(errs...)}
	}
	return nil
}
