package browser

import (
	"fmt"
	"os"

	"redpilot/pkg/logging"
)

// ProfileDirFunc resolves the on-disk profile directory for an account,
// creating it if needed.
type ProfileDirFunc func(accountID string) (string, error)

// Manager coordinates the registry, the lock-file janitor and the
// process launcher. Workflows acquire sessions exclusively through it.
type Manager struct {
	registry *Registry
	launcher Launcher
	cleaner  LockCleaner
	profiles ProfileDirFunc
	headless bool
	log      *logging.Logger
}

// NewManager wires the session infrastructure together.
func NewManager(launcher Launcher, cleaner LockCleaner, profiles ProfileDirFunc, headless bool, log *logging.Logger) *Manager {
	return &Manager{
		registry: NewRegistry(),
		launcher: launcher,
		cleaner:  cleaner,
		profiles: profiles,
		headless: headless,
		log:      log,
	}
}

// Registry exposes the session registry.
func (m *Manager) Registry() *Registry {
	return m.registry
}

// Acquire returns the account's registered session, or launches a new
// one. Lock cleanup always runs strictly before a new launch for the
// same profile directory.
func (m *Manager) Acquire(accountID string) (*Session, error) {
	if session, ok := m.registry.Get(accountID); ok {
		m.log.Debugf("reusing active session for account %s", accountID)
		return session, nil
	}
	return m.Launch(accountID)
}

// Launch starts a fresh browser for the account and registers the
// resulting session, replacing any registered one.
func (m *Manager) Launch(accountID string) (*Session, error) {
	profileDir, err := m.profiles(accountID)
	if err != nil {
		return nil, &LaunchError{AccountID: accountID, Reason: LaunchReasonProfile, Err: err}
	}

	if err := m.cleaner.Clean(profileDir); err != nil {
		// Non-fatal: a launch may still succeed, and if the profile is
		// genuinely locked the launch error says so.
		m.log.Warnf("%v", err)
	}

	session, err := m.launcher.Launch(accountID, profileDir, m.headless)
	if err != nil {
		return nil, err
	}

	m.registry.Insert(accountID, session)
	return session, nil
}

// Release unregisters the account's session without touching its
// process, handing ownership back to the caller.
func (m *Manager) Release(accountID string) (*Session, bool) {
	return m.registry.Remove(accountID)
}

// CloseSession unregisters the account's session and kills its
// process. Returns false if no session was registered or the process
// was already gone.
func (m *Manager) CloseSession(accountID string) bool {
	session, ok := m.registry.Remove(accountID)
	if !ok {
		return false
	}
	return session.Process.Kill()
}

// DestroyProfile deletes the account's on-disk profile directory.
// Destructive and not reversible; used by logout.
func (m *Manager) DestroyProfile(accountID string) error {
	profileDir, err := m.profiles(accountID)
	if err != nil {
		return err
	}
	if err := os.RemoveAll(profileDir); err != nil {
		return fmt.Errorf("failed to delete profile directory %s: %w", profileDir, err)
	}
	return nil
}

// Shutdown closes every registered session.
func (m *Manager) Shutdown() {
	for _, accountID := range m.registry.Accounts() {
		if session, ok := m.registry.Remove(accountID); ok {
			if err := session.Close(); err != nil {
				m.log.Warnf("failed to close session for account %s: %v", accountID, err)
			}
		}
	}
}
