package browser

import (
	"fmt"
	"time"
)

// Launch failure reasons, used to tell "no executable" apart from
// "profile directory already locked". Only the latter is solved by
// lock cleanup.
const (
	LaunchReasonDriver     = "driver"
	LaunchReasonExecutable = "executable"
	LaunchReasonProfile    = "profile"
)

// ValidationError reports bad workflow input, rejected before any
// browser interaction happens.
type ValidationError struct {
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation failed: %s", e.Reason)
}

// LaunchError reports a browser process that could not be started.
// Always recoverable: callers may retry after lock cleanup or surface
// the message to the operator.
type LaunchError struct {
	AccountID string
	Reason    string
	Err       error
}

func (e *LaunchError) Error() string {
	return fmt.Sprintf("failed to launch browser for account %s (%s): %v", e.AccountID, e.Reason, e.Err)
}

func (e *LaunchError) Unwrap() error { return e.Err }

// LockCleanupError reports lock artifacts that could not be removed.
// Non-fatal: the launch proceeds and the error is only logged.
type LockCleanupError struct {
	ProfileDir string
	Err        error
}

func (e *LockCleanupError) Error() string {
	return fmt.Sprintf("failed to clean lock artifacts in %s: %v", e.ProfileDir, e.Err)
}

func (e *LockCleanupError) Unwrap() error { return e.Err }

// NavigationError reports a page navigation that did not complete.
type NavigationError struct {
	URL string
	Err error
}

func (e *NavigationError) Error() string {
	return fmt.Sprintf("navigation to %s failed: %v", e.URL, e.Err)
}

func (e *NavigationError) Unwrap() error { return e.Err }

// ElementTimeoutError reports a DOM wait that exceeded its bound.
// Carries the selector so the failure is diagnosable without re-running.
type ElementTimeoutError struct {
	Selector string
	Timeout  time.Duration
	Err      error
}

func (e *ElementTimeoutError) Error() string {
	return fmt.Sprintf("element %q did not appear within %s: %v", e.Selector, e.Timeout, e.Err)
}

func (e *ElementTimeoutError) Unwrap() error { return e.Err }

// ElementInteractionError reports an element that was found but could
// not be clicked, typed into or uploaded to.
type ElementInteractionError struct {
	Selector string
	Action   string
	Err      error
}

func (e *ElementInteractionError) Error() string {
	return fmt.Sprintf("%s on %q failed: %v", e.Action, e.Selector, e.Err)
}

func (e *ElementInteractionError) Unwrap() error { return e.Err }

// SessionNotFoundError reports a workflow addressed at an account with
// no registered session.
type SessionNotFoundError struct {
	AccountID string
}

func (e *SessionNotFoundError) Error() string {
	return fmt.Sprintf("no active session for account %s", e.AccountID)
}

// NotAuthenticatedError reports a validate probe that found no
// signed-in indicator within its bound.
type NotAuthenticatedError struct {
	AccountID string
}

func (e *NotAuthenticatedError) Error() string {
	return fmt.Sprintf("account %s is not logged in or the login expired", e.AccountID)
}

// StepError is the failure half of a step result: the name of the
// failing workflow step plus the diagnostic screenshot captured for it,
// if one could be written.
type StepError struct {
	Step       string
	Screenshot string
	Err        error
}

func (e *StepError) Error() string {
	if e.Screenshot != "" {
		return fmt.Sprintf("step %q failed: %v (screenshot: %s)", e.Step, e.Err, e.Screenshot)
	}
	return fmt.Sprintf("step %q failed: %v", e.Step, e.Err)
}

func (e *StepError) Unwrap() error { return e.Err }
