package browser

import (
	"time"
)

// Surface is the single controllable browsing context a workflow
// interacts with. Every operation is bounded; exceeding the bound
// returns a typed error instead of hanging.
type Surface interface {
	// Navigate loads url and waits for the load event.
	Navigate(url string, timeout time.Duration) error

	// WaitFor blocks until selector matches a visible element.
	WaitFor(selector string, timeout time.Duration) error

	// Click clicks the first element matching selector.
	Click(selector string, timeout time.Duration) error

	// TypeText focuses selector by clicking it, then types text key by key.
	TypeText(selector, text string, timeout time.Duration) error

	// UploadFiles sets the given local files on a file input.
	UploadFiles(selector string, paths []string, timeout time.Duration) error

	// InnerText returns the rendered text of the first match.
	InnerText(selector string, timeout time.Duration) (string, error)

	// Attribute returns an attribute value of the first match, empty if unset.
	Attribute(selector, name string, timeout time.Duration) (string, error)

	// Evaluate runs a JavaScript expression in the page and returns its value.
	Evaluate(expression string) (any, error)

	// WaitForLoad waits for the current navigation to reach the load state.
	WaitForLoad(timeout time.Duration) error

	// Screenshot writes a full-page capture to path.
	Screenshot(path string) error

	// Content returns the full serialized HTML of the page.
	Content() (string, error)

	// URL returns the current page URL.
	URL() string
}

// Process is a browser process owned by the engine. Kill is scoped to
// processes the launcher itself created; there is no kill-arbitrary-pid
// operation.
type Process interface {
	// Kill forcibly terminates the process. Returns false, non-fatally,
	// if the process is already gone.
	Kill() bool

	// Close shuts the process down cleanly.
	Close() error
}

// Session binds an account to its browser process and the one tracked
// interaction surface. Owned exclusively by the Registry once inserted.
type Session struct {
	AccountID  string
	Process    Process
	Surface    Surface
	ProfileDir string
	CreatedAt  time.Time
}

// Close terminates the session's browser process.
func (s *Session) Close() error {
	if s.Process == nil {
		return nil
	}
	return s.Process.Close()
}
