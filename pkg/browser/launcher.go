package browser

import (
	"io"
	"strings"
	"sync"
	"time"

	"github.com/playwright-community/playwright-go"

	"redpilot/pkg/logging"
)

// Fixed window size and hardening flags for every launched browser.
// The automation-detection flag keeps the creator site from serving the
// degraded "automated browser" experience.
var hardeningArgs = []string{
	"--disable-extensions",
	"--disable-blink-features=AutomationControlled",
	"--no-first-run",
	"--no-default-browser-check",
	"--disable-gpu",
	"--window-size=1920,1080",
}

const (
	windowWidth  = 1920
	windowHeight = 1080
)

// Launcher starts a browser process bound to an account's profile
// directory and hands back the resulting session.
type Launcher interface {
	Launch(accountID, profileDir string, headless bool) (*Session, error)
}

// ChromiumLauncher launches Chromium through the Playwright driver with
// a persistent context, so cookies and storage survive restarts in the
// profile directory.
type ChromiumLauncher struct {
	mu  sync.Mutex
	pw  *playwright.Playwright
	log *logging.Logger
}

// NewChromiumLauncher creates a launcher. The Playwright driver is
// installed and started lazily on the first Launch.
func NewChromiumLauncher(log *logging.Logger) *ChromiumLauncher {
	return &ChromiumLauncher{log: log}
}

// initialize installs and starts the Playwright driver once.
func (l *ChromiumLauncher) initialize() error {
	if l.pw != nil {
		return nil
	}

	// Discard driver output so it cannot interleave with CLI output.
	opts := &playwright.RunOptions{
		Verbose: false,
		Stdout:  io.Discard,
		Stderr:  io.Discard,
	}

	if err := playwright.Install(opts); err != nil {
		return &LaunchError{Reason: LaunchReasonDriver, Err: err}
	}

	pw, err := playwright.Run(opts)
	if err != nil {
		return &LaunchError{Reason: LaunchReasonDriver, Err: err}
	}

	l.pw = pw
	return nil
}

// Launch starts Chromium bound to profileDir and returns a session
// whose surface is the context's first page.
func (l *ChromiumLauncher) Launch(accountID, profileDir string, headless bool) (*Session, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if err := l.initialize(); err != nil {
		if launchErr, ok := err.(*LaunchError); ok {
			launchErr.AccountID = accountID
		}
		return nil, err
	}

	l.log.Infof("launching browser for account %s (headless=%v, profile=%s)", accountID, headless, profileDir)

	context, err := l.pw.Chromium.LaunchPersistentContext(profileDir, playwright.BrowserTypeLaunchPersistentContextOptions{
		Headless: playwright.Bool(headless),
		Args:     hardeningArgs,
		Viewport: &playwright.Size{Width: windowWidth, Height: windowHeight},
	})
	if err != nil {
		return nil, &LaunchError{
			AccountID: accountID,
			Reason:    classifyLaunchFailure(err),
			Err:       err,
		}
	}

	page, err := firstPage(context)
	if err != nil {
		_ = context.Close()
		return nil, &LaunchError{AccountID: accountID, Reason: LaunchReasonDriver, Err: err}
	}

	process := &chromiumProcess{accountID: accountID, context: context, log: l.log}
	return &Session{
		AccountID:  accountID,
		Process:    process,
		Surface:    NewPageSurface(page),
		ProfileDir: profileDir,
		CreatedAt:  time.Now(),
	}, nil
}

// Shutdown stops the Playwright driver. Sessions must be closed first.
func (l *ChromiumLauncher) Shutdown() error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.pw == nil {
		return nil
	}
	err := l.pw.Stop()
	l.pw = nil
	return err
}

// firstPage returns the context's initial page, creating one if the
// persistent context came up empty.
func firstPage(context playwright.BrowserContext) (playwright.Page, error) {
	if pages := context.Pages(); len(pages) > 0 {
		return pages[0], nil
	}
	return context.NewPage()
}

// classifyLaunchFailure distinguishes a missing browser executable from
// a profile directory that is still locked by another process. Lock
// cleanup only helps with the latter.
func classifyLaunchFailure(err error) string {
	msg := strings.ToLower(err.Error())
	switch {
	case strings.Contains(msg, "executable"):
		return LaunchReasonExecutable
	case strings.Contains(msg, "singleton") || strings.Contains(msg, "user data directory") || strings.Contains(msg, "profile"):
		return LaunchReasonProfile
	default:
		return LaunchReasonDriver
	}
}

// chromiumProcess owns one persistent browser context.
type chromiumProcess struct {
	accountID string
	mu        sync.Mutex
	context   playwright.BrowserContext
	closed    bool
	log       *logging.Logger
}

func (p *chromiumProcess) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.closed {
		return nil
	}
	p.closed = true
	return p.context.Close()
}

// Kill forcibly terminates the browser. Returns false if the process
// was already gone, which callers treat as non-fatal.
func (p *chromiumProcess) Kill() bool {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.closed {
		return false
	}
	p.closed = true

	if err := p.context.Close(); err != nil {
		p.log.Warnf("kill for account %s: browser already gone: %v", p.accountID, err)
		return false
	}
	return true
}
