package auth

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"redpilot/pkg/browser"
	"redpilot/pkg/logging"
)

// fakeSurface scripts DOM behavior per selector.
type fakeSurface struct {
	waitErrs    map[string]error
	texts       map[string]string
	attrs       map[string]string
	evalResults map[string]any

	navigations []string
	clicks      []string
	typed       map[string]string
}

func newFakeSurface() *fakeSurface {
	return &fakeSurface{
		waitErrs:    make(map[string]error),
		texts:       make(map[string]string),
		attrs:       make(map[string]string),
		evalResults: make(map[string]any),
		typed:       make(map[string]string),
	}
}

func (f *fakeSurface) Navigate(url string, _ time.Duration) error {
	f.navigations = append(f.navigations, url)
	return nil
}

func (f *fakeSurface) WaitFor(selector string, timeout time.Duration) error {
	if err, ok := f.waitErrs[selector]; ok {
		return &browser.ElementTimeoutError{Selector: selector, Timeout: timeout, Err: err}
	}
	return nil
}

func (f *fakeSurface) Click(selector string, timeout time.Duration) error {
	if err := f.WaitFor(selector, timeout); err != nil {
		return err
	}
	f.clicks = append(f.clicks, selector)
	return nil
}

func (f *fakeSurface) TypeText(selector, text string, timeout time.Duration) error {
	if err := f.WaitFor(selector, timeout); err != nil {
		return err
	}
	f.typed[selector] = text
	return nil
}

func (f *fakeSurface) UploadFiles(selector string, _ []string, timeout time.Duration) error {
	return f.WaitFor(selector, timeout)
}

func (f *fakeSurface) InnerText(selector string, timeout time.Duration) (string, error) {
	if err := f.WaitFor(selector, timeout); err != nil {
		return "", err
	}
	return f.texts[selector], nil
}

func (f *fakeSurface) Attribute(selector, _ string, timeout time.Duration) (string, error) {
	if err := f.WaitFor(selector, timeout); err != nil {
		return "", err
	}
	return f.attrs[selector], nil
}

func (f *fakeSurface) Evaluate(expression string) (any, error) {
	return f.evalResults[expression], nil
}

func (f *fakeSurface) WaitForLoad(time.Duration) error { return nil }

func (f *fakeSurface) Screenshot(path string) error {
	return os.WriteFile(path, []byte("png"), 0600)
}

func (f *fakeSurface) Content() (string, error) { return "<html></html>", nil }
func (f *fakeSurface) URL() string              { return "about:blank" }

type fakeProcess struct{ alive bool }

func (p *fakeProcess) Kill() bool {
	if !p.alive {
		return false
	}
	p.alive = false
	return true
}

func (p *fakeProcess) Close() error { p.alive = false; return nil }

type fakeLauncher struct {
	surface  *fakeSurface
	launches int
}

func (l *fakeLauncher) Launch(accountID, profileDir string, _ bool) (*browser.Session, error) {
	l.launches++
	return &browser.Session{
		AccountID:  accountID,
		Process:    &fakeProcess{alive: true},
		Surface:    l.surface,
		ProfileDir: profileDir,
		CreatedAt:  time.Now(),
	}, nil
}

type noopCleaner struct{}

func (noopCleaner) Clean(string) error { return nil }

type fakeStore struct {
	upserts []Identity
	deletes []string
	err     error
}

func (s *fakeStore) UpsertIdentity(identity Identity) error {
	if s.err != nil {
		return s.err
	}
	s.upserts = append(s.upserts, identity)
	return nil
}

func (s *fakeStore) DeleteAccount(accountID string) error {
	s.deletes = append(s.deletes, accountID)
	return nil
}

type fixture struct {
	controller *Controller
	manager    *browser.Manager
	surface    *fakeSurface
	launcher   *fakeLauncher
	store      *fakeStore
	debugDir   string
	profileDir string
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	logging.SetLogDir(t.TempDir())
	log, _ := logging.New("auth-test")
	t.Cleanup(func() { log.Close() })

	surface := newFakeSurface()
	launcher := &fakeLauncher{surface: surface}
	store := &fakeStore{}
	profilesRoot := t.TempDir()
	debugDir := t.TempDir()

	profiles := func(accountID string) (string, error) {
		dir := filepath.Join(profilesRoot, accountID)
		return dir, os.MkdirAll(dir, 0750)
	}

	manager := browser.NewManager(launcher, noopCleaner{}, profiles, true, log)
	diag := browser.NewDiagnostics(debugDir, log)
	opts := Options{
		NavigationTimeout: time.Second,
		ElementTimeout:    100 * time.Millisecond,
		SettleDelay:       time.Millisecond,
	}

	return &fixture{
		controller: NewController(manager, diag, store, opts, log),
		manager:    manager,
		surface:    surface,
		launcher:   launcher,
		store:      store,
		debugDir:   debugDir,
		profileDir: filepath.Join(profilesRoot, "13800138000"),
	}
}

func TestValidateFindsAuthenticatedAccount(t *testing.T) {
	fx := newFixture(t)
	fx.surface.texts[nameBoxSelector] = "小红薯用户甲"
	fx.surface.attrs[avatarSelector] = "https://img.example.com/avatar.png"

	identity, err := fx.controller.Validate("13800138000")
	require.NoError(t, err)

	assert.Equal(t, "小红薯用户甲", identity.Nickname)
	assert.Equal(t, "https://img.example.com/avatar.png", identity.AvatarURL)
	assert.Equal(t, "13800138000", identity.AccountID)

	require.Len(t, fx.store.upserts, 1)
	assert.NotContains(t, fx.surface.clicks, sendCodeSelector,
		"validate must never request an SMS code")
}

func TestValidateReportsNotAuthenticated(t *testing.T) {
	fx := newFixture(t)
	fx.surface.waitErrs[userInfoSelector] = errors.New("timeout")

	_, err := fx.controller.Validate("13800138000")

	var notAuth *browser.NotAuthenticatedError
	require.ErrorAs(t, err, &notAuth)
	assert.Equal(t, "13800138000", notAuth.AccountID)
	assert.Empty(t, fx.store.upserts)

	_, statErr := os.Stat(filepath.Join(fx.debugDir, "validate_login_failed.png"))
	assert.NoError(t, statErr, "failed validate must leave a diagnostic screenshot")
}

func TestValidateFallsBackToUnknownNickname(t *testing.T) {
	fx := newFixture(t)
	fx.surface.waitErrs[nameBoxSelector] = errors.New("timeout")
	fx.surface.waitErrs[avatarSelector] = errors.New("timeout")

	identity, err := fx.controller.Validate("13800138000")
	require.NoError(t, err)
	assert.Equal(t, unknownNickname, identity.Nickname)
}

func TestStartLoginSkipsCodeWhenAlreadyAuthenticated(t *testing.T) {
	fx := newFixture(t)
	fx.surface.texts[nameBoxSelector] = "已登录用户"

	result, err := fx.controller.StartLogin("13800138000")
	require.NoError(t, err)

	assert.True(t, result.AlreadyAuthenticated)
	require.NotNil(t, result.Identity)
	assert.Equal(t, "已登录用户", result.Identity.Nickname)
	assert.NotContains(t, fx.surface.clicks, sendCodeSelector)
	assert.Empty(t, fx.surface.typed[phoneInputSelector])
}

func TestStartLoginRequestsCode(t *testing.T) {
	fx := newFixture(t)
	fx.surface.waitErrs[userInfoSelector] = errors.New("timeout")

	result, err := fx.controller.StartLogin("13800138000")
	require.NoError(t, err)

	assert.False(t, result.AlreadyAuthenticated)
	assert.Equal(t, "13800138000", fx.surface.typed[phoneInputSelector])
	assert.Contains(t, fx.surface.clicks, sendCodeSelector)

	_, ok := fx.manager.Registry().Get("13800138000")
	assert.True(t, ok, "session must stay registered awaiting the code")
}

func TestSubmitCodeWithoutSession(t *testing.T) {
	fx := newFixture(t)

	_, err := fx.controller.SubmitCode("13800138000", "123456")

	var notFound *browser.SessionNotFoundError
	require.ErrorAs(t, err, &notFound)
}

func TestSubmitCodeParsesSiteUserRecord(t *testing.T) {
	fx := newFixture(t)
	fx.surface.waitErrs[userInfoSelector] = errors.New("timeout")
	fx.surface.evalResults[`() => window.localStorage.getItem("USER_INFO_FOR_BIZ")`] =
		`{"userId":"5f1a","userName":"薯队长","userAvatar":"https://img.example.com/a.png","redId":"1234","phone":"138****8000","role":"creator"}`

	_, err := fx.controller.StartLogin("13800138000")
	require.NoError(t, err)

	identity, err := fx.controller.SubmitCode("13800138000", "123456")
	require.NoError(t, err)

	assert.Equal(t, "5f1a", identity.ExternalID)
	assert.Equal(t, "薯队长", identity.Nickname)
	assert.Equal(t, "https://img.example.com/a.png", identity.AvatarURL)
	assert.Equal(t, "123456", fx.surface.typed[codeInputSelector])
	assert.Contains(t, fx.surface.clicks, submitLoginSelector)
	require.NotEmpty(t, fx.store.upserts)
}

func TestSubmitCodeFallsBackToPlaceholderIdentity(t *testing.T) {
	fx := newFixture(t)
	fx.surface.waitErrs[userInfoSelector] = errors.New("timeout")

	_, err := fx.controller.StartLogin("13800138000")
	require.NoError(t, err)

	identity, err := fx.controller.SubmitCode("13800138000", "123456")
	require.NoError(t, err)
	assert.Equal(t, placeholderNickname, identity.Nickname)
}

func TestSubmitCodeFailureKeepsSessionForRetry(t *testing.T) {
	fx := newFixture(t)
	fx.surface.waitErrs[userInfoSelector] = errors.New("timeout")

	_, err := fx.controller.StartLogin("13800138000")
	require.NoError(t, err)

	fx.surface.waitErrs[codeInputSelector] = errors.New("timeout")
	_, err = fx.controller.SubmitCode("13800138000", "000000")

	var stepErr *browser.StepError
	require.ErrorAs(t, err, &stepErr)
	assert.Equal(t, "login_enter_code", stepErr.Step)

	_, ok := fx.manager.Registry().Get("13800138000")
	assert.True(t, ok, "failed submission leaves the session for retry")
}

func TestLogoutErasesAccount(t *testing.T) {
	fx := newFixture(t)
	fx.surface.waitErrs[userInfoSelector] = errors.New("timeout")

	_, err := fx.controller.StartLogin("13800138000")
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(filepath.Join(fx.profileDir, "Cookies"), []byte("x"), 0600))

	require.NoError(t, fx.controller.Logout("13800138000"))

	_, ok := fx.manager.Registry().Get("13800138000")
	assert.False(t, ok)
	_, statErr := os.Stat(fx.profileDir)
	assert.True(t, os.IsNotExist(statErr), "profile directory must be deleted")
	assert.Equal(t, []string{"13800138000"}, fx.store.deletes)
}

func TestParseSiteUserRecordRejectsGarbage(t *testing.T) {
	_, err := parseSiteUserRecord("not json")
	assert.Error(t, err)
}
