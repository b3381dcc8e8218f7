// Package auth drives the sign-in state machine for creator accounts:
// validating existing login state, requesting SMS codes, submitting
// them, and destroying accounts on logout.
package auth

import (
	"fmt"
	"time"

	"redpilot/pkg/browser"
	"redpilot/pkg/logging"
)

// Pages and element probes on the creator site. The send-code and
// submit controls have no stable selector, so they are matched by
// visible text.
const (
	loginURL  = "https://creator.xiaohongshu.com/login"
	statusURL = "https://creator.xiaohongshu.com/publish/publish"

	phoneInputSelector  = `input[placeholder='手机号']`
	codeInputSelector   = `input[placeholder='验证码']`
	sendCodeSelector    = `xpath=//div[text()='发送验证码']`
	submitLoginSelector = `xpath=//button[contains(., '登 录')]`

	userInfoSelector = ".user-info"
	nameBoxSelector  = ".name-box"
	avatarSelector   = ".user_avatar"

	identityStorageKey = "USER_INFO_FOR_BIZ"

	// Fallback display names when the page yields no usable record.
	placeholderNickname = "小红书用户"
	unknownNickname     = "未知用户"
)

// Options bound the controller's waits.
type Options struct {
	NavigationTimeout time.Duration
	ElementTimeout    time.Duration
	SettleDelay       time.Duration
}

// Controller owns the login state machine. States are implicit in the
// registry: an account with a registered session after StartLogin is in
// the code-requested state until SubmitCode succeeds or the caller
// abandons the session.
type Controller struct {
	manager *browser.Manager
	diag    *browser.Diagnostics
	store   IdentityStore
	opts    Options
	log     *logging.Logger
}

// NewController wires the login flow against the session manager and
// the persistence collaborator.
func NewController(manager *browser.Manager, diag *browser.Diagnostics, store IdentityStore, opts Options, log *logging.Logger) *Controller {
	return &Controller{
		manager: manager,
		diag:    diag,
		store:   store,
		opts:    opts,
		log:     log,
	}
}

// StartLoginResult reports whether a code was requested or the account
// turned out to be signed in already.
type StartLoginResult struct {
	AlreadyAuthenticated bool
	Identity             *Identity
}

// Validate checks whether an account's profile still carries a live
// login. It acquires a session, opens an authenticated-only page and
// probes for the signed-in indicator. No SMS code is ever requested on
// this path. On success the extracted identity is upserted.
func (c *Controller) Validate(accountID string) (*Identity, error) {
	c.log.Infof("validating login status for account %s", accountID)

	session, err := c.manager.Acquire(accountID)
	if err != nil {
		return nil, err
	}
	surface := session.Surface

	if err := surface.Navigate(statusURL, c.opts.NavigationTimeout); err != nil {
		return nil, c.fail(surface, "validate_navigate", err)
	}

	if err := surface.WaitFor(userInfoSelector, c.opts.ElementTimeout); err != nil {
		c.diag.Capture(surface, "validate_login_failed")
		return nil, &browser.NotAuthenticatedError{AccountID: accountID}
	}

	identity := c.extractIdentity(surface, accountID)
	c.diag.Capture(surface, "validate_login_success")

	if err := c.store.UpsertIdentity(*identity); err != nil {
		return nil, fmt.Errorf("failed to persist identity for account %s: %w", accountID, err)
	}

	c.log.Infof("account %s is logged in as %q", accountID, identity.Nickname)
	return identity, nil
}

// extractIdentity reads display name and avatar from the signed-in
// page. Both probes are best-effort; a blank name box falls back to a
// generic label.
func (c *Controller) extractIdentity(surface browser.Surface, accountID string) *Identity {
	nickname, err := surface.InnerText(nameBoxSelector, c.opts.ElementTimeout)
	if err != nil || nickname == "" {
		nickname = unknownNickname
	}

	avatar, err := surface.Attribute(avatarSelector, "src", c.opts.ElementTimeout)
	if err != nil {
		avatar = ""
	}

	return &Identity{
		Nickname:  nickname,
		AvatarURL: avatar,
		AccountID: accountID,
	}
}

// StartLogin begins the SMS login flow. If the account is already
// signed in the stored identity is returned immediately and no code is
// requested. Otherwise the flow types the account id into the phone
// field, clicks the send-code control and leaves the session registered
// awaiting SubmitCode.
func (c *Controller) StartLogin(accountID string) (*StartLoginResult, error) {
	if identity, err := c.Validate(accountID); err == nil {
		c.log.Infof("account %s already logged in, skipping code request", accountID)
		return &StartLoginResult{AlreadyAuthenticated: true, Identity: identity}, nil
	} else {
		c.log.Infof("account %s needs login: %v", accountID, err)
	}

	session, err := c.manager.Acquire(accountID)
	if err != nil {
		return nil, err
	}
	surface := session.Surface

	if err := surface.Navigate(loginURL, c.opts.NavigationTimeout); err != nil {
		return nil, c.fail(surface, "login_navigate", err)
	}

	if err := surface.TypeText(phoneInputSelector, accountID, c.opts.ElementTimeout); err != nil {
		return nil, c.fail(surface, "login_enter_phone", err)
	}

	if err := surface.Click(sendCodeSelector, c.opts.ElementTimeout); err != nil {
		return nil, c.fail(surface, "login_send_code", err)
	}

	c.log.Infof("verification code requested for account %s", accountID)
	return &StartLoginResult{}, nil
}

// SubmitCode completes the login flow for an account in the
// code-requested state. On a step failure the session stays registered
// so the caller may retry with a fresh code.
func (c *Controller) SubmitCode(accountID, code string) (*Identity, error) {
	session, ok := c.manager.Registry().Get(accountID)
	if !ok {
		return nil, &browser.SessionNotFoundError{AccountID: accountID}
	}
	surface := session.Surface

	if err := surface.TypeText(codeInputSelector, code, c.opts.ElementTimeout); err != nil {
		return nil, c.fail(surface, "login_enter_code", err)
	}

	if err := surface.Click(submitLoginSelector, c.opts.ElementTimeout); err != nil {
		return nil, c.fail(surface, "login_submit", err)
	}

	if err := surface.WaitForLoad(c.opts.NavigationTimeout); err != nil {
		return nil, c.fail(surface, "login_wait_redirect", err)
	}

	c.logCookies(surface)
	identity := c.identityFromStorage(surface, accountID)

	if err := c.store.UpsertIdentity(*identity); err != nil {
		return nil, fmt.Errorf("failed to persist identity for account %s: %w", accountID, err)
	}

	c.log.Infof("account %s logged in as %q", accountID, identity.Nickname)
	return identity, nil
}

// identityFromStorage derives the identity from the site's client-side
// user record, falling back to a placeholder when the record is absent.
func (c *Controller) identityFromStorage(surface browser.Surface, accountID string) *Identity {
	identity := &Identity{Nickname: placeholderNickname, AccountID: accountID}

	raw, err := surface.Evaluate(fmt.Sprintf("() => window.localStorage.getItem(%q)", identityStorageKey))
	if err != nil {
		c.log.Warnf("failed to read %s for account %s: %v", identityStorageKey, accountID, err)
		return identity
	}

	value, ok := raw.(string)
	if !ok || value == "" {
		c.log.Warnf("no %s record for account %s, using placeholder identity", identityStorageKey, accountID)
		return identity
	}

	record, err := parseSiteUserRecord(value)
	if err != nil {
		c.log.Warnf("unreadable %s record for account %s: %v", identityStorageKey, accountID, err)
		return identity
	}

	identity.ExternalID = record.UserID
	if record.UserName != "" {
		identity.Nickname = record.UserName
	}
	identity.AvatarURL = record.UserAvatar
	return identity
}

// logCookies dumps the session cookie names at debug level.
func (c *Controller) logCookies(surface browser.Surface) {
	raw, err := surface.Evaluate("() => document.cookie")
	if err != nil {
		return
	}
	if cookies, ok := raw.(string); ok {
		c.log.Debugf("session cookies after login: %s", cookies)
	}
}

// Logout destroys an account: kills and unregisters its session,
// deletes the on-disk profile directory and removes the persisted
// identity and derived data. Not reversible.
func (c *Controller) Logout(accountID string) error {
	c.manager.CloseSession(accountID)

	if err := c.manager.DestroyProfile(accountID); err != nil {
		return err
	}

	if err := c.store.DeleteAccount(accountID); err != nil {
		return fmt.Errorf("failed to delete stored data for account %s: %w", accountID, err)
	}

	c.log.Infof("account %s logged out and erased", accountID)
	return nil
}

// fail captures diagnostics for a failed step and wraps the error with
// the step name.
func (c *Controller) fail(surface browser.Surface, step string, err error) error {
	screenshot := c.diag.Capture(surface, "error_"+step)
	return &browser.StepError{Step: step, Screenshot: screenshot, Err: err}
}
