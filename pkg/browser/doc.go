// Package browser owns the per-account browser session infrastructure
// that the login and publish workflows run on.
//
// # Architecture
//
// The package is built around four pieces:
//
//  1. Registry: the concurrency-safe map from account id to its one live
//     session
//  2. ChromiumLauncher: starts Chromium bound to an account's profile
//     directory through a Playwright persistent context
//  3. Janitor: removes stale Chromium lock artifacts before every launch
//  4. Manager: ties the three together behind Acquire/Launch/CloseSession
//
// # Session lifecycle
//
// A session is created when a workflow asks the Manager to Acquire an
// account and no session is registered. The launch sequence is fixed:
// resolve the profile directory, clean lock artifacts, launch, register.
// Sessions live until explicitly removed (logout, close) or until their
// process is killed; there is no idle eviction, because the browser
// profile is what keeps the account logged in.
//
// # Surfaces
//
// Workflows never touch Playwright directly. They interact through the
// Surface interface, one bounded DOM operation per call, which keeps the
// workflow packages testable against fakes and keeps every wait on an
// explicit timeout.
//
// # Diagnostics
//
// Diagnostics.Capture writes a full-page screenshot plus a cleaned HTML
// snapshot into the debug directory under a caller-supplied step name.
// Capture failures are logged and never propagated, so they cannot mask
// the step failure that triggered them.
package browser
