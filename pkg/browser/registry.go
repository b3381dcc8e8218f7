package browser

import (
	"sync"
)

// Registry is the concurrency-safe map from account id to its live
// session. It is the only shared mutable state inside the engine.
// Invariant: at most one session per account at any instant.
type Registry struct {
	mu       sync.Mutex
	sessions map[string]*Session
}

// NewRegistry creates an empty session registry.
func NewRegistry() *Registry {
	return &Registry{sessions: make(map[string]*Session)}
}

// Get returns the session registered for accountID, if any.
func (r *Registry) Get(accountID string) (*Session, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	session, ok := r.sessions[accountID]
	return session, ok
}

// Insert registers a session for its account. A second insert for the
// same account overwrites silently; callers that need exactly-one
// semantics check Get first.
func (r *Registry) Insert(accountID string, session *Session) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.sessions[accountID] = session
}

// Remove unregisters and returns the account's session, if any.
// No eviction happens otherwise: entries live until removed here.
func (r *Registry) Remove(accountID string) (*Session, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	session, ok := r.sessions[accountID]
	if ok {
		delete(r.sessions, accountID)
	}
	return session, ok
}

// Accounts returns the account ids with a registered session.
func (r *Registry) Accounts() []string {
	r.mu.Lock()
	defer r.mu.Unlock()

	accounts := make([]string, 0, len(r.sessions))
	for accountID := range r.sessions {
		accounts = append(accounts, accountID)
	}
	return accounts
}

// Len returns the number of registered sessions.
func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.sessions)
}
