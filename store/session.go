package store

import (
	"errors"
	"sync"
)

// Variables

// ErrAlreadyActive is returned when a session bind is
// attempted for a username that is already bound to
// a different live connection.
var ErrAlreadyActive = errors.New("user already has an active session")

// Structs

// SessionRegistry maps live connections to the account
// authenticated on them. Connections are identified by
// an opaque ID issued at accept time, so session identity
// stays decoupled from the transport. The registry
// enforces at most one live session per username.
type SessionRegistry struct {
	lock   sync.Mutex
	byConn map[string]string
	byUser map[string]string
}

// Functions

// NewSessionRegistry returns an initialized,
// empty session registry.
func NewSessionRegistry() *SessionRegistry {

	return &SessionRegistry{
		byConn: make(map[string]string),
		byUser: make(map[string]string),
	}
}

// Bind records connID as the live session of username.
// It fails with ErrAlreadyActive if the username is bound
// to a different connection. The already-active check and
// the insert run under one lock, so concurrent logins for
// the same username yield exactly one success.
func (r *SessionRegistry) Bind(connID string, username string) error {

	r.lock.Lock()
	defer r.lock.Unlock()

	if active, found := r.byUser[username]; found && active != connID {
		return ErrAlreadyActive
	}

	// A connection re-binding to a different username would
	// leave a stale reverse entry, so clear any prior binding
	// of this connection first.
	if prev, found := r.byConn[connID]; found && prev != username {
		delete(r.byUser, prev)
	}

	r.byConn[connID] = username
	r.byUser[username] = connID

	return nil
}

// Unbind removes any session bound to connID. It is a
// no-op if none exists and safe to call repeatedly, as
// both explicit logout and disconnect cleanup run it.
func (r *SessionRegistry) Unbind(connID string) {

	r.lock.Lock()
	defer r.lock.Unlock()

	username, found := r.byConn[connID]
	if !found {
		return
	}

	delete(r.byConn, connID)
	delete(r.byUser, username)
}

// UsernameOf returns the username authenticated on the
// supplied connection, if any.
func (r *SessionRegistry) UsernameOf(connID string) (string, bool) {

	r.lock.Lock()
	defer r.lock.Unlock()

	username, found := r.byConn[connID]

	return username, found
}
