package store

import (
	"errors"
	"fmt"
	"sync"

	"github.com/go-smail/smaild/auth"
	uuid "github.com/satori/go.uuid"
)

// Variables

var (
	// ErrInvalidInput is returned when a store operation
	// receives an empty required field.
	ErrInvalidInput = errors.New("invalid input")

	// ErrUsernameTaken is returned when a registration
	// collides with an existing account name.
	ErrUsernameTaken = errors.New("username already taken")

	// ErrUnknownAccount is returned when no account
	// exists for a supplied username.
	ErrUnknownAccount = errors.New("unknown account")

	// ErrBadCredential is returned when a supplied
	// password does not verify against the stored
	// credential.
	ErrBadCredential = errors.New("bad credential")
)

// Structs

// Account carries the public identity of a registered
// user. The stored credential never leaves the store.
type Account struct {
	ID       uuid.UUID
	Username string
}

// account is the internal representation including
// the verifiable credential.
type account struct {
	id         uuid.UUID
	username   string
	credential string
}

// IdentityStore owns all registered accounts and guards
// the invariant that usernames are unique for the
// lifetime of the store. Accounts are never deleted.
type IdentityStore struct {
	lock     sync.RWMutex
	verifier auth.Verifier
	accounts map[string]*account
}

// Functions

// NewIdentityStore takes in the verifier used to derive
// and check credentials and returns an initialized,
// empty identity store.
func NewIdentityStore(verifier auth.Verifier) *IdentityStore {

	return &IdentityStore{
		verifier: verifier,
		accounts: make(map[string]*account),
	}
}

// Register creates a new account under the supplied
// username. It fails with ErrInvalidInput on empty
// username or password and with ErrUsernameTaken if the
// name is in use. The uniqueness check and the insert
// happen under one lock, so concurrent registrations
// for the same name yield exactly one success. Only a
// credential derived from the password is stored, never
// the plaintext.
func (s *IdentityStore) Register(username string, password string) (Account, error) {

	if username == "" || password == "" {
		return Account{}, ErrInvalidInput
	}

	// Derive the credential before taking the lock. Hashing
	// is the expensive part and must not serialize all other
	// store operations behind it.
	credential, err := s.verifier.Hash(password)
	if err != nil {
		return Account{}, fmt.Errorf("failed to derive credential for '%s': %v", username, err)
	}

	s.lock.Lock()
	defer s.lock.Unlock()

	if _, found := s.accounts[username]; found {
		return Account{}, ErrUsernameTaken
	}

	acc := &account{
		id:         uuid.NewV4(),
		username:   username,
		credential: credential,
	}
	s.accounts[username] = acc

	return Account{
		ID:       acc.id,
		Username: acc.username,
	}, nil
}

// Authenticate verifies the supplied credentials. It fails
// with ErrUnknownAccount if no such username exists and
// with ErrBadCredential if the password does not verify.
// It performs no session bookkeeping: binding the session
// is the caller's job via SessionRegistry.Bind, which owns
// the atomic already-active check.
func (s *IdentityStore) Authenticate(username string, password string) (Account, error) {

	s.lock.RLock()
	acc, found := s.accounts[username]
	s.lock.RUnlock()

	if !found {
		return Account{}, ErrUnknownAccount
	}

	// Credential comparison runs outside the lock for the
	// same reason hashing does in Register.
	if !s.verifier.Compare(password, acc.credential) {
		return Account{}, ErrBadCredential
	}

	return Account{
		ID:       acc.id,
		Username: acc.username,
	}, nil
}

// Lookup returns the account registered under the
// supplied username, if any.
func (s *IdentityStore) Lookup(username string) (Account, bool) {

	s.lock.RLock()
	defer s.lock.RUnlock()

	acc, found := s.accounts[username]
	if !found {
		return Account{}, false
	}

	return Account{
		ID:       acc.id,
		Username: acc.username,
	}, true
}
