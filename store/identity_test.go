package store

import (
	"sync"
	"testing"

	"github.com/go-smail/smaild/auth"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Functions

// TestRegister checks registration input validation
// and username uniqueness.
func TestRegister(t *testing.T) {

	s := NewIdentityStore(auth.NewPlainVerifier())

	_, err := s.Register("", "password1")
	assert.ErrorIs(t, err, ErrInvalidInput)

	_, err = s.Register("user1", "")
	assert.ErrorIs(t, err, ErrInvalidInput)

	acc, err := s.Register("user1", "password1")
	require.NoError(t, err)
	assert.Equal(t, "user1", acc.Username)

	_, err = s.Register("user1", "password2")
	assert.ErrorIs(t, err, ErrUsernameTaken)

	// Usernames are case-sensitive, so a different
	// casing is a different account.
	_, err = s.Register("User1", "password1")
	assert.NoError(t, err)
}

// TestRegisterConcurrent checks that concurrent
// registrations for the same username yield exactly
// one success, never two.
func TestRegisterConcurrent(t *testing.T) {

	s := NewIdentityStore(auth.NewPlainVerifier())

	const attempts = 64

	var wg sync.WaitGroup
	results := make(chan error, attempts)

	for i := 0; i < attempts; i++ {

		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := s.Register("user1", "password1")
			results <- err
		}()
	}

	wg.Wait()
	close(results)

	successes := 0
	taken := 0
	for err := range results {
		switch {
		case err == nil:
			successes++
		case err == ErrUsernameTaken:
			taken++
		default:
			t.Fatalf("unexpected register error: %v", err)
		}
	}

	assert.Equal(t, 1, successes)
	assert.Equal(t, attempts-1, taken)
}

// TestAuthenticate checks credential verification
// against registered accounts.
func TestAuthenticate(t *testing.T) {

	s := NewIdentityStore(auth.NewPlainVerifier())

	_, err := s.Register("user1", "password1")
	require.NoError(t, err)

	acc, err := s.Authenticate("user1", "password1")
	require.NoError(t, err)
	assert.Equal(t, "user1", acc.Username)

	_, err = s.Authenticate("user1", "password2")
	assert.ErrorIs(t, err, ErrBadCredential)

	_, err = s.Authenticate("smith", "sesame")
	assert.ErrorIs(t, err, ErrUnknownAccount)
}

// TestLookup checks the read-only account lookup.
func TestLookup(t *testing.T) {

	s := NewIdentityStore(auth.NewPlainVerifier())

	_, found := s.Lookup("user1")
	assert.False(t, found)

	reg, err := s.Register("user1", "password1")
	require.NoError(t, err)

	acc, found := s.Lookup("user1")
	require.True(t, found)
	assert.Equal(t, reg.ID, acc.ID)
	assert.Equal(t, "user1", acc.Username)
}
