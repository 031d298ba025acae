package store

import (
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Functions

// TestBind checks the one-session-per-username policy.
func TestBind(t *testing.T) {

	r := NewSessionRegistry()

	require.NoError(t, r.Bind("conn-1", "user1"))

	// Same user on a second connection is rejected.
	assert.ErrorIs(t, r.Bind("conn-2", "user1"), ErrAlreadyActive)

	// Re-binding the same connection to the same user is fine.
	assert.NoError(t, r.Bind("conn-1", "user1"))

	// A different user on a different connection is fine.
	assert.NoError(t, r.Bind("conn-2", "user2"))

	username, found := r.UsernameOf("conn-1")
	require.True(t, found)
	assert.Equal(t, "user1", username)
}

// TestBindConcurrent checks that concurrent binds for
// the same username yield exactly one success.
func TestBindConcurrent(t *testing.T) {

	r := NewSessionRegistry()

	const attempts = 64

	var wg sync.WaitGroup
	results := make(chan error, attempts)

	for i := 0; i < attempts; i++ {

		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			results <- r.Bind(fmt.Sprintf("conn-%d", n), "user1")
		}(i)
	}

	wg.Wait()
	close(results)

	successes := 0
	for err := range results {
		if err == nil {
			successes++
		} else if err != ErrAlreadyActive {
			t.Fatalf("unexpected bind error: %v", err)
		}
	}

	assert.Equal(t, 1, successes)
}

// TestUnbind checks that unbind is idempotent and frees
// the username for a new session.
func TestUnbind(t *testing.T) {

	r := NewSessionRegistry()

	// Unbinding an unknown connection is a no-op.
	r.Unbind("conn-1")

	require.NoError(t, r.Bind("conn-1", "user1"))

	// Both explicit logout and disconnect cleanup call
	// Unbind, so running it twice must be safe.
	r.Unbind("conn-1")
	r.Unbind("conn-1")

	_, found := r.UsernameOf("conn-1")
	assert.False(t, found)

	// The username is free again.
	assert.NoError(t, r.Bind("conn-2", "user1"))
}
