package server_test

import (
	"bufio"
	"fmt"
	"net"
	"strings"
	"testing"
	"time"

	"github.com/go-kit/kit/log"
	"github.com/go-kit/kit/metrics/discard"
	"github.com/go-smail/smaild/auth"
	"github.com/go-smail/smaild/server"
	"github.com/go-smail/smaild/smail"
	"github.com/go-smail/smaild/store"
	"github.com/stretchr/testify/require"
)

// Structs

var registerTests = []struct {
	in  string
	out string
}{
	{"REGISTER%%user1%%password1%%password1", "SUCCESS"},
	{"REGISTER%%user2%%password2%%mismatch", "PASSWORDS_DOESNT_MATCH"},
	{"REGISTER%%user1%%password3%%password3", "USER_ALREADY_EXISTS"},
	{"REGISTER%%%%password1%%password1", "INVALID"},
	{"REGISTER%%user3%%%%", "INVALID"},
	{"REGISTER%%user3%%password3", "INVALID"},
	{"REGISTER", "INVALID"},
	{"register%%user3%%password3%%password3", "INVALID"},
}

var notLoggedInTests = []struct {
	in  string
	out string
}{
	{"SEND_EMAIL%%user1%%Hi%%there", "USER_NOT_LOGGED_IN"},
	{"GET_RECEIVED_EMAILS", "USER_NOT_LOGGED_IN"},
	{"GET_SENT_EMAILS", "USER_NOT_LOGGED_IN"},
	{"READ_EMAIL%%1", "USER_NOT_LOGGED_IN"},
	{"SEARCH_DETAILS%%SENT%%Hi", "USER_NOT_LOGGED_IN"},
	{"LOGOUT%%user1", "USER_NOT_LOGGED_IN"},
	{"WHATEVER%%x", "INVALID"},
}

// Functions

// runTestServer assembles stores, service, and transport
// the way main does and runs the accept loop on an
// ephemeral port. It returns the address to dial.
func runTestServer(t *testing.T) string {

	logger := log.NewNopLogger()

	identities := store.NewIdentityStore(auth.NewPlainVerifier())
	sessions := store.NewSessionRegistry()
	mailboxes := store.NewMailboxStore()

	svc := server.NewService(logger, identities, sessions, mailboxes)
	svc = server.NewLoggingService(svc, logger)
	svc = server.NewMetricsService(svc, discard.NewCounter(), discard.NewCounter(), discard.NewCounter(), discard.NewCounter())

	listener, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	t.Cleanup(func() { listener.Close() })

	go server.New(logger, svc, sessions).Run(listener)

	return listener.Addr().String()
}

// client is a minimal line-based protocol client
// for exercising a running test server.
type client struct {
	conn   net.Conn
	reader *bufio.Reader
}

func dialTestServer(t *testing.T, addr string) *client {

	conn, err := net.Dial("tcp", addr)
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })

	return &client{
		conn:   conn,
		reader: bufio.NewReader(conn),
	}
}

// roundTrip sends one request line and returns the
// single response line for it.
func (c *client) roundTrip(t *testing.T, req string) string {

	_, err := fmt.Fprintf(c.conn, "%s\n", req)
	require.NoError(t, err)

	answer, err := c.reader.ReadString('\n')
	require.NoError(t, err)

	return strings.TrimRight(answer, "\n")
}

// TestRegisterCommand executes a black-box table test on
// the REGISTER handling of a running node.
func TestRegisterCommand(t *testing.T) {

	addr := runTestServer(t)
	c := dialTestServer(t, addr)

	for i, tt := range registerTests {

		if answer := c.roundTrip(t, tt.in); answer != tt.out {
			t.Errorf("%d: expected '%s' for '%s' but received '%s'", i, tt.out, tt.in, answer)
		}
	}
}

// TestNotLoggedIn executes a black-box table test on mail
// verbs reaching a node outside the authenticated state.
func TestNotLoggedIn(t *testing.T) {

	addr := runTestServer(t)
	c := dialTestServer(t, addr)

	for i, tt := range notLoggedInTests {

		if answer := c.roundTrip(t, tt.in); answer != tt.out {
			t.Errorf("%d: expected '%s' for '%s' but received '%s'", i, tt.out, tt.in, answer)
		}
	}
}

// TestLoginCommand checks credential errors, the single-
// session policy, and that logout frees the account for
// a fresh login.
func TestLoginCommand(t *testing.T) {

	addr := runTestServer(t)

	c1 := dialTestServer(t, addr)
	require.Equal(t, "SUCCESS", c1.roundTrip(t, "REGISTER%%user1%%password1%%password1"))

	require.Equal(t, "INVALID_USERNAME_OR_PASSWORD", c1.roundTrip(t, "LOGIN%%user1%%wrong"))
	require.Equal(t, "INVALID_USERNAME_OR_PASSWORD", c1.roundTrip(t, "LOGIN%%smith%%sesame"))
	require.Equal(t, "INVALID", c1.roundTrip(t, "LOGIN%%user1"))
	require.Equal(t, "SUCCESS", c1.roundTrip(t, "LOGIN%%user1%%password1"))

	// LOGIN and REGISTER are not acceptable on an
	// authenticated session.
	require.Equal(t, "INVALID", c1.roundTrip(t, "LOGIN%%user1%%password1"))
	require.Equal(t, "INVALID", c1.roundTrip(t, "REGISTER%%user9%%password9%%password9"))

	// A second connection cannot log in the same account.
	c2 := dialTestServer(t, addr)
	require.Equal(t, "USER_ALREADY_LOGGED", c2.roundTrip(t, "LOGIN%%user1%%password1"))

	// LOGOUT must name the session's own username.
	require.Equal(t, "INVALID", c1.roundTrip(t, "LOGOUT%%user2"))
	require.Equal(t, "SUCCESS", c1.roundTrip(t, "LOGOUT%%user1"))

	// After logout the account is free again.
	require.Equal(t, "SUCCESS", c2.roundTrip(t, "LOGIN%%user1%%password1"))
}

// TestLoginConcurrent checks that two concurrent logins
// for the same account yield exactly one success.
func TestLoginConcurrent(t *testing.T) {

	addr := runTestServer(t)

	c := dialTestServer(t, addr)
	require.Equal(t, "SUCCESS", c.roundTrip(t, "REGISTER%%user1%%password1%%password1"))

	const attempts = 8

	results := make(chan string, attempts)
	for i := 0; i < attempts; i++ {

		go func() {
			conn, err := net.Dial("tcp", addr)
			if err != nil {
				results <- err.Error()
				return
			}
			defer conn.Close()

			if _, err := fmt.Fprintf(conn, "LOGIN%%%%user1%%%%password1\n"); err != nil {
				results <- err.Error()
				return
			}

			answer, err := bufio.NewReader(conn).ReadString('\n')
			if err != nil {
				results <- err.Error()
				return
			}
			results <- strings.TrimRight(answer, "\n")
		}()
	}

	successes := 0
	rejected := 0
	for i := 0; i < attempts; i++ {
		switch <-results {
		case "SUCCESS":
			successes++
		case "USER_ALREADY_LOGGED":
			rejected++
		default:
			t.Fatal("unexpected answer to concurrent LOGIN")
		}
	}

	require.Equal(t, 1, successes)
	require.Equal(t, attempts-1, rejected)
}

// TestMailScenario walks the full protocol scenario:
// two accounts, one message, listing, reading, searching.
func TestMailScenario(t *testing.T) {

	addr := runTestServer(t)

	alice := dialTestServer(t, addr)
	bob := dialTestServer(t, addr)

	require.Equal(t, "SUCCESS", alice.roundTrip(t, "REGISTER%%alice%%Secr3t!!pass1%%Secr3t!!pass1"))
	require.Equal(t, "SUCCESS", bob.roundTrip(t, "REGISTER%%bob%%Secr3t!!pass2%%Secr3t!!pass2"))

	require.Equal(t, "SUCCESS", alice.roundTrip(t, "LOGIN%%alice%%Secr3t!!pass1"))
	require.Equal(t, "SUCCESS", bob.roundTrip(t, "LOGIN%%bob%%Secr3t!!pass2"))

	// Empty mailboxes list as no emails found.
	require.Equal(t, "NO_EMAILS_FOUND", bob.roundTrip(t, "GET_RECEIVED_EMAILS"))
	require.Equal(t, "NO_EMAILS_FOUND", alice.roundTrip(t, "GET_SENT_EMAILS"))

	// Sending to an account without a mailbox fails and
	// leaves no trace in any view.
	require.Equal(t, "RECIPIENT_NOT_FOUND", alice.roundTrip(t, "SEND_EMAIL%%nobody%%Hi%%there"))
	require.Equal(t, "NO_EMAILS_FOUND", alice.roundTrip(t, "GET_SENT_EMAILS"))

	require.Equal(t, "INVALID", alice.roundTrip(t, "SEND_EMAIL%%bob%%%%there"))
	require.Equal(t, "SUCCESS", alice.roundTrip(t, "SEND_EMAIL%%bob%%Hi%%there"))

	// Bob sees exactly one received message from alice,
	// still unread.
	answer := bob.roundTrip(t, "GET_RECEIVED_EMAILS")
	records := strings.Split(answer, smail.RecordDelimiter)
	require.Len(t, records, 2)
	require.Equal(t, "SUCCESS", records[0])

	fields := strings.Split(records[1], smail.FieldDelimiter)
	require.Len(t, fields, 7)
	require.Equal(t, "1", fields[0])
	require.Equal(t, "alice", fields[1])
	require.Equal(t, "bob", fields[2])
	require.Equal(t, "Hi", fields[3])
	require.Equal(t, "there", fields[4])
	require.Equal(t, "false", fields[6])

	// Reading flips the flag exactly once.
	answer = bob.roundTrip(t, "READ_EMAIL%%1")
	fields = strings.Split(answer, smail.FieldDelimiter)
	require.Len(t, fields, 8)
	require.Equal(t, "SUCCESS", fields[0])
	require.Equal(t, "true", fields[7])

	answer = bob.roundTrip(t, "READ_EMAIL%%1")
	fields = strings.Split(answer, smail.FieldDelimiter)
	require.Equal(t, "true", fields[7])

	// The flip is observable from alice's sent view.
	answer = alice.roundTrip(t, "GET_SENT_EMAILS")
	records = strings.Split(answer, smail.RecordDelimiter)
	require.Len(t, records, 2)
	fields = strings.Split(records[1], smail.FieldDelimiter)
	require.Equal(t, "true", fields[6])

	// Search is scoped to the requested view and matches
	// the subject substring literally.
	answer = alice.roundTrip(t, "SEARCH_DETAILS%%SENT%%Hi")
	records = strings.Split(answer, smail.RecordDelimiter)
	require.Len(t, records, 2)
	fields = strings.Split(records[1], smail.FieldDelimiter)
	require.Equal(t, "Hi", fields[3])

	require.Equal(t, "NO_EMAILS_FOUND", alice.roundTrip(t, "SEARCH_DETAILS%%RECEIVED%%Hi"))
	require.Equal(t, "NO_EMAILS_FOUND", alice.roundTrip(t, "SEARCH_DETAILS%%SENT%%hi"))
	require.Equal(t, "INVALID", alice.roundTrip(t, "SEARCH_DETAILS%%BOTH%%Hi"))

	// Unknown or numerically unparseable IDs and messages
	// outside the requester's views answer not found.
	require.Equal(t, "RESOURCE_NOT_FOUND", bob.roundTrip(t, "READ_EMAIL%%42"))
	require.Equal(t, "INVALID", bob.roundTrip(t, "READ_EMAIL%%one"))

	carol := dialTestServer(t, addr)
	require.Equal(t, "SUCCESS", carol.roundTrip(t, "REGISTER%%carol%%Secr3t!!pass3%%Secr3t!!pass3"))
	require.Equal(t, "SUCCESS", carol.roundTrip(t, "LOGIN%%carol%%Secr3t!!pass3"))
	require.Equal(t, "RESOURCE_NOT_FOUND", carol.roundTrip(t, "READ_EMAIL%%1"))
}

// TestLogoutTerminates checks that a successful LOGOUT
// ends the connection for good.
func TestLogoutTerminates(t *testing.T) {

	addr := runTestServer(t)

	c := dialTestServer(t, addr)
	require.Equal(t, "SUCCESS", c.roundTrip(t, "REGISTER%%user1%%password1%%password1"))
	require.Equal(t, "SUCCESS", c.roundTrip(t, "LOGIN%%user1%%password1"))
	require.Equal(t, "SUCCESS", c.roundTrip(t, "LOGOUT%%user1"))

	// The node closes the connection after LOGOUT, so the
	// next read fails.
	_, err := fmt.Fprintf(c.conn, "GET_SENT_EMAILS\n")
	if err == nil {
		_, err = c.reader.ReadString('\n')
	}
	require.Error(t, err)
}

// TestExitTerminates checks that EXIT ends a connection
// in either session state and that leaving an
// authenticated session this way frees the account.
func TestExitTerminates(t *testing.T) {

	addr := runTestServer(t)

	c := dialTestServer(t, addr)
	require.Equal(t, "SUCCESS", c.roundTrip(t, "EXIT"))

	_, err := fmt.Fprintf(c.conn, "EXIT\n")
	if err == nil {
		_, err = c.reader.ReadString('\n')
	}
	require.Error(t, err)

	// EXIT on an authenticated session acts as an
	// implicit logout.
	c1 := dialTestServer(t, addr)
	require.Equal(t, "SUCCESS", c1.roundTrip(t, "REGISTER%%user1%%password1%%password1"))
	require.Equal(t, "SUCCESS", c1.roundTrip(t, "LOGIN%%user1%%password1"))
	require.Equal(t, "SUCCESS", c1.roundTrip(t, "EXIT"))

	c2 := dialTestServer(t, addr)
	answer := ""
	for i := 0; i < 50; i++ {
		answer = c2.roundTrip(t, "LOGIN%%user1%%password1")
		if answer == "SUCCESS" {
			break
		}
		require.Equal(t, "USER_ALREADY_LOGGED", answer)
		time.Sleep(20 * time.Millisecond)
	}
	require.Equal(t, "SUCCESS", answer)
}

// TestDisconnectCleanup checks that an abrupt disconnect
// acts as an implicit logout and frees the account.
func TestDisconnectCleanup(t *testing.T) {

	addr := runTestServer(t)

	c1 := dialTestServer(t, addr)
	require.Equal(t, "SUCCESS", c1.roundTrip(t, "REGISTER%%user1%%password1%%password1"))
	require.Equal(t, "SUCCESS", c1.roundTrip(t, "LOGIN%%user1%%password1"))

	// Drop the connection without a LOGOUT frame.
	require.NoError(t, c1.conn.Close())

	// The session entry must go away, letting the same
	// account log in again. Cleanup is asynchronous, so
	// allow a few retries.
	c2 := dialTestServer(t, addr)
	answer := ""
	for i := 0; i < 50; i++ {
		answer = c2.roundTrip(t, "LOGIN%%user1%%password1")
		if answer == "SUCCESS" {
			break
		}
		require.Equal(t, "USER_ALREADY_LOGGED", answer)
		time.Sleep(20 * time.Millisecond)
	}
	require.Equal(t, "SUCCESS", answer)
}
