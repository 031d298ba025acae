package server

import (
	"fmt"
	"strconv"

	"github.com/go-kit/kit/log"
	"github.com/go-kit/kit/log/level"
	"github.com/go-smail/smaild/smail"
	"github.com/go-smail/smaild/store"
)

// Structs

type service struct {
	logger     log.Logger
	identities *store.IdentityStore
	sessions   *store.SessionRegistry
	mailboxes  *store.MailboxStore
}

// Interfaces

// Service defines the operations a smail node provides,
// one handler per protocol verb. The Server transport
// dispatches parsed frames to a Service; middlewares wrap
// it for logging and metrics. A handler returning false
// signals a broken transport and ends the connection.
type Service interface {

	// Register creates a new account together with its
	// empty mailbox.
	Register(c *Connection, req *smail.Request) bool

	// Login authenticates the supplied credentials and
	// binds the session, enforcing the one-session-per-
	// account policy.
	Login(c *Connection, req *smail.Request) bool

	// Logout unbinds the session of the connection and
	// correctly ends it.
	Logout(c *Connection, req *smail.Request) bool

	// SendEmail delivers a message from the session's
	// user to a recipient mailbox.
	SendEmail(c *Connection, req *smail.Request) bool

	// GetReceived lists the received view of the
	// session's user.
	GetReceived(c *Connection, req *smail.Request) bool

	// GetSent lists the sent view of the session's user.
	GetSent(c *Connection, req *smail.Request) bool

	// ReadEmail returns one message visible to the
	// session's user, marking it read when the user
	// is its recipient.
	ReadEmail(c *Connection, req *smail.Request) bool

	// Search returns the messages in one view of the
	// session's user whose subject contains the search
	// term.
	Search(c *Connection, req *smail.Request) bool

	// Exit ends the connection in any state. A still
	// bound session is released by the transport's
	// disconnect cleanup.
	Exit(c *Connection, req *smail.Request) bool
}

// Functions

// NewService takes in all required parameters for spinning
// up a new smail node and returns a service struct wrapping
// all information.
func NewService(logger log.Logger, identities *store.IdentityStore, sessions *store.SessionRegistry, mailboxes *store.MailboxStore) Service {

	return &service{
		logger:     logger,
		identities: identities,
		sessions:   sessions,
		mailboxes:  mailboxes,
	}
}

// Register creates a new account together with its empty
// mailbox. A mismatched password confirmation is answered
// without consulting the identity store at all.
func (s *service) Register(c *Connection, req *smail.Request) bool {

	username := req.Fields[0]
	password := req.Fields[1]
	confirmed := req.Fields[2]

	if password != confirmed {

		err := c.Send(smail.StatusPasswordsMismatch)
		if err != nil {
			level.Error(s.logger).Log(
				"msg", fmt.Sprintf("error while sending text to client %s", c.ClientAddr),
				"err", err,
			)
			return false
		}

		return true
	}

	_, err := s.identities.Register(username, password)
	if err != nil {

		answer := smail.StatusInvalid
		if err == store.ErrUsernameTaken {
			answer = smail.StatusUserAlreadyExists
		} else if err != store.ErrInvalidInput {
			level.Error(s.logger).Log(
				"msg", fmt.Sprintf("error registering account '%s'", username),
				"err", err,
			)
		}

		err := c.Send(answer)
		if err != nil {
			level.Error(s.logger).Log(
				"msg", fmt.Sprintf("error while sending text to client %s", c.ClientAddr),
				"err", err,
			)
			return false
		}

		return true
	}

	// Registration succeeded, so the account gets its empty
	// mailbox. A duplicate here cannot happen because the
	// username uniqueness check already succeeded.
	err = s.mailboxes.Init(username)
	if err != nil {
		level.Error(s.logger).Log(
			"msg", fmt.Sprintf("error initializing mailbox for account '%s'", username),
			"err", err,
		)
	}

	// Signal success to client.
	err = c.Send(smail.StatusSuccess)
	if err != nil {
		level.Error(s.logger).Log(
			"msg", fmt.Sprintf("error while sending text to client %s", c.ClientAddr),
			"err", err,
		)
		return false
	}

	return true
}

// Login authenticates the supplied credentials and binds
// the session. Credential verification and the atomic
// already-active check are deliberately separate steps:
// the bind is the single authority on session uniqueness,
// so two concurrent logins for one account can never both
// pass a pre-check.
func (s *service) Login(c *Connection, req *smail.Request) bool {

	username := req.Fields[0]
	password := req.Fields[1]

	_, err := s.identities.Authenticate(username, password)
	if err != nil {

		// Unknown account and wrong password answer the same
		// token, leaking nothing about which part was wrong.
		err := c.Send(smail.StatusInvalidCredentials)
		if err != nil {
			level.Error(s.logger).Log(
				"msg", fmt.Sprintf("error while sending text to client %s", c.ClientAddr),
				"err", err,
			)
			return false
		}

		return true
	}

	err = s.sessions.Bind(c.ClientID, username)
	if err != nil {

		err := c.Send(smail.StatusUserAlreadyLogged)
		if err != nil {
			level.Error(s.logger).Log(
				"msg", fmt.Sprintf("error while sending text to client %s", c.ClientAddr),
				"err", err,
			)
			return false
		}

		return true
	}

	// Save context to connection struct.
	c.IsAuthenticated = true
	c.UserName = username

	// Signal success to client.
	err = c.Send(smail.StatusSuccess)
	if err != nil {
		level.Error(s.logger).Log(
			"msg", fmt.Sprintf("error while sending text to client %s", c.ClientAddr),
			"err", err,
		)
		return false
	}

	return true
}

// Logout unbinds the session and ends the connection. The
// supplied username must be the session's own; anything
// else leaves the session untouched.
func (s *service) Logout(c *Connection, req *smail.Request) bool {

	username := req.Fields[0]

	if username != c.UserName {

		err := c.Send(smail.StatusInvalid)
		if err != nil {
			level.Error(s.logger).Log(
				"msg", fmt.Sprintf("error while sending text to client %s", c.ClientAddr),
				"err", err,
			)
			return false
		}

		return true
	}

	s.sessions.Unbind(c.ClientID)
	c.IsAuthenticated = false
	c.UserName = ""
	c.Terminated = true

	// Signal success to client.
	err := c.Send(smail.StatusSuccess)
	if err != nil {
		level.Error(s.logger).Log(
			"msg", fmt.Sprintf("error while sending text to client %s", c.ClientAddr),
			"err", err,
		)
		return false
	}

	return true
}

// SendEmail delivers a message from the session's user to
// a recipient mailbox.
func (s *service) SendEmail(c *Connection, req *smail.Request) bool {

	recipient := req.Fields[0]
	subject := req.Fields[1]
	body := req.Fields[2]

	_, err := s.mailboxes.Send(c.UserName, recipient, subject, body)
	if err != nil {

		answer := smail.StatusInvalid
		if err == store.ErrUnknownRecipient {
			answer = smail.StatusRecipientNotFound
		}

		err := c.Send(answer)
		if err != nil {
			level.Error(s.logger).Log(
				"msg", fmt.Sprintf("error while sending text to client %s", c.ClientAddr),
				"err", err,
			)
			return false
		}

		return true
	}

	// Signal success to client.
	err = c.Send(smail.StatusSuccess)
	if err != nil {
		level.Error(s.logger).Log(
			"msg", fmt.Sprintf("error while sending text to client %s", c.ClientAddr),
			"err", err,
		)
		return false
	}

	return true
}

// GetReceived lists the received view of the session's user.
func (s *service) GetReceived(c *Connection, req *smail.Request) bool {

	msgs := s.mailboxes.ListReceived(c.UserName)

	answer := smail.StatusNoEmailsFound
	if len(msgs) > 0 {
		answer = smail.FormatList(msgs)
	}

	err := c.Send(answer)
	if err != nil {
		level.Error(s.logger).Log(
			"msg", fmt.Sprintf("error while sending text to client %s", c.ClientAddr),
			"err", err,
		)
		return false
	}

	return true
}

// GetSent lists the sent view of the session's user.
func (s *service) GetSent(c *Connection, req *smail.Request) bool {

	msgs := s.mailboxes.ListSent(c.UserName)

	answer := smail.StatusNoEmailsFound
	if len(msgs) > 0 {
		answer = smail.FormatList(msgs)
	}

	err := c.Send(answer)
	if err != nil {
		level.Error(s.logger).Log(
			"msg", fmt.Sprintf("error while sending text to client %s", c.ClientAddr),
			"err", err,
		)
		return false
	}

	return true
}

// ReadEmail returns one message visible to the session's
// user, marking it read when the user is its recipient.
func (s *service) ReadEmail(c *Connection, req *smail.Request) bool {

	id, err := strconv.ParseInt(req.Fields[0], 10, 64)
	if err != nil {

		err := c.Send(smail.StatusInvalid)
		if err != nil {
			level.Error(s.logger).Log(
				"msg", fmt.Sprintf("error while sending text to client %s", c.ClientAddr),
				"err", err,
			)
			return false
		}

		return true
	}

	msg, err := s.mailboxes.Read(id, c.UserName)
	if err != nil {

		err := c.Send(smail.StatusResourceNotFound)
		if err != nil {
			level.Error(s.logger).Log(
				"msg", fmt.Sprintf("error while sending text to client %s", c.ClientAddr),
				"err", err,
			)
			return false
		}

		return true
	}

	err = c.Send(smail.FormatSingle(msg))
	if err != nil {
		level.Error(s.logger).Log(
			"msg", fmt.Sprintf("error while sending text to client %s", c.ClientAddr),
			"err", err,
		)
		return false
	}

	return true
}

// Search returns the messages in one view of the session's
// user whose subject contains the search term.
func (s *service) Search(c *Connection, req *smail.Request) bool {

	direction, ok := smail.ParseDirection(req.Fields[0])
	if !ok {

		err := c.Send(smail.StatusInvalid)
		if err != nil {
			level.Error(s.logger).Log(
				"msg", fmt.Sprintf("error while sending text to client %s", c.ClientAddr),
				"err", err,
			)
			return false
		}

		return true
	}

	msgs := s.mailboxes.Search(c.UserName, direction, req.Fields[1])

	answer := smail.StatusNoEmailsFound
	if len(msgs) > 0 {
		answer = smail.FormatList(msgs)
	}

	err := c.Send(answer)
	if err != nil {
		level.Error(s.logger).Log(
			"msg", fmt.Sprintf("error while sending text to client %s", c.ClientAddr),
			"err", err,
		)
		return false
	}

	return true
}

// Exit ends the connection in any state.
func (s *service) Exit(c *Connection, req *smail.Request) bool {

	c.Terminated = true

	// Signal success to client.
	err := c.Send(smail.StatusSuccess)
	if err != nil {
		level.Error(s.logger).Log(
			"msg", fmt.Sprintf("error while sending text to client %s", c.ClientAddr),
			"err", err,
		)
		return false
	}

	return true
}
