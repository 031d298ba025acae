package server

import (
	"bufio"
	"fmt"
	"net"

	"github.com/go-kit/kit/log"
	"github.com/go-kit/kit/log/level"
	"github.com/go-smail/smaild/smail"
	"github.com/go-smail/smaild/store"
	uuid "github.com/satori/go.uuid"
)

// Structs

// Server is the transport in front of a Service: it owns
// the accept loop, issues one opaque connection ID per
// accepted connection, sequences the session states, and
// dispatches parsed frames to the supplied Service, which
// may be decorated with logging and metrics middlewares.
type Server struct {
	logger   log.Logger
	service  Service
	sessions *store.SessionRegistry
}

// Functions

// New takes in the decorated service to dispatch to and
// the session registry used for disconnect cleanup and
// returns an initialized server struct.
func New(logger log.Logger, service Service, sessions *store.SessionRegistry) *Server {

	return &Server{
		logger:   logger,
		service:  service,
		sessions: sessions,
	}
}

// Run loops over incoming requests at the smail node and
// dispatches each connection to a goroutine taking care
// of the commands supplied.
func (srv *Server) Run(listener net.Listener) error {

	for {
		// Accept request or fail on error.
		conn, err := listener.Accept()
		if err != nil {
			return fmt.Errorf("accepting incoming request at smail node failed with: %v", err)
		}

		// Dispatch into own goroutine.
		go srv.handleConnection(conn)
	}
}

// handleConnection performs the main actions on one client
// connection. Requests are processed strictly one after
// another per connection; concurrency exists only between
// connections.
func (srv *Server) handleConnection(conn net.Conn) {

	// Create a new connection struct for incoming request.
	c := &Connection{
		IncConn:    conn,
		IncReader:  bufio.NewReader(conn),
		ClientID:   uuid.NewV4().String(),
		ClientAddr: conn.RemoteAddr().String(),
	}

	// An abrupt disconnect is an implicit logout: whatever
	// way this function is left, the session entry goes away.
	defer srv.sessions.Unbind(c.ClientID)
	defer c.IncConn.Close()

	for !c.Terminated {

		// Receive next incoming client command.
		rawReq, err := c.Receive()
		if err != nil {

			// Check if error was a simple disconnect.
			if err.Error() == "EOF" {
				level.Debug(srv.logger).Log("msg", fmt.Sprintf("client at %s disconnected", c.ClientAddr))
			} else {
				level.Error(srv.logger).Log(
					"msg", fmt.Sprintf("error while receiving text from client %s", c.ClientAddr),
					"err", err,
				)
			}

			return
		}

		// Parse received next raw request into struct.
		req, err := smail.ParseRequest(rawReq)
		if err != nil {

			// Signal error to client.
			err := c.Send(smail.StatusInvalid)
			if err != nil {
				level.Error(srv.logger).Log(
					"msg", fmt.Sprintf("error while sending text to client %s", c.ClientAddr),
					"err", err,
				)
				return
			}

			// Go back to beginning of loop.
			continue
		}

		cmdOK := false

		switch {

		case (!c.IsAuthenticated) && (req.Verb == smail.VerbRegister):
			cmdOK = srv.service.Register(c, req)

		case (!c.IsAuthenticated) && (req.Verb == smail.VerbLogin):
			cmdOK = srv.service.Login(c, req)

		case req.Verb == smail.VerbExit:
			cmdOK = srv.service.Exit(c, req)

		case (c.IsAuthenticated) && (req.Verb == smail.VerbLogout):
			cmdOK = srv.service.Logout(c, req)

		case (c.IsAuthenticated) && (req.Verb == smail.VerbSendEmail):
			cmdOK = srv.service.SendEmail(c, req)

		case (c.IsAuthenticated) && (req.Verb == smail.VerbGetReceived):
			cmdOK = srv.service.GetReceived(c, req)

		case (c.IsAuthenticated) && (req.Verb == smail.VerbGetSent):
			cmdOK = srv.service.GetSent(c, req)

		case (c.IsAuthenticated) && (req.Verb == smail.VerbReadEmail):
			cmdOK = srv.service.ReadEmail(c, req)

		case (c.IsAuthenticated) && (req.Verb == smail.VerbSearch):
			cmdOK = srv.service.Search(c, req)

		case (!c.IsAuthenticated) && requiresSession(req.Verb):
			// Recognized mail verb reached outside the
			// authenticated state.
			err := c.Send(smail.StatusUserNotLoggedIn)
			if err != nil {
				level.Error(srv.logger).Log(
					"msg", fmt.Sprintf("error while sending text to client %s", c.ClientAddr),
					"err", err,
				)
				return
			}
			cmdOK = true

		default:
			// Client sent a verb inappropriate for the
			// current session state.
			err := c.Send(smail.StatusInvalid)
			if err != nil {
				level.Error(srv.logger).Log(
					"msg", fmt.Sprintf("error while sending text to client %s", c.ClientAddr),
					"err", err,
				)
				return
			}
			cmdOK = true
		}

		// Executed command above indicated failure in
		// operation. Return from function.
		if !cmdOK {
			return
		}
	}
}

// requiresSession reports whether a verb is only ever
// valid on an authenticated session.
func requiresSession(verb string) bool {

	switch verb {
	case smail.VerbLogout, smail.VerbSendEmail, smail.VerbGetReceived, smail.VerbGetSent, smail.VerbReadEmail, smail.VerbSearch:
		return true
	default:
		return false
	}
}
