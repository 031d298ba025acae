package server

import (
	"github.com/go-kit/kit/log"
	"github.com/go-kit/kit/log/level"
	"github.com/go-smail/smaild/smail"
)

type loggingService struct {
	logger  log.Logger
	service Service
}

// NewLoggingService wraps a provided existing
// service with the provided logger.
func NewLoggingService(s Service, logger log.Logger) Service {
	return &loggingService{logger, s}
}

// Register wraps this service's Register method
// with added logging capabilities.
func (s *loggingService) Register(c *Connection, req *smail.Request) bool {

	ok := s.service.Register(c, req)

	logger := log.With(s.logger,
		"method", smail.VerbRegister,
		"username", req.Fields[0],
	)

	if !ok {
		level.Info(logger).Log("msg", "failed to perform operation REGISTER correctly")
	} else {
		level.Debug(logger).Log()
	}

	return ok
}

// Login wraps this service's Login method
// with added logging capabilities.
func (s *loggingService) Login(c *Connection, req *smail.Request) bool {

	ok := s.service.Login(c, req)

	logger := log.With(s.logger,
		"method", smail.VerbLogin,
		"username", req.Fields[0],
	)

	if !ok {
		level.Info(logger).Log("msg", "failed to perform operation LOGIN correctly")
	} else {
		level.Debug(logger).Log()
	}

	return ok
}

// Logout wraps this service's Logout method
// with added logging capabilities.
func (s *loggingService) Logout(c *Connection, req *smail.Request) bool {

	ok := s.service.Logout(c, req)

	logger := log.With(s.logger,
		"method", smail.VerbLogout,
		"username", req.Fields[0],
	)

	if !ok {
		level.Info(logger).Log("msg", "failed to perform operation LOGOUT correctly")
	} else {
		level.Debug(logger).Log()
	}

	return ok
}

// SendEmail wraps this service's SendEmail method
// with added logging capabilities.
func (s *loggingService) SendEmail(c *Connection, req *smail.Request) bool {

	ok := s.service.SendEmail(c, req)

	logger := log.With(s.logger,
		"method", smail.VerbSendEmail,
		"sender", c.UserName,
		"recipient", req.Fields[0],
	)

	if !ok {
		level.Info(logger).Log("msg", "failed to perform operation SEND_EMAIL correctly")
	} else {
		level.Debug(logger).Log()
	}

	return ok
}

// GetReceived wraps this service's GetReceived method
// with added logging capabilities.
func (s *loggingService) GetReceived(c *Connection, req *smail.Request) bool {

	ok := s.service.GetReceived(c, req)

	logger := log.With(s.logger,
		"method", smail.VerbGetReceived,
		"username", c.UserName,
	)

	if !ok {
		level.Info(logger).Log("msg", "failed to perform operation GET_RECEIVED_EMAILS correctly")
	} else {
		level.Debug(logger).Log()
	}

	return ok
}

// GetSent wraps this service's GetSent method
// with added logging capabilities.
func (s *loggingService) GetSent(c *Connection, req *smail.Request) bool {

	ok := s.service.GetSent(c, req)

	logger := log.With(s.logger,
		"method", smail.VerbGetSent,
		"username", c.UserName,
	)

	if !ok {
		level.Info(logger).Log("msg", "failed to perform operation GET_SENT_EMAILS correctly")
	} else {
		level.Debug(logger).Log()
	}

	return ok
}

// ReadEmail wraps this service's ReadEmail method
// with added logging capabilities.
func (s *loggingService) ReadEmail(c *Connection, req *smail.Request) bool {

	ok := s.service.ReadEmail(c, req)

	logger := log.With(s.logger,
		"method", smail.VerbReadEmail,
		"username", c.UserName,
		"id", req.Fields[0],
	)

	if !ok {
		level.Info(logger).Log("msg", "failed to perform operation READ_EMAIL correctly")
	} else {
		level.Debug(logger).Log()
	}

	return ok
}

// Search wraps this service's Search method
// with added logging capabilities.
func (s *loggingService) Search(c *Connection, req *smail.Request) bool {

	ok := s.service.Search(c, req)

	logger := log.With(s.logger,
		"method", smail.VerbSearch,
		"username", c.UserName,
		"direction", req.Fields[0],
	)

	if !ok {
		level.Info(logger).Log("msg", "failed to perform operation SEARCH_DETAILS correctly")
	} else {
		level.Debug(logger).Log()
	}

	return ok
}

// Exit wraps this service's Exit method
// with added logging capabilities.
func (s *loggingService) Exit(c *Connection, req *smail.Request) bool {

	ok := s.service.Exit(c, req)

	logger := log.With(s.logger,
		"method", smail.VerbExit,
	)

	if !ok {
		level.Info(logger).Log("msg", "failed to perform operation EXIT correctly")
	} else {
		level.Debug(logger).Log()
	}

	return ok
}
