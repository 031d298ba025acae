package server

import (
	"github.com/go-kit/kit/metrics"
	"github.com/go-smail/smaild/smail"
)

type metricsService struct {
	service       Service
	registrations metrics.Counter
	logins        metrics.Counter
	logouts       metrics.Counter
	sentEmails    metrics.Counter
}

// NewMetricsService wraps a provided existing
// service with the provided operation counters.
func NewMetricsService(s Service, registrations metrics.Counter, logins metrics.Counter, logouts metrics.Counter, sentEmails metrics.Counter) Service {
	return &metricsService{
		service:       s,
		registrations: registrations,
		logins:        logins,
		logouts:       logouts,
		sentEmails:    sentEmails,
	}
}

func (s *metricsService) Register(c *Connection, req *smail.Request) bool {

	ok := s.service.Register(c, req)

	if ok {
		s.registrations.Add(1)
	}

	return ok
}

func (s *metricsService) Login(c *Connection, req *smail.Request) bool {

	ok := s.service.Login(c, req)

	if ok && c.IsAuthenticated {
		s.logins.Add(1)
	}

	return ok
}

func (s *metricsService) Logout(c *Connection, req *smail.Request) bool {

	ok := s.service.Logout(c, req)

	if ok && c.Terminated {
		s.logouts.Add(1)
	}

	return ok
}

func (s *metricsService) SendEmail(c *Connection, req *smail.Request) bool {

	ok := s.service.SendEmail(c, req)

	if ok {
		s.sentEmails.Add(1)
	}

	return ok
}

func (s *metricsService) GetReceived(c *Connection, req *smail.Request) bool {
	return s.service.GetReceived(c, req)
}

func (s *metricsService) GetSent(c *Connection, req *smail.Request) bool {
	return s.service.GetSent(c, req)
}

func (s *metricsService) ReadEmail(c *Connection, req *smail.Request) bool {
	return s.service.ReadEmail(c, req)
}

func (s *metricsService) Search(c *Connection, req *smail.Request) bool {
	return s.service.Search(c, req)
}

func (s *metricsService) Exit(c *Connection, req *smail.Request) bool {
	return s.service.Exit(c, req)
}
