package main

import (
	"net/http"

	"github.com/go-kit/kit/log"
	"github.com/go-kit/kit/log/level"
	"github.com/go-kit/kit/metrics"
	"github.com/go-kit/kit/metrics/discard"
	"github.com/go-kit/kit/metrics/prometheus"
	prom "github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

type SmailMetrics struct {
	Server *ServerMetrics
}

type ServerMetrics struct {
	Registrations metrics.Counter
	Logins        metrics.Counter
	Logouts       metrics.Counter
	SentEmails    metrics.Counter
}

func NewSmailMetrics(prometheusAddr string) *SmailMetrics {

	m := &SmailMetrics{}

	if prometheusAddr == "" {
		m.Server = &ServerMetrics{
			Registrations: discard.NewCounter(),
			Logins:        discard.NewCounter(),
			Logouts:       discard.NewCounter(),
			SentEmails:    discard.NewCounter(),
		}
	} else {
		m.Server = &ServerMetrics{
			Registrations: prometheus.NewCounterFrom(prom.CounterOpts{
				Namespace: "smail",
				Subsystem: "server",
				Name:      "registrations_total",
				Help:      "Number of registered accounts",
			}, nil),
			Logins: prometheus.NewCounterFrom(prom.CounterOpts{
				Namespace: "smail",
				Subsystem: "server",
				Name:      "logins_total",
				Help:      "Number of logins",
			}, nil),
			Logouts: prometheus.NewCounterFrom(prom.CounterOpts{
				Namespace: "smail",
				Subsystem: "server",
				Name:      "logouts_total",
				Help:      "Number of logouts",
			}, nil),
			SentEmails: prometheus.NewCounterFrom(prom.CounterOpts{
				Namespace: "smail",
				Subsystem: "server",
				Name:      "sent_emails_total",
				Help:      "Number of sent emails",
			}, nil),
		}
	}

	return m
}

func runPromHTTP(logger log.Logger, addr string) {

	if addr == "" {
		level.Debug(logger).Log("msg", "prometheus addr is empty, not exposing prometheus metrics")
		return
	}

	http.Handle("/metrics", promhttp.Handler())

	level.Info(logger).Log("msg", "prometheus handler listening", "addr", addr)
	if err := http.ListenAndServe(addr, nil); err != nil {
		level.Warn(logger).Log("msg", "failed to serve prometheus metrics", "err", err)
	}
}
