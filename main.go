package main

import (
	"flag"
	"net"
	"os"
	"runtime"
	"strings"

	"github.com/go-kit/kit/log"
	"github.com/go-kit/kit/log/level"
	"github.com/go-smail/smaild/auth"
	"github.com/go-smail/smaild/config"
	"github.com/go-smail/smaild/server"
	"github.com/go-smail/smaild/store"
	"github.com/pkg/errors"
)

// Functions

// initVerifier of the correct implementation specified in
// the config to be used by the identity store.
func initVerifier(conf *config.Config) (auth.Verifier, error) {

	switch conf.Auth.Adapter {
	case "plain":
		return auth.NewPlainVerifier(), nil
	default: // bcrypt
		return auth.NewBcryptVerifier(conf.Auth.BcryptCost)
	}
}

// initLogger initializes a JSON gokit-logger set
// to the according log level supplied via cli flag.
func initLogger(loglevel string) log.Logger {

	logger := log.NewJSONLogger(log.NewSyncWriter(os.Stdout))
	logger = log.With(logger,
		"ts", log.DefaultTimestampUTC,
		"caller", log.DefaultCaller,
	)

	switch strings.ToLower(loglevel) {
	case "info":
		logger = level.NewFilter(logger, level.AllowInfo())
	case "warn":
		logger = level.NewFilter(logger, level.AllowWarn())
	case "error":
		logger = level.NewFilter(logger, level.AllowError())
	default:
		logger = level.NewFilter(logger, level.AllowDebug())
	}

	return logger
}

func main() {

	// Set CPUs usable by smail to all available.
	runtime.GOMAXPROCS(runtime.NumCPU())

	// Parse command-line flag that defines a config path.
	configFlag := flag.String("config", "config.toml", "Provide path to configuration file in TOML syntax.")
	loglevelFlag := flag.String("loglevel", "debug", "This flag sets the default logging level.")
	flag.Parse()

	logger := initLogger(*loglevelFlag)

	// Read configuration from file.
	conf, err := config.LoadConfig(*configFlag)
	if err != nil {
		level.Error(logger).Log(
			"msg", "failed to load the config",
			"err", err,
		)
		os.Exit(1)
	}

	// Overlay host-specific values from an .env file,
	// if one is present next to the binary.
	if _, err := os.Stat(".env"); err == nil {

		env, err := config.LoadEnv()
		if err != nil {
			level.Error(logger).Log(
				"msg", "failed to load the .env file",
				"err", err,
			)
			os.Exit(1)
		}

		env.Apply(conf)
	}

	verifier, err := initVerifier(conf)
	if err != nil {
		level.Error(logger).Log(
			"msg", "failed to initialize a credential verifier",
			"err", err,
		)
		os.Exit(1)
	}

	// Construct the shared stores every connection
	// goroutine operates on.
	identities := store.NewIdentityStore(verifier)
	sessions := store.NewSessionRegistry()
	mailboxes := store.NewMailboxStore()

	smailMetrics := NewSmailMetrics(conf.Server.PrometheusAddr)
	go runPromHTTP(logger, conf.Server.PrometheusAddr)

	// Assemble the service with logging and metrics
	// middlewares around the core handlers.
	svc := server.NewService(logger, identities, sessions, mailboxes)
	svc = server.NewLoggingService(svc, logger)
	svc = server.NewMetricsService(svc,
		smailMetrics.Server.Registrations,
		smailMetrics.Server.Logins,
		smailMetrics.Server.Logouts,
		smailMetrics.Server.SentEmails,
	)

	listener, err := net.Listen("tcp", conf.Server.ListenMailAddr)
	if err != nil {
		level.Error(logger).Log(
			"msg", "failed to open listener for mail clients",
			"err", errors.Wrap(err, "listen failed"),
		)
		os.Exit(1)
	}
	defer listener.Close()

	level.Info(logger).Log(
		"msg", "smail node listening for mail clients",
		"addr", conf.Server.ListenMailAddr,
	)

	// Loop on incoming requests.
	if err := server.New(logger, svc, sessions).Run(listener); err != nil {
		level.Error(logger).Log(
			"msg", "failed to run smail node",
			"err", err,
		)
		os.Exit(1)
	}
}
