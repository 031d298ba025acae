package config

import (
	"fmt"

	"github.com/BurntSushi/toml"
	"github.com/pkg/errors"
	"golang.org/x/crypto/bcrypt"
)

// Structs

// Config holds all information parsed from
// supplied config file.
type Config struct {
	Server Server
	Auth   Auth
}

// Server describes the network surface of a smail node:
// where it accepts mail clients and, optionally, where
// it exposes prometheus metrics.
type Server struct {
	ListenMailAddr string
	PrometheusAddr string
}

// Auth selects and parameterizes the credential verifier
// used by the identity store.
type Auth struct {
	Adapter    string
	BcryptCost int
}

// Functions

// LoadConfig takes in the path to the main config file of
// a smail node in TOML syntax and places the values from
// the file in the corresponding struct.
func LoadConfig(configFile string) (*Config, error) {

	conf := new(Config)

	// Parse values from TOML file into struct.
	_, err := toml.DecodeFile(configFile, conf)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to read in TOML config file at '%s'", configFile)
	}

	if conf.Server.ListenMailAddr == "" {
		return nil, fmt.Errorf("config at '%s' is missing a listen address for mail clients", configFile)
	}

	switch conf.Auth.Adapter {
	case "", "bcrypt":
		conf.Auth.Adapter = "bcrypt"
	case "plain":
		// Acceptable for development setups.
	default:
		return nil, fmt.Errorf("unknown auth adapter '%s', supported are 'bcrypt' and 'plain'", conf.Auth.Adapter)
	}

	if conf.Auth.BcryptCost == 0 {
		conf.Auth.BcryptCost = bcrypt.DefaultCost
	}

	return conf, nil
}
