package config

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
)

// Structs

// Env holds information specific to the system where a
// smail node is deployed. This enables host adaptions
// without needing to maintain two different config files.
type Env struct {
	ListenMailAddr string
	PrometheusAddr string
}

// Functions

// LoadEnv looks for an .env file in the directory of the
// smail node and reads in all defined values.
func LoadEnv() (*Env, error) {

	// Load environment file.
	err := godotenv.Load(".env")
	if err != nil {
		return nil, fmt.Errorf("failed to read in .env file with: %v", err)
	}

	env := new(Env)

	// Fill variables from .env into struct.
	env.ListenMailAddr = os.Getenv("SMAIL_LISTEN_MAIL_ADDR")
	env.PrometheusAddr = os.Getenv("SMAIL_PROMETHEUS_ADDR")

	return env, nil
}

// Apply overlays the values taken from the environment
// onto an already loaded config. Empty values leave the
// config untouched.
func (env *Env) Apply(conf *Config) {

	if env.ListenMailAddr != "" {
		conf.Server.ListenMailAddr = env.ListenMailAddr
	}

	if env.PrometheusAddr != "" {
		conf.Server.PrometheusAddr = env.PrometheusAddr
	}
}
