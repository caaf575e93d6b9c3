package config

import (
	"fmt"
	"time"

	"github.com/ilyakaznacheev/cleanenv"
)

type Config struct {
	LogLevel   string `yaml:"log-level" env-default:"info"`
	HTTPPort   string `yaml:"http-port" env-default:"9090"`
	SocketPort string `yaml:"socket-port" env-default:"8000"`

	// PublicURL is the websocket URL spawned bots connect back to. Leave it
	// empty to derive a localhost URL from the socket port.
	PublicURL string `yaml:"public-url" env-default:""`

	TickRate time.Duration `yaml:"tick-rate" env-default:"150ms"`

	Bot Bot `yaml:"bot"`
}

type Bot struct {
	Command string `yaml:"command" env-default:"copperbot"`
}

// MustLoad - load all configurations in config.yml file.
func MustLoad(path string) *Config {
	config := &Config{}

	if err := cleanenv.ReadConfig(path, config); err != nil {
		panic(fmt.Errorf("unable to load config file: %w", err))
	}

	return config
}

// GetServerURL returns the externally reachable websocket URL handed to
// spawned bot processes.
func (that *Config) GetServerURL() string {
	if that.PublicURL != "" {
		return that.PublicURL
	}

	return fmt.Sprintf("ws://localhost:%s/ws/", that.SocketPort)
}
