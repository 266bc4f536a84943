package config

import (
	"errors"
	"fmt"
	"time"

	"github.com/adrg/xdg"
	"github.com/ilyakaznacheev/cleanenv"
)

// relPath is the config file looked up under the XDG config directories.
const relPath = "tictactoe/config.yml"

// Config is the settings shared by both binaries. Each field reads a YAML key
// and can be overridden by the environment variable in its env tag.
type Config struct {
	LogLevel  string `yaml:"log-level" env:"LOG_LEVEL" env-default:"info"`
	LogFormat string `yaml:"log-format" env:"LOG_FORMAT" env-default:"console"`
	HTTP      HTTP   `yaml:"http"`
	Events    Events `yaml:"events"`
	TUI       TUI    `yaml:"tui"`
}

// HTTP configures the web server.
type HTTP struct {
	Addr           string        `yaml:"addr" env:"HTTP_ADDR" env-default:":8080"`
	RequestTimeout time.Duration `yaml:"request-timeout" env:"HTTP_REQUEST_TIMEOUT" env-default:"10s"`
}

// Events configures the server-sent event stream. Heartbeat is the interval
// between keep-alive comments on an idle stream.
type Events struct {
	Heartbeat time.Duration `yaml:"heartbeat" env:"EVENTS_HEARTBEAT" env-default:"15s"`
}

// TUI configures the terminal client.
type TUI struct {
	// LogFile receives the terminal client's log; empty discards it.
	LogFile string `yaml:"log-file" env:"TUI_LOG_FILE" env-default:""`
}

// Load reads path, or the XDG config file when path is empty, and applies
// environment overrides. Without any file only the environment is used.
func Load(path string) (*Config, error) {
	conf := &Config{}

	if path == "" {
		found, err := xdg.SearchConfigFile(relPath)
		if err == nil {
			path = found
		}
	}

	if path == "" {
		if err := cleanenv.ReadEnv(conf); err != nil {
			return nil, fmt.Errorf("unable to read config from env: %w", err)
		}
	} else if err := cleanenv.ReadConfig(path, conf); err != nil {
		return nil, fmt.Errorf("unable to load config file %s: %w", path, err)
	}

	if err := conf.validate(); err != nil {
		return nil, err
	}
	return conf, nil
}

// MustLoad is Load that panics on error.
func MustLoad(path string) *Config {
	conf, err := Load(path)
	if err != nil {
		panic(err)
	}
	return conf
}

// Validation errors returned by Load.
var (
	ErrNoAddr       = errors.New("http addr is empty")
	ErrBadHeartbeat = errors.New("events heartbeat must be positive")
)

func (c *Config) validate() error {
	if c.HTTP.Addr == "" {
		return ErrNoAddr
	}
	if c.Events.Heartbeat <= 0 {
		return ErrBadHeartbeat
	}
	return nil
}
