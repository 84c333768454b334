package config

import (
	"fmt"
	"log/slog"
	"strings"

	"github.com/caarlos0/env/v11"
)

// Env holds settings read from the environment. Command-line flags take
// precedence over these.
type Env struct {
	DB        string `env:"RAFFLE_DB"        envDefault:"raffle.db"`
	Principal string `env:"RAFFLE_PRINCIPAL" envDefault:"default"`
	LogLevel  string `env:"RAFFLE_LOG_LEVEL" envDefault:"warn"`
}

// ParseEnv loads configuration from environment variables.
func ParseEnv(target any) error {
	if err := env.Parse(target); err != nil {
		return fmt.Errorf("parse env: %w", err)
	}
	return nil
}

// LoadEnv returns the environment settings with defaults applied.
func LoadEnv() (Env, error) {
	var e Env
	if err := ParseEnv(&e); err != nil {
		return Env{}, err
	}
	return e, nil
}

// Level parses LogLevel. Unknown values fall back to warn.
func (e Env) Level() slog.Level {
	var l slog.Level
	if err := l.UnmarshalText([]byte(strings.TrimSpace(e.LogLevel))); err != nil {
		return slog.LevelWarn
	}
	return l
}
