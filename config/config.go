// Package config reads the server settings from the environment, optionally
// preloaded from a .env file.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/pixil98/go-errors"
)

const (
	defaultListenAddr   = ":5000"
	defaultMaxPlayers   = 8
	defaultPingInterval = 30 * time.Second
	minPlayers          = 2
	maxPlayers          = 32
)

type Config struct {
	AllowedOrigins []string
	ListenAddr     string
	// PostgresURL is optional; the built-in subject list is used without it.
	PostgresURL  string
	MaxPlayers   int
	PingInterval time.Duration
	LogLevel     string
	LogFormat    string
	MDNSEnabled  bool
	MDNSInstance string
}

// Load reads the given env files (".env" when none is given) and then the
// process environment. Missing env files are fine. Variables already set win
// over the files.
func Load(envFiles ...string) (Config, error) {
	if err := godotenv.Load(envFiles...); err != nil && !os.IsNotExist(err) {
		return Config{}, fmt.Errorf("loading env file: %w", err)
	}
	return FromLookup(os.LookupEnv)
}

// FromLookup builds and validates a Config from lookup, reporting every
// problem at once.
func FromLookup(lookup func(string) (string, bool)) (Config, error) {
	el := errors.NewErrorList()
	get := func(key, def string) string {
		if v, ok := lookup(key); ok && strings.TrimSpace(v) != "" {
			return strings.TrimSpace(v)
		}
		return def
	}

	c := Config{
		ListenAddr:   get("LISTEN_ADDR", defaultListenAddr),
		PostgresURL:  get("POSTGRES_URL", ""),
		MaxPlayers:   defaultMaxPlayers,
		PingInterval: defaultPingInterval,
		LogLevel:     strings.ToLower(get("LOG_LEVEL", "info")),
		LogFormat:    strings.ToLower(get("LOG_FORMAT", "json")),
		MDNSInstance: get("MDNS_INSTANCE", ""),
	}

	for _, origin := range strings.Split(get("ALLOWED_ORIGINS", ""), ",") {
		if origin = strings.TrimSpace(origin); origin != "" {
			c.AllowedOrigins = append(c.AllowedOrigins, origin)
		}
	}
	if len(c.AllowedOrigins) == 0 {
		el.Add(fmt.Errorf("ALLOWED_ORIGINS must list at least one origin"))
	}

	if v := get("MAX_PLAYERS", ""); v != "" {
		n, err := strconv.Atoi(v)
		switch {
		case err != nil:
			el.Add(fmt.Errorf("MAX_PLAYERS: %w", err))
		case n < minPlayers || n > maxPlayers:
			el.Add(fmt.Errorf("MAX_PLAYERS must be between %d and %d", minPlayers, maxPlayers))
		default:
			c.MaxPlayers = n
		}
	}

	if v := get("PING_INTERVAL", ""); v != "" {
		d, err := time.ParseDuration(v)
		switch {
		case err != nil:
			el.Add(fmt.Errorf("PING_INTERVAL: %w", err))
		case d < time.Second:
			el.Add(fmt.Errorf("PING_INTERVAL must be at least 1s"))
		default:
			c.PingInterval = d
		}
	}

	if v := get("MDNS_ENABLED", ""); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			el.Add(fmt.Errorf("MDNS_ENABLED: %w", err))
		}
		c.MDNSEnabled = b
	}

	if c.LogFormat != "json" && c.LogFormat != "console" {
		el.Add(fmt.Errorf("LOG_FORMAT must be json or console, got %q", c.LogFormat))
	}

	if err := el.Err(); err != nil {
		return Config{}, err
	}
	return c, nil
}

// Port returns the numeric port of ListenAddr.
func (c Config) Port() (int, error) {
	i := strings.LastIndex(c.ListenAddr, ":")
	if i == -1 {
		return 0, fmt.Errorf("listen address %q has no port", c.ListenAddr)
	}
	return strconv.Atoi(c.ListenAddr[i+1:])
}
