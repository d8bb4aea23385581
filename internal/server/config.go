// Package server provides configuration helpers that define runtime defaults
// and validation for the chat hub.
package server

import (
	"fmt"
	"log/slog"
	"strings"
	"sync"

	"github.com/Netflix/go-env"
	"github.com/joho/godotenv"
)

const (
	defaultPort           = ":8080"
	defaultOrigin         = "http://localhost:8080"
	defaultMaxMessageSize = 4096
	defaultLogLevel       = "INFO"
	defaultCensorChar     = '*'
)

// Config holds the server configuration settings including security controls.
type Config struct {
	Port           string
	AllowedOrigins []string
	MaxMessageSize int64
	LogLevel       string
	// CensoredWords enables body moderation when non-empty.
	CensoredWords []string
	CensorChar    rune
	// StaticDir overrides the embedded chat page when set.
	StaticDir string
}

// environment is the raw shape read from the process environment.
type environment struct {
	Port           string `env:"SERVER_PORT,default=:8080"`
	AllowedOrigins string `env:"ALLOWED_ORIGINS,default=http://localhost:8080"`
	MaxMessageSize int64  `env:"MAX_MESSAGE_SIZE,default=4096"`
	LogLevel       string `env:"LOG_LEVEL,default=INFO"`
	CensoredWords  string `env:"CENSORED_WORDS"`
	CensorChar     string `env:"CENSOR_CHAR,default=*"`
	StaticDir      string `env:"STATIC_DIR"`
}

var (
	configMu        sync.RWMutex
	activeConfig    Config
	allowedOrigins  map[string]struct{}
	allowAllOrigins bool
)

func init() {
	SetConfig(nil)
}

func defaultConfig() Config {
	return Config{
		Port:           defaultPort,
		AllowedOrigins: []string{defaultOrigin},
		MaxMessageSize: defaultMaxMessageSize,
		LogLevel:       defaultLogLevel,
		CensorChar:     defaultCensorChar,
	}
}

func sanitizeConfig(cfg Config) Config {
	if cfg.Port == "" {
		cfg.Port = defaultPort
	}

	if cfg.MaxMessageSize <= 0 {
		cfg.MaxMessageSize = defaultMaxMessageSize
	}

	if cfg.LogLevel == "" {
		cfg.LogLevel = defaultLogLevel
	}

	if cfg.CensorChar == 0 {
		cfg.CensorChar = defaultCensorChar
	}

	normalizedOrigins, allowAll, rejected := normalizeOrigins(cfg.AllowedOrigins)
	cfg.AllowedOrigins = normalizedOrigins
	if len(rejected) > 0 {
		slog.Warn("Ignoring invalid origins in configuration", "origins", rejected)
	}

	configMu.Lock()
	defer configMu.Unlock()

	activeConfig = cfg
	allowAllOrigins = allowAll
	allowedOrigins = make(map[string]struct{}, len(normalizedOrigins))
	for _, origin := range normalizedOrigins {
		allowedOrigins[origin] = struct{}{}
	}

	return cfg
}

// SetConfig applies the provided configuration. Passing nil resets to defaults.
func SetConfig(cfg *Config) {
	if cfg == nil {
		sanitizeConfig(defaultConfig())
		return
	}

	sanitized := *cfg
	sanitized.AllowedOrigins = append([]string(nil), cfg.AllowedOrigins...)
	sanitized.CensoredWords = append([]string(nil), cfg.CensoredWords...)
	sanitizeConfig(sanitized)
}

func currentConfig() Config {
	configMu.RLock()
	defer configMu.RUnlock()

	cfg := activeConfig
	cfg.AllowedOrigins = append([]string(nil), cfg.AllowedOrigins...)
	cfg.CensoredWords = append([]string(nil), cfg.CensoredWords...)
	return cfg
}

// NewConfig creates a Config instance populated with default values for all settings.
func NewConfig() *Config {
	cfg := defaultConfig()
	return &cfg
}

// LoadConfig reads an optional .env file and then the process environment.
// Unset variables keep their defaults.
func LoadConfig() (*Config, error) {
	_ = godotenv.Load()

	var raw environment
	if _, err := env.UnmarshalFromEnviron(&raw); err != nil {
		return nil, fmt.Errorf("config error: %w", err)
	}

	cfg := &Config{
		Port:           raw.Port,
		AllowedOrigins: parseList(raw.AllowedOrigins),
		MaxMessageSize: raw.MaxMessageSize,
		LogLevel:       raw.LogLevel,
		CensoredWords:  parseList(raw.CensoredWords),
		StaticDir:      raw.StaticDir,
	}

	mask, err := parseCensorChar(raw.CensorChar)
	if err != nil {
		return nil, err
	}
	cfg.CensorChar = mask

	return cfg, nil
}

func parseList(value string) []string {
	if strings.TrimSpace(value) == "" {
		return nil
	}
	parts := strings.Split(value, ",")
	for i := range parts {
		parts[i] = strings.TrimSpace(parts[i])
	}
	return parts
}

func parseCensorChar(value string) (rune, error) {
	r := []rune(value)
	if len(r) != 1 {
		return 0, fmt.Errorf("CENSOR_CHAR must be a single character, got %q", value)
	}
	return r[0], nil
}
