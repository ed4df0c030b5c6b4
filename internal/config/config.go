package config

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"github.com/mcoot/greenlight/internal/api"
	"github.com/mcoot/greenlight/internal/messaging"
	"github.com/mcoot/greenlight/internal/services/game"
	"github.com/mcoot/greenlight/internal/services/session"
	redisstorage "github.com/mcoot/greenlight/internal/storage/redis"
	"github.com/mcoot/greenlight/internal/web/ws"
)

// DefaultPath is read when GLGAME_CONFIG is unset. It is optional.
const DefaultPath = "config.yaml"

// Config is the complete server configuration
type Config struct {
	Server    api.ServerConfig `yaml:"server"`
	Storage   StorageConfig    `yaml:"storage"`
	Game      game.Config      `yaml:"game"`
	Sessions  session.Config   `yaml:"sessions"`
	NATS      messaging.Config `yaml:"nats"`
	WebSocket ws.Config        `yaml:"websocket"`
	Log       LogConfig        `yaml:"log"`
	CORS      CORSConfig       `yaml:"cors"`
}

// StorageConfig selects and configures the leaderboard backend
type StorageConfig struct {
	Type  string              `yaml:"type"` // "memory" (default) or "redis"
	Redis redisstorage.Config `yaml:"redis"`
}

// LogConfig controls structured logging
type LogConfig struct {
	Level string `yaml:"level"`
}

// CORSConfig lists the origins allowed to call the JSON API
type CORSConfig struct {
	AllowedOrigins []string `yaml:"allowed_origins"`
}

// Default returns the configuration used when nothing is overridden
func Default() Config {
	return Config{
		Server: api.DefaultServerConfig(),
		Storage: StorageConfig{
			Type:  "memory",
			Redis: redisstorage.DefaultConfig(),
		},
		Game:      game.DefaultConfig(),
		Sessions:  session.DefaultConfig(),
		NATS:      messaging.DefaultConfig(),
		WebSocket: ws.DefaultConfig(),
		Log:       LogConfig{Level: "info"},
		CORS:      CORSConfig{AllowedOrigins: []string{"*"}},
	}
}

// Load builds the configuration from defaults, a YAML file, a .env file and
// the environment, in increasing order of precedence. An empty path means
// GLGAME_CONFIG, falling back to DefaultPath; only an explicit path must exist.
func Load(path string) (Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return Config{}, fmt.Errorf("failed to load .env: %w", err)
	}

	required := path != ""
	if path == "" {
		path = os.Getenv("GLGAME_CONFIG")
		required = path != ""
	}
	if path == "" {
		path = DefaultPath
	}

	cfg := Default()
	if err := loadFile(path, &cfg); err != nil {
		if required || !errors.Is(err, fs.ErrNotExist) {
			return Config{}, err
		}
	}

	if err := applyEnv(&cfg); err != nil {
		return Config{}, err
	}
	return cfg, cfg.Validate()
}

func loadFile(path string, cfg *Config) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read config file: %w", err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return fmt.Errorf("failed to parse config: %w", err)
	}
	return nil
}

func applyEnv(cfg *Config) error {
	if v := os.Getenv("PORT"); v != "" {
		port, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("invalid PORT %q: %w", v, err)
		}
		cfg.Server.Port = port
	}
	cfg.Storage.Type = getEnv("STORAGE_TYPE", cfg.Storage.Type)
	cfg.Storage.Redis.URL = getEnv("REDIS_URL", cfg.Storage.Redis.URL)
	cfg.NATS.URL = getEnv("NATS_URL", cfg.NATS.URL)
	cfg.Log.Level = getEnv("LOG_LEVEL", cfg.Log.Level)
	if v := os.Getenv("CORS_ORIGINS"); v != "" {
		cfg.CORS.AllowedOrigins = splitList(v)
	}
	return nil
}

// Validate checks values that would otherwise fail later at startup
func (c Config) Validate() error {
	switch c.Storage.Type {
	case "memory", "redis":
	default:
		return fmt.Errorf("unknown storage type %q", c.Storage.Type)
	}
	if c.Storage.Type == "redis" && c.Storage.Redis.URL == "" {
		return errors.New("redis url required when storage type is redis")
	}
	if c.Game.Clock.SignalInterval <= 0 || c.Game.Clock.CountdownInterval <= 0 {
		return errors.New("game clock intervals must be positive")
	}
	if c.Sessions.IdleTimeout <= 0 || c.Sessions.ReapInterval <= 0 {
		return errors.New("session idle timeout and reap interval must be positive")
	}
	if _, err := ParseLevel(c.Log.Level); err != nil {
		return err
	}
	return nil
}

// SlogLevel returns the configured log level
func (c Config) SlogLevel() slog.Level {
	level, _ := ParseLevel(c.Log.Level)
	return level
}

// ParseLevel maps a level name onto slog levels
func ParseLevel(s string) (slog.Level, error) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(strings.TrimSpace(s))); err != nil {
		return slog.LevelInfo, fmt.Errorf("invalid log level %q: %w", s, err)
	}
	return level, nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
