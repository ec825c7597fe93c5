package config

import (
	"os"
	"time"

	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"
)

// Config is the top-level configuration for the backend process.
type Config struct {
	Server   ServerConfig   `yaml:"server"`
	Log      LogConfig      `yaml:"log"`
	Database DatabaseConfig `yaml:"database"`
	Auth     AuthConfig     `yaml:"auth"`
	Discord  DiscordConfig  `yaml:"discord"`
	Relay    RelayConfig    `yaml:"relay"`
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Addr       string `yaml:"addr"`        // listen address, e.g. ":3000"
	CORSOrigin string `yaml:"cors_origin"` // allowed origin for browser clients
}

// LogConfig holds logging settings.
type LogConfig struct {
	Level string `yaml:"level"` // debug, info, warn, error
}

// DatabaseConfig holds sqlite settings.
type DatabaseConfig struct {
	Path string `yaml:"path"` // sqlite file path, ":memory:" for tests
}

// AuthConfig holds token issuance settings.
type AuthConfig struct {
	JWTSecret string `yaml:"jwt_secret"`
	TokenTTL  string `yaml:"token_ttl"` // Go duration string (default: "24h")
}

// DiscordConfig holds Discord bot configuration.
type DiscordConfig struct {
	Token       string `yaml:"token"`
	ChannelID   string `yaml:"channel_id"`   // the single bound channel
	SendTimeout string `yaml:"send_timeout"` // Go duration string (default: "10s")
}

// RelayConfig holds websocket relay tuning.
type RelayConfig struct {
	SendBuffer     int    `yaml:"send_buffer"`      // per-session outbound buffer
	MaxMessageSize int64  `yaml:"max_message_size"` // inbound frame size limit
	ReadTimeout    string `yaml:"read_timeout"`     // pong wait (default: "60s")
	WriteTimeout   string `yaml:"write_timeout"`    // per-write deadline (default: "10s")
	PingInterval   string `yaml:"ping_interval"`    // must be < read_timeout (default: "30s")
}

// Load reads configuration from a YAML file, applies environment overrides,
// and validates required fields. A missing bot credential, channel id, or JWT
// secret is fatal: the process can never function without them.
func Load(path string) (*Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, errors.Wrapf(err, "failed to read config %s", path)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, errors.Wrap(err, "failed to parse config")
		}
	}

	applyEnvOverrides(cfg)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Default returns sensible defaults for everything but credentials.
func Default() *Config {
	return &Config{
		Server:   ServerConfig{Addr: ":3000", CORSOrigin: "*"},
		Log:      LogConfig{Level: "info"},
		Database: DatabaseConfig{Path: "./data/radarjoki.db"},
		Auth:     AuthConfig{TokenTTL: "24h"},
		Discord:  DiscordConfig{SendTimeout: "10s"},
		Relay: RelayConfig{
			SendBuffer:     256,
			MaxMessageSize: 4096,
			ReadTimeout:    "60s",
			WriteTimeout:   "10s",
			PingInterval:   "30s",
		},
	}
}

// Validate reports missing required settings.
func (c *Config) Validate() error {
	if c.Discord.Token == "" {
		return errors.New("discord token is required (config discord.token or BOT_TOKEN)")
	}
	if c.Discord.ChannelID == "" {
		return errors.New("discord channel id is required (config discord.channel_id or CHANNEL_ID)")
	}
	if c.Auth.JWTSecret == "" {
		return errors.New("jwt secret is required (config auth.jwt_secret or JWT_SECRET)")
	}
	return nil
}

func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv("BOT_TOKEN"); v != "" {
		cfg.Discord.Token = v
	}
	if v := os.Getenv("CHANNEL_ID"); v != "" {
		cfg.Discord.ChannelID = v
	}
	if v := os.Getenv("JWT_SECRET"); v != "" {
		cfg.Auth.JWTSecret = v
	}
	if v := os.Getenv("SERVER_ADDR"); v != "" {
		cfg.Server.Addr = v
	}
	if v := os.Getenv("DATABASE_PATH"); v != "" {
		cfg.Database.Path = v
	}
}

// Duration helpers parse the string fields, falling back to the given default
// on empty or malformed values rather than failing at the use site.

func (c AuthConfig) TokenTTLDuration() time.Duration {
	return parseDuration(c.TokenTTL, 24*time.Hour)
}

func (c DiscordConfig) SendTimeoutDuration() time.Duration {
	return parseDuration(c.SendTimeout, 10*time.Second)
}

func (c RelayConfig) ReadTimeoutDuration() time.Duration {
	return parseDuration(c.ReadTimeout, 60*time.Second)
}

func (c RelayConfig) WriteTimeoutDuration() time.Duration {
	return parseDuration(c.WriteTimeout, 10*time.Second)
}

func (c RelayConfig) PingIntervalDuration() time.Duration {
	return parseDuration(c.PingInterval, 30*time.Second)
}

func parseDuration(s string, fallback time.Duration) time.Duration {
	if s == "" {
		return fallback
	}
	d, err := time.ParseDuration(s)
	if err != nil || d <= 0 {
		return fallback
	}
	return d
}
