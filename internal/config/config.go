package config

import (
	"errors"
	"time"
)

// Config holds server configuration values.
type Config struct {
	Addr              string        `mapstructure:"addr" yaml:"addr"`
	ReadHeaderTimeout time.Duration `mapstructure:"read_header_timeout" yaml:"read_header_timeout"`
	ShutdownTimeout   time.Duration `mapstructure:"shutdown_timeout" yaml:"shutdown_timeout"`
	LogLevel          string        `mapstructure:"log_level" yaml:"log_level"`

	MongoURI      string `mapstructure:"mongo_uri" yaml:"mongo_uri"`
	MongoDatabase string `mapstructure:"mongo_database" yaml:"mongo_database"`

	JWTSecret   string        `mapstructure:"jwt_secret" yaml:"jwt_secret"`
	JWTIssuer   string        `mapstructure:"jwt_issuer" yaml:"jwt_issuer"`
	JWTAudience string        `mapstructure:"jwt_audience" yaml:"jwt_audience"`
	JWTTTL      time.Duration `mapstructure:"jwt_ttl" yaml:"jwt_ttl"`

	// PresenceBackend selects where the online-user registry lives:
	// "memory" for single-instance deployments, "redis" to share
	// presence across instances.
	PresenceBackend string `mapstructure:"presence_backend" yaml:"presence_backend"`
	RedisAddr       string `mapstructure:"redis_addr" yaml:"redis_addr"`

	// WSMessageRateLimit caps inbound socket events per connection per
	// minute. Zero disables the limit.
	WSMessageRateLimit int `mapstructure:"ws_message_rate_limit" yaml:"ws_message_rate_limit"`
}

// Default returns configuration with reasonable starter defaults.
func Default() Config {
	return Config{
		Addr:               ":8080",
		ReadHeaderTimeout:  5 * time.Second,
		ShutdownTimeout:    5 * time.Second,
		LogLevel:           "info",
		MongoURI:           "mongodb://localhost:27017",
		MongoDatabase:      "pairline",
		JWTIssuer:          "pairline",
		JWTAudience:        "pairline-clients",
		JWTTTL:             24 * time.Hour,
		PresenceBackend:    "memory",
		RedisAddr:          "localhost:6379",
		WSMessageRateLimit: 240,
	}
}

// Validate checks the configuration the server cannot start without.
// Missing required configuration is the only fatal condition.
func (c *Config) Validate() error {
	if c.JWTSecret == "" {
		return errors.New("jwt_secret is required")
	}
	if c.MongoURI == "" {
		return errors.New("mongo_uri is required")
	}
	switch c.PresenceBackend {
	case "memory", "redis":
	default:
		return errors.New("presence_backend must be memory or redis")
	}
	return nil
}
