package config

import (
	"encoding/base64"
	"errors"
	"time"

	"github.com/ilyakaznacheev/cleanenv"
)

type Config struct {
	HostPort      string `env:"HOST_PORT" env-default:"8080"`
	DevMode       bool   `env:"DEV_MODE" env-default:"false"`
	RedisEndpoint string `env:"REDIS_ENDPOINT" env-default:"localhost:6379"`

	// Base64-encoded HMAC secret for guest session tokens.
	JWTSecretB64 string `env:"JWT_SECRET" env-required:"true"`

	// Drawing-state limits and reclamation policy.
	MaxRoomStrokes  int           `env:"MAX_ROOM_STROKES" env-default:"10000"`
	RoomIdleWindow  time.Duration `env:"ROOM_IDLE_WINDOW" env-default:"24h"`
	JanitorInterval time.Duration `env:"JANITOR_INTERVAL" env-default:"10m"`

	// Per-connection websocket message rate limit.
	MessagesPerSecond float64 `env:"WS_MESSAGES_PER_SECOND" env-default:"60"`
	MessageBurst      int     `env:"WS_MESSAGE_BURST" env-default:"120"`

	AllowedOrigin string `env:"ALLOWED_ORIGIN" env-default:""`
}

func Load() (*Config, error) {
	var cfg Config
	if err := cleanenv.ReadEnv(&cfg); err != nil {
		return nil, err
	}
	if cfg.MaxRoomStrokes <= 0 {
		return nil, errors.New("MAX_ROOM_STROKES must be positive")
	}
	return &cfg, nil
}

func (c *Config) JWTSecret() ([]byte, error) {
	secret, err := base64.StdEncoding.DecodeString(c.JWTSecretB64)
	if err != nil {
		return nil, errors.New("JWT_SECRET is not valid base64")
	}
	if len(secret) == 0 {
		return nil, errors.New("JWT_SECRET is empty")
	}
	return secret, nil
}
