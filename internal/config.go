package internal

import (
	"fmt"
	"time"

	"github.com/Netflix/go-env"
	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
)

type Config struct {
	LogLevel string `env:"LOG_LEVEL,default=INFO"`

	Host      string `env:"HOST,default=0.0.0.0"`
	Port      int    `env:"PORT,default=8080" validate:"gt=0,lte=65535"`
	DebugPort int    `env:"DEBUG_PORT,default=8081" validate:"gt=0,lte=65535,nefield=Port"`

	EventBufferSize int   `env:"EVENT_BUFFER_SIZE,default=256" validate:"gt=0"`
	SendBufferSize  int   `env:"SEND_BUFFER_SIZE,default=64" validate:"gt=0"`
	MaxMessageSize  int64 `env:"MAX_MESSAGE_SIZE,default=65536" validate:"gt=0"`

	WriteTimeout    time.Duration `env:"WRITE_TIMEOUT,default=10s" validate:"gt=0"`
	PongTimeout     time.Duration `env:"PONG_TIMEOUT,default=60s" validate:"gt=0"`
	MetricInterval  time.Duration `env:"METRIC_INTERVAL,default=30s" validate:"gt=0"`
	RestartInterval time.Duration `env:"RESTART_INTERVAL,default=200ms" validate:"gt=0"`
}

// LoadConfig reads the environment (a local .env first, best effort),
// unmarshals and validates the configuration.
func LoadConfig() (Config, error) {
	_ = godotenv.Load()

	var config Config
	if _, err := env.UnmarshalFromEnviron(&config); err != nil {
		return Config{}, fmt.Errorf("config error: %w", err)
	}
	if err := validator.New().Struct(config); err != nil {
		return Config{}, fmt.Errorf("config validation: %w", err)
	}
	return config, nil
}
