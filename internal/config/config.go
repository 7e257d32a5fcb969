package config

import (
	"errors"
	"fmt"
	"io/fs"
	"time"

	"duet/internal/logging"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
)

type Config struct {
	DBFile           string        `envconfig:"DUET_DB" default:"duet.db"`
	AdminAddr        string        `envconfig:"ADMIN_ADDR" default:"localhost:8081"`
	APIAddr          string        `envconfig:"API_ADDR" default:":8080"`
	BaseURL          string        `envconfig:"BASE_URL" default:"http://localhost:8080"`
	AuthSecret       string        `envconfig:"AUTH_SECRET"`
	TokenExpiry      time.Duration `envconfig:"TOKEN_EXPIRY" default:"24h"`
	VerifyCacheTTL   time.Duration `envconfig:"VERIFY_CACHE_TTL" default:"1m"`
	AllowedOrigins   []string      `envconfig:"ALLOWED_ORIGINS"`
	SessionBuffer    int           `envconfig:"SESSION_BUFFER" default:"100"`
	MaxFrameSize     int64         `envconfig:"MAX_FRAME_SIZE" default:"65536"`
	MaxContentLength int           `envconfig:"MAX_CONTENT_LENGTH" default:"4096"`
	PingInterval     time.Duration `envconfig:"PING_INTERVAL" default:"30s"`
	LogLevel         string        `envconfig:"LOG_LEVEL" default:"info"`
	LogFormat        string        `envconfig:"LOG_FORMAT" default:"text"`
}

// Load reads an optional .env file and then the process environment.
// In CLI mode the auth secret is not needed.
func Load(cliMode bool) (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("failed to load .env: %w", err)
	}

	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, err
	}

	// Browsers send the token cookie cross-site, so only the service's own
	// origin may open a websocket unless origins are listed explicitly.
	if len(cfg.AllowedOrigins) == 0 {
		cfg.AllowedOrigins = []string{cfg.BaseURL}
	}

	if err := cfg.Validate(cliMode); err != nil {
		return nil, err
	}

	return &cfg, nil
}

func (c *Config) Validate(cliMode bool) error {
	if c.AuthSecret == "" && !cliMode {
		return fmt.Errorf("AUTH_SECRET is required")
	}

	if c.TokenExpiry <= 0 {
		return fmt.Errorf("TOKEN_EXPIRY must be greater than 0")
	}

	if c.VerifyCacheTTL < 0 {
		return fmt.Errorf("VERIFY_CACHE_TTL must not be negative")
	}

	if c.SessionBuffer <= 0 {
		return fmt.Errorf("SESSION_BUFFER must be greater than 0")
	}

	if c.MaxFrameSize <= 0 {
		return fmt.Errorf("MAX_FRAME_SIZE must be greater than 0")
	}

	if c.MaxContentLength <= 0 {
		return fmt.Errorf("MAX_CONTENT_LENGTH must be greater than 0")
	}

	if c.PingInterval <= 0 {
		return fmt.Errorf("PING_INTERVAL must be greater than 0")
	}

	return logging.Validate(c.LogLevel)
}
