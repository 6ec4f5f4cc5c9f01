package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"
)

const (
	defaultListenAddr      = ":3001"
	defaultUploadsSubdir   = "uploads"
	defaultMaxChunkBytes   = 64 << 20
	defaultStagingTTL      = 24 * time.Hour
	defaultJanitorInterval = 30 * time.Minute
	defaultRedisChannel    = "flowai:chunks"
)

type Config struct {
	ListenAddr  string   `yaml:"listen_addr" json:"listen_addr" validate:"required"`
	UploadsDir  string   `yaml:"uploads_dir" json:"uploads_dir" validate:"required"`
	CORSOrigins []string `yaml:"cors_allowed_origins" json:"cors_allowed_origins"`

	MaxChunkBytes           int64  `yaml:"max_chunk_bytes" json:"max_chunk_bytes" validate:"gte=0"`
	DuplicatePolicy         string `yaml:"duplicate_policy" json:"duplicate_policy" validate:"omitempty,oneof=overwrite reject version"`
	MaxConcurrentPlacements int    `yaml:"max_concurrent_placements" json:"max_concurrent_placements" validate:"gte=0"`

	StagingTTL      time.Duration `yaml:"staging_ttl" json:"staging_ttl" validate:"gt=0"`
	JanitorInterval time.Duration `yaml:"janitor_interval" json:"janitor_interval" validate:"gte=0"`

	JournalDSN   string `yaml:"journal_dsn" json:"-"`
	RedisAddr    string `yaml:"redis_addr" json:"redis_addr" validate:"omitempty,hostname_port"`
	RedisChannel string `yaml:"redis_channel" json:"redis_channel"`

	LogLevel  string `yaml:"log_level" json:"log_level" validate:"omitempty,oneof=trace debug info warn warning error fatal panic"`
	LogFormat string `yaml:"log_format" json:"log_format" validate:"omitempty,oneof=text json"`
}

// Default возвращает конфигурацию по умолчанию: порт 3001 и ./uploads в рабочем каталоге.
func Default() *Config {
	wd, err := os.Getwd()
	if err != nil {
		wd = "."
	}

	return &Config{
		ListenAddr:      defaultListenAddr,
		UploadsDir:      filepath.Join(wd, defaultUploadsSubdir),
		CORSOrigins:     []string{"*"},
		MaxChunkBytes:   defaultMaxChunkBytes,
		DuplicatePolicy: "overwrite",
		StagingTTL:      defaultStagingTTL,
		JanitorInterval: defaultJanitorInterval,
		RedisChannel:    defaultRedisChannel,
		LogLevel:        "info",
		LogFormat:       "text",
	}
}

// Load читает YAML-конфигурацию, применяет ENV-переопределения и возвращает актуальную структуру.
// Отсутствующий файл не ошибка: используются значения по умолчанию.
func Load() (*Config, error) {
	c := Default()

	path := getenv("CONFIG_PATH", "./config.yaml")
	b, err := os.ReadFile(path)
	switch {
	case err == nil:
		if err := yaml.Unmarshal(b, c); err != nil {
			return nil, fmt.Errorf("parse config %s: %w", path, err)
		}
	case errors.Is(err, fs.ErrNotExist):
	default:
		return nil, fmt.Errorf("read config %s: %w", path, err)
	}

	if err := c.applyEnv(); err != nil {
		return nil, err
	}

	if err := c.Validate(); err != nil {
		return nil, err
	}

	return c, nil
}

// ENV override
func (c *Config) applyEnv() error {
	if v := os.Getenv("LISTEN_ADDR"); v != "" {
		c.ListenAddr = v
	}
	if v := os.Getenv("UPLOADS_DIR"); v != "" {
		c.UploadsDir = v
	}
	if v := os.Getenv("CORS_ALLOWED_ORIGINS"); v != "" {
		c.CORSOrigins = splitComma(v)
	}
	if v := os.Getenv("DUPLICATE_POLICY"); v != "" {
		c.DuplicatePolicy = v
	}
	if v := os.Getenv("JOURNAL_DSN"); v != "" {
		c.JournalDSN = v
	}
	if v := os.Getenv("REDIS_ADDR"); v != "" {
		c.RedisAddr = v
	}
	if v := os.Getenv("REDIS_CHANNEL"); v != "" {
		c.RedisChannel = v
	}
	if v := os.Getenv("LOG_LEVEL"); v != "" {
		c.LogLevel = v
	}
	if v := os.Getenv("LOG_FORMAT"); v != "" {
		c.LogFormat = v
	}

	if v := os.Getenv("MAX_CHUNK_BYTES"); v != "" {
		n, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			return fmt.Errorf("MAX_CHUNK_BYTES: %w", err)
		}
		c.MaxChunkBytes = n
	}
	if v := os.Getenv("MAX_CONCURRENT_PLACEMENTS"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("MAX_CONCURRENT_PLACEMENTS: %w", err)
		}
		c.MaxConcurrentPlacements = n
	}
	if v := os.Getenv("STAGING_TTL"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("STAGING_TTL: %w", err)
		}
		c.StagingTTL = d
	}
	if v := os.Getenv("JANITOR_INTERVAL"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("JANITOR_INTERVAL: %w", err)
		}
		c.JanitorInterval = d
	}

	return nil
}

// Validate проверяет значения по тегам validate.
func (c *Config) Validate() error {
	c.DuplicatePolicy = strings.ToLower(strings.TrimSpace(c.DuplicatePolicy))
	c.LogLevel = strings.ToLower(strings.TrimSpace(c.LogLevel))

	if err := validator.New().Struct(c); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}
	return nil
}

func splitComma(s string) []string {
	var out []string
	for _, p := range strings.Split(s, ",") {
		p = strings.TrimSpace(p)
		if p != "" {
			out = append(out, p)
		}
	}

	return out
}

func getenv(k, def string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}

	return def
}
