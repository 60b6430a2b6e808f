package models

import (
	"errors"
	"fmt"
	"os"

	"github.com/docker/go-units"
	"gopkg.in/yaml.v2"
)

// ErrConfiguration marks a missing or invalid display profile or setting.
var ErrConfiguration = errors.New("configuration error")

const (
	defaultServerAddr     = ":8080"
	defaultStoragePath    = "static/uploads"
	defaultMaxUploadSize  = "2MB"
	defaultMaxImagePixels = 89478485
	defaultUploadWorkers  = 4
	defaultKafkaTopic     = "artifacts"
)

type Config struct {
	ServerAddr    string `yaml:"server_addr"`
	DatabaseURL   string `yaml:"database_url"`
	KafkaBroker   string `yaml:"kafka_broker"`
	KafkaTopic    string `yaml:"kafka_topic"`
	StoragePath   string `yaml:"storage_path"`
	MaxUploadSize string `yaml:"max_upload_size"`
	// MaxImagePixels caps width*height of a decoded image, checked from the
	// header before any pixels are allocated.
	MaxImagePixels int64            `yaml:"max_image_pixels"`
	UploadWorkers  int              `yaml:"upload_workers"`
	LogLevel       string           `yaml:"log_level"`
	Displays       []DisplayProfile `yaml:"displays"`

	maxUploadBytes int64
}

func LoadConfig(path string) (*Config, error) {
	const op = "models.LoadConfig"

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("%s: %v", op, err)
	}
	return ParseConfig(data)
}

// ParseConfig decodes YAML, applies environment overrides and defaults, and
// validates the result.
func ParseConfig(data []byte) (*Config, error) {
	const op = "models.ParseConfig"

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("%s: %v", op, err)
	}
	cfg.loadEnv()
	cfg.loadDefaults()
	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return &cfg, nil
}

func (c *Config) loadEnv() {
	if v := os.Getenv("DATABASE_URL"); v != "" {
		c.DatabaseURL = v
	}
	if v := os.Getenv("STORAGE_PATH"); v != "" {
		c.StoragePath = v
	}
	if v := os.Getenv("LOG_LEVEL"); v != "" {
		c.LogLevel = v
	}
}

func (c *Config) loadDefaults() {
	if c.ServerAddr == "" {
		c.ServerAddr = defaultServerAddr
	}
	if c.StoragePath == "" {
		c.StoragePath = defaultStoragePath
	}
	if c.MaxUploadSize == "" {
		c.MaxUploadSize = defaultMaxUploadSize
	}
	if c.MaxImagePixels == 0 {
		c.MaxImagePixels = defaultMaxImagePixels
	}
	if c.UploadWorkers <= 0 {
		c.UploadWorkers = defaultUploadWorkers
	}
	if c.KafkaTopic == "" {
		c.KafkaTopic = defaultKafkaTopic
	}
}

func (c *Config) validate() error {
	size, err := units.FromHumanSize(c.MaxUploadSize)
	if err != nil {
		return fmt.Errorf("%w: invalid max_upload_size: %v", ErrConfiguration, err)
	}
	if size <= 0 {
		return fmt.Errorf("%w: max_upload_size must be positive", ErrConfiguration)
	}
	c.maxUploadBytes = size

	if c.MaxImagePixels < 0 {
		return fmt.Errorf("%w: max_image_pixels must be positive", ErrConfiguration)
	}

	for _, d := range c.Displays {
		if err := d.Validate(); err != nil {
			return err
		}
	}
	return nil
}

func (c *Config) MaxUploadBytes() int64 {
	return c.maxUploadBytes
}

// Display returns the profile at index in configuration order.
func (c *Config) Display(index int) (DisplayProfile, error) {
	if index < 0 || index >= len(c.Displays) {
		return DisplayProfile{}, fmt.Errorf("%w: no display at index %d", ErrConfiguration, index)
	}
	return c.Displays[index], nil
}
