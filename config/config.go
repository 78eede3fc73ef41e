package config

import (
	"os"
	"path/filepath"
	"time"

	"github.com/joho/godotenv"
	"github.com/pkg/errors"
	"gopkg.in/yaml.v2"
)

const (
	defaultListenAddr     = ":8080"
	defaultCORSOrigin     = "*"
	defaultLogLevel       = "info"
	defaultOrderBuffer    = 64
	defaultSubmitInterval = 200 * time.Millisecond
)

// Config describes the marketplace server. The auth token is intentionally
// absent from yaml; it is read from the environment (optionally via a .env
// file living next to the config file).
type Config struct {
	ListenAddr  string     `yaml:"listen_addr"`
	CORSOrigin  string     `yaml:"cors_origin"`
	LogLevel    string     `yaml:"log_level"`
	OrderBuffer int        `yaml:"order_buffer"`
	Bots        BotsConfig `yaml:"bots"`
	AuthToken   string     `yaml:"-"`
}

// BotsConfig controls the optional in-process simulation swarm.
type BotsConfig struct {
	Enabled        bool   `yaml:"enabled"`
	ItemID         int64  `yaml:"item_id"`
	BasePrice      int64  `yaml:"base_price"`
	Buyers         int    `yaml:"buyers"`
	Sellers        int    `yaml:"sellers"`
	SubmitInterval string `yaml:"submit_interval"`

	ParsedInterval time.Duration `yaml:"-"`
}

// Load reads the yaml config at filename, falling back to defaults when the
// file does not exist. A .env file in the same directory is loaded first so
// MARKET_AUTH_TOKEN can live outside the config file.
func Load(filename string) (*Config, error) {
	_ = godotenv.Load(filepath.Join(filepath.Dir(filename), ".env"))

	cfg := &Config{
		ListenAddr:  defaultListenAddr,
		CORSOrigin:  defaultCORSOrigin,
		LogLevel:    defaultLogLevel,
		OrderBuffer: defaultOrderBuffer,
	}

	file, err := os.Open(filename)
	if err != nil {
		if !os.IsNotExist(err) {
			return nil, errors.Wrap(err, "open config file")
		}
	} else {
		defer file.Close()
		if err := yaml.NewDecoder(file).Decode(cfg); err != nil {
			return nil, errors.Wrap(err, "decode config file")
		}
	}

	cfg.AuthToken = os.Getenv("MARKET_AUTH_TOKEN")

	if cfg.ListenAddr == "" {
		cfg.ListenAddr = defaultListenAddr
	}
	if cfg.CORSOrigin == "" {
		cfg.CORSOrigin = defaultCORSOrigin
	}
	if cfg.LogLevel == "" {
		cfg.LogLevel = defaultLogLevel
	}
	if cfg.OrderBuffer <= 0 {
		cfg.OrderBuffer = defaultOrderBuffer
	}

	if err := cfg.Bots.normalize(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (b *BotsConfig) normalize() error {
	if b.SubmitInterval == "" {
		b.ParsedInterval = defaultSubmitInterval
	} else {
		interval, err := time.ParseDuration(b.SubmitInterval)
		if err != nil {
			return errors.Wrap(err, "parse bots submit interval")
		}
		if interval <= 0 {
			return errors.New("bots submit interval must be positive")
		}
		b.ParsedInterval = interval
	}

	if !b.Enabled {
		return nil
	}
	if b.ItemID <= 0 {
		b.ItemID = 1
	}
	if b.BasePrice <= 0 {
		b.BasePrice = 100
	}
	if b.Buyers <= 0 {
		b.Buyers = 2
	}
	if b.Sellers <= 0 {
		b.Sellers = 2
	}
	return nil
}
