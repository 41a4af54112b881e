package config

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
)

type Config struct {
	ListenAddress string `toml:"ListenAddress"`
	DataDir       string `toml:"DataDir"`
	GenesisFile   string `toml:"GenesisFile"`
	Environment   string `toml:"Environment"`

	Auth      Auth      `toml:"auth"`
	RateLimit RateLimit `toml:"rate_limit"`
	CORS      CORS      `toml:"cors"`
	EventLog  EventLog  `toml:"event_log"`
	Kafka     Kafka     `toml:"kafka"`
	Webhook   Webhook   `toml:"webhook"`
	Telemetry Telemetry `toml:"telemetry"`
	Logging   Logging   `toml:"logging"`
	Pauses    Pauses    `toml:"pauses"`
}

// Load loads the configuration from the given path, writing a default file on
// first run.
func Load(path string) (*Config, error) {
	cfg := &Config{}
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return createDefault(path)
	}

	meta, err := toml.DecodeFile(path, cfg)
	if err != nil {
		return nil, err
	}
	if undecoded := meta.Undecoded(); len(undecoded) > 0 {
		keys := make([]string, 0, len(undecoded))
		for _, key := range undecoded {
			keys = append(keys, key.String())
		}
		return nil, fmt.Errorf("config file %s has unknown keys: %s", path, strings.Join(keys, ", "))
	}

	cfg.applyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config file %s: %w", path, err)
	}
	return cfg, nil
}

func (c *Config) applyDefaults() {
	if strings.TrimSpace(c.ListenAddress) == "" {
		c.ListenAddress = ":8080"
	}
	if strings.TrimSpace(c.DataDir) == "" {
		c.DataDir = "./rwa-data"
	}
	if strings.TrimSpace(c.Environment) == "" {
		c.Environment = "dev"
	}
	if c.Auth.ClockSkewSeconds <= 0 {
		c.Auth.ClockSkewSeconds = 120
	}
	if c.RateLimit.RequestsPerMinute <= 0 {
		c.RateLimit.RequestsPerMinute = 600
	}
	if c.RateLimit.Burst <= 0 {
		c.RateLimit.Burst = 50
	}
	if c.EventLog.Enabled && strings.TrimSpace(c.EventLog.DSN) == "" {
		c.EventLog.DSN = filepath.Join(c.DataDir, "events.db")
	}
	if c.Telemetry.SampleRatio <= 0 {
		c.Telemetry.SampleRatio = 1
	}
}

// createDefault creates and saves a default configuration file.
func createDefault(path string) (*Config, error) {
	secret, err := randomSecret()
	if err != nil {
		return nil, err
	}
	cfg := &Config{
		ListenAddress: ":8080",
		DataDir:       "./rwa-data",
		Environment:   "dev",
		Auth: Auth{
			Enabled:       true,
			HMACSecret:    secret,
			Issuer:        "rwad",
			OptionalPaths: []string{"/healthz", "/metrics"},
		},
		EventLog: EventLog{Enabled: true},
	}
	cfg.applyDefaults()
	if err := persist(path, cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

func randomSecret() (string, error) {
	buf := make([]byte, 32)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("generate auth secret: %w", err)
	}
	return hex.EncodeToString(buf), nil
}

func persist(path string, cfg *Config) error {
	dir := filepath.Dir(path)
	if dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return err
		}
	}
	// The file carries the auth secret.
	f, err := os.OpenFile(path, os.O_WRONLY|os.O_TRUNC|os.O_CREATE, 0o600)
	if err != nil {
		return err
	}
	defer f.Close()

	return toml.NewEncoder(f).Encode(cfg)
}
