package config

import (
	"fmt"
	"os"

	"github.com/sirupsen/logrus"
	"gopkg.in/yaml.v3"
)

// ChainID selects the chain queried through the indexing API and the RPC
// endpoint. Fixed at compile time.
const ChainID int64 = 1

// APIKeyEnvVar names the environment variable holding the indexing-API
// credential. The key must never appear in config files, responses or logs.
const APIKeyEnvVar = "COVALENT_API_KEY"

// Config holds the overall configuration for the application.
type Config struct {
	Server   ServerConfig   `yaml:"server"`
	Covalent CovalentConfig `yaml:"covalent"`
	Chain    ChainConfig    `yaml:"chain"`
	Metadata MetadataConfig `yaml:"metadata"`
	Gallery  GalleryConfig  `yaml:"gallery"`
	Session  SessionConfig  `yaml:"session"`
	Logging  LoggingConfig  `yaml:"logging"`
}

// ServerConfig holds the server-specific configuration.
type ServerConfig struct {
	Port         string `yaml:"port"`
	ReadTimeout  int    `yaml:"readTimeout"`
	WriteTimeout int    `yaml:"writeTimeout"`
	IdleTimeout  int    `yaml:"idleTimeout"`
}

// CovalentConfig holds the configuration for the indexing-API client.
// The API key itself is populated from the environment, never from YAML.
type CovalentConfig struct {
	BaseURL              string `yaml:"baseURL"`
	RequestTimeoutMillis int64  `yaml:"requestTimeoutMillis"`
	RateLimit            int    `yaml:"rateLimit"`
	BurstLimit           int    `yaml:"burstLimit"`
	APIKey               string `yaml:"-"`
}

// ChainConfig holds the RPC endpoint configuration for contract resolution.
type ChainConfig struct {
	RPCURL                   string `yaml:"rpcURL"`
	ConnectionTimeoutSeconds int    `yaml:"connectionTimeoutSeconds"`
	CallTimeoutSeconds       int    `yaml:"callTimeoutSeconds"`
}

// MetadataConfig holds configuration for fetching token metadata documents.
type MetadataConfig struct {
	IPFSGateway          string `yaml:"ipfsGateway"`
	RequestTimeoutMillis int64  `yaml:"requestTimeoutMillis"`
}

// GalleryConfig holds configuration for the rendering pipeline.
type GalleryConfig struct {
	MaxConcurrentContracts int `yaml:"maxConcurrentContracts"`
}

// SessionConfig holds configuration for the wallet session registry.
type SessionConfig struct {
	TTLMinutes             int `yaml:"ttlMinutes"`
	CleanupIntervalMinutes int `yaml:"cleanupIntervalMinutes"`
}

// LoggingConfig holds the configuration for logging.
type LoggingConfig struct {
	Level string `yaml:"level"` // e.g., "debug", "info", "warn", "error"
}

// LoadConfig loads configuration from a YAML file and the environment.
func LoadConfig(path string) (*Config, error) {
	logrus.Infof("Loading configuration from path: %s", path)
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config data from %s: %w", path, err)
	}

	cfg.Covalent.APIKey = os.Getenv(APIKeyEnvVar)
	if cfg.Covalent.APIKey == "" {
		return nil, fmt.Errorf("required environment variable %s is not set", APIKeyEnvVar)
	}

	applyDefaults(&cfg)

	logrus.Info("Configuration loaded successfully.")
	return &cfg, nil
}

func applyDefaults(cfg *Config) {
	if cfg.Server.Port == "" {
		cfg.Server.Port = ":8080"
	}
	if cfg.Covalent.BaseURL == "" {
		cfg.Covalent.BaseURL = "https://api.covalenthq.com"
		logrus.Infof("Covalent.BaseURL not set, defaulting to %s", cfg.Covalent.BaseURL)
	}
	if cfg.Covalent.RequestTimeoutMillis == 0 {
		cfg.Covalent.RequestTimeoutMillis = 10000
		logrus.Infof("Covalent.RequestTimeoutMillis not set, defaulting to %d ms", cfg.Covalent.RequestTimeoutMillis)
	}
	if cfg.Covalent.RateLimit <= 0 {
		cfg.Covalent.RateLimit = 4
	}
	if cfg.Covalent.BurstLimit <= 0 {
		cfg.Covalent.BurstLimit = 2
	}
	if cfg.Chain.ConnectionTimeoutSeconds <= 0 {
		cfg.Chain.ConnectionTimeoutSeconds = 10
	}
	if cfg.Chain.CallTimeoutSeconds <= 0 {
		cfg.Chain.CallTimeoutSeconds = 10
	}
	if cfg.Metadata.IPFSGateway == "" {
		cfg.Metadata.IPFSGateway = "https://ipfs.io/ipfs/"
		logrus.Infof("Metadata.IPFSGateway not set, defaulting to %s", cfg.Metadata.IPFSGateway)
	}
	if cfg.Metadata.RequestTimeoutMillis == 0 {
		cfg.Metadata.RequestTimeoutMillis = 10000
	}
	if cfg.Gallery.MaxConcurrentContracts <= 0 {
		cfg.Gallery.MaxConcurrentContracts = 5
	}
	if cfg.Session.TTLMinutes <= 0 {
		cfg.Session.TTLMinutes = 30
	}
	if cfg.Session.CleanupIntervalMinutes <= 0 {
		cfg.Session.CleanupIntervalMinutes = 10
	}
}
