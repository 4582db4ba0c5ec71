package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Config holds application configuration. It is built once in main and
// passed explicitly into every component constructor.
type Config struct {
	Server struct {
		Port                  string `yaml:"port"`
		RequestTimeoutSeconds int    `yaml:"request_timeout_seconds"` // end-to-end deadline for one detect call
	} `yaml:"server"`

	Fetcher struct {
		TimeoutSeconds int   `yaml:"timeout_seconds"`
		MaxBytes       int64 `yaml:"max_bytes"`
	} `yaml:"fetcher"`

	BlobStore struct {
		Endpoint  string `yaml:"endpoint"`
		AccessKey string `yaml:"access_key"`
		SecretKey string `yaml:"secret_key"`
		Bucket    string `yaml:"bucket"`
		UseSSL    bool   `yaml:"use_ssl"`
		KeyPrefix string `yaml:"key_prefix"`
	} `yaml:"blob_store"`

	RecordStore struct {
		Type string `yaml:"type"` // "sqlite" or "postgres"
		Path string `yaml:"path"` // SQLite path
		URL  string `yaml:"url"`  // PostgreSQL URL
	} `yaml:"record_store"`

	Inference struct {
		URL               string `yaml:"url"`
		AuthToken         string `yaml:"auth_token"`
		ModelName         string `yaml:"model_name"`
		ModelVersion      string `yaml:"model_version"`
		TimeoutSeconds    int    `yaml:"timeout_seconds"`
		MaxRetries        int    `yaml:"max_retries"`
		RetryDelaySeconds int    `yaml:"retry_delay_seconds"`
	} `yaml:"inference"`
}

// LoadConfig loads configuration from YAML file
func LoadConfig(configPath string) (*Config, error) {
	config := &Config{}

	file, err := os.Open(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open config file: %w", err)
	}
	defer file.Close()

	decoder := yaml.NewDecoder(file)
	if err := decoder.Decode(config); err != nil {
		return nil, fmt.Errorf("failed to decode config file: %w", err)
	}

	// Set defaults
	if config.Server.Port == "" {
		config.Server.Port = "8080"
	}

	if config.Server.RequestTimeoutSeconds == 0 {
		config.Server.RequestTimeoutSeconds = 60
	}

	if config.Fetcher.TimeoutSeconds == 0 {
		config.Fetcher.TimeoutSeconds = 15
	}

	if config.Fetcher.MaxBytes == 0 {
		config.Fetcher.MaxBytes = 10 << 20 // 10 MiB
	}

	if config.BlobStore.Bucket == "" {
		config.BlobStore.Bucket = "deepfake-uploads"
	}

	if config.BlobStore.KeyPrefix == "" {
		config.BlobStore.KeyPrefix = "uploads/"
	}

	if config.RecordStore.Type == "" {
		config.RecordStore.Type = "sqlite"
	}

	if config.RecordStore.Path == "" {
		config.RecordStore.Path = "./data/detections.db"
	}

	if config.Inference.ModelName == "" {
		config.Inference.ModelName = "deepfake-detector"
	}

	if config.Inference.ModelVersion == "" {
		config.Inference.ModelVersion = "v1"
	}

	if config.Inference.TimeoutSeconds == 0 {
		config.Inference.TimeoutSeconds = 30
	}

	if config.Inference.MaxRetries == 0 {
		config.Inference.MaxRetries = 3
	}

	if config.Inference.RetryDelaySeconds == 0 {
		config.Inference.RetryDelaySeconds = 2
	}

	// Expand environment variables in credentials
	config.BlobStore.AccessKey = os.ExpandEnv(config.BlobStore.AccessKey)
	config.BlobStore.SecretKey = os.ExpandEnv(config.BlobStore.SecretKey)
	config.Inference.AuthToken = os.ExpandEnv(config.Inference.AuthToken)
	config.RecordStore.URL = os.ExpandEnv(config.RecordStore.URL)

	return config, nil
}
