package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"mediaup/internal/upload/domain"
)

// Config holds the complete application configuration
type Config struct {
	Storage StorageConfig `yaml:"storage" json:"storage"`
	Commit  CommitConfig  `yaml:"commit" json:"commit"`
	Batch   BatchConfig   `yaml:"batch" json:"batch"`
	Media   MediaConfig   `yaml:"media" json:"media"`
	Server  ServerConfig  `yaml:"server" json:"server"`
	GRPC    GRPCConfig    `yaml:"grpc" json:"grpc"`
	Logging LoggingConfig `yaml:"logging" json:"logging"`
}

// StorageConfig describes the blob storage account
type StorageConfig struct {
	BaseURL        string        `yaml:"baseUrl" json:"baseUrl"`
	RequestTimeout time.Duration `yaml:"requestTimeout" json:"requestTimeout"` // 0 inherits the transport default
}

// CommitConfig describes the application backend receiving commit records
type CommitConfig struct {
	BaseURL        string        `yaml:"baseUrl" json:"baseUrl"`
	RequestTimeout time.Duration `yaml:"requestTimeout" json:"requestTimeout"`
}

type BatchConfig struct {
	MaxWorkers int `yaml:"maxWorkers" json:"maxWorkers"`
}

// MediaConfig controls re-encoding of images and video thumbnails
type MediaConfig struct {
	FFmpegPath      string `yaml:"ffmpegPath" json:"ffmpegPath"`
	ImageFormat     string `yaml:"imageFormat" json:"imageFormat"`
	ThumbnailFormat string `yaml:"thumbnailFormat" json:"thumbnailFormat"`
	Quality         int    `yaml:"quality" json:"quality"`
	TempDir         string `yaml:"tempDir" json:"tempDir"` // empty uses os.TempDir
}

type ServerConfig struct {
	GRPCAddress     string        `yaml:"grpcAddress" json:"grpcAddress"`
	HTTPAddress     string        `yaml:"httpAddress" json:"httpAddress"` // empty disables the HTTP adapter
	ShutdownTimeout time.Duration `yaml:"shutdownTimeout" json:"shutdownTimeout"`
}

// GRPCConfig holds gRPC-specific configuration
type GRPCConfig struct {
	MaxRecvMsgSize int32 `yaml:"maxRecvMsgSize" json:"maxRecvMsgSize"`
	MaxSendMsgSize int32 `yaml:"maxSendMsgSize" json:"maxSendMsgSize"`
}

// LoggingConfig holds logging configuration
type LoggingConfig struct {
	Level  string `yaml:"level" json:"level"`
	Format string `yaml:"format" json:"format"`
	Output string `yaml:"output" json:"output"`
}

// DefaultConfig Default configuration values
var DefaultConfig = Config{
	Storage: StorageConfig{
		BaseURL: domain.DefaultBaseURL,
	},
	Commit: CommitConfig{
		BaseURL: domain.DefaultCommitURL,
	},
	Batch: BatchConfig{
		MaxWorkers: 4,
	},
	Media: MediaConfig{
		FFmpegPath:      "ffmpeg",
		ImageFormat:     "webp",
		ThumbnailFormat: "webp",
		Quality:         80,
	},
	Server: ServerConfig{
		GRPCAddress:     "0.0.0.0:50061",
		HTTPAddress:     "0.0.0.0:8086",
		ShutdownTimeout: 15 * time.Second,
	},
	GRPC: GRPCConfig{
		MaxRecvMsgSize: 64 * 1024 * 1024, // 64MB, batches carry base64 payloads
		MaxSendMsgSize: 4 * 1024 * 1024,  // 4MB
	},
	Logging: LoggingConfig{
		Level:  "INFO",
		Format: "text",
		Output: "stdout",
	},
}

// MaxBatchWorkers is the upper bound on concurrently processed items per batch.
const MaxBatchWorkers = 4

var supportedFormats = map[string]bool{"webp": true, "png": true}

// LoadConfig loads configuration from multiple sources in order of precedence:
// 1. Environment variables (highest precedence, a local .env file is read first)
// 2. Configuration file
// 3. Default values (lowest precedence)
func LoadConfig() (*Config, string, error) {
	config := DefaultConfig

	// a missing .env is the normal case
	_ = godotenv.Load()

	path, err := loadFromFile(&config)
	if err != nil {
		return nil, "", fmt.Errorf("failed to load config file: %w", err)
	}

	if e := loadFromEnv(&config); e != nil {
		return nil, "", fmt.Errorf("failed to load environment variables: %w", e)
	}

	if e := config.Validate(); e != nil {
		return nil, "", fmt.Errorf("configuration validation failed: %w", e)
	}

	return &config, path, nil
}

// loadFromFile loads configuration from YAML file
func loadFromFile(config *Config) (string, error) {
	configPaths := []string{
		os.Getenv("MEDIAUP_CONFIG_PATH"),
		"./config.yaml",
		"./config/config.yaml",
		"/etc/mediaup/config.yaml",
	}

	for _, path := range configPaths {
		if path == "" {
			continue
		}

		if _, err := os.Stat(path); os.IsNotExist(err) {
			continue
		}

		data, err := os.ReadFile(path)
		if err != nil {
			return "", fmt.Errorf("failed to read config file %s: %w", path, err)
		}

		if err := yaml.Unmarshal(data, config); err != nil {
			return "", fmt.Errorf("failed to parse config file %s: %w", path, err)
		}

		return path, nil
	}

	return "built-in defaults (no config file found)", nil
}

// loadFromEnv loads configuration from environment variables
func loadFromEnv(config *Config) error {
	if val := os.Getenv("MEDIAUP_STORAGE_BASE_URL"); val != "" {
		config.Storage.BaseURL = val
	}
	if val := os.Getenv("MEDIAUP_STORAGE_TIMEOUT"); val != "" {
		timeout, err := time.ParseDuration(val)
		if err != nil {
			return fmt.Errorf("MEDIAUP_STORAGE_TIMEOUT: %w", err)
		}
		config.Storage.RequestTimeout = timeout
	}

	if val := os.Getenv("MEDIAUP_COMMIT_URL"); val != "" {
		config.Commit.BaseURL = val
	}
	if val := os.Getenv("MEDIAUP_COMMIT_TIMEOUT"); val != "" {
		timeout, err := time.ParseDuration(val)
		if err != nil {
			return fmt.Errorf("MEDIAUP_COMMIT_TIMEOUT: %w", err)
		}
		config.Commit.RequestTimeout = timeout
	}

	if val := os.Getenv("MEDIAUP_MAX_WORKERS"); val != "" {
		workers, err := strconv.Atoi(val)
		if err != nil {
			return fmt.Errorf("MEDIAUP_MAX_WORKERS: %w", err)
		}
		config.Batch.MaxWorkers = workers
	}

	if val := os.Getenv("MEDIAUP_FFMPEG_PATH"); val != "" {
		config.Media.FFmpegPath = val
	}
	if val := os.Getenv("MEDIAUP_IMAGE_FORMAT"); val != "" {
		config.Media.ImageFormat = strings.ToLower(val)
	}
	if val := os.Getenv("MEDIAUP_THUMBNAIL_FORMAT"); val != "" {
		config.Media.ThumbnailFormat = strings.ToLower(val)
	}
	if val := os.Getenv("MEDIAUP_QUALITY"); val != "" {
		if quality, err := strconv.Atoi(val); err == nil {
			config.Media.Quality = quality
		}
	}
	if val := os.Getenv("MEDIAUP_TEMP_DIR"); val != "" {
		config.Media.TempDir = val
	}

	if val := os.Getenv("MEDIAUP_GRPC_ADDRESS"); val != "" {
		config.Server.GRPCAddress = val
	}
	if val, ok := os.LookupEnv("MEDIAUP_HTTP_ADDRESS"); ok {
		config.Server.HTTPAddress = val
	}

	if val := os.Getenv("MEDIAUP_GRPC_MAX_RECV_MSG_SIZE"); val != "" {
		if size, err := strconv.ParseInt(val, 10, 32); err == nil {
			config.GRPC.MaxRecvMsgSize = int32(size)
		}
	}
	if val := os.Getenv("MEDIAUP_GRPC_MAX_SEND_MSG_SIZE"); val != "" {
		if size, err := strconv.ParseInt(val, 10, 32); err == nil {
			config.GRPC.MaxSendMsgSize = int32(size)
		}
	}

	if val := os.Getenv("LOG_LEVEL"); val != "" {
		config.Logging.Level = val
	}
	if val := os.Getenv("LOG_FORMAT"); val != "" {
		config.Logging.Format = val
	}
	if val := os.Getenv("LOG_OUTPUT"); val != "" {
		config.Logging.Output = val
	}

	return nil
}

// Validate validates the configuration
func (c *Config) Validate() error {
	if c.Storage.BaseURL == "" {
		return fmt.Errorf("storage base URL is required")
	}
	if !strings.HasSuffix(c.Storage.BaseURL, "/") {
		return fmt.Errorf("storage base URL must end with '/': %s", c.Storage.BaseURL)
	}
	if c.Commit.BaseURL == "" {
		return fmt.Errorf("commit URL is required")
	}
	if c.Storage.RequestTimeout < 0 || c.Commit.RequestTimeout < 0 {
		return fmt.Errorf("request timeouts must not be negative")
	}

	if c.Batch.MaxWorkers < 1 || c.Batch.MaxWorkers > MaxBatchWorkers {
		return fmt.Errorf("invalid max workers: %d (must be 1..%d)", c.Batch.MaxWorkers, MaxBatchWorkers)
	}

	if c.Media.Quality < 1 || c.Media.Quality > 100 {
		return fmt.Errorf("invalid media quality: %d", c.Media.Quality)
	}
	if !supportedFormats[c.Media.ImageFormat] {
		return fmt.Errorf("unsupported image format: %s", c.Media.ImageFormat)
	}
	if !supportedFormats[c.Media.ThumbnailFormat] {
		return fmt.Errorf("unsupported thumbnail format: %s", c.Media.ThumbnailFormat)
	}
	if c.Media.FFmpegPath == "" {
		return fmt.Errorf("ffmpeg path is required")
	}

	validLevels := map[string]bool{
		"DEBUG": true, "INFO": true, "WARN": true, "ERROR": true,
		"debug": true, "info": true, "warn": true, "error": true,
	}
	if !validLevels[c.Logging.Level] {
		return fmt.Errorf("invalid log level: %s", c.Logging.Level)
	}

	return nil
}

func (c *Config) ToYAML() ([]byte, error) {
	return yaml.Marshal(c)
}

// LoadFromFile loads a specific configuration file
func LoadFromFile(path string) (*Config, error) {
	config := DefaultConfig

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	if err := yaml.Unmarshal(data, &config); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	if err := loadFromEnv(&config); err != nil {
		return nil, fmt.Errorf("failed to load environment variables: %w", err)
	}

	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return &config, nil
}
