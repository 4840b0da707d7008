package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/caarlos0/env/v11"
)

// Config holds all configuration for the application
type Config struct {
	// Game configuration
	Game GameConfig `json:"game"`

	// Storage configuration
	Storage StorageConfig `json:"storage"`

	// Narrator configuration
	Narrator NarratorConfig `json:"narrator"`

	// Connectivity configuration
	Connectivity ConnectivityConfig `json:"connectivity"`

	// Server configuration
	Server ServerConfig `json:"server"`
}

// GameConfig holds game specific configuration
type GameConfig struct {
	// Identifier of the user whose state this process owns
	UserID string `json:"user_id" env:"LIFERPG_USER_ID"`

	// IANA time zone used for quest day/week boundaries; empty means local
	Timezone string `json:"timezone" env:"LIFERPG_TIMEZONE"`

	// Directory holding an optional activities.json catalog override
	DataDir string `json:"data_dir" env:"LIFERPG_DATA_DIR"`
}

// StorageConfig holds persistence specific configuration
type StorageConfig struct {
	// SQLite file backing the document store
	DocumentPath string `json:"document_path" env:"LIFERPG_DOCUMENT_PATH"`

	// Local cache backend (file, redis)
	CacheBackend string `json:"cache_backend" env:"LIFERPG_CACHE_BACKEND"`

	// Path of the JSON cache file when CacheBackend is file
	CachePath string `json:"cache_path" env:"LIFERPG_CACHE_PATH"`

	// Redis address when CacheBackend is redis
	RedisAddr string `json:"redis_addr" env:"LIFERPG_REDIS_ADDR"`

	// Key prefix for redis entries
	RedisPrefix string `json:"redis_prefix" env:"LIFERPG_REDIS_PREFIX"`
}

// NarratorConfig holds text generation configuration
type NarratorConfig struct {
	// API key; never written to the config file
	APIKey string `json:"-" env:"OPENAI_API_KEY"`

	// Base URL of an OpenAI compatible API
	BaseURL string `json:"base_url" env:"OPENAI_BASE_URL"`

	// Chat model name
	Model string `json:"model" env:"OPENAI_MODEL"`

	// Per request timeout in seconds
	TimeoutSeconds int `json:"timeout_seconds" env:"LIFERPG_NARRATOR_TIMEOUT_SECONDS"`
}

// ConnectivityConfig holds network probing configuration
type ConnectivityConfig struct {
	// URL probed with HEAD requests
	ProbeURL string `json:"probe_url" env:"LIFERPG_PROBE_URL"`

	// Seconds between probes
	IntervalSeconds int `json:"interval_seconds" env:"LIFERPG_PROBE_INTERVAL_SECONDS"`
}

// ServerConfig holds server specific configuration
type ServerConfig struct {
	// Server port
	Port string `json:"port" env:"LIFERPG_PORT"`

	// Log level (debug, info, warn, error)
	LogLevel string `json:"log_level" env:"LIFERPG_LOG_LEVEL"`

	// Export traces to stdout
	Tracing bool `json:"tracing" env:"LIFERPG_TRACING"`
}

// DefaultConfig returns the default configuration
func DefaultConfig() Config {
	return Config{
		Game: GameConfig{
			UserID:   "local",
			Timezone: "",
			DataDir:  "./assets/data",
		},
		Storage: StorageConfig{
			DocumentPath: "./data/documents.db",
			CacheBackend: "file",
			CachePath:    "./data/cache.json",
			RedisAddr:    "localhost:6379",
			RedisPrefix:  "liferpg:",
		},
		Narrator: NarratorConfig{
			BaseURL:        "https://api.openai.com/v1/",
			Model:          "gpt-4o-mini",
			TimeoutSeconds: 30,
		},
		Connectivity: ConnectivityConfig{
			ProbeURL:        "https://clients3.google.com/generate_204",
			IntervalSeconds: 30,
		},
		Server: ServerConfig{
			Port:     "8080",
			LogLevel: "info",
		},
	}
}

// LoadConfig loads configuration from a file, then applies environment
// overrides
func LoadConfig(path string) (Config, error) {
	config := DefaultConfig()

	// Create directory if it doesn't exist
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return config, err
	}

	// Check if file exists
	if _, err := os.Stat(path); os.IsNotExist(err) {
		// Create default config file
		if err := SaveConfig(config, path); err != nil {
			return config, err
		}
	} else {
		file, err := os.Open(path)
		if err != nil {
			return config, err
		}
		defer file.Close()

		decoder := json.NewDecoder(file)
		if err := decoder.Decode(&config); err != nil {
			return config, fmt.Errorf("failed to decode config: %w", err)
		}
	}

	if err := env.Parse(&config); err != nil {
		return config, fmt.Errorf("failed to parse environment: %w", err)
	}

	return config, nil
}

// SaveConfig saves configuration to a file
func SaveConfig(config Config, path string) error {
	// Create directory if it doesn't exist
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return err
	}

	// Create or truncate file
	file, err := os.Create(path)
	if err != nil {
		return err
	}
	defer file.Close()

	// Write config to file
	encoder := json.NewEncoder(file)
	encoder.SetIndent("", "  ")
	if err := encoder.Encode(config); err != nil {
		return err
	}

	return nil
}
