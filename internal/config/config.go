// Package config loads server configuration from command-line flags,
// environment variables, and an optional .env file, in that order of
// precedence.
package config

import (
	"bufio"
	"errors"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"
)

// Config holds the application configuration.
type Config struct {
	App     AppConfig
	Logger  LoggerConfig
	Server  ServerConfig
	Storage StorageConfig
	LLM     LLMConfig
	Cache   CacheConfig
}

// AppConfig holds application-level configuration.
type AppConfig struct {
	Environment string
}

// LoggerConfig holds logging configuration.
type LoggerConfig struct {
	Level string
}

// ServerConfig holds HTTP server configuration.
type ServerConfig struct {
	Name         string
	Port         string        // Server port (default: 8080)
	ReadTimeout  time.Duration // HTTP read timeout (default: 15s)
	WriteTimeout time.Duration // HTTP write timeout (default: 15s)
	IdleTimeout  time.Duration // HTTP idle timeout (default: 60s)
}

// StorageConfig holds database storage configuration.
type StorageConfig struct {
	// DataPath is the base directory for the database (default: ~/PodSkip/data)
	DataPath string
}

// LLMConfig holds configuration for the ad detection model endpoint.
type LLMConfig struct {
	// BaseURL of an OpenAI-compatible chat completions API
	BaseURL string
	APIKey  string
	// Model name sent with each request (default: gpt-4o-mini)
	Model string
	// RequestTimeout bounds a single detection request (default: 5m)
	RequestTimeout time.Duration
}

// CacheConfig holds the local audio cache configuration.
type CacheConfig struct {
	// AudioPath is the directory for downloaded episode audio
	// (default: {data}/cache/audio)
	AudioPath string
	// MaxConcurrent is the maximum simultaneous downloads (default: 2)
	MaxConcurrent int
	// Watch enables filesystem watching of the audio cache so deleted
	// files are noticed before playback trips over them (default: true)
	Watch bool
}

// LoadConfig loads configuration from multiple sources with precedence:
// 1. Command-line flags (highest priority).
// 2. Environment variables.
// 3. .env file.
// 4. Default values (lowest priority).
func LoadConfig() (*Config, error) {
	// Define command-line flags.
	env := flag.String("env", "", "Environment (development, staging, production)")
	logLevel := flag.String("log-level", "", "Log level (debug, info, warn, error)")
	dataPath := flag.String("data-path", "", "Base path for database storage")
	serverName := flag.String("server-name", "", "Name for the server")

	// Server flags
	serverPort := flag.String("port", "", "Server port (default: 8080)")
	readTimeout := flag.String("read-timeout", "", "HTTP read timeout (default: 15s)")
	writeTimeout := flag.String("write-timeout", "", "HTTP write timeout (default: 15s)")
	idleTimeout := flag.String("idle-timeout", "", "HTTP idle timeout (default: 60s)")

	envFile := flag.String("env-file", ".env", "Path to .env file")

	// LLM flags
	llmBaseURL := flag.String("llm-base-url", "", "Base URL of an OpenAI-compatible API")
	llmModel := flag.String("llm-model", "", "Model name for ad detection (default: gpt-4o-mini)")
	llmTimeout := flag.String("llm-timeout", "", "Detection request timeout (default: 5m)")

	// Cache flags
	cacheAudioPath := flag.String("audio-cache-path", "", "Path for downloaded episode audio")
	cacheMaxConcurrent := flag.String("cache-max-concurrent", "", "Max concurrent downloads (default: 2)")
	cacheWatch := flag.String("cache-watch", "", "Watch the audio cache for deletions (default: true)")

	flag.Parse()

	// Load .env file if it exists (silently ignore if not found).
	_ = loadEnvFile(*envFile)

	// Build config with proper precedence.
	cfg := &Config{
		App: AppConfig{
			Environment: getConfigValue(*env, "ENV", "development"),
		},
		Logger: LoggerConfig{
			Level: getConfigValue(*logLevel, "LOG_LEVEL", "info"),
		},
		Server: ServerConfig{
			Name: getConfigValue(*serverName, "SERVER_NAME", "PodSkip Server"),
			Port: getConfigValue(*serverPort, "SERVER_PORT", "8080"),
		},
		Storage: StorageConfig{
			DataPath: getConfigValue(*dataPath, "DATA_PATH", ""),
		},
		LLM: LLMConfig{
			BaseURL: getConfigValue(*llmBaseURL, "LLM_BASE_URL", ""),
			APIKey:  getConfigValue("", "LLM_API_KEY", ""),
			Model:   getConfigValue(*llmModel, "LLM_MODEL", "gpt-4o-mini"),
		},
		Cache: CacheConfig{
			AudioPath:     getConfigValue(*cacheAudioPath, "AUDIO_CACHE_PATH", ""),
			MaxConcurrent: getIntConfigValue(*cacheMaxConcurrent, "CACHE_MAX_CONCURRENT", 2),
			Watch:         getBoolConfigValue(*cacheWatch, "CACHE_WATCH", true),
		},
	}

	durations := []struct {
		dest     *time.Duration
		flag     string
		envKey   string
		fallback string
		what     string
	}{
		{&cfg.Server.ReadTimeout, *readTimeout, "SERVER_READ_TIMEOUT", "15s", "read timeout"},
		{&cfg.Server.WriteTimeout, *writeTimeout, "SERVER_WRITE_TIMEOUT", "15s", "write timeout"},
		{&cfg.Server.IdleTimeout, *idleTimeout, "SERVER_IDLE_TIMEOUT", "60s", "idle timeout"},
		{&cfg.LLM.RequestTimeout, *llmTimeout, "LLM_TIMEOUT", "5m", "llm timeout"},
	}
	for _, d := range durations {
		raw := getConfigValue(d.flag, d.envKey, d.fallback)
		parsed, err := time.ParseDuration(raw)
		if err != nil {
			return nil, fmt.Errorf("invalid %s %q: %w", d.what, raw, err)
		}
		*d.dest = parsed
	}

	// Expand and validate the data path.
	if err := cfg.expandDataPath(); err != nil {
		return nil, fmt.Errorf("invalid data path: %w", err)
	}

	// Expand the audio cache path (defaults to {data}/cache/audio).
	if err := cfg.expandAudioCachePath(); err != nil {
		return nil, fmt.Errorf("invalid audio cache path: %w", err)
	}

	// Validate configuration.
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return cfg, nil
}

// Validate checks that all required config values are present and valid.
func (c *Config) Validate() error {
	if c.App.Environment == "" {
		return errors.New("ENV is required")
	}

	validEnvs := map[string]bool{
		"development": true,
		"staging":     true,
		"production":  true,
	}
	if !validEnvs[c.App.Environment] {
		return fmt.Errorf("invalid environment: %s (must be development, staging, or production)", c.App.Environment)
	}

	validLevels := map[string]bool{
		"debug": true,
		"info":  true,
		"warn":  true,
		"error": true,
	}
	if !validLevels[strings.ToLower(c.Logger.Level)] {
		return fmt.Errorf("invalid log level: %s (must be debug, info, warn, or error)", c.Logger.Level)
	}

	if c.Storage.DataPath == "" {
		return errors.New("data path cannot be empty after expansion")
	}

	if c.Cache.MaxConcurrent < 1 {
		return fmt.Errorf("cache max concurrent must be at least 1, got %d", c.Cache.MaxConcurrent)
	}

	// LLM.BaseURL can be empty - advanced detection is simply unavailable
	// until one is configured, transcript heuristics still work.

	return nil
}

// expandPath expands ~ and makes the path absolute.
// If path is empty and defaultPath is provided, uses the default.
func expandPath(path, defaultPath string) (string, error) {
	if path == "" {
		return defaultPath, nil
	}

	// Expand tilde.
	if strings.HasPrefix(path, "~/") {
		homeDir, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("failed to get home directory: %w", err)
		}
		path = filepath.Join(homeDir, path[2:])
	}

	// Make absolute if needed.
	if !filepath.IsAbs(path) {
		absPath, err := filepath.Abs(path)
		if err != nil {
			return "", fmt.Errorf("failed to get absolute path: %w", err)
		}
		path = absPath
	}

	return filepath.Clean(path), nil
}

// expandDataPath expands ~ and makes the path absolute.
func (c *Config) expandDataPath() error {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return fmt.Errorf("failed to get home directory: %w", err)
	}
	defaultPath := filepath.Join(homeDir, "PodSkip", "data")

	expanded, err := expandPath(c.Storage.DataPath, defaultPath)
	if err != nil {
		return err
	}
	c.Storage.DataPath = expanded
	return nil
}

// expandAudioCachePath expands ~ and makes the path absolute.
// Defaults to {data}/cache/audio if not specified.
func (c *Config) expandAudioCachePath() error {
	defaultPath := filepath.Join(c.Storage.DataPath, "cache", "audio")

	expanded, err := expandPath(c.Cache.AudioPath, defaultPath)
	if err != nil {
		return err
	}
	c.Cache.AudioPath = expanded
	return nil
}

// getConfigValue picks the first non-empty of flag value, environment
// variable, default.
func getConfigValue(flagValue, envKey, defaultValue string) string {
	if flagValue != "" {
		return flagValue
	}
	if envValue := os.Getenv(envKey); envValue != "" {
		return envValue
	}
	return defaultValue
}

// getBoolConfigValue reads a bool with the same precedence. "true",
// "1", and "yes" (any case) are true; any other non-empty value is
// false.
func getBoolConfigValue(flagValue, envKey string, defaultValue bool) bool {
	raw := getConfigValue(flagValue, envKey, "")
	if raw == "" {
		return defaultValue
	}
	switch strings.ToLower(raw) {
	case "true", "1", "yes":
		return true
	}
	return false
}

// getIntConfigValue reads an int with the same precedence, falling
// back to the default on a non-numeric value.
func getIntConfigValue(flagValue, envKey string, defaultValue int) int {
	raw := getConfigValue(flagValue, envKey, "")
	if raw == "" {
		return defaultValue
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return defaultValue
	}
	return n
}

// loadEnvFile reads KEY=value lines from a .env file into the process
// environment. Lines starting with # and blank lines are skipped.
// Variables already set in the environment win over the file.
func loadEnvFile(path string) error {
	file, err := os.Open(path) //#nosec G304 -- Config file path from user input is expected
	if err != nil {
		return err
	}
	defer file.Close()

	scanner := bufio.NewScanner(file)
	lineNum := 0

	for scanner.Scan() {
		lineNum++
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		key, value, found := strings.Cut(line, "=")
		if !found {
			return fmt.Errorf("invalid format at line %d: %s", lineNum, line)
		}

		key = strings.TrimSpace(key)
		value = strings.Trim(strings.TrimSpace(value), `"'`)

		if os.Getenv(key) == "" {
			if err := os.Setenv(key, value); err != nil {
				return fmt.Errorf("failed to set env var %s: %w", key, err)
			}
		}
	}

	return scanner.Err()
}
