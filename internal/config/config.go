// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package config provides unified configuration loading and management for
// spotcore.
//
// Supports both TOML and JSON configuration formats, with sensible defaults,
// environment variable overrides, and validation.
//
// Configuration file locations (in order of precedence):
//   - ~/.spotcore/config.toml
//   - ~/.spotcore/config.json
//   - Built-in defaults
package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"reflect"
	"strconv"
	"strings"
	"sync"

	"github.com/BurntSushi/toml"

	"github.com/jeranaias/spotcore/internal/util"
)

// =============================================================================
// CONFIG STRUCTURES
// =============================================================================

// Config represents the complete spotcore configuration.
type Config struct {
	// General settings
	Version string `toml:"version" json:"version"`

	// Backend query endpoint configuration
	Backend BackendConfig `toml:"backend" json:"backend"`

	// Speech (transcription + synthesis) configuration
	Speech SpeechConfig `toml:"speech" json:"speech"`

	// Transcript persistence configuration
	Storage StorageConfig `toml:"storage" json:"storage"`

	// Renderer configuration
	UI UIConfig `toml:"ui" json:"ui"`
}

// BackendConfig contains the assistant backend endpoint configuration.
type BackendConfig struct {
	// BaseURL is the backend base URL
	BaseURL string `toml:"base_url" json:"base_url"`
	// TimeoutSecs bounds one query round trip in seconds
	TimeoutSecs int `toml:"timeout_secs" json:"timeout_secs"`
}

// SpeechConfig contains the cloud speech API configuration.
type SpeechConfig struct {
	// APIKey is the speech API key
	APIKey string `toml:"api_key" json:"api_key"`
	// BaseURL is the speech API base URL
	BaseURL string `toml:"base_url" json:"base_url"`
	// SynthesisModel is the text-to-speech model
	SynthesisModel string `toml:"synthesis_model" json:"synthesis_model"`
	// Voice is the synthesis voice
	Voice string `toml:"voice" json:"voice"`
	// TranscriptionModel is the speech-to-text model
	TranscriptionModel string `toml:"transcription_model" json:"transcription_model"`
	// Announce controls when answers are spoken: "all", "auto", "off"
	Announce string `toml:"announce" json:"announce"`
	// RequestsPerMinute throttles outbound synthesis calls
	RequestsPerMinute int `toml:"requests_per_minute" json:"requests_per_minute"`
}

// StorageConfig contains transcript persistence configuration.
type StorageConfig struct {
	// Enabled controls whether transcripts are persisted
	Enabled bool `toml:"enabled" json:"enabled"`
	// DBPath is the path to the transcript database (empty = default
	// ~/.spotcore/transcripts.db)
	DBPath string `toml:"db_path" json:"db_path"`
}

// UIConfig contains renderer configuration.
type UIConfig struct {
	// ShowTimestamps displays message timestamps
	ShowTimestamps bool `toml:"show_timestamps" json:"show_timestamps"`
	// CompactMode trims tool detail blocks to one line
	CompactMode bool `toml:"compact_mode" json:"compact_mode"`
	// MaxListItems caps how many list entries a tool result renders
	MaxListItems int `toml:"max_list_items" json:"max_list_items"`
}

// =============================================================================
// DEFAULT CONFIGURATION
// =============================================================================

// Default returns a Config with sensible default values.
func Default() *Config {
	return &Config{
		Version: "1.0.0",

		Backend: BackendConfig{
			BaseURL:     "http://127.0.0.1:8000",
			TimeoutSecs: 30,
		},

		Speech: SpeechConfig{
			APIKey:             "",
			BaseURL:            "https://api.openai.com/v1",
			SynthesisModel:     "tts-1",
			Voice:              "alloy",
			TranscriptionModel: "whisper-1",
			Announce:           "auto",
			RequestsPerMinute:  50,
		},

		Storage: StorageConfig{
			Enabled: true,
			DBPath:  "",
		},

		UI: UIConfig{
			ShowTimestamps: false,
			CompactMode:    false,
			MaxListItems:   5,
		},
	}
}

// =============================================================================
// CONFIG PATH HELPERS
// =============================================================================

// ConfigDir returns the spotcore configuration directory path.
func ConfigDir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("could not determine home directory: %w", err)
	}
	return filepath.Join(home, ".spotcore"), nil
}

// ConfigPathTOML returns the path to the TOML config file.
func ConfigPathTOML() (string, error) {
	dir, err := ConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "config.toml"), nil
}

// ConfigPathJSON returns the path to the JSON config file.
func ConfigPathJSON() (string, error) {
	dir, err := ConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "config.json"), nil
}

// DefaultDBPath returns the default transcript database path.
func DefaultDBPath() (string, error) {
	dir, err := ConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "transcripts.db"), nil
}

// EnsureConfigDir ensures the config directory exists.
func EnsureConfigDir() error {
	dir, err := ConfigDir()
	if err != nil {
		return err
	}
	return os.MkdirAll(dir, 0755)
}

// ensureSecurePermissions checks and fixes permissions on config files.
// Config files should be 0600 (owner read/write only) to protect API keys.
func ensureSecurePermissions(path string) error {
	info, err := os.Stat(path)
	if err != nil {
		return err
	}

	mode := info.Mode().Perm()
	if mode != 0600 {
		if err := os.Chmod(path, 0600); err != nil {
			return fmt.Errorf("failed to fix insecure permissions (was %o): %w", mode, err)
		}
	}

	return nil
}

// =============================================================================
// LOAD FUNCTIONS
// =============================================================================

// Load loads configuration from the config file(s).
// Tries TOML first, then JSON, and falls back to defaults.
// Environment overrides are applied last.
func Load() (*Config, error) {
	cfg := Default()
	var loadErr error

	// Try TOML first
	tomlPath, err := ConfigPathTOML()
	if err == nil {
		if _, statErr := os.Stat(tomlPath); statErr == nil {
			if err := LoadTOML(cfg, tomlPath); err != nil {
				loadErr = fmt.Errorf("failed to load TOML config: %w", err)
			} else {
				return finishLoad(cfg)
			}
		}
	}

	// Try JSON as fallback
	jsonPath, err := ConfigPathJSON()
	if err == nil {
		if _, statErr := os.Stat(jsonPath); statErr == nil {
			if err := LoadJSON(cfg, jsonPath); err != nil {
				loadErr = fmt.Errorf("failed to load JSON config: %w", err)
			} else {
				return finishLoad(cfg)
			}
		}
	}

	cfg, err = finishLoad(cfg)
	if err != nil {
		return nil, err
	}

	// Return defaults (with any load error for informational purposes)
	return cfg, loadErr
}

// finishLoad applies overrides, migration, defaults, and validation.
func finishLoad(cfg *Config) (*Config, error) {
	cfg.ApplyEnvOverrides()
	if err := cfg.Migrate(); err != nil {
		return nil, fmt.Errorf("config migration failed: %w", err)
	}
	cfg.SetDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

// LoadTOML loads configuration from a TOML file.
func LoadTOML(cfg *Config, path string) error {
	if err := ensureSecurePermissions(path); err != nil {
		// Permissions might not be fixable on all systems.
		fmt.Fprintf(os.Stderr, "Warning: could not ensure secure permissions on %s: %v\n", path, err)
	}

	_, err := toml.DecodeFile(path, cfg)
	if err != nil {
		return fmt.Errorf("failed to decode TOML file: %w", err)
	}
	cfg.SetDefaults()
	return nil
}

// LoadJSON loads configuration from a JSON file.
func LoadJSON(cfg *Config, path string) error {
	if err := ensureSecurePermissions(path); err != nil {
		fmt.Fprintf(os.Stderr, "Warning: could not ensure secure permissions on %s: %v\n", path, err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read JSON file: %w", err)
	}
	if err := json.Unmarshal(data, cfg); err != nil {
		return fmt.Errorf("failed to decode JSON file: %w", err)
	}
	cfg.SetDefaults()
	return nil
}

// LoadFromPath loads configuration from a specific file path with full
// validation.
func LoadFromPath(path string) (*Config, error) {
	cfg := &Config{}

	if strings.HasSuffix(path, ".json") {
		if err := LoadJSON(cfg, path); err != nil {
			return nil, fmt.Errorf("failed to load JSON config from %s: %w", path, err)
		}
	} else {
		// Default to TOML
		if err := LoadTOML(cfg, path); err != nil {
			return nil, fmt.Errorf("failed to load TOML config from %s: %w", path, err)
		}
	}

	return finishLoad(cfg)
}

// =============================================================================
// SAVE FUNCTIONS
// =============================================================================

// Save saves the configuration to the default TOML file.
func Save(cfg *Config) error {
	path, err := ConfigPathTOML()
	if err != nil {
		return err
	}
	return SaveTOML(cfg, path)
}

// SaveTOML saves the configuration to a TOML file.
// Creates config files with 0600 permissions (owner read/write only).
func SaveTOML(cfg *Config, path string) error {
	if err := EnsureConfigDir(); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	var buf strings.Builder
	buf.WriteString("# spotcore configuration file\n")
	buf.WriteString("# Generated by spotcore - edit with care\n")
	buf.WriteString("\n")

	encoder := toml.NewEncoder(&buf)
	if err := encoder.Encode(cfg); err != nil {
		return fmt.Errorf("failed to encode config: %w", err)
	}

	// Atomic write with fsync prevents data loss on crash.
	if err := util.AtomicWriteFile(path, []byte(buf.String()), 0600); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}
	return nil
}

// SaveJSON saves the configuration to a JSON file.
func SaveJSON(cfg *Config, path string) error {
	if err := EnsureConfigDir(); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	data, err := json.MarshalIndent(cfg, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode config: %w", err)
	}

	if err := util.AtomicWriteFile(path, data, 0600); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}
	return nil
}

// =============================================================================
// VALIDATION
// =============================================================================

// ValidationError represents a configuration validation error.
type ValidationError struct {
	Field   string
	Message string
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// ValidateErrors is a collection of validation errors.
type ValidateErrors []ValidationError

func (e ValidateErrors) Error() string {
	if len(e) == 0 {
		return "no validation errors"
	}
	var msgs []string
	for _, err := range e {
		msgs = append(msgs, err.Error())
	}
	return strings.Join(msgs, "; ")
}

// Validate validates the configuration and returns any errors.
func (c *Config) Validate() error {
	var errs ValidateErrors

	// Validate backend URL
	if c.Backend.BaseURL != "" {
		if _, err := url.Parse(c.Backend.BaseURL); err != nil {
			errs = append(errs, ValidationError{
				Field:   "backend.base_url",
				Message: fmt.Sprintf("invalid URL: %v", err),
			})
		}
	}

	// Validate backend timeout (1s to 5 minutes)
	if c.Backend.TimeoutSecs < 1 || c.Backend.TimeoutSecs > 300 {
		errs = append(errs, ValidationError{
			Field:   "backend.timeout_secs",
			Message: fmt.Sprintf("must be 1-300 seconds, got %d", c.Backend.TimeoutSecs),
		})
	}

	// Validate speech URL
	if c.Speech.BaseURL != "" {
		if _, err := url.Parse(c.Speech.BaseURL); err != nil {
			errs = append(errs, ValidationError{
				Field:   "speech.base_url",
				Message: fmt.Sprintf("invalid URL: %v", err),
			})
		}
	}

	// Validate announce mode
	validAnnounce := map[string]bool{"all": true, "auto": true, "off": true}
	if !validAnnounce[strings.ToLower(c.Speech.Announce)] {
		errs = append(errs, ValidationError{
			Field:   "speech.announce",
			Message: fmt.Sprintf("invalid mode '%s', must be one of: all, auto, off", c.Speech.Announce),
		})
	}

	// Validate synthesis rate limit
	if c.Speech.RequestsPerMinute < 1 || c.Speech.RequestsPerMinute > 500 {
		errs = append(errs, ValidationError{
			Field:   "speech.requests_per_minute",
			Message: fmt.Sprintf("must be 1-500, got %d", c.Speech.RequestsPerMinute),
		})
	}

	// Validate renderer list cap
	if c.UI.MaxListItems < 1 || c.UI.MaxListItems > 50 {
		errs = append(errs, ValidationError{
			Field:   "ui.max_list_items",
			Message: fmt.Sprintf("must be 1-50, got %d", c.UI.MaxListItems),
		})
	}

	if len(errs) > 0 {
		return errs
	}
	return nil
}

// SetDefaults sets default values for any missing or zero-value
// configuration fields.
func (c *Config) SetDefaults() {
	defaults := Default()

	if c.Version == "" {
		c.Version = defaults.Version
	}

	// Backend defaults
	if c.Backend.BaseURL == "" {
		c.Backend.BaseURL = defaults.Backend.BaseURL
	}
	if c.Backend.TimeoutSecs == 0 {
		c.Backend.TimeoutSecs = defaults.Backend.TimeoutSecs
	}

	// Speech defaults
	if c.Speech.BaseURL == "" {
		c.Speech.BaseURL = defaults.Speech.BaseURL
	}
	if c.Speech.SynthesisModel == "" {
		c.Speech.SynthesisModel = defaults.Speech.SynthesisModel
	}
	if c.Speech.Voice == "" {
		c.Speech.Voice = defaults.Speech.Voice
	}
	if c.Speech.TranscriptionModel == "" {
		c.Speech.TranscriptionModel = defaults.Speech.TranscriptionModel
	}
	if c.Speech.Announce == "" {
		c.Speech.Announce = defaults.Speech.Announce
	}
	if c.Speech.RequestsPerMinute == 0 {
		c.Speech.RequestsPerMinute = defaults.Speech.RequestsPerMinute
	}

	// UI defaults
	if c.UI.MaxListItems == 0 {
		c.UI.MaxListItems = defaults.UI.MaxListItems
	}
}

// Migrate handles migration from old configuration formats to new ones.
func (c *Config) Migrate() error {
	// Early builds used "on"/"none" for the announce toggle.
	switch strings.ToLower(c.Speech.Announce) {
	case "on":
		c.Speech.Announce = "all"
	case "none":
		c.Speech.Announce = "off"
	}
	return nil
}

// =============================================================================
// ENVIRONMENT OVERRIDES
// =============================================================================

// ApplyEnvOverrides applies environment variable overrides to the config.
//
// Supported environment variables:
//   - SPOTCORE_BACKEND_URL: overrides backend.base_url
//   - SPOTCORE_TIMEOUT_SECS: overrides backend.timeout_secs
//   - SPOTCORE_SPEECH_KEY: overrides speech.api_key
//   - SPOTCORE_SPEECH_URL: overrides speech.base_url
//   - SPOTCORE_VOICE: overrides speech.voice
//   - SPOTCORE_ANNOUNCE: overrides speech.announce
//   - SPOTCORE_DB_PATH: overrides storage.db_path
//   - SPOTCORE_NO_STORE: set to "1" or "true" to disable persistence
func (c *Config) ApplyEnvOverrides() {
	if u := os.Getenv("SPOTCORE_BACKEND_URL"); u != "" {
		c.Backend.BaseURL = u
	}
	if secs := os.Getenv("SPOTCORE_TIMEOUT_SECS"); secs != "" {
		if n, err := strconv.Atoi(secs); err == nil {
			c.Backend.TimeoutSecs = n
		}
	}
	if key := os.Getenv("SPOTCORE_SPEECH_KEY"); key != "" {
		c.Speech.APIKey = key
	}
	if u := os.Getenv("SPOTCORE_SPEECH_URL"); u != "" {
		c.Speech.BaseURL = u
	}
	if voice := os.Getenv("SPOTCORE_VOICE"); voice != "" {
		c.Speech.Voice = voice
	}
	if announce := os.Getenv("SPOTCORE_ANNOUNCE"); announce != "" {
		c.Speech.Announce = announce
	}
	if path := os.Getenv("SPOTCORE_DB_PATH"); path != "" {
		c.Storage.DBPath = path
	}
	if noStore := os.Getenv("SPOTCORE_NO_STORE"); noStore != "" {
		if noStore == "1" || strings.ToLower(noStore) == "true" {
			c.Storage.Enabled = false
		}
	}
}

// =============================================================================
// GET/SET HELPERS (DOT NOTATION)
// =============================================================================

// Get retrieves a configuration value using dot notation
// (e.g., "speech.voice").
func (c *Config) Get(key string) (interface{}, error) {
	parts := strings.Split(key, ".")
	if len(parts) == 0 {
		return nil, errors.New("empty key")
	}

	v := reflect.ValueOf(c).Elem()
	for i, part := range parts {
		fieldName := normalizeFieldName(part)

		field := v.FieldByNameFunc(func(name string) bool {
			return strings.EqualFold(name, fieldName)
		})

		if !field.IsValid() {
			return nil, fmt.Errorf("unknown field: %s", strings.Join(parts[:i+1], "."))
		}

		if i == len(parts)-1 {
			return field.Interface(), nil
		}

		if field.Kind() == reflect.Struct {
			v = field
		} else {
			return nil, fmt.Errorf("field '%s' is not a struct", strings.Join(parts[:i+1], "."))
		}
	}

	return nil, fmt.Errorf("invalid key: %s", key)
}

// Set sets a configuration value using dot notation
// (e.g., "speech.voice").
func (c *Config) Set(key string, value interface{}) error {
	parts := strings.Split(key, ".")
	if len(parts) == 0 {
		return errors.New("empty key")
	}

	v := reflect.ValueOf(c).Elem()
	for i, part := range parts {
		fieldName := normalizeFieldName(part)

		field := v.FieldByNameFunc(func(name string) bool {
			return strings.EqualFold(name, fieldName)
		})

		if !field.IsValid() {
			return fmt.Errorf("unknown field: %s", strings.Join(parts[:i+1], "."))
		}

		if i == len(parts)-1 {
			if !field.CanSet() {
				return fmt.Errorf("cannot set field: %s", key)
			}
			return setFieldValue(field, value)
		}

		if field.Kind() == reflect.Struct {
			v = field
		} else {
			return fmt.Errorf("field '%s' is not a struct", strings.Join(parts[:i+1], "."))
		}
	}

	return fmt.Errorf("invalid key: %s", key)
}

// normalizeFieldName converts a snake_case or kebab-case name to its Go
// field equivalent.
func normalizeFieldName(name string) string {
	parts := strings.FieldsFunc(name, func(r rune) bool {
		return r == '_' || r == '-'
	})

	var result strings.Builder
	for _, part := range parts {
		if len(part) > 0 {
			result.WriteString(strings.ToUpper(string(part[0])))
			result.WriteString(strings.ToLower(part[1:]))
		}
	}

	return result.String()
}

// setFieldValue sets a reflect.Value from an interface{} value with type
// conversion.
func setFieldValue(field reflect.Value, value interface{}) error {
	// Handle string input with type conversion
	if strVal, ok := value.(string); ok {
		switch field.Kind() {
		case reflect.String:
			field.SetString(strVal)
			return nil
		case reflect.Int, reflect.Int64:
			intVal, err := strconv.ParseInt(strVal, 10, 64)
			if err != nil {
				return fmt.Errorf("invalid integer value: %v", err)
			}
			field.SetInt(intVal)
			return nil
		case reflect.Float64:
			floatVal, err := strconv.ParseFloat(strVal, 64)
			if err != nil {
				return fmt.Errorf("invalid float value: %v", err)
			}
			field.SetFloat(floatVal)
			return nil
		case reflect.Bool:
			boolVal := strVal == "1" || strings.ToLower(strVal) == "true" || strings.ToLower(strVal) == "yes"
			field.SetBool(boolVal)
			return nil
		}
	}

	// Direct assignment for matching types
	val := reflect.ValueOf(value)
	if val.Type().AssignableTo(field.Type()) {
		field.Set(val)
		return nil
	}

	// Type conversion for compatible types
	if val.Type().ConvertibleTo(field.Type()) {
		field.Set(val.Convert(field.Type()))
		return nil
	}

	return fmt.Errorf("cannot assign %T to %s", value, field.Type())
}

// =============================================================================
// HELPER FUNCTIONS
// =============================================================================

// GetAllKeys returns all configuration keys in dot notation.
func GetAllKeys() []string {
	return []string{
		"version",
		"backend.base_url",
		"backend.timeout_secs",
		"speech.api_key",
		"speech.base_url",
		"speech.synthesis_model",
		"speech.voice",
		"speech.transcription_model",
		"speech.announce",
		"speech.requests_per_minute",
		"storage.enabled",
		"storage.db_path",
		"ui.show_timestamps",
		"ui.compact_mode",
		"ui.max_list_items",
	}
}

// Clone creates a copy of the configuration.
func (c *Config) Clone() *Config {
	clone := *c
	return &clone
}

// String returns a string representation of the config for debugging.
// Redacts the speech API key so it never lands in logs or error output.
func (c *Config) String() string {
	safe := c.Clone()
	if safe.Speech.APIKey != "" {
		safe.Speech.APIKey = "[REDACTED]"
	}

	data, _ := json.MarshalIndent(safe, "", "  ")
	return string(data)
}

// =============================================================================
// SINGLETON PATTERN (THREAD-SAFE)
// =============================================================================

var (
	globalConfig     *Config
	globalConfigOnce sync.Once
	globalConfigMu   sync.RWMutex
)

// Global returns the global configuration instance.
// Loads configuration on first access. Thread-safe.
func Global() *Config {
	globalConfigOnce.Do(func() {
		cfg, err := Load()
		if err != nil {
			// Use defaults rather than failing startup.
			fmt.Fprintf(os.Stderr, "Warning: %v (using defaults)\n", err)
		}
		globalConfig = cfg
	})

	globalConfigMu.RLock()
	defer globalConfigMu.RUnlock()
	return globalConfig
}

// ReloadGlobal reloads the global configuration from disk. Thread-safe.
func ReloadGlobal() error {
	cfg, err := Load()
	if err != nil {
		return err
	}
	globalConfigMu.Lock()
	defer globalConfigMu.Unlock()
	globalConfig = cfg
	return nil
}

// SetGlobal sets the global configuration instance. Thread-safe.
func SetGlobal(cfg *Config) {
	globalConfigMu.Lock()
	defer globalConfigMu.Unlock()
	globalConfig = cfg
}

// ResetGlobalForTesting resets the global config state for testing.
// This should only be used in tests to reset state between test runs.
func ResetGlobalForTesting() {
	globalConfigMu.Lock()
	defer globalConfigMu.Unlock()
	globalConfig = nil
	globalConfigOnce = sync.Once{}
}
