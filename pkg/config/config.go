/*
Package config manages TOML config for fillserve.

Every section has builtin defaults. A file that fails to decode as a whole
is parsed again section by section, so one bad value only resets itself.
*/
package config

import (
	"encoding/hex"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/bastiangx/fillserve/internal/utils"
	"github.com/bastiangx/fillserve/pkg/field"
	"github.com/bastiangx/fillserve/pkg/fuzzy"
	"github.com/bastiangx/fillserve/pkg/sequence"
	"github.com/charmbracelet/log"
)

// Config holds the entire config structure
type Config struct {
	Model      ModelConfig      `toml:"model"`
	Classifier ClassifierConfig `toml:"classifier"`
	Store      StoreConfig      `toml:"store"`
	Server     ServerConfig     `toml:"server"`
	CLI        CliConfig        `toml:"cli"`
}

// ModelConfig holds the learning limits.
type ModelConfig struct {
	HistorySize  int      `toml:"history_size"`
	MaxLinks     int      `toml:"max_links"`
	MinLength    int      `toml:"min_length"`
	SuggestLimit int      `toml:"suggest_limit"`
	Related      []string `toml:"related"`
}

// ClassifierConfig holds field classification options.
type ClassifierConfig struct {
	Threshold     float64 `toml:"threshold"`
	WeakThreshold float64 `toml:"weak_threshold"`
	Scorer        string  `toml:"scorer"`
}

// StoreConfig selects where learned data lives.
type StoreConfig struct {
	// Backend is one of memory, file, sqlite
	Backend string `toml:"backend"`
	// Path is a directory for file, a database file for sqlite.
	// Relative paths resolve against the state dir.
	Path    string `toml:"path"`
	Encrypt bool   `toml:"encrypt"`
	// Key is a hex encoded 32 byte key; empty generates one on first use
	Key string `toml:"key"`
}

// ServerConfig has server related options.
type ServerConfig struct {
	MaxValueLen int `toml:"max_value_len"`
	MaxLimit    int `toml:"max_limit"`
}

// CliConfig holds cli interface options.
type CliConfig struct {
	DefaultLimit int    `toml:"default_limit"`
	Prompt       string `toml:"prompt"`
}

// GetConfigDir returns the config directory with fallback priority:
// 1. ~/.config/
// 2. ~/Library/Application Support/ (macOS)
// 3. Current executable dir
func GetConfigDir() (string, error) {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		log.Errorf("Failed to get home directory: %v", err)
		return utils.GetExecutableDir()
	}
	primaryPath := filepath.Join(homeDir, ".config", "fillserve")
	if result := utils.CheckDirStatus(primaryPath); result.Writable {
		return primaryPath, nil
	}
	macOSPath := filepath.Join(homeDir, "Library", "Application Support", "fillserve")
	if result := utils.CheckDirStatus(macOSPath); result.Writable {
		return macOSPath, nil
	}
	execDir, err := utils.GetExecutableDir()
	if err != nil {
		log.Errorf("Failed to get executable directory: %v", err)
		return "", err
	}
	return execDir, nil
}

// GetDefaultConfigPath returns the default path for config.toml
func GetDefaultConfigPath() (string, error) {
	configDir, err := GetConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(configDir, "config.toml"), nil
}

// LoadConfigWithPriority loads config with priority:
// 1. Custom path from --config flag
// 2. Default path: [UserConfigDir]/fillserve/config.toml
// 3. Builtin defaults
func LoadConfigWithPriority(customConfigPath string) (*Config, string, error) {
	if customConfigPath != "" {
		if _, statErr := os.Stat(customConfigPath); statErr == nil {
			config, err := LoadConfig(customConfigPath)
			if err != nil {
				log.Warnf("Failed to load custom config from %s: %v. Trying default path...", customConfigPath, err)
			} else {
				log.Debugf("Loaded config from custom path: %s", customConfigPath)
				return config, customConfigPath, nil
			}
		} else {
			log.Warnf("Custom config file not found at %s: %v. Trying default path...", customConfigPath, statErr)
		}
	}
	defaultPath, err := GetDefaultConfigPath()
	if err != nil {
		log.Warnf("Failed to determine default config path: %v. Using built-in defaults...", err)
		return DefaultConfig(), "", nil
	}

	config, err := InitConfig(defaultPath)
	if err != nil {
		log.Warnf("Failed to load/create config at default path %s: %v. Using builtin defaults...", defaultPath, err)
		return DefaultConfig(), "", nil
	}
	log.Debugf("Loaded config from default path: %s", defaultPath)
	return config, defaultPath, nil
}

// DefaultConfig returns a Config with default values.
func DefaultConfig() *Config {
	model := sequence.DefaultConfig()
	related := make([]string, 0, len(model.Related))
	for _, t := range model.Related {
		related = append(related, t.String())
	}
	return &Config{
		Model: ModelConfig{
			HistorySize:  model.HistorySize,
			MaxLinks:     model.MaxLinks,
			MinLength:    model.MinLength,
			SuggestLimit: model.SuggestLimit,
			Related:      related,
		},
		Classifier: ClassifierConfig{
			Threshold:     field.DefaultThreshold,
			WeakThreshold: field.DefaultWeakThreshold,
			Scorer:        "dice",
		},
		Store: StoreConfig{
			Backend: "file",
			Path:    "state",
			Encrypt: true,
		},
		Server: ServerConfig{
			MaxValueLen: 256,
			MaxLimit:    64,
		},
		CLI: CliConfig{
			DefaultLimit: 5,
			Prompt:       "fill> ",
		},
	}
}

// InitConfig loads config from file or creates default if missing
func InitConfig(configPath string) (*Config, error) {
	configDir := filepath.Dir(configPath)

	if err := utils.EnsureDir(configDir); err != nil {
		log.Warnf("Failed to create config directory %s: %v. Using built-in defaults...", configDir, err)
		return DefaultConfig(), nil
	}

	if !utils.FileExists(configPath) {
		config := DefaultConfig()
		if err := SaveConfig(config, configPath); err != nil {
			log.Warnf("Failed to create default config file at %s: %v. Using built-in defaults...", configPath, err)
			return DefaultConfig(), nil
		}
		log.Debugf("Created default config file at: %s", configPath)
		return config, nil
	}

	config, err := LoadConfig(configPath)
	if err != nil {
		log.Warnf("Failed to load config from %s: %v. Using built-in defaults...", configPath, err)
		return DefaultConfig(), nil
	}
	return config, nil
}

// LoadConfig loads from a TOML file
func LoadConfig(configPath string) (*Config, error) {
	config := DefaultConfig()

	if err := utils.LoadTOMLFile(configPath, config); err != nil {
		return tryPartialParse(configPath)
	}
	return config, nil
}

// tryPartialParse attempts to parse a TOML file
func tryPartialParse(configPath string) (*Config, error) {
	config := DefaultConfig()

	tempConfig, err := utils.ParseTOMLWithRecovery(configPath)
	if err != nil {
		log.Warnf("Could not parse any valid configuration from %s: %v. Using all defaults.", configPath, err)
		return config, nil
	}

	if section, ok := utils.ExtractSection(tempConfig, "model"); ok {
		extractModelConfig(section, &config.Model)
	}
	if section, ok := utils.ExtractSection(tempConfig, "classifier"); ok {
		extractClassifierConfig(section, &config.Classifier)
	}
	if section, ok := utils.ExtractSection(tempConfig, "store"); ok {
		extractStoreConfig(section, &config.Store)
	}
	if section, ok := utils.ExtractSection(tempConfig, "server"); ok {
		extractServerConfig(section, &config.Server)
	}
	if section, ok := utils.ExtractSection(tempConfig, "cli"); ok {
		extractCliConfig(section, &config.CLI)
	}
	return config, nil
}

func extractModelConfig(data map[string]any, model *ModelConfig) {
	if val, ok := utils.ExtractInt64(data, "history_size"); ok {
		model.HistorySize = val
	}
	if val, ok := utils.ExtractInt64(data, "max_links"); ok {
		model.MaxLinks = val
	}
	if val, ok := utils.ExtractInt64(data, "min_length"); ok {
		model.MinLength = val
	}
	if val, ok := utils.ExtractInt64(data, "suggest_limit"); ok {
		model.SuggestLimit = val
	}
	if val, ok := utils.ExtractStrings(data, "related"); ok {
		model.Related = val
	}
}

func extractClassifierConfig(data map[string]any, c *ClassifierConfig) {
	if val, ok := utils.ExtractFloat(data, "threshold"); ok {
		c.Threshold = val
	}
	if val, ok := utils.ExtractFloat(data, "weak_threshold"); ok {
		c.WeakThreshold = val
	}
	if val, ok := utils.ExtractString(data, "scorer"); ok {
		c.Scorer = val
	}
}

func extractStoreConfig(data map[string]any, st *StoreConfig) {
	if val, ok := utils.ExtractString(data, "backend"); ok {
		st.Backend = val
	}
	if val, ok := utils.ExtractString(data, "path"); ok {
		st.Path = val
	}
	if val, ok := utils.ExtractBool(data, "encrypt"); ok {
		st.Encrypt = val
	}
	if val, ok := utils.ExtractString(data, "key"); ok {
		st.Key = val
	}
}

// extractServerConfig extracts server configuration from a map
func extractServerConfig(data map[string]any, server *ServerConfig) {
	if val, ok := utils.ExtractInt64(data, "max_value_len"); ok {
		server.MaxValueLen = val
	}
	if val, ok := utils.ExtractInt64(data, "max_limit"); ok {
		server.MaxLimit = val
	}
}

// extractCliConfig extracts CLI config from a map
func extractCliConfig(data map[string]any, cli *CliConfig) {
	if val, ok := utils.ExtractInt64(data, "default_limit"); ok {
		cli.DefaultLimit = val
	}
	if val, ok := utils.ExtractString(data, "prompt"); ok {
		cli.Prompt = val
	}
}

// RebuildConfigFile force creates a new config.toml at default
func RebuildConfigFile() (string, error) {
	defaultPath, err := GetDefaultConfigPath()
	if err != nil {
		return "", err
	}
	configDir := filepath.Dir(defaultPath)
	if err := utils.EnsureDir(configDir); err != nil {
		return "", err
	}
	return defaultPath, SaveConfig(DefaultConfig(), defaultPath)
}

// GetActiveConfigPath returns the absolute path of loaded config file
func GetActiveConfigPath(configPath string) string {
	if configPath == "" {
		if defaultPath, err := GetDefaultConfigPath(); err == nil {
			return defaultPath
		}
		return "unknown"
	}
	return utils.GetAbsolutePath(configPath)
}

// SaveConfig saves into a TOML file
func SaveConfig(config *Config, configPath string) error {
	return utils.SaveTOMLFile(config, configPath)
}

// SequenceConfig converts the [model] section for sequence.NewModel.
// Unknown related type names are skipped with a warning.
func (c *Config) SequenceConfig() sequence.Config {
	cfg := sequence.DefaultConfig()
	cfg.HistorySize = c.Model.HistorySize
	cfg.MaxLinks = c.Model.MaxLinks
	cfg.MinLength = c.Model.MinLength
	cfg.SuggestLimit = c.Model.SuggestLimit

	related := make([]field.Type, 0, len(c.Model.Related))
	for _, name := range c.Model.Related {
		t, ok := field.Parse(strings.TrimSpace(name))
		if !ok {
			log.Warnf("Ignoring unknown related field type %q", name)
			continue
		}
		related = append(related, t)
	}
	cfg.Related = related
	return cfg
}

// NewClassifier builds a classifier from the [classifier] section
func (c *Config) NewClassifier() *field.Classifier {
	return field.NewClassifier(fuzzy.ForName(c.Classifier.Scorer), c.Classifier.Threshold, c.Classifier.WeakThreshold)
}

// SealingKey decodes [store] key. An empty key returns nil so the store
// generates its own.
func (s StoreConfig) SealingKey() ([]byte, error) {
	if s.Key == "" {
		return nil, nil
	}
	key, err := hex.DecodeString(s.Key)
	if err != nil {
		return nil, fmt.Errorf("store key is not hex: %w", err)
	}
	return key, nil
}
