// Package config loads epochctl's layered JSONC configuration.
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/tailscale/hujson"
)

// Config holds all configuration options.
type Config struct {
	TableSize          int    `json:"table_size"`                    //nolint:tagliatelle // snake_case for config file
	CheckpointInterval string `json:"checkpoint_interval,omitempty"` //nolint:tagliatelle
	WALPath            string `json:"wal_path,omitempty"`            //nolint:tagliatelle
	LogLevel           string `json:"log_level,omitempty"`           //nolint:tagliatelle
	LogFormat          string `json:"log_format,omitempty"`          //nolint:tagliatelle
}

// Sources tracks which config files were loaded.
type Sources struct {
	Global  string // Path to global config if loaded, empty otherwise
	Project string // Path to project config if loaded, empty otherwise
}

// FileName is the default project config file name.
const FileName = ".epochctl.json"

// DefaultConfig returns the default configuration.
func DefaultConfig() Config {
	return Config{
		TableSize:          128,
		CheckpointInterval: "30s",
		LogLevel:           "info",
		LogFormat:          "console",
	}
}

// CheckpointIntervalDuration parses CheckpointInterval, falling back to the
// default if empty.
func (c Config) CheckpointIntervalDuration() (time.Duration, error) {
	if c.CheckpointInterval == "" {
		return 30 * time.Second, nil
	}

	return time.ParseDuration(c.CheckpointInterval)
}

// getGlobalConfigPath returns the path to the global config file.
// Uses $XDG_CONFIG_HOME/epochctl/config.json if set, otherwise
// ~/.config/epochctl/config.json. Returns empty string if the home
// directory cannot be determined.
func getGlobalConfigPath(env []string) string {
	for _, e := range env {
		if after, ok := strings.CutPrefix(e, "XDG_CONFIG_HOME="); ok {
			return filepath.Join(after, "epochctl", "config.json")
		}
	}

	if xdgConfig := os.Getenv("XDG_CONFIG_HOME"); xdgConfig != "" {
		return filepath.Join(xdgConfig, "epochctl", "config.json")
	}

	home, err := os.UserHomeDir()
	if err == nil {
		return filepath.Join(home, ".config", "epochctl", "config.json")
	}

	return ""
}

// Load loads configuration with the following precedence (highest wins):
//  1. Defaults
//  2. Global user config (~/.config/epochctl/config.json or
//     $XDG_CONFIG_HOME/epochctl/config.json)
//  3. Project config: the explicit file at configPath if non-empty (it
//     must exist), otherwise .epochctl.json in workDir if it exists. The
//     two are never both loaded: an explicit path replaces the default
//     project file.
//  4. CLI overrides.
func Load(workDir, configPath string, cliOverrides Config, hasTableSizeOverride bool, env []string) (Config, Sources, error) {
	cfg := DefaultConfig()

	var sources Sources

	globalCfg, globalPath, err := loadGlobalConfig(env)
	if err != nil {
		return Config{}, Sources{}, err
	}

	sources.Global = globalPath
	cfg = mergeConfig(cfg, globalCfg)

	projectCfg, projectPath, err := loadProjectConfig(workDir, configPath)
	if err != nil {
		return Config{}, Sources{}, err
	}

	sources.Project = projectPath
	cfg = mergeConfig(cfg, projectCfg)

	if hasTableSizeOverride {
		cfg.TableSize = cliOverrides.TableSize
	}

	if err := validateConfig(cfg); err != nil {
		return Config{}, Sources{}, err
	}

	return cfg, sources, nil
}

func loadGlobalConfig(env []string) (Config, string, error) {
	globalCfgPath := getGlobalConfigPath(env)
	if globalCfgPath == "" {
		return Config{}, "", nil
	}

	globalCfg, explicitZero, loaded, err := loadConfigFile(globalCfgPath, false)
	if err != nil {
		return Config{}, "", err
	}

	if !loaded {
		return Config{}, "", nil
	}

	if explicitZero["table_size"] {
		return Config{}, "", fmt.Errorf("%w %s: table_size cannot be zero", ErrConfigInvalid, globalCfgPath)
	}

	return globalCfg, globalCfgPath, nil
}

func loadProjectConfig(workDir, configPath string) (Config, string, error) {
	var cfgFile string

	var mustExist bool

	if configPath != "" {
		cfgFile = configPath
		if !filepath.IsAbs(cfgFile) {
			cfgFile = filepath.Join(workDir, cfgFile)
		}

		mustExist = true

		if _, statErr := os.Stat(cfgFile); statErr != nil {
			return Config{}, "", fmt.Errorf("%w: %s", ErrConfigFileNotFound, configPath)
		}
	} else {
		cfgFile = filepath.Join(workDir, FileName)
		mustExist = false
	}

	fileCfg, explicitZero, loaded, err := loadConfigFile(cfgFile, mustExist)
	if err != nil {
		return Config{}, "", err
	}

	if !loaded {
		return Config{}, "", nil
	}

	if explicitZero["table_size"] {
		return Config{}, "", fmt.Errorf("%w %s: table_size cannot be zero", ErrConfigInvalid, cfgFile)
	}

	return fileCfg, cfgFile, nil
}

// loadConfigFile loads a config file. If mustExist is false, missing files
// return a zero config. Returns the config, a set of fields explicitly
// written as the zero value, whether the file was loaded, and any error.
func loadConfigFile(path string, mustExist bool) (Config, map[string]bool, bool, error) {
	data, err := os.ReadFile(path) //nolint:gosec // path is intentionally caller-controlled
	if err != nil {
		if os.IsNotExist(err) && !mustExist {
			return Config{}, nil, false, nil
		}

		if mustExist {
			return Config{}, nil, false, fmt.Errorf("%w: %s", ErrConfigFileRead, path)
		}

		return Config{}, nil, false, nil
	}

	cfg, explicitZero, parseErr := parseConfig(data)
	if parseErr != nil {
		return Config{}, nil, false, fmt.Errorf("%w %s: %w", ErrConfigInvalid, path, parseErr)
	}

	return cfg, explicitZero, true, nil
}

func parseConfig(data []byte) (Config, map[string]bool, error) {
	standardized, err := hujson.Standardize(data)
	if err != nil {
		return Config{}, nil, fmt.Errorf("invalid JSONC: %w", err)
	}

	var cfg Config

	if err := json.Unmarshal(standardized, &cfg); err != nil {
		return Config{}, nil, fmt.Errorf("invalid JSON: %w", err)
	}

	var raw map[string]any

	_ = json.Unmarshal(standardized, &raw)

	explicitZero := make(map[string]bool)

	if val, exists := raw["table_size"]; exists {
		if n, ok := val.(float64); ok && n == 0 {
			explicitZero["table_size"] = true
		}
	}

	return cfg, explicitZero, nil
}

func mergeConfig(base, overlay Config) Config {
	if overlay.TableSize != 0 {
		base.TableSize = overlay.TableSize
	}

	if overlay.CheckpointInterval != "" {
		base.CheckpointInterval = overlay.CheckpointInterval
	}

	if overlay.WALPath != "" {
		base.WALPath = overlay.WALPath
	}

	if overlay.LogLevel != "" {
		base.LogLevel = overlay.LogLevel
	}

	if overlay.LogFormat != "" {
		base.LogFormat = overlay.LogFormat
	}

	return base
}

func validateConfig(cfg Config) error {
	if cfg.TableSize <= 0 || cfg.TableSize > 32768 || cfg.TableSize&(cfg.TableSize-1) != 0 {
		return ErrTableSizeInvalid
	}

	if _, err := cfg.CheckpointIntervalDuration(); err != nil {
		return fmt.Errorf("%w: checkpoint_interval: %w", ErrConfigInvalid, err)
	}

	return nil
}

// Format returns the config as formatted JSON.
func Format(cfg Config) (string, error) {
	data, err := json.MarshalIndent(cfg, "", "  ")
	if err != nil {
		return "", fmt.Errorf("failed to format config: %w", err)
	}

	return string(data), nil
}
