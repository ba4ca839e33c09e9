package config

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// GlobalConfig represents configuration stored in ~/.config/epg/config.yml.
type GlobalConfig struct {
	DefaultRepo string `yaml:"default_repo,omitempty"`
	UserAgent   string `yaml:"user_agent,omitempty"`
	LogLevel    string `yaml:"log_level,omitempty"`
}

const (
	// GlobalConfigDir is the directory name under XDG_CONFIG_HOME.
	GlobalConfigDir = "epg"
	// GlobalConfigFile is the config file name.
	GlobalConfigFile = "config.yml"

	// EnvLogLevel overrides log_level.
	EnvLogLevel = "EPG_LOG_LEVEL"
	// EnvUserAgent overrides user_agent.
	EnvUserAgent = "EPG_USER_AGENT"
)

// globalConfigCache caches the loaded global config.
var globalConfigCache *GlobalConfig

// GlobalConfigPath returns the path to the global config file.
// Respects XDG_CONFIG_HOME, defaults to ~/.config/epg/config.yml.
func GlobalConfigPath() string {
	configHome := os.Getenv("XDG_CONFIG_HOME")
	if configHome == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return ""
		}
		configHome = filepath.Join(home, ".config")
	}
	return filepath.Join(configHome, GlobalConfigDir, GlobalConfigFile)
}

// LoadGlobalConfig loads the global configuration file and applies
// environment overrides. Returns an empty config (not an error) if the
// file doesn't exist.
func LoadGlobalConfig() (*GlobalConfig, error) {
	if globalConfigCache != nil {
		return globalConfigCache, nil
	}

	var cfg GlobalConfig
	if path := GlobalConfigPath(); path != "" {
		data, err := os.ReadFile(path)
		if err != nil && !os.IsNotExist(err) {
			return nil, fmt.Errorf("reading global config: %w", err)
		}
		if err == nil {
			if err := yaml.Unmarshal(data, &cfg); err != nil {
				return nil, fmt.Errorf("parsing global config: %w", err)
			}
		}
	}

	if cfg.DefaultRepo != "" {
		cfg.DefaultRepo = ExpandPath(cfg.DefaultRepo)
	}
	if v := os.Getenv(EnvLogLevel); v != "" {
		cfg.LogLevel = v
	}
	if v := os.Getenv(EnvUserAgent); v != "" {
		cfg.UserAgent = v
	}

	globalConfigCache = &cfg
	return &cfg, nil
}

// ResetGlobalConfigCache clears the cached global config.
// Useful for testing.
func ResetGlobalConfigCache() {
	globalConfigCache = nil
}

// GetLogLevel returns the configured log level, or "" if unset.
func GetLogLevel() string {
	cfg, err := LoadGlobalConfig()
	if err != nil {
		return ""
	}
	return cfg.LogLevel
}

// GetUserAgent returns the configured User-Agent, or "" if unset.
func GetUserAgent() string {
	cfg, err := LoadGlobalConfig()
	if err != nil {
		return ""
	}
	return cfg.UserAgent
}

// GetDefaultRepo returns default_repo when it points at a repository.
func GetDefaultRepo() (string, bool) {
	cfg, err := LoadGlobalConfig()
	if err != nil || cfg.DefaultRepo == "" {
		return "", false
	}
	if !IsRepository(cfg.DefaultRepo) {
		return "", false
	}
	return cfg.DefaultRepo, true
}

// HelpfulConfigMessage returns a hint shown when no repository is found.
func HelpfulConfigMessage() string {
	configPath := GlobalConfigPath()
	return fmt.Sprintf(`No episodegraph repository found.

Run 'epg init' in a directory, or create %s to set a default:
  mkdir -p %s
  echo 'default_repo: /path/to/your/repo' > %s`,
		configPath,
		filepath.Dir(configPath),
		configPath)
}
