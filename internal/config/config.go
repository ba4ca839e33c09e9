// Package config handles repository configuration.
package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"time"

	"github.com/matsen/episodegraph/internal/crawl"
)

// Config represents repository configuration stored in .episodegraph/config.json.
type Config struct {
	SiteURL              string      `json:"site_url"`             // Episode site root, used by the same-site filter
	EpisodeURLTemplate   string      `json:"episode_url_template"` // e.g. https://example.fm/episodes/%d
	FirstEpisode         int         `json:"first_episode"`
	LastEpisode          int         `json:"last_episode"`
	GraphFile            string      `json:"graph_file,omitempty"`    // Default DOT output path
	NotesDir             string      `json:"notes_dir,omitempty"`     // Default notes output directory
	RenderFormat         string      `json:"render_format,omitempty"` // Graphviz -T format; empty skips rendering
	SameSiteOnly         bool        `json:"same_site_only"`
	ResolveRelativeLinks bool        `json:"resolve_relative_links"`
	Fetch                FetchConfig `json:"fetch"`
}

// FetchConfig tunes the page fetcher.
type FetchConfig struct {
	RateLimit      float64 `json:"rate_limit"` // requests per second
	MaxRetries     int     `json:"max_retries"`
	BackoffMS      int     `json:"backoff_ms"`
	TimeoutSeconds int     `json:"timeout_seconds"`
	Concurrency    int     `json:"concurrency"`
	UserAgent      string  `json:"user_agent,omitempty"`
	CacheSize      int     `json:"cache_size"`
}

const (
	EpisodeGraphDir = ".episodegraph"
	ConfigFile      = "config.json"
	EpisodesFile    = "episodes.jsonl"
	CacheDir        = "cache"
	DBFile          = "episodes.db"

	DefaultGraphFile = "episodes.dot"
	DefaultNotesDir  = "notes"
)

// ValidRenderFormats lists the Graphviz output formats accepted by render_format.
var ValidRenderFormats = []string{"svg", "png", "pdf", "jpg", "gif", "ps"}

// ErrNotRepository is returned when no .episodegraph directory is found.
var ErrNotRepository = errors.New("not in an episodegraph repository (no .episodegraph directory found)")

// Default returns a configuration with fetch defaults filled in. Relative
// links are resolved so same-site references match episode URLs.
func Default() *Config {
	return &Config{
		GraphFile:            DefaultGraphFile,
		NotesDir:             DefaultNotesDir,
		SameSiteOnly:         true,
		ResolveRelativeLinks: true,
		Fetch:                DefaultFetchConfig(),
	}
}

// DefaultFetchConfig returns the fetcher defaults.
func DefaultFetchConfig() FetchConfig {
	return FetchConfig{
		RateLimit:      2,
		MaxRetries:     3,
		BackoffMS:      500,
		TimeoutSeconds: 30,
		Concurrency:    crawl.DefaultConcurrency,
		CacheSize:      256,
	}
}

// Backoff returns the base retry backoff.
func (f FetchConfig) Backoff() time.Duration {
	return time.Duration(f.BackoffMS) * time.Millisecond
}

// Timeout returns the per-request timeout.
func (f FetchConfig) Timeout() time.Duration {
	return time.Duration(f.TimeoutSeconds) * time.Second
}

// withDefaults fills zero-valued fetch fields from DefaultFetchConfig.
func (f FetchConfig) withDefaults() FetchConfig {
	d := DefaultFetchConfig()
	if f.RateLimit <= 0 {
		f.RateLimit = d.RateLimit
	}
	if f.MaxRetries < 0 {
		f.MaxRetries = d.MaxRetries
	}
	if f.BackoffMS <= 0 {
		f.BackoffMS = d.BackoffMS
	}
	if f.TimeoutSeconds <= 0 {
		f.TimeoutSeconds = d.TimeoutSeconds
	}
	if f.Concurrency <= 0 {
		f.Concurrency = d.Concurrency
	}
	if f.CacheSize < 0 {
		f.CacheSize = d.CacheSize
	}
	return f
}

// EpisodeGraphPath returns the path to the .episodegraph directory from a root path.
func EpisodeGraphPath(root string) string {
	return filepath.Join(root, EpisodeGraphDir)
}

// ConfigPath returns the path to config.json from a root path.
func ConfigPath(root string) string {
	return filepath.Join(root, EpisodeGraphDir, ConfigFile)
}

// EpisodesPath returns the path to episodes.jsonl from a root path.
func EpisodesPath(root string) string {
	return filepath.Join(root, EpisodeGraphDir, EpisodesFile)
}

// CachePath returns the path to the cache directory from a root path.
func CachePath(root string) string {
	return filepath.Join(root, EpisodeGraphDir, CacheDir)
}

// DBPath returns the path to episodes.db from a root path.
func DBPath(root string) string {
	return filepath.Join(root, EpisodeGraphDir, CacheDir, DBFile)
}

// IsRepository checks if the given path contains an episodegraph repository.
func IsRepository(root string) bool {
	info, err := os.Stat(EpisodeGraphPath(root))
	return err == nil && info.IsDir()
}

// FindRepository walks up from the given path to find an episodegraph repository.
// Returns the repository root path or ErrNotRepository.
func FindRepository(start string) (string, error) {
	abs, err := filepath.Abs(start)
	if err != nil {
		return "", fmt.Errorf("resolving path: %w", err)
	}

	for {
		if IsRepository(abs) {
			return abs, nil
		}

		parent := filepath.Dir(abs)
		if parent == abs {
			return "", ErrNotRepository
		}
		abs = parent
	}
}

// Load reads configuration from the repository at the given root.
// Missing fetch settings are filled with defaults.
func Load(root string) (*Config, error) {
	data, err := os.ReadFile(ConfigPath(root))
	if err != nil {
		return nil, fmt.Errorf("reading config: %w", err)
	}

	cfg := Default()
	if err := json.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	cfg.Fetch = cfg.Fetch.withDefaults()

	return cfg, nil
}

// Save writes configuration to the repository at the given root.
func (c *Config) Save(root string) error {
	data, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return fmt.Errorf("encoding config: %w", err)
	}

	if err := os.WriteFile(ConfigPath(root), data, 0644); err != nil {
		return fmt.Errorf("writing config: %w", err)
	}

	return nil
}

// Validate checks the fields needed to crawl.
func (c *Config) Validate() error {
	if err := ValidateSiteURL(c.SiteURL); err != nil {
		return err
	}
	if c.EpisodeURLTemplate == "" {
		return errors.New("episode_url_template is not set")
	}
	if err := crawl.ValidateTemplate(c.EpisodeURLTemplate); err != nil {
		return fmt.Errorf("episode_url_template %q: %w", c.EpisodeURLTemplate, err)
	}
	if err := ValidateRange(c.FirstEpisode, c.LastEpisode); err != nil {
		return err
	}
	return ValidateRenderFormat(c.RenderFormat)
}

// ValidateSiteURL checks that the site URL is an absolute http(s) URL.
func ValidateSiteURL(raw string) error {
	if raw == "" {
		return errors.New("site_url is not set")
	}
	u, err := url.Parse(raw)
	if err != nil {
		return fmt.Errorf("invalid site_url: %w", err)
	}
	if (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return fmt.Errorf("invalid site_url: %s (must be an absolute http or https URL)", raw)
	}
	return nil
}

// ValidateRange checks that episode numbers are positive and ordered.
func ValidateRange(first, last int) error {
	if first < 1 {
		return fmt.Errorf("first_episode must be >= 1, got %d", first)
	}
	if last < first {
		return fmt.Errorf("last_episode (%d) must not be below first_episode (%d)", last, first)
	}
	return nil
}

// ValidateRenderFormat checks that the render format is supported.
func ValidateRenderFormat(format string) error {
	if format == "" {
		return nil // Empty means no rendering
	}

	for _, valid := range ValidRenderFormats {
		if format == valid {
			return nil
		}
	}

	return fmt.Errorf("invalid render_format: %s (valid: %v)", format, ValidRenderFormats)
}

// ResolvePath returns p relative to the repository root unless it is absolute.
// A leading ~ is expanded first.
func ResolvePath(root, p string) string {
	p = ExpandPath(p)
	if filepath.IsAbs(p) {
		return p
	}
	return filepath.Join(root, p)
}

// ExpandPath expands ~ to the user's home directory.
// Returns the original path unchanged if it doesn't start with ~.
func ExpandPath(path string) string {
	if len(path) == 0 || path[0] != '~' {
		return path
	}

	home, err := os.UserHomeDir()
	if err != nil {
		return path // Return original if we can't get home directory
	}

	return filepath.Join(home, path[1:])
}
