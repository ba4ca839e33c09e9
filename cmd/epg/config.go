package main

import (
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/matsen/episodegraph/internal/config"
	"github.com/matsen/episodegraph/internal/crawl"
	"github.com/spf13/cobra"
)

func init() {
	rootCmd.AddCommand(configCmd)
}

var configCmd = &cobra.Command{
	Use:   "config [key] [value]",
	Short: "Get or set configuration values",
	Long: `Get or set repository configuration values.

Usage:
  epg config                                   # Show all config
  epg config site-url                          # Get specific value
  epg config site-url https://example.fm       # Set value
  epg config fetch.rate-limit 0.5              # Set a fetch setting

Keys use dashes or underscores interchangeably.`,
	Args: cobra.MaximumNArgs(2),
	RunE: runConfig,
}

// configKey describes one settable configuration key.
type configKey struct {
	get func(*config.Config) string
	set func(*config.Config, string) error
}

func intSetter(dst func(*config.Config) *int, min int) func(*config.Config, string) error {
	return func(c *config.Config, v string) error {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("expected an integer, got %q", v)
		}
		if n < min {
			return fmt.Errorf("must be >= %d, got %d", min, n)
		}
		*dst(c) = n
		return nil
	}
}

func boolSetter(dst func(*config.Config) *bool) func(*config.Config, string) error {
	return func(c *config.Config, v string) error {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("expected true or false, got %q", v)
		}
		*dst(c) = b
		return nil
	}
}

// configKeys maps normalized key names to accessors.
var configKeys = map[string]configKey{
	"site-url": {
		get: func(c *config.Config) string { return c.SiteURL },
		set: func(c *config.Config, v string) error {
			if err := config.ValidateSiteURL(v); err != nil {
				return err
			}
			c.SiteURL = v
			return nil
		},
	},
	"episode-url-template": {
		get: func(c *config.Config) string { return c.EpisodeURLTemplate },
		set: func(c *config.Config, v string) error {
			if err := crawl.ValidateTemplate(v); err != nil {
				return err
			}
			c.EpisodeURLTemplate = v
			return nil
		},
	},
	"first-episode": {
		get: func(c *config.Config) string { return strconv.Itoa(c.FirstEpisode) },
		set: intSetter(func(c *config.Config) *int { return &c.FirstEpisode }, 1),
	},
	"last-episode": {
		get: func(c *config.Config) string { return strconv.Itoa(c.LastEpisode) },
		set: intSetter(func(c *config.Config) *int { return &c.LastEpisode }, 1),
	},
	"graph-file": {
		get: func(c *config.Config) string { return c.GraphFile },
		set: func(c *config.Config, v string) error { c.GraphFile = v; return nil },
	},
	"notes-dir": {
		get: func(c *config.Config) string { return c.NotesDir },
		set: func(c *config.Config, v string) error { c.NotesDir = v; return nil },
	},
	"render-format": {
		get: func(c *config.Config) string { return c.RenderFormat },
		set: func(c *config.Config, v string) error {
			if err := config.ValidateRenderFormat(v); err != nil {
				return err
			}
			c.RenderFormat = v
			return nil
		},
	},
	"same-site-only": {
		get: func(c *config.Config) string { return strconv.FormatBool(c.SameSiteOnly) },
		set: boolSetter(func(c *config.Config) *bool { return &c.SameSiteOnly }),
	},
	"resolve-relative-links": {
		get: func(c *config.Config) string { return strconv.FormatBool(c.ResolveRelativeLinks) },
		set: boolSetter(func(c *config.Config) *bool { return &c.ResolveRelativeLinks }),
	},
	"fetch.rate-limit": {
		get: func(c *config.Config) string { return strconv.FormatFloat(c.Fetch.RateLimit, 'g', -1, 64) },
		set: func(c *config.Config, v string) error {
			f, err := strconv.ParseFloat(v, 64)
			if err != nil || f <= 0 {
				return fmt.Errorf("expected a positive number, got %q", v)
			}
			c.Fetch.RateLimit = f
			return nil
		},
	},
	"fetch.max-retries": {
		get: func(c *config.Config) string { return strconv.Itoa(c.Fetch.MaxRetries) },
		set: intSetter(func(c *config.Config) *int { return &c.Fetch.MaxRetries }, 0),
	},
	"fetch.backoff-ms": {
		get: func(c *config.Config) string { return strconv.Itoa(c.Fetch.BackoffMS) },
		set: intSetter(func(c *config.Config) *int { return &c.Fetch.BackoffMS }, 1),
	},
	"fetch.timeout-seconds": {
		get: func(c *config.Config) string { return strconv.Itoa(c.Fetch.TimeoutSeconds) },
		set: intSetter(func(c *config.Config) *int { return &c.Fetch.TimeoutSeconds }, 1),
	},
	"fetch.concurrency": {
		get: func(c *config.Config) string { return strconv.Itoa(c.Fetch.Concurrency) },
		set: intSetter(func(c *config.Config) *int { return &c.Fetch.Concurrency }, 1),
	},
	"fetch.user-agent": {
		get: func(c *config.Config) string { return c.Fetch.UserAgent },
		set: func(c *config.Config, v string) error { c.Fetch.UserAgent = v; return nil },
	},
	"fetch.cache-size": {
		get: func(c *config.Config) string { return strconv.Itoa(c.Fetch.CacheSize) },
		set: intSetter(func(c *config.Config) *int { return &c.Fetch.CacheSize }, 0),
	},
}

// normalizeKey lower-cases a key and maps underscores to dashes.
func normalizeKey(key string) string {
	return strings.ReplaceAll(strings.ToLower(strings.TrimSpace(key)), "_", "-")
}

// configValues returns every key with its current value.
func configValues(cfg *config.Config) map[string]string {
	values := make(map[string]string, len(configKeys))
	for name, k := range configKeys {
		values[name] = k.get(cfg)
	}
	return values
}

func runConfig(cmd *cobra.Command, args []string) error {
	repoRoot := mustFindRepository()
	cfg := mustLoadConfig(repoRoot)

	// No args: show all config
	if len(args) == 0 {
		values := configValues(cfg)
		if humanOutput {
			names := make([]string, 0, len(values))
			for name := range values {
				names = append(names, name)
			}
			sort.Strings(names)
			for _, name := range names {
				fmt.Printf("%-24s %s\n", name+":", values[name])
			}
		} else {
			outputJSON(values)
		}
		return nil
	}

	key := normalizeKey(args[0])
	k, ok := configKeys[key]
	if !ok {
		exitWithError(ExitError, "unknown configuration key: %s", args[0])
	}

	// One arg: get specific value
	if len(args) == 1 {
		if humanOutput {
			fmt.Println(k.get(cfg))
		} else {
			outputJSON(map[string]string{key: k.get(cfg)})
		}
		return nil
	}

	// Two args: set value
	value := args[1]
	if err := k.set(cfg, value); err != nil {
		exitWithError(ExitConfigError, "%s: %v", key, err)
	}

	if err := cfg.Save(repoRoot); err != nil {
		exitWithError(ExitError, "saving config: %v", err)
	}

	if humanOutput {
		fmt.Printf("Set %s = %s\n", key, value)
	} else {
		outputJSON(UpdateResponse{
			Status: "updated",
			Key:    key,
			Value:  value,
		})
	}

	return nil
}
