// Package main provides the epg CLI entry point.
package main

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/matsen/episodegraph/internal/config"
	"github.com/matsen/episodegraph/internal/episode"
	"github.com/matsen/episodegraph/internal/storage"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

// Version is set at build time via ldflags
var Version = "dev"

var (
	// humanOutput controls whether to use human-readable output
	humanOutput bool
	// logLevelFlag overrides log_level from the global config
	logLevelFlag string
	// logger is replaced in PersistentPreRunE
	logger = zap.NewNop()
)

func main() {
	// .env is optional; EPG_* variables may also come from the shell
	_ = godotenv.Load()

	err := rootCmd.Execute()
	_ = logger.Sync()
	if err != nil {
		// Print the error since we have SilenceErrors: true
		fmt.Fprintf(os.Stderr, "Error: %s\n", err)
		os.Exit(ExitError)
	}
}

var rootCmd = &cobra.Command{
	Use:   "epg",
	Short: "Episode reference graph CLI",
	Long: `epg crawls a numbered series of episode pages and builds the graph of
references between them.

Core features:
  - Polite crawling with rate limiting, retries and a circuit breaker
  - Backlink counts per page
  - Graphviz DOT export, optionally rendered with dot
  - One Markdown note per episode with [[wiki-link]] mentions

Data is stored in git-versionable JSONL with ephemeral SQLite for queries.
All commands output JSON by default; logs go to stderr.`,
	SilenceUsage:      true,
	SilenceErrors:     true,
	PersistentPreRunE: setupLogger,
}

func init() {
	rootCmd.PersistentFlags().BoolVar(&humanOutput, "human", false, "Use human-readable output instead of JSON")
	rootCmd.PersistentFlags().StringVar(&logLevelFlag, "log-level", "", "Log level: debug, info, warn, error (default from EPG_LOG_LEVEL or global config)")
	rootCmd.Version = Version
}

func setupLogger(cmd *cobra.Command, args []string) error {
	level := logLevelFlag
	if level == "" {
		level = config.GetLogLevel()
	}
	l, err := newLogger(level)
	if err != nil {
		return err
	}
	logger = l
	return nil
}

// getStartingDirectory returns the directory to start searching for a repository.
func getStartingDirectory() (string, int) {
	cwd, err := os.Getwd()
	if err != nil {
		return "", outputError(ExitError, "getting current directory: %v", err)
	}
	return cwd, 0
}

// mustFindRepository finds and validates the repository, exits on error.
// Falls back to default_repo from the global config.
func mustFindRepository() string {
	start, exitCode := getStartingDirectory()
	if exitCode != 0 {
		os.Exit(exitCode)
	}

	repoRoot, err := config.FindRepository(start)
	if err == nil {
		return repoRoot
	}
	if root, ok := config.GetDefaultRepo(); ok {
		return root
	}

	fmt.Fprintln(os.Stderr, config.HelpfulConfigMessage())
	os.Exit(ExitConfigError)
	return ""
}

// mustOpenDatabase opens the SQLite database, exits on error.
// The caller is responsible for calling Close() on the returned DB.
func mustOpenDatabase(repoRoot string) *storage.DB {
	if err := os.MkdirAll(config.CachePath(repoRoot), 0755); err != nil {
		exitWithError(ExitError, "creating cache directory: %v", err)
	}
	db, err := storage.OpenDB(config.DBPath(repoRoot))
	if err != nil {
		exitWithError(ExitError, "opening database: %v", err)
	}
	return db
}

// mustLoadConfig loads configuration, exits on error.
func mustLoadConfig(repoRoot string) *config.Config {
	cfg, err := config.Load(repoRoot)
	if err != nil {
		exitWithError(ExitConfigError, "loading config: %v", err)
	}
	return cfg
}

// mustReadEpisodes reads episodes.jsonl, exits on error.
func mustReadEpisodes(repoRoot string) []episode.Episode {
	episodes, err := storage.ReadAll(config.EpisodesPath(repoRoot))
	if err != nil {
		exitWithError(ExitDataError, "reading episodes: %v", err)
	}
	return episodes
}
