package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/matsen/episodegraph/internal/config"
	"github.com/matsen/episodegraph/internal/crawl"
	"github.com/spf13/cobra"
)

var (
	initSite     string
	initTemplate string
	initFirst    int
	initLast     int
)

func init() {
	initCmd.Flags().StringVar(&initSite, "site", "", "Site root URL, e.g. https://example.fm")
	initCmd.Flags().StringVar(&initTemplate, "template", "", "Episode URL template containing %d")
	initCmd.Flags().IntVar(&initFirst, "first", 1, "First episode number")
	initCmd.Flags().IntVar(&initLast, "last", 0, "Last episode number")
	rootCmd.AddCommand(initCmd)
}

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Initialize a new episodegraph repository",
	Long: `Initialize a new episodegraph repository in the current directory.

Creates:
  .episodegraph/
  ├── episodes.jsonl  # Empty file
  ├── config.json     # Default config
  ├── .gitignore      # Ignores cache/
  └── cache/          # Empty directory

Example:
  epg init --site https://example.fm --template 'https://example.fm/episodes/%d' --last 120`,
	RunE: runInit,
}

func runInit(cmd *cobra.Command, args []string) error {
	root, exitCode := getStartingDirectory()
	if exitCode != 0 {
		os.Exit(exitCode)
	}

	if config.IsRepository(root) {
		exitWithError(ExitError, "directory already contains an episodegraph repository")
	}

	cfg := config.Default()
	cfg.FirstEpisode = initFirst
	cfg.LastEpisode = initLast
	if initSite != "" {
		if err := config.ValidateSiteURL(initSite); err != nil {
			exitWithError(ExitConfigError, "%v", err)
		}
		cfg.SiteURL = initSite
	}
	if initTemplate != "" {
		if err := crawl.ValidateTemplate(initTemplate); err != nil {
			exitWithError(ExitConfigError, "%v", err)
		}
		cfg.EpisodeURLTemplate = initTemplate
	}

	if err := os.MkdirAll(config.CachePath(root), 0755); err != nil {
		exitWithError(ExitError, "creating .episodegraph directory: %v", err)
	}

	gitignore := filepath.Join(config.EpisodeGraphPath(root), ".gitignore")
	if err := os.WriteFile(gitignore, []byte(config.CacheDir+"/\n"), 0644); err != nil {
		exitWithError(ExitError, "creating .gitignore: %v", err)
	}

	f, err := os.Create(config.EpisodesPath(root))
	if err != nil {
		exitWithError(ExitError, "creating %s: %v", config.EpisodesFile, err)
	}
	f.Close()

	if err := cfg.Save(root); err != nil {
		exitWithError(ExitError, "creating config.json: %v", err)
	}

	logger.Info("repository initialized")

	if humanOutput {
		fmt.Printf("Initialized episodegraph repository in %s\n", root)
	} else {
		outputJSON(StatusResponse{
			Status: "initialized",
			Path:   root,
		})
	}

	return nil
}
