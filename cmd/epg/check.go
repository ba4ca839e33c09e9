package main

import (
	"fmt"
	"sort"

	"github.com/matsen/episodegraph/internal/episode"
	"github.com/matsen/episodegraph/internal/export"
	"github.com/spf13/cobra"
)

func init() {
	rootCmd.AddCommand(checkCmd)
}

var checkCmd = &cobra.Command{
	Use:   "check",
	Short: "Verify repository integrity",
	Long: `Verify episodes.jsonl: invalid records, duplicate URLs and IDs, missing
titles, and titles that would collide as note file names.`,
	RunE: runCheck,
}

// CheckResult is the response for the check command.
type CheckResult struct {
	Status   string       `json:"status"`
	Episodes int          `json:"episodes"`
	Issues   []CheckIssue `json:"issues"`
}

// CheckIssue represents a single issue found during check.
type CheckIssue struct {
	Type     string `json:"type"`
	ID       int    `json:"id,omitempty"`
	IDs      []int  `json:"ids,omitempty"`
	URL      string `json:"url,omitempty"`
	Filename string `json:"filename,omitempty"`
	Reason   string `json:"reason,omitempty"`
}

// checkEpisodes returns every integrity issue in episodes.
func checkEpisodes(episodes []episode.Episode) []CheckIssue {
	issues := []CheckIssue{}

	idSeen := make(map[int][]int) // ID -> line positions
	for i, e := range episodes {
		if err := e.Validate(); err != nil {
			issues = append(issues, CheckIssue{
				Type:   "invalid_episode",
				ID:     e.ID,
				URL:    e.URL,
				Reason: err.Error(),
			})
		}
		if e.Title == "" {
			issues = append(issues, CheckIssue{
				Type: "missing_title",
				ID:   e.ID,
				URL:  e.URL,
			})
		}
		idSeen[e.ID] = append(idSeen[e.ID], i)
	}

	dupURLs := episode.DetectDuplicateURLs(episodes)
	urls := make([]string, 0, len(dupURLs))
	for u := range dupURLs {
		urls = append(urls, u)
	}
	sort.Strings(urls)
	for _, u := range urls {
		issues = append(issues, CheckIssue{
			Type: "duplicate_url",
			URL:  u,
			IDs:  dupURLs[u],
		})
	}

	ids := make([]int, 0, len(idSeen))
	for id, positions := range idSeen {
		if len(positions) > 1 {
			ids = append(ids, id)
		}
	}
	sort.Ints(ids)
	for _, id := range ids {
		issues = append(issues, CheckIssue{
			Type:   "duplicate_id",
			ID:     id,
			Reason: fmt.Sprintf("%d records", len(idSeen[id])),
		})
	}

	for _, c := range export.BuildNotes(episodes, nil).Collisions {
		issues = append(issues, CheckIssue{
			Type:     "note_filename_collision",
			IDs:      []int{c.KeptID, c.RenamedID},
			Filename: c.Filename,
			Reason:   fmt.Sprintf("episode %d would be written as %q", c.RenamedID, c.RenamedTo),
		})
	}

	return issues
}

func runCheck(cmd *cobra.Command, args []string) error {
	repoRoot := mustFindRepository()
	episodes := mustReadEpisodes(repoRoot)

	issues := checkEpisodes(episodes)

	status := "ok"
	if len(issues) > 0 {
		status = "issues"
	}

	if humanOutput {
		if len(issues) == 0 {
			fmt.Printf("Repository check: OK\n\n%d episodes checked\n", len(episodes))
			return nil
		}
		fmt.Printf("Repository check: %d issues found\n\n", len(issues))
		for _, issue := range issues {
			switch issue.Type {
			case "invalid_episode":
				fmt.Printf("  [ERROR] Invalid episode #%d %s: %s\n\n", issue.ID, issue.URL, issue.Reason)
			case "missing_title":
				fmt.Printf("  [WARN] Missing title for #%d %s\n\n", issue.ID, issue.URL)
			case "duplicate_url":
				fmt.Printf("  [WARN] Duplicate URL %s\n         Found in: %v\n\n", issue.URL, issue.IDs)
			case "duplicate_id":
				fmt.Printf("  [WARN] Duplicate ID #%d (%s)\n\n", issue.ID, issue.Reason)
			case "note_filename_collision":
				fmt.Printf("  [WARN] Note name collision %s between %v: %s\n\n", issue.Filename, issue.IDs, issue.Reason)
			}
		}
		fmt.Printf("%d episodes checked\n", len(episodes))
	} else {
		outputJSON(CheckResult{
			Status:   status,
			Episodes: len(episodes),
			Issues:   issues,
		})
	}

	return nil
}
