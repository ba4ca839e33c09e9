// Package storage handles episode persistence in JSONL and SQLite formats.
package storage

import (
	"bufio"
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/matsen/episodegraph/internal/episode"
)

// MaxJSONLLineCapacity is the maximum buffer size for reading JSONL lines.
// Episode lines carry the full article text, so this is generous.
const MaxJSONLLineCapacity = 8 * 1024 * 1024

// ReadAll reads all episodes from a JSONL file.
func ReadAll(path string) ([]episode.Episode, error) {
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil // Empty file returns empty slice
		}
		return nil, fmt.Errorf("opening episodes file: %w", err)
	}
	defer f.Close()

	var episodes []episode.Episode
	scanner := bufio.NewScanner(f)

	// Increase buffer size for long lines
	buf := make([]byte, 64*1024)
	scanner.Buffer(buf, MaxJSONLLineCapacity)

	lineNum := 0
	for scanner.Scan() {
		lineNum++
		line := scanner.Bytes()
		if len(line) == 0 {
			continue // Skip empty lines
		}

		var e episode.Episode
		if err := json.Unmarshal(line, &e); err != nil {
			return nil, fmt.Errorf("parsing line %d: %w", lineNum, err)
		}
		episodes = append(episodes, e)
	}

	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("reading episodes file: %w", err)
	}

	return episodes, nil
}

// writeEpisodeJSONL marshals an episode to JSON and writes it as a JSONL line.
func writeEpisodeJSONL(w io.Writer, e episode.Episode) error {
	data, err := json.Marshal(e)
	if err != nil {
		return fmt.Errorf("encoding episode %d: %w", e.ID, err)
	}
	if _, err := w.Write(data); err != nil {
		return fmt.Errorf("writing episode %d: %w", e.ID, err)
	}
	if _, err := w.Write([]byte("\n")); err != nil {
		return fmt.Errorf("writing newline: %w", err)
	}
	return nil
}

// Append adds an episode to the end of a JSONL file.
func Append(path string, e episode.Episode) error {
	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		return fmt.Errorf("opening episodes file for append: %w", err)
	}
	defer f.Close()

	return writeEpisodeJSONL(f, e)
}

// WriteAll writes all episodes to a JSONL file, replacing existing content.
func WriteAll(path string, episodes []episode.Episode) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("creating episodes file: %w", err)
	}
	defer f.Close()

	w := bufio.NewWriter(f)
	for _, e := range episodes {
		if err := writeEpisodeJSONL(w, e); err != nil {
			return err
		}
	}
	if err := w.Flush(); err != nil {
		return fmt.Errorf("flushing episodes file: %w", err)
	}

	return nil
}

// FindByURL searches for an episode by URL.
func FindByURL(episodes []episode.Episode, url string) (int, bool) {
	for i, e := range episodes {
		if e.URL == url {
			return i, true
		}
	}
	return -1, false
}

// FindByID searches for an episode by sequence number.
func FindByID(episodes []episode.Episode, id int) (int, bool) {
	for i, e := range episodes {
		if e.ID == id {
			return i, true
		}
	}
	return -1, false
}

// UpsertInSlice replaces the episode with the same URL or appends it.
// Returns the updated slice and true if an existing episode was replaced.
func UpsertInSlice(episodes []episode.Episode, e episode.Episode) ([]episode.Episode, bool) {
	if idx, found := FindByURL(episodes, e.URL); found {
		episodes[idx] = e
		return episodes, true
	}
	return append(episodes, e), false
}
