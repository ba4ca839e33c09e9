// Package episode defines the core domain type for crawled episode pages.
package episode

import (
	"errors"
	"time"
)

// Episode is one extracted episode page.
type Episode struct {
	// Identity
	ID  int    `json:"id"`  // Sequence number, also embedded in the URL
	URL string `json:"url"` // Unique key, doubles as the graph vertex key

	// Metadata
	Title       string    `json:"title"` // May be empty if the page had no heading
	PublishedAt time.Time `json:"published_at"`

	// Content
	Links       []string `json:"links"` // Raw link targets in page order; "" for anchors without href
	ArticleText string   `json:"article_text"`
}

// Validation errors.
var (
	ErrInvalidID          = errors.New("id must be positive")
	ErrEmptyURL           = errors.New("url is required")
	ErrMissingPublishedAt = errors.New("published_at is required")
)

// Validate checks that an episode is fully populated.
// Title and links may legitimately be empty.
func (e *Episode) Validate() error {
	if e.ID <= 0 {
		return ErrInvalidID
	}
	if e.URL == "" {
		return ErrEmptyURL
	}
	if e.PublishedAt.IsZero() {
		return ErrMissingPublishedAt
	}
	return nil
}

// DisplayTitle returns the title, or the URL when the title is empty.
func (e *Episode) DisplayTitle() string {
	if e.Title != "" {
		return e.Title
	}
	return e.URL
}

// TitleIndex maps each episode URL to its title.
// When a URL repeats, the last episode wins.
func TitleIndex(episodes []Episode) map[string]string {
	idx := make(map[string]string, len(episodes))
	for _, e := range episodes {
		idx[e.URL] = e.Title
	}
	return idx
}

// DetectDuplicateURLs finds URLs that appear more than once.
// Returns a map of URL to the IDs of the episodes that share it.
func DetectDuplicateURLs(episodes []Episode) map[string][]int {
	byURL := make(map[string][]int)
	for _, e := range episodes {
		byURL[e.URL] = append(byURL[e.URL], e.ID)
	}

	duplicates := make(map[string][]int)
	for url, ids := range byURL {
		if len(ids) > 1 {
			duplicates[url] = ids
		}
	}
	return duplicates
}
