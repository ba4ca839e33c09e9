// Package crawl fetches and extracts a range of episode pages into episode
// records, isolating failures per episode.
package crawl

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/matsen/episodegraph/internal/episode"
	"github.com/matsen/episodegraph/internal/extract"
	"github.com/matsen/episodegraph/internal/fetch"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// DefaultConcurrency is the number of pages fetched at once.
const DefaultConcurrency = 4

// Failure stages.
const (
	StageFetch    = "fetch"
	StageExtract  = "extract"
	StageValidate = "validate"
)

// ErrBadTemplate is returned when the URL template has no single %d verb.
var ErrBadTemplate = errors.New("episode url template must contain exactly one %d")

// Request describes one crawl.
type Request struct {
	IDs         []int
	URLTemplate string // e.g. "https://example.fm/episodes/%d"
	Concurrency int
	Extract     extract.Options
}

// Failure records why one episode could not be produced.
type Failure struct {
	ID    int    `json:"id"`
	URL   string `json:"url"`
	Stage string `json:"stage"`
	Error string `json:"error"`
}

// Result holds the successfully extracted episodes in request order plus the failures.
type Result struct {
	RunID    string            `json:"run_id"`
	Episodes []episode.Episode `json:"-"`
	Failures []Failure         `json:"failures"`
}

// IDRange returns the IDs from first to last inclusive.
func IDRange(first, last int) []int {
	if last < first {
		return nil
	}
	ids := make([]int, 0, last-first+1)
	for id := first; id <= last; id++ {
		ids = append(ids, id)
	}
	return ids
}

// ValidateTemplate checks that tmpl formats exactly one integer.
func ValidateTemplate(tmpl string) error {
	if strings.Count(tmpl, "%d") != 1 || strings.Count(tmpl, "%") != 1 {
		return ErrBadTemplate
	}
	return nil
}

// EpisodeURL formats the URL of episode id.
func EpisodeURL(tmpl string, id int) string {
	return fmt.Sprintf(tmpl, id)
}

// Run fetches every requested episode, with bounded parallelism, and returns
// the completed ordered slice. A failing episode is recorded and skipped; only
// context cancellation aborts the whole run.
func Run(ctx context.Context, f fetch.Fetcher, req Request, logger *zap.Logger) (*Result, error) {
	if err := ValidateTemplate(req.URLTemplate); err != nil {
		return nil, err
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	runID := uuid.NewString()
	logger = logger.With(zap.String("run_id", runID))

	concurrency := req.Concurrency
	if concurrency <= 0 {
		concurrency = DefaultConcurrency
	}

	type outcome struct {
		ep      *episode.Episode
		failure *Failure
	}
	outcomes := make([]outcome, len(req.IDs))

	var g errgroup.Group
	g.SetLimit(concurrency)
	for i, id := range req.IDs {
		if ctx.Err() != nil {
			break
		}
		g.Go(func() error {
			url := EpisodeURL(req.URLTemplate, id)
			ep, failure := crawlOne(ctx, f, id, url, req.Extract)
			if failure != nil {
				logger.Warn("episode failed",
					zap.Int("id", id),
					zap.String("url", url),
					zap.String("stage", failure.Stage),
					zap.String("error", failure.Error))
			} else {
				logger.Debug("episode extracted",
					zap.Int("id", id),
					zap.Int("links", len(ep.Links)))
			}
			outcomes[i] = outcome{ep: ep, failure: failure}
			return nil
		})
	}
	_ = g.Wait()

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	result := &Result{RunID: runID, Failures: []Failure{}}
	for _, o := range outcomes {
		switch {
		case o.ep != nil:
			result.Episodes = append(result.Episodes, *o.ep)
		case o.failure != nil:
			result.Failures = append(result.Failures, *o.failure)
		}
	}

	logger.Info("crawl finished",
		zap.Int("requested", len(req.IDs)),
		zap.Int("episodes", len(result.Episodes)),
		zap.Int("failures", len(result.Failures)))
	return result, nil
}

// crawlOne fetches, extracts and assembles a single episode.
func crawlOne(ctx context.Context, f fetch.Fetcher, id int, url string, opts extract.Options) (*episode.Episode, *Failure) {
	fail := func(stage string, err error) (*episode.Episode, *Failure) {
		return nil, &Failure{ID: id, URL: url, Stage: stage, Error: err.Error()}
	}

	body, err := f.Fetch(ctx, url)
	if err != nil {
		return fail(StageFetch, err)
	}

	page, err := extract.Parse(url, bytes.NewReader(body), opts)
	if err != nil {
		return fail(StageExtract, err)
	}

	ep := &episode.Episode{
		ID:          id,
		URL:         url,
		Title:       page.Title,
		PublishedAt: page.PublishedAt,
		Links:       page.Links,
		ArticleText: page.ArticleText,
	}
	if err := ep.Validate(); err != nil {
		return fail(StageValidate, err)
	}
	return ep, nil
}
