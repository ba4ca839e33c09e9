package crawl

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/matsen/episodegraph/internal/extract"
)

const tmpl = "https://example.fm/episodes/%d"

// fakeFetcher serves canned pages keyed by URL.
type fakeFetcher struct {
	mu    sync.Mutex
	pages map[string]string
	errs  map[string]error
	calls []string
}

func (f *fakeFetcher) Fetch(ctx context.Context, url string) ([]byte, error) {
	f.mu.Lock()
	f.calls = append(f.calls, url)
	f.mu.Unlock()

	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if err, ok := f.errs[url]; ok {
		return nil, err
	}
	page, ok := f.pages[url]
	if !ok {
		return nil, fmt.Errorf("no page for %s", url)
	}
	return []byte(page), nil
}

func page(title, date string, links ...string) string {
	body := fmt.Sprintf("<html><body><article><h1>%s</h1>", title)
	if date != "" {
		body += fmt.Sprintf(`<time datetime="%s">d</time>`, date)
	}
	for _, l := range links {
		body += fmt.Sprintf(`<a href="%s">x</a>`, l)
	}
	return body + "</article></body></html>"
}

func TestRun_IsolatesFailuresAndKeepsOrder(t *testing.T) {
	f := &fakeFetcher{
		pages: map[string]string{
			EpisodeURL(tmpl, 1): page("One", "2020-01-01", "/episodes/2"),
			EpisodeURL(tmpl, 2): page("Two", ""), // no timestamp
			EpisodeURL(tmpl, 4): page("Four", "2020-01-04", "/episodes/1", "/episodes/1"),
			EpisodeURL(tmpl, 5): page("Five", "2020-01-05"),
		},
		errs: map[string]error{
			EpisodeURL(tmpl, 3): errors.New("connection reset"),
		},
	}

	result, err := Run(context.Background(), f, Request{
		IDs:         IDRange(1, 5),
		URLTemplate: tmpl,
		Concurrency: 3,
		Extract:     extract.Options{ResolveRelative: true},
	}, nil)
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}

	if result.RunID == "" {
		t.Error("RunID should be set")
	}

	var ids []int
	for _, e := range result.Episodes {
		ids = append(ids, e.ID)
	}
	wantIDs := []int{1, 4, 5}
	if fmt.Sprint(ids) != fmt.Sprint(wantIDs) {
		t.Errorf("episode IDs = %v, want %v", ids, wantIDs)
	}

	four := result.Episodes[1]
	if four.Title != "Four" || four.URL != EpisodeURL(tmpl, 4) {
		t.Errorf("episode 4 = %+v", four)
	}
	if len(four.Links) != 2 || four.Links[0] != EpisodeURL(tmpl, 1) {
		t.Errorf("episode 4 links = %v", four.Links)
	}
	if !four.PublishedAt.Equal(time.Date(2020, 1, 4, 0, 0, 0, 0, time.UTC)) {
		t.Errorf("episode 4 published = %v", four.PublishedAt)
	}

	if len(result.Failures) != 2 {
		t.Fatalf("got %d failures, want 2: %+v", len(result.Failures), result.Failures)
	}
	if result.Failures[0].ID != 2 || result.Failures[0].Stage != StageExtract {
		t.Errorf("failure[0] = %+v, want extract failure for 2", result.Failures[0])
	}
	if result.Failures[1].ID != 3 || result.Failures[1].Stage != StageFetch {
		t.Errorf("failure[1] = %+v, want fetch failure for 3", result.Failures[1])
	}
}

func TestRun_BadTemplate(t *testing.T) {
	for _, bad := range []string{"https://example.fm/episodes", "https://example.fm/%d/%d", "https://example.fm/%s"} {
		_, err := Run(context.Background(), &fakeFetcher{}, Request{IDs: []int{1}, URLTemplate: bad}, nil)
		if !errors.Is(err, ErrBadTemplate) {
			t.Errorf("Run(%q) error = %v, want ErrBadTemplate", bad, err)
		}
	}
}

func TestRun_ContextCanceled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := Run(ctx, &fakeFetcher{}, Request{IDs: IDRange(1, 3), URLTemplate: tmpl}, nil)
	if !errors.Is(err, context.Canceled) {
		t.Errorf("Run() error = %v, want context.Canceled", err)
	}
}

func TestRun_EmptyRange(t *testing.T) {
	result, err := Run(context.Background(), &fakeFetcher{}, Request{URLTemplate: tmpl}, nil)
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if len(result.Episodes) != 0 || len(result.Failures) != 0 {
		t.Errorf("result = %+v, want empty", result)
	}
}

func TestIDRange(t *testing.T) {
	if got := IDRange(3, 6); fmt.Sprint(got) != "[3 4 5 6]" {
		t.Errorf("IDRange(3, 6) = %v", got)
	}
	if got := IDRange(5, 5); len(got) != 1 {
		t.Errorf("IDRange(5, 5) = %v, want one ID", got)
	}
	if got := IDRange(6, 3); got != nil {
		t.Errorf("IDRange(6, 3) = %v, want nil", got)
	}
}
