package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
	"strings"
	"sync"
	"testing"
)

var (
	epgBinary     string
	epgBinaryOnce sync.Once
	epgBinaryErr  error
)

// getEPGBinary builds the epg binary once and returns its path.
func getEPGBinary(t *testing.T) string {
	t.Helper()
	if testing.Short() {
		t.Skip("skipping CLI test in short mode")
	}
	epgBinaryOnce.Do(func() {
		_, filename, _, ok := runtime.Caller(0)
		if !ok {
			epgBinaryErr = os.ErrInvalid
			return
		}
		moduleRoot := filepath.Dir(filepath.Dir(filepath.Dir(filename)))

		tmpDir, err := os.MkdirTemp("", "epg-test-*")
		if err != nil {
			epgBinaryErr = err
			return
		}
		epgBinary = filepath.Join(tmpDir, "epg")

		cmd := exec.Command("go", "build", "-o", epgBinary, "./cmd/epg")
		cmd.Dir = moduleRoot
		if output, err := cmd.CombinedOutput(); err != nil {
			epgBinaryErr = fmt.Errorf("%w: %s", err, output)
		}
	})
	if epgBinaryErr != nil {
		t.Fatalf("failed to build epg: %v", epgBinaryErr)
	}
	return epgBinary
}

// runEPG executes epg in dir and returns stdout and the exit code.
func runEPG(t *testing.T, dir string, args ...string) (string, int) {
	t.Helper()
	cmd := exec.Command(getEPGBinary(t), args...)
	cmd.Dir = dir
	cmd.Env = append(os.Environ(),
		"XDG_CONFIG_HOME="+filepath.Join(dir, "xdg"),
		"EPG_LOG_LEVEL=error",
	)
	out, err := cmd.Output()
	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		return string(out), exitErr.ExitCode()
	}
	if err != nil {
		t.Fatalf("running epg %v: %v", args, err)
	}
	return string(out), 0
}

// newShowServer serves three episode pages; episode 4 is missing.
func newShowServer(t *testing.T) *httptest.Server {
	t.Helper()
	var srv *httptest.Server
	page := func(title, published string, links ...string) string {
		var anchors strings.Builder
		for _, l := range links {
			fmt.Fprintf(&anchors, `<a href="%s">link</a> `, l)
		}
		return fmt.Sprintf(`<html><head>
<meta property="article:published_time" content="%s">
</head><body><article><h1>%s</h1><p>%s</p></article></body></html>`, published, title, anchors.String())
	}
	srv = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ep := func(n int) string { return fmt.Sprintf("%s/episodes/%d", srv.URL, n) }
		switch r.URL.Path {
		case "/episodes/1":
			fmt.Fprint(w, page("Pilot", "2024-01-01T10:00:00Z", ep(2), "https://elsewhere.example/paper"))
		case "/episodes/2":
			fmt.Fprint(w, page("Follow-up", "2024-01-08T10:00:00Z", ep(1), ep(3)))
		case "/episodes/3":
			fmt.Fprint(w, page("Wrap: Season One", "2024-01-15T10:00:00Z", ep(1)))
		default:
			http.NotFound(w, r)
		}
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestCLI_CrawlAndExport(t *testing.T) {
	srv := newShowServer(t)
	dir := t.TempDir()

	out, code := runEPG(t, dir, "init", "--site", srv.URL, "--template", srv.URL+"/episodes/%d", "--last", "4")
	if code != ExitSuccess {
		t.Fatalf("init exit = %d, output: %s", code, out)
	}
	if _, code := runEPG(t, dir, "config", "fetch.rate-limit", "100"); code != ExitSuccess {
		t.Fatalf("config exit = %d", code)
	}
	if _, code := runEPG(t, dir, "config", "fetch.max-retries", "0"); code != ExitSuccess {
		t.Fatalf("config exit = %d", code)
	}

	// Episode 4 is a 404, so the crawl is partial.
	out, code = runEPG(t, dir, "crawl")
	if code != ExitPartialCrawl {
		t.Fatalf("crawl exit = %d, want %d; output: %s", code, ExitPartialCrawl, out)
	}
	var crawled CrawlResult
	if err := json.Unmarshal([]byte(out), &crawled); err != nil {
		t.Fatalf("parsing crawl output: %v\n%s", err, out)
	}
	if crawled.Added != 3 || len(crawled.Failures) != 1 || crawled.Failures[0].ID != 4 {
		t.Errorf("crawl result = %+v", crawled)
	}

	// Episode 1 is referenced by episodes 2 and 3.
	out, code = runEPG(t, dir, "backlinks", srv.URL+"/episodes/1")
	if code != ExitSuccess {
		t.Fatalf("backlinks exit = %d: %s", code, out)
	}
	var detail BacklinkDetail
	if err := json.Unmarshal([]byte(out), &detail); err != nil {
		t.Fatalf("parsing backlinks output: %v\n%s", err, out)
	}
	if detail.Count != 2 || detail.Label != "Pilot" {
		t.Errorf("backlinks = %+v, want Pilot with 2", detail)
	}

	out, code = runEPG(t, dir, "export", "dot")
	if code != ExitSuccess {
		t.Fatalf("export dot exit = %d: %s", code, out)
	}
	var dotResult ExportDOTResult
	if err := json.Unmarshal([]byte(out), &dotResult); err != nil {
		t.Fatalf("parsing export output: %v\n%s", err, out)
	}
	dot, err := os.ReadFile(dotResult.Path)
	if err != nil {
		t.Fatal(err)
	}
	if strings.Contains(string(dot), "elsewhere.example") {
		t.Error("same-site export kept an external link")
	}
	if !strings.Contains(string(dot), `[label="Follow-up"]`) {
		t.Errorf("DOT missing label:\n%s", dot)
	}

	out, code = runEPG(t, dir, "export", "notes", "--dir", "vault")
	if code != ExitSuccess {
		t.Fatalf("export notes exit = %d: %s", code, out)
	}
	note, err := os.ReadFile(filepath.Join(dir, "vault", "Follow-up.md"))
	if err != nil {
		t.Fatalf("reading note: %v", err)
	}
	if !strings.Contains(string(note), "- [[Pilot]]") {
		t.Errorf("note missing mention:\n%s", note)
	}
	if _, err := os.Stat(filepath.Join(dir, "vault", "Wrap- Season One.md")); err != nil {
		t.Errorf("sanitized note name missing: %v", err)
	}

	out, code = runEPG(t, dir, "get", "2")
	if code != ExitSuccess {
		t.Fatalf("get exit = %d: %s", code, out)
	}
	var got GetResult
	if err := json.Unmarshal([]byte(out), &got); err != nil {
		t.Fatalf("parsing get output: %v\n%s", err, out)
	}
	if got.Episode == nil || got.Episode.Title != "Follow-up" || len(got.Backlinks) != 1 {
		t.Errorf("get = %+v", got)
	}

	out, code = runEPG(t, dir, "search", "pilot")
	if code != ExitSuccess {
		t.Fatalf("search exit = %d: %s", code, out)
	}
	var results []SearchResult
	if err := json.Unmarshal([]byte(out), &results); err != nil {
		t.Fatalf("parsing search output: %v\n%s", err, out)
	}
	if len(results) != 1 || results[0].ID != 1 {
		t.Errorf("search = %+v", results)
	}
}

func TestCLI_NoRepository(t *testing.T) {
	dir := t.TempDir()
	if _, code := runEPG(t, dir, "backlinks"); code != ExitConfigError {
		t.Errorf("backlinks outside repo exit = %d, want %d", code, ExitConfigError)
	}
}
