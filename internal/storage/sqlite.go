package storage

import (
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/matsen/episodegraph/internal/episode"
	_ "modernc.org/sqlite"
)

// DB wraps a SQLite database connection.
type DB struct {
	db *sql.DB
}

// selectEpisodeFields contains the standard field list for SELECT queries.
const selectEpisodeFields = `id, url, title, published_at, article_text`

// OpenDB opens or creates a SQLite database at the given path.
func OpenDB(path string) (*DB, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	db.SetMaxOpenConns(1) // SQLite doesn't support concurrent writes

	// Create schema if needed
	if err := createSchema(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("creating schema: %w", err)
	}

	return &DB{db: db}, nil
}

// Close closes the database connection.
func (d *DB) Close() error {
	return d.db.Close()
}

// createSchema creates the database schema if it doesn't exist.
func createSchema(db *sql.DB) error {
	schema := `
		CREATE TABLE IF NOT EXISTS episodes (
			url TEXT PRIMARY KEY,
			id INTEGER NOT NULL,
			title TEXT NOT NULL,
			published_at TEXT NOT NULL,
			article_text TEXT
		);

		CREATE INDEX IF NOT EXISTS idx_episodes_id ON episodes(id);

		-- Full-text search over titles and article bodies
		CREATE VIRTUAL TABLE IF NOT EXISTS episodes_fts USING fts5(
			url,
			title,
			article_text
		);

		-- One row per link occurrence; duplicates are kept
		CREATE TABLE IF NOT EXISTS links (
			source_url TEXT NOT NULL,
			target_url TEXT NOT NULL,
			position INTEGER NOT NULL,
			PRIMARY KEY (source_url, position)
		);

		CREATE INDEX IF NOT EXISTS idx_links_target ON links(target_url);
	`

	_, err := db.Exec(schema)
	return err
}

// RebuildFromJSONL clears the database and rebuilds it from a JSONL file.
// Returns the number of episodes and links inserted.
func (d *DB) RebuildFromJSONL(jsonlPath string) (int, int, error) {
	episodes, err := ReadAll(jsonlPath)
	if err != nil {
		return 0, 0, fmt.Errorf("reading JSONL: %w", err)
	}
	return d.Rebuild(episodes)
}

// Rebuild replaces the database contents with episodes in a single transaction.
// When a URL repeats, the last record wins. Empty link targets are not stored.
func (d *DB) Rebuild(episodes []episode.Episode) (int, int, error) {
	tx, err := d.db.Begin()
	if err != nil {
		return 0, 0, fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	for _, table := range []string{"episodes", "episodes_fts", "links"} {
		if _, err := tx.Exec("DELETE FROM " + table); err != nil {
			return 0, 0, fmt.Errorf("clearing %s table: %w", table, err)
		}
	}

	epStmt, err := tx.Prepare(`
		INSERT INTO episodes (url, id, title, published_at, article_text)
		VALUES (?, ?, ?, ?, ?)
	`)
	if err != nil {
		return 0, 0, fmt.Errorf("preparing episodes insert: %w", err)
	}
	defer epStmt.Close()

	ftsStmt, err := tx.Prepare(`
		INSERT INTO episodes_fts (url, title, article_text)
		VALUES (?, ?, ?)
	`)
	if err != nil {
		return 0, 0, fmt.Errorf("preparing fts insert: %w", err)
	}
	defer ftsStmt.Close()

	linkStmt, err := tx.Prepare(`
		INSERT INTO links (source_url, target_url, position)
		VALUES (?, ?, ?)
	`)
	if err != nil {
		return 0, 0, fmt.Errorf("preparing links insert: %w", err)
	}
	defer linkStmt.Close()

	last := make(map[string]int, len(episodes))
	for i, e := range episodes {
		last[e.URL] = i
	}

	inserted, links := 0, 0
	for i, e := range episodes {
		if last[e.URL] != i {
			continue
		}
		published := e.PublishedAt.UTC().Format(time.RFC3339)
		if _, err := epStmt.Exec(e.URL, e.ID, e.Title, published, nullableStringValue(e.ArticleText)); err != nil {
			return 0, 0, fmt.Errorf("inserting episode %d: %w", e.ID, err)
		}
		if _, err := ftsStmt.Exec(e.URL, e.Title, e.ArticleText); err != nil {
			return 0, 0, fmt.Errorf("inserting fts for %d: %w", e.ID, err)
		}
		for pos, target := range e.Links {
			if target == "" {
				continue
			}
			if _, err := linkStmt.Exec(e.URL, target, pos); err != nil {
				return 0, 0, fmt.Errorf("inserting link %d of episode %d: %w", pos, e.ID, err)
			}
			links++
		}
		inserted++
	}

	if err := tx.Commit(); err != nil {
		return 0, 0, fmt.Errorf("committing rebuild: %w", err)
	}
	return inserted, links, nil
}

// GetByURL retrieves an episode by URL, with its links. Returns nil if absent.
func (d *DB) GetByURL(url string) (*episode.Episode, error) {
	row := d.db.QueryRow(`SELECT `+selectEpisodeFields+` FROM episodes WHERE url = ?`, url)
	return d.withLinks(scanEpisode(row))
}

// GetByID retrieves an episode by sequence number, with its links. Returns nil if absent.
func (d *DB) GetByID(id int) (*episode.Episode, error) {
	row := d.db.QueryRow(`SELECT `+selectEpisodeFields+` FROM episodes WHERE id = ? LIMIT 1`, id)
	return d.withLinks(scanEpisode(row))
}

func (d *DB) withLinks(e *episode.Episode, err error) (*episode.Episode, error) {
	if err != nil || e == nil {
		return e, err
	}
	links, err := d.GetLinksBySource(e.URL)
	if err != nil {
		return nil, err
	}
	e.Links = make([]string, 0, len(links))
	for _, l := range links {
		e.Links = append(e.Links, l.TargetURL)
	}
	return e, nil
}

// Search performs a full-text search over titles and article text.
func (d *DB) Search(query string, limit int) ([]episode.Episode, error) {
	ftsQuery := prepareFTSQuery(query)
	if ftsQuery == "" {
		return nil, nil
	}

	rows, err := d.db.Query(`
		SELECT `+selectEpisodeFields+`
		FROM episodes
		WHERE url IN (SELECT url FROM episodes_fts WHERE episodes_fts MATCH ?)
		ORDER BY id
		LIMIT ?`, ftsQuery, limit)
	if err != nil {
		return nil, fmt.Errorf("searching: %w", err)
	}
	defer rows.Close()

	return scanEpisodes(rows)
}

// ListAll returns all episodes ordered by ID, optionally limited. Links are not loaded.
func (d *DB) ListAll(limit int) ([]episode.Episode, error) {
	query := `SELECT ` + selectEpisodeFields + ` FROM episodes ORDER BY id`
	var args []interface{}

	if limit > 0 {
		query += " LIMIT ?"
		args = []interface{}{limit}
	}

	rows, err := d.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("listing episodes: %w", err)
	}
	defer rows.Close()

	return scanEpisodes(rows)
}

// Count returns the total number of episodes.
func (d *DB) Count() (int, error) {
	var count int
	err := d.db.QueryRow("SELECT COUNT(*) FROM episodes").Scan(&count)
	return count, err
}

// scanner interface for sql.Row and sql.Rows
type scanner interface {
	Scan(dest ...interface{}) error
}

func scanEpisode(s scanner) (*episode.Episode, error) {
	var e episode.Episode
	var published string
	var articleText sql.NullString

	err := s.Scan(&e.ID, &e.URL, &e.Title, &published, &articleText)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, err
	}

	e.ArticleText = articleText.String
	e.PublishedAt, err = time.Parse(time.RFC3339, published)
	if err != nil {
		return nil, fmt.Errorf("parsing published_at for %s: %w", e.URL, err)
	}

	return &e, nil
}

func scanEpisodes(rows *sql.Rows) ([]episode.Episode, error) {
	var episodes []episode.Episode
	for rows.Next() {
		e, err := scanEpisode(rows)
		if err != nil {
			return nil, err
		}
		if e != nil {
			episodes = append(episodes, *e)
		}
	}
	return episodes, rows.Err()
}

// nullableStringValue converts a string to sql.NullString, treating empty as NULL.
func nullableStringValue(s string) sql.NullString {
	if s == "" {
		return sql.NullString{}
	}
	return sql.NullString{String: s, Valid: true}
}

// prepareFTSQuery escapes special characters for FTS5 queries.
func prepareFTSQuery(query string) string {
	// FTS5 uses double quotes for phrase matching
	query = strings.TrimSpace(query)
	if query == "" {
		return query
	}

	// If query contains special chars, quote it
	if strings.ContainsAny(query, "\"*+-:(){}[]^~./") {
		query = strings.ReplaceAll(query, "\"", "\"\"")
		return "\"" + query + "\""
	}

	return query
}
