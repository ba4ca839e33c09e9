package storage

import (
	"database/sql"
	"fmt"
)

// Link is one stored link occurrence.
type Link struct {
	SourceURL string `json:"source_url"`
	TargetURL string `json:"target_url"`
	Position  int    `json:"position"` // index in the source episode's link list
}

// BacklinkRow is the inbound link count of a target URL.
type BacklinkRow struct {
	TargetURL string `json:"target_url"`
	Title     string `json:"title,omitempty"`
	Count     int    `json:"count"`
}

// GetLinksBySource returns the links of an episode in page order.
func (d *DB) GetLinksBySource(sourceURL string) ([]Link, error) {
	rows, err := d.db.Query(`
		SELECT source_url, target_url, position
		FROM links
		WHERE source_url = ?
		ORDER BY position
	`, sourceURL)
	if err != nil {
		return nil, fmt.Errorf("querying links by source: %w", err)
	}
	defer rows.Close()

	return scanLinks(rows)
}

// GetLinksByTarget returns every link occurrence pointing at targetURL.
func (d *DB) GetLinksByTarget(targetURL string) ([]Link, error) {
	rows, err := d.db.Query(`
		SELECT l.source_url, l.target_url, l.position
		FROM links l
		LEFT JOIN episodes e ON e.url = l.source_url
		WHERE l.target_url = ?
		ORDER BY e.id, l.position
	`, targetURL)
	if err != nil {
		return nil, fmt.Errorf("querying links by target: %w", err)
	}
	defer rows.Close()

	return scanLinks(rows)
}

// BacklinkCounts returns inbound link counts per target, highest first,
// counting repeated mentions. limit <= 0 returns all targets.
func (d *DB) BacklinkCounts(limit int) ([]BacklinkRow, error) {
	query := `
		SELECT l.target_url, COALESCE(e.title, ''), COUNT(*) AS n
		FROM links l
		LEFT JOIN episodes e ON e.url = l.target_url
		GROUP BY l.target_url
		ORDER BY n DESC, l.target_url`
	var args []interface{}
	if limit > 0 {
		query += " LIMIT ?"
		args = append(args, limit)
	}

	rows, err := d.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("querying backlink counts: %w", err)
	}
	defer rows.Close()

	var counts []BacklinkRow
	for rows.Next() {
		var r BacklinkRow
		if err := rows.Scan(&r.TargetURL, &r.Title, &r.Count); err != nil {
			return nil, err
		}
		counts = append(counts, r)
	}
	return counts, rows.Err()
}

// CountLinks returns the total number of stored link occurrences.
func (d *DB) CountLinks() (int, error) {
	var count int
	err := d.db.QueryRow("SELECT COUNT(*) FROM links").Scan(&count)
	return count, err
}

// scanLinks scans rows into a slice of links.
func scanLinks(rows *sql.Rows) ([]Link, error) {
	var links []Link
	for rows.Next() {
		var l Link
		if err := rows.Scan(&l.SourceURL, &l.TargetURL, &l.Position); err != nil {
			return nil, err
		}
		links = append(links, l)
	}
	return links, rows.Err()
}
