// Package catalog keeps an optional SQLite index of every record the
// storage sink writes, so a finished crawl can be queried without walking
// the output tree.
package catalog

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/rohmanhakim/wiki-crawler/internal/storage"
	"github.com/rohmanhakim/wiki-crawler/pkg/failure"

	_ "modernc.org/sqlite"
)

const schema = `
CREATE TABLE IF NOT EXISTS records (
	url          TEXT PRIMARY KEY,
	kind         TEXT NOT NULL,
	title        TEXT NOT NULL,
	path         TEXT NOT NULL,
	language     TEXT NOT NULL DEFAULT '',
	content_hash TEXT NOT NULL DEFAULT '',
	saved_at     TEXT NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_records_kind ON records(kind);
CREATE INDEX IF NOT EXISTS idx_records_language ON records(language);
`

// Compile-time interface check
var _ storage.Indexer = (*Catalog)(nil)

type Entry struct {
	URL         string
	Kind        string
	Title       string
	Path        string
	Language    string
	ContentHash string
	SavedAt     time.Time
}

type Catalog struct {
	db   *sql.DB
	path string
}

// Open opens or creates the catalog database at path.
func Open(path string) (*Catalog, failure.ClassifiedError) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, &CatalogError{Message: err.Error(), Cause: ErrCauseOpenFailure}
	}
	// SQLite allows one writer; a single connection avoids SQLITE_BUSY.
	db.SetMaxOpenConns(1)

	if _, err := db.Exec("PRAGMA journal_mode = WAL"); err != nil {
		_ = db.Close()
		return nil, &CatalogError{Message: fmt.Sprintf("enable WAL: %v", err), Cause: ErrCauseOpenFailure}
	}
	if _, err := db.Exec(schema); err != nil {
		_ = db.Close()
		return nil, &CatalogError{Message: fmt.Sprintf("initialize schema: %v", err), Cause: ErrCauseOpenFailure}
	}

	return &Catalog{db: db, path: path}, nil
}

func (c *Catalog) Path() string {
	return c.path
}

func (c *Catalog) Close() error {
	return c.db.Close()
}

// IndexRecord upserts entry keyed by URL.
func (c *Catalog) IndexRecord(entry storage.IndexEntry) error {
	savedAt := entry.SavedAt
	if savedAt.IsZero() {
		savedAt = time.Now()
	}
	_, err := c.db.Exec(`
		INSERT INTO records (url, kind, title, path, language, content_hash, saved_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(url) DO UPDATE SET
			kind = excluded.kind,
			title = excluded.title,
			path = excluded.path,
			language = excluded.language,
			content_hash = excluded.content_hash,
			saved_at = excluded.saved_at`,
		entry.URL, entry.Kind, entry.Title, entry.Path, entry.Language, entry.ContentHash,
		savedAt.UTC().Format(time.RFC3339Nano),
	)
	if err != nil {
		return &CatalogError{Message: err.Error(), Retryable: true, Cause: ErrCauseQueryFailure}
	}
	return nil
}

// Lookup returns the entry for url; ok is false when it is not indexed.
func (c *Catalog) Lookup(url string) (Entry, bool, error) {
	row := c.db.QueryRow(`
		SELECT url, kind, title, path, language, content_hash, saved_at
		FROM records WHERE url = ?`, url)

	entry, err := scanEntry(row)
	if errors.Is(err, sql.ErrNoRows) {
		return Entry{}, false, nil
	}
	if err != nil {
		return Entry{}, false, &CatalogError{Message: err.Error(), Cause: ErrCauseQueryFailure}
	}
	return entry, true, nil
}

// CountByKind returns the number of indexed records per kind.
func (c *Catalog) CountByKind() (map[string]int, error) {
	rows, err := c.db.Query(`SELECT kind, COUNT(*) FROM records GROUP BY kind`)
	if err != nil {
		return nil, &CatalogError{Message: err.Error(), Cause: ErrCauseQueryFailure}
	}
	defer rows.Close()

	counts := make(map[string]int)
	for rows.Next() {
		var kind string
		var n int
		if err := rows.Scan(&kind, &n); err != nil {
			return nil, &CatalogError{Message: err.Error(), Cause: ErrCauseQueryFailure}
		}
		counts[kind] = n
	}
	if err := rows.Err(); err != nil {
		return nil, &CatalogError{Message: err.Error(), Cause: ErrCauseQueryFailure}
	}
	return counts, nil
}

// ArticlesByLanguage lists article entries in one language, ordered by title.
func (c *Catalog) ArticlesByLanguage(language string) ([]Entry, error) {
	rows, err := c.db.Query(`
		SELECT url, kind, title, path, language, content_hash, saved_at
		FROM records WHERE kind = ? AND language = ?
		ORDER BY title, url`, storage.TypeArticle, language)
	if err != nil {
		return nil, &CatalogError{Message: err.Error(), Cause: ErrCauseQueryFailure}
	}
	defer rows.Close()

	var entries []Entry
	for rows.Next() {
		entry, err := scanEntry(rows)
		if err != nil {
			return nil, &CatalogError{Message: err.Error(), Cause: ErrCauseQueryFailure}
		}
		entries = append(entries, entry)
	}
	if err := rows.Err(); err != nil {
		return nil, &CatalogError{Message: err.Error(), Cause: ErrCauseQueryFailure}
	}
	return entries, nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanEntry(s scanner) (Entry, error) {
	var entry Entry
	var savedAt string
	if err := s.Scan(
		&entry.URL, &entry.Kind, &entry.Title, &entry.Path,
		&entry.Language, &entry.ContentHash, &savedAt,
	); err != nil {
		return Entry{}, err
	}
	parsed, err := time.Parse(time.RFC3339Nano, savedAt)
	if err != nil {
		return Entry{}, fmt.Errorf("parse saved_at %q: %w", savedAt, err)
	}
	entry.SavedAt = parsed
	return entry, nil
}
