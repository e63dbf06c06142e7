package storage

import "time"

const (
	TypeCategory = "category"
	TypeArticle  = "article"
)

// CategoryRecord is the persisted form of a category listing.
type CategoryRecord struct {
	URL           string    `json:"url"`
	Title         string    `json:"title"`
	Subcategories []string  `json:"subcategories"`
	Articles      []string  `json:"articles"`
	ProcessedAt   time.Time `json:"processed_at"`
	Type          string    `json:"type"`
}

// ArticleRecord is the persisted form of an article.
type ArticleRecord struct {
	URL         string    `json:"url"`
	Title       string    `json:"title"`
	Content     string    `json:"content"`
	Language    string    `json:"language"`
	ProcessedAt time.Time `json:"processed_at"`
	Type        string    `json:"type"`
}

type WriteResult struct {
	urlHash     string
	path        string
	contentHash string
}

func NewWriteResult(
	urlHash string,
	path string,
	contentHash string,
) WriteResult {
	return WriteResult{
		urlHash:     urlHash,
		path:        path,
		contentHash: contentHash,
	}
}

func (w *WriteResult) URLHash() string {
	return w.urlHash
}

func (w *WriteResult) Path() string {
	return w.path
}

func (w *WriteResult) ContentHash() string {
	return w.contentHash
}

// IndexEntry describes one saved record for an optional Indexer.
type IndexEntry struct {
	Kind        string
	URL         string
	Title       string
	Path        string
	Language    string
	ContentHash string
	SavedAt     time.Time
}
