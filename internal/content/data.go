package content

import "github.com/rohmanhakim/wiki-crawler/internal/extractor"

// ArticleContent is a processed article. Supported is false when the
// detected language is outside the configured set; the content is still
// returned so callers can report it.
type ArticleContent struct {
	Title       string
	Markdown    string
	Language    string
	Supported   bool
	Strategy    extractor.Strategy
	ContentHash string
	Length      int
}

// CategoryContent is a processed category listing with canonical links.
type CategoryContent struct {
	Title         string
	Subcategories []string
	Articles      []string
}

type Param struct {
	// Strategies are tried in order until one yields enough content.
	Strategies []extractor.Strategy
	// MinContentLength is the minimum count of meaningful characters.
	MinContentLength int
}
