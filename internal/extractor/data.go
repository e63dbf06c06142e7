package extractor

import (
	"fmt"

	"golang.org/x/net/html"
)

// PageKind is the explicit classification of a fetched page.
type PageKind int

const (
	PageUnknown PageKind = iota
	PageCategory
	PageArticle
)

func (k PageKind) String() string {
	switch k {
	case PageCategory:
		return "category"
	case PageArticle:
		return "article"
	default:
		return "unknown"
	}
}

// Strategy selects how the article body is located.
type Strategy string

const (
	// StrategyParserOutput walks the MediaWiki content containers.
	StrategyParserOutput Strategy = "parser-output"
	// StrategyReadability lets go-readability score the page. It is more
	// lenient on pages with unusual markup.
	StrategyReadability Strategy = "readability"
)

func ParseStrategy(s string) (Strategy, error) {
	switch Strategy(s) {
	case StrategyParserOutput, StrategyReadability:
		return Strategy(s), nil
	default:
		return "", fmt.Errorf("unknown extraction strategy %q", s)
	}
}

// CategoryPage holds the links of a category listing, canonical and in
// document order.
type CategoryPage struct {
	Title         string
	Subcategories []string
	Articles      []string
}

// ArticlePage holds the located article body.
// ContentNode belongs to a document parsed for this call only, so callers
// may mutate it.
type ArticlePage struct {
	Title       string
	ContentNode *html.Node
	Strategy    Strategy
}
