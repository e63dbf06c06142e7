package frontier

import (
	"time"
)

// Kind is the page type a work item is expected to be.
type Kind string

const (
	KindCategory Kind = "category"
	KindArticle  Kind = "article"
)

// Categories are expanded before articles so the tree is discovered first.
const (
	PriorityCategory = 0
	PriorityArticle  = 1
)

// PriorityFor maps a kind to its queue priority. Lower pops first.
func PriorityFor(kind Kind) int {
	if kind == KindCategory {
		return PriorityCategory
	}
	return PriorityArticle
}

// WorkItem is a URL waiting to be processed. Identity is the canonical URL.
type WorkItem struct {
	URL          string    `json:"url"`
	Kind         Kind      `json:"url_type"`
	Priority     int       `json:"priority"`
	Depth        int       `json:"depth"`
	DiscoveredAt time.Time `json:"discovered_at"`
}

type frontierState struct {
	Items   []WorkItem `json:"queue_items"`
	SavedAt time.Time  `json:"saved_at"`
}

type ledgerState struct {
	ProcessedURLs []string  `json:"processed_urls"`
	SavedAt       time.Time `json:"saved_at"`
}
