package sanitizer

import (
	"github.com/rohmanhakim/wiki-crawler/pkg/failure"
	"golang.org/x/net/html"
)

// Sanitizer strips page chrome from an article container in place.
type Sanitizer interface {
	Sanitize(contentNode *html.Node) (*html.Node, failure.ClassifiedError)
}

// Compile-time interface check
var _ Sanitizer = (*HtmlSanitizer)(nil)
