/*
Responsibilities
- Remove Wikipedia chrome (infoboxes, navboxes, hatnotes, references,
  edit links, tables of contents, thumbnails, galleries)
- Drop trailing sections (See also, References, External links, ...)
- Keep only attributes markdown conversion needs
- Remove empty nodes

This stage ensures downstream Markdown conversion sees prose only.
*/
package sanitizer

import (
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/rohmanhakim/wiki-crawler/internal/metadata"
	"github.com/rohmanhakim/wiki-crawler/pkg/failure"
	"golang.org/x/net/html"
)

type HtmlSanitizer struct {
	metadataSink metadata.MetadataSink
}

func NewHTMLSanitizer(metadataSink metadata.MetadataSink) HtmlSanitizer {
	return HtmlSanitizer{
		metadataSink: metadataSink,
	}
}

// Sanitize mutates contentNode and returns it.
func (h *HtmlSanitizer) Sanitize(contentNode *html.Node) (*html.Node, failure.ClassifiedError) {
	if contentNode == nil {
		err := &SanitizationError{
			Message:   "nil content node",
			Retryable: false,
			Cause:     ErrCauseBrokenDOM,
		}
		h.metadataSink.RecordError(
			time.Now(),
			"sanitizer",
			"HtmlSanitizer.Sanitize",
			mapSanitizationErrorToMetadataCause(err),
			err.Error(),
			nil,
		)
		return nil, err
	}

	sanitize(contentNode)
	return contentNode, nil
}

func sanitize(root *html.Node) {
	removeComments(root)

	doc := goquery.NewDocumentFromNode(root)
	for _, selector := range noiseSelectors {
		doc.Find(selector).Remove()
	}

	removeTrailingSections(doc)
	removeMediaLinks(doc)
	cleanAttributes(root)
	removeEmptyNodesBottomUp(root)
}
