package extractor

import (
	"bytes"
	"fmt"
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/go-shiori/go-readability"
)

func extractReadability(sourceUrl url.URL, htmlByte []byte) (ArticlePage, *ExtractionError) {
	doc, perr := parseDocument(htmlByte)
	if perr != nil {
		return ArticlePage{}, perr
	}
	title := articleTitle(doc, sourceUrl)

	parser := readability.NewParser()
	article, err := parser.Parse(bytes.NewReader(htmlByte), &sourceUrl)
	if err != nil {
		return ArticlePage{}, &ExtractionError{
			Message:   fmt.Sprintf("readability failed: %v", err),
			Retryable: false,
			Cause:     ErrCauseNoContent,
		}
	}
	if strings.TrimSpace(article.Content) == "" {
		return ArticlePage{}, &ExtractionError{
			Message:   "readability found no content",
			Retryable: false,
			Cause:     ErrCauseNoContent,
		}
	}

	content, err := goquery.NewDocumentFromReader(strings.NewReader(article.Content))
	if err != nil {
		return ArticlePage{}, &ExtractionError{
			Message:   fmt.Sprintf("failed to parse readability output: %v", err),
			Retryable: false,
			Cause:     ErrCauseNoContent,
		}
	}
	body := content.Find("body").First()
	if body.Length() == 0 {
		return ArticlePage{}, &ExtractionError{
			Message:   "readability output has no body",
			Retryable: false,
			Cause:     ErrCauseNoContent,
		}
	}

	return ArticlePage{Title: title, ContentNode: body.Nodes[0]}, nil
}
