package extractor

import (
	"bytes"
	"errors"
	"fmt"
	"net/url"
	"slices"
	"strings"
	"time"
	"unicode"

	"github.com/PuerkitoBio/goquery"
	"github.com/rohmanhakim/wiki-crawler/internal/metadata"
	"github.com/rohmanhakim/wiki-crawler/pkg/failure"
	"github.com/rohmanhakim/wiki-crawler/pkg/urlutil"
	"golang.org/x/net/html"
)

/*
Responsibilities
- Parse HTML into a DOM tree
- Classify a page as category, article or unknown
- Collect subcategory and article links from category listings
- Isolate the article body

Extraction Strategy
- parser-output: MediaWiki containers in priority order
	(#mw-content-text .mw-parser-output, .mw-parser-output, #mw-content-text,
	#bodyContent), then semantic containers (main, article) when they hold
	meaningful content, then <body>
- readability: go-readability scoring over the whole page

Link Rules
- Only https /wiki/ links on a Wikipedia host are kept
- Fragments and duplicates are dropped, document order is kept
- Article links exclude every non-article namespace

The extractor never fetches; it only reads bytes it is given.
*/

type DomExtractor struct {
	metadataSink metadata.MetadataSink
}

func NewDomExtractor(
	metadataSink metadata.MetadataSink,
) DomExtractor {
	return DomExtractor{
		metadataSink: metadataSink,
	}
}

// Classify decides what kind of page htmlByte is. A "/Category:" URL is a
// category regardless of markup.
func (d *DomExtractor) Classify(sourceUrl url.URL, htmlByte []byte) PageKind {
	if isCategoryPath(sourceUrl.Path) {
		return PageCategory
	}

	doc, err := parseDocument(htmlByte)
	if err != nil {
		return PageUnknown
	}

	for _, selector := range categoryMarkerSelectors {
		if doc.Find(selector).Length() > 0 {
			return PageCategory
		}
	}

	if doc.Find("#mw-content-text, .mw-parser-output").Length() > 0 {
		return PageArticle
	}
	hasParagraph := false
	doc.Find("p").EachWithBreak(func(_ int, s *goquery.Selection) bool {
		hasParagraph = strings.TrimSpace(s.Text()) != ""
		return !hasParagraph
	})
	if hasParagraph {
		return PageArticle
	}

	return PageUnknown
}

func (d *DomExtractor) ExtractCategory(
	sourceUrl url.URL,
	htmlByte []byte,
) (CategoryPage, failure.ClassifiedError) {
	doc, err := parseDocument(htmlByte)
	if err != nil {
		d.recordError("DomExtractor.ExtractCategory", sourceUrl, err)
		return CategoryPage{}, err
	}

	page := CategoryPage{
		Title:         categoryTitle(doc, sourceUrl),
		Subcategories: collectLinks(doc, sourceUrl, subcategorySelectors, isCategoryPath),
		Articles:      collectLinks(doc, sourceUrl, articleListSelectors, isArticlePath),
	}

	// Some skins render the listing without ids; fall back to the headings.
	if len(page.Subcategories) == 0 {
		page.Subcategories = collectAfterHeading(doc, sourceUrl, "subcategories", isCategoryPath)
	}
	if len(page.Articles) == 0 {
		page.Articles = collectAfterHeading(doc, sourceUrl, "pages in category", isArticlePath)
	}

	return page, nil
}

func (d *DomExtractor) ExtractArticle(
	sourceUrl url.URL,
	htmlByte []byte,
	strategy Strategy,
) (ArticlePage, failure.ClassifiedError) {
	var page ArticlePage
	var err *ExtractionError

	switch strategy {
	case StrategyParserOutput:
		page, err = extractParserOutput(sourceUrl, htmlByte)
	case StrategyReadability:
		page, err = extractReadability(sourceUrl, htmlByte)
	default:
		err = &ExtractionError{
			Message:   fmt.Sprintf("strategy %q", strategy),
			Retryable: false,
			Cause:     ErrCauseUnknownStrategy,
		}
	}

	if err != nil {
		d.recordError("DomExtractor.ExtractArticle", sourceUrl, err)
		return ArticlePage{}, err
	}
	page.Strategy = strategy
	return page, nil
}

func (d *DomExtractor) recordError(callerMethod string, sourceUrl url.URL, err error) {
	var extractionError *ExtractionError
	cause := metadata.CauseUnknown
	if errors.As(err, &extractionError) {
		cause = mapExtractionErrorToMetadataCause(extractionError)
	}
	d.metadataSink.RecordError(
		time.Now(),
		"extractor",
		callerMethod,
		cause,
		err.Error(),
		[]metadata.Attribute{
			metadata.NewAttr(metadata.AttrURL, sourceUrl.String()),
		},
	)
}

func parseDocument(htmlByte []byte) (*goquery.Document, *ExtractionError) {
	if len(bytes.TrimSpace(htmlByte)) == 0 {
		return nil, &ExtractionError{
			Message:   "empty document",
			Retryable: false,
			Cause:     ErrCauseNotHTML,
		}
	}
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(htmlByte))
	if err != nil {
		return nil, &ExtractionError{
			Message:   fmt.Sprintf("failed to parse HTML: %v", err),
			Retryable: false,
			Cause:     ErrCauseNotHTML,
		}
	}
	return doc, nil
}

func extractParserOutput(sourceUrl url.URL, htmlByte []byte) (ArticlePage, *ExtractionError) {
	doc, err := parseDocument(htmlByte)
	if err != nil {
		return ArticlePage{}, err
	}

	title := articleTitle(doc, sourceUrl)
	for _, selector := range wikiContainerSelectors {
		if sel := doc.Find(selector).First(); sel.Length() > 0 {
			return ArticlePage{Title: title, ContentNode: sel.Nodes[0]}, nil
		}
	}
	for _, selector := range semanticContainerSelectors {
		if sel := doc.Find(selector).First(); sel.Length() > 0 && isMeaningful(sel.Nodes[0]) {
			return ArticlePage{Title: title, ContentNode: sel.Nodes[0]}, nil
		}
	}

	if body := doc.Find("body").First(); body.Length() > 0 && strings.TrimSpace(body.Text()) != "" {
		return ArticlePage{Title: title, ContentNode: body.Nodes[0]}, nil
	}

	return ArticlePage{}, &ExtractionError{
		Message:   "no article container found",
		Retryable: false,
		Cause:     ErrCauseNoContent,
	}
}

// categoryTitle prefers the page heading without its namespace, then the URL.
func categoryTitle(doc *goquery.Document, sourceUrl url.URL) string {
	title := strings.TrimSpace(doc.Find("h1#firstHeading").First().Text())
	if title == "" {
		title = urlutil.WikiTitle(sourceUrl)
	}
	for _, prefix := range categoryTitlePrefixes {
		if strings.HasPrefix(title, prefix) {
			title = strings.TrimSpace(strings.TrimPrefix(title, prefix))
			break
		}
	}
	if title == "" {
		return "Unknown Category"
	}
	return title
}

func articleTitle(doc *goquery.Document, sourceUrl url.URL) string {
	if title := strings.TrimSpace(doc.Find("h1#firstHeading").First().Text()); title != "" {
		return title
	}
	if title := strings.TrimSpace(doc.Find("title").First().Text()); title != "" {
		return strings.TrimSpace(strings.TrimSuffix(title, " - Wikipedia"))
	}
	if title := urlutil.WikiTitle(sourceUrl); title != "" {
		return title
	}
	return "Unknown Article"
}

func collectLinks(
	doc *goquery.Document,
	base url.URL,
	selectors []string,
	accept func(path string) bool,
) []string {
	var links []string
	for _, selector := range selectors {
		doc.Find(selector).Find("a[href]").Each(func(_ int, a *goquery.Selection) {
			href, _ := a.Attr("href")
			links = appendLink(links, base, href, accept)
		})
	}
	return links
}

func collectAfterHeading(
	doc *goquery.Document,
	base url.URL,
	headingText string,
	accept func(path string) bool,
) []string {
	var links []string
	doc.Find("h2").Each(func(_ int, h *goquery.Selection) {
		if !strings.Contains(strings.ToLower(h.Text()), headingText) {
			return
		}
		h.NextAllFiltered("div, ul").First().Find("a[href]").Each(func(_ int, a *goquery.Selection) {
			href, _ := a.Attr("href")
			links = appendLink(links, base, href, accept)
		})
	})
	return links
}

func appendLink(links []string, base url.URL, href string, accept func(path string) bool) []string {
	href = strings.TrimSpace(href)
	if href == "" || strings.HasPrefix(href, "#") {
		return links
	}
	resolved, err := urlutil.Resolve(base, href)
	if err != nil || !isWikiPageURL(resolved) || !accept(resolved.Path) {
		return links
	}
	// Listing links never need a query; /wiki/X?uselang=.. is still X.
	resolved.RawQuery = ""
	link := resolved.String()
	if slices.Contains(links, link) {
		return links
	}
	return append(links, link)
}

func isWikiPageURL(u url.URL) bool {
	return u.Scheme == "https" &&
		urlutil.IsWikipediaHost(u.Hostname()) &&
		strings.HasPrefix(u.Path, "/wiki/") &&
		len(u.Path) > len("/wiki/")
}

func isCategoryPath(path string) bool {
	title, ok := strings.CutPrefix(path, "/wiki/")
	if !ok {
		return strings.Contains(path, "/Category:")
	}
	for _, prefix := range categoryTitlePrefixes {
		if strings.HasPrefix(title, prefix) {
			return true
		}
	}
	return false
}

func isArticlePath(path string) bool {
	title, ok := strings.CutPrefix(path, "/wiki/")
	if !ok || title == "" {
		return false
	}
	if isCategoryPath(path) {
		return false
	}
	for _, ns := range nonArticleNamespaces {
		if strings.HasPrefix(title, ns) {
			return false
		}
	}
	return true
}

// isMeaningful reports whether a generic container holds article text
// rather than navigation. It requires some prose and rejects link farms.
func isMeaningful(node *html.Node) bool {
	if node == nil {
		return false
	}

	var stats struct {
		textLength     int
		nonWhitespace  int
		paragraphs     int
		links          int
		linkTextLength int
	}

	var walk func(*html.Node, bool)
	walk = func(n *html.Node, inLink bool) {
		switch n.Type {
		case html.TextNode:
			stats.textLength += len(n.Data)
			if inLink {
				stats.linkTextLength += len(n.Data)
			}
			for _, r := range n.Data {
				if !unicode.IsSpace(r) {
					stats.nonWhitespace++
				}
			}
		case html.ElementNode:
			switch n.Data {
			case "p":
				stats.paragraphs++
			case "a":
				stats.links++
				inLink = true
			}
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c, inLink)
		}
	}
	walk(node, false)

	const minNonWhitespace = 100
	const maxLinkDensity = 0.8

	if stats.nonWhitespace < minNonWhitespace || stats.paragraphs == 0 {
		return false
	}
	if stats.textLength > 0 && stats.links > 2 {
		if float64(stats.linkTextLength)/float64(stats.textLength) > maxLinkDensity {
			return false
		}
	}
	return true
}
