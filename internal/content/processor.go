package content

import (
	"errors"
	"fmt"
	"net/url"
	"time"

	"github.com/rohmanhakim/wiki-crawler/internal/extractor"
	"github.com/rohmanhakim/wiki-crawler/internal/language"
	"github.com/rohmanhakim/wiki-crawler/internal/mdconvert"
	"github.com/rohmanhakim/wiki-crawler/internal/metadata"
	"github.com/rohmanhakim/wiki-crawler/internal/normalize"
	"github.com/rohmanhakim/wiki-crawler/internal/sanitizer"
	"github.com/rohmanhakim/wiki-crawler/pkg/failure"
)

/*
Responsibilities
- Classify fetched pages as category, article or unknown
- Turn a category page into its title and canonical child links
- Turn an article page into normalized markdown with a language verdict

Pipeline (articles)

	extract -> sanitize -> convert -> normalize -> length check -> language

Each configured extraction strategy runs the whole pipeline; the first one
producing enough meaningful text wins. Malformed input never panics and
never escapes as anything other than a *ContentError.
*/

type Processor interface {
	ClassifyPage(pageURL url.URL, body []byte) extractor.PageKind
	ExtractCategory(pageURL url.URL, body []byte) (CategoryContent, failure.ClassifiedError)
	ExtractArticle(pageURL url.URL, body []byte) (ArticleContent, failure.ClassifiedError)
}

// Compile-time interface check
var _ Processor = (*WikiProcessor)(nil)

type WikiProcessor struct {
	metadataSink metadata.MetadataSink
	extractor    extractor.DomExtractor
	sanitizer    sanitizer.HtmlSanitizer
	convertRule  mdconvert.ConvertRule
	constraint   normalize.MarkdownConstraint
	detector     *language.Detector
	param        Param
}

func NewProcessor(
	metadataSink metadata.MetadataSink,
	detector *language.Detector,
	param Param,
) *WikiProcessor {
	if len(param.Strategies) == 0 {
		param.Strategies = []extractor.Strategy{extractor.StrategyParserOutput}
	}
	return &WikiProcessor{
		metadataSink: metadataSink,
		extractor:    extractor.NewDomExtractor(metadataSink),
		sanitizer:    sanitizer.NewHTMLSanitizer(metadataSink),
		convertRule:  mdconvert.NewRule(metadataSink),
		constraint:   normalize.NewMarkdownConstraint(metadataSink),
		detector:     detector,
		param:        param,
	}
}

func (p *WikiProcessor) ClassifyPage(pageURL url.URL, body []byte) (kind extractor.PageKind) {
	defer func() {
		if r := recover(); r != nil {
			p.recordError("WikiProcessor.ClassifyPage", pageURL, panicError(r))
			kind = extractor.PageUnknown
		}
	}()
	return p.extractor.Classify(pageURL, body)
}

func (p *WikiProcessor) ExtractCategory(
	pageURL url.URL,
	body []byte,
) (result CategoryContent, classified failure.ClassifiedError) {
	defer func() {
		if r := recover(); r != nil {
			err := panicError(r)
			p.recordError("WikiProcessor.ExtractCategory", pageURL, err)
			result, classified = CategoryContent{}, err
		}
	}()

	page, err := p.extractor.ExtractCategory(pageURL, body)
	if err != nil {
		return CategoryContent{}, &ContentError{
			Message:   "category extraction failed",
			Retryable: false,
			Cause:     ErrCauseExtractionFailed,
			Err:       err,
		}
	}
	return CategoryContent{
		Title:         page.Title,
		Subcategories: page.Subcategories,
		Articles:      page.Articles,
	}, nil
}

func (p *WikiProcessor) ExtractArticle(
	pageURL url.URL,
	body []byte,
) (result ArticleContent, classified failure.ClassifiedError) {
	defer func() {
		if r := recover(); r != nil {
			err := panicError(r)
			p.recordError("WikiProcessor.ExtractArticle", pageURL, err)
			result, classified = ArticleContent{}, err
		}
	}()

	var lastErr *ContentError
	for _, strategy := range p.param.Strategies {
		article, err := p.processArticle(pageURL, body, strategy)
		if err == nil {
			return article, nil
		}
		lastErr = err
	}

	p.recordError("WikiProcessor.ExtractArticle", pageURL, lastErr)
	return ArticleContent{}, lastErr
}

func (p *WikiProcessor) processArticle(
	pageURL url.URL,
	body []byte,
	strategy extractor.Strategy,
) (ArticleContent, *ContentError) {
	page, err := p.extractor.ExtractArticle(pageURL, body, strategy)
	if err != nil {
		var extractionErr *extractor.ExtractionError
		if errors.As(err, &extractionErr) && extractionErr.Cause == extractor.ErrCauseNoContent {
			return ArticleContent{}, insufficient(err)
		}
		return ArticleContent{}, &ContentError{
			Message:   "article extraction failed",
			Retryable: false,
			Cause:     ErrCauseExtractionFailed,
			Err:       err,
		}
	}

	node, err := p.sanitizer.Sanitize(page.ContentNode)
	if err != nil {
		return ArticleContent{}, insufficient(err)
	}

	converted, err := p.convertRule.Convert(node)
	if err != nil {
		return ArticleContent{}, &ContentError{
			Message:   "markdown conversion failed",
			Retryable: false,
			Cause:     ErrCauseExtractionFailed,
			Err:       err,
		}
	}

	doc, err := p.constraint.Normalize(converted.GetMarkdownContent())
	if err != nil {
		return ArticleContent{}, insufficient(err)
	}
	if doc.MeaningfulLength() < p.param.MinContentLength {
		return ArticleContent{}, insufficient(fmt.Errorf(
			"%d meaningful characters, need %d", doc.MeaningfulLength(), p.param.MinContentLength,
		))
	}

	markdown := string(doc.Content())
	verdict := p.detector.Filter(markdown, pageURL)

	return ArticleContent{
		Title:       page.Title,
		Markdown:    markdown,
		Language:    verdict.Language,
		Supported:   verdict.Supported,
		Strategy:    strategy,
		ContentHash: doc.ContentHash(),
		Length:      doc.MeaningfulLength(),
	}, nil
}

func insufficient(cause error) *ContentError {
	return &ContentError{
		Message:   string(ErrCauseInsufficientContent),
		Retryable: false,
		Cause:     ErrCauseInsufficientContent,
		Err:       cause,
	}
}

func panicError(r any) *ContentError {
	return &ContentError{
		Message:   fmt.Sprintf("recovered from panic: %v", r),
		Retryable: false,
		Cause:     ErrCausePanic,
	}
}

func (p *WikiProcessor) recordError(callerMethod string, pageURL url.URL, err *ContentError) {
	if err == nil {
		return
	}
	p.metadataSink.RecordError(
		time.Now(),
		"content",
		callerMethod,
		mapContentErrorToMetadataCause(err),
		err.Error(),
		[]metadata.Attribute{
			metadata.NewAttr(metadata.AttrURL, pageURL.String()),
		},
	)
}
