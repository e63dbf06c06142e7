package mdconvert

import (
	"time"

	"github.com/JohannesKaufmann/html-to-markdown/v2/converter"
	"github.com/JohannesKaufmann/html-to-markdown/v2/plugin/base"
	"github.com/JohannesKaufmann/html-to-markdown/v2/plugin/commonmark"
	"github.com/JohannesKaufmann/html-to-markdown/v2/plugin/table"
	"github.com/rohmanhakim/wiki-crawler/internal/metadata"
	"github.com/rohmanhakim/wiki-crawler/pkg/failure"
	"golang.org/x/net/html"
)

/*
Design Principles
- Semantic fidelity over visual fidelity
- No inferred structure
- GitHub-Flavored Markdown compatibility

Conversion Rules
- Headings map directly (h1-h6 to # - ######)
- Tables converted structurally (GFM)
- Links preserved as-is (no resolution)
- DOM order preserved

Inline styles and raw HTML are avoided.
*/

// ConvertRule converts a sanitized article node to Markdown.
type ConvertRule interface {
	Convert(contentNode *html.Node) (ConversionResult, failure.ClassifiedError)
}

// Compile-time interface check
var _ ConvertRule = (*StrictConversionRule)(nil)

type StrictConversionRule struct {
	metadataSink metadata.MetadataSink
	conv         *converter.Converter
}

func NewRule(metadataSink metadata.MetadataSink) *StrictConversionRule {
	return &StrictConversionRule{
		metadataSink: metadataSink,
		conv: converter.NewConverter(
			converter.WithPlugins(
				base.NewBasePlugin(),
				commonmark.NewCommonmarkPlugin(),
				table.NewTablePlugin(),
			),
		),
	}
}

func (s *StrictConversionRule) Convert(contentNode *html.Node) (ConversionResult, failure.ClassifiedError) {
	result, err := s.convert(contentNode)
	if err != nil {
		s.metadataSink.RecordError(
			time.Now(),
			"mdconvert",
			"StrictConversionRule.Convert",
			mapConversionErrorToMetadataCause(err),
			err.Error(),
			nil,
		)
		return ConversionResult{}, err
	}
	return result, nil
}

func (s *StrictConversionRule) convert(contentNode *html.Node) (ConversionResult, *ConversionError) {
	if contentNode == nil {
		return ConversionResult{}, &ConversionError{
			Message:   "cannot convert nil HTML node",
			Retryable: false,
			Cause:     ErrCauseConversionFailure,
		}
	}

	markdown, err := s.conv.ConvertNode(contentNode)
	if err != nil {
		return ConversionResult{}, &ConversionError{
			Message:   err.Error(),
			Retryable: false,
			Cause:     ErrCauseConversionFailure,
		}
	}

	return NewConversionResult(markdown), nil
}
