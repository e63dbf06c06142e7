package normalize

import (
	"time"

	"github.com/rohmanhakim/wiki-crawler/internal/metadata"
	"github.com/rohmanhakim/wiki-crawler/pkg/failure"
	"github.com/rohmanhakim/wiki-crawler/pkg/hashutil"
)

/*
Responsibilities
- Remove citation and maintenance markers left in prose
- Normalize whitespace and blank lines
- Measure meaningful text length for the minimum-content policy
- Hash the final content

Normalization never rejects short content; deciding what is too short
belongs to the caller.
*/

type MarkdownConstraint struct {
	metadataSink metadata.MetadataSink
}

func NewMarkdownConstraint(
	metadataSink metadata.MetadataSink,
) MarkdownConstraint {
	return MarkdownConstraint{
		metadataSink: metadataSink,
	}
}

func (m *MarkdownConstraint) Normalize(markdown []byte) (NormalizedMarkdownDoc, failure.ClassifiedError) {
	doc, err := normalize(markdown)
	if err != nil {
		m.metadataSink.RecordError(
			time.Now(),
			"normalize",
			"MarkdownConstraint.Normalize",
			mapNormalizationErrorToMetadataCause(err),
			err.Error(),
			nil,
		)
		return NormalizedMarkdownDoc{}, err
	}
	return doc, nil
}

func normalize(markdown []byte) (NormalizedMarkdownDoc, *NormalizationError) {
	content := []byte(cleanup(string(markdown)))
	if len(content) == 0 {
		return NormalizedMarkdownDoc{}, &NormalizationError{
			Message:   "markdown is empty after cleanup",
			Retryable: false,
			Cause:     ErrCauseEmptyContent,
		}
	}

	hash, err := hashutil.HashBytes(content, hashutil.HashAlgoBLAKE3)
	if err != nil {
		return NormalizedMarkdownDoc{}, &NormalizationError{
			Message:   err.Error(),
			Retryable: false,
			Cause:     ErrCauseHashComputationFailed,
		}
	}

	return NewNormalizedMarkdownDoc(content, hash, MeaningfulLength(content)), nil
}
