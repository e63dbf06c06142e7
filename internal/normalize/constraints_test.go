package normalize_test

import (
	"testing"

	"github.com/rohmanhakim/wiki-crawler/internal/metadata"
	"github.com/rohmanhakim/wiki-crawler/internal/normalize"
	"github.com/rohmanhakim/wiki-crawler/pkg/hashutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalize_RemovesCitationMarkers(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{"numeric", "Merlion is a mascot.[1][23]", "Merlion is a mascot.\n"},
		{"escaped numeric", `Merlion is a mascot.\[1\]`, "Merlion is a mascot.\n"},
		{"citation needed", "Built in 1972[citation needed].", "Built in 1972.\n"},
		{"case insensitive", "Built in 1972[Citation Needed].", "Built in 1972.\n"},
		{"clarification", "It moved[clarification needed] twice.", "It moved twice.\n"},
		{"when", "It was relocated[when?].", "It was relocated.\n"},
		{"edit", "## History[edit]", "## History\n"},
	}

	m := normalize.NewMarkdownConstraint(&metadata.NoopSink{})
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			doc, err := m.Normalize([]byte(tt.input))
			require.Nil(t, err)
			assert.Equal(t, tt.want, string(doc.Content()))
		})
	}
}

func TestNormalize_Whitespace(t *testing.T) {
	m := normalize.NewMarkdownConstraint(&metadata.NoopSink{})
	input := "\n\n# Title   \n\n\n\nFirst   line   here.\t\n\n\n- item\n  - nested   item\n\n\n"

	doc, err := m.Normalize([]byte(input))
	require.Nil(t, err)

	assert.Equal(t, "# Title\n\nFirst line here.\n\n- item\n  - nested item\n", string(doc.Content()))
}

func TestNormalize_EmptyAfterCleanup(t *testing.T) {
	m := normalize.NewMarkdownConstraint(&metadata.NoopSink{})

	_, err := m.Normalize([]byte("  [1] [edit]\n\n"))
	require.NotNil(t, err)

	var normErr *normalize.NormalizationError
	require.ErrorAs(t, err, &normErr)
	assert.Equal(t, normalize.ErrCauseEmptyContent, normErr.Cause)
}

func TestNormalize_ContentHash(t *testing.T) {
	m := normalize.NewMarkdownConstraint(&metadata.NoopSink{})

	doc, err := m.Normalize([]byte("Merlion."))
	require.Nil(t, err)

	want, hashErr := hashutil.HashBytes([]byte("Merlion.\n"), hashutil.HashAlgoBLAKE3)
	require.NoError(t, hashErr)
	assert.Equal(t, want, doc.ContentHash())
	assert.Equal(t, 8, doc.MeaningfulLength())
}

func TestMeaningfulLength(t *testing.T) {
	tests := []struct {
		name string
		md   string
		want int
	}{
		{"empty", "", 0},
		{"plain", "ab cd", 4},
		{"heading syntax ignored", "## ab", 2},
		{"emphasis syntax ignored", "**ab** _cd_", 4},
		{"link target ignored", "[ab](https://en.wikipedia.org/wiki/Ab)", 2},
		{"inline code counted", "`ab`", 2},
		{"chinese", "鱼尾狮", 3},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, normalize.MeaningfulLength([]byte(tt.md)))
		})
	}
}
