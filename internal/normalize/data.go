package normalize

// NormalizedMarkdownDoc is article markdown ready to persist.
type NormalizedMarkdownDoc struct {
	content          []byte
	contentHash      string
	meaningfulLength int
}

func NewNormalizedMarkdownDoc(content []byte, contentHash string, meaningfulLength int) NormalizedMarkdownDoc {
	return NormalizedMarkdownDoc{
		content:          content,
		contentHash:      contentHash,
		meaningfulLength: meaningfulLength,
	}
}

// Content returns the normalized markdown content.
func (n NormalizedMarkdownDoc) Content() []byte {
	return n.content
}

// ContentHash returns the BLAKE3 digest of Content.
func (n NormalizedMarkdownDoc) ContentHash() string {
	return n.contentHash
}

// MeaningfulLength is the number of non-whitespace characters of rendered
// text, ignoring markdown syntax and link targets.
func (n NormalizedMarkdownDoc) MeaningfulLength() int {
	return n.meaningfulLength
}
