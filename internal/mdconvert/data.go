package mdconvert

type ConversionResult struct {
	markdownContent []byte
}

func NewConversionResult(markdownContent []byte) ConversionResult {
	return ConversionResult{
		markdownContent: markdownContent,
	}
}

func (c *ConversionResult) GetMarkdownContent() []byte {
	return c.markdownContent
}
