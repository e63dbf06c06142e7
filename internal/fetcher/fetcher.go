package fetcher

import (
	"context"
	"net/url"
)

// Fetcher runs one fetch cycle for a URL and classifies the result.
type Fetcher interface {
	Fetch(ctx context.Context, fetchUrl url.URL, crawlDepth int) FetchOutcome
}
