package fetcher

import (
	"context"
	"io"
	"net/http"
	"time"

	"github.com/rohmanhakim/wiki-crawler/internal/metadata"
)

// Prober tells "the target is broken" apart from "the network is down".
type Prober interface {
	Probe(ctx context.Context) bool
}

// ProberFunc adapts a plain function to Prober.
type ProberFunc func(ctx context.Context) bool

func (f ProberFunc) Probe(ctx context.Context) bool {
	return f(ctx)
}

// HTTPProber issues a GET against a well-known endpoint. Only a 200 counts
// as connected.
type HTTPProber struct {
	metadataSink metadata.MetadataSink
	httpClient   *http.Client
	target       string
	userAgent    string
}

func NewHTTPProber(
	metadataSink metadata.MetadataSink,
	target string,
	timeout time.Duration,
	userAgent string,
) *HTTPProber {
	return &HTTPProber{
		metadataSink: metadataSink,
		httpClient:   &http.Client{Timeout: timeout},
		target:       target,
		userAgent:    userAgent,
	}
}

func (p *HTTPProber) Probe(ctx context.Context) bool {
	start := time.Now()
	reachable := p.probe(ctx)
	p.metadataSink.RecordProbe(p.target, reachable, time.Since(start))
	return reachable
}

func (p *HTTPProber) probe(ctx context.Context) bool {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, p.target, nil)
	if err != nil {
		return false
	}
	if p.userAgent != "" {
		req.Header.Set("User-Agent", p.userAgent)
	}

	resp, err := p.httpClient.Do(req)
	if err != nil {
		return false
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, resp.Body)

	return resp.StatusCode == http.StatusOK
}
