package fetcher

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"time"

	"github.com/rohmanhakim/wiki-crawler/internal/metadata"
	"github.com/rohmanhakim/wiki-crawler/pkg/failure"
	"github.com/rohmanhakim/wiki-crawler/pkg/limiter"
	"github.com/rohmanhakim/wiki-crawler/pkg/retry"
	"github.com/rohmanhakim/wiki-crawler/pkg/timeutil"
)

/*
Responsibilities

- Perform HTTP requests with browser-like headers and a hard timeout
- Space requests to the same host through the rate limiter
- Classify every response as success, permanent or temporary
- Retry temporary failures with exponential backoff and jitter
- Probe connectivity once the retries of a cycle are exhausted

Fetch Semantics

- Only successful HTML responses are returned as Success
- Permanent failures are never retried
- Exhausted retries with a healthy network are permanent failures
- Exhausted retries with a failed probe are ConnectivityLost, which is
  left to the caller to resolve

The engine never parses content; it only returns bytes and metadata.
*/

const maxRedirects = 10

type EngineParam struct {
	UserAgent  string
	Timeout    time.Duration
	RetryParam retry.RetryParam
}

type Engine struct {
	metadataSink metadata.MetadataSink
	httpClient   *http.Client
	rateLimiter  limiter.RateLimiter
	prober       Prober
	param        EngineParam
	sleep        retry.Sleeper
}

func NewEngine(
	metadataSink metadata.MetadataSink,
	rateLimiter limiter.RateLimiter,
	prober Prober,
	param EngineParam,
) *Engine {
	return &Engine{
		metadataSink: metadataSink,
		httpClient: &http.Client{
			Timeout:       param.Timeout,
			CheckRedirect: limitRedirects,
		},
		rateLimiter: rateLimiter,
		prober:      prober,
		param:       param,
		sleep:       timeutil.SleepContext,
	}
}

// SetSleeper replaces the backoff wait between retries.
func (e *Engine) SetSleeper(sleep retry.Sleeper) {
	e.sleep = sleep
}

func limitRedirects(req *http.Request, via []*http.Request) error {
	if len(via) >= maxRedirects {
		return http.ErrUseLastResponse
	}
	return nil
}

func (e *Engine) Fetch(ctx context.Context, fetchUrl url.URL, crawlDepth int) FetchOutcome {
	callerMethod := "Engine.Fetch"
	lastStatus := 0

	result := retry.Retry(
		ctx,
		e.param.RetryParam,
		func(attempt int) (fetchedPage, failure.ClassifiedError) {
			page, err := e.attempt(ctx, fetchUrl, crawlDepth, attempt)
			lastStatus = page.statusCode
			return page, err
		},
		retry.WithSleeper(e.sleep),
		retry.WithOnRetry(func(retryNo int, err failure.ClassifiedError, delay time.Duration) {
			e.metadataSink.RecordRetry(fetchUrl.String(), retryNo, err.Error(), delay)
		}),
	)
	attempts := result.Attempts()

	if !result.IsFailure() {
		page := result.Value()
		return NewSuccess(page.body, page.statusCode, page.contentType).WithAttempts(attempts)
	}

	err := result.Err()
	var retryErr *retry.RetryError
	if !errors.As(err, &retryErr) {
		var fetchError *FetchError
		if errors.As(err, &fetchError) && fetchError.Cause == ErrCauseCancelled {
			return NewTemporaryFailure(fetchError.Message).WithAttempts(attempts)
		}
		e.recordFetchError(callerMethod, fetchUrl, err)
		return NewPermanentFailure(reasonOf(err), lastStatus).WithAttempts(attempts)
	}

	switch retryErr.Cause {
	case retry.ErrCancelled:
		return NewTemporaryFailure(fmt.Sprintf("fetch interrupted: %s", reasonOf(retryErr.Last))).
			WithAttempts(attempts)
	case retry.ErrInvalidParam:
		e.recordFetchError(callerMethod, fetchUrl, retryErr)
		return NewPermanentFailure(retryErr.Error(), 0).WithAttempts(attempts)
	}

	lastReason := reasonOf(retryErr.Last)
	if e.prober != nil && e.prober.Probe(ctx) {
		reason := fmt.Sprintf("unreachable while network is healthy after %d attempts: %s", attempts, lastReason)
		e.metadataSink.RecordError(
			time.Now(),
			"fetcher",
			callerMethod,
			metadata.CauseUnknown,
			reason,
			[]metadata.Attribute{
				metadata.NewAttr(metadata.AttrURL, fetchUrl.String()),
			},
		)
		return NewPermanentFailure(reason, lastStatus).WithAttempts(attempts)
	}

	reason := fmt.Sprintf("connectivity lost after %d attempts: %s", attempts, lastReason)
	e.metadataSink.RecordError(
		time.Now(),
		"fetcher",
		callerMethod,
		metadata.CauseNetworkFailure,
		reason,
		[]metadata.Attribute{
			metadata.NewAttr(metadata.AttrURL, fetchUrl.String()),
		},
	)
	return NewConnectivityLost(reason).WithAttempts(attempts)
}

// attempt performs one rate-limited HTTP request and reports it.
func (e *Engine) attempt(
	ctx context.Context,
	fetchUrl url.URL,
	crawlDepth int,
	attempt int,
) (fetchedPage, failure.ClassifiedError) {
	host := fetchUrl.Hostname()
	if err := e.rateLimiter.Wait(ctx, host); err != nil {
		return fetchedPage{}, &FetchError{
			Message:   fmt.Sprintf("rate limiter wait aborted: %v", err),
			Retryable: false,
			Cause:     ErrCauseCancelled,
		}
	}

	start := time.Now()
	page, fetchErr := e.performFetch(ctx, fetchUrl)
	e.rateLimiter.MarkLastFetchAsNow(host)

	e.metadataSink.RecordFetch(
		fetchUrl.String(),
		page.statusCode,
		time.Since(start),
		page.contentType,
		attempt,
		crawlDepth,
	)

	switch {
	case page.statusCode == http.StatusTooManyRequests:
		e.rateLimiter.Backoff(host)
	case fetchErr == nil:
		e.rateLimiter.ResetBackoff(host)
	}

	if fetchErr != nil {
		return page, fetchErr
	}
	return page, nil
}

func (e *Engine) performFetch(ctx context.Context, fetchUrl url.URL) (fetchedPage, *FetchError) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, fetchUrl.String(), nil)
	if err != nil {
		return fetchedPage{}, &FetchError{
			Message:   fmt.Sprintf("failed to create request: %v", err),
			Retryable: false,
			Cause:     ErrCauseClientError,
		}
	}

	for key, value := range requestHeaders(e.param.UserAgent) {
		req.Header.Set(key, value)
	}

	resp, err := e.httpClient.Do(req)
	if err != nil {
		return fetchedPage{}, transportError(err)
	}
	defer resp.Body.Close()

	page := fetchedPage{
		statusCode:  resp.StatusCode,
		contentType: resp.Header.Get("Content-Type"),
	}

	if statusErr := statusError(resp.StatusCode); statusErr != nil {
		_, _ = io.Copy(io.Discard, resp.Body)
		return page, statusErr
	}

	if !isHTMLContent(page.contentType) {
		return page, &FetchError{
			Message:    fmt.Sprintf("non-HTML content type: %q", page.contentType),
			Retryable:  false,
			Cause:      ErrCauseContentTypeInvalid,
			StatusCode: resp.StatusCode,
		}
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return page, &FetchError{
			Message:    fmt.Sprintf("failed to read response body: %v", err),
			Retryable:  true,
			Cause:      ErrCauseReadResponseBodyError,
			StatusCode: resp.StatusCode,
		}
	}
	page.body = body

	return page, nil
}

// transportError classifies errors that happen before a response arrives.
// All of them are temporary; a hung request past the client timeout is a
// timeout, not a hang.
func transportError(err error) *FetchError {
	var netErr net.Error
	if errors.Is(err, context.DeadlineExceeded) || (errors.As(err, &netErr) && netErr.Timeout()) {
		return &FetchError{
			Message:   fmt.Sprintf("request timeout: %v", err),
			Retryable: true,
			Cause:     ErrCauseTimeout,
		}
	}
	return &FetchError{
		Message:   fmt.Sprintf("connection error: %v", err),
		Retryable: true,
		Cause:     ErrCauseNetworkFailure,
	}
}

func (e *Engine) recordFetchError(callerMethod string, fetchUrl url.URL, err failure.ClassifiedError) {
	cause := metadata.CauseUnknown
	var fetchError *FetchError
	if errors.As(err, &fetchError) {
		cause = mapFetchErrorToMetadataCause(fetchError)
	}
	e.metadataSink.RecordError(
		time.Now(),
		"fetcher",
		callerMethod,
		cause,
		err.Error(),
		[]metadata.Attribute{
			metadata.NewAttr(metadata.AttrURL, fetchUrl.String()),
		},
	)
}

func reasonOf(err failure.ClassifiedError) string {
	if err == nil {
		return "unknown error"
	}
	var fetchError *FetchError
	if errors.As(err, &fetchError) {
		return fetchError.Message
	}
	return err.Error()
}

// Accept-Encoding is left to the transport so gzip is decoded transparently.
func requestHeaders(userAgent string) map[string]string {
	return map[string]string{
		"User-Agent":      userAgent,
		"Accept":          "text/html,application/xhtml+xml,application/xml;q=0.9,*/*;q=0.8",
		"Accept-Language": "en-US,en;q=0.5",
		"DNT":             "1",
		"Connection":      "keep-alive",
	}
}
