package fetcher

import (
	"fmt"
	"net/http"
	"strings"
)

// Classify maps an HTTP status code to its retry class. It depends on
// nothing but the code.
//
//   - 2xx: success
//   - 408, 429 and 5xx: temporary, worth retrying
//   - everything else (403, 404, 410, 451, other 4xx, 1xx, 3xx that
//     outlived the redirect limit): permanent
func Classify(statusCode int) Class {
	switch {
	case statusCode >= 200 && statusCode < 300:
		return ClassSuccess
	case statusCode == http.StatusRequestTimeout || statusCode == http.StatusTooManyRequests:
		return ClassTemporary
	case statusCode >= 500 && statusCode < 600:
		return ClassTemporary
	default:
		return ClassPermanent
	}
}

// statusError builds the FetchError for a non-success status.
func statusError(statusCode int) *FetchError {
	class := Classify(statusCode)
	if class == ClassSuccess {
		return nil
	}
	retryable := class == ClassTemporary

	var cause FetchErrorCause
	var message string
	switch {
	case statusCode == http.StatusTooManyRequests:
		cause, message = ErrCauseRequestTooMany, "rate limited (429)"
	case statusCode == http.StatusRequestTimeout:
		cause, message = ErrCauseTimeout, "request timeout (408)"
	case statusCode >= 500:
		cause, message = ErrCauseRequest5xx, fmt.Sprintf("server error (%d)", statusCode)
	case statusCode == http.StatusNotFound || statusCode == http.StatusGone:
		cause, message = ErrCauseNotFound, fmt.Sprintf("page not found (%d)", statusCode)
	case statusCode == http.StatusForbidden || statusCode == http.StatusUnavailableForLegalReasons:
		cause, message = ErrCauseRequestPageForbidden, fmt.Sprintf("access forbidden (%d)", statusCode)
	case statusCode >= 300 && statusCode < 400:
		cause, message = ErrCauseRedirectLimitExceeded, fmt.Sprintf("redirect not followed (%d)", statusCode)
	default:
		cause, message = ErrCauseClientError, fmt.Sprintf("unexpected status (%d)", statusCode)
	}

	return &FetchError{
		Message:    message,
		Retryable:  retryable,
		Cause:      cause,
		StatusCode: statusCode,
	}
}

func isHTMLContent(contentType string) bool {
	contentType = strings.ToLower(contentType)
	return strings.Contains(contentType, "text/html") ||
		strings.Contains(contentType, "application/xhtml")
}
