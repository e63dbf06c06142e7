package fetcher

import "fmt"

// Class is the retry class of a single HTTP response.
type Class int

const (
	ClassSuccess Class = iota
	ClassPermanent
	ClassTemporary
)

func (c Class) String() string {
	switch c {
	case ClassSuccess:
		return "success"
	case ClassTemporary:
		return "temporary"
	default:
		return "permanent"
	}
}

// OutcomeKind tags a FetchOutcome.
type OutcomeKind int

const (
	OutcomeSuccess OutcomeKind = iota
	OutcomePermanentFailure
	OutcomeTemporaryFailure
	// OutcomeConnectivityLost is not terminal; the caller decides whether
	// to try another cycle.
	OutcomeConnectivityLost
)

func (k OutcomeKind) String() string {
	switch k {
	case OutcomeSuccess:
		return "success"
	case OutcomePermanentFailure:
		return "permanent_failure"
	case OutcomeTemporaryFailure:
		return "temporary_failure"
	case OutcomeConnectivityLost:
		return "connectivity_lost"
	default:
		return fmt.Sprintf("outcome(%d)", int(k))
	}
}

// FetchOutcome is the result of one fetch cycle: the first attempt plus
// its retries, and the connectivity probe when they are exhausted.
type FetchOutcome struct {
	kind     OutcomeKind
	body     []byte
	reason   string
	meta     ResponseMeta
	attempts int
}

type ResponseMeta struct {
	statusCode  int
	contentType string
}

func NewSuccess(body []byte, statusCode int, contentType string) FetchOutcome {
	return FetchOutcome{
		kind: OutcomeSuccess,
		body: body,
		meta: ResponseMeta{statusCode: statusCode, contentType: contentType},
	}
}

func NewPermanentFailure(reason string, statusCode int) FetchOutcome {
	return FetchOutcome{
		kind:   OutcomePermanentFailure,
		reason: reason,
		meta:   ResponseMeta{statusCode: statusCode},
	}
}

func NewTemporaryFailure(reason string) FetchOutcome {
	return FetchOutcome{kind: OutcomeTemporaryFailure, reason: reason}
}

func NewConnectivityLost(reason string) FetchOutcome {
	return FetchOutcome{kind: OutcomeConnectivityLost, reason: reason}
}

// WithAttempts returns a copy carrying the number of HTTP attempts made.
func (f FetchOutcome) WithAttempts(n int) FetchOutcome {
	f.attempts = n
	return f
}

func (f FetchOutcome) Kind() OutcomeKind {
	return f.kind
}

func (f FetchOutcome) Body() []byte {
	return f.body
}

func (f FetchOutcome) Reason() string {
	return f.reason
}

func (f FetchOutcome) StatusCode() int {
	return f.meta.statusCode
}

func (f FetchOutcome) ContentType() string {
	return f.meta.contentType
}

func (f FetchOutcome) Attempts() int {
	return f.attempts
}

// Retries is the number of attempts after the first one.
func (f FetchOutcome) Retries() int {
	if f.attempts <= 1 {
		return 0
	}
	return f.attempts - 1
}

// fetchedPage is what one successful HTTP attempt yields.
type fetchedPage struct {
	body        []byte
	statusCode  int
	contentType string
}
