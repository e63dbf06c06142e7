package metadata

import (
	"time"
)

/*
CrawlStats
  - Terminal summary of one crawl execution
  - Derived from the progress ledger after the loop stops
  - Recorded exactly once per run
  - Must not influence scheduling, retries, or crawl termination
*/
type CrawlStats struct {
	Processed                 int
	Succeeded                 int
	Failed                    int
	Filtered                  int
	Skipped                   int
	CircuitBreakerActivations int
	RetryAttempts             int
	Pending                   int
	Duration                  time.Duration
}

type ArtifactKind string

const (
	ArtifactCategory ArtifactKind = "category"
	ArtifactArticle  ArtifactKind = "article"
	ArtifactState    ArtifactKind = "state"
	ArtifactReport   ArtifactKind = "report"
)

/*
	ErrorCause is a closed, canonical classification used exclusively for
	observability (logging, metrics, reporting).

	Rules:
	 - ErrorCause MUST NOT influence control flow.
	 - ErrorCause MUST NOT be used for retry, continuation, or skip decisions;
	   those belong to the fetcher's outcome classes.
	 - Pipeline packages MAY map their local errors to ErrorCause,
	   but MUST NOT invent new meanings.

If a failure does not clearly match a defined cause, CauseUnknown MUST be used.
*/
type ErrorCause int

/*
Canonical ErrorCause Table

# CauseUnknown
  - Unexpected internal errors, unclassified library failures

# CauseNetworkFailure
  - Timeouts, DNS failures, connection resets, failed connectivity probe

# CausePolicyDisallow
  - HTTP 403 / 451, throttling (429)

# CauseContentInvalid
  - Non-HTML responses, unclassifiable pages, insufficient article content

# CauseStorageFailure
  - Failure writing records or crawl state to disk

# CauseInvariantViolation
  - Internal consistency checks failing, e.g. corrupt state files
*/
const (
	CauseUnknown ErrorCause = iota
	CauseNetworkFailure
	CausePolicyDisallow
	CauseContentInvalid
	CauseStorageFailure
	CauseInvariantViolation
)

func (c ErrorCause) String() string {
	switch c {
	case CauseNetworkFailure:
		return "network_failure"
	case CausePolicyDisallow:
		return "policy_disallow"
	case CauseContentInvalid:
		return "content_invalid"
	case CauseStorageFailure:
		return "storage_failure"
	case CauseInvariantViolation:
		return "invariant_violation"
	default:
		return "unknown"
	}
}

type Attribute struct {
	Key   AttributeKey
	Value string
}

func NewAttr(key AttributeKey, val string) Attribute {
	return Attribute{
		Key:   key,
		Value: val,
	}
}

type AttributeKey string

const (
	AttrURL        AttributeKey = "url"
	AttrHost       AttributeKey = "host"
	AttrDepth      AttributeKey = "depth"
	AttrKind       AttributeKey = "kind"
	AttrHTTPStatus AttributeKey = "http_status"
	AttrWritePath  AttributeKey = "write_path"
	AttrStateFile  AttributeKey = "state_file"
	AttrLanguage   AttributeKey = "language"
	AttrReason     AttributeKey = "reason"
	AttrStrategy   AttributeKey = "strategy"
)
