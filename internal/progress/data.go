package progress

import (
	"time"

	"github.com/rohmanhakim/wiki-crawler/internal/frontier"
)

// Outcome is the terminal state of a processed URL.
type Outcome string

const (
	OutcomeSucceeded Outcome = "succeeded"
	OutcomeFailed    Outcome = "failed"
	OutcomeFiltered  Outcome = "filtered"
	OutcomeSkipped   Outcome = "skipped"
)

// Counters is the aggregate crawl progress. Processed equals the sum of the
// four outcome buckets; a URL counts once even if it is processed again by
// a recovery run.
type Counters struct {
	Processed                 int `json:"processed" yaml:"processed"`
	Succeeded                 int `json:"succeeded" yaml:"succeeded"`
	Failed                    int `json:"failed" yaml:"failed"`
	Filtered                  int `json:"filtered" yaml:"filtered"`
	Skipped                   int `json:"skipped" yaml:"skipped"`
	CircuitBreakerActivations int `json:"circuit_breaker_activations" yaml:"circuit_breaker_activations"`
	RetryAttempts             int `json:"retry_attempts" yaml:"retry_attempts"`
	Pending                   int `json:"pending" yaml:"pending"`
}

// SuccessRate is Succeeded/Processed as a percentage.
func (c Counters) SuccessRate() float64 {
	if c.Processed == 0 {
		return 0
	}
	return float64(c.Succeeded) / float64(c.Processed) * 100
}

// Event reports one URL reaching a terminal outcome.
type Event struct {
	URL      string
	Kind     frontier.Kind
	Depth    int
	Outcome  Outcome
	Reason   string
	Language string
	// CircuitBreaker marks a skip forced after the last retry cycle.
	CircuitBreaker bool
}

// URLRecord is the last known status of one URL.
type URLRecord struct {
	Status    Outcome       `json:"status"`
	Kind      frontier.Kind `json:"kind"`
	Depth     int           `json:"depth"`
	Reason    string        `json:"reason,omitempty"`
	Language  string        `json:"language,omitempty"`
	UpdatedAt time.Time     `json:"updated_at"`
}

// Report is a point-in-time view for status output.
type Report struct {
	SessionID     string
	StartURL      string
	Running       bool
	StartedAt     time.Time
	LastActivity  time.Time
	Counters      Counters
	LanguageStats map[string]int
	ErrorSummary  map[string]int
	RecentURLs    []string
}

type ledgerState struct {
	Version       string               `json:"version"`
	SessionID     string               `json:"session_id"`
	StartURL      string               `json:"start_url"`
	Running       bool                 `json:"is_running"`
	StartedAt     time.Time            `json:"start_time"`
	LastActivity  time.Time            `json:"last_activity"`
	Counters      Counters             `json:"counters"`
	LanguageStats map[string]int       `json:"language_stats"`
	ErrorSummary  map[string]int       `json:"error_summary"`
	RecentURLs    []string             `json:"recent_urls"`
	URLStatus     map[string]URLRecord `json:"url_status"`
	SavedAt       time.Time            `json:"saved_at"`
}

const stateVersion = "1"
