package scheduler

import (
	"time"

	"github.com/rohmanhakim/wiki-crawler/internal/progress"
)

// CrawlingExecution summarises one Run.
type CrawlingExecution struct {
	Counters    progress.Counters
	Processed   int // items finalized during this run
	Interrupted bool
	Duration    time.Duration
}

// Param is the traversal policy.
type Param struct {
	MaxDepth      int
	MaxUserCycles int
}

// ResumeInfo reports what was restored from persisted state.
type ResumeInfo struct {
	LedgerLoaded   bool
	FrontierLoaded bool
	ProgressLoaded bool
	Pending        int
	Done           int
}

// Resumed reports whether any store existed on disk.
func (r ResumeInfo) Resumed() bool {
	return r.LedgerLoaded || r.FrontierLoaded || r.ProgressLoaded
}

// itemResult is the terminal state of one work item.
type itemResult struct {
	outcome        progress.Outcome
	reason         string
	language       string
	circuitBreaker bool
}
