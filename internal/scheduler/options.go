package scheduler

// Option customises NewScheduler.
type Option func(*options)

type options struct {
	queueStatePath string
}

// WithQueueStatePath persists the frontier at path instead of the
// configured queue state file. The recovery tool uses its own queue so the
// main crawl's pending work is left untouched.
func WithQueueStatePath(path string) Option {
	return func(o *options) {
		o.queueStatePath = path
	}
}
