package decision

import (
	"context"
	"sync"
)

// Decision is the operator's answer after connectivity was lost.
type Decision int

const (
	Skip Decision = iota
	Continue
)

func (d Decision) String() string {
	if d == Continue {
		return "continue"
	}
	return "skip"
}

// Prompt describes the URL the crawler is stuck on.
type Prompt struct {
	URL string
	// Cycle is the user-driven retry cycle about to start, 1-based.
	Cycle     int
	MaxCycles int
	// Attempts is the number of requests one cycle makes.
	Attempts int
	Reason   string
}

// IsFinal reports whether a failure in this cycle trips the circuit breaker.
func (p Prompt) IsFinal() bool {
	return p.Cycle >= p.MaxCycles
}

// Provider is asked whether to retry a URL after connectivity was lost.
// Implementations must return Skip once ctx is done.
type Provider interface {
	AskContinueOrSkip(ctx context.Context, prompt Prompt) Decision
}

// Fixed always answers the same way. Fixed{Skip} is the non-interactive
// provider.
type Fixed struct {
	Answer Decision
}

func (f Fixed) AskContinueOrSkip(ctx context.Context, _ Prompt) Decision {
	if ctx.Err() != nil {
		return Skip
	}
	return f.Answer
}

// Scripted replays answers in order and falls back to Skip when they run
// out. It keeps every prompt it was shown.
type Scripted struct {
	mu      sync.Mutex
	answers []Decision
	prompts []Prompt
}

func NewScripted(answers ...Decision) *Scripted {
	return &Scripted{answers: answers}
}

func (s *Scripted) AskContinueOrSkip(ctx context.Context, prompt Prompt) Decision {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.prompts = append(s.prompts, prompt)
	if ctx.Err() != nil || len(s.answers) == 0 {
		return Skip
	}
	answer := s.answers[0]
	s.answers = s.answers[1:]
	return answer
}

func (s *Scripted) Prompts() []Prompt {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]Prompt, len(s.prompts))
	copy(out, s.prompts)
	return out
}
