package scheduler

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strconv"
	"time"

	"github.com/rohmanhakim/wiki-crawler/internal/content"
	"github.com/rohmanhakim/wiki-crawler/internal/decision"
	"github.com/rohmanhakim/wiki-crawler/internal/extractor"
	"github.com/rohmanhakim/wiki-crawler/internal/fetcher"
	"github.com/rohmanhakim/wiki-crawler/internal/frontier"
	"github.com/rohmanhakim/wiki-crawler/internal/metadata"
	"github.com/rohmanhakim/wiki-crawler/internal/progress"
	"github.com/rohmanhakim/wiki-crawler/internal/storage"
	"github.com/rohmanhakim/wiki-crawler/pkg/failure"
)

// processItem drives one work item to a terminal outcome. It returns false
// when a fetcher gave up because of shutdown; the item is then left in
// flight and persisted as pending.
func (s *Scheduler) processItem(ctx context.Context, item frontier.WorkItem) bool {
	pageURL, err := url.Parse(item.URL)
	if err != nil {
		s.finalize(item, itemResult{
			outcome: progress.OutcomeFailed,
			reason:  fmt.Sprintf("invalid url: %v", err),
		}, 0)
		return true
	}

	outcome, retries, breaker := s.fetchWithCircuitBreaker(ctx, *pageURL, item.Depth)
	if breaker != nil {
		s.finalize(item, *breaker, retries)
		return true
	}

	switch outcome.Kind() {
	case fetcher.OutcomeTemporaryFailure:
		if ctx.Err() != nil {
			s.progress.RecordRetries(retries)
			return false
		}
		s.finalize(item, itemResult{outcome: progress.OutcomeFailed, reason: outcome.Reason()}, retries)
	case fetcher.OutcomePermanentFailure:
		s.finalize(item, itemResult{outcome: progress.OutcomeFailed, reason: outcome.Reason()}, retries)
	case fetcher.OutcomeSuccess:
		s.finalize(item, s.handlePage(*pageURL, item, outcome.Body()), retries)
	default:
		s.finalize(item, itemResult{
			outcome: progress.OutcomeFailed,
			reason:  fmt.Sprintf("unexpected fetch outcome: %s", outcome.Kind()),
		}, retries)
	}
	return true
}

// fetchWithCircuitBreaker runs the initial cycle and, while connectivity
// stays lost, up to MaxUserCycles operator-approved cycles. A URL is
// therefore fetched at most (MaxUserCycles+1)*(maxRetries+1) times. A
// non-nil itemResult means the item ended as Skipped.
func (s *Scheduler) fetchWithCircuitBreaker(
	ctx context.Context,
	pageURL url.URL,
	depth int,
) (fetcher.FetchOutcome, int, *itemResult) {
	// The in-flight fetch outlives shutdown so the item reaches a terminal
	// state; only the prompt observes ctx.
	fetchCtx := context.WithoutCancel(ctx)
	outcome := s.fetcher.Fetch(fetchCtx, pageURL, depth)
	retries := outcome.Retries()

	for cycle := 1; outcome.Kind() == fetcher.OutcomeConnectivityLost; cycle++ {
		if cycle > s.param.MaxUserCycles {
			s.metadataSink.RecordCircuitBreak(pageURL.String(), s.param.MaxUserCycles)
			return outcome, retries, &itemResult{
				outcome:        progress.OutcomeSkipped,
				reason:         fmt.Sprintf("circuit breaker: %s", outcome.Reason()),
				circuitBreaker: true,
			}
		}

		answer := s.decider.AskContinueOrSkip(ctx, decision.Prompt{
			URL:       pageURL.String(),
			Cycle:     cycle,
			MaxCycles: s.param.MaxUserCycles,
			Attempts:  outcome.Attempts(),
			Reason:    outcome.Reason(),
		})
		s.metadataSink.RecordPrompt(pageURL.String(), cycle, s.param.MaxUserCycles, answer.String())

		if answer != decision.Continue || ctx.Err() != nil {
			return outcome, retries, &itemResult{
				outcome: progress.OutcomeSkipped,
				reason:  fmt.Sprintf("user skipped: %s", outcome.Reason()),
			}
		}

		outcome = s.fetcher.Fetch(fetchCtx, pageURL, depth)
		retries += outcome.Retries()
	}
	return outcome, retries, nil
}

// handlePage classifies a fetched page and routes it. Classification wins
// over the kind the URL was queued with.
func (s *Scheduler) handlePage(pageURL url.URL, item frontier.WorkItem, body []byte) itemResult {
	switch s.processor.ClassifyPage(pageURL, body) {
	case extractor.PageCategory:
		return s.expandCategory(pageURL, item, body)
	case extractor.PageArticle:
		return s.processArticle(pageURL, item, body)
	default:
		return itemResult{outcome: progress.OutcomeFailed, reason: "unknown page type"}
	}
}

func (s *Scheduler) expandCategory(pageURL url.URL, item frontier.WorkItem, body []byte) itemResult {
	category, err := s.processor.ExtractCategory(pageURL, body)
	if err != nil {
		return itemResult{outcome: progress.OutcomeFailed, reason: contentReason(err)}
	}

	childDepth := item.Depth + 1
	if childDepth <= s.param.MaxDepth {
		for _, sub := range category.Subcategories {
			s.frontier.Add(sub, frontier.KindCategory, childDepth)
		}
	}
	for _, article := range category.Articles {
		s.frontier.Add(article, frontier.KindArticle, item.Depth)
	}

	_, saveErr := s.storageSink.SaveCategory(storage.CategoryRecord{
		URL:           pageURL.String(),
		Title:         category.Title,
		Subcategories: category.Subcategories,
		Articles:      category.Articles,
		ProcessedAt:   s.now(),
		Type:          storage.TypeCategory,
	})
	if saveErr != nil {
		return itemResult{outcome: progress.OutcomeFailed, reason: storageReason(saveErr)}
	}
	return itemResult{outcome: progress.OutcomeSucceeded}
}

func (s *Scheduler) processArticle(pageURL url.URL, item frontier.WorkItem, body []byte) itemResult {
	article, err := s.processor.ExtractArticle(pageURL, body)
	if err != nil {
		return itemResult{outcome: progress.OutcomeFailed, reason: contentReason(err)}
	}
	if !article.Supported {
		return itemResult{
			outcome:  progress.OutcomeFiltered,
			reason:   fmt.Sprintf("unsupported language: %s", article.Language),
			language: article.Language,
		}
	}

	_, saveErr := s.storageSink.SaveArticle(storage.ArticleRecord{
		URL:         pageURL.String(),
		Title:       article.Title,
		Content:     article.Markdown,
		Language:    article.Language,
		ProcessedAt: s.now(),
		Type:        storage.TypeArticle,
	})
	if saveErr != nil {
		return itemResult{
			outcome:  progress.OutcomeFailed,
			reason:   storageReason(saveErr),
			language: article.Language,
		}
	}
	return itemResult{outcome: progress.OutcomeSucceeded, language: article.Language}
}

// finalize commits a terminal outcome in ledger, progress, frontier order
// and persists all stores.
func (s *Scheduler) finalize(item frontier.WorkItem, result itemResult, retries int) {
	s.progress.RecordRetries(retries)
	s.ledger.MarkDone(item.URL)
	s.progress.Record(progress.Event{
		URL:            item.URL,
		Kind:           item.Kind,
		Depth:          item.Depth,
		Outcome:        result.outcome,
		Reason:         result.reason,
		Language:       result.language,
		CircuitBreaker: result.circuitBreaker,
	})
	s.frontier.MarkDone(item.URL)
	s.metadataSink.RecordOutcome(item.URL, string(item.Kind), string(result.outcome), result.reason)
	if result.outcome == progress.OutcomeFailed {
		s.metadataSink.RecordError(
			time.Now(),
			"scheduler",
			"Scheduler.finalize",
			metadata.CauseUnknown,
			result.reason,
			[]metadata.Attribute{
				metadata.NewAttr(metadata.AttrURL, item.URL),
				metadata.NewAttr(metadata.AttrDepth, strconv.Itoa(item.Depth)),
				metadata.NewAttr(metadata.AttrKind, string(item.Kind)),
			},
		)
	}
	s.setPending(s.frontier.Pending())
	s.saveState()
}

func contentReason(err failure.ClassifiedError) string {
	var contentErr *content.ContentError
	if errors.As(err, &contentErr) {
		return contentErr.Message
	}
	return err.Error()
}

func storageReason(err failure.ClassifiedError) string {
	var storageErr *storage.StorageError
	if errors.As(err, &storageErr) {
		return fmt.Sprintf("storage: %s", storageErr.Message)
	}
	return fmt.Sprintf("storage: %s", err.Error())
}
