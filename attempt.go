package wikibench

import (
	"context"
	"log/slog"

	"github.com/cenkalti/backoff/v4"
)

// AttemptSpec describes one attempt to run.
type AttemptSpec struct {
	Model        string
	Condition    Condition
	Index        int
	Start        ArticleRef
	Target       ArticleRef
	SystemPrompt string
	Provider     DecisionProvider

	// BestPathLength, when >= 0, is a precomputed optimal length
	// (the peer-pressure condition computes it up front). Negative
	// means the runner asks the oracle itself.
	BestPathLength int
}

// AttemptRunner runs one navigation session and always produces a
// complete AttemptRecord: decision failures are retried with backoff,
// and anything unrecoverable is folded into an unsolved record scored
// at the full click budget. Nothing escapes to the caller.
type AttemptRunner struct {
	pages           PageSource
	oracle          *Oracle
	clickBudget     int
	decisionRetries uint64
	logger          *slog.Logger
}

// NewAttemptRunner constructs a runner shared by many attempts.
func NewAttemptRunner(pages PageSource, oracle *Oracle, clickBudget int, decisionRetries uint64, logger *slog.Logger) *AttemptRunner {
	if logger == nil {
		logger = slog.Default()
	}
	if clickBudget <= 0 {
		clickBudget = DefaultClickBudget
	}
	return &AttemptRunner{
		pages:           pages,
		oracle:          oracle,
		clickBudget:     clickBudget,
		decisionRetries: decisionRetries,
		logger:          logger,
	}
}

// Run plays one attempt to completion.
func (r *AttemptRunner) Run(ctx context.Context, spec AttemptSpec) AttemptRecord {
	record := AttemptRecord{
		Model:        spec.Model,
		Condition:    spec.Condition,
		AttemptIndex: spec.Index,
		Start:        spec.Start,
		Target:       spec.Target,
		TotalClicks:  r.clickBudget,
	}

	best := spec.BestPathLength
	if best < 0 {
		d, err := r.oracle.Distance(ctx, spec.Start.Title, spec.Target.Title)
		if err != nil {
			r.logger.Warn("best path unavailable, attempt is fatal",
				"model", spec.Model, "attempt", spec.Index, "error", err)
			record.Fatal = true
			record.BestPathLength = Unreachable
			return record
		}
		best = d
	}
	record.BestPathLength = best

	decider := &retryingProvider{
		inner:      spec.Provider,
		maxRetries: r.decisionRetries,
		logger:     r.logger,
	}
	session := NewSession(r.pages, r.oracle, decider, spec.Start, spec.Target, r.clickBudget, spec.SystemPrompt, r.logger)
	outcome := session.Run(ctx)

	record.Solved = outcome.Solved
	record.TotalClicks = outcome.TotalClicks
	record.Fatal = outcome.State == StateFatalError
	record.Steps = outcome.Steps
	record.Path = outcome.Path
	return record
}

// retryingProvider retries decision failures with exponential backoff.
// Exhausting the retry budget surfaces a DecisionError, which the
// session treats as fatal.
type retryingProvider struct {
	inner      DecisionProvider
	maxRetries uint64
	logger     *slog.Logger
}

func (p *retryingProvider) Decide(ctx context.Context, systemPrompt, userPrompt string) (string, error) {
	var out string
	attempt := 0
	op := func() error {
		attempt++
		resp, err := p.inner.Decide(ctx, systemPrompt, userPrompt)
		if err != nil {
			p.logger.Debug("decision call failed", "try", attempt, "error", err)
			return err
		}
		out = resp
		return nil
	}
	bo := backoff.WithContext(backoff.WithMaxRetries(backoff.NewExponentialBackOff(), p.maxRetries), ctx)
	if err := backoff.Retry(op, bo); err != nil {
		return "", &DecisionError{Err: err}
	}
	return out, nil
}
