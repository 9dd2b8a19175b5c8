package wikibench

import "log/slog"

// Defaults for a benchmark run.
const (
	DefaultClickBudget          = 30
	DefaultAttemptsPerCondition = 15
	DefaultTrimCount            = 3
	DefaultMaxConcurrent        = 8
	defaultDecisionRetries      = 3
)

// Option configures an Orchestrator.
type Option func(*Orchestrator)

// WithModels sets the model identifiers to benchmark.
func WithModels(models []string) Option {
	return func(o *Orchestrator) { o.models = models }
}

// WithMaxConcurrent caps simultaneously in-flight attempts across the
// entire run, not per model.
func WithMaxConcurrent(n int64) Option {
	return func(o *Orchestrator) {
		if n > 0 {
			o.maxConcurrent = n
		}
	}
}

// WithClickBudget sets the per-attempt click budget.
func WithClickBudget(n int) Option {
	return func(o *Orchestrator) {
		if n > 0 {
			o.clickBudget = n
		}
	}
}

// WithAttemptsPerCondition sets how many attempts each model plays
// under each condition.
func WithAttemptsPerCondition(n int) Option {
	return func(o *Orchestrator) {
		if n > 0 {
			o.attempts = n
		}
	}
}

// WithTrimCount sets how many worst-scoring attempts are dropped before
// computing click statistics.
func WithTrimCount(n int) Option {
	return func(o *Orchestrator) {
		if n >= 0 {
			o.trim = n
		}
	}
}

// WithDecisionRetries sets how many times a failed decision call is
// retried before the session goes fatal.
func WithDecisionRetries(n uint64) Option {
	return func(o *Orchestrator) { o.decisionRetries = n }
}

// WithLogger sets the structured logger used throughout the run.
func WithLogger(logger *slog.Logger) Option {
	return func(o *Orchestrator) {
		if logger != nil {
			o.logger = logger
		}
	}
}

// WithTips seeds previously collected per-model tips, typically loaded
// from a prior baseline run.
func WithTips(tips map[string]string) Option {
	return func(o *Orchestrator) {
		for model, t := range tips {
			o.tips[model] = t
		}
	}
}

// WithDisplayNames sets short human-readable model names used in the
// peer-pressure preamble.
func WithDisplayNames(names map[string]string) Option {
	return func(o *Orchestrator) { o.displayNames = names }
}
