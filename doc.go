// Package wikibench measures how well language-model agents play the
// Wikipedia game: navigating from a random start article to a random
// target article using only the hyperlinks on the current page.
//
// # Architecture
//
// A benchmark run is organised in layers, leaves first:
//
//  1. A LinkSource/PageSource (the wikipedia subpackage) exposes the
//     live link graph one article at a time.
//  2. The Oracle computes exact shortest-hop distances over that graph
//     with lazy, cached, frontier-by-frontier BFS.
//  3. A Session drives one agent through successive link choices,
//     validating each against the page's actual links and classifying
//     every step as forward, neutral, or backwards relative to the
//     oracle distance.
//  4. An AttemptRunner wraps one session with retry/backoff around
//     decision failures and produces a complete AttemptRecord.
//  5. The Orchestrator schedules models x conditions x attempts under a
//     global concurrency cap and folds the records into trimmed,
//     outlier-robust statistics per model per condition.
//
// # Interfaces
//
// Implement DecisionProvider to connect any language model:
//
//	type DecisionProvider interface {
//	    Decide(ctx context.Context, systemPrompt, userPrompt string) (string, error)
//	}
//
// The openrouter subpackage provides an implementation backed by the
// OpenRouter chat completions API with per-model reasoning settings.
//
// # Basic Usage
//
//	client := wikipedia.NewClient()
//	oracle := wikibench.NewOracle(client)
//	orch := wikibench.New(oracle, client, wikipedia.NewSampler(client, cutoff), providers,
//	    wikibench.WithModels(models),
//	    wikibench.WithMaxConcurrent(8),
//	)
//	report, err := orch.RunCondition(ctx, wikibench.BaselineCondition())
//
// Failures of a single attempt never abort sibling attempts: a fatal
// attempt is scored as unsolved at the full click budget and the run
// always completes with a full result set.
package wikibench
