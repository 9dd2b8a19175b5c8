package wikibench

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"sync"

	"github.com/google/uuid"
	"golang.org/x/sync/semaphore"
)

// ConditionReport is the full outcome of one condition: every attempt
// record plus the per-model aggregates, ready for the reporting sink.
type ConditionReport struct {
	RunID     string
	Condition Condition
	Results   []BenchmarkResult
	Attempts  []AttemptRecord
	Tips      map[string]string // present when the condition collects tips
}

// Orchestrator schedules attempts across models and conditions under a
// single global concurrency cap and aggregates the records. Attempts
// are mutually independent; one attempt's failure is contained in its
// own record and never aborts siblings or the run.
type Orchestrator struct {
	oracle    *Oracle
	pages     PageSource
	sampler   PairSampler
	providers ProviderFactory

	models          []string
	displayNames    map[string]string
	maxConcurrent   int64
	clickBudget     int
	attempts        int
	trim            int
	decisionRetries uint64
	logger          *slog.Logger

	mu   sync.Mutex
	tips map[string]string // model -> tips collected during baseline
}

// New constructs an Orchestrator.
func New(oracle *Oracle, pages PageSource, sampler PairSampler, providers ProviderFactory, opts ...Option) *Orchestrator {
	o := &Orchestrator{
		oracle:          oracle,
		pages:           pages,
		sampler:         sampler,
		providers:       providers,
		maxConcurrent:   DefaultMaxConcurrent,
		clickBudget:     DefaultClickBudget,
		attempts:        DefaultAttemptsPerCondition,
		trim:            DefaultTrimCount,
		decisionRetries: defaultDecisionRetries,
		logger:          slog.Default(),
		tips:            make(map[string]string),
	}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// Tips returns the tips collected so far, keyed by model.
func (o *Orchestrator) Tips() map[string]string {
	o.mu.Lock()
	defer o.mu.Unlock()
	out := make(map[string]string, len(o.tips))
	for k, v := range o.tips {
		out[k] = v
	}
	return out
}

// RunCondition plays one condition to completion: samples pairs, runs
// models x attempts under the global cap, and aggregates. The returned
// error is reserved for failures of the run's own setup (sampling); no
// individual attempt failure surfaces here.
func (o *Orchestrator) RunCondition(ctx context.Context, cond ConditionConfig) (ConditionReport, error) {
	runID := uuid.NewString()
	report := ConditionReport{RunID: runID, Condition: cond.Name}

	if len(o.models) == 0 {
		return report, fmt.Errorf("no models configured")
	}

	o.logger.Info("sampling article pairs",
		"condition", cond.Name, "count", o.attempts, "post_cutoff_only", cond.PostCutoffOnly)
	pairs, err := o.sampler.SamplePairs(ctx, o.attempts, cond.PostCutoffOnly)
	if err != nil {
		return report, fmt.Errorf("sample pairs: %w", err)
	}
	if len(pairs) < o.attempts {
		o.logger.Warn("short sample", "requested", o.attempts, "got", len(pairs))
	}

	// Peer pressure quotes the optimal length in the preamble, so those
	// runs need it before any session starts. Other conditions let each
	// runner ask the oracle lazily.
	bestPaths := make(map[int]int)
	if cond.UsePeerPressure {
		for i, pair := range pairs {
			d, err := o.oracle.Distance(ctx, pair.Start.Title, pair.Target.Title)
			if err != nil {
				o.logger.Warn("precompute best path failed",
					"start", pair.Start.Title, "target", pair.Target.Title, "error", err)
				continue
			}
			bestPaths[i] = d
		}
	}

	runner := NewAttemptRunner(o.pages, o.oracle, o.clickBudget, o.decisionRetries, o.logger)
	sem := semaphore.NewWeighted(o.maxConcurrent)
	records := make(chan AttemptRecord, len(o.models)*len(pairs))
	var wg sync.WaitGroup

	for _, model := range o.models {
		provider := o.providers(model, cond)
		for i, pair := range pairs {
			if err := sem.Acquire(ctx, 1); err != nil {
				// Run aborted; in-flight attempts drain below and
				// partial work is discarded.
				break
			}
			wg.Add(1)
			spec := AttemptSpec{
				Model:          model,
				Condition:      cond.Name,
				Index:          i,
				Start:          pair.Start,
				Target:         pair.Target,
				SystemPrompt:   o.systemPrompt(model, cond, pair, bestPaths[i]),
				Provider:       provider,
				BestPathLength: -1,
			}
			if d, ok := bestPaths[i]; ok {
				spec.BestPathLength = d
			}
			go func() {
				defer wg.Done()
				defer sem.Release(1)
				record := runner.Run(ctx, spec)
				if ctx.Err() != nil {
					// Aborted attempts contribute nothing.
					return
				}
				records <- record
			}()
		}
	}

	wg.Wait()
	close(records)
	if err := ctx.Err(); err != nil {
		return report, err
	}

	for record := range records {
		report.Attempts = append(report.Attempts, record)
	}
	sort.Slice(report.Attempts, func(a, b int) bool {
		if report.Attempts[a].Model != report.Attempts[b].Model {
			return report.Attempts[a].Model < report.Attempts[b].Model
		}
		return report.Attempts[a].AttemptIndex < report.Attempts[b].AttemptIndex
	})

	report.Results = o.aggregate(runID, cond.Name, report.Attempts)

	if cond.CollectTips {
		o.collectTips(ctx, cond, pairs)
		report.Tips = o.Tips()
	}
	return report, nil
}

// RunAll plays every condition in canonical order. Baseline runs first
// so the tips condition can consume its collected tips.
func (o *Orchestrator) RunAll(ctx context.Context) (map[Condition]ConditionReport, error) {
	reports := make(map[Condition]ConditionReport)
	for _, cond := range Conditions() {
		o.logger.Info("running condition", "condition", cond.Name)
		report, err := o.RunCondition(ctx, cond)
		if err != nil {
			return reports, fmt.Errorf("condition %s: %w", cond.Name, err)
		}
		reports[cond.Name] = report
	}
	return reports, nil
}

// aggregate groups records per model. The fold is order-independent:
// grouping keys on the record itself and Aggregate ranks attempts by
// their own indexes.
func (o *Orchestrator) aggregate(runID string, cond Condition, attempts []AttemptRecord) []BenchmarkResult {
	byModel := make(map[string][]int)
	for i, record := range attempts {
		byModel[record.Model] = append(byModel[record.Model], i)
	}

	results := make([]BenchmarkResult, 0, len(byModel))
	for _, model := range o.models {
		idxs := byModel[model]
		if len(idxs) == 0 {
			continue
		}
		group := make([]AttemptRecord, len(idxs))
		for j, i := range idxs {
			group[j] = attempts[i]
		}
		res := Aggregate(runID, cond, model, group, o.clickBudget, o.trim)
		for j, i := range idxs {
			attempts[i].TrimmedIncluded = group[j].TrimmedIncluded
		}
		results = append(results, res)
	}
	return results
}

// systemPrompt assembles the condition-specific prompt prefix in front
// of the base game prompt.
func (o *Orchestrator) systemPrompt(model string, cond ConditionConfig, pair Pair, bestPath int) string {
	prefix := ""
	if cond.UseTips {
		o.mu.Lock()
		tips := o.tips[model]
		o.mu.Unlock()
		if tips != "" {
			prefix += TipsPreamble(tips)
		}
	}
	if cond.UsePeerPressure {
		prefix += PeerPressurePreamble(o.displayName(model), o.rivalNames(model), pair.Start.Title, pair.Target.Title, bestPath)
	}
	return prefix + SystemPrompt(pair.Target.Title)
}

func (o *Orchestrator) displayName(model string) string {
	if name, ok := o.displayNames[model]; ok {
		return name
	}
	return model
}

func (o *Orchestrator) rivalNames(model string) []string {
	var rivals []string
	for _, m := range o.models {
		if m != model {
			rivals = append(rivals, o.displayName(m))
		}
	}
	return rivals
}

// collectTips plays one extra game per model at the condition's
// reasoning level and asks the model to write tips for a future player.
// Tips failures are logged and skipped; they never fail the run.
func (o *Orchestrator) collectTips(ctx context.Context, cond ConditionConfig, pairs []Pair) {
	if len(pairs) == 0 {
		return
	}
	pair := pairs[0]
	runner := NewAttemptRunner(o.pages, o.oracle, o.clickBudget, o.decisionRetries, o.logger)

	for _, model := range o.models {
		provider := o.providers(model, cond)
		record := runner.Run(ctx, AttemptSpec{
			Model:          model,
			Condition:      cond.Name,
			Index:          0,
			Start:          pair.Start,
			Target:         pair.Target,
			SystemPrompt:   SystemPrompt(pair.Target.Title),
			Provider:       provider,
			BestPathLength: -1,
		})
		if ctx.Err() != nil {
			return
		}

		prompt := TipsRequestPrompt(record.Solved, record.Path, pair.Target.Title)
		tips, err := provider.Decide(ctx, "", prompt)
		if err != nil {
			o.logger.Warn("tips collection failed", "model", model, "error", err)
			continue
		}
		o.mu.Lock()
		o.tips[model] = tips
		o.mu.Unlock()
		o.logger.Info("collected tips", "model", model, "chars", len(tips))
	}
}
