package wikibench

import (
	"sort"
	"time"
)

// StepRecord is one navigation decision inside an attempt.
type StepRecord struct {
	Index          int        `json:"step_index"`
	From           ArticleRef `json:"from"`
	Chosen         Link       `json:"chosen,omitempty"`
	Valid          bool       `json:"valid"`
	DistanceBefore int        `json:"remaining_distance_before"`
	DistanceAfter  int        `json:"remaining_distance_after"`
	Direction      Direction  `json:"step_direction"`
	Timestamp      time.Time  `json:"timestamp_utc"`
}

// AttemptRecord is one full run of one model on one (start, target)
// pair under one condition.
type AttemptRecord struct {
	Model           string       `json:"model_id"`
	Condition       Condition    `json:"condition"`
	AttemptIndex    int          `json:"attempt_id"`
	Start           ArticleRef   `json:"start"`
	Target          ArticleRef   `json:"target"`
	Solved          bool         `json:"solved"`
	TotalClicks     int          `json:"total_clicks"`
	BestPathLength  int          `json:"best_path_length"`
	Fatal           bool         `json:"fatal"`
	TrimmedIncluded bool         `json:"trimmed_included"`
	Steps           []StepRecord `json:"steps"`
	Path            []string     `json:"path"`
}

// EffectiveClicks is the ranking score of an attempt: solved attempts
// score their click count, failures score the full budget.
func (a AttemptRecord) EffectiveClicks(budget int) int {
	if a.Solved {
		return a.TotalClicks
	}
	return budget
}

// BenchmarkResult aggregates one model's attempts under one condition.
// Click statistics are computed over the trimmed set; the solve rate
// covers every attempt.
type BenchmarkResult struct {
	RunID          string    `json:"run_id"`
	Condition      Condition `json:"condition"`
	Model          string    `json:"model_id"`
	Attempts       int       `json:"attempts"`
	MedianClicks   float64   `json:"median_clicks"`
	MeanClicks     float64   `json:"mean_clicks"`
	MedianBestPath float64   `json:"median_best_path"`
	SolveRate      float64   `json:"solve_rate_pct"`
	ForwardPct     float64   `json:"forward_pct"`
	NeutralPct     float64   `json:"neutral_pct"`
	BackwardsPct   float64   `json:"backwards_pct"`
}

// trimmedIndexes returns the record indexes kept for click statistics:
// all but the trim highest-cost attempts, ranked by effective clicks.
// Ties at the boundary keep the earliest-attempted record, which a
// stable sort over the original order guarantees. With no more records
// than the trim count, every record is kept; trimming exists to drop
// outliers, not to empty the sample.
func trimmedIndexes(records []AttemptRecord, budget, trim int) []int {
	idx := make([]int, len(records))
	for i := range idx {
		idx[i] = i
	}
	sort.SliceStable(idx, func(a, b int) bool {
		return records[idx[a]].EffectiveClicks(budget) < records[idx[b]].EffectiveClicks(budget)
	})
	keep := len(idx) - trim
	if keep <= 0 {
		keep = len(idx)
	}
	kept := idx[:keep]
	sorted := make([]int, len(kept))
	copy(sorted, kept)
	sort.Ints(sorted)
	return sorted
}

// Aggregate folds one model's attempt records for one condition into a
// BenchmarkResult, marking trimmed-set membership on the records. It is
// a pure function of the record set: record order does not affect any
// statistic beyond the documented boundary tie-break, and re-running it
// over unchanged records yields identical values.
func Aggregate(runID string, cond Condition, model string, records []AttemptRecord, budget, trim int) BenchmarkResult {
	res := BenchmarkResult{
		RunID:     runID,
		Condition: cond,
		Model:     model,
		Attempts:  len(records),
	}
	if len(records) == 0 {
		return res
	}

	kept := trimmedIndexes(records, budget, trim)
	inTrim := make(map[int]bool, len(kept))
	for _, i := range kept {
		inTrim[i] = true
	}
	for i := range records {
		records[i].TrimmedIncluded = inTrim[i]
	}

	var clicks, bestPaths []float64
	var forward, neutral, backwards, validSteps int
	for _, i := range kept {
		r := records[i]
		clicks = append(clicks, float64(r.EffectiveClicks(budget)))
		bestPaths = append(bestPaths, float64(r.BestPathLength))
		for _, s := range r.Steps {
			if !s.Valid {
				continue
			}
			validSteps++
			switch s.Direction {
			case DirectionForward:
				forward++
			case DirectionNeutral:
				neutral++
			case DirectionBackwards:
				backwards++
			}
		}
	}

	res.MedianClicks = median(clicks)
	res.MeanClicks = mean(clicks)
	res.MedianBestPath = median(bestPaths)

	solved := 0
	for _, r := range records {
		if r.Solved {
			solved++
		}
	}
	res.SolveRate = float64(solved) / float64(len(records)) * 100

	if validSteps > 0 {
		res.ForwardPct = float64(forward) / float64(validSteps) * 100
		res.NeutralPct = float64(neutral) / float64(validSteps) * 100
		res.BackwardsPct = float64(backwards) / float64(validSteps) * 100
	}
	return res
}

func median(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	sorted := make([]float64, len(values))
	copy(sorted, values)
	sort.Float64s(sorted)
	mid := len(sorted) / 2
	if len(sorted)%2 == 0 {
		return (sorted[mid-1] + sorted[mid]) / 2
	}
	return sorted[mid]
}

func mean(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	var sum float64
	for _, v := range values {
		sum += v
	}
	return sum / float64(len(values))
}
