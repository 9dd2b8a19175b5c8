package wikibench

import (
	"math"
	"testing"
)

func solvedRecord(index, clicks int) AttemptRecord {
	return AttemptRecord{
		Model:          "test/model",
		AttemptIndex:   index,
		Solved:         true,
		TotalClicks:    clicks,
		BestPathLength: 3,
	}
}

func failedRecord(index, budget int) AttemptRecord {
	return AttemptRecord{
		Model:          "test/model",
		AttemptIndex:   index,
		Solved:         false,
		TotalClicks:    budget,
		BestPathLength: 3,
	}
}

func approx(t *testing.T, name string, got, want float64) {
	t.Helper()
	if math.Abs(got-want) > 1e-9 {
		t.Errorf("%s = %v, want %v", name, got, want)
	}
}

func TestEffectiveClicks(t *testing.T) {
	if got := solvedRecord(0, 7).EffectiveClicks(30); got != 7 {
		t.Errorf("solved effective clicks = %d, want 7", got)
	}
	if got := failedRecord(0, 30).EffectiveClicks(30); got != 30 {
		t.Errorf("failed effective clicks = %d, want 30", got)
	}
	// A failure scores the budget even if it ended early.
	r := failedRecord(0, 30)
	r.TotalClicks = 4
	if got := r.EffectiveClicks(30); got != 30 {
		t.Errorf("early failure effective clicks = %d, want 30", got)
	}
}

func TestAggregateTrimsWorstAttempts(t *testing.T) {
	// Three failures at the budget plus twelve solves at 5..16 clicks.
	// Trimming three drops exactly the failures.
	records := []AttemptRecord{
		failedRecord(0, 30),
		failedRecord(1, 30),
		failedRecord(2, 30),
	}
	for i := 0; i < 12; i++ {
		records = append(records, solvedRecord(3+i, 5+i))
	}

	res := Aggregate("run", ConditionBaseline, "test/model", records, 30, 3)

	approx(t, "median clicks", res.MedianClicks, 10.5)
	approx(t, "mean clicks", res.MeanClicks, 10.5)
	approx(t, "solve rate", res.SolveRate, 12.0/15.0*100)
	if res.Attempts != 15 {
		t.Errorf("attempts = %d, want 15", res.Attempts)
	}

	for i := 0; i < 3; i++ {
		if records[i].TrimmedIncluded {
			t.Errorf("failure %d kept in trimmed set", i)
		}
	}
	for i := 3; i < 15; i++ {
		if !records[i].TrimmedIncluded {
			t.Errorf("solve %d dropped from trimmed set", i)
		}
	}
}

func TestAggregateTieBreakKeepsEarliest(t *testing.T) {
	// All attempts score the same; the trim must drop the latest ones.
	records := make([]AttemptRecord, 5)
	for i := range records {
		records[i] = solvedRecord(i, 10)
	}

	Aggregate("run", ConditionBaseline, "test/model", records, 30, 2)

	for i := 0; i < 3; i++ {
		if !records[i].TrimmedIncluded {
			t.Errorf("attempt %d dropped, earliest should be kept on ties", i)
		}
	}
	for i := 3; i < 5; i++ {
		if records[i].TrimmedIncluded {
			t.Errorf("attempt %d kept, latest should be dropped on ties", i)
		}
	}
}

func TestAggregateKeepsAllWhenTooFewAttempts(t *testing.T) {
	// With no more attempts than the trim count, nothing is dropped.
	records := []AttemptRecord{solvedRecord(0, 5), solvedRecord(1, 7)}
	res := Aggregate("run", ConditionBaseline, "test/model", records, 30, 3)

	approx(t, "median clicks", res.MedianClicks, 6)
	approx(t, "mean clicks", res.MeanClicks, 6)
	for i := range records {
		if !records[i].TrimmedIncluded {
			t.Errorf("attempt %d dropped from an untrimmable sample", i)
		}
	}
}

func TestAggregateIdempotent(t *testing.T) {
	records := []AttemptRecord{
		solvedRecord(0, 8), failedRecord(1, 30), solvedRecord(2, 12),
		solvedRecord(3, 5), failedRecord(4, 30),
	}
	first := Aggregate("run", ConditionBaseline, "test/model", records, 30, 1)
	second := Aggregate("run", ConditionBaseline, "test/model", records, 30, 1)
	if first != second {
		t.Errorf("re-aggregation changed the result:\n%+v\n%+v", first, second)
	}
}

func TestAggregateSolveRateCoversAllAttempts(t *testing.T) {
	// Trimming affects click statistics only; the solve rate is over
	// every attempt, including the trimmed ones.
	records := []AttemptRecord{
		failedRecord(0, 30), failedRecord(1, 30), failedRecord(2, 30),
		solvedRecord(3, 6), solvedRecord(4, 9),
	}
	res := Aggregate("run", ConditionBaseline, "test/model", records, 30, 3)
	approx(t, "solve rate", res.SolveRate, 2.0/5.0*100)
}

func TestAggregateDirectionsOverValidStepsOnly(t *testing.T) {
	r := solvedRecord(0, 4)
	r.Steps = []StepRecord{
		{Index: 0, Valid: true, Direction: DirectionForward},
		{Index: 1, Valid: false, Direction: DirectionNeutral},
		{Index: 2, Valid: true, Direction: DirectionBackwards},
		{Index: 3, Valid: true, Direction: DirectionForward},
	}
	res := Aggregate("run", ConditionBaseline, "test/model", []AttemptRecord{r}, 30, 0)

	approx(t, "forward pct", res.ForwardPct, 2.0/3.0*100)
	approx(t, "neutral pct", res.NeutralPct, 0)
	approx(t, "backwards pct", res.BackwardsPct, 1.0/3.0*100)
}

func TestAggregateEmpty(t *testing.T) {
	res := Aggregate("run", ConditionBaseline, "test/model", nil, 30, 3)
	if res.Attempts != 0 || res.SolveRate != 0 {
		t.Errorf("empty aggregate = %+v", res)
	}
}

func TestMedian(t *testing.T) {
	cases := []struct {
		values []float64
		want   float64
	}{
		{[]float64{3}, 3},
		{[]float64{1, 3}, 2},
		{[]float64{5, 1, 3}, 3},
		{[]float64{4, 1, 3, 2}, 2.5},
		{nil, 0},
	}
	for _, tc := range cases {
		if got := median(tc.values); got != tc.want {
			t.Errorf("median(%v) = %v, want %v", tc.values, got, tc.want)
		}
	}
}
