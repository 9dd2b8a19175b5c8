// Package output renders finished benchmark reports as CSV files and
// human-readable text traces. It consumes the core's plain record
// structures and performs no computation of its own.
package output

import (
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/wikibench/wikibench"
)

// WriteAttemptsCSV writes the detailed per-step CSV for one condition.
// Each row is one step; attempts with no recorded steps still get one
// row so they remain visible in the detail file.
func WriteAttemptsCSV(path string, report wikibench.ConditionReport) error {
	f, err := create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	w := csv.NewWriter(f)
	defer w.Flush()

	header := []string{
		"benchmark_run_name", "model_id", "attempt_id",
		"start_page_title", "start_page_url",
		"target_page_title", "target_page_url",
		"solved", "total_clicks", "best_path_length", "trimmed_included",
		"step_index", "current_page_title", "current_page_url",
		"chosen_link", "valid",
		"remaining_distance_before", "remaining_distance_after",
		"step_direction", "timestamp_utc",
	}
	if err := w.Write(header); err != nil {
		return err
	}

	for _, attempt := range report.Attempts {
		base := []string{
			string(report.Condition),
			attempt.Model,
			strconv.Itoa(attempt.AttemptIndex),
			attempt.Start.Title, attempt.Start.URL,
			attempt.Target.Title, attempt.Target.URL,
			strconv.FormatBool(attempt.Solved),
			strconv.Itoa(attempt.TotalClicks),
			strconv.Itoa(attempt.BestPathLength),
			strconv.FormatBool(attempt.TrimmedIncluded),
		}

		if len(attempt.Steps) == 0 {
			row := append(append([]string{}, base...), "", "", "", "", "", "", "", "", "")
			if err := w.Write(row); err != nil {
				return err
			}
			continue
		}
		for _, step := range attempt.Steps {
			row := append(append([]string{}, base...),
				strconv.Itoa(step.Index+1), // 1-indexed for readers
				step.From.Title, step.From.URL,
				step.Chosen.URL,
				strconv.FormatBool(step.Valid),
				strconv.Itoa(step.DistanceBefore),
				strconv.Itoa(step.DistanceAfter),
				string(step.Direction),
				step.Timestamp.Format(time.RFC3339),
			)
			if err := w.Write(row); err != nil {
				return err
			}
		}
	}
	return w.Error()
}

// WriteSummaryCSV writes the per-model aggregate CSV for one condition.
func WriteSummaryCSV(path string, report wikibench.ConditionReport) error {
	f, err := create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	w := csv.NewWriter(f)
	defer w.Flush()

	header := []string{
		"benchmark_run_name", "run_id", "model_id",
		"total_attempts", "median_clicks", "mean_clicks",
		"median_best_path", "solve_rate",
		"forward_pct", "neutral_pct", "backwards_pct",
	}
	if err := w.Write(header); err != nil {
		return err
	}

	for _, res := range report.Results {
		row := []string{
			string(res.Condition),
			res.RunID,
			res.Model,
			strconv.Itoa(res.Attempts),
			round2(res.MedianClicks),
			round2(res.MeanClicks),
			round2(res.MedianBestPath),
			round2(res.SolveRate),
			round2(res.ForwardPct),
			round2(res.NeutralPct),
			round2(res.BackwardsPct),
		}
		if err := w.Write(row); err != nil {
			return err
		}
	}
	return w.Error()
}

func round2(v float64) string {
	return fmt.Sprintf("%.2f", v)
}

func create(path string) (*os.File, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, err
	}
	return os.Create(path)
}
