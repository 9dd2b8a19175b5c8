package output

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/wikibench/wikibench"
)

// WriteTraces writes one human-readable trace file per attempt, plus a
// per-condition summary. Layout under dir:
//
//	traces/<model>/attempt_01.txt
//	summary.txt
//
// Model directories replace the "/" in model identifiers with "_".
func WriteTraces(dir string, report wikibench.ConditionReport) error {
	for _, attempt := range report.Attempts {
		modelDir := filepath.Join(dir, "traces", sanitizeModel(attempt.Model))
		if err := os.MkdirAll(modelDir, 0o755); err != nil {
			return err
		}
		name := fmt.Sprintf("attempt_%02d.txt", attempt.AttemptIndex+1)
		if err := os.WriteFile(filepath.Join(modelDir, name), []byte(renderAttempt(attempt)), 0o644); err != nil {
			return err
		}
	}
	return os.WriteFile(filepath.Join(dir, "summary.txt"), []byte(renderSummary(report)), 0o644)
}

func renderAttempt(a wikibench.AttemptRecord) string {
	var b strings.Builder
	fmt.Fprintf(&b, "# Game Trace\n\n")
	fmt.Fprintf(&b, "Model:     %s\n", a.Model)
	fmt.Fprintf(&b, "Condition: %s\n", a.Condition)
	fmt.Fprintf(&b, "Start:     %s\n", a.Start.Title)
	fmt.Fprintf(&b, "Target:    %s\n", a.Target.Title)
	fmt.Fprintf(&b, "Best path: %s\n", formatDistance(a.BestPathLength))
	fmt.Fprintf(&b, "Solved:    %t (clicks: %d)\n\n", a.Solved, a.TotalClicks)

	if len(a.Steps) == 0 {
		b.WriteString("(no steps recorded)\n")
	}
	for _, s := range a.Steps {
		if !s.Valid {
			fmt.Fprintf(&b, "%2d. %s  xx invalid choice (%s)\n",
				s.Index+1, s.From.Title, s.Chosen.URL)
			continue
		}
		fmt.Fprintf(&b, "%2d. %s %s %s (%s to %s away)\n",
			s.Index+1, s.From.Title, directionSymbol(s.Direction), s.Chosen.Title,
			formatDistance(s.DistanceBefore), formatDistance(s.DistanceAfter))
	}

	if len(a.Path) > 0 {
		fmt.Fprintf(&b, "\nPath: %s\n", strings.Join(a.Path, " -> "))
	}
	return b.String()
}

func renderSummary(report wikibench.ConditionReport) string {
	var b strings.Builder
	fmt.Fprintf(&b, "# Benchmark Summary\n\n")
	fmt.Fprintf(&b, "Run:       %s\n", report.RunID)
	fmt.Fprintf(&b, "Condition: %s\n\n", report.Condition)

	for _, res := range report.Results {
		fmt.Fprintf(&b, "## %s\n\n", res.Model)
		fmt.Fprintf(&b, "Attempts:         %d\n", res.Attempts)
		fmt.Fprintf(&b, "Solve rate:       %.2f%%\n", res.SolveRate)
		fmt.Fprintf(&b, "Median clicks:    %.2f\n", res.MedianClicks)
		fmt.Fprintf(&b, "Mean clicks:      %.2f\n", res.MeanClicks)
		fmt.Fprintf(&b, "Median best path: %.2f\n", res.MedianBestPath)
		fmt.Fprintf(&b, "Directions:       %.2f%% forward / %.2f%% neutral / %.2f%% backwards\n\n",
			res.ForwardPct, res.NeutralPct, res.BackwardsPct)
	}
	return b.String()
}

func directionSymbol(d wikibench.Direction) string {
	switch d {
	case wikibench.DirectionForward:
		return "->"
	case wikibench.DirectionBackwards:
		return "<-"
	default:
		return "=="
	}
}

func formatDistance(d int) string {
	if d >= wikibench.Unreachable {
		return "unreachable"
	}
	return fmt.Sprintf("%d", d)
}

func sanitizeModel(model string) string {
	return strings.ReplaceAll(model, "/", "_")
}
