// Command wikibench runs the Wikipedia navigation benchmark against a
// set of models over OpenRouter and writes CSV reports and game traces.
package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/wikibench/wikibench"
	"github.com/wikibench/wikibench/openrouter"
	"github.com/wikibench/wikibench/output"
	"github.com/wikibench/wikibench/wikipedia"
)

type config struct {
	Models           []string          `yaml:"models"`
	DisplayNames     map[string]string `yaml:"display_names"`
	MaxClicks        int               `yaml:"max_clicks"`
	AttemptsPerModel int               `yaml:"attempts_per_model"`
	TrimCount        int               `yaml:"trim_count"`
	MaxConcurrent    int64             `yaml:"max_concurrent"`
	CutoffDate       string            `yaml:"cutoff_date"`
	OutputDir        string            `yaml:"output_dir"`
}

func defaultConfig() config {
	return config{
		Models: []string{
			"openai/gpt-5.2",
			"anthropic/claude-opus-4.5",
			"x-ai/grok-4.1-fast",
			"google/gemini-3-flash-preview",
		},
		DisplayNames: map[string]string{
			"openai/gpt-5.2":                "GPT-5.2",
			"anthropic/claude-opus-4.5":     "Claude Opus 4.5",
			"x-ai/grok-4.1-fast":            "Grok 4.1 Fast",
			"google/gemini-3-flash-preview": "Gemini 3 Flash",
		},
		MaxClicks:        wikibench.DefaultClickBudget,
		AttemptsPerModel: wikibench.DefaultAttemptsPerCondition,
		TrimCount:        wikibench.DefaultTrimCount,
		MaxConcurrent:    wikibench.DefaultMaxConcurrent,
		CutoffDate:       "2025-09-01",
		OutputDir:        "results",
	}
}

func loadConfig(path string) (config, error) {
	cfg := defaultConfig()
	if path == "" {
		return cfg, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, err
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("parse %s: %w", path, err)
	}
	return cfg, nil
}

func main() {
	var (
		configPath string
		condition  string
		runAll     bool
		verbose    bool
	)

	root := &cobra.Command{
		Use:           "wikibench",
		Short:         "Benchmark LLM navigation of Wikipedia's link graph",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	runCmd := &cobra.Command{
		Use:   "run",
		Short: "Run one condition (or all) and write reports",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(configPath)
			if err != nil {
				return err
			}
			return run(cmd.Context(), cfg, condition, runAll, verbose)
		},
	}
	runCmd.Flags().StringVarP(&configPath, "config", "c", "", "YAML config file")
	runCmd.Flags().StringVar(&condition, "condition", "baseline", "condition to run")
	runCmd.Flags().BoolVar(&runAll, "all", false, "run every condition in order")
	runCmd.Flags().BoolVarP(&verbose, "verbose", "v", false, "debug logging")

	sampleCmd := &cobra.Command{
		Use:   "sample [count]",
		Short: "Sample article pairs and print them (no model calls)",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(configPath)
			if err != nil {
				return err
			}
			count := 5
			if len(args) == 1 {
				if _, err := fmt.Sscanf(args[0], "%d", &count); err != nil {
					return fmt.Errorf("bad count %q", args[0])
				}
			}
			return sample(cmd.Context(), cfg, count)
		},
	}
	sampleCmd.Flags().StringVarP(&configPath, "config", "c", "", "YAML config file")

	root.AddCommand(runCmd, sampleCmd)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := root.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg config, condition string, runAll, verbose bool) error {
	level := slog.LevelInfo
	if verbose {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))

	apiKey := os.Getenv("OPENROUTER_API_KEY")
	if apiKey == "" {
		return fmt.Errorf("OPENROUTER_API_KEY is not set")
	}

	cutoff, err := time.Parse("2006-01-02", cfg.CutoffDate)
	if err != nil {
		return fmt.Errorf("bad cutoff_date %q: %w", cfg.CutoffDate, err)
	}

	client := wikipedia.NewClient()
	oracle := wikibench.NewOracle(client)
	sampler := wikipedia.NewSampler(client, cutoff)

	opts := []wikibench.Option{
		wikibench.WithModels(cfg.Models),
		wikibench.WithDisplayNames(cfg.DisplayNames),
		wikibench.WithClickBudget(cfg.MaxClicks),
		wikibench.WithAttemptsPerCondition(cfg.AttemptsPerModel),
		wikibench.WithTrimCount(cfg.TrimCount),
		wikibench.WithMaxConcurrent(cfg.MaxConcurrent),
		wikibench.WithLogger(logger),
	}
	if tips, err := loadTips(cfg.OutputDir, cfg.Models); err == nil && len(tips) > 0 {
		logger.Info("loaded saved tips", "models", len(tips))
		opts = append(opts, wikibench.WithTips(tips))
	}

	orch := wikibench.New(oracle, client, sampler, openrouter.Factory(apiKey), opts...)

	if runAll {
		reports, err := orch.RunAll(ctx)
		for cond, report := range reports {
			if werr := writeReport(cfg.OutputDir, string(cond), report); werr != nil {
				logger.Error("write report failed", "condition", cond, "error", werr)
			}
		}
		if err != nil {
			return err
		}
		return saveTips(cfg.OutputDir, orch.Tips())
	}

	cond, err := wikibench.ConditionByName(condition)
	if err != nil {
		return err
	}
	report, err := orch.RunCondition(ctx, cond)
	if err != nil {
		return err
	}
	if err := writeReport(cfg.OutputDir, condition, report); err != nil {
		return err
	}
	if cond.CollectTips {
		return saveTips(cfg.OutputDir, orch.Tips())
	}
	return nil
}

func sample(ctx context.Context, cfg config, count int) error {
	cutoff, err := time.Parse("2006-01-02", cfg.CutoffDate)
	if err != nil {
		return fmt.Errorf("bad cutoff_date %q: %w", cfg.CutoffDate, err)
	}
	sampler := wikipedia.NewSampler(wikipedia.NewClient(), cutoff)
	pairs, err := sampler.SamplePairs(ctx, count, false)
	if err != nil {
		return err
	}
	for _, p := range pairs {
		fmt.Printf("%s  ->  %s\n", p.Start.Title, p.Target.Title)
	}
	return nil
}

func writeReport(outputDir, condition string, report wikibench.ConditionReport) error {
	dir := filepath.Join(outputDir, condition)
	if err := output.WriteAttemptsCSV(filepath.Join(dir, "attempts.csv"), report); err != nil {
		return err
	}
	if err := output.WriteSummaryCSV(filepath.Join(dir, "summary.csv"), report); err != nil {
		return err
	}
	return output.WriteTraces(dir, report)
}

// Tips collected during baseline persist so the tips condition can run
// in a separate invocation.

func tipsPath(outputDir, model string) string {
	return filepath.Join(outputDir, "tips", strings.ReplaceAll(model, "/", "_")+".txt")
}

func saveTips(outputDir string, tips map[string]string) error {
	if len(tips) == 0 {
		return nil
	}
	if err := os.MkdirAll(filepath.Join(outputDir, "tips"), 0o755); err != nil {
		return err
	}
	for model, t := range tips {
		if err := os.WriteFile(tipsPath(outputDir, model), []byte(t), 0o644); err != nil {
			return err
		}
	}
	return nil
}

func loadTips(outputDir string, models []string) (map[string]string, error) {
	tips := make(map[string]string)
	for _, model := range models {
		data, err := os.ReadFile(tipsPath(outputDir, model))
		if err != nil {
			continue
		}
		tips[model] = string(data)
	}
	return tips, nil
}
