package main

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/bryan-cox/grantledger/internal/classify"
	"github.com/bryan-cox/grantledger/internal/clipboard"
	"github.com/bryan-cox/grantledger/internal/config"
	"github.com/bryan-cox/grantledger/internal/github"
	"github.com/bryan-cox/grantledger/internal/milestone"
	"github.com/bryan-cox/grantledger/internal/model"
	"github.com/bryan-cox/grantledger/internal/report"
	"github.com/bryan-cox/grantledger/internal/schedule"
)

// --- Cobra Command Definitions ---

var (
	// Used for flags.
	configPath  string
	logLevel    string
	inputPath   string
	outputPath  string
	metricsPath string
	keepGoing   bool
	copySummary bool
	snapshotOut string
	bodyPath    string
	issueTitle  string
	tierName    string

	// cfg is loaded before any subcommand runs.
	cfg *config.Config

	// level backs the default JSON logger.
	level = new(slog.LevelVar)

	// rootCmd represents the base command when called without any subcommands
	rootCmd = &cobra.Command{
		Use:               "grantledger",
		Short:             "A CLI tool to price and schedule grant proposals from GitHub issues.",
		Long:              `GrantLedger reads the tasks and proposals of a GitHub repository, validates and prices each proposal's milestones, and writes a CSV report with summary metrics.`,
		PersistentPreRunE: loadConfig,
		SilenceUsage:      true,
	}

	// reportCmd represents the report command
	reportCmd = &cobra.Command{
		Use:   "report",
		Short: "Generate the task and proposal CSV report.",
		Long:  `Fetches the repository issues (or reads a snapshot with --input), links every proposal to its task, and writes one CSV row per task/proposal pair followed by a metrics summary.`,
		RunE:  runReportCommand,
	}

	// fetchCmd represents the fetch command
	fetchCmd = &cobra.Command{
		Use:   "fetch",
		Short: "Save the repository issues to a YAML snapshot.",
		Long:  `Fetches every issue and pull request of the repository and writes them to a YAML file that "report --input" can read offline.`,
		RunE:  runFetchCommand,
	}

	// parseCmd represents the parse command
	parseCmd = &cobra.Command{
		Use:   "parse",
		Short: "Parse a single proposal body and print its milestone plan.",
		Long:  `Runs the milestone extraction, cost calculation and scheduler on one proposal body and prints the result as YAML.`,
		RunE:  runParseCommand,
	}
)

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		slog.Error("command failed", "error", err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "Path to a YAML config file (default $GRANTLEDGER_CONFIG).")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "Log level override: debug, info, warn, error.")

	reportCmd.Flags().StringVar(&inputPath, "input", "", "Read issues from a YAML snapshot instead of the GitHub API.")
	reportCmd.Flags().StringVar(&outputPath, "output", "issues.csv", "Path of the CSV report.")
	reportCmd.Flags().StringVar(&metricsPath, "metrics-file", "", "Also write the metrics as a Prometheus textfile.")
	reportCmd.Flags().BoolVar(&keepGoing, "keep-going", false, "Skip proposals that fail to parse instead of aborting.")
	reportCmd.Flags().BoolVar(&copySummary, "copy", false, "Copy the metrics summary to the clipboard.")

	fetchCmd.Flags().StringVar(&snapshotOut, "output", "records.yaml", "Path of the YAML snapshot.")

	parseCmd.Flags().StringVar(&bodyPath, "file", "", "Path to a file holding the proposal body.")
	parseCmd.Flags().StringVar(&issueTitle, "title", "Proposal", "Title used in error messages.")
	parseCmd.Flags().StringVar(&tierName, "tier", "", "Complexity tier of the linked task: Easy, Medium or Hard.")
	_ = parseCmd.MarkFlagRequired("file")

	rootCmd.AddCommand(reportCmd)
	rootCmd.AddCommand(fetchCmd)
	rootCmd.AddCommand(parseCmd)
}

// --- Main Application Entry Point ---

func main() {
	// Setup structured JSON logger; every record carries the run id.
	logger := slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
	slog.SetDefault(logger.With("run_id", uuid.NewString()))
	Execute()
}

// --- Command Execution Logic ---

func loadConfig(cmd *cobra.Command, args []string) error {
	loaded, err := config.Load(cmd.Context(), configPath)
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}
	if logLevel != "" {
		loaded.LogLevel = logLevel
	}
	l, err := loaded.SlogLevel()
	if err != nil {
		return err
	}
	level.Set(l)
	cfg = loaded
	return nil
}

func newEngine() (*milestone.Engine, error) {
	if err := cfg.ValidatePricing(); err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}
	return milestone.NewEngine(cfg.Pricing())
}

func runReportCommand(cmd *cobra.Command, args []string) error {
	records, err := loadRecords(cmd.Context())
	if err != nil {
		return err
	}

	engine, err := newEngine()
	if err != nil {
		return err
	}
	classifier := classify.New(cfg.RepoOwner, cfg.RepoName, engine, classify.WithKeepGoing(keepGoing))
	ledger, err := classifier.Classify(records)
	if err != nil {
		return fmt.Errorf("report aborted, nothing written: %w", err)
	}

	rows := report.Assemble(ledger)
	if err := writeCSVFile(outputPath, rows); err != nil {
		return err
	}
	slog.Info("report written", "path", outputPath, "rows", len(rows), "skipped", len(ledger.Failures))

	metrics := report.ComputeMetrics(ledger)
	var summary bytes.Buffer
	report.PrintMetrics(&summary, metrics)
	report.PrintFailures(&summary, ledger.Failures)
	if _, err := io.Copy(cmd.OutOrStdout(), bytes.NewReader(summary.Bytes())); err != nil {
		return err
	}

	if metricsPath != "" {
		if err := report.WriteTextfile(metricsPath, metrics); err != nil {
			return err
		}
	}
	if copySummary {
		if err := clipboard.CopyText(summary.String()); err != nil {
			slog.Warn("failed to copy summary to clipboard", "error", err)
		}
	}
	return nil
}

func runFetchCommand(cmd *cobra.Command, args []string) error {
	records, err := fetchRecords(cmd.Context())
	if err != nil {
		return err
	}
	if err := github.SaveRecords(snapshotOut, records); err != nil {
		return err
	}
	cmd.Printf("Saved %d records to %s\n", len(records), snapshotOut)
	return nil
}

func runParseCommand(cmd *cobra.Command, args []string) error {
	body, err := os.ReadFile(bodyPath)
	if err != nil {
		return fmt.Errorf("could not read file '%s': %w", bodyPath, err)
	}

	tier := milestone.ExtractComplexity(string(body))
	if tierName != "" {
		tier = model.ParseTier(tierName)
	}

	engine, err := newEngine()
	if err != nil {
		return err
	}
	plan, parseErr := engine.Parse(issueTitle, string(body), tier)

	out, err := yaml.Marshal(newPlanView(issueTitle, tier, plan, schedule.Build(string(body))))
	if err != nil {
		return fmt.Errorf("failed to encode plan: %w", err)
	}
	if _, err := cmd.OutOrStdout().Write(out); err != nil {
		return err
	}
	return parseErr
}

// --- Helper Functions ---

func loadRecords(ctx context.Context) ([]model.RawRecord, error) {
	if inputPath != "" {
		return github.LoadRecords(inputPath)
	}
	return fetchRecords(ctx)
}

func fetchRecords(ctx context.Context) ([]model.RawRecord, error) {
	client, err := github.NewClient(cfg.RepoOwner, cfg.RepoName,
		github.WithAPIURL(cfg.APIURL),
		github.WithToken(cfg.GitHubToken),
		github.WithPerPage(cfg.PerPage),
		github.WithMaxRetries(cfg.MaxRetries),
	)
	if err != nil {
		return nil, err
	}
	records, err := client.FetchIssues(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch issues of %s/%s: %w", cfg.RepoOwner, cfg.RepoName, err)
	}
	return records, nil
}

// writeCSVFile writes to a temporary file first so a failed run leaves no partial report.
func writeCSVFile(path string, rows []report.Row) error {
	tmp, err := os.CreateTemp(filepath.Dir(path), ".grantledger-*.csv")
	if err != nil {
		return fmt.Errorf("could not create report file: %w", err)
	}
	defer os.Remove(tmp.Name())

	if err := report.WriteCSV(tmp, rows); err != nil {
		tmp.Close()
		return fmt.Errorf("could not write '%s': %w", path, err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("could not write '%s': %w", path, err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return fmt.Errorf("could not write '%s': %w", path, err)
	}
	return nil
}

// --- Parse Output ---

type milestoneView struct {
	Duration string `yaml:"duration"`
	FTE      string `yaml:"fte"`
	Hours    string `yaml:"hours"`
	Cost     string `yaml:"cost"`
	Equation string `yaml:"equation"`
}

type planView struct {
	Title          string          `yaml:"title"`
	Tier           string          `yaml:"tier"`
	Rate           string          `yaml:"rate"`
	TotalDuration  string          `yaml:"total_duration"`
	TotalFTE       string          `yaml:"total_fte"`
	DeclaredHours  string          `yaml:"declared_hours"`
	ComputedHours  string          `yaml:"computed_hours"`
	Milestones     []milestoneView `yaml:"milestones"`
	Equation       string          `yaml:"equation"`
	CostTranscript string          `yaml:"cost_per_milestone"`
	TotalCost      string          `yaml:"total_cost"`
	Schedule       string          `yaml:"schedule"`
	Consistent     bool            `yaml:"consistent"`
	Warnings       []string        `yaml:"warnings,omitempty"`
}

func newPlanView(title string, tier model.Tier, plan model.MilestonePlan, sched schedule.Result) planView {
	v := planView{
		Title:          title,
		Tier:           string(tier),
		Rate:           plan.Rate.Format(model.FormatNumber),
		TotalDuration:  plan.TotalDuration.Format(model.Duration.String),
		TotalFTE:       plan.TotalFTE.Format(func(s string) string { return s }),
		DeclaredHours:  plan.DeclaredHours.Format(func(n int) string { return fmt.Sprint(n) }),
		ComputedHours:  plan.ComputedHours.Format(model.FormatNumber),
		Equation:       plan.Equation,
		CostTranscript: plan.CostTranscript,
		TotalCost:      plan.TotalCost.Format(model.FormatNumber),
		Schedule:       sched.String(),
		Consistent:     plan.Consistent,
		Warnings:       plan.Warnings,
	}
	for _, m := range plan.Milestones {
		v.Milestones = append(v.Milestones, milestoneView{
			Duration: m.Duration.String(),
			FTE:      m.FTE.Format(model.FormatNumber),
			Hours:    m.Hours.Format(model.FormatNumber),
			Cost:     m.Cost.Format(model.FormatNumber),
			Equation: m.Equation,
		})
	}
	return v
}
