// Package main provides the CLI entrypoint for cinestat.
package main

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"github.com/cinestat/cinestat/internal/analysis"
	"github.com/cinestat/cinestat/internal/config"
	"github.com/cinestat/cinestat/internal/imdb"
	"github.com/cinestat/cinestat/internal/logging"
	"github.com/cinestat/cinestat/internal/model"
	"github.com/cinestat/cinestat/internal/report"
	"github.com/cinestat/cinestat/internal/reportui"
	"github.com/cinestat/cinestat/internal/store"
)

const (
	defaultLogLevel  = "info"
	defaultLogFormat = "text"

	progressEvery = 2_000_000
)

var (
	runTitlesURL  string
	runRatingsURL string
	runDataDir    string
	runReportDir  string
	runChunkSize  int
	runMinYear    int
	runPopular    int
	runTopTitles  int
	runLogLevel   string
	runLogFormat  string

	fetchTitlesURL  string
	fetchRatingsURL string
	fetchDataDir    string

	viewReportDir string
)

func main() {
	rootCmd := newRootCmd()
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:           "cinestat",
		Short:         "IMDb catalog insights",
		Long:          "Downloads the IMDb title and ratings datasets, aggregates them in streaming chunks, and emits summary tables and charts.",
		SilenceUsage:  true,
		SilenceErrors: false,
		RunE:          runAnalyzeCmd,
	}

	rootCmd.Flags().StringVar(&runTitlesURL, "titles-url", imdb.DefaultTitlesURL, "title basics dataset URL")
	rootCmd.Flags().StringVar(&runRatingsURL, "ratings-url", imdb.DefaultRatingsURL, "ratings dataset URL")
	rootCmd.Flags().StringVar(&runDataDir, "data-dir", config.DefaultDataDir(), "directory for downloaded datasets")
	rootCmd.Flags().StringVar(&runReportDir, "report-dir", config.DefaultReportDir(), "directory for emitted reports")
	rootCmd.Flags().IntVar(&runChunkSize, "chunk-size", imdb.DefaultChunkSize, "title rows per processing chunk")
	rootCmd.Flags().IntVar(&runMinYear, "min-year", analysis.DefaultMinYear, "earliest release year kept in per-year output")
	rootCmd.Flags().IntVar(&runPopular, "popular-votes-min", analysis.DefaultPopularVotesMin, "vote threshold for the popularity analysis")
	rootCmd.Flags().IntVar(&runTopTitles, "top-titles", analysis.DefaultTopTitles, "number of titles in the top-by-votes table")
	rootCmd.Flags().StringVar(&runLogLevel, "log-level", defaultLogLevel, "log level (debug, info, warn, error)")
	rootCmd.Flags().StringVar(&runLogFormat, "log-format", defaultLogFormat, "log format (text, logfmt, json)")

	rootCmd.AddCommand(newFetchCmd())
	rootCmd.AddCommand(newRunsCmd())
	rootCmd.AddCommand(newViewCmd())
	rootCmd.AddCommand(newConfigCmd())

	return rootCmd
}

func loadSettings(cmd *cobra.Command) error {
	fileCfg, err := config.LoadConfig(config.DefaultConfigPath())
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	applyStringConfig(cmd, "titles-url", &runTitlesURL, fileCfg.Datasets.TitlesURL)
	applyStringConfig(cmd, "ratings-url", &runRatingsURL, fileCfg.Datasets.RatingsURL)
	applyStringConfig(cmd, "data-dir", &runDataDir, fileCfg.Datasets.DataDir)
	applyStringConfig(cmd, "report-dir", &runReportDir, fileCfg.Reports.Dir)
	applyIntConfig(cmd, "chunk-size", &runChunkSize, fileCfg.Analysis.ChunkSize)
	applyIntConfig(cmd, "min-year", &runMinYear, fileCfg.Analysis.MinYear)
	applyIntConfig(cmd, "popular-votes-min", &runPopular, fileCfg.Analysis.PopularVotesMin)
	applyIntConfig(cmd, "top-titles", &runTopTitles, fileCfg.Analysis.TopTitles)
	applyStringConfig(cmd, "log-level", &runLogLevel, fileCfg.Logger.Level)
	applyStringConfig(cmd, "log-format", &runLogFormat, fileCfg.Logger.Format)

	if runChunkSize <= 0 {
		return fmt.Errorf("--chunk-size must be > 0")
	}
	if runPopular < 0 {
		return fmt.Errorf("--popular-votes-min must be >= 0")
	}
	if runTopTitles <= 0 {
		return fmt.Errorf("--top-titles must be > 0")
	}
	logging.Setup(runLogLevel, runLogFormat)
	return nil
}

func runAnalyzeCmd(cmd *cobra.Command, _ []string) error {
	if err := loadSettings(cmd); err != nil {
		return err
	}
	ctx := cmd.Context()
	startedAt := time.Now()

	datasets := imdb.DefaultDatasets(runTitlesURL, runRatingsURL)
	if err := imdb.FetchAll(ctx, runDataDir, datasets); err != nil {
		return err
	}

	slog.Info("loading ratings table", "file", imdb.RatingsFilename)
	ratings, err := imdb.LoadRatingIndex(filepath.Join(runDataDir, imdb.RatingsFilename))
	if err != nil {
		return fmt.Errorf("failed to load ratings: %w", err)
	}
	slog.Info("ratings table loaded", "titles", ratings.Len())

	titles, err := imdb.OpenTitles(filepath.Join(runDataDir, imdb.TitlesFilename), runChunkSize)
	if err != nil {
		return fmt.Errorf("failed to open titles: %w", err)
	}
	defer func() {
		if cerr := titles.Close(); cerr != nil {
			slog.Warn("failed to close titles dataset", "error", cerr)
		}
	}()

	opts := model.Options{
		ChunkSize:       runChunkSize,
		MinYear:         runMinYear,
		PopularVotesMin: runPopular,
		TopTitles:       runTopTitles,
	}
	nextMilestone := int64(progressEvery)
	acc, err := analysis.Aggregate(titles, ratings, opts, func(rows int64) {
		if rows >= nextMilestone {
			slog.Info("processed title rows", "rows", rows)
			nextMilestone += progressEvery
		}
	})
	if err != nil {
		return fmt.Errorf("aggregation failed: %w", err)
	}
	slog.Info("finished streaming titles", "rows", titles.RowsRead())

	results := analysis.Finalize(acc, ratings)
	emitter := report.NewEmitter(runReportDir)
	if err := emitter.EmitAll(results); err != nil {
		return err
	}
	slog.Info("reports written", "dir", runReportDir)

	printRunSummary(results)
	recordRun(ctx, startedAt, titles.RowsRead(), results)
	return nil
}

func printRunSummary(results analysis.Results) {
	tables := report.BuildTables(results)
	for _, t := range tables {
		if t.Name != report.TableSummaryMetrics {
			continue
		}
		if err := report.Render(os.Stdout, t); err != nil {
			slog.Warn("failed to render summary", "error", err)
		}
	}
	if len(results.MoviesPerYear) > 0 {
		xs := make([]float64, len(results.MoviesPerYear))
		ys := make([]float64, len(results.MoviesPerYear))
		for i, r := range results.MoviesPerYear {
			xs[i] = float64(r.Year)
			ys[i] = float64(r.Count)
		}
		width := report.TerminalWidth()
		if err := report.LinePlot(os.Stdout, "Rated movies per year", xs, ys, width-4, 10); err != nil {
			slog.Warn("failed to render chart", "error", err)
		}
	}
}

// recordRun appends the finished run to the run history. History failures
// never fail the analysis itself.
func recordRun(ctx context.Context, startedAt time.Time, titleRows int64, results analysis.Results) {
	st, err := store.Open(config.DefaultDBPath())
	if err != nil {
		slog.Warn("failed to open run history", "error", err)
		return
	}
	defer func() {
		if cerr := st.Close(); cerr != nil {
			slog.Warn("failed to close run history", "error", cerr)
		}
	}()
	run := model.Run{
		StartedAt:             startedAt,
		FinishedAt:            time.Now(),
		TitleRows:             titleRows,
		RatedMovies:           results.Summary.TotalRatedMovies,
		OverallWeightedRating: results.Summary.OverallWeightedRating,
		MedianRuntime:         results.Summary.MedianRuntime,
		ReportDir:             runReportDir,
	}
	if _, err := st.InsertRun(ctx, run); err != nil {
		slog.Warn("failed to record run", "error", err)
	}
}

func newFetchCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "fetch",
		Short: "Download the IMDb datasets",
		Args:  cobra.NoArgs,
		RunE:  runFetchCmd,
	}
	cmd.Flags().StringVar(&fetchTitlesURL, "titles-url", imdb.DefaultTitlesURL, "title basics dataset URL")
	cmd.Flags().StringVar(&fetchRatingsURL, "ratings-url", imdb.DefaultRatingsURL, "ratings dataset URL")
	cmd.Flags().StringVar(&fetchDataDir, "data-dir", config.DefaultDataDir(), "directory for downloaded datasets")
	return cmd
}

func runFetchCmd(cmd *cobra.Command, _ []string) error {
	fileCfg, err := config.LoadConfig(config.DefaultConfigPath())
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	applyStringConfig(cmd, "titles-url", &fetchTitlesURL, fileCfg.Datasets.TitlesURL)
	applyStringConfig(cmd, "ratings-url", &fetchRatingsURL, fileCfg.Datasets.RatingsURL)
	applyStringConfig(cmd, "data-dir", &fetchDataDir, fileCfg.Datasets.DataDir)
	logging.Setup(orDefault(fileCfg.Logger.Level, defaultLogLevel), orDefault(fileCfg.Logger.Format, defaultLogFormat))

	datasets := imdb.DefaultDatasets(fetchTitlesURL, fetchRatingsURL)
	return imdb.FetchAll(cmd.Context(), fetchDataDir, datasets)
}

func orDefault(value *string, fallback string) string {
	if value == nil || *value == "" {
		return fallback
	}
	return *value
}

func newRunsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "runs",
		Short: "List past analysis runs",
		Args:  cobra.NoArgs,
		RunE:  runRunsCmd,
	}
}

func runRunsCmd(cmd *cobra.Command, _ []string) error {
	st, err := store.Open(config.DefaultDBPath())
	if err != nil {
		return fmt.Errorf("failed to open run history: %w", err)
	}
	defer func() {
		if cerr := st.Close(); cerr != nil {
			fmt.Fprintf(os.Stderr, "failed to close run history: %v\n", cerr)
		}
	}()

	runs, err := st.ListRuns(cmd.Context())
	if err != nil {
		return fmt.Errorf("failed to list runs: %w", err)
	}
	if len(runs) == 0 {
		fmt.Fprintln(cmd.OutOrStdout(), "No runs recorded yet.")
		return nil
	}

	t := report.Table{
		Name:    "Runs",
		Columns: []string{"id", "finished", "title_rows", "rated_movies", "overall_rating", "median_runtime"},
	}
	counts := make([]float64, 0, len(runs))
	for _, run := range runs {
		t.Rows = append(t.Rows, []string{
			strconv.FormatInt(run.RunID, 10),
			run.FinishedAt.Format("2006-01-02 15:04"),
			strconv.FormatInt(run.TitleRows, 10),
			strconv.Itoa(run.RatedMovies),
			formatMetric(run.OverallWeightedRating),
			formatMetric(run.MedianRuntime),
		})
		counts = append(counts, float64(run.RatedMovies))
	}
	if err := report.Render(cmd.OutOrStdout(), t); err != nil {
		return fmt.Errorf("failed to render runs: %w", err)
	}
	if len(counts) > 1 {
		if _, err := fmt.Fprintf(cmd.OutOrStdout(), "Rated movies trend: %s\n", report.Sparkline(counts)); err != nil {
			return fmt.Errorf("failed to write output: %w", err)
		}
	}
	return nil
}

func formatMetric(v float64) string {
	if math.IsNaN(v) {
		return "-"
	}
	return strconv.FormatFloat(v, 'f', 2, 64)
}

func newViewCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "view",
		Short: "Browse the latest report in a TUI",
		Args:  cobra.NoArgs,
		RunE:  runViewCmd,
	}
	cmd.Flags().StringVar(&viewReportDir, "report-dir", config.DefaultReportDir(), "report directory to browse")
	return cmd
}

func runViewCmd(cmd *cobra.Command, _ []string) error {
	fileCfg, err := config.LoadConfig(config.DefaultConfigPath())
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	applyStringConfig(cmd, "report-dir", &viewReportDir, fileCfg.Reports.Dir)

	summariesDir := filepath.Join(viewReportDir, "summaries")
	model := reportui.NewModel(summariesDir)
	program := tea.NewProgram(model, tea.WithAltScreen())
	if _, err := program.Run(); err != nil {
		return fmt.Errorf("failed to run report viewer: %w", err)
	}
	return nil
}

func newConfigCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "config",
		Short: "Create/open config file",
		Args:  cobra.NoArgs,
		RunE:  runConfigCmd,
	}
}

func runConfigCmd(_ *cobra.Command, _ []string) error {
	path := config.DefaultConfigPath()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}
	if _, err := os.Stat(path); err != nil {
		if !os.IsNotExist(err) {
			return fmt.Errorf("failed to stat config: %w", err)
		}
		if err := os.WriteFile(path, []byte(defaultConfigTemplate()), 0o644); err != nil {
			return fmt.Errorf("failed to write config: %w", err)
		}
	}

	editor := strings.TrimSpace(os.Getenv("EDITOR"))
	if editor == "" {
		editor = "vi"
	}
	parts := strings.Fields(editor)
	if len(parts) == 0 {
		return fmt.Errorf("editor command is empty")
	}
	cmd := exec.Command(parts[0], append(parts[1:], path)...)
	cmd.Stdin = os.Stdin
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr
	if err := cmd.Run(); err != nil {
		return fmt.Errorf("failed to open editor: %w", err)
	}
	return nil
}

func applyStringConfig(cmd *cobra.Command, name string, target, value *string) {
	if value == nil {
		return
	}
	if cmd.Flags().Changed(name) {
		return
	}
	*target = *value
}

func applyIntConfig(cmd *cobra.Command, name string, target, value *int) {
	if value == nil {
		return
	}
	if cmd.Flags().Changed(name) {
		return
	}
	*target = *value
}

func defaultConfigTemplate() string {
	return fmt.Sprintf(`# cinestat configuration
# Uncomment a value to enable it. CLI flags override config values.

[datasets]
# titles-url = %q
# ratings-url = %q
# data-dir = %q

[analysis]
# chunk-size = %d          # Title rows per processing chunk
# min-year = %d            # Earliest release year kept in per-year output
# popular-votes-min = %d   # Vote threshold for the popularity analysis
# top-titles = %d          # Number of titles in the top-by-votes table

[reports]
# dir = %q

[logger]
# level = %q               # debug, info, warn, error
# format = %q              # text, logfmt, json
`,
		imdb.DefaultTitlesURL,
		imdb.DefaultRatingsURL,
		config.DefaultDataDir(),
		imdb.DefaultChunkSize,
		analysis.DefaultMinYear,
		analysis.DefaultPopularVotesMin,
		analysis.DefaultTopTitles,
		config.DefaultReportDir(),
		defaultLogLevel,
		defaultLogFormat,
	)
}
