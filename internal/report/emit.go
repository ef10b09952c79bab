package report

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"math"
	"os"
	"path/filepath"

	"github.com/cinestat/cinestat/internal/analysis"
)

const figureWidth = 100

// Emitter writes report artefacts beneath a base directory:
// summaries/*.csv, summaries/high_level_metrics.json, and figures/*.txt.
type Emitter struct {
	baseDir string
}

// NewEmitter creates an emitter rooted at dir.
func NewEmitter(dir string) *Emitter {
	return &Emitter{baseDir: dir}
}

// SummariesDir is where tabular artefacts are written.
func (e *Emitter) SummariesDir() string {
	return filepath.Join(e.baseDir, "summaries")
}

// FiguresDir is where chart artefacts are written.
func (e *Emitter) FiguresDir() string {
	return filepath.Join(e.baseDir, "figures")
}

// EmitAll writes every table, the summary metrics JSON, and the figures.
// Tables that would be empty still produce a well-formed header-only CSV.
func (e *Emitter) EmitAll(res analysis.Results) error {
	for _, dir := range []string{e.SummariesDir(), e.FiguresDir()} {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("failed to create report dir: %w", err)
		}
	}
	for _, table := range BuildTables(res) {
		if table.Name == TableSummaryMetrics {
			continue
		}
		path := filepath.Join(e.SummariesDir(), table.Name+".csv")
		if err := writeCSV(path, table); err != nil {
			return fmt.Errorf("failed to write %s: %w", table.Name, err)
		}
	}
	jsonPath := filepath.Join(e.SummariesDir(), TableSummaryMetrics+".json")
	if err := writeSummaryJSON(jsonPath, res.Summary); err != nil {
		return fmt.Errorf("failed to write summary metrics: %w", err)
	}
	if err := e.emitFigures(res); err != nil {
		return err
	}
	return nil
}

func writeCSV(path string, table Table) error {
	file, err := os.Create(path)
	if err != nil {
		return err
	}
	writer := csv.NewWriter(file)
	if err := writer.Write(table.Columns); err != nil {
		_ = file.Close()
		return err
	}
	for _, row := range table.Rows {
		if err := writer.Write(row); err != nil {
			_ = file.Close()
			return err
		}
	}
	writer.Flush()
	if err := writer.Error(); err != nil {
		_ = file.Close()
		return err
	}
	return file.Close()
}

// summaryJSON mirrors the summary record with NaN serialized as null.
type summaryJSON struct {
	TotalRatedMovies      int      `json:"total_rated_movies"`
	MedianRuntime         *float64 `json:"median_runtime"`
	OverallWeightedRating *float64 `json:"overall_weighted_rating"`
	RuntimeP10            *float64 `json:"runtime_p10"`
	RuntimeP25            *float64 `json:"runtime_p25"`
	RuntimeP75            *float64 `json:"runtime_p75"`
	RuntimeP90            *float64 `json:"runtime_p90"`
	ShareOver120Min       *float64 `json:"share_over_120_min"`
}

func writeSummaryJSON(path string, s analysis.Summary) error {
	payload := summaryJSON{
		TotalRatedMovies:      s.TotalRatedMovies,
		MedianRuntime:         nullableFloat(s.MedianRuntime),
		OverallWeightedRating: nullableFloat(s.OverallWeightedRating),
		RuntimeP10:            nullableFloat(s.RuntimeP10),
		RuntimeP25:            nullableFloat(s.RuntimeP25),
		RuntimeP75:            nullableFloat(s.RuntimeP75),
		RuntimeP90:            nullableFloat(s.RuntimeP90),
		ShareOver120Min:       nullableFloat(s.ShareOver120Min),
	}
	data, err := json.MarshalIndent(payload, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, append(data, '\n'), 0o644)
}

func nullableFloat(v float64) *float64 {
	if math.IsNaN(v) {
		return nil
	}
	return &v
}

func (e *Emitter) emitFigures(res analysis.Results) error {
	if len(res.MoviesPerYear) > 0 {
		xs := make([]float64, len(res.MoviesPerYear))
		ys := make([]float64, len(res.MoviesPerYear))
		for i, r := range res.MoviesPerYear {
			xs[i] = float64(r.Year)
			ys[i] = float64(r.Count)
		}
		if err := e.writeFigure("movies_per_year.txt", func(file *os.File) error {
			return LinePlot(file, "Rated feature films per release year", xs, ys, figureWidth, defaultChartHeight)
		}); err != nil {
			return err
		}
	}

	if len(res.RuntimeBins) > 0 {
		labels := make([]string, len(res.RuntimeBins))
		values := make([]float64, len(res.RuntimeBins))
		for i, b := range res.RuntimeBins {
			labels[i] = b.Label
			values[i] = float64(b.Count)
		}
		if err := e.writeFigure("runtime_distribution.txt", func(file *os.File) error {
			return BarChart(file, "Runtime distribution (minutes)", labels, values, figureWidth)
		}); err != nil {
			return err
		}
	}

	if len(res.GenreRatings) > 0 {
		top := res.GenreRatings
		if len(top) > 10 {
			top = top[:10]
		}
		labels := make([]string, len(top))
		values := make([]float64, len(top))
		for i, g := range top {
			labels[i] = g.Genre
			values[i] = g.WeightedAverageRating
		}
		if err := e.writeFigure("top_genres_weighted_rating.txt", func(file *os.File) error {
			return BarChart(file, "Top genres by weighted rating", labels, values, figureWidth)
		}); err != nil {
			return err
		}
	}

	if len(res.Popular) > 0 {
		xs := make([]float64, len(res.Popular))
		ys := make([]float64, len(res.Popular))
		for i, p := range res.Popular {
			xs[i] = math.Log10(float64(p.Votes))
			ys[i] = p.Rating
		}
		if err := e.writeFigure("rating_vs_votes.txt", func(file *os.File) error {
			return ScatterPlot(file, "Rating vs votes (log10 votes)", xs, ys, figureWidth, defaultChartHeight)
		}); err != nil {
			return err
		}
	}
	return nil
}

func (e *Emitter) writeFigure(name string, render func(*os.File) error) error {
	path := filepath.Join(e.FiguresDir(), name)
	file, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create figure: %w", err)
	}
	if err := render(file); err != nil {
		_ = file.Close()
		return fmt.Errorf("failed to render figure %s: %w", name, err)
	}
	if err := file.Close(); err != nil {
		return fmt.Errorf("failed to close figure: %w", err)
	}
	return nil
}

// ReadTableCSV loads a previously emitted CSV back into a Table, for the
// report viewer.
func ReadTableCSV(dir, name string) (Table, error) {
	path := filepath.Join(dir, name+".csv")
	file, err := os.Open(path)
	if err != nil {
		return Table{}, fmt.Errorf("failed to open table: %w", err)
	}
	defer func() {
		_ = file.Close()
	}()
	reader := csv.NewReader(file)
	records, err := reader.ReadAll()
	if err != nil {
		return Table{}, fmt.Errorf("failed to read table: %w", err)
	}
	if len(records) == 0 {
		return Table{}, fmt.Errorf("table %s is empty", name)
	}
	return Table{Name: name, Columns: records[0], Rows: records[1:]}, nil
}
