package report

import (
	"math"
	"testing"

	"github.com/cinestat/cinestat/internal/analysis"
	"github.com/cinestat/cinestat/internal/model"
)

func sampleResults() analysis.Results {
	return analysis.Results{
		MoviesPerYear: []analysis.YearCount{{Year: 1999, Count: 3}},
		YearlyRatings: []analysis.YearRating{{Year: 1999, WeightedAverageRating: 7.25, Votes: 400}},
		GenreRatings: []analysis.GenreRating{
			{Genre: "Drama", TitleCount: 2, TotalVotes: 300, WeightedAverageRating: 7.5},
		},
		TopTitles: []analysis.TopTitle{
			{ID: "tt1", Title: "First", Year: model.Int(1999), AverageRating: 8.0, NumVotes: 100},
			{ID: "tt2", Title: "Undated", AverageRating: 6.0, NumVotes: 50},
		},
		RuntimeBins:     []analysis.RuntimeBin{{Label: "90-104", Count: 3}},
		PopularityBands: []analysis.PopularityBand{{Label: "50k-100k", TitleCount: 1, AvgRating: 7.0, MedianVotes: 60000}},
		Summary: analysis.Summary{
			TotalRatedMovies:      3,
			MedianRuntime:         95,
			OverallWeightedRating: 7.1,
			RuntimeP10:            80,
			RuntimeP25:            88,
			RuntimeP75:            110,
			RuntimeP90:            130,
			ShareOver120Min:       0.25,
		},
	}
}

func TestBuildTablesOrder(t *testing.T) {
	tables := BuildTables(sampleResults())
	wantNames := []string{
		TableMoviesPerYear,
		TableYearlyRatings,
		TableGenreRatings,
		TableTopByVotes,
		TableRuntimeBins,
		TablePopularityBands,
		TableSummaryMetrics,
	}
	if len(tables) != len(wantNames) {
		t.Fatalf("expected %d tables, got %d", len(wantNames), len(tables))
	}
	for i, name := range wantNames {
		if tables[i].Name != name {
			t.Errorf("table %d = %q, want %q", i, tables[i].Name, name)
		}
	}
}

func TestTopTitlesTableBlankYear(t *testing.T) {
	tables := BuildTables(sampleResults())
	top := tables[3]
	if top.Rows[0][2] != "1999" {
		t.Errorf("expected year 1999, got %q", top.Rows[0][2])
	}
	if top.Rows[1][2] != "" {
		t.Errorf("missing year must render empty, got %q", top.Rows[1][2])
	}
}

func TestSummaryTableFormatsMetrics(t *testing.T) {
	tables := BuildTables(sampleResults())
	summary := tables[6]
	if len(summary.Rows) != 8 {
		t.Fatalf("expected 8 metric rows, got %d", len(summary.Rows))
	}
	if summary.Rows[0][0] != "total_rated_movies" || summary.Rows[0][1] != "3" {
		t.Errorf("unexpected total row: %v", summary.Rows[0])
	}
	if summary.Rows[7][0] != "share_over_120_min" || summary.Rows[7][1] != "0.2500" {
		t.Errorf("unexpected share row: %v", summary.Rows[7])
	}
}

func TestFormatFloat(t *testing.T) {
	if got := formatFloat(math.NaN()); got != "" {
		t.Errorf("NaN should render empty, got %q", got)
	}
	if got := formatFloat(7.5); got != "7.5000" {
		t.Errorf("formatFloat(7.5) = %q", got)
	}
}

func TestFormatOptInt(t *testing.T) {
	if got := formatOptInt(model.OptInt{}); got != "" {
		t.Errorf("missing value should render empty, got %q", got)
	}
	if got := formatOptInt(model.Int(1987)); got != "1987" {
		t.Errorf("formatOptInt = %q", got)
	}
}
