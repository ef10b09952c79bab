package report

import (
	"math"
	"strconv"

	"github.com/cinestat/cinestat/internal/analysis"
	"github.com/cinestat/cinestat/internal/model"
)

// Table names double as the artefact basenames under summaries/.
const (
	TableMoviesPerYear   = "movies_per_year"
	TableYearlyRatings   = "yearly_weighted_ratings"
	TableGenreRatings    = "genre_weighted_ratings"
	TableTopByVotes      = "top_20_by_votes"
	TableRuntimeBins     = "runtime_distribution"
	TablePopularityBands = "popularity_by_votes"
	TableSummaryMetrics  = "high_level_metrics"
)

// BuildTables converts finalized results into the seven named tables, in a
// fixed emission order.
func BuildTables(res analysis.Results) []Table {
	return []Table{
		moviesPerYearTable(res.MoviesPerYear),
		yearlyRatingsTable(res.YearlyRatings),
		genreRatingsTable(res.GenreRatings),
		topTitlesTable(res.TopTitles),
		runtimeBinsTable(res.RuntimeBins),
		popularityTable(res.PopularityBands),
		summaryTable(res.Summary),
	}
}

func moviesPerYearTable(rows []analysis.YearCount) Table {
	t := Table{Name: TableMoviesPerYear, Columns: []string{"year", "count"}}
	for _, r := range rows {
		t.Rows = append(t.Rows, []string{strconv.Itoa(r.Year), strconv.Itoa(r.Count)})
	}
	return t
}

func yearlyRatingsTable(rows []analysis.YearRating) Table {
	t := Table{Name: TableYearlyRatings, Columns: []string{"year", "weighted_average_rating", "votes"}}
	for _, r := range rows {
		t.Rows = append(t.Rows, []string{
			strconv.Itoa(r.Year),
			formatFloat(r.WeightedAverageRating),
			strconv.FormatInt(r.Votes, 10),
		})
	}
	return t
}

func genreRatingsTable(rows []analysis.GenreRating) Table {
	t := Table{Name: TableGenreRatings, Columns: []string{"genre", "title_count", "total_votes", "weighted_average_rating"}}
	for _, r := range rows {
		t.Rows = append(t.Rows, []string{
			r.Genre,
			strconv.Itoa(r.TitleCount),
			strconv.FormatInt(r.TotalVotes, 10),
			formatFloat(r.WeightedAverageRating),
		})
	}
	return t
}

func topTitlesTable(rows []analysis.TopTitle) Table {
	t := Table{Name: TableTopByVotes, Columns: []string{"tconst", "primaryTitle", "startYear", "averageRating", "numVotes"}}
	for _, r := range rows {
		t.Rows = append(t.Rows, []string{
			r.ID,
			r.Title,
			formatOptInt(r.Year),
			formatFloat(r.AverageRating),
			strconv.Itoa(r.NumVotes),
		})
	}
	return t
}

func runtimeBinsTable(rows []analysis.RuntimeBin) Table {
	t := Table{Name: TableRuntimeBins, Columns: []string{"runtime_bin", "count"}}
	for _, r := range rows {
		t.Rows = append(t.Rows, []string{r.Label, strconv.Itoa(r.Count)})
	}
	return t
}

func popularityTable(rows []analysis.PopularityBand) Table {
	t := Table{Name: TablePopularityBands, Columns: []string{"vote_band", "title_count", "avg_rating", "median_votes"}}
	for _, r := range rows {
		t.Rows = append(t.Rows, []string{
			r.Label,
			strconv.Itoa(r.TitleCount),
			formatFloat(r.AvgRating),
			formatFloat(r.MedianVotes),
		})
	}
	return t
}

func summaryTable(s analysis.Summary) Table {
	t := Table{Name: TableSummaryMetrics, Columns: []string{"metric", "value"}}
	t.Rows = [][]string{
		{"total_rated_movies", strconv.Itoa(s.TotalRatedMovies)},
		{"median_runtime", formatFloat(s.MedianRuntime)},
		{"overall_weighted_rating", formatFloat(s.OverallWeightedRating)},
		{"runtime_p10", formatFloat(s.RuntimeP10)},
		{"runtime_p25", formatFloat(s.RuntimeP25)},
		{"runtime_p75", formatFloat(s.RuntimeP75)},
		{"runtime_p90", formatFloat(s.RuntimeP90)},
		{"share_over_120_min", formatFloat(s.ShareOver120Min)},
	}
	return t
}

func formatFloat(v float64) string {
	if math.IsNaN(v) {
		return ""
	}
	return strconv.FormatFloat(v, 'f', 4, 64)
}

func formatOptInt(v model.OptInt) string {
	if !v.Valid {
		return ""
	}
	return strconv.Itoa(v.Value)
}
