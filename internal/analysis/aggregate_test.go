package analysis

import (
	"errors"
	"io"
	"math"
	"testing"

	"github.com/cinestat/cinestat/internal/model"
)

// fakeRatings implements RatingSource over a plain map.
type fakeRatings struct {
	byID    map[string]model.Rating
	overall float64
}

func (f fakeRatings) Lookup(id string) (model.Rating, bool) {
	r, ok := f.byID[id]
	return r, ok
}

func (f fakeRatings) OverallWeightedRating() float64 {
	return f.overall
}

// sliceSource yields pre-built batches in order.
type sliceSource struct {
	batches [][]model.TitleRow
	err     error
}

func (s *sliceSource) Next() ([]model.TitleRow, error) {
	if len(s.batches) == 0 {
		if s.err != nil {
			return nil, s.err
		}
		return nil, io.EOF
	}
	batch := s.batches[0]
	s.batches = s.batches[1:]
	return batch, nil
}

func movieRow(id, title string, year, runtime int, genres ...string) model.TitleRow {
	return model.TitleRow{
		ID:             id,
		Type:           "movie",
		Title:          title,
		Year:           model.Int(year),
		RuntimeMinutes: model.Int(runtime),
		Genres:         genres,
	}
}

func testRatings() fakeRatings {
	return fakeRatings{
		byID: map[string]model.Rating{
			"tt1": {AverageRating: 8.0, NumVotes: 100},
			"tt2": {AverageRating: 7.0, NumVotes: 200},
			"tt3": {AverageRating: 9.0, NumVotes: 50},
		},
		overall: 7.5,
	}
}

func TestAddBatchFiltersAndJoins(t *testing.T) {
	rows := []model.TitleRow{
		movieRow("tt1", "First", 2000, 90, "Drama"),
		movieRow("tt2", "Second", 2000, 150, "Drama", "Comedy"),
		{ID: "tt3", Type: "short", Title: "Not a movie", Year: model.Int(2000)},
		movieRow("tt9", "Unrated", 2001, 100, "Drama"),
	}
	acc := NewAccumulator(model.Options{})
	acc.AddBatch(rows, testRatings())

	if acc.MoviesPerYear[2000] != 2 {
		t.Fatalf("expected 2 movies in 2000, got %d", acc.MoviesPerYear[2000])
	}
	if _, ok := acc.MoviesPerYear[2001]; ok {
		t.Fatalf("unrated title must not be counted")
	}

	// (8.0*100 + 7.0*200) / 300
	totals := acc.YearTotals[2000]
	if totals == nil || totals.Votes != 300 {
		t.Fatalf("unexpected year totals: %+v", totals)
	}
	if !almostEqual(totals.WeightedSum/float64(totals.Votes), 2200.0/300.0) {
		t.Fatalf("unexpected weighted average: %v", totals.WeightedSum/float64(totals.Votes))
	}

	drama := acc.GenreTotals["Drama"]
	if drama == nil || drama.TitleCount != 2 || drama.Votes != 300 {
		t.Fatalf("unexpected Drama totals: %+v", drama)
	}
	comedy := acc.GenreTotals["Comedy"]
	if comedy == nil || comedy.TitleCount != 1 || comedy.Votes != 200 {
		t.Fatalf("unexpected Comedy totals: %+v", comedy)
	}

	if len(acc.RuntimeSamples) != 2 {
		t.Fatalf("expected 2 runtime samples, got %v", acc.RuntimeSamples)
	}
	if len(acc.TopCandidates) != 2 {
		t.Fatalf("expected 2 top candidates, got %d", len(acc.TopCandidates))
	}
}

func TestAddBatchMissingYearStillContributes(t *testing.T) {
	row := movieRow("tt1", "Undated", 0, 95, "Drama")
	row.Year = model.OptInt{}

	acc := NewAccumulator(model.Options{})
	acc.AddBatch([]model.TitleRow{row}, testRatings())

	if len(acc.MoviesPerYear) != 0 || len(acc.YearTotals) != 0 {
		t.Fatalf("missing year must not touch the year tables")
	}
	if len(acc.RuntimeSamples) != 1 {
		t.Fatalf("expected runtime sample, got %v", acc.RuntimeSamples)
	}
	if acc.GenreTotals["Drama"] == nil {
		t.Fatalf("expected genre totals")
	}
	if len(acc.TopCandidates) != 1 {
		t.Fatalf("expected top candidate")
	}
}

func TestAddBatchPopularThreshold(t *testing.T) {
	acc := NewAccumulator(model.Options{PopularVotesMin: 150})
	acc.AddBatch([]model.TitleRow{
		movieRow("tt1", "Few votes", 2000, 90, "Drama"),
		movieRow("tt2", "Many votes", 2000, 90, "Drama"),
	}, testRatings())

	if len(acc.Popular) != 1 {
		t.Fatalf("expected 1 popular entry, got %v", acc.Popular)
	}
	if acc.Popular[0].Votes != 200 {
		t.Fatalf("unexpected popular entry: %+v", acc.Popular[0])
	}
}

func TestMergeMatchesSequentialFold(t *testing.T) {
	ratings := testRatings()
	rows := []model.TitleRow{
		movieRow("tt1", "First", 2000, 90, "Drama"),
		movieRow("tt2", "Second", 2001, 150, "Drama", "Comedy"),
		movieRow("tt3", "Third", 2000, 180, "Horror"),
	}

	sequential := NewAccumulator(model.Options{})
	sequential.AddBatch(rows, ratings)

	left := NewAccumulator(model.Options{})
	left.AddBatch(rows[:1], ratings)
	right := NewAccumulator(model.Options{})
	right.AddBatch(rows[1:], ratings)
	left.Merge(right)

	if len(left.MoviesPerYear) != len(sequential.MoviesPerYear) {
		t.Fatalf("year counts diverge: %v vs %v", left.MoviesPerYear, sequential.MoviesPerYear)
	}
	for year, want := range sequential.MoviesPerYear {
		if left.MoviesPerYear[year] != want {
			t.Errorf("year %d: merged %d, sequential %d", year, left.MoviesPerYear[year], want)
		}
	}
	for year, want := range sequential.YearTotals {
		got := left.YearTotals[year]
		if got == nil || got.Votes != want.Votes || !almostEqual(got.WeightedSum, want.WeightedSum) {
			t.Errorf("year totals %d diverge: %+v vs %+v", year, got, want)
		}
	}
	for genre, want := range sequential.GenreTotals {
		got := left.GenreTotals[genre]
		if got == nil || got.TitleCount != want.TitleCount || got.Votes != want.Votes {
			t.Errorf("genre totals %q diverge: %+v vs %+v", genre, got, want)
		}
	}
	if len(left.RuntimeSamples) != len(sequential.RuntimeSamples) {
		t.Errorf("runtime samples diverge: %v vs %v", left.RuntimeSamples, sequential.RuntimeSamples)
	}
	if len(left.TopCandidates) != len(sequential.TopCandidates) {
		t.Errorf("top candidates diverge")
	}
}

func TestAggregateDrivesSourceToExhaustion(t *testing.T) {
	src := &sliceSource{batches: [][]model.TitleRow{
		{movieRow("tt1", "First", 2000, 90, "Drama")},
		{movieRow("tt2", "Second", 2001, 100, "Comedy")},
	}}

	var seen []int64
	acc, err := Aggregate(src, testRatings(), model.Options{}, func(rows int64) {
		seen = append(seen, rows)
	})
	if err != nil {
		t.Fatalf("Aggregate failed: %v", err)
	}
	if len(seen) != 2 || seen[0] != 1 || seen[1] != 2 {
		t.Fatalf("unexpected progress callbacks: %v", seen)
	}
	if acc.MoviesPerYear[2000] != 1 || acc.MoviesPerYear[2001] != 1 {
		t.Fatalf("unexpected year counts: %v", acc.MoviesPerYear)
	}
}

func TestAggregatePropagatesSourceError(t *testing.T) {
	readErr := errors.New("truncated stream")
	src := &sliceSource{
		batches: [][]model.TitleRow{{movieRow("tt1", "First", 2000, 90, "Drama")}},
		err:     readErr,
	}
	if _, err := Aggregate(src, testRatings(), model.Options{}, nil); !errors.Is(err, readErr) {
		t.Fatalf("expected source error, got %v", err)
	}
}

func TestNewAccumulatorDefaults(t *testing.T) {
	acc := NewAccumulator(model.Options{})
	if acc.opts.MinYear != DefaultMinYear {
		t.Errorf("MinYear = %d, want %d", acc.opts.MinYear, DefaultMinYear)
	}
	if acc.opts.PopularVotesMin != DefaultPopularVotesMin {
		t.Errorf("PopularVotesMin = %d, want %d", acc.opts.PopularVotesMin, DefaultPopularVotesMin)
	}
	if acc.opts.TopTitles != DefaultTopTitles {
		t.Errorf("TopTitles = %d, want %d", acc.opts.TopTitles, DefaultTopTitles)
	}
}

func TestAggregateEmptySource(t *testing.T) {
	acc, err := Aggregate(&sliceSource{}, testRatings(), model.Options{}, nil)
	if err != nil {
		t.Fatalf("Aggregate failed: %v", err)
	}
	res := Finalize(acc, fakeRatings{overall: math.NaN()})
	if res.Summary.TotalRatedMovies != 0 {
		t.Fatalf("expected zero movies, got %d", res.Summary.TotalRatedMovies)
	}
	if !math.IsNaN(res.Summary.MedianRuntime) {
		t.Fatalf("expected NaN median runtime, got %v", res.Summary.MedianRuntime)
	}
}
