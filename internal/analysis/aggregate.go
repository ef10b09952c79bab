// Package analysis implements the streaming aggregation over title batches
// and the finalization of derived tables.
package analysis

import (
	"io"

	"github.com/cinestat/cinestat/internal/model"
)

// movieType is the title type tag retained by the analysis.
const movieType = "movie"

// Default analysis settings, applied where Options fields are zero.
const (
	DefaultMinYear         = 1900
	DefaultPopularVotesMin = 50_000
	DefaultTopTitles       = 20
)

// RatingSource provides rating lookups for the join and whole-table
// statistics for the finalizer.
type RatingSource interface {
	Lookup(id string) (model.Rating, bool)
	OverallWeightedRating() float64
}

// BatchSource yields batches of decoded title rows until io.EOF.
type BatchSource interface {
	Next() ([]model.TitleRow, error)
}

// WeightedTotals is a running (weighted rating sum, vote total) pair. Both
// fields only ever grow; the average is derived at finalization.
type WeightedTotals struct {
	WeightedSum float64
	Votes       int64
}

func (t *WeightedTotals) add(rating float64, votes int) {
	t.WeightedSum += rating * float64(votes)
	t.Votes += int64(votes)
}

// GenreTotals extends WeightedTotals with a per-genre title count.
type GenreTotals struct {
	WeightedTotals
	TitleCount int
}

// TopCandidate is one row collected for the top-by-votes table.
type TopCandidate struct {
	ID     string
	Title  string
	Year   model.OptInt
	Rating float64
	Votes  int
}

// RatingVotes is a (rating, votes) pair from the high-popularity subset.
type RatingVotes struct {
	Rating float64
	Votes  int
}

// Accumulator holds all running state folded over the batch stream. It is
// mutated once per batch during streaming and read-only afterwards.
type Accumulator struct {
	MoviesPerYear  map[int]int
	YearTotals     map[int]*WeightedTotals
	GenreTotals    map[string]*GenreTotals
	RuntimeSamples []float64
	Popular        []RatingVotes
	TopCandidates  []TopCandidate

	opts model.Options
}

// NewAccumulator creates an empty accumulator. Zero-valued option fields
// fall back to the package defaults.
func NewAccumulator(opts model.Options) *Accumulator {
	if opts.MinYear == 0 {
		opts.MinYear = DefaultMinYear
	}
	if opts.PopularVotesMin == 0 {
		opts.PopularVotesMin = DefaultPopularVotesMin
	}
	if opts.TopTitles == 0 {
		opts.TopTitles = DefaultTopTitles
	}
	return &Accumulator{
		MoviesPerYear: make(map[int]int),
		YearTotals:    make(map[int]*WeightedTotals),
		GenreTotals:   make(map[string]*GenreTotals),
		opts:          opts,
	}
}

// AddBatch folds one batch into the accumulator: filter to movies, inner
// join against the ratings, then update every keyed total and bounded
// collection. Rows with a missing year still contribute to the genre,
// runtime, and popularity collections.
func (a *Accumulator) AddBatch(rows []model.TitleRow, ratings RatingSource) {
	for i := range rows {
		row := &rows[i]
		if row.Type != movieType {
			continue
		}
		rating, ok := ratings.Lookup(row.ID)
		if !ok {
			continue
		}

		if row.Year.Valid {
			a.MoviesPerYear[row.Year.Value]++
			totals := a.YearTotals[row.Year.Value]
			if totals == nil {
				totals = &WeightedTotals{}
				a.YearTotals[row.Year.Value] = totals
			}
			totals.add(rating.AverageRating, rating.NumVotes)
		}

		if row.RuntimeMinutes.Valid {
			a.RuntimeSamples = append(a.RuntimeSamples, float64(row.RuntimeMinutes.Value))
		}

		if rating.NumVotes >= a.opts.PopularVotesMin {
			a.Popular = append(a.Popular, RatingVotes{Rating: rating.AverageRating, Votes: rating.NumVotes})
		}

		a.TopCandidates = append(a.TopCandidates, TopCandidate{
			ID:     row.ID,
			Title:  row.Title,
			Year:   row.Year,
			Rating: rating.AverageRating,
			Votes:  rating.NumVotes,
		})

		for _, genre := range row.Genres {
			totals := a.GenreTotals[genre]
			if totals == nil {
				totals = &GenreTotals{}
				a.GenreTotals[genre] = totals
			}
			totals.add(rating.AverageRating, rating.NumVotes)
			totals.TitleCount++
		}
	}
}

// Merge folds another accumulator into this one. Accumulation is pure
// summation per key, so merging per-worker partials in any order yields the
// same totals as a single sequential fold.
func (a *Accumulator) Merge(other *Accumulator) {
	for year, count := range other.MoviesPerYear {
		a.MoviesPerYear[year] += count
	}
	for year, totals := range other.YearTotals {
		dst := a.YearTotals[year]
		if dst == nil {
			dst = &WeightedTotals{}
			a.YearTotals[year] = dst
		}
		dst.WeightedSum += totals.WeightedSum
		dst.Votes += totals.Votes
	}
	for genre, totals := range other.GenreTotals {
		dst := a.GenreTotals[genre]
		if dst == nil {
			dst = &GenreTotals{}
			a.GenreTotals[genre] = dst
		}
		dst.WeightedSum += totals.WeightedSum
		dst.Votes += totals.Votes
		dst.TitleCount += totals.TitleCount
	}
	a.RuntimeSamples = append(a.RuntimeSamples, other.RuntimeSamples...)
	a.Popular = append(a.Popular, other.Popular...)
	a.TopCandidates = append(a.TopCandidates, other.TopCandidates...)
}

// Aggregate drives the fold over the batch source until exhaustion. Each
// batch is released as soon as it has been folded in; only the accumulator
// survives the loop. The progress callback, if set, receives the cumulative
// raw row count after every batch.
func Aggregate(src BatchSource, ratings RatingSource, opts model.Options, progress func(rows int64)) (*Accumulator, error) {
	acc := NewAccumulator(opts)
	var rows int64
	for {
		batch, err := src.Next()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, err
		}
		rows += int64(len(batch))
		acc.AddBatch(batch, ratings)
		if progress != nil {
			progress(rows)
		}
	}
	return acc, nil
}
