package analysis

import (
	"math"
	"sort"

	"github.com/cinestat/cinestat/internal/model"
)

// Runtime histogram bin edges in minutes. Bins are half-open [lo, hi); any
// sample of 180 minutes or more lands in the open-ended overflow bin.
var (
	runtimeEdges  = []float64{0, 60, 75, 90, 105, 120, 150, 180}
	runtimeLabels = []string{"< 60 min", "60-74", "75-89", "90-104", "105-119", "120-149", "150-179"}
)

const runtimeOverflowLabel = "180+"

// Popularity band edges by vote count, half-open, final band open-ended.
var (
	voteBandEdges  = []int{50_000, 100_000, 200_000, 500_000, 1_000_000, 2_000_000, 5_000_000}
	voteBandLabels = []string{"50k-100k", "100k-200k", "200k-500k", "500k-1M", "1M-2M", "2M-5M", "5M+"}
)

// YearCount is one row of the movies-per-year table.
type YearCount struct {
	Year  int
	Count int
}

// YearRating is one row of the yearly weighted ratings table.
type YearRating struct {
	Year                  int
	WeightedAverageRating float64
	Votes                 int64
}

// GenreRating is one row of the genre weighted ratings table.
type GenreRating struct {
	Genre                 string
	TitleCount            int
	TotalVotes            int64
	WeightedAverageRating float64
}

// TopTitle is one row of the top-by-votes table.
type TopTitle struct {
	ID            string
	Title         string
	Year          model.OptInt
	AverageRating float64
	NumVotes      int
}

// RuntimeBin is one row of the runtime distribution table.
type RuntimeBin struct {
	Label string
	Count int
}

// PopularityBand is one row of the popularity-by-votes table.
type PopularityBand struct {
	Label       string
	TitleCount  int
	AvgRating   float64
	MedianVotes float64
}

// Summary is the flat high-level metrics record. Statistics over an empty
// sample set are NaN, never zero.
type Summary struct {
	TotalRatedMovies      int
	MedianRuntime         float64
	OverallWeightedRating float64
	RuntimeP10            float64
	RuntimeP25            float64
	RuntimeP75            float64
	RuntimeP90            float64
	ShareOver120Min       float64
}

// Results bundles every derived table plus the raw runtime samples kept for
// chart rendering.
type Results struct {
	MoviesPerYear   []YearCount
	YearlyRatings   []YearRating
	GenreRatings    []GenreRating
	TopTitles       []TopTitle
	RuntimeBins     []RuntimeBin
	PopularityBands []PopularityBand
	Summary         Summary
	RuntimeSamples  []float64
	Popular         []RatingVotes
}

// Finalize converts the exhausted accumulator into derived tables. It is a
// pure function of the accumulator and the ratings table; it never re-reads
// the sources.
func Finalize(acc *Accumulator, ratings RatingSource) Results {
	res := Results{
		MoviesPerYear:   yearCounts(acc),
		YearlyRatings:   yearRatings(acc),
		GenreRatings:    genreRatings(acc),
		TopTitles:       topTitles(acc),
		RuntimeBins:     runtimeBins(acc.RuntimeSamples),
		PopularityBands: popularityBands(acc.Popular),
		RuntimeSamples:  acc.RuntimeSamples,
		Popular:         acc.Popular,
	}

	qs := Quantiles(acc.RuntimeSamples, 0.1, 0.25, 0.5, 0.75, 0.9)
	res.Summary = Summary{
		TotalRatedMovies:      totalCount(res.MoviesPerYear),
		MedianRuntime:         qs[2],
		OverallWeightedRating: ratings.OverallWeightedRating(),
		RuntimeP10:            qs[0],
		RuntimeP25:            qs[1],
		RuntimeP75:            qs[3],
		RuntimeP90:            qs[4],
		ShareOver120Min:       shareAtLeast(acc.RuntimeSamples, 120),
	}
	return res
}

func yearCounts(acc *Accumulator) []YearCount {
	out := make([]YearCount, 0, len(acc.MoviesPerYear))
	for year, count := range acc.MoviesPerYear {
		if year < acc.opts.MinYear {
			continue
		}
		out = append(out, YearCount{Year: year, Count: count})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Year < out[j].Year })
	return out
}

func totalCount(counts []YearCount) int {
	total := 0
	for _, c := range counts {
		total += c.Count
	}
	return total
}

func yearRatings(acc *Accumulator) []YearRating {
	out := make([]YearRating, 0, len(acc.YearTotals))
	for year, totals := range acc.YearTotals {
		if totals.Votes == 0 {
			// Undefined average, not zero.
			continue
		}
		out = append(out, YearRating{
			Year:                  year,
			WeightedAverageRating: totals.WeightedSum / float64(totals.Votes),
			Votes:                 totals.Votes,
		})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Year < out[j].Year })
	return out
}

func genreRatings(acc *Accumulator) []GenreRating {
	out := make([]GenreRating, 0, len(acc.GenreTotals))
	for genre, totals := range acc.GenreTotals {
		if totals.Votes == 0 {
			continue
		}
		out = append(out, GenreRating{
			Genre:                 genre,
			TitleCount:            totals.TitleCount,
			TotalVotes:            totals.Votes,
			WeightedAverageRating: totals.WeightedSum / float64(totals.Votes),
		})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].TotalVotes == out[j].TotalVotes {
			return out[i].Genre < out[j].Genre
		}
		return out[i].TotalVotes > out[j].TotalVotes
	})
	return out
}

func topTitles(acc *Accumulator) []TopTitle {
	seen := make(map[string]struct{}, len(acc.TopCandidates))
	unique := make([]TopCandidate, 0, len(acc.TopCandidates))
	for _, c := range acc.TopCandidates {
		if _, ok := seen[c.ID]; ok {
			continue
		}
		seen[c.ID] = struct{}{}
		unique = append(unique, c)
	}
	sort.Slice(unique, func(i, j int) bool {
		if unique[i].Votes == unique[j].Votes {
			return unique[i].ID < unique[j].ID
		}
		return unique[i].Votes > unique[j].Votes
	})
	if len(unique) > acc.opts.TopTitles {
		unique = unique[:acc.opts.TopTitles]
	}
	out := make([]TopTitle, 0, len(unique))
	for _, c := range unique {
		out = append(out, TopTitle{
			ID:            c.ID,
			Title:         c.Title,
			Year:          c.Year,
			AverageRating: c.Rating,
			NumVotes:      c.Votes,
		})
	}
	return out
}

func runtimeBins(samples []float64) []RuntimeBin {
	if len(samples) == 0 {
		return nil
	}
	counts := make([]int, len(runtimeLabels))
	overflow := 0
	for _, v := range samples {
		idx := 0
		for i := 1; i < len(runtimeEdges); i++ {
			if v >= runtimeEdges[i] {
				idx = i
			}
		}
		if idx == len(runtimeEdges)-1 {
			overflow++
			continue
		}
		counts[idx]++
	}
	out := make([]RuntimeBin, 0, len(counts)+1)
	for i, label := range runtimeLabels {
		out = append(out, RuntimeBin{Label: label, Count: counts[i]})
	}
	if overflow > 0 {
		out = append(out, RuntimeBin{Label: runtimeOverflowLabel, Count: overflow})
	}
	return out
}

func popularityBands(popular []RatingVotes) []PopularityBand {
	if len(popular) == 0 {
		return nil
	}
	type band struct {
		ratingSum float64
		votes     []float64
		count     int
	}
	bands := make([]band, len(voteBandLabels))
	for _, p := range popular {
		idx := -1
		for i, edge := range voteBandEdges {
			if p.Votes >= edge {
				idx = i
			}
		}
		if idx < 0 {
			// Below the lowest band edge; excluded by construction.
			continue
		}
		bands[idx].ratingSum += p.Rating
		bands[idx].votes = append(bands[idx].votes, float64(p.Votes))
		bands[idx].count++
	}
	out := make([]PopularityBand, 0, len(bands))
	for i, b := range bands {
		if b.count == 0 {
			continue
		}
		out = append(out, PopularityBand{
			Label:       voteBandLabels[i],
			TitleCount:  b.count,
			AvgRating:   b.ratingSum / float64(b.count),
			MedianVotes: Median(b.votes),
		})
	}
	return out
}

func shareAtLeast(samples []float64, threshold float64) float64 {
	if len(samples) == 0 {
		return math.NaN()
	}
	count := 0
	for _, v := range samples {
		if v >= threshold {
			count++
		}
	}
	return float64(count) / float64(len(samples))
}
