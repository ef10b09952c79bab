package imdb

import (
	"fmt"
	"io"
	"math"
	"strconv"

	"github.com/cinestat/cinestat/internal/model"
)

// RatingIndex is an in-memory lookup from title identifier to its rating.
// Duplicate identifiers in the source resolve last-wins.
type RatingIndex struct {
	byID map[string]model.Rating
}

// LoadRatingIndex reads the whole ratings dataset into memory. Unlike the
// chunked title reader this table is loaded wholesale, so any malformed row
// is fatal.
func LoadRatingIndex(path string) (*RatingIndex, error) {
	tsv, columns, err := openTSV(path)
	if err != nil {
		return nil, err
	}
	defer func() {
		_ = tsv.Close()
	}()
	if err := requireColumns(columns, "tconst", "averageRating", "numVotes"); err != nil {
		return nil, fmt.Errorf("unexpected ratings schema: %w", err)
	}
	idIdx := columns["tconst"]
	ratingIdx := columns["averageRating"]
	votesIdx := columns["numVotes"]

	byID := make(map[string]model.Rating)
	line := 1
	for {
		record, err := tsv.csv.Read()
		if record == nil && err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to read ratings row: %w", err)
		}
		line++
		id := field(record, idIdx)
		if id == "" || id == missingToken {
			return nil, fmt.Errorf("ratings row %d: missing identifier", line)
		}
		rating, err := strconv.ParseFloat(field(record, ratingIdx), 64)
		if err != nil {
			return nil, fmt.Errorf("ratings row %d: bad rating: %w", line, err)
		}
		votes, err := strconv.Atoi(field(record, votesIdx))
		if err != nil {
			return nil, fmt.Errorf("ratings row %d: bad vote count: %w", line, err)
		}
		if votes < 0 {
			return nil, fmt.Errorf("ratings row %d: negative vote count %d", line, votes)
		}
		byID[id] = model.Rating{AverageRating: rating, NumVotes: votes}
	}
	return &RatingIndex{byID: byID}, nil
}

// NewRatingIndex builds an index from an already materialized map. Intended
// for tests and alternative providers.
func NewRatingIndex(ratings map[string]model.Rating) *RatingIndex {
	byID := make(map[string]model.Rating, len(ratings))
	for id, r := range ratings {
		byID[id] = r
	}
	return &RatingIndex{byID: byID}
}

// Lookup returns the rating for an identifier.
func (idx *RatingIndex) Lookup(id string) (model.Rating, bool) {
	r, ok := idx.byID[id]
	return r, ok
}

// Len reports the number of rated titles.
func (idx *RatingIndex) Len() int {
	return len(idx.byID)
}

// OverallWeightedRating computes the vote-weighted average rating over the
// whole index. NaN when the index holds no votes.
func (idx *RatingIndex) OverallWeightedRating() float64 {
	var weightedSum float64
	var votes int64
	for _, r := range idx.byID {
		weightedSum += r.AverageRating * float64(r.NumVotes)
		votes += int64(r.NumVotes)
	}
	if votes == 0 {
		return math.NaN()
	}
	return weightedSum / float64(votes)
}
