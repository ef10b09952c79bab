// Package model defines shared data structures.
package model

import "time"

// OptInt is an integer value that may be missing.
type OptInt struct {
	Value int
	Valid bool
}

// Int returns a present OptInt.
func Int(v int) OptInt {
	return OptInt{Value: v, Valid: true}
}

// TitleRow is one decoded row of the title basics dataset. Numeric fields
// are coerced from text; unparseable or sentinel values become invalid.
type TitleRow struct {
	ID             string
	Type           string
	Title          string
	Year           OptInt
	RuntimeMinutes OptInt
	Genres         []string
}

// Rating holds the aggregate audience rating for one title.
type Rating struct {
	AverageRating float64
	NumVotes      int
}

// Options defines tunable analysis settings.
type Options struct {
	ChunkSize       int
	MinYear         int
	PopularVotesMin int
	TopTitles       int
}

// Run summarizes one completed analysis run for the run history.
type Run struct {
	RunID                 int64
	StartedAt             time.Time
	FinishedAt            time.Time
	TitleRows             int64
	RatedMovies           int
	OverallWeightedRating float64
	MedianRuntime         float64
	ReportDir             string
}
