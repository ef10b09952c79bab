package imdb

import (
	"fmt"
	"io"

	"github.com/cinestat/cinestat/internal/model"
)

// DefaultChunkSize is the number of raw title rows per batch.
const DefaultChunkSize = 500_000

// TitleReader yields fixed-size batches of decoded title rows from the
// title basics dataset. The sequence is lazy, finite, and not restartable.
type TitleReader struct {
	tsv       *tsvFile
	chunkSize int
	rowsRead  int64
	exhausted bool

	idIdx      int
	typeIdx    int
	titleIdx   int
	yearIdx    int
	runtimeIdx int
	genresIdx  int
}

// OpenTitles opens the title basics dataset for chunked reading. A
// chunkSize of zero or less selects DefaultChunkSize.
func OpenTitles(path string, chunkSize int) (*TitleReader, error) {
	if chunkSize <= 0 {
		chunkSize = DefaultChunkSize
	}
	tsv, columns, err := openTSV(path)
	if err != nil {
		return nil, err
	}
	if err := requireColumns(columns, "tconst", "titleType", "primaryTitle", "startYear", "runtimeMinutes", "genres"); err != nil {
		_ = tsv.Close()
		return nil, fmt.Errorf("unexpected title basics schema: %w", err)
	}
	return &TitleReader{
		tsv:        tsv,
		chunkSize:  chunkSize,
		idIdx:      columns["tconst"],
		typeIdx:    columns["titleType"],
		titleIdx:   columns["primaryTitle"],
		yearIdx:    columns["startYear"],
		runtimeIdx: columns["runtimeMinutes"],
		genresIdx:  columns["genres"],
	}, nil
}

// Next returns the next batch of rows, or io.EOF once the dataset is
// exhausted. The returned batch is owned by the caller.
func (r *TitleReader) Next() ([]model.TitleRow, error) {
	if r.exhausted {
		return nil, io.EOF
	}
	batch := make([]model.TitleRow, 0, r.chunkSize)
	for len(batch) < r.chunkSize {
		record, err := r.tsv.readRow()
		if err == io.EOF {
			r.exhausted = true
			break
		}
		if err != nil {
			return nil, err
		}
		r.rowsRead++
		batch = append(batch, model.TitleRow{
			ID:             field(record, r.idIdx),
			Type:           field(record, r.typeIdx),
			Title:          field(record, r.titleIdx),
			Year:           parseOptInt(field(record, r.yearIdx)),
			RuntimeMinutes: parseOptInt(field(record, r.runtimeIdx)),
			Genres:         parseGenres(field(record, r.genresIdx)),
		})
	}
	if len(batch) == 0 {
		return nil, io.EOF
	}
	return batch, nil
}

// RowsRead reports how many raw data rows have been decoded so far.
func (r *TitleReader) RowsRead() int64 {
	return r.rowsRead
}

// Close releases the underlying file handles.
func (r *TitleReader) Close() error {
	return r.tsv.Close()
}
