// Package imdb downloads and decodes the IMDb public datasets.
package imdb

import (
	"compress/gzip"
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/cinestat/cinestat/internal/model"
)

// missingToken is the dataset sentinel for an absent value.
const missingToken = `\N`

// tsvFile bundles the readers behind a gzip-compressed tab-separated file.
type tsvFile struct {
	file *os.File
	gz   *gzip.Reader
	csv  *csv.Reader
}

// openTSV opens a gzip-compressed tab-separated file and reads its header
// row, returning the column index for each header name.
func openTSV(path string) (*tsvFile, map[string]int, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to open dataset: %w", err)
	}
	gz, err := gzip.NewReader(file)
	if err != nil {
		_ = file.Close()
		return nil, nil, fmt.Errorf("failed to open gzip stream: %w", err)
	}
	reader := csv.NewReader(gz)
	reader.Comma = '\t'
	reader.LazyQuotes = true
	reader.FieldsPerRecord = -1
	reader.ReuseRecord = true

	header, err := reader.Read()
	if err != nil {
		_ = gz.Close()
		_ = file.Close()
		return nil, nil, fmt.Errorf("failed to read header: %w", err)
	}
	columns := make(map[string]int, len(header))
	for i, name := range header {
		columns[name] = i
	}
	return &tsvFile{file: file, gz: gz, csv: reader}, columns, nil
}

// Close releases the underlying readers.
func (t *tsvFile) Close() error {
	gzErr := t.gz.Close()
	fileErr := t.file.Close()
	if gzErr != nil {
		return gzErr
	}
	return fileErr
}

func requireColumns(columns map[string]int, names ...string) error {
	for _, name := range names {
		if _, ok := columns[name]; !ok {
			return fmt.Errorf("missing column %q", name)
		}
	}
	return nil
}

func field(record []string, idx int) string {
	if idx < 0 || idx >= len(record) {
		return missingToken
	}
	return record[idx]
}

// parseOptInt coerces free text to an integer. The sentinel, empty text, and
// anything unparseable all map to a missing value, never an error.
func parseOptInt(s string) model.OptInt {
	if s == "" || s == missingToken {
		return model.OptInt{}
	}
	v, err := strconv.Atoi(s)
	if err != nil {
		return model.OptInt{}
	}
	return model.Int(v)
}

// parseGenres splits the comma-delimited genre field, dropping empty and
// sentinel tokens.
func parseGenres(s string) []string {
	if s == "" || s == missingToken {
		return nil
	}
	parts := strings.Split(s, ",")
	genres := make([]string, 0, len(parts))
	for _, part := range parts {
		if part == "" || part == missingToken {
			continue
		}
		genres = append(genres, part)
	}
	if len(genres) == 0 {
		return nil
	}
	return genres
}

// readRow reads one data row, skipping rows the csv reader flags as
// malformed. Returns io.EOF at end of input.
func (t *tsvFile) readRow() ([]string, error) {
	for {
		record, err := t.csv.Read()
		if record == nil && err == io.EOF {
			return nil, io.EOF
		}
		if err != nil {
			if _, ok := err.(*csv.ParseError); ok {
				continue
			}
			return nil, fmt.Errorf("failed to read row: %w", err)
		}
		return record, nil
	}
}
