package imdb

import (
	"compress/gzip"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

const titlesHeader = "tconst\ttitleType\tprimaryTitle\toriginalTitle\tisAdult\tstartYear\tendYear\truntimeMinutes\tgenres"

func writeGzipTSV(t *testing.T, lines []string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "dataset.tsv.gz")
	file, err := os.Create(path)
	if err != nil {
		t.Fatalf("failed to create fixture: %v", err)
	}
	gz := gzip.NewWriter(file)
	if _, err := gz.Write([]byte(strings.Join(lines, "\n") + "\n")); err != nil {
		t.Fatalf("failed to write fixture: %v", err)
	}
	if err := gz.Close(); err != nil {
		t.Fatalf("failed to close gzip writer: %v", err)
	}
	if err := file.Close(); err != nil {
		t.Fatalf("failed to close fixture: %v", err)
	}
	return path
}

func titleLine(id, titleType, title, year, runtime, genres string) string {
	return strings.Join([]string{id, titleType, title, title, "0", year, `\N`, runtime, genres}, "\t")
}

func TestOpenTitlesDecodesAndCoerces(t *testing.T) {
	path := writeGzipTSV(t, []string{
		titlesHeader,
		titleLine("tt1", "movie", "First", "1999", "92", "Drama,Comedy"),
		titleLine("tt2", "short", "Second", `\N`, "abc", `\N`),
		titleLine("tt3", "movie", "Third", "2005", `\N`, "Drama"),
	})

	reader, err := OpenTitles(path, 10)
	if err != nil {
		t.Fatalf("OpenTitles failed: %v", err)
	}
	defer func() {
		_ = reader.Close()
	}()

	batch, err := reader.Next()
	if err != nil {
		t.Fatalf("Next failed: %v", err)
	}
	if len(batch) != 3 {
		t.Fatalf("expected 3 rows, got %d", len(batch))
	}

	first := batch[0]
	if first.ID != "tt1" || first.Type != "movie" || first.Title != "First" {
		t.Fatalf("unexpected first row: %+v", first)
	}
	if !first.Year.Valid || first.Year.Value != 1999 {
		t.Fatalf("expected year 1999, got %+v", first.Year)
	}
	if !first.RuntimeMinutes.Valid || first.RuntimeMinutes.Value != 92 {
		t.Fatalf("expected runtime 92, got %+v", first.RuntimeMinutes)
	}
	if len(first.Genres) != 2 || first.Genres[0] != "Drama" || first.Genres[1] != "Comedy" {
		t.Fatalf("unexpected genres: %v", first.Genres)
	}

	second := batch[1]
	if second.Year.Valid {
		t.Fatalf("expected missing year for sentinel, got %+v", second.Year)
	}
	if second.RuntimeMinutes.Valid {
		t.Fatalf("expected missing runtime for non-numeric text, got %+v", second.RuntimeMinutes)
	}
	if second.Genres != nil {
		t.Fatalf("expected no genres for sentinel, got %v", second.Genres)
	}

	third := batch[2]
	if third.RuntimeMinutes.Valid {
		t.Fatalf("expected missing runtime, got %+v", third.RuntimeMinutes)
	}

	if _, err := reader.Next(); err != io.EOF {
		t.Fatalf("expected io.EOF after exhaustion, got %v", err)
	}
	if reader.RowsRead() != 3 {
		t.Fatalf("expected 3 rows read, got %d", reader.RowsRead())
	}
}

func TestOpenTitlesBatchesAreFixedSize(t *testing.T) {
	lines := []string{titlesHeader}
	for i := 0; i < 5; i++ {
		lines = append(lines, titleLine("tt"+string(rune('0'+i)), "movie", "Movie", "2000", "90", "Drama"))
	}
	path := writeGzipTSV(t, lines)

	reader, err := OpenTitles(path, 2)
	if err != nil {
		t.Fatalf("OpenTitles failed: %v", err)
	}
	defer func() {
		_ = reader.Close()
	}()

	sizes := []int{}
	for {
		batch, err := reader.Next()
		if err == io.EOF {
			break
		}
		if err != nil {
			t.Fatalf("Next failed: %v", err)
		}
		sizes = append(sizes, len(batch))
	}
	if len(sizes) != 3 || sizes[0] != 2 || sizes[1] != 2 || sizes[2] != 1 {
		t.Fatalf("unexpected batch sizes: %v", sizes)
	}
}

func TestOpenTitlesRejectsUnknownSchema(t *testing.T) {
	path := writeGzipTSV(t, []string{
		"id\tname",
		"1\tsomething",
	})
	if _, err := OpenTitles(path, 10); err == nil {
		t.Fatalf("expected schema error")
	}
}

func TestOpenTitlesMissingFile(t *testing.T) {
	if _, err := OpenTitles(filepath.Join(t.TempDir(), "absent.tsv.gz"), 10); err == nil {
		t.Fatalf("expected error for missing file")
	}
}
