// Package imdb downloads and decodes the IMDb public datasets.
package imdb

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"time"
)

// Default dataset locations published by IMDb.
const (
	DefaultTitlesURL  = "https://datasets.imdbws.com/title.basics.tsv.gz"
	DefaultRatingsURL = "https://datasets.imdbws.com/title.ratings.tsv.gz"

	TitlesFilename  = "title.basics.tsv.gz"
	RatingsFilename = "title.ratings.tsv.gz"
)

// Dataset names a downloadable dataset file.
type Dataset struct {
	Filename string
	URL      string
}

// DefaultDatasets returns the two datasets the analysis consumes.
func DefaultDatasets(titlesURL, ratingsURL string) []Dataset {
	if titlesURL == "" {
		titlesURL = DefaultTitlesURL
	}
	if ratingsURL == "" {
		ratingsURL = DefaultRatingsURL
	}
	return []Dataset{
		{Filename: TitlesFilename, URL: titlesURL},
		{Filename: RatingsFilename, URL: ratingsURL},
	}
}

// FetchAll downloads each dataset into dataDir unless it is already present.
func FetchAll(ctx context.Context, dataDir string, datasets []Dataset) error {
	if dataDir == "" {
		return fmt.Errorf("data directory is required")
	}
	if err := os.MkdirAll(dataDir, 0o755); err != nil {
		return fmt.Errorf("failed to create data dir: %w", err)
	}
	for _, ds := range datasets {
		dest := filepath.Join(dataDir, ds.Filename)
		if info, err := os.Stat(dest); err == nil {
			slog.Info("dataset already present, skipping download", "file", ds.Filename, "bytes", info.Size())
			continue
		} else if !errors.Is(err, os.ErrNotExist) {
			return fmt.Errorf("failed to stat %s: %w", dest, err)
		}
		slog.Info("downloading dataset", "file", ds.Filename, "url", ds.URL)
		size, err := download(ctx, ds.URL, dest)
		if err != nil {
			return fmt.Errorf("failed to download %s: %w", ds.Filename, err)
		}
		slog.Info("finished download", "file", ds.Filename, "bytes", size)
	}
	return nil
}

func download(ctx context.Context, url, dest string) (int64, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, http.NoBody)
	if err != nil {
		return 0, fmt.Errorf("failed to create request: %w", err)
	}
	client := &http.Client{Timeout: 60 * time.Second}
	resp, err := client.Do(req)
	if err != nil {
		return 0, fmt.Errorf("request failed: %w", err)
	}
	defer func() {
		_ = resp.Body.Close()
	}()
	if resp.StatusCode != http.StatusOK {
		return 0, fmt.Errorf("unexpected status: %s", resp.Status)
	}

	tmpFile, err := os.CreateTemp(filepath.Dir(dest), "dataset-*.tsv.gz")
	if err != nil {
		return 0, fmt.Errorf("failed to create temp file: %w", err)
	}
	tmpPath := tmpFile.Name()
	defer func() {
		_ = tmpFile.Close()
		_ = os.Remove(tmpPath)
	}()

	size, err := io.Copy(tmpFile, resp.Body)
	if err != nil {
		return 0, fmt.Errorf("failed to write dataset: %w", err)
	}
	if err := tmpFile.Close(); err != nil {
		return 0, fmt.Errorf("failed to close temp file: %w", err)
	}
	if err := os.Rename(tmpPath, dest); err != nil {
		return 0, fmt.Errorf("failed to move dataset into place: %w", err)
	}
	return size, nil
}
