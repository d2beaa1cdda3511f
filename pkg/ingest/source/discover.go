package source

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	rverrors "github.com/fintech-reviews/revload/pkg/errors"
)

// preferredFiles is the lookup order when discovering input in a directory.
// Files produced later in the enrichment pipeline carry more columns, so the
// richest export wins.
var preferredFiles = []string{
	"reviews_with_themes.csv",
	"reviews_with_sentiment.csv",
	"reviews.csv",
}

// Discover resolves the input file for a load. A file path is returned
// as-is. For a directory the preferred export names are tried in order,
// then any other .csv file (alphabetically first). Returns ErrNoInput when
// nothing usable is found.
func Discover(path string) (string, error) {
	info, err := os.Stat(path)
	if err != nil {
		return "", fmt.Errorf("failed to stat %s: %w", path, err)
	}

	if !info.IsDir() {
		return path, nil
	}

	for _, name := range preferredFiles {
		candidate := filepath.Join(path, name)
		if _, err := os.Stat(candidate); err == nil {
			return candidate, nil
		}
	}

	entries, err := os.ReadDir(path)
	if err != nil {
		return "", fmt.Errorf("failed to read directory %s: %w", path, err)
	}

	var csvs []string
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		if strings.EqualFold(filepath.Ext(entry.Name()), ".csv") {
			csvs = append(csvs, entry.Name())
		}
	}
	if len(csvs) == 0 {
		return "", fmt.Errorf("no CSV files in %s: %w", path, rverrors.ErrNoInput)
	}

	sort.Strings(csvs)
	return filepath.Join(path, csvs[0]), nil
}
