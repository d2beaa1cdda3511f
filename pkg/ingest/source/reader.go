// Package source reads raw review records from CSV exports. It is tolerant
// of the files produced by the scraping and enrichment stages: headers are
// matched case-insensitively, a UTF-8 byte order mark is stripped, and rows
// with missing trailing columns are still returned.
package source

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strings"

	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"
)

// RawRecord is a single CSV row keyed by its normalized header names.
// Header names are lowercased and trimmed; values are kept as-is.
type RawRecord struct {
	// Line is the 1-based line number in the source file, for diagnostics.
	Line   int
	Fields map[string]string
}

// Get returns the value for a normalized header name, or "" when absent.
func (r RawRecord) Get(key string) string {
	return r.Fields[key]
}

// Reader decodes review CSV files into raw records.
type Reader struct{}

// NewReader creates a CSV reader.
func NewReader() *Reader {
	return &Reader{}
}

// ReadFile reads every record from the CSV file at path.
func (rd *Reader) ReadFile(path string) ([]RawRecord, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open %s: %w", path, err)
	}
	defer f.Close()

	records, err := rd.Read(f)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", path, err)
	}
	return records, nil
}

// Read decodes CSV records from r. The first row is treated as the header.
func (rd *Reader) Read(r io.Reader) ([]RawRecord, error) {
	// Strip a UTF-8 BOM if the export carries one. Excel and some scraping
	// tools prepend it and encoding/csv would fold it into the first header.
	decoded := transform.NewReader(r, unicode.BOMOverride(unicode.UTF8.NewDecoder()))

	cr := csv.NewReader(decoded)
	cr.FieldsPerRecord = -1
	cr.LazyQuotes = true

	header, err := cr.Read()
	if err == io.EOF {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read header: %w", err)
	}
	for i, h := range header {
		header[i] = strings.ToLower(strings.TrimSpace(h))
	}

	var records []RawRecord
	line := 1
	for {
		row, err := cr.Read()
		if err == io.EOF {
			break
		}
		line++
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", line, err)
		}

		fields := make(map[string]string, len(header))
		for i, h := range header {
			if h == "" {
				continue
			}
			if i < len(row) {
				fields[h] = row[i]
			}
		}
		records = append(records, RawRecord{Line: line, Fields: fields})
	}

	return records, nil
}
