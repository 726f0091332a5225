// Package csvfile reads the coral survey from a CSV file on disk.
package csvfile

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"os"
)

// Reader extracts raw survey records from a CSV file. Rows may have any
// number of fields; short rows are classified downstream.
type Reader struct {
	path string
}

// NewReader creates a Reader for the file at path.
func NewReader(path string) *Reader {
	return &Reader{path: path}
}

// Path returns the file the reader extracts from.
func (r *Reader) Path() string { return r.path }

// ExtractRecords reads every record in the file, header included.
func (r *Reader) ExtractRecords(ctx context.Context) ([][]string, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	f, err := os.Open(r.path)
	if err != nil {
		return nil, fmt.Errorf("open survey: %w", err)
	}
	defer f.Close() //nolint:errcheck // read-only file

	records, err := ReadRecords(f)
	if err != nil {
		return nil, fmt.Errorf("read survey %s: %w", r.path, err)
	}
	return records, nil
}

// ReadRecords parses all CSV records from src.
func ReadRecords(src io.Reader) ([][]string, error) {
	cr := csv.NewReader(src)
	cr.FieldsPerRecord = -1
	cr.LazyQuotes = true
	return cr.ReadAll()
}
