package pipeline

import (
	"context"
	"errors"
	"log/slog"

	"github.com/couchcryptid/coral-bleaching-map/internal/domain"
)

// CoralTransformer implements Transformer using the domain classification
// functions.
type CoralTransformer struct {
	logger *slog.Logger
}

// NewTransformer creates a CoralTransformer.
func NewTransformer(logger *slog.Logger) *CoralTransformer {
	return &CoralTransformer{logger: logger}
}

// Transform drops the header, sorts the rows by severity and classifies each
// one. Short rows are kept; their missing fields classify as defaults.
func (t *CoralTransformer) Transform(ctx context.Context, records [][]string) (Result, error) {
	if err := ctx.Err(); err != nil {
		return Result{}, err
	}
	if len(records) == 0 {
		return Result{}, errors.New("survey has no header row")
	}

	rows := domain.RowsFromRecords(records)
	short := 0
	for _, r := range rows {
		if len(r) < domain.MinColumns {
			short++
		}
	}
	if short > 0 {
		t.logger.Warn("rows shorter than expected", "count", short, "min_columns", domain.MinColumns)
	}

	markers, skipped := domain.BuildMarkers(rows)
	return Result{Rows: len(rows), Skipped: skipped, Markers: markers}, nil
}
