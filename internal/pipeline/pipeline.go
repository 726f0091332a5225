package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/couchcryptid/coral-bleaching-map/internal/domain"
	"github.com/couchcryptid/coral-bleaching-map/internal/observability"
)

// RecordExtractor reads every raw record from the survey source, header included.
type RecordExtractor interface {
	ExtractRecords(ctx context.Context) ([][]string, error)
}

// Transformer converts raw records into classified markers.
type Transformer interface {
	Transform(ctx context.Context, records [][]string) (Result, error)
}

// MarkerLoader writes a complete marker set to a destination.
type MarkerLoader interface {
	LoadBatch(ctx context.Context, markers []domain.Marker) error
}

// Result is the outcome of classifying one survey file.
type Result struct {
	Rows    int
	Skipped int
	Markers []domain.Marker
}

// Pipeline orchestrates the extract-classify-load run.
type Pipeline struct {
	extractor   RecordExtractor
	transformer Transformer
	loaders     []MarkerLoader
	logger      *slog.Logger
	metrics     *observability.Metrics
	ready       atomic.Bool
}

// New creates a Pipeline with the given stages and observability. Markers are
// loaded into every loader in order.
func New(e RecordExtractor, t Transformer, logger *slog.Logger, metrics *observability.Metrics, loaders ...MarkerLoader) *Pipeline {
	return &Pipeline{
		extractor:   e,
		transformer: t,
		loaders:     loaders,
		logger:      logger,
		metrics:     metrics,
	}
}

// CheckReadiness returns nil once markers have been loaded into every sink.
func (p *Pipeline) CheckReadiness(_ context.Context) error {
	if !p.ready.Load() {
		return errors.New("markers have not been loaded yet")
	}
	return nil
}

// Run loads the survey once, retrying failed attempts until it succeeds or
// the context is cancelled.
func (p *Pipeline) Run(ctx context.Context) error {
	p.logger.Info("pipeline started", "loaders", len(p.loaders))
	p.metrics.PipelineRunning.Set(1)
	defer p.metrics.PipelineRunning.Set(0)

	// Exponential backoff: start at 200ms, double each retry, cap at 5s.
	backoff := 200 * time.Millisecond
	maxBackoff := 5 * time.Second

	for {
		if ctx.Err() != nil {
			p.logger.Info("pipeline stopping", "reason", ctx.Err())
			return nil
		}

		err := p.runOnce(ctx)
		if err == nil {
			return nil
		}
		if ctx.Err() != nil {
			return nil
		}
		p.logger.Error("marker load failed", "error", err, "retry_in", backoff)
		if !sleepWithContext(ctx, backoff) {
			return nil
		}
		backoff = nextBackoff(backoff, maxBackoff)
	}
}

// runOnce runs one extract-classify-load cycle.
func (p *Pipeline) runOnce(ctx context.Context) error {
	start := time.Now()

	records, err := p.extractor.ExtractRecords(ctx)
	if err != nil {
		return fmt.Errorf("extract records: %w", err)
	}

	res, err := p.transformer.Transform(ctx, records)
	if err != nil {
		return fmt.Errorf("classify rows: %w", err)
	}

	for i, l := range p.loaders {
		if err := l.LoadBatch(ctx, res.Markers); err != nil {
			return fmt.Errorf("load markers into sink %d: %w", i, err)
		}
	}

	p.metrics.RowsRead.Add(float64(res.Rows))
	p.metrics.RowsSkipped.Add(float64(res.Skipped))
	p.metrics.MarkersEmitted.Add(float64(len(res.Markers)))
	p.metrics.LoadDuration.Observe(time.Since(start).Seconds())
	p.ready.Store(true)

	p.logger.Info("markers loaded",
		"rows", res.Rows,
		"skipped", res.Skipped,
		"markers", len(res.Markers),
		"duration", time.Since(start),
	)
	return nil
}

func nextBackoff(current, maxBackoff time.Duration) time.Duration {
	next := current * 2
	if next > maxBackoff {
		return maxBackoff
	}
	return next
}

func sleepWithContext(ctx context.Context, d time.Duration) bool {
	if d <= 0 {
		return true
	}

	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return false
	case <-timer.C:
		return true
	}
}
