package validation

import (
	"context"
	"fmt"
	"time"

	"github.com/ignite/gameplan-importer/internal/domain"
	"github.com/ignite/gameplan-importer/internal/masterdata"
	"github.com/ignite/gameplan-importer/internal/metrics"
	"github.com/ignite/gameplan-importer/internal/pkg/logger"
	"github.com/ignite/gameplan-importer/internal/refstore"
)

const (
	DefaultChunkSize       = 500
	DefaultCrossrefTimeout = 10 * time.Second
)

// Reader is what a validation run needs from the Reference Store.
type Reader interface {
	refstore.ReferenceReader
	refstore.GamePlanStore
}

// Pipeline validates uploaded rows for any template.
type Pipeline struct {
	ChunkSize       int
	CrossrefTimeout time.Duration
}

// NewPipeline returns a Pipeline, substituting defaults for zero values.
func NewPipeline(chunkSize int, crossrefTimeout time.Duration) *Pipeline {
	if chunkSize <= 0 {
		chunkSize = DefaultChunkSize
	}
	if crossrefTimeout <= 0 {
		crossrefTimeout = DefaultCrossrefTimeout
	}
	return &Pipeline{ChunkSize: chunkSize, CrossrefTimeout: crossrefTimeout}
}

// Result is the outcome of one validation run.
type Result struct {
	Issues  []domain.ValidationIssue
	Summary domain.ValidationSummary
}

// Run loads a master data snapshot from store and validates records against
// it, followed by the game plan cross-check when tmpl asks for one. Rows are
// processed in chunks and ctx is checked between chunks. Errors are fatal to
// the run; row problems come back as issues.
func (p *Pipeline) Run(ctx context.Context, store Reader, tmpl *Template, records []domain.Record, countryID, cycleID string) (*Result, error) {
	started := time.Now()

	snap, err := masterdata.Load(ctx, store)
	if err != nil {
		return nil, fmt.Errorf("load master data: %w", err)
	}

	var issues []domain.ValidationIssue
	for lo := 0; lo < len(records); lo += p.ChunkSize {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		hi := min(lo+p.ChunkSize, len(records))
		for i := lo; i < hi; i++ {
			issues = append(issues, ValidateRecord(records[i], i, snap, tmpl)...)
		}
	}

	cross, err := ValidateAgainstGamePlans(ctx, store, records, countryID, cycleID, tmpl, p.CrossrefTimeout)
	if err != nil {
		return nil, fmt.Errorf("cross-reference: %w", err)
	}
	issues = append(issues, cross...)

	for _, is := range issues {
		metrics.RecordIssue(tmpl.Name, string(is.Severity))
	}
	metrics.ObserveValidation(tmpl.Name, time.Since(started))

	res := &Result{Issues: issues, Summary: domain.Summarize(issues)}
	logger.Info("validation: run complete",
		"template", tmpl.Name, "rows", len(records),
		"critical", res.Summary.Critical, "warning", res.Summary.Warning, "suggestion", res.Summary.Suggestion,
		"duration_ms", time.Since(started).Milliseconds())
	return res, nil
}
