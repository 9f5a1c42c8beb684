// Package importer is the two-phase import engine. Phase 1 resolves or
// creates the reference entities every row points at; phase 2 upserts the
// dependent Game Plan or Sufficiency record of each row by its natural key.
//
// Row failures are collected and never abort the batch. Only context
// cancellation and master data load failures end a run early.
package importer

import (
	"context"
	"fmt"
	"time"

	"github.com/ignite/gameplan-importer/internal/domain"
	"github.com/ignite/gameplan-importer/internal/masterdata"
	"github.com/ignite/gameplan-importer/internal/metrics"
	"github.com/ignite/gameplan-importer/internal/pkg/logger"
	"github.com/ignite/gameplan-importer/internal/refstore"
	"github.com/ignite/gameplan-importer/internal/validation"
)

// DefaultProgressEvery is how many rows pass between progress reports.
const DefaultProgressEvery = 10

// ProgressFunc receives progress snapshots. Percentages never decrease.
type ProgressFunc func(domain.ImportProgress)

// Request describes one import run.
type Request struct {
	Template  *validation.Template
	Records   []domain.Record
	CountryID string
	CycleID   string
}

// Result is the import outcome contract polled by clients.
type Result struct {
	Processed      int                  `json:"processed"`
	Successful     int                  `json:"successful"`
	Failed         int                  `json:"failed"`
	SuccessfulRows []int                `json:"successfulRows"`
	FailedRows     []int                `json:"failedRows"`
	Errors         []domain.ImportError `json:"errors"`
	ErrorsByType   map[string]int       `json:"errorsByType"`
	Results        domain.ImportResults `json:"results"`
}

// Engine runs imports.
type Engine struct {
	ProgressEvery int
}

// NewEngine returns an Engine reporting progress every progressEvery rows.
func NewEngine(progressEvery int) *Engine {
	if progressEvery <= 0 {
		progressEvery = DefaultProgressEvery
	}
	return &Engine{ProgressEvery: progressEvery}
}

// Run imports req.Records into store. Rows are processed sequentially in
// input order. The returned error is fatal to the run; row failures are
// reported in the Result.
func (e *Engine) Run(ctx context.Context, store refstore.Store, req Request, progress ProgressFunc) (*Result, error) {
	started := time.Now()
	total := len(req.Records)
	tmpl := req.Template
	rep := &reporter{fn: progress, total: total, every: e.ProgressEvery}

	snap, err := masterdata.Load(ctx, store)
	if err != nil {
		return nil, fmt.Errorf("load master data: %w", err)
	}

	resolver := NewResolver(store, snap, tmpl)
	refs := make([]Refs, total)
	resolveErrs := make([]error, total)
	rep.report(0, 0, domain.StageResolving, true)
	for i, row := range req.Records {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		refs[i], resolveErrs[i] = resolver.Resolve(ctx, row)
		rep.report(0, i+1, domain.StageResolving, i+1 == total)
	}
	logger.Info("importer: entities resolved", "template", tmpl.Name, "rows", total,
		"ranges_created", resolver.Counts().RangesCount, "campaigns_created", resolver.Counts().CampaignsCount)

	res := &Result{
		SuccessfulRows: []int{},
		FailedRows:     []int{},
		Errors:         []domain.ImportError{},
		ErrorsByType:   map[string]int{},
	}
	com := newCommitter(store, tmpl, req.CountryID, req.CycleID)
	for i, row := range req.Records {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		err := resolveErrs[i]
		if err == nil {
			err = com.commit(ctx, row, refs[i])
		}
		res.Processed++
		if err != nil {
			res.fail(i, row, err)
			metrics.RecordImportRow(tmpl.Name, false)
		} else {
			res.Successful++
			res.SuccessfulRows = append(res.SuccessfulRows, i)
			metrics.RecordImportRow(tmpl.Name, true)
		}
		rep.report(50, i+1, domain.StageCommit, i+1 == total)
	}

	res.Results = resolver.Counts()
	com.counts(&res.Results)
	res.Results.SuccessfulRows = res.SuccessfulRows
	res.Results.FailedRows = res.FailedRows

	logger.Info("importer: run complete", "template", tmpl.Name, "processed", res.Processed,
		"successful", res.Successful, "failed", res.Failed, "duration_ms", time.Since(started).Milliseconds())
	return res, nil
}

func (r *Result) fail(index int, row domain.Record, err error) {
	kind := errorType(err)
	r.Failed++
	r.FailedRows = append(r.FailedRows, index)
	r.ErrorsByType[kind]++
	r.Errors = append(r.Errors, domain.ImportError{
		Index:        index,
		Error:        err.Error(),
		Type:         kind,
		Campaign:     value(row, validation.ColCampaign),
		MediaSubtype: value(row, validation.ColMediaSubtype),
	})
	logger.Debug("importer: row failed", "index", index, "type", kind, "error", err)
}

// reporter throttles progress callbacks and keeps percentages monotonic.
// Phase 1 covers 0-50%, phase 2 covers 50-100%.
type reporter struct {
	fn    ProgressFunc
	total int
	every int
	last  int
}

func (r *reporter) report(offset, done int, stage string, force bool) {
	if r.fn == nil {
		return
	}
	if !force && done%r.every != 0 {
		return
	}
	pct := offset + 50
	if r.total > 0 {
		pct = offset + done*50/r.total
	}
	if pct < r.last {
		pct = r.last
	}
	r.last = pct
	r.fn(domain.ImportProgress{Current: done, Total: r.total, Percentage: pct, Stage: stage})
}
