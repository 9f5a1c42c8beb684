package main

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"

	_ "github.com/lib/pq" // PostgreSQL driver

	"github.com/ignite/gameplan-importer/internal/domain"
	"github.com/ignite/gameplan-importer/internal/refstore"
	"github.com/ignite/gameplan-importer/internal/repository/postgres"
	"github.com/ignite/gameplan-importer/internal/rowsource"
	"github.com/ignite/gameplan-importer/internal/validation"
)

// workload is everything a command needs to run one workbook.
type workload struct {
	tmpl    *validation.Template
	records []domain.Record
	opener  refstore.Opener
	memory  *refstore.Memory // set on seed dry runs
	close   func()
}

func (f *sourceFlags) load(ctx context.Context) (*workload, error) {
	setLogLevel(f.logLevel)

	tmpl, err := validation.LookupTemplate(f.template)
	if err != nil {
		return nil, err
	}

	src, closer, err := rowsource.Open(f.file, f.sheet)
	if err != nil {
		return nil, err
	}
	records, err := src.Records()
	closer.Close()
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", f.file, err)
	}
	if len(records) == 0 {
		return nil, fmt.Errorf("%s has no data rows", f.file)
	}

	w := &workload{tmpl: tmpl, records: records, close: func() {}}
	switch {
	case f.seed != "":
		fh, err := os.Open(f.seed)
		if err != nil {
			return nil, err
		}
		defer fh.Close()
		mem, err := refstore.LoadMemory(fh)
		if err != nil {
			return nil, err
		}
		w.opener, w.memory = mem, mem
	case f.databaseURL != "":
		db, err := sql.Open("postgres", f.databaseURL)
		if err != nil {
			return nil, err
		}
		if err := db.PingContext(ctx); err != nil {
			db.Close()
			return nil, fmt.Errorf("connect reference store: %w", err)
		}
		w.opener = postgres.NewOpener(db)
		w.close = func() { db.Close() }
	default:
		return nil, errors.New("one of --database-url or --seed is required")
	}
	return w, nil
}

// validate runs the validation pipeline on one reserved store.
func (w *workload) validate(ctx context.Context, p *validation.Pipeline, countryID, cycleID string) (*validation.Result, error) {
	store, release, err := w.opener.Open(ctx)
	if err != nil {
		return nil, err
	}
	defer release()
	return p.Run(ctx, store, w.tmpl, w.records, countryID, cycleID)
}
