package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"sync"

	"github.com/ignite/gameplan-importer/internal/pkg/logger"
	"github.com/ignite/gameplan-importer/internal/refstore"
)

// querier is satisfied by *sql.DB and *sql.Conn.
type querier interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

type noopLocker struct{}

func (noopLocker) Lock()   {}
func (noopLocker) Unlock() {}

// Store implements refstore.Store against PostgreSQL.
type Store struct {
	q  querier
	mu sync.Locker
}

// NewStore returns a Store that draws connections from the pool.
func NewStore(db *sql.DB) *Store {
	return &Store{q: db, mu: noopLocker{}}
}

// Opener hands out stores bound to one dedicated connection each.
type Opener struct {
	db *sql.DB
}

// NewOpener returns an Opener over db.
func NewOpener(db *sql.DB) *Opener { return &Opener{db: db} }

// Open reserves a connection for one unit of work. A single connection
// carries one statement at a time, so the store serializes its queries.
func (o *Opener) Open(ctx context.Context) (refstore.Store, func(), error) {
	conn, err := o.db.Conn(ctx)
	if err != nil {
		return nil, nil, fmt.Errorf("reserve connection: %w", err)
	}
	release := func() {
		if err := conn.Close(); err != nil {
			logger.Warn("postgres: release connection failed", "error", err)
		}
	}
	return &Store{q: conn, mu: &sync.Mutex{}}, release, nil
}

var (
	_ refstore.Store  = (*Store)(nil)
	_ refstore.Opener = (*Opener)(nil)
)
