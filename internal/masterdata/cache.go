package masterdata

import (
	"context"
	"errors"
	"sync"

	"github.com/ignite/gameplan-importer/internal/domain"
	"github.com/ignite/gameplan-importer/internal/metrics"
	"github.com/ignite/gameplan-importer/internal/refstore"
)

type memoKey struct {
	kind   string
	name   string
	parent string
}

// Cache answers id lookups for one run. Results, including misses, are
// memoized by (kind, name, parent) so repeated rows cost no store calls.
// A Cache must not be shared across runs or sessions.
type Cache struct {
	snap *Snapshot
	repo refstore.ReferenceReader

	mu   sync.Mutex
	memo map[memoKey]string // "" records a known miss
}

// NewCache wraps a snapshot. repo serves lookups the snapshot cannot
// answer, such as PM types or entities created after the snapshot was taken.
func NewCache(snap *Snapshot, repo refstore.ReferenceReader) *Cache {
	return &Cache{snap: snap, repo: repo, memo: make(map[memoKey]string)}
}

// Snapshot returns the snapshot backing the cache.
func (c *Cache) Snapshot() *Snapshot { return c.snap }

// Lookup returns the id of the entity of kind named name, optionally scoped
// by parentID. Media subtype lookups fall back to an unscoped match when the
// scoped one misses. Returns refstore.ErrNotFound when nothing matches.
func (c *Cache) Lookup(ctx context.Context, kind, name, parentID string) (string, error) {
	if Key(name) == "" {
		return "", refstore.ErrNotFound
	}
	id, err := c.lookup(ctx, kind, name, parentID)
	if errors.Is(err, refstore.ErrNotFound) && kind == domain.KindMediaSubtype && parentID != "" {
		return c.lookup(ctx, kind, name, "")
	}
	return id, err
}

func (c *Cache) lookup(ctx context.Context, kind, name, parentID string) (string, error) {
	k := memoKey{kind: kind, name: Key(name), parent: parentID}

	c.mu.Lock()
	id, seen := c.memo[k]
	c.mu.Unlock()
	if seen {
		metrics.RecordLookup(kind, "memo")
		if id == "" {
			return "", refstore.ErrNotFound
		}
		return id, nil
	}

	if id, ok := c.snap.ID(kind, name, parentID); ok {
		metrics.RecordLookup(kind, "snapshot")
		c.remember(k, id)
		return id, nil
	}

	id, err := c.repo.FindID(ctx, kind, Key(name), parentID)
	switch {
	case errors.Is(err, refstore.ErrNotFound):
		metrics.RecordLookup(kind, "miss")
		c.remember(k, "")
		return "", refstore.ErrNotFound
	case err != nil:
		return "", err
	}
	metrics.RecordLookup(kind, "store")
	c.remember(k, id)
	return id, nil
}

// Remember records an entity created during the run so later lookups for the
// same (kind, name, parent) return it without a store call.
func (c *Cache) Remember(kind, name, parentID, id string) {
	c.remember(memoKey{kind: kind, name: Key(name), parent: parentID}, id)
	if parentID != "" {
		// An unscoped lookup may have memoized a miss for this name.
		unscoped := memoKey{kind: kind, name: Key(name)}
		c.mu.Lock()
		if c.memo[unscoped] == "" {
			c.memo[unscoped] = id
		}
		c.mu.Unlock()
	}
}

func (c *Cache) remember(k memoKey, id string) {
	c.mu.Lock()
	c.memo[k] = id
	c.mu.Unlock()
}
