package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/ignite/gameplan-importer/internal/domain"
)

const maxUpdateRetries = 5

// RedisStore keeps each session as a JSON string under "import_session:<id>"
// with a TTL. Updates are optimistic: the key is watched and the write is
// retried when another writer got there first.
type RedisStore struct {
	rdb         *redis.Client
	ttl         time.Duration
	terminalTTL time.Duration
	now         func() time.Time
}

// NewRedisStore returns a RedisStore. Zero TTLs select the defaults.
func NewRedisStore(rdb *redis.Client, ttl, terminalTTL time.Duration) *RedisStore {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	if terminalTTL <= 0 {
		terminalTTL = DefaultTerminalTTL
	}
	return &RedisStore{rdb: rdb, ttl: ttl, terminalTTL: terminalTTL, now: time.Now}
}

func (s *RedisStore) key(id string) string {
	return "import_session:" + id
}

func (s *RedisStore) Create(ctx context.Context, sess *domain.ImportSession) error {
	prepare(sess, s.now().UTC())
	data, err := json.Marshal(sess)
	if err != nil {
		return fmt.Errorf("marshal session: %w", err)
	}
	ok, err := s.rdb.SetNX(ctx, s.key(sess.SessionID), data, s.ttl).Result()
	if err != nil {
		return fmt.Errorf("create session %s: %w", sess.SessionID, err)
	}
	if !ok {
		return ErrExists
	}
	recordTransition(string(sess.Status))
	return nil
}

func (s *RedisStore) Get(ctx context.Context, id string) (*domain.ImportSession, error) {
	return s.get(ctx, s.rdb, id)
}

type getter interface {
	Get(ctx context.Context, key string) *redis.StringCmd
}

func (s *RedisStore) get(ctx context.Context, c getter, id string) (*domain.ImportSession, error) {
	data, err := c.Get(ctx, s.key(id)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get session %s: %w", id, err)
	}
	var sess domain.ImportSession
	if err := json.Unmarshal(data, &sess); err != nil {
		return nil, fmt.Errorf("decode session %s: %w", id, err)
	}
	return &sess, nil
}

func (s *RedisStore) Update(ctx context.Context, id string, patch Patch) (*domain.ImportSession, error) {
	key := s.key(id)
	var out *domain.ImportSession
	txf := func(tx *redis.Tx) error {
		sess, err := s.get(ctx, tx, id)
		if err != nil {
			return err
		}
		if err := patch.Apply(sess, s.now().UTC()); err != nil {
			return err
		}
		data, err := json.Marshal(sess)
		if err != nil {
			return fmt.Errorf("marshal session: %w", err)
		}
		ttl := ttlFor(sess.Status, s.ttl, s.terminalTTL)
		_, err = tx.TxPipelined(ctx, func(p redis.Pipeliner) error {
			p.Set(ctx, key, data, ttl)
			return nil
		})
		out = sess
		return err
	}

	for i := 0; i < maxUpdateRetries; i++ {
		err := s.rdb.Watch(ctx, txf, key)
		if errors.Is(err, redis.TxFailedErr) {
			continue
		}
		if err != nil {
			return nil, err
		}
		patch.committed()
		return out, nil
	}
	return nil, fmt.Errorf("update session %s: too much contention", id)
}

var _ Store = (*RedisStore)(nil)
