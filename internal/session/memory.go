package session

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/ignite/gameplan-importer/internal/domain"
)

// MemoryStore keeps sessions in process. Used by the CLI and tests.
// Sessions are stored as JSON so callers never share state with the store.
type MemoryStore struct {
	mu   sync.Mutex
	docs map[string][]byte
	now  func() time.Time
}

// NewMemoryStore returns an empty MemoryStore.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{docs: make(map[string][]byte), now: time.Now}
}

func (m *MemoryStore) Create(_ context.Context, s *domain.ImportSession) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.docs[s.SessionID]; ok {
		return ErrExists
	}
	prepare(s, m.now().UTC())
	data, err := json.Marshal(s)
	if err != nil {
		return err
	}
	m.docs[s.SessionID] = data
	recordTransition(string(s.Status))
	return nil
}

func (m *MemoryStore) Get(_ context.Context, id string) (*domain.ImportSession, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.load(id)
}

func (m *MemoryStore) Update(_ context.Context, id string, patch Patch) (*domain.ImportSession, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, err := m.load(id)
	if err != nil {
		return nil, err
	}
	if err := patch.Apply(s, m.now().UTC()); err != nil {
		return nil, err
	}
	data, err := json.Marshal(s)
	if err != nil {
		return nil, err
	}
	m.docs[id] = data
	patch.committed()
	return s, nil
}

func (m *MemoryStore) load(id string) (*domain.ImportSession, error) {
	data, ok := m.docs[id]
	if !ok {
		return nil, ErrNotFound
	}
	var s domain.ImportSession
	if err := json.Unmarshal(data, &s); err != nil {
		return nil, err
	}
	return &s, nil
}

var _ Store = (*MemoryStore)(nil)
