package training

import (
	"context"
	"sort"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/park285/Cheese-opening-trainer/internal/domain"
	"github.com/park285/Cheese-opening-trainer/internal/repertoire"
)

// memstore is used when neither Redis nor a bolt file is configured.
type memstore struct {
	mu     sync.RWMutex
	items  map[string]map[string][]byte // owner -> name -> stored
	logger *zap.Logger
}

func NewMemoryStore(logger *zap.Logger) RepertoireStore {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &memstore{items: make(map[string]map[string][]byte), logger: logger}
}

func (m *memstore) Create(ctx context.Context, owner, name string, rep *repertoire.Repertoire) error {
	raw, err := encodeStored(name, rep, time.Now())
	if err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	byName := m.owner(owner)
	if _, ok := byName[normalizeName(name)]; ok {
		return ErrRepertoireExists
	}
	byName[normalizeName(name)] = raw
	return nil
}

func (m *memstore) Save(ctx context.Context, owner, name string, rep *repertoire.Repertoire) error {
	raw, err := encodeStored(name, rep, time.Now())
	if err != nil {
		return err
	}
	m.mu.Lock()
	m.owner(owner)[normalizeName(name)] = raw
	m.mu.Unlock()
	return nil
}

func (m *memstore) Load(ctx context.Context, owner, name string) (*repertoire.Repertoire, error) {
	m.mu.RLock()
	raw, ok := m.items[owner][normalizeName(name)]
	m.mu.RUnlock()
	if !ok {
		return nil, ErrRepertoireNotFound
	}
	return decodeStored(raw, m.logger)
}

func (m *memstore) Delete(ctx context.Context, owner, name string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.items[owner][normalizeName(name)]; !ok {
		return ErrRepertoireNotFound
	}
	delete(m.items[owner], normalizeName(name))
	return nil
}

func (m *memstore) List(ctx context.Context, owner string) ([]domain.RepertoireInfo, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]domain.RepertoireInfo, 0, len(m.items[owner]))
	for _, raw := range m.items[owner] {
		info, err := infoFromStored(raw)
		if err != nil {
			return nil, err
		}
		out = append(out, info)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (m *memstore) Update(ctx context.Context, owner, name string, fn func(*repertoire.Repertoire) error) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	raw, ok := m.items[owner][normalizeName(name)]
	if !ok {
		return ErrRepertoireNotFound
	}
	rep, err := decodeStored(raw, m.logger)
	if err != nil {
		return err
	}
	if err := fn(rep); err != nil {
		return err
	}
	next, err := encodeStored(name, rep, time.Now())
	if err != nil {
		return err
	}
	m.items[owner][normalizeName(name)] = next
	return nil
}

func (m *memstore) Close() error { return nil }

func (m *memstore) owner(owner string) map[string][]byte {
	byName, ok := m.items[owner]
	if !ok {
		byName = make(map[string][]byte)
		m.items[owner] = byName
	}
	return byName
}
