package training

import (
	"context"
	"sort"
	"strings"
	"sync"

	"github.com/park285/Cheese-opening-trainer/internal/domain"
)

// memrepo is a development-only in-memory repository used when no DB is configured.
type memrepo struct {
	mu sync.RWMutex

	nextID int64

	runsByID   map[int64]*domain.TrainingRun
	runsByUser map[string][]*domain.TrainingRun // playerHash -> runs, latest last
	runsByUUID map[string]*domain.TrainingRun
}

func NewMemoryRepository() Repository {
	return &memrepo{
		runsByID:   make(map[int64]*domain.TrainingRun),
		runsByUser: make(map[string][]*domain.TrainingRun),
		runsByUUID: make(map[string]*domain.TrainingRun),
	}
}

func (m *memrepo) InsertRun(ctx context.Context, run *domain.TrainingRun) (int64, error) {
	if run == nil {
		return 0, ErrDuplicateRun
	}
	key := strings.TrimSpace(run.RunUUID)

	m.mu.Lock()
	defer m.mu.Unlock()

	if _, exists := m.runsByUUID[key]; exists {
		return 0, ErrDuplicateRun
	}

	m.nextID++
	cp := cloneRun(run)
	cp.ID = m.nextID

	m.runsByID[cp.ID] = cp
	m.runsByUUID[key] = cp
	m.runsByUser[run.PlayerHash] = append(m.runsByUser[run.PlayerHash], cp)
	return cp.ID, nil
}

func (m *memrepo) GetRecentRuns(ctx context.Context, playerHash string, limit int) ([]*domain.TrainingRun, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	list := m.runsByUser[playerHash]
	items := make([]*domain.TrainingRun, 0, len(list))
	for _, r := range list {
		items = append(items, cloneRun(r))
	}
	sort.Slice(items, func(i, j int) bool {
		if !items[i].EndedAt.Equal(items[j].EndedAt) {
			return items[i].EndedAt.After(items[j].EndedAt)
		}
		return items[i].ID > items[j].ID
	})
	if limit > 0 && len(items) > limit {
		items = items[:limit]
	}
	return items, nil
}

func (m *memrepo) GetRun(ctx context.Context, id int64, playerHash string) (*domain.TrainingRun, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	r, ok := m.runsByID[id]
	if !ok || r.PlayerHash != playerHash {
		return nil, nil
	}
	return cloneRun(r), nil
}

func cloneRun(r *domain.TrainingRun) *domain.TrainingRun {
	cp := *r
	cp.LastLine = append([]string(nil), r.LastLine...)
	return &cp
}
