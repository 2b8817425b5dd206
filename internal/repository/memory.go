package repository

import (
	"context"
	"sort"
	"sync"

	"github.com/ruitoque/fronteras/internal/models"
)

// MemoryRunRepository keeps run history in process, for runs without a
// database.
type MemoryRunRepository struct {
	mu   sync.RWMutex
	runs []models.Run
}

func NewMemoryRunRepository() *MemoryRunRepository {
	return &MemoryRunRepository{}
}

func (m *MemoryRunRepository) Record(ctx context.Context, run *models.Run) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.runs = append(m.runs, *run)
	return nil
}

func (m *MemoryRunRepository) Latest(ctx context.Context, limit int) ([]models.Run, error) {
	return m.filter("", limit), nil
}

func (m *MemoryRunRepository) LatestByPeriod(ctx context.Context, period string, limit int) ([]models.Run, error) {
	return m.filter(period, limit), nil
}

func (m *MemoryRunRepository) filter(period string, limit int) []models.Run {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]models.Run, 0, len(m.runs))
	for _, r := range m.runs {
		if period == "" || r.Period == period {
			out = append(out, r)
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].StartedAt.After(out[j].StartedAt) })
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out
}
