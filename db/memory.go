package db

import (
	"context"
	"sort"
	"sync"

	"github.com/google/uuid"

	"notehero/models"
)

// MemoryClient keeps runs for the life of the process.
type MemoryClient struct {
	mu   sync.RWMutex
	runs map[string]models.RunRecord
}

func NewMemoryClient() *MemoryClient {
	return &MemoryClient{runs: make(map[string]models.RunRecord)}
}

func (c *MemoryClient) Close() error { return nil }

func (c *MemoryClient) SaveRuns(_ context.Context, runs ...models.RunRecord) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, r := range runs {
		if r.ID == "" {
			r.ID = uuid.NewString()
		}
		if _, exists := c.runs[r.ID]; !exists {
			c.runs[r.ID] = r
		}
	}
	return nil
}

func (c *MemoryClient) GetRun(_ context.Context, id string) (models.RunRecord, bool, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	r, ok := c.runs[id]
	return r, ok, nil
}

func (c *MemoryClient) ListRuns(_ context.Context, f RunFilter) ([]models.RunRecord, error) {
	c.mu.RLock()
	var runs []models.RunRecord
	for _, r := range c.runs {
		if (f.Song == "" || r.Song == f.Song) && (f.Player == "" || r.Player == f.Player) {
			runs = append(runs, r)
		}
	}
	c.mu.RUnlock()

	sort.Slice(runs, func(i, j int) bool {
		if runs[i].Score != runs[j].Score {
			return runs[i].Score > runs[j].Score
		}
		return runs[i].FinishedAt.Before(runs[j].FinishedAt)
	})
	if len(runs) > f.limit() {
		runs = runs[:f.limit()]
	}
	return runs, nil
}

func (c *MemoryClient) TotalRuns(context.Context) (int, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.runs), nil
}

func (c *MemoryClient) DeleteRun(_ context.Context, id string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if _, ok := c.runs[id]; !ok {
		return ErrRunNotFound
	}
	delete(c.runs, id)
	return nil
}
