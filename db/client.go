package db

import (
	"context"
	"errors"
	"fmt"

	"notehero/config"
	"notehero/models"
)

var ErrRunNotFound = errors.New("db: run not found")

// DBClient stores finished game runs.
type DBClient interface {
	Close() error
	SaveRuns(ctx context.Context, runs ...models.RunRecord) error
	GetRun(ctx context.Context, id string) (models.RunRecord, bool, error)
	ListRuns(ctx context.Context, filter RunFilter) ([]models.RunRecord, error)
	TotalRuns(ctx context.Context) (int, error)
	DeleteRun(ctx context.Context, id string) error
}

// RunFilter selects runs; empty fields match everything. Results are
// ordered by score, best first.
type RunFilter struct {
	Song   string
	Player string
	Limit  int
}

const defaultListLimit = 50

func (f RunFilter) limit() int {
	if f.Limit <= 0 {
		return defaultListLimit
	}
	return f.Limit
}

func NewDBClient(cfg config.Database) (DBClient, error) {
	switch cfg.Driver {
	case "", "memory":
		return NewMemoryClient(), nil
	case "postgres":
		return NewPostgresClient(cfg.DSN())
	default:
		return nil, fmt.Errorf("unsupported database driver %q", cfg.Driver)
	}
}
