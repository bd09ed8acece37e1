package db

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/google/uuid"
	_ "github.com/jackc/pgx/v5/stdlib"

	"notehero/models"
	"notehero/utils"
)

type PostgresClient struct {
	db *sql.DB
}

func NewPostgresClient(dsn string) (*PostgresClient, error) {
	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return nil, fmt.Errorf("error opening postgres connection: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("error connecting to postgres: %w", err)
	}

	if err := createPostgresTables(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("error creating tables: %w", err)
	}

	utils.GetLogger().Debug("postgres client ready")
	return &PostgresClient{db: db}, nil
}

func (c *PostgresClient) Close() error {
	return c.db.Close()
}

func createPostgresTables(db *sql.DB) error {
	createRunsTable := `
    CREATE TABLE IF NOT EXISTS runs (
        id UUID PRIMARY KEY,
        song TEXT NOT NULL,
        player TEXT NOT NULL,
        score INTEGER NOT NULL,
        "maxCombo" INTEGER NOT NULL,
        hits INTEGER NOT NULL,
        misses INTEGER NOT NULL,
        notes INTEGER NOT NULL,
        outcome TEXT NOT NULL,
        "finishedAt" TIMESTAMPTZ NOT NULL
    );

    CREATE INDEX IF NOT EXISTS idx_runs_song_score ON runs (song, score DESC);
    `

	if _, err := db.Exec(createRunsTable); err != nil {
		return fmt.Errorf("creating runs table: %w", err)
	}
	return nil
}

const runColumns = `id, song, player, score, "maxCombo", hits, misses, notes, outcome, "finishedAt"`

// SaveRuns inserts runs in batches inside one transaction. Runs without an id get one.
func (c *PostgresClient) SaveRuns(ctx context.Context, runs ...models.RunRecord) error {
	if len(runs) == 0 {
		return nil
	}

	const batchSize = 1000

	tx, err := c.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	for start := 0; start < len(runs); start += batchSize {
		batch := runs[start:min(start+batchSize, len(runs))]

		valueStrings := make([]string, 0, len(batch))
		valueArgs := make([]any, 0, len(batch)*10)
		for i, r := range batch {
			if r.ID == "" {
				r.ID = uuid.NewString()
			}
			p := i * 10
			valueStrings = append(valueStrings, fmt.Sprintf("($%d, $%d, $%d, $%d, $%d, $%d, $%d, $%d, $%d, $%d)",
				p+1, p+2, p+3, p+4, p+5, p+6, p+7, p+8, p+9, p+10))
			valueArgs = append(valueArgs, r.ID, r.Song, r.Player, r.Score, r.MaxCombo, r.Hits, r.Misses, r.Notes, r.Outcome, r.FinishedAt)
		}

		insertQuery := fmt.Sprintf(`INSERT INTO runs (%s) VALUES %s ON CONFLICT (id) DO NOTHING`,
			runColumns, strings.Join(valueStrings, ","))
		if _, err := tx.ExecContext(ctx, insertQuery, valueArgs...); err != nil {
			return fmt.Errorf("failed to insert runs: %w", err)
		}
	}

	return tx.Commit()
}

func scanRun(row interface{ Scan(...any) error }) (models.RunRecord, error) {
	var r models.RunRecord
	err := row.Scan(&r.ID, &r.Song, &r.Player, &r.Score, &r.MaxCombo, &r.Hits, &r.Misses, &r.Notes, &r.Outcome, &r.FinishedAt)
	return r, err
}

func (c *PostgresClient) GetRun(ctx context.Context, id string) (models.RunRecord, bool, error) {
	if _, err := uuid.Parse(id); err != nil {
		return models.RunRecord{}, false, nil
	}

	query := fmt.Sprintf(`SELECT %s FROM runs WHERE id = $1`, runColumns)
	r, err := scanRun(c.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return models.RunRecord{}, false, nil
		}
		return models.RunRecord{}, false, err
	}
	return r, true, nil
}

func (c *PostgresClient) ListRuns(ctx context.Context, f RunFilter) ([]models.RunRecord, error) {
	var where []string
	var args []any
	if f.Song != "" {
		args = append(args, f.Song)
		where = append(where, fmt.Sprintf("song = $%d", len(args)))
	}
	if f.Player != "" {
		args = append(args, f.Player)
		where = append(where, fmt.Sprintf("player = $%d", len(args)))
	}
	args = append(args, f.limit())

	query := fmt.Sprintf(`SELECT %s FROM runs`, runColumns)
	if len(where) > 0 {
		query += " WHERE " + strings.Join(where, " AND ")
	}
	query += fmt.Sprintf(` ORDER BY score DESC, "finishedAt" ASC LIMIT $%d`, len(args))

	rows, err := c.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var runs []models.RunRecord
	for rows.Next() {
		r, err := scanRun(rows)
		if err != nil {
			return nil, err
		}
		runs = append(runs, r)
	}
	if err := rows.Err(); err != nil {
		utils.GetLogger().Error("listing runs", slog.Any("error", err))
		return nil, err
	}
	return runs, nil
}

func (c *PostgresClient) TotalRuns(ctx context.Context) (int, error) {
	var count int
	err := c.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM runs`).Scan(&count)
	return count, err
}

func (c *PostgresClient) DeleteRun(ctx context.Context, id string) error {
	if _, err := uuid.Parse(id); err != nil {
		return ErrRunNotFound
	}
	res, err := c.db.ExecContext(ctx, `DELETE FROM runs WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return ErrRunNotFound
	}
	return nil
}
