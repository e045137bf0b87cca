package training

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	_ "github.com/lib/pq"

	"github.com/park285/Cheese-opening-trainer/internal/domain"
)

var ErrDuplicateRun = errors.New("training run already exists")

// Schema creates the training_runs table.
const Schema = `
CREATE TABLE IF NOT EXISTS training_runs (
	id            BIGSERIAL PRIMARY KEY,
	run_uuid      TEXT NOT NULL UNIQUE,
	player_hash   TEXT NOT NULL,
	room_hash     TEXT NOT NULL,
	repertoire    TEXT NOT NULL,
	color         TEXT NOT NULL,
	mode          TEXT NOT NULL,
	method        TEXT NOT NULL,
	result        TEXT NOT NULL,
	variations    INTEGER NOT NULL DEFAULT 0,
	perfect       INTEGER NOT NULL DEFAULT 0,
	guessed       INTEGER NOT NULL DEFAULT 0,
	correct       INTEGER NOT NULL DEFAULT 0,
	hints         INTEGER NOT NULL DEFAULT 0,
	last_line     JSONB NOT NULL DEFAULT '[]'::jsonb,
	started_at    TIMESTAMPTZ NOT NULL,
	ended_at      TIMESTAMPTZ NOT NULL,
	duration_ms   BIGINT
);
CREATE INDEX IF NOT EXISTS training_runs_player_idx ON training_runs (player_hash, ended_at DESC);`

type Repository interface {
	InsertRun(ctx context.Context, run *domain.TrainingRun) (int64, error)
	GetRecentRuns(ctx context.Context, playerHash string, limit int) ([]*domain.TrainingRun, error)
	GetRun(ctx context.Context, id int64, playerHash string) (*domain.TrainingRun, error)
}

type repository struct {
	db *sql.DB
}

func NewRepository(db *sql.DB) Repository {
	return &repository{db: db}
}

// OpenRepository connects to Postgres and makes sure the schema exists.
func OpenRepository(ctx context.Context, databaseURL string) (Repository, *sql.DB, error) {
	if strings.TrimSpace(databaseURL) == "" {
		return nil, nil, fmt.Errorf("DATABASE_URL is required")
	}
	db, err := sql.Open("postgres", databaseURL)
	if err != nil {
		return nil, nil, err
	}
	db.SetMaxOpenConns(16)
	db.SetMaxIdleConns(8)
	db.SetConnMaxLifetime(30 * time.Minute)

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		db.Close()
		return nil, nil, fmt.Errorf("ping database: %w", err)
	}
	if _, err := db.ExecContext(ctx, Schema); err != nil {
		db.Close()
		return nil, nil, fmt.Errorf("apply training schema: %w", err)
	}
	return NewRepository(db), db, nil
}

const runColumns = `
			id,
			run_uuid,
			player_hash,
			room_hash,
			repertoire,
			color,
			mode,
			method,
			result,
			variations,
			perfect,
			guessed,
			correct,
			hints,
			last_line,
			started_at,
			ended_at,
			duration_ms`

func (r *repository) InsertRun(ctx context.Context, run *domain.TrainingRun) (int64, error) {
	if run == nil {
		return 0, fmt.Errorf("nil training run payload")
	}
	lastLine, err := json.Marshal(nonNil(run.LastLine))
	if err != nil {
		return 0, fmt.Errorf("marshal last_line: %w", err)
	}

	const query = `
		INSERT INTO training_runs (
			run_uuid,
			player_hash,
			room_hash,
			repertoire,
			color,
			mode,
			method,
			result,
			variations,
			perfect,
			guessed,
			correct,
			hints,
			last_line,
			started_at,
			ended_at,
			duration_ms
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14::jsonb, $15, $16, $17)
		ON CONFLICT (run_uuid) DO NOTHING
		RETURNING id`

	var id sql.NullInt64
	err = r.db.QueryRowContext(
		ctx,
		query,
		run.RunUUID,
		run.PlayerHash,
		run.RoomHash,
		run.Repertoire,
		run.Color,
		run.Mode,
		run.Method,
		run.Result,
		run.Variations,
		run.Perfect,
		run.Guessed,
		run.Correct,
		run.Hints,
		lastLine,
		run.StartedAt,
		run.EndedAt,
		run.Duration.Milliseconds(),
	).Scan(&id)
	if errors.Is(err, sql.ErrNoRows) || (err == nil && !id.Valid) {
		return 0, ErrDuplicateRun
	}
	if err != nil {
		return 0, fmt.Errorf("insert training run: %w", err)
	}
	return id.Int64, nil
}

func (r *repository) GetRecentRuns(ctx context.Context, playerHash string, limit int) ([]*domain.TrainingRun, error) {
	if limit <= 0 {
		limit = 10
	}
	query := `SELECT` + runColumns + `
		FROM training_runs
		WHERE player_hash = $1
		ORDER BY ended_at DESC
		LIMIT $2`

	rows, err := r.db.QueryContext(ctx, query, playerHash, limit)
	if err != nil {
		return nil, fmt.Errorf("select training runs: %w", err)
	}
	defer rows.Close()

	runs := make([]*domain.TrainingRun, 0, limit)
	for rows.Next() {
		run, err := scanRun(rows)
		if err != nil {
			return nil, err
		}
		runs = append(runs, run)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate training runs: %w", err)
	}
	return runs, nil
}

func (r *repository) GetRun(ctx context.Context, id int64, playerHash string) (*domain.TrainingRun, error) {
	query := `SELECT` + runColumns + `
		FROM training_runs
		WHERE id = $1 AND player_hash = $2`

	run, err := scanRun(r.db.QueryRowContext(ctx, query, id, playerHash))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	return run, err
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanRun(row rowScanner) (*domain.TrainingRun, error) {
	var (
		run          domain.TrainingRun
		lastLineJSON []byte
		durationMS   sql.NullInt64
	)
	err := row.Scan(
		&run.ID,
		&run.RunUUID,
		&run.PlayerHash,
		&run.RoomHash,
		&run.Repertoire,
		&run.Color,
		&run.Mode,
		&run.Method,
		&run.Result,
		&run.Variations,
		&run.Perfect,
		&run.Guessed,
		&run.Correct,
		&run.Hints,
		&lastLineJSON,
		&run.StartedAt,
		&run.EndedAt,
		&durationMS,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, err
	}
	if err != nil {
		return nil, fmt.Errorf("scan training run: %w", err)
	}
	if durationMS.Valid {
		run.Duration = time.Duration(durationMS.Int64) * time.Millisecond
	}
	if err := json.Unmarshal(lastLineJSON, &run.LastLine); err != nil {
		return nil, fmt.Errorf("unmarshal last_line: %w", err)
	}
	return &run, nil
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
