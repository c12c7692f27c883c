package repository

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"

	"debt-planner/domain"
)

const plannerStateSchema = `
CREATE TABLE IF NOT EXISTS planner_state (
  key TEXT PRIMARY KEY,
  value TEXT NOT NULL,
  updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
);`

// PostgresStateStore keeps the three state records in a planner_state table.
type PostgresStateStore struct {
	db *pgxpool.Pool
}

func NewPostgresStateStore(db *pgxpool.Pool) *PostgresStateStore {
	return &PostgresStateStore{db: db}
}

// Migrate creates the planner_state table if needed.
func (s *PostgresStateStore) Migrate(ctx context.Context) error {
	if _, err := s.db.Exec(ctx, plannerStateSchema); err != nil {
		return fmt.Errorf("create planner_state: %w", err)
	}
	return nil
}

func (s *PostgresStateStore) Load(ctx context.Context) (domain.PlannerState, error) {
	rows, err := s.db.Query(ctx, `SELECT key, value FROM planner_state WHERE key = ANY($1)`, stateKeys)
	if err != nil {
		return domain.PlannerState{}, err
	}
	defer rows.Close()

	records := make(map[string]string, len(stateKeys))
	for rows.Next() {
		var key, value string
		if err := rows.Scan(&key, &value); err != nil {
			return domain.PlannerState{}, err
		}
		records[key] = value
	}
	if err := rows.Err(); err != nil {
		return domain.PlannerState{}, err
	}

	return decodeState(records)
}

func (s *PostgresStateStore) Save(ctx context.Context, state domain.PlannerState) error {
	records, err := encodeState(state)
	if err != nil {
		return err
	}

	tx, err := s.db.Begin(ctx)
	if err != nil {
		return err
	}
	defer func() {
		_ = tx.Rollback(ctx)
	}()

	for _, key := range stateKeys {
		_, err := tx.Exec(ctx,
			`INSERT INTO planner_state (key, value, updated_at)
			 VALUES ($1, $2, now())
			 ON CONFLICT (key) DO UPDATE SET value = EXCLUDED.value, updated_at = EXCLUDED.updated_at`,
			key, records[key],
		)
		if err != nil {
			return fmt.Errorf("save %s: %w", key, err)
		}
	}

	return tx.Commit(ctx)
}
