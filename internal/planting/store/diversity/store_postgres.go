package diversity

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"arbor/internal/planting/models"
	"arbor/pkg/platform/sentinel"
	txcontext "arbor/pkg/platform/tx"
)

// PostgresStore keeps the goals in the single-row diversity_goals table.
type PostgresStore struct {
	db *sql.DB
}

func NewPostgres(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

func (s *PostgresStore) Get(ctx context.Context) (*models.SpeciesDiversityGoals, error) {
	return s.load(ctx, `SELECT target_percentages, current_percentages, last_updated
		FROM diversity_goals WHERE id = 1`)
}

func (s *PostgresStore) GetForUpdate(ctx context.Context) (*models.SpeciesDiversityGoals, error) {
	return s.load(ctx, `SELECT target_percentages, current_percentages, last_updated
		FROM diversity_goals WHERE id = 1 FOR UPDATE`)
}

func (s *PostgresStore) load(ctx context.Context, query string) (*models.SpeciesDiversityGoals, error) {
	var (
		targets, current []byte
		goals            = models.EmptyDiversityGoals()
	)
	err := txcontext.Executor(ctx, s.db).QueryRowContext(ctx, query).Scan(&targets, &current, &goals.LastUpdated)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, sentinel.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("select diversity goals: %w", err)
	}
	if err := json.Unmarshal(targets, &goals.TargetPercentages); err != nil {
		return nil, fmt.Errorf("decode target percentages: %w", err)
	}
	if err := json.Unmarshal(current, &goals.CurrentPercentages); err != nil {
		return nil, fmt.Errorf("decode current percentages: %w", err)
	}
	return goals, nil
}

func (s *PostgresStore) Save(ctx context.Context, goals *models.SpeciesDiversityGoals) error {
	targets, err := json.Marshal(goals.TargetPercentages)
	if err != nil {
		return fmt.Errorf("encode target percentages: %w", err)
	}
	current, err := json.Marshal(goals.CurrentPercentages)
	if err != nil {
		return fmt.Errorf("encode current percentages: %w", err)
	}
	_, err = txcontext.Executor(ctx, s.db).ExecContext(ctx, `
		INSERT INTO diversity_goals (id, target_percentages, current_percentages, last_updated)
		VALUES (1, $1, $2, $3)
		ON CONFLICT (id) DO UPDATE SET
			target_percentages = EXCLUDED.target_percentages,
			current_percentages = EXCLUDED.current_percentages,
			last_updated = EXCLUDED.last_updated`,
		targets, current, goals.LastUpdated,
	)
	if err != nil {
		return fmt.Errorf("upsert diversity goals: %w", err)
	}
	return nil
}
