package initiative

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"arbor/internal/planting/models"
	"arbor/internal/platform/postgres"
	"arbor/pkg/domain"
	"arbor/pkg/platform/sentinel"
	txcontext "arbor/pkg/platform/tx"
)

type PostgresStore struct {
	db *sql.DB
}

func NewPostgres(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

const initiativeColumns = `id, name, description, target_area, start_date, end_date,
	target_count, current_count, status, coordinator`

func (s *PostgresStore) Create(ctx context.Context, in *models.PlantingInitiative) error {
	_, err := txcontext.Executor(ctx, s.db).ExecContext(ctx, `
		INSERT INTO planting_initiatives (`+initiativeColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`,
		in.ID, in.Name, in.Description, in.TargetArea, in.StartDate, in.EndDate,
		in.TargetCount, in.CurrentCount, in.Status, in.Coordinator,
	)
	if err != nil {
		if postgres.IsUniqueViolation(err) {
			return fmt.Errorf("initiative %s: %w", in.ID, sentinel.ErrAlreadyUsed)
		}
		return fmt.Errorf("insert initiative: %w", err)
	}
	return nil
}

func (s *PostgresStore) FindByID(ctx context.Context, id domain.InitiativeID) (*models.PlantingInitiative, error) {
	return s.find(ctx, `SELECT `+initiativeColumns+` FROM planting_initiatives WHERE id = $1`, id)
}

func (s *PostgresStore) FindByIDForUpdate(ctx context.Context, id domain.InitiativeID) (*models.PlantingInitiative, error) {
	return s.find(ctx, `SELECT `+initiativeColumns+` FROM planting_initiatives WHERE id = $1 FOR UPDATE`, id)
}

func (s *PostgresStore) find(ctx context.Context, query string, id domain.InitiativeID) (*models.PlantingInitiative, error) {
	var in models.PlantingInitiative
	err := txcontext.Executor(ctx, s.db).QueryRowContext(ctx, query, id).Scan(
		&in.ID, &in.Name, &in.Description, &in.TargetArea, &in.StartDate, &in.EndDate,
		&in.TargetCount, &in.CurrentCount, &in.Status, &in.Coordinator,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, sentinel.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("select initiative: %w", err)
	}
	return &in, nil
}

// Update writes progress and status; the plan itself is immutable.
func (s *PostgresStore) Update(ctx context.Context, in *models.PlantingInitiative) error {
	res, err := txcontext.Executor(ctx, s.db).ExecContext(ctx, `
		UPDATE planting_initiatives SET current_count = $2, status = $3 WHERE id = $1`,
		in.ID, in.CurrentCount, in.Status,
	)
	if err != nil {
		return fmt.Errorf("update initiative: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("update initiative: %w", err)
	}
	if n == 0 {
		return sentinel.ErrNotFound
	}
	return nil
}
