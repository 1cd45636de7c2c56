package tree

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"arbor/internal/platform/postgres"
	"arbor/internal/tree/models"
	"arbor/pkg/domain"
	"arbor/pkg/platform/sentinel"
	txcontext "arbor/pkg/platform/tx"
)

// PostgresStore persists trees in the trees table. It joins the caller's
// transaction when one is carried in ctx.
type PostgresStore struct {
	db *sql.DB
}

func NewPostgres(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

const treeColumns = `id, owner, species, latitude, longitude, address, height, diameter,
	condition, planting_date, last_updated, status`

func (s *PostgresStore) Create(ctx context.Context, t *models.Tree) error {
	_, err := txcontext.Executor(ctx, s.db).ExecContext(ctx, `
		INSERT INTO trees (`+treeColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)`,
		t.ID, t.Owner, t.Species, t.Location.Latitude, t.Location.Longitude, t.Location.Address,
		t.Height, t.Diameter, t.Condition, t.PlantingDate, t.LastUpdated, t.Status,
	)
	if err != nil {
		if postgres.IsUniqueViolation(err) {
			return fmt.Errorf("tree %s: %w", t.ID, sentinel.ErrAlreadyUsed)
		}
		return fmt.Errorf("insert tree: %w", err)
	}
	return nil
}

func (s *PostgresStore) FindByID(ctx context.Context, id domain.TreeID) (*models.Tree, error) {
	return s.find(ctx, `SELECT `+treeColumns+` FROM trees WHERE id = $1`, id)
}

// FindByIDForUpdate locks the row until the surrounding transaction ends.
func (s *PostgresStore) FindByIDForUpdate(ctx context.Context, id domain.TreeID) (*models.Tree, error) {
	return s.find(ctx, `SELECT `+treeColumns+` FROM trees WHERE id = $1 FOR UPDATE`, id)
}

func (s *PostgresStore) find(ctx context.Context, query string, id domain.TreeID) (*models.Tree, error) {
	var t models.Tree
	err := txcontext.Executor(ctx, s.db).QueryRowContext(ctx, query, id).Scan(
		&t.ID, &t.Owner, &t.Species, &t.Location.Latitude, &t.Location.Longitude, &t.Location.Address,
		&t.Height, &t.Diameter, &t.Condition, &t.PlantingDate, &t.LastUpdated, &t.Status,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, sentinel.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("select tree: %w", err)
	}
	return &t, nil
}

// Update writes the mutable columns. id is never rewritten.
func (s *PostgresStore) Update(ctx context.Context, t *models.Tree) error {
	res, err := txcontext.Executor(ctx, s.db).ExecContext(ctx, `
		UPDATE trees SET owner = $2, height = $3, diameter = $4, condition = $5,
			last_updated = $6, status = $7
		WHERE id = $1`,
		t.ID, t.Owner, t.Height, t.Diameter, t.Condition, t.LastUpdated, t.Status,
	)
	if err != nil {
		return fmt.Errorf("update tree: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("update tree: %w", err)
	}
	if n == 0 {
		return sentinel.ErrNotFound
	}
	return nil
}
