package history

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

// PostgresStore keeps history in tree_history. Append must run in the same
// transaction that locked the parent tree row, which serializes sequence
// assignment per tree.
type PostgresStore struct {
	db *sql.DB
}

func NewPostgres(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

func (s *PostgresStore) Append(ctx context.Context, rec *models.HistoryRecord) error {
	err := txcontext.Executor(ctx, s.db).QueryRowContext(ctx, `
		INSERT INTO tree_history (tree_id, sequence, update_type, updated_by, update_time,
			previous_condition, new_condition, notes)
		SELECT $1, COALESCE(MAX(sequence) + 1, 0), $2, $3, $4, $5, $6, $7
		FROM tree_history WHERE tree_id = $1
		RETURNING sequence`,
		rec.TreeID, rec.UpdateType, rec.UpdatedBy, rec.UpdateTime,
		rec.PreviousCondition, rec.NewCondition, rec.Notes,
	).Scan(&rec.Sequence)
	if err != nil {
		if postgres.IsUniqueViolation(err) {
			return fmt.Errorf("history %s: %w", rec.TreeID, sentinel.ErrAlreadyUsed)
		}
		return fmt.Errorf("insert tree history: %w", err)
	}
	return nil
}

func (s *PostgresStore) Get(ctx context.Context, treeID domain.TreeID, sequence int64) (*models.HistoryRecord, error) {
	row := txcontext.Executor(ctx, s.db).QueryRowContext(ctx, `
		SELECT tree_id, sequence, update_type, updated_by, update_time,
			previous_condition, new_condition, notes
		FROM tree_history WHERE tree_id = $1 AND sequence = $2`, treeID, sequence)
	rec, err := scanRecord(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, sentinel.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("select tree history: %w", err)
	}
	return rec, nil
}

func (s *PostgresStore) Count(ctx context.Context, treeID domain.TreeID) (int64, error) {
	var n int64
	err := txcontext.Executor(ctx, s.db).QueryRowContext(ctx,
		`SELECT COUNT(*) FROM tree_history WHERE tree_id = $1`, treeID).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("count tree history: %w", err)
	}
	return n, nil
}

func (s *PostgresStore) List(ctx context.Context, treeID domain.TreeID) ([]*models.HistoryRecord, error) {
	rows, err := txcontext.Executor(ctx, s.db).QueryContext(ctx, `
		SELECT tree_id, sequence, update_type, updated_by, update_time,
			previous_condition, new_condition, notes
		FROM tree_history WHERE tree_id = $1 ORDER BY sequence`, treeID)
	if err != nil {
		return nil, fmt.Errorf("list tree history: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var out []*models.HistoryRecord
	for rows.Next() {
		rec, err := scanRecord(rows)
		if err != nil {
			return nil, fmt.Errorf("scan tree history: %w", err)
		}
		out = append(out, rec)
	}
	return out, rows.Err()
}

type scanner interface {
	Scan(dest ...any) error
}

func scanRecord(row scanner) (*models.HistoryRecord, error) {
	var rec models.HistoryRecord
	err := row.Scan(&rec.TreeID, &rec.Sequence, &rec.UpdateType, &rec.UpdatedBy, &rec.UpdateTime,
		&rec.PreviousCondition, &rec.NewCondition, &rec.Notes)
	if err != nil {
		return nil, err
	}
	return &rec, nil
}
