package event

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/lib/pq"

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

const eventColumns = `initiative_id, id, name, date, location, target_sites,
	volunteers_needed, volunteers_registered, status, organizer`

func (s *PostgresStore) Create(ctx context.Context, e *models.PlantingEvent) error {
	_, err := txcontext.Executor(ctx, s.db).ExecContext(ctx, `
		INSERT INTO planting_events (`+eventColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`,
		e.InitiativeID, e.ID, e.Name, e.Date, e.Location, pq.Array(siteStrings(e.TargetSites)),
		e.VolunteersNeeded, e.VolunteersRegistered, e.Status, e.Organizer,
	)
	if err != nil {
		if postgres.IsUniqueViolation(err) {
			return fmt.Errorf("event %s/%s: %w", e.InitiativeID, e.ID, sentinel.ErrAlreadyUsed)
		}
		return fmt.Errorf("insert event: %w", err)
	}
	return nil
}

func (s *PostgresStore) Find(ctx context.Context, initiativeID domain.InitiativeID, id domain.EventID) (*models.PlantingEvent, error) {
	return s.find(ctx, `SELECT `+eventColumns+` FROM planting_events
		WHERE initiative_id = $1 AND id = $2`, initiativeID, id)
}

func (s *PostgresStore) FindForUpdate(ctx context.Context, initiativeID domain.InitiativeID, id domain.EventID) (*models.PlantingEvent, error) {
	return s.find(ctx, `SELECT `+eventColumns+` FROM planting_events
		WHERE initiative_id = $1 AND id = $2 FOR UPDATE`, initiativeID, id)
}

func (s *PostgresStore) find(ctx context.Context, query string, initiativeID domain.InitiativeID, id domain.EventID) (*models.PlantingEvent, error) {
	e, err := scanEvent(txcontext.Executor(ctx, s.db).QueryRowContext(ctx, query, initiativeID, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, sentinel.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("select event: %w", err)
	}
	return e, nil
}

func (s *PostgresStore) ListByInitiative(ctx context.Context, initiativeID domain.InitiativeID) ([]*models.PlantingEvent, error) {
	rows, err := txcontext.Executor(ctx, s.db).QueryContext(ctx, `SELECT `+eventColumns+`
		FROM planting_events WHERE initiative_id = $1 ORDER BY date, id`, initiativeID)
	if err != nil {
		return nil, fmt.Errorf("list events: %w", err)
	}
	defer rows.Close()

	out := make([]*models.PlantingEvent, 0)
	for rows.Next() {
		e, err := scanEvent(rows)
		if err != nil {
			return nil, fmt.Errorf("scan event: %w", err)
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

func (s *PostgresStore) Update(ctx context.Context, e *models.PlantingEvent) error {
	res, err := txcontext.Executor(ctx, s.db).ExecContext(ctx, `
		UPDATE planting_events SET volunteers_registered = $3, status = $4
		WHERE initiative_id = $1 AND id = $2`,
		e.InitiativeID, e.ID, e.VolunteersRegistered, e.Status,
	)
	if err != nil {
		return fmt.Errorf("update event: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("update event: %w", err)
	}
	if n == 0 {
		return sentinel.ErrNotFound
	}
	return nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanEvent(row scanner) (*models.PlantingEvent, error) {
	var (
		e     models.PlantingEvent
		sites pq.StringArray
	)
	if err := row.Scan(&e.InitiativeID, &e.ID, &e.Name, &e.Date, &e.Location, &sites,
		&e.VolunteersNeeded, &e.VolunteersRegistered, &e.Status, &e.Organizer); err != nil {
		return nil, err
	}
	e.TargetSites = make([]domain.SiteID, len(sites))
	for i, id := range sites {
		e.TargetSites[i] = domain.SiteID(id)
	}
	return &e, nil
}

func siteStrings(ids []domain.SiteID) []string {
	out := make([]string, len(ids))
	for i, id := range ids {
		out[i] = id.String()
	}
	return out
}
