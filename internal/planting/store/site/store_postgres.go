package site

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

const siteColumns = `id, latitude, longitude, address, site_type, soil_type, sun_exposure,
	available_space, priority_score, recommended_species, status, created_by, creation_time`

func (s *PostgresStore) Create(ctx context.Context, site *models.PlantingSite) error {
	_, err := txcontext.Executor(ctx, s.db).ExecContext(ctx, `
		INSERT INTO planting_sites (`+siteColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)`,
		site.ID, site.Location.Latitude, site.Location.Longitude, site.Location.Address,
		site.SiteType, site.SoilType, site.SunExposure, site.AvailableSpace, site.PriorityScore,
		pq.Array(site.RecommendedSpecies), site.Status, site.CreatedBy, site.CreationTime,
	)
	if err != nil {
		if postgres.IsUniqueViolation(err) {
			return fmt.Errorf("site %s: %w", site.ID, sentinel.ErrAlreadyUsed)
		}
		return fmt.Errorf("insert site: %w", err)
	}
	return nil
}

func (s *PostgresStore) FindByID(ctx context.Context, id domain.SiteID) (*models.PlantingSite, error) {
	return s.find(ctx, `SELECT `+siteColumns+` FROM planting_sites WHERE id = $1`, id)
}

func (s *PostgresStore) FindByIDForUpdate(ctx context.Context, id domain.SiteID) (*models.PlantingSite, error) {
	return s.find(ctx, `SELECT `+siteColumns+` FROM planting_sites WHERE id = $1 FOR UPDATE`, id)
}

func (s *PostgresStore) find(ctx context.Context, query string, id domain.SiteID) (*models.PlantingSite, error) {
	var (
		site    models.PlantingSite
		species pq.StringArray
	)
	err := txcontext.Executor(ctx, s.db).QueryRowContext(ctx, query, id).Scan(
		&site.ID, &site.Location.Latitude, &site.Location.Longitude, &site.Location.Address,
		&site.SiteType, &site.SoilType, &site.SunExposure, &site.AvailableSpace, &site.PriorityScore,
		&species, &site.Status, &site.CreatedBy, &site.CreationTime,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, sentinel.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("select site: %w", err)
	}
	site.RecommendedSpecies = append([]string{}, species...)
	return &site, nil
}

func (s *PostgresStore) Update(ctx context.Context, site *models.PlantingSite) error {
	res, err := txcontext.Executor(ctx, s.db).ExecContext(ctx, `
		UPDATE planting_sites SET priority_score = $2, recommended_species = $3, status = $4
		WHERE id = $1`,
		site.ID, site.PriorityScore, pq.Array(site.RecommendedSpecies), site.Status,
	)
	if err != nil {
		return fmt.Errorf("update site: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("update site: %w", err)
	}
	if n == 0 {
		return sentinel.ErrNotFound
	}
	return nil
}
