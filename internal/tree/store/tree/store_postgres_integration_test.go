//go:build integration

package tree_test

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/suite"

	"arbor/internal/platform/postgres"
	"arbor/internal/tree/models"
	"arbor/internal/tree/store/history"
	"arbor/internal/tree/store/tree"
	"arbor/pkg/domain"
	"arbor/pkg/platform/sentinel"
	"arbor/pkg/testutil/containers"
)

type PostgresStoreSuite struct {
	suite.Suite
	postgres *containers.PostgresContainer
	trees    *tree.PostgresStore
	history  *history.PostgresStore
	runner   *postgres.TxRunner
}

func TestPostgresStoreSuite(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}
	suite.Run(t, new(PostgresStoreSuite))
}

func (s *PostgresStoreSuite) SetupSuite() {
	s.postgres = containers.GetManager().GetPostgres(s.T())
	s.trees = tree.NewPostgres(s.postgres.DB)
	s.history = history.NewPostgres(s.postgres.DB)
	s.runner = postgres.NewTxRunner(s.postgres.DB, 0)
}

func (s *PostgresStoreSuite) SetupTest() {
	s.Require().NoError(s.postgres.TruncateTables(context.Background(), "tree_history", "trees"))
}

func newTree(id domain.TreeID) *models.Tree {
	return &models.Tree{
		ID:           id,
		Owner:        "alice",
		Species:      "Quercus robur",
		Location:     domain.Location{Latitude: 40712776, Longitude: -74005974, Address: "Central Park"},
		Height:       500,
		Diameter:     30,
		Condition:    models.ConditionHealthy,
		PlantingDate: 1625011200,
		LastUpdated:  1625097600,
		Status:       models.StatusActive,
	}
}

func (s *PostgresStoreSuite) TestRoundTrip() {
	ctx := context.Background()
	s.Require().NoError(s.trees.Create(ctx, newTree("tree-001")))

	found, err := s.trees.FindByID(ctx, "tree-001")
	s.Require().NoError(err)
	s.Equal(*newTree("tree-001"), *found)

	found.Owner = "bob"
	found.Status = models.StatusProtected
	s.Require().NoError(s.trees.Update(ctx, found))

	again, err := s.trees.FindByID(ctx, "tree-001")
	s.Require().NoError(err)
	s.Equal(domain.Principal("bob"), again.Owner)
	s.Equal(models.StatusProtected, again.Status)

	_, err = s.trees.FindByID(ctx, "tree-404")
	s.ErrorIs(err, sentinel.ErrNotFound)
	s.ErrorIs(s.trees.Update(ctx, newTree("tree-404")), sentinel.ErrNotFound)
}

// TestConcurrentDuplicateCreate verifies exactly one of many concurrent
// registrations of the same id wins.
func (s *PostgresStoreSuite) TestConcurrentDuplicateCreate() {
	ctx := context.Background()
	const goroutines = 20

	var wg sync.WaitGroup
	var successes, conflicts atomic.Int32
	for i := 0; i < goroutines; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			err := s.runner.RunInTx(ctx, func(txCtx context.Context) error {
				if err := s.trees.Create(txCtx, newTree("tree-race")); err != nil {
					return err
				}
				rec := models.NewHistoryRecord("tree-race", models.UpdateRegistration, "alice", 1625097600,
					"", models.ConditionHealthy, models.RegistrationNote)
				return s.history.Append(txCtx, rec)
			})
			switch {
			case err == nil:
				successes.Add(1)
			case errors.Is(err, sentinel.ErrAlreadyUsed):
				conflicts.Add(1)
			default:
				s.T().Errorf("unexpected error: %v", err)
			}
		}()
	}
	wg.Wait()

	s.Equal(int32(1), successes.Load())
	s.Equal(int32(goroutines-1), conflicts.Load())

	n, err := s.history.Count(ctx, "tree-race")
	s.Require().NoError(err)
	s.Equal(int64(1), n)
}

func (s *PostgresStoreSuite) TestHistorySequencing() {
	ctx := context.Background()
	s.Require().NoError(s.trees.Create(ctx, newTree("tree-001")))

	for i, kind := range []models.UpdateType{models.UpdateRegistration, models.UpdateMeasurement, models.UpdateTransfer} {
		err := s.runner.RunInTx(ctx, func(txCtx context.Context) error {
			if _, err := s.trees.FindByIDForUpdate(txCtx, "tree-001"); err != nil {
				return err
			}
			rec := models.NewHistoryRecord("tree-001", kind, "alice", 1625097600, "", models.ConditionGood, "")
			if err := s.history.Append(txCtx, rec); err != nil {
				return err
			}
			s.Equal(int64(i), rec.Sequence)
			return nil
		})
		s.Require().NoError(err)
	}

	list, err := s.history.List(ctx, "tree-001")
	s.Require().NoError(err)
	s.Require().Len(list, 3)
	s.Equal(models.UpdateTransfer, list[2].UpdateType)

	_, err = s.history.Get(ctx, "tree-001", 3)
	s.ErrorIs(err, sentinel.ErrNotFound)
}
