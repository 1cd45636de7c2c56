package service

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/suite"

	"arbor/internal/tree/metrics"
	"arbor/internal/tree/models"
	"arbor/internal/tree/store/history"
	treestore "arbor/internal/tree/store/tree"
	"arbor/pkg/domain"
	dErrors "arbor/pkg/domain-errors"
	"arbor/pkg/platform/audit"
	"arbor/pkg/platform/audit/publisher"
	auditmemory "arbor/pkg/platform/audit/store/memory"
	"arbor/pkg/platform/sentinel"
	"arbor/pkg/requestcontext"
)

var registeredAt = time.Unix(1625097600, 0).UTC()

type mapCache struct {
	mu      sync.Mutex
	entries map[string]models.Tree
	deletes int
}

func newMapCache() *mapCache { return &mapCache{entries: map[string]models.Tree{}} }

func (c *mapCache) Get(_ context.Context, key string) (*models.Tree, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	t, ok := c.entries[key]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	return &t, nil
}

func (c *mapCache) Set(_ context.Context, key string, t *models.Tree) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[key] = *t
	return nil
}

func (c *mapCache) Delete(_ context.Context, key string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.entries, key)
	c.deletes++
	return nil
}

type failingAudit struct{}

func (failingAudit) Emit(context.Context, audit.Event) error { return errors.New("audit sink down") }

// gatedAudit succeeds until armed, then holds the first Emit until release
// and fails it.
type gatedAudit struct {
	armed   atomic.Bool
	entered chan struct{}
	release chan struct{}
}

func newGatedAudit() *gatedAudit {
	return &gatedAudit{entered: make(chan struct{}), release: make(chan struct{})}
}

func (g *gatedAudit) Emit(context.Context, audit.Event) error {
	if !g.armed.Load() {
		return nil
	}
	close(g.entered)
	<-g.release
	return errors.New("audit sink timed out")
}

type TreeServiceSuite struct {
	suite.Suite
	trees      *treestore.InMemory
	history    *history.InMemory
	auditStore *auditmemory.InMemoryStore
	cache      *mapCache
	metrics    *metrics.Metrics
	service    *Service
}

func TestTreeServiceSuite(t *testing.T) {
	suite.Run(t, new(TreeServiceSuite))
}

func (s *TreeServiceSuite) SetupTest() {
	s.trees = treestore.NewInMemory()
	s.history = history.NewInMemory()
	s.auditStore = auditmemory.NewInMemoryStore()
	s.cache = newMapCache()
	s.metrics = metrics.New(prometheus.NewRegistry())
	s.service = New(s.trees, s.history,
		WithAuditPublisher(publisher.New(s.auditStore)),
		WithCache(s.cache),
		WithMetrics(s.metrics),
	)
}

func (s *TreeServiceSuite) as(p domain.Principal, offset time.Duration) context.Context {
	ctx := requestcontext.WithPrincipal(context.Background(), p)
	ctx = requestcontext.WithRequestID(ctx, "req-1")
	return requestcontext.WithTime(ctx, registeredAt.Add(offset))
}

func registerCommand(id domain.TreeID) models.RegisterTreeCommand {
	return models.RegisterTreeCommand{
		ID:           id,
		Species:      "Quercus robur",
		Location:     domain.Location{Latitude: 40712776, Longitude: -74005974, Address: "Central Park, New York"},
		Height:       500,
		Diameter:     30,
		Condition:    models.ConditionHealthy,
		PlantingDate: domain.TimestampOf(registeredAt.Add(-24 * time.Hour)),
	}
}

func (s *TreeServiceSuite) register(id domain.TreeID) *models.Tree {
	t, err := s.service.Register(s.as("alice", 0), registerCommand(id))
	s.Require().NoError(err)
	return t
}

func (s *TreeServiceSuite) historyCount(id domain.TreeID) int64 {
	n, err := s.service.HistoryCount(s.as("alice", 0), id)
	s.Require().NoError(err)
	return n
}

func (s *TreeServiceSuite) TestRegister() {
	s.Run("stores submitted fields with caller as owner", func() {
		s.register("tree-001")

		got, err := s.service.Get(s.as("bob", 0), "tree-001")
		s.Require().NoError(err)
		s.Equal(domain.Principal("alice"), got.Owner)
		s.Equal(models.StatusActive, got.Status)
		s.Equal("Quercus robur", got.Species)
		s.Equal(domain.Microdegrees(40712776), got.Location.Latitude)
		s.Equal(domain.Centimeters(500), got.Height)
		s.Equal(domain.Centimeters(30), got.Diameter)
		s.Equal(domain.TimestampOf(registeredAt), got.LastUpdated)

		rec, err := s.service.HistoryRecord(s.as("alice", 0), "tree-001", 0)
		s.Require().NoError(err)
		s.Equal(models.UpdateRegistration, rec.UpdateType)
		s.Equal(models.Condition(""), rec.PreviousCondition)
		s.Equal(models.ConditionHealthy, rec.NewCondition)
		s.Equal(models.RegistrationNote, rec.Notes)
		s.Equal(int64(1), s.historyCount("tree-001"))
		s.Equal(1.0, testutil.ToFloat64(s.metrics.TreesRegistered))
	})

	s.Run("duplicate id is a conflict and leaves the first record", func() {
		cmd := registerCommand("tree-001")
		cmd.Species = "Acer rubrum"
		_, err := s.service.Register(s.as("bob", 0), cmd)
		s.True(dErrors.HasCode(err, dErrors.CodeConflict))

		got, err := s.service.Get(s.as("alice", 0), "tree-001")
		s.Require().NoError(err)
		s.Equal("Quercus robur", got.Species)
		s.Equal(domain.Principal("alice"), got.Owner)
		s.Equal(int64(1), s.historyCount("tree-001"))
	})

	s.Run("rejects invalid measurements and future planting", func() {
		for name, mutate := range map[string]func(*models.RegisterTreeCommand){
			"zero height":     func(c *models.RegisterTreeCommand) { c.Height = 0 },
			"negative width":  func(c *models.RegisterTreeCommand) { c.Diameter = -5 },
			"future planting": func(c *models.RegisterTreeCommand) { c.PlantingDate = domain.TimestampOf(registeredAt) + 1 },
		} {
			cmd := registerCommand("tree-bad")
			mutate(&cmd)
			_, err := s.service.Register(s.as("alice", 0), cmd)
			s.True(dErrors.HasCode(err, dErrors.CodeInvalidInput), name)
		}
		_, err := s.trees.FindByID(context.Background(), "tree-bad")
		s.ErrorIs(err, sentinel.ErrNotFound)
	})

	s.Run("requires an authenticated caller", func() {
		_, err := s.service.Register(context.Background(), registerCommand("tree-anon"))
		s.True(dErrors.HasCode(err, dErrors.CodeUnauthorized))
	})
}

// TestConcurrentDuplicateRegister verifies one success and the rest conflicts.
func (s *TreeServiceSuite) TestConcurrentDuplicateRegister() {
	const goroutines = 32
	var wg sync.WaitGroup
	var successes, conflicts atomic.Int32
	for i := 0; i < goroutines; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := s.service.Register(s.as("alice", 0), registerCommand("tree-race"))
			switch {
			case err == nil:
				successes.Add(1)
			case dErrors.HasCode(err, dErrors.CodeConflict):
				conflicts.Add(1)
			}
		}()
	}
	wg.Wait()

	s.Equal(int32(1), successes.Load())
	s.Equal(int32(goroutines-1), conflicts.Load())
	s.Equal(int64(1), s.historyCount("tree-race"))
}

func (s *TreeServiceSuite) TestUpdate() {
	s.register("tree-001")

	s.Run("non-owner is forbidden and nothing changes", func() {
		_, err := s.service.Update(s.as("mallory", time.Hour), "tree-001", models.UpdateTreeCommand{
			Height: 900, Diameter: 90, Condition: models.ConditionPoor,
		})
		s.True(dErrors.HasCode(err, dErrors.CodeForbidden))

		got, err := s.trees.FindByID(context.Background(), "tree-001")
		s.Require().NoError(err)
		s.Equal(domain.Centimeters(500), got.Height)
		s.Equal(int64(1), s.historyCount("tree-001"))
	})

	s.Run("owner update appends one record", func() {
		got, err := s.service.Update(s.as("alice", time.Hour), "tree-001", models.UpdateTreeCommand{
			Height: 550, Diameter: 32, Condition: models.ConditionGood, Notes: "Annual inspection",
		})
		s.Require().NoError(err)
		s.Equal(domain.Centimeters(550), got.Height)
		s.Equal(domain.TimestampOf(registeredAt.Add(time.Hour)), got.LastUpdated)
		s.Equal(int64(2), s.historyCount("tree-001"))

		rec, err := s.service.HistoryRecord(s.as("alice", 0), "tree-001", 1)
		s.Require().NoError(err)
		s.Equal(models.UpdateMeasurement, rec.UpdateType)
		s.Equal(models.ConditionHealthy, rec.PreviousCondition)
		s.Equal(models.ConditionGood, rec.NewCondition)
		s.Equal("Annual inspection", rec.Notes)
		s.Equal(domain.Principal("alice"), rec.UpdatedBy)
	})

	s.Run("invalid measurement leaves history unchanged", func() {
		_, err := s.service.Update(s.as("alice", time.Hour), "tree-001", models.UpdateTreeCommand{
			Height: 0, Diameter: 32, Condition: models.ConditionGood,
		})
		s.True(dErrors.HasCode(err, dErrors.CodeInvalidInput))
		s.Equal(int64(2), s.historyCount("tree-001"))
	})

	s.Run("unknown tree", func() {
		_, err := s.service.Update(s.as("alice", 0), "tree-404", models.UpdateTreeCommand{Height: 1, Diameter: 1, Condition: models.ConditionGood})
		s.True(dErrors.HasCode(err, dErrors.CodeNotFound))
	})
}

func (s *TreeServiceSuite) TestUpdateStatus() {
	s.register("tree-001")

	_, err := s.service.UpdateStatus(s.as("alice", 0), "tree-001", models.StatusActive, "")
	s.True(dErrors.HasCode(err, dErrors.CodeInvalidTransition))
	s.Equal(int64(1), s.historyCount("tree-001"))

	_, err = s.service.UpdateStatus(s.as("bob", 0), "tree-001", models.StatusRemoved, "")
	s.True(dErrors.HasCode(err, dErrors.CodeForbidden))

	got, err := s.service.UpdateStatus(s.as("alice", time.Minute), "tree-001", models.StatusRemoved, "Storm damage")
	s.Require().NoError(err)
	s.Equal(models.StatusRemoved, got.Status)

	rec, err := s.service.HistoryRecord(s.as("alice", 0), "tree-001", 1)
	s.Require().NoError(err)
	s.Equal(models.UpdateStatusChange, rec.UpdateType)
	s.Equal("Storm damage", rec.Notes)

	_, err = s.service.UpdateStatus(s.as("alice", time.Minute), "tree-001", models.StatusActive, "")
	s.True(dErrors.HasCode(err, dErrors.CodeInvalidTransition))
}

func (s *TreeServiceSuite) TestTransferOwnership() {
	s.register("tree-001")

	_, err := s.service.TransferOwnership(s.as("alice", 0), "tree-001", "alice")
	s.True(dErrors.HasCode(err, dErrors.CodeInvalidInput))

	_, err = s.service.TransferOwnership(s.as("bob", 0), "tree-001", "bob")
	s.True(dErrors.HasCode(err, dErrors.CodeForbidden))

	got, err := s.service.TransferOwnership(s.as("alice", time.Minute), "tree-001", "bob")
	s.Require().NoError(err)
	s.Equal(domain.Principal("bob"), got.Owner)

	// previous owner lost write access
	_, err = s.service.UpdateStatus(s.as("alice", time.Minute), "tree-001", models.StatusProtected, "")
	s.True(dErrors.HasCode(err, dErrors.CodeForbidden))

	records, err := s.service.History(s.as("bob", 0), "tree-001")
	s.Require().NoError(err)
	s.Require().Len(records, 2)
	s.Equal(models.UpdateTransfer, records[1].UpdateType)
	s.Equal(domain.Principal("alice"), records[1].UpdatedBy)

	events, err := s.auditStore.ListBySubject(context.Background(), "tree:tree-001")
	s.Require().NoError(err)
	s.Require().Len(events, 2)
	s.Equal(string(audit.EventTreeTransferred), events[1].Action)
	s.Equal("alice", events[1].ActorID)
	s.Equal("req-1", events[1].RequestID)
}

func (s *TreeServiceSuite) TestHistoryReads() {
	s.register("tree-001")

	_, err := s.service.HistoryRecord(s.as("alice", 0), "tree-001", 1)
	s.True(dErrors.HasCode(err, dErrors.CodeNotFound))

	_, err = s.service.HistoryCount(s.as("alice", 0), "tree-404")
	s.True(dErrors.HasCode(err, dErrors.CodeNotFound))

	_, err = s.service.History(s.as("alice", 0), "tree-404")
	s.True(dErrors.HasCode(err, dErrors.CodeNotFound))
}

func (s *TreeServiceSuite) TestCacheIsInvalidatedAfterMutation() {
	s.register("tree-001")

	_, err := s.service.Get(s.as("alice", 0), "tree-001")
	s.Require().NoError(err)
	s.Contains(s.cache.entries, "tree-001")

	_, err = s.service.Update(s.as("alice", time.Hour), "tree-001", models.UpdateTreeCommand{
		Height: 700, Diameter: 40, Condition: models.ConditionGood,
	})
	s.Require().NoError(err)
	s.NotContains(s.cache.entries, "tree-001")

	got, err := s.service.Get(s.as("alice", 0), "tree-001")
	s.Require().NoError(err)
	s.Equal(domain.Centimeters(700), got.Height)
}

func (s *TreeServiceSuite) TestAuditFailureFailsClosed() {
	svc := New(s.trees, s.history, WithAuditPublisher(failingAudit{}))
	_, err := svc.Register(s.as("alice", 0), registerCommand("tree-audit"))
	s.True(dErrors.HasCode(err, dErrors.CodeInternal))

	_, err = s.trees.FindByID(context.Background(), "tree-audit")
	s.ErrorIs(err, sentinel.ErrNotFound, "registration rolled back")
	n, err := s.history.Count(context.Background(), "tree-audit")
	s.Require().NoError(err)
	s.Zero(n)
}

func (s *TreeServiceSuite) TestReadsDuringFailedUpdateSeeCommittedState() {
	gate := newGatedAudit()
	svc := New(s.trees, s.history, WithAuditPublisher(gate), WithCache(s.cache))
	_, err := svc.Register(s.as("alice", 0), registerCommand("tree-001"))
	s.Require().NoError(err)
	gate.armed.Store(true)

	updated := make(chan error, 1)
	go func() {
		_, err := svc.Update(s.as("alice", time.Hour), "tree-001", models.UpdateTreeCommand{
			Height: 700, Diameter: 40, Condition: models.ConditionGood,
		})
		updated <- err
	}()
	<-gate.entered

	read := make(chan *models.Tree, 1)
	go func() {
		t, err := svc.Get(s.as("bob", 0), "tree-001")
		if err != nil {
			t = nil
		}
		read <- t
	}()
	select {
	case <-read:
		s.FailNow("read finished while the update was still in flight")
	case <-time.After(50 * time.Millisecond):
	}

	close(gate.release)
	s.True(dErrors.HasCode(<-updated, dErrors.CodeInternal))

	during := <-read
	s.Require().NotNil(during)
	s.Equal(domain.Centimeters(500), during.Height)
	s.Equal(models.ConditionHealthy, during.Condition)

	after, err := svc.Get(s.as("bob", 0), "tree-001")
	s.Require().NoError(err)
	s.Equal(domain.Centimeters(500), after.Height)
	s.Equal(domain.Centimeters(500), s.cache.entries["tree-001"].Height)
	s.Equal(1, s.cache.deletes, "failed update still invalidates")
	s.Equal(int64(1), s.historyCount("tree-001"))
}
