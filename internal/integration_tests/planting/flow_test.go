package planting_test

import (
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"arbor/internal/jwt_token"
	plantinghandler "arbor/internal/planting/handler"
	"arbor/internal/planting/models"
	plantingservice "arbor/internal/planting/service"
	"arbor/internal/planting/store/diversity"
	"arbor/internal/planting/store/event"
	"arbor/internal/planting/store/initiative"
	"arbor/internal/planting/store/site"
	"arbor/internal/platform/metrics"
	ratelimitmw "arbor/internal/ratelimit/middleware"
	ratelimitmodels "arbor/internal/ratelimit/models"
	"arbor/internal/ratelimit/store/bucket"
	httptransport "arbor/internal/transport/http"
	"arbor/pkg/platform/audit/publisher"
	auditmemory "arbor/pkg/platform/audit/store/memory"
	"arbor/pkg/testutil"
)

const (
	startDate = 1719792000 // 2024-07-01
	endDate   = 1735603200 // 2024-12-31
	eventDate = 1722470400 // 2024-08-01
)

type stack struct {
	t      *testing.T
	router http.Handler
	jwt    *jwttoken.JWTService
	audit  *auditmemory.InMemoryStore
}

func newStack(t *testing.T, policy ratelimitmodels.Policy) *stack {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	reg := prometheus.NewRegistry()
	audit := auditmemory.NewInMemoryStore()
	jwt := jwttoken.NewJWTService("integration-signing-key", "arbor-test")

	svc := plantingservice.New(plantingservice.Stores{
		Sites:       site.NewInMemory(),
		Initiatives: initiative.NewInMemory(),
		Events:      event.NewInMemory(),
		Diversity:   diversity.NewInMemory(),
	},
		plantingservice.WithLogger(logger),
		plantingservice.WithAuditPublisher(publisher.New(audit)),
	)

	router := httptransport.NewRouter(httptransport.Config{
		Logger:    logger,
		Metrics:   metrics.New(reg),
		Gatherer:  reg,
		Validator: jwttoken.NewJWTServiceAdapter(jwt),
		RateLimit: ratelimitmw.New(bucket.NewInMemory(), policy, logger).LimitMutations,
		Modules:   []httptransport.Module{plantinghandler.New(svc, logger)},
	})
	return &stack{t: t, router: router, jwt: jwt, audit: audit}
}

func (s *stack) do(caller string, roles []string, method, path string, body any) *http.Response {
	s.t.Helper()
	var req *http.Request
	if body != nil {
		req = testutil.NewJSONRequest(s.t, method, path, body)
	} else {
		req = testutil.NewRequest(s.t, method, path)
	}
	token, err := s.jwt.GenerateAccessToken(caller, roles, time.Hour)
	require.NoError(s.t, err)
	rr := testutil.DoRequest(s.router, testutil.WithBearer(req, token))
	return rr.Result()
}

func decode[T any](t *testing.T, res *http.Response) *T {
	t.Helper()
	defer res.Body.Close()
	var out T
	body, err := io.ReadAll(res.Body)
	require.NoError(t, err)
	require.NoError(t, json.Unmarshal(body, &out), string(body))
	return &out
}

func TestPlantingFlow(t *testing.T) {
	s := newStack(t, ratelimitmodels.Policy{})

	testutil.Given(t, "a sidewalk site and a Green Streets initiative", func(t *testing.T) {
		res := s.do("alice", nil, http.MethodPost, "/sites", map[string]any{
			"id":             "site-001",
			"location":       map[string]any{"latitude": 40712776, "longitude": -74005974, "address": "123 Main St, New York, NY"},
			"siteType":       "sidewalk",
			"soilType":       "loam",
			"sunExposure":    "partial",
			"availableSpace": 400,
		})
		require.Equal(t, http.StatusCreated, res.StatusCode)
		created := decode[plantinghandler.SiteResponse](t, res)
		assert.Equal(t, 85, created.Site.PriorityScore)
		assert.Equal(t, models.SiteAvailable, created.Site.Status)

		res = s.do("carol", nil, http.MethodPost, "/initiatives", map[string]any{
			"id":          "initiative-001",
			"name":        "Green Streets Initiative",
			"description": "Plant trees along downtown streets",
			"targetArea":  "Downtown",
			"startDate":   startDate,
			"endDate":     endDate,
			"targetCount": 100,
		})
		require.Equal(t, http.StatusCreated, res.StatusCode)
		res.Body.Close()
	})

	testutil.When(t, "carol schedules an event and volunteers sign up", func(t *testing.T) {
		res := s.do("carol", nil, http.MethodPost, "/initiatives/initiative-001/events", map[string]any{
			"id":               "event-001",
			"name":             "Community Planting Day",
			"date":             eventDate,
			"location":         "City Park",
			"targetSites":      []string{"site-001"},
			"volunteersNeeded": 20,
		})
		require.Equal(t, http.StatusCreated, res.StatusCode)
		res.Body.Close()

		res = s.do("bob", nil, http.MethodPost, "/initiatives/initiative-001/events/event-001/volunteers", map[string]any{"count": 5})
		require.Equal(t, http.StatusOK, res.StatusCode)
		ev := decode[plantinghandler.EventResponse](t, res)
		assert.Equal(t, int64(5), ev.Event.VolunteersRegistered)

		res = s.do("carol", nil, http.MethodPost, "/initiatives/initiative-001/progress", map[string]any{"treesPlanted": 25})
		require.Equal(t, http.StatusOK, res.StatusCode)
		res.Body.Close()
	})

	testutil.Then(t, "the initiative and event reflect the work", func(t *testing.T) {
		res := s.do("bob", nil, http.MethodGet, "/initiatives/initiative-001", nil)
		require.Equal(t, http.StatusOK, res.StatusCode)
		got := decode[plantinghandler.InitiativeResponse](t, res)
		assert.Equal(t, int64(25), got.Initiative.CurrentCount)
		assert.Equal(t, models.InitiativeActive, got.Initiative.Status)

		res = s.do("bob", nil, http.MethodGet, "/initiatives/initiative-001/events", nil)
		require.Equal(t, http.StatusOK, res.StatusCode)
		list := decode[plantinghandler.EventListResponse](t, res)
		require.Len(t, list.Events, 1)
		assert.Equal(t, "City Park", list.Events[0].Location)

		events, err := s.audit.ListAll(t.Context())
		require.NoError(t, err)
		assert.Len(t, events, 5)
	})

	testutil.Then(t, "diversity goals need the coordinator role", func(t *testing.T) {
		body := map[string]any{"targetPercentages": []map[string]any{
			{"species": "Quercus robur", "targetPercentage": 30},
		}}
		res := s.do("bob", nil, http.MethodPut, "/diversity-goals", body)
		assert.Equal(t, http.StatusForbidden, res.StatusCode)
		res.Body.Close()

		res = s.do("carol", []string{"coordinator"}, http.MethodPut, "/diversity-goals", body)
		require.Equal(t, http.StatusOK, res.StatusCode)
		res.Body.Close()

		res = s.do("bob", nil, http.MethodGet, "/diversity-goals", nil)
		require.Equal(t, http.StatusOK, res.StatusCode)
		goals := decode[plantinghandler.DiversityResponse](t, res)
		require.Len(t, goals.Goals.TargetPercentages, 1)
		assert.Equal(t, int64(30), goals.Goals.TargetPercentages[0].TargetPercentage)
	})
}

func TestMutationRateLimit(t *testing.T) {
	s := newStack(t, ratelimitmodels.Policy{Limit: 1, Window: time.Minute})

	res := s.do("alice", nil, http.MethodPost, "/initiatives", map[string]any{
		"id": "initiative-001", "name": "Green Streets", "targetArea": "Downtown",
		"startDate": startDate, "endDate": endDate, "targetCount": 10,
	})
	require.Equal(t, http.StatusCreated, res.StatusCode)
	res.Body.Close()

	res = s.do("alice", nil, http.MethodPost, "/initiatives/initiative-001/progress", map[string]any{"treesPlanted": 1})
	assert.Equal(t, http.StatusTooManyRequests, res.StatusCode)
	res.Body.Close()

	res = s.do("alice", nil, http.MethodGet, "/initiatives/initiative-001", nil)
	assert.Equal(t, http.StatusOK, res.StatusCode)
	res.Body.Close()
}
