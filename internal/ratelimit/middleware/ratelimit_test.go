package middleware

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/suite"

	"arbor/internal/ratelimit/metrics"
	"arbor/internal/ratelimit/models"
	"arbor/internal/ratelimit/store/bucket"
	"arbor/pkg/domain"
	"arbor/pkg/requestcontext"
)

type failingStore struct{}

func (failingStore) Allow(context.Context, string, models.Policy) (*models.Result, error) {
	return nil, errors.New("connection refused")
}

type RateLimitSuite struct {
	suite.Suite
	metrics *metrics.Metrics
	logger  *slog.Logger
}

func TestRateLimitSuite(t *testing.T) {
	suite.Run(t, new(RateLimitSuite))
}

func (s *RateLimitSuite) SetupTest() {
	s.metrics = metrics.New(prometheus.NewRegistry())
	s.logger = slog.New(slog.NewTextHandler(io.Discard, nil))
}

func (s *RateLimitSuite) handler(store Store, policy models.Policy) http.Handler {
	mw := New(store, policy, s.logger, WithMetrics(s.metrics))
	return mw.LimitMutations(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	}))
}

func do(h http.Handler, method string, caller domain.Principal) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, "/trees", nil)
	if caller != "" {
		req = req.WithContext(requestcontext.WithPrincipal(req.Context(), caller))
	}
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)
	return rr
}

func (s *RateLimitSuite) TestLimitMutations() {
	policy := models.Policy{Limit: 2, Window: time.Minute}

	s.Run("rejects once the window is full", func() {
		h := s.handler(bucket.NewInMemory(), policy)
		s.Equal(http.StatusNoContent, do(h, http.MethodPost, "alice").Code)
		rr := do(h, http.MethodPut, "alice")
		s.Equal(http.StatusNoContent, rr.Code)
		s.Equal("0", rr.Header().Get("X-RateLimit-Remaining"))

		rr = do(h, http.MethodPost, "alice")
		s.Equal(http.StatusTooManyRequests, rr.Code)
		s.NotEmpty(rr.Header().Get("Retry-After"))
		assert.Contains(s.T(), rr.Body.String(), "rate_limit_exceeded")
		s.Equal(1.0, testutil.ToFloat64(s.metrics.Rejected))

		s.Equal(http.StatusNoContent, do(h, http.MethodPost, "bob").Code)
	})

	s.Run("reads are not counted", func() {
		h := s.handler(bucket.NewInMemory(), policy)
		for range 5 {
			s.Equal(http.StatusNoContent, do(h, http.MethodGet, "alice").Code)
		}
		s.Equal(http.StatusNoContent, do(h, http.MethodPost, "alice").Code)
	})

	s.Run("disabled policy passes everything", func() {
		h := s.handler(bucket.NewInMemory(), models.Policy{})
		for range 5 {
			s.Equal(http.StatusNoContent, do(h, http.MethodPost, "alice").Code)
		}
	})

	s.Run("store failure lets the request through", func() {
		h := s.handler(failingStore{}, policy)
		s.Equal(http.StatusNoContent, do(h, http.MethodPost, "alice").Code)
		s.Equal(1.0, testutil.ToFloat64(s.metrics.StoreErrors))
	})
}
