// Package middleware limits how many mutating requests one caller may make
// per window.
package middleware

import (
	"context"
	"log/slog"
	"math"
	"net/http"
	"strconv"

	"arbor/internal/ratelimit/metrics"
	"arbor/internal/ratelimit/models"
	"arbor/pkg/platform/httputil"
	"arbor/pkg/requestcontext"
)

type Store interface {
	Allow(ctx context.Context, key string, policy models.Policy) (*models.Result, error)
}

type Middleware struct {
	store   Store
	policy  models.Policy
	logger  *slog.Logger
	metrics *metrics.Metrics
}

type Option func(*Middleware)

func WithMetrics(m *metrics.Metrics) Option {
	return func(mw *Middleware) { mw.metrics = m }
}

func New(store Store, policy models.Policy, logger *slog.Logger, opts ...Option) *Middleware {
	m := &Middleware{store: store, policy: policy, logger: logger}
	for _, opt := range opts {
		opt(m)
	}
	if !policy.Enabled() {
		logger.Info("rate limiting disabled")
	}
	return m
}

// LimitMutations checks POST, PUT, PATCH and DELETE requests against the
// caller's window. It must run after authentication. Store failures let the
// request through.
func (m *Middleware) LimitMutations(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !m.policy.Enabled() || !isMutation(r.Method) {
			next.ServeHTTP(w, r)
			return
		}

		ctx := r.Context()
		principal := requestcontext.Principal(ctx)
		if principal.IsNil() {
			next.ServeHTTP(w, r)
			return
		}

		result, err := m.store.Allow(ctx, principal.String(), m.policy)
		if err != nil {
			m.metrics.IncrementStoreErrors()
			m.logger.ErrorContext(ctx, "rate limit check failed",
				"error", err,
				"principal", principal,
				"request_id", requestcontext.RequestID(ctx),
			)
			next.ServeHTTP(w, r)
			return
		}

		addHeaders(w, result)
		if !result.Allowed {
			m.metrics.IncrementRejected()
			m.logger.WarnContext(ctx, "rate limit exceeded",
				"principal", principal,
				"request_id", requestcontext.RequestID(ctx),
			)
			writeExceeded(w, result)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func isMutation(method string) bool {
	switch method {
	case http.MethodPost, http.MethodPut, http.MethodPatch, http.MethodDelete:
		return true
	}
	return false
}

func addHeaders(w http.ResponseWriter, result *models.Result) {
	w.Header().Set("X-RateLimit-Limit", strconv.Itoa(result.Limit))
	w.Header().Set("X-RateLimit-Remaining", strconv.Itoa(result.Remaining))
	w.Header().Set("X-RateLimit-Reset", strconv.FormatInt(result.ResetAt.Unix(), 10))
}

func writeExceeded(w http.ResponseWriter, result *models.Result) {
	retry := int(math.Ceil(result.RetryAfter.Seconds()))
	if retry < 1 {
		retry = 1
	}
	w.Header().Set("Retry-After", strconv.Itoa(retry))
	httputil.WriteJSON(w, http.StatusTooManyRequests, models.ExceededResponse{
		Error:            "rate_limit_exceeded",
		ErrorDescription: "Too many changes from this caller. Please try again later.",
		RetryAfter:       retry,
	})
}
