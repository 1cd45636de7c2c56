package auth

import (
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"

	"arbor/pkg/requestcontext"
)

type stubValidator struct {
	claims *JWTClaims
	err    error
}

func (s stubValidator) ValidateToken(string) (*JWTClaims, error) { return s.claims, s.err }

func TestRequireAuth(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	var seenPrincipal string
	var seenCoordinator bool
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seenPrincipal = requestcontext.Principal(r.Context()).String()
		seenCoordinator = requestcontext.HasRole(r.Context(), requestcontext.RoleCoordinator)
		w.WriteHeader(http.StatusNoContent)
	})

	run := func(v JWTValidator, header string) *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodGet, "/trees/tree-001", nil)
		if header != "" {
			req.Header.Set("Authorization", header)
		}
		rr := httptest.NewRecorder()
		RequireAuth(v, logger)(next).ServeHTTP(rr, req)
		return rr
	}

	t.Run("valid token sets principal and roles", func(t *testing.T) {
		rr := run(stubValidator{claims: &JWTClaims{Principal: "alice", Roles: []string{"coordinator"}}}, "Bearer abc")
		assert.Equal(t, http.StatusNoContent, rr.Code)
		assert.Equal(t, "alice", seenPrincipal)
		assert.True(t, seenCoordinator)
	})

	t.Run("missing header", func(t *testing.T) {
		rr := run(stubValidator{}, "")
		assert.Equal(t, http.StatusUnauthorized, rr.Code)
		assert.Contains(t, rr.Body.String(), "Missing or invalid Authorization header")
	})

	t.Run("wrong scheme", func(t *testing.T) {
		rr := run(stubValidator{}, "Basic abc")
		assert.Equal(t, http.StatusUnauthorized, rr.Code)
	})

	t.Run("invalid token", func(t *testing.T) {
		rr := run(stubValidator{err: errors.New("bad signature")}, "Bearer abc")
		assert.Equal(t, http.StatusUnauthorized, rr.Code)
		assert.Contains(t, rr.Body.String(), "Invalid or expired token")
	})

	t.Run("malformed subject", func(t *testing.T) {
		rr := run(stubValidator{claims: &JWTClaims{Principal: "has space"}}, "Bearer abc")
		assert.Equal(t, http.StatusUnauthorized, rr.Code)
	})
}
