// Package requestcontext provides HTTP-independent context accessors for request-scoped values.
//
// Middleware sets these values; services read them. Keeping the package free of
// net/http lets services depend on it without pulling in transport code.
//
// Usage in services:
//
//	caller := requestcontext.Principal(ctx)
//	now := requestcontext.Now(ctx)
//
// Usage in tests:
//
//	ctx = requestcontext.WithPrincipal(ctx, "user-1")
//	ctx = requestcontext.WithTime(ctx, fixedTime)
package requestcontext

import (
	"context"
	"slices"
	"time"

	"arbor/pkg/domain"
)

type (
	principalKey   struct{}
	rolesKey       struct{}
	requestIDKey   struct{}
	requestTimeKey struct{}
)

// Exported context keys for tests that need context.WithValue directly.
var (
	ContextKeyPrincipal   = principalKey{}
	ContextKeyRoles       = rolesKey{}
	ContextKeyRequestID   = requestIDKey{}
	ContextKeyRequestTime = requestTimeKey{}
)

// RoleCoordinator grants site, initiative and diversity administration.
const RoleCoordinator = "coordinator"

// -----------------------------------------------------------------------------
// Caller identity
// -----------------------------------------------------------------------------

// Principal returns the authenticated caller, or the empty principal if unset.
func Principal(ctx context.Context) domain.Principal {
	if p, ok := ctx.Value(ContextKeyPrincipal).(domain.Principal); ok {
		return p
	}
	return ""
}

func WithPrincipal(ctx context.Context, p domain.Principal) context.Context {
	return context.WithValue(ctx, ContextKeyPrincipal, p)
}

// Roles returns the caller's granted roles.
func Roles(ctx context.Context) []string {
	if roles, ok := ctx.Value(ContextKeyRoles).([]string); ok {
		return roles
	}
	return nil
}

func WithRoles(ctx context.Context, roles []string) context.Context {
	return context.WithValue(ctx, ContextKeyRoles, slices.Clone(roles))
}

// HasRole reports whether the caller holds role.
func HasRole(ctx context.Context, role string) bool {
	return slices.Contains(Roles(ctx), role)
}

// -----------------------------------------------------------------------------
// Request metadata
// -----------------------------------------------------------------------------

func RequestID(ctx context.Context) string {
	if reqID, ok := ctx.Value(ContextKeyRequestID).(string); ok {
		return reqID
	}
	return ""
}

func WithRequestID(ctx context.Context, requestID string) context.Context {
	return context.WithValue(ctx, ContextKeyRequestID, requestID)
}

// -----------------------------------------------------------------------------
// Request time
// -----------------------------------------------------------------------------

// Now retrieves the request-scoped time from context.
// Falls back to time.Now() if not set (workers, CLI, tests).
func Now(ctx context.Context) time.Time {
	if t, ok := ctx.Value(ContextKeyRequestTime).(time.Time); ok {
		return t
	}
	return time.Now()
}

// Timestamp is Now in whole Unix seconds, the registries' logical time.
func Timestamp(ctx context.Context) domain.Timestamp {
	return domain.TimestampOf(Now(ctx))
}

// WithTime injects a specific time into a context.
func WithTime(ctx context.Context, t time.Time) context.Context {
	return context.WithValue(ctx, ContextKeyRequestTime, t)
}
