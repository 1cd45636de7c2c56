package requestcontext

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"arbor/pkg/domain"
)

func TestAccessors(t *testing.T) {
	t.Run("zero values when unset", func(t *testing.T) {
		ctx := context.Background()
		assert.True(t, Principal(ctx).IsNil())
		assert.Empty(t, Roles(ctx))
		assert.Empty(t, RequestID(ctx))
		assert.False(t, HasRole(ctx, RoleCoordinator))
	})

	t.Run("round trip", func(t *testing.T) {
		ctx := WithPrincipal(context.Background(), domain.Principal("alice"))
		ctx = WithRoles(ctx, []string{RoleCoordinator})
		ctx = WithRequestID(ctx, "req-1")

		assert.Equal(t, domain.Principal("alice"), Principal(ctx))
		assert.True(t, HasRole(ctx, RoleCoordinator))
		assert.Equal(t, "req-1", RequestID(ctx))
	})

	t.Run("roles are copied", func(t *testing.T) {
		roles := []string{RoleCoordinator}
		ctx := WithRoles(context.Background(), roles)
		roles[0] = "other"
		assert.True(t, HasRole(ctx, RoleCoordinator))
	})

	t.Run("request time is truncated to seconds", func(t *testing.T) {
		fixed := time.Date(2021, 7, 1, 0, 0, 0, 999_000_000, time.UTC)
		ctx := WithTime(context.Background(), fixed)
		assert.Equal(t, fixed, Now(ctx))
		assert.Equal(t, domain.Timestamp(1625097600), Timestamp(ctx))
	})
}
