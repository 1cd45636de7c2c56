package testutil

import (
	"net/http"

	"arbor/pkg/domain"
	"arbor/pkg/requestcontext"
)

// WithPrincipal adds a caller to the request context, as the auth middleware
// would for an authenticated request.
func WithPrincipal(req *http.Request, principal string, roles ...string) *http.Request {
	ctx := requestcontext.WithPrincipal(req.Context(), domain.Principal(principal))
	if len(roles) > 0 {
		ctx = requestcontext.WithRoles(ctx, roles)
	}
	return req.WithContext(ctx)
}
