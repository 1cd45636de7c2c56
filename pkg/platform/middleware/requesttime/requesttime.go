// Package requesttime captures one "now" per request so every timestamp a
// request writes (lastUpdated, history updateTime, creationTime) agrees.
package requesttime

import (
	"net/http"
	"time"

	"arbor/pkg/requestcontext"
)

func Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := requestcontext.WithTime(r.Context(), time.Now())
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}
