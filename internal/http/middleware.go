package http

import (
	"context"
	"net/http"
	"strconv"
	"strings"
)

// HeaderUserID carries the authenticated user. Authentication itself
// happens upstream of this service.
const HeaderUserID = "X-User-ID"

type userKey struct{}

// requireUser rejects requests without a positive numeric X-User-ID.
func requireUser(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		raw := strings.TrimSpace(r.Header.Get(HeaderUserID))
		id, err := strconv.ParseInt(raw, 10, 64)
		if raw == "" || err != nil || id <= 0 {
			UnauthorizedError("missing or invalid " + HeaderUserID + " header").Write(w)
			return
		}
		next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), userKey{}, id)))
	})
}

// userID returns the id stored by requireUser.
func userID(ctx context.Context) int64 {
	id, _ := ctx.Value(userKey{}).(int64)
	return id
}
