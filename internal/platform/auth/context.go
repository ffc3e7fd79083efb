package auth

import "context"

type contextKey string

const UserIDKey contextKey = "user_id"

// UserIDFromContext returns the authenticated user id, or "" when the
// request carries no identity.
func UserIDFromContext(ctx context.Context) string {
	uid, _ := ctx.Value(UserIDKey).(string)
	return uid
}

// WithUserID returns a context carrying the authenticated user id. Used by
// the middleware and by tests.
func WithUserID(ctx context.Context, userID string) context.Context {
	return context.WithValue(ctx, UserIDKey, userID)
}
