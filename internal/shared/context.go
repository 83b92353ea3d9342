package shared

import "context"

type userIDContextKey struct{}

// SuperUserID is the fixed identity of the built-in super administrator.
const SuperUserID int64 = 1

// ContextWithUserID stores the authenticated user id in context.
func ContextWithUserID(ctx context.Context, id int64) context.Context {
	return context.WithValue(ctx, userIDContextKey{}, id)
}

// UserIDFromContext extracts the authenticated user id from context.
func UserIDFromContext(ctx context.Context) (int64, bool) {
	id, ok := ctx.Value(userIDContextKey{}).(int64)
	return id, ok
}

// IsSuperUser reports whether the given id is the super administrator.
func IsSuperUser(id int64) bool {
	return id == SuperUserID
}
