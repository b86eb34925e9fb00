package middleware

import (
	"context"

	"github.com/Yuriltlef/ApexFlow-sub001/pkg/enums"
)

type contextKey string

const (
	ctxUserID      contextKey = "user_id"
	ctxUsername    contextKey = "username"
	ctxPermissions contextKey = "permissions"
)

func UserIDFromContext(ctx context.Context) string {
	if ctx == nil {
		return ""
	}
	if v, ok := ctx.Value(ctxUserID).(string); ok {
		return v
	}
	return ""
}

func UsernameFromContext(ctx context.Context) string {
	if ctx == nil {
		return ""
	}
	if v, ok := ctx.Value(ctxUsername).(string); ok {
		return v
	}
	return ""
}

// PermissionsFromContext returns the permissions carried by the verified token.
func PermissionsFromContext(ctx context.Context) []enums.Permission {
	if ctx == nil {
		return nil
	}
	if v, ok := ctx.Value(ctxPermissions).([]enums.Permission); ok {
		return v
	}
	return nil
}

// WithPrincipal injects the caller identity and permissions into the context.
func WithPrincipal(ctx context.Context, userID, username string, perms []enums.Permission) context.Context {
	if ctx == nil {
		ctx = context.Background()
	}
	ctx = context.WithValue(ctx, ctxUserID, userID)
	ctx = context.WithValue(ctx, ctxUsername, username)
	return context.WithValue(ctx, ctxPermissions, perms)
}
