// Package tenantctx carries the active tenant and acting user through the
// request context. Every domain service resolves the tenant from here; the
// audit hooks resolve the actor.
package tenantctx

import (
	"context"
	"strings"

	"github.com/bwmarrin/snowflake"
)

// TenantContextKey is the request context key for the active tenant ID.
type TenantContextKey struct{}

// ActorContextKey is the request context key for the acting user ID.
type ActorContextKey struct{}

// WithTenantID stores the tenant ID in the context.
func WithTenantID(ctx context.Context, tenantID snowflake.ID) context.Context {
	return context.WithValue(ctx, TenantContextKey{}, tenantID)
}

// WithActor stores the acting user ID in the context.
func WithActor(ctx context.Context, actorID string) context.Context {
	return context.WithValue(ctx, ActorContextKey{}, actorID)
}

// TenantID returns the tenant ID from context, if set.
func TenantID(ctx context.Context) (snowflake.ID, bool) {
	if ctx == nil {
		return 0, false
	}
	switch typed := ctx.Value(TenantContextKey{}).(type) {
	case int64:
		return snowflake.ID(typed), true
	case snowflake.ID:
		return typed, true
	case string:
		parsed, err := snowflake.ParseString(strings.TrimSpace(typed))
		if err == nil {
			return parsed, true
		}
	}
	return 0, false
}

// Actor returns the acting user ID from context, or "" when unauthenticated
// (system jobs, migrations).
func Actor(ctx context.Context) string {
	if ctx == nil {
		return ""
	}
	if actor, ok := ctx.Value(ActorContextKey{}).(string); ok {
		return actor
	}
	return ""
}
