// Package requestcontext provides HTTP-independent context accessors for
// request-scoped values.
//
// This package defines context keys and getter/setter functions for values
// that are typically set by middleware but consumed by services. By keeping
// this package free of net/http dependencies, services can import only what
// they need without pulling in HTTP-related code.
//
// Usage in services (read values):
//
//	tenantID := requestcontext.TenantID(ctx)
//	requestID := requestcontext.RequestID(ctx)
//	now := requestcontext.Now(ctx)
//
// Usage in tests (inject values):
//
//	ctx = requestcontext.WithTenantID(ctx, tenantID)
//	ctx = requestcontext.WithTime(ctx, fixedTime)
package requestcontext

import (
	"context"
	"time"

	id "sovereign/pkg/domain"
)

// Context key types (unexported for encapsulation).
type (
	tenantIDKey     struct{}
	actorKey        struct{}
	requestIDKey    struct{}
	requestTimeKey  struct{}
	clientIPKey     struct{}
	claimsKey       struct{}
	jurisdictionKey struct{}
)

// Exported context keys for direct use in tests that need context.WithValue.
var (
	ContextKeyTenantID     = tenantIDKey{}
	ContextKeyActor        = actorKey{}
	ContextKeyRequestID    = requestIDKey{}
	ContextKeyRequestTime  = requestTimeKey{}
	ContextKeyClientIP     = clientIPKey{}
	ContextKeyClaims       = claimsKey{}
	ContextKeyJurisdiction = jurisdictionKey{}
)

// TenantID retrieves the authenticated tenant ID from the context.
// Returns the zero value (nil UUID) if not set.
func TenantID(ctx context.Context) id.TenantID {
	if tenantID, ok := ctx.Value(ContextKeyTenantID).(id.TenantID); ok {
		return tenantID
	}
	return id.TenantID{}
}

// WithTenantID injects a tenant ID into the context.
func WithTenantID(ctx context.Context, tenantID id.TenantID) context.Context {
	return context.WithValue(ctx, ContextKeyTenantID, tenantID)
}

// Actor retrieves the acting principal (subject claim) from the context.
func Actor(ctx context.Context) string {
	if actor, ok := ctx.Value(ContextKeyActor).(string); ok {
		return actor
	}
	return ""
}

// WithActor injects the acting principal into the context.
func WithActor(ctx context.Context, actor string) context.Context {
	return context.WithValue(ctx, ContextKeyActor, actor)
}

// RequestID retrieves the request ID from the context.
func RequestID(ctx context.Context) string {
	if reqID, ok := ctx.Value(ContextKeyRequestID).(string); ok {
		return reqID
	}
	return ""
}

// WithRequestID injects a request ID into the context.
func WithRequestID(ctx context.Context, requestID string) context.Context {
	return context.WithValue(ctx, ContextKeyRequestID, requestID)
}

// ClientIP retrieves the client IP address from the context.
func ClientIP(ctx context.Context) string {
	if ip, ok := ctx.Value(ContextKeyClientIP).(string); ok {
		return ip
	}
	return ""
}

// WithClientIP injects the client IP into the context.
func WithClientIP(ctx context.Context, ip string) context.Context {
	return context.WithValue(ctx, ContextKeyClientIP, ip)
}

// Claims retrieves the verified token claims from the context. Returns nil
// when the request carried no token.
func Claims(ctx context.Context) map[string]any {
	if claims, ok := ctx.Value(ContextKeyClaims).(map[string]any); ok {
		return claims
	}
	return nil
}

// WithClaims injects verified token claims into the context.
func WithClaims(ctx context.Context, claims map[string]any) context.Context {
	return context.WithValue(ctx, ContextKeyClaims, claims)
}

// Jurisdiction retrieves the resolved request jurisdiction from the context.
func Jurisdiction(ctx context.Context) id.Jurisdiction {
	if j, ok := ctx.Value(ContextKeyJurisdiction).(id.Jurisdiction); ok {
		return j
	}
	return ""
}

// WithJurisdiction injects the resolved jurisdiction into the context.
func WithJurisdiction(ctx context.Context, j id.Jurisdiction) context.Context {
	return context.WithValue(ctx, ContextKeyJurisdiction, j)
}

// Now retrieves the request-scoped time from context.
// Falls back to time.Now() if not set (for non-HTTP contexts like workers,
// CLI, tests).
func Now(ctx context.Context) time.Time {
	if t, ok := ctx.Value(ContextKeyRequestTime).(time.Time); ok {
		return t
	}
	return time.Now()
}

// WithTime injects a specific time into a context.
// Useful for service unit tests that don't run the full HTTP middleware
// chain, and for workers that need consistent time within a batch.
func WithTime(ctx context.Context, t time.Time) context.Context {
	return context.WithValue(ctx, ContextKeyRequestTime, t)
}
