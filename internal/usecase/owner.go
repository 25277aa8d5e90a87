package usecase

import (
	"context"

	"github.com/iho/bookkeeper/internal/domain"
)

// visibleTo reports whether the principal in ctx may see a resource of ownerID.
// Calls without a principal (CLI, worker) see every owner.
func visibleTo(ctx context.Context, ownerID string) bool {
	p, ok := domain.PrincipalFromContext(ctx)
	return !ok || p.OwnerID == ownerID
}

func actorOf(ctx context.Context) string {
	if p, ok := domain.PrincipalFromContext(ctx); ok {
		return p.OwnerID
	}
	return systemActor
}

// ownerOf resolves the owner for a new resource: the principal wins over input.
func ownerOf(ctx context.Context, requested string) string {
	if p, ok := domain.PrincipalFromContext(ctx); ok {
		return p.OwnerID
	}
	return requested
}

func requestIDOf(ctx context.Context) string {
	if id, ok := ctx.Value(RequestIDKey{}).(string); ok {
		return id
	}
	return ""
}

// RequestIDKey carries the request ID recorded in audit logs.
type RequestIDKey struct{}

// WithRequestID stores the request ID that audit logs record.
func WithRequestID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, RequestIDKey{}, id)
}
