package services

import (
	"context"

	"productapi/internal/models"
)

type principalKey struct{}

// ContextWithPrincipal returns a copy of ctx carrying p.
func ContextWithPrincipal(ctx context.Context, p *models.Principal) context.Context {
	return context.WithValue(ctx, principalKey{}, p)
}

// PrincipalFromContext returns the authenticated caller, or nil.
func PrincipalFromContext(ctx context.Context) *models.Principal {
	p, _ := ctx.Value(principalKey{}).(*models.Principal)
	return p
}

// RequireAuthenticated fails with Unauthenticated when ctx has no principal.
// action completes the message, e.g. "create products".
func RequireAuthenticated(ctx context.Context, action string) (*models.Principal, error) {
	p := PrincipalFromContext(ctx)
	if p == nil {
		return nil, Unauthenticated("you must be authenticated to " + action)
	}
	return p, nil
}

// RequireAdmin checks authentication first, then the ADMIN role.
func RequireAdmin(ctx context.Context, action string) (*models.Principal, error) {
	p, err := RequireAuthenticated(ctx, action)
	if err != nil {
		return nil, err
	}
	if !p.IsAdmin() {
		return nil, Forbidden("you do not have permission to " + action)
	}
	return p, nil
}
