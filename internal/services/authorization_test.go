package services_test

import (
	"context"
	"testing"

	"productapi/internal/models"
	"productapi/internal/services"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRequireAuthenticated(t *testing.T) {
	_, err := services.RequireAuthenticated(context.Background(), "create products")
	assert.Equal(t, services.KindUnauthenticated, services.KindOf(err))
	assert.Contains(t, err.Error(), "create products")

	user := &models.Principal{ID: "u1", Role: models.RoleUser}
	p, err := services.RequireAuthenticated(services.ContextWithPrincipal(context.Background(), user), "create products")
	require.NoError(t, err)
	assert.Equal(t, user, p)
}

func TestRequireAdmin(t *testing.T) {
	_, err := services.RequireAdmin(context.Background(), "delete products")
	assert.Equal(t, services.KindUnauthenticated, services.KindOf(err), "missing principal is never Forbidden")

	userCtx := services.ContextWithPrincipal(context.Background(), &models.Principal{ID: "u1", Role: models.RoleUser})
	_, err = services.RequireAdmin(userCtx, "delete products")
	assert.Equal(t, services.KindForbidden, services.KindOf(err))

	adminCtx := services.ContextWithPrincipal(context.Background(), &models.Principal{ID: "a1", Role: models.RoleAdmin})
	p, err := services.RequireAdmin(adminCtx, "delete products")
	require.NoError(t, err)
	assert.True(t, p.IsAdmin())
}

func TestErrorExtensions(t *testing.T) {
	cases := map[services.Kind]string{
		services.KindInvalidInput:      "BAD_USER_INPUT",
		services.KindInvalidIdentifier: "BAD_USER_INPUT",
		services.KindUnauthenticated:   "UNAUTHENTICATED",
		services.KindForbidden:         "FORBIDDEN",
		services.KindNotFound:          "NOT_FOUND",
		services.KindDuplicateKey:      "ALREADY_EXISTS",
		services.KindInternal:          "INTERNAL_SERVER_ERROR",
	}
	for kind, code := range cases {
		assert.Equal(t, code, kind.Code(), kind.String())
	}

	ext := services.InvalidInput("price", "price cannot be negative").Extensions()
	assert.Equal(t, map[string]interface{}{"code": "BAD_USER_INPUT", "field": "price"}, ext)
	assert.NotContains(t, services.Forbidden("no").Extensions(), "field")
}
