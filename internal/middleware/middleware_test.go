package middleware_test

import (
	"bytes"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"productapi/internal/middleware"
	"productapi/internal/models"
	"productapi/internal/services"
	"productapi/pkg/logger"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type MockAuthenticator struct {
	mock.Mock
}

func (m *MockAuthenticator) Authenticate(credential string) (*models.Principal, error) {
	args := m.Called(credential)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Principal), args.Error(1)
}

func newApp(auth middleware.Authenticator, log *logger.Logger) *fiber.App {
	app := fiber.New()
	app.Use(middleware.RequestID())
	app.Use(middleware.Principal(auth, log))
	app.Get("/whoami", func(c *fiber.Ctx) error {
		p := services.PrincipalFromContext(c.UserContext())
		if p == nil {
			return c.SendString("anonymous")
		}
		if middleware.PrincipalFrom(c) != p {
			return c.SendString("mismatch")
		}
		return c.SendString(p.ID + ":" + p.Role)
	})
	return app
}

func whoami(t *testing.T, app *fiber.App, credential string) string {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, "/whoami", nil)
	if credential != "" {
		req.Header.Set("Authorization", credential)
	}
	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return string(body)
}

func TestPrincipal(t *testing.T) {
	auth := new(MockAuthenticator)
	auth.On("Authenticate", "Bearer good").Return(&models.Principal{ID: "u1", Role: models.RoleUser}, nil)
	auth.On("Authenticate", "Bearer bad").Return(nil, errors.New("invalid credential"))

	logs := &bytes.Buffer{}
	app := newApp(auth, logger.New(logger.Config{Env: "test", Level: "debug", Output: logs}))

	assert.Equal(t, "anonymous", whoami(t, app, ""))
	assert.Equal(t, "u1:USER", whoami(t, app, "Bearer good"))
	assert.Equal(t, "anonymous", whoami(t, app, "Bearer bad"))
	assert.Contains(t, logs.String(), "credential rejected")

	auth.AssertNumberOfCalls(t, "Authenticate", 2)
}

func TestRequestID(t *testing.T) {
	app := newApp(new(MockAuthenticator), nil)

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/whoami", nil), -1)
	require.NoError(t, err)
	resp.Body.Close()
	generated := resp.Header.Get(middleware.HeaderRequestID)
	assert.Len(t, generated, 36)

	req := httptest.NewRequest(http.MethodGet, "/whoami", nil)
	req.Header.Set(middleware.HeaderRequestID, "abc")
	resp, err = app.Test(req, -1)
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, "abc", resp.Header.Get(middleware.HeaderRequestID))
}

func TestRequestLoggerRecordsErrors(t *testing.T) {
	logs := &bytes.Buffer{}
	app := fiber.New()
	app.Use(middleware.RequestID())
	app.Use(middleware.RequestLogger(logger.New(logger.Config{Env: "test", Level: "debug", Output: logs}), nil))
	app.Get("/boom", func(c *fiber.Ctx) error {
		return fiber.NewError(fiber.StatusTeapot, "short and stout")
	})

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/boom", nil), -1)
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, fiber.StatusTeapot, resp.StatusCode)
	assert.Contains(t, logs.String(), `"status":418`)
}
