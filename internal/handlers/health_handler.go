package handlers

import (
	"context"
	"time"

	"productapi/pkg/logger"

	"github.com/gofiber/fiber/v2"
)

// Pinger reports whether a backing store is reachable.
type Pinger interface {
	Ping(ctx context.Context) error
}

// HealthHandler reports service and storage health.
type HealthHandler struct {
	storage Pinger
	timeout time.Duration
	log     *logger.Logger
}

// NewHealthHandler creates a new HealthHandler.
func NewHealthHandler(storage Pinger, timeout time.Duration, log *logger.Logger) *HealthHandler {
	if timeout <= 0 {
		timeout = 2 * time.Second
	}
	if log == nil {
		log = logger.Nop()
	}
	return &HealthHandler{storage: storage, timeout: timeout, log: log}
}

// RegisterRoutes registers the health route with the Fiber app.
func (h *HealthHandler) RegisterRoutes(router fiber.Router) {
	router.Get("/health", h.HandleHealth)
}

// HandleHealth pings storage and answers 503 when it is unreachable.
func (h *HealthHandler) HandleHealth(c *fiber.Ctx) error {
	ctx, cancel := context.WithTimeout(c.UserContext(), h.timeout)
	defer cancel()

	body := fiber.Map{
		"status":  "healthy",
		"storage": "up",
		"time":    time.Now().UTC().Format(time.RFC3339),
	}
	if err := h.storage.Ping(ctx); err != nil {
		h.log.Error().Err(err).Msg("storage health check failed")
		body["status"] = "unhealthy"
		body["storage"] = "down"
		return c.Status(fiber.StatusServiceUnavailable).JSON(body)
	}
	return c.Status(fiber.StatusOK).JSON(body)
}
