package server

import (
	"encoding/json"
	"errors"
	"time"

	"productapi/internal/graph"
	"productapi/internal/handlers"
	"productapi/internal/metrics"
	"productapi/internal/middleware"
	"productapi/pkg/logger"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Deps are the collaborators the HTTP app is built from.
type Deps struct {
	Name         string
	Products     graph.ProductService
	Auth         middleware.Authenticator
	Storage      handlers.Pinger
	Metrics      *metrics.Metrics
	Log          *logger.Logger
	Production   bool
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
}

// New builds the Fiber app serving /graphql, /health and /metrics.
func New(d Deps) (*fiber.App, error) {
	if d.Log == nil {
		d.Log = logger.Nop()
	}
	if d.Products == nil || d.Auth == nil || d.Storage == nil {
		return nil, errors.New("server: products, auth and storage are required")
	}

	schema, err := graph.NewSchema(graph.NewResolver(d.Products, d.Log.Component("graphql"), graph.WithErrorMetrics(d.Metrics)))
	if err != nil {
		return nil, err
	}

	app := fiber.New(fiber.Config{
		AppName:               d.Name,
		ReadTimeout:           d.ReadTimeout,
		WriteTimeout:          d.WriteTimeout,
		DisableStartupMessage: true,
		JSONEncoder:           json.Marshal,
		JSONDecoder:           json.Unmarshal,
	})

	app.Use(middleware.RequestID())
	app.Use(middleware.RequestLogger(d.Log.Component("http"), d.Metrics))
	app.Use(recover.New(recover.Config{EnableStackTrace: !d.Production}))
	app.Use(middleware.Principal(d.Auth, d.Log.Component("auth")))

	formatter := graph.NewErrorFormatter(d.Production, d.Log.Component("graphql"))
	handlers.NewGraphQLHandler(schema, formatter, d.Log).RegisterRoutes(app)
	handlers.NewHealthHandler(d.Storage, 0, d.Log).RegisterRoutes(app)

	if d.Metrics != nil {
		app.Get("/metrics", adaptor.HTTPHandler(promhttp.HandlerFor(d.Metrics.Registry, promhttp.HandlerOpts{})))
	}

	return app, nil
}
