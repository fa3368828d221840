package graph

import (
	"context"
	_ "embed"

	"productapi/pkg/logger"

	"github.com/graph-gophers/graphql-go"
)

//go:embed schema.graphql
var schemaSDL string

// SchemaSDL returns the GraphQL schema served by the API.
func SchemaSDL() string {
	return schemaSDL
}

// NewSchema parses the product schema and binds it to r.
func NewSchema(r *Resolver) (*graphql.Schema, error) {
	return graphql.ParseSchema(schemaSDL, r,
		graphql.MaxDepth(8),
		graphql.Logger(panicLogger{log: r.log}),
	)
}

// panicLogger routes resolver panics to the application logger.
type panicLogger struct {
	log *logger.Logger
}

func (l panicLogger) LogPanic(_ context.Context, value interface{}) {
	l.log.Error().Interface("panic", value).Msg("graphql resolver panic")
}
