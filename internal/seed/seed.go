package seed

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"

	"productapi/internal/models"
	"productapi/internal/services"
	"productapi/pkg/logger"
)

// ErrProduction is returned when seeding is attempted against a production environment.
var ErrProduction = errors.New("refusing to seed in production")

// Store is the part of the repository seeding needs directly.
type Store interface {
	DeleteAll(ctx context.Context) (int64, error)
}

// Creator validates and inserts products.
type Creator interface {
	Create(ctx context.Context, in models.ProductInput) (*models.Product, error)
}

// Result summarizes a seeding run.
type Result struct {
	Deleted  int64
	Inserted int
}

// LoadFile reads a JSON array of products.
func LoadFile(path string) ([]models.ProductInput, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read seed file: %w", err)
	}
	var inputs []models.ProductInput
	if err := json.Unmarshal(raw, &inputs); err != nil {
		return nil, fmt.Errorf("failed to decode seed file %s: %w", path, err)
	}
	return inputs, nil
}

// Run wipes the store and inserts inputs through creator so every fixture
// passes the same validation as API writes. It stops at the first failure.
func Run(ctx context.Context, env string, store Store, creator Creator, inputs []models.ProductInput, log *logger.Logger) (Result, error) {
	var res Result
	if env == "production" {
		return res, ErrProduction
	}
	if log == nil {
		log = logger.Nop()
	}

	deleted, err := store.DeleteAll(ctx)
	if err != nil {
		return res, fmt.Errorf("failed to clear products: %w", err)
	}
	res.Deleted = deleted
	log.Info().Int64("deleted", deleted).Msg("product collection cleared")

	for i, in := range inputs {
		p, err := creator.Create(ctx, in)
		if err != nil {
			if services.KindOf(err) == services.KindDuplicateKey {
				log.Error().Int("index", i).Msg("check that product names in the seed file are unique")
			}
			return res, fmt.Errorf("seed product %d: %w", i, err)
		}
		res.Inserted++
		log.Debug().Str("id", p.ID).Str("name", p.Name).Msg("seeded product")
	}

	log.Info().Int("inserted", res.Inserted).Msg("seed data inserted")
	return res, nil
}
