package repositories

import (
	"context"
	"errors"
	"fmt"

	"productapi/internal/models"
)

// Signals every ProductRepository implementation reports, so callers can tell
// storage outcomes apart from generic failures.
var (
	ErrNoMatch      = errors.New("no product matches the given id")
	ErrMalformedID  = errors.New("malformed product id")
	ErrDuplicateKey = errors.New("duplicate key")
)

// DuplicateKeyError reports a uniqueness violation on Field.
type DuplicateKeyError struct {
	Field string
	Err   error
}

func (e *DuplicateKeyError) Error() string {
	return fmt.Sprintf("duplicate value for unique field %q: %v", e.Field, e.Err)
}

// Is lets errors.Is match ErrDuplicateKey.
func (e *DuplicateKeyError) Is(target error) bool { return target == ErrDuplicateKey }

func (e *DuplicateKeyError) Unwrap() error { return e.Err }

// ProductRepository defines the interface for product data access.
type ProductRepository interface {
	Find(ctx context.Context, q models.ProductQuery) ([]models.Product, error)
	FindByID(ctx context.Context, id string) (*models.Product, error)
	SearchByName(ctx context.Context, term string) ([]models.Product, error)
	Insert(ctx context.Context, product *models.Product) error
	UpdateByID(ctx context.Context, id string, changes models.ProductChanges) (*models.Product, error)
	DeleteByID(ctx context.Context, id string) (*models.Product, error)
	DeleteAll(ctx context.Context) (int64, error)
	Ping(ctx context.Context) error
	Close(ctx context.Context) error
}
