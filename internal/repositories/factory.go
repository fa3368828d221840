package repositories

import (
	"context"
	"fmt"
)

// Options selects and configures a storage backend.
type Options struct {
	Driver        string // mongo, postgres, sqlite or memory
	MongoURI      string
	MongoDatabase string
	DSN           string
}

// Open constructs a ProductRepository for opts.Driver.
func Open(ctx context.Context, opts Options) (ProductRepository, error) {
	switch opts.Driver {
	case "mongo", "mongodb", "":
		repo, err := ConnectMongo(ctx, opts.MongoURI, opts.MongoDatabase)
		if err != nil {
			return nil, err
		}
		return repo, nil
	case "postgres", "sqlite":
		if opts.DSN == "" {
			return nil, fmt.Errorf("DATABASE_DSN required for %s storage", opts.Driver)
		}
		db, err := OpenGORM(opts.Driver, opts.DSN)
		if err != nil {
			return nil, err
		}
		return NewGORMProductRepository(db), nil
	case "memory", "mem":
		return NewMemoryProductRepository(), nil
	default:
		return nil, fmt.Errorf("unknown storage driver: %s", opts.Driver)
	}
}
