package repositories_test

import (
	"context"
	"errors"
	"fmt"
	"os"
	"testing"
	"time"

	"productapi/internal/models"
	"productapi/internal/repositories"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// runContract exercises the behaviour every ProductRepository must share.
// newRepo must return an empty repository.
func runContract(t *testing.T, newRepo func(t *testing.T) repositories.ProductRepository) {
	t.Run("InsertAssignsIdentity", func(t *testing.T) {
		repo := newRepo(t)
		ctx := context.Background()
		before := time.Now().Add(-time.Second)

		p := &models.Product{Name: "Keyboard", Price: 50, Stock: 10}
		require.NoError(t, repo.Insert(ctx, p))
		assert.True(t, primitive.IsValidObjectID(p.ID))
		assert.True(t, p.CreatedAt.After(before))

		got, err := repo.FindByID(ctx, p.ID)
		require.NoError(t, err)
		assert.Equal(t, p.ID, got.ID)
		assert.Equal(t, "Keyboard", got.Name)
		assert.Equal(t, 50.0, got.Price)
		assert.Equal(t, 10, got.Stock)
		assert.Nil(t, got.Description)
	})

	t.Run("DuplicateName", func(t *testing.T) {
		repo := newRepo(t)
		ctx := context.Background()
		require.NoError(t, repo.Insert(ctx, &models.Product{Name: "Mouse", Price: 1, Stock: 1}))

		err := repo.Insert(ctx, &models.Product{Name: "Mouse", Price: 2, Stock: 2})
		var dup *repositories.DuplicateKeyError
		require.True(t, errors.As(err, &dup), "got %v", err)
		assert.Equal(t, "name", dup.Field)
		assert.ErrorIs(t, err, repositories.ErrDuplicateKey)

		other := &models.Product{Name: "Pad", Price: 1, Stock: 1}
		require.NoError(t, repo.Insert(ctx, other))
		name := "Mouse"
		_, err = repo.UpdateByID(ctx, other.ID, models.ProductChanges{Name: &name})
		assert.ErrorIs(t, err, repositories.ErrDuplicateKey)
	})

	t.Run("IdentifierSignals", func(t *testing.T) {
		repo := newRepo(t)
		ctx := context.Background()
		missing := primitive.NewObjectID().Hex()

		_, err := repo.FindByID(ctx, "bogus")
		assert.ErrorIs(t, err, repositories.ErrMalformedID)
		_, err = repo.FindByID(ctx, missing)
		assert.ErrorIs(t, err, repositories.ErrNoMatch)

		stock := 1
		_, err = repo.UpdateByID(ctx, "bogus", models.ProductChanges{Stock: &stock})
		assert.ErrorIs(t, err, repositories.ErrMalformedID)
		_, err = repo.UpdateByID(ctx, missing, models.ProductChanges{Stock: &stock})
		assert.ErrorIs(t, err, repositories.ErrNoMatch)

		_, err = repo.DeleteByID(ctx, "bogus")
		assert.ErrorIs(t, err, repositories.ErrMalformedID)
		_, err = repo.DeleteByID(ctx, missing)
		assert.ErrorIs(t, err, repositories.ErrNoMatch)
	})

	t.Run("FindFiltersSortsAndPages", func(t *testing.T) {
		repo := newRepo(t)
		ctx := context.Background()
		for i, price := range []float64{30, 10, 50, 20, 40} {
			require.NoError(t, repo.Insert(ctx, &models.Product{Name: fmt.Sprintf("P%d", i), Price: price, Stock: i}))
		}

		asc, err := repo.Find(ctx, models.ProductQuery{SortBy: models.SortPriceAsc, Limit: 50})
		require.NoError(t, err)
		assert.Equal(t, []float64{10, 20, 30, 40, 50}, prices(asc))

		desc, err := repo.Find(ctx, models.ProductQuery{SortBy: models.SortPriceDesc, Limit: 2, Offset: 1})
		require.NoError(t, err)
		assert.Equal(t, []float64{40, 30}, prices(desc))

		minStock := 3
		filtered, err := repo.Find(ctx, models.ProductQuery{MinStock: &minStock, SortBy: models.SortNone, Limit: 50})
		require.NoError(t, err)
		assert.ElementsMatch(t, []float64{20, 40}, prices(filtered))

		empty, err := repo.Find(ctx, models.ProductQuery{SortBy: models.SortNone, Limit: 50, Offset: 10})
		require.NoError(t, err)
		assert.Empty(t, empty)
	})

	t.Run("SearchByNameIsLiteralAndCaseInsensitive", func(t *testing.T) {
		repo := newRepo(t)
		ctx := context.Background()
		for _, name := range []string{"ABCdef", "xAbCy", "nothing", "a.c", "50% off", "snake_case"} {
			require.NoError(t, repo.Insert(ctx, &models.Product{Name: name, Price: 1, Stock: 1}))
		}

		assert.ElementsMatch(t, []string{"ABCdef", "xAbCy"}, searchNames(t, repo, "abc"))
		assert.ElementsMatch(t, []string{"a.c"}, searchNames(t, repo, "."))
		assert.ElementsMatch(t, []string{"50% off"}, searchNames(t, repo, "%"))
		assert.ElementsMatch(t, []string{"snake_case"}, searchNames(t, repo, "_"))
		assert.Empty(t, searchNames(t, repo, "zzz"))
	})

	t.Run("UpdateAppliesOnlyChanges", func(t *testing.T) {
		repo := newRepo(t)
		ctx := context.Background()
		desc := "wireless"
		p := &models.Product{Name: "Headset", Description: &desc, Price: 80, Stock: 4}
		require.NoError(t, repo.Insert(ctx, p))

		price := 75.5
		updated, err := repo.UpdateByID(ctx, p.ID, models.ProductChanges{Price: &price})
		require.NoError(t, err)
		assert.Equal(t, 75.5, updated.Price)
		assert.Equal(t, 4, updated.Stock)
		require.NotNil(t, updated.Description)
		assert.Equal(t, "wireless", *updated.Description)

		cleared, err := repo.UpdateByID(ctx, p.ID, models.ProductChanges{ClearDescription: true})
		require.NoError(t, err)
		assert.Nil(t, cleared.Description)

		same, err := repo.UpdateByID(ctx, p.ID, models.ProductChanges{})
		require.NoError(t, err)
		assert.Equal(t, 75.5, same.Price)
	})

	t.Run("DeleteReturnsLastState", func(t *testing.T) {
		repo := newRepo(t)
		ctx := context.Background()
		p := &models.Product{Name: "Desk", Price: 300, Stock: 2}
		require.NoError(t, repo.Insert(ctx, p))

		deleted, err := repo.DeleteByID(ctx, p.ID)
		require.NoError(t, err)
		assert.Equal(t, "Desk", deleted.Name)

		_, err = repo.FindByID(ctx, p.ID)
		assert.ErrorIs(t, err, repositories.ErrNoMatch)
	})

	t.Run("DeleteAll", func(t *testing.T) {
		repo := newRepo(t)
		ctx := context.Background()
		require.NoError(t, repo.Insert(ctx, &models.Product{Name: "A", Price: 1, Stock: 1}))
		require.NoError(t, repo.Insert(ctx, &models.Product{Name: "B", Price: 1, Stock: 1}))

		n, err := repo.DeleteAll(ctx)
		require.NoError(t, err)
		assert.Equal(t, int64(2), n)

		left, err := repo.Find(ctx, models.ProductQuery{SortBy: models.SortNone, Limit: 50})
		require.NoError(t, err)
		assert.Empty(t, left)
		assert.NoError(t, repo.Ping(ctx))
	})
}

func prices(products []models.Product) []float64 {
	out := make([]float64, 0, len(products))
	for _, p := range products {
		out = append(out, p.Price)
	}
	return out
}

func searchNames(t *testing.T, repo repositories.ProductRepository, term string) []string {
	t.Helper()
	found, err := repo.SearchByName(context.Background(), term)
	require.NoError(t, err)
	names := make([]string, 0, len(found))
	for _, p := range found {
		names = append(names, p.Name)
	}
	return names
}

func TestMemoryProductRepository(t *testing.T) {
	runContract(t, func(t *testing.T) repositories.ProductRepository {
		return repositories.NewMemoryProductRepository()
	})
}

func TestGORMProductRepository_SQLite(t *testing.T) {
	runContract(t, func(t *testing.T) repositories.ProductRepository {
		db, err := repositories.OpenGORM("sqlite", "file::memory:")
		require.NoError(t, err)
		sqlDB, err := db.DB()
		require.NoError(t, err)
		// every pooled connection to :memory: would see its own empty database
		sqlDB.SetMaxOpenConns(1)

		repo := repositories.NewGORMProductRepository(db)
		t.Cleanup(func() { _ = repo.Close(context.Background()) })
		return repo
	})
}

func TestMongoProductRepository(t *testing.T) {
	uri := os.Getenv("MONGO_TEST_URI")
	if uri == "" {
		t.Skip("MONGO_TEST_URI not set")
	}

	runContract(t, func(t *testing.T) repositories.ProductRepository {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()

		repo, err := repositories.ConnectMongo(ctx, uri, "productapi_test")
		require.NoError(t, err)
		_, err = repo.DeleteAll(ctx)
		require.NoError(t, err)
		t.Cleanup(func() { _ = repo.Close(context.Background()) })
		return repo
	})
}

func TestOpen(t *testing.T) {
	ctx := context.Background()

	repo, err := repositories.Open(ctx, repositories.Options{Driver: "memory"})
	require.NoError(t, err)
	assert.IsType(t, &repositories.MemoryProductRepository{}, repo)

	repo, err = repositories.Open(ctx, repositories.Options{Driver: "sqlite", DSN: "file::memory:"})
	require.NoError(t, err)
	assert.IsType(t, &repositories.GORMProductRepository{}, repo)
	assert.NoError(t, repo.Close(ctx))

	_, err = repositories.Open(ctx, repositories.Options{Driver: "postgres"})
	assert.Error(t, err)

	_, err = repositories.Open(ctx, repositories.Options{Driver: "cassandra"})
	assert.Error(t, err)
}
