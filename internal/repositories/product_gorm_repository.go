package repositories

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"productapi/internal/models"

	"go.mongodb.org/mongo-driver/bson/primitive"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

type productRecord struct {
	ID          string    `gorm:"primaryKey;type:varchar(24)"`
	Name        string    `gorm:"uniqueIndex;type:varchar(255);not null"`
	Description *string   `gorm:"type:text"`
	Price       float64   `gorm:"not null"`
	Stock       int       `gorm:"not null"`
	CreatedAt   time.Time `gorm:"not null"`
}

func (productRecord) TableName() string { return "products" }

func (r productRecord) toModel() models.Product {
	return models.Product{
		ID:          r.ID,
		Name:        r.Name,
		Description: r.Description,
		Price:       r.Price,
		Stock:       r.Stock,
		CreatedAt:   r.CreatedAt,
	}
}

// OpenGORM opens a postgres or sqlite database and migrates the products table.
func OpenGORM(driver, dsn string) (*gorm.DB, error) {
	var dialector gorm.Dialector
	switch driver {
	case "postgres":
		dialector = postgres.Open(dsn)
	case "sqlite":
		dialector = sqlite.Open(dsn)
	default:
		return nil, fmt.Errorf("unsupported SQL driver %q", driver)
	}

	db, err := gorm.Open(dialector, &gorm.Config{
		TranslateError: true,
		Logger:         logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}
	if err := db.AutoMigrate(&productRecord{}); err != nil {
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}
	return db, nil
}

// GORMProductRepository is a GORM implementation of ProductRepository.
type GORMProductRepository struct {
	db *gorm.DB
}

// NewGORMProductRepository creates a new instance of GORMProductRepository.
func NewGORMProductRepository(db *gorm.DB) *GORMProductRepository {
	return &GORMProductRepository{
		db: db,
	}
}

// Find retrieves the products matching q.
func (r *GORMProductRepository) Find(ctx context.Context, q models.ProductQuery) ([]models.Product, error) {
	tx := r.db.WithContext(ctx).Model(&productRecord{})
	if q.MinStock != nil {
		tx = tx.Where("stock >= ?", *q.MinStock)
	}
	switch q.SortBy {
	case models.SortPriceAsc:
		tx = tx.Order("price ASC").Order("id ASC")
	case models.SortPriceDesc:
		tx = tx.Order("price DESC").Order("id ASC")
	default:
		tx = tx.Order("created_at ASC").Order("id ASC")
	}
	if q.Limit > 0 {
		tx = tx.Limit(q.Limit)
	}
	tx = tx.Offset(q.Offset)

	var records []productRecord
	if err := tx.Find(&records).Error; err != nil {
		return nil, fmt.Errorf("failed to get products: %w", err)
	}
	return toModels(records), nil
}

// FindByID retrieves a single product by its ID from the database.
func (r *GORMProductRepository) FindByID(ctx context.Context, id string) (*models.Product, error) {
	if !primitive.IsValidObjectID(id) {
		return nil, ErrMalformedID
	}
	var record productRecord
	if err := r.db.WithContext(ctx).First(&record, "id = ?", id).Error; err != nil {
		return nil, translateGORMError(err, "failed to get product by ID "+id)
	}
	p := record.toModel()
	return &p, nil
}

// SearchByName retrieves products whose name contains term, ignoring case.
func (r *GORMProductRepository) SearchByName(ctx context.Context, term string) ([]models.Product, error) {
	pattern := "%" + escapeLike(strings.ToLower(term)) + "%"
	var records []productRecord
	err := r.db.WithContext(ctx).
		Where(`LOWER(name) LIKE ? ESCAPE '\'`, pattern).
		Order("created_at ASC").Order("id ASC").
		Find(&records).Error
	if err != nil {
		return nil, fmt.Errorf("failed to search products: %w", err)
	}
	return toModels(records), nil
}

// Insert creates a new product in the database.
func (r *GORMProductRepository) Insert(ctx context.Context, product *models.Product) error {
	record := productRecord{
		ID:          primitive.NewObjectID().Hex(),
		Name:        product.Name,
		Description: product.Description,
		Price:       product.Price,
		Stock:       product.Stock,
		CreatedAt:   time.Now().UTC(),
	}
	if err := r.db.WithContext(ctx).Create(&record).Error; err != nil {
		return translateGORMError(err, "failed to create product")
	}
	product.ID = record.ID
	product.CreatedAt = record.CreatedAt
	return nil
}

// UpdateByID applies changes inside a transaction and returns the updated row.
func (r *GORMProductRepository) UpdateByID(ctx context.Context, id string, changes models.ProductChanges) (*models.Product, error) {
	if !primitive.IsValidObjectID(id) {
		return nil, ErrMalformedID
	}

	var record productRecord
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.First(&record, "id = ?", id).Error; err != nil {
			return err
		}
		if changes.IsEmpty() {
			return nil
		}

		updates := map[string]interface{}{}
		if changes.Name != nil {
			updates["name"] = *changes.Name
		}
		if changes.ClearDescription {
			updates["description"] = nil
		} else if changes.Description != nil {
			updates["description"] = *changes.Description
		}
		if changes.Price != nil {
			updates["price"] = *changes.Price
		}
		if changes.Stock != nil {
			updates["stock"] = *changes.Stock
		}
		if err := tx.Model(&productRecord{}).Where("id = ?", id).Updates(updates).Error; err != nil {
			return err
		}
		return tx.First(&record, "id = ?", id).Error
	})
	if err != nil {
		return nil, translateGORMError(err, "failed to update product "+id)
	}
	p := record.toModel()
	return &p, nil
}

// DeleteByID deletes a product by its ID and returns the removed row.
func (r *GORMProductRepository) DeleteByID(ctx context.Context, id string) (*models.Product, error) {
	if !primitive.IsValidObjectID(id) {
		return nil, ErrMalformedID
	}

	var record productRecord
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.First(&record, "id = ?", id).Error; err != nil {
			return err
		}
		res := tx.Delete(&productRecord{}, "id = ?", id)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return gorm.ErrRecordNotFound
		}
		return nil
	})
	if err != nil {
		return nil, translateGORMError(err, "failed to delete product "+id)
	}
	p := record.toModel()
	return &p, nil
}

// DeleteAll removes every product.
func (r *GORMProductRepository) DeleteAll(ctx context.Context) (int64, error) {
	res := r.db.WithContext(ctx).Session(&gorm.Session{AllowGlobalUpdate: true}).Delete(&productRecord{})
	if res.Error != nil {
		return 0, fmt.Errorf("failed to delete products: %w", res.Error)
	}
	return res.RowsAffected, nil
}

// Ping checks the database connection.
func (r *GORMProductRepository) Ping(ctx context.Context) error {
	sqlDB, err := r.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.PingContext(ctx)
}

// Close closes the underlying connection pool.
func (r *GORMProductRepository) Close(context.Context) error {
	sqlDB, err := r.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

func toModels(records []productRecord) []models.Product {
	products := make([]models.Product, 0, len(records))
	for _, rec := range records {
		products = append(products, rec.toModel())
	}
	return products
}

func translateGORMError(err error, msg string) error {
	switch {
	case errors.Is(err, gorm.ErrRecordNotFound):
		return ErrNoMatch
	case errors.Is(err, gorm.ErrDuplicatedKey):
		return &DuplicateKeyError{Field: "name", Err: err}
	default:
		return fmt.Errorf("%s: %w", msg, err)
	}
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

func escapeLike(s string) string {
	return likeEscaper.Replace(s)
}
