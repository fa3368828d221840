package repositories

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"productapi/internal/models"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// MemoryProductRepository is an in-memory implementation of ProductRepository.
// Identifiers use the same ObjectID format as the MongoDB backend.
type MemoryProductRepository struct {
	products map[string]models.Product
	order    []string
	mu       sync.RWMutex
}

// NewMemoryProductRepository creates a new instance of MemoryProductRepository.
func NewMemoryProductRepository() *MemoryProductRepository {
	return &MemoryProductRepository{
		products: make(map[string]models.Product),
	}
}

// Find returns the products matching q in insertion order unless a sort is requested.
func (r *MemoryProductRepository) Find(_ context.Context, q models.ProductQuery) ([]models.Product, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	list := make([]models.Product, 0, len(r.order))
	for _, id := range r.order {
		p := r.products[id]
		if q.MinStock != nil && p.Stock < *q.MinStock {
			continue
		}
		list = append(list, p)
	}

	switch q.SortBy {
	case models.SortPriceAsc:
		sort.SliceStable(list, func(i, j int) bool { return list[i].Price < list[j].Price })
	case models.SortPriceDesc:
		sort.SliceStable(list, func(i, j int) bool { return list[i].Price > list[j].Price })
	}

	if q.Offset >= len(list) {
		return []models.Product{}, nil
	}
	list = list[q.Offset:]
	if q.Limit > 0 && q.Limit < len(list) {
		list = list[:q.Limit]
	}
	return list, nil
}

// FindByID returns a product by its ID.
func (r *MemoryProductRepository) FindByID(_ context.Context, id string) (*models.Product, error) {
	if !primitive.IsValidObjectID(id) {
		return nil, ErrMalformedID
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	product, ok := r.products[id]
	if !ok {
		return nil, ErrNoMatch
	}
	return &product, nil
}

// SearchByName returns products whose name contains term, ignoring case.
func (r *MemoryProductRepository) SearchByName(_ context.Context, term string) ([]models.Product, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	needle := strings.ToLower(term)
	list := make([]models.Product, 0)
	for _, id := range r.order {
		p := r.products[id]
		if strings.Contains(strings.ToLower(p.Name), needle) {
			list = append(list, p)
		}
	}
	return list, nil
}

// Insert adds a new product, assigning its ID and creation time.
func (r *MemoryProductRepository) Insert(_ context.Context, product *models.Product) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.nameTaken(product.Name, "") {
		return &DuplicateKeyError{Field: "name", Err: ErrDuplicateKey}
	}

	product.ID = primitive.NewObjectID().Hex()
	product.CreatedAt = time.Now().UTC()
	r.products[product.ID] = *product
	r.order = append(r.order, product.ID)
	return nil
}

// UpdateByID applies changes to an existing product and returns the result.
func (r *MemoryProductRepository) UpdateByID(_ context.Context, id string, changes models.ProductChanges) (*models.Product, error) {
	if !primitive.IsValidObjectID(id) {
		return nil, ErrMalformedID
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	product, ok := r.products[id]
	if !ok {
		return nil, ErrNoMatch
	}
	if changes.Name != nil && r.nameTaken(*changes.Name, id) {
		return nil, &DuplicateKeyError{Field: "name", Err: ErrDuplicateKey}
	}

	applyChanges(&product, changes)
	r.products[id] = product
	return &product, nil
}

// DeleteByID removes a product and returns its last state.
func (r *MemoryProductRepository) DeleteByID(_ context.Context, id string) (*models.Product, error) {
	if !primitive.IsValidObjectID(id) {
		return nil, ErrMalformedID
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	product, ok := r.products[id]
	if !ok {
		return nil, ErrNoMatch
	}
	delete(r.products, id)
	for i, existing := range r.order {
		if existing == id {
			r.order = append(r.order[:i], r.order[i+1:]...)
			break
		}
	}
	return &product, nil
}

// DeleteAll empties the repository.
func (r *MemoryProductRepository) DeleteAll(_ context.Context) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	n := int64(len(r.products))
	r.products = make(map[string]models.Product)
	r.order = nil
	return n, nil
}

func (r *MemoryProductRepository) Ping(context.Context) error { return nil }

func (r *MemoryProductRepository) Close(context.Context) error { return nil }

// nameTaken must be called with the lock held.
func (r *MemoryProductRepository) nameTaken(name, exceptID string) bool {
	for id, p := range r.products {
		if id != exceptID && p.Name == name {
			return true
		}
	}
	return false
}

func applyChanges(p *models.Product, c models.ProductChanges) {
	if c.Name != nil {
		p.Name = *c.Name
	}
	if c.ClearDescription {
		p.Description = nil
	} else if c.Description != nil {
		d := *c.Description
		p.Description = &d
	}
	if c.Price != nil {
		p.Price = *c.Price
	}
	if c.Stock != nil {
		p.Stock = *c.Stock
	}
}
