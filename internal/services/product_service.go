package services

import (
	"context"
	"time"

	"productapi/internal/metrics"
	"productapi/internal/models"
	"productapi/internal/repositories"
	"productapi/pkg/logger"
)

// DefaultListLimit is the page size used when a listing gives no limit.
const DefaultListLimit = 50

// EventPublisher receives product lifecycle events after successful writes.
type EventPublisher interface {
	PublishProductEvent(ctx context.Context, event models.ProductEvent) error
}

// ProductService handles business logic related to products. It holds no
// per-request state and is shared by all requests.
type ProductService struct {
	repo      repositories.ProductRepository
	errs      *Normalizer
	log       *logger.Logger
	publisher EventPublisher
	timeout   time.Duration
	now       func() time.Time
}

// ProductServiceOption customizes a ProductService.
type ProductServiceOption func(*ProductService)

// WithPublisher publishes lifecycle events through p.
func WithPublisher(p EventPublisher) ProductServiceOption {
	return func(s *ProductService) { s.publisher = p }
}

// WithStorageTimeout bounds every storage call by d.
func WithStorageTimeout(d time.Duration) ProductServiceOption {
	return func(s *ProductService) { s.timeout = d }
}

// WithMetrics counts normalized failures in m.
func WithMetrics(m *metrics.Metrics) ProductServiceOption {
	return func(s *ProductService) { s.errs = NewNormalizer(s.log, m) }
}

// NewProductService creates a new ProductService.
func NewProductService(repo repositories.ProductRepository, log *logger.Logger, opts ...ProductServiceOption) *ProductService {
	if log == nil {
		log = logger.Nop()
	}
	s := &ProductService{
		repo: repo,
		log:  log,
		now:  time.Now,
	}
	s.errs = NewNormalizer(log, nil)
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// List returns a page of products filtered by minimum stock and ordered by price.
func (s *ProductService) List(ctx context.Context, f models.ListFilter) ([]models.Product, error) {
	q, err := resolveQuery(f)
	if err != nil {
		return nil, s.errs.Normalize("list", err)
	}

	ctx, cancel := s.storageContext(ctx)
	defer cancel()

	products, err := s.repo.Find(ctx, q)
	if err != nil {
		return nil, s.errs.Normalize("list", err)
	}
	if products == nil {
		products = []models.Product{}
	}
	return products, nil
}

// GetByID retrieves a single product by its ID.
func (s *ProductService) GetByID(ctx context.Context, id string) (*models.Product, error) {
	ctx, cancel := s.storageContext(ctx)
	defer cancel()

	product, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, s.errs.Normalize("getById", err)
	}
	return product, nil
}

// SearchByName returns products whose name contains term in any case.
// An absent or empty term behaves like an unfiltered List.
func (s *ProductService) SearchByName(ctx context.Context, term *string) ([]models.Product, error) {
	if term == nil || *term == "" {
		return s.List(ctx, models.ListFilter{})
	}

	ctx, cancel := s.storageContext(ctx)
	defer cancel()

	products, err := s.repo.SearchByName(ctx, *term)
	if err != nil {
		return nil, s.errs.Normalize("searchByName", err)
	}
	if products == nil {
		products = []models.Product{}
	}
	return products, nil
}

// Create validates in and stores a new product.
func (s *ProductService) Create(ctx context.Context, in models.ProductInput) (*models.Product, error) {
	if err := ValidateProductInput(in, true); err != nil {
		return nil, s.errs.Normalize("create", err)
	}
	product := newProduct(in)

	sctx, cancel := s.storageContext(ctx)
	defer cancel()

	if err := s.repo.Insert(sctx, &product); err != nil {
		return nil, s.errs.Normalize("create", err)
	}

	s.publish(ctx, models.EventProductCreated, product)
	return &product, nil
}

// Update validates the fields present in in and applies them to product id.
func (s *ProductService) Update(ctx context.Context, id string, in models.ProductInput) (*models.Product, error) {
	if err := ValidateProductInput(in, false); err != nil {
		return nil, s.errs.Normalize("update", err)
	}

	sctx, cancel := s.storageContext(ctx)
	defer cancel()

	product, err := s.repo.UpdateByID(sctx, id, toChanges(in))
	if err != nil {
		return nil, s.errs.Normalize("update", err)
	}

	s.publish(ctx, models.EventProductUpdated, *product)
	return product, nil
}

// Delete removes product id and returns its last state.
func (s *ProductService) Delete(ctx context.Context, id string) (*models.Product, error) {
	sctx, cancel := s.storageContext(ctx)
	defer cancel()

	product, err := s.repo.DeleteByID(sctx, id)
	if err != nil {
		return nil, s.errs.Normalize("delete", err)
	}

	s.publish(ctx, models.EventProductDeleted, *product)
	return product, nil
}

func (s *ProductService) storageContext(ctx context.Context) (context.Context, context.CancelFunc) {
	if s.timeout <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, s.timeout)
}

func (s *ProductService) publish(ctx context.Context, eventType string, product models.Product) {
	if s.publisher == nil {
		return
	}
	event := models.ProductEvent{Type: eventType, Product: product, OccurredAt: s.now().UTC()}
	if err := s.publisher.PublishProductEvent(ctx, event); err != nil {
		s.log.Warn().
			Err(err).
			Str("event", eventType).
			Str("product_id", product.ID).
			Msg("failed to publish product event")
	}
}

func resolveQuery(f models.ListFilter) (models.ProductQuery, error) {
	q := models.ProductQuery{
		MinStock: f.MinStock,
		SortBy:   f.SortBy,
		Limit:    DefaultListLimit,
	}
	switch q.SortBy {
	case "":
		q.SortBy = models.SortNone
	case models.SortNone, models.SortPriceAsc, models.SortPriceDesc:
	default:
		return q, InvalidInput("sortBy", "sortBy must be one of price_asc, price_desc, none")
	}
	if f.Limit != nil {
		if *f.Limit <= 0 {
			return q, InvalidInput("limit", "limit must be greater than zero")
		}
		q.Limit = *f.Limit
	}
	if f.Offset != nil {
		if *f.Offset < 0 {
			return q, InvalidInput("offset", "offset cannot be negative")
		}
		q.Offset = *f.Offset
	}
	return q, nil
}
