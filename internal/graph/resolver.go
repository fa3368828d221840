package graph

import (
	"context"

	"productapi/internal/metrics"
	"productapi/internal/models"
	"productapi/internal/services"
	"productapi/pkg/logger"

	"github.com/graph-gophers/graphql-go"
)

// ProductService is the business layer the resolvers dispatch to.
type ProductService interface {
	List(ctx context.Context, f models.ListFilter) ([]models.Product, error)
	GetByID(ctx context.Context, id string) (*models.Product, error)
	SearchByName(ctx context.Context, term *string) ([]models.Product, error)
	Create(ctx context.Context, in models.ProductInput) (*models.Product, error)
	Update(ctx context.Context, id string, in models.ProductInput) (*models.Product, error)
	Delete(ctx context.Context, id string) (*models.Product, error)
}

// Resolver is the root resolver for both queries and mutations.
type Resolver struct {
	products ProductService
	log      *logger.Logger
	errs     *services.Normalizer
}

// ResolverOption configures a Resolver.
type ResolverOption func(*Resolver)

// WithErrorMetrics counts authorization failures in m alongside the
// business-layer failures.
func WithErrorMetrics(m *metrics.Metrics) ResolverOption {
	return func(r *Resolver) { r.errs = services.NewNormalizer(r.log, m) }
}

// NewResolver creates the root resolver.
func NewResolver(products ProductService, log *logger.Logger, opts ...ResolverOption) *Resolver {
	if log == nil {
		log = logger.Nop()
	}
	r := &Resolver{products: products, log: log}
	r.errs = services.NewNormalizer(log, nil)
	for _, opt := range opts {
		opt(r)
	}
	return r
}

type productsListArgs struct {
	MinStock *int32
	SortBy   *string
	Limit    *int32
	Offset   *int32
}

func (r *Resolver) ProductsList(ctx context.Context, args productsListArgs) ([]*productResolver, error) {
	f := models.ListFilter{
		MinStock: intPtr(args.MinStock),
		Limit:    intPtr(args.Limit),
		Offset:   intPtr(args.Offset),
	}
	if args.SortBy != nil {
		f.SortBy = models.ProductSort(*args.SortBy)
	}

	products, err := r.products.List(ctx, f)
	if err != nil {
		return nil, err
	}
	return wrapProducts(products), nil
}

func (r *Resolver) ProductByID(ctx context.Context, args struct{ ID graphql.ID }) (*productResolver, error) {
	p, err := r.products.GetByID(ctx, string(args.ID))
	if err != nil {
		return nil, err
	}
	return wrapProduct(p), nil
}

func (r *Resolver) SearchByName(ctx context.Context, args struct{ Name *string }) ([]*productResolver, error) {
	products, err := r.products.SearchByName(ctx, args.Name)
	if err != nil {
		return nil, err
	}
	return wrapProducts(products), nil
}

type addProductArgs struct {
	Name        string
	Description graphql.NullString
	Price       float64
	Stock       int32
}

func (r *Resolver) AddProduct(ctx context.Context, args addProductArgs) (*productResolver, error) {
	if _, err := services.RequireAuthenticated(ctx, "create products"); err != nil {
		return nil, r.denied("addProduct", err)
	}

	in := models.ProductInput{
		Name:        models.Some(args.Name),
		Description: nullString(args.Description),
		Price:       models.Some(args.Price),
		Stock:       models.Some(float64(args.Stock)),
	}
	p, err := r.products.Create(ctx, in)
	if err != nil {
		return nil, err
	}
	return wrapProduct(p), nil
}

type updateProductArgs struct {
	ID          graphql.ID
	Name        graphql.NullString
	Description graphql.NullString
	Price       graphql.NullFloat
	Stock       graphql.NullInt
}

func (r *Resolver) UpdateProduct(ctx context.Context, args updateProductArgs) (*productResolver, error) {
	if _, err := services.RequireAuthenticated(ctx, "update products"); err != nil {
		return nil, r.denied("updateProduct", err)
	}

	u := splitUpdate(args)
	p, err := r.products.Update(ctx, u.ID, u.Fields)
	if err != nil {
		return nil, err
	}
	return wrapProduct(p), nil
}

func (r *Resolver) DeleteProduct(ctx context.Context, args struct{ ID graphql.ID }) (*productResolver, error) {
	if _, err := services.RequireAdmin(ctx, "delete products"); err != nil {
		return nil, r.denied("deleteProduct", err)
	}

	p, err := r.products.Delete(ctx, string(args.ID))
	if err != nil {
		return nil, err
	}
	return wrapProduct(p), nil
}

func (r *Resolver) denied(op string, err error) error {
	return r.errs.Normalize(op, err)
}

// splitUpdate separates the target id from the fields to change. Fields the
// client omitted stay absent; explicit nulls are kept as present nulls.
func splitUpdate(args updateProductArgs) models.ProductUpdate {
	fields := models.ProductInput{
		Name:        nullString(args.Name),
		Description: nullString(args.Description),
	}
	if args.Price.Set {
		fields.Price = models.Optional[float64]{Present: true, Value: args.Price.Value}
	}
	if args.Stock.Set {
		fields.Stock = models.Optional[float64]{Present: true}
		if args.Stock.Value != nil {
			v := float64(*args.Stock.Value)
			fields.Stock.Value = &v
		}
	}
	return models.ProductUpdate{ID: string(args.ID), Fields: fields}
}

func nullString(s graphql.NullString) models.Optional[string] {
	if !s.Set {
		return models.Optional[string]{}
	}
	return models.Optional[string]{Present: true, Value: s.Value}
}

func intPtr(v *int32) *int {
	if v == nil {
		return nil
	}
	i := int(*v)
	return &i
}
