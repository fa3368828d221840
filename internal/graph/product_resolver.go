package graph

import (
	"time"

	"productapi/internal/models"

	"github.com/graph-gophers/graphql-go"
)

type productResolver struct {
	p models.Product
}

func wrapProduct(p *models.Product) *productResolver {
	if p == nil {
		return nil
	}
	return &productResolver{p: *p}
}

func wrapProducts(products []models.Product) []*productResolver {
	out := make([]*productResolver, 0, len(products))
	for _, p := range products {
		out = append(out, &productResolver{p: p})
	}
	return out
}

func (r *productResolver) ID() graphql.ID {
	return graphql.ID(r.p.ID)
}

func (r *productResolver) Name() string {
	return r.p.Name
}

func (r *productResolver) Description() *string {
	return r.p.Description
}

func (r *productResolver) Price() float64 {
	return r.p.Price
}

func (r *productResolver) Stock() int32 {
	return int32(r.p.Stock)
}

func (r *productResolver) CreatedAt() string {
	return r.p.CreatedAt.UTC().Format(time.RFC3339Nano)
}
