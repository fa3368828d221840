package models

import "time"

// Product represents a product in the catalog.
type Product struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	Description *string   `json:"description,omitempty"`
	Price       float64   `json:"price"`
	Stock       int       `json:"stock"`
	CreatedAt   time.Time `json:"createdAt"`
}

// ProductInput is a write payload. Fields left absent are not touched by an
// update; Stock is carried as a float so non-integral values can be rejected.
type ProductInput struct {
	Name        Optional[string]  `json:"name"`
	Description Optional[string]  `json:"description"`
	Price       Optional[float64] `json:"price"`
	Stock       Optional[float64] `json:"stock"`
}

// IsEmpty reports whether no field is present.
func (in ProductInput) IsEmpty() bool {
	return !in.Name.Present && !in.Description.Present && !in.Price.Present && !in.Stock.Present
}

// ProductUpdate pairs the target identifier with the fields to change.
type ProductUpdate struct {
	ID     string
	Fields ProductInput
}

// ProductChanges is the validated, normalized form of an update handed to storage.
type ProductChanges struct {
	Name             *string
	Description      *string
	ClearDescription bool
	Price            *float64
	Stock            *int
}

// IsEmpty reports whether the changes would leave the record untouched.
func (c ProductChanges) IsEmpty() bool {
	return c.Name == nil && c.Description == nil && !c.ClearDescription && c.Price == nil && c.Stock == nil
}

// ProductSort selects the ordering of a product listing.
type ProductSort string

const (
	SortNone      ProductSort = "none"
	SortPriceAsc  ProductSort = "price_asc"
	SortPriceDesc ProductSort = "price_desc"
)

// ListFilter holds the optional arguments of a product listing.
type ListFilter struct {
	MinStock *int
	SortBy   ProductSort
	Limit    *int
	Offset   *int
}

// ProductQuery is a fully resolved listing request passed to storage.
type ProductQuery struct {
	MinStock *int
	SortBy   ProductSort
	Limit    int
	Offset   int
}
