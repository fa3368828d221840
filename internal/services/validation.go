package services

import (
	"math"
	"strings"

	"productapi/internal/models"

	"github.com/go-playground/validator/v10"
)

var validate = validator.New()

// ValidateProductInput checks the business rules on the fields present in in.
// With requireAll set (create), name, price and stock must also be present.
func ValidateProductInput(in models.ProductInput, requireAll bool) error {
	if err := validateName(in.Name, requireAll); err != nil {
		return err
	}
	if err := validatePrice(in.Price, requireAll); err != nil {
		return err
	}
	return validateStock(in.Stock, requireAll)
}

func validateName(name models.Optional[string], required bool) error {
	switch {
	case !name.Present:
		if required {
			return InvalidInput("name", "name is required")
		}
		return nil
	case name.IsNull():
		return InvalidInput("name", "name cannot be null")
	}
	if validate.Var(strings.TrimSpace(*name.Value), "required") != nil {
		return InvalidInput("name", "name cannot be empty")
	}
	return nil
}

func validatePrice(price models.Optional[float64], required bool) error {
	switch {
	case !price.Present:
		if required {
			return InvalidInput("price", "price is required")
		}
		return nil
	case price.IsNull():
		return InvalidInput("price", "price cannot be null")
	}
	v := *price.Value
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return InvalidInput("price", "price must be a finite number")
	}
	if validate.Var(v, "gte=0") != nil {
		return InvalidInput("price", "price cannot be negative")
	}
	return nil
}

func validateStock(stock models.Optional[float64], required bool) error {
	switch {
	case !stock.Present:
		if required {
			return InvalidInput("stock", "stock is required")
		}
		return nil
	case stock.IsNull():
		return InvalidInput("stock", "stock cannot be null")
	}
	v := *stock.Value
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return InvalidInput("stock", "stock must be an integer")
	}
	if validate.Var(v, "gte=0") != nil {
		return InvalidInput("stock", "stock cannot be negative")
	}
	if v != math.Trunc(v) {
		return InvalidInput("stock", "stock must be an integer")
	}
	if v > math.MaxInt32 {
		return InvalidInput("stock", "stock is too large")
	}
	return nil
}

// newProduct builds the record to insert from a validated create payload.
func newProduct(in models.ProductInput) models.Product {
	p := models.Product{
		Name:  strings.TrimSpace(*in.Name.Value),
		Price: *in.Price.Value,
		Stock: int(*in.Stock.Value),
	}
	if in.Description.Present && in.Description.Value != nil {
		d := strings.TrimSpace(*in.Description.Value)
		p.Description = &d
	}
	return p
}

// toChanges converts a validated update payload into storage changes.
func toChanges(in models.ProductInput) models.ProductChanges {
	var c models.ProductChanges
	if in.Name.Present {
		name := strings.TrimSpace(*in.Name.Value)
		c.Name = &name
	}
	if in.Description.IsNull() {
		c.ClearDescription = true
	} else if in.Description.Present {
		d := strings.TrimSpace(*in.Description.Value)
		c.Description = &d
	}
	if in.Price.Present {
		price := *in.Price.Value
		c.Price = &price
	}
	if in.Stock.Present {
		stock := int(*in.Stock.Value)
		c.Stock = &stock
	}
	return c
}
