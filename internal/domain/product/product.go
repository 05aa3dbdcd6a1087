package product

import (
	"context"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// Category is one of the fixed catalog sections a product belongs to.
type Category string

// Catalog categories.
const (
	CategoryEspresso    Category = "espresso"
	CategoryCoffee      Category = "coffee"
	CategoryLatte       Category = "latte"
	CategoryCappuccino  Category = "cappuccino"
	CategoryFrappuccino Category = "frappuccino"
	CategoryTea         Category = "tea"
	CategoryPastry      Category = "pastry"
	CategorySandwich    Category = "sandwich"
)

// Categories lists every valid category in display order.
var Categories = []Category{
	CategoryEspresso,
	CategoryCoffee,
	CategoryLatte,
	CategoryCappuccino,
	CategoryFrappuccino,
	CategoryTea,
	CategoryPastry,
	CategorySandwich,
}

// Valid reports whether c is a member of Categories.
func (c Category) Valid() bool {
	for _, v := range Categories {
		if c == v {
			return true
		}
	}
	return false
}

func categoryList() string {
	names := make([]string, len(Categories))
	for i, c := range Categories {
		names[i] = string(c)
	}
	return strings.Join(names, ", ")
}

// Product represents a catalog item sold by the shop.
type Product struct {
	ID          string
	Name        string
	Description string
	Price       decimal.Decimal
	Category    Category
	Available   bool
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// CreateRequest holds validated input for a new product. Available is nil
// when the caller did not supply it.
type CreateRequest struct {
	Name        string
	Description string
	Price       decimal.Decimal
	Category    Category
	Available   *bool
}

// UpdateRequest holds validated input for a partial update. A nil field was
// not supplied and must be left untouched.
type UpdateRequest struct {
	Name        *string
	Description *string
	Price       *decimal.Decimal
	Category    *Category
	Available   *bool
}

// Field names a mutable product attribute.
type Field string

// Mutable fields, named as they are persisted.
const (
	FieldName        Field = "name"
	FieldDescription Field = "description"
	FieldPrice       Field = "price"
	FieldCategory    Field = "category"
	FieldAvailable   Field = "available"
)

// Change is a single attribute assignment of a partial update. Value holds a
// string, decimal.Decimal, Category or bool depending on Field.
type Change struct {
	Field Field
	Value any
}

// Changes returns the supplied fields in a fixed order: name, description,
// price, category, available.
func (r UpdateRequest) Changes() []Change {
	changes := make([]Change, 0, 5)
	if r.Name != nil {
		changes = append(changes, Change{Field: FieldName, Value: *r.Name})
	}
	if r.Description != nil {
		changes = append(changes, Change{Field: FieldDescription, Value: *r.Description})
	}
	if r.Price != nil {
		changes = append(changes, Change{Field: FieldPrice, Value: *r.Price})
	}
	if r.Category != nil {
		changes = append(changes, Change{Field: FieldCategory, Value: *r.Category})
	}
	if r.Available != nil {
		changes = append(changes, Change{Field: FieldAvailable, Value: *r.Available})
	}
	return changes
}

// Apply returns a copy of p with changes assigned and UpdatedAt set. Stores
// without native partial updates use it to compute the stored item.
func Apply(p Product, changes []Change, updatedAt time.Time) Product {
	for _, c := range changes {
		switch c.Field {
		case FieldName:
			p.Name = c.Value.(string)
		case FieldDescription:
			p.Description = c.Value.(string)
		case FieldPrice:
			p.Price = c.Value.(decimal.Decimal)
		case FieldCategory:
			p.Category = c.Value.(Category)
		case FieldAvailable:
			p.Available = c.Value.(bool)
		}
	}
	p.UpdatedAt = updatedAt
	return p
}

// Store is the single-table persistence backend keyed by product ID.
//
// Get, Update and Delete report a missing item with a false result rather
// than an error. Update and Delete only touch an item that still exists at
// write time.
type Store interface {
	Put(ctx context.Context, p Product) error
	Get(ctx context.Context, id string) (Product, bool, error)
	Scan(ctx context.Context) ([]Product, error)
	Update(ctx context.Context, id string, changes []Change, updatedAt time.Time) (Product, bool, error)
	Delete(ctx context.Context, id string) (bool, error)
}
