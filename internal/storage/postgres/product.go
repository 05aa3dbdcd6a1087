package postgres

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/go-faster/errors"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/shopspring/decimal"

	"github.com/xenking/coffee-catalog/internal/domain/product"
)

const (
	productColumns = `id, name, description, price, category, available, created_at, updated_at`

	putProductSQL = `INSERT INTO products (` + productColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		ON CONFLICT (id) DO UPDATE SET
			name = EXCLUDED.name,
			description = EXCLUDED.description,
			price = EXCLUDED.price,
			category = EXCLUDED.category,
			available = EXCLUDED.available,
			created_at = EXCLUDED.created_at,
			updated_at = EXCLUDED.updated_at`

	getProductSQL = `SELECT ` + productColumns + ` FROM products WHERE id = $1`

	scanProductsSQL = `SELECT ` + productColumns + ` FROM products ORDER BY created_at, id`

	deleteProductSQL = `DELETE FROM products WHERE id = $1`
)

// columns maps product fields to their SQL columns.
var columns = map[product.Field]string{
	product.FieldName:        "name",
	product.FieldDescription: "description",
	product.FieldPrice:       "price",
	product.FieldCategory:    "category",
	product.FieldAvailable:   "available",
}

// DB is the subset of pgxpool.Pool used by ProductStore.
type DB interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	Ping(ctx context.Context) error
}

var _ product.Store = (*ProductStore)(nil)

// ProductStore implements product.Store backed by PostgreSQL.
type ProductStore struct {
	db DB
}

// NewProductStore returns a ProductStore that uses the given pool.
func NewProductStore(db DB) *ProductStore {
	return &ProductStore{db: db}
}

// Put inserts p or replaces the row with the same id.
func (s *ProductStore) Put(ctx context.Context, p product.Product) error {
	_, err := s.db.Exec(ctx, putProductSQL,
		p.ID, p.Name, p.Description, p.Price, string(p.Category), p.Available,
		p.CreatedAt, p.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("upserting product %q: %w", p.ID, err)
	}
	return nil
}

// Get returns a single product by its identifier.
func (s *ProductStore) Get(ctx context.Context, id string) (product.Product, bool, error) {
	rows, err := s.db.Query(ctx, getProductSQL, id)
	if err != nil {
		return product.Product{}, false, fmt.Errorf("getting product %q: %w", id, err)
	}
	p, err := pgx.CollectExactlyOneRow(rows, scanProduct)
	if errors.Is(err, pgx.ErrNoRows) {
		return product.Product{}, false, nil
	}
	if err != nil {
		return product.Product{}, false, fmt.Errorf("getting product %q: %w", id, err)
	}
	return p, true, nil
}

// Scan returns every product ordered by creation time.
func (s *ProductStore) Scan(ctx context.Context) ([]product.Product, error) {
	rows, err := s.db.Query(ctx, scanProductsSQL)
	if err != nil {
		return nil, fmt.Errorf("listing products: %w", err)
	}
	products, err := pgx.CollectRows(rows, scanProduct)
	if err != nil {
		return nil, fmt.Errorf("listing products: %w", err)
	}
	if products == nil {
		products = []product.Product{}
	}
	return products, nil
}

// Update applies changes in a single statement. A missing row matches
// nothing, so the write cannot recreate a deleted product.
func (s *ProductStore) Update(ctx context.Context, id string, changes []product.Change, updatedAt time.Time) (product.Product, bool, error) {
	query, args, err := buildUpdate(id, changes, updatedAt)
	if err != nil {
		return product.Product{}, false, err
	}
	rows, err := s.db.Query(ctx, query, args...)
	if err != nil {
		return product.Product{}, false, fmt.Errorf("updating product %q: %w", id, err)
	}
	p, err := pgx.CollectExactlyOneRow(rows, scanProduct)
	if errors.Is(err, pgx.ErrNoRows) {
		return product.Product{}, false, nil
	}
	if err != nil {
		return product.Product{}, false, fmt.Errorf("updating product %q: %w", id, err)
	}
	return p, true, nil
}

// Delete removes the row and reports whether one existed.
func (s *ProductStore) Delete(ctx context.Context, id string) (bool, error) {
	tag, err := s.db.Exec(ctx, deleteProductSQL, id)
	if err != nil {
		return false, fmt.Errorf("deleting product %q: %w", id, err)
	}
	return tag.RowsAffected() > 0, nil
}

// Ping checks database connectivity.
func (s *ProductStore) Ping(ctx context.Context) error {
	return s.db.Ping(ctx)
}

// buildUpdate renders an UPDATE ... RETURNING statement with one positional
// parameter per change, followed by updated_at and the id.
func buildUpdate(id string, changes []product.Change, updatedAt time.Time) (string, []any, error) {
	sets := make([]string, 0, len(changes)+1)
	args := make([]any, 0, len(changes)+2)

	for _, c := range changes {
		col, ok := columns[c.Field]
		if !ok {
			return "", nil, errors.Errorf("unknown field %q", c.Field)
		}
		v, err := columnValue(c)
		if err != nil {
			return "", nil, err
		}
		args = append(args, v)
		sets = append(sets, col+" = $"+strconv.Itoa(len(args)))
	}
	args = append(args, updatedAt)
	sets = append(sets, "updated_at = $"+strconv.Itoa(len(args)))
	args = append(args, id)

	query := "UPDATE products SET " + strings.Join(sets, ", ") +
		" WHERE id = $" + strconv.Itoa(len(args)) +
		" RETURNING " + productColumns
	return query, args, nil
}

func columnValue(c product.Change) (any, error) {
	switch v := c.Value.(type) {
	case string, bool, decimal.Decimal:
		return v, nil
	case product.Category:
		return string(v), nil
	default:
		return nil, errors.Errorf("field %s: unsupported value type %T", c.Field, c.Value)
	}
}

func scanProduct(row pgx.CollectableRow) (product.Product, error) {
	var (
		p        product.Product
		category string
	)
	err := row.Scan(
		&p.ID, &p.Name, &p.Description, &p.Price, &category, &p.Available,
		&p.CreatedAt, &p.UpdatedAt,
	)
	p.Category = product.Category(category)
	p.CreatedAt = p.CreatedAt.UTC()
	p.UpdatedAt = p.UpdatedAt.UTC()
	return p, err
}
