package repository // repository for product persistence

import (
	"context"      // context for managing deadlines
	"database/sql" // sql provides DB interfaces

	"github.com/iliyamo/stock-reservation/internal/model"
)

// ProductRepo encapsulates database operations for the products table.
// It owns the stock quantity column: available_stock is only ever
// mutated through the conditional DecrementStock and the IncrementStock
// variants below.  No other code path may write it directly.
type ProductRepo struct {
	db *sql.DB
}

// NewProductRepo constructs a ProductRepo given a DB handle.
func NewProductRepo(db *sql.DB) *ProductRepo {
	return &ProductRepo{db: db}
}

// DB exposes the underlying handle so that collaborating repositories
// can open transactions spanning both tables.
func (r *ProductRepo) DB() *sql.DB { return r.db }

// GetByID returns a single product or ErrProductNotFound.
func (r *ProductRepo) GetByID(ctx context.Context, id uint64) (*model.Product, error) {
	const q = `SELECT id, name, price, available_stock FROM products WHERE id = ?`
	var p model.Product
	err := r.db.QueryRowContext(ctx, q, id).Scan(&p.ID, &p.Name, &p.Price, &p.AvailableStock)
	if err == sql.ErrNoRows {
		return nil, ErrProductNotFound
	}
	if err != nil {
		return nil, err
	}
	return &p, nil
}

// ListAll returns every product ordered by identifier ascending.
func (r *ProductRepo) ListAll(ctx context.Context) ([]model.Product, error) {
	const q = `SELECT id, name, price, available_stock FROM products ORDER BY id ASC`
	rows, err := r.db.QueryContext(ctx, q)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var products []model.Product
	for rows.Next() {
		var p model.Product
		if err := rows.Scan(&p.ID, &p.Name, &p.Price, &p.AvailableStock); err != nil {
			return nil, err
		}
		products = append(products, p)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return products, nil
}

// Count returns the number of products.  Used by the seeder to decide
// whether the catalogue has already been loaded.
func (r *ProductRepo) Count(ctx context.Context) (int, error) {
	var n int
	if err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM products`).Scan(&n); err != nil {
		return 0, err
	}
	return n, nil
}

// CreateBulk inserts multiple products in one statement.  Only name,
// price and available_stock are inserted; timestamps default in the DB.
// Passing an empty slice has no effect and returns nil.
func (r *ProductRepo) CreateBulk(ctx context.Context, products []model.Product) error {
	if len(products) == 0 {
		return nil
	}
	query := `INSERT INTO products (name, price, available_stock) VALUES `
	args := make([]interface{}, 0, len(products)*3)
	for i, p := range products {
		if i > 0 {
			query += ","
		}
		query += "(?, ?, ?)"
		args = append(args, p.Name, p.Price, p.AvailableStock)
	}
	_, err := r.db.ExecContext(ctx, query, args...)
	return err
}

// DecrementStock atomically reduces available_stock by qty, but only
// when the current value is at least qty.  It reports whether the
// adjustment applied.  The guard lives inside the single UPDATE rather
// than a preceding read so two concurrent reservations for the same
// product are serialized by the storage engine's row lock; at most the
// starting quantity is ever granted across all callers.
func (r *ProductRepo) DecrementStock(ctx context.Context, id uint64, qty int) (bool, error) {
	res, err := r.db.ExecContext(ctx,
		`UPDATE products SET available_stock = available_stock - ? WHERE id = ? AND available_stock >= ?`,
		qty, id, qty,
	)
	if err != nil {
		return false, err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return affected > 0, nil
}

// IncrementStock atomically adds qty back to available_stock.  It always
// succeeds when the product row exists.
func (r *ProductRepo) IncrementStock(ctx context.Context, id uint64, qty int) error {
	_, err := r.db.ExecContext(ctx,
		`UPDATE products SET available_stock = available_stock + ? WHERE id = ?`,
		qty, id,
	)
	return err
}

// IncrementStockTx is IncrementStock executed within the supplied
// transaction.  The reservation repository uses it so that an expiry's
// status transition and its stock restoration commit or roll back
// together.  The caller owns the transaction.
func (r *ProductRepo) IncrementStockTx(ctx context.Context, tx *sql.Tx, id uint64, qty int) error {
	_, err := tx.ExecContext(ctx,
		`UPDATE products SET available_stock = available_stock + ? WHERE id = ?`,
		qty, id,
	)
	return err
}
