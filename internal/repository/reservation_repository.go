package repository // repository for reservation persistence

import (
	"context"      // context for managing deadlines
	"database/sql" // sql provides DB interfaces
	"time"         // expiration timestamps

	"github.com/iliyamo/stock-reservation/internal/model"
)

// ReservationRepo provides data access to the reservations table.  All
// status transitions go through conditional UPDATEs guarded on the
// current status, so for any reservation at most one resolving
// transition (complete or expire) can ever apply.  Rows are never
// deleted.  Timestamps are stored and compared in UTC.
type ReservationRepo struct {
	db       *sql.DB
	products *ProductRepo
}

// NewReservationRepo returns a ReservationRepo bound to the provided
// database.  The product repository is required because expiring a
// reservation restores product stock inside the same transaction.
func NewReservationRepo(db *sql.DB, products *ProductRepo) *ReservationRepo {
	return &ReservationRepo{db: db, products: products}
}

// Create inserts a new ACTIVE reservation and returns its identifier.
// The created_at column defaults in the database.
func (r *ReservationRepo) Create(ctx context.Context, productID uint64, qty int, expiresAt time.Time) (uint64, error) {
	// Passed as time.Time so the driver keeps sub-second precision; the
	// expires_at column is DATETIME(3).
	res, err := r.db.ExecContext(ctx,
		`INSERT INTO reservations (product_id, quantity, status, expires_at) VALUES (?, ?, ?, ?)`,
		productID, qty, model.ReservationStatusActive, expiresAt.UTC(),
	)
	if err != nil {
		return 0, err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, err
	}
	return uint64(id), nil
}

const reservationJoinQuery = `
	SELECT r.id, r.product_id, r.quantity, r.status, r.created_at, r.expires_at,
		   p.id, p.name, p.price, p.available_stock
	FROM reservations r
	JOIN products p ON p.id = r.product_id`

func scanReservation(row interface{ Scan(...interface{}) error }) (*model.Reservation, error) {
	var (
		res model.Reservation
		p   model.Product
	)
	err := row.Scan(
		&res.ID, &res.ProductID, &res.Quantity, &res.Status, &res.CreatedAt, &res.ExpiresAt,
		&p.ID, &p.Name, &p.Price, &p.AvailableStock,
	)
	if err != nil {
		return nil, err
	}
	res.Product = &p
	return &res, nil
}

// GetByID returns a reservation joined with its product, or
// ErrReservationNotFound.
func (r *ReservationRepo) GetByID(ctx context.Context, id uint64) (*model.Reservation, error) {
	row := r.db.QueryRowContext(ctx, reservationJoinQuery+` WHERE r.id = ?`, id)
	res, err := scanReservation(row)
	if err == sql.ErrNoRows {
		return nil, ErrReservationNotFound
	}
	if err != nil {
		return nil, err
	}
	return res, nil
}

// ListAll returns every reservation joined with its product, most recent
// first.  The id tiebreak keeps the order stable when several leases are
// taken within the same second.
func (r *ReservationRepo) ListAll(ctx context.Context) ([]model.Reservation, error) {
	rows, err := r.db.QueryContext(ctx, reservationJoinQuery+` ORDER BY r.created_at DESC, r.id DESC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []model.Reservation
	for rows.Next() {
		res, err := scanReservation(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *res)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

// ListActive returns all reservations still in the ACTIVE state.  The
// scheduler uses this at startup to re-derive pending expirations from
// the persisted expires_at values after a restart.
func (r *ReservationRepo) ListActive(ctx context.Context) ([]model.Reservation, error) {
	const q = `SELECT id, product_id, quantity, status, created_at, expires_at
			   FROM reservations WHERE status = ?`
	rows, err := r.db.QueryContext(ctx, q, model.ReservationStatusActive)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []model.Reservation
	for rows.Next() {
		var res model.Reservation
		if err := rows.Scan(&res.ID, &res.ProductID, &res.Quantity, &res.Status, &res.CreatedAt, &res.ExpiresAt); err != nil {
			return nil, err
		}
		out = append(out, res)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

// MarkCompleted applies the ACTIVE -> COMPLETED transition and reports
// whether it applied.  The status guard inside the UPDATE is what makes
// completion and expiry mutually exclusive: whichever conditional write
// reaches the row first wins, the other sees zero affected rows.
func (r *ReservationRepo) MarkCompleted(ctx context.Context, id uint64) (bool, error) {
	res, err := r.db.ExecContext(ctx,
		`UPDATE reservations SET status = ? WHERE id = ? AND status = ?`,
		model.ReservationStatusCompleted, id, model.ReservationStatusActive,
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

// ExpireAndRestock applies the ACTIVE -> EXPIRED transition and, only
// when that transition applied, restores the reservation's quantity to
// the product's stock.  Both writes happen in one transaction: the
// increment never commits without the transition, so a redelivered or
// concurrently retried expiry can never restore stock twice.
func (r *ReservationRepo) ExpireAndRestock(ctx context.Context, id uint64) (bool, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return false, err
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()

	// Quantity and product are immutable after creation, so reading them
	// here is not part of the race.
	var (
		productID uint64
		qty       int
	)
	err = tx.QueryRowContext(ctx,
		`SELECT product_id, quantity FROM reservations WHERE id = ?`, id,
	).Scan(&productID, &qty)
	if err == sql.ErrNoRows {
		return false, ErrReservationNotFound
	}
	if err != nil {
		return false, err
	}

	res, err := tx.ExecContext(ctx,
		`UPDATE reservations SET status = ? WHERE id = ? AND status = ?`,
		model.ReservationStatusExpired, id, model.ReservationStatusActive,
	)
	if err != nil {
		return false, err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	if affected == 0 {
		// Already resolved by a completion or an earlier expiry; nothing
		// to restore.
		if err := tx.Commit(); err != nil {
			return false, err
		}
		committed = true
		return false, nil
	}

	if err := r.products.IncrementStockTx(ctx, tx, productID, qty); err != nil {
		return false, err
	}
	if err := tx.Commit(); err != nil {
		return false, err
	}
	committed = true
	return true, nil
}
