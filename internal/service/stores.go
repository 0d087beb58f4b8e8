package service

import (
	"context"
	"time"

	"github.com/iliyamo/stock-reservation/internal/model"
)

// StockStore is the ledger of available product stock.  Implementations
// must make DecrementStock a single conditional write (never a
// read-then-write pair) so that concurrent reservations for the same
// product are serialized by the store and the quantity can never go
// negative.  Lookups return repository.ErrProductNotFound for missing
// products.
type StockStore interface {
	GetByID(ctx context.Context, id uint64) (*model.Product, error)
	ListAll(ctx context.Context) ([]model.Product, error)
	// DecrementStock reduces stock by qty only when at least qty is
	// available, reporting whether the adjustment applied.
	DecrementStock(ctx context.Context, id uint64, qty int) (bool, error)
	// IncrementStock adds qty back; it succeeds whenever the product exists.
	IncrementStock(ctx context.Context, id uint64, qty int) error
}

// ReservationStore persists reservation records and their one-way status
// transitions.  MarkCompleted and ExpireAndRestock are compare-and-swap
// updates guarded on the current status being ACTIVE; at most one of
// them can ever apply for a given reservation.  ExpireAndRestock must
// restore the product's stock in the same transaction as the transition,
// and only when the transition applied.  Lookups return
// repository.ErrReservationNotFound for missing reservations.
type ReservationStore interface {
	Create(ctx context.Context, productID uint64, qty int, expiresAt time.Time) (uint64, error)
	GetByID(ctx context.Context, id uint64) (*model.Reservation, error)
	ListAll(ctx context.Context) ([]model.Reservation, error)
	ListActive(ctx context.Context) ([]model.Reservation, error)
	MarkCompleted(ctx context.Context, id uint64) (bool, error)
	ExpireAndRestock(ctx context.Context, id uint64) (bool, error)
}

// ExpiryScheduler arms a one-shot delayed invocation of the expire path
// for a reservation.  Delivery is at-least-once; the expire path is
// idempotent, so duplicate firings are harmless.  There is no cancel
// operation: a timer firing on an already completed reservation is a
// guaranteed no-op.
type ExpiryScheduler interface {
	Schedule(ctx context.Context, reservationID uint64, delay time.Duration) error
}
