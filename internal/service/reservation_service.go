// Package service implements the inventory leasing engine: reserving
// stock, completing a purchase before the lease runs out, and expiring
// overdue leases with their stock restored.  Correctness rests entirely
// on the conditional-write contracts of the stores; the service holds no
// locks of its own and every operation is safe to run concurrently
// across processes.
package service

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/iliyamo/stock-reservation/internal/model"
	"github.com/iliyamo/stock-reservation/internal/repository"
)

// DefaultHoldTTL is how long a reservation holds stock when no duration
// is configured.
const DefaultHoldTTL = 120 * time.Second

// ReservationService coordinates the stock ledger, the reservation
// records and the expiration scheduler.  The stock decrement and the
// reservation insert are not transactional with each other, so Reserve
// compensates manually when the insert fails; the expire path, by
// contrast, runs its transition and its stock restoration in a single
// store transaction.
type ReservationService struct {
	stock        StockStore
	reservations ReservationStore
	scheduler    ExpiryScheduler
	holdTTL      time.Duration
}

// NewReservationService constructs the service.  All dependencies must
// be non-nil.  A non-positive holdTTL falls back to DefaultHoldTTL.
func NewReservationService(stock StockStore, reservations ReservationStore, scheduler ExpiryScheduler, holdTTL time.Duration) *ReservationService {
	if stock == nil || reservations == nil || scheduler == nil {
		panic("nil dependency passed to NewReservationService")
	}
	if holdTTL <= 0 {
		holdTTL = DefaultHoldTTL
	}
	return &ReservationService{
		stock:        stock,
		reservations: reservations,
		scheduler:    scheduler,
		holdTTL:      holdTTL,
	}
}

// HoldTTL returns the configured lease duration.
func (s *ReservationService) HoldTTL() time.Duration { return s.holdTTL }

// Reserve leases qty units of a product's stock for the configured
// duration.  Stock is decremented now, at reservation time, so the sum
// of outstanding ACTIVE leases can never exceed the stock that existed
// when they were taken.
//
// Errors: repository.ErrProductNotFound for an unknown product,
// ErrInvalidQuantity / ErrInsufficientStock for bad requests, and
// ErrStockConflict when the atomic decrement lost the race.
func (s *ReservationService) Reserve(ctx context.Context, productID uint64, qty int) (*model.Reservation, error) {
	if qty <= 0 {
		return nil, ErrInvalidQuantity
	}
	product, err := s.stock.GetByID(ctx, productID)
	if err != nil {
		return nil, err
	}
	// Fast pre-check for a friendlier error before the race-prone path.
	// The decrement's own guard below is the only correctness barrier.
	if qty > product.AvailableStock {
		return nil, ErrInsufficientStock
	}

	ok, err := s.stock.DecrementStock(ctx, productID, qty)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, ErrStockConflict
	}

	expiresAt := time.Now().UTC().Add(s.holdTTL)
	id, err := s.reservations.Create(ctx, productID, qty, expiresAt)
	if err != nil {
		// The decrement and the insert are independently committed, so
		// put the stock back before surfacing the storage error.  A
		// failed compensation leaves the ledger short; that degraded
		// state must be visible in the logs, never swallowed.
		if incErr := s.stock.IncrementStock(ctx, productID, qty); incErr != nil {
			log.Printf("reserve: compensating increment failed for product %d qty %d: %v", productID, qty, incErr)
		}
		return nil, err
	}

	if err := s.scheduler.Schedule(ctx, id, s.holdTTL); err != nil {
		// The lease stands: the startup recovery scan re-derives missed
		// expirations from expires_at.
		log.Printf("reserve: failed to arm expiry for reservation %d: %v", id, err)
	}

	return s.reservations.GetByID(ctx, id)
}

// CompletePurchase resolves an ACTIVE reservation as purchased.  The
// stock stays decremented permanently.  Completing an already completed
// reservation is an idempotent success, not an error; completing an
// expired one returns ErrReservationExpired.
func (s *ReservationService) CompletePurchase(ctx context.Context, id uint64) (*model.Reservation, error) {
	applied, err := s.reservations.MarkCompleted(ctx, id)
	if err != nil {
		return nil, err
	}
	if applied {
		return s.reservations.GetByID(ctx, id)
	}

	// The guard did not apply: the reservation is missing or already
	// resolved.  Re-read to find out which.
	res, err := s.reservations.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	switch res.Status {
	case model.ReservationStatusCompleted:
		return res, nil
	case model.ReservationStatusExpired:
		return nil, ErrReservationExpired
	default:
		// Statuses are terminal once left, so an ACTIVE row after a
		// failed compare-and-swap points at a storage anomaly.
		return nil, fmt.Errorf("reservation %d: conditional complete failed but status is %s", id, res.Status)
	}
}

// ExpireReservation resolves an overdue reservation and restores its
// stock.  It is invoked by the scheduler, possibly more than once per
// reservation; the status guard inside ExpireAndRestock makes duplicate
// invocations no-ops, so stock is restored exactly once.  A missing or
// already resolved reservation is not an error.  Storage errors are
// returned so the scheduler's redelivery can retry; they are never
// surfaced to clients.
func (s *ReservationService) ExpireReservation(ctx context.Context, id uint64) error {
	res, err := s.reservations.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrReservationNotFound) {
			return nil
		}
		return err
	}
	if res.Status != model.ReservationStatusActive {
		return nil
	}

	applied, err := s.reservations.ExpireAndRestock(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrReservationNotFound) {
			return nil
		}
		return err
	}
	if applied {
		log.Printf("reservation %d expired: restored %d units to product %d", id, res.Quantity, res.ProductID)
	}
	return nil
}

// FindReservation returns a single reservation joined with its product.
func (s *ReservationService) FindReservation(ctx context.Context, id uint64) (*model.Reservation, error) {
	return s.reservations.GetByID(ctx, id)
}

// ListReservations returns all reservations, most recent first.
func (s *ReservationService) ListReservations(ctx context.Context) ([]model.Reservation, error) {
	return s.reservations.ListAll(ctx)
}

// ListProducts returns the catalogue ordered by identifier.
func (s *ReservationService) ListProducts(ctx context.Context) ([]model.Product, error) {
	return s.stock.ListAll(ctx)
}

// RecoverPendingExpirations re-derives pending expirations from the
// persisted expires_at values after a restart.  Overdue leases are
// expired immediately; future ones are re-armed with their remaining
// delay.  Individual failures are logged and do not stop the scan.
func (s *ReservationService) RecoverPendingExpirations(ctx context.Context) error {
	active, err := s.reservations.ListActive(ctx)
	if err != nil {
		return err
	}
	now := time.Now().UTC()
	for _, res := range active {
		remaining := res.ExpiresAt.Sub(now)
		if remaining <= 0 {
			if err := s.ExpireReservation(ctx, res.ID); err != nil {
				log.Printf("recovery: expire reservation %d failed: %v", res.ID, err)
			}
			continue
		}
		if err := s.scheduler.Schedule(ctx, res.ID, remaining); err != nil {
			log.Printf("recovery: re-arm reservation %d failed: %v", res.ID, err)
		}
	}
	return nil
}
