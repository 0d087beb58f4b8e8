package model

import "time"

// Reservation status values.  ACTIVE is the only non-terminal state:
// once a reservation is COMPLETED or EXPIRED it never transitions
// again.  Both resolving transitions are applied with a conditional
// update guarded on the current status, so at most one of them can win.
const (
	ReservationStatusActive    = "ACTIVE"
	ReservationStatusCompleted = "COMPLETED"
	ReservationStatusExpired   = "EXPIRED"
)

// Reservation is a time-bounded lease on product stock.  The quantity
// is fixed at creation time and is never re-validated against current
// stock afterwards.  Records are never deleted; resolved reservations
// stay in the table with their terminal status.
//
// Fields:
//  ID        – primary key identifier.
//  ProductID – product whose stock is held.
//  Quantity  – number of units held (positive).
//  Status    – ACTIVE, COMPLETED or EXPIRED.
//  CreatedAt – when the lease was taken.
//  ExpiresAt – CreatedAt plus the configured lease duration.
//  Product   – joined product record for display (nil when not loaded).
type Reservation struct {
	ID        uint64    `json:"id"`         // reservations.id
	ProductID uint64    `json:"product_id"` // reservations.product_id
	Quantity  int       `json:"quantity"`   // reservations.quantity
	Status    string    `json:"status"`     // reservations.status
	CreatedAt time.Time `json:"created_at"` // reservations.created_at
	ExpiresAt time.Time `json:"expires_at"` // reservations.expires_at

	Product *Product `json:"product,omitempty"` // joined products row
}
