package service

import "errors"

// Business errors surfaced to the request layer.  Handlers translate
// them into HTTP statuses: invalid requests become 400, conflicts become
// 409.  Not-found conditions reuse the repository sentinels.  None of
// these are retried automatically; storage failures pass through as-is.
var (
	// ErrInvalidQuantity is returned when the requested quantity is not
	// a positive integer.
	ErrInvalidQuantity = errors.New("quantity must be a positive integer")

	// ErrInsufficientStock is returned by the fast pre-check when the
	// requested quantity exceeds the currently available stock.
	ErrInsufficientStock = errors.New("insufficient stock")

	// ErrStockConflict is returned when the atomic decrement lost the
	// race: stock looked sufficient at pre-check time but was gone by
	// commit time.
	ErrStockConflict = errors.New("insufficient stock: reserved by someone else")

	// ErrReservationExpired is returned when completing a reservation
	// whose lease already timed out.
	ErrReservationExpired = errors.New("reservation has expired")
)
