// Package repository defines error types that are reused across multiple
// repositories.  These sentinel values allow higher layers such as the
// reservation service and the HTTP handlers to distinguish between
// failure scenarios without inspecting error strings.
package repository

import "errors"

// ErrProductNotFound is returned when a product lookup matches no row.
var ErrProductNotFound = errors.New("product not found")

// ErrReservationNotFound is returned when a reservation lookup matches
// no row.
var ErrReservationNotFound = errors.New("reservation not found")
