package model

// Product is a catalogue item with a limited amount of stock that can
// be leased.  AvailableStock is decremented when a reservation is
// created and incremented back when the reservation expires.  It can
// never go negative because every mutation goes through a conditional
// UPDATE in the repository layer.
//
// Fields:
//  ID             – primary key identifier.
//  Name           – display name of the product.
//  Price          – unit price.
//  AvailableStock – units currently available for new reservations.
type Product struct {
	ID             uint64  `json:"id"`              // products.id
	Name           string  `json:"name"`            // products.name
	Price          float64 `json:"price"`           // products.price
	AvailableStock int     `json:"available_stock"` // products.available_stock
}
