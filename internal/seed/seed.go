// Package seed loads the initial product catalogue.
package seed

import (
	"context"
	"log"

	"github.com/iliyamo/stock-reservation/internal/model"
	"github.com/iliyamo/stock-reservation/internal/repository"
)

// Products inserts the demo catalogue when the products table is empty.
// Running it at every boot is safe; a non-empty table is left untouched.
func Products(ctx context.Context, products *repository.ProductRepo) error {
	n, err := products.Count(ctx)
	if err != nil {
		return err
	}
	if n > 0 {
		log.Printf("seed: products already present, skipping")
		return nil
	}

	catalogue := []model.Product{
		{Name: "iPhone 15 Pro", Price: 999.99, AvailableStock: 50},
		{Name: "Samsung Galaxy S24", Price: 899.99, AvailableStock: 45},
		{Name: "MacBook Pro M3", Price: 2499.99, AvailableStock: 30},
		{Name: "Sony WH-1000XM5", Price: 399.99, AvailableStock: 100},
		{Name: "iPad Air", Price: 599.99, AvailableStock: 75},
		{Name: "Apple Watch Series 9", Price: 429.99, AvailableStock: 60},
		{Name: "Sony PlayStation 5", Price: 499.99, AvailableStock: 25},
		{Name: "Nintendo Switch OLED", Price: 349.99, AvailableStock: 80},
		{Name: "Dell XPS 15", Price: 1799.99, AvailableStock: 40},
		{Name: `LG OLED TV 55"`, Price: 1299.99, AvailableStock: 20},
	}
	if err := products.CreateBulk(ctx, catalogue); err != nil {
		return err
	}
	log.Printf("seed: inserted %d products", len(catalogue))
	return nil
}
