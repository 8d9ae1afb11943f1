// Package stats defines the store metrics shown by dashboard blocks. The
// values are resolved server-side and attached to block configs as derived
// data; they are never persisted with the layout.
package stats

import "time"

// Snapshot is the headline store counters for the stats block.
type Snapshot struct {
	Orders    int64   `json:"orders"`
	Revenue   float64 `json:"revenue"`
	Customers int64   `json:"customers"`
	Currency  string  `json:"currency"`
}

// DailyCount is one day of order volume for the orders chart block.
type DailyCount struct {
	Date   string `json:"date"`
	Orders int64  `json:"orders"`
}

// Order is a recent order summary for the recent-orders block.
type Order struct {
	ID           string    `json:"id" db:"id"`
	Number       string    `json:"number" db:"number"`
	CustomerName string    `json:"customer_name" db:"customer_name"`
	Total        float64   `json:"total" db:"total"`
	Status       string    `json:"status" db:"status"`
	PlacedAt     time.Time `json:"placed_at" db:"placed_at"`
}

// StockItem is a low-inventory product for the low-stock block.
type StockItem struct {
	ProductID string `json:"product_id" db:"product_id"`
	Name      string `json:"name" db:"name"`
	SKU       string `json:"sku" db:"sku"`
	Quantity  int64  `json:"quantity" db:"quantity"`
}
