package repository

import (
	"context"
	"database/sql"
	"time"
)

// OrderRepo reads the append-only order ledger. Orders are only ever
// written by ProductRepo.MarkSold, inside the same transaction that
// flips the product's status; nothing updates or deletes them.
type OrderRepo struct {
	db *sql.DB
}

// NewOrderRepo returns a new OrderRepo bound to the given database.
func NewOrderRepo(db *sql.DB) *OrderRepo { return &OrderRepo{db: db} }

// OrderDetail is an order joined with its product and seller for
// display and export.
type OrderDetail struct {
	ID              uint64    `json:"id"`
	ProductID       uint64    `json:"product_id"`
	ProductTitle    string    `json:"product_title"`
	SellerID        uint64    `json:"seller_id"`
	SellerNickname  string    `json:"seller_nickname"`
	PriceCents      uint32    `json:"price_cents"`
	Price           float64   `json:"price"`
	TransactionDate time.Time `json:"transaction_date"`
}

const orderDetailQuery = `SELECT o.id, o.product_id, p.title, o.seller_id, u.nickname,
		o.price_cents, o.transaction_date
	FROM orders o
	JOIN products p ON p.id = o.product_id
	JOIN users u ON u.id = o.seller_id`

func (r *OrderRepo) queryDetails(ctx context.Context, query string, args ...any) ([]OrderDetail, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := make([]OrderDetail, 0)
	for rows.Next() {
		var d OrderDetail
		if err := rows.Scan(&d.ID, &d.ProductID, &d.ProductTitle, &d.SellerID, &d.SellerNickname,
			&d.PriceCents, &d.TransactionDate); err != nil {
			return nil, err
		}
		d.Price = float64(d.PriceCents) / 100
		out = append(out, d)
	}
	return out, rows.Err()
}

// ListBySeller returns the orders where the given user was the
// seller, newest first.
func (r *OrderRepo) ListBySeller(ctx context.Context, sellerID uint64) ([]OrderDetail, error) {
	return r.queryDetails(ctx,
		orderDetailQuery+` WHERE o.seller_id=? ORDER BY o.transaction_date DESC`, sellerID)
}

// ListAll returns the whole ledger for the admin CSV export.
func (r *OrderRepo) ListAll(ctx context.Context) ([]OrderDetail, error) {
	return r.queryDetails(ctx,
		orderDetailQuery+` ORDER BY o.transaction_date DESC`)
}
