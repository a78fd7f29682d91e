package model

import "time"

// Order is an immutable record of a completed sale.  Exactly one
// order exists per sold product; a UNIQUE index on orders.product_id
// backs this up at the schema level.  The price is a snapshot of the
// product's price at the moment of sale and never changes afterwards,
// nor is an order ever deleted — the table is an append-only ledger.
//
// Fields:
//  ID              – primary key identifier.
//  ProductID       – product that was sold (unique per order).
//  SellerID        – product owner at the time of the sale.
//  PriceCents      – price snapshot in cents.
//  TransactionDate – when the sale was recorded.
//  CreatedAt       – row creation timestamp.
type Order struct {
    ID              uint64    // orders.id
    ProductID       uint64    // orders.product_id
    SellerID        uint64    // orders.seller_id
    PriceCents      uint32    // orders.price_cents
    TransactionDate time.Time // orders.transaction_date
    CreatedAt       time.Time // orders.created_at
}
