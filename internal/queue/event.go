// Package queue defines message payloads exchanged over the message broker.
package queue

// OrderCreatedEvent is published when a listing is successfully sold.
// It contains enough information for downstream consumers to log,
// notify, or trigger analytics without querying the primary database.
type OrderCreatedEvent struct {
    OrderID         uint64 `json:"order_id"`
    ProductID       uint64 `json:"product_id"`
    SellerID        uint64 `json:"seller_id"`
    PriceCents      uint32 `json:"price_cents"`
    TransactionDate string `json:"transaction_date"`
}
