package domain

import "time"

const EventOrderCreated = "order.created"

// Event is an outbox row written in the same transaction as the order it describes.
type Event struct {
	ID          string     `json:"id"`
	OrderID     int64      `json:"order_id"`
	Type        string     `json:"type"`
	Payload     []byte     `json:"payload"`
	CreatedAt   time.Time  `json:"created_at"`
	PublishedAt *time.Time `json:"published_at,omitempty"`
}
