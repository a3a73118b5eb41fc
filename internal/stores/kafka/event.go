package kafka

import "time"

const TopicOrderCreated = `shop-service.order-created`

// OrderCreatedEvent is published after a checkout commits.
type OrderCreatedEvent struct {
	OrderID    string             `json:"order_id"`
	UserID     string             `json:"user_id"`
	TotalCents int64              `json:"total_cents"`
	Items      []OrderCreatedItem `json:"items"`
	CreatedAt  time.Time          `json:"created_at"`
}

type OrderCreatedItem struct {
	ItemID   string `json:"item_id"`
	Quantity int    `json:"quantity"`
}
