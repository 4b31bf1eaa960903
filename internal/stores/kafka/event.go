package kafka

import "time"

const (
	TopicAuditLog     = `bakery-service.audit-log`
	TopicOrderCreated = `bakery-service.order-created`
)

// AuditEvent is the record published to the audit log topic after a
// successful commit.
type AuditEvent struct {
	Action       string    `json:"action"`
	ResourceType string    `json:"resource_type"`
	ResourceID   string    `json:"resource_id"`
	ActorID      string    `json:"actor_id,omitempty"`
	OldData      any       `json:"old_data,omitempty"`
	NewData      any       `json:"new_data,omitempty"`
	CreatedAt    time.Time `json:"created_at"`
}

// OrderCreatedEvent notifies downstream consumers of a new order.
type OrderCreatedEvent struct {
	OrderID   string    `json:"order_id"`
	Total     int64     `json:"total"`
	CreatedAt time.Time `json:"created_at"`
}
