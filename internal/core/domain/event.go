package domain

import "time"

// CustomerEventType names a customer lifecycle transition.
type CustomerEventType string

const (
	EventCustomerCreated CustomerEventType = "customer.created"
	EventCustomerUpdated CustomerEventType = "customer.updated"
	EventCustomerDeleted CustomerEventType = "customer.deleted"
)

// CustomerEvent records a lifecycle change for the audit trail.
type CustomerEvent struct {
	Type       CustomerEventType `json:"type"`
	CustomerID int64             `json:"customer_id"`
	Actor      string            `json:"actor,omitempty"` // empty for self-registration
	OccurredAt time.Time         `json:"occurred_at"`
}
