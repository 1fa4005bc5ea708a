// Package queue carries back-office domain events over RabbitMQ.  The
// publisher dials per message; the consumer appends each event to an
// audit log.
package queue

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// Event types published by the service layer.
const (
	TypeCustomerAggregated = "customer.aggregated"
	TypeStudentCreated     = "student.created"
)

// DefaultQueue is the durable queue every event is routed to.
const DefaultQueue = "backoffice.events"

// Envelope wraps a typed payload with an id and timestamp so consumers can
// de-duplicate and order events without touching the database.
type Envelope struct {
	ID         string          `json:"id"`
	Type       string          `json:"type"`
	OccurredAt time.Time       `json:"occurred_at"`
	Payload    json.RawMessage `json:"payload"`
}

// NewEnvelope marshals payload and stamps a fresh id.
func NewEnvelope(eventType string, payload any) (Envelope, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return Envelope{}, err
	}
	return Envelope{
		ID:         uuid.NewString(),
		Type:       eventType,
		OccurredAt: time.Now().UTC(),
		Payload:    body,
	}, nil
}

// CustomerAggregatedEvent is emitted after a booking created or refreshed
// its customer aggregate.
type CustomerAggregatedEvent struct {
	CustomerID    uint64 `json:"customer_id"`
	BookingID     uint64 `json:"booking_id"`
	Email         string `json:"email"`
	Created       bool   `json:"created"`
	TotalBookings int    `json:"total_bookings"`
	TotalSpent    string `json:"total_spent"`
	CustomerType  string `json:"customer_type"`
	LoyaltyPoints int64  `json:"loyalty_points"`
}

// StudentCreatedEvent is emitted once per approved application.
type StudentCreatedEvent struct {
	StudentID     uint64 `json:"student_id"`
	ApplicationID uint64 `json:"application_id"`
	StudentNumber string `json:"student_number"`
	FullName      string `json:"full_name"`
	Campus        string `json:"campus"`
	Program       string `json:"program"`
	Cohort        string `json:"cohort"`
}
