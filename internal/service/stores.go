package service

import (
	"context"

	"github.com/iliyamo/backoffice/internal/model"
)

// BookingStore is the persistence contract for bookings.  The MySQL
// implementation is repository.BookingRepo.
type BookingStore interface {
	GetByID(ctx context.Context, id uint64) (*model.Booking, error)
	GetDetail(ctx context.Context, id uint64) (*model.BookingDetail, error)
	List(ctx context.Context, f model.BookingFilter) ([]model.Booking, error)
	ListByCustomer(ctx context.Context, customerID uint64) ([]model.Booking, error)
	ListQualifyingByEmail(ctx context.Context, email string) ([]model.Booking, error)
	Replace(ctx context.Context, b *model.Booking) error
	ApplyChanges(ctx context.Context, id uint64, ch model.BookingChanges) error
	LinkCustomer(ctx context.Context, bookingID, customerID uint64) error
	Delete(ctx context.Context, id uint64) error
}

// CustomerStore persists customer aggregates.
type CustomerStore interface {
	GetByID(ctx context.Context, id uint64) (*model.Customer, error)
	GetByEmail(ctx context.Context, email string) (*model.Customer, error)
	List(ctx context.Context, f model.CustomerFilter) ([]model.Customer, error)
	Create(ctx context.Context, c *model.Customer) error
	UpdateAggregate(ctx context.Context, c *model.Customer) error
}

// ApplicationStore persists admissions applications.
type ApplicationStore interface {
	GetByID(ctx context.Context, id uint64) (*model.Application, error)
	List(ctx context.Context, f model.ApplicationFilter) ([]model.Application, error)
	ApplyChanges(ctx context.Context, id uint64, ch model.ApplicationChanges) error
	Archive(ctx context.Context, id uint64) error
	LinkStudent(ctx context.Context, applicationID, studentID uint64) error
}

// StudentStore persists students.
type StudentStore interface {
	GetByID(ctx context.Context, id uint64) (*model.Student, error)
	GetByApplicationID(ctx context.Context, applicationID uint64) (*model.Student, error)
	Create(ctx context.Context, st *model.Student) error
}

// EventPublisher emits domain events.  queue.Publisher is the RabbitMQ
// implementation.
type EventPublisher interface {
	Publish(ctx context.Context, eventType string, payload any) error
}

// NopPublisher drops every event.  It is used when events are disabled.
type NopPublisher struct{}

func (NopPublisher) Publish(context.Context, string, any) error { return nil }
