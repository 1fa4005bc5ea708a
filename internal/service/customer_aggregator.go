package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/labstack/gommon/log"

	"github.com/iliyamo/backoffice/internal/model"
	"github.com/iliyamo/backoffice/internal/queue"
	"github.com/iliyamo/backoffice/internal/repository"
)

// CustomerAggregator derives the customer record from a person's
// confirmed and paid bookings, keyed by contact email.
//
// The recompute is read-then-write with no lock.  Two bookings for the
// same email qualifying at the same moment can race and one write may be
// lost; the next aggregation or a manual recompute heals it.
type CustomerAggregator struct {
	Bookings  BookingStore
	Customers CustomerStore
	Events    EventPublisher
	Log       *log.Logger
}

func NewCustomerAggregator(b BookingStore, c CustomerStore, ev EventPublisher, logger *log.Logger) *CustomerAggregator {
	if ev == nil {
		ev = NopPublisher{}
	}
	return &CustomerAggregator{Bookings: b, Customers: c, Events: ev, Log: logger}
}

// AggregateResult reports the customer touched by an aggregation.
type AggregateResult struct {
	Customer *model.Customer
	Created  bool
}

// Aggregate creates the customer on the first qualifying booking or
// recomputes it from the full qualifying set, then links the booking.
func (a *CustomerAggregator) Aggregate(ctx context.Context, b model.Booking) (*AggregateResult, error) {
	email := strings.ToLower(strings.TrimSpace(b.Contact.Email))
	if email == "" {
		return nil, fmt.Errorf("booking %d has no customer email", b.ID)
	}

	res := &AggregateResult{}
	existing, err := a.Customers.GetByEmail(ctx, email)
	switch {
	case errors.Is(err, repository.ErrNotFound):
		c := firstCustomer(b, email)
		err = a.Customers.Create(ctx, c)
		if err == nil {
			res.Customer, res.Created = c, true
			break
		}
		if !errors.Is(err, repository.ErrConflict) {
			return nil, fmt.Errorf("create customer: %w", err)
		}
		// Lost an insert race for this email; fold into the recompute path.
		existing, err = a.Customers.GetByEmail(ctx, email)
		if err != nil {
			return nil, fmt.Errorf("reload customer: %w", err)
		}
		fallthrough
	case err == nil:
		if err := a.recompute(ctx, existing, &b); err != nil {
			return nil, err
		}
		res.Customer = existing
	default:
		return nil, fmt.Errorf("lookup customer: %w", err)
	}

	if b.CustomerID == nil {
		if err := a.Bookings.LinkCustomer(ctx, b.ID, res.Customer.ID); err != nil {
			return nil, err
		}
	}
	a.publish(ctx, res, b.ID)
	return res, nil
}

// Recompute refreshes an existing customer from its qualifying bookings
// and links any of them that are not linked yet.
func (a *CustomerAggregator) Recompute(ctx context.Context, customerID uint64) (*model.Customer, error) {
	c, err := a.Customers.GetByID(ctx, customerID)
	if err != nil {
		return nil, err
	}
	if err := a.recompute(ctx, c, nil); err != nil {
		return nil, err
	}
	qs, err := a.Bookings.ListQualifyingByEmail(ctx, c.Email)
	if err != nil {
		return nil, err
	}
	for _, b := range qs {
		if b.CustomerID != nil {
			continue
		}
		if err := a.Bookings.LinkCustomer(ctx, b.ID, c.ID); err != nil {
			return nil, err
		}
	}
	return c, nil
}

func firstCustomer(b model.Booking, email string) *model.Customer {
	created := b.CreatedAt
	return &model.Customer{
		Name:                   b.Contact.Name,
		Email:                  email,
		Phone:                  b.Contact.Phone,
		Country:                b.Contact.Country,
		TotalBookings:          1,
		TotalSpent:             b.TotalAmount,
		FirstBookingDate:       &created,
		LastBookingDate:        &created,
		CustomerType:           model.CustomerNew,
		LoyaltyPoints:          model.LoyaltyPointsFor(b.TotalAmount),
		PreferredContactMethod: b.Contact.PreferredContactMethod,
		PreferredContactTime:   b.Contact.PreferredContactTime,
		Status:                 model.CustomerActive,
	}
}

// recompute rebuilds the derived fields of c in place and stores them.
// trigger, when set, supplies contact preferences.
func (a *CustomerAggregator) recompute(ctx context.Context, c *model.Customer, trigger *model.Booking) error {
	qs, err := a.Bookings.ListQualifyingByEmail(ctx, c.Email)
	if err != nil {
		return fmt.Errorf("list qualifying bookings: %w", err)
	}
	applyAggregate(c, qs)
	if trigger != nil {
		if v := trigger.Contact.PreferredContactMethod; v != "" {
			c.PreferredContactMethod = v
		}
		if v := trigger.Contact.PreferredContactTime; v != "" {
			c.PreferredContactTime = v
		}
		if c.Name == "" {
			c.Name = trigger.Contact.Name
		}
		if c.Phone == "" {
			c.Phone = trigger.Contact.Phone
		}
	}
	if err := a.Customers.UpdateAggregate(ctx, c); err != nil {
		return fmt.Errorf("update customer: %w", err)
	}
	return nil
}

// applyAggregate sets count, spend, dates, tier and points from the
// qualifying set.  A customer still at the "new" tier with a single
// qualifying booking keeps it, so repeating an aggregation never changes
// the result.  An empty set leaves the tier alone.
func applyAggregate(c *model.Customer, qs []model.Booking) {
	total := model.MoneyFromInt(0)
	c.FirstBookingDate, c.LastBookingDate = nil, nil
	for i := range qs {
		total = total.Add(qs[i].TotalAmount)
		t := qs[i].CreatedAt
		if c.FirstBookingDate == nil || t.Before(*c.FirstBookingDate) {
			c.FirstBookingDate = &t
		}
		if c.LastBookingDate == nil || t.After(*c.LastBookingDate) {
			c.LastBookingDate = &t
		}
	}
	c.TotalBookings = len(qs)
	c.TotalSpent = total
	c.LoyaltyPoints = model.LoyaltyPointsFor(total)

	if len(qs) == 0 {
		return
	}
	c.Status = model.CustomerActive
	if c.CustomerType == model.CustomerNew && len(qs) == 1 {
		return
	}
	if tier, ok := model.TierFor(len(qs)); ok {
		c.CustomerType = tier
	}
}

func (a *CustomerAggregator) publish(ctx context.Context, res *AggregateResult, bookingID uint64) {
	c := res.Customer
	err := a.Events.Publish(ctx, queue.TypeCustomerAggregated, queue.CustomerAggregatedEvent{
		CustomerID:    c.ID,
		BookingID:     bookingID,
		Email:         c.Email,
		Created:       res.Created,
		TotalBookings: c.TotalBookings,
		TotalSpent:    c.TotalSpent.String(),
		CustomerType:  string(c.CustomerType),
		LoyaltyPoints: c.LoyaltyPoints,
	})
	if err != nil {
		a.Log.Warnf("publish %s for customer %d: %v", queue.TypeCustomerAggregated, c.ID, err)
	}
}

// CustomerService serves the read side of customers plus manual
// recompute.
type CustomerService struct {
	Customers  CustomerStore
	Bookings   BookingStore
	Aggregator *CustomerAggregator
}

func NewCustomerService(c CustomerStore, b BookingStore, agg *CustomerAggregator) *CustomerService {
	return &CustomerService{Customers: c, Bookings: b, Aggregator: agg}
}

func (s *CustomerService) Get(ctx context.Context, id uint64) (*model.Customer, error) {
	return s.Customers.GetByID(ctx, id)
}

func (s *CustomerService) List(ctx context.Context, f model.CustomerFilter) ([]model.Customer, error) {
	switch f.CustomerType {
	case "", model.CustomerNew, model.CustomerRegular, model.CustomerRepeat, model.CustomerVIP:
	default:
		return nil, invalid("customer_type", "unknown customer type %q", f.CustomerType)
	}
	return s.Customers.List(ctx, f)
}

// BookingsFor returns the bookings linked to a customer.
func (s *CustomerService) BookingsFor(ctx context.Context, id uint64) ([]model.Booking, error) {
	if _, err := s.Customers.GetByID(ctx, id); err != nil {
		return nil, err
	}
	return s.Bookings.ListByCustomer(ctx, id)
}

func (s *CustomerService) Recompute(ctx context.Context, id uint64) (*model.Customer, error) {
	return s.Aggregator.Recompute(ctx, id)
}
