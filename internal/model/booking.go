package model

import "time"

// BookingStatus is the lifecycle state of a tour booking.
type BookingStatus string

const (
	BookingPending   BookingStatus = "pending"
	BookingConfirmed BookingStatus = "confirmed"
	BookingCancelled BookingStatus = "cancelled"
	BookingCompleted BookingStatus = "completed"
)

// Valid reports whether s is one of the known booking states.
func (s BookingStatus) Valid() bool {
	switch s {
	case BookingPending, BookingConfirmed, BookingCancelled, BookingCompleted:
		return true
	}
	return false
}

// PaymentStatus tracks money received against a booking.
type PaymentStatus string

const (
	PaymentUnpaid   PaymentStatus = "unpaid"
	PaymentPartial  PaymentStatus = "partial"
	PaymentPaid     PaymentStatus = "paid"
	PaymentRefunded PaymentStatus = "refunded"
)

// Valid reports whether s is one of the known payment states.
func (s PaymentStatus) Valid() bool {
	switch s {
	case PaymentUnpaid, PaymentPartial, PaymentPaid, PaymentRefunded:
		return true
	}
	return false
}

// ContactSnapshot is the customer contact data captured when the booking
// was submitted.  It is a copy, not a reference: later edits to the
// Customer aggregate are never written back here and vice versa.
type ContactSnapshot struct {
	Name                   string `json:"name"`
	Email                  string `json:"email"`
	Phone                  string `json:"phone"`
	Country                string `json:"country"`
	PreferredContactMethod string `json:"preferred_contact_method,omitempty"`
	PreferredContactTime   string `json:"preferred_contact_time,omitempty"`
}

// Booking mirrors a row of the bookings table.
//
// Fields:
//
//	ID                 – primary key identifier.
//	TourID             – tour being booked.
//	UserID             – site account that submitted the booking (nullable).
//	CustomerID         – derived customer aggregate, set once the booking qualifies.
//	Contact            – contact snapshot taken at booking time.
//	StartDate/EndDate  – travel date range (nullable).
//	Guests             – number of travellers.
//	TotalAmount        – gross price.
//	DiscountAmount     – discount applied to the gross price.
//	FinalAmount        – always TotalAmount − DiscountAmount.
//	Status             – booking lifecycle state.
//	PaymentStatus      – payment state.
//	EmailSentAt        – when the confirmation email went out (nullable).
type Booking struct {
	ID                 uint64          `json:"id"`
	TourID             uint64          `json:"tour_id"`
	UserID             *uint64         `json:"user_id,omitempty"`
	CustomerID         *uint64         `json:"customer_id,omitempty"`
	Contact            ContactSnapshot `json:"contact"`
	StartDate          *time.Time      `json:"start_date,omitempty"`
	EndDate            *time.Time      `json:"end_date,omitempty"`
	Guests             int             `json:"guests"`
	TotalAmount        Money           `json:"total_amount"`
	DiscountAmount     Money           `json:"discount_amount"`
	FinalAmount        Money           `json:"final_amount"`
	SpecialRequests    *string         `json:"special_requests,omitempty"`
	StaffNotes         *string         `json:"staff_notes,omitempty"`
	CancellationReason *string         `json:"cancellation_reason,omitempty"`
	Status             BookingStatus   `json:"status"`
	PaymentStatus      PaymentStatus   `json:"payment_status"`
	CreatedAt          time.Time       `json:"created_at"`
	UpdatedAt          time.Time       `json:"updated_at"`
	EmailSentAt        *time.Time      `json:"email_sent_at,omitempty"`
}

// Qualifies reports whether the booking counts toward its customer's
// aggregate: confirmed and paid.
func (b Booking) Qualifies() bool {
	return b.Status == BookingConfirmed && b.PaymentStatus == PaymentPaid
}

// BookingChanges is a validated sparse update.  Nil fields are left
// untouched by the repository.
type BookingChanges struct {
	Status                 *BookingStatus
	PaymentStatus          *PaymentStatus
	Name                   *string
	Email                  *string
	Phone                  *string
	Country                *string
	PreferredContactMethod *string
	PreferredContactTime   *string
	StartDate              *time.Time
	EndDate                *time.Time
	Guests                 *int
	TotalAmount            *Money
	DiscountAmount         *Money
	FinalAmount            *Money
	SpecialRequests        *string
	StaffNotes             *string
	CancellationReason     *string
	EmailSentAt            *time.Time
}

// Empty reports whether no field is set.
func (c BookingChanges) Empty() bool {
	return c == (BookingChanges{})
}

// Apply returns a copy of b with every non-nil change applied.  It is
// used to evaluate the post-update state before the write happens.
func (c BookingChanges) Apply(b Booking) Booking {
	if c.Status != nil {
		b.Status = *c.Status
	}
	if c.PaymentStatus != nil {
		b.PaymentStatus = *c.PaymentStatus
	}
	if c.Name != nil {
		b.Contact.Name = *c.Name
	}
	if c.Email != nil {
		b.Contact.Email = *c.Email
	}
	if c.Phone != nil {
		b.Contact.Phone = *c.Phone
	}
	if c.Country != nil {
		b.Contact.Country = *c.Country
	}
	if c.PreferredContactMethod != nil {
		b.Contact.PreferredContactMethod = *c.PreferredContactMethod
	}
	if c.PreferredContactTime != nil {
		b.Contact.PreferredContactTime = *c.PreferredContactTime
	}
	if c.StartDate != nil {
		d := *c.StartDate
		b.StartDate = &d
	}
	if c.EndDate != nil {
		d := *c.EndDate
		b.EndDate = &d
	}
	if c.Guests != nil {
		b.Guests = *c.Guests
	}
	if c.TotalAmount != nil {
		b.TotalAmount = *c.TotalAmount
	}
	if c.DiscountAmount != nil {
		b.DiscountAmount = *c.DiscountAmount
	}
	if c.FinalAmount != nil {
		b.FinalAmount = *c.FinalAmount
	}
	if c.SpecialRequests != nil {
		s := *c.SpecialRequests
		b.SpecialRequests = &s
	}
	if c.StaffNotes != nil {
		s := *c.StaffNotes
		b.StaffNotes = &s
	}
	if c.CancellationReason != nil {
		s := *c.CancellationReason
		b.CancellationReason = &s
	}
	if c.EmailSentAt != nil {
		t := *c.EmailSentAt
		b.EmailSentAt = &t
	}
	return b
}

// BookingFilter narrows booking listings.  Zero values are ignored.
type BookingFilter struct {
	Status        BookingStatus
	PaymentStatus PaymentStatus
	Email         string
	Limit         int
	Offset        int
}
