package model

import "time"

// TourSummary is the slice of a tour shown alongside a booking.  Image
// holds the raw cover picture; encoding/json renders []byte as base64.
type TourSummary struct {
	ID           uint64 `json:"id"`
	Title        string `json:"title"`
	Destination  string `json:"destination"`
	DurationDays int    `json:"duration_days"`
	Price        Money  `json:"price"`
	Image        []byte `json:"image,omitempty"`
}

// BookingGuest is one traveller listed on a booking.
type BookingGuest struct {
	ID          uint64     `json:"id"`
	FullName    string     `json:"full_name"`
	DateOfBirth *time.Time `json:"date_of_birth,omitempty"`
	Passport    string     `json:"passport,omitempty"`
	Nationality string     `json:"nationality,omitempty"`
}

// BookingCommunication records an email or call logged against a booking.
type BookingCommunication struct {
	ID        uint64    `json:"id"`
	Channel   string    `json:"channel"`
	Subject   string    `json:"subject"`
	Body      string    `json:"body"`
	SentBy    string    `json:"sent_by,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

// BookingPayment is a single payment or refund movement.
type BookingPayment struct {
	ID        uint64    `json:"id"`
	Amount    Money     `json:"amount"`
	Method    string    `json:"method"`
	Reference string    `json:"reference,omitempty"`
	Status    string    `json:"status"`
	PaidAt    time.Time `json:"paid_at"`
}

// BookingDetail is the expanded view returned by GET /v1/bookings/:id.
type BookingDetail struct {
	Booking
	Tour           *TourSummary           `json:"tour,omitempty"`
	Customer       *Customer              `json:"customer,omitempty"`
	GuestList      []BookingGuest         `json:"guest_list"`
	Communications []BookingCommunication `json:"communications"`
	Payments       []BookingPayment       `json:"payments"`
}
