package model

import "time"

// CustomerType is the loyalty tier of a customer.
type CustomerType string

const (
	CustomerNew     CustomerType = "new"
	CustomerRegular CustomerType = "regular"
	CustomerRepeat  CustomerType = "repeat"
	CustomerVIP     CustomerType = "vip"
)

// Tier thresholds on the number of confirmed and paid bookings.
const (
	VIPMinBookings     = 5
	RepeatMinBookings  = 2
	RegularMinBookings = 1
)

// CustomerStatus is active once any qualifying booking exists.
type CustomerStatus string

const (
	CustomerActive   CustomerStatus = "active"
	CustomerInactive CustomerStatus = "inactive"
)

// TierFor maps a qualifying booking count to a tier.  The highest
// threshold wins.  It never yields CustomerNew, which is only assigned
// when the record is first created; ok is false for counts below one.
func TierFor(totalBookings int) (tier CustomerType, ok bool) {
	switch {
	case totalBookings >= VIPMinBookings:
		return CustomerVIP, true
	case totalBookings >= RepeatMinBookings:
		return CustomerRepeat, true
	case totalBookings >= RegularMinBookings:
		return CustomerRegular, true
	}
	return "", false
}

// LoyaltyPointsFor awards one point per whole currency unit spent.
func LoyaltyPointsFor(totalSpent Money) int64 {
	if totalSpent.IsNegative() {
		return 0
	}
	return totalSpent.WholeUnits()
}

// Customer is the aggregate derived from a person's confirmed and paid
// bookings, keyed by email.
//
// Fields:
//
//	TotalBookings  – count of confirmed+paid bookings for Email.
//	TotalSpent     – sum of total_amount over the same set.
//	First/LastBookingDate – min/max created_at over the same set.
//	CustomerType   – tier, see TierFor.
//	LoyaltyPoints  – floor(TotalSpent).
type Customer struct {
	ID                     uint64         `json:"id"`
	Name                   string         `json:"name"`
	Email                  string         `json:"email"`
	Phone                  string         `json:"phone"`
	Country                string         `json:"country"`
	City                   string         `json:"city,omitempty"`
	Address                string         `json:"address,omitempty"`
	TotalBookings          int            `json:"total_bookings"`
	TotalSpent             Money          `json:"total_spent"`
	FirstBookingDate       *time.Time     `json:"first_booking_date,omitempty"`
	LastBookingDate        *time.Time     `json:"last_booking_date,omitempty"`
	CustomerType           CustomerType   `json:"customer_type"`
	LoyaltyPoints          int64          `json:"loyalty_points"`
	PreferredContactMethod string         `json:"preferred_contact_method,omitempty"`
	PreferredContactTime   string         `json:"preferred_contact_time,omitempty"`
	Status                 CustomerStatus `json:"status"`
	CreatedAt              time.Time      `json:"created_at"`
	UpdatedAt              time.Time      `json:"updated_at"`
}

// CustomerFilter narrows customer listings.
type CustomerFilter struct {
	CustomerType CustomerType
	Search       string
	Limit        int
	Offset       int
}
