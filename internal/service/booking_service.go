package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/labstack/gommon/log"

	"github.com/iliyamo/backoffice/internal/model"
)

// BookingService applies staff edits to bookings.  PATCH is the only path
// that can move a booking into the confirmed and paid state and therefore
// the only one that feeds the customer aggregate.
type BookingService struct {
	Bookings   BookingStore
	Aggregator *CustomerAggregator
	Log        *log.Logger
}

func NewBookingService(bookings BookingStore, agg *CustomerAggregator, logger *log.Logger) *BookingService {
	return &BookingService{Bookings: bookings, Aggregator: agg, Log: logger}
}

// BookingPatch is the sparse PATCH body.  Absent keys stay nil and leave
// the stored value untouched.  final_amount is accepted for compatibility
// but always recomputed.
type BookingPatch struct {
	Status                 *string      `json:"status"`
	PaymentStatus          *string      `json:"payment_status"`
	CustomerName           *string      `json:"customer_name"`
	CustomerEmail          *string      `json:"customer_email"`
	CustomerPhone          *string      `json:"customer_phone"`
	CustomerCountry        *string      `json:"customer_country"`
	PreferredContactMethod *string      `json:"preferred_contact_method"`
	PreferredContactTime   *string      `json:"preferred_contact_time"`
	StartDate              *string      `json:"start_date"`
	EndDate                *string      `json:"end_date"`
	Guests                 *int         `json:"guests"`
	TotalAmount            *model.Money `json:"total_amount"`
	DiscountAmount         *model.Money `json:"discount_amount"`
	FinalAmount            *model.Money `json:"final_amount"`
	SpecialRequests        *string      `json:"special_requests"`
	StaffNotes             *string      `json:"staff_notes"`
	CancellationReason     *string      `json:"cancellation_reason"`
	EmailSentAt            *string      `json:"email_sent_at"`
}

// PatchResult is what a PATCH reports back.  CustomerCreated is true when
// the aggregation side effect ran and succeeded on this call; Warning
// carries the reason when it ran and failed.
type PatchResult struct {
	Booking         *model.Booking
	CustomerCreated bool
	Customer        *model.Customer
	Warning         string
}

// Get returns the plain booking row.
func (s *BookingService) Get(ctx context.Context, id uint64) (*model.Booking, error) {
	return s.Bookings.GetByID(ctx, id)
}

// Detail returns the booking with tour, customer, guests, communications
// and payments.
func (s *BookingService) Detail(ctx context.Context, id uint64) (*model.BookingDetail, error) {
	return s.Bookings.GetDetail(ctx, id)
}

// List validates enum filters before querying.
func (s *BookingService) List(ctx context.Context, f model.BookingFilter) ([]model.Booking, error) {
	if f.Status != "" && !f.Status.Valid() {
		return nil, invalid("status", "unknown status %q", f.Status)
	}
	if f.PaymentStatus != "" && !f.PaymentStatus.Valid() {
		return nil, invalid("payment_status", "unknown payment status %q", f.PaymentStatus)
	}
	return s.Bookings.List(ctx, f)
}

// Patch applies a sparse update.  Customer aggregation runs only on the
// edge into confirmed and paid; a booking that already qualified before
// this call is not re-aggregated.
func (s *BookingService) Patch(ctx context.Context, id uint64, p BookingPatch) (*PatchResult, error) {
	current, err := s.Bookings.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	ch, err := p.changes(*current)
	if err != nil {
		return nil, err
	}
	if err := s.Bookings.ApplyChanges(ctx, id, ch); err != nil {
		return nil, err
	}
	updated, err := s.Bookings.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	res := &PatchResult{Booking: updated}
	if current.Qualifies() || !updated.Qualifies() {
		return res, nil
	}

	agg, err := s.Aggregator.Aggregate(ctx, *updated)
	if err != nil {
		sec := &SecondaryEffectError{Effect: "customer aggregation", Err: err}
		s.Log.Warnj(log.JSON{
			"msg":        "customer aggregation failed",
			"booking_id": id,
			"email":      updated.Contact.Email,
			"error":      err.Error(),
		})
		res.Warning = sec.Error()
		return res, nil
	}
	res.CustomerCreated = true
	res.Customer = agg.Customer
	if updated.CustomerID == nil {
		cid := agg.Customer.ID
		updated.CustomerID = &cid
	}
	return res, nil
}

// changes validates p against the stored booking and returns the column
// changes to write.  final_amount is derived from the resulting total and
// discount whenever either is supplied or the stored value has drifted.
func (p BookingPatch) changes(current model.Booking) (model.BookingChanges, error) {
	var ch model.BookingChanges

	if p.Status != nil {
		st := model.BookingStatus(strings.ToLower(strings.TrimSpace(*p.Status)))
		if !st.Valid() {
			return ch, invalid("status", "unknown status %q", *p.Status)
		}
		ch.Status = &st
	}
	if p.PaymentStatus != nil {
		ps := model.PaymentStatus(strings.ToLower(strings.TrimSpace(*p.PaymentStatus)))
		if !ps.Valid() {
			return ch, invalid("payment_status", "unknown payment status %q", *p.PaymentStatus)
		}
		ch.PaymentStatus = &ps
	}
	if p.CustomerName != nil {
		name := strings.TrimSpace(*p.CustomerName)
		if name == "" {
			return ch, invalid("customer_name", "must not be empty")
		}
		ch.Name = &name
	}
	if p.CustomerEmail != nil {
		email := strings.ToLower(strings.TrimSpace(*p.CustomerEmail))
		if !validEmail(email) {
			return ch, invalid("customer_email", "%q is not a valid email", *p.CustomerEmail)
		}
		ch.Email = &email
	}
	ch.Phone = p.CustomerPhone
	ch.Country = p.CustomerCountry
	ch.PreferredContactMethod = p.PreferredContactMethod
	ch.PreferredContactTime = p.PreferredContactTime
	ch.SpecialRequests = p.SpecialRequests
	ch.StaffNotes = p.StaffNotes
	ch.CancellationReason = p.CancellationReason

	if p.StartDate != nil {
		t, err := parseDate("start_date", *p.StartDate)
		if err != nil {
			return ch, err
		}
		ch.StartDate = &t
	}
	if p.EndDate != nil {
		t, err := parseDate("end_date", *p.EndDate)
		if err != nil {
			return ch, err
		}
		ch.EndDate = &t
	}
	if p.EmailSentAt != nil {
		t, err := parseDate("email_sent_at", *p.EmailSentAt)
		if err != nil {
			return ch, err
		}
		ch.EmailSentAt = &t
	}
	if p.Guests != nil {
		if *p.Guests < 1 {
			return ch, invalid("guests", "must be at least 1")
		}
		ch.Guests = p.Guests
	}
	if p.TotalAmount != nil {
		if err := checkAmount("total_amount", *p.TotalAmount); err != nil {
			return ch, err
		}
		ch.TotalAmount = p.TotalAmount
	}
	if p.DiscountAmount != nil {
		if err := checkAmount("discount_amount", *p.DiscountAmount); err != nil {
			return ch, err
		}
		ch.DiscountAmount = p.DiscountAmount
	}
	if p.FinalAmount != nil {
		if err := checkAmount("final_amount", *p.FinalAmount); err != nil {
			return ch, err
		}
	}

	next := ch.Apply(current)
	if next.StartDate != nil && next.EndDate != nil && next.EndDate.Before(*next.StartDate) {
		return ch, invalid("end_date", "must not be before start_date")
	}
	final, err := finalAmount(next.TotalAmount, next.DiscountAmount)
	if err != nil {
		return ch, err
	}
	if ch.TotalAmount != nil || ch.DiscountAmount != nil || !final.Equal(current.FinalAmount) {
		ch.FinalAmount = &final
	}
	return ch, nil
}

// checkAmount rejects amounts the DECIMAL columns would round, since
// rounding total and discount separately breaks final = total - discount.
func checkAmount(field string, m model.Money) error {
	if m.IsNegative() {
		return invalid(field, "must not be negative")
	}
	if !m.FitsScale() {
		return invalid(field, "must have at most %d decimal places", model.MoneyScale)
	}
	return nil
}

func finalAmount(total, discount model.Money) (model.Money, error) {
	final := total.Sub(discount)
	if final.IsNegative() {
		return model.Money{}, invalid("discount_amount", "must not exceed total_amount")
	}
	return final, nil
}

// BookingReplacement is the full PUT body.  Every column listed here is
// written.
type BookingReplacement struct {
	TourID                 uint64      `json:"tour_id" validate:"required"`
	CustomerName           string      `json:"customer_name" validate:"required"`
	CustomerEmail          string      `json:"customer_email" validate:"required,email"`
	CustomerPhone          string      `json:"customer_phone"`
	CustomerCountry        string      `json:"customer_country"`
	PreferredContactMethod string      `json:"preferred_contact_method"`
	PreferredContactTime   string      `json:"preferred_contact_time"`
	StartDate              string      `json:"start_date"`
	EndDate                string      `json:"end_date"`
	Guests                 int         `json:"guests" validate:"min=1"`
	TotalAmount            model.Money `json:"total_amount"`
	DiscountAmount         model.Money `json:"discount_amount"`
	SpecialRequests        *string     `json:"special_requests"`
	StaffNotes             *string     `json:"staff_notes"`
	CancellationReason     *string     `json:"cancellation_reason"`
	Status                 string      `json:"status" validate:"required"`
	PaymentStatus          string      `json:"payment_status" validate:"required"`
}

// Replace overwrites a booking.  It validates like Patch and recomputes
// final_amount but does not run customer aggregation.
func (s *BookingService) Replace(ctx context.Context, id uint64, r BookingReplacement) (*model.Booking, error) {
	if err := checkStruct(r); err != nil {
		return nil, err
	}
	current, err := s.Bookings.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	b, err := r.apply(*current)
	if err != nil {
		return nil, err
	}
	if err := s.Bookings.Replace(ctx, &b); err != nil {
		return nil, err
	}
	return s.Bookings.GetByID(ctx, id)
}

func (r BookingReplacement) apply(b model.Booking) (model.Booking, error) {
	st := model.BookingStatus(strings.ToLower(strings.TrimSpace(r.Status)))
	if !st.Valid() {
		return b, invalid("status", "unknown status %q", r.Status)
	}
	ps := model.PaymentStatus(strings.ToLower(strings.TrimSpace(r.PaymentStatus)))
	if !ps.Valid() {
		return b, invalid("payment_status", "unknown payment status %q", r.PaymentStatus)
	}
	if err := checkAmount("total_amount", r.TotalAmount); err != nil {
		return b, err
	}
	if err := checkAmount("discount_amount", r.DiscountAmount); err != nil {
		return b, err
	}
	final, err := finalAmount(r.TotalAmount, r.DiscountAmount)
	if err != nil {
		return b, err
	}
	start, err := optionalDate("start_date", r.StartDate)
	if err != nil {
		return b, err
	}
	end, err := optionalDate("end_date", r.EndDate)
	if err != nil {
		return b, err
	}
	if start != nil && end != nil && end.Before(*start) {
		return b, invalid("end_date", "must not be before start_date")
	}

	b.TourID = r.TourID
	b.Contact = model.ContactSnapshot{
		Name:                   strings.TrimSpace(r.CustomerName),
		Email:                  strings.ToLower(strings.TrimSpace(r.CustomerEmail)),
		Phone:                  r.CustomerPhone,
		Country:                r.CustomerCountry,
		PreferredContactMethod: r.PreferredContactMethod,
		PreferredContactTime:   r.PreferredContactTime,
	}
	b.StartDate, b.EndDate = start, end
	b.Guests = r.Guests
	b.TotalAmount, b.DiscountAmount, b.FinalAmount = r.TotalAmount, r.DiscountAmount, final
	b.SpecialRequests, b.StaffNotes, b.CancellationReason = r.SpecialRequests, r.StaffNotes, r.CancellationReason
	b.Status, b.PaymentStatus = st, ps
	return b, nil
}

func optionalDate(field, s string) (*time.Time, error) {
	if strings.TrimSpace(s) == "" {
		return nil, nil
	}
	t, err := parseDate(field, s)
	if err != nil {
		return nil, err
	}
	return &t, nil
}

// Delete hard-deletes a booking.
func (s *BookingService) Delete(ctx context.Context, id uint64) error {
	err := s.Bookings.Delete(ctx, id)
	if err != nil && !errors.Is(err, ErrNotFound) {
		s.Log.Errorj(log.JSON{"msg": "delete booking failed", "booking_id": id, "error": err.Error()})
	}
	return err
}
