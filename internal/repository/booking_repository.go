package repository // repository wraps the MySQL tables behind typed methods

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/iliyamo/backoffice/internal/model"
)

// BookingRepo provides CRUD operations for tour bookings and the
// read-only detail tables hanging off them (guests, communications,
// payments).  Monetary columns are DECIMAL(12,2) and are scanned into
// model.Money.  All timestamps are stored in UTC.
type BookingRepo struct {
	db *sql.DB
}

// NewBookingRepo returns a new BookingRepo bound to the given database.
func NewBookingRepo(db *sql.DB) *BookingRepo { return &BookingRepo{db: db} }

// DB exposes the underlying handle.
func (r *BookingRepo) DB() *sql.DB { return r.db }

const bookingColumns = `id, tour_id, user_id, customer_id,
	customer_name, customer_email, customer_phone, customer_country,
	preferred_contact_method, preferred_contact_time,
	start_date, end_date, guests,
	total_amount, discount_amount, final_amount,
	special_requests, staff_notes, cancellation_reason,
	status, payment_status, created_at, updated_at, email_sent_at`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanBooking(s rowScanner) (*model.Booking, error) {
	var (
		b                              model.Booking
		userID, customerID             sql.NullInt64
		startDate, endDate, emailSent  sql.NullTime
		specialReq, notes, cancelReasn sql.NullString
		method, pref                   sql.NullString
	)
	err := s.Scan(
		&b.ID, &b.TourID, &userID, &customerID,
		&b.Contact.Name, &b.Contact.Email, &b.Contact.Phone, &b.Contact.Country,
		&method, &pref,
		&startDate, &endDate, &b.Guests,
		&b.TotalAmount, &b.DiscountAmount, &b.FinalAmount,
		&specialReq, &notes, &cancelReasn,
		&b.Status, &b.PaymentStatus, &b.CreatedAt, &b.UpdatedAt, &emailSent,
	)
	if err != nil {
		return nil, err
	}
	b.UserID = nullUint(userID)
	b.CustomerID = nullUint(customerID)
	b.Contact.PreferredContactMethod = method.String
	b.Contact.PreferredContactTime = pref.String
	b.StartDate = nullTime(startDate)
	b.EndDate = nullTime(endDate)
	b.EmailSentAt = nullTime(emailSent)
	b.SpecialRequests = nullString(specialReq)
	b.StaffNotes = nullString(notes)
	b.CancellationReason = nullString(cancelReasn)
	return &b, nil
}

// GetByID returns a single booking or ErrNotFound.
func (r *BookingRepo) GetByID(ctx context.Context, id uint64) (*model.Booking, error) {
	q := `SELECT ` + bookingColumns + ` FROM bookings WHERE id = ?`
	b, err := scanBooking(r.db.QueryRowContext(ctx, q, id))
	if err != nil {
		return nil, notFound(err)
	}
	return b, nil
}

// List returns bookings matching the filter, newest first.
func (r *BookingRepo) List(ctx context.Context, f model.BookingFilter) ([]model.Booking, error) {
	var (
		where []string
		args  []any
	)
	if f.Status != "" {
		where = append(where, "status = ?")
		args = append(args, f.Status)
	}
	if f.PaymentStatus != "" {
		where = append(where, "payment_status = ?")
		args = append(args, f.PaymentStatus)
	}
	if f.Email != "" {
		where = append(where, "customer_email = ?")
		args = append(args, strings.ToLower(strings.TrimSpace(f.Email)))
	}
	q := `SELECT ` + bookingColumns + ` FROM bookings`
	if len(where) > 0 {
		q += " WHERE " + strings.Join(where, " AND ")
	}
	q += " ORDER BY created_at DESC, id DESC"
	q, args = withPaging(q, args, f.Limit, f.Offset)
	return r.queryBookings(ctx, q, args...)
}

// ListQualifyingByEmail returns every confirmed and paid booking made
// under the given contact email, oldest first.  It is the input set for
// customer aggregation.
func (r *BookingRepo) ListQualifyingByEmail(ctx context.Context, email string) ([]model.Booking, error) {
	q := `SELECT ` + bookingColumns + ` FROM bookings
		WHERE customer_email = ? AND status = ? AND payment_status = ?
		ORDER BY created_at ASC, id ASC`
	return r.queryBookings(ctx, q, strings.ToLower(strings.TrimSpace(email)), model.BookingConfirmed, model.PaymentPaid)
}

// ListByCustomer returns bookings linked to a customer id.
func (r *BookingRepo) ListByCustomer(ctx context.Context, customerID uint64) ([]model.Booking, error) {
	q := `SELECT ` + bookingColumns + ` FROM bookings WHERE customer_id = ? ORDER BY created_at DESC, id DESC`
	return r.queryBookings(ctx, q, customerID)
}

func (r *BookingRepo) queryBookings(ctx context.Context, q string, args ...any) ([]model.Booking, error) {
	rows, err := r.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("query bookings: %w", err)
	}
	defer rows.Close()
	out := make([]model.Booking, 0)
	for rows.Next() {
		b, err := scanBooking(rows)
		if err != nil {
			return nil, fmt.Errorf("scan booking: %w", err)
		}
		out = append(out, *b)
	}
	return out, rows.Err()
}

// Replace overwrites every mutable column of a booking.  It backs the
// PUT endpoint and writes all fields unconditionally.
func (r *BookingRepo) Replace(ctx context.Context, b *model.Booking) error {
	const q = `UPDATE bookings SET
		tour_id = ?, customer_name = ?, customer_email = ?, customer_phone = ?, customer_country = ?,
		preferred_contact_method = ?, preferred_contact_time = ?,
		start_date = ?, end_date = ?, guests = ?,
		total_amount = ?, discount_amount = ?, final_amount = ?,
		special_requests = ?, staff_notes = ?, cancellation_reason = ?,
		status = ?, payment_status = ?, updated_at = UTC_TIMESTAMP()
		WHERE id = ?`
	res, err := r.db.ExecContext(ctx, q,
		b.TourID, b.Contact.Name, strings.ToLower(strings.TrimSpace(b.Contact.Email)), b.Contact.Phone, b.Contact.Country,
		b.Contact.PreferredContactMethod, b.Contact.PreferredContactTime,
		b.StartDate, b.EndDate, b.Guests,
		b.TotalAmount, b.DiscountAmount, b.FinalAmount,
		b.SpecialRequests, b.StaffNotes, b.CancellationReason,
		b.Status, b.PaymentStatus, b.ID,
	)
	if err != nil {
		return fmt.Errorf("replace booking: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		// MySQL reports 0 for unchanged rows too; confirm existence.
		if _, err := r.GetByID(ctx, b.ID); err != nil {
			return err
		}
	}
	return nil
}

// ApplyChanges writes only the columns present in ch.  An empty change
// set is a no-op.  The caller is expected to have verified that the
// booking exists.
func (r *BookingRepo) ApplyChanges(ctx context.Context, id uint64, ch model.BookingChanges) error {
	sets, args := bookingSetClause(ch)
	if len(sets) == 0 {
		return nil // nothing to write
	}
	sets = append(sets, "updated_at = UTC_TIMESTAMP()") // timestamps are always UTC
	args = append(args, id)
	q := "UPDATE bookings SET " + strings.Join(sets, ", ") + " WHERE id = ?"
	if _, err := r.db.ExecContext(ctx, q, args...); err != nil {
		return fmt.Errorf("update booking %d: %w", id, err)
	}
	return nil
}

// bookingSetClause maps non-nil changes to column assignments in a
// fixed order.
func bookingSetClause(ch model.BookingChanges) ([]string, []any) {
	var (
		sets []string
		args []any
	)
	add := func(col string, v any) {
		sets = append(sets, col+" = ?")
		args = append(args, v)
	}
	if ch.Status != nil {
		add("status", *ch.Status)
	}
	if ch.PaymentStatus != nil {
		add("payment_status", *ch.PaymentStatus)
	}
	if ch.Name != nil {
		add("customer_name", *ch.Name)
	}
	if ch.Email != nil {
		add("customer_email", strings.ToLower(strings.TrimSpace(*ch.Email)))
	}
	if ch.Phone != nil {
		add("customer_phone", *ch.Phone)
	}
	if ch.Country != nil {
		add("customer_country", *ch.Country)
	}
	if ch.PreferredContactMethod != nil {
		add("preferred_contact_method", *ch.PreferredContactMethod)
	}
	if ch.PreferredContactTime != nil {
		add("preferred_contact_time", *ch.PreferredContactTime)
	}
	if ch.StartDate != nil {
		add("start_date", *ch.StartDate)
	}
	if ch.EndDate != nil {
		add("end_date", *ch.EndDate)
	}
	if ch.Guests != nil {
		add("guests", *ch.Guests)
	}
	if ch.TotalAmount != nil {
		add("total_amount", *ch.TotalAmount)
	}
	if ch.DiscountAmount != nil {
		add("discount_amount", *ch.DiscountAmount)
	}
	if ch.FinalAmount != nil {
		add("final_amount", *ch.FinalAmount)
	}
	if ch.SpecialRequests != nil {
		add("special_requests", *ch.SpecialRequests)
	}
	if ch.StaffNotes != nil {
		add("staff_notes", *ch.StaffNotes)
	}
	if ch.CancellationReason != nil {
		add("cancellation_reason", *ch.CancellationReason)
	}
	if ch.EmailSentAt != nil {
		add("email_sent_at", *ch.EmailSentAt)
	}
	return sets, args
}

// LinkCustomer points a booking at its customer aggregate.  Bookings
// that are already linked are left as they are.
func (r *BookingRepo) LinkCustomer(ctx context.Context, bookingID, customerID uint64) error {
	const q = `UPDATE bookings SET customer_id = ? WHERE id = ? AND customer_id IS NULL`
	if _, err := r.db.ExecContext(ctx, q, customerID, bookingID); err != nil {
		return fmt.Errorf("link booking %d to customer %d: %w", bookingID, customerID, err)
	}
	return nil
}

// Delete hard-deletes a booking.  Child rows go with it through
// ON DELETE CASCADE.
func (r *BookingRepo) Delete(ctx context.Context, id uint64) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM bookings WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete booking %d: %w", id, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 { // no row matched the id
		return ErrNotFound
	}
	return nil
}

// GetDetail loads a booking together with its tour, linked customer,
// guests, communications and payments.
func (r *BookingRepo) GetDetail(ctx context.Context, id uint64) (*model.BookingDetail, error) {
	b, err := r.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	det := &model.BookingDetail{
		Booking:        *b,
		GuestList:      []model.BookingGuest{},
		Communications: []model.BookingCommunication{},
		Payments:       []model.BookingPayment{},
	}

	var tour model.TourSummary
	err = r.db.QueryRowContext(ctx,
		`SELECT id, title, destination, duration_days, price, image FROM tours WHERE id = ?`, b.TourID,
	).Scan(&tour.ID, &tour.Title, &tour.Destination, &tour.DurationDays, &tour.Price, &tour.Image)
	switch {
	case err == nil:
		det.Tour = &tour
	case err != sql.ErrNoRows: // a missing tour leaves Tour nil
		return nil, fmt.Errorf("load tour: %w", err)
	}

	if b.CustomerID != nil {
		c, err := scanCustomer(r.db.QueryRowContext(ctx,
			`SELECT `+customerColumns+` FROM customers WHERE id = ?`, *b.CustomerID))
		switch {
		case err == nil:
			det.Customer = c
		case err != sql.ErrNoRows:
			return nil, fmt.Errorf("load customer: %w", err)
		}
	}

	guests, err := r.db.QueryContext(ctx,
		`SELECT id, full_name, date_of_birth, passport_number, nationality
		 FROM booking_guests WHERE booking_id = ? ORDER BY id`, id)
	if err != nil {
		return nil, fmt.Errorf("load guests: %w", err)
	}
	defer guests.Close()
	for guests.Next() {
		var (
			g   model.BookingGuest
			dob sql.NullTime
			pp  sql.NullString
			nat sql.NullString
		)
		if err := guests.Scan(&g.ID, &g.FullName, &dob, &pp, &nat); err != nil {
			return nil, fmt.Errorf("scan guest: %w", err)
		}
		g.DateOfBirth = nullTime(dob) // NULL becomes an omitted field
		g.Passport = pp.String
		g.Nationality = nat.String
		det.GuestList = append(det.GuestList, g)
	}
	if err := guests.Err(); err != nil {
		return nil, err
	}

	comms, err := r.db.QueryContext(ctx,
		`SELECT id, channel, subject, body, sent_by, created_at
		 FROM booking_communications WHERE booking_id = ? ORDER BY created_at`, id)
	if err != nil {
		return nil, fmt.Errorf("load communications: %w", err)
	}
	defer comms.Close()
	for comms.Next() {
		var (
			m      model.BookingCommunication
			sentBy sql.NullString
		)
		if err := comms.Scan(&m.ID, &m.Channel, &m.Subject, &m.Body, &sentBy, &m.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan communication: %w", err)
		}
		m.SentBy = sentBy.String
		det.Communications = append(det.Communications, m)
	}
	if err := comms.Err(); err != nil {
		return nil, err
	}

	pays, err := r.db.QueryContext(ctx,
		`SELECT id, amount, method, reference, status, paid_at
		 FROM booking_payments WHERE booking_id = ? ORDER BY paid_at`, id)
	if err != nil {
		return nil, fmt.Errorf("load payments: %w", err)
	}
	defer pays.Close()
	for pays.Next() {
		var (
			p   model.BookingPayment
			ref sql.NullString
		)
		if err := pays.Scan(&p.ID, &p.Amount, &p.Method, &ref, &p.Status, &p.PaidAt); err != nil {
			return nil, fmt.Errorf("scan payment: %w", err)
		}
		p.Reference = ref.String
		det.Payments = append(det.Payments, p)
	}
	return det, pays.Err()
}

func nullUint(v sql.NullInt64) *uint64 {
	if !v.Valid {
		return nil
	}
	u := uint64(v.Int64)
	return &u
}

func nullTime(v sql.NullTime) *time.Time {
	if !v.Valid {
		return nil
	}
	t := v.Time
	return &t
}

func nullString(v sql.NullString) *string {
	if !v.Valid {
		return nil
	}
	s := v.String
	return &s
}

// withPaging appends LIMIT/OFFSET when a positive limit is given.
func withPaging(q string, args []any, limit, offset int) (string, []any) {
	if limit <= 0 {
		return q, args
	}
	if limit > 200 {
		limit = 200
	}
	if offset < 0 {
		offset = 0
	}
	return q + " LIMIT ? OFFSET ?", append(args, limit, offset)
}
