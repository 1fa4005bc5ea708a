package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/iliyamo/backoffice/internal/model"
)

// CustomerRepo persists the customer aggregate derived from bookings.
// Email is the natural key and is stored lower-cased.
type CustomerRepo struct {
	db *sql.DB
}

// NewCustomerRepo returns a new CustomerRepo.
func NewCustomerRepo(db *sql.DB) *CustomerRepo { return &CustomerRepo{db: db} }

const customerColumns = `id, name, email, phone, country, city, address,
	total_bookings, total_spent, first_booking_date, last_booking_date,
	customer_type, loyalty_points, preferred_contact_method, preferred_contact_time,
	status, created_at, updated_at`

func scanCustomer(s rowScanner) (*model.Customer, error) {
	var (
		c                   model.Customer
		city, addr          sql.NullString
		method, pref        sql.NullString
		firstDate, lastDate sql.NullTime
	)
	err := s.Scan(
		&c.ID, &c.Name, &c.Email, &c.Phone, &c.Country, &city, &addr,
		&c.TotalBookings, &c.TotalSpent, &firstDate, &lastDate,
		&c.CustomerType, &c.LoyaltyPoints, &method, &pref,
		&c.Status, &c.CreatedAt, &c.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	c.City = city.String
	c.Address = addr.String
	c.PreferredContactMethod = method.String
	c.PreferredContactTime = pref.String
	c.FirstBookingDate = nullTime(firstDate)
	c.LastBookingDate = nullTime(lastDate)
	return &c, nil
}

// GetByID returns the customer or ErrNotFound.
func (r *CustomerRepo) GetByID(ctx context.Context, id uint64) (*model.Customer, error) {
	c, err := scanCustomer(r.db.QueryRowContext(ctx,
		`SELECT `+customerColumns+` FROM customers WHERE id = ?`, id))
	if err != nil {
		return nil, notFound(err)
	}
	return c, nil
}

// GetByEmail looks a customer up by normalized email.  It returns
// ErrNotFound when no aggregate exists yet.
func (r *CustomerRepo) GetByEmail(ctx context.Context, email string) (*model.Customer, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	c, err := scanCustomer(r.db.QueryRowContext(ctx,
		`SELECT `+customerColumns+` FROM customers WHERE email = ? LIMIT 1`, email))
	if err != nil {
		return nil, notFound(err)
	}
	return c, nil
}

// List returns customers ordered by most recent booking.  Search matches
// name or email as a prefix.
func (r *CustomerRepo) List(ctx context.Context, f model.CustomerFilter) ([]model.Customer, error) {
	var (
		where []string
		args  []any
	)
	if f.CustomerType != "" {
		where = append(where, "customer_type = ?")
		args = append(args, f.CustomerType)
	}
	if s := strings.TrimSpace(f.Search); s != "" {
		where = append(where, "(name LIKE ? OR email LIKE ?)")
		args = append(args, s+"%", strings.ToLower(s)+"%")
	}
	q := `SELECT ` + customerColumns + ` FROM customers`
	if len(where) > 0 {
		q += " WHERE " + strings.Join(where, " AND ")
	}
	q += " ORDER BY last_booking_date DESC, id DESC"
	q, args = withPaging(q, args, f.Limit, f.Offset)

	rows, err := r.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("query customers: %w", err)
	}
	defer rows.Close()
	out := make([]model.Customer, 0)
	for rows.Next() {
		c, err := scanCustomer(rows)
		if err != nil {
			return nil, fmt.Errorf("scan customer: %w", err)
		}
		out = append(out, *c)
	}
	return out, rows.Err()
}

// Create inserts a new aggregate and sets c.ID.  A concurrent insert for
// the same email surfaces as ErrConflict.
func (r *CustomerRepo) Create(ctx context.Context, c *model.Customer) error {
	const q = `INSERT INTO customers
		(name, email, phone, country, total_bookings, total_spent,
		 first_booking_date, last_booking_date, customer_type, loyalty_points,
		 preferred_contact_method, preferred_contact_time, status, created_at, updated_at)
		VALUES (?,?,?,?,?,?,?,?,?,?,?,?,?,UTC_TIMESTAMP(),UTC_TIMESTAMP())`
	c.Email = strings.ToLower(strings.TrimSpace(c.Email))
	res, err := r.db.ExecContext(ctx, q,
		c.Name, c.Email, c.Phone, c.Country, c.TotalBookings, c.TotalSpent,
		c.FirstBookingDate, c.LastBookingDate, c.CustomerType, c.LoyaltyPoints,
		c.PreferredContactMethod, c.PreferredContactTime, c.Status,
	)
	if err != nil {
		if isDuplicate(err) {
			return ErrConflict
		}
		return fmt.Errorf("insert customer: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	c.ID = uint64(id)
	return nil
}

// UpdateAggregate overwrites the derived fields of an existing customer
// along with the contact details copied from the latest booking.
func (r *CustomerRepo) UpdateAggregate(ctx context.Context, c *model.Customer) error {
	const q = `UPDATE customers SET
		name = ?, phone = ?, total_bookings = ?, total_spent = ?,
		first_booking_date = ?, last_booking_date = ?, customer_type = ?, loyalty_points = ?,
		preferred_contact_method = ?, preferred_contact_time = ?, status = ?,
		updated_at = UTC_TIMESTAMP()
		WHERE id = ?`
	res, err := r.db.ExecContext(ctx, q,
		c.Name, c.Phone, c.TotalBookings, c.TotalSpent,
		c.FirstBookingDate, c.LastBookingDate, c.CustomerType, c.LoyaltyPoints,
		c.PreferredContactMethod, c.PreferredContactTime, c.Status, c.ID,
	)
	if err != nil {
		return fmt.Errorf("update customer %d: %w", c.ID, err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		if _, err := r.GetByID(ctx, c.ID); err != nil {
			return err
		}
	}
	return nil
}
