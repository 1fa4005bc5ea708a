package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/iliyamo/backoffice/internal/model"
)

// ApplicationRepo reads and updates admissions applications.  Rows are
// never deleted; Archive stamps archived_at instead.
type ApplicationRepo struct {
	db *sql.DB
}

func NewApplicationRepo(db *sql.DB) *ApplicationRepo { return &ApplicationRepo{db: db} }

const applicationColumns = `id, first_name, last_name, email, phone, campus, program, intake,
	status, notes, student_id, archived_at, created_at, updated_at`

func scanApplication(s rowScanner) (*model.Application, error) {
	var (
		a         model.Application
		intake    sql.NullString
		notes     sql.NullString
		studentID sql.NullInt64
		archived  sql.NullTime
	)
	err := s.Scan(&a.ID, &a.FirstName, &a.LastName, &a.Email, &a.Phone, &a.Campus, &a.Program, &intake,
		&a.Status, &notes, &studentID, &archived, &a.CreatedAt, &a.UpdatedAt)
	if err != nil {
		return nil, err
	}
	a.Intake = intake.String
	a.Notes = nullString(notes)
	a.StudentID = nullUint(studentID)
	a.ArchivedAt = nullTime(archived)
	return &a, nil
}

// GetByID returns an application, archived or not.
func (r *ApplicationRepo) GetByID(ctx context.Context, id uint64) (*model.Application, error) {
	a, err := scanApplication(r.db.QueryRowContext(ctx,
		`SELECT `+applicationColumns+` FROM applications WHERE id = ?`, id))
	if err != nil {
		return nil, notFound(err)
	}
	return a, nil
}

// List returns applications newest first.  Archived rows are hidden
// unless IncludeArchived is set.
func (r *ApplicationRepo) List(ctx context.Context, f model.ApplicationFilter) ([]model.Application, error) {
	var (
		where []string
		args  []any
	)
	if !f.IncludeArchived {
		where = append(where, "archived_at IS NULL")
	}
	if f.Status != "" {
		where = append(where, "status = ?")
		args = append(args, f.Status)
	}
	if f.Campus != "" {
		where = append(where, "campus = ?")
		args = append(args, f.Campus)
	}
	q := `SELECT ` + applicationColumns + ` FROM applications`
	if len(where) > 0 {
		q += " WHERE " + strings.Join(where, " AND ")
	}
	q += " ORDER BY created_at DESC, id DESC"
	q, args = withPaging(q, args, f.Limit, f.Offset)

	rows, err := r.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("query applications: %w", err)
	}
	defer rows.Close()
	out := make([]model.Application, 0)
	for rows.Next() {
		a, err := scanApplication(rows)
		if err != nil {
			return nil, fmt.Errorf("scan application: %w", err)
		}
		out = append(out, *a)
	}
	return out, rows.Err()
}

// ApplyChanges writes the non-nil fields of ch.
func (r *ApplicationRepo) ApplyChanges(ctx context.Context, id uint64, ch model.ApplicationChanges) error {
	var (
		sets []string
		args []any
	)
	if ch.Status != nil {
		sets = append(sets, "status = ?")
		args = append(args, *ch.Status)
	}
	if ch.Notes != nil {
		sets = append(sets, "notes = ?")
		args = append(args, *ch.Notes)
	}
	if ch.Intake != nil {
		sets = append(sets, "intake = ?")
		args = append(args, *ch.Intake)
	}
	if ch.Program != nil {
		sets = append(sets, "program = ?")
		args = append(args, *ch.Program)
	}
	if len(sets) == 0 {
		return nil
	}
	sets = append(sets, "updated_at = UTC_TIMESTAMP()")
	args = append(args, id)
	q := "UPDATE applications SET " + strings.Join(sets, ", ") + " WHERE id = ?"
	if _, err := r.db.ExecContext(ctx, q, args...); err != nil {
		return fmt.Errorf("update application %d: %w", id, err)
	}
	return nil
}

// Archive soft-deletes an application.  Archiving twice is a no-op.
func (r *ApplicationRepo) Archive(ctx context.Context, id uint64) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE applications SET archived_at = COALESCE(archived_at, UTC_TIMESTAMP()) WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("archive application %d: %w", id, err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		if _, err := r.GetByID(ctx, id); err != nil {
			return err
		}
	}
	return nil
}

// LinkStudent records the student created from this application.
func (r *ApplicationRepo) LinkStudent(ctx context.Context, applicationID, studentID uint64) error {
	_, err := r.db.ExecContext(ctx,
		`UPDATE applications SET student_id = ? WHERE id = ? AND student_id IS NULL`,
		studentID, applicationID)
	if err != nil {
		return fmt.Errorf("link application %d to student %d: %w", applicationID, studentID, err)
	}
	return nil
}
