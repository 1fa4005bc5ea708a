package repository // student persistence

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/iliyamo/backoffice/internal/model"
)

// StudentRepo stores students created from approved applications.  The
// students table carries a unique key on application_id so at most one
// student can exist per application.
type StudentRepo struct {
	db *sql.DB
}

func NewStudentRepo(db *sql.DB) *StudentRepo { return &StudentRepo{db: db} }

const studentColumns = `id, application_id, student_number, full_name, email, campus, program, cohort, status, created_at`

func scanStudent(s rowScanner) (*model.Student, error) {
	var st model.Student
	err := s.Scan(&st.ID, &st.ApplicationID, &st.StudentNumber, &st.FullName, &st.Email,
		&st.Campus, &st.Program, &st.Cohort, &st.Status, &st.CreatedAt)
	if err != nil {
		return nil, err
	}
	return &st, nil
}

func (r *StudentRepo) GetByID(ctx context.Context, id uint64) (*model.Student, error) {
	st, err := scanStudent(r.db.QueryRowContext(ctx,
		`SELECT `+studentColumns+` FROM students WHERE id = ?`, id))
	if err != nil {
		return nil, notFound(err)
	}
	return st, nil
}

// GetByApplicationID returns ErrNotFound when the application has not
// produced a student yet.
func (r *StudentRepo) GetByApplicationID(ctx context.Context, applicationID uint64) (*model.Student, error) {
	st, err := scanStudent(r.db.QueryRowContext(ctx,
		`SELECT `+studentColumns+` FROM students WHERE application_id = ? LIMIT 1`, applicationID))
	if err != nil {
		return nil, notFound(err)
	}
	return st, nil
}

// Create inserts st and sets its ID.  A second student for the same
// application, or a clashing student number, yields ErrConflict.
func (r *StudentRepo) Create(ctx context.Context, st *model.Student) error {
	const q = `INSERT INTO students
		(application_id, student_number, full_name, email, campus, program, cohort, status, created_at)
		VALUES (?,?,?,?,?,?,?,?,UTC_TIMESTAMP())`
	res, err := r.db.ExecContext(ctx, q,
		st.ApplicationID, st.StudentNumber, st.FullName, st.Email,
		st.Campus, st.Program, st.Cohort, st.Status)
	if err != nil {
		if isDuplicate(err) { // application_id or student_number already taken
			return ErrConflict
		}
		return fmt.Errorf("insert student: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	st.ID = uint64(id)
	return nil
}

// NextSequence returns one past the highest suffix already issued for
// prefix and year, so gaps left by removed rows are never reused.  It
// satisfies ident.SuffixSource through ident.SuffixFunc.
func (r *StudentRepo) NextSequence(ctx context.Context, prefix string, year int) (int, error) {
	head := strings.ToUpper(strings.TrimSpace(prefix)) + fmt.Sprintf("%04d", year)
	const q = `SELECT COALESCE(MAX(CAST(SUBSTRING(student_number, ?) AS UNSIGNED)), 0)
		FROM students WHERE student_number LIKE ?`
	var n int
	if err := r.db.QueryRowContext(ctx, q, len(head)+1, head+"%").Scan(&n); err != nil { // SUBSTRING is 1-based
		return 0, fmt.Errorf("max student suffix: %w", err)
	}
	return n + 1, nil
}
