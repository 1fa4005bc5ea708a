package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/labstack/gommon/log"

	"github.com/iliyamo/backoffice/internal/ident"
	"github.com/iliyamo/backoffice/internal/model"
	"github.com/iliyamo/backoffice/internal/queue"
	"github.com/iliyamo/backoffice/internal/repository"
)

// DefaultCohort is assigned to new students when none is configured.
const DefaultCohort = "FOUNDATION-A"

// studentNumberAttempts bounds retries when a generated number clashes.
const studentNumberAttempts = 3

// ApplicationService manages admissions decisions.  Approving an
// application creates its student exactly once.
type ApplicationService struct {
	Applications ApplicationStore
	Students     StudentStore
	Numbers      *ident.Generator
	Cohort       string
	Events       EventPublisher
	Log          *log.Logger
}

func NewApplicationService(apps ApplicationStore, students StudentStore, numbers *ident.Generator, cohort string, ev EventPublisher, logger *log.Logger) *ApplicationService {
	if cohort == "" {
		cohort = DefaultCohort
	}
	if ev == nil {
		ev = NopPublisher{}
	}
	return &ApplicationService{
		Applications: apps,
		Students:     students,
		Numbers:      numbers,
		Cohort:       cohort,
		Events:       ev,
		Log:          logger,
	}
}

// ApplicationPatch is the sparse PATCH body for an application.
type ApplicationPatch struct {
	Status  *string `json:"status"`
	Notes   *string `json:"notes"`
	Intake  *string `json:"intake"`
	Program *string `json:"program"`
}

// ApplicationUpdate is the outcome of Update.
type ApplicationUpdate struct {
	Application    *model.Application
	Student        *model.Student
	StudentCreated bool
	Warning        string
}

func (s *ApplicationService) Get(ctx context.Context, id uint64) (*model.Application, error) {
	return s.Applications.GetByID(ctx, id)
}

func (s *ApplicationService) List(ctx context.Context, f model.ApplicationFilter) ([]model.Application, error) {
	if f.Status != "" && !f.Status.Valid() {
		return nil, invalid("status", "unknown status %q", f.Status)
	}
	return s.Applications.List(ctx, f)
}

// Update applies the patch.  A student is created only when the status
// moves into approved from another value; a failure there is logged and
// reported as a warning, the status change stands.
func (s *ApplicationService) Update(ctx context.Context, id uint64, p ApplicationPatch) (*ApplicationUpdate, error) {
	current, err := s.Applications.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	ch, err := p.changes()
	if err != nil {
		return nil, err
	}
	if err := s.Applications.ApplyChanges(ctx, id, ch); err != nil {
		return nil, err
	}
	updated, err := s.Applications.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	res := &ApplicationUpdate{Application: updated}
	if current.Status == model.ApplicationApproved || updated.Status != model.ApplicationApproved {
		return res, nil
	}

	st, created, err := s.ensureStudent(ctx, *updated)
	if err != nil {
		sec := &SecondaryEffectError{Effect: "student creation", Err: err}
		s.Log.Errorj(log.JSON{"msg": "student creation failed", "application_id": id, "error": err.Error()})
		res.Warning = sec.Error()
		return res, nil
	}
	res.Student, res.StudentCreated = st, created
	if updated.StudentID == nil {
		sid := st.ID
		updated.StudentID = &sid
	}
	return res, nil
}

func (p ApplicationPatch) changes() (model.ApplicationChanges, error) {
	var ch model.ApplicationChanges
	if p.Status != nil {
		st := model.ApplicationStatus(strings.ToLower(strings.TrimSpace(*p.Status)))
		if !st.Valid() {
			return ch, invalid("status", "unknown status %q", *p.Status)
		}
		ch.Status = &st
	}
	if p.Program != nil {
		prog := strings.TrimSpace(*p.Program)
		if prog == "" {
			return ch, invalid("program", "must not be empty")
		}
		ch.Program = &prog
	}
	ch.Notes = p.Notes
	ch.Intake = p.Intake
	return ch, nil
}

// ensureStudent returns the application's student, creating it if none
// exists yet.  The unique key on application_id backs this check when two
// approvals race.
func (s *ApplicationService) ensureStudent(ctx context.Context, app model.Application) (*model.Student, bool, error) {
	existing, err := s.Students.GetByApplicationID(ctx, app.ID)
	switch {
	case err == nil:
		return existing, false, s.link(ctx, app, existing)
	case !errors.Is(err, repository.ErrNotFound):
		return nil, false, fmt.Errorf("lookup student: %w", err)
	}
	if s.Numbers == nil {
		return nil, false, errors.New("no student number generator configured")
	}

	for attempt := 0; attempt < studentNumberAttempts; attempt++ {
		number, err := s.Numbers.Next(ctx)
		if err != nil {
			return nil, false, err
		}
		st := &model.Student{
			ApplicationID: app.ID,
			StudentNumber: number,
			FullName:      app.FullName(),
			Email:         strings.ToLower(strings.TrimSpace(app.Email)),
			Campus:        app.Campus,
			Program:       app.Program,
			Cohort:        s.Cohort,
			Status:        "active",
		}
		err = s.Students.Create(ctx, st)
		if err == nil {
			if err := s.link(ctx, app, st); err != nil {
				return nil, false, err
			}
			s.publish(ctx, st)
			return st, true, nil
		}
		if !errors.Is(err, repository.ErrConflict) {
			return nil, false, fmt.Errorf("create student: %w", err)
		}
		// Either another request created this application's student or the
		// number was taken.  Prefer the former.
		if other, gerr := s.Students.GetByApplicationID(ctx, app.ID); gerr == nil {
			return other, false, s.link(ctx, app, other)
		}
	}
	return nil, false, fmt.Errorf("student number still clashing after %d attempts", studentNumberAttempts)
}

func (s *ApplicationService) link(ctx context.Context, app model.Application, st *model.Student) error {
	if app.StudentID != nil {
		return nil
	}
	return s.Applications.LinkStudent(ctx, app.ID, st.ID)
}

func (s *ApplicationService) publish(ctx context.Context, st *model.Student) {
	err := s.Events.Publish(ctx, queue.TypeStudentCreated, queue.StudentCreatedEvent{
		StudentID:     st.ID,
		ApplicationID: st.ApplicationID,
		StudentNumber: st.StudentNumber,
		FullName:      st.FullName,
		Campus:        st.Campus,
		Program:       st.Program,
		Cohort:        st.Cohort,
	})
	if err != nil {
		s.Log.Warnf("publish %s for student %d: %v", queue.TypeStudentCreated, st.ID, err)
	}
}

// Archive soft-deletes an application.
func (s *ApplicationService) Archive(ctx context.Context, id uint64) error {
	return s.Applications.Archive(ctx, id)
}

// StudentFor returns the student created from an application.
func (s *ApplicationService) StudentFor(ctx context.Context, applicationID uint64) (*model.Student, error) {
	if _, err := s.Applications.GetByID(ctx, applicationID); err != nil {
		return nil, err
	}
	return s.Students.GetByApplicationID(ctx, applicationID)
}

func (s *ApplicationService) GetStudent(ctx context.Context, id uint64) (*model.Student, error) {
	return s.Students.GetByID(ctx, id)
}
