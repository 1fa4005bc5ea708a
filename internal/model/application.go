package model

import "time"

// ApplicationStatus is the admissions decision on an application.
type ApplicationStatus string

const (
	ApplicationPending  ApplicationStatus = "pending"
	ApplicationApproved ApplicationStatus = "approved"
	ApplicationRejected ApplicationStatus = "rejected"
	ApplicationDeferred ApplicationStatus = "deferred"
)

// Valid reports whether s is a known decision.
func (s ApplicationStatus) Valid() bool {
	switch s {
	case ApplicationPending, ApplicationApproved, ApplicationRejected, ApplicationDeferred:
		return true
	}
	return false
}

// Application is an admissions application submitted through one of the
// campus sites.  ArchivedAt is set instead of deleting the row.
type Application struct {
	ID         uint64            `json:"id"`
	FirstName  string            `json:"first_name"`
	LastName   string            `json:"last_name"`
	Email      string            `json:"email"`
	Phone      string            `json:"phone"`
	Campus     string            `json:"campus"`
	Program    string            `json:"program"`
	Intake     string            `json:"intake,omitempty"`
	Status     ApplicationStatus `json:"status"`
	Notes      *string           `json:"notes,omitempty"`
	StudentID  *uint64           `json:"student_id,omitempty"`
	ArchivedAt *time.Time        `json:"archived_at,omitempty"`
	CreatedAt  time.Time         `json:"created_at"`
	UpdatedAt  time.Time         `json:"updated_at"`
}

// FullName joins first and last name.
func (a Application) FullName() string {
	switch {
	case a.FirstName == "":
		return a.LastName
	case a.LastName == "":
		return a.FirstName
	}
	return a.FirstName + " " + a.LastName
}

// ApplicationChanges is a validated sparse update of an application.
type ApplicationChanges struct {
	Status  *ApplicationStatus
	Notes   *string
	Intake  *string
	Program *string
}

// Empty reports whether no field is set.
func (c ApplicationChanges) Empty() bool { return c == (ApplicationChanges{}) }

// Apply returns a copy of a with the changes applied.
func (c ApplicationChanges) Apply(a Application) Application {
	if c.Status != nil {
		a.Status = *c.Status
	}
	if c.Notes != nil {
		n := *c.Notes
		a.Notes = &n
	}
	if c.Intake != nil {
		a.Intake = *c.Intake
	}
	if c.Program != nil {
		a.Program = *c.Program
	}
	return a
}

// ApplicationFilter narrows application listings.
type ApplicationFilter struct {
	Status          ApplicationStatus
	Campus          string
	IncludeArchived bool
	Limit           int
	Offset          int
}

// Student is created once, when an application is approved.
type Student struct {
	ID            uint64    `json:"id"`
	ApplicationID uint64    `json:"application_id"`
	StudentNumber string    `json:"student_number"`
	FullName      string    `json:"full_name"`
	Email         string    `json:"email"`
	Campus        string    `json:"campus"`
	Program       string    `json:"program"`
	Cohort        string    `json:"cohort"`
	Status        string    `json:"status"`
	CreatedAt     time.Time `json:"created_at"`
}
