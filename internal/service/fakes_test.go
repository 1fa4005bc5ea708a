package service

import (
	"context"
	"fmt"
	"sort"
	"strconv"
	"strings"
	"sync"

	"github.com/iliyamo/backoffice/internal/model"
	"github.com/iliyamo/backoffice/internal/repository"
)

type memBookings struct {
	mu     sync.Mutex
	rows   map[uint64]model.Booking
	writes int
}

func newMemBookings(bs ...model.Booking) *memBookings {
	m := &memBookings{rows: map[uint64]model.Booking{}}
	for _, b := range bs {
		m.rows[b.ID] = b
	}
	return m
}

func (m *memBookings) GetByID(_ context.Context, id uint64) (*model.Booking, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	b, ok := m.rows[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return &b, nil
}

func (m *memBookings) GetDetail(ctx context.Context, id uint64) (*model.BookingDetail, error) {
	b, err := m.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	return &model.BookingDetail{Booking: *b}, nil
}

func (m *memBookings) sorted(keep func(model.Booking) bool) []model.Booking {
	out := []model.Booking{}
	for _, b := range m.rows {
		if keep(b) {
			out = append(out, b)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].ID < out[j].ID
		}
		return out[i].CreatedAt.Before(out[j].CreatedAt)
	})
	return out
}

func (m *memBookings) List(_ context.Context, f model.BookingFilter) ([]model.Booking, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.sorted(func(b model.Booking) bool {
		return (f.Status == "" || b.Status == f.Status) && (f.PaymentStatus == "" || b.PaymentStatus == f.PaymentStatus)
	}), nil
}

func (m *memBookings) ListByCustomer(_ context.Context, id uint64) ([]model.Booking, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.sorted(func(b model.Booking) bool { return b.CustomerID != nil && *b.CustomerID == id }), nil
}

func (m *memBookings) ListQualifyingByEmail(_ context.Context, email string) ([]model.Booking, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	email = strings.ToLower(strings.TrimSpace(email))
	return m.sorted(func(b model.Booking) bool {
		return strings.EqualFold(b.Contact.Email, email) && b.Qualifies()
	}), nil
}

func (m *memBookings) Replace(_ context.Context, b *model.Booking) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.rows[b.ID]; !ok {
		return repository.ErrNotFound
	}
	m.writes++
	m.rows[b.ID] = *b
	return nil
}

func (m *memBookings) ApplyChanges(_ context.Context, id uint64, ch model.BookingChanges) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if ch.Empty() {
		return nil
	}
	m.writes++
	m.rows[id] = ch.Apply(m.rows[id])
	return nil
}

func (m *memBookings) LinkCustomer(_ context.Context, bookingID, customerID uint64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	b := m.rows[bookingID]
	if b.CustomerID == nil {
		b.CustomerID = &customerID
		m.rows[bookingID] = b
	}
	return nil
}

func (m *memBookings) Delete(_ context.Context, id uint64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.rows[id]; !ok {
		return repository.ErrNotFound
	}
	delete(m.rows, id)
	return nil
}

type memCustomers struct {
	mu        sync.Mutex
	rows      map[uint64]model.Customer
	nextID    uint64
	lookupErr error
	creates   int
	updates   int
}

func newMemCustomers() *memCustomers {
	return &memCustomers{rows: map[uint64]model.Customer{}, nextID: 1}
}

func (m *memCustomers) GetByID(_ context.Context, id uint64) (*model.Customer, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	c, ok := m.rows[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return &c, nil
}

func (m *memCustomers) GetByEmail(_ context.Context, email string) (*model.Customer, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.lookupErr != nil {
		return nil, m.lookupErr
	}
	for _, c := range m.rows {
		if c.Email == strings.ToLower(email) {
			return &c, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (m *memCustomers) byEmail(email string) (model.Customer, bool) {
	c, err := m.GetByEmail(context.Background(), email)
	if err != nil {
		return model.Customer{}, false
	}
	return *c, true
}

func (m *memCustomers) List(context.Context, model.CustomerFilter) ([]model.Customer, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := []model.Customer{}
	for _, c := range m.rows {
		out = append(out, c)
	}
	return out, nil
}

func (m *memCustomers) Create(_ context.Context, c *model.Customer) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, existing := range m.rows {
		if existing.Email == c.Email {
			return repository.ErrConflict
		}
	}
	c.ID = m.nextID
	m.nextID++
	m.creates++
	m.rows[c.ID] = *c
	return nil
}

func (m *memCustomers) UpdateAggregate(_ context.Context, c *model.Customer) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.rows[c.ID]; !ok {
		return repository.ErrNotFound
	}
	m.updates++
	m.rows[c.ID] = *c
	return nil
}

type memApplications struct {
	mu   sync.Mutex
	rows map[uint64]model.Application
}

func newMemApplications(as ...model.Application) *memApplications {
	m := &memApplications{rows: map[uint64]model.Application{}}
	for _, a := range as {
		m.rows[a.ID] = a
	}
	return m
}

func (m *memApplications) GetByID(_ context.Context, id uint64) (*model.Application, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	a, ok := m.rows[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return &a, nil
}

func (m *memApplications) List(context.Context, model.ApplicationFilter) ([]model.Application, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := []model.Application{}
	for _, a := range m.rows {
		out = append(out, a)
	}
	return out, nil
}

func (m *memApplications) ApplyChanges(_ context.Context, id uint64, ch model.ApplicationChanges) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.rows[id] = ch.Apply(m.rows[id])
	return nil
}

func (m *memApplications) Archive(_ context.Context, id uint64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.rows[id]; !ok {
		return repository.ErrNotFound
	}
	return nil
}

func (m *memApplications) LinkStudent(_ context.Context, appID, studentID uint64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	a := m.rows[appID]
	if a.StudentID == nil {
		a.StudentID = &studentID
		m.rows[appID] = a
	}
	return nil
}

type memStudents struct {
	mu        sync.Mutex
	rows      map[uint64]model.Student
	nextID    uint64
	createErr error
}

func newMemStudents() *memStudents {
	return &memStudents{rows: map[uint64]model.Student{}, nextID: 1}
}

func (m *memStudents) GetByID(_ context.Context, id uint64) (*model.Student, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	st, ok := m.rows[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return &st, nil
}

func (m *memStudents) GetByApplicationID(_ context.Context, appID uint64) (*model.Student, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, st := range m.rows {
		if st.ApplicationID == appID {
			return &st, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (m *memStudents) Create(_ context.Context, st *model.Student) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.createErr != nil {
		return m.createErr
	}
	for _, existing := range m.rows {
		if existing.ApplicationID == st.ApplicationID || existing.StudentNumber == st.StudentNumber {
			return repository.ErrConflict
		}
	}
	st.ID = m.nextID
	m.nextID++
	m.rows[st.ID] = *st
	return nil
}

// nextSequence follows StudentRepo.NextSequence: one past the highest
// suffix issued for prefix and year.
func (m *memStudents) nextSequence(_ context.Context, prefix string, year int) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	head := strings.ToUpper(strings.TrimSpace(prefix)) + fmt.Sprintf("%04d", year)
	highest := 0
	for _, st := range m.rows {
		if !strings.HasPrefix(st.StudentNumber, head) {
			continue
		}
		if n, err := strconv.Atoi(strings.TrimPrefix(st.StudentNumber, head)); err == nil && n > highest {
			highest = n
		}
	}
	return highest + 1, nil
}

func (m *memStudents) count() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.rows)
}

type recordedEvent struct {
	Type    string
	Payload any
}

type recordingPublisher struct {
	mu     sync.Mutex
	events []recordedEvent
	err    error
}

func (p *recordingPublisher) Publish(_ context.Context, eventType string, payload any) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, recordedEvent{Type: eventType, Payload: payload})
	return p.err
}
