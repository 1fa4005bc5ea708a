package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"

	"github.com/iliyamo/backoffice/internal/model"
	"github.com/iliyamo/backoffice/internal/service"
)

// MockBookingService is a mock implementation of the booking service.
type MockBookingService struct {
	mock.Mock
}

func (m *MockBookingService) List(ctx context.Context, f model.BookingFilter) ([]model.Booking, error) {
	args := m.Called(ctx, f)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.Booking), args.Error(1)
}

func (m *MockBookingService) Detail(ctx context.Context, id uint64) (*model.BookingDetail, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.BookingDetail), args.Error(1)
}

func (m *MockBookingService) Replace(ctx context.Context, id uint64, r service.BookingReplacement) (*model.Booking, error) {
	args := m.Called(ctx, id, r)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Booking), args.Error(1)
}

func (m *MockBookingService) Patch(ctx context.Context, id uint64, p service.BookingPatch) (*service.PatchResult, error) {
	args := m.Called(ctx, id, p)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*service.PatchResult), args.Error(1)
}

func (m *MockBookingService) Delete(ctx context.Context, id uint64) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

// MockCustomerService is a mock implementation of the customer service.
type MockCustomerService struct {
	mock.Mock
}

func (m *MockCustomerService) Get(ctx context.Context, id uint64) (*model.Customer, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Customer), args.Error(1)
}

func (m *MockCustomerService) List(ctx context.Context, f model.CustomerFilter) ([]model.Customer, error) {
	args := m.Called(ctx, f)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.Customer), args.Error(1)
}

func (m *MockCustomerService) BookingsFor(ctx context.Context, id uint64) ([]model.Booking, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.Booking), args.Error(1)
}

func (m *MockCustomerService) Recompute(ctx context.Context, id uint64) (*model.Customer, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Customer), args.Error(1)
}

// MockApplicationService is a mock implementation of the admissions
// service.
type MockApplicationService struct {
	mock.Mock
}

func (m *MockApplicationService) Get(ctx context.Context, id uint64) (*model.Application, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Application), args.Error(1)
}

func (m *MockApplicationService) List(ctx context.Context, f model.ApplicationFilter) ([]model.Application, error) {
	args := m.Called(ctx, f)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.Application), args.Error(1)
}

func (m *MockApplicationService) Update(ctx context.Context, id uint64, p service.ApplicationPatch) (*service.ApplicationUpdate, error) {
	args := m.Called(ctx, id, p)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*service.ApplicationUpdate), args.Error(1)
}

func (m *MockApplicationService) Archive(ctx context.Context, id uint64) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func (m *MockApplicationService) StudentFor(ctx context.Context, applicationID uint64) (*model.Student, error) {
	args := m.Called(ctx, applicationID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Student), args.Error(1)
}

func (m *MockApplicationService) GetStudent(ctx context.Context, id uint64) (*model.Student, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Student), args.Error(1)
}
