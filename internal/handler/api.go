package handler

import (
	"context"

	"github.com/iliyamo/backoffice/internal/model"
	"github.com/iliyamo/backoffice/internal/service"
)

// BookingAPI is the booking surface the handlers depend on.
// *service.BookingService implements it.
type BookingAPI interface {
	List(ctx context.Context, f model.BookingFilter) ([]model.Booking, error)
	Detail(ctx context.Context, id uint64) (*model.BookingDetail, error)
	Replace(ctx context.Context, id uint64, r service.BookingReplacement) (*model.Booking, error)
	Patch(ctx context.Context, id uint64, p service.BookingPatch) (*service.PatchResult, error)
	Delete(ctx context.Context, id uint64) error
}

// CustomerAPI is implemented by *service.CustomerService.
type CustomerAPI interface {
	Get(ctx context.Context, id uint64) (*model.Customer, error)
	List(ctx context.Context, f model.CustomerFilter) ([]model.Customer, error)
	BookingsFor(ctx context.Context, id uint64) ([]model.Booking, error)
	Recompute(ctx context.Context, id uint64) (*model.Customer, error)
}

// ApplicationAPI is implemented by *service.ApplicationService.
type ApplicationAPI interface {
	Get(ctx context.Context, id uint64) (*model.Application, error)
	List(ctx context.Context, f model.ApplicationFilter) ([]model.Application, error)
	Update(ctx context.Context, id uint64, p service.ApplicationPatch) (*service.ApplicationUpdate, error)
	Archive(ctx context.Context, id uint64) error
	StudentFor(ctx context.Context, applicationID uint64) (*model.Student, error)
	GetStudent(ctx context.Context, id uint64) (*model.Student, error)
}

var (
	_ BookingAPI     = (*service.BookingService)(nil)
	_ CustomerAPI    = (*service.CustomerService)(nil)
	_ ApplicationAPI = (*service.ApplicationService)(nil)
)
