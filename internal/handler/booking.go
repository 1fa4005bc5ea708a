package handler // booking endpoints for back-office staff

import (
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/backoffice/internal/model"
	"github.com/iliyamo/backoffice/internal/service"
)

const bookingNotFound = "Booking not found"

// BookingHandler serves /v1/bookings.
type BookingHandler struct {
	Bookings BookingAPI
}

func NewBookingHandler(b BookingAPI) *BookingHandler {
	if b == nil {
		panic("nil BookingAPI passed to NewBookingHandler")
	}
	return &BookingHandler{Bookings: b}
}

type bookingListQuery struct {
	Status        string `query:"status"`
	PaymentStatus string `query:"payment_status"`
	Email         string `query:"email" validate:"omitempty,email"`
	PageQuery
}

// List handles GET /v1/bookings.
func (h *BookingHandler) List(c echo.Context) error {
	var q bookingListQuery
	if err := bindQuery(c, &q); err != nil { // bind and validate status/email/paging filters
		return fail(c, err, bookingNotFound)
	}
	list, err := h.Bookings.List(c.Request().Context(), model.BookingFilter{
		Status:        model.BookingStatus(strings.ToLower(q.Status)),
		PaymentStatus: model.PaymentStatus(strings.ToLower(q.PaymentStatus)),
		Email:         q.Email,
		Limit:         q.Limit,
		Offset:        q.Offset,
	})
	if err != nil {
		return fail(c, err, bookingNotFound)
	}
	if list == nil {
		list = []model.Booking{} // render [] rather than null
	}
	return c.JSON(http.StatusOK, echo.Map{"success": true, "bookings": list, "count": len(list)})
}

// Get handles GET /v1/bookings/:id and returns the booking with its tour,
// customer, guests, communications and payments.
func (h *BookingHandler) Get(c echo.Context) error {
	id, ok := parseID(c)
	if !ok {
		return badRequest(c, "invalid id")
	}
	d, err := h.Bookings.Detail(c.Request().Context(), id) // booking plus tour, customer and child rows
	if err != nil {
		return fail(c, err, bookingNotFound)
	}
	return c.JSON(http.StatusOK, echo.Map{"success": true, "booking": d}) // image as base64, amounts as numbers
}

// Put handles PUT /v1/bookings/:id, a full replacement.
func (h *BookingHandler) Put(c echo.Context) error {
	id, ok := parseID(c)
	if !ok {
		return badRequest(c, "invalid id")
	}
	var req service.BookingReplacement
	if err := c.Bind(&req); err != nil { // malformed JSON never reaches the service
		return badRequest(c, "invalid request body")
	}
	if err := c.Validate(&req); err != nil { // required fields and email format
		return fail(c, err, bookingNotFound)
	}
	b, err := h.Bookings.Replace(c.Request().Context(), id, req)
	if err != nil {
		return fail(c, err, bookingNotFound)
	}
	return c.JSON(http.StatusOK, echo.Map{"success": true, "booking": b})
}

// Patch handles PATCH /v1/bookings/:id.  customerCreated reports whether
// customer aggregation ran and succeeded on this call.
func (h *BookingHandler) Patch(c echo.Context) error {
	id, ok := parseID(c)
	if !ok {
		return badRequest(c, "invalid id")
	}
	var req service.BookingPatch
	if err := c.Bind(&req); err != nil { // absent fields stay nil and are left untouched
		return badRequest(c, "invalid request body")
	}
	res, err := h.Bookings.Patch(c.Request().Context(), id, req) // validates, writes, then aggregates on the qualifying edge
	if err != nil {
		return fail(c, err, bookingNotFound)
	}
	out := echo.Map{
		"success":         true,
		"booking":         res.Booking,
		"customerCreated": res.CustomerCreated,
	}
	if res.Customer != nil {
		out["customer"] = res.Customer
	}
	if res.Warning != "" {
		out["warning"] = res.Warning // the update stands even when aggregation failed
	}
	return c.JSON(http.StatusOK, out)
}

// Delete handles DELETE /v1/bookings/:id.
func (h *BookingHandler) Delete(c echo.Context) error {
	id, ok := parseID(c)
	if !ok {
		return badRequest(c, "invalid id")
	}
	if err := h.Bookings.Delete(c.Request().Context(), id); err != nil { // hard delete, child rows cascade
		return fail(c, err, bookingNotFound)
	}
	return c.JSON(http.StatusOK, echo.Map{"success": true})
}
