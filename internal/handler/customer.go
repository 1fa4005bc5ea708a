package handler

import (
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/backoffice/internal/model"
)

const customerNotFound = "Customer not found"

// CustomerHandler serves /v1/customers.
type CustomerHandler struct {
	Customers CustomerAPI
}

func NewCustomerHandler(c CustomerAPI) *CustomerHandler {
	if c == nil {
		panic("nil CustomerAPI passed to NewCustomerHandler")
	}
	return &CustomerHandler{Customers: c}
}

type customerListQuery struct {
	Type   string `query:"type"`
	Search string `query:"q"`
	PageQuery
}

func (h *CustomerHandler) List(c echo.Context) error {
	var q customerListQuery
	if err := bindQuery(c, &q); err != nil { // tier, free-text search and paging
		return fail(c, err, customerNotFound)
	}
	list, err := h.Customers.List(c.Request().Context(), model.CustomerFilter{
		CustomerType: model.CustomerType(strings.ToLower(q.Type)),
		Search:       strings.TrimSpace(q.Search),
		Limit:        q.Limit,
		Offset:       q.Offset,
	})
	if err != nil {
		return fail(c, err, customerNotFound)
	}
	if list == nil {
		list = []model.Customer{}
	}
	return c.JSON(http.StatusOK, echo.Map{"success": true, "customers": list, "count": len(list)})
}

func (h *CustomerHandler) Get(c echo.Context) error {
	id, ok := parseID(c)
	if !ok {
		return badRequest(c, "invalid id")
	}
	cust, err := h.Customers.Get(c.Request().Context(), id)
	if err != nil {
		return fail(c, err, customerNotFound)
	}
	return c.JSON(http.StatusOK, echo.Map{"success": true, "customer": cust})
}

// Bookings handles GET /v1/customers/:id/bookings.
func (h *CustomerHandler) Bookings(c echo.Context) error {
	id, ok := parseID(c)
	if !ok {
		return badRequest(c, "invalid id")
	}
	list, err := h.Customers.BookingsFor(c.Request().Context(), id)
	if err != nil {
		return fail(c, err, customerNotFound)
	}
	if list == nil {
		list = []model.Booking{}
	}
	return c.JSON(http.StatusOK, echo.Map{"success": true, "bookings": list, "count": len(list)})
}

// Recompute handles POST /v1/customers/:id/recompute.  It rebuilds the
// aggregate from every confirmed and paid booking under the customer's
// email.
func (h *CustomerHandler) Recompute(c echo.Context) error {
	id, ok := parseID(c)
	if !ok {
		return badRequest(c, "invalid id")
	}
	cust, err := h.Customers.Recompute(c.Request().Context(), id) // also links any unlinked qualifying bookings
	if err != nil {
		return fail(c, err, customerNotFound)
	}
	return c.JSON(http.StatusOK, echo.Map{"success": true, "customer": cust})
}
