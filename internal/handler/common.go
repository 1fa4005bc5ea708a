package handler // handler defines the HTTP handlers of the back-office API

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/backoffice/internal/repository"
	"github.com/iliyamo/backoffice/internal/service"
)

const internalError = "Internal server error"

// PageQuery is embedded by the list query structs.  It must stay exported
// so echo can bind into it.
type PageQuery struct {
	Limit  int `query:"limit" validate:"omitempty,min=1,max=200"`
	Offset int `query:"offset" validate:"omitempty,min=0"`
}

// getUserID extracts the user_id set by JWTAuth.
func getUserID(c echo.Context) (uint64, error) {
	switch t := c.Get("user_id").(type) {
	case uint64:
		return t, nil
	case int:
		return uint64(t), nil
	case int64:
		return uint64(t), nil
	case float64:
		return uint64(t), nil
	case string:
		if n, err := strconv.ParseUint(t, 10, 64); err == nil {
			return n, nil
		}
	}
	return 0, errors.New("invalid user_id in context")
}

// parseID reads the :id path parameter.
func parseID(c echo.Context) (uint64, bool) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil || id == 0 { // ids start at 1
		return 0, false
	}
	return id, true
}

// bindQuery binds and validates query parameters into q.
func bindQuery(c echo.Context, q any) error {
	if err := (&echo.DefaultBinder{}).BindQueryParams(c, q); err != nil { // query only, a GET carries no body
		return &service.ValidationError{Message: "invalid query parameters"}
	}
	return c.Validate(q) // RequestValidator names fields by their query tag
}

func badRequest(c echo.Context, msg string) error {
	return c.JSON(http.StatusBadRequest, echo.Map{"error": msg})
}

// fail maps a service error to a response.  notFoundMsg names the missing
// resource.
func fail(c echo.Context, err error, notFoundMsg string) error {
	var ve *service.ValidationError
	switch {
	case errors.Is(err, repository.ErrNotFound):
		return c.JSON(http.StatusNotFound, echo.Map{"error": notFoundMsg})
	case errors.As(err, &ve):
		return c.JSON(http.StatusBadRequest, echo.Map{"error": ve.Error()})
	}
	// log the cause, answer with a generic message
	c.Logger().Errorf("%s %s: %v", c.Request().Method, c.Path(), err)
	return c.JSON(http.StatusInternalServerError, echo.Map{"error": internalError})
}
