package handler // admissions endpoints

import (
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/backoffice/internal/model"
	"github.com/iliyamo/backoffice/internal/service"
)

const (
	applicationNotFound = "Application not found"
	studentNotFound     = "Student not found"
)

// ApplicationHandler serves /v1/applications and /v1/students.
type ApplicationHandler struct {
	Applications ApplicationAPI
}

func NewApplicationHandler(a ApplicationAPI) *ApplicationHandler {
	if a == nil {
		panic("nil ApplicationAPI passed to NewApplicationHandler")
	}
	return &ApplicationHandler{Applications: a}
}

type applicationListQuery struct {
	Status   string `query:"status"`
	Campus   string `query:"campus"`
	Archived bool   `query:"archived"`
	PageQuery
}

func (h *ApplicationHandler) List(c echo.Context) error {
	var q applicationListQuery
	if err := bindQuery(c, &q); err != nil { // status/campus/archived filters plus paging
		return fail(c, err, applicationNotFound)
	}
	list, err := h.Applications.List(c.Request().Context(), model.ApplicationFilter{
		Status:          model.ApplicationStatus(strings.ToLower(q.Status)),
		Campus:          strings.TrimSpace(q.Campus),
		IncludeArchived: q.Archived, // archived rows are hidden unless asked for
		Limit:           q.Limit,
		Offset:          q.Offset,
	})
	if err != nil {
		return fail(c, err, applicationNotFound)
	}
	if list == nil {
		list = []model.Application{}
	}
	return c.JSON(http.StatusOK, echo.Map{"success": true, "applications": list, "count": len(list)})
}

func (h *ApplicationHandler) Get(c echo.Context) error {
	id, ok := parseID(c)
	if !ok {
		return badRequest(c, "invalid id")
	}
	app, err := h.Applications.Get(c.Request().Context(), id)
	if err != nil {
		return fail(c, err, applicationNotFound)
	}
	return c.JSON(http.StatusOK, echo.Map{"success": true, "application": app})
}

// Patch handles PATCH /v1/applications/:id.  Approving an application
// creates its student once; studentCreated is false on re-approval.
func (h *ApplicationHandler) Patch(c echo.Context) error {
	id, ok := parseID(c)
	if !ok {
		return badRequest(c, "invalid id")
	}
	var req service.ApplicationPatch
	if err := c.Bind(&req); err != nil { // only present fields are applied
		return badRequest(c, "invalid request body")
	}
	res, err := h.Applications.Update(c.Request().Context(), id, req) // approval edge creates the student
	if err != nil {
		return fail(c, err, applicationNotFound)
	}
	out := echo.Map{
		"success":        true,
		"application":    res.Application,
		"studentCreated": res.StudentCreated,
	}
	if res.Student != nil {
		out["student"] = res.Student
	}
	if res.Warning != "" {
		out["warning"] = res.Warning // status change kept, student creation failed
	}
	return c.JSON(http.StatusOK, out)
}

// Delete archives the application; the row is kept.
func (h *ApplicationHandler) Delete(c echo.Context) error {
	id, ok := parseID(c)
	if !ok {
		return badRequest(c, "invalid id")
	}
	if err := h.Applications.Archive(c.Request().Context(), id); err != nil { // sets archived_at
		return fail(c, err, applicationNotFound)
	}
	return c.JSON(http.StatusOK, echo.Map{"success": true})
}

// Student handles GET /v1/applications/:id/student.
func (h *ApplicationHandler) Student(c echo.Context) error {
	id, ok := parseID(c)
	if !ok {
		return badRequest(c, "invalid id")
	}
	st, err := h.Applications.StudentFor(c.Request().Context(), id)
	if err != nil {
		return fail(c, err, studentNotFound)
	}
	return c.JSON(http.StatusOK, echo.Map{"success": true, "student": st})
}

// GetStudent handles GET /v1/students/:id.
func (h *ApplicationHandler) GetStudent(c echo.Context) error {
	id, ok := parseID(c)
	if !ok {
		return badRequest(c, "invalid id")
	}
	st, err := h.Applications.GetStudent(c.Request().Context(), id)
	if err != nil {
		return fail(c, err, studentNotFound)
	}
	return c.JSON(http.StatusOK, echo.Map{"success": true, "student": st})
}
