package router // package router defines how HTTP routes are registered for the API

import (
	"github.com/labstack/echo/v4"

	"github.com/iliyamo/backoffice/internal/handler"
	"github.com/iliyamo/backoffice/internal/middleware"
	"github.com/iliyamo/backoffice/internal/model"
)

// Handlers groups the back-office handlers registered under /v1.
type Handlers struct {
	Bookings     *handler.BookingHandler
	Customers    *handler.CustomerHandler
	Applications *handler.ApplicationHandler
}

// RegisterRoutes registers routes that do not require authentication.
func RegisterRoutes(e *echo.Echo) {
	e.GET("/healthz", handler.Health)
}

// RegisterAuth registers the token endpoints under /v1/auth and the
// caller's identity at /v1/me.  Registering new staff is admin-only.
func RegisterAuth(e *echo.Echo, a *handler.AuthHandler, jwtSecret string) {
	g := e.Group("/v1/auth")
	g.POST("/login", a.Login)
	g.POST("/refresh", a.Refresh)
	g.POST("/refresh-access", a.RefreshAccess)
	g.POST("/logout", a.Logout)
	g.POST("/register", a.Register,
		middleware.JWTAuth(jwtSecret),
		middleware.RequireRole(model.RoleAdmin),
	)

	e.GET("/v1/me", a.Me,
		middleware.JWTAuth(jwtSecret),
		middleware.RequireRole(model.RoleAdmin, model.RoleStaff),
	)
}

// RegisterBackoffice registers the booking, customer and admissions
// routes.  Every route needs a staff token.  cache wraps the reads and
// purge runs after every successful write, so a stale list never outlives
// an edit.
func RegisterBackoffice(e *echo.Echo, h Handlers, jwtSecret string, cache, purge echo.MiddlewareFunc) {
	g := e.Group(
		"/v1",
		middleware.JWTAuth(jwtSecret),
		middleware.RequireRole(model.RoleAdmin, model.RoleStaff),
		cache,
		purge,
	)

	g.GET("/bookings", h.Bookings.List)
	g.GET("/bookings/:id", h.Bookings.Get)
	g.PUT("/bookings/:id", h.Bookings.Put)
	g.PATCH("/bookings/:id", h.Bookings.Patch)
	g.DELETE("/bookings/:id", h.Bookings.Delete)

	g.GET("/customers", h.Customers.List)
	g.GET("/customers/:id", h.Customers.Get)
	g.GET("/customers/:id/bookings", h.Customers.Bookings)
	g.POST("/customers/:id/recompute", h.Customers.Recompute)

	g.GET("/applications", h.Applications.List)
	g.GET("/applications/:id", h.Applications.Get)
	g.PATCH("/applications/:id", h.Applications.Patch)
	g.DELETE("/applications/:id", h.Applications.Delete)
	g.GET("/applications/:id/student", h.Applications.Student)
	g.GET("/students/:id", h.Applications.GetStudent)
}
