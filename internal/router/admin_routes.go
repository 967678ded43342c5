package router

import (
	"github.com/labstack/echo/v4"

	"github.com/iliyamo/session-booking/internal/handler"
	"github.com/iliyamo/session-booking/internal/middleware"
)

// RegisterAdmin registers schedule and card management endpoints under
// /v1/staff.  All routes require a valid JWT and the ADMIN role.
func RegisterAdmin(e *echo.Echo, h *handler.AdminHandler, jwtSecret string) {
	g := e.Group(
		"/v1/staff",
		middleware.JWTAuth(jwtSecret),
		middleware.RequireAdmin(),
	)
	g.POST("/sessions", h.CreateSession)
	g.PUT("/sessions/:id", h.UpdateSession)
	g.POST("/sessions/:id/publish", h.Publish)
	g.POST("/sessions/:id/unpublish", h.Unpublish)
	g.POST("/sessions/:id/cancel", h.CancelSession)
	g.POST("/sessions/:id/reset", h.ResetSession)
	g.POST("/cards/:id/lock", h.LockCard)
	g.POST("/cards/:id/unlock", h.UnlockCard)
}
