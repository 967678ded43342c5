package middleware // middleware provides shared request processing for handlers

import (
	"net/http" // http package defines standard HTTP status codes

	"github.com/labstack/echo/v4" // echo provides middleware chaining and context

	"github.com/iliyamo/session-booking/internal/utils"
)

// RequireRole returns a middleware function that enforces that the
// authenticated staff member has one of the specified roles.  It assumes
// JWTAuth has already stored the role in the context.  Requests with no
// role, or a role outside the allowed set, are aborted with 403.
func RequireRole(roles ...string) echo.MiddlewareFunc {
	allowed := make(map[string]bool, len(roles))
	for _, r := range roles {
		allowed[r] = true
	}
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			if !allowed[StaffRole(c)] {
				return c.JSON(http.StatusForbidden, echo.Map{"error": "forbidden", "message": "insufficient role"})
			}
			return next(c)
		}
	}
}

// RequireStaff admits both staff and admin tokens.
func RequireStaff() echo.MiddlewareFunc { return RequireRole(utils.RoleStaff, utils.RoleAdmin) }

// RequireAdmin admits admin tokens only.
func RequireAdmin() echo.MiddlewareFunc { return RequireRole(utils.RoleAdmin) }
