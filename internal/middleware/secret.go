package middleware

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/session-booking/internal/utils"
)

// JobSecretHeader carries the shared secret of the job trigger endpoint.
const JobSecretHeader = "X-Job-Secret"

// RequireJobSecret guards the job trigger endpoint.  With an empty secret
// the endpoint is disabled and always answers 503.
func RequireJobSecret(secret string) echo.MiddlewareFunc {
	want := utils.HashCode(secret)
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			if secret == "" {
				return c.JSON(http.StatusServiceUnavailable, echo.Map{"error": "unavailable", "message": "job trigger disabled"})
			}
			got := c.Request().Header.Get(JobSecretHeader)
			if got == "" || !utils.HashEqual(utils.HashCode(got), want) {
				return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized", "message": "bad job secret"})
			}
			return next(c)
		}
	}
}
