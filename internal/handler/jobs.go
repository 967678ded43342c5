package handler

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/iliyamo/session-booking/internal/jobs"
)

// JobHandler lets an external scheduler trigger maintenance jobs.  The
// route is guarded by the shared job secret.
type JobHandler struct {
	Jobs *jobs.Registry
	Log  zerolog.Logger
}

// Run executes the job named in the path and returns its summary.
func (h *JobHandler) Run(c echo.Context) error {
	name := c.Param("name")
	res, err := h.Jobs.Run(c.Request().Context(), name)
	if errors.Is(err, jobs.ErrUnknownJob) {
		return c.JSON(http.StatusNotFound, echo.Map{"error": "unknown_job", "message": "unknown job " + name, "jobs": h.Jobs.Names()})
	}
	if err != nil {
		return fail(c, h.Log, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"job": name, "result": res})
}
