package middleware

// identity.go holds the accessors for values JWTAuth places in the Echo
// context.  Handlers use them to stamp audit fields such as AdmittedBy.

import "github.com/labstack/echo/v4"

// StaffName returns the subject of the staff token, or "staff" when the
// token carried no subject.  It returns "" on unauthenticated routes.
func StaffName(c echo.Context) string {
	if c.Get(ctxRole) == nil {
		return ""
	}
	if v, ok := c.Get(ctxStaff).(string); ok && v != "" {
		return v
	}
	return "staff"
}

// StaffRole returns the role claim stored by JWTAuth, or "".
func StaffRole(c echo.Context) string {
	v, _ := c.Get(ctxRole).(string)
	return v
}

// ClientAddr returns the address that keys per-client limits.  It is
// whatever the server's IPExtractor yields, so forwarded headers only
// count when the extractor trusts the peer.
func ClientAddr(c echo.Context) string {
	ip := c.RealIP()
	if ip == "" {
		return "unknown"
	}
	return ip
}
