package middleware // declare the middleware package; contains reusable HTTP middleware functions

import (
	"errors"
	"net/http" // HTTP status codes for responses
	"strings"  // string utilities for prefix checking and trimming

	"github.com/golang-jwt/jwt/v5" // JWT library for parsing and validating tokens
	"github.com/labstack/echo/v4"  // Echo framework used for defining middleware and handlers

	"github.com/iliyamo/session-booking/internal/utils"
)

// Context keys set by JWTAuth.
const (
	ctxStaff = "staff"
	ctxRole  = "role"
)

// JWTAuth returns an Echo middleware that validates a Bearer staff token
// and injects the token's subject and role into the request context.  The
// provided secret must match the one used by cmd/admin when minting tokens.
// Only HS256 is accepted.  Downstream code reads the values with StaffName
// and StaffRole.
func JWTAuth(secret string) echo.MiddlewareFunc {
	parser := jwt.NewParser(jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}), jwt.WithExpirationRequired())
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			// A valid header starts with "Bearer " followed by the JWT.
			auth := c.Request().Header.Get("Authorization")
			if !strings.HasPrefix(auth, "Bearer ") {
				return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized", "message": "missing bearer token"})
			}
			raw := strings.TrimSpace(strings.TrimPrefix(auth, "Bearer "))

			claims := &utils.StaffClaims{}
			tok, err := parser.ParseWithClaims(raw, claims, func(*jwt.Token) (interface{}, error) {
				return []byte(secret), nil
			})
			if err != nil || !tok.Valid {
				msg := "invalid token"
				if errors.Is(err, jwt.ErrTokenExpired) {
					msg = "token expired"
				}
				return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized", "message": msg})
			}
			// The role must be one we know how to authorize; anything else
			// is treated as a forged or stale token.
			if claims.Role != utils.RoleStaff && claims.Role != utils.RoleAdmin {
				return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized", "message": "invalid claims"})
			}

			c.Set(ctxStaff, claims.Subject)
			c.Set(ctxRole, claims.Role)
			return next(c)
		}
	}
}
