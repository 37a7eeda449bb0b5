package middleware

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/inventory-system/inventory-web/internal/core/domain"
)

// RequireCapability enforces that the session's role grants action. It must
// run after Guard.
func RequireCapability(action domain.Action) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			entry := EntryFrom(c)
			if entry == nil || !entry.Session.Can(action) {
				return echo.NewHTTPError(http.StatusForbidden, "You are not allowed to perform this action.")
			}
			return next(c)
		}
	}
}
