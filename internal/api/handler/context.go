package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"
	echomiddleware "github.com/labstack/echo/v4/middleware"

	"github.com/inventory-system/inventory-web/internal/api/middleware"
	"github.com/inventory-system/inventory-web/internal/api/web"
	"github.com/inventory-system/inventory-web/internal/core/service"
)

// sessionEntry returns the entry attached by middleware.Attach. A missing
// entry means the route was registered without it.
func sessionEntry(c echo.Context) (*service.Entry, error) {
	entry := middleware.EntryFrom(c)
	if entry == nil {
		return nil, echo.NewHTTPError(http.StatusInternalServerError, "session not attached")
	}
	return entry, nil
}

// page builds the common view data: current user, pending flash message and
// the CSRF token when the CSRF middleware is active.
func page(c echo.Context, entry *service.Entry, title string, data any) web.Page {
	csrf, _ := c.Get(echomiddleware.DefaultCSRFConfig.ContextKey).(string)
	return web.Page{
		Title: title,
		User:  entry.Session.User(),
		Flash: entry.TakeFlash(),
		CSRF:  csrf,
		Data:  data,
	}
}

// seeOther redirects after a POST so a reload does not resubmit it.
func seeOther(c echo.Context, to string) error {
	return c.Redirect(http.StatusSeeOther, to)
}
