package middleware

import (
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/inventory-system/inventory-web/internal/api/web"
	"github.com/inventory-system/inventory-web/internal/core/service"
)

const (
	entryKey           = "session_entry"
	defaultCookieName  = "inventory_session"
	defaultRestoreWait = 2 * time.Second
	pendingRefresh     = "1"
)

// SessionOptions configures the browser-session cookie.
type SessionOptions struct {
	CookieName string
	Secure     bool
	// RestoreWait bounds how long a request waits for the first restore
	// before the guard answers with the pending page.
	RestoreWait time.Duration
}

// Attach resolves the browser session from its cookie, issuing a new id when
// the cookie is missing or malformed, and starts the session restore.
func Attach(reg *service.SessionRegistry, opts SessionOptions) echo.MiddlewareFunc {
	if opts.CookieName == "" {
		opts.CookieName = defaultCookieName
	}
	if opts.RestoreWait <= 0 {
		opts.RestoreWait = defaultRestoreWait
	}

	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			id := sessionID(c, opts)
			entry := reg.Get(id)

			if entry.Session.State() == service.StateUninitialized {
				ctx := c.Request().Context()
				done := make(chan struct{})
				go func() {
					entry.Session.Initialize(ctx)
					close(done)
				}()
				select {
				case <-done:
				case <-time.After(opts.RestoreWait):
				}
			}

			c.Set(entryKey, entry)
			return next(c)
		}
	}
}

func sessionID(c echo.Context, opts SessionOptions) string {
	if ck, err := c.Cookie(opts.CookieName); err == nil {
		if _, err := uuid.Parse(ck.Value); err == nil {
			return ck.Value
		}
	}
	id := uuid.NewString()
	c.SetCookie(&http.Cookie{
		Name:     opts.CookieName,
		Value:    id,
		Path:     "/",
		HttpOnly: true,
		Secure:   opts.Secure,
		SameSite: http.SameSiteLaxMode,
	})
	return id
}

// EntryFrom returns the session entry stored by Attach, or nil.
func EntryFrom(c echo.Context) *service.Entry {
	e, _ := c.Get(entryKey).(*service.Entry)
	return e
}

// Guard lets only authenticated sessions through. While the session is still
// loading it answers with a neutral pending page that refreshes itself, so no
// redirect decision is made on an unknown state.
func Guard() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			entry := EntryFrom(c)
			if entry == nil {
				return echo.NewHTTPError(http.StatusInternalServerError, "session not attached")
			}
			switch {
			case entry.Session.Loading():
				return pending(c)
			case entry.Session.State() != service.StateAuthenticated:
				return c.Redirect(http.StatusFound, "/login")
			}
			return next(c)
		}
	}
}

// GuestOnly sends authenticated sessions away from the login page.
func GuestOnly() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			entry := EntryFrom(c)
			if entry == nil {
				return echo.NewHTTPError(http.StatusInternalServerError, "session not attached")
			}
			switch {
			case entry.Session.Loading():
				return pending(c)
			case entry.Session.State() == service.StateAuthenticated:
				return c.Redirect(http.StatusFound, "/products")
			}
			return next(c)
		}
	}
}

func pending(c echo.Context) error {
	c.Response().Header().Set("Refresh", pendingRefresh)
	c.Response().Header().Set("Cache-Control", "no-store")
	return c.Render(http.StatusOK, "pending.html", web.Page{Title: "Loading"})
}
