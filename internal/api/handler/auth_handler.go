package handler

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/inventory-system/inventory-web/internal/core/domain"
)

const (
	msgInvalidLogin  = "Invalid email or password."
	msgUnavailable   = "Service unavailable, please try again."
	msgLoginBusy     = "A sign-in is already in progress."
	msgLoginRestart  = "Your session changed while signing in. Please sign in again."
	msgLoggedOut     = "You have been logged out."
	msgSessionExpiry = "Your session has expired. Please sign in again."
)

type AuthHandler struct {
	log zerolog.Logger
}

func NewAuthHandler(log zerolog.Logger) *AuthHandler {
	return &AuthHandler{log: log}
}

// ShowLogin renders the login form.
func (h *AuthHandler) ShowLogin(c echo.Context) error {
	entry, err := sessionEntry(c)
	if err != nil {
		return err
	}
	return c.Render(http.StatusOK, "login.html", page(c, entry, "Login", loginView{}))
}

// Login authenticates the browser session. Failures re-render the form with
// an inline message and never change the session.
func (h *AuthHandler) Login(c echo.Context) error {
	entry, err := sessionEntry(c)
	if err != nil {
		return err
	}

	var req loginForm
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid form")
	}
	view := loginView{Email: req.Email}

	if err := c.Validate(&req); err != nil {
		p := page(c, entry, "Login", view)
		p.Error = validationMessage(err)
		return c.Render(http.StatusUnprocessableEntity, "login.html", p)
	}

	_, err = entry.Session.Login(c.Request().Context(), req.Email, req.Password)
	switch {
	case err == nil:
		entry.ResetViews()
		return seeOther(c, "/products")
	case errors.Is(err, domain.ErrAlreadyAuthenticated):
		return seeOther(c, "/products")
	}

	status, msg := loginFailure(err)
	if status >= http.StatusInternalServerError {
		h.log.Warn().Err(err).Msg("login failed")
	}
	p := page(c, entry, "Login", view)
	p.Error = msg
	return c.Render(status, "login.html", p)
}

// Logout clears the session locally and returns to the login page. Remote
// revocation happens in the background.
func (h *AuthHandler) Logout(c echo.Context) error {
	entry, err := sessionEntry(c)
	if err != nil {
		return err
	}
	entry.ResetViews()
	entry.Session.Logout(c.Request().Context())
	entry.SetFlash(msgLoggedOut)
	return seeOther(c, "/login")
}

func loginFailure(err error) (int, string) {
	switch {
	case errors.Is(err, domain.ErrRejected):
		return http.StatusUnauthorized, msgInvalidLogin
	case errors.Is(err, domain.ErrSessionBusy):
		return http.StatusConflict, msgLoginBusy
	case errors.Is(err, domain.ErrSuperseded):
		return http.StatusConflict, msgLoginRestart
	default:
		return http.StatusServiceUnavailable, msgUnavailable
	}
}

func validationMessage(err error) string {
	var ve *domain.ValidationError
	if errors.As(err, &ve) {
		return ve.Fields.String()
	}
	return err.Error()
}
