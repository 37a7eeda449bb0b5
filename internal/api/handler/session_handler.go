package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/inventory-system/inventory-web/internal/core/domain"
)

type SessionHandler struct{}

func NewSessionHandler() *SessionHandler {
	return &SessionHandler{}
}

type userResponse struct {
	ID       int64  `json:"id"`
	Email    string `json:"email"`
	Username string `json:"username,omitempty"`
	Role     string `json:"role"`
}

type sessionResponse struct {
	State        string          `json:"state" example:"authenticated"`
	IsAdmin      bool            `json:"is_admin"`
	User         *userResponse   `json:"user,omitempty"`
	Capabilities []domain.Action `json:"capabilities"`
}

// Show reports the authorization context of the calling browser session.
//
// @Summary      Current session
// @Description  Returns the session state, the logged-in user and the actions their role grants.
// @Tags         session
// @Produce      json
// @Success      200  {object}  sessionResponse
// @Failure      500  {object}  map[string]string
// @Router       /api/session [get]
func (h *SessionHandler) Show(c echo.Context) error {
	entry, err := sessionEntry(c)
	if err != nil {
		return err
	}

	s := entry.Session
	resp := sessionResponse{
		State:        s.State().String(),
		IsAdmin:      s.IsAdmin(),
		Capabilities: s.Capabilities(),
	}
	if resp.Capabilities == nil {
		resp.Capabilities = []domain.Action{}
	}
	if u := s.User(); u != nil {
		resp.User = &userResponse{ID: u.ID, Email: u.Email, Username: u.Username, Role: string(u.Role)}
	}

	c.Response().Header().Set("Cache-Control", "no-store")
	return c.JSON(http.StatusOK, resp)
}
