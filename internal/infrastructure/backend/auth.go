package backend

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/inventory-system/inventory-web/internal/core/domain"
)

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// loginResponse accepts both the {access, refresh, user} and the
// {token, user} shapes.
type loginResponse struct {
	Access  string       `json:"access"`
	Refresh string       `json:"refresh"`
	Token   string       `json:"token"`
	User    *domain.User `json:"user"`
}

type refreshRequest struct {
	Refresh string `json:"refresh"`
}

type refreshResponse struct {
	Access string `json:"access"`
}

// Login exchanges email and password for a credential and the user record.
// A 400 or 401 answer is reported as domain.ErrRejected.
func (c *Client) Login(ctx context.Context, email, password string) (domain.Credential, *domain.User, error) {
	var resp loginResponse
	err := c.request(ctx, "auth.login", http.MethodPost, "auth/login", "", loginRequest{Email: email, Password: password}, &resp)
	if err != nil {
		return domain.Credential{}, nil, err
	}

	access := resp.Access
	if access == "" {
		access = resp.Token
	}
	if access == "" || resp.User == nil {
		return domain.Credential{}, nil, fmt.Errorf("auth.login: %w: response without token or user", domain.ErrUnavailable)
	}
	return domain.Credential{Access: access, Refresh: resp.Refresh}, resp.User, nil
}

// Logout asks the backend to blacklist the refresh token. Backends that
// issue no refresh token get the access token only.
func (c *Client) Logout(ctx context.Context, cred domain.Credential) error {
	var body any
	if cred.Refresh != "" {
		body = refreshRequest{Refresh: cred.Refresh}
	}
	return c.request(ctx, "auth.logout", http.MethodPost, "auth/logout", cred.Access, body, nil)
}

// Refresh trades a refresh token for a new access token.
func (c *Client) Refresh(ctx context.Context, refresh string) (string, error) {
	var resp refreshResponse
	if err := c.request(ctx, "auth.refresh", http.MethodPost, "auth/refresh", "", refreshRequest{Refresh: refresh}, &resp); err != nil {
		return "", err
	}
	if resp.Access == "" {
		return "", fmt.Errorf("auth.refresh: %w: response without access token", domain.ErrUnavailable)
	}
	return resp.Access, nil
}

// Me returns the user the access token belongs to. 401 and 403 both mean the
// token is no longer good for this session.
func (c *Client) Me(ctx context.Context, access string) (*domain.User, error) {
	var user domain.User
	if err := c.request(ctx, "auth.me", http.MethodGet, "auth/me", access, nil, &user); err != nil {
		if errors.Is(err, domain.ErrForbidden) {
			return nil, fmt.Errorf("%w: %w", domain.ErrRejected, err)
		}
		return nil, err
	}
	return &user, nil
}
