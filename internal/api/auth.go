package api

import (
	"context"
	"net/http"
	"net/url"

	"github.com/taskmaster-app/taskmaster-go/internal/models"
)

// Register creates an account. The account starts inactive until the
// email is verified; no token is issued here.
func (c *Client) Register(ctx context.Context, req models.RegisterRequest) (*models.MessageResponse, error) {
	var out models.MessageResponse
	if err := c.do(ctx, http.MethodPost, "/auth/register", nil, req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Login exchanges credentials for a bearer token. The token endpoint
// takes form-encoded fields, not JSON.
func (c *Client) Login(ctx context.Context, username, password string) (*models.TokenResponse, error) {
	form := url.Values{}
	form.Set("username", username)
	form.Set("password", password)

	var out models.TokenResponse
	if err := c.doForm(ctx, "/auth/token", form, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// VerifyEmail submits an email verification token.
func (c *Client) VerifyEmail(ctx context.Context, token string) (*models.MessageResponse, error) {
	query := url.Values{}
	query.Set("token", token)

	var out models.MessageResponse
	if err := c.do(ctx, http.MethodGet, "/auth/verify-email", query, nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Me fetches the current user record for the active token.
func (c *Client) Me(ctx context.Context) (*models.User, error) {
	var out models.User
	if err := c.do(ctx, http.MethodGet, "/auth/me", nil, nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}
