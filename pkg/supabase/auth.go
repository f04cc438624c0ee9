package supabase

import (
	"context"
	"errors"
	"net/http"

	"github.com/econest/web/pkg/jwtx"
)

// SignInWithPassword exchanges an email and password for a session.
func (c *Client) SignInWithPassword(ctx context.Context, email, password string) (*Session, error) {
	if email == "" || password == "" {
		return nil, errors.New("supabase: email and password are required")
	}
	resp, err := c.do(ctx, http.MethodPost, "/token?grant_type=password", map[string]string{
		"email":    email,
		"password": password,
	}, "")
	if err != nil {
		return nil, err
	}
	var sess Session
	if err := decodeJSON(resp, &sess); err != nil {
		return nil, err
	}
	return &sess, nil
}

// RefreshSession rotates a refresh token. The old token is spent on success.
func (c *Client) RefreshSession(ctx context.Context, refreshToken string) (*Session, error) {
	if refreshToken == "" {
		return nil, &APIError{Status: http.StatusBadRequest, Code: CodeRefreshTokenInvalid, Message: "missing refresh token"}
	}
	resp, err := c.do(ctx, http.MethodPost, "/token?grant_type=refresh_token", map[string]string{
		"refresh_token": refreshToken,
	}, "")
	if err != nil {
		return nil, err
	}
	var sess Session
	if err := decodeJSON(resp, &sess); err != nil {
		return nil, err
	}
	return &sess, nil
}

// SignOut revokes the session behind accessToken.
func (c *Client) SignOut(ctx context.Context, accessToken string) error {
	resp, err := c.do(ctx, http.MethodPost, "/logout", nil, accessToken)
	if err != nil {
		return err
	}
	return decodeJSON(resp, nil)
}

// GetUser fetches the user behind accessToken.
func (c *Client) GetUser(ctx context.Context, accessToken string) (*User, error) {
	resp, err := c.do(ctx, http.MethodGet, "/user", nil, accessToken)
	if err != nil {
		return nil, err
	}
	var u User
	if err := decodeJSON(resp, &u); err != nil {
		return nil, err
	}
	return &u, nil
}

// FetchJWKS retrieves the project's asymmetric signing keys.
func (c *Client) FetchJWKS(ctx context.Context) (jwtx.JWKS, error) {
	resp, err := c.do(ctx, http.MethodGet, "/.well-known/jwks.json", nil, "")
	if err != nil {
		return jwtx.JWKS{}, err
	}
	var jwks jwtx.JWKS
	if err := decodeJSON(resp, &jwks); err != nil {
		return jwtx.JWKS{}, err
	}
	return jwks, nil
}

// Health checks that the auth server is up.
func (c *Client) Health(ctx context.Context) (*Health, error) {
	resp, err := c.do(ctx, http.MethodGet, "/health", nil, "")
	if err != nil {
		return nil, err
	}
	var h Health
	if err := decodeJSON(resp, &h); err != nil {
		return nil, err
	}
	return &h, nil
}
