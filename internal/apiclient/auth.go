package apiclient

import (
	"context"
	"fmt"
	"net/http"
)

// AuthResponse is returned by login and register
type AuthResponse struct {
	Token    string `json:"token"`
	Username string `json:"username"`
	Admin    bool   `json:"admin"`
}

type loginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type registerRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
	FullName string `json:"fullName"`
}

func (c *Client) Login(ctx context.Context, username, password string) (AuthResponse, error) {
	return c.authenticate(ctx, "/auth/login", loginRequest{Username: username, Password: password})
}

func (c *Client) Register(ctx context.Context, username, password, fullName string) (AuthResponse, error) {
	return c.authenticate(ctx, "/auth/register", registerRequest{Username: username, Password: password, FullName: fullName})
}

func (c *Client) authenticate(ctx context.Context, path string, payload any) (AuthResponse, error) {
	body, err := c.sendJSON(ctx, http.MethodPost, path, payload)
	if err != nil {
		return AuthResponse{}, err
	}
	resp, err := DecodeObject[AuthResponse](body)
	if err != nil {
		return AuthResponse{}, err
	}
	if resp.Token == "" {
		return AuthResponse{}, fmt.Errorf("%w: missing token", ErrUnexpectedShape)
	}
	return resp, nil
}
