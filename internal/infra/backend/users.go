package backend

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	apperrors "github.com/yanqian/disha/pkg/errors"
)

// Credentials is the login form.
type Credentials struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// Registration is the sign-up form.
type Registration struct {
	FullName   string `json:"fullName"`
	Email      string `json:"email"`
	Contact    string `json:"contact"`
	Password   string `json:"password"`
	Username   string `json:"username"`
	Address    string `json:"address"`
	Pincode    string `json:"pincode"`
	State      string `json:"state"`
	City       string `json:"city"`
	BloodGroup string `json:"bloodGroup"`
	Age        string `json:"age"`
	Gender     string `json:"gender"`
}

// LoginResult holds the issued backend credentials and the raw user object.
type LoginResult struct {
	AccessToken  string          `json:"accessToken"`
	RefreshToken string          `json:"refreshToken"`
	User         json.RawMessage `json:"user"`
}

// Login exchanges credentials for backend tokens.
func (c *Client) Login(ctx context.Context, creds Credentials) (LoginResult, error) {
	payload, err := JSONPayload(creds)
	if err != nil {
		return LoginResult{}, err
	}
	resp, err := c.Public(ctx, http.MethodPost, loginPath, &payload)
	if err != nil {
		return LoginResult{}, err
	}
	var out LoginResult
	if err := json.Unmarshal(resp.Envelope().Data, &out); err != nil {
		return LoginResult{}, apperrors.Wrap(apperrors.CodeBackend, "Unexpected login response from server", fmt.Errorf("decode login response: %w", err))
	}
	if out.AccessToken == "" {
		return LoginResult{}, apperrors.Wrap(apperrors.CodeBackend, "Unexpected login response from server", errors.New("login response has no access token"))
	}
	return out, nil
}

// Register creates a backend account and returns the created user object.
func (c *Client) Register(ctx context.Context, reg Registration) (json.RawMessage, error) {
	payload, err := JSONPayload(reg)
	if err != nil {
		return nil, err
	}
	resp, err := c.Public(ctx, http.MethodPost, registerPath, &payload)
	if err != nil {
		return nil, err
	}
	return userObject(resp.Envelope().Data), nil
}

// CurrentUser fetches the signed-in user's profile.
func (c *Client) CurrentUser(ctx context.Context, tokens TokenStore) (json.RawMessage, error) {
	resp, err := c.Authorized(ctx, tokens, http.MethodPost, currentUserPath, nil)
	if err != nil {
		return nil, err
	}
	return userObject(resp.Envelope().Data), nil
}

// userObject unwraps {"user": {...}} when present.
func userObject(data json.RawMessage) json.RawMessage {
	var wrapped struct {
		User json.RawMessage `json:"user"`
	}
	if json.Unmarshal(data, &wrapped) == nil && len(wrapped.User) > 0 && string(wrapped.User) != "null" {
		return wrapped.User
	}
	return data
}
