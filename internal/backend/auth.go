package backend

import (
	"context"
	"net/url"

	"github.com/pkg/errors"

	"github.com/mrermin/ermin/internal/types"
)

// LoginRequest carries the display fields decoded from the identity assertion,
// plus the raw assertion so the backend can verify it.
type LoginRequest struct {
	Email       string `json:"email"`
	Name        string `json:"name"`
	Picture     string `json:"picture,omitempty"`
	GoogleID    string `json:"google_id"`
	GoogleToken string `json:"google_token,omitempty"`
}

type loginResponse struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
	User        *user  `json:"user"`
}

// Login exchanges an identity assertion for a backend session.
// The returned user carries the access token.
func (c *Client) Login(ctx context.Context, request *LoginRequest) (*types.User, error) {
	response := &loginResponse{}
	if err := c.do(ctx, "POST", "/auth/login", "", request, response); err != nil {
		return nil, err
	}
	if response.AccessToken == "" {
		return nil, errors.New("login response carries no access token")
	}

	u := &types.User{Email: request.Email, Name: request.Name, Picture: request.Picture}
	if response.User != nil {
		u = response.User.toUser()
	}
	u.GoogleID = request.GoogleID
	u.AccessToken = response.AccessToken
	return u, nil
}

// WhoAmI returns the profile the token belongs to.
func (c *Client) WhoAmI(ctx context.Context, token string) (*types.User, error) {
	response := &user{}
	if err := c.do(ctx, "GET", "/auth/me", token, nil, response); err != nil {
		return nil, err
	}
	return response.toUser(), nil
}

// VerifyEmail redeems an email verification code.
func (c *Client) VerifyEmail(ctx context.Context, code string) error {
	return c.do(ctx, "POST", "/auth/verify-email?token="+url.QueryEscape(code), "", nil, nil)
}
