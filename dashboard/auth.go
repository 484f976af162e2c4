package dashboard

import (
	"context"
	"fmt"
	"net/http"

	"github.com/fwojciec/botline"
	"go.uber.org/zap"
)

// Login exchanges credentials for an access token and stores it together
// with the username.
func (c *Client) Login(ctx context.Context, req botline.LoginRequest) (botline.LoginResponse, error) {
	if err := req.Validate(); err != nil {
		return botline.LoginResponse{}, fmt.Errorf("dashboard: %w", err)
	}
	var resp botline.LoginResponse
	if err := c.do(ctx, http.MethodPost, loginPath, nil, req, &resp); err != nil {
		return botline.LoginResponse{}, err
	}
	if resp.AccessToken == "" {
		return botline.LoginResponse{}, fmt.Errorf("dashboard: login response carries no access token")
	}
	username := resp.Username
	if username == "" {
		username = req.Username
	}
	if err := c.store.Set(botline.KeyAccessToken, resp.AccessToken); err != nil {
		return botline.LoginResponse{}, fmt.Errorf("dashboard: store token: %w", err)
	}
	if err := c.store.Set(botline.KeyUsername, username); err != nil {
		return botline.LoginResponse{}, fmt.Errorf("dashboard: store username: %w", err)
	}
	return resp, nil
}

// Logout ends the server session. Stored credentials are removed even when
// the call fails.
func (c *Client) Logout(ctx context.Context) error {
	err := c.do(ctx, http.MethodPost, logoutPath, nil, nil, nil)
	if clearErr := c.store.Delete(botline.KeyAccessToken, botline.KeyUsername); clearErr != nil {
		c.logger.Warn("clear credentials", zap.Error(clearErr))
		if err == nil {
			err = fmt.Errorf("dashboard: clear credentials: %w", clearErr)
		}
	}
	return err
}

// ChangePassword changes the logged-in user's password.
func (c *Client) ChangePassword(ctx context.Context, req botline.ChangePasswordRequest) error {
	if err := req.Validate(); err != nil {
		return fmt.Errorf("dashboard: %w", err)
	}
	return c.do(ctx, http.MethodPost, changePasswordPath, nil, req, nil)
}
