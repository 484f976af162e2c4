package botline

import "context"

// Fixed AuthStore keys.
const (
	KeyAccessToken = "access_token"
	KeyUsername    = "username"
)

// AuthStore is synchronous key-value storage for session credentials.
// Values have no expiry; they live until deleted.
type AuthStore interface {
	Get(key string) (string, bool)
	Set(key, value string) error
	Delete(keys ...string) error
}

// Token returns the stored access token, or "" when there is none.
func Token(s AuthStore) string {
	if s == nil {
		return ""
	}
	tok, _ := s.Get(KeyAccessToken)
	return tok
}

// RequireAuth returns ErrNotLoggedIn when s holds no access token.
func RequireAuth(s AuthStore) error {
	if Token(s) == "" {
		return ErrNotLoggedIn
	}
	return nil
}

// LoginRequest carries user credentials.
type LoginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// LoginResponse is returned by a successful login.
type LoginResponse struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
	Username    string `json:"username"`
	FirstLogin  bool   `json:"first_login"`
}

// ChangePasswordRequest carries the old and new password.
type ChangePasswordRequest struct {
	OldPassword string `json:"old_password"`
	NewPassword string `json:"new_password"`
}

// AuthService logs users in and out of the platform. Implementations persist
// the token in an AuthStore on login and remove it on logout.
type AuthService interface {
	Login(ctx context.Context, req LoginRequest) (LoginResponse, error)
	Logout(ctx context.Context) error
	ChangePassword(ctx context.Context, req ChangePasswordRequest) error
}
