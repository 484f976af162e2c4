package botline

import (
	"fmt"
	"strings"
)

// Validate checks that the request carries a message and a session.
func (r SendMessageRequest) Validate() error {
	if strings.TrimSpace(r.Message) == "" {
		return fmt.Errorf("message must not be empty: %w", ErrValidation)
	}
	if strings.TrimSpace(r.SessionID) == "" {
		return fmt.Errorf("session_id must not be empty: %w", ErrValidation)
	}
	return nil
}

// Validate checks that both credentials are present.
func (r LoginRequest) Validate() error {
	if r.Username == "" {
		return fmt.Errorf("username must not be empty: %w", ErrValidation)
	}
	if r.Password == "" {
		return fmt.Errorf("password must not be empty: %w", ErrValidation)
	}
	return nil
}

// Validate checks that the new password is set and differs from the old one.
func (r ChangePasswordRequest) Validate() error {
	if r.NewPassword == "" {
		return fmt.Errorf("new password must not be empty: %w", ErrValidation)
	}
	if r.NewPassword == r.OldPassword {
		return fmt.Errorf("new password must differ from the old one: %w", ErrValidation)
	}
	return nil
}
