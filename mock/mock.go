// Package mock provides test doubles for botline interfaces using function fields.
package mock

import (
	"context"

	"github.com/fwojciec/botline"
)

// Interface compliance checks.
var (
	_ botline.ChatService = (*ChatService)(nil)
	_ botline.AuthService = (*AuthService)(nil)
	_ botline.AuthStore   = (*AuthStore)(nil)
)

// ChatService is a test double for botline.ChatService.
// Set the function fields for the methods you need.
type ChatService struct {
	NewSessionFn    func(ctx context.Context) (string, error)
	SessionsFn      func(ctx context.Context) ([]botline.ChatSession, error)
	SessionFn       func(ctx context.Context, id string) (botline.SessionDetail, error)
	DeleteSessionFn func(ctx context.Context, id string) error
	SendMessageFn   func(ctx context.Context, req botline.SendMessageRequest) (botline.Stream, error)
}

// NewSession delegates to NewSessionFn.
func (s *ChatService) NewSession(ctx context.Context) (string, error) {
	return s.NewSessionFn(ctx)
}

// Sessions delegates to SessionsFn.
func (s *ChatService) Sessions(ctx context.Context) ([]botline.ChatSession, error) {
	return s.SessionsFn(ctx)
}

// Session delegates to SessionFn.
func (s *ChatService) Session(ctx context.Context, id string) (botline.SessionDetail, error) {
	return s.SessionFn(ctx, id)
}

// DeleteSession delegates to DeleteSessionFn.
func (s *ChatService) DeleteSession(ctx context.Context, id string) error {
	return s.DeleteSessionFn(ctx, id)
}

// SendMessage delegates to SendMessageFn.
func (s *ChatService) SendMessage(ctx context.Context, req botline.SendMessageRequest) (botline.Stream, error) {
	return s.SendMessageFn(ctx, req)
}

// AuthService is a test double for botline.AuthService.
type AuthService struct {
	LoginFn          func(ctx context.Context, req botline.LoginRequest) (botline.LoginResponse, error)
	LogoutFn         func(ctx context.Context) error
	ChangePasswordFn func(ctx context.Context, req botline.ChangePasswordRequest) error
}

// Login delegates to LoginFn.
func (s *AuthService) Login(ctx context.Context, req botline.LoginRequest) (botline.LoginResponse, error) {
	return s.LoginFn(ctx, req)
}

// Logout delegates to LogoutFn.
func (s *AuthService) Logout(ctx context.Context) error {
	return s.LogoutFn(ctx)
}

// ChangePassword delegates to ChangePasswordFn.
func (s *AuthService) ChangePassword(ctx context.Context, req botline.ChangePasswordRequest) error {
	return s.ChangePasswordFn(ctx, req)
}

// AuthStore is a test double for botline.AuthStore.
type AuthStore struct {
	GetFn    func(key string) (string, bool)
	SetFn    func(key, value string) error
	DeleteFn func(keys ...string) error
}

// Get delegates to GetFn.
func (s *AuthStore) Get(key string) (string, bool) {
	return s.GetFn(key)
}

// Set delegates to SetFn.
func (s *AuthStore) Set(key, value string) error {
	return s.SetFn(key, value)
}

// Delete delegates to DeleteFn.
func (s *AuthStore) Delete(keys ...string) error {
	return s.DeleteFn(keys...)
}
