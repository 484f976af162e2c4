package dashboard

import (
	"context"
	"fmt"
	"net/http"
	"net/url"

	"github.com/fwojciec/botline"
)

// NewSession creates an empty conversation and returns its id.
func (c *Client) NewSession(ctx context.Context) (string, error) {
	var resp apiNewSession
	if err := c.do(ctx, http.MethodGet, newSessionPath, nil, nil, &resp); err != nil {
		return "", err
	}
	if resp.SessionID == "" {
		return "", fmt.Errorf("dashboard: new session response carries no session id")
	}
	return resp.SessionID, nil
}

// Sessions lists the user's conversations.
func (c *Client) Sessions(ctx context.Context) ([]botline.ChatSession, error) {
	var resp apiSessions
	if err := c.do(ctx, http.MethodGet, sessionsPath, nil, nil, &resp); err != nil {
		return nil, err
	}
	sessions := make([]botline.ChatSession, len(resp.Sessions))
	for i, s := range resp.Sessions {
		sessions[i] = convertSession(s)
	}
	return sessions, nil
}

// Session returns a conversation with its message history.
func (c *Client) Session(ctx context.Context, id string) (botline.SessionDetail, error) {
	if id == "" {
		return botline.SessionDetail{}, fmt.Errorf("dashboard: session id must not be empty: %w", botline.ErrValidation)
	}
	var resp apiSessionDetail
	query := url.Values{"session_id": {id}}
	if err := c.do(ctx, http.MethodGet, getSessionPath, query, nil, &resp); err != nil {
		return botline.SessionDetail{}, err
	}
	detail := botline.SessionDetail{
		Session:   convertSession(resp.Session),
		Messages:  make([]botline.ChatMessage, len(resp.Messages)),
		IsRunning: resp.IsRunning,
	}
	if detail.Session.ID == "" {
		detail.Session.ID = id
	}
	for i, m := range resp.Messages {
		detail.Messages[i] = botline.ChatMessage{
			Role:      botline.Role(m.Role),
			Content:   m.Content,
			Timestamp: m.Timestamp.Time,
		}
	}
	return detail, nil
}

// DeleteSession removes a conversation.
func (c *Client) DeleteSession(ctx context.Context, id string) error {
	if id == "" {
		return fmt.Errorf("dashboard: session id must not be empty: %w", botline.ErrValidation)
	}
	return c.do(ctx, http.MethodPost, deleteSessionPath, nil, apiDeleteSession{SessionID: id}, nil)
}

func convertSession(s apiSession) botline.ChatSession {
	return botline.ChatSession{
		ID:           s.ID,
		Creator:      s.Creator,
		CreatedAt:    s.CreatedAt.Time,
		MessageCount: s.MessageCount,
		Summary:      s.Summary,
	}
}
