package botline

import "context"

// ChatService manages conversations on the platform and streams replies.
type ChatService interface {
	NewSession(ctx context.Context) (string, error)
	Sessions(ctx context.Context) ([]ChatSession, error)
	Session(ctx context.Context, id string) (SessionDetail, error)
	DeleteSession(ctx context.Context, id string) error

	// SendMessage returns a Stream for the reply without waiting for the
	// server. Only request-construction failures are returned as an error;
	// everything after that is delivered through the stream.
	SendMessage(ctx context.Context, req SendMessageRequest) (Stream, error)
}
