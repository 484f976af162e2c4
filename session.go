package botline

import "time"

// ChatSession is the summary of a conversation kept by the platform.
type ChatSession struct {
	ID           string
	Creator      string
	CreatedAt    time.Time
	MessageCount int
	Summary      string
}

// ChatMessage is one message of a stored conversation.
type ChatMessage struct {
	Role      Role
	Content   string
	Timestamp time.Time
}

// SessionDetail is a session together with its message history.
// IsRunning reports whether the platform is still producing a reply.
type SessionDetail struct {
	Session   ChatSession
	Messages  []ChatMessage
	IsRunning bool
}
