// Package dashboard implements [botline.ChatService] and [botline.AuthService]
// for the chatbot platform's dashboard API.
//
// REST calls go through a single JSON helper that attaches the bearer token,
// normalises the platform's response envelope, and clears stored credentials
// on HTTP 401. Chat replies arrive as a newline-delimited stream of
// "data: <json>" frames which the pull-based [botline.Stream] decodes one
// line at a time.
package dashboard

import (
	"encoding/json"
	"strconv"
	"strings"
	"time"
)

const (
	loginPath          = "/api/auth/login"
	logoutPath         = "/api/auth/logout"
	changePasswordPath = "/api/auth/change-password"
	newSessionPath     = "/chat/new_session"
	sessionsPath       = "/chat/sessions"
	getSessionPath     = "/chat/get_session"
	deleteSessionPath  = "/chat/delete_session"
	sendPath           = "/chat/send"

	framePrefix     = "data:"
	unknownError    = "Unknown error"
	requestIDHeader = "X-Request-Id"
)

// apiEnvelope is the JSON body of every REST response. Older endpoints report
// the outcome in Status ("success"/"error"), newer ones in Success.
type apiEnvelope struct {
	Status  string          `json:"status,omitempty"`
	Success *bool           `json:"success,omitempty"`
	Message string          `json:"message,omitempty"`
	Data    json.RawMessage `json:"data,omitempty"`
}

// ok reports whether the envelope describes a successful call. Success wins
// over Status; a body with neither relies on the HTTP status alone.
func (e apiEnvelope) ok() bool {
	switch {
	case e.Success != nil:
		return *e.Success
	case e.Status != "":
		return e.Status == "success"
	default:
		return true
	}
}

type apiNewSession struct {
	SessionID string `json:"session_id"`
}

type apiSessions struct {
	Sessions []apiSession `json:"sessions"`
}

type apiSession struct {
	ID           string  `json:"id"`
	Creator      string  `json:"creator"`
	CreatedAt    apiTime `json:"created_at"`
	MessageCount int     `json:"message_count"`
	Summary      string  `json:"summary,omitempty"`
}

type apiMessage struct {
	Role      string  `json:"role"`
	Content   string  `json:"content"`
	Timestamp apiTime `json:"timestamp,omitempty"`
}

type apiSessionDetail struct {
	Session   apiSession   `json:"session"`
	Messages  []apiMessage `json:"messages"`
	IsRunning bool         `json:"is_running"`
}

type apiDeleteSession struct {
	SessionID string `json:"session_id"`
}

// sseFrame is the JSON payload of one "data:" line of a reply stream.
type sseFrame struct {
	Type  string `json:"type"`
	Text  string `json:"text,omitempty"`
	Error string `json:"error,omitempty"`
}

// apiTime accepts the timestamp shapes the platform emits: RFC 3339, naive
// ISO 8601 without a zone (taken as UTC), "YYYY-MM-DD HH:MM:SS", and unix
// seconds. Unrecognised values decode to the zero time.
type apiTime struct {
	time.Time
}

var apiTimeLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05.999999999",
	"2006-01-02 15:04:05.999999999",
	"2006-01-02 15:04:05",
}

func (t *apiTime) UnmarshalJSON(b []byte) error {
	s := strings.TrimSpace(string(b))
	if s == "null" || s == `""` {
		return nil
	}
	if unquoted, err := strconv.Unquote(s); err == nil {
		for _, layout := range apiTimeLayouts {
			if parsed, err := time.Parse(layout, unquoted); err == nil {
				t.Time = parsed
				return nil
			}
		}
		s = unquoted
	}
	if secs, err := strconv.ParseFloat(s, 64); err == nil {
		whole := int64(secs)
		t.Time = time.Unix(whole, int64((secs-float64(whole))*1e9)).UTC()
	}
	return nil
}
