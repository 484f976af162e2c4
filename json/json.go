// Package json persists botline data as JSON files: the credential store and
// exported session transcripts.
package json

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/fwojciec/botline"
)

// transcript is the v1 wire format for an exported session.
type transcript struct {
	Version      int          `json:"version"`
	ID           string       `json:"id"`
	Creator      string       `json:"creator"`
	CreatedAt    time.Time    `json:"created_at"`
	MessageCount int          `json:"message_count"`
	Summary      string       `json:"summary,omitempty"`
	ExportedAt   time.Time    `json:"exported_at"`
	Messages     []messageDTO `json:"messages"`
}

type messageDTO struct {
	Role      string     `json:"role"`
	Content   string     `json:"content"`
	Timestamp *time.Time `json:"timestamp,omitempty"`
}

// MarshalTranscript serializes a SessionDetail in v1 envelope format.
func MarshalTranscript(d botline.SessionDetail) ([]byte, error) {
	env := transcript{
		Version:      1,
		ID:           d.Session.ID,
		Creator:      d.Session.Creator,
		CreatedAt:    d.Session.CreatedAt,
		MessageCount: d.Session.MessageCount,
		Summary:      d.Session.Summary,
		ExportedAt:   time.Now().UTC(),
		Messages:     make([]messageDTO, len(d.Messages)),
	}
	for i, m := range d.Messages {
		if m.Role == "" {
			return nil, fmt.Errorf("message %d: missing role", i)
		}
		dto := messageDTO{Role: string(m.Role), Content: m.Content}
		if !m.Timestamp.IsZero() {
			ts := m.Timestamp
			dto.Timestamp = &ts
		}
		env.Messages[i] = dto
	}
	return json.MarshalIndent(env, "", "  ")
}

// UnmarshalTranscript deserializes a SessionDetail from v1 envelope format.
func UnmarshalTranscript(data []byte) (botline.SessionDetail, error) {
	var env transcript
	if err := json.Unmarshal(data, &env); err != nil {
		return botline.SessionDetail{}, fmt.Errorf("unmarshal envelope: %w", err)
	}
	if env.Version != 1 {
		return botline.SessionDetail{}, fmt.Errorf("unsupported envelope version: %d", env.Version)
	}
	msgs := make([]botline.ChatMessage, len(env.Messages))
	for i, dto := range env.Messages {
		switch r := botline.Role(dto.Role); r {
		case botline.RoleUser, botline.RoleAssistant, botline.RoleSystem:
			msgs[i] = botline.ChatMessage{Role: r, Content: dto.Content}
		default:
			return botline.SessionDetail{}, fmt.Errorf("message %d: unknown role: %q", i, dto.Role)
		}
		if dto.Timestamp != nil {
			msgs[i].Timestamp = *dto.Timestamp
		}
	}
	return botline.SessionDetail{
		Session: botline.ChatSession{
			ID:           env.ID,
			Creator:      env.Creator,
			CreatedAt:    env.CreatedAt,
			MessageCount: env.MessageCount,
			Summary:      env.Summary,
		},
		Messages: msgs,
	}, nil
}

// SaveTranscript writes a SessionDetail to a JSON file, creating parent
// directories as needed.
func SaveTranscript(path string, d botline.SessionDetail) error {
	data, err := MarshalTranscript(d)
	if err != nil {
		return fmt.Errorf("marshal: %w", err)
	}
	return writeFile(path, data)
}

// LoadTranscript reads a SessionDetail from a JSON file.
func LoadTranscript(path string) (botline.SessionDetail, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return botline.SessionDetail{}, fmt.Errorf("read file: %w", err)
	}
	return UnmarshalTranscript(data)
}

// writeFile replaces path atomically with a 0600 file.
func writeFile(path string, data []byte) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return fmt.Errorf("create directories: %w", err)
	}
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o600); err != nil {
		return fmt.Errorf("write temp file: %w", err)
	}
	if err := os.Rename(tmp, path); err != nil {
		return fmt.Errorf("rename temp file: %w", err)
	}
	return nil
}
