package bubbletea_test

import (
	"context"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/fwojciec/botline"
	bt "github.com/fwojciec/botline/bubbletea"
	"github.com/fwojciec/botline/mock"
	"github.com/stretchr/testify/require"
)

func session(messages ...botline.ChatMessage) botline.SessionDetail {
	return botline.SessionDetail{
		Session:  botline.ChatSession{ID: "s1", Summary: "test chat"},
		Messages: messages,
	}
}

// replyWith returns a chat service whose replies are the given events.
func replyWith(events ...botline.Event) *mock.ChatService {
	return &mock.ChatService{
		SendMessageFn: func(_ context.Context, _ botline.SendMessageRequest) (botline.Stream, error) {
			return mock.NewEventStream(events...), nil
		},
	}
}

// initModel creates a model and sends a WindowSizeMsg to initialize the viewport.
func initModel(t *testing.T, chat botline.ChatService, detail botline.SessionDetail) bt.Model {
	t.Helper()
	return initModelWithSize(t, chat, detail, 80, 24)
}

// initModelWithSize creates a model with a custom terminal size.
func initModelWithSize(t *testing.T, chat botline.ChatService, detail botline.SessionDetail, width, height int) bt.Model {
	t.Helper()
	m := bt.New(chat, detail, botline.DefaultTheme())
	return updateModel(t, m, tea.WindowSizeMsg{Width: width, Height: height})
}

// updateModel sends a message and returns the updated Model.
func updateModel(t *testing.T, m bt.Model, msg tea.Msg) bt.Model {
	t.Helper()
	updated, _ := m.Update(msg)
	model, ok := updated.(bt.Model)
	require.True(t, ok)
	return model
}

// submit types text and presses Enter, returning the model and the command
// that listens for the reply.
func submit(t *testing.T, m bt.Model, text string) (bt.Model, tea.Cmd) {
	t.Helper()
	m.Input.SetValue(text)
	updated, cmd := m.Update(tea.KeyMsg{Type: tea.KeyEnter})
	model, ok := updated.(bt.Model)
	require.True(t, ok)
	return model, cmd
}

// drainReply runs listen commands until the reply is done.
func drainReply(t *testing.T, m bt.Model, cmd tea.Cmd) bt.Model {
	t.Helper()
	for range 1000 {
		require.NotNil(t, cmd)
		msg := cmd()
		switch msg.(type) {
		case bt.StreamEventMsg, bt.StreamDoneMsg:
		default:
			t.Fatalf("unexpected message %T", msg)
		}
		updated, next := m.Update(msg)
		m = updated.(bt.Model)
		if _, done := msg.(bt.StreamDoneMsg); done {
			return m
		}
		cmd = next
	}
	t.Fatal("reply did not finish")
	return m
}
