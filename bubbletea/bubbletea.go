// Package bubbletea provides a Bubble Tea TUI for chatting with a bot session.
package bubbletea

import (
	"context"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/fwojciec/botline"
)

// Run creates and runs the Bubble Tea TUI program. It blocks until the program
// exits. The context is used for graceful shutdown: when cancelled, the
// program quits.
func Run(ctx context.Context, m Model) error {
	p := tea.NewProgram(m, tea.WithAltScreen())
	go func() {
		<-ctx.Done()
		p.Quit()
	}()
	_, err := p.Run()
	return err
}

// StreamEventMsg wraps a stream event for delivery to the Bubble Tea model.
type StreamEventMsg struct {
	Event botline.Event
}

// StreamDoneMsg signals that dispatch of the current reply has finished,
// whether it completed, failed or was cancelled.
type StreamDoneMsg struct{}
