package bubbletea

import (
	"context"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/fwojciec/botline"
	"github.com/fwojciec/botline/ansi"
)

var _ tea.Model = Model{}

const cancelledNotice = "(reply cancelled)"

// Model is the Bubble Tea model for a chat session.
type Model struct {
	// Input is the text input component. Exported for test access.
	Input textinput.Model
	// Viewport is the scrollable output area. Exported for test access.
	Viewport viewport.Model

	chat     botline.ChatService
	session  botline.SessionDetail
	provider string
	model    string
	theme    botline.Theme
	styles   Styles

	blocks []MessageBlock
	reply  *AssistantTextBlock // block receiving the current reply, if any

	running bool
	run     *reply
	err     error
	ready   bool
}

// Option configures a [Model].
type Option func(*Model)

// WithModel selects the provider and model sent with each message. Empty
// values leave the choice to the platform.
func WithModel(provider, model string) Option {
	return func(m *Model) {
		m.provider = provider
		m.model = model
	}
}

// New creates a Model for the session in detail, whose messages are shown as
// history. Replies are requested from chat.
func New(chat botline.ChatService, detail botline.SessionDetail, theme botline.Theme, opts ...Option) Model {
	ti := textinput.New()
	ti.Placeholder = "Type a message..."
	ti.Prompt = ""
	ti.Focus()
	ti.CharLimit = 0

	m := Model{
		Input:   ti,
		chat:    chat,
		session: detail,
		theme:   theme,
		styles:  NewStyles(theme),
	}
	for _, o := range opts {
		o(&m)
	}
	return m
}

// Running returns whether a reply is being streamed.
func (m Model) Running() bool { return m.running }

// Err returns the error of the last reply, if it failed.
func (m Model) Err() error { return m.err }

// Messages returns the conversation as shown, history included.
func (m Model) Messages() []botline.ChatMessage { return m.session.Messages }

// Init implements tea.Model.
func (m Model) Init() tea.Cmd {
	return textinput.Blink
}

// Update implements tea.Model.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmds []tea.Cmd

	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m = m.handleWindowSize(msg)
		return m, nil

	case tea.KeyMsg:
		return m.handleKey(msg)

	case StreamEventMsg:
		if m.run != nil && m.run.handle.Cancelled() {
			return m, m.run.listen()
		}
		m = m.processEvent(msg.Event)
		m.Viewport.SetContent(m.renderContent())
		m.Viewport.GotoBottom()
		if m.run != nil {
			return m, m.run.listen()
		}
		return m, nil

	case StreamDoneMsg:
		if m.run != nil && m.run.handle.Cancelled() {
			m.blocks = append(m.blocks, NewNoticeBlock(cancelledNotice, m.styles))
		}
		if m.reply != nil {
			m.reply.Finish()
			m.session.Messages = append(m.session.Messages, botline.ChatMessage{
				Role:    botline.RoleAssistant,
				Content: m.reply.Text(),
			})
		}
		m.running = false
		m.run = nil
		m.reply = nil
		m.Viewport.SetContent(m.renderContent())
		m.Viewport.GotoBottom()
		cmds = append(cmds, m.Input.Focus())
		return m, tea.Batch(cmds...)
	}

	// Viewport always receives messages for scrolling (keyboard and mouse).
	var cmd tea.Cmd
	m.Viewport, cmd = m.Viewport.Update(msg)
	cmds = append(cmds, cmd)

	if !m.running {
		m.Input, cmd = m.Input.Update(msg)
		cmds = append(cmds, cmd)
	}

	return m, tea.Batch(cmds...)
}

// View implements tea.Model.
func (m Model) View() string {
	if !m.ready {
		return "Initializing..."
	}

	var b strings.Builder
	b.WriteString(m.Viewport.View())
	b.WriteString("\n")
	b.WriteString(m.statusLine())
	b.WriteString("\n")
	b.WriteString(m.Input.View())
	return b.String()
}

func (m Model) handleWindowSize(msg tea.WindowSizeMsg) Model {
	inputH := 1
	statusHeight := 1
	borderHeight := 2 // newlines between sections
	vpHeight := max(msg.Height-inputH-statusHeight-borderHeight, 1)

	if !m.ready {
		m.Viewport = viewport.New(msg.Width, vpHeight)
		m = m.renderHistory()
		m.ready = true
	} else {
		m.Viewport.Width = msg.Width
		m.Viewport.Height = vpHeight
	}
	m.Viewport.SetContent(m.renderContent())
	m.Viewport.GotoBottom()

	m.Input.Width = msg.Width
	return m
}

func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.Type {
	case tea.KeyCtrlC:
		if m.running {
			if m.run != nil {
				m.run.cancel()
			}
			return m, nil
		}
		return m, tea.Quit

	case tea.KeyEnter:
		if m.running {
			return m, nil
		}
		text := strings.TrimSpace(m.Input.Value())
		if text == "" {
			return m, nil
		}
		return m.submitInput(text)
	}

	// When idle, pass keys to both input (for typing) and viewport (for
	// scrolling). Character keys go to the input only.
	if !m.running {
		var cmd tea.Cmd
		var cmds []tea.Cmd

		if msg.Type != tea.KeyRunes {
			m.Viewport, cmd = m.Viewport.Update(msg)
			cmds = append(cmds, cmd)
		}

		m.Input, cmd = m.Input.Update(msg)
		cmds = append(cmds, cmd)

		return m, tea.Batch(cmds...)
	}

	return m, nil
}

func (m Model) submitInput(text string) (tea.Model, tea.Cmd) {
	m.Input.SetValue("")
	m.err = nil

	m.session.Messages = append(m.session.Messages, botline.ChatMessage{
		Role:    botline.RoleUser,
		Content: text,
	})
	m.blocks = append(m.blocks, NewUserMessageBlock(text, m.styles))
	m.reply = nil

	stream, err := m.chat.SendMessage(context.Background(), botline.SendMessageRequest{
		Message:          text,
		SessionID:        m.session.Session.ID,
		SelectedProvider: m.provider,
		SelectedModel:    m.model,
		EnableStreaming:  true,
	})
	if err != nil {
		m.err = err
		m.blocks = append(m.blocks, NewErrorBlock(err.Error(), m.styles))
		m.Viewport.SetContent(m.renderContent())
		m.Viewport.GotoBottom()
		return m, nil
	}

	m.run = startReply(stream)
	m.running = true
	m.Input.Blur()
	m.Viewport.SetContent(m.renderContent())
	m.Viewport.GotoBottom()

	return m, m.run.listen()
}

// renderHistory creates blocks from the session's existing messages.
func (m Model) renderHistory() Model {
	for _, msg := range m.session.Messages {
		switch msg.Role {
		case botline.RoleUser:
			m.blocks = append(m.blocks, NewUserMessageBlock(msg.Content, m.styles))
		case botline.RoleAssistant:
			block := NewAssistantTextBlock(m.theme)
			block.Append(msg.Content)
			block.Finish()
			m.blocks = append(m.blocks, block)
		default:
			m.blocks = append(m.blocks, NewNoticeBlock(ansi.Sanitize(msg.Content), m.styles))
		}
	}
	if m.session.IsRunning {
		m.blocks = append(m.blocks, NewNoticeBlock("(a reply is still being generated for this session)", m.styles))
	}
	return m
}

func (m Model) renderContent() string {
	if len(m.blocks) == 0 {
		return ""
	}
	var b strings.Builder
	for i, block := range m.blocks {
		if i > 0 {
			b.WriteString("\n\n")
		}
		b.WriteString(block.View(m.Viewport.Width))
	}
	return b.String()
}

// processEvent routes a stream event to the reply block.
func (m Model) processEvent(evt botline.Event) Model {
	switch e := evt.(type) {
	case botline.EventPlain:
		if m.reply == nil {
			m.reply = NewAssistantTextBlock(m.theme)
			m.blocks = append(m.blocks, m.reply)
		}
		m.reply.Append(e.Text)
	case botline.EventError:
		m.err = e
		m.blocks = append(m.blocks, NewErrorBlock(ansi.Sanitize(e.Message), m.styles))
	}
	return m
}

func (m Model) statusLine() string {
	title := m.session.Session.Summary
	if title == "" {
		title = m.session.Session.ID
	}
	switch {
	case m.err != nil:
		return m.styles.Error.Render(fmt.Sprintf("Error: %v", m.err))
	case m.running:
		return m.styles.Muted.Render("Generating... Ctrl+C to stop")
	default:
		return m.styles.Accent.Render(title) + " " + m.styles.Muted.Render("Enter to send, Ctrl+C to quit")
	}
}
