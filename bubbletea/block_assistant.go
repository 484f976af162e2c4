package bubbletea

import (
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/fwojciec/botline"
	"github.com/fwojciec/botline/ansi"
	"github.com/fwojciec/botline/goldmark"
)

var _ MessageBlock = (*AssistantTextBlock)(nil)

// AssistantTextBlock is a bot reply rendered as markdown while its chunks
// arrive. Text up to the last paragraph break outside a code fence is stable
// and rendered once per width; only the tail is re-rendered per chunk. After
// Finish the whole reply is rendered as one document.
type AssistantTextBlock struct {
	theme botline.Theme
	raw   strings.Builder

	scanned int  // bytes of raw already split into lines
	fence   string // marker of a fence opened on a scanned line, if still open
	stable  int  // raw[:stable] ends just before a paragraph break
	done    bool

	stableView renderCache
	doneView   renderCache
}

// renderCache holds the rendering of raw[:upto] at width.
type renderCache struct {
	width, upto int
	out         string
}

func (c *renderCache) get(raw string, upto, width int, theme botline.Theme) string {
	if c.out == "" || c.width != width || c.upto != upto {
		c.width, c.upto = width, upto
		c.out = goldmark.Render(raw[:upto], width, theme)
	}
	return c.out
}

// NewAssistantTextBlock creates an empty reply block.
func NewAssistantTextBlock(theme botline.Theme) *AssistantTextBlock {
	return &AssistantTextBlock{theme: theme}
}

// Append adds a chunk of reply text. Escape sequences and control characters
// are stripped.
func (b *AssistantTextBlock) Append(text string) {
	b.raw.WriteString(ansi.Sanitize(text))
	b.scan()
}

// Finish marks the reply complete.
func (b *AssistantTextBlock) Finish() {
	b.done = true
}

// Text returns the reply accumulated so far.
func (b *AssistantTextBlock) Text() string {
	return b.raw.String()
}

// scan walks the lines completed since the last call, tracking ``` and ~~~
// fences and advancing stable on blank lines outside a fence.
func (b *AssistantTextBlock) scan() {
	raw := b.raw.String()
	for {
		i := strings.IndexByte(raw[b.scanned:], '\n')
		if i < 0 {
			return
		}
		start := b.scanned
		line := strings.TrimSpace(raw[start : start+i])
		switch marker := fenceMarker(line); {
		case marker != "" && b.fence == "":
			b.fence = marker
		case marker != "" && marker == b.fence:
			b.fence = ""
		case line == "" && b.fence == "" && start > 0:
			b.stable = start - 1
		}
		b.scanned = start + i + 1
	}
}

func fenceMarker(line string) string {
	for _, m := range []string{"```", "~~~"} {
		if strings.HasPrefix(line, m) {
			return m
		}
	}
	return ""
}

func (b *AssistantTextBlock) Update(msg tea.Msg) (MessageBlock, tea.Cmd) {
	return b, nil
}

func (b *AssistantTextBlock) View(width int) string {
	raw := b.raw.String()
	if width <= 0 || strings.TrimSpace(raw) == "" {
		return ""
	}
	if b.done {
		return b.doneView.get(raw, len(raw), width, b.theme)
	}

	var head string
	if b.stable > 0 {
		head = strings.TrimRight(b.stableView.get(raw, b.stable, width, b.theme), "\n")
	}
	tail := strings.TrimLeft(raw[b.stable:], "\n")
	if b.fence != "" {
		tail += "\n" + b.fence
	}
	var body string
	if strings.TrimSpace(tail) != "" {
		body = strings.TrimLeft(goldmark.Render(tail, width, b.theme), "\n")
	}
	switch {
	case body == "" || strings.TrimSpace(body) == "":
		return head
	case head == "":
		return body
	default:
		return head + "\n\n" + body
	}
}
