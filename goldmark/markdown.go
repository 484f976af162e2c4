// Package goldmark renders assistant replies, which the platform writes in
// GitHub-flavoured markdown, to ANSI-styled terminal output using goldmark for
// parsing and lipgloss for styling.
package goldmark

import "github.com/fwojciec/botline"

// Render parses markdown source and returns ANSI-styled terminal output.
// Paragraphs, quotes and list items are word-wrapped to width. Code blocks
// and tables are rendered without reflow.
func Render(source string, width int, theme botline.Theme) string {
	if source == "" {
		return ""
	}
	if width <= 0 {
		width = 80
	}
	r := newRenderer(theme)
	return r.render([]byte(source), width)
}
