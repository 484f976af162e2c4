// Package ansi cleans bot-authored text before it reaches a terminal.
package ansi

import (
	"strings"

	xansi "github.com/charmbracelet/x/ansi"
)

// Sanitize strips escape sequences and control characters from s. Tabs and
// newlines survive, CRLF becomes LF and a lone CR becomes LF.
//
// Sanitize works on stream chunks: an escape sequence split across two
// chunks loses its introducer in the first and leaks its tail in the second.
func Sanitize(s string) string {
	if !needsSanitize(s) {
		return s
	}
	s = xansi.Strip(s)
	s = strings.ReplaceAll(s, "\r\n", "\n")

	var b strings.Builder
	b.Grow(len(s))
	for _, r := range s {
		switch {
		case r == '\r':
			b.WriteByte('\n')
		case r == '\t' || r == '\n':
			b.WriteRune(r)
		case r <= 0x1F || r == 0x7F:
		case r >= 0x80 && r <= 0x9F:
		default:
			b.WriteRune(r)
		}
	}
	return b.String()
}

func needsSanitize(s string) bool {
	for _, r := range s {
		if (r < 0x20 && r != '\t' && r != '\n') || r == 0x7F || (r >= 0x80 && r <= 0x9F) {
			return true
		}
	}
	return false
}
