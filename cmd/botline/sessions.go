package main

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/fwojciec/botline"
	"github.com/fwojciec/botline/ansi"
	"github.com/fwojciec/botline/goldmark"
	botjson "github.com/fwojciec/botline/json"
	"github.com/mattn/go-runewidth"
	"github.com/urfave/cli/v2"
)

const (
	summaryWidth = 48
	timeLayout   = "2006-01-02 15:04"
	renderWidth  = 80
)

func (a *app) sessionsCommand() *cli.Command {
	return &cli.Command{
		Name:   "sessions",
		Usage:  "List chat sessions",
		Before: a.requireAuth,
		Action: func(c *cli.Context) error {
			sessions, err := a.client.Sessions(c.Context)
			if err != nil {
				return fail(err)
			}
			if len(sessions) == 0 {
				fmt.Fprintln(a.stdout, "No sessions")
				return nil
			}
			writeSessionTable(a.stdout, sessions)
			return nil
		},
	}
}

// writeSessionTable writes sessions as aligned columns. Widths are measured
// in terminal cells so CJK summaries line up.
func writeSessionTable(w io.Writer, sessions []botline.ChatSession) {
	header := []string{"ID", "CREATED", "MESSAGES", "CREATOR", "SUMMARY"}
	rows := make([][]string, len(sessions))
	for i, s := range sessions {
		created := "-"
		if !s.CreatedAt.IsZero() {
			created = s.CreatedAt.Local().Format(timeLayout)
		}
		summary := strings.Join(strings.Fields(ansi.Sanitize(s.Summary)), " ")
		rows[i] = []string{
			s.ID,
			created,
			strconv.Itoa(s.MessageCount),
			s.Creator,
			runewidth.Truncate(summary, summaryWidth, "…"),
		}
	}

	widths := make([]int, len(header))
	for _, row := range append([][]string{header}, rows...) {
		for i, cell := range row {
			widths[i] = max(widths[i], runewidth.StringWidth(cell))
		}
	}
	for _, row := range append([][]string{header}, rows...) {
		var b strings.Builder
		for i, cell := range row {
			if i == len(row)-1 {
				b.WriteString(cell)
				break
			}
			b.WriteString(runewidth.FillRight(cell, widths[i]))
			b.WriteString("  ")
		}
		fmt.Fprintln(w, strings.TrimRight(b.String(), " "))
	}
}

func (a *app) newCommand() *cli.Command {
	return &cli.Command{
		Name:   "new",
		Usage:  "Create an empty chat session and print its id",
		Before: a.requireAuth,
		Action: func(c *cli.Context) error {
			id, err := a.client.NewSession(c.Context)
			if err != nil {
				return fail(err)
			}
			fmt.Fprintln(a.stdout, id)
			return nil
		},
	}
}

func (a *app) showCommand() *cli.Command {
	return &cli.Command{
		Name:      "show",
		Usage:     "Print the messages of a session",
		ArgsUsage: "<session-id>",
		Before:    a.requireAuth,
		Flags: []cli.Flag{
			&cli.BoolFlag{Name: "raw", Usage: "Print replies as markdown source"},
		},
		Action: func(c *cli.Context) error {
			id, err := sessionArg(c)
			if err != nil {
				return err
			}
			detail, err := a.client.Session(c.Context, id)
			if err != nil {
				return fail(err)
			}
			a.writeTranscript(detail, !c.Bool("raw"))
			return nil
		},
	}
}

func (a *app) writeTranscript(d botline.SessionDetail, render bool) {
	theme := botline.DefaultTheme()
	for i, m := range d.Messages {
		if i > 0 {
			fmt.Fprintln(a.stdout)
		}
		fmt.Fprintf(a.stdout, "[%s]\n", m.Role)
		content := ansi.Sanitize(m.Content)
		if render && m.Role == botline.RoleAssistant {
			content = goldmark.Render(content, renderWidth, theme)
		}
		fmt.Fprintln(a.stdout, content)
	}
	if d.IsRunning {
		fmt.Fprintln(a.stdout, "\n(a reply is still being generated)")
	}
}

func (a *app) deleteCommand() *cli.Command {
	return &cli.Command{
		Name:      "delete",
		Usage:     "Delete a session",
		ArgsUsage: "<session-id>",
		Before:    a.requireAuth,
		Action: func(c *cli.Context) error {
			id, err := sessionArg(c)
			if err != nil {
				return err
			}
			if err := a.client.DeleteSession(c.Context, id); err != nil {
				return fail(err)
			}
			fmt.Fprintf(a.stdout, "Deleted %s\n", id)
			return nil
		},
	}
}

func (a *app) exportCommand() *cli.Command {
	return &cli.Command{
		Name:      "export",
		Usage:     "Save a session transcript as JSON",
		ArgsUsage: "<session-id> <file>",
		Before:    a.requireAuth,
		Action: func(c *cli.Context) error {
			if c.NArg() != 2 {
				return cli.Exit("botline: export needs <session-id> <file>", 1)
			}
			id, path := c.Args().Get(0), c.Args().Get(1)
			detail, err := a.client.Session(c.Context, id)
			if err != nil {
				return fail(err)
			}
			if err := botjson.SaveTranscript(path, detail); err != nil {
				return cli.Exit(fmt.Sprintf("botline: export: %v", err), 1)
			}
			fmt.Fprintf(a.stdout, "Exported %d messages to %s\n", len(detail.Messages), path)
			return nil
		},
	}
}

func sessionArg(c *cli.Context) (string, error) {
	if c.NArg() != 1 {
		return "", cli.Exit(fmt.Sprintf("botline: %s needs <session-id>", c.Command.Name), 1)
	}
	return c.Args().First(), nil
}
