package main

import (
	"fmt"
	"os"
	"os/signal"
	"strings"

	"github.com/fwojciec/botline"
	"github.com/fwojciec/botline/ansi"
	"github.com/fwojciec/botline/goldmark"
	"github.com/urfave/cli/v2"
)

// exitCancelled is the status of a send interrupted with SIGINT.
const exitCancelled = 130

func (a *app) sendCommand() *cli.Command {
	return &cli.Command{
		Name:      "send",
		Usage:     "Send a message and stream the reply to stdout",
		ArgsUsage: "<message>",
		Before:    a.requireAuth,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "session",
				Aliases: []string{"s"},
				Usage:   "Session id (a new session is created when omitted)",
			},
			&cli.BoolFlag{
				Name:  "render",
				Usage: "Render the reply as markdown once it is complete",
			},
		},
		Action: a.sendAction,
	}
}

func (a *app) sendAction(c *cli.Context) error {
	message := strings.Join(c.Args().Slice(), " ")
	if strings.TrimSpace(message) == "" {
		return cli.Exit("botline: send needs a message", 1)
	}

	sessionID := c.String("session")
	if sessionID == "" {
		id, err := a.client.NewSession(c.Context)
		if err != nil {
			return fail(err)
		}
		sessionID = id
		fmt.Fprintf(a.stderr, "session %s\n", sessionID)
	}

	stream, err := a.client.SendMessage(c.Context, botline.SendMessageRequest{
		Message:          message,
		SessionID:        sessionID,
		SelectedProvider: a.config.Provider,
		SelectedModel:    a.config.Model,
		EnableStreaming:  true,
	})
	if err != nil {
		return fail(err)
	}

	render := c.Bool("render")
	var reply strings.Builder
	var failure string
	completed := false
	handle := botline.Open(stream, botline.Handler{
		OnPlain: func(text string) {
			text = ansi.Sanitize(text)
			if render {
				reply.WriteString(text)
				return
			}
			fmt.Fprint(a.stdout, text)
		},
		OnError:    func(message string) { failure = message },
		OnComplete: func() { completed = true },
	})

	interrupt := make(chan os.Signal, 1)
	signal.Notify(interrupt, os.Interrupt)
	defer signal.Stop(interrupt)

	select {
	case <-handle.Done():
	case <-interrupt:
		handle.Cancel()
		handle.Wait()
	case <-c.Context.Done():
		handle.Cancel()
		handle.Wait()
	}

	switch {
	case completed:
		if render {
			fmt.Fprintln(a.stdout, goldmark.Render(reply.String(), renderWidth, botline.DefaultTheme()))
		} else {
			fmt.Fprintln(a.stdout)
		}
		return nil
	case failure != "":
		if !render {
			fmt.Fprintln(a.stdout)
		}
		return cli.Exit("botline: "+failure, 1)
	default:
		fmt.Fprintln(a.stdout)
		return cli.Exit("botline: cancelled", exitCancelled)
	}
}
