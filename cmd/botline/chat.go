package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"

	"github.com/fwojciec/botline"
	bt "github.com/fwojciec/botline/bubbletea"
	"github.com/urfave/cli/v2"
	"go.uber.org/zap"
)

func (a *app) chatCommand() *cli.Command {
	return &cli.Command{
		Name:   "chat",
		Usage:  "Open the interactive chat",
		Before: a.requireAuth,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "session",
				Aliases: []string{"s"},
				Usage:   "Session id to continue (a new session is created when omitted)",
			},
		},
		Action: a.chatAction,
	}
}

func (a *app) chatAction(c *cli.Context) error {
	detail, err := a.loadOrCreateSession(c.Context, c.String("session"))
	if err != nil {
		return fail(err)
	}

	ctx, stop := signal.NotifyContext(c.Context, os.Interrupt)
	defer stop()

	m := bt.New(a.client, detail, botline.DefaultTheme(), bt.WithModel(a.config.Provider, a.config.Model))
	if err := bt.Run(ctx, m); err != nil {
		return cli.Exit(fmt.Sprintf("botline: TUI: %v", err), 1)
	}
	fmt.Fprintf(a.stdout, "Session %s\n", detail.Session.ID)
	return nil
}

// loadOrCreateSession returns the history of id, or a new empty session when
// id is empty.
func (a *app) loadOrCreateSession(ctx context.Context, id string) (botline.SessionDetail, error) {
	if id != "" {
		return a.client.Session(ctx, id)
	}
	id, err := a.client.NewSession(ctx)
	if err != nil {
		return botline.SessionDetail{}, err
	}
	a.logger.Debug("created session", zap.String("session_id", id))
	return botline.SessionDetail{Session: botline.ChatSession{ID: id}}, nil
}
