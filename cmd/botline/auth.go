package main

import (
	"bufio"
	"fmt"
	"strings"

	"github.com/fwojciec/botline"
	"github.com/urfave/cli/v2"
)

func (a *app) loginCommand() *cli.Command {
	return &cli.Command{
		Name:  "login",
		Usage: "Log in and remember the access token",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:     "username",
				Aliases:  []string{"u"},
				Usage:    "Account name",
				Required: true,
			},
			&cli.StringFlag{
				Name:    "password",
				Usage:   "Account password (read from stdin when omitted)",
				EnvVars: []string{"BOTLINE_PASSWORD"},
			},
		},
		Action: a.loginAction,
	}
}

func (a *app) loginAction(c *cli.Context) error {
	password := c.String("password")
	if password == "" {
		fmt.Fprint(a.stderr, "Password: ")
		line, err := a.readLine()
		if err != nil {
			return cli.Exit(fmt.Sprintf("botline: read password: %v", err), 1)
		}
		password = line
	}

	resp, err := a.client.Login(c.Context, botline.LoginRequest{
		Username: c.String("username"),
		Password: password,
	})
	if err != nil {
		return fail(err)
	}
	user, _ := a.store.Get(botline.KeyUsername)
	fmt.Fprintf(a.stdout, "Logged in as %s\n", user)
	if resp.FirstLogin {
		fmt.Fprintln(a.stdout, "This is your first login; change your password with `botline passwd`.")
	}
	return nil
}

func (a *app) logoutCommand() *cli.Command {
	return &cli.Command{
		Name:  "logout",
		Usage: "End the session and forget the access token",
		Action: func(c *cli.Context) error {
			if err := a.client.Logout(c.Context); err != nil {
				// Credentials are already gone locally.
				fmt.Fprintf(a.stderr, "botline: logout: %v\n", err)
			}
			fmt.Fprintln(a.stdout, "Logged out")
			return nil
		},
	}
}

func (a *app) passwdCommand() *cli.Command {
	return &cli.Command{
		Name:   "passwd",
		Usage:  "Change the password of the logged-in user",
		Before: a.requireAuth,
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "old", Usage: "Current password (read from stdin when omitted)"},
			&cli.StringFlag{Name: "new", Usage: "New password (read from stdin when omitted)"},
		},
		Action: func(c *cli.Context) error {
			req := botline.ChangePasswordRequest{
				OldPassword: c.String("old"),
				NewPassword: c.String("new"),
			}
			var err error
			if req.OldPassword == "" {
				fmt.Fprint(a.stderr, "Current password: ")
				if req.OldPassword, err = a.readLine(); err != nil {
					return cli.Exit(fmt.Sprintf("botline: read password: %v", err), 1)
				}
			}
			if req.NewPassword == "" {
				fmt.Fprint(a.stderr, "New password: ")
				if req.NewPassword, err = a.readLine(); err != nil {
					return cli.Exit(fmt.Sprintf("botline: read password: %v", err), 1)
				}
			}
			if err := a.client.ChangePassword(c.Context, req); err != nil {
				return fail(err)
			}
			fmt.Fprintln(a.stdout, "Password changed")
			return nil
		},
	}
}

// readLine reads one line from stdin without its line ending.
func (a *app) readLine() (string, error) {
	if a.lines == nil {
		a.lines = bufio.NewReader(a.stdin)
	}
	line, err := a.lines.ReadString('\n')
	if err != nil && line == "" {
		return "", err
	}
	return strings.TrimRight(line, "\r\n"), nil
}
