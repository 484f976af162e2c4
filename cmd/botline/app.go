package main

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/fwojciec/botline"
	"github.com/fwojciec/botline/dashboard"
	botjson "github.com/fwojciec/botline/json"
	"github.com/fwojciec/botline/log"
	"github.com/fwojciec/botline/yaml"
	"github.com/urfave/cli/v2"
	"go.uber.org/zap"
)

const (
	defaultDir        = ".botline"
	defaultConfigFile = "config.yaml"
	defaultAuthFile   = "auth.json"
)

// app holds the collaborators shared by all commands. They are built by the
// Before hook once flags are parsed.
type app struct {
	stdin  io.Reader
	stdout io.Writer
	stderr io.Writer
	lines  *bufio.Reader

	config botline.Config
	logger *zap.Logger
	store  botline.AuthStore
	client *dashboard.Client
}

func newApp(stdin io.Reader, stdout, stderr io.Writer) *cli.App {
	a := &app{stdin: stdin, stdout: stdout, stderr: stderr}
	return &cli.App{
		Name:      "botline",
		Usage:     "Chat with the bot platform from the terminal",
		Reader:    stdin,
		Writer:    stdout,
		ErrWriter: stderr,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "config",
				Usage:   "Path to the YAML config file (default: ~/.botline/config.yaml)",
				EnvVars: []string{"BOTLINE_CONFIG"},
			},
			&cli.StringFlag{
				Name:    "base-url",
				Usage:   "Dashboard API base URL",
				EnvVars: []string{"BOTLINE_BASE_URL"},
			},
			&cli.DurationFlag{
				Name:    "timeout",
				Usage:   "Timeout for non-streaming API calls (0 = none)",
				EnvVars: []string{"BOTLINE_TIMEOUT"},
			},
			&cli.StringFlag{
				Name:    "auth-file",
				Usage:   "Where the access token is kept (default: ~/.botline/auth.json)",
				EnvVars: []string{"BOTLINE_AUTH_FILE"},
			},
			&cli.StringFlag{
				Name:    "provider",
				Usage:   "LLM provider for new messages (default: platform choice)",
				EnvVars: []string{"BOTLINE_PROVIDER"},
			},
			&cli.StringFlag{
				Name:    "model",
				Usage:   "LLM model for new messages (default: platform choice)",
				EnvVars: []string{"BOTLINE_MODEL"},
			},
			&cli.BoolFlag{
				Name:    "verbose",
				Aliases: []string{"v"},
				Usage:   "Log debug output to stderr",
				EnvVars: []string{"BOTLINE_VERBOSE"},
			},
		},
		Before: a.setup,
		After: func(*cli.Context) error {
			if a.logger != nil {
				_ = a.logger.Sync()
			}
			return nil
		},
		Commands: []*cli.Command{
			a.loginCommand(),
			a.logoutCommand(),
			a.passwdCommand(),
			a.sessionsCommand(),
			a.newCommand(),
			a.showCommand(),
			a.deleteCommand(),
			a.exportCommand(),
			a.sendCommand(),
			a.chatCommand(),
		},
	}
}

func (a *app) setup(c *cli.Context) error {
	cfg, err := resolveConfig(c)
	if err != nil {
		return cli.Exit(fmt.Sprintf("botline: %v", err), 1)
	}
	a.config = cfg
	a.logger = log.New(a.stderr, c.Bool("verbose"))

	store, err := botjson.OpenAuthStore(cfg.AuthFile)
	if err != nil {
		return cli.Exit(fmt.Sprintf("botline: %v", err), 1)
	}
	a.store = store
	a.client = dashboard.New(store,
		dashboard.WithBaseURL(cfg.BaseURL),
		dashboard.WithTimeout(cfg.Timeout),
		dashboard.WithLogger(a.logger),
	)
	a.logger.Debug("configured",
		zap.String("base_url", cfg.BaseURL),
		zap.Duration("timeout", cfg.Timeout),
		zap.String("auth_file", cfg.AuthFile),
	)
	return nil
}

// resolveConfig layers flags and environment over the config file over
// defaults. A missing config file is tolerated unless it was named
// explicitly.
func resolveConfig(c *cli.Context) (botline.Config, error) {
	home, _ := os.UserHomeDir()

	path := c.String("config")
	explicit := path != ""
	if !explicit {
		path = filepath.Join(home, defaultDir, defaultConfigFile)
	}
	cfg, err := yaml.LoadConfig(expandHome(path, home))
	switch {
	case err == nil:
	case errors.Is(err, fs.ErrNotExist) && !explicit:
		cfg = botline.DefaultConfig()
	default:
		return botline.Config{}, fmt.Errorf("config %s: %w", path, err)
	}

	if c.IsSet("base-url") {
		cfg.BaseURL = c.String("base-url")
	}
	if c.IsSet("timeout") {
		cfg.Timeout = c.Duration("timeout")
	}
	if c.IsSet("auth-file") {
		cfg.AuthFile = c.String("auth-file")
	}
	if c.IsSet("provider") {
		cfg.Provider = c.String("provider")
	}
	if c.IsSet("model") {
		cfg.Model = c.String("model")
	}
	if cfg.AuthFile == "" {
		cfg.AuthFile = filepath.Join(home, defaultDir, defaultAuthFile)
	}
	cfg.AuthFile = expandHome(cfg.AuthFile, home)
	return cfg, nil
}

func expandHome(path, home string) string {
	if rest, ok := strings.CutPrefix(path, "~/"); ok && home != "" {
		return filepath.Join(home, rest)
	}
	return path
}

// requireAuth is the Before hook of every command that talks to the
// platform as the logged-in user.
func (a *app) requireAuth(*cli.Context) error {
	if err := botline.RequireAuth(a.store); err != nil {
		return cli.Exit("botline: not logged in, run `botline login`", 1)
	}
	return nil
}

// fail converts an API error into a CLI exit error.
func fail(err error) error {
	if dashboard.IsUnauthorized(err) {
		return cli.Exit("botline: session expired, run `botline login`", 1)
	}
	return cli.Exit(fmt.Sprintf("botline: %v", err), 1)
}
