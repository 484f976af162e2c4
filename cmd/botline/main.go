// Command botline is a terminal client for the chatbot dashboard.
//
// Usage:
//
//	botline login -u admin
//	botline sessions
//	botline send -s <session-id> "How do I reset my password?"
//	botline chat [-s <session-id>]
//
// Settings are read from ~/.botline/config.yaml and may be overridden by
// BOTLINE_* environment variables and global flags, in increasing order of
// precedence.
package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/urfave/cli/v2"
)

func main() {
	app := newApp(os.Stdin, os.Stdout, os.Stderr)
	app.ExitErrHandler = exitErrHandler
	if err := app.Run(os.Args); err != nil {
		os.Exit(1)
	}
}

// exitErrHandler prints err and exits with its code, 1 unless err carries
// one through cli.Exit.
func exitErrHandler(_ *cli.Context, err error) {
	if err == nil {
		return
	}
	var exitCoder cli.ExitCoder
	if errors.As(err, &exitCoder) {
		code := exitCoder.ExitCode()
		if msg := exitCoder.Error(); msg != "" && msg != fmt.Sprintf("exit status %d", code) {
			fmt.Fprintln(os.Stderr, msg)
		}
		os.Exit(code)
	}
	fmt.Fprintf(os.Stderr, "botline: %v\n", err)
	os.Exit(1)
}
