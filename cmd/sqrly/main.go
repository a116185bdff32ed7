// Package main implements the sqrly CLI. It watches a directory of SQL
// source files and applies changes to a development database, packages
// changed files into Hasura migrations, imports database functions into
// files, and lints that every changed file made it into a migration.
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"runtime/debug"
	"syscall"
)

func main() {
	os.Exit(run(os.Args[1:], os.Stdout, os.Stderr))
}

// run is the error boundary for the whole program: every failure, including
// a panic, is reported on stderr and mapped to an exit code here.
func run(args []string, stdout, stderr io.Writer) (code int) {
	defer func() {
		if r := recover(); r != nil {
			fmt.Fprintf(stderr, "Error: unexpected failure: %v\n%s", r, debug.Stack())
			code = 1
		}
	}()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	return execute(ctx, newApp(stdout, stderr), args)
}

// execute runs the command tree for a and maps the outcome to an exit code.
func execute(ctx context.Context, a *app, args []string) int {
	root := a.rootCommand()
	root.SetArgs(args)
	root.SetOut(a.stdout)
	root.SetErr(a.stderr)

	err := root.ExecuteContext(ctx)
	switch {
	case err == nil:
		return 0
	case errors.Is(err, errLintFailed):
		// Already reported as a list of violations.
		return 1
	default:
		a.reportError(err)
		return 1
	}
}
