package main

import (
	"chatit/internal"
	"context"
	stdErrors "errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/dgraph-io/badger/v4"
	"github.com/mama165/sdk-go/logs"
)

// Exit codes to provide meaningful status to the shell.
const (
	exitOK      = 0
	exitRuntime = 1
	exitConfig  = 2
	exitUsage   = 64
)

func main() {
	code, err := run(os.Args[1:])
	if err != nil {
		fmt.Fprintf(os.Stderr, "chatit terminated with error: %v\n", err)
	}
	os.Exit(code)
}

// run wires the components for one command and makes sure every defer runs
// before the process exits.
func run(args []string) (int, error) {
	if len(args) == 0 {
		usage(os.Stderr)
		return exitUsage, nil
	}
	command, ok := commands[args[0]]
	if !ok {
		usage(os.Stderr)
		return exitUsage, fmt.Errorf("unknown command %q", args[0])
	}

	// 1. Configuration & Logger
	config, err := internal.LoadConfig()
	if err != nil {
		return exitConfig, fmt.Errorf("config error: %w", err)
	}
	log := logs.GetLoggerFromString(config.LogLevel)

	// 2. Database (BadgerDB), shared by the document store, the session and the alert log
	db, err := badger.Open(badger.DefaultOptions(config.BadgerFilepath).
		WithLoggingLevel(badger.WARNING))
	if err != nil {
		return exitRuntime, fmt.Errorf("database opening failed: %w", err)
	}
	defer func() {
		log.Debug("Closing BadgerDB...")
		_ = db.Close()
	}()

	// 3. Context & Signals
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	a := newApp(log, config, db, os.Stdin, os.Stdout)
	defer a.close()

	if err = command.run(ctx, a, args[1:]); err != nil {
		if stdErrors.Is(err, errUsage) {
			fmt.Fprintf(os.Stderr, "usage: chatit %s %s\n", args[0], command.usage)
			return exitUsage, nil
		}
		return exitRuntime, err
	}
	return exitOK, nil
}
