// monovoice keeps a Monopoly money and property ledger driven by spoken or
// typed command sentences.
// Usage: monovoice [--version] [--plain] [--script <file>] [--trace] [--serve] [--board <file>] [--env <file>]
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/nathoo/monovoice/cli"
	"github.com/nathoo/monovoice/config"
	"github.com/nathoo/monovoice/engine"
	"github.com/nathoo/monovoice/loader"
	"github.com/nathoo/monovoice/server"
	"github.com/nathoo/monovoice/session"
	"github.com/nathoo/monovoice/tui"
	"github.com/nathoo/monovoice/types"
)

// Set via -ldflags at build time.
var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

const usage = "Usage: monovoice [--version] [--plain] [--script <file>] [--trace] [--serve] [--board <file>] [--env <file>]"

func main() {
	plain := false
	trace := false
	serve := false
	var scriptFile, boardFile, envFile string

	args := os.Args[1:]
	for i := 0; i < len(args); i++ {
		switch args[i] {
		case "--version":
			fmt.Printf("monovoice %s (commit %s, built %s)\n", version, commit, date)
			return
		case "--plain":
			plain = true
		case "--trace":
			trace = true
		case "--serve":
			serve = true
		case "--script", "--board", "--env":
			if i+1 >= len(args) {
				fmt.Fprintf(os.Stderr, "%s requires a file path\n", args[i])
				os.Exit(1)
			}
			flag := args[i]
			i++
			switch flag {
			case "--script":
				scriptFile = args[i]
			case "--board":
				boardFile = args[i]
			case "--env":
				envFile = args[i]
			}
		case "-h", "--help":
			fmt.Println(usage)
			return
		default:
			fmt.Fprintf(os.Stderr, "unknown argument %q\n%s\n", args[i], usage)
			os.Exit(1)
		}
	}

	cfg, err := config.Load(envFile)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading config: %v\n", err)
		os.Exit(1)
	}
	if boardFile != "" {
		cfg.BoardFile = boardFile
	}

	interactive := !serve && scriptFile == "" && !plain && isTerminal()
	log, closeLog, err := newLogger(cfg, interactive)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error opening log: %v\n", err)
		os.Exit(1)
	}
	defer closeLog()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	board, err := loadBoard(cfg.BoardFile)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading board: %v\n", err)
		os.Exit(1)
	}

	store, err := openStore(ctx, cfg)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error opening %s store: %v\n", cfg.Store, err)
		os.Exit(1)
	}
	defer store.Close()

	sess := session.New(engine.New(board), store, cfg.SessionKey, log)
	if err := sess.Open(ctx); err != nil {
		log.WithError(err).Warn("could not restore saved game, starting fresh")
	}

	switch {
	case serve:
		srv := server.New(sess, server.Options{Origins: cfg.CORSOrigins, Log: log})
		if err := srv.ListenAndServe(ctx, cfg.HTTPAddr); err != nil {
			log.WithError(err).Error("server stopped")
			os.Exit(1)
		}

	case scriptFile != "":
		// Script mode: open file, force plain, echo commands.
		f, err := os.Open(scriptFile)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error opening script: %v\n", err)
			os.Exit(1)
		}
		defer f.Close()
		c := cli.New(sess)
		c.In = f
		c.EchoInput = true
		c.Trace = trace
		c.Run(ctx)

	case !interactive:
		// Use plain CLI if --plain flag or stdout is not a terminal.
		c := cli.New(sess)
		c.Trace = trace
		c.Run(ctx)

	default:
		if err := tui.Run(ctx, sess); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
	}
}

// loadBoard compiles the board file, or the built-in board when path is empty.
func loadBoard(path string) (*types.BoardDef, error) {
	if path == "" {
		return loader.Default()
	}
	return loader.Load(path)
}

// isTerminal returns true if stdout is a terminal (not piped/redirected).
func isTerminal() bool {
	fi, err := os.Stdout.Stat()
	if err != nil {
		return false
	}
	return fi.Mode()&os.ModeCharDevice != 0
}
