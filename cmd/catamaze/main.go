package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/catamaze/client/internal/client"
	"github.com/catamaze/client/internal/config"
	"github.com/catamaze/client/internal/logging"
	"github.com/catamaze/client/internal/session"
	"github.com/catamaze/client/internal/shell"
	"github.com/catamaze/client/internal/storage"
	"github.com/mattn/go-isatty"
	"go.uber.org/zap"
)

func main() {
	flags := config.RegisterFlags(flag.CommandLine)
	flag.Usage = func() {
		fmt.Fprintf(flag.CommandLine.Output(), "Usage: %s [flags] [command...]\n\n", os.Args[0])
		fmt.Fprintln(flag.CommandLine.Output(), "With a command, runs it and exits. Without one, reads commands from stdin.")
		flag.PrintDefaults()
	}
	flag.Parse()

	if err := run(flags, flag.Args()); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run(flags *config.Flags, args []string) error {
	cfg, err := config.Resolve(flags)
	if err != nil {
		return err
	}

	logger, flush, err := logging.New(cfg.LogFile(), cfg.Log.Level)
	if err != nil {
		return err
	}
	defer flush()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	httpClient := client.NewHTTPClient(cfg.Server.URL, cfg.Server.Token,
		client.WithTimeout(cfg.Server.Timeout),
		client.WithLogger(logger),
	)
	sh := shell.New(httpClient, os.Stdout, storage.NewStore(cfg.StorageDir()), logger,
		session.WithAutoRunInterval(cfg.AutoRun.Interval),
		session.WithAutoRunOnStart(cfg.AutoRun.StartWithSession),
	)
	defer sh.Close()

	if len(args) > 0 {
		sh.Exec(ctx, strings.Join(args, " "))
		return nil
	}

	interactive := isatty.IsTerminal(os.Stdin.Fd())
	if interactive {
		fmt.Println(`CataMaze shell. Type "help" for commands.`)
	}
	if err := sh.Run(ctx, os.Stdin, interactive); err != nil && ctx.Err() == nil {
		logger.Error("shell stopped", zap.Error(err))
		return err
	}
	return nil
}
