package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/catamaze/client/internal/app"
	"github.com/catamaze/client/internal/client"
	"github.com/catamaze/client/internal/config"
	"github.com/catamaze/client/internal/logging"
	"github.com/catamaze/client/internal/session"
	"github.com/catamaze/client/internal/storage"
	tea "github.com/charmbracelet/bubbletea"
	"go.uber.org/zap"
)

func main() {
	flags := config.RegisterFlags(flag.CommandLine)
	resumeID := flag.String("resume", "", "Resume the game with this id on start")
	resumeLast := flag.Bool("resume-last", false, "Resume the most recent unfinished game")
	flag.Parse()

	if err := run(flags, *resumeID, *resumeLast); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run(flags *config.Flags, resumeID string, resumeLast bool) error {
	cfg, err := config.Resolve(flags)
	if err != nil {
		return err
	}

	logger, flush, err := logging.New(cfg.LogFile(), cfg.Log.Level)
	if err != nil {
		return err
	}
	defer flush()

	games := storage.NewStore(cfg.StorageDir())
	if resumeLast && resumeID == "" {
		g, ok, err := games.Latest()
		switch {
		case err != nil:
			logger.Warn("reading game history", zap.Error(err))
		case ok:
			resumeID = g.ID
		}
	}

	httpClient := client.NewHTTPClient(cfg.Server.URL, cfg.Server.Token,
		client.WithTimeout(cfg.Server.Timeout),
		client.WithLogger(logger),
	)

	bridge := app.NewBridge(app.BridgeBuffer)
	ctrl := session.New(httpClient,
		session.WithListener(bridge),
		session.WithLogger(logger),
		session.WithHistory(games),
		session.WithAutoRunInterval(cfg.AutoRun.Interval),
		session.WithAutoRunOnStart(cfg.AutoRun.StartWithSession),
	)
	defer ctrl.Close()
	// Closed before ctrl so a final notification cannot block on a full buffer.
	defer bridge.Close()

	logger.Info("starting", zap.String("server", cfg.Server.URL), zap.String("resume", resumeID))

	m := app.New(ctrl, bridge, app.WithGames(games), app.WithResume(resumeID))
	p := tea.NewProgram(m, tea.WithAltScreen())

	_, err = p.Run()
	return err
}
