package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"path/filepath"
	"runtime"

	"github.com/alecthomas/kong"
	"github.com/metcalfc/folio/internal/config"
	"github.com/metcalfc/folio/internal/logger"
	"github.com/metcalfc/folio/internal/paging"
	"github.com/metcalfc/folio/internal/reader"
	"github.com/metcalfc/folio/internal/state"
	"github.com/metcalfc/folio/internal/store/sqlite"
)

// Version info (injected via ldflags)
var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

const bookmarksDB = "bookmarks.db"

// CLI is the command line shared by the terminal and desktop readers.
type CLI struct {
	File      string           `arg:"" type:"existingfile" help:"Book to read (EPUB, Markdown or plain text)."`
	TextSize  int              `short:"s" help:"Text size in percent (50-300). Overrides the saved size."`
	Font      string           `short:"f" help:"Font family. Overrides the saved font."`
	NoRestore bool             `help:"Start at the beginning instead of the saved position."`
	Forget    bool             `help:"Forget the saved position and settings of this book."`
	Version   kong.VersionFlag `short:"v" help:"Show version information."`
}

func parseCLI(description string) *CLI {
	var cli CLI
	kong.Parse(&cli,
		kong.Name("folio"),
		kong.Description(description+"\n\nSupported formats: "+fmt.Sprint(reader.SupportedFormats())),
		kong.UsageOnError(),
		kong.Vars{"version": fmt.Sprintf("folio %s (commit: %s, built: %s)", version, commit, date)},
	)
	return &cli
}

// app owns everything a reading session needs besides the UI: configuration, logging, the
// stores and the parsed book.
type app struct {
	cli       *CLI
	cfg       *config.Config
	logger    *slog.Logger
	logFile   io.Closer
	states    *state.StateStore
	bookmarks *sqlite.Store
	key       string
	src       paging.Source
}

func newApp(cli *CLI) (*app, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}
	dir := cfg.StateDir
	if dir == "" {
		dir = state.Dir()
	}

	a := &app{cli: cli, cfg: cfg}
	f, err := logger.OpenFile(dir)
	if err != nil {
		return nil, fmt.Errorf("failed to open log: %w", err)
	}
	a.logFile = f
	a.logger = logger.New(logger.Config{
		Writer: f,
		Format: cfg.LogFormat,
		Level:  logger.ParseLevel(cfg.LogLevel),
	})

	if a.states, err = state.NewStateStore(dir); err != nil {
		a.Close()
		return nil, fmt.Errorf("failed to open state: %w", err)
	}
	if a.bookmarks, err = sqlite.Open(filepath.Join(dir, bookmarksDB), a.logger); err != nil {
		a.Close()
		return nil, err
	}
	if a.key, err = state.ComputeHash(cli.File); err != nil {
		a.Close()
		return nil, fmt.Errorf("failed to read '%s': %w", cli.File, err)
	}
	if cli.Forget {
		if err := a.states.Clear(a.key); err != nil {
			a.logger.Warn("failed to clear state", "key", a.key, "error", err)
		}
	}
	if a.src, err = reader.ExtractBook(cli.File); err != nil {
		a.Close()
		return nil, fmt.Errorf("failed to parse '%s': %w", cli.File, err)
	}
	if a.src.Title == "" {
		a.src.Title = filepath.Base(cli.File)
	}
	a.logger.Info("opened book", "file", cli.File, "key", a.key, "chapters", len(a.src.Chapters), "toc", len(a.src.TOC))
	return a, nil
}

// layout builds the starting layout. Explicit flags beat saved per-book settings, which beat
// the environment defaults.
func (a *app) layout(page paging.Rect, margins paging.Insets, fontSize float64) paging.Layout {
	saved := a.states.Settings(a.key)

	size := a.cfg.TextSize
	if saved.TextSize != 0 {
		size = saved.TextSize
	}
	if a.cli.TextSize != 0 {
		size = a.cli.TextSize
	}

	font := reader.DefaultFont(a.src.Language)
	for _, f := range []string{a.cfg.Font, saved.Font, a.cli.Font} {
		if f != "" {
			font = f
		}
	}
	if a.cfg.FontSize > 0 {
		fontSize = a.cfg.FontSize
	}

	return paging.Layout{
		Page:               page,
		Margins:            margins,
		Font:               paging.Font{Name: font, Size: fontSize},
		TextSizeMultiplier: paging.ClampMultiplier(size),
	}
}

func (a *app) open(ctx context.Context, l paging.Layout, probe paging.Probe) (*reader.Reader, error) {
	return reader.Open(ctx, a.src, l, probe, reader.Options{
		BookKey:   a.key,
		Records:   a.states,
		Bookmarks: a.bookmarks,
		Restore:   !a.cli.NoRestore,
		Logger:    a.logger,
	})
}

// saveSettings stores the session's text size and font as the book's settings.
func (a *app) saveSettings(r *reader.Reader) {
	l := r.Book().Layout()
	err := a.states.SetSettings(a.key, state.Settings{TextSize: l.TextSizeMultiplier, Font: l.Font.Name})
	if err != nil {
		a.logger.Warn("failed to save settings", "error", err)
	}
}

func (a *app) workers() int {
	if a.cfg.Workers > 0 {
		return a.cfg.Workers
	}
	return runtime.GOMAXPROCS(0)
}

func (a *app) Close() {
	if a.bookmarks != nil {
		a.bookmarks.Close()
	}
	if a.logFile != nil {
		a.logFile.Close()
	}
}
