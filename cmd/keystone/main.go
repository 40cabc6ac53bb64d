// Command keystone is a terminal client for the habit tracker. It works on
// the same SQLite database as the server.
package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/alecthomas/kong"

	"github.com/keystone/habit-engine/config"
	"github.com/keystone/habit-engine/logger"
	"github.com/keystone/habit-engine/scoring"
	"github.com/keystone/habit-engine/store/sqlite"
	"github.com/keystone/habit-engine/tracker"
)

var CLI struct {
	Version kong.VersionFlag
	Config  string `help:"Config file path." type:"path"`
	DB      string `help:"SQLite database path (overrides config)." name:"db"`
	Debug   bool   `help:"Enable debug logging."`

	Day      DayCmd      `cmd:"" help:"Show the checklist for a day." default:"withargs"`
	Toggle   ToggleCmd   `cmd:"" help:"Toggle a habit on a day."`
	Streaks  StreaksCmd  `cmd:"" help:"Show current, best, perfect and weekly streaks."`
	Progress ProgressCmd `cmd:"" help:"Show total XP and level."`
	Stats    StatsCmd    `cmd:"" help:"Show this month's stats."`
	Habits   HabitsCmd   `cmd:"" help:"List the habit catalog."`
	Export   ExportCmd   `cmd:"" help:"Write a backup file."`
	Import   ImportCmd   `cmd:"" help:"Replace all data from a backup file."`
	Seed     SeedCmd     `cmd:"" help:"Write the default catalog if the database is empty."`
	Reset    ResetCmd    `cmd:"" help:"Delete all data and re-seed the default catalog."`
}

func main() {
	ctx := kong.Parse(&CLI,
		kong.Name("keystone"),
		kong.Description("Daily habit checklist with XP, levels and streaks"),
		kong.UsageOnError(),
		kong.Vars{"version": "v0.3.0"},
	)

	if err := run(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run(ctx *kong.Context) error {
	cfg, err := config.Load(CLI.Config)
	if err != nil {
		return err
	}
	if CLI.DB != "" {
		cfg.Storage.DBPath = CLI.DB
	}

	if err := logger.Init(logger.Config{
		Level:  cfg.Log.Level,
		Dir:    cfg.Log.Dir,
		Debug:  CLI.Debug || cfg.Log.Debug,
		Prefix: "cli",
	}); err != nil {
		return err
	}
	defer logger.Close()

	if cfg.Storage.DBPath != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(cfg.Storage.DBPath), 0o755); err != nil {
			return fmt.Errorf("failed to create data directory: %w", err)
		}
	}
	store, err := sqlite.New(cfg.Storage.DBPath)
	if err != nil {
		return err
	}
	defer store.Close()

	engine, err := scoring.NewEngine(cfg.Scoring.Thresholds())
	if err != nil {
		return err
	}
	loc, err := cfg.Calendar.Location()
	if err != nil {
		return err
	}

	app := &Context{
		Ctx:       context.Background(),
		Service:   tracker.NewService(store, engine, tracker.WithLocation(loc)),
		Out:       os.Stdout,
		BackupDir: cfg.Backup.Dir,
	}
	return ctx.Run(app)
}

// Context is handed to every command's Run method.
type Context struct {
	Ctx       context.Context
	Service   *tracker.Service
	Out       io.Writer
	BackupDir string
}

func (c *Context) printf(format string, args ...any) {
	fmt.Fprintf(c.Out, format, args...)
}
