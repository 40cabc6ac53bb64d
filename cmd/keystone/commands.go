package main

import (
	"errors"
	"fmt"
	"strings"

	"github.com/keystone/habit-engine/backup"
	"github.com/keystone/habit-engine/calendar"
	"github.com/keystone/habit-engine/catalog"
	"github.com/keystone/habit-engine/progression"
	"github.com/keystone/habit-engine/scoring"
	"github.com/keystone/habit-engine/tracker"
)

// parseDate accepts YYYY-MM-DD, "today" or "yesterday".
func parseDate(app *Context, s string) (calendar.Date, error) {
	switch s {
	case "", "today":
		return app.Service.Today(), nil
	case "yesterday":
		return app.Service.Today().AddDays(-1), nil
	}
	d, err := calendar.Parse(s)
	if err != nil {
		return calendar.Date{}, fmt.Errorf("use YYYY-MM-DD, 'today' or 'yesterday': %w", err)
	}
	return d, nil
}

func seeded(app *Context) error {
	_, err := app.Service.EnsureSeeded(app.Ctx)
	return err
}

// =============================================================================
// DAY
// =============================================================================

type DayCmd struct {
	Date string `arg:"" optional:"" help:"Date to show (YYYY-MM-DD, 'today' or 'yesterday')." default:"today"`
}

func (c *DayCmd) Run(app *Context) error {
	if err := seeded(app); err != nil {
		return err
	}
	date, err := parseDate(app, c.Date)
	if err != nil {
		return err
	}

	view, err := app.Service.Day(app.Ctx, date)
	if err != nil {
		return err
	}
	printSummary(app, view.Summary)

	if len(view.Habits) == 0 {
		app.printf("  No habits scheduled\n")
		return nil
	}
	for _, h := range view.Habits {
		mark, xp := "[ ]", h.XP
		for _, e := range view.Logs {
			if e.HabitID != h.ID || !e.Completed {
				continue
			}
			mark, xp = "[x]", e.XPEarned
			if e.IsBadDayVersion {
				mark = "[~]"
			}
		}
		app.printf("  %s %-4s %-34s %4d xp\n", mark, h.ID, h.Name, xp)
		if mark == "[ ]" && h.BadDayVersion != "" {
			app.printf("            bad day: %s (%d xp)\n", h.BadDayVersion, h.BadDayXP)
		}
	}
	return nil
}

func printSummary(app *Context, s scoring.DaySummary) {
	app.printf("%s %s  %s %s (%d%%)  XP %d/%d  %d/%d done\n",
		s.Date.Weekday(), s.Date, s.Classification.Emoji(), s.Classification.Label(),
		s.CompletionPercent, s.TotalXPEarned, s.TotalXPPossible, s.CompletedCount, s.ApplicableCount)
}

// =============================================================================
// TOGGLE
// =============================================================================

type ToggleCmd struct {
	Habit string `arg:"" help:"Habit id (see 'keystone habits')."`
	Date  string `help:"Date to toggle on." default:"today"`
	MVD   bool   `help:"Toggle the bad-day version instead." name:"mvd"`
}

func (c *ToggleCmd) Run(app *Context) error {
	if err := seeded(app); err != nil {
		return err
	}
	date, err := parseDate(app, c.Date)
	if err != nil {
		return err
	}
	mode := tracker.ModeFull
	if c.MVD {
		mode = tracker.ModeReduced
	}

	res, err := app.Service.Toggle(app.Ctx, date, c.Habit, mode)
	if errors.Is(err, tracker.ErrHabitNotFound) {
		return fmt.Errorf("no habit %q, run 'keystone habits' for the ids", c.Habit)
	}
	if err != nil {
		return err
	}

	state := "unchecked"
	switch {
	case res.Entry.Completed && res.Entry.IsBadDayVersion:
		state = "done (bad-day version)"
	case res.Entry.Completed:
		state = "done"
	}
	app.printf("%s on %s: %s, %d xp\n", c.Habit, date, state, res.Entry.XPEarned)
	printSummary(app, res.Summary)
	app.printf("Streak %d days, total %d xp\n", res.Streaks.CurrentStreak, res.TotalXP)

	if res.LevelUp != nil {
		app.printf("Level up! Level %d: %s\n", res.LevelUp.Number, res.LevelUp.Title)
	}
	if res.Milestone > 0 {
		app.printf("Streak milestone: %d days\n", res.Milestone)
	}
	return nil
}

// =============================================================================
// READ-ONLY VIEWS
// =============================================================================

type StreaksCmd struct{}

func (c *StreaksCmd) Run(app *Context) error {
	snap, err := app.Service.Streaks(app.Ctx)
	if err != nil {
		return err
	}
	app.printf("Current streak: %d days\n", snap.CurrentStreak)
	app.printf("Best streak:    %d days\n", snap.BestStreak)
	app.printf("Perfect streak: %d days\n", snap.PerfectStreak)
	app.printf("Weekly streak:  %d weeks\n", snap.WeeklyStreak)
	return nil
}

type ProgressCmd struct {
	Ladder bool `help:"Also print every level threshold."`
}

func (c *ProgressCmd) Run(app *Context) error {
	if c.Ladder {
		for _, l := range progression.Levels() {
			app.printf("%2d %-14s %6d xp\n", l.Number, l.Title, l.XP)
		}
	}
	p, err := app.Service.Progress(app.Ctx)
	if err != nil {
		return err
	}
	app.printf("Level %d: %s  (%d xp total)\n", p.Level.Number, p.Level.Title, p.TotalXP)
	if p.Maxed {
		app.printf("Top of the ladder\n")
		return nil
	}
	app.printf("%s %d%%  %d/%d xp to %s\n",
		bar(p.Percent, 20), p.Percent, p.XPIntoLevel, p.XPNeeded, p.Next.Title)
	return nil
}

func bar(percent, width int) string {
	filled := percent * width / 100
	return "[" + strings.Repeat("#", filled) + strings.Repeat(".", width-filled) + "]"
}

type StatsCmd struct{}

func (c *StatsCmd) Run(app *Context) error {
	s, err := app.Service.MonthlyStats(app.Ctx)
	if err != nil {
		return err
	}
	app.printf("%s (%d days so far)\n", s.Month, s.DaysCounted)
	app.printf("  Perfect days: %d\n", s.PerfectDays)
	app.printf("  MVD+ days:    %d\n", s.MVDDays)
	app.printf("  XP:           %d / %d\n", s.XPEarned, s.XPPossible)
	return nil
}

type HabitsCmd struct {
	All bool `help:"Include disabled habits."`
}

func (c *HabitsCmd) Run(app *Context) error {
	if err := seeded(app); err != nil {
		return err
	}
	habits, err := app.Service.Habits(app.Ctx)
	if err != nil {
		return err
	}
	for _, h := range habits {
		if !h.Active && !c.All {
			continue
		}
		days := string(h.AppliesTo)
		if len(h.SpecificWeekdays) > 0 {
			names := make([]string, len(h.SpecificWeekdays))
			for i, wd := range h.SpecificWeekdays {
				names[i] = wd.String()[:3]
			}
			days = strings.Join(names, ",")
		}
		status := ""
		if !h.Active {
			status = " (disabled)"
		}
		app.printf("%-4s %-34s %4d xp  %-13s %-9s %s%s\n",
			h.ID, h.Name, h.XP, h.Category, h.TimeOfDay, days, status)
	}
	return nil
}

// =============================================================================
// DATA
// =============================================================================

type ExportCmd struct {
	Out string `help:"Output directory (defaults to the configured backup dir)." type:"path"`
}

func (c *ExportCmd) Run(app *Context) error {
	habits, logs, err := app.Service.Data(app.Ctx)
	if err != nil {
		return err
	}
	data, err := backup.Marshal(backup.Export(habits, logs, app.Service.Now()))
	if err != nil {
		return err
	}

	dir := c.Out
	if dir == "" {
		dir = app.BackupDir
	}
	path, err := backup.WriteFile(dir, data, app.Service.Today())
	if err != nil {
		return err
	}
	app.printf("Exported %d habits and %d days to %s\n", len(habits), len(logs), path)
	return nil
}

type ImportCmd struct {
	File string `arg:"" help:"Backup file to import." type:"existingfile"`
}

func (c *ImportCmd) Run(app *Context) error {
	doc, err := backup.ReadFile(c.File)
	if err != nil {
		return err
	}
	if err := app.Service.Replace(app.Ctx, doc.Habits, doc.DailyLogs); err != nil {
		return err
	}
	app.printf("Imported %d habits and %d days\n", len(doc.Habits), len(doc.DailyLogs))
	return nil
}

type SeedCmd struct{}

func (c *SeedCmd) Run(app *Context) error {
	done, err := app.Service.EnsureSeeded(app.Ctx)
	if err != nil {
		return err
	}
	if !done {
		app.printf("Catalog already seeded\n")
		return nil
	}
	app.printf("Seeded %d default habits\n", len(catalog.MustDefaults(app.Service.Now())))
	return nil
}

type ResetCmd struct {
	Yes bool `help:"Confirm deleting all data."`
}

func (c *ResetCmd) Run(app *Context) error {
	if !c.Yes {
		return errors.New("reset deletes every habit and log entry; pass --yes to confirm")
	}
	if err := app.Service.Reset(app.Ctx); err != nil {
		return err
	}
	app.printf("All data deleted, default catalog restored\n")
	return nil
}
