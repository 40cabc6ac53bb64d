package catalog

import (
	_ "embed"
	"fmt"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/keystone/habit-engine/scoring"
)

// Legacy ids of the weekly special habits. Older exports relied on these ids
// to restrict h10 to Fridays and h11 to Sundays.
const (
	LegacyFridayHabitID = "h10"
	LegacySundayHabitID = "h11"
)

//go:embed defaults.yaml
var defaultsYAML []byte

type seedFile struct {
	Habits []seedHabit `yaml:"habits"`
}

type seedHabit struct {
	ID               string   `yaml:"id"`
	Name             string   `yaml:"name"`
	Description      string   `yaml:"description"`
	XP               int      `yaml:"xp"`
	Category         string   `yaml:"category"`
	TimeOfDay        string   `yaml:"timeOfDay"`
	AppliesTo        string   `yaml:"appliesTo"`
	SpecificWeekdays []string `yaml:"specificWeekdays"`
	BadDayVersion    string   `yaml:"badDayVersion"`
	BadDayXP         int      `yaml:"badDayXp"`
}

// Defaults returns the first-run catalog. Habits are active, ordered as
// listed, and stamped with createdAt.
func Defaults(createdAt time.Time) ([]scoring.Habit, error) {
	return ParseSeed(defaultsYAML, createdAt)
}

// MustDefaults is like Defaults but panics if the embedded seed is broken.
func MustDefaults(createdAt time.Time) []scoring.Habit {
	habits, err := Defaults(createdAt)
	if err != nil {
		panic(err)
	}
	return habits
}

// ParseSeed parses a YAML seed catalog. Every habit is validated like an
// editor submission and ids must be unique.
func ParseSeed(data []byte, createdAt time.Time) ([]scoring.Habit, error) {
	var f seedFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("failed to parse seed catalog: %w", err)
	}

	seen := make(map[string]bool, len(f.Habits))
	habits := make([]scoring.Habit, 0, len(f.Habits))
	for i, sh := range f.Habits {
		if sh.ID == "" || seen[sh.ID] {
			return nil, fmt.Errorf("%w: seed habit %d has a missing or duplicate id %q", ErrInvalidHabit, i, sh.ID)
		}
		seen[sh.ID] = true

		weekdays, err := ParseWeekdays(sh.SpecificWeekdays)
		if err != nil {
			return nil, fmt.Errorf("seed habit %s: %w", sh.ID, err)
		}

		spec := Spec{
			Name:             sh.Name,
			Description:      sh.Description,
			XP:               sh.XP,
			Category:         scoring.Category(sh.Category),
			TimeOfDay:        scoring.TimeOfDay(sh.TimeOfDay),
			AppliesTo:        scoring.AppliesTo(sh.AppliesTo),
			SpecificWeekdays: weekdays,
			BadDayVersion:    sh.BadDayVersion,
			BadDayXP:         sh.BadDayXP,
		}
		if err := spec.Validate(); err != nil {
			return nil, fmt.Errorf("seed habit %s: %w", sh.ID, err)
		}

		habits = append(habits, spec.apply(scoring.Habit{
			ID:        sh.ID,
			SortOrder: i + 1,
			Active:    true,
			CreatedAt: createdAt,
		}))
	}
	return habits, nil
}

// ParseWeekday parses an English weekday name ("friday", "Fri").
func ParseWeekday(s string) (time.Weekday, error) {
	name := strings.ToLower(strings.TrimSpace(s))
	for wd := time.Sunday; wd <= time.Saturday; wd++ {
		full := strings.ToLower(wd.String())
		if name == full || (len(name) == 3 && strings.HasPrefix(full, name)) {
			return wd, nil
		}
	}
	return 0, fmt.Errorf("%w: unknown weekday %q", ErrInvalidHabit, s)
}

// ParseWeekdays parses a list of weekday names.
func ParseWeekdays(names []string) ([]time.Weekday, error) {
	if len(names) == 0 {
		return nil, nil
	}
	out := make([]time.Weekday, 0, len(names))
	for _, n := range names {
		wd, err := ParseWeekday(n)
		if err != nil {
			return nil, err
		}
		out = append(out, wd)
	}
	return out, nil
}
