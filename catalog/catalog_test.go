package catalog_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/keystone/habit-engine/calendar"
	"github.com/keystone/habit-engine/catalog"
	"github.com/keystone/habit-engine/scoring"
)

var now = time.Date(2024, 1, 15, 9, 0, 0, 0, time.UTC)

func validSpec() catalog.Spec {
	return catalog.Spec{
		Name:          "Stretch",
		XP:            20,
		Category:      scoring.CategoryHealth,
		TimeOfDay:     scoring.TimeMorning,
		AppliesTo:     scoring.AppliesBoth,
		BadDayVersion: "One stretch",
		BadDayXP:      10,
	}
}

func TestSpec_Validate(t *testing.T) {
	tests := []struct {
		name      string
		mutate    func(s *catalog.Spec)
		wantField string
	}{
		{name: "valid", mutate: func(s *catalog.Spec) {}},
		{name: "missing name", mutate: func(s *catalog.Spec) { s.Name = "" }, wantField: "name"},
		{name: "zero xp", mutate: func(s *catalog.Spec) { s.XP = 0 }, wantField: "xp"},
		{name: "bad day above xp", mutate: func(s *catalog.Spec) { s.BadDayXP = 25 }, wantField: "badDayXp"},
		{name: "bad day equal xp", mutate: func(s *catalog.Spec) { s.BadDayXP = 20 }},
		{name: "unknown category", mutate: func(s *catalog.Spec) { s.Category = "hobby" }, wantField: "category"},
		{name: "unknown appliesTo", mutate: func(s *catalog.Spec) { s.AppliesTo = "sometimes" }, wantField: "appliesTo"},
		{name: "weekday out of range", mutate: func(s *catalog.Spec) { s.SpecificWeekdays = []time.Weekday{7} }, wantField: "specificWeekdays[0]"},
		{name: "repeated weekday", mutate: func(s *catalog.Spec) {
			s.SpecificWeekdays = []time.Weekday{time.Friday, time.Friday}
		}, wantField: "specificWeekdays"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			spec := validSpec()
			tt.mutate(&spec)

			err := spec.Validate()
			if tt.wantField == "" {
				assert.NoError(t, err)
				return
			}

			require.Error(t, err)
			assert.ErrorIs(t, err, catalog.ErrInvalidHabit)
			var verr *catalog.ValidationError
			require.ErrorAs(t, err, &verr)
			assert.Contains(t, verr.Fields, tt.wantField)
		})
	}
}

func TestAdd(t *testing.T) {
	// GIVEN: the default catalog
	habits := catalog.MustDefaults(now)

	// WHEN: adding a habit
	updated, created, err := catalog.Add(habits, validSpec(), now)

	// THEN: it is appended, active, with a fresh id and the next sort order
	require.NoError(t, err)
	assert.Len(t, updated, len(habits)+1)
	assert.NotEmpty(t, created.ID)
	assert.True(t, created.Active)
	assert.Equal(t, len(habits)+1, created.SortOrder)
	assert.Equal(t, now, created.CreatedAt)
	assert.Len(t, habits, 11, "input slice untouched")

	_, _, err = catalog.Add(habits, catalog.Spec{}, now)
	assert.ErrorIs(t, err, catalog.ErrInvalidHabit)
}

func TestUpdate_KeepsManagedFields(t *testing.T) {
	habits := catalog.MustDefaults(now)
	spec := catalog.SpecOf(habits[1])
	spec.XP = 55
	spec.Name = "  Lift  "

	updated, h, err := catalog.Update(habits, "h2", spec)

	require.NoError(t, err)
	assert.Equal(t, "h2", h.ID)
	assert.Equal(t, "Lift", h.Name)
	assert.Equal(t, 55, h.XP)
	assert.Equal(t, habits[1].SortOrder, h.SortOrder)
	assert.Equal(t, 55, scoring.FindHabit(updated, "h2").XP)
	assert.Equal(t, 40, habits[1].XP, "input slice untouched")

	_, _, err = catalog.Update(habits, "nope", spec)
	assert.ErrorIs(t, err, catalog.ErrHabitNotFound)
}

func TestDisableEnable(t *testing.T) {
	habits := catalog.MustDefaults(now)

	disabled, h, err := catalog.Disable(habits, "h1")
	require.NoError(t, err)
	assert.False(t, h.Active)
	assert.Len(t, disabled, len(habits), "habits are never removed")

	enabled, h, err := catalog.Enable(disabled, "h1")
	require.NoError(t, err)
	assert.True(t, h.Active)
	assert.True(t, scoring.FindHabit(enabled, "h1").Active)

	_, _, err = catalog.Disable(habits, "ghost")
	assert.ErrorIs(t, err, catalog.ErrHabitNotFound)
}

func TestReorder(t *testing.T) {
	habits := catalog.MustDefaults(now)[:3] // h1, h2, h3 with orders 1..3

	reordered := catalog.Reorder(habits, []string{"h3", "ghost", "h1"})

	assert.Equal(t, 1, scoring.FindHabit(reordered, "h3").SortOrder)
	assert.Equal(t, 3, scoring.FindHabit(reordered, "h1").SortOrder)
	assert.Equal(t, 2, scoring.FindHabit(reordered, "h2").SortOrder, "unlisted habit keeps its order")

	sorted := catalog.Sorted(reordered)
	assert.Equal(t, []string{"h3", "h2", "h1"}, []string{sorted[0].ID, sorted[1].ID, sorted[2].ID})
}

func TestDefaults(t *testing.T) {
	habits, err := catalog.Defaults(now)
	require.NoError(t, err)
	require.Len(t, habits, 11)

	for i, h := range habits {
		assert.Equal(t, i+1, h.SortOrder)
		assert.True(t, h.Active)
		assert.LessOrEqual(t, h.BadDayXP, h.XP, h.ID)
	}

	// The weekly specials only apply on their day.
	friday := calendar.MustParse("2024-01-19")
	thursday := calendar.MustParse("2024-01-18")
	sunday := calendar.MustParse("2024-01-21")

	h10 := scoring.FindHabit(habits, catalog.LegacyFridayHabitID)
	h11 := scoring.FindHabit(habits, catalog.LegacySundayHabitID)
	require.NotNil(t, h10)
	require.NotNil(t, h11)
	assert.Equal(t, []time.Weekday{time.Friday}, h10.SpecificWeekdays)
	assert.True(t, h10.AppliesOn(friday))
	assert.False(t, h10.AppliesOn(thursday))
	assert.True(t, h11.AppliesOn(sunday))
	assert.False(t, h11.AppliesOn(calendar.MustParse("2024-01-20")))
}

func TestParseSeed_Errors(t *testing.T) {
	_, err := catalog.ParseSeed([]byte("habits: [oops"), now)
	assert.Error(t, err)

	dup := []byte(`
habits:
  - {id: a, name: A, xp: 10, category: health, timeOfDay: morning, appliesTo: both, badDayXp: 5}
  - {id: a, name: B, xp: 10, category: health, timeOfDay: morning, appliesTo: both, badDayXp: 5}
`)
	_, err = catalog.ParseSeed(dup, now)
	assert.ErrorIs(t, err, catalog.ErrInvalidHabit)

	badDay := []byte(`
habits:
  - {id: a, name: A, xp: 10, category: health, timeOfDay: morning, appliesTo: both, specificWeekdays: [funday]}
`)
	_, err = catalog.ParseSeed(badDay, now)
	assert.ErrorIs(t, err, catalog.ErrInvalidHabit)
}

func TestParseWeekday(t *testing.T) {
	tests := map[string]time.Weekday{
		"friday": time.Friday,
		"Sunday": time.Sunday,
		"sat":    time.Saturday,
		" Mon ":  time.Monday,
	}
	for in, want := range tests {
		got, err := catalog.ParseWeekday(in)
		require.NoError(t, err, in)
		assert.Equal(t, want, got, in)
	}

	_, err := catalog.ParseWeekday("fr")
	assert.Error(t, err)
}
