/*
Package catalog manages the habit catalog: the editable list of habits the
scoring engine evaluates.

PURPOSE:
  Holds everything the engine deliberately does not do with habits:
  validating edits, assigning ids and sort order, disabling instead of
  deleting, and reordering. Operations are pure: they take a catalog slice
  and return a new one, leaving persistence to the caller.

VALIDATION:
  Spec carries validator struct tags. Unlike the engine, the editor enforces
  badDayXp <= xp, so a reduced completion can never out-earn a full one.

SPEC FORMAT (JSON, camelCase like the stored habit):
  {
    "name": "Morning workout",
    "description": "30 minutes, anything that raises the heart rate",
    "xp": 30,
    "category": "health",
    "timeOfDay": "morning",
    "appliesTo": "both",
    "specificWeekdays": [5],
    "badDayVersion": "10 pushups",
    "badDayXp": 10
  }

SEE ALSO:
  - defaults.go:       the first-run seed catalog
  - scoring/habit.go:  the Habit type itself
*/
package catalog

import (
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"

	"github.com/keystone/habit-engine/scoring"
)

// =============================================================================
// ERRORS
// =============================================================================

var (
	// ErrHabitNotFound is returned when an id does not match any habit.
	ErrHabitNotFound = errors.New("habit not found")

	// ErrInvalidHabit is returned when a habit spec fails validation.
	ErrInvalidHabit = errors.New("invalid habit")
)

// ValidationError lists the fields of a spec that failed validation.
type ValidationError struct {
	Fields map[string]string
}

func (e *ValidationError) Error() string {
	keys := make([]string, 0, len(e.Fields))
	for k := range e.Fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, k+": "+e.Fields[k])
	}
	return "invalid habit: " + strings.Join(parts, "; ")
}

func (e *ValidationError) Unwrap() error {
	return ErrInvalidHabit
}

// =============================================================================
// SPEC - the editable part of a habit
// =============================================================================

var validate = validator.New()

// Spec holds the user-editable fields of a habit. ID, SortOrder, Active and
// CreatedAt are managed by the catalog.
type Spec struct {
	Name             string            `json:"name" validate:"required,max=100"`
	Description      string            `json:"description" validate:"max=500"`
	XP               int               `json:"xp" validate:"gte=1,lte=1000"`
	Category         scoring.Category  `json:"category" validate:"oneof=health productivity money relationship"`
	TimeOfDay        scoring.TimeOfDay `json:"timeOfDay" validate:"oneof=morning afternoon evening anytime"`
	AppliesTo        scoring.AppliesTo `json:"appliesTo" validate:"oneof=weekday weekend both"`
	SpecificWeekdays []time.Weekday    `json:"specificWeekdays,omitempty" validate:"omitempty,unique,dive,gte=0,lte=6"`
	BadDayVersion    string            `json:"badDayVersion" validate:"max=200"`
	BadDayXP         int               `json:"badDayXp" validate:"gte=0,ltefield=XP"`
}

// Validate checks the spec against its struct tags.
func (s Spec) Validate() error {
	err := validate.Struct(s)
	if err == nil {
		return nil
	}

	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return fmt.Errorf("%w: %v", ErrInvalidHabit, err)
	}

	fields := make(map[string]string, len(verrs))
	for _, fe := range verrs {
		fields[jsonName(fe.StructField())] = describe(fe)
	}
	return &ValidationError{Fields: fields}
}

// SpecOf extracts the editable fields of a habit.
func SpecOf(h scoring.Habit) Spec {
	return Spec{
		Name:             h.Name,
		Description:      h.Description,
		XP:               h.XP,
		Category:         h.Category,
		TimeOfDay:        h.TimeOfDay,
		AppliesTo:        h.AppliesTo,
		SpecificWeekdays: append([]time.Weekday(nil), h.SpecificWeekdays...),
		BadDayVersion:    h.BadDayVersion,
		BadDayXP:         h.BadDayXP,
	}
}

func (s Spec) apply(h scoring.Habit) scoring.Habit {
	h.Name = strings.TrimSpace(s.Name)
	h.Description = s.Description
	h.XP = s.XP
	h.Category = s.Category
	h.TimeOfDay = s.TimeOfDay
	h.AppliesTo = s.AppliesTo
	h.SpecificWeekdays = append([]time.Weekday(nil), s.SpecificWeekdays...)
	h.BadDayVersion = s.BadDayVersion
	h.BadDayXP = s.BadDayXP
	return h
}

func jsonName(field string) string {
	switch field {
	case "XP":
		return "xp"
	case "BadDayXP":
		return "badDayXp"
	default:
		return strings.ToLower(field[:1]) + field[1:]
	}
}

func describe(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "is required"
	case "oneof":
		return "must be one of: " + fe.Param()
	case "ltefield":
		return "must not exceed xp"
	case "unique":
		return "must not repeat"
	case "gte", "lte", "max":
		return fmt.Sprintf("failed %s=%s", fe.Tag(), fe.Param())
	default:
		return "failed " + fe.Tag()
	}
}

// =============================================================================
// OPERATIONS - pure functions over a catalog slice
// =============================================================================

// Add validates the spec and appends a new active habit with a fresh id and
// the next sort order.
func Add(habits []scoring.Habit, spec Spec, now time.Time) ([]scoring.Habit, scoring.Habit, error) {
	if err := spec.Validate(); err != nil {
		return nil, scoring.Habit{}, err
	}

	maxOrder := 0
	for _, h := range habits {
		maxOrder = max(maxOrder, h.SortOrder)
	}

	created := spec.apply(scoring.Habit{
		ID:        uuid.NewString(),
		SortOrder: maxOrder + 1,
		Active:    true,
		CreatedAt: now,
	})

	out := make([]scoring.Habit, 0, len(habits)+1)
	out = append(out, habits...)
	return append(out, created), created, nil
}

// Update replaces the editable fields of the habit with the given id. The id,
// sort order, active flag and creation time are preserved.
func Update(habits []scoring.Habit, id string, spec Spec) ([]scoring.Habit, scoring.Habit, error) {
	if err := spec.Validate(); err != nil {
		return nil, scoring.Habit{}, err
	}
	return modify(habits, id, spec.apply)
}

// Disable marks the habit inactive. Habits are never removed so historical
// logs keep referencing a known habit.
func Disable(habits []scoring.Habit, id string) ([]scoring.Habit, scoring.Habit, error) {
	return modify(habits, id, func(h scoring.Habit) scoring.Habit {
		h.Active = false
		return h
	})
}

// Enable marks the habit active again.
func Enable(habits []scoring.Habit, id string) ([]scoring.Habit, scoring.Habit, error) {
	return modify(habits, id, func(h scoring.Habit) scoring.Habit {
		h.Active = true
		return h
	})
}

// Reorder assigns SortOrder = position+1 to every listed id. Habits not in
// the list keep their order; unknown ids are ignored.
func Reorder(habits []scoring.Habit, orderedIDs []string) []scoring.Habit {
	pos := make(map[string]int, len(orderedIDs))
	for i, id := range orderedIDs {
		if _, dup := pos[id]; !dup {
			pos[id] = i
		}
	}

	out := make([]scoring.Habit, len(habits))
	for i, h := range habits {
		if p, ok := pos[h.ID]; ok {
			h.SortOrder = p + 1
		}
		out[i] = h
	}
	return out
}

// Sorted returns a copy ordered by SortOrder; ties keep their relative order.
func Sorted(habits []scoring.Habit) []scoring.Habit {
	out := append([]scoring.Habit(nil), habits...)
	sort.SliceStable(out, func(i, j int) bool { return out[i].SortOrder < out[j].SortOrder })
	return out
}

func modify(habits []scoring.Habit, id string, fn func(scoring.Habit) scoring.Habit) ([]scoring.Habit, scoring.Habit, error) {
	out := append([]scoring.Habit(nil), habits...)
	for i := range out {
		if out[i].ID == id {
			out[i] = fn(out[i])
			out[i].ID = id
			return out, out[i], nil
		}
	}
	return nil, scoring.Habit{}, fmt.Errorf("%w: %s", ErrHabitNotFound, id)
}
