/*
Package progression maps lifetime XP onto the level ladder.

PURPOSE:
  The scoring engine reports total XP (scoring.TotalXP). This package turns
  that number into a titled level and the progress toward the next one.

LADDER:
  Level  XP      Title
  1      0       Operator
  2      500     Builder
  3      1500    Architect
  4      3500    Commander
  5      7000    Machine
  6      12000   Calm Machine
  7      20000   Inevitable
  8      35000   Legendary
  9      55000   Immortal
  10     80000   Generational

  Level 10 is terminal: Progress reports Maxed with 100 percent.
*/
package progression

import (
	"github.com/shopspring/decimal"
)

// Level is one rung of the ladder.
type Level struct {
	Number int    `json:"level"`
	XP     int    `json:"xp"`
	Title  string `json:"title"`
}

var ladder = []Level{
	{Number: 1, XP: 0, Title: "Operator"},
	{Number: 2, XP: 500, Title: "Builder"},
	{Number: 3, XP: 1500, Title: "Architect"},
	{Number: 4, XP: 3500, Title: "Commander"},
	{Number: 5, XP: 7000, Title: "Machine"},
	{Number: 6, XP: 12000, Title: "Calm Machine"},
	{Number: 7, XP: 20000, Title: "Inevitable"},
	{Number: 8, XP: 35000, Title: "Legendary"},
	{Number: 9, XP: 55000, Title: "Immortal"},
	{Number: 10, XP: 80000, Title: "Generational"},
}

// Levels returns a copy of the full ladder, lowest first.
func Levels() []Level {
	return append([]Level(nil), ladder...)
}

// LevelForXP returns the highest level whose threshold is <= total.
// Negative totals map to level 1.
func LevelForXP(total int) Level {
	for i := len(ladder) - 1; i >= 0; i-- {
		if total >= ladder[i].XP {
			return ladder[i]
		}
	}
	return ladder[0]
}

// Progress describes where a total sits between two levels.
type Progress struct {
	TotalXP     int    `json:"totalXp"`
	Level       Level  `json:"level"`
	Next        *Level `json:"nextLevel"`
	XPIntoLevel int    `json:"xpIntoLevel"`
	XPNeeded    int    `json:"xpNeeded"`
	Percent     int    `json:"percent"`
	Maxed       bool   `json:"maxed"`
}

// ProgressFor computes progress toward the next level. Percent is rounded
// half up.
func ProgressFor(total int) Progress {
	current := LevelForXP(total)
	p := Progress{TotalXP: total, Level: current}

	if current.Number >= len(ladder) {
		p.Maxed = true
		p.XPIntoLevel = total
		p.XPNeeded = total
		p.Percent = 100
		return p
	}

	next := ladder[current.Number] // ladder is 1-indexed by Number
	p.Next = &next
	p.XPIntoLevel = max(total-current.XP, 0)
	p.XPNeeded = next.XP - current.XP
	p.Percent = int(decimal.NewFromInt(int64(p.XPIntoLevel)).
		Mul(decimal.NewFromInt(100)).
		Div(decimal.NewFromInt(int64(p.XPNeeded))).
		Round(0).IntPart())
	return p
}

// LevelUp reports the level reached when total XP moves from before to
// after, if that crosses at least one threshold upward.
func LevelUp(before, after int) (Level, bool) {
	from, to := LevelForXP(before), LevelForXP(after)
	if to.Number > from.Number {
		return to, true
	}
	return Level{}, false
}

// =============================================================================
// STREAK MILESTONES
// =============================================================================

// StreakMilestones are the current-streak lengths worth announcing.
var StreakMilestones = []int{7, 14, 30, 60}

// CrossedMilestone returns the highest milestone reached when the current
// streak moves from prev to current, if any was crossed upward.
func CrossedMilestone(prev, current int) (int, bool) {
	crossed, ok := 0, false
	for _, m := range StreakMilestones {
		if prev < m && current >= m {
			crossed, ok = m, true
		}
	}
	return crossed, ok
}
