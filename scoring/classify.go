package scoring

// =============================================================================
// CLASSIFICATION THRESHOLDS
// =============================================================================

// Default threshold values (percent of possible XP).
const (
	DefaultMVDThreshold    = 40
	DefaultStrongThreshold = 80
)

// Thresholds configures day classification. MVD is also the streak gate:
// a day is a streak day when its completion percent reaches MVD.
type Thresholds struct {
	MVD    int `json:"mvd"`
	Strong int `json:"strong"`
}

// DefaultThresholds returns MVD 40 / Strong 80.
func DefaultThresholds() Thresholds {
	return Thresholds{MVD: DefaultMVDThreshold, Strong: DefaultStrongThreshold}
}

// Validate checks 0 < MVD < Strong < 100.
func (t Thresholds) Validate() error {
	if t.MVD <= 0 || t.MVD >= t.Strong || t.Strong >= 100 {
		return &ThresholdError{MVD: t.MVD, Strong: t.Strong}
	}
	return nil
}

// Classify maps a completion percent to a day-quality tag.
func (t Thresholds) Classify(percent int) Classification {
	switch {
	case percent >= 100:
		return ClassPerfect
	case percent >= t.Strong:
		return ClassStrong
	case percent >= t.MVD:
		return ClassMVD
	case percent > 0:
		return ClassWeak
	default:
		return ClassZero
	}
}

// IsStreakDay reports whether the percent clears the MVD threshold.
func (t Thresholds) IsStreakDay(percent int) bool {
	return percent >= t.MVD
}

// =============================================================================
// CLASSIFICATION
// =============================================================================

// Classification is a day-quality tag.
type Classification string

const (
	ClassPerfect Classification = "perfect"
	ClassStrong  Classification = "strong"
	ClassMVD     Classification = "mvd"
	ClassWeak    Classification = "weak"
	ClassZero    Classification = "zero"
)

// Rank orders classifications from worst (0) to best (4). Unknown tags rank -1.
func (c Classification) Rank() int {
	switch c {
	case ClassZero:
		return 0
	case ClassWeak:
		return 1
	case ClassMVD:
		return 2
	case ClassStrong:
		return 3
	case ClassPerfect:
		return 4
	default:
		return -1
	}
}

// Emoji returns the display glyph for the tag.
func (c Classification) Emoji() string {
	switch c {
	case ClassPerfect:
		return "⭐" // star
	case ClassStrong:
		return "✅" // check mark
	case ClassMVD:
		return "\U0001F7E1" // yellow circle
	case ClassWeak:
		return "\U0001F7E0" // orange circle
	case ClassZero:
		return "❌" // cross
	default:
		return "⬜" // white square
	}
}

// Label returns a short human-readable name.
func (c Classification) Label() string {
	switch c {
	case ClassPerfect:
		return "Perfect"
	case ClassStrong:
		return "Strong"
	case ClassMVD:
		return "Minimum Viable Day"
	case ClassWeak:
		return "Weak"
	case ClassZero:
		return "Zero"
	default:
		return "No data"
	}
}
