package scoring

import (
	"errors"
	"fmt"

	"github.com/keystone/habit-engine/calendar"
)

// =============================================================================
// SENTINEL ERRORS - Use with errors.Is()
// =============================================================================

var (
	// ErrInvalidDateFormat is returned when a date or a log-map key is not a
	// YYYY-MM-DD day. It is the calendar package's sentinel, re-exported.
	ErrInvalidDateFormat = calendar.ErrInvalidDateFormat

	// ErrInvalidThresholds is returned when thresholds violate
	// 0 < MVD < Strong < 100.
	ErrInvalidThresholds = errors.New("invalid classification thresholds")
)

// ThresholdError provides details about rejected thresholds.
type ThresholdError struct {
	MVD    int
	Strong int
}

func (e *ThresholdError) Error() string {
	return fmt.Sprintf("invalid classification thresholds: need 0 < mvd (%d) < strong (%d) < 100", e.MVD, e.Strong)
}

func (e *ThresholdError) Unwrap() error {
	return ErrInvalidThresholds
}

// IsInvalidInput returns true if the error is due to malformed caller input.
func IsInvalidInput(err error) bool {
	return errors.Is(err, ErrInvalidDateFormat) || errors.Is(err, ErrInvalidThresholds)
}
