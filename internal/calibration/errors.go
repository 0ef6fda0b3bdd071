package calibration

import (
	"errors"
	"fmt"
	"strings"
)

// ErrNotFound is returned by Load when no calibration file exists. The
// operator has to calibrate before playback can start.
var ErrNotFound = errors.New("calibration file not found (run \"videowall calibrate\")")

// CorruptError indicates the persisted mapping is structurally invalid.
// It is fatal: the system never falls back to an unverified default.
type CorruptError struct {
	Path string
	Err  error
}

func (e *CorruptError) Error() string {
	return fmt.Sprintf("calibration file %s is corrupt: %v (recalibrate to repair)", e.Path, e.Err)
}

func (e *CorruptError) Unwrap() error { return e.Err }

// MismatchError indicates the live display set does not match the persisted
// calibration. It carries both sides so the operator can see exactly what
// changed. Fatal: no partial assignment is ever attempted.
type MismatchError struct {
	Reason   string
	Expected []Entry  // what the calibration was created against
	Observed []string // live identity + attributes, one per display
}

func (e *MismatchError) Error() string {
	var sb strings.Builder
	sb.WriteString("display set does not match calibration: ")
	sb.WriteString(e.Reason)
	sb.WriteString("\n  expected:")
	for _, entry := range e.Expected {
		fmt.Fprintf(&sb, "\n    %-8s %s  [%s]", entry.Label, entry.Identity, entry.Attributes)
	}
	sb.WriteString("\n  observed:")
	for _, obs := range e.Observed {
		fmt.Fprintf(&sb, "\n    %s", obs)
	}
	sb.WriteString("\nrecalibrate with \"videowall calibrate\"")
	return sb.String()
}
