// Package calibration persists and resolves the physical-position to
// display-identity mapping that keeps content on the correct monitor across
// reboots.
package calibration

import (
	"fmt"
	"strings"

	"github.com/atelierluma/videowall/internal/display"
	"github.com/atelierluma/videowall/internal/identity"
)

// SchemaVersion is the calibration file schema understood by this build.
// Files carrying any other version are rejected rather than guessed at.
const SchemaVersion = 1

// Entry associates one position label with the identity of the display that
// was calibrated for it. The attributes captured at calibration time are
// stored alongside so mismatch reports can show what the operator calibrated
// against.
type Entry struct {
	Label      string             `json:"label"`
	Identity   identity.Identity  `json:"identity"`
	Attributes display.Attributes `json:"attributes"`
}

// Mapping is the persisted calibration: position label -> display identity.
// Labels are unique and identities are unique; one display serves one label.
type Mapping struct {
	SchemaVersion int     `json:"schema_version"`
	Entries       []Entry `json:"entries"`
}

// Labels returns the mapping's position labels in entry order.
func (m *Mapping) Labels() []string {
	labels := make([]string, len(m.Entries))
	for i, e := range m.Entries {
		labels[i] = e.Label
	}
	return labels
}

func (m *Mapping) validate() error {
	if m.SchemaVersion != SchemaVersion {
		return fmt.Errorf("unsupported schema_version %d (want %d)", m.SchemaVersion, SchemaVersion)
	}
	if len(m.Entries) == 0 {
		return fmt.Errorf("mapping has no entries")
	}

	labels := make(map[string]struct{}, len(m.Entries))
	identities := make(map[identity.Identity]struct{}, len(m.Entries))
	for _, e := range m.Entries {
		if strings.TrimSpace(e.Label) == "" {
			return fmt.Errorf("mapping contains an empty label")
		}
		if e.Identity == "" {
			return fmt.Errorf("label %q has no identity", e.Label)
		}
		if _, ok := labels[e.Label]; ok {
			return fmt.Errorf("duplicate label %q", e.Label)
		}
		if _, ok := identities[e.Identity]; ok {
			return fmt.Errorf("duplicate identity %s (label %q)", e.Identity, e.Label)
		}
		labels[e.Label] = struct{}{}
		identities[e.Identity] = struct{}{}
	}
	return nil
}
