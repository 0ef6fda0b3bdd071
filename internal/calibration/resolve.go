package calibration

import (
	"fmt"
	"sort"

	"github.com/atelierluma/videowall/internal/display"
	"github.com/atelierluma/videowall/internal/identity"
)

// Assignment binds one live display (by its screen index in snapshot order)
// to the position label it was calibrated for.
type Assignment struct {
	ScreenIndex int
	Label       string
	Attributes  display.Attributes
}

// Resolve matches every live display against the mapping by identity and
// returns the screen-index assignment, ordered by screen index. Screen
// indices are the 0-based positions of the displays in the snapshot.
//
// There is no best-effort mode: a count mismatch, a live display with no
// mapped identity, or a mapped label with no live display all fail with a
// *MismatchError carrying both sides of the comparison.
func Resolve(m *Mapping, live []display.Attributes) ([]Assignment, error) {
	observed := make([]string, len(live))
	liveIDs := make([]identity.Identity, len(live))
	for i, a := range live {
		id := identity.ForAttributes(a)
		liveIDs[i] = id
		observed[i] = fmt.Sprintf("%s  [%s]", id, a)
	}

	if _, err := identity.ForSet(live); err != nil {
		return nil, &MismatchError{
			Reason:   err.Error(),
			Expected: m.Entries,
			Observed: observed,
		}
	}

	if len(live) != len(m.Entries) {
		return nil, &MismatchError{
			Reason:   fmt.Sprintf("calibration has %d displays, found %d connected", len(m.Entries), len(live)),
			Expected: m.Entries,
			Observed: observed,
		}
	}

	byIdentity := make(map[identity.Identity]Entry, len(m.Entries))
	for _, e := range m.Entries {
		byIdentity[e.Identity] = e
	}

	matched := make(map[string]struct{}, len(m.Entries))
	assignments := make([]Assignment, 0, len(live))
	for i, a := range live {
		entry, ok := byIdentity[liveIDs[i]]
		if !ok {
			return nil, &MismatchError{
				Reason:   fmt.Sprintf("connected display %s has no calibration entry", a),
				Expected: m.Entries,
				Observed: observed,
			}
		}
		matched[entry.Label] = struct{}{}
		assignments = append(assignments, Assignment{
			ScreenIndex: i,
			Label:       entry.Label,
			Attributes:  a,
		})
	}

	for _, e := range m.Entries {
		if _, ok := matched[e.Label]; !ok {
			return nil, &MismatchError{
				Reason:   fmt.Sprintf("calibrated position %q has no connected display", e.Label),
				Expected: m.Entries,
				Observed: observed,
			}
		}
	}

	sort.Slice(assignments, func(i, j int) bool {
		return assignments[i].ScreenIndex < assignments[j].ScreenIndex
	})
	return assignments, nil
}
