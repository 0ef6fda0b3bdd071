// Package identity derives stable tokens for physical displays.
//
// A token is a name-based UUID over a display's position and hardware
// attributes. It contains no randomness and no time component, so the same
// display in the same arrangement yields the same token across reboots even
// when the server enumerates displays in a different order.
package identity

import (
	"fmt"

	"github.com/google/uuid"

	"github.com/atelierluma/videowall/internal/display"
)

// namespace is the fixed UUID namespace for display identities. Changing it
// invalidates every persisted calibration, so it never changes.
var namespace = uuid.MustParse("f3f0de1c-9b7e-4b1a-a1d4-52b06c7f10a4")

// Identity is a deterministic token for one physical display.
type Identity string

// ForAttributes computes the identity of one display. Position is a mandatory
// input: two identical monitor models carry the same serial/vendor/model, and
// only their arrangement tells them apart.
func ForAttributes(a display.Attributes) Identity {
	signature := fmt.Sprintf("%d:%d:%d:%04X:%04X", a.X, a.Y, a.Serial, a.Vendor, a.Model)
	return Identity(uuid.NewSHA1(namespace, []byte(signature)).String())
}

// ForSet computes identities for a whole live snapshot. If two displays
// collide on the same identity the resolution fails rather than picking one
// arbitrarily; this cannot happen while position is part of the signature,
// but a silent pick would mis-assign content forever.
func ForSet(attrs []display.Attributes) (map[Identity]display.Attributes, error) {
	set := make(map[Identity]display.Attributes, len(attrs))
	for _, a := range attrs {
		id := ForAttributes(a)
		if prev, ok := set[id]; ok {
			return nil, fmt.Errorf("identity collision between displays %s and %s (token %s)", prev, a, id)
		}
		set[id] = a
	}
	return set, nil
}
