package identity

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/atelierluma/videowall/internal/display"
)

func attrs(x, y int) display.Attributes {
	return display.Attributes{
		Output: "HDMI-1",
		X:      x,
		Y:      y,
		Width:  1920,
		Height: 1080,
		Serial: 12345,
		Vendor: 0x22F0,
		Model:  0x286C,
	}
}

func TestForAttributes_Deterministic(t *testing.T) {
	a := attrs(0, 0)
	assert.Equal(t, ForAttributes(a), ForAttributes(a))
}

func TestForAttributes_PositionChangesIdentity(t *testing.T) {
	// Same hardware at a different position must be a different display.
	left := attrs(0, 0)
	right := attrs(1920, 0)
	assert.NotEqual(t, ForAttributes(left), ForAttributes(right))
}

func TestForAttributes_IgnoresVolatileFields(t *testing.T) {
	a := attrs(0, 0)
	b := a
	b.Output = "Output7" // connector naming varies across drivers
	assert.Equal(t, ForAttributes(a), ForAttributes(b))
}

func TestForSet_AllDistinct(t *testing.T) {
	set, err := ForSet([]display.Attributes{attrs(0, 0), attrs(1920, 0), attrs(3840, 0)})
	require.NoError(t, err)
	assert.Len(t, set, 3)
}

func TestForSet_CollisionFailsLoudly(t *testing.T) {
	// Two snapshots with byte-identical attributes collide.
	_, err := ForSet([]display.Attributes{attrs(0, 0), attrs(0, 0)})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "identity collision")
}
