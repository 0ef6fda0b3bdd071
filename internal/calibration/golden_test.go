package calibration

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/sebdah/goldie/v2"
	"github.com/stretchr/testify/require"

	"github.com/atelierluma/videowall/internal/display"
)

// TestFileFormat pins the on-disk calibration format. The file is consumed
// across versions of this binary, so an accidental field rename is a
// breaking change; regenerate with -update only for a deliberate schema
// bump.
func TestFileFormat(t *testing.T) {
	m := &Mapping{
		SchemaVersion: SchemaVersion,
		Entries: []Entry{
			{
				Label:    "LEFT",
				Identity: "11111111-1111-5111-8111-111111111111",
				Attributes: display.Attributes{
					Output: "DP-1",
					X:      0,
					Y:      0,
					Width:  1920,
					Height: 1080,
					Serial: 1001,
					Vendor: 0x22F0,
					Model:  0x286C,
				},
			},
			{
				Label:    "CENTER",
				Identity: "22222222-2222-5222-8222-222222222222",
				Attributes: display.Attributes{
					Output: "HDMI-1",
					X:      1920,
					Y:      0,
					Width:  1920,
					Height: 1080,
					Serial: 1002,
					Vendor: 0x22F0,
					Model:  0x286C,
				},
			},
		},
	}

	path := filepath.Join(t.TempDir(), "calibration.json")
	require.NoError(t, NewStore(path).Save(m))

	data, err := os.ReadFile(path)
	require.NoError(t, err)

	g := goldie.New(t)
	g.Assert(t, "calibration", data)
}
