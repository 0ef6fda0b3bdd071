package display

import (
	"fmt"
	"sort"

	"github.com/BurntSushi/xgb/randr"
	"github.com/BurntSushi/xgb/xproto"
)

// Attributes is an immutable snapshot of one connected display: its position
// in the global screen coordinate space plus the hardware identifiers carried
// by the monitor's EDID block. Position is part of the snapshot because two
// identical monitor models report the same serial/vendor/model.
type Attributes struct {
	Output string `json:"output"` // connector name, e.g. "HDMI-1"
	X      int    `json:"x"`
	Y      int    `json:"y"`
	Width  int    `json:"width"`
	Height int    `json:"height"`
	Serial uint32 `json:"serial"`
	Vendor uint16 `json:"vendor"`
	Model  uint16 `json:"model"`
}

func (a Attributes) String() string {
	return fmt.Sprintf("%s (%d,%d) %dx%d serial=%d vendor=%04X model=%04X",
		a.Output, a.X, a.Y, a.Width, a.Height, a.Serial, a.Vendor, a.Model)
}

// Snapshot retrieves attributes for every active display using XRandR.
// Results are ordered by (X, Y) so the enumeration order is stable regardless
// of the order the server reports CRTCs in.
func (c *Connection) Snapshot() ([]Attributes, error) {
	if err := randr.Init(c.XUtil.Conn()); err != nil {
		return nil, fmt.Errorf("randr init failed: %w", err)
	}

	resources, err := randr.GetScreenResources(c.XUtil.Conn(), c.Root).Reply()
	if err != nil {
		return nil, fmt.Errorf("failed to get screen resources: %w", err)
	}

	edidAtom, err := internEDIDAtom(c)
	if err != nil {
		return nil, err
	}

	var attrs []Attributes

	for _, crtc := range resources.Crtcs {
		crtcInfo, err := randr.GetCrtcInfo(c.XUtil.Conn(), crtc, resources.ConfigTimestamp).Reply()
		if err != nil {
			continue
		}

		// Skip disabled CRTCs
		if crtcInfo.Width == 0 || crtcInfo.Height == 0 || len(crtcInfo.Outputs) == 0 {
			continue
		}

		output := crtcInfo.Outputs[0]

		a := Attributes{
			Output: fmt.Sprintf("Output%d", output),
			X:      int(crtcInfo.X),
			Y:      int(crtcInfo.Y),
			Width:  int(crtcInfo.Width),
			Height: int(crtcInfo.Height),
		}

		if outputInfo, err := randr.GetOutputInfo(c.XUtil.Conn(), output, resources.ConfigTimestamp).Reply(); err == nil {
			a.Output = string(outputInfo.Name)
		}

		// A missing or unreadable EDID leaves the hardware fields zero;
		// position still discriminates between displays.
		if edid, err := readEDID(c, output, edidAtom); err == nil {
			if id, ok := ParseEDID(edid); ok {
				a.Serial = id.Serial
				a.Vendor = id.Vendor
				a.Model = id.Model
			}
		}

		attrs = append(attrs, a)
	}

	sort.Slice(attrs, func(i, j int) bool {
		if attrs[i].X != attrs[j].X {
			return attrs[i].X < attrs[j].X
		}
		return attrs[i].Y < attrs[j].Y
	})

	return attrs, nil
}

func internEDIDAtom(c *Connection) (xproto.Atom, error) {
	reply, err := xproto.InternAtom(c.XUtil.Conn(), true, uint16(len("EDID")), "EDID").Reply()
	if err != nil {
		return 0, fmt.Errorf("failed to intern EDID atom: %w", err)
	}
	return reply.Atom, nil
}

func readEDID(c *Connection, output randr.Output, atom xproto.Atom) ([]byte, error) {
	if atom == xproto.AtomNone {
		return nil, fmt.Errorf("EDID atom not present")
	}
	prop, err := randr.GetOutputProperty(
		c.XUtil.Conn(), output, atom, xproto.AtomAny, 0, 64, false, false,
	).Reply()
	if err != nil {
		return nil, fmt.Errorf("failed to read EDID property: %w", err)
	}
	return prop.Data, nil
}
