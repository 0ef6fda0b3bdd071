package display

import "encoding/binary"

// HardwareID holds the identifying fields of an EDID base block.
type HardwareID struct {
	Serial uint32
	Vendor uint16
	Model  uint16
}

var edidHeader = []byte{0x00, 0xFF, 0xFF, 0xFF, 0xFF, 0xFF, 0xFF, 0x00}

// ParseEDID extracts the manufacturer id, product code and serial number
// from a raw EDID blob. The manufacturer id is stored big-endian at bytes
// 8-9, the product code little-endian at 10-11 and the serial little-endian
// at 12-15. Returns false if the blob is too short or the fixed header does
// not match.
func ParseEDID(data []byte) (HardwareID, bool) {
	if len(data) < 16 {
		return HardwareID{}, false
	}
	for i, b := range edidHeader {
		if data[i] != b {
			return HardwareID{}, false
		}
	}
	return HardwareID{
		Vendor: binary.BigEndian.Uint16(data[8:10]),
		Model:  binary.LittleEndian.Uint16(data[10:12]),
		Serial: binary.LittleEndian.Uint32(data[12:16]),
	}, true
}
