package hydrometer

import (
	"encoding/binary"
	"encoding/hex"
	"time"
)

// Tilt iBeacon layout after the 2-byte Apple company ID has been split off
// (big-endian): type 0x02, length 0x15, 16-byte UUID, uint16 major
// (temperature °F), uint16 minor (specific gravity x1000), 1 byte proximity.
const (
	iBeaconType    = 0x02
	iBeaconLength  = 0x15
	tiltPayloadLen = 23
)

// TiltSample is one decoded, uncalibrated Tilt observation.
type TiltSample struct {
	Color           Color
	TemperatureF    float64
	SpecificGravity float64
	RSSI            int
	Address         string
	SeenAt          time.Time
}

// DecodeTilt parses an Apple manufacturer-data payload that may be a Tilt
// iBeacon. Returns (nil, nil) when the frame is not an iBeacon at all (not
// type 0x02/len 0x15), ErrUnknownColor when the UUID is not a Tilt, and
// ErrMalformedPayload when the fixed-width fields cannot be unpacked.
// RSSI, Address and SeenAt are left for the caller to fill in.
func DecodeTilt(data []byte) (*TiltSample, error) {
	if len(data) < 2 {
		return nil, ErrMalformedPayload
	}
	if data[0] != iBeaconType || data[1] != iBeaconLength {
		// Some other Apple manufacturer frame. Not of interest.
		return nil, nil
	}
	if len(data) < 18 {
		// Too short to carry a full UUID, so it cannot match the table.
		return nil, ErrUnknownColor
	}
	color, ok := tiltColorByUUID(hex.EncodeToString(data[2:18]))
	if !ok {
		return nil, ErrUnknownColor
	}
	if len(data) != tiltPayloadLen {
		return nil, ErrMalformedPayload
	}
	major := binary.BigEndian.Uint16(data[18:20])
	minor := binary.BigEndian.Uint16(data[20:22])
	// data[22] is the proximity byte, unused.

	return &TiltSample{
		Color:           color,
		TemperatureF:    float64(major),
		SpecificGravity: float64(minor) / 1000,
	}, nil
}
