package hydrometer

import (
	"encoding/binary"
	"math"
	"time"
)

// RAPT Pill payload layout after the 2-byte company ID ("RA") has been split
// off. A firmware announcement starts with 0x47; everything else starts with
// the sub-type bytes "PT" followed by a format byte. The V2 measurement record
// follows the format byte, big-endian:
//
//	uint8   pad (always 0x00)
//	uint8   gravity velocity valid flag
//	float32 gravity velocity, points per day
//	uint16  temperature in Kelvin x128
//	float32 specific gravity x1000
//	int16   x/y/z accelerometer, raw x16
//	uint16  battery percentage x256
const (
	pillFirmwareMarker = 0x47
	pillV2RecordLen    = 20
)

var (
	pillSubtypeV1         = [3]byte{'P', 'T', 0x01}
	pillSubtypeV2         = [3]byte{'P', 'T', 0x02}
	pillSubtypeDeviceType = [3]byte{'P', 'T', 0x64}
)

// PillSample is one decoded, uncalibrated RAPT Pill V2 observation.
type PillSample struct {
	TemperatureC         float64
	SpecificGravity      float64
	GravityVelocity      float64 // points per day, meaningful only when valid
	GravityVelocityValid bool
	AccelX               float64
	AccelY               float64
	AccelZ               float64
	Battery              float64
	RSSI                 int
	Address              string
	SeenAt               time.Time
}

// PillMessageKind classifies a RAPT advertisement.
type PillMessageKind int

const (
	PillMeasurement PillMessageKind = iota
	PillFirmware
	PillDeviceType
	PillLegacyV1
)

// PillMessage is the decoded form of one RAPT advertisement. Sample is set
// only for PillMeasurement; Firmware and DeviceType carry the announced text
// for their respective kinds.
type PillMessage struct {
	Kind       PillMessageKind
	Sample     *PillSample
	Firmware   string
	DeviceType string
}

// DecodePill classifies and decodes a RAPT manufacturer-data payload.
// Only V2 measurements produce a sample; firmware, device-type and legacy V1
// announcements are returned for the caller to log. RSSI, Address and SeenAt
// of the sample are left for the caller to fill in.
func DecodePill(data []byte) (PillMessage, error) {
	if len(data) >= 1 && data[0] == pillFirmwareMarker {
		return PillMessage{Kind: PillFirmware, Firmware: string(data[1:])}, nil
	}
	if len(data) < 3 {
		return PillMessage{}, ErrMalformedPayload
	}

	var subtype [3]byte
	copy(subtype[:], data[:3])
	switch subtype {
	case pillSubtypeV1:
		return PillMessage{Kind: PillLegacyV1}, nil
	case pillSubtypeDeviceType:
		return PillMessage{Kind: PillDeviceType, DeviceType: string(data[3:])}, nil
	case pillSubtypeV2:
		s, err := decodePillV2(data[3:])
		if err != nil {
			return PillMessage{}, err
		}
		return PillMessage{Kind: PillMeasurement, Sample: s}, nil
	default:
		return PillMessage{}, ErrUnrecognizedSubtype
	}
}

func decodePillV2(rec []byte) (*PillSample, error) {
	if len(rec) != pillV2RecordLen {
		return nil, ErrMalformedPayload
	}
	if rec[0] != 0 {
		return nil, ErrMalformedPayload
	}

	valid := rec[1] != 0
	velocity := math.Float32frombits(binary.BigEndian.Uint32(rec[2:6]))
	tempRaw := binary.BigEndian.Uint16(rec[6:8])
	gravityRaw := math.Float32frombits(binary.BigEndian.Uint32(rec[8:12]))
	ax := int16(binary.BigEndian.Uint16(rec[12:14]))
	ay := int16(binary.BigEndian.Uint16(rec[14:16]))
	az := int16(binary.BigEndian.Uint16(rec[16:18]))
	batteryRaw := binary.BigEndian.Uint16(rec[18:20])

	return &PillSample{
		TemperatureC:         float64(tempRaw)/128 - 273.15,
		SpecificGravity:      float64(gravityRaw) / 1000,
		GravityVelocity:      float64(velocity),
		GravityVelocityValid: valid,
		AccelX:               float64(ax) / 16,
		AccelY:               float64(ay) / 16,
		AccelZ:               float64(az) / 16,
		Battery:              float64(batteryRaw) / 256,
	}, nil
}
