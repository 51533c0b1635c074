package hydrometer

import "errors"

var (
	// ErrMalformedPayload means the fixed-width layout could not be unpacked
	// from the manufacturer data (wrong length, or a reserved byte that must
	// be zero was not).
	ErrMalformedPayload = errors.New("malformed manufacturer payload")

	// ErrUnrecognizedSubtype means the payload carried a RAPT company ID but
	// a message sub-type we do not know about.
	ErrUnrecognizedSubtype = errors.New("unrecognized RAPT message sub-type")

	// ErrUnknownColor means an iBeacon UUID that is not in the Tilt table.
	// Routine: most iBeacons in the air are not Tilts.
	ErrUnknownColor = errors.New("uuid not in tilt color table")
)
