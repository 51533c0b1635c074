// Package calibration holds the per-device additive corrections applied to
// averaged readings before publish. Offsets come from the environment at
// startup and never change afterward.
package calibration

import (
	"errors"
	"fmt"

	"github.com/sgoadhouse/ferm2mqtt/internal/hydrometer"
)

// ErrUnknownKey means an offset was supplied for an identity that is not
// registered. Offsets are keyed by the fixed color tables, so this is a
// defensive check that should not fire in practice.
var ErrUnknownKey = errors.New("calibration offset for unregistered identity")

// Offset is an additive correction pair. Temp is in the family's native
// published unit: °F for Tilts, °C for RAPT Pills.
type Offset struct {
	Temp float64 `json:"temp"`
	SG   float64 `json:"sg"`
}

// Store is the read-only per-identity offset lookup.
type Store struct {
	tilt map[hydrometer.Color]Offset
	pill map[hydrometer.Color]Offset
}

// NewStore validates the supplied offsets against the known identities and
// returns the store. A missing entry for an identity is legitimate (that
// device publishes uncalibrated values); an entry for an unknown identity is
// ErrUnknownKey.
func NewStore(tilt, pill map[hydrometer.Color]Offset) (*Store, error) {
	if err := checkKeys(tilt, hydrometer.TiltColors()); err != nil {
		return nil, fmt.Errorf("tilt: %w", err)
	}
	if err := checkKeys(pill, hydrometer.PillColors()); err != nil {
		return nil, fmt.Errorf("rapt pill: %w", err)
	}

	s := &Store{
		tilt: make(map[hydrometer.Color]Offset, len(tilt)),
		pill: make(map[hydrometer.Color]Offset, len(pill)),
	}
	for c, o := range tilt {
		s.tilt[c] = o
	}
	for c, o := range pill {
		s.pill[c] = o
	}
	return s, nil
}

// Tilt returns the offset for a Tilt color, and whether one is configured.
func (s *Store) Tilt(c hydrometer.Color) (Offset, bool) {
	o, ok := s.tilt[c]
	return o, ok
}

// Pill returns the offset for a RAPT Pill color, and whether one is configured.
func (s *Store) Pill(c hydrometer.Color) (Offset, bool) {
	o, ok := s.pill[c]
	return o, ok
}

func checkKeys(offsets map[hydrometer.Color]Offset, known []hydrometer.Color) error {
	for c := range offsets {
		found := false
		for _, k := range known {
			if c == k {
				found = true
				break
			}
		}
		if !found {
			return fmt.Errorf("%w: %s", ErrUnknownKey, c)
		}
	}
	return nil
}
