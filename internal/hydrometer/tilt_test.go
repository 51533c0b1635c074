package hydrometer

import (
	"encoding/hex"
	"errors"
	"math"
	"testing"
)

// buildTilt assembles an Apple manufacturer payload (company ID stripped):
// iBeacon type/len, 16-byte UUID, major, minor, proximity.
func buildTilt(t *testing.T, uuid string, major, minor uint16, prox byte) []byte {
	t.Helper()
	u, err := hex.DecodeString(uuid)
	if err != nil || len(u) != 16 {
		t.Fatalf("bad uuid fixture %q", uuid)
	}
	data := []byte{iBeaconType, iBeaconLength}
	data = append(data, u...)
	data = append(data, byte(major>>8), byte(major), byte(minor>>8), byte(minor), prox)
	return data
}

const blueUUID = "a495bb60c5b14b44b5121370f02d74de"

func TestDecodeTilt(t *testing.T) {
	t.Run("decodes a known color", func(t *testing.T) {
		data := buildTilt(t, blueUUID, 68, 1050, 0xC5)
		s, err := DecodeTilt(data)
		if err != nil {
			t.Fatalf("DecodeTilt: %v", err)
		}
		if s == nil {
			t.Fatal("DecodeTilt returned no sample")
		}
		if s.Color != Blue {
			t.Errorf("Color = %s; want Blue", s.Color)
		}
		if s.TemperatureF != 68 {
			t.Errorf("TemperatureF = %v; want 68", s.TemperatureF)
		}
		if math.Abs(s.SpecificGravity-1.050) > 1e-9 {
			t.Errorf("SpecificGravity = %v; want 1.050", s.SpecificGravity)
		}
	})

	t.Run("every table entry resolves", func(t *testing.T) {
		uuids := map[string]Color{
			"a495bb10c5b14b44b5121370f02d74de": Red,
			"a495bb20c5b14b44b5121370f02d74de": Green,
			"a495bb30c5b14b44b5121370f02d74de": Black,
			"a495bb40c5b14b44b5121370f02d74de": Purple,
			"a495bb50c5b14b44b5121370f02d74de": Orange,
			"a495bb60c5b14b44b5121370f02d74de": Blue,
			"a495bb70c5b14b44b5121370f02d74de": Yellow,
			"a495bb80c5b14b44b5121370f02d74de": Pink,
		}
		for uuid, want := range uuids {
			s, err := DecodeTilt(buildTilt(t, uuid, 70, 1000, 0))
			if err != nil || s == nil {
				t.Fatalf("uuid %s: sample=%v err=%v", uuid, s, err)
			}
			if s.Color != want {
				t.Errorf("uuid %s: Color = %s; want %s", uuid, s.Color, want)
			}
		}
	})

	t.Run("non-ibeacon apple frame is not of interest", func(t *testing.T) {
		s, err := DecodeTilt([]byte{0x10, 0x05, 0x0b, 0x1c})
		if err != nil {
			t.Fatalf("DecodeTilt: %v", err)
		}
		if s != nil {
			t.Errorf("got sample %+v; want none", s)
		}
	})

	t.Run("unknown uuid is not a tilt", func(t *testing.T) {
		data := buildTilt(t, "0123456789abcdef0123456789abcdef", 68, 1050, 0)
		s, err := DecodeTilt(data)
		if !errors.Is(err, ErrUnknownColor) {
			t.Fatalf("err = %v; want ErrUnknownColor", err)
		}
		if s != nil {
			t.Errorf("got sample %+v; want none", s)
		}
	})

	t.Run("truncated payloads are malformed", func(t *testing.T) {
		if _, err := DecodeTilt([]byte{0x02}); !errors.Is(err, ErrMalformedPayload) {
			t.Errorf("1 byte: err = %v; want ErrMalformedPayload", err)
		}
		// Known UUID but major/minor/proximity cut off.
		data := buildTilt(t, blueUUID, 68, 1050, 0xC5)[:20]
		if _, err := DecodeTilt(data); !errors.Is(err, ErrMalformedPayload) {
			t.Errorf("truncated: err = %v; want ErrMalformedPayload", err)
		}
	})

	t.Run("short ibeacon without full uuid is not a tilt", func(t *testing.T) {
		s, err := DecodeTilt([]byte{iBeaconType, iBeaconLength, 0xa4, 0x95})
		if !errors.Is(err, ErrUnknownColor) {
			t.Fatalf("err = %v; want ErrUnknownColor", err)
		}
		if s != nil {
			t.Errorf("got sample %+v; want none", s)
		}
	})
}
