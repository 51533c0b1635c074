package hydrometer

import (
	"encoding/binary"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// encodePillV2 is the test-only inverse of decodePillV2, used for round-trip
// checks against synthetic raw field values.
func encodePillV2(pad, valid byte, velocity float32, tempRaw uint16, gravityRaw float32, ax, ay, az int16, batteryRaw uint16) []byte {
	data := []byte{'P', 'T', 0x02, pad, valid}
	data = binary.BigEndian.AppendUint32(data, math.Float32bits(velocity))
	data = binary.BigEndian.AppendUint16(data, tempRaw)
	data = binary.BigEndian.AppendUint32(data, math.Float32bits(gravityRaw))
	data = binary.BigEndian.AppendUint16(data, uint16(ax))
	data = binary.BigEndian.AppendUint16(data, uint16(ay))
	data = binary.BigEndian.AppendUint16(data, uint16(az))
	data = binary.BigEndian.AppendUint16(data, batteryRaw)
	return data
}

func TestDecodePillV2(t *testing.T) {
	data := encodePillV2(0, 1, 2.5, 38500, 1050.0, 160, -160, 0, 230)

	msg, err := DecodePill(data)
	require.NoError(t, err)
	require.Equal(t, PillMeasurement, msg.Kind)
	require.NotNil(t, msg.Sample)

	s := msg.Sample
	assert.True(t, s.GravityVelocityValid)
	assert.InDelta(t, 2.5, s.GravityVelocity, 1e-6)
	assert.InDelta(t, 27.63125, s.TemperatureC, 1e-6) // 38500/128 - 273.15
	assert.InDelta(t, 1.050, s.SpecificGravity, 1e-6)
	assert.InDelta(t, 10.0, s.AccelX, 1e-6)
	assert.InDelta(t, -10.0, s.AccelY, 1e-6)
	assert.InDelta(t, 0.0, s.AccelZ, 1e-6)
	assert.InDelta(t, 0.8984375, s.Battery, 1e-6) // 230/256
}

// A payload captured from a real Pill (via nRF Connect), company ID stripped.
func TestDecodePillV2Captured(t *testing.T) {
	data := []byte{
		'P', 'T', 0x02, 0x00, 0x01,
		0xc0, 0x1c, 0xf3, 0x40, // gravity velocity -2.4523...
		0x90, 0xd6, // temperature raw 37078
		0x44, 0x78, 0x1e, 0xff, // gravity raw 992.48...
		0x3a, 0x2c, 0xfe, 0x36, 0x1d, 0xac, // accel x/y/z
		0x64, 0x00, // battery raw 25600
	}

	msg, err := DecodePill(data)
	require.NoError(t, err)
	require.Equal(t, PillMeasurement, msg.Kind)

	s := msg.Sample
	assert.True(t, s.GravityVelocityValid)
	assert.InDelta(t, -2.4523468, s.GravityVelocity, 1e-6)
	assert.InDelta(t, 16.521875, s.TemperatureC, 1e-6)
	assert.InDelta(t, 0.9924843, s.SpecificGravity, 1e-6)
	assert.InDelta(t, 100.0, s.Battery, 1e-6)
}

func TestDecodePillV2RoundTrip(t *testing.T) {
	cases := []struct {
		name       string
		valid      byte
		velocity   float32
		tempRaw    uint16
		gravityRaw float32
		ax, ay, az int16
		batteryRaw uint16
	}{
		{"fermenting", 1, -10.4, 37126, 1051.27, 591, -24, 830, 25530},
		{"velocity invalid", 0, 0, 35000, 1000.0, 0, 0, 0, 12800},
		{"extremes", 1, 99.9, 65535, 1999.9, 32767, -32768, -1, 65535},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			data := encodePillV2(0, tc.valid, tc.velocity, tc.tempRaw, tc.gravityRaw, tc.ax, tc.ay, tc.az, tc.batteryRaw)
			msg, err := DecodePill(data)
			require.NoError(t, err)
			require.Equal(t, PillMeasurement, msg.Kind)

			s := msg.Sample
			assert.Equal(t, tc.valid != 0, s.GravityVelocityValid)
			assert.InDelta(t, float64(tc.velocity), s.GravityVelocity, 1e-6)
			assert.InDelta(t, float64(tc.tempRaw)/128-273.15, s.TemperatureC, 1e-9)
			assert.InDelta(t, float64(tc.gravityRaw)/1000, s.SpecificGravity, 1e-9)
			assert.InDelta(t, float64(tc.ax)/16, s.AccelX, 1e-9)
			assert.InDelta(t, float64(tc.ay)/16, s.AccelY, 1e-9)
			assert.InDelta(t, float64(tc.az)/16, s.AccelZ, 1e-9)
			assert.InDelta(t, float64(tc.batteryRaw)/256, s.Battery, 1e-9)
		})
	}
}

func TestDecodePillRejects(t *testing.T) {
	t.Run("nonzero pad", func(t *testing.T) {
		data := encodePillV2(0xFF, 1, 0, 35000, 1000.0, 0, 0, 0, 12800)
		_, err := DecodePill(data)
		assert.ErrorIs(t, err, ErrMalformedPayload)
	})

	t.Run("short v2 record", func(t *testing.T) {
		data := encodePillV2(0, 1, 0, 35000, 1000.0, 0, 0, 0, 12800)
		_, err := DecodePill(data[:len(data)-3])
		assert.ErrorIs(t, err, ErrMalformedPayload)
	})

	t.Run("tiny payload", func(t *testing.T) {
		_, err := DecodePill([]byte{'P', 'T'})
		assert.ErrorIs(t, err, ErrMalformedPayload)
	})

	t.Run("unknown sub-type", func(t *testing.T) {
		_, err := DecodePill([]byte{'P', 'T', 0x7F, 0x00})
		assert.ErrorIs(t, err, ErrUnrecognizedSubtype)
	})
}

func TestDecodePillAnnouncements(t *testing.T) {
	t.Run("firmware version", func(t *testing.T) {
		msg, err := DecodePill(append([]byte{0x47}, []byte("20220103_163348_73c9a4f")...))
		require.NoError(t, err)
		assert.Equal(t, PillFirmware, msg.Kind)
		assert.Equal(t, "20220103_163348_73c9a4f", msg.Firmware)
		assert.Nil(t, msg.Sample)
	})

	t.Run("device type string", func(t *testing.T) {
		msg, err := DecodePill(append([]byte{'P', 'T', 0x64}, []byte("Pill Hydrometer")...))
		require.NoError(t, err)
		assert.Equal(t, PillDeviceType, msg.Kind)
		assert.Equal(t, "Pill Hydrometer", msg.DeviceType)
	})

	t.Run("legacy v1", func(t *testing.T) {
		msg, err := DecodePill([]byte{'P', 'T', 0x01, 0xDE, 0xAD})
		require.NoError(t, err)
		assert.Equal(t, PillLegacyV1, msg.Kind)
		assert.Nil(t, msg.Sample)
	})
}
