// Package aggregate keeps a running accumulation of decoded samples per
// hydrometer identity. The BLE callback goroutine adds samples with
// Accumulate; the publish ticker takes the window average with Drain. One
// mutex guards each table, which is plenty for at most eight identities.
package aggregate

import (
	"errors"
	"sync"
	"time"

	"github.com/sgoadhouse/ferm2mqtt/internal/hydrometer"
)

// ErrUnknownIdentity means a sample arrived for a color that was never
// registered. Tables never grow after construction.
var ErrUnknownIdentity = errors.New("identity not registered")

// floorDiv is integer division rounding toward negative infinity. Averaged
// RSSI is negative, where Go's truncating division would round toward zero.
func floorDiv(a, n int) int {
	q := a / n
	if a%n != 0 && (a < 0) != (n < 0) {
		q--
	}
	return q
}

// TiltAverage is the result of draining one Tilt accumulation window.
type TiltAverage struct {
	Color           hydrometer.Color
	TemperatureF    float64
	SpecificGravity float64
	RSSI            int
	Address         string
	LastSeen        time.Time
	Samples         int
}

type tiltAccumulator struct {
	samples    int
	rssiSum    int
	tempFSum   float64
	gravitySum float64
	address    string
	lastSeen   time.Time
}

// TiltTable holds one accumulator per registered Tilt color.
type TiltTable struct {
	mu    sync.Mutex
	accs  map[hydrometer.Color]*tiltAccumulator
	order []hydrometer.Color
}

// NewTiltTable registers an empty accumulator for each given color.
func NewTiltTable(colors []hydrometer.Color) *TiltTable {
	accs := make(map[hydrometer.Color]*tiltAccumulator, len(colors))
	for _, c := range colors {
		accs[c] = &tiltAccumulator{}
	}
	return &TiltTable{accs: accs, order: append([]hydrometer.Color(nil), colors...)}
}

// Accumulate merges one sample into the accumulator for its color.
func (t *TiltTable) Accumulate(s hydrometer.TiltSample) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	acc, ok := t.accs[s.Color]
	if !ok {
		return ErrUnknownIdentity
	}
	acc.samples++
	acc.rssiSum += s.RSSI
	acc.tempFSum += s.TemperatureF
	acc.gravitySum += s.SpecificGravity
	acc.address = s.Address
	acc.lastSeen = s.SeenAt
	return nil
}

// Drain averages and resets the window for the given color. Returns
// (nil, nil) when no samples accumulated since the last drain; the
// accumulator is then left untouched. The last-seen address and timestamp
// survive the reset as the basis for the next window.
func (t *TiltTable) Drain(color hydrometer.Color) (*TiltAverage, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	acc, ok := t.accs[color]
	if !ok {
		return nil, ErrUnknownIdentity
	}
	if acc.samples == 0 {
		return nil, nil
	}

	avg := &TiltAverage{
		Color:           color,
		TemperatureF:    acc.tempFSum / float64(acc.samples),
		SpecificGravity: acc.gravitySum / float64(acc.samples),
		RSSI:            floorDiv(acc.rssiSum, acc.samples),
		Address:         acc.address,
		LastSeen:        acc.lastSeen,
		Samples:         acc.samples,
	}
	*acc = tiltAccumulator{address: acc.address, lastSeen: acc.lastSeen}
	return avg, nil
}

// Colors returns the registered colors in registration order.
func (t *TiltTable) Colors() []hydrometer.Color {
	return append([]hydrometer.Color(nil), t.order...)
}

// PillAverage is the result of draining one RAPT Pill accumulation window.
// GravityVelocity is the mean over only the samples whose valid flag was set;
// GravityVelocityValid reports whether there was at least one such sample.
type PillAverage struct {
	Color                hydrometer.Color
	TemperatureC         float64
	SpecificGravity      float64
	GravityVelocity      float64
	GravityVelocityValid bool
	AccelX               float64
	AccelY               float64
	AccelZ               float64
	Battery              float64
	RSSI                 int
	Address              string
	LastSeen             time.Time
	Samples              int
}

type pillAccumulator struct {
	samples         int
	rssiSum         int
	tempCSum        float64
	gravitySum      float64
	velocitySum     float64
	velocitySamples int
	accelXSum       float64
	accelYSum       float64
	accelZSum       float64
	batterySum      float64
	address         string
	lastSeen        time.Time
}

// PillTable holds one accumulator per registered RAPT Pill identity.
type PillTable struct {
	mu    sync.Mutex
	accs  map[hydrometer.Color]*pillAccumulator
	order []hydrometer.Color
}

// NewPillTable registers an empty accumulator for each given color.
func NewPillTable(colors []hydrometer.Color) *PillTable {
	accs := make(map[hydrometer.Color]*pillAccumulator, len(colors))
	for _, c := range colors {
		accs[c] = &pillAccumulator{}
	}
	return &PillTable{accs: accs, order: append([]hydrometer.Color(nil), colors...)}
}

// Accumulate merges one sample into the accumulator for the given color.
// The gravity-velocity sum tracks its own sample count because validity is a
// per-sample flag and cannot mirror the outer count.
func (t *PillTable) Accumulate(color hydrometer.Color, s hydrometer.PillSample) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	acc, ok := t.accs[color]
	if !ok {
		return ErrUnknownIdentity
	}
	acc.samples++
	acc.rssiSum += s.RSSI
	acc.tempCSum += s.TemperatureC
	acc.gravitySum += s.SpecificGravity
	acc.accelXSum += s.AccelX
	acc.accelYSum += s.AccelY
	acc.accelZSum += s.AccelZ
	acc.batterySum += s.Battery
	if s.GravityVelocityValid {
		acc.velocitySum += s.GravityVelocity
		acc.velocitySamples++
	}
	acc.address = s.Address
	acc.lastSeen = s.SeenAt
	return nil
}

// Drain averages and resets the window for the given color, with the same
// empty-window and reset semantics as TiltTable.Drain.
func (t *PillTable) Drain(color hydrometer.Color) (*PillAverage, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	acc, ok := t.accs[color]
	if !ok {
		return nil, ErrUnknownIdentity
	}
	if acc.samples == 0 {
		return nil, nil
	}

	n := float64(acc.samples)
	avg := &PillAverage{
		Color:           color,
		TemperatureC:    acc.tempCSum / n,
		SpecificGravity: acc.gravitySum / n,
		AccelX:          acc.accelXSum / n,
		AccelY:          acc.accelYSum / n,
		AccelZ:          acc.accelZSum / n,
		Battery:         acc.batterySum / n,
		RSSI:            floorDiv(acc.rssiSum, acc.samples),
		Address:         acc.address,
		LastSeen:        acc.lastSeen,
		Samples:         acc.samples,
	}
	if acc.velocitySamples > 0 {
		avg.GravityVelocity = acc.velocitySum / float64(acc.velocitySamples)
		avg.GravityVelocityValid = true
	}
	*acc = pillAccumulator{address: acc.address, lastSeen: acc.lastSeen}
	return avg, nil
}

// Colors returns the registered colors in registration order.
func (t *PillTable) Colors() []hydrometer.Color {
	return append([]hydrometer.Color(nil), t.order...)
}
