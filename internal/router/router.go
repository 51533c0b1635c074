// Package router dispatches raw BLE advertisements to the decoder for their
// manufacturer ID and merges the decoded samples into the aggregation tables.
package router

import (
	"errors"
	"log/slog"

	"github.com/sgoadhouse/ferm2mqtt/internal/aggregate"
	"github.com/sgoadhouse/ferm2mqtt/internal/ble"
	"github.com/sgoadhouse/ferm2mqtt/internal/clock"
	"github.com/sgoadhouse/ferm2mqtt/internal/hydrometer"
	"github.com/sgoadhouse/ferm2mqtt/internal/utils"
)

// Manufacturer IDs as delivered by the BLE stack (company ID bytes already
// byte-swapped off the air).
const (
	CompanyApple uint16 = 0x004C
	CompanyRapt  uint16 = 0x4152
)

// CompanyIDs lists the manufacturer IDs the router handles, for use as a
// listener filter.
func CompanyIDs() []uint16 {
	return []uint16{CompanyApple, CompanyRapt}
}

// Router turns one advertisement into at most one accumulated sample.
// A decode failure only affects that advertisement; Handle never panics and
// never returns, so the scan callback keeps running.
type Router struct {
	tilts *aggregate.TiltTable
	pills *aggregate.PillTable
	clock clock.Clock
}

func New(tilts *aggregate.TiltTable, pills *aggregate.PillTable, cl clock.Clock) *Router {
	return &Router{tilts: tilts, pills: pills, clock: cl}
}

// Handle routes a single advertisement. Unknown manufacturer IDs are routine
// noise and are dropped without logging.
func (r *Router) Handle(adv ble.Advertisement) {
	switch adv.CompanyID {
	case CompanyApple:
		r.handleTilt(adv)
	case CompanyRapt:
		r.handlePill(adv)
	default:
	}
}

func (r *Router) handleTilt(adv ble.Advertisement) {
	sample, err := hydrometer.DecodeTilt(adv.Data)
	switch {
	case errors.Is(err, hydrometer.ErrUnknownColor):
		// Many non-Tilt iBeacons exist; worth a line, not an error.
		slog.Info("tilt: uuid is not a tilt color, probably some other ibeacon",
			"addr", adv.Address, "data", utils.BytesToHex(adv.Data))
		return
	case err != nil:
		slog.Error("tilt: could not unpack ibeacon payload",
			"addr", adv.Address, "data", utils.BytesToHex(adv.Data), "error", err)
		return
	case sample == nil:
		// Apple manufacturer frame that is not an iBeacon. Ignore.
		return
	}

	sample.RSSI = adv.RSSI
	sample.Address = adv.Address
	sample.SeenAt = r.clock.Now()

	if err := r.tilts.Accumulate(*sample); err != nil {
		slog.Error("tilt: could not accumulate sample", "color", sample.Color, "error", err)
		return
	}
	slog.Debug("tilt: sample accumulated",
		"color", sample.Color,
		"addr", adv.Address,
		"rssi", adv.RSSI,
		"sg", sample.SpecificGravity,
		"temp_f", sample.TemperatureF,
	)
}

func (r *Router) handlePill(adv ble.Advertisement) {
	msg, err := hydrometer.DecodePill(adv.Data)
	switch {
	case errors.Is(err, hydrometer.ErrUnrecognizedSubtype):
		slog.Warn("rapt: unknown pill message sub-type",
			"addr", adv.Address, "data", utils.BytesToHex(adv.Data))
		return
	case err != nil:
		slog.Error("rapt: could not unpack pill payload",
			"addr", adv.Address, "data", utils.BytesToHex(adv.Data), "error", err)
		return
	}

	switch msg.Kind {
	case hydrometer.PillFirmware:
		slog.Info("rapt: pill firmware", "addr", adv.Address, "version", msg.Firmware)
	case hydrometer.PillDeviceType:
		slog.Info("rapt: pill device type", "addr", adv.Address, "device_type", msg.DeviceType)
	case hydrometer.PillLegacyV1:
		slog.Warn("rapt: v1 format data is not supported",
			"addr", adv.Address, "data", utils.BytesToHex(adv.Data))
	case hydrometer.PillMeasurement:
		sample := *msg.Sample
		sample.RSSI = adv.RSSI
		sample.Address = adv.Address
		sample.SeenAt = r.clock.Now()

		if err := r.pills.Accumulate(hydrometer.PillColor, sample); err != nil {
			slog.Error("rapt: could not accumulate sample", "color", hydrometer.PillColor, "error", err)
			return
		}
		slog.Debug("rapt: sample accumulated",
			"color", hydrometer.PillColor,
			"addr", adv.Address,
			"rssi", adv.RSSI,
			"sg", sample.SpecificGravity,
			"temp_c", sample.TemperatureC,
			"battery", sample.Battery,
		)
	default:
		slog.Warn("rapt: unhandled pill message kind", "kind", int(msg.Kind))
	}
}
