// Package publish drains the aggregation tables on a fixed wall-clock
// interval and hands one averaged, calibrated record per active device to the
// message sink. Topics are tilt/<color> and rapt/pill/<color>; measurement
// keys carry a _cali or _uncali suffix depending on whether a calibration
// offset is configured for the device.
package publish

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	"github.com/sgoadhouse/ferm2mqtt/internal/aggregate"
	"github.com/sgoadhouse/ferm2mqtt/internal/calibration"
	"github.com/sgoadhouse/ferm2mqtt/internal/hydrometer"
)

const lastActivityLayout = "2006-01-02 15:04:05"

// Sink delivers one payload to a topic, fire and forget. Failures are the
// caller's to log; nothing is retried.
type Sink interface {
	Publish(topic string, payload []byte, qos byte, retain bool) error
}

// Publisher owns the periodic drain-and-publish cycle.
type Publisher struct {
	interval time.Duration
	tilts    *aggregate.TiltTable
	pills    *aggregate.PillTable
	cal      *calibration.Store
	sink     Sink
}

func New(interval time.Duration, tilts *aggregate.TiltTable, pills *aggregate.PillTable, cal *calibration.Store, sink Sink) *Publisher {
	return &Publisher{
		interval: interval,
		tilts:    tilts,
		pills:    pills,
		cal:      cal,
		sink:     sink,
	}
}

// Run ticks until ctx is canceled. A stalled tick is not made up for; the
// next one simply averages over a longer window.
func (p *Publisher) Run(ctx context.Context) error {
	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			p.PublishAll()
		}
	}
}

// PublishAll drains every registered identity in both tables and publishes a
// record for each that had at least one sample this window. Drains happen
// before any sink I/O for that identity, so the aggregator lock is never held
// across a publish.
func (p *Publisher) PublishAll() {
	for _, color := range p.tilts.Colors() {
		avg, err := p.tilts.Drain(color)
		if err != nil {
			slog.Error("publish: tilt drain failed", "color", color, "error", err)
			continue
		}
		if avg == nil {
			continue
		}
		p.send(fmt.Sprintf("tilt/%s", color), tiltRecord(*avg, p.cal), color, avg.Samples)
	}

	for _, color := range p.pills.Colors() {
		avg, err := p.pills.Drain(color)
		if err != nil {
			slog.Error("publish: pill drain failed", "color", color, "error", err)
			continue
		}
		if avg == nil {
			continue
		}
		p.send(fmt.Sprintf("rapt/pill/%s", color), pillRecord(*avg, p.cal), color, avg.Samples)
	}
}

func (p *Publisher) send(topic string, record map[string]string, color hydrometer.Color, samples int) {
	payload, err := json.Marshal(record)
	if err != nil {
		slog.Error("publish: marshal record", "topic", topic, "error", err)
		return
	}
	if err := p.sink.Publish(topic, payload, 0, true); err != nil {
		slog.Warn("publish: sink delivery failed", "topic", topic, "error", err)
		return
	}
	slog.Info("publish: record sent", "topic", topic, "color", color, "samples", samples)
}

// tiltRecord applies calibration and unit conversion to a drained Tilt
// average. The temperature offset is in °F, the Tilt's native unit; °C and
// Plato are derived after calibration so every published field is corrected.
func tiltRecord(avg aggregate.TiltAverage, cal *calibration.Store) map[string]string {
	tempF := avg.TemperatureF
	sg := avg.SpecificGravity
	suffix := "uncali"
	if off, ok := cal.Tilt(avg.Color); ok {
		suffix = "cali"
		tempF += off.Temp
		sg += off.SG
	}
	tempC := hydrometer.FahrenheitToCelsius(tempF)
	plato := hydrometer.SpecificGravityToPlato(sg)

	return map[string]string{
		"specific_gravity_" + suffix:       fmt.Sprintf("%.3f", sg),
		"plato_" + suffix:                  fmt.Sprintf("%.2f", plato),
		"temperature_celsius_" + suffix:    fmt.Sprintf("%.2f", tempC),
		"temperature_fahrenheit_" + suffix: fmt.Sprintf("%.1f", tempF),
		"rssi":                             strconv.Itoa(avg.RSSI),
		"lastActivityTime":                 avg.LastSeen.Format(lastActivityLayout),
	}
}

// pillRecord applies calibration and unit conversion to a drained RAPT Pill
// average. The temperature offset is in °C, the Pill's native unit; °F is
// derived after calibration. The gravity-velocity key appears only when the
// window contained at least one sample with the valid flag set.
func pillRecord(avg aggregate.PillAverage, cal *calibration.Store) map[string]string {
	tempC := avg.TemperatureC
	sg := avg.SpecificGravity
	suffix := "uncali"
	if off, ok := cal.Pill(avg.Color); ok {
		suffix = "cali"
		tempC += off.Temp
		sg += off.SG
	}
	tempF := hydrometer.CelsiusToFahrenheit(tempC)

	record := map[string]string{
		"specific_gravity_" + suffix:       fmt.Sprintf("%.4f", sg),
		"temperature_celsius_" + suffix:    fmt.Sprintf("%.2f", tempC),
		"temperature_fahrenheit_" + suffix: fmt.Sprintf("%.1f", tempF),
		"battery":                          fmt.Sprintf("%.1f", avg.Battery),
		"rssi":                             strconv.Itoa(avg.RSSI),
		"lastActivityTime":                 avg.LastSeen.Format(lastActivityLayout),
	}
	if avg.GravityVelocityValid {
		record["specific_gravity_pts_per_day_"+suffix] = fmt.Sprintf("%.1f", avg.GravityVelocity)
	}
	return record
}
