package app

import (
	"context"
	"log/slog"

	"github.com/sgoadhouse/ferm2mqtt/internal/aggregate"
	"github.com/sgoadhouse/ferm2mqtt/internal/ble"
	"github.com/sgoadhouse/ferm2mqtt/internal/calibration"
	"github.com/sgoadhouse/ferm2mqtt/internal/clock"
	"github.com/sgoadhouse/ferm2mqtt/internal/config"
	"github.com/sgoadhouse/ferm2mqtt/internal/hydrometer"
	"github.com/sgoadhouse/ferm2mqtt/internal/mqtt"
	"github.com/sgoadhouse/ferm2mqtt/internal/publish"
	"github.com/sgoadhouse/ferm2mqtt/internal/router"
)

// Run wires the pipeline and blocks until ctx is canceled: BLE advertisements
// flow through the router into the aggregation tables, and the publisher
// drains them onto MQTT every publish interval.
func Run(ctx context.Context, cfg config.Config) error {
	slog.Info("initializing bridge",
		"mqtt_broker", cfg.MQTTBroker,
		"mqtt_port", cfg.MQTTPort,
		"mqtt_client_id", cfg.MQTTClientID,
		"ble_adapter", cfg.BLEAdapter,
		"publish_interval", cfg.PublishInterval,
	)

	cal, err := calibration.NewStore(cfg.TiltCalibration, cfg.PillCalibration)
	if err != nil {
		return err
	}

	// Initialize MQTT client
	mqttClient, err := mqtt.NewClient(cfg)
	if err != nil {
		return err
	}

	go func() {
		// Connect to MQTT broker with retry and backoff
		if err := mqttClient.Connect(ctx); err != nil {
			slog.Error("mqtt connect failed", "error", err)
			return
		}
	}()
	defer mqttClient.Disconnect()

	tilts := aggregate.NewTiltTable(hydrometer.TiltColors())
	pills := aggregate.NewPillTable(hydrometer.PillColors())
	rt := router.New(tilts, pills, clock.New())

	publisher := publish.New(cfg.PublishInterval, tilts, pills, cal, mqttClient)
	go func() {
		if err := publisher.Run(ctx); err != nil && ctx.Err() == nil {
			slog.Error("publisher stopped", "error", err)
		}
	}()

	bleListener := ble.NewListener(ble.Options{
		Adapter:    cfg.BLEAdapter,
		CompanyIDs: router.CompanyIDs(),
	})
	go func() {
		err := bleListener.Run(ctx, rt.Handle)
		if err != nil {
			slog.Warn("ble listener could not be initialized; bridge continues without BLE",
				"error", err,
			)
		}
	}()
	<-ctx.Done()

	slog.Info("bridge shutting down")
	return nil
}
