package config

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/sgoadhouse/ferm2mqtt/internal/calibration"
	"github.com/sgoadhouse/ferm2mqtt/internal/hydrometer"
)

type Config struct {
	AppEnv   string
	LogLevel slog.Level

	MQTTBroker   string
	MQTTPort     int
	MQTTUsername string
	MQTTPassword string
	MQTTClientID string

	BLEAdapter      string
	PublishInterval time.Duration

	TiltCalibration map[hydrometer.Color]calibration.Offset
	PillCalibration map[hydrometer.Color]calibration.Offset
}

func LoadFromEnv() (Config, error) {
	appEnv := strings.TrimSpace(os.Getenv("APP_ENV"))
	if appEnv == "" {
		appEnv = "dev"
	}
	switch appEnv {
	case "dev", "prod":
	default:
		return Config{}, fmt.Errorf("invalid APP_ENV %q (allowed: dev, prod)", appEnv)
	}

	logLevelStr := strings.TrimSpace(os.Getenv("LOG_LEVEL"))
	if logLevelStr == "" {
		logLevelStr = "info"
	}
	level, err := parseLogLevel(logLevelStr)
	if err != nil {
		return Config{}, err
	}

	mqttBroker := strings.TrimSpace(os.Getenv("MQTT_IP"))
	if mqttBroker == "" {
		mqttBroker = "127.0.0.1"
	}

	mqttPortStr := strings.TrimSpace(os.Getenv("MQTT_PORT"))
	if mqttPortStr == "" {
		mqttPortStr = "1883"
	}
	mqttPort, err := strconv.Atoi(mqttPortStr)
	if err != nil {
		return Config{}, fmt.Errorf("invalid MQTT_PORT %q: %w", mqttPortStr, err)
	}

	mqttClientID := strings.TrimSpace(os.Getenv("MQTT_CLIENT_ID"))
	if mqttClientID == "" {
		mqttClientID = "ferm2mqtt"
	}

	bleAdapter := strings.TrimSpace(os.Getenv("BLE_ADAPTER"))
	if bleAdapter == "" {
		bleAdapter = "hci0"
	}

	publishIntervalStr := strings.TrimSpace(os.Getenv("PUBLISH_INTERVAL"))
	if publishIntervalStr == "" {
		publishIntervalStr = "60s"
	}
	publishInterval, err := time.ParseDuration(publishIntervalStr)
	if err != nil {
		return Config{}, fmt.Errorf("invalid PUBLISH_INTERVAL %q: %w", publishIntervalStr, err)
	}
	if publishInterval <= 0 {
		return Config{}, fmt.Errorf("PUBLISH_INTERVAL must be positive, got %v", publishInterval)
	}

	tiltCal := make(map[hydrometer.Color]calibration.Offset)
	for _, color := range hydrometer.TiltColors() {
		name := "TILT_CAL_" + strings.ToUpper(string(color))
		off, ok, err := parseCalibration(name)
		if err != nil {
			return Config{}, err
		}
		if ok {
			tiltCal[color] = off
		}
	}

	pillCal := make(map[hydrometer.Color]calibration.Offset)
	for _, color := range hydrometer.PillColors() {
		name := "RAPT_CAL_" + strings.ToUpper(string(color))
		off, ok, err := parseCalibration(name)
		if err != nil {
			return Config{}, err
		}
		if ok {
			pillCal[color] = off
		}
	}

	return Config{
		AppEnv:          appEnv,
		LogLevel:        level,
		MQTTBroker:      mqttBroker,
		MQTTPort:        mqttPort,
		MQTTUsername:    strings.TrimSpace(os.Getenv("MQTT_USERNAME")),
		MQTTPassword:    os.Getenv("MQTT_PASSWORD"),
		MQTTClientID:    mqttClientID,
		BLEAdapter:      bleAdapter,
		PublishInterval: publishInterval,
		TiltCalibration: tiltCal,
		PillCalibration: pillCal,
	}, nil
}

// parseCalibration reads one optional calibration variable holding a JSON
// offset pair, e.g. TILT_CAL_BLUE={"temp": -1.5, "sg": 0.002}. Unset or empty
// means no calibration for that device.
func parseCalibration(name string) (calibration.Offset, bool, error) {
	raw := strings.TrimSpace(os.Getenv(name))
	if raw == "" {
		return calibration.Offset{}, false, nil
	}
	var off calibration.Offset
	if err := json.Unmarshal([]byte(raw), &off); err != nil {
		return calibration.Offset{}, false, fmt.Errorf("invalid %s %q: %w", name, raw, err)
	}
	return off, true, nil
}

func parseLogLevel(s string) (slog.Level, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return slog.LevelDebug, nil
	case "info":
		return slog.LevelInfo, nil
	case "warn", "warning":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	default:
		return slog.LevelInfo, fmt.Errorf("invalid LOG_LEVEL %q (allowed: debug, info, warn, error)", s)
	}
}
