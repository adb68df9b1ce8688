package ingest

import (
	"math"
	"strconv"
	"strings"
	"unicode/utf8"
)

// ButtonType is the boolean-like sensor: its value must be "true" or "false" unless numeric.
const ButtonType = "bouton_poussoir"

// MaxSensorTypeLength bounds the sensor type, in characters, to fit the readings table.
const MaxSensorTypeLength = 64

// SensorValue is a coerced reading ready to persist. Text is nil for numeric readings.
type SensorValue struct {
	Type  string
	Value float64
	Text  *string
}

// CoerceSensorValue tries a numeric parse first, then the type specific rules, then keeps the
// raw string as text with a zero numeric value.
func CoerceSensorValue(sensorType, raw string) (SensorValue, error) {
	sensorType = strings.TrimSpace(sensorType)
	raw = strings.TrimSpace(raw)

	if sensorType == "" {
		return SensorValue{}, invalid("type", "is required")
	}
	if utf8.RuneCountInString(sensorType) > MaxSensorTypeLength {
		return SensorValue{}, invalid("type", "must be at most %d characters", MaxSensorTypeLength)
	}
	if raw == "" {
		return SensorValue{}, invalid("valeur", "is required")
	}

	if f, err := strconv.ParseFloat(raw, 64); err == nil && !math.IsNaN(f) && !math.IsInf(f, 0) {
		return SensorValue{Type: sensorType, Value: f}, nil
	}

	if sensorType == ButtonType {
		switch strings.ToLower(raw) {
		case "true":
			return SensorValue{Type: sensorType, Value: 1}, nil
		case "false":
			return SensorValue{Type: sensorType, Value: 0}, nil
		default:
			return SensorValue{}, invalid("valeur", "%s expects true or false, got %q", ButtonType, raw)
		}
	}

	text := raw
	return SensorValue{Type: sensorType, Value: 0, Text: &text}, nil
}
