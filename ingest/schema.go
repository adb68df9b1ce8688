package ingest

import (
	"math"
	"strconv"
	"strings"

	"github.com/goccy/go-json"
	"github.com/xeipuuv/gojsonschema"
)

const sensorSchemaJSON = `{
	"type": "object",
	"required": ["type", "valeur"],
	"properties": {
		"type": {"type": "string", "minLength": 1, "maxLength": 64},
		"valeur": {"type": ["string", "number", "boolean"]}
	}
}`

const ledSchemaJSON = `{
	"type": "object",
	"minProperties": 1,
	"maxProperties": 1,
	"additionalProperties": false,
	"properties": {
		"rgb": {
			"type": "array",
			"minItems": 3,
			"maxItems": 3,
			"items": {"type": "integer", "minimum": 0, "maximum": 255}
		},
		"hex": {"type": "string", "pattern": "^#?[0-9a-fA-F]{6}$"}
	}
}`

const commandSchemaJSON = `{
	"type": "object",
	"required": ["commande"],
	"properties": {
		"commande": {"type": "string", "minLength": 1}
	}
}`

const mirrorCommandSchemaJSON = `{
	"type": "object",
	"required": ["command"],
	"properties": {
		"command": {"type": "string", "minLength": 1}
	}
}`

var (
	sensorSchema        = mustSchema(sensorSchemaJSON)
	ledSchema           = mustSchema(ledSchemaJSON)
	commandSchema       = mustSchema(commandSchemaJSON)
	mirrorCommandSchema = mustSchema(mirrorCommandSchemaJSON)
)

func mustSchema(source string) *gojsonschema.Schema {
	schema, err := gojsonschema.NewSchema(gojsonschema.NewStringLoader(source))
	if err != nil {
		panic(err)
	}
	return schema
}

// validate checks body against schema and turns the first violation into a ValidationError.
func validate(schema *gojsonschema.Schema, body []byte) error {
	if len(strings.TrimSpace(string(body))) == 0 {
		return invalid("", "request body is required")
	}

	result, err := schema.Validate(gojsonschema.NewBytesLoader(body))
	if err != nil {
		return invalid("", "invalid JSON body")
	}

	if !result.Valid() {
		first := result.Errors()[0]
		field := first.Field()
		if field == "(root)" {
			field = ""
		}
		return invalid(field, "%s", first.Description())
	}

	return nil
}

type sensorRequest struct {
	Type   string      `json:"type"`
	Valeur interface{} `json:"valeur"`
}

// DecodeSensorRequest validates a {type, valeur} body and coerces the value. valeur may be
// a string, a number or a boolean.
func DecodeSensorRequest(body []byte) (SensorValue, error) {
	if err := validate(sensorSchema, body); err != nil {
		return SensorValue{}, err
	}

	var req sensorRequest
	if err := json.Unmarshal(body, &req); err != nil {
		return SensorValue{}, invalid("", "invalid JSON body")
	}

	var raw string
	switch v := req.Valeur.(type) {
	case string:
		raw = v
	case float64:
		raw = strconv.FormatFloat(v, 'f', -1, 64)
	case bool:
		raw = strconv.FormatBool(v)
	default:
		return SensorValue{}, invalid("valeur", "unsupported value")
	}

	return CoerceSensorValue(req.Type, raw)
}

type ledRequest struct {
	RGB []float64 `json:"rgb"`
	Hex *string   `json:"hex"`
}

// DecodeLEDRequest accepts either {"rgb":[r,g,b]} or {"hex":"#rrggbb"}.
func DecodeLEDRequest(body []byte) (RGB, error) {
	if err := validate(ledSchema, body); err != nil {
		return RGB{}, err
	}

	var req ledRequest
	if err := json.Unmarshal(body, &req); err != nil {
		return RGB{}, invalid("", "invalid JSON body")
	}

	if req.Hex != nil {
		return ParseHexColor(*req.Hex)
	}

	values := make([]int, len(req.RGB))
	for i, v := range req.RGB {
		if v != math.Trunc(v) {
			return RGB{}, invalid("rgb", "value at index %d is not an integer", i)
		}
		values[i] = int(v)
	}

	return ValidateRGB(values)
}

type commandRequest struct {
	Commande string `json:"commande"`
}

// DecodeCommandRequest returns the trimmed, non-empty generic command.
func DecodeCommandRequest(body []byte) (string, error) {
	if err := validate(commandSchema, body); err != nil {
		return "", err
	}

	var req commandRequest
	if err := json.Unmarshal(body, &req); err != nil {
		return "", invalid("", "invalid JSON body")
	}

	return ValidateCommand(req.Commande)
}

type mirrorCommandRequest struct {
	Command string `json:"command"`
}

func DecodeMirrorCommandRequest(body []byte) (string, error) {
	if err := validate(mirrorCommandSchema, body); err != nil {
		return "", err
	}

	var req mirrorCommandRequest
	if err := json.Unmarshal(body, &req); err != nil {
		return "", invalid("", "invalid JSON body")
	}

	command := strings.TrimSpace(req.Command)
	if command == "" {
		return "", invalid("command", "is required")
	}
	return command, nil
}

// ValidateCommand rejects blank generic commands.
func ValidateCommand(command string) (string, error) {
	command = strings.TrimSpace(command)
	if command == "" {
		return "", invalid("commande", "is required")
	}
	return command, nil
}
