package ingest

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseHexColor(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
		wantErr  bool
	}{
		{name: "With hash", input: "#ff8000", expected: "SET_COLOR:255,128,0"},
		{name: "Without hash", input: "ff8000", expected: "SET_COLOR:255,128,0"},
		{name: "Upper case", input: "#00FF0A", expected: "SET_COLOR:0,255,10"},
		{name: "Black", input: "000000", expected: "SET_COLOR:0,0,0"},
		{name: "Surrounding spaces", input: "  #0a0b0c ", expected: "SET_COLOR:10,11,12"},
		{name: "Too short", input: "#fff", wantErr: true},
		{name: "Too long", input: "#ff80000", wantErr: true},
		{name: "Not hex", input: "#gg0000", wantErr: true},
		{name: "Signed pair", input: "+10000", wantErr: true},
		{name: "Empty", input: "", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rgb, err := ParseHexColor(tt.input)
			if tt.wantErr {
				require.Error(t, err)
				assert.True(t, IsValidationError(err))
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.expected, rgb.Command())
		})
	}
}

func TestParseHexColorRoundTrip(t *testing.T) {
	for _, c := range []RGB{{0, 0, 0}, {255, 255, 255}, {1, 128, 254}} {
		parsed, err := ParseHexColor(c.Hex())
		require.NoError(t, err)
		assert.Equal(t, c, parsed)
	}
}

func TestValidateRGB(t *testing.T) {
	tests := []struct {
		name    string
		input   []int
		wantErr bool
	}{
		{name: "Valid", input: []int{10, 20, 30}},
		{name: "Bounds", input: []int{0, 255, 0}},
		{name: "Above range", input: []int{10, 20, 300}, wantErr: true},
		{name: "Negative", input: []int{-1, 20, 30}, wantErr: true},
		{name: "Too few", input: []int{10, 20}, wantErr: true},
		{name: "Too many", input: []int{1, 2, 3, 4}, wantErr: true},
		{name: "Nil", input: nil, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rgb, err := ValidateRGB(tt.input)
			if tt.wantErr {
				require.Error(t, err)
				assert.True(t, IsValidationError(err))
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.input, rgb.Slice())
		})
	}
}

func TestParseColorCommand(t *testing.T) {
	rgb, ok := ParseColorCommand("SET_COLOR:255,128,0")
	require.True(t, ok)
	assert.Equal(t, RGB{255, 128, 0}, rgb)

	for _, bad := range []string{"LED_ON", "SET_COLOR:1,2", "SET_COLOR:a,b,c", "SET_COLOR:1,2,256"} {
		_, ok := ParseColorCommand(bad)
		assert.False(t, ok, bad)
	}
}

func TestCoerceSensorValue(t *testing.T) {
	tests := []struct {
		name       string
		sensorType string
		raw        string
		value      float64
		text       string
		wantErr    bool
	}{
		{name: "Decimal", sensorType: "temperature", raw: "23.5", value: 23.5},
		{name: "Integer", sensorType: "humidite", raw: "65", value: 65},
		{name: "Negative", sensorType: "temperature", raw: "-4.25", value: -4.25},
		{name: "Text fallback", sensorType: "direction", raw: "abc", text: "abc"},
		{name: "Button true", sensorType: ButtonType, raw: "true", value: 1},
		{name: "Button TRUE", sensorType: ButtonType, raw: "TRUE", value: 1},
		{name: "Button false", sensorType: ButtonType, raw: "False", value: 0},
		{name: "Button numeric", sensorType: ButtonType, raw: "1", value: 1},
		{name: "Button maybe", sensorType: ButtonType, raw: "maybe", wantErr: true},
		{name: "NaN stays text", sensorType: "pression", raw: "NaN", text: "NaN"},
		{name: "Missing type", sensorType: " ", raw: "1", wantErr: true},
		{name: "Missing value", sensorType: "temperature", raw: "", wantErr: true},
		{name: "Type at limit", sensorType: strings.Repeat("t", MaxSensorTypeLength), raw: "1", value: 1},
		{name: "Type too long", sensorType: strings.Repeat("t", MaxSensorTypeLength+1), raw: "1", wantErr: true},
		{name: "Multibyte type at limit", sensorType: strings.Repeat("é", MaxSensorTypeLength), raw: "1", value: 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			v, err := CoerceSensorValue(tt.sensorType, tt.raw)
			if tt.wantErr {
				require.Error(t, err)
				assert.True(t, IsValidationError(err))
				return
			}
			require.NoError(t, err)
			assert.InDelta(t, tt.value, v.Value, 1e-9)
			if tt.text == "" {
				assert.Nil(t, v.Text)
			} else {
				require.NotNil(t, v.Text)
				assert.Equal(t, tt.text, *v.Text)
				assert.Zero(t, v.Value)
			}
		})
	}
}

func TestDecodeSensorRequest(t *testing.T) {
	v, err := DecodeSensorRequest([]byte(`{"type":"temperature","valeur":"21.0"}`))
	require.NoError(t, err)
	assert.Equal(t, "temperature", v.Type)
	assert.InDelta(t, 21.0, v.Value, 1e-9)

	v, err = DecodeSensorRequest([]byte(`{"type":"luminosite","valeur":750}`))
	require.NoError(t, err)
	assert.InDelta(t, 750, v.Value, 1e-9)

	v, err = DecodeSensorRequest([]byte(`{"type":"bouton_poussoir","valeur":true}`))
	require.NoError(t, err)
	assert.InDelta(t, 1, v.Value, 1e-9)

	for _, body := range []string{
		``,
		`not json`,
		`{"type":"temperature"}`,
		`{"valeur":"1"}`,
		`{"type":"temperature","valeur":null}`,
		`{"type":"temperature","valeur":[1]}`,
		`{"type":"bouton_poussoir","valeur":"maybe"}`,
	} {
		_, err := DecodeSensorRequest([]byte(body))
		require.Error(t, err, body)
		assert.True(t, IsValidationError(err), body)
	}
}

func TestDecodeLEDRequest(t *testing.T) {
	rgb, err := DecodeLEDRequest([]byte(`{"rgb":[10,20,30]}`))
	require.NoError(t, err)
	assert.Equal(t, "SET_COLOR:10,20,30", rgb.Command())

	rgb, err = DecodeLEDRequest([]byte(`{"hex":"#ff8000"}`))
	require.NoError(t, err)
	assert.Equal(t, "SET_COLOR:255,128,0", rgb.Command())

	for _, body := range []string{
		`{"rgb":[10,20,300]}`,
		`{"rgb":[10,20,-1]}`,
		`{"rgb":[10,20]}`,
		`{"rgb":[10,20,30,40]}`,
		`{"rgb":[10.5,20,30]}`,
		`{"rgb":["10",20,30]}`,
		`{"rgb":[10,20,30],"hex":"#000000"}`,
		`{"hex":"#zzzzzz"}`,
		`{}`,
		`[]`,
	} {
		_, err := DecodeLEDRequest([]byte(body))
		require.Error(t, err, body)
		assert.True(t, IsValidationError(err), body)
	}
}

func TestDecodeCommandRequest(t *testing.T) {
	cmd, err := DecodeCommandRequest([]byte(`{"commande":" LED_ON "}`))
	require.NoError(t, err)
	assert.Equal(t, "LED_ON", cmd)

	for _, body := range []string{`{"commande":""}`, `{"commande":"   "}`, `{}`, `{"commande":1}`} {
		_, err := DecodeCommandRequest([]byte(body))
		require.Error(t, err, body)
		assert.True(t, IsValidationError(err), body)
	}
}
