package ingest

import (
	"fmt"
	"strconv"
	"strings"
)

const colorCommandPrefix = "SET_COLOR:"

// RGB is a validated LED color.
type RGB struct {
	R, G, B uint8
}

// Command renders the directive understood by the device, e.g. SET_COLOR:255,128,0.
func (c RGB) Command() string {
	return fmt.Sprintf("%s%d,%d,%d", colorCommandPrefix, c.R, c.G, c.B)
}

func (c RGB) Hex() string {
	return fmt.Sprintf("#%02x%02x%02x", c.R, c.G, c.B)
}

func (c RGB) Slice() []int {
	return []int{int(c.R), int(c.G), int(c.B)}
}

// ParseHexColor accepts RRGGBB with an optional leading '#'.
func ParseHexColor(value string) (RGB, error) {
	hex := strings.TrimPrefix(strings.TrimSpace(value), "#")
	if len(hex) != 6 {
		return RGB{}, invalid("couleur", "expected 6 hexadecimal digits, got %q", value)
	}

	var channels [3]uint8
	for i := range channels {
		n, err := strconv.ParseUint(hex[i*2:i*2+2], 16, 8)
		if err != nil {
			return RGB{}, invalid("couleur", "invalid hexadecimal color %q", value)
		}
		channels[i] = uint8(n)
	}

	return RGB{R: channels[0], G: channels[1], B: channels[2]}, nil
}

// ValidateRGB accepts exactly three integers in [0,255].
func ValidateRGB(values []int) (RGB, error) {
	if len(values) != 3 {
		return RGB{}, invalid("rgb", "expected 3 values, got %d", len(values))
	}

	for i, v := range values {
		if v < 0 || v > 255 {
			return RGB{}, invalid("rgb", "value %d at index %d is outside [0,255]", v, i)
		}
	}

	return RGB{R: uint8(values[0]), G: uint8(values[1]), B: uint8(values[2])}, nil
}

// ParseColorCommand is the device-side inverse of RGB.Command.
func ParseColorCommand(command string) (RGB, bool) {
	if !strings.HasPrefix(command, colorCommandPrefix) {
		return RGB{}, false
	}

	parts := strings.Split(strings.TrimPrefix(command, colorCommandPrefix), ",")
	if len(parts) != 3 {
		return RGB{}, false
	}

	values := make([]int, 3)
	for i, p := range parts {
		n, err := strconv.Atoi(strings.TrimSpace(p))
		if err != nil {
			return RGB{}, false
		}
		values[i] = n
	}

	rgb, err := ValidateRGB(values)
	if err != nil {
		return RGB{}, false
	}
	return rgb, true
}
