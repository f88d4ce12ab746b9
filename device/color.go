package device

import (
	"fmt"
	"strconv"
	"strings"
)

// Color identifies a Tilt hydrometer. Each color has its own code in the iBeacon UUID.
type Color uint8

const (
	ColorRed Color = iota + 1
	ColorGreen
	ColorBlack
	ColorPurple
	ColorOrange
	ColorBlue
	ColorYellow
	ColorPink
)

var AllColors = []Color{
	ColorRed,
	ColorGreen,
	ColorBlack,
	ColorPurple,
	ColorOrange,
	ColorBlue,
	ColorYellow,
	ColorPink,
}

var colorNames = map[Color]string{
	ColorRed:    "red",
	ColorGreen:  "green",
	ColorBlack:  "black",
	ColorPurple: "purple",
	ColorOrange: "orange",
	ColorBlue:   "blue",
	ColorYellow: "yellow",
	ColorPink:   "pink",
}

// ColorFromCode maps the color byte of the UUID to a Color. Unknown codes are reported
// through the second return value.
func ColorFromCode(code byte) (Color, bool) {
	if code == 0 || code&0x0f != 0 || code > 0x80 {
		return 0, false
	}

	return Color(code >> 4), true
}

func ParseColor(s string) (Color, error) {
	s = strings.ToLower(strings.TrimSpace(s))

	for c, name := range colorNames {
		if name == s {
			return c, nil
		}
	}

	return 0, fmt.Errorf("%w: %q", ErrUnknownColor, s)
}

func (c Color) Code() byte {
	return byte(c) << 4
}

func (c Color) Valid() bool {
	_, ok := colorNames[c]
	return ok
}

func (c Color) String() string {
	if name, ok := colorNames[c]; ok {
		return name
	}

	return "unknown(" + strconv.Itoa(int(c)) + ")"
}
