package device_test

import (
	"errors"
	"testing"

	"github.com/robertof/go-tilt-logger/device"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestColorFromCode(t *testing.T) {
	want := map[byte]string{
		0x10: "red",
		0x20: "green",
		0x30: "black",
		0x40: "purple",
		0x50: "orange",
		0x60: "blue",
		0x70: "yellow",
		0x80: "pink",
	}

	for code := 0; code <= 0xff; code++ {
		c, ok := device.ColorFromCode(byte(code))
		name, known := want[byte(code)]

		require.Equal(t, known, ok, "code 0x%02x", code)

		if known {
			assert.Equal(t, name, c.String())
			assert.Equal(t, byte(code), c.Code())
		}
	}
}

func TestParseColor(t *testing.T) {
	for _, c := range device.AllColors {
		got, err := device.ParseColor(" " + c.String() + " ")
		require.NoError(t, err)
		assert.Equal(t, c, got)
	}

	_, err := device.ParseColor("mauve")
	assert.True(t, errors.Is(err, device.ErrUnknownColor))
}

func TestDeviceSpec(t *testing.T) {
	spec := device.NewDeviceSpec("color=Red, name=ipa batch 3,garbage")

	c, err := spec.Color()
	require.NoError(t, err)
	assert.Equal(t, device.ColorRed, c)
	assert.Equal(t, "ipa batch 3", spec.Name())

	_, err = device.NewDeviceSpec("name=foo").Color()
	assert.Error(t, err)
}
